package aliyun

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"audiopaas-server-go/internal/platform/errors"
)

// TokenClient 调用阿里云NLS元数据服务换取语音网关访问令牌。
// 走POP网关的RPC风格签名（HMAC-SHA1），令牌带绝对过期时间戳。
type TokenClient struct {
	endpoint string
	http     *http.Client
}

// NewTokenClient 创建令牌客户端
func NewTokenClient(endpoint string, httpClient *http.Client) *TokenClient {
	return &TokenClient{endpoint: endpoint, http: httpClient}
}

type tokenResponse struct {
	Token struct {
		ID         string `json:"Id"`
		ExpireTime int64  `json:"ExpireTime"`
	} `json:"Token"`
	ErrMsg string `json:"ErrMsg"`
}

// CreateToken 换取令牌，返回令牌与剩余有效时长。
func (c *TokenClient) CreateToken(ctx context.Context, accessKeyID, accessKeySecret string) (string, time.Duration, error) {
	const op = "aliyun.token"

	params := url.Values{}
	params.Set("AccessKeyId", accessKeyID)
	params.Set("Action", "CreateToken")
	params.Set("Version", "2019-02-28")
	params.Set("Format", "JSON")
	params.Set("RegionId", "cn-shanghai")
	params.Set("Timestamp", time.Now().UTC().Format("2006-01-02T15:04:05Z"))
	params.Set("SignatureMethod", "HMAC-SHA1")
	params.Set("SignatureVersion", "1.0")
	params.Set("SignatureNonce", uuid.New().String())
	params.Set("Signature", sign("GET", params, accessKeySecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", 0, errors.Wrap(errors.KindClientCreation, op, "build token request failed", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, errors.Wrap(errors.KindClientCreation, op, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, errors.Wrap(errors.KindClientCreation, op, "read token response failed", err)
	}

	var tr tokenResponse
	if err := sonic.Unmarshal(body, &tr); err != nil {
		return "", 0, errors.Wrap(errors.KindClientCreation, op, "decode token response failed", err)
	}
	if tr.Token.ID == "" {
		msg := tr.ErrMsg
		if msg == "" {
			msg = fmt.Sprintf("status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
		}
		return "", 0, errors.New(errors.KindClientCreation, op, "token service rejected request: "+msg)
	}

	validity := time.Until(time.Unix(tr.Token.ExpireTime, 0))
	if validity <= 0 {
		validity = time.Hour
	}
	return tr.Token.ID, validity, nil
}

// sign POP网关RPC签名：规范化查询串 -> StringToSign -> HMAC-SHA1 -> Base64
func sign(method string, params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var canonical strings.Builder
	for i, k := range keys {
		if i > 0 {
			canonical.WriteByte('&')
		}
		canonical.WriteString(popEncode(k))
		canonical.WriteByte('=')
		canonical.WriteString(popEncode(params.Get(k)))
	}

	stringToSign := method + "&" + popEncode("/") + "&" + popEncode(canonical.String())
	mac := hmac.New(sha1.New, []byte(secret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// popEncode POP网关要求的百分号编码变体
func popEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
