package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"audiopaas-server-go/internal/platform/errors"
)

// encPrefix 标记密文，区分历史明文记录
const encPrefix = "enc:v1:"

// Codec 凭证字段的AES-GCM加解密。
// 密钥来自配置 security.encryption_key（16/24/32字节）。
// 空密钥退化为明文直通，仅限本地开发。
type Codec struct {
	key []byte
}

// NewCodec 创建凭证编解码器
func NewCodec(key string) (*Codec, error) {
	if key == "" {
		return &Codec{}, nil
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New(errors.KindConfig, "storage.codec",
			"encryption key must be 16, 24 or 32 bytes")
	}
	return &Codec{key: []byte(key)}, nil
}

// Encrypt 加密明文，返回带前缀的Base64密文。随机nonce前置。
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if len(c.key) == 0 || plaintext == "" {
		return plaintext, nil
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.encrypt", "cipher init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.encrypt", "gcm init failed", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.encrypt", "nonce generation failed", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return encPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 解密带前缀的密文；无前缀的值按历史明文原样返回。
func (c *Codec) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, encPrefix) {
		return stored, nil
	}
	if len(c.key) == 0 {
		return "", errors.New(errors.KindConfig, "storage.decrypt",
			"record is encrypted but no encryption key is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.decrypt", "base64 decode failed", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.decrypt", "cipher init failed", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.decrypt", "gcm init failed", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New(errors.KindPlatform, "storage.decrypt", "ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, raw[:gcm.NonceSize()], raw[gcm.NonceSize():], nil)
	if err != nil {
		return "", errors.Wrap(errors.KindPlatform, "storage.decrypt", "decryption failed", err)
	}
	return string(plaintext), nil
}
