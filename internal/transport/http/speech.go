package httptransport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/platform/errors"
	"audiopaas-server-go/internal/platform/logging"
)

// Dispatcher 合成分发端口，由路由核心实现
type Dispatcher interface {
	Dispatch(ctx context.Context, req tts.Request) (*tts.Response, error)
}

// VoiceLister 音色目录查询端口
type VoiceLister interface {
	List() ([]*tts.VoiceDefinition, error)
}

// SpeechService OpenAI兼容的语音合成接口
type SpeechService struct {
	dispatcher Dispatcher
	voices     VoiceLister
	logger     *logging.Logger
}

// NewSpeechService 创建语音接口服务
func NewSpeechService(dispatcher Dispatcher, voices VoiceLister, logger *logging.Logger) *SpeechService {
	return &SpeechService{dispatcher: dispatcher, voices: voices, logger: logger}
}

// Register 挂载 /v1/audio 与 /v1/debug 路由
func (s *SpeechService) Register(group *gin.RouterGroup) {
	audio := group.Group("/audio")
	audio.POST("/speech", s.handleSpeech)
	audio.GET("/voices", s.handleVoices)

	group.GET("/debug/providers", s.handleDebugProviders)
}

// speechRequest OpenAI /v1/audio/speech 的请求体
type speechRequest struct {
	Model          string                 `json:"model"`
	Input          string                 `json:"input"`
	Voice          string                 `json:"voice"`
	ResponseFormat string                 `json:"response_format"`
	Speed          float32                `json:"speed"`
	Stream         bool                   `json:"stream"`
	ExtraBody      map[string]interface{} `json:"extra_body"`
}

func (s *SpeechService) handleSpeech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.Model == "" {
		RespondError(c, http.StatusBadRequest, "model is required", nil)
		return
	}
	if req.Input == "" {
		RespondError(c, http.StatusBadRequest, "input text is required", nil)
		return
	}
	if req.Voice == "" {
		RespondError(c, http.StatusBadRequest, "voice is required", nil)
		return
	}

	format := tts.FormatMP3
	if req.ResponseFormat != "" {
		format = tts.ParseAudioFormat(req.ResponseFormat)
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1.0
	}

	resp, err := s.dispatcher.Dispatch(c.Request.Context(), tts.Request{
		Text:    req.Input,
		VoiceID: req.Voice,
		Model:   req.Model,
		Speed:   speed,
		Format:  format,
		Stream:  req.Stream,
		Extra:   req.ExtraBody,
	})
	if err != nil {
		s.logger.WarnTag("HTTP", "合成请求失败 voice=%s: %v", req.Voice, err)
		RespondError(c, statusForError(err), err.Error(), nil)
		return
	}
	defer resp.Audio.Close()

	c.Header("Content-Type", resp.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "speech."+string(resp.Format)))
	if resp.ContentLength > 0 {
		c.Header("Content-Length", strconv.FormatInt(resp.ContentLength, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, resp.Audio); err != nil {
		// 响应头已发出，只能记日志
		s.logger.WarnTag("HTTP", "音频写出中断: %v", err)
	}
}

// voiceEntry 音色目录条目
type voiceEntry struct {
	ID          string   `json:"id"`
	Provider    string   `json:"provider"`
	DisplayName string   `json:"display_name,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Styles      []string `json:"styles,omitempty"`
}

func (s *SpeechService) handleVoices(c *gin.Context) {
	defs, err := s.voices.List()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list voices", nil)
		return
	}

	entries := make([]voiceEntry, 0, len(defs))
	for _, def := range defs {
		entries = append(entries, voiceEntry{
			ID:          def.ID,
			Provider:    string(def.Type),
			DisplayName: def.DisplayName,
			Gender:      string(def.Gender),
			Styles:      def.Styles,
		})
	}
	RespondSuccess(c, http.StatusOK, gin.H{"voices": entries}, "")
}

// handleDebugProviders 排障用：列出系统认识的全部提供商类型
func (s *SpeechService) handleDebugProviders(c *gin.Context) {
	types := tts.ProviderTypes()
	names := make([]string, 0, len(types))
	for _, pt := range types {
		names = append(names, string(pt))
	}
	c.JSON(http.StatusOK, names)
}

// statusForError 路由错误类别到HTTP状态码的映射
func statusForError(err error) int {
	switch {
	case errors.IsKind(err, errors.KindInvalidVoice):
		return http.StatusBadRequest
	case errors.IsKind(err, errors.KindNoActiveConfig):
		return http.StatusServiceUnavailable
	case errors.IsKind(err, errors.KindNoAdapter):
		return http.StatusInternalServerError
	case errors.IsKind(err, errors.KindClientCreation), errors.IsKind(err, errors.KindProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
