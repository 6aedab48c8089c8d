package httptransport

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"audiopaas-server-go/internal/domain/auth"
	"audiopaas-server-go/internal/domain/tts"
	"audiopaas-server-go/internal/platform/logging"
	"audiopaas-server-go/internal/platform/storage"
)

// AdminService 管理面接口：提供商配置、音色映射、统计与令牌管理
type AdminService struct {
	store  *storage.Store
	auth   *auth.Manager
	logger *logging.Logger
}

// NewAdminService 创建管理接口服务。auth 可为 nil（令牌接口随之关闭）。
func NewAdminService(st *storage.Store, authManager *auth.Manager, logger *logging.Logger) *AdminService {
	return &AdminService{store: st, auth: authManager, logger: logger}
}

// Register 挂载 /api/admin 路由
func (s *AdminService) Register(group *gin.RouterGroup) {
	admin := group.Group("/admin")

	providers := admin.Group("/providers")
	providers.GET("", s.listProviders)
	providers.GET("/:id", s.getProvider)
	providers.POST("", s.createProvider)
	providers.PUT("/:id", s.updateProvider)
	providers.DELETE("/:id", s.deleteProvider)
	providers.POST("/:id/activate", s.setProviderActive(true))
	providers.POST("/:id/deactivate", s.setProviderActive(false))

	voices := admin.Group("/voices")
	voices.GET("", s.listVoices)
	voices.POST("", s.upsertVoice)
	voices.DELETE("/:voice_id", s.deleteVoice)

	admin.GET("/statistics", s.statistics)
	admin.GET("/failures", s.recentFailures)

	if s.auth != nil {
		tokens := admin.Group("/tokens")
		tokens.GET("", s.listTokens)
		tokens.POST("", s.issueToken)
		tokens.DELETE("/:token", s.revokeToken)
	}
}

// providerPayload 提供商配置的读写载体。读出时凭证已脱敏。
type providerPayload struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	BaseURL   string `json:"base_url"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Metadata  string `json:"metadata"`
	IsActive  bool   `json:"is_active"`
}

func (s *AdminService) listProviders(c *gin.Context) {
	configs, err := s.store.Providers.List()
	if err != nil {
		s.logger.ErrorTag("HTTP", "提供商列表查询失败: %v", err)
		RespondError(c, http.StatusInternalServerError, "failed to list provider configs", nil)
		return
	}

	out := make([]providerPayload, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, toProviderPayload(cfg, true))
	}
	RespondSuccess(c, http.StatusOK, gin.H{"providers": out}, "")
}

func (s *AdminService) getProvider(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cfg, err := s.store.Providers.Get(id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to load provider config", nil)
		return
	}
	if cfg == nil {
		RespondError(c, http.StatusNotFound, "provider config not found", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, toProviderPayload(cfg, true), "")
}

func (s *AdminService) createProvider(c *gin.Context) {
	var payload providerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	cfg, errMsg := payloadToConfig(&payload)
	if errMsg != "" {
		RespondError(c, http.StatusBadRequest, errMsg, nil)
		return
	}

	id, err := s.store.Providers.Create(cfg)
	if err != nil {
		s.logger.ErrorTag("HTTP", "提供商创建失败 name=%s: %v", cfg.Name, err)
		RespondError(c, http.StatusInternalServerError, "failed to create provider config", nil)
		return
	}
	s.logger.InfoTag("HTTP", "新建提供商配置 name=%s type=%s id=%d", cfg.Name, cfg.Type, id)
	RespondSuccess(c, http.StatusCreated, gin.H{"id": strconv.FormatUint(uint64(id), 10)}, "provider config created")
}

func (s *AdminService) updateProvider(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload providerPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	cfg, errMsg := payloadToConfig(&payload)
	if errMsg != "" {
		RespondError(c, http.StatusBadRequest, errMsg, nil)
		return
	}

	if err := s.store.Providers.Update(id, cfg); err != nil {
		RespondError(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "provider config updated")
}

func (s *AdminService) deleteProvider(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.store.Providers.Delete(id); err != nil {
		RespondError(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "provider config deleted")
}

func (s *AdminService) setProviderActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := s.store.Providers.SetActive(id, active); err != nil {
			RespondError(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		s.logger.InfoTag("HTTP", "提供商配置 id=%d active=%v", id, active)
		RespondSuccess(c, http.StatusOK, nil, "provider config updated")
	}
}

// voicePayload 音色映射的读写载体
type voicePayload struct {
	VoiceID       string   `json:"voice_id"`
	Type          string   `json:"type"`
	NativeVoiceID string   `json:"native_voice_id"`
	DisplayName   string   `json:"display_name"`
	Gender        string   `json:"gender"`
	Styles        []string `json:"styles"`
}

func (s *AdminService) listVoices(c *gin.Context) {
	defs, err := s.store.Voices.List()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list voice definitions", nil)
		return
	}
	out := make([]voicePayload, 0, len(defs))
	for _, def := range defs {
		out = append(out, voicePayload{
			VoiceID:       def.ID,
			Type:          string(def.Type),
			NativeVoiceID: def.NativeVoiceID,
			DisplayName:   def.DisplayName,
			Gender:        string(def.Gender),
			Styles:        def.Styles,
		})
	}
	RespondSuccess(c, http.StatusOK, gin.H{"voices": out}, "")
}

func (s *AdminService) upsertVoice(c *gin.Context) {
	var payload voicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if payload.VoiceID == "" || payload.NativeVoiceID == "" {
		RespondError(c, http.StatusBadRequest, "voice_id and native_voice_id are required", nil)
		return
	}
	providerType, ok := tts.ParseProviderType(payload.Type)
	if !ok {
		RespondError(c, http.StatusBadRequest, "unknown provider type: "+payload.Type, nil)
		return
	}

	err := s.store.Voices.Upsert(&tts.VoiceDefinition{
		ID:            payload.VoiceID,
		Type:          providerType,
		NativeVoiceID: payload.NativeVoiceID,
		DisplayName:   payload.DisplayName,
		Gender:        tts.VoiceGender(payload.Gender),
		Styles:        payload.Styles,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save voice definition", nil)
		return
	}
	s.logger.InfoTag("HTTP", "音色映射更新 voice_id=%s type=%s", payload.VoiceID, providerType)
	RespondSuccess(c, http.StatusOK, nil, "voice definition saved")
}

func (s *AdminService) deleteVoice(c *gin.Context) {
	voiceID := c.Param("voice_id")
	if err := s.store.Voices.Delete(voiceID); err != nil {
		RespondError(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "voice definition deleted")
}

func (s *AdminService) statistics(c *gin.Context) {
	stats, err := s.store.RequestLogs.ProviderStatistics()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to compute statistics", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"providers": stats}, "")
}

func (s *AdminService) recentFailures(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	failures, err := s.store.RequestLogs.RecentFailures(limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to load recent failures", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"failures": failures}, "")
}

func (s *AdminService) listTokens(c *gin.Context) {
	infos, err := s.auth.List(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list tokens", nil)
		return
	}
	type tokenView struct {
		Token     string `json:"token"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]tokenView, 0, len(infos))
	for _, info := range infos {
		out = append(out, tokenView{
			Token:     maskSecret(info.Token),
			Name:      info.Name,
			CreatedAt: info.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	RespondSuccess(c, http.StatusOK, gin.H{"tokens": out}, "")
}

func (s *AdminService) issueToken(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || payload.Name == "" {
		RespondError(c, http.StatusBadRequest, "name is required", nil)
		return
	}
	info, err := s.auth.IssueToken(c.Request.Context(), payload.Name)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to issue token", nil)
		return
	}
	// 明文令牌仅在签发时返回一次
	RespondSuccess(c, http.StatusCreated, gin.H{"token": info.Token, "name": info.Name}, "token issued")
}

func (s *AdminService) revokeToken(c *gin.Context) {
	if err := s.auth.Revoke(c.Request.Context(), c.Param("token")); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to revoke token", nil)
		return
	}
	RespondSuccess(c, http.StatusOK, nil, "token revoked")
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return uint(id), true
}

func toProviderPayload(cfg *tts.ProviderConfig, mask bool) providerPayload {
	accessKey, secretKey := cfg.AccessKey, cfg.SecretKey
	if mask {
		accessKey = maskSecret(accessKey)
		secretKey = maskSecret(secretKey)
	}
	return providerPayload{
		ID:        cfg.ID,
		Name:      cfg.Name,
		Type:      string(cfg.Type),
		BaseURL:   cfg.BaseURL,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Metadata:  cfg.Metadata,
		IsActive:  cfg.IsActive,
	}
}

func payloadToConfig(payload *providerPayload) (*tts.ProviderConfig, string) {
	if payload.Name == "" {
		return nil, "name is required"
	}
	providerType, ok := tts.ParseProviderType(payload.Type)
	if !ok {
		return nil, "unknown provider type: " + payload.Type
	}
	return &tts.ProviderConfig{
		Name:      payload.Name,
		Type:      providerType,
		BaseURL:   payload.BaseURL,
		AccessKey: payload.AccessKey,
		SecretKey: payload.SecretKey,
		Metadata:  payload.Metadata,
		IsActive:  payload.IsActive,
	}, ""
}

// maskSecret 凭证脱敏：保留前四位，其余以****代替
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
