package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"audiopaas-server-go/internal/domain/auth"
	"audiopaas-server-go/internal/platform/logging"
)

// TokenAuthMiddleware 管理面的Bearer令牌校验。
// 令牌由 auth.Manager 签发，存储后端可为内存或Redis。
func TokenAuthMiddleware(manager *auth.Manager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			RespondError(c, http.StatusUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}

		info, ok, err := manager.Validate(c.Request.Context(), token)
		if err != nil {
			logger.ErrorTag("认证", "令牌校验失败: %v", err)
			RespondError(c, http.StatusInternalServerError, "token validation failed", nil)
			c.Abort()
			return
		}
		if !ok {
			RespondError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		c.Set("token_name", info.Name)
		c.Next()
	}
}
