package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oncology-insights-server/internal/domain"
)

// APIKeyHeader carries the client key. A bearer Authorization header is also accepted.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests without one of the configured keys. With no
// keys configured every request passes.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}

		presented := c.GetHeader(APIKeyHeader)
		if presented == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				presented = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if presented != "" {
			for _, k := range allowed {
				if subtle.ConstantTimeCompare([]byte(presented), k) == 1 {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, domain.NewAPIError(
			domain.ErrAuthentication,
			"A valid API key is required",
			"",
			c.GetString(CorrelationKey),
		))
	}
}
