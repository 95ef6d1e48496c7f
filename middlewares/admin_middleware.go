package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

const AdminSecretHeader = "X-Admin-Secret"

// AdminAuthMiddleware guards the notification control plane with a static
// shared secret. An unconfigured secret disables the whole surface (503)
// rather than leaving it open.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("ADMIN_API_SECRET")
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server misconfigured: ADMIN_API_SECRET not set"})
			return
		}

		provided := c.GetHeader(AdminSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin secret"})
			return
		}

		c.Next()
	}
}
