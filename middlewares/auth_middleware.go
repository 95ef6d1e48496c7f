package middlewares

import (
	"net/http"
	"strings"

	"carbscan-backend/services"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware verifies the bearer token against the external identity
// provider and stores the verified identity on the context.
func AuthMiddleware(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		bearer := strings.TrimPrefix(authHeader, "Bearer ")
		ident, err := identity.Verify(c.Request.Context(), bearer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "identity verification unavailable"})
			return
		}
		if ident == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", ident.ID)
		c.Set("email", ident.Email)
		c.Set("identity", ident)

		c.Next()
	}
}
