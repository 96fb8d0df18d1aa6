package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bridgebot/backend/internal/service"
	"bridgebot/backend/internal/util"
)

// AuthMiddleware requires a valid operator bearer token
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			util.AbortWithCustomError(c, 401, util.ErrCodeUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			util.AbortWithCustomError(c, 401, util.ErrCodeUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := authService.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			util.AbortWithError(c, err)
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}
