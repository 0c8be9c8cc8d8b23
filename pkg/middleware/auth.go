package middleware

import (
	"net/http"
	"strings"

	"framefeed/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "user_id"

type TokenVerifier interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthOptions configures the development bypass. DevToken is honoured only
// outside production.
type AuthOptions struct {
	DevToken   string
	DevUserID  string
	Production bool
}

func AuthMiddleware(verifier TokenVerifier, opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}
		token := strings.TrimSpace(parts[1])

		if !opts.Production && opts.DevToken != "" && token == opts.DevToken {
			c.Set(UserIDKey, opts.DevUserID)
			c.Next()
			return
		}

		claims, err := verifier.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.SubjectID())
		if claims.Role != "" {
			c.Set("role", claims.Role)
		}
		c.Next()
	}
}
