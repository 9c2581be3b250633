package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/mfelden/tripwatch-backend-go/pkg/response"
)

// Auth validates bearer tokens on mutating endpoints. Claims only need a
// valid signature; the engine has no per-user state.
func Auth(secret string) gin.HandlerFunc {
	secretBytes := []byte(secret)
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		parsed, err := jwt.Parse(token, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		})
		if err != nil || !parsed.Valid {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
