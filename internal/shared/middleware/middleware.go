package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/internal/shared/config"
	"authgate/internal/shared/utils/response"
	"authgate/internal/tokens"
)

// AccessTokenAuth validates the Authorization bearer token and exposes the
// subject to handlers. Only access-kind tokens pass; a refresh token in the
// header is rejected like any other invalid token.
func AccessTokenAuth(cfg *config.Config) gin.HandlerFunc {
	codec := tokens.NewCodec(cfg.JWT.Secret)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		claims, err := codec.Decode(parts[1], tokens.KindAccess)
		if err != nil {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
