package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskboard-be/internal/jwt"
	"taskboard-be/internal/metrics"
)

const callerIDKey = "user_id"

const (
	msgMissingToken = "Please authenticate using a valid token"
	msgExpiredToken = "Token has expired"
	msgInvalidToken = "Invalid token"
)

// TokenVerifier resolves an identity token to the user id it was issued for
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid identity token in header and
// stores the token subject as the caller id for downstream handlers.
func AuthMiddleware(verifier TokenVerifier, header string, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader(header))
		if token == "" {
			m.AuthFailure("missing_token")
			abortUnauthorized(c, msgMissingToken)
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			if errors.Is(err, jwt.ErrExpired) {
				m.AuthFailure("expired_token")
				abortUnauthorized(c, msgExpiredToken)
				return
			}
			m.AuthFailure("invalid_token")
			abortUnauthorized(c, msgInvalidToken)
			return
		}

		c.Set(callerIDKey, userID)
		c.Next()
	}
}

// extractToken accepts both "Bearer <token>" and a bare token
func extractToken(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   msg,
	})
}

// CallerID returns the authenticated user id set by AuthMiddleware
func CallerID(c *gin.Context) (string, bool) {
	id := c.GetString(callerIDKey)
	return id, id != ""
}
