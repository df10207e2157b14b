package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"probate-backend/internal/shared/auth"
	"probate-backend/internal/shared/server/respond"
)

const (
	sessionKey = "session"
	userIDKey  = "userId"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Session, error)
}

// Auth validates bearer JWTs and stores the session in context. Requests whose
// path starts with one of publicPrefixes may proceed without a token; a valid
// token on a public path still attaches the session.
func Auth(verifier TokenVerifier, publicPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		public := isPublic(c.Request.URL.Path, publicPrefixes)
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))

		if authHeader == "" {
			if public {
				c.Next()
				return
			}
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		session, err := verifier.Verify(token)
		if err != nil {
			if public {
				c.Next()
				return
			}
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(sessionKey, session)
		c.Set(userIDKey, session.UserID)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), session))
		c.Next()
	}
}

// RequireAdmin rejects requests whose session lacks the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		if !session.IsAdmin() {
			respond.Error(c, http.StatusForbidden, "forbidden", "admin access required", nil)
			return
		}
		c.Next()
	}
}

// SessionFromContext fetches the session set by the auth middleware.
func SessionFromContext(c *gin.Context) (auth.Session, bool) {
	if c == nil {
		return auth.Session{}, false
	}
	val, ok := c.Get(sessionKey)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := val.(auth.Session)
	return s, ok
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if s, ok := SessionFromContext(c); ok {
		return s.UserID
	}
	return ""
}

func isPublic(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
