package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polkiloo/checkout/internal/domain/model"
	pkgAuth "github.com/polkiloo/checkout/internal/pkg/auth"
)

const (
	// ActorContextKey is a gin context key for the resolved model.Actor.
	ActorContextKey = "actor"
	// SessionHeader carries the anonymous session key for non-browser clients.
	SessionHeader = "X-Session-Key"
	// SessionCookieName is the cookie holding the anonymous session key.
	SessionCookieName = "checkout_session"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// TokenParser validates bearer tokens issued by the identity provider.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// Identity resolves the caller into a model.Actor. A bearer token is optional;
// when present it must be valid. Every caller gets a session key, issued as a
// cookie on first contact.
func Identity(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var actor model.Actor

		if token := extractToken(c); token != "" && tokens != nil {
			userID, err := tokens.ParseToken(token)
			if err != nil {
				if errors.Is(err, pkgAuth.ErrInvalidToken) {
					c.AbortWithStatus(http.StatusUnauthorized)
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			actor.UserID = &userID
		}

		actor.SessionKey = extractSession(c)
		if actor.SessionKey == "" {
			actor.SessionKey = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(SessionCookieName, actor.SessionKey, sessionCookieMaxAge, "/", "", false, true)
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func extractSession(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader(SessionHeader)); key != "" {
		return key
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return cookie
	}
	return ""
}
