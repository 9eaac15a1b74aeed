package http

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	tokenKey        = "identity_token"
	sessionTokenKey = "token"
)

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityTokenMiddleware puts the caller's token on the context. A bearer
// header wins and is remembered in the cookie session, so browsers can open
// the WebSocket later without setting headers. Validation is left to the
// identity resolver.
func IdentityTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		token := bearer(c)
		if token != "" {
			if stored, _ := sess.Get(sessionTokenKey).(string); stored != token {
				sess.Set(sessionTokenKey, token)
				if err := sess.Save(); err != nil {
					log.Warn().Str("module", "adapters.http").Err(err).Msg("session save failed")
				}
			}
		} else if stored, ok := sess.Get(sessionTokenKey).(string); ok {
			token = stored
		}
		c.Set(tokenKey, token)
		c.Next()
	}
}

func rememberToken(c *gin.Context, token string) {
	sess := sessions.Default(c)
	sess.Set(sessionTokenKey, token)
	if err := sess.Save(); err != nil {
		log.Warn().Str("module", "adapters.http").Err(err).Msg("session save failed")
	}
}
