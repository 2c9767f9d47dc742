package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
	"github.com/lorenzocolitta/brotherhood-kos/internal/service"
	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
	"github.com/lorenzocolitta/brotherhood-kos/pkg/response"
)

// ContextSessionKey is the gin context key storing the authenticated session.
const ContextSessionKey = "currentSession"

// Auth protects routes by requiring a valid bearer token whose backing
// session is still live.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		session, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the authenticated session from the context, if any.
func CurrentSession(c *gin.Context) (*models.Session, bool) {
	value, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}

// CurrentActor derives the acting moderator from the session.
func CurrentActor(c *gin.Context) models.Actor {
	session, ok := CurrentSession(c)
	if !ok {
		return models.Actor{}
	}
	return models.Actor{DiscordID: session.DiscordUserID, DiscordName: session.DiscordUsername}
}
