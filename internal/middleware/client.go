package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/session"
)

const (
	DefaultClientCookie = "portal_client"

	ContextClientID = "client_id"
	contextClient   = "client"
)

type ClientCookieConfig struct {
	Name     string
	MaxAge   int
	Secure   bool
	SameSite http.SameSite
}

// ClientContext binds the request to its browser client context, identified
// by a cookie. A request without a valid cookie starts a new context.
func ClientContext(registry *session.Registry, config ClientCookieConfig) gin.HandlerFunc {
	if config.Name == "" {
		config.Name = DefaultClientCookie
	}
	if config.SameSite == 0 {
		config.SameSite = http.SameSiteLaxMode
	}

	return func(c *gin.Context) {
		id, err := c.Cookie(config.Name)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.New().String()
		}

		c.SetSameSite(config.SameSite)
		c.SetCookie(config.Name, id, config.MaxAge, "/", "", config.Secure, true)

		client := registry.Get(c.Request.Context(), id)
		c.Set(ContextClientID, id)
		c.Set(contextClient, client)
		c.Next()
	}
}

// CurrentClient returns the client bound by ClientContext.
func CurrentClient(c *gin.Context) *session.Client {
	v, ok := c.Get(contextClient)
	if !ok {
		return nil
	}
	client, _ := v.(*session.Client)
	return client
}

// CurrentSession returns the active session of the request's client, if any.
func CurrentSession(c *gin.Context) (*model.Session, bool) {
	client := CurrentClient(c)
	if client == nil {
		return nil, false
	}
	return client.Session.Current()
}
