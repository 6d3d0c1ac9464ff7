package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/skillloop/internal/apperr"
	"github.com/skillsenselab/skillloop/internal/auth"
	"github.com/skillsenselab/skillloop/internal/logger"
	"github.com/skillsenselab/skillloop/internal/server"
)

const stateCookie = "oauth_state"

// Provider is the contract a login provider implements.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Profile, error)
}

// Handler drives the OAuth2 login flow: redirect out, exchange the callback
// code, upsert the account and hand tokens to the frontend.
type Handler struct {
	providers   map[string]Provider
	svc         *auth.Service
	redirectURL string
	log         *logger.Logger
}

// NewHandler returns an OAuth2 HTTP handler. redirectURL is the frontend
// page that receives the issued tokens.
func NewHandler(svc *auth.Service, redirectURL string, log *logger.Logger, providers ...Provider) *Handler {
	m := make(map[string]Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Handler{
		providers:   m,
		svc:         svc,
		redirectURL: redirectURL,
		log:         log.WithComponent("oauth"),
	}
}

// RegisterRoutes mounts the OAuth2 endpoints.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/oauth2/authorization/:provider", h.authorize)
	r.GET("/login/oauth2/code/:provider", h.callback)
	r.GET("/api/auth/oauth2/callback/:provider", h.callback)
}

func (h *Handler) authorize(c *gin.Context) {
	provider, ok := h.providers[c.Param("provider")]
	if !ok {
		server.RespondWithError(c, apperr.NotFound("provider", c.Param("provider")))
		return
	}

	state, err := randomState()
	if err != nil {
		server.RespondWithError(c, apperr.Internal(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 300, "/", "", false, true)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

func (h *Handler) callback(c *gin.Context) {
	provider, ok := h.providers[c.Param("provider")]
	if !ok {
		server.RespondWithError(c, apperr.NotFound("provider", c.Param("provider")))
		return
	}

	state := c.Query("state")
	cookie, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != cookie {
		server.RespondWithError(c, apperr.Unauthorized("oauth2 state mismatch"))
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		server.RespondWithError(c, apperr.InvalidInput("code", "missing authorization code"))
		return
	}

	profile, err := provider.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		h.log.Warn("OAuth2 code exchange failed", map[string]interface{}{
			"provider": provider.Name(),
			"error":    err.Error(),
		})
		server.RespondWithError(c, apperr.Unauthorized("oauth2 exchange failed"))
		return
	}

	resp, err := h.svc.RegisterOrGetOAuth2(c.Request.Context(),
		profile.Provider, profile.Subject, profile.Email, profile.Name, profile.Picture)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	target := fmt.Sprintf("%s?accessToken=%s&refreshToken=%s",
		h.redirectURL,
		url.QueryEscape(resp.AccessToken),
		url.QueryEscape(resp.RefreshToken),
	)
	c.Redirect(http.StatusFound, target)
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
