package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/dto"
	"github.com/prperemyshlev/auth-core/internal/oauth"
	"github.com/prperemyshlev/auth-core/internal/service"
	"github.com/prperemyshlev/auth-core/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const stateBytes = 32

// OAuthStateStore keeps authorization state between start and callback
type OAuthStateStore interface {
	Save(ctx context.Context, state string, st service.OAuthState) error
	Take(ctx context.Context, state string) (*service.OAuthState, error)
}

// OAuthHandler runs the browser side of the authorization code flow
type OAuthHandler struct {
	authService service.AuthService
	registry    *oauth.Registry
	states      OAuthStateStore
	cookie      SessionCookie
	homePath    string
	loginPath   string
	logger      *zap.Logger
	now         func() time.Time
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(
	authService service.AuthService,
	registry *oauth.Registry,
	states OAuthStateStore,
	cookie SessionCookie,
	homePath, loginPath string,
	logger *zap.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		registry:    registry,
		states:      states,
		cookie:      cookie,
		homePath:    homePath,
		loginPath:   loginPath,
		logger:      logger,
		now:         time.Now,
	}
}

// Start redirects the browser to the provider's consent page
func (h *OAuthHandler) Start(c *gin.Context) {
	provider, err := h.registry.Get(c.Param("provider"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not found",
			Message: "Unknown provider",
		})
		return
	}

	state, err := utils.RandomHex(stateBytes)
	if err != nil {
		h.logger.Error("Failed to generate oauth state", zap.Error(err))
		writeError(c, service.ErrServer)
		return
	}
	verifier := oauth2.GenerateVerifier()

	err = h.states.Save(c.Request.Context(), state, service.OAuthState{
		Provider: provider.Name(),
		Verifier: verifier,
	})
	if err != nil {
		h.logger.Error("Failed to save oauth state", zap.Error(err))
		writeError(c, service.ErrServer)
		return
	}

	c.Redirect(http.StatusFound, provider.AuthCodeURL(state, verifier))
}

// Callback completes the flow, signs the user in and redirects home
func (h *OAuthHandler) Callback(c *gin.Context) {
	name := c.Param("provider")
	log := h.logger.With(zap.String("provider", name))

	provider, err := h.registry.Get(name)
	if err != nil {
		h.fail(c, "unknown_provider")
		return
	}

	if reason := c.Query("error"); reason != "" {
		log.Info("Provider denied authorization", zap.String("reason", reason))
		h.fail(c, "access_denied")
		return
	}

	st, err := h.states.Take(c.Request.Context(), c.Query("state"))
	if err != nil {
		if !errors.Is(err, service.ErrUnknownState) {
			log.Error("Failed to load oauth state", zap.Error(err))
		}
		h.fail(c, "invalid_state")
		return
	}
	if st.Provider != provider.Name() {
		h.fail(c, "invalid_state")
		return
	}

	identity, err := provider.Exchange(c.Request.Context(), c.Query("code"), st.Verifier)
	if err != nil {
		log.Warn("OAuth exchange failed", zap.Error(err))
		h.fail(c, "exchange_failed")
		return
	}

	session, err := h.authService.OAuthSignIn(c.Request.Context(), *identity)
	if err != nil {
		h.fail(c, "sign_in_failed")
		return
	}

	h.cookie.Set(c, session, h.now())
	c.Redirect(http.StatusFound, h.homePath)
}

func (h *OAuthHandler) fail(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, h.loginPath+"?error="+url.QueryEscape(reason))
}
