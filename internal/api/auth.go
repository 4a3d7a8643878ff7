package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"faves_sorter/internal/domain"
)

// signIn starts the OAuth1 handshake and redirects to the provider.
func (h *Handler) signIn(c *gin.Context) {
	ctx := c.Request.Context()

	token, secret, err := h.authorizer.RequestToken()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.handshakes.Put(ctx, token, secret, h.auth.HandshakeTTL); err != nil {
		respondError(c, h.logger, err)
		return
	}

	authURL, err := h.authorizer.AuthorizationURL(token)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) callback(c *gin.Context) {
	ctx := c.Request.Context()

	requestToken := c.Query("oauth_token")
	verifier := c.Query("oauth_verifier")
	if requestToken == "" || verifier == "" {
		respondError(c, h.logger, domain.NewValidationError("oauth_token and oauth_verifier are required"))
		return
	}

	requestSecret, err := h.handshakes.Take(ctx, requestToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = fmt.Errorf("%w: unknown or expired handshake", domain.ErrUnauthenticated)
		}
		respondError(c, h.logger, err)
		return
	}

	accessToken, accessSecret, err := h.authorizer.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := h.authorizer.VerifyCredentials(ctx, accessToken, accessSecret)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user := &domain.User{
		RemoteUserID:     profile.IDStr,
		ScreenName:       profile.ScreenName,
		OAuthToken:       accessToken,
		OAuthTokenSecret: accessSecret,
	}
	if err := h.users.Upsert(ctx, user); err != nil {
		respondError(c, h.logger, fmt.Errorf("save user: %w", err))
		return
	}

	signed, err := h.tokens.Sign(user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.setSessionCookie(c, signed, int(h.auth.TokenTTL.Seconds()))
	h.logger.Info("user signed in", "user_id", user.ID, "screen_name", user.ScreenName)

	c.Redirect(http.StatusFound, h.server.FrontendBaseURL+"/home")
}

// status reports whether the caller holds a valid session.
func (h *Handler) status(c *gin.Context) {
	sess, err := h.authenticate(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sess.User})
}

func (h *Handler) signOut(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName, value, maxAge, "/", "", h.auth.SecureCookie, true)
}
