package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"faves_sorter/internal/service"
)

const sessionKey = "session"

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// requestTimeout bounds the request context handed to services.
func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// bearerOrCookie reads the session token from the Authorization header or
// the session cookie.
func (h *Handler) bearerOrCookie(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, err := c.Cookie(h.auth.CookieName)
	if err != nil {
		return ""
	}
	return token
}

// authRequired resolves the caller into a service.Session or aborts with 401.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		sess, err := h.authenticate(c)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (h *Handler) authenticate(c *gin.Context) (*service.Session, error) {
	raw := h.bearerOrCookie(c)
	if raw == "" {
		return nil, errUnauthenticated
	}

	userID, err := h.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		return nil, unauthenticatedIfMissing(err)
	}

	return &service.Session{User: user, Remote: h.sources(user)}, nil
}

func sessionFrom(c *gin.Context) *service.Session {
	return c.MustGet(sessionKey).(*service.Session)
}
