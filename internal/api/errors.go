package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"faves_sorter/internal/domain"
)

// statusFor maps domain sentinels to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInconsistentState):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRemote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error, status int) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusUnauthorized:
		return "Unauthorized"
	case status == http.StatusBadGateway:
		return "Remote service failed"
	default:
		return "Internal server error"
	}
}

// respondError writes {message} and logs server-side failures.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	logFailure(c, logger, err, status)
	c.AbortWithStatusJSON(status, gin.H{"message": messageFor(err, status)})
}

// respondNestedError writes {error: {message}}, the shape the collection
// endpoints use.
func respondNestedError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	logFailure(c, logger, err, status)
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": messageFor(err, status)}})
}

func logFailure(c *gin.Context, logger *slog.Logger, err error, status int) {
	if status < http.StatusInternalServerError {
		return
	}
	logger.Error("request failed",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", status,
		"error", err,
	)
}

var errUnauthenticated = fmt.Errorf("%w: no session token", domain.ErrUnauthenticated)

// unauthenticatedIfMissing turns a missing user behind a valid token into 401.
func unauthenticatedIfMissing(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	return err
}
