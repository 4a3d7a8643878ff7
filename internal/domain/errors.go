package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidID         = errors.New("invalid id")
	ErrNotFound          = errors.New("not found")
	ErrRemote            = errors.New("remote failure")
	ErrInconsistentState = errors.New("inconsistent state")
)

// ValidationError carries a client-facing message and unwraps to Kind
// (ErrValidation or ErrInvalidID).
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func NewValidationError(msg string) error {
	return &ValidationError{Kind: ErrValidation, Message: msg}
}

func NewInvalidIDError(msg string) error {
	return &ValidationError{Kind: ErrInvalidID, Message: msg}
}

// ValidID reports whether id is a well-formed local identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// NewID returns a fresh local identifier.
func NewID() string {
	return uuid.NewString()
}
