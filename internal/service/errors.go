// Package service holds the business rules of ConnectHub.  Handlers decode
// requests and render responses; everything in between lives here.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/connecthub/internal/repository"
)

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrNotFound           = errors.New("not found")
	ErrOTPInvalid         = errors.New("invalid or expired OTP code")
	ErrOTPExpired         = errors.New("OTP code has expired")
	ErrForbidden          = errors.New("forbidden")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrUpstream           = errors.New("upstream service unavailable")
)

// ValidationError reports a rejected input field.  Message is shown to the
// user verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError is a uniqueness violation on a named field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// UnverifiedError is returned by Login for accounts that have not completed
// OTP verification.  UserID lets the client continue the verification flow.
type UnverifiedError struct {
	UserID uint64
}

func (e *UnverifiedError) Error() string {
	return "please verify your email first"
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
