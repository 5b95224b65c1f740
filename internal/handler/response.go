package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/service"
)

// envelope is the body of every JSON API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Message: msg})
}

func failData(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, envelope{Success: false, Message: msg, Data: data})
}

// respondError maps service errors onto statuses.  Anything unrecognised is
// logged and reported as fallback with a 500.
func respondError(c echo.Context, err error, fallback string) error {
	var (
		ve *service.ValidationError
		ce *service.ConflictError
		ue *service.UnverifiedError
	)
	switch {
	case errors.As(err, &ve):
		return fail(c, http.StatusBadRequest, ve.Message)
	case errors.As(err, &ce):
		return fail(c, http.StatusConflict, ce.Message)
	case errors.As(err, &ue):
		return failData(c, http.StatusForbidden, "Please verify your email before logging in", echo.Map{
			"requires_verification": true,
			"user_id":               ue.UserID,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrSessionExpired):
		return fail(c, http.StatusUnauthorized, "Session expired, please log in again")
	case errors.Is(err, service.ErrSessionNotFound):
		return fail(c, http.StatusUnauthorized, "You must be logged in")
	case errors.Is(err, service.ErrOTPExpired):
		return fail(c, http.StatusBadRequest, "OTP code has expired, please request a new one")
	case errors.Is(err, service.ErrOTPInvalid):
		return fail(c, http.StatusBadRequest, "Invalid or expired OTP code")
	case errors.Is(err, service.ErrAlreadyVerified):
		return fail(c, http.StatusConflict, "Account already verified")
	case errors.Is(err, service.ErrTooManyRequests):
		return fail(c, http.StatusTooManyRequests, "Please wait before requesting another code")
	case errors.Is(err, service.ErrForbidden):
		return fail(c, http.StatusForbidden, "You do not have permission to do that")
	case errors.Is(err, service.ErrNotFound):
		return fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrConflict):
		return fail(c, http.StatusConflict, "Already exists")
	case errors.Is(err, service.ErrUpstream):
		c.Logger().Warnf("upstream: %v", err)
		return fail(c, http.StatusBadGateway, fallback)
	}
	c.Logger().Errorf("%s: %v", fallback, err)
	return fail(c, http.StatusInternalServerError, fallback)
}

// RouteNotFound answers unknown API paths.
func RouteNotFound(c echo.Context) error {
	return fail(c, http.StatusNotFound, "Endpoint not found")
}
