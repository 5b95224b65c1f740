package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/service"
)

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Session, error)
}

// SessionAuth attaches the caller's session to the context.  With required
// set, requests without a live session are answered with 401; otherwise
// they continue as guests.
func SessionAuth(auth Authenticator, cookieName string, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c, cookieName)
			if token == "" {
				if required {
					return unauthorized(c, "You must be logged in")
				}
				return next(c)
			}

			sess, err := auth.Authenticate(c.Request().Context(), token)
			switch {
			case err == nil:
				c.Set(CtxUserID, sess.UserID)
				c.Set(CtxSessionID, sess.ID)
				c.Set(CtxUsername, sess.Username)
				c.Set(CtxToken, token)
				return next(c)
			case errors.Is(err, service.ErrSessionExpired):
				clearCookie(c, cookieName)
				if required {
					return unauthorized(c, "Session expired, please log in again")
				}
			case errors.Is(err, service.ErrSessionNotFound):
				if required {
					return unauthorized(c, "Invalid or expired session")
				}
			default:
				c.Logger().Errorf("session: authenticate: %v", err)
				if required {
					return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Could not verify session"})
				}
			}
			return next(c)
		}
	}
}

// RequireSession rejects anonymous callers.
func RequireSession(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return SessionAuth(auth, cookieName, true)
}

// OptionalSession identifies the caller when possible.
func OptionalSession(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return SessionAuth(auth, cookieName, false)
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}

func clearCookie(c echo.Context, name string) {
	if name == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}
