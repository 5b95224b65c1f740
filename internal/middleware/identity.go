package middleware

// identity.go holds the context keys set by the session middleware and the
// helpers other middleware and handlers use to read them back.

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// Context keys set for authenticated requests.
const (
	CtxUserID    = "user_id"    // uint64
	CtxSessionID = "session_id" // string
	CtxUsername  = "username"   // string
	CtxToken     = "session_token"
)

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// userID renders the caller identity for cache and rate-limit keys.  It
// returns "guest" when nobody is logged in.
func userID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}

// TokenFromRequest returns the session token from the Authorization header
// or, failing that, from the session cookie.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if cookieName == "" {
		return ""
	}
	if ck, err := c.Cookie(cookieName); err == nil {
		return ck.Value
	}
	return ""
}
