// Package router registers the HTTP routes of the API on an Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/handler"
)

// Guards groups the middleware shared by the route groups.  Nil entries are
// skipped, so a deployment without Redis simply runs without rate limiting
// or response caching.
type Guards struct {
	Required  echo.MiddlewareFunc // rejects requests without a live session
	Optional  echo.MiddlewareFunc // resolves a session when one is presented
	AuthLimit echo.MiddlewareFunc // stricter bucket for credential endpoints
	Cache     echo.MiddlewareFunc // response cache for idempotent lookups
	BodyCache echo.MiddlewareFunc // response cache keyed by request body
}

func use(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers registration, verification and session endpoints
// under /api/auth.  Credential endpoints share the auth rate limit.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	pub := e.Group("/api/auth", use(g.AuthLimit)...)
	pub.POST("/register", a.Register)
	pub.POST("/verify-otp", a.VerifyOTP)
	pub.POST("/resend-otp", a.ResendOTP)
	pub.POST("/login", a.Login)

	// logout succeeds without a session so that stale cookies can be cleared
	e.POST("/api/auth/logout", a.Logout)
	e.GET("/api/auth/check-username", a.CheckUsername)

	priv := e.Group("/api/auth", use(g.Required)...)
	priv.GET("/me", a.Me)
	priv.POST("/logout-all", a.LogoutAll)
}

// RegisterFallback must run after every other Register function.  A group
// with middleware installs a catch-all for its prefix wrapped in that
// middleware, so without this an unknown /api path would answer 401 from the
// last session-guarded group instead of 404.
func RegisterFallback(e *echo.Echo) {
	for _, r := range e.Routes() {
		if r.Method == echo.RouteNotFound {
			e.RouteNotFound(r.Path, handler.RouteNotFound)
		}
	}
}
