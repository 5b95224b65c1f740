package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/connecthub/internal/handler"
)

func denyAll(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": "You must be logged in"})
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newTestServer() *echo.Echo {
	e := echo.New()
	g := Guards{Required: denyAll, Optional: passThrough, AuthLimit: passThrough, Cache: passThrough}
	RegisterRoutes(e, &handler.HealthHandler{})
	RegisterAuth(e, &handler.AuthHandler{}, g)
	RegisterContent(e, &handler.PostHandler{}, &handler.CommentHandler{}, &handler.EngagementHandler{}, g)
	RegisterProfile(e, &handler.ProfileHandler{}, g)
	RegisterLookup(e, &handler.LocationHandler{}, &handler.QueryHandler{}, g)
	RegisterFallback(e)
	return e
}

func TestUnknownAPIPathsAnswer404(t *testing.T) {
	e := newTestServer()
	for _, path := range []string{"/api/nope", "/api/auth/nope", "/api/profile/nope", "/api/location/nope"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Endpoint not found", path)
	}
}

func TestGuardedRoutesStillRequireSession(t *testing.T) {
	e := newTestServer()
	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/posts"},
		{http.MethodDelete, "/api/posts/3"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/profile"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestHealthRouteIsOpen(t *testing.T) {
	e := newTestServer()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
