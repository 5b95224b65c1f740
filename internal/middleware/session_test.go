package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/service"
)

type fakeAuth map[string]error

func (f fakeAuth) Authenticate(_ context.Context, token string) (model.Session, error) {
	if err, ok := f[token]; ok {
		return model.Session{}, err
	}
	return model.Session{ID: "sid-" + token, UserID: 7, Username: "neo"}, nil
}

func serve(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (*httptest.ResponseRecorder, uint64) {
	t.Helper()
	e := echo.New()
	var seen uint64
	e.GET("/x", func(c echo.Context) error {
		seen, _ = UserID(c)
		return c.String(http.StatusOK, "ok")
	}, mw)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireSession(t *testing.T) {
	auth := fakeAuth{
		"stale": service.ErrSessionExpired,
		"bogus": service.ErrSessionNotFound,
		"boom":  errors.New("redis down"),
	}
	mw := RequireSession(auth, "connecthub_session")

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		uid    uint64
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized, 0},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, 7},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "connecthub_session", Value: "good"}) }, http.StatusOK, 7},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer stale") }, http.StatusUnauthorized, 0},
		{"unknown", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bogus") }, http.StatusUnauthorized, 0},
		{"store error", func(r *http.Request) { r.Header.Set("Authorization", "Bearer boom") }, http.StatusInternalServerError, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			tt.setup(req)
			rec, uid := serve(t, mw, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.uid, uid)
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"success":false`)
			}
		})
	}
}

func TestRequireSession_ExpiredClearsCookie(t *testing.T) {
	mw := RequireSession(fakeAuth{"stale": service.ErrSessionExpired}, "connecthub_session")
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: "connecthub_session", Value: "stale"})
	rec, _ := serve(t, mw, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "connecthub_session=;")
}

func TestOptionalSession(t *testing.T) {
	mw := OptionalSession(fakeAuth{"bogus": service.ErrSessionNotFound}, "connecthub_session")

	rec, uid := serve(t, mw, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, uid)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec, uid = serve(t, mw, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, uid)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	_, uid = serve(t, mw, req)
	assert.Equal(t, uint64(7), uid)
}

func TestTokenFromRequest_PrefersHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: "s", Value: "from-cookie"})
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "from-header", TokenFromRequest(c, "s"))

	req.Header.Del("Authorization")
	assert.Equal(t, "from-cookie", TokenFromRequest(c, "s"))
	assert.Equal(t, "", TokenFromRequest(c, ""))
}
