package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/connecthub/internal/config"
)

func cacheCfg(strategy string, methods ...string) config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		TTL:          time.Minute,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 16,
	}.WithMethods(strategy, methods...)
}

func TestRedisCache_GetHitAndMiss(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	e.GET("/api/location/geocode", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusOK, echo.Map{"q": c.QueryParam("q")})
	}, NewRedisCache(cacheCfg("route_query", http.MethodGet), rdb))

	get := func(q string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/location/geocode?q="+q, nil))
		return rec
	}

	first := get("paris")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("paris")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, calls)

	get("berlin")
	assert.Equal(t, 2, calls, "different query, different key")
}

func TestRedisCache_SkipsErrorsAndCookies(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	mw := NewRedisCache(cacheCfg("route_query", http.MethodGet), rdb)
	e.GET("/fail", func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusBadGateway, echo.Map{"success": false})
	}, mw)
	e.GET("/cookie", func(c echo.Context) error {
		calls++
		c.SetCookie(&http.Cookie{Name: "a", Value: "b"})
		return c.String(http.StatusOK, "ok")
	}, mw)

	for _, path := range []string{"/fail", "/fail", "/cookie", "/cookie"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 4, calls)
}

func TestRedisCache_BodyKeyedPost(t *testing.T) {
	_, rdb := newRedis(t)
	var bodies []string
	e := echo.New()
	e.POST("/api/query", func(c echo.Context) error {
		b, _ := io.ReadAll(c.Request().Body)
		bodies = append(bodies, string(b))
		return c.JSON(http.StatusOK, echo.Map{"data": string(b)})
	}, NewRedisCache(cacheCfg("route_query_body", http.MethodPost), rdb))

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	post(`{"query":"posts"}`)
	rec := post(`{"query":"posts"}`)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	post(`{"query":"users"}`)

	assert.Equal(t, []string{`{"query":"posts"}`, `{"query":"users"}`}, bodies, "handler still sees the full body")
}

func TestRedisCache_IgnoresOtherMethods(t *testing.T) {
	_, rdb := newRedis(t)
	calls := 0
	e := echo.New()
	e.POST("/x", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, NewRedisCache(cacheCfg("route_query", http.MethodGet), rdb))
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 2, calls)
}
