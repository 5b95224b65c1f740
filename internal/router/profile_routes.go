package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/handler"
)

// RegisterProfile registers public user pages and the editable profile of
// the current user.
func RegisterProfile(e *echo.Echo, h *handler.ProfileHandler, g Guards) {
	e.GET("/api/users/:id", h.GetUser, use(g.Optional)...)

	me := e.Group("/api/profile", use(g.Required)...)
	me.GET("", h.GetMyProfile)
	me.PUT("", h.UpdateProfile)
	me.POST("/avatar", h.UploadAvatar)
	me.DELETE("/avatar", h.ResetAvatar)
}

// RegisterLookup registers the cached lookup endpoints: the geocoding proxy
// and the query endpoint.
func RegisterLookup(e *echo.Echo, l *handler.LocationHandler, q *handler.QueryHandler, g Guards) {
	loc := e.Group("/api/location", use(g.Cache)...)
	loc.GET("/geocode", l.Geocode)
	loc.GET("/reverse", l.Reverse)

	e.POST("/api/query", q.Execute, use(g.BodyCache)...)
}
