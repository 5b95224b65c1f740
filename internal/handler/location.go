package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/service"
)

// LocationHandler proxies geocoding lookups.
type LocationHandler struct {
	Location *service.LocationService
}

func NewLocationHandler(l *service.LocationService) *LocationHandler {
	return &LocationHandler{Location: l}
}

// Geocode searches places by free text (?q=).
func (h *LocationHandler) Geocode(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	places, err := h.Location.Geocode(ctx, c.QueryParam("q"))
	if err != nil {
		return respondError(c, err, "Geocoding service unavailable")
	}
	return ok(c, http.StatusOK, "Places found", places)
}

// Reverse resolves ?lat=&lon= into an address.
func (h *LocationHandler) Reverse(c echo.Context) error {
	latS, lonS := c.QueryParam("lat"), c.QueryParam("lon")
	if latS == "" || lonS == "" {
		return fail(c, http.StatusBadRequest, "Coordinates required")
	}
	lat, err1 := strconv.ParseFloat(latS, 64)
	lon, err2 := strconv.ParseFloat(lonS, 64)
	if err1 != nil || err2 != nil {
		return fail(c, http.StatusBadRequest, "Invalid coordinates")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	place, err := h.Location.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "No address found for these coordinates")
		}
		return respondError(c, err, "Reverse geocoding unavailable")
	}
	return ok(c, http.StatusOK, "Address found", place)
}
