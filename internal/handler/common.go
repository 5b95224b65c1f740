package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/middleware"
)

// RequestTimeout bounds the store calls of one request.
var RequestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), RequestTimeout)
}

// viewerID is the logged-in user, or 0 for guests.
func viewerID(c echo.Context) uint64 {
	id, _ := middleware.UserID(c)
	return id
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// queryInt returns a numeric query parameter or def when absent or malformed.
func queryInt(c echo.Context, name string, def int) int {
	s := c.QueryParam(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// mediaURL turns a stored media reference into a URL the client can load.
// Remote stores already return absolute URLs.
func mediaURL(prefix, ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(prefix, "/") + "/" + ref
}

type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

// readUpload reads the first present multipart file among fields, at most
// limit bytes.
func readUpload(c echo.Context, limit int64, fields ...string) ([]byte, error) {
	for _, f := range fields {
		fh, err := c.FormFile(f)
		if err != nil {
			continue
		}
		if limit > 0 && fh.Size > limit {
			return nil, &uploadError{http.StatusBadRequest, fmt.Sprintf("File too large (max %dMB)", limit>>20)}
		}
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()
		r := io.Reader(src)
		if limit > 0 {
			r = io.LimitReader(src, limit+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if limit > 0 && int64(len(data)) > limit {
			return nil, &uploadError{http.StatusBadRequest, fmt.Sprintf("File too large (max %dMB)", limit>>20)}
		}
		return data, nil
	}
	return nil, &uploadError{http.StatusBadRequest, "No file uploaded"}
}

func respondUploadError(c echo.Context, err error) error {
	if ue, ok := err.(*uploadError); ok {
		return fail(c, ue.status, ue.msg)
	}
	c.Logger().Errorf("read upload: %v", err)
	return fail(c, http.StatusBadRequest, "Could not read uploaded file")
}
