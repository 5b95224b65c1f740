package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/service"
)

// QueryHandler serves the read-only query endpoint.  Its body is
// {"data": ...} or {"errors": [...]}, not the usual envelope.
type QueryHandler struct {
	Query *service.QueryService
}

func NewQueryHandler(q *service.QueryService) *QueryHandler {
	return &QueryHandler{Query: q}
}

type queryReq struct {
	Query string `json:"query"`
}

func (h *QueryHandler) Execute(c echo.Context) error {
	var req queryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, service.QueryResult{Errors: []service.QueryError{{Message: "Invalid request body"}}})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, service.QueryResult{Errors: []service.QueryError{{Message: "No query provided"}}})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Query.Execute(ctx, req.Query)
	if err != nil {
		c.Logger().Errorf("query: %v", err)
		return c.JSON(http.StatusInternalServerError, service.QueryResult{Errors: []service.QueryError{{Message: "Query failed"}}})
	}
	status := http.StatusOK
	if len(res.Errors) > 0 {
		status = http.StatusBadRequest
	}
	return c.JSON(status, res)
}
