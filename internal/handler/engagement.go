package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/service"
)

// EngagementHandler serves likes and ratings.
type EngagementHandler struct {
	Engagement *service.EngagementService
}

func NewEngagementHandler(e *service.EngagementService) *EngagementHandler {
	return &EngagementHandler{Engagement: e}
}

type likeReq struct {
	Type     string `json:"type"`
	LikeType string `json:"like_type"`
}

type ratingReq struct {
	Rating int `json:"rating"`
}

// ToggleLike applies a like or dislike of the current user.
func (h *EngagementHandler) ToggleLike(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	var req likeReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	t := req.LikeType
	if t == "" {
		t = req.Type
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Engagement.ToggleLike(ctx, postID, viewerID(c), t)
	if err != nil {
		return respondError(c, err, "Failed to update like")
	}
	return ok(c, http.StatusOK, "Like "+res.Action, res)
}

// LikeCounts returns the like and dislike totals of a post.
func (h *EngagementHandler) LikeCounts(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	counts, err := h.Engagement.LikeCounts(ctx, postID)
	if err != nil {
		return respondError(c, err, "Failed to load counts")
	}
	return ok(c, http.StatusOK, "Like counts", counts)
}

// SubmitRating records or replaces the current user's rating.
func (h *EngagementHandler) SubmitRating(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	var req ratingReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Engagement.SubmitRating(ctx, postID, viewerID(c), req.Rating)
	if err != nil {
		return respondError(c, err, "Failed to save rating")
	}
	msg := "Rating submitted"
	if res.Action == model.ActionUpdated {
		msg = "Rating updated"
	}
	return ok(c, http.StatusOK, msg, res)
}

// RatingStats returns the average rating and, for logged-in viewers, their
// own rating.
func (h *EngagementHandler) RatingStats(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	stats, err := h.Engagement.RatingStats(ctx, postID, viewerID(c))
	if err != nil {
		return respondError(c, err, "Failed to load rating")
	}
	return ok(c, http.StatusOK, "Rating stats", stats)
}
