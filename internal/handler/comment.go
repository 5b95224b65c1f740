package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/service"
)

// CommentHandler serves the comments of a post.
type CommentHandler struct {
	Content      *service.ContentService
	PublicPrefix string
}

func NewCommentHandler(content *service.ContentService, publicPrefix string) *CommentHandler {
	return &CommentHandler{Content: content, PublicPrefix: publicPrefix}
}

type commentReq struct {
	Content string `json:"content"`
}

// List returns comments oldest first.  Paging uses limit and offset.
func (h *CommentHandler) List(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	page, err := h.Content.ListComments(ctx, postID, queryInt(c, "limit", service.DefaultCommentsPerPage), queryInt(c, "offset", 0))
	if err != nil {
		return respondError(c, err, "Failed to load comments")
	}
	for i := range page.Comments {
		page.Comments[i].ProfilePic = mediaURL(h.PublicPrefix, page.Comments[i].ProfilePic)
	}
	return ok(c, http.StatusOK, "Comments loaded", page)
}

// Create adds a comment by the current user.
func (h *CommentHandler) Create(c echo.Context) error {
	postID, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	cm, err := h.Content.CreateComment(ctx, postID, viewerID(c), req.Content)
	if err != nil {
		return respondError(c, err, "Failed to add comment")
	}
	cm.ProfilePic = mediaURL(h.PublicPrefix, cm.ProfilePic)
	return ok(c, http.StatusCreated, "Comment added successfully", cm)
}
