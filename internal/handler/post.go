package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/service"
)

// PostHandler serves the feed, single posts and post images.
type PostHandler struct {
	Content      *service.ContentService
	MaxUpload    int64  // bytes accepted for one image
	PublicPrefix string // URL prefix of locally stored media
}

func NewPostHandler(content *service.ContentService, maxUpload int64, publicPrefix string) *PostHandler {
	return &PostHandler{Content: content, MaxUpload: maxUpload, PublicPrefix: publicPrefix}
}

type createPostReq struct {
	Content        string   `json:"content"`
	MediaURL       string   `json:"media_url"`
	YouTubeEmbed   string   `json:"youtube_embed"`
	YouTubeURL     string   `json:"youtube_url"`
	SentimentScore *float64 `json:"sentiment_score"`
}

// present rewrites stored media refs into loadable URLs.
func (h *PostHandler) present(p *model.Post) {
	p.ProfilePic = mediaURL(h.PublicPrefix, p.ProfilePic)
	if p.MediaURL != nil {
		u := mediaURL(h.PublicPrefix, *p.MediaURL)
		p.MediaURL = &u
	}
}

func (h *PostHandler) presentPage(pg *model.PostPage) {
	for i := range pg.Posts {
		h.present(&pg.Posts[i])
	}
}

// ListPosts returns one page of the global feed.
func (h *PostHandler) ListPosts(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	page, err := h.Content.ListPosts(ctx, queryInt(c, "page", 1), queryInt(c, "limit", service.DefaultPostsPerPage), viewerID(c))
	if err != nil {
		return respondError(c, err, "Failed to load posts")
	}
	h.presentPage(&page)
	return ok(c, http.StatusOK, "Posts loaded", page)
}

// ListUserPosts returns one page of a user's posts.
func (h *PostHandler) ListUserPosts(c echo.Context) error {
	uid, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	page, err := h.Content.ListUserPosts(ctx, uid, queryInt(c, "page", 1), queryInt(c, "limit", service.DefaultPostsPerPage), viewerID(c))
	if err != nil {
		return respondError(c, err, "Failed to load posts")
	}
	h.presentPage(&page)
	return ok(c, http.StatusOK, "Posts loaded", page)
}

// CountUserPosts returns the number of posts written by a user.
func (h *PostHandler) CountUserPosts(c echo.Context) error {
	uid, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Content.CountUserPosts(ctx, uid)
	if err != nil {
		return respondError(c, err, "Failed to count posts")
	}
	return ok(c, http.StatusOK, "Post count", echo.Map{"post_count": n})
}

// GetPost returns a single post.
func (h *PostHandler) GetPost(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Content.GetPost(ctx, id, viewerID(c))
	if err != nil {
		return respondError(c, err, "Failed to load post")
	}
	h.present(&p)
	return ok(c, http.StatusOK, "Post loaded", p)
}

// CreatePost publishes a post for the current user.
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	yt := req.YouTubeEmbed
	if yt == "" {
		yt = req.YouTubeURL
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Content.CreatePost(ctx, service.CreatePostInput{
		UserID:         viewerID(c),
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		YouTube:        yt,
		SentimentScore: req.SentimentScore,
	})
	if err != nil {
		return respondError(c, err, "Failed to create post")
	}
	h.present(&p)
	return ok(c, http.StatusCreated, "Post created successfully!", p)
}

// DeletePost removes a post of the current user.
func (h *PostHandler) DeletePost(c echo.Context) error {
	id, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid post ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	deleted, err := h.Content.DeletePost(ctx, id, viewerID(c))
	if err != nil {
		return respondError(c, err, "Failed to delete post")
	}
	if !deleted {
		return fail(c, http.StatusForbidden, "Post not found or you don't have permission to delete it")
	}
	return ok(c, http.StatusOK, "Post deleted successfully", echo.Map{"post_id": id})
}

// UploadMedia stores an image for a post about to be created.  The returned
// media_ref goes into the media_url field of CreatePost.
func (h *PostHandler) UploadMedia(c echo.Context) error {
	data, err := readUpload(c, h.MaxUpload, "media", "file", "image")
	if err != nil {
		return respondUploadError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ref, err := h.Content.UploadPostImage(ctx, viewerID(c), data)
	if err != nil {
		return respondError(c, err, "Failed to upload image")
	}
	return ok(c, http.StatusCreated, "Image uploaded", echo.Map{
		"media_ref":  ref,
		"media_url":  mediaURL(h.PublicPrefix, ref),
		"media_type": model.MediaImage,
	})
}
