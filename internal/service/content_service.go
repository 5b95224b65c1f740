package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/iliyamo/connecthub/internal/media"
	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

// Listing bounds.
const (
	DefaultPostsPerPage    = 10
	MaxPostsPerPage        = 50
	DefaultCommentsPerPage = 20
	MaxCommentsPerPage     = 100
)

// ContentService manages posts, comments and post images.
type ContentService struct {
	posts         PostStore
	comments      CommentStore
	media         MediaStore
	images        ImageProcessor
	activity      ActivityPublisher
	sentimentMode string
	now           func() time.Time
}

// NewContentService wires a ContentService.  media and images may be nil
// when uploads are disabled.
func NewContentService(posts PostStore, comments CommentStore, store MediaStore, images ImageProcessor, activity ActivityPublisher, sentimentMode string) *ContentService {
	if sentimentMode == "" {
		sentimentMode = SentimentModeClient
	}
	return &ContentService{
		posts:         posts,
		comments:      comments,
		media:         store,
		images:        images,
		activity:      activity,
		sentimentMode: sentimentMode,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreatePostInput is a post submission.  MediaURL is a reference returned by
// UploadPostImage; YouTube is a URL or a bare video id.
type CreatePostInput struct {
	UserID         uint64
	Content        string
	MediaURL       string
	YouTube        string
	SentimentScore *float64
}

// CreatePost validates and stores a post and returns it with author info.
func (s *ContentService) CreatePost(ctx context.Context, in CreatePostInput) (model.Post, error) {
	content := strings.TrimSpace(in.Content)
	mediaURL := strings.TrimSpace(in.MediaURL)
	yt := strings.TrimSpace(in.YouTube)

	if content == "" && mediaURL == "" && yt == "" {
		return model.Post{}, invalid("content", "Post content cannot be empty")
	}
	if runeLen(content) > maxPostRunes {
		return model.Post{}, invalid("content", "Post content too long (max %d characters)", maxPostRunes)
	}
	if mediaURL != "" && yt != "" {
		return model.Post{}, invalid("media", "A post can carry an image or a YouTube video, not both")
	}

	np := model.NewPost{UserID: in.UserID, Content: content, MediaType: model.MediaNone}
	switch {
	case mediaURL != "":
		if !strings.HasPrefix(path.Base(mediaURL), fmt.Sprintf("post_%d_", in.UserID)) {
			return model.Post{}, invalid("media_url", "Invalid media reference")
		}
		np.MediaType = model.MediaImage
		np.MediaURL = &mediaURL
	case yt != "":
		id := ExtractYouTubeID(yt)
		if id == "" {
			return model.Post{}, invalid("youtube_embed", "Invalid YouTube URL")
		}
		np.MediaType = model.MediaYouTube
		np.YouTubeID = &id
	}
	np.SentimentScore = resolveSentiment(s.sentimentMode, content, in.SentimentScore)

	id, err := s.posts.Create(ctx, np)
	if err != nil {
		return model.Post{}, fmt.Errorf("create post: %w", err)
	}
	p, err := s.posts.GetByID(ctx, id, in.UserID)
	if err != nil {
		return model.Post{}, fmt.Errorf("load post %d: %w", id, err)
	}
	emit(s.activity, model.ActivityEvent{Type: model.EventPostCreated, UserID: in.UserID, PostID: id})
	return p, nil
}

// GetPost returns one post as seen by viewerID (0 for anonymous).
func (s *ContentService) GetPost(ctx context.Context, postID, viewerID uint64) (model.Post, error) {
	p, err := s.posts.GetByID(ctx, postID, viewerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("load post %d: %w", postID, err)
	}
	return p, nil
}

// DeletePost removes a post owned by userID.  It returns false, without an
// error, when the post is missing or belongs to someone else.  The attached
// image is removed after the row.
func (s *ContentService) DeletePost(ctx context.Context, postID, userID uint64) (bool, error) {
	p, err := s.posts.GetByID(ctx, postID, 0)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load post %d: %w", postID, err)
	}
	if p.UserID != userID {
		return false, nil
	}
	ok, err := s.posts.DeleteOwned(ctx, postID, userID)
	if err != nil || !ok {
		return false, err
	}
	if p.MediaType == model.MediaImage && p.MediaURL != nil && s.media != nil {
		if err := s.media.Delete(ctx, *p.MediaURL); err != nil {
			log.Printf("content: remove media of post %d: %v", postID, err)
		}
	}
	emit(s.activity, model.ActivityEvent{Type: model.EventPostDeleted, UserID: userID, PostID: postID})
	return true, nil
}

// normalizePage clamps page to >= 1 and resets an out-of-range limit to the
// default.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > MaxPostsPerPage {
		limit = DefaultPostsPerPage
	}
	return page, limit
}

// ListPosts returns the newest-first feed.
func (s *ContentService) ListPosts(ctx context.Context, page, limit int, viewerID uint64) (model.PostPage, error) {
	page, limit = normalizePage(page, limit)
	posts, err := s.posts.List(ctx, limit, (page-1)*limit, viewerID)
	if err != nil {
		return model.PostPage{}, fmt.Errorf("list posts: %w", err)
	}
	total, err := s.posts.Count(ctx)
	if err != nil {
		return model.PostPage{}, fmt.Errorf("count posts: %w", err)
	}
	return model.PostPage{Posts: nonNilPosts(posts), Pagination: model.NewPagination(page, limit, total)}, nil
}

// ListUserPosts returns the newest-first posts of one author.
func (s *ContentService) ListUserPosts(ctx context.Context, userID uint64, page, limit int, viewerID uint64) (model.PostPage, error) {
	if userID == 0 {
		return model.PostPage{}, invalid("user_id", "Invalid user ID")
	}
	page, limit = normalizePage(page, limit)
	posts, err := s.posts.ListByUser(ctx, userID, limit, (page-1)*limit, viewerID)
	if err != nil {
		return model.PostPage{}, fmt.Errorf("list posts of user %d: %w", userID, err)
	}
	total, err := s.posts.CountByUser(ctx, userID)
	if err != nil {
		return model.PostPage{}, fmt.Errorf("count posts of user %d: %w", userID, err)
	}
	return model.PostPage{Posts: nonNilPosts(posts), Pagination: model.NewPagination(page, limit, total)}, nil
}

// CountUserPosts returns how many posts userID has written.
func (s *ContentService) CountUserPosts(ctx context.Context, userID uint64) (int64, error) {
	if userID == 0 {
		return 0, invalid("user_id", "Invalid user ID")
	}
	return s.posts.CountByUser(ctx, userID)
}

// UploadPostImage normalizes an image and stores it as post_{uid}_{ts}.jpg.
// The returned reference is what CreatePost expects in MediaURL.
func (s *ContentService) UploadPostImage(ctx context.Context, userID uint64, data []byte) (string, error) {
	if s.media == nil || s.images == nil {
		return "", errors.New("media uploads are not configured")
	}
	out, err := s.images.Process(data, media.PostImage.MaxWidth, media.PostImage.MaxHeight)
	if err != nil {
		return "", imageError(err)
	}
	name := fmt.Sprintf("post_%d_%d.jpg", userID, s.now().UnixMilli())
	ref, err := s.media.Save(ctx, name, out)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return ref, nil
}

func imageError(err error) error {
	if errors.Is(err, media.ErrRejected) {
		return invalid("file", "%s", err.Error())
	}
	return fmt.Errorf("process image: %w", err)
}

// CreateComment adds a comment to an existing post.
func (s *ContentService) CreateComment(ctx context.Context, postID, userID uint64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if postID == 0 {
		return model.Comment{}, invalid("post_id", "Post ID is required")
	}
	if content == "" {
		return model.Comment{}, invalid("content", "Comment cannot be empty")
	}
	if runeLen(content) > maxCommentRunes {
		return model.Comment{}, invalid("content", "Comment too long (max %d characters)", maxCommentRunes)
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return model.Comment{}, fmt.Errorf("check post %d: %w", postID, err)
	}
	if !ok {
		return model.Comment{}, ErrNotFound
	}
	id, err := s.comments.Create(ctx, postID, userID, content)
	if errors.Is(err, repository.ErrNotFound) {
		// the post vanished between the check and the insert
		return model.Comment{}, ErrNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("load comment %d: %w", id, err)
	}
	emit(s.activity, model.ActivityEvent{Type: model.EventCommentCreated, UserID: userID, PostID: postID})
	return c, nil
}

// ListComments returns comments of a post oldest first.
func (s *ContentService) ListComments(ctx context.Context, postID uint64, limit, offset int) (model.CommentPage, error) {
	if postID == 0 {
		return model.CommentPage{}, invalid("post_id", "Invalid post ID")
	}
	if limit < 1 {
		limit = DefaultCommentsPerPage
	}
	if limit > MaxCommentsPerPage {
		limit = MaxCommentsPerPage
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return model.CommentPage{}, fmt.Errorf("list comments: %w", err)
	}
	total, err := s.comments.CountByPost(ctx, postID)
	if err != nil {
		return model.CommentPage{}, fmt.Errorf("count comments: %w", err)
	}
	if list == nil {
		list = []model.Comment{}
	}
	return model.CommentPage{Comments: list, TotalComments: total}, nil
}

func nonNilPosts(p []model.Post) []model.Post {
	if p == nil {
		return []model.Post{}
	}
	return p
}
