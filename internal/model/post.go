package model

import "time"

// MediaType tags the single optional attachment of a post.
type MediaType string

const (
	MediaNone    MediaType = "none"
	MediaImage   MediaType = "image"
	MediaYouTube MediaType = "youtube"
)

// Post is a row of `posts` joined with its author and the read-time
// counters.  Counters are never stored; they are aggregated per query.
type Post struct {
	ID             uint64    `json:"post_id"`
	UserID         uint64    `json:"user_id"`
	Content        string    `json:"content"`
	MediaURL       *string   `json:"media_url"`
	MediaType      MediaType `json:"media_type"`
	YouTubeID      *string   `json:"youtube_embed"`
	SentimentScore *float64  `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`

	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic"`

	LikeCount     int64   `json:"like_count"`
	DislikeCount  int64   `json:"dislike_count"`
	CommentCount  int64   `json:"comment_count"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`

	// Viewer-specific; zero values for anonymous readers.
	UserLikeStatus *LikeType `json:"user_like_status"`
	IsOwner        bool      `json:"is_owner"`
}

// NewPost is what the content service hands to the repository.
type NewPost struct {
	UserID         uint64
	Content        string
	MediaURL       *string
	MediaType      MediaType
	YouTubeID      *string
	SentimentScore *float64
}

// Pagination describes one page of a post listing.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalPosts  int64 `json:"total_posts"`
	PerPage     int   `json:"per_page"`
	HasMore     bool  `json:"has_more"`
}

// NewPagination computes page metadata against the unfiltered total.
func NewPagination(page, perPage int, total int64) Pagination {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  pages,
		TotalPosts:  total,
		PerPage:     perPage,
		HasMore:     page < pages,
	}
}

// PostPage is a page of posts with its pagination block.
type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// Comment is a row of `comments` joined with its author.
type Comment struct {
	ID         uint64    `json:"comment_id"`
	PostID     uint64    `json:"post_id"`
	UserID     uint64    `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	Username   string    `json:"username"`
	ProfilePic string    `json:"profile_pic"`
}

// CommentPage is a slice of comments plus the post's total comment count.
type CommentPage struct {
	Comments      []Comment `json:"comments"`
	TotalComments int64     `json:"total_comments"`
}
