package model

// LikeType is the value of a single like slot.
type LikeType string

const (
	Like    LikeType = "like"
	Dislike LikeType = "dislike"
)

// Valid reports whether t is one of the two accepted values.
func (t LikeType) Valid() bool { return t == Like || t == Dislike }

// Opposite returns the other like type.
func (t LikeType) Opposite() LikeType {
	if t == Like {
		return Dislike
	}
	return Like
}

// Actions reported by the like toggle and rating upsert.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionRemoved = "removed"
	ActionError   = "error"
)

// LikeCounts holds the recomputed like/dislike totals of a post.
type LikeCounts struct {
	LikeCount    int64 `json:"like_count"`
	DislikeCount int64 `json:"dislike_count"`
}

// ToggleResult is returned by every like transition.  LikeType is the
// resulting state, nil after a removal.
type ToggleResult struct {
	Action   string     `json:"action"`
	LikeType *LikeType  `json:"like_type"`
	Counts   LikeCounts `json:"counts"`
}

// RatingStats aggregates the live ratings of a post.
type RatingStats struct {
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
	UserRating    *int    `json:"user_rating"`
}

// RatingResult is returned by a rating submission.
type RatingResult struct {
	Action string `json:"action"`
	RatingStats
}
