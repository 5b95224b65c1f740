package service

import (
	"context"
	"time"

	"github.com/iliyamo/connecthub/internal/model"
)

// UserStore persists accounts and profiles.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByLogin(ctx context.Context, identifier string) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, ch model.ProfileChanges) error
	SetProfilePic(ctx context.Context, id uint64, pic string) error
	ListLatest(ctx context.Context, limit int) ([]model.User, error)
}

// OTPStore persists one-time codes.
type OTPStore interface {
	Create(ctx context.Context, userID uint64, code string, expiresAt time.Time) (uint64, error)
	FindUnused(ctx context.Context, userID uint64, code string) (model.OTP, error)
	Consume(ctx context.Context, otpID, userID uint64) error
	InvalidateUnused(ctx context.Context, userID uint64) error
}

// SessionStore is the authoritative session registry.
type SessionStore interface {
	Save(ctx context.Context, s model.Session) error
	Get(ctx context.Context, id string) (model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID uint64) (int, error)
}

// SessionLog is the informational session table.
type SessionLog interface {
	Create(ctx context.Context, s model.SessionRecord) error
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostStore persists posts and computes their read-time counters.
type PostStore interface {
	Create(ctx context.Context, np model.NewPost) (uint64, error)
	GetByID(ctx context.Context, id, viewerID uint64) (model.Post, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	List(ctx context.Context, limit, offset int, viewerID uint64) ([]model.Post, error)
	ListByUser(ctx context.Context, userID uint64, limit, offset int, viewerID uint64) ([]model.Post, error)
	Count(ctx context.Context) (int64, error)
	CountByUser(ctx context.Context, userID uint64) (int64, error)
	DeleteOwned(ctx context.Context, postID, userID uint64) (bool, error)
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, postID, userID uint64, content string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Comment, error)
	ListByPost(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, error)
	CountByPost(ctx context.Context, postID uint64) (int64, error)
}

// LikeStore persists the single like slot per (post, user).
type LikeStore interface {
	Get(ctx context.Context, postID, userID uint64) (model.LikeType, error)
	Insert(ctx context.Context, postID, userID uint64, t model.LikeType) error
	Update(ctx context.Context, postID, userID uint64, t model.LikeType) error
	Delete(ctx context.Context, postID, userID uint64) error
	Counts(ctx context.Context, postID uint64) (model.LikeCounts, error)
}

// RatingStore persists one rating per (post, user).
type RatingStore interface {
	Upsert(ctx context.Context, postID, userID uint64, value int) (bool, error)
	Stats(ctx context.Context, postID uint64) (float64, int64, error)
	UserRating(ctx context.Context, postID, userID uint64) (*int, error)
}

// MediaStore keeps processed images and returns the reference stored on the
// post or profile.
type MediaStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ImageProcessor normalizes an upload into a JPEG bounded by the given box.
type ImageProcessor interface {
	Process(data []byte, maxWidth, maxHeight int) ([]byte, error)
}

// OTPDispatcher hands an OTP to the mail pipeline (queue or direct SMTP).
type OTPDispatcher interface {
	DispatchOTP(ctx context.Context, m model.OTPMail) error
}

// ActivityPublisher emits user activity events.  Failures never fail the
// request that produced the event.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev model.ActivityEvent) error
}

// Throttle reports whether an action keyed by key may run again within window.
type Throttle interface {
	Allow(ctx context.Context, key string, window time.Duration) (bool, error)
}
