package model

import "time"

// OTPMail is the hand-off from registration to email delivery.  It travels
// over the OTP mail queue as JSON.
type OTPMail struct {
	To             string    `json:"to"`
	Name           string    `json:"name"`
	Code           string    `json:"code"`
	ExpiresMinutes int       `json:"expires_minutes"`
	RequestedAt    time.Time `json:"requested_at"`
}

// Activity event types published to the activity stream.
const (
	EventPostCreated     = "post.created"
	EventPostDeleted     = "post.deleted"
	EventCommentCreated  = "comment.created"
	EventLikeToggled     = "like.toggled"
	EventRatingSubmitted = "rating.submitted"
	EventUserRegistered  = "user.registered"
)

// ActivityEvent describes one user action for downstream consumers
// (analytics, notifications).  Publishing is best effort.
type ActivityEvent struct {
	Type     string    `json:"type"`
	UserID   uint64    `json:"user_id"`
	PostID   uint64    `json:"post_id,omitempty"`
	Action   string    `json:"action,omitempty"`
	Value    int       `json:"value,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}
