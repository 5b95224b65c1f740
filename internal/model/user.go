package model

import "time"

// DefaultAvatar is the profile picture every account starts with and
// returns to after an avatar reset.  It is never deleted from the media store.
const DefaultAvatar = "default-avatar.png"

// User represents a row of the `users` table.  PasswordHash never leaves the
// service layer; handlers render PublicUser or Profile instead.
//
// Nullable columns are pointers so that "unset" survives a round trip.
type User struct {
	ID           uint64     // users.user_id
	Username     string     // users.username (unique)
	Email        string     // users.email (unique, lower-cased)
	Phone        *string    // users.phone
	PasswordHash string     // users.password_hash (bcrypt)
	DateOfBirth  *time.Time // users.date_of_birth
	IsVerified   bool       // users.is_verified, flipped by OTP verification
	ProfilePic   string     // users.profile_pic, media ref or DefaultAvatar
	Bio          *string    // users.bio
	Location     *string    // users.location
	Latitude     *float64   // users.latitude
	Longitude    *float64   // users.longitude
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// PublicUser is the author block joined onto posts and comments and the
// user view returned by login.
type PublicUser struct {
	ID         uint64 `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email,omitempty"`
	ProfilePic string `json:"profile_pic"`
}

// Profile is the full profile view.  Email and phone are only filled when
// the viewer owns the profile.
type Profile struct {
	ID          uint64    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	ProfilePic  string    `json:"profile_pic"`
	Bio         *string   `json:"bio"`
	Location    *string   `json:"location"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	PostCount   int64     `json:"post_count"`
	IsOwner     bool      `json:"is_owner"`
}

// Public strips a User down to its public fields.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, ProfilePic: u.ProfilePic}
}

// ProfileChanges carries the editable profile columns.  A nil field is left
// untouched by the repository.
type ProfileChanges struct {
	Bio         *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	DateOfBirth *time.Time
	Phone       *string
}
