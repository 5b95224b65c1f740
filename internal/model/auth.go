package model

import "time"

// OTPTypeEmail is the only OTP channel in use.
const OTPTypeEmail = "email"

// OTP models an `otp_verifications` row.  A code is valid while it is
// unused and ExpiresAt lies in the future; verification flips IsUsed.
type OTP struct {
	ID        uint64
	UserID    uint64
	Code      string
	Type      string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// Session is the authorization record kept in Redis.  The token handed to
// the client is a signed envelope around ID; TokenHash lets the MySQL
// session log be cleaned up on logout.
type Session struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	TokenHash string    `json:"token_hash"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the fixed window has elapsed at now.
func (s Session) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(s.IssuedAt) >= window || !now.Before(s.ExpiresAt)
}

// SessionRecord mirrors the informational `sessions` table.
type SessionRecord struct {
	ID        string
	UserID    uint64
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}
