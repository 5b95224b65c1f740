package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/connecthub/internal/model"
)

// SessionRepo keeps the informational session log (`sessions` table).
// Authorization itself is decided by the Redis session store; this table
// records who logged in from where and is cleaned up on logout.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.  Only the SHA-256 of the token is stored.
func (r *SessionRepo) Create(ctx context.Context, s model.SessionRecord) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, token_hash, ip_address, user_agent, expires_at) VALUES (?,?,?,?,?,?)",
		s.ID, s.UserID, s.TokenHash, truncate(s.IPAddress, 45), truncate(s.UserAgent, 255), s.ExpiresAt)
	return err
}

// DeleteByID removes one session row.  Deleting a missing row is not an error.
func (r *SessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE session_id=?", id)
	return err
}

// DeleteAllForUser removes every session row of a user.
func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE user_id=?", userID)
	return err
}

// DeleteExpired prunes rows whose window has passed and returns how many went.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
