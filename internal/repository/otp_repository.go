package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/connecthub/internal/model"
)

// OTPRepo stores one-time verification codes.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Create stores a fresh email code for the user.
func (r *OTPRepo) Create(ctx context.Context, userID uint64, code string, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO otp_verifications (user_id, otp_code, otp_type, expires_at) VALUES (?,?,?,?)",
		userID, code, model.OTPTypeEmail, expiresAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("insert otp: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindUnused returns the newest unused code matching (user, code), expired
// or not.  The caller decides what an expired match means.
func (r *OTPRepo) FindUnused(ctx context.Context, userID uint64, code string) (model.OTP, error) {
	var o model.OTP
	err := r.DB.QueryRowContext(ctx,
		`SELECT otp_id, user_id, otp_code, otp_type, expires_at, is_used, created_at
		 FROM otp_verifications
		 WHERE user_id=? AND otp_code=? AND otp_type=? AND is_used=0
		 ORDER BY otp_id DESC LIMIT 1`,
		userID, code, model.OTPTypeEmail).
		Scan(&o.ID, &o.UserID, &o.Code, &o.Type, &o.ExpiresAt, &o.IsUsed, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrNotFound
	}
	return o, err
}

// Consume marks the code used and the owner verified in one transaction.
// A code that was consumed concurrently yields ErrNotFound.
func (r *OTPRepo) Consume(ctx context.Context, otpID, userID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"UPDATE otp_verifications SET is_used=1 WHERE otp_id=? AND user_id=? AND is_used=0", otpID, userID)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE users SET is_verified=1 WHERE user_id=?", userID); err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// InvalidateUnused retires every outstanding code of the user so that only
// the next issued one is accepted.
func (r *OTPRepo) InvalidateUnused(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE otp_verifications SET is_used=1 WHERE user_id=? AND otp_type=? AND is_used=0",
		userID, model.OTPTypeEmail)
	return err
}
