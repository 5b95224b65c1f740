package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/connecthub/internal/model"
)

// LikeRepo stores the single like slot per (post, user).  Each method is a
// single statement; the unique index uq_likes_post_user guarantees at most
// one row per pair even when two toggles race.
type LikeRepo struct {
	db *sql.DB
}

func NewLikeRepo(db *sql.DB) *LikeRepo { return &LikeRepo{db: db} }

// Get returns the current like type of (post, user) or ErrNotFound.
func (r *LikeRepo) Get(ctx context.Context, postID, userID uint64) (model.LikeType, error) {
	var t string
	err := r.db.QueryRowContext(ctx,
		"SELECT like_type FROM likes WHERE post_id=? AND user_id=? LIMIT 1", postID, userID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return model.LikeType(t), nil
}

// Insert creates the slot.  A concurrent insert for the same pair yields ErrDuplicate.
func (r *LikeRepo) Insert(ctx context.Context, postID, userID uint64, t model.LikeType) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO likes (post_id, user_id, like_type) VALUES (?,?,?)", postID, userID, string(t))
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		if isMissingParent(err) {
			return ErrNotFound
		}
		return fmt.Errorf("insert like: %w", err)
	}
	return nil
}

// Update switches the slot to t.
func (r *LikeRepo) Update(ctx context.Context, postID, userID uint64, t model.LikeType) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE likes SET like_type=? WHERE post_id=? AND user_id=?", string(t), postID, userID)
	if err != nil {
		return fmt.Errorf("update like: %w", err)
	}
	return requireAffected(res)
}

// Delete clears the slot.
func (r *LikeRepo) Delete(ctx context.Context, postID, userID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM likes WHERE post_id=? AND user_id=?", postID, userID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return requireAffected(res)
}

// Counts recomputes the like and dislike totals of a post.
func (r *LikeRepo) Counts(ctx context.Context, postID uint64) (model.LikeCounts, error) {
	var c model.LikeCounts
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(like_type = 'like'), 0),
			COALESCE(SUM(like_type = 'dislike'), 0)
		 FROM likes WHERE post_id=?`, postID).Scan(&c.LikeCount, &c.DislikeCount)
	return c, err
}
