package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RatingRepo stores one 1..5 rating per (post, user).
type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert writes the rating in a single statement and reports whether a new
// row was inserted.  MySQL returns 1 affected row for an insert, 2 for an
// update and 0 when the stored value was already equal.
func (r *RatingRepo) Upsert(ctx context.Context, postID, userID uint64, value int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (post_id, user_id, rating_value) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE rating_value = VALUES(rating_value)`,
		postID, userID, value)
	if err != nil {
		return false, fmt.Errorf("upsert rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Stats returns the unrounded average and the number of ratings of a post.
func (r *RatingRepo) Stats(ctx context.Context, postID uint64) (float64, int64, error) {
	var (
		avg   float64
		count int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating_value), 0), COUNT(*) FROM ratings WHERE post_id=?", postID).
		Scan(&avg, &count)
	return avg, count, err
}

// UserRating returns the stored rating of (post, user) or nil.
func (r *RatingRepo) UserRating(ctx context.Context, postID, userID uint64) (*int, error) {
	var v int
	err := r.db.QueryRowContext(ctx,
		"SELECT rating_value FROM ratings WHERE post_id=? AND user_id=? LIMIT 1", postID, userID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
