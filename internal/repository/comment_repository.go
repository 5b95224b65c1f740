package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/connecthub/internal/model"
)

type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

const commentSelect = `SELECT c.comment_id, c.post_id, c.user_id, c.content, c.created_at, u.username, u.profile_pic
	FROM comments c
	JOIN users u ON u.user_id = c.user_id`

func scanComment(s rowScanner) (model.Comment, error) {
	var c model.Comment
	err := s.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt, &c.Username, &c.ProfilePic)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// Create inserts a comment and returns its id.
func (r *CommentRepo) Create(ctx context.Context, postID, userID uint64, content string) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (post_id, user_id, content) VALUES (?,?,?)", postID, userID, content)
	if isMissingParent(err) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns one comment joined with its author.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.comment_id = ?", id))
}

// ListByPost returns comments oldest first.
func (r *CommentRepo) ListByPost(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		commentSelect+" WHERE c.post_id = ? ORDER BY c.created_at ASC, c.comment_id ASC LIMIT ? OFFSET ?",
		postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountByPost returns the total number of comments on a post.
func (r *CommentRepo) CountByPost(ctx context.Context, postID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE post_id=?", postID).Scan(&n)
	return n, err
}
