package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/iliyamo/connecthub/internal/model"
)

// PostRepo encapsulates the queries on `posts`.  Every read annotates the
// rows with counters aggregated from likes, comments and ratings at query
// time; nothing is stored denormalized.
type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

// postSelect takes the viewer id as its first argument.  A zero viewer
// matches no like row, so user_like is NULL for anonymous reads.
const postSelect = `SELECT
		p.post_id,
		p.user_id,
		p.content,
		p.media_url,
		p.media_type,
		p.youtube_embed,
		p.sentiment_score,
		p.created_at,
		u.username,
		u.profile_pic,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.post_id AND l.like_type = 'like')    AS like_count,
		(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.post_id AND l.like_type = 'dislike') AS dislike_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.post_id)                          AS comment_count,
		(SELECT COALESCE(AVG(r.rating_value), 0) FROM ratings r WHERE r.post_id = p.post_id)   AS average_rating,
		(SELECT COUNT(*) FROM ratings r WHERE r.post_id = p.post_id)                           AS rating_count,
		(SELECT l.like_type FROM likes l WHERE l.post_id = p.post_id AND l.user_id = ?)        AS user_like
	FROM posts p
	JOIN users u ON u.user_id = p.user_id`

func scanPost(s rowScanner, viewerID uint64) (model.Post, error) {
	var (
		p              model.Post
		mediaURL, ytID sql.NullString
		userLike       sql.NullString
		sentiment      sql.NullFloat64
		mediaType      string
	)
	err := s.Scan(&p.ID, &p.UserID, &p.Content, &mediaURL, &mediaType, &ytID, &sentiment, &p.CreatedAt,
		&p.Username, &p.ProfilePic,
		&p.LikeCount, &p.DislikeCount, &p.CommentCount, &p.AverageRating, &p.RatingCount, &userLike)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, ErrNotFound
		}
		return p, err
	}
	p.MediaType = model.MediaType(mediaType)
	p.MediaURL = nullString(mediaURL)
	p.YouTubeID = nullString(ytID)
	p.SentimentScore = nullFloat(sentiment)
	p.AverageRating = RoundRating(p.AverageRating)
	if viewerID != 0 {
		if userLike.Valid {
			lt := model.LikeType(userLike.String)
			p.UserLikeStatus = &lt
		}
		p.IsOwner = p.UserID == viewerID
	}
	return p, nil
}

// RoundRating rounds an average to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// Create inserts a post and returns its id.
func (r *PostRepo) Create(ctx context.Context, np model.NewPost) (uint64, error) {
	mt := np.MediaType
	if mt == "" {
		mt = model.MediaNone
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (user_id, content, media_url, media_type, youtube_embed, sentiment_score)
		 VALUES (?,?,?,?,?,?)`,
		np.UserID, np.Content, np.MediaURL, string(mt), np.YouTubeID, np.SentimentScore)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID returns one annotated post.
func (r *PostRepo) GetByID(ctx context.Context, id, viewerID uint64) (model.Post, error) {
	row := r.db.QueryRowContext(ctx, postSelect+" WHERE p.post_id = ?", viewerID, id)
	return scanPost(row, viewerID)
}

// Exists reports whether a post with the id is present.
func (r *PostRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE post_id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// List returns the newest posts of the whole feed.
func (r *PostRepo) List(ctx context.Context, limit, offset int, viewerID uint64) ([]model.Post, error) {
	return r.query(ctx, viewerID, postSelect+" ORDER BY p.created_at DESC, p.post_id DESC LIMIT ? OFFSET ?",
		viewerID, limit, offset)
}

// ListByUser returns the newest posts of one author.
func (r *PostRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int, viewerID uint64) ([]model.Post, error) {
	return r.query(ctx, viewerID, postSelect+" WHERE p.user_id = ? ORDER BY p.created_at DESC, p.post_id DESC LIMIT ? OFFSET ?",
		viewerID, userID, limit, offset)
}

func (r *PostRepo) query(ctx context.Context, viewerID uint64, q string, args ...any) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of posts in the feed.
func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&n)
	return n, err
}

// CountByUser returns the number of posts of one author.
func (r *PostRepo) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts WHERE user_id=?", userID).Scan(&n)
	return n, err
}

// DeleteOwned removes a post only if userID owns it and reports whether a
// row went away.  Comments, likes and ratings follow through ON DELETE CASCADE.
func (r *PostRepo) DeleteOwned(ctx context.Context, postID, userID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM posts WHERE post_id=? AND user_id=?", postID, userID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
