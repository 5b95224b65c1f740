package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const unknownQueryMessage = "Unknown query. Available queries: posts(limit: Int), user(id: Int), users(limit: Int)"

var (
	whitespace = regexp.MustCompile(`\s+`)
	limitArg   = regexp.MustCompile(`limit:\s*(\d+)`)
	idArg      = regexp.MustCompile(`id:\s*(\d+)`)
)

// QueryError is one entry of the errors array.
type QueryError struct {
	Message string `json:"message"`
}

// QueryResult is the response body: either Data or Errors is set.
type QueryResult struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []QueryError   `json:"errors,omitempty"`
}

type queryAuthor struct {
	ID         uint64 `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

type queryPost struct {
	ID             uint64      `json:"id"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"createdAt"`
	SentimentScore *float64    `json:"sentimentScore"`
	LikeCount      int64       `json:"likeCount"`
	CommentCount   int64       `json:"commentCount"`
	Author         queryAuthor `json:"author"`
}

type queryUser struct {
	ID         uint64    `json:"id"`
	Username   string    `json:"username"`
	ProfilePic string    `json:"profilePic"`
	Bio        *string   `json:"bio,omitempty"`
	Location   *string   `json:"location,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	PostCount  *int64    `json:"postCount,omitempty"`
}

// QueryService answers the read-only query endpoint.  It understands three
// shapes: posts(limit: N), user(id: N) and users(limit: N).
type QueryService struct {
	posts PostStore
	users UserStore
}

func NewQueryService(posts PostStore, users UserStore) *QueryService {
	return &QueryService{posts: posts, users: users}
}

func queryFailure(msg string) QueryResult {
	return QueryResult{Errors: []QueryError{{Message: msg}}}
}

// argInt extracts a numeric argument, falling back to def.
func argInt(re *regexp.Regexp, q string, def int) int {
	m := re.FindStringSubmatch(q)
	if m == nil {
		return def
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return def
	}
	return n
}

// Execute runs query.  Store failures come back as an error; everything
// the caller did wrong comes back inside the result.
func (s *QueryService) Execute(ctx context.Context, query string) (QueryResult, error) {
	q := strings.TrimSpace(whitespace.ReplaceAllString(query, " "))
	if q == "" {
		return queryFailure("No query provided"), nil
	}
	switch {
	case strings.Contains(q, "posts("):
		limit := clamp(argInt(limitArg, q, 10), 1, 50)
		posts, err := s.posts.List(ctx, limit, 0, 0)
		if err != nil {
			return QueryResult{}, fmt.Errorf("query posts: %w", err)
		}
		out := make([]queryPost, 0, len(posts))
		for _, p := range posts {
			out = append(out, queryPost{
				ID:             p.ID,
				Content:        p.Content,
				CreatedAt:      p.CreatedAt,
				SentimentScore: p.SentimentScore,
				LikeCount:      p.LikeCount,
				CommentCount:   p.CommentCount,
				Author:         queryAuthor{ID: p.UserID, Username: p.Username, ProfilePic: p.ProfilePic},
			})
		}
		return QueryResult{Data: map[string]any{"posts": out}}, nil

	case strings.Contains(q, "user("):
		id := argInt(idArg, q, 0)
		if id <= 0 {
			return queryFailure("User ID required"), nil
		}
		u, err := s.users.GetByID(ctx, uint64(id))
		if err != nil {
			if isNotFound(err) {
				return queryFailure("User not found"), nil
			}
			return QueryResult{}, fmt.Errorf("query user: %w", err)
		}
		count, err := s.posts.CountByUser(ctx, u.ID)
		if err != nil {
			return QueryResult{}, fmt.Errorf("query user posts: %w", err)
		}
		return QueryResult{Data: map[string]any{"user": queryUser{
			ID:         u.ID,
			Username:   u.Username,
			ProfilePic: u.ProfilePic,
			Bio:        u.Bio,
			Location:   u.Location,
			CreatedAt:  u.CreatedAt,
			PostCount:  &count,
		}}}, nil

	case strings.Contains(q, "users"):
		limit := clamp(argInt(limitArg, q, 20), 1, 100)
		users, err := s.users.ListLatest(ctx, limit)
		if err != nil {
			return QueryResult{}, fmt.Errorf("query users: %w", err)
		}
		out := make([]queryUser, 0, len(users))
		for _, u := range users {
			out = append(out, queryUser{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic, CreatedAt: u.CreatedAt})
		}
		return QueryResult{Data: map[string]any{"users": out}}, nil
	}
	return queryFailure(unknownQueryMessage), nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
