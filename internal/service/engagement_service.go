package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

// EngagementService implements the like toggle and ratings.
type EngagementService struct {
	posts    PostStore
	likes    LikeStore
	ratings  RatingStore
	activity ActivityPublisher
}

func NewEngagementService(posts PostStore, likes LikeStore, ratings RatingStore, activity ActivityPublisher) *EngagementService {
	return &EngagementService{posts: posts, likes: likes, ratings: ratings, activity: activity}
}

func (s *EngagementService) requirePost(ctx context.Context, postID uint64) error {
	if postID == 0 {
		return invalid("post_id", "Post ID is required")
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return fmt.Errorf("check post %d: %w", postID, err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ToggleLike moves the (post, user) slot through none -> t (added),
// t -> none (removed) and opposite -> t (updated).  If a concurrent request
// changes the slot between the read and the write, the transition is
// re-evaluated once against the new state.
func (s *EngagementService) ToggleLike(ctx context.Context, postID, userID uint64, likeType string) (model.ToggleResult, error) {
	t := model.LikeType(strings.ToLower(strings.TrimSpace(likeType)))
	if !t.Valid() {
		return model.ToggleResult{Action: model.ActionError}, invalid("like_type", "Invalid like type")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return model.ToggleResult{Action: model.ActionError}, err
	}

	var res model.ToggleResult
	for attempt := 0; ; attempt++ {
		action, raced, err := s.transition(ctx, postID, userID, t)
		if raced && attempt == 0 {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return model.ToggleResult{Action: model.ActionError}, err
		}
		if err != nil {
			return model.ToggleResult{Action: model.ActionError}, fmt.Errorf("toggle like: %w", err)
		}
		res.Action = action
		break
	}
	if res.Action != model.ActionRemoved {
		res.LikeType = &t
	}

	counts, err := s.likes.Counts(ctx, postID)
	if err != nil {
		return model.ToggleResult{Action: model.ActionError}, fmt.Errorf("count likes: %w", err)
	}
	res.Counts = counts
	emit(s.activity, model.ActivityEvent{Type: model.EventLikeToggled, UserID: userID, PostID: postID, Action: res.Action})
	return res, nil
}

// transition applies one step of the toggle.  raced is set when the write
// lost against a concurrent change of the same slot.
func (s *EngagementService) transition(ctx context.Context, postID, userID uint64, t model.LikeType) (action string, raced bool, err error) {
	cur, err := s.likes.Get(ctx, postID, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		err = s.likes.Insert(ctx, postID, userID, t)
		if errors.Is(err, repository.ErrDuplicate) {
			return "", true, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, ErrNotFound
		}
		return model.ActionAdded, false, err
	case err != nil:
		return "", false, err
	case cur == t:
		err = s.likes.Delete(ctx, postID, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return "", true, err
		}
		return model.ActionRemoved, false, err
	default:
		err = s.likes.Update(ctx, postID, userID, t)
		if errors.Is(err, repository.ErrNotFound) {
			return "", true, err
		}
		return model.ActionUpdated, false, err
	}
}

// LikeCounts returns the like/dislike totals of a post.
func (s *EngagementService) LikeCounts(ctx context.Context, postID uint64) (model.LikeCounts, error) {
	if postID == 0 {
		return model.LikeCounts{}, invalid("post_id", "Invalid post ID")
	}
	counts, err := s.likes.Counts(ctx, postID)
	if err != nil {
		return model.LikeCounts{}, fmt.Errorf("count likes: %w", err)
	}
	return counts, nil
}

// SubmitRating stores or replaces the user's 1-5 rating of a post.
func (s *EngagementService) SubmitRating(ctx context.Context, postID, userID uint64, value int) (model.RatingResult, error) {
	if value < 1 || value > 5 {
		return model.RatingResult{}, invalid("rating", "Rating must be between 1 and 5")
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return model.RatingResult{}, err
	}
	inserted, err := s.ratings.Upsert(ctx, postID, userID, value)
	if err != nil {
		return model.RatingResult{}, fmt.Errorf("upsert rating: %w", err)
	}
	avg, total, err := s.ratings.Stats(ctx, postID)
	if err != nil {
		return model.RatingResult{}, fmt.Errorf("rating stats: %w", err)
	}
	action := model.ActionUpdated
	if inserted {
		action = model.ActionAdded
	}
	v := value
	emit(s.activity, model.ActivityEvent{Type: model.EventRatingSubmitted, UserID: userID, PostID: postID, Action: action, Value: value})
	return model.RatingResult{
		Action: action,
		RatingStats: model.RatingStats{
			AverageRating: repository.RoundRating(avg),
			TotalRatings:  total,
			UserRating:    &v,
		},
	}, nil
}

// RatingStats aggregates the ratings of a post.  UserRating is nil for
// anonymous viewers and for viewers who have not rated.
func (s *EngagementService) RatingStats(ctx context.Context, postID, viewerID uint64) (model.RatingStats, error) {
	if postID == 0 {
		return model.RatingStats{}, invalid("post_id", "Invalid post ID")
	}
	avg, total, err := s.ratings.Stats(ctx, postID)
	if err != nil {
		return model.RatingStats{}, fmt.Errorf("rating stats: %w", err)
	}
	st := model.RatingStats{AverageRating: repository.RoundRating(avg), TotalRatings: total}
	if viewerID != 0 {
		ur, err := s.ratings.UserRating(ctx, postID, viewerID)
		if err != nil {
			return model.RatingStats{}, fmt.Errorf("user rating: %w", err)
		}
		st.UserRating = ur
	}
	return st, nil
}
