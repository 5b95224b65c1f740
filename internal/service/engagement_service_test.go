package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/connecthub/internal/mocks"
	"github.com/iliyamo/connecthub/internal/model"
)

func newEngagement() (*EngagementService, *mocks.PostStore, *mocks.LikeStore, *mocks.RatingStore) {
	posts := &mocks.PostStore{}
	likes := mocks.NewLikeStore()
	ratings := mocks.NewRatingStore()
	return NewEngagementService(posts, likes, ratings, NopPublisher{}), posts, likes, ratings
}

func TestToggleLike_Transitions(t *testing.T) {
	svc, _, _, _ := newEngagement()
	ctx := context.Background()

	steps := []struct {
		in     model.LikeType
		action string
		state  *model.LikeType
		counts model.LikeCounts
	}{
		{model.Like, model.ActionAdded, ptr(model.Like), model.LikeCounts{LikeCount: 1}},
		{model.Dislike, model.ActionUpdated, ptr(model.Dislike), model.LikeCounts{DislikeCount: 1}},
		{model.Dislike, model.ActionRemoved, nil, model.LikeCounts{}},
		{model.Dislike, model.ActionAdded, ptr(model.Dislike), model.LikeCounts{DislikeCount: 1}},
	}
	for i, s := range steps {
		res, err := svc.ToggleLike(ctx, 1, 9, string(s.in))
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.action, res.Action, "step %d", i)
		assert.Equal(t, s.state, res.LikeType, "step %d", i)
		assert.Equal(t, s.counts, res.Counts, "step %d", i)
	}
}

// The resulting slot only depends on the previous slot and the input, so a
// random walk must always agree with a direct model of the state machine.
func TestToggleLike_RandomWalkMatchesModel(t *testing.T) {
	svc, _, _, _ := newEngagement()
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	var state *model.LikeType
	for i := 0; i < 200; i++ {
		in := model.Like
		if rng.Intn(2) == 1 {
			in = model.Dislike
		}
		res, err := svc.ToggleLike(ctx, 3, 4, string(in))
		require.NoError(t, err)

		switch {
		case state == nil:
			assert.Equal(t, model.ActionAdded, res.Action)
			state = ptr(in)
		case *state == in:
			assert.Equal(t, model.ActionRemoved, res.Action)
			state = nil
		default:
			assert.Equal(t, model.ActionUpdated, res.Action)
			state = ptr(in)
		}
		assert.Equal(t, state, res.LikeType)
		assert.LessOrEqual(t, res.Counts.LikeCount+res.Counts.DislikeCount, int64(1))
	}
}

func TestToggleLike_RetriesOnceAfterConcurrentInsert(t *testing.T) {
	svc, _, likes, _ := newEngagement()
	var once sync.Once
	likes.InsertHook = func(postID, userID uint64) {
		once.Do(func() { likes.Set(postID, userID, model.Dislike) })
	}
	res, err := svc.ToggleLike(context.Background(), 1, 2, "like")
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdated, res.Action)
	assert.Equal(t, model.LikeCounts{LikeCount: 1}, res.Counts)
}

func TestToggleLike_Errors(t *testing.T) {
	svc, posts, likes, _ := newEngagement()
	ctx := context.Background()

	res, err := svc.ToggleLike(ctx, 1, 2, "love")
	_, ok := IsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, model.ActionError, res.Action)

	posts.ExistsFunc = func(context.Context, uint64) (bool, error) { return false, nil }
	_, err = svc.ToggleLike(ctx, 1, 2, "like")
	assert.ErrorIs(t, err, ErrNotFound)

	// the post disappears between the check and the insert
	posts.ExistsFunc = nil
	likes.Posts = map[uint64]bool{}
	_, err = svc.ToggleLike(ctx, 1, 2, "like")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLike_ConcurrentUsersKeepOneSlotEach(t *testing.T) {
	svc, _, likes, _ := newEngagement()
	ctx := context.Background()
	var wg sync.WaitGroup
	for u := uint64(1); u <= 20; u++ {
		wg.Add(1)
		go func(uid uint64) {
			defer wg.Done()
			_, err := svc.ToggleLike(ctx, 5, uid, "like")
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()
	c, err := likes.Counts(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, model.LikeCounts{LikeCount: 20}, c)
}

func TestSubmitRating(t *testing.T) {
	svc, _, _, _ := newEngagement()
	ctx := context.Background()

	for _, bad := range []int{0, 6, -1} {
		_, err := svc.SubmitRating(ctx, 1, 1, bad)
		_, ok := IsValidation(err)
		assert.True(t, ok, "rating %d", bad)
	}

	res, err := svc.SubmitRating(ctx, 1, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, model.ActionAdded, res.Action)
	assert.Equal(t, 4.0, res.AverageRating)

	res, err = svc.SubmitRating(ctx, 1, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 4.5, res.AverageRating)
	assert.Equal(t, int64(2), res.TotalRatings)

	res, err = svc.SubmitRating(ctx, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUpdated, res.Action)
	assert.Equal(t, 3.0, res.AverageRating)
	assert.Equal(t, int64(2), res.TotalRatings)

	res, err = svc.SubmitRating(ctx, 1, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.7, res.AverageRating)
}

func TestRatingStats(t *testing.T) {
	svc, _, _, _ := newEngagement()
	ctx := context.Background()

	st, err := svc.RatingStats(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.RatingStats{}, st)

	_, err = svc.SubmitRating(ctx, 1, 7, 3)
	require.NoError(t, err)

	st, err = svc.RatingStats(ctx, 1, 7)
	require.NoError(t, err)
	require.NotNil(t, st.UserRating)
	assert.Equal(t, 3, *st.UserRating)

	st, err = svc.RatingStats(ctx, 1, 8)
	require.NoError(t, err)
	assert.Nil(t, st.UserRating)
	assert.Equal(t, int64(1), st.TotalRatings)
}
