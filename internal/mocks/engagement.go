package mocks

import (
	"context"
	"sync"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

type slot struct{ post, user uint64 }

// LikeStore is an in-memory service.LikeStore.  It enforces the one slot
// per (post, user) rule the unique index provides in MySQL.
type LikeStore struct {
	mu    sync.Mutex
	likes map[slot]model.LikeType

	// InsertHook runs before Insert checks the slot; tests use it to
	// simulate a concurrent writer.
	InsertHook func(postID, userID uint64)
	// Posts limits which posts exist; nil means all do.
	Posts map[uint64]bool
}

func NewLikeStore() *LikeStore {
	return &LikeStore{likes: map[slot]model.LikeType{}}
}

// Set writes a slot directly.
func (m *LikeStore) Set(postID, userID uint64, t model.LikeType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.likes[slot{postID, userID}] = t
}

func (m *LikeStore) Get(_ context.Context, postID, userID uint64) (model.LikeType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.likes[slot{postID, userID}]
	if !ok {
		return "", repository.ErrNotFound
	}
	return t, nil
}

func (m *LikeStore) Insert(_ context.Context, postID, userID uint64, t model.LikeType) error {
	if m.InsertHook != nil {
		m.InsertHook(postID, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Posts != nil && !m.Posts[postID] {
		return repository.ErrNotFound
	}
	k := slot{postID, userID}
	if _, ok := m.likes[k]; ok {
		return repository.ErrDuplicate
	}
	m.likes[k] = t
	return nil
}

func (m *LikeStore) Update(_ context.Context, postID, userID uint64, t model.LikeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slot{postID, userID}
	if _, ok := m.likes[k]; !ok {
		return repository.ErrNotFound
	}
	m.likes[k] = t
	return nil
}

func (m *LikeStore) Delete(_ context.Context, postID, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slot{postID, userID}
	if _, ok := m.likes[k]; !ok {
		return repository.ErrNotFound
	}
	delete(m.likes, k)
	return nil
}

func (m *LikeStore) Counts(_ context.Context, postID uint64) (model.LikeCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var c model.LikeCounts
	for k, t := range m.likes {
		if k.post != postID {
			continue
		}
		if t == model.Like {
			c.LikeCount++
		} else {
			c.DislikeCount++
		}
	}
	return c, nil
}

// RatingStore is an in-memory service.RatingStore.  Stats returns the
// unrounded average like the MySQL store does.
type RatingStore struct {
	mu      sync.Mutex
	ratings map[slot]int
}

func NewRatingStore() *RatingStore {
	return &RatingStore{ratings: map[slot]int{}}
}

// Upsert reports true when the rating was inserted.
func (m *RatingStore) Upsert(_ context.Context, postID, userID uint64, value int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := slot{postID, userID}
	_, existed := m.ratings[k]
	m.ratings[k] = value
	return !existed, nil
}

func (m *RatingStore) Stats(_ context.Context, postID uint64) (float64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum, n int64
	for k, v := range m.ratings {
		if k.post == postID {
			sum += int64(v)
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

func (m *RatingStore) UserRating(_ context.Context, postID, userID uint64) (*int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.ratings[slot{postID, userID}]
	if !ok {
		return nil, nil
	}
	return &v, nil
}
