package mocks

import (
	"context"
	"sync"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

// PostStore implements service.PostStore.
type PostStore struct {
	CreateFunc      func(ctx context.Context, np model.NewPost) (uint64, error)
	GetByIDFunc     func(ctx context.Context, id, viewerID uint64) (model.Post, error)
	ExistsFunc      func(ctx context.Context, id uint64) (bool, error)
	ListFunc        func(ctx context.Context, limit, offset int, viewerID uint64) ([]model.Post, error)
	ListByUserFunc  func(ctx context.Context, userID uint64, limit, offset int, viewerID uint64) ([]model.Post, error)
	CountFunc       func(ctx context.Context) (int64, error)
	CountByUserFunc func(ctx context.Context, userID uint64) (int64, error)
	DeleteOwnedFunc func(ctx context.Context, postID, userID uint64) (bool, error)
}

func (m *PostStore) Create(ctx context.Context, np model.NewPost) (uint64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, np)
	}
	return 1, nil
}

func (m *PostStore) GetByID(ctx context.Context, id, viewerID uint64) (model.Post, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id, viewerID)
	}
	return model.Post{}, repository.ErrNotFound
}

// Exists defaults to true.
func (m *PostStore) Exists(ctx context.Context, id uint64) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, id)
	}
	return true, nil
}

func (m *PostStore) List(ctx context.Context, limit, offset int, viewerID uint64) ([]model.Post, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset, viewerID)
	}
	return nil, nil
}

func (m *PostStore) ListByUser(ctx context.Context, userID uint64, limit, offset int, viewerID uint64) ([]model.Post, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset, viewerID)
	}
	return nil, nil
}

func (m *PostStore) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *PostStore) CountByUser(ctx context.Context, userID uint64) (int64, error) {
	if m.CountByUserFunc != nil {
		return m.CountByUserFunc(ctx, userID)
	}
	return 0, nil
}

func (m *PostStore) DeleteOwned(ctx context.Context, postID, userID uint64) (bool, error) {
	if m.DeleteOwnedFunc != nil {
		return m.DeleteOwnedFunc(ctx, postID, userID)
	}
	return true, nil
}

// CommentStore implements service.CommentStore.
type CommentStore struct {
	CreateFunc      func(ctx context.Context, postID, userID uint64, content string) (uint64, error)
	GetByIDFunc     func(ctx context.Context, id uint64) (model.Comment, error)
	ListByPostFunc  func(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, error)
	CountByPostFunc func(ctx context.Context, postID uint64) (int64, error)
}

func (m *CommentStore) Create(ctx context.Context, postID, userID uint64, content string) (uint64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, postID, userID, content)
	}
	return 1, nil
}

func (m *CommentStore) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return model.Comment{}, repository.ErrNotFound
}

func (m *CommentStore) ListByPost(ctx context.Context, postID uint64, limit, offset int) ([]model.Comment, error) {
	if m.ListByPostFunc != nil {
		return m.ListByPostFunc(ctx, postID, limit, offset)
	}
	return nil, nil
}

func (m *CommentStore) CountByPost(ctx context.Context, postID uint64) (int64, error) {
	if m.CountByPostFunc != nil {
		return m.CountByPostFunc(ctx, postID)
	}
	return 0, nil
}

// MediaStore implements service.MediaStore and remembers saved and
// deleted refs.
type MediaStore struct {
	SaveFunc   func(ctx context.Context, name string, data []byte) (string, error)
	DeleteFunc func(ctx context.Context, ref string) error

	mu      sync.Mutex
	Saved   []string
	Deleted []string
}

func (m *MediaStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, name, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = append(m.Saved, name)
	return name, nil
}

func (m *MediaStore) Delete(ctx context.Context, ref string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, ref)
	return nil
}

// ImageProcessor implements service.ImageProcessor.  By default it returns
// the input unchanged.
type ImageProcessor struct {
	ProcessFunc func(data []byte, maxWidth, maxHeight int) ([]byte, error)
}

func (m *ImageProcessor) Process(data []byte, maxWidth, maxHeight int) ([]byte, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(data, maxWidth, maxHeight)
	}
	return data, nil
}

// Publisher implements service.ActivityPublisher and records events.
type Publisher struct {
	mu     sync.Mutex
	Events []model.ActivityEvent
}

func (m *Publisher) Publish(_ context.Context, ev model.ActivityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// Types returns the recorded event types in order.
func (m *Publisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Events))
	for i, ev := range m.Events {
		out[i] = ev.Type
	}
	return out
}
