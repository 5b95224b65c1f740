// Package mocks provides hand-written test doubles for the service
// interfaces.  Every method delegates to its Func field when set and
// otherwise falls back to a neutral default.
package mocks

import (
	"context"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

// UserStore implements service.UserStore.
type UserStore struct {
	CreateFunc         func(ctx context.Context, u model.User) (uint64, error)
	UsernameExistsFunc func(ctx context.Context, username string) (bool, error)
	EmailExistsFunc    func(ctx context.Context, email string) (bool, error)
	GetByIDFunc        func(ctx context.Context, id uint64) (model.User, error)
	GetByLoginFunc     func(ctx context.Context, identifier string) (model.User, error)
	UpdateProfileFunc  func(ctx context.Context, id uint64, ch model.ProfileChanges) error
	SetProfilePicFunc  func(ctx context.Context, id uint64, pic string) error
	ListLatestFunc     func(ctx context.Context, limit int) ([]model.User, error)
}

func (m *UserStore) Create(ctx context.Context, u model.User) (uint64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	return 1, nil
}

func (m *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.UsernameExistsFunc != nil {
		return m.UsernameExistsFunc(ctx, username)
	}
	return false, nil
}

func (m *UserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	return false, nil
}

// GetByID defaults to not found.
func (m *UserStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return model.User{}, repository.ErrNotFound
}

// GetByLogin defaults to not found.
func (m *UserStore) GetByLogin(ctx context.Context, identifier string) (model.User, error) {
	if m.GetByLoginFunc != nil {
		return m.GetByLoginFunc(ctx, identifier)
	}
	return model.User{}, repository.ErrNotFound
}

func (m *UserStore) UpdateProfile(ctx context.Context, id uint64, ch model.ProfileChanges) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, ch)
	}
	return nil
}

func (m *UserStore) SetProfilePic(ctx context.Context, id uint64, pic string) error {
	if m.SetProfilePicFunc != nil {
		return m.SetProfilePicFunc(ctx, id, pic)
	}
	return nil
}

func (m *UserStore) ListLatest(ctx context.Context, limit int) ([]model.User, error) {
	if m.ListLatestFunc != nil {
		return m.ListLatestFunc(ctx, limit)
	}
	return nil, nil
}
