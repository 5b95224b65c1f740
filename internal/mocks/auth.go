package mocks

import (
	"context"
	"time"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
	"github.com/iliyamo/connecthub/internal/session"
)

// OTPStore implements service.OTPStore.
type OTPStore struct {
	CreateFunc           func(ctx context.Context, userID uint64, code string, expiresAt time.Time) (uint64, error)
	FindUnusedFunc       func(ctx context.Context, userID uint64, code string) (model.OTP, error)
	ConsumeFunc          func(ctx context.Context, otpID, userID uint64) error
	InvalidateUnusedFunc func(ctx context.Context, userID uint64) error
}

func (m *OTPStore) Create(ctx context.Context, userID uint64, code string, expiresAt time.Time) (uint64, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, code, expiresAt)
	}
	return 1, nil
}

func (m *OTPStore) FindUnused(ctx context.Context, userID uint64, code string) (model.OTP, error) {
	if m.FindUnusedFunc != nil {
		return m.FindUnusedFunc(ctx, userID, code)
	}
	return model.OTP{}, repository.ErrNotFound
}

func (m *OTPStore) Consume(ctx context.Context, otpID, userID uint64) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, otpID, userID)
	}
	return nil
}

func (m *OTPStore) InvalidateUnused(ctx context.Context, userID uint64) error {
	if m.InvalidateUnusedFunc != nil {
		return m.InvalidateUnusedFunc(ctx, userID)
	}
	return nil
}

// SessionStore implements service.SessionStore.  Without Func fields it
// keeps sessions in a map.
type SessionStore struct {
	SaveFunc             func(ctx context.Context, s model.Session) error
	GetFunc              func(ctx context.Context, id string) (model.Session, error)
	DeleteFunc           func(ctx context.Context, id string) error
	DeleteAllForUserFunc func(ctx context.Context, userID uint64) (int, error)

	Sessions map[string]model.Session
}

func (m *SessionStore) Save(ctx context.Context, s model.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, s)
	}
	if m.Sessions == nil {
		m.Sessions = map[string]model.Session{}
	}
	m.Sessions[s.ID] = s
	return nil
}

func (m *SessionStore) Get(ctx context.Context, id string) (model.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	s, ok := m.Sessions[id]
	if !ok {
		return model.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (m *SessionStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	delete(m.Sessions, id)
	return nil
}

func (m *SessionStore) DeleteAllForUser(ctx context.Context, userID uint64) (int, error) {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	n := 0
	for id, s := range m.Sessions {
		if s.UserID == userID {
			delete(m.Sessions, id)
			n++
		}
	}
	return n, nil
}

// SessionLog implements service.SessionLog.
type SessionLog struct {
	CreateFunc           func(ctx context.Context, s model.SessionRecord) error
	DeleteByIDFunc       func(ctx context.Context, id string) error
	DeleteAllForUserFunc func(ctx context.Context, userID uint64) error
	DeleteExpiredFunc    func(ctx context.Context) (int64, error)
}

func (m *SessionLog) Create(ctx context.Context, s model.SessionRecord) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil
}

func (m *SessionLog) DeleteByID(ctx context.Context, id string) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(ctx, id)
	}
	return nil
}

func (m *SessionLog) DeleteAllForUser(ctx context.Context, userID uint64) error {
	if m.DeleteAllForUserFunc != nil {
		return m.DeleteAllForUserFunc(ctx, userID)
	}
	return nil
}

func (m *SessionLog) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return 0, nil
}

// Dispatcher implements service.OTPDispatcher and records what it sent.
type Dispatcher struct {
	DispatchOTPFunc func(ctx context.Context, m model.OTPMail) error
	Sent            []model.OTPMail
}

func (m *Dispatcher) DispatchOTP(ctx context.Context, msg model.OTPMail) error {
	if m.DispatchOTPFunc != nil {
		if err := m.DispatchOTPFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Throttle implements service.Throttle.  It allows everything by default.
type Throttle struct {
	AllowFunc func(ctx context.Context, key string, window time.Duration) (bool, error)
}

func (m *Throttle) Allow(ctx context.Context, key string, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, window)
	}
	return true, nil
}
