package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/connecthub/internal/mocks"
	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
	"github.com/iliyamo/connecthub/internal/utils"
)

const testSecret = "test-session-secret"

type authFixture struct {
	svc      *AuthService
	users    *mocks.UserStore
	otps     *mocks.OTPStore
	sessions *mocks.SessionStore
	mailer   *mocks.Dispatcher
	throttle *mocks.Throttle
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    &mocks.UserStore{},
		otps:     &mocks.OTPStore{},
		sessions: &mocks.SessionStore{},
		mailer:   &mocks.Dispatcher{},
		throttle: &mocks.Throttle{},
		now:      time.Now().UTC(),
	}
	f.svc = NewAuthService(AuthConfig{
		SessionSecret:   testSecret,
		SessionTTL:      24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
		OTPTTL:          10 * time.Minute,
		OTPResendWindow: time.Minute,
	}, AuthDeps{
		Users:      f.users,
		OTPs:       f.otps,
		Sessions:   f.sessions,
		SessionLog: &mocks.SessionLog{},
		Mailer:     f.mailer,
		Throttle:   f.throttle,
		Activity:   NopPublisher{},
	})
	f.svc.SetClock(func() time.Time { return f.now })
	f.svc.SetCodeSource(func() (string, error) { return "123456", nil })
	return f
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "alice_01",
		Email:           " Alice@Example.com ",
		Phone:           "+1 555 123 4567",
		Password:        "s3cretpass",
		ConfirmPassword: "s3cretpass",
		DateOfBirth:     "1995-04-12",
	}
}

func TestRegister_CreatesUnverifiedUserAndSendsOTP(t *testing.T) {
	f := newAuthFixture(t)
	var created model.User
	f.users.CreateFunc = func(_ context.Context, u model.User) (uint64, error) {
		created = u
		return 42, nil
	}
	var storedCode string
	f.otps.CreateFunc = func(_ context.Context, uid uint64, code string, exp time.Time) (uint64, error) {
		assert.Equal(t, uint64(42), uid)
		assert.Equal(t, f.now.Add(10*time.Minute), exp)
		storedCode = code
		return 1, nil
	}

	res, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.Equal(t, uint64(42), res.UserID)
	assert.Equal(t, "alice@example.com", res.Email)
	assert.True(t, res.EmailSent)
	assert.False(t, created.IsVerified)
	assert.Equal(t, model.DefaultAvatar, created.ProfilePic)
	assert.True(t, utils.VerifyPassword(created.PasswordHash, "s3cretpass"))
	assert.Equal(t, "123456", storedCode)
	require.Len(t, f.mailer.Sent, 1)
	assert.Equal(t, "alice@example.com", f.mailer.Sent[0].To)
	assert.Equal(t, 10, f.mailer.Sent[0].ExpiresMinutes)
}

func TestRegister_MailFailureStillCreatesAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.mailer.DispatchOTPFunc = func(context.Context, model.OTPMail) error { return errors.New("smtp down") }

	res, err := f.svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.False(t, res.EmailSent)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"missing email", func(in *RegisterInput) { in.Email = "" }, "email"},
		{"short username", func(in *RegisterInput) { in.Username = "al" }, "username"},
		{"bad username chars", func(in *RegisterInput) { in.Username = "alice!" }, "username"},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }, "email"},
		{"bad phone", func(in *RegisterInput) { in.Phone = "12ab" }, "phone"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "short", "short" }, "password"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "different1" }, "confirm_password"},
		{"bad date", func(in *RegisterInput) { in.DateOfBirth = "12/04/1995" }, "date_of_birth"},
		{"too young", func(in *RegisterInput) { in.DateOfBirth = time.Now().AddDate(-12, 0, 0).Format("2006-01-02") }, "date_of_birth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			in := validRegistration()
			tt.edit(&in)
			_, err := f.svc.Register(context.Background(), in)
			ve, ok := IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, f.mailer.Sent)
		})
	}
}

func TestRegister_DateOfBirthMessages(t *testing.T) {
	tests := []struct {
		name string
		dob  func(now time.Time) string
		want string
	}{
		{"future", func(now time.Time) string { return now.AddDate(0, 0, 2).Format("2006-01-02") }, "Date of birth cannot be in the future"},
		{"under 13", func(now time.Time) string { return now.AddDate(-12, 0, 0).Format("2006-01-02") }, "You must be at least 13 years old"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			in := validRegistration()
			in.DateOfBirth = tt.dob(f.now)
			_, err := f.svc.Register(context.Background(), in)
			ve, ok := IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, "date_of_birth", ve.Field)
			assert.Equal(t, tt.want, ve.Message)
		})
	}
}

func TestRegister_Conflicts(t *testing.T) {
	t.Run("username pre-check", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.UsernameExistsFunc = func(context.Context, string) (bool, error) { return true, nil }
		_, err := f.svc.Register(context.Background(), validRegistration())
		assert.ErrorIs(t, err, ErrConflict)
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "username", ce.Field)
	})
	t.Run("email lost race on insert", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.CreateFunc = func(context.Context, model.User) (uint64, error) { return 0, repository.ErrEmailTaken }
		_, err := f.svc.Register(context.Background(), validRegistration())
		var ce *ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "email", ce.Field)
	})
}

func TestVerifyOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	err := f.svc.VerifyOTP(ctx, 7, "12ab56")
	_, ok := IsValidation(err)
	assert.True(t, ok)

	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, 7, "000000"), ErrOTPInvalid)

	f.otps.FindUnusedFunc = func(context.Context, uint64, string) (model.OTP, error) {
		return model.OTP{ID: 3, UserID: 7, ExpiresAt: f.now.Add(-time.Second)}, nil
	}
	assert.ErrorIs(t, f.svc.VerifyOTP(ctx, 7, "123456"), ErrOTPExpired)

	consumed := false
	f.otps.FindUnusedFunc = func(context.Context, uint64, string) (model.OTP, error) {
		return model.OTP{ID: 3, UserID: 7, ExpiresAt: f.now.Add(time.Minute)}, nil
	}
	f.otps.ConsumeFunc = func(_ context.Context, otpID, uid uint64) error {
		consumed = otpID == 3 && uid == 7
		return nil
	}
	require.NoError(t, f.svc.VerifyOTP(ctx, 7, "123456"))
	assert.True(t, consumed)
}

func TestResendOTP(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.users.GetByIDFunc = func(_ context.Context, id uint64) (model.User, error) {
		return model.User{ID: id, Username: "bob", Email: "bob@example.com"}, nil
	}
	invalidated := false
	f.otps.InvalidateUnusedFunc = func(context.Context, uint64) error {
		invalidated = true
		return nil
	}

	sent, err := f.svc.ResendOTP(ctx, 9)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.True(t, invalidated)

	f.throttle.AllowFunc = func(_ context.Context, key string, _ time.Duration) (bool, error) {
		assert.Equal(t, "otp:resend:9", key)
		return false, nil
	}
	_, err = f.svc.ResendOTP(ctx, 9)
	assert.ErrorIs(t, err, ErrTooManyRequests)

	f.users.GetByIDFunc = func(_ context.Context, id uint64) (model.User, error) {
		return model.User{ID: id, IsVerified: true}, nil
	}
	_, err = f.svc.ResendOTP(ctx, 9)
	assert.ErrorIs(t, err, ErrAlreadyVerified)
}

func (f *authFixture) withUser(t *testing.T, verified bool) {
	t.Helper()
	hash, err := utils.HashPassword("s3cretpass", bcrypt.MinCost)
	require.NoError(t, err)
	f.users.GetByLoginFunc = func(_ context.Context, ident string) (model.User, error) {
		if ident != "alice" && ident != "alice@example.com" {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{ID: 5, Username: "alice", Email: "alice@example.com", PasswordHash: hash, IsVerified: verified}, nil
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(t, true)
		_, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(t, true)
		var compared []string
		f.svc.verifyPassword = func(hash, plain string) bool {
			compared = append(compared, hash)
			return utils.VerifyPassword(hash, plain)
		}
		_, err := f.svc.Login(ctx, LoginInput{Identifier: "mallory", Password: "s3cretpass"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		require.Len(t, compared, 1, "unknown accounts still pay for a bcrypt comparison")
		cost, err := bcrypt.Cost([]byte(compared[0]))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})
	t.Run("unverified", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(t, false)
		_, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass"})
		var ue *UnverifiedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, uint64(5), ue.UserID)
	})
	t.Run("session round trip", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(t, true)
		res, err := f.svc.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "s3cretpass", IP: "10.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, "alice", res.User.Username)
		assert.WithinDuration(t, f.now.Add(24*time.Hour), res.ExpiresAt, time.Second)

		sess, err := f.svc.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), sess.UserID)
		assert.Equal(t, "10.0.0.1", sess.IPAddress)

		require.NoError(t, f.svc.Logout(ctx, res.Token))
		_, err = f.svc.Authenticate(ctx, res.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
	t.Run("login rotates the previous session", func(t *testing.T) {
		f := newAuthFixture(t)
		f.withUser(t, true)
		first, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass"})
		require.NoError(t, err)
		second, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass", PreviousToken: first.Token})
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, first.Token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = f.svc.Authenticate(ctx, second.Token)
		assert.NoError(t, err)
	})
}

func TestAuthenticate_ExpiredWindowDestroysSession(t *testing.T) {
	f := newAuthFixture(t)
	f.withUser(t, true)
	ctx := context.Background()
	res, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass"})
	require.NoError(t, err)
	require.Len(t, f.sessions.Sessions, 1)

	f.now = f.now.Add(24*time.Hour + time.Minute)
	_, err = f.svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, f.sessions.Sessions)
}

func TestAuthenticate_RejectsForeignToken(t *testing.T) {
	f := newAuthFixture(t)
	tok, err := utils.NewSessionToken("other-secret", 5, "sid", time.Now(), time.Hour)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(context.Background(), tok.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLogoutAll(t *testing.T) {
	f := newAuthFixture(t)
	f.withUser(t, true)
	ctx := context.Background()
	a, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass"})
	require.NoError(t, err)
	b, err := f.svc.Login(ctx, LoginInput{Identifier: "alice", Password: "s3cretpass"})
	require.NoError(t, err)

	n, err := f.svc.LogoutAll(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, tok := range []string{a.Token, b.Token} {
		_, err := f.svc.Authenticate(ctx, tok)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	}
}

func TestCheckUsername(t *testing.T) {
	f := newAuthFixture(t)
	f.users.UsernameExistsFunc = func(_ context.Context, name string) (bool, error) { return name == "taken", nil }

	ok, err := f.svc.CheckUsername(context.Background(), "free_name")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CheckUsername(context.Background(), "taken")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.CheckUsername(context.Background(), "x")
	_, isVal := IsValidation(err)
	assert.True(t, isVal)
}
