package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
	"github.com/iliyamo/connecthub/internal/session"
	"github.com/iliyamo/connecthub/internal/utils"
)

const otpLength = 6

var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// AuthConfig carries the identity settings taken from config.Config.
type AuthConfig struct {
	SessionSecret     string
	SessionTTL        time.Duration
	BcryptCost        int
	PasswordMinLength int
	OTPTTL            time.Duration
	OTPResendWindow   time.Duration
}

// AuthDeps groups the stores and collaborators of AuthService.
type AuthDeps struct {
	Users      UserStore
	OTPs       OTPStore
	Sessions   SessionStore
	SessionLog SessionLog
	Mailer     OTPDispatcher
	Throttle   Throttle
	Activity   ActivityPublisher
}

// AuthService implements registration, OTP verification and the session
// lifecycle.
type AuthService struct {
	cfg AuthConfig
	AuthDeps

	now     func() time.Time
	newID   func() string
	newCode func() (string, error)

	// dummyHash is compared against on unknown logins so that a missing
	// account costs the same bcrypt work as a wrong password.
	dummyHash      string
	verifyPassword func(hash, plain string) bool
}

// NewAuthService wires an AuthService.  Zero config values fall back to the
// documented defaults.
func NewAuthService(cfg AuthConfig, deps AuthDeps) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.PasswordMinLength <= 0 {
		cfg.PasswordMinLength = 8
	}
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	dummy, err := utils.HashPassword(uuid.NewString(), cfg.BcryptCost)
	if err != nil {
		log.Printf("auth: dummy hash: %v", err)
	}
	return &AuthService{
		cfg:            cfg,
		AuthDeps:       deps,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return uuid.NewString() },
		newCode:        func() (string, error) { return utils.RandomDigits(otpLength) },
		dummyHash:      dummy,
		verifyPassword: utils.VerifyPassword,
	}
}

// SetClock replaces the time source.  Tests use it to step over windows.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

// SetCodeSource replaces the OTP generator.
func (s *AuthService) SetCodeSource(gen func() (string, error)) { s.newCode = gen }

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	DateOfBirth     string
}

// RegisterResult identifies the pending (unverified) account.
type RegisterResult struct {
	UserID    uint64 `json:"user_id"`
	Email     string `json:"email"`
	EmailSent bool   `json:"email_sent"`
}

func (in RegisterInput) validate(minPassword int, now time.Time) (time.Time, error) {
	required := []struct{ field, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
		{"phone", in.Phone},
		{"date_of_birth", in.DateOfBirth},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return time.Time{}, invalid(r.field, "Field '%s' is required", r.field)
		}
	}
	if !ValidUsername(in.Username) {
		return time.Time{}, invalid("username", "Username must be 3-20 characters (letters, numbers, underscore only)")
	}
	if !ValidEmail(in.Email) {
		return time.Time{}, invalid("email", "Invalid email format")
	}
	if !ValidPhone(in.Phone) {
		return time.Time{}, invalid("phone", "Invalid phone number format")
	}
	if len(in.Password) < minPassword {
		return time.Time{}, invalid("password", "Password must be at least %d characters", minPassword)
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return time.Time{}, invalid("confirm_password", "Passwords do not match")
	}
	dob, err := ParseDateOfBirth(in.DateOfBirth)
	if err != nil {
		return time.Time{}, err
	}
	if err := checkAge(dob, now); err != nil {
		return time.Time{}, err
	}
	return dob, nil
}

// Register validates the form, creates an unverified account and sends its
// first OTP.  A failed mail dispatch is logged, not returned: the user can
// ask for a resend.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	dob, err := in.validate(s.cfg.PasswordMinLength, s.now())
	if err != nil {
		return RegisterResult{}, err
	}

	// Fast path for a friendly message; the unique indexes decide.
	if taken, err := s.Users.UsernameExists(ctx, in.Username); err != nil {
		return RegisterResult{}, fmt.Errorf("check username: %w", err)
	} else if taken {
		return RegisterResult{}, &ConflictError{Field: "username", Message: "Username already taken"}
	}
	if taken, err := s.Users.EmailExists(ctx, in.Email); err != nil {
		return RegisterResult{}, fmt.Errorf("check email: %w", err)
	} else if taken {
		return RegisterResult{}, &ConflictError{Field: "email", Message: "Email already registered"}
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return RegisterResult{}, invalid("password", "Password must be at most 72 bytes")
	}
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}

	phone := in.Phone
	uid, err := s.Users.Create(ctx, model.User{
		Username:     in.Username,
		Email:        in.Email,
		Phone:        &phone,
		PasswordHash: hash,
		DateOfBirth:  &dob,
		ProfilePic:   model.DefaultAvatar,
	})
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return RegisterResult{}, &ConflictError{Field: "username", Message: "Username already taken"}
	case errors.Is(err, repository.ErrEmailTaken):
		return RegisterResult{}, &ConflictError{Field: "email", Message: "Email already registered"}
	case errors.Is(err, repository.ErrDuplicate):
		return RegisterResult{}, &ConflictError{Message: "Account already exists"}
	case err != nil:
		return RegisterResult{}, fmt.Errorf("create user: %w", err)
	}

	sent, err := s.issueOTP(ctx, uid, in.Email, in.Username)
	if err != nil {
		return RegisterResult{}, err
	}
	emit(s.Activity, model.ActivityEvent{Type: model.EventUserRegistered, UserID: uid})
	return RegisterResult{UserID: uid, Email: in.Email, EmailSent: sent}, nil
}

// issueOTP stores a fresh code and hands it to the mailer.  The bool reports
// whether the hand-off succeeded.
func (s *AuthService) issueOTP(ctx context.Context, uid uint64, email, name string) (bool, error) {
	code, err := s.newCode()
	if err != nil {
		return false, fmt.Errorf("generate otp: %w", err)
	}
	now := s.now()
	if _, err := s.OTPs.Create(ctx, uid, code, now.Add(s.cfg.OTPTTL)); err != nil {
		return false, fmt.Errorf("store otp: %w", err)
	}
	if s.Mailer == nil {
		return false, nil
	}
	err = s.Mailer.DispatchOTP(ctx, model.OTPMail{
		To:             email,
		Name:           name,
		Code:           code,
		ExpiresMinutes: int(s.cfg.OTPTTL / time.Minute),
		RequestedAt:    now,
	})
	if err != nil {
		log.Printf("auth: otp dispatch for user %d failed: %v", uid, err)
		return false, nil
	}
	return true, nil
}

// VerifyOTP consumes a code and marks its owner verified.
func (s *AuthService) VerifyOTP(ctx context.Context, userID uint64, code string) error {
	code = strings.TrimSpace(code)
	if userID == 0 || code == "" {
		return invalid("otp_code", "User ID and OTP code are required")
	}
	if !otpPattern.MatchString(code) {
		return invalid("otp_code", "OTP code must be %d digits", otpLength)
	}
	otp, err := s.OTPs.FindUnused(ctx, userID, code)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("find otp: %w", err)
	}
	if !s.now().Before(otp.ExpiresAt) {
		return ErrOTPExpired
	}
	if err := s.OTPs.Consume(ctx, otp.ID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPInvalid
		}
		return fmt.Errorf("consume otp: %w", err)
	}
	return nil
}

// ResendOTP retires outstanding codes and sends a new one.  Requests are
// limited to one per OTPResendWindow per account.
func (s *AuthService) ResendOTP(ctx context.Context, userID uint64) (bool, error) {
	if userID == 0 {
		return false, invalid("user_id", "User ID is required")
	}
	u, err := s.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if u.IsVerified {
		return false, ErrAlreadyVerified
	}
	if s.Throttle != nil {
		ok, err := s.Throttle.Allow(ctx, fmt.Sprintf("otp:resend:%d", userID), s.cfg.OTPResendWindow)
		if err != nil {
			log.Printf("auth: resend throttle unavailable: %v", err)
		} else if !ok {
			return false, ErrTooManyRequests
		}
	}
	if err := s.OTPs.InvalidateUnused(ctx, userID); err != nil {
		return false, fmt.Errorf("invalidate otps: %w", err)
	}
	return s.issueOTP(ctx, u.ID, u.Email, u.Username)
}

// CheckUsername reports whether a well-formed username is still free.
func (s *AuthService) CheckUsername(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, invalid("username", "Username is required")
	}
	if !ValidUsername(username) {
		return false, invalid("username", "Invalid username format")
	}
	taken, err := s.Users.UsernameExists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

// LoginInput is the login form plus request metadata.
type LoginInput struct {
	Identifier    string // username or email
	Password      string
	PreviousToken string // token presented with the request, rotated out
	IP            string
	UserAgent     string
}

// LoginResult carries the new session token.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      model.PublicUser `json:"user"`
}

// Login checks credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	ident := strings.TrimSpace(in.Identifier)
	if ident == "" || in.Password == "" {
		return LoginResult{}, invalid("username", "Username and password are required")
	}
	u, err := s.Users.GetByLogin(ctx, ident)
	if errors.Is(err, repository.ErrNotFound) {
		s.verifyPassword(s.dummyHash, in.Password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("load user: %w", err)
	}
	if !s.verifyPassword(u.PasswordHash, in.Password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return LoginResult{}, &UnverifiedError{UserID: u.ID}
	}

	if in.PreviousToken != "" {
		if err := s.Logout(ctx, in.PreviousToken); err != nil {
			log.Printf("auth: rotate previous session: %v", err)
		}
	}

	now := s.now()
	sid := s.newID()
	tok, err := utils.NewSessionToken(s.cfg.SessionSecret, u.ID, sid, now, s.cfg.SessionTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign session: %w", err)
	}
	sess := model.Session{
		ID:        sid,
		UserID:    u.ID,
		Username:  u.Username,
		TokenHash: utils.HashToken(tok.Token),
		IPAddress: in.IP,
		UserAgent: in.UserAgent,
		IssuedAt:  now,
		ExpiresAt: tok.Exp,
	}
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return LoginResult{}, fmt.Errorf("save session: %w", err)
	}
	if s.SessionLog != nil {
		err := s.SessionLog.Create(ctx, model.SessionRecord{
			ID:        sid,
			UserID:    u.ID,
			TokenHash: sess.TokenHash,
			IPAddress: in.IP,
			UserAgent: in.UserAgent,
			ExpiresAt: tok.Exp,
		})
		if err != nil {
			log.Printf("auth: session log insert failed: %v", err)
		}
	}
	return LoginResult{Token: tok.Token, ExpiresAt: tok.Exp, User: u.Public()}, nil
}

// Logout destroys the session behind token.  Missing, malformed or expired
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := utils.ParseSessionTokenAllowExpired(s.cfg.SessionSecret, token)
	if err != nil {
		return nil
	}
	return s.destroy(ctx, claims.SessionID)
}

// LogoutAll destroys every session of userID and returns how many were live.
func (s *AuthService) LogoutAll(ctx context.Context, userID uint64) (int, error) {
	n, err := s.Sessions.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if s.SessionLog != nil {
		if err := s.SessionLog.DeleteAllForUser(ctx, userID); err != nil {
			log.Printf("auth: session log cleanup for user %d failed: %v", userID, err)
		}
	}
	return n, nil
}

func (s *AuthService) destroy(ctx context.Context, sid string) error {
	if err := s.Sessions.Delete(ctx, sid); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if s.SessionLog != nil {
		if err := s.SessionLog.DeleteByID(ctx, sid); err != nil {
			log.Printf("auth: session log delete failed: %v", err)
		}
	}
	return nil
}

// Authenticate resolves a token to its live session.  A session older than
// SessionTTL is destroyed on the spot.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.Session, error) {
	if token == "" {
		return model.Session{}, ErrSessionNotFound
	}
	claims, err := utils.ParseSessionToken(s.cfg.SessionSecret, token)
	if err != nil {
		// A well-signed but expired token still names a session to retire.
		if old, perr := utils.ParseSessionTokenAllowExpired(s.cfg.SessionSecret, token); perr == nil {
			_ = s.destroy(ctx, old.SessionID)
			return model.Session{}, ErrSessionExpired
		}
		return model.Session{}, ErrSessionNotFound
	}
	sess, err := s.Sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID || sess.TokenHash != utils.HashToken(token) {
		return model.Session{}, ErrSessionNotFound
	}
	if sess.Expired(s.now(), s.cfg.SessionTTL) {
		_ = s.destroy(ctx, sess.ID)
		return model.Session{}, ErrSessionExpired
	}
	return sess, nil
}

// PurgeSessionLog removes expired rows from the informational session table.
func (s *AuthService) PurgeSessionLog(ctx context.Context) (int64, error) {
	if s.SessionLog == nil {
		return 0, nil
	}
	return s.SessionLog.DeleteExpired(ctx)
}
