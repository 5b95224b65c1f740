package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/connecthub/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `user_id, username, email, phone, password_hash, date_of_birth, is_verified,
	profile_pic, bio, location, latitude, longitude, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u               model.User
		phone, bio, loc sql.NullString
		dob             sql.NullTime
		lat, lon        sql.NullFloat64
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &phone, &u.PasswordHash, &dob, &u.IsVerified,
		&u.ProfilePic, &bio, &loc, &lat, &lon, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, ErrNotFound
		}
		return u, err
	}
	u.Phone = nullString(phone)
	u.Bio = nullString(bio)
	u.Location = nullString(loc)
	u.Latitude = nullFloat(lat)
	u.Longitude = nullFloat(lon)
	if dob.Valid {
		t := dob.Time
		u.DateOfBirth = &t
	}
	return u, nil
}

// Create inserts an unverified user and returns its ID.  Unique index
// violations come back as ErrUsernameTaken or ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, phone, password_hash, date_of_birth, is_verified, profile_pic)
		 VALUES (?,?,?,?,?,0,?)`,
		u.Username, strings.ToLower(strings.TrimSpace(u.Email)), u.Phone, u.PasswordHash, u.DateOfBirth, model.DefaultAvatar)
	if err != nil {
		if isDuplicate(err) {
			if strings.Contains(duplicateKeyName(err), "email") {
				return 0, ErrEmailTaken
			}
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// UsernameExists reports whether the username is already registered.
func (r *UserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE username=? LIMIT 1", username)
}

// EmailExists reports whether the (normalized) email is already registered.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT 1 FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id=? LIMIT 1", id)
	return scanUser(row)
}

// GetByLogin fetches a user by username or email, whichever matches.
func (r *UserRepo) GetByLogin(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? OR email=? LIMIT 1",
		identifier, strings.ToLower(identifier))
	return scanUser(row)
}

// UpdateProfile writes the non-nil fields of ch.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, ch model.ProfileChanges) error {
	sets := []string{}
	args := []any{}
	if ch.Bio != nil {
		sets = append(sets, "bio=?")
		args = append(args, *ch.Bio)
	}
	if ch.Location != nil {
		sets = append(sets, "location=?")
		args = append(args, *ch.Location)
	}
	if ch.Latitude != nil && ch.Longitude != nil {
		sets = append(sets, "latitude=?", "longitude=?")
		args = append(args, *ch.Latitude, *ch.Longitude)
	}
	if ch.DateOfBirth != nil {
		sets = append(sets, "date_of_birth=?")
		args = append(args, ch.DateOfBirth.Format(time.DateOnly))
	}
	if ch.Phone != nil {
		sets = append(sets, "phone=?")
		args = append(args, *ch.Phone)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE user_id=?", args...); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetProfilePic replaces the avatar reference.
func (r *UserRepo) SetProfilePic(ctx context.Context, id uint64, pic string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE users SET profile_pic=? WHERE user_id=?", pic, id); err != nil {
		return fmt.Errorf("set profile pic: %w", err)
	}
	return nil
}

// ListLatest returns the most recently registered users.
func (r *UserRepo) ListLatest(ctx context.Context, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, user_id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// requireAffected turns a zero-row statement into ErrNotFound.  MySQL counts
// changed rows, not matched rows, so it is only used for DELETE and for
// updates that always change the row.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
