package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/connecthub/internal/media"
	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
)

// ProfileService reads and edits user profiles and avatars.
type ProfileService struct {
	users  UserStore
	posts  PostStore
	media  MediaStore
	images ImageProcessor
	now    func() time.Time
}

func NewProfileService(users UserStore, posts PostStore, store MediaStore, images ImageProcessor) *ProfileService {
	return &ProfileService{
		users:  users,
		posts:  posts,
		media:  store,
		images: images,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetProfile returns the profile of userID.  Contact details and the date
// of birth are only included when viewerID is the owner.
func (s *ProfileService) GetProfile(ctx context.Context, userID, viewerID uint64) (model.Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	count, err := s.posts.CountByUser(ctx, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("count posts: %w", err)
	}
	p := model.Profile{
		ID:         u.ID,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
		Bio:        u.Bio,
		Location:   u.Location,
		Latitude:   u.Latitude,
		Longitude:  u.Longitude,
		CreatedAt:  u.CreatedAt,
		PostCount:  count,
		IsOwner:    viewerID != 0 && viewerID == u.ID,
	}
	if p.IsOwner {
		p.Email = u.Email
		p.Phone = u.Phone
		if u.DateOfBirth != nil {
			d := u.DateOfBirth.Format(dateOfBirthLayout)
			p.DateOfBirth = &d
		}
	}
	return p, nil
}

// ProfileInput holds the editable fields.  Nil fields are left unchanged.
type ProfileInput struct {
	Bio         *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	DateOfBirth *string
	Phone       *string
}

func (in ProfileInput) changes(now time.Time) (model.ProfileChanges, error) {
	var ch model.ProfileChanges
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if runeLen(bio) > maxBioRunes {
			return ch, invalid("bio", "Bio too long (max %d characters)", maxBioRunes)
		}
		ch.Bio = &bio
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		if runeLen(loc) > maxLocationRunes {
			return ch, invalid("location", "Location too long (max %d characters)", maxLocationRunes)
		}
		ch.Location = &loc
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return ch, invalid("latitude", "Latitude and longitude must be provided together")
	}
	if in.Latitude != nil {
		if *in.Latitude < -90 || *in.Latitude > 90 {
			return ch, invalid("latitude", "Latitude must be between -90 and 90")
		}
		if *in.Longitude < -180 || *in.Longitude > 180 {
			return ch, invalid("longitude", "Longitude must be between -180 and 180")
		}
		ch.Latitude, ch.Longitude = in.Latitude, in.Longitude
	}
	if in.DateOfBirth != nil {
		dob, err := ParseDateOfBirth(*in.DateOfBirth)
		if err != nil {
			return ch, err
		}
		if err := checkAge(dob, now); err != nil {
			return ch, err
		}
		ch.DateOfBirth = &dob
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		if !ValidPhone(phone) {
			return ch, invalid("phone", "Invalid phone number format")
		}
		ch.Phone = &phone
	}
	return ch, nil
}

// UpdateProfile validates and applies profile edits and returns the owner's
// view of the result.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint64, in ProfileInput) (model.Profile, error) {
	ch, err := in.changes(s.now())
	if err != nil {
		return model.Profile{}, err
	}
	if err := s.users.UpdateProfile(ctx, userID, ch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("update profile: %w", err)
	}
	return s.GetProfile(ctx, userID, userID)
}

// UploadAvatar normalizes an image into the avatar box, stores it as
// user_{id}_{ts}.jpg and retires the previous custom avatar.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint64, data []byte) (string, error) {
	if s.media == nil || s.images == nil {
		return "", errors.New("media uploads are not configured")
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load user %d: %w", userID, err)
	}
	out, err := s.images.Process(data, media.Avatar.MaxWidth, media.Avatar.MaxHeight)
	if err != nil {
		return "", imageError(err)
	}
	ref, err := s.media.Save(ctx, fmt.Sprintf("user_%d_%d.jpg", userID, s.now().UnixMilli()), out)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	if err := s.users.SetProfilePic(ctx, userID, ref); err != nil {
		// do not leave an orphan behind
		_ = s.media.Delete(ctx, ref)
		return "", fmt.Errorf("set profile pic: %w", err)
	}
	s.dropAvatar(ctx, u.ProfilePic)
	return ref, nil
}

// ResetAvatar restores the default avatar.
func (s *ProfileService) ResetAvatar(ctx context.Context, userID uint64) error {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load user %d: %w", userID, err)
	}
	if u.ProfilePic == model.DefaultAvatar {
		return nil
	}
	if err := s.users.SetProfilePic(ctx, userID, model.DefaultAvatar); err != nil {
		return fmt.Errorf("set profile pic: %w", err)
	}
	s.dropAvatar(ctx, u.ProfilePic)
	return nil
}

func (s *ProfileService) dropAvatar(ctx context.Context, ref string) {
	if ref == "" || ref == model.DefaultAvatar || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, ref); err != nil {
		log.Printf("profile: remove old avatar %q: %v", ref, err)
	}
}
