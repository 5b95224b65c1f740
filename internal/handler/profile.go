package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/service"
)

// ProfileHandler serves user profiles and avatars.
type ProfileHandler struct {
	Profiles     *service.ProfileService
	MaxUpload    int64
	PublicPrefix string
}

func NewProfileHandler(p *service.ProfileService, maxUpload int64, publicPrefix string) *ProfileHandler {
	return &ProfileHandler{Profiles: p, MaxUpload: maxUpload, PublicPrefix: publicPrefix}
}

// profileReq mirrors service.ProfileInput; absent fields stay untouched.
type profileReq struct {
	Bio         *string  `json:"bio"`
	Location    *string  `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	DateOfBirth *string  `json:"date_of_birth"`
	Phone       *string  `json:"phone"`
}

func (h *ProfileHandler) render(c echo.Context, status int, msg string, p model.Profile) error {
	p.ProfilePic = mediaURL(h.PublicPrefix, p.ProfilePic)
	return ok(c, status, msg, p)
}

// GetUser returns the public profile of any user.
func (h *ProfileHandler) GetUser(c echo.Context) error {
	uid, valid := pathID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "Invalid user ID")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Profiles.GetProfile(ctx, uid, viewerID(c))
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return respondError(c, err, "Failed to load profile")
	}
	return h.render(c, http.StatusOK, "Profile loaded", p)
}

// GetMyProfile returns the current user's profile including contact fields.
func (h *ProfileHandler) GetMyProfile(c echo.Context) error {
	uid := viewerID(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Profiles.GetProfile(ctx, uid, uid)
	if err != nil {
		return respondError(c, err, "Failed to load profile")
	}
	return h.render(c, http.StatusOK, "Profile loaded", p)
}

// UpdateProfile edits the current user's profile.
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Profiles.UpdateProfile(ctx, viewerID(c), service.ProfileInput{
		Bio:         req.Bio,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		DateOfBirth: req.DateOfBirth,
		Phone:       req.Phone,
	})
	if err != nil {
		return respondError(c, err, "Failed to update profile")
	}
	return h.render(c, http.StatusOK, "Profile updated successfully", p)
}

// UploadAvatar replaces the current user's profile picture.
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	data, err := readUpload(c, h.MaxUpload, "avatar", "profile_pic", "file")
	if err != nil {
		return respondUploadError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	ref, err := h.Profiles.UploadAvatar(ctx, viewerID(c), data)
	if err != nil {
		return respondError(c, err, "Failed to upload avatar")
	}
	return ok(c, http.StatusOK, "Profile picture updated", echo.Map{"profile_pic": mediaURL(h.PublicPrefix, ref)})
}

// ResetAvatar restores the default profile picture.
func (h *ProfileHandler) ResetAvatar(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Profiles.ResetAvatar(ctx, viewerID(c)); err != nil {
		return respondError(c, err, "Failed to reset avatar")
	}
	return ok(c, http.StatusOK, "Profile picture reset", echo.Map{"profile_pic": mediaURL(h.PublicPrefix, model.DefaultAvatar)})
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}
