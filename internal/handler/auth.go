package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/connecthub/internal/middleware"
	"github.com/iliyamo/connecthub/internal/service"
)

// CookieSettings describes the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Cookie   CookieSettings
}

func NewAuthHandler(auth *service.AuthService, profiles *service.ProfileService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{Auth: auth, Profiles: profiles, Cookie: cookie}
}

// ----- DTOs -----

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	DOB             string `json:"dob"`
	DateOfBirth     string `json:"date_of_birth"`
}

type verifyReq struct {
	UserID  uint64 `json:"user_id"`
	OTPCode string `json:"otp_code"`
}

type resendReq struct {
	UserID uint64 `json:"user_id"`
}

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an unverified account and sends its OTP.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	dob := req.DateOfBirth
	if dob == "" {
		dob = req.DOB
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Register(ctx, service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DateOfBirth:     dob,
	})
	if err != nil {
		return respondError(c, err, "Failed to create account")
	}
	return ok(c, http.StatusCreated, "Account created successfully! Please check your email for verification code.", res)
}

// VerifyOTP completes the email verification.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.VerifyOTP(ctx, req.UserID, req.OTPCode); err != nil {
		return respondError(c, err, "Verification failed")
	}
	return ok(c, http.StatusOK, "Email verified successfully! You can now log in.", echo.Map{"verified": true})
}

// ResendOTP issues a fresh code to an unverified account.
func (h *AuthHandler) ResendOTP(c echo.Context) error {
	var req resendReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sent, err := h.Auth.ResendOTP(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Account not found")
		}
		return respondError(c, err, "Failed to resend code")
	}
	return ok(c, http.StatusOK, "A new verification code has been sent", echo.Map{"email_sent": sent})
}

// CheckUsername reports whether a username is free.
func (h *AuthHandler) CheckUsername(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	available, err := h.Auth.CheckUsername(ctx, c.QueryParam("username"))
	if err != nil {
		return respondError(c, err, "Failed to check username")
	}
	if !available {
		return failData(c, http.StatusOK, "Username already taken", echo.Map{"available": false})
	}
	return ok(c, http.StatusOK, "Username is available", echo.Map{"available": true})
}

// Login opens a session, returns its token and sets the session cookie.
// A token presented with the request is retired first.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	ident := strings.TrimSpace(req.Username)
	if ident == "" {
		ident = strings.TrimSpace(req.Email)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	res, err := h.Auth.Login(ctx, service.LoginInput{
		Identifier:    ident,
		Password:      req.Password,
		PreviousToken: middleware.TokenFromRequest(c, h.Cookie.Name),
		IP:            c.RealIP(),
		UserAgent:     c.Request().UserAgent(),
	})
	if err != nil {
		return respondError(c, err, "Login failed")
	}
	h.setCookie(c, res.Token, res.ExpiresAt)
	return ok(c, http.StatusOK, "Login successful!", res)
}

// Logout destroys the presented session.  It succeeds without one.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Auth.Logout(ctx, middleware.TokenFromRequest(c, h.Cookie.Name)); err != nil {
		return respondError(c, err, "Logout failed")
	}
	h.clearCookie(c)
	return ok(c, http.StatusOK, "Logged out successfully", nil)
}

// LogoutAll destroys every session of the current user.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	uid := viewerID(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	n, err := h.Auth.LogoutAll(ctx, uid)
	if err != nil {
		return respondError(c, err, "Logout failed")
	}
	h.clearCookie(c)
	return ok(c, http.StatusOK, "Logged out from all devices", echo.Map{"sessions_closed": n})
}

// Me returns the profile of the current user.
func (h *AuthHandler) Me(c echo.Context) error {
	uid := viewerID(c)
	ctx, cancel := requestCtx(c)
	defer cancel()

	p, err := h.Profiles.GetProfile(ctx, uid, uid)
	if err != nil {
		return respondError(c, err, "Failed to load profile")
	}
	return ok(c, http.StatusOK, "Current user", p)
}

func (h *AuthHandler) setCookie(c echo.Context, token string, exp time.Time) {
	if h.Cookie.Name == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	if h.Cookie.Name == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     h.Cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
