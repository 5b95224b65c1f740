package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/connecthub/internal/middleware"
	"github.com/iliyamo/connecthub/internal/mocks"
	"github.com/iliyamo/connecthub/internal/model"
	"github.com/iliyamo/connecthub/internal/repository"
	"github.com/iliyamo/connecthub/internal/service"
	"github.com/iliyamo/connecthub/internal/utils"
)

type resp struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) resp {
	t.Helper()
	var r resp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	return r
}

// call runs h against a request.  A non-zero uid is installed the way the
// session middleware would.
func call(h echo.HandlerFunc, method, target, body string, uid uint64, params ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names, values := []string{}, []string{}
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if uid != 0 {
		c.Set(middleware.CtxUserID, uid)
	}
	_ = h(c)
	return rec
}

func newAuthHandler(t *testing.T, users *mocks.UserStore) *AuthHandler {
	t.Helper()
	auth := service.NewAuthService(service.AuthConfig{
		SessionSecret: "secret",
		SessionTTL:    time.Hour,
		BcryptCost:    bcrypt.MinCost,
	}, service.AuthDeps{
		Users:    users,
		OTPs:     &mocks.OTPStore{},
		Sessions: &mocks.SessionStore{},
		Mailer:   &mocks.Dispatcher{},
		Activity: service.NopPublisher{},
	})
	profiles := service.NewProfileService(users, &mocks.PostStore{}, nil, nil)
	return NewAuthHandler(auth, profiles, CookieSettings{Name: "connecthub_session"})
}

func TestRegisterHandler(t *testing.T) {
	users := &mocks.UserStore{CreateFunc: func(context.Context, model.User) (uint64, error) { return 12, nil }}
	h := newAuthHandler(t, users)

	rec := call(h.Register, http.MethodPost, "/api/auth/register",
		`{"username":"neo_1","email":"neo@example.com","phone":"5551234567","password":"password1","confirm_password":"password1","dob":"1990-01-01"}`, 0)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	r := decode(t, rec)
	assert.True(t, r.Success)
	assert.JSONEq(t, `{"user_id":12,"email":"neo@example.com","email_sent":true}`, string(r.Data))

	rec = call(h.Register, http.MethodPost, "/api/auth/register", `{"username":"neo_1"}`, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)

	users.UsernameExistsFunc = func(context.Context, string) (bool, error) { return true, nil }
	rec = call(h.Register, http.MethodPost, "/api/auth/register",
		`{"username":"neo_1","email":"neo@example.com","phone":"5551234567","password":"password1","date_of_birth":"1990-01-01"}`, 0)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username already taken", decode(t, rec).Message)
}

func TestLoginHandler(t *testing.T) {
	hash, err := utils.HashPassword("password1", bcrypt.MinCost)
	require.NoError(t, err)
	verified := true
	users := &mocks.UserStore{GetByLoginFunc: func(_ context.Context, ident string) (model.User, error) {
		if ident != "neo" {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{ID: 3, Username: "neo", PasswordHash: hash, IsVerified: verified}, nil
	}}
	h := newAuthHandler(t, users)

	rec := call(h.Login, http.MethodPost, "/api/auth/login", `{"username":"neo","password":"password1"}`, 0)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.NotEmpty(t, data.Token)
	cookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "connecthub_session="+data.Token)
	assert.Contains(t, cookie, "HttpOnly")

	rec = call(h.Login, http.MethodPost, "/api/auth/login", `{"username":"neo","password":"wrong"}`, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	verified = false
	rec = call(h.Login, http.MethodPost, "/api/auth/login", `{"username":"neo","password":"password1"}`, 0)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"requires_verification":true,"user_id":3}`, string(decode(t, rec).Data))
}

func TestLogoutHandler_ClearsCookieWithoutSession(t *testing.T) {
	h := newAuthHandler(t, &mocks.UserStore{})
	rec := call(h.Logout, http.MethodPost, "/api/auth/logout", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "connecthub_session=;")
}

func TestCheckUsernameHandler(t *testing.T) {
	users := &mocks.UserStore{UsernameExistsFunc: func(_ context.Context, n string) (bool, error) { return n == "taken", nil }}
	h := newAuthHandler(t, users)

	rec := call(h.CheckUsername, http.MethodGet, "/api/auth/check-username?username=taken", "", 0)
	r := decode(t, rec)
	assert.False(t, r.Success)
	assert.JSONEq(t, `{"available":false}`, string(r.Data))

	rec = call(h.CheckUsername, http.MethodGet, "/api/auth/check-username?username=fresh", "", 0)
	assert.True(t, decode(t, rec).Success)
}

func newPostHandler() (*PostHandler, *mocks.PostStore) {
	posts := &mocks.PostStore{}
	posts.GetByIDFunc = func(_ context.Context, id, _ uint64) (model.Post, error) {
		if id != 5 {
			return model.Post{}, repository.ErrNotFound
		}
		img := "post_2_1.jpg"
		return model.Post{ID: 5, UserID: 2, MediaType: model.MediaImage, MediaURL: &img, ProfilePic: model.DefaultAvatar}, nil
	}
	content := service.NewContentService(posts, &mocks.CommentStore{}, &mocks.MediaStore{}, &mocks.ImageProcessor{}, service.NopPublisher{}, "")
	return NewPostHandler(content, 1<<20, "/uploads"), posts
}

func TestGetPostHandler_RewritesMediaURLs(t *testing.T) {
	h, _ := newPostHandler()
	rec := call(h.GetPost, http.MethodGet, "/api/posts/5", "", 0, "id", "5")
	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Post
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &p))
	require.NotNil(t, p.MediaURL)
	assert.Equal(t, "/uploads/post_2_1.jpg", *p.MediaURL)
	assert.Equal(t, "/uploads/"+model.DefaultAvatar, p.ProfilePic)

	rec = call(h.GetPost, http.MethodGet, "/api/posts/9", "", 0, "id", "9")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(h.GetPost, http.MethodGet, "/api/posts/x", "", 0, "id", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletePostHandler(t *testing.T) {
	h, _ := newPostHandler()
	rec := call(h.DeletePost, http.MethodDelete, "/api/posts/5", "", 3, "id", "5")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(h.DeletePost, http.MethodDelete, "/api/posts/5", "", 2, "id", "5")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePostHandler(t *testing.T) {
	h, posts := newPostHandler()
	var got model.NewPost
	posts.CreateFunc = func(_ context.Context, np model.NewPost) (uint64, error) {
		got = np
		return 5, nil
	}
	rec := call(h.CreatePost, http.MethodPost, "/api/posts",
		`{"content":"hello","youtube_embed":"https://youtu.be/dQw4w9WgXcQ","sentiment_score":0.9}`, 2)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(2), got.UserID)
	assert.Equal(t, model.MediaYouTube, got.MediaType)

	rec = call(h.CreatePost, http.MethodPost, "/api/posts", `{"content":""}`, 2)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadMediaHandler(t *testing.T) {
	h, _ := newPostHandler()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("media", "a.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("fake image bytes"))
	require.NoError(t, mw.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/posts/media", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, uint64(2))
	require.NoError(t, h.UploadMedia(c))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data struct {
		Ref string `json:"media_ref"`
		URL string `json:"media_url"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.True(t, strings.HasPrefix(data.Ref, "post_2_"))
	assert.Equal(t, "/uploads/"+data.Ref, data.URL)

	rec = call(h.UploadMedia, http.MethodPost, "/api/posts/media", "", 2)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decode(t, rec).Message)
}

func TestEngagementHandlers(t *testing.T) {
	h := NewEngagementHandler(service.NewEngagementService(&mocks.PostStore{}, mocks.NewLikeStore(), mocks.NewRatingStore(), service.NopPublisher{}))

	rec := call(h.ToggleLike, http.MethodPost, "/api/posts/1/like", `{"like_type":"like"}`, 4, "id", "1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"action":"added","like_type":"like","counts":{"like_count":1,"dislike_count":0}}`, string(decode(t, rec).Data))

	rec = call(h.ToggleLike, http.MethodPost, "/api/posts/1/like", `{"like_type":"meh"}`, 4, "id", "1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.SubmitRating, http.MethodPost, "/api/posts/1/rating", `{"rating":5}`, 4, "id", "1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"action":"added","average_rating":5,"total_ratings":1,"user_rating":5}`, string(decode(t, rec).Data))

	rec = call(h.SubmitRating, http.MethodPost, "/api/posts/1/rating", `{"rating":9}`, 4, "id", "1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.RatingStats, http.MethodGet, "/api/posts/1/rating", "", 0, "id", "1")
	assert.JSONEq(t, `{"average_rating":5,"total_ratings":1,"user_rating":null}`, string(decode(t, rec).Data))
}

func TestLocationHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()
	h := NewLocationHandler(service.NewLocationService(upstream.URL, "ua", time.Second))

	rec := call(h.Geocode, http.MethodGet, "/api/location/geocode?q=Paris", "", 0)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Geocoding service unavailable", decode(t, rec).Message)

	rec = call(h.Geocode, http.MethodGet, "/api/location/geocode?q=ab", "", 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(h.Reverse, http.MethodGet, "/api/location/reverse?lat=1", "", 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Coordinates required", decode(t, rec).Message)
}

func TestQueryHandler(t *testing.T) {
	users := &mocks.UserStore{ListLatestFunc: func(context.Context, int) ([]model.User, error) {
		return []model.User{{ID: 1, Username: "a"}}, nil
	}}
	h := NewQueryHandler(service.NewQueryService(&mocks.PostStore{}, users))

	rec := call(h.Execute, http.MethodPost, "/api/query", `{"query":"users { id }"}`, 0)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":{"users":[`)
	assert.NotContains(t, rec.Body.String(), `"success"`)

	rec = call(h.Execute, http.MethodPost, "/api/query", `{"query":"nope"}`, 0)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors":[`)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&service.ValidationError{Field: "x", Message: "bad"}, http.StatusBadRequest},
		{&service.ConflictError{Field: "email", Message: "taken"}, http.StatusConflict},
		{&service.UnverifiedError{UserID: 1}, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrSessionExpired, http.StatusUnauthorized},
		{service.ErrOTPInvalid, http.StatusBadRequest},
		{service.ErrOTPExpired, http.StatusBadRequest},
		{service.ErrTooManyRequests, http.StatusTooManyRequests},
		{fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("nominatim: %w", service.ErrUpstream), http.StatusBadGateway},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := call(func(c echo.Context) error { return respondError(c, tt.err, "Something failed") }, http.MethodGet, "/", "", 0)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		assert.NotContains(t, rec.Body.String(), "db exploded")
	}
}

func TestHealthHandler_NoDependencies(t *testing.T) {
	h := &HealthHandler{}
	rec := call(h.Health, http.MethodGet, "/healthz", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
}
