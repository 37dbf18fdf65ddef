package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"snapfeed/internal/auth"
	"snapfeed/internal/repository/sqlite"
	"snapfeed/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, service.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, postRepo.Init(ctx))

	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	codec, err := auth.NewTokenCodec([]byte("test-secret"), 15*time.Minute)
	require.NoError(t, err)

	authService := service.NewAuthService(userRepo, hasher, codec, 30*time.Minute)
	postService := service.NewPostService(postRepo)

	router := gin.New()
	NewHandler(authService, postService, nil, "http://localhost:5173").RegisterRoutes(router)
	return router, authService
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router *gin.Engine, username, email string) {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username":  username,
		"email":     email,
		"full_name": "John Doe",
		"password":  "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func loginUser(t *testing.T, router *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Hello World"}`, rec.Body.String())
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	registerUser(t, router, "johndoe", "johndoe@example.com")

	rec := loginUser(t, router, "johndoe", "secret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.Equal(t, "bearer", token.TokenType)
	require.NotEmpty(t, token.AccessToken)

	rec = doJSON(t, router, http.MethodGet, "/users/me/", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var me userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, "johndoe", me.Username)
	require.Equal(t, "johndoe@example.com", me.Email)
	require.False(t, me.Disabled)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Duplicates(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "johndoe", "johndoe@example.com")

	rec := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username": "johndoe",
		"email":    "other@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Username already registered")

	rec = doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username": "janedoe",
		"email":    "johndoe@example.com",
		"password": "secret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Email already registered")
}

func TestRegister_InvalidEmail(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/register", "", gin.H{
		"username": "johndoe",
		"email":    "not-an-email",
		"password": "secret",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Failures(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "johndoe", "johndoe@example.com")

	// wrong password and unknown user answer identically
	wrongPass := loginUser(t, router, "johndoe", "wrong")
	require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	require.Equal(t, "Bearer", wrongPass.Header().Get("WWW-Authenticate"))

	unknown := loginUser(t, router, "nouser", "whatever")
	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, wrongPass.Body.String(), unknown.Body.String())
}

func TestMe_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/users/me/", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = doJSON(t, router, http.MethodGet, "/users/me/", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestMe_DisabledUser(t *testing.T) {
	router, authService := newTestRouter(t)
	registerUser(t, router, "johndoe", "johndoe@example.com")

	rec := loginUser(t, router, "johndoe", "secret")
	require.Equal(t, http.StatusOK, rec.Code)
	var token tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	require.NoError(t, authService.SetDisabled(context.Background(), "johndoe", true))

	rec = doJSON(t, router, http.MethodGet, "/users/me/", token.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Inactive user")
}

func TestPostsFlow(t *testing.T) {
	router, _ := newTestRouter(t)
	registerUser(t, router, "johndoe", "johndoe@example.com")

	rec := loginUser(t, router, "johndoe", "secret")
	var token tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))

	rec = doJSON(t, router, http.MethodPost, "/posts/", token.AccessToken, gin.H{
		"caption":   "sunset",
		"image_url": "https://example.com/sunset.jpg",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "johndoe", created.OwnerUsername)
	require.NotEmpty(t, created.ID)

	// the public feed lists it without authentication
	rec = doJSON(t, router, http.MethodGet, "/posts/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	require.Equal(t, "sunset", feed[0].Caption)

	rec = doJSON(t, router, http.MethodGet, "/posts/me/", token.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
}

func TestPosts_CreateRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/posts/", "", gin.H{
		"caption":   "sunset",
		"image_url": "https://example.com/sunset.jpg",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestPosts_InvalidPagination(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/posts/?skip=-1", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/posts/?limit=zero", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/posts/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
