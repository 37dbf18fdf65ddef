package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"snapfeed/internal/domain"
	"snapfeed/internal/repository"
	"snapfeed/internal/service"
	"snapfeed/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth        service.AuthService
	posts       service.PostService
	media       storage.Service
	allowOrigin string
}

func NewHandler(auth service.AuthService, posts service.PostService, media storage.Service, allowOrigin string) *Handler {
	return &Handler{
		auth:        auth,
		posts:       posts,
		media:       media,
		allowOrigin: allowOrigin,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.allowOrigin))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Hello World"})
	})

	router.POST("/token", h.login)
	router.POST("/register", h.register)
	router.GET("/users/me/", h.authRequired(), h.me)

	router.POST("/posts/", h.authRequired(), h.createPost)
	router.GET("/posts/", h.listPosts)
	router.GET("/posts/me/", h.authRequired(), h.listMyPosts)
	router.POST("/posts/media", h.authRequired(), h.uploadMedia)
	router.GET("/posts/media", h.authRequired(), h.listMedia)
}

type loginRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Disabled bool   `json:"disabled"`
}

type createPostRequest struct {
	Caption  string `json:"caption" binding:"required"`
	ImageURL string `json:"image_url" binding:"required"`
}

type postResponse struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	ImageURL      string `json:"image_url"`
	OwnerUsername string `json:"owner_username"`
	CreatedAt     string `json:"created_at"`
}

type mediaResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type mediaObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.IssueToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		var dup *repository.DuplicateError
		if errors.As(err, &dup) {
			switch dup.Field {
			case "username":
				c.JSON(http.StatusBadRequest, gin.H{"error": "Username already registered"})
			case "email":
				c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Registration failed"})
			}
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Registration failed"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		challenge(c)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) createPost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		challenge(c)
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), user.Username, req.Caption, req.ImageURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, postToResponse(*post))
}

func (h *Handler) listPosts(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	posts, err := h.posts.ListPosts(c.Request.Context(), skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, postsToResponse(posts))
}

func (h *Handler) listMyPosts(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		challenge(c)
		return
	}

	posts, err := h.posts.ListByOwner(c.Request.Context(), user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, postsToResponse(posts))
}

func (h *Handler) uploadMedia(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
	contentType := fileHeader.Header.Get("Content-Type")

	storedKey, err := h.media.Upload(c.Request.Context(), key, file, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	url, err := h.media.ObjectURL(c.Request.Context(), storedKey, 24*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, mediaResponse{
		Key: storedKey,
		URL: url,
	})
}

func (h *Handler) listMedia(c *gin.Context) {
	if h.media == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage service not configured"})
		return
	}

	objects, err := h.media.ListObjects(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]mediaObjectResponse, len(objects))
	for i, obj := range objects {
		resp[i] = mediaObjectResponse{
			Key:  obj.Key,
			Size: obj.Size,
		}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func userToResponse(user *domain.User) userResponse {
	return userResponse{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		Disabled: user.Disabled,
	}
}

func postToResponse(post domain.Post) postResponse {
	return postResponse{
		ID:            post.ID,
		Caption:       post.Caption,
		ImageURL:      post.ImageURL,
		OwnerUsername: post.OwnerUsername,
		CreatedAt:     post.CreatedAt.Format(time.RFC3339),
	}
}

func postsToResponse(posts []domain.Post) []postResponse {
	resp := make([]postResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	return resp
}
