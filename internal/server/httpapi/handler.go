// Package httpapi exposes the service over HTTP. It is a thin layer: all
// request payloads are decoded here, handed to the services, and the typed
// service errors are mapped onto status codes.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkovs/linkup/internal/common"
	"github.com/avolkovs/linkup/internal/logging"
	"github.com/avolkovs/linkup/internal/server/models"
	"github.com/avolkovs/linkup/internal/server/repositories/users"
	"github.com/avolkovs/linkup/internal/server/services"
)

type Handler struct {
	sessions *services.SessionService
	users    *services.UserService
	posts    *services.PostService
	logger   logging.Logger
}

func NewHandler(sessions *services.SessionService, us *services.UserService, ps *services.PostService, logger logging.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		users:    us,
		posts:    ps,
		logger:   logger.With("module", "httpapi"),
	}
}

// InitRoutes builds the gin engine with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.SignUp)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)

		authGroup.Use(h.AuthMiddleware())
		authGroup.POST("/logout", h.Logout)
	}

	usersGroup := router.Group("/users", h.AuthMiddleware())
	{
		usersGroup.GET("", h.ListUsers)
		usersGroup.GET("/:id", h.GetUser)
		usersGroup.PATCH("/me", h.UpdateProfile)
		usersGroup.POST("/follow/:id", h.Follow)
		usersGroup.POST("/unfollow/:id", h.Unfollow)
	}

	postsGroup := router.Group("/posts", h.AuthMiddleware())
	{
		postsGroup.POST("", h.CreatePost)
		postsGroup.GET("", h.ListOwnPosts)
	}

	return router
}

type errorResponse struct {
	Message string `json:"message"`
}

type sessionResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         *models.Profile `json:"user"`
}

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func newErrorResponse(c *gin.Context, statusCode int, errMessage string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Message: errMessage})
}

// respondError translates a service error into an HTTP status. Unknown
// errors are storage-level failures; they are logged and hidden behind a
// generic 500 so internals never leak to the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrAlreadyFollowing),
		errors.Is(err, common.ErrNotFollowing):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrEmailTaken):
		newErrorResponse(c, http.StatusBadRequest, "email is already registered")
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrUnauthorized):
		newErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, "not found")
	default:
		h.logger.Error(c.Request.Context(), "internal error", "path", c.FullPath(), "error", err.Error())
		newErrorResponse(c, http.StatusInternalServerError, "internal error")
	}
}

type signUpRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, user, err := h.sessions.SignUp(c.Request.Context(), req.DisplayName, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Profile(),
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, user, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Profile(),
	})
}

type refreshRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.sessions.Refresh(c.Request.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokensResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID := callerID(c)

	if err := h.sessions.Logout(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	profiles, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) GetUser(c *gin.Context) {
	profile, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), callerID(c), users.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *Handler) Follow(c *gin.Context) {
	if err := h.users.Follow(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "followed"})
}

func (h *Handler) Unfollow(c *gin.Context) {
	if err := h.users.Unfollow(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), callerID(c), req.Title, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *Handler) ListOwnPosts(c *gin.Context) {
	posts, err := h.posts.ListPostsByAuthor(c.Request.Context(), callerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
