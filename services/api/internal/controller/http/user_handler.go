package http

import (
	"net/http"

	"framefeed/pkg/logger"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userUseCase    usecase.UserUseCase
	uploadUseCase  usecase.UploadUseCase
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewUserHandler(userUseCase usecase.UserUseCase, uploadUseCase usecase.UploadUseCase, maxUploadBytes int64, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userUseCase:    userUseCase,
		uploadUseCase:  uploadUseCase,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// GetCurrentUser godoc
// @Summary      Current user
// @Description  Creates the user on first call.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.User
// @Failure      401  {object}  map[string]string
// @Router       /users/current [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userUseCase.GetCurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser godoc
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user body entity.UserUpdate true "Fields to change"
// @Success      200  {object}  entity.User
// @Failure      400  {object}  map[string]string
// @Router       /users/current [patch]
func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	var req entity.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userUseCase.UpdateCurrentUser(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadAvatar godoc
// @Summary      Upload avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Image file (field avatar or image)"
// @Success      200  {object}  entity.User
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /users/current/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	form, err := parseMultipart(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.uploadUseCase.UploadAvatar(c.Request.Context(), currentUserID(c), decodeAvatar(form))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SearchUsers godoc
// @Summary      Search users by username or display name
// @Tags         users
// @Produce      json
// @Param        q     query string false "Search text"
// @Param        limit query int    false "Max results"
// @Success      200  {array}  entity.User
// @Router       /users/search [get]
func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.userUseCase.SearchUsers(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	h.respondUsers(c, users, err)
}

// NewUsers godoc
// @Summary      Newest users
// @Tags         users
// @Produce      json
// @Param        limit query int false "Max results"
// @Success      200  {array}  entity.User
// @Router       /users/new [get]
func (h *UserHandler) NewUsers(c *gin.Context) {
	users, err := h.userUseCase.NewUsers(c.Request.Context(), queryInt(c, "limit", 0))
	h.respondUsers(c, users, err)
}

// UsersByTag godoc
// @Summary      Users who posted with a tag
// @Tags         users
// @Produce      json
// @Param        tag path string true "Tag"
// @Success      200  {array}  entity.User
// @Router       /users/tag/{tag} [get]
func (h *UserHandler) UsersByTag(c *gin.Context) {
	users, err := h.userUseCase.UsersByTag(c.Request.Context(), c.Param("tag"), queryInt(c, "limit", 0))
	h.respondUsers(c, users, err)
}

// GetUser godoc
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {object}  entity.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userUseCase.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetProfile godoc
// @Summary      Profile with post and follow counts
// @Tags         users
// @Produce      json
// @Param        id path string true "Username"
// @Success      200  {object}  entity.UserProfile
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userUseCase.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetFollowing godoc
// @Summary      Users this user follows
// @Tags         follows
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {array}  entity.User
// @Router       /users/{id}/following [get]
func (h *UserHandler) GetFollowing(c *gin.Context) {
	users, err := h.userUseCase.Following(c.Request.Context(), c.Param("id"))
	h.respondUsers(c, users, err)
}

// GetFollowers godoc
// @Summary      Users following this user
// @Tags         follows
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200  {array}  entity.User
// @Router       /users/{id}/followers [get]
func (h *UserHandler) GetFollowers(c *gin.Context) {
	users, err := h.userUseCase.Followers(c.Request.Context(), c.Param("id"))
	h.respondUsers(c, users, err)
}

// GetFollowStatus godoc
// @Summary      Whether the caller follows a user
// @Tags         follows
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  map[string]bool
// @Router       /users/{id}/follow [get]
func (h *UserHandler) GetFollowStatus(c *gin.Context) {
	following, err := h.userUseCase.IsFollowing(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

// Follow godoc
// @Summary      Follow a user
// @Tags         follows
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{id}/follow [post]
func (h *UserHandler) Follow(c *gin.Context) {
	if err := h.userUseCase.Follow(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Tags         follows
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200  {object}  map[string]bool
// @Router       /users/{id}/follow [delete]
func (h *UserHandler) Unfollow(c *gin.Context) {
	if err := h.userUseCase.Unfollow(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *UserHandler) respondUsers(c *gin.Context, users []*entity.User, err error) {
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
