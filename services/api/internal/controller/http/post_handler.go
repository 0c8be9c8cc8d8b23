package http

import (
	"net/http"
	"strconv"

	"framefeed/pkg/logger"
	"framefeed/services/api/internal/entity"
	"framefeed/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postUseCase    usecase.PostUseCase
	uploadUseCase  usecase.UploadUseCase
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, uploadUseCase usecase.UploadUseCase, maxUploadBytes int64, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase:    postUseCase,
		uploadUseCase:  uploadUseCase,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ListPosts godoc
// @Summary      List posts
// @Description  Newest first. Filter by author or tag.
// @Tags         posts
// @Produce      json
// @Param        userId query string false "Author id"
// @Param        tag    query string false "Tag"
// @Param        limit  query int    false "Page size (default 20, max 100)"
// @Param        offset query int    false "Offset"
// @Success      200  {array}   entity.Post
// @Failure      500  {object}  map[string]string
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	filter := entity.PostFilter{
		UserID: c.Query("userId"),
		Tag:    c.Query("tag"),
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}

	posts, err := h.postUseCase.ListPosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost godoc
// @Summary      Get post by ID
// @Tags         posts
// @Produce      json
// @Param        id path string true "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUseCase.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost godoc
// @Summary      Create a post from already uploaded media
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        post body entity.NewPost true "Post"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req entity.NewPost
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postUseCase.CreatePost(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// CreatePostWithMedia godoc
// @Summary      Upload media and create a post
// @Description  Every file is stored before the post is written. Files keep their submission order.
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        media   formData file   true  "Image or video file, repeatable"
// @Param        caption formData string false "Caption"
// @Param        tag     formData string false "Tag (default General)"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /posts/media [post]
func (h *PostHandler) CreatePostWithMedia(c *gin.Context) {
	form, err := parseMultipart(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	post, err := h.uploadUseCase.CreatePostWithMedia(c.Request.Context(), currentUserID(c), decodeUploadRequest(form))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
