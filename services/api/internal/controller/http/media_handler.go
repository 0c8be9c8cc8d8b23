package http

import (
	"net/http"

	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/services/api/internal/usecase"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaUseCase usecase.MediaUseCase
	logger       *logger.Logger
}

func NewMediaHandler(mediaUseCase usecase.MediaUseCase, logger *logger.Logger) *MediaHandler {
	return &MediaHandler{
		mediaUseCase: mediaUseCase,
		logger:       logger,
	}
}

// ServeMedia godoc
// @Summary      Stream a stored object
// @Description  Range requests are passed through to the store. Nothing is cached.
// @Tags         media
// @Produce      octet-stream
// @Param        key   path   string true  "Escaped object key"
// @Param        Range header string false "Byte range"
// @Success      200
// @Success      206
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /media/{key} [get]
func (h *MediaHandler) ServeMedia(c *gin.Context) {
	c.Header("Cross-Origin-Resource-Policy", "cross-origin")
	c.Header("Access-Control-Allow-Origin", "*")

	// The escaped path keeps %2F intact so keys round-trip exactly.
	key, err := mediaurl.KeyFromPath(c.Request.URL.EscapedPath())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	dl, err := h.mediaUseCase.Open(c.Request.Context(), key, c.GetHeader("Range"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer dl.Body.Close()

	extra := map[string]string{}
	if dl.ContentRange != "" {
		extra["Content-Range"] = dl.ContentRange
	}
	if dl.AcceptRanges != "" {
		extra["Accept-Ranges"] = dl.AcceptRanges
	}

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	length := dl.ContentLength
	if length <= 0 {
		length = -1
	}

	c.DataFromReader(dl.StatusCode, length, contentType, dl.Body, extra)
}

// Health godoc
// @Summary      Health check
// @Tags         health
// @Produce      plain
// @Success      200  {string}  string  "OK"
// @Router       /health [get]
func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
