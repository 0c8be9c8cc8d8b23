package http

import (
	"errors"
	"net/http"

	"framefeed/pkg/apperr"
	"framefeed/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError writes {"error": ...} with the status the error maps to.
// Upstream failures are logged and reported without detail.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload exceeds the size limit"})
		return
	}

	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func currentUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
