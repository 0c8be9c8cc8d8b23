package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"framefeed/pkg/apperr"
	"framefeed/services/api/internal/entity"

	"github.com/gin-gonic/gin"
)

const (
	fieldMedia   = "media"
	fieldCaption = "caption"
	fieldTag     = "tag"
	fieldAvatar  = "avatar"
	fieldImage   = "image"
)

// parseMultipart reads the whole form once, capped at maxBytes.
func parseMultipart(c *gin.Context, maxBytes int64) (*multipart.Form, error) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		return nil, fmt.Errorf("%w: expected a multipart/form-data body", apperr.ErrValidation)
	}
	return form, nil
}

func decodeUploadRequest(form *multipart.Form) entity.UploadRequest {
	req := entity.UploadRequest{
		Caption: firstValue(form.Value[fieldCaption]),
		Tag:     firstValue(form.Value[fieldTag]),
	}
	for _, fh := range form.File[fieldMedia] {
		req.Files = append(req.Files, uploadFile(fh))
	}
	return req
}

func decodeAvatar(form *multipart.Form) entity.UploadFile {
	for _, field := range []string{fieldAvatar, fieldImage} {
		for _, fh := range form.File[field] {
			if fh.Size > 0 {
				return uploadFile(fh)
			}
		}
	}
	return entity.UploadFile{}
}

func uploadFile(fh *multipart.FileHeader) entity.UploadFile {
	return entity.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
