package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"tokenup/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UploadHandler struct {
	uploads *services.UploadService
	log     zerolog.Logger
}

func NewUploadHandler(uploads *services.UploadService, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, log: log}
}

// Upload handles POST /api/upload with a multipart "file" field.
func (h *UploadHandler) Upload(c *gin.Context) {
	// room for the multipart envelope on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxSize()+1<<20)

	file, header, err := c.Request.FormFile("file")
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		badRequest(c, fmt.Sprintf("file: must be at most %d MB", h.uploads.MaxSize()>>20))
		return
	}
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	defer file.Close()

	res, err := h.uploads.Upload(c.Request.Context(), file, header.Size)
	if err != nil {
		Fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
