package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

// FileController streams uploaded documents and avatars out of the blob store
type FileController struct {
	store  filestorage.BlobStore
	logger zerolog.Logger
}

// NewFileController creates a new FileController
func NewFileController(store filestorage.BlobStore, logger zerolog.Logger) *FileController {
	return &FileController{store: store, logger: logger}
}

// Serve writes the stored object named by the key path parameter
// @Summary Download uploaded file
// @Tags files
// @Produce octet-stream
// @Param key path string true "Storage key"
// @Success 200 {file} binary "File content"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /uploads/{key} [get]
func (c *FileController) Serve(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Param("key"), "/")

	rc, obj, err := c.store.Open(ctx.Request.Context(), key)
	if err != nil {
		if errors.Is(err, filestorage.ErrObjectNotFound) || errors.Is(err, filestorage.ErrInvalidKey) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "File not found")))
			return
		}
		middleware.HandleAPIError(ctx, apperrors.NewUpstreamError("file storage unavailable", err))
		return
	}
	defer rc.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.DataFromReader(http.StatusOK, obj.Size, contentType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}
