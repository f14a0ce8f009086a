// Package controllers handles HTTP request handling
package controllers

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
)

// requireActor returns the caller stored by the auth middleware, answering 401 when it is missing
func requireActor(ctx *gin.Context) (*appauth.Actor, bool) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, apperrors.ErrUnauthenticated)
		return nil, false
	}
	return actor, true
}

var wordTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// openUpload turns a multipart file into a service upload. The caller closes the returned file.
// The content type is sniffed when the client did not send a usable one.
func openUpload(fh *multipart.FileHeader) (services.Upload, io.Closer, error) {
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, nil, apperrors.NewValidationError("could not read uploaded file")
	}

	contentType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	var reader io.Reader = f
	if err != nil || contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, 512)
		n, _ := io.ReadFull(f, head)
		head = head[:n]
		contentType, _, _ = mime.ParseMediaType(http.DetectContentType(head))
		reader = io.MultiReader(bytes.NewReader(head), f)

		// Word files sniff as zip or plain binary
		if word, ok := wordTypes[strings.ToLower(filepath.Ext(fh.Filename))]; ok &&
			(contentType == "application/zip" || contentType == "application/octet-stream") {
			contentType = word
		}
	}

	return services.Upload{
		Reader:      reader,
		Size:        fh.Size,
		Name:        fh.Filename,
		ContentType: contentType,
	}, f, nil
}

// formUpload reads a required file field
func formUpload(ctx *gin.Context, field string) (services.Upload, io.Closer, bool) {
	fh, err := ctx.FormFile(field)
	if middleware.BodyTooLarge(err) {
		middleware.HandleAPIError(ctx, err)
		return services.Upload{}, nil, false
	}
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("file field \""+field+"\" is required"))
		return services.Upload{}, nil, false
	}
	upload, closer, err := openUpload(fh)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return services.Upload{}, nil, false
	}
	return upload, closer, true
}

func respondData(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, dto.NewSuccessResponse(data))
}
