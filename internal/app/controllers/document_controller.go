package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// DocumentController serves the document catalog and document comment threads
type DocumentController struct {
	documentService services.DocumentService
	logger          zerolog.Logger
}

// NewDocumentController creates a new DocumentController
func NewDocumentController(documentService services.DocumentService, logger zerolog.Logger) *DocumentController {
	return &DocumentController{documentService: documentService, logger: logger}
}

// Catalog lists the document types students can submit
// @Summary Document catalog
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CatalogResponse} "Catalog"
// @Router /documents/catalog [get]
func (c *DocumentController) Catalog(ctx *gin.Context) {
	respondData(ctx, http.StatusOK, c.documentService.Catalog(ctx.Request.Context()))
}

// AddComment appends a comment to a document's thread
// @Summary Comment on document
// @Description Students may only comment on their own documents
// @Tags documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param docId path string true "Document ID" Format(uuid)
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse} "Comment added"
// @Failure 400 {object} dto.ErrorResponse "Empty comment"
// @Failure 404 {object} dto.ErrorResponse "Document not found"
// @Router /documents/{docId}/comments [post]
func (c *DocumentController) AddComment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	docID, err := helpers.ParseUUIDParam(ctx, "docId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.documentService.AddComment(ctx.Request.Context(), actor, docID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, resp)
}

// DeleteComment removes one of the caller's own comments
// @Summary Delete document comment
// @Tags documents
// @Produce json
// @Security BearerAuth
// @Param docId path string true "Document ID" Format(uuid)
// @Param commentId path string true "Comment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Comment deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /documents/{docId}/comments/{commentId} [delete]
func (c *DocumentController) DeleteComment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	docID, err := helpers.ParseUUIDParam(ctx, "docId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	commentID, err := helpers.ParseUUIDParam(ctx, "commentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.documentService.DeleteComment(ctx.Request.Context(), actor, docID, commentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Comment deleted"))
}
