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

// FeedHub attaches websocket clients to the live announcement feed
type FeedHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID int64) error
}

// AnnouncementController serves the announcement board
type AnnouncementController struct {
	announcementService services.AnnouncementService
	feed                FeedHub
	logger              zerolog.Logger
}

// NewAnnouncementController creates a new AnnouncementController
func NewAnnouncementController(announcementService services.AnnouncementService, feed FeedHub, logger zerolog.Logger) *AnnouncementController {
	return &AnnouncementController{announcementService: announcementService, feed: feed, logger: logger}
}

// List returns every announcement, newest first
// @Summary List announcements
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.AnnouncementResponse} "Announcements"
// @Router /announcements [get]
func (c *AnnouncementController) List(ctx *gin.Context) {
	list, err := c.announcementService.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if list == nil {
		list = []dto.AnnouncementResponse{}
	}
	respondData(ctx, http.StatusOK, list)
}

// Create posts a new announcement
// @Summary Post announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} dto.APIResponse{data=dto.AnnouncementResponse} "Announcement created"
// @Failure 400 {object} dto.ErrorResponse "Missing title or content"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Router /announcements [post]
func (c *AnnouncementController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.CreateAnnouncementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.announcementService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, resp)
}

// Delete removes an announcement with its comments
// @Summary Delete announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Announcement deleted"
// @Failure 404 {object} dto.ErrorResponse "Announcement not found"
// @Router /announcements/{id} [delete]
func (c *AnnouncementController) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.announcementService.Delete(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Announcement deleted"))
}

// AddComment comments on an announcement
// @Summary Comment on announcement
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Param request body dto.CommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=dto.CommentResponse} "Comment added"
// @Failure 404 {object} dto.ErrorResponse "Announcement not found"
// @Router /announcements/{id}/comments [post]
func (c *AnnouncementController) AddComment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.CommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.announcementService.AddComment(ctx.Request.Context(), actor, id, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, resp)
}

// DeleteComment removes one of the caller's announcement comments
// @Summary Delete announcement comment
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Param commentId path string true "Comment ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Comment deleted"
// @Failure 403 {object} dto.ErrorResponse "Not the author"
// @Failure 404 {object} dto.ErrorResponse "Comment not found"
// @Router /announcements/{id}/comments/{commentId} [delete]
func (c *AnnouncementController) DeleteComment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	id, err := helpers.ParseIDParam(ctx, "id")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	commentID, err := helpers.ParseUUIDParam(ctx, "commentId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.announcementService.DeleteComment(ctx.Request.Context(), actor, id, commentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Comment deleted"))
}

// Feed upgrades to a websocket that receives announcement changes as they happen
// @Summary Announcement live feed
// @Description Websocket. Messages are JSON objects with a type and payload.
// @Tags announcements
// @Security BearerAuth
// @Param token query string false "Access token for clients that cannot set headers"
// @Success 101 "Switching protocols"
// @Router /announcements/feed [get]
func (c *AnnouncementController) Feed(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if err := c.feed.ServeWS(ctx.Writer, ctx.Request, actor.ID()); err != nil {
		// The upgrader has already answered the client
		c.logger.Warn().Err(err).Int64("userID", actor.ID()).Msg("Announcement feed connection failed")
	}
}
