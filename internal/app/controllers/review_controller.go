package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// ReviewController serves the coordinator and director review screens
type ReviewController struct {
	reviewService services.ReviewService
	logger        zerolog.Logger
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviewService services.ReviewService, logger zerolog.Logger) *ReviewController {
	return &ReviewController{reviewService: reviewService, logger: logger}
}

// PendingStudents lists registrations awaiting approval
// @Summary Pending students
// @Tags coordinator
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.StudentSummary} "Pending registrations"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Router /coordinator/pending-students [get]
func (c *ReviewController) PendingStudents(ctx *gin.Context) {
	list, err := c.reviewService.PendingStudents(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, nonNil(list))
}

// ApproveStudent activates a student account
// @Summary Approve student
// @Tags coordinator
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Student approved"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /coordinator/approve-student/{userId} [put]
func (c *ReviewController) ApproveStudent(ctx *gin.Context) {
	c.decide(ctx, c.reviewService.ApproveStudent)
}

// RejectStudent declines a pending registration
// @Summary Reject student
// @Tags coordinator
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Student rejected"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 409 {object} dto.ErrorResponse "Account is not pending"
// @Router /coordinator/reject-student/{userId} [put]
func (c *ReviewController) RejectStudent(ctx *gin.Context) {
	c.decide(ctx, c.reviewService.RejectStudent)
}

type accountDecision func(ctx context.Context, actor *appauth.Actor, userID int64) (*dto.UserResponse, error)

func (c *ReviewController) decide(ctx *gin.Context, action accountDecision) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	userID, err := helpers.ParseIDParam(ctx, "userId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := action(ctx.Request.Context(), actor, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// ListStudents lists active students, optionally by overall status
// @Summary List students
// @Tags coordinator
// @Produce json
// @Security BearerAuth
// @Param status query string false "Overall status" Enums(Submitting, Pending Coordinator Review, Pending Director Review, Completed, Revision Needed)
// @Success 200 {object} dto.APIResponse{data=[]models.StudentSummary} "Students"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Router /coordinator/students [get]
func (c *ReviewController) ListStudents(ctx *gin.Context) {
	var query dto.StudentListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	list, err := c.reviewService.ListStudents(ctx.Request.Context(), models.OverallStatus(query.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, nonNil(list))
}

// ReviewList is the director's queue
// @Summary Director review list
// @Description Active students whose profile is pending director review
// @Tags director
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.StudentSummary} "Profiles awaiting the director"
// @Router /director/review-list [get]
func (c *ReviewController) ReviewList(ctx *gin.Context) {
	list, err := c.reviewService.ReviewList(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, nonNil(list))
}

// StudentDetail returns one student's full profile
// @Summary Student detail
// @Tags coordinator,director
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /coordinator/students/{profileId} [get]
// @Router /director/students/{profileId} [get]
func (c *ReviewController) StudentDetail(ctx *gin.Context) {
	profileID, err := helpers.ParseIDParam(ctx, "profileId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.reviewService.StudentDetail(ctx.Request.Context(), profileID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// UpdateChecklist writes the coordinator's checklist flags
// @Summary Update checklist
// @Tags coordinator
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Param request body models.ChecklistPatch true "Flags to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Updated profile"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Router /coordinator/checklist/{profileId} [put]
func (c *ReviewController) UpdateChecklist(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	profileID, err := helpers.ParseIDParam(ctx, "profileId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var patch models.ChecklistPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.reviewService.UpdateChecklist(ctx.Request.Context(), actor, profileID, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// SetDocumentStatus records a reviewer's decision on one document
// @Summary Set document status
// @Description Coordinators follow Submitted, Checked, then For Revision or Done. Directors may set any status.
// @Tags coordinator,director
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param docId path string true "Document ID" Format(uuid)
// @Param request body dto.SetDocumentStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.StatusChangeResponse} "Status changed"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Failure 404 {object} dto.ErrorResponse "Document not found"
// @Failure 409 {object} dto.ErrorResponse "Transition not allowed"
// @Router /coordinator/document-status/{docId} [put]
// @Router /director/set-status/{docId} [put]
func (c *ReviewController) SetDocumentStatus(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	docID, err := helpers.ParseUUIDParam(ctx, "docId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var req dto.SetDocumentStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.reviewService.SetDocumentStatus(ctx.Request.Context(), actor, docID, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// MarkDone hands a profile to the director
// @Summary Mark profile done
// @Tags coordinator
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.StatusChangeResponse} "Sent to the director"
// @Failure 409 {object} dto.ErrorResponse "Profile already completed"
// @Router /coordinator/mark-done/{profileId} [put]
func (c *ReviewController) MarkDone(ctx *gin.Context) {
	c.changeProfile(ctx, c.reviewService.MarkDone)
}

// Complete is the director's final approval
// @Summary Complete profile
// @Tags director
// @Produce json
// @Security BearerAuth
// @Param profileId path int true "Profile ID"
// @Success 200 {object} dto.APIResponse{data=dto.StatusChangeResponse} "Profile completed"
// @Failure 400 {object} dto.ErrorResponse "Documents still need revision"
// @Failure 409 {object} dto.ErrorResponse "Profile is not pending director review"
// @Router /director/complete/{profileId} [put]
func (c *ReviewController) Complete(ctx *gin.Context) {
	c.changeProfile(ctx, c.reviewService.Complete)
}

type profileAction func(ctx context.Context, actor *appauth.Actor, profileID int64) (*dto.StatusChangeResponse, error)

func (c *ReviewController) changeProfile(ctx *gin.Context, action profileAction) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	profileID, err := helpers.ParseIDParam(ctx, "profileId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := action(ctx.Request.Context(), actor, profileID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// nonNil keeps empty lists serialized as [] rather than null
func nonNil(list []models.StudentSummary) []models.StudentSummary {
	if list == nil {
		return []models.StudentSummary{}
	}
	return list
}
