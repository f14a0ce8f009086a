package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/services"
	"github.com/ojtetr/tracker/internal/middleware"
	"github.com/ojtetr/tracker/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// StudentController handles a student's own profile and documents
type StudentController struct {
	studentService services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{studentService: studentService, logger: logger}
}

// GetMyProfile returns the caller's profile
// @Summary My profile
// @Description Returns the student's profile, documents and comment threads
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Profile"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Access denied"
// @Router /student/me [get]
func (c *StudentController) GetMyProfile(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	resp, err := c.studentService.GetMyProfile(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// UploadDocument stores a document, replacing any earlier upload of the same type
// @Summary Upload document
// @Description Uploads or re-uploads a document. A re-upload keeps the document id and comments and resets its status to Submitted.
// @Tags student
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param docType formData string true "Document type"
// @Param file formData file true "Document file (PDF, image or Word, max 5 MB)"
// @Success 201 {object} dto.APIResponse{data=dto.UploadResponse} "Document stored"
// @Failure 400 {object} dto.ErrorResponse "Invalid document type, size or format"
// @Failure 409 {object} dto.ErrorResponse "Profile already completed"
// @Failure 503 {object} dto.ErrorResponse "Storage unavailable"
// @Router /student/documents [post]
func (c *StudentController) UploadDocument(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req dto.UploadDocumentRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	upload, closer, ok := formUpload(ctx, "file")
	if !ok {
		return
	}
	defer closer.Close()

	resp, err := c.studentService.UploadDocument(ctx.Request.Context(), actor, models.DocType(req.DocType), upload)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusCreated, resp)
}

// DeleteDocument removes one of the caller's documents
// @Summary Delete document
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param docId path string true "Document ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Document deleted"
// @Failure 404 {object} dto.ErrorResponse "Document not found"
// @Router /student/documents/{docId} [delete]
func (c *StudentController) DeleteDocument(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	docID, err := helpers.ParseUUIDParam(ctx, "docId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.studentService.DeleteDocument(ctx.Request.Context(), actor, docID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Document deleted"))
}

// UpdatePersonalData writes the fields present in the body
// @Summary Update personal data
// @Tags student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PersonalDataPatch true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /student/personal-data [put]
func (c *StudentController) UpdatePersonalData(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var patch models.PersonalDataPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	resp, err := c.studentService.UpdatePersonalData(ctx.Request.Context(), actor, patch)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// UpdateProfilePicture replaces the student's avatar
// @Summary Update profile picture
// @Tags student
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param picture formData file true "JPEG or PNG image, max 10 MB"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse} "Updated profile"
// @Failure 400 {object} dto.ErrorResponse "Invalid image"
// @Router /student/profile-picture [post]
func (c *StudentController) UpdateProfilePicture(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	upload, closer, ok := formUpload(ctx, "picture")
	if !ok {
		return
	}
	defer closer.Close()

	resp, err := c.studentService.UpdateProfilePicture(ctx.Request.Context(), actor, upload)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// Submit hands the profile to the coordinators
// @Summary Submit for review
// @Description Moves a profile from Submitting to Pending Coordinator Review
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.StatusChangeResponse} "Submitted"
// @Failure 400 {object} dto.ErrorResponse "No documents, or documents still need revision"
// @Failure 409 {object} dto.ErrorResponse "Profile already submitted"
// @Router /student/submit [post]
func (c *StudentController) Submit(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	resp, err := c.studentService.SubmitForReview(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// DocumentComments lists the thread of one of the caller's documents
// @Summary Document comments
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param docId path string true "Document ID" Format(uuid)
// @Success 200 {object} dto.APIResponse{data=[]dto.CommentResponse} "Comments, oldest first"
// @Failure 404 {object} dto.ErrorResponse "Document not found"
// @Router /student/documents/{docId}/comments [get]
func (c *StudentController) DocumentComments(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	docID, err := helpers.ParseUUIDParam(ctx, "docId")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	resp, err := c.studentService.ListDocumentComments(ctx.Request.Context(), actor, docID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondData(ctx, http.StatusOK, resp)
}

// DownloadTemplate sends the blank template for a document type
// @Summary Download template
// @Tags student
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Security BearerAuth
// @Param docType path string true "Document type"
// @Success 200 {file} file "Template"
// @Failure 400 {object} dto.ErrorResponse "Unknown document type"
// @Failure 404 {object} dto.ErrorResponse "No template for this type"
// @Router /student/templates/{docType} [get]
func (c *StudentController) DownloadTemplate(ctx *gin.Context) {
	tpl, err := c.studentService.Template(ctx.Request.Context(), models.DocType(ctx.Param("docType")))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.FileAttachment(tpl.Path, tpl.DownloadName)
}
