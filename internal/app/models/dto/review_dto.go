package dto

import "github.com/ojtetr/tracker/internal/app/models"

// SetDocumentStatusRequest moves a document to another review status
type SetDocumentStatusRequest struct {
	Status models.DocumentStatus `json:"status" binding:"required,docstatus"`
}

// StudentListQuery filters the coordinator's student list
type StudentListQuery struct {
	Status string `form:"status" binding:"omitempty,overallstatus"`
}

// StatusChangeResponse reports the outcome of a workflow action
type StatusChangeResponse struct {
	ProfileID      int64                  `json:"profileId"`
	DocumentID     string                 `json:"documentId,omitempty"`
	DocumentStatus *models.DocumentStatus `json:"documentStatus,omitempty"`
	OverallStatus  models.OverallStatus   `json:"overallStatus"`
	Message        string                 `json:"message"`
}

// StaffProfileRequest is the text part of a staff profile edit
type StaffProfileRequest struct {
	Name string `form:"name" json:"name" binding:"max=100"`
}
