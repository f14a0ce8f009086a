package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/app/models"
)

// UploadDocumentRequest is the non-file part of a document upload
type UploadDocumentRequest struct {
	DocType string `form:"docType" binding:"required,doctype"`
}

// ProfileResponse is a student profile as readers see it
type ProfileResponse struct {
	ID             int64                `json:"id"`
	UserID         int64                `json:"userId"`
	Email          string               `json:"email,omitempty"`
	AccountStatus  models.AccountStatus `json:"accountStatus,omitempty"`
	PersonalData   models.PersonalData  `json:"personalData"`
	Documents      []DocumentResponse   `json:"documents"`
	Checklist      models.Checklist     `json:"coordinatorChecklist"`
	OverallStatus  models.OverallStatus `json:"overallStatus"`
	StoredStatus   models.OverallStatus `json:"storedStatus"`
	Version        int                  `json:"version"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	DisplayName    string               `json:"displayName"`
	ProfilePicture string               `json:"profilePicture"`
}

// DocumentResponse is one document with its resolved comment thread
type DocumentResponse struct {
	ID         uuid.UUID             `json:"id"`
	DocType    models.DocType        `json:"docType"`
	Label      string                `json:"label"`
	FileName   string                `json:"fileName"`
	FileURL    string                `json:"fileUrl"`
	Status     models.DocumentStatus `json:"status"`
	UploadDate time.Time             `json:"uploadDate"`
	Comments   []CommentResponse     `json:"comments"`
}

// CommentResponse is a comment with its author resolved for display
type CommentResponse struct {
	ID        uuid.UUID     `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	Author    AuthorSummary `json:"author"`
}

// AuthorSummary is who wrote a comment or announcement
type AuthorSummary struct {
	ID     int64       `json:"id"`
	Name   string      `json:"name"`
	Avatar string      `json:"avatar"`
	Role   models.Role `json:"role,omitempty"`
}

// CommentRequest carries the text of a new comment
type CommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// UploadResponse reports the stored document
type UploadResponse struct {
	Document DocumentResponse `json:"document"`
	Replaced bool             `json:"replaced"`
}
