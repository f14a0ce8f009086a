// Package workflow holds the review rules for student profiles and their documents.
// Every function takes a profile by value and returns a new one; callers persist the result.
package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
)

// FileRef points at stored content for an uploaded document
type FileRef struct {
	Name string
	URL  string
	Key  string
}

// Transition records the effect of a document status change
type Transition struct {
	ProfileID     int64                 `json:"profileId"`
	DocumentID    uuid.UUID             `json:"documentId"`
	DocType       models.DocType        `json:"docType"`
	From          models.DocumentStatus `json:"from"`
	To            models.DocumentStatus `json:"to"`
	OverallBefore models.OverallStatus  `json:"overallBefore"`
	OverallAfter  models.OverallStatus  `json:"overallAfter"`
	ActorRole     models.Role           `json:"actorRole"`
}

// coordinatorEdges lists the document transitions a coordinator may make
var coordinatorEdges = map[models.DocumentStatus][]models.DocumentStatus{
	models.DocumentSubmitted:   {models.DocumentChecked},
	models.DocumentChecked:     {models.DocumentForRevision, models.DocumentDone},
	models.DocumentForRevision: {models.DocumentDone},
}

// CanTransition reports whether role may move a document from one status to another.
// Setting the current status again is always allowed for reviewers.
func CanTransition(role models.Role, from, to models.DocumentStatus) bool {
	if !to.IsValid() {
		return false
	}
	switch role {
	case models.RoleDirector:
		return true
	case models.RoleCoordinator:
		if from == to {
			return true
		}
		for _, next := range coordinatorEdges[from] {
			if next == to {
				return true
			}
		}
	}
	return false
}

// UpsertDocument adds a document for docType, or replaces the existing one in place.
// A replaced document keeps its id and comment thread and goes back to Submitted.
// The previous version is returned so its stored content can be removed.
func UpsertDocument(p models.StudentProfile, docType models.DocType, file FileRef, now time.Time) (models.StudentProfile, *models.Document, error) {
	if !docType.IsValid() {
		return p, nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, fmt.Sprintf("unknown document type %q", docType))
	}
	if p.OverallStatus == models.OverallCompleted {
		return p, nil, apperrors.NewConflictError("profile is already completed")
	}

	next := p.Clone()
	if i := next.DocumentByType(docType); i >= 0 {
		previous := next.Documents[i]
		doc := previous
		doc.FileName = file.Name
		doc.FileURL = file.URL
		doc.StorageKey = file.Key
		doc.Status = models.DocumentSubmitted
		doc.UploadDate = now
		next.Documents[i] = doc
		return next, &previous, nil
	}

	next.Documents = append(next.Documents, models.Document{
		ID:         uuid.New(),
		DocType:    docType,
		FileName:   file.Name,
		FileURL:    file.URL,
		StorageKey: file.Key,
		Status:     models.DocumentSubmitted,
		UploadDate: now,
		Comments:   []models.Comment{},
	})
	return next, nil, nil
}

// RemoveDocument deletes a document and returns what was removed.
// Completed profiles are frozen.
func RemoveDocument(p models.StudentProfile, docID uuid.UUID) (models.StudentProfile, models.Document, error) {
	i := p.DocumentByID(docID)
	if i < 0 {
		return p, models.Document{}, apperrors.ErrDocumentNotFound
	}
	if p.OverallStatus == models.OverallCompleted {
		return p, models.Document{}, apperrors.NewConflictError("profile is already completed")
	}

	next := p.Clone()
	removed := next.Documents[i]
	next.Documents = append(next.Documents[:i:i], next.Documents[i+1:]...)
	return next, removed, nil
}

// SetDocumentStatus applies a reviewer's status change.
// Checking the MOA moves the whole profile to Pending Director Review.
func SetDocumentStatus(p models.StudentProfile, docID uuid.UUID, to models.DocumentStatus, role models.Role) (models.StudentProfile, Transition, error) {
	if !role.IsStaff() {
		return p, Transition{}, apperrors.NewForbiddenError("only reviewers may change a document status")
	}
	if !to.IsValid() {
		return p, Transition{}, apperrors.NewValidationError(fmt.Sprintf("unknown document status %q", to))
	}

	i := p.DocumentByID(docID)
	if i < 0 {
		return p, Transition{}, apperrors.ErrDocumentNotFound
	}

	from := p.Documents[i].Status
	if !CanTransition(role, from, to) {
		return p, Transition{}, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move document from %s to %s", from, to))
	}

	next := p.Clone()
	next.Documents[i].Status = to
	if next.Documents[i].DocType == models.DocMOA && to == models.DocumentChecked {
		next.OverallStatus = models.OverallPendingDirectorReview
	}

	return next, Transition{
		ProfileID:     p.ID,
		DocumentID:    docID,
		DocType:       next.Documents[i].DocType,
		From:          from,
		To:            to,
		OverallBefore: p.OverallStatus,
		OverallAfter:  next.OverallStatus,
		ActorRole:     role,
	}, nil
}

// AddDocumentComment appends a comment to a document's thread
func AddDocumentComment(p models.StudentProfile, docID uuid.UUID, authorID int64, content string, now time.Time) (models.StudentProfile, models.Comment, error) {
	i := p.DocumentByID(docID)
	if i < 0 {
		return p, models.Comment{}, apperrors.ErrDocumentNotFound
	}

	comments, comment, err := AppendComment(p.Documents[i].Comments, authorID, content, now)
	if err != nil {
		return p, models.Comment{}, err
	}

	next := p.Clone()
	next.Documents[i].Comments = comments
	return next, comment, nil
}

// DeleteDocumentComment removes a comment; only its author may do so
func DeleteDocumentComment(p models.StudentProfile, docID, commentID uuid.UUID, actorID int64) (models.StudentProfile, error) {
	i := p.DocumentByID(docID)
	if i < 0 {
		return p, apperrors.ErrDocumentNotFound
	}

	comments, err := RemoveComment(p.Documents[i].Comments, commentID, actorID)
	if err != nil {
		return p, err
	}

	next := p.Clone()
	next.Documents[i].Comments = comments
	return next, nil
}
