package workflow

import (
	"fmt"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
)

// NewProfile returns the initial profile for a freshly registered student
func NewProfile(userID int64, data models.PersonalData) models.StudentProfile {
	return models.StudentProfile{
		UserID:        userID,
		PersonalData:  data,
		Documents:     []models.Document{},
		OverallStatus: models.OverallSubmitting,
	}
}

// HasDocumentForRevision reports whether a reviewer flagged any document
func HasDocumentForRevision(p models.StudentProfile) bool {
	for _, d := range p.Documents {
		if d.Status == models.DocumentForRevision {
			return true
		}
	}
	return false
}

// EffectiveStatus is the overall status shown to readers.
// Revision Needed is not stored: it is reported while any document is flagged
// For Revision and the profile has not been completed.
func EffectiveStatus(p models.StudentProfile) models.OverallStatus {
	return models.DeriveOverallStatus(p.OverallStatus, HasDocumentForRevision(p))
}

// SubmitForReview hands a profile that is still being assembled to the coordinators
func SubmitForReview(p models.StudentProfile) (models.StudentProfile, error) {
	if p.OverallStatus != models.OverallSubmitting {
		return p, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("profile is already %s", p.OverallStatus))
	}
	if len(p.Documents) == 0 {
		return p, apperrors.NewValidationError("upload at least one document before submitting")
	}
	if HasDocumentForRevision(p) {
		return p, apperrors.NewValidationError("re-upload documents marked for revision before submitting")
	}

	next := p.Clone()
	next.OverallStatus = models.OverallPendingCoordinatorReview
	return next, nil
}

// MarkDone is the coordinator's hand-off of a profile to the director
func MarkDone(p models.StudentProfile) (models.StudentProfile, error) {
	if p.OverallStatus == models.OverallCompleted {
		return p, apperrors.NewCustomError(apperrors.ErrInvalidTransition, "profile is already completed")
	}

	next := p.Clone()
	next.OverallStatus = models.OverallPendingDirectorReview
	return next, nil
}

// Complete is the director's final sign-off
func Complete(p models.StudentProfile) (models.StudentProfile, error) {
	if p.OverallStatus != models.OverallPendingDirectorReview {
		return p, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("only profiles pending director review can be completed, profile is %s", p.OverallStatus))
	}
	if HasDocumentForRevision(p) {
		return p, apperrors.NewValidationError("profile still has documents marked for revision")
	}

	next := p.Clone()
	next.OverallStatus = models.OverallCompleted
	return next, nil
}

// MergeChecklist writes only the flags present in the patch
func MergeChecklist(c models.Checklist, patch models.ChecklistPatch) models.Checklist {
	if patch.ClearanceChecked != nil {
		c.ClearanceChecked = *patch.ClearanceChecked
	}
	if patch.MOAChecked != nil {
		c.MOAChecked = *patch.MOAChecked
	}
	if patch.RecordFileChecked != nil {
		c.RecordFileChecked = *patch.RecordFileChecked
	}
	return c
}

// MergePersonalData writes only the fields present in the patch
func MergePersonalData(d models.PersonalData, patch models.PersonalDataPatch) models.PersonalData {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&d.StudentID, patch.StudentID)
	set(&d.FirstName, patch.FirstName)
	set(&d.LastName, patch.LastName)
	set(&d.Surname, patch.Surname)
	set(&d.GivenName, patch.GivenName)
	set(&d.MiddleName, patch.MiddleName)
	set(&d.DateOfBirth, patch.DateOfBirth)
	set(&d.CivilStatus, patch.CivilStatus)
	set(&d.Sex, patch.Sex)
	set(&d.Course, patch.Course)
	set(&d.Major, patch.Major)
	set(&d.YearSection, patch.YearSection)
	set(&d.ContactNumber, patch.ContactNumber)
	set(&d.GuardianName, patch.GuardianName)
	set(&d.HomeAddress, patch.HomeAddress)
	set(&d.CurrentAddress, patch.CurrentAddress)
	return d
}
