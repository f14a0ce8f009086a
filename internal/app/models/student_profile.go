package models

import (
	"time"

	"github.com/google/uuid"
)

// OverallStatus is the profile-level approval state
type OverallStatus string

const (
	OverallSubmitting               OverallStatus = "Submitting"
	OverallPendingCoordinatorReview OverallStatus = "Pending Coordinator Review"
	OverallPendingDirectorReview    OverallStatus = "Pending Director Review"
	OverallCompleted                OverallStatus = "Completed"
	OverallRevisionNeeded           OverallStatus = "Revision Needed"
)

// IsValid reports whether s is a known overall status
func (s OverallStatus) IsValid() bool {
	switch s {
	case OverallSubmitting, OverallPendingCoordinatorReview, OverallPendingDirectorReview,
		OverallCompleted, OverallRevisionNeeded:
		return true
	}
	return false
}

// DeriveOverallStatus folds a pending revision request into the stored status
func DeriveOverallStatus(stored OverallStatus, hasRevision bool) OverallStatus {
	if hasRevision && stored != OverallCompleted {
		return OverallRevisionNeeded
	}
	return stored
}

// PersonalData holds the identity and contact fields a student fills in
type PersonalData struct {
	StudentID      string `json:"studentId,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Surname        string `json:"surname,omitempty"`
	GivenName      string `json:"givenName,omitempty"`
	MiddleName     string `json:"middleName,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	CivilStatus    string `json:"civilStatus,omitempty"`
	Sex            string `json:"sex,omitempty"`
	Course         string `json:"course,omitempty"`
	Major          string `json:"major,omitempty"`
	YearSection    string `json:"yearSection,omitempty"`
	ContactNumber  string `json:"contactNumber,omitempty"`
	GuardianName   string `json:"guardianName,omitempty"`
	HomeAddress    string `json:"homeAddress,omitempty"`
	CurrentAddress string `json:"currentAddress,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Checklist holds the coordinator's completion flags
type Checklist struct {
	ClearanceChecked  bool `json:"clearance_checked"`
	MOAChecked        bool `json:"moa_checked"`
	RecordFileChecked bool `json:"record_file_checked"`
}

// StudentProfile is the aggregate of a student's personal data and documents
type StudentProfile struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	PersonalData  PersonalData  `json:"personalData"`
	Documents     []Document    `json:"documents"`
	Checklist     Checklist     `json:"coordinatorChecklist"`
	OverallStatus OverallStatus `json:"overallStatus"`
	Version       int           `json:"version"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// DocumentByID returns the index of the document with the given id, or -1
func (p *StudentProfile) DocumentByID(id uuid.UUID) int {
	for i := range p.Documents {
		if p.Documents[i].ID == id {
			return i
		}
	}
	return -1
}

// DocumentByType returns the index of the document of the given type, or -1
func (p *StudentProfile) DocumentByType(t DocType) int {
	for i := range p.Documents {
		if p.Documents[i].DocType == t {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without touching the original
func (p StudentProfile) Clone() StudentProfile {
	docs := make([]Document, len(p.Documents))
	for i, d := range p.Documents {
		d.Comments = append(make([]Comment, 0, len(d.Comments)), d.Comments...)
		docs[i] = d
	}
	p.Documents = docs
	return p
}

// StudentSummary is one row of a reviewer's student list
type StudentSummary struct {
	ProfileID     int64         `json:"profileId"`
	UserID        int64         `json:"userId"`
	Email         string        `json:"email"`
	Status        AccountStatus `json:"accountStatus"`
	PersonalData  PersonalData  `json:"personalData"`
	OverallStatus OverallStatus `json:"overallStatus"`
	DocumentCount int           `json:"documentCount"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// PersonalDataPatch carries the personal data fields a request wants to change
type PersonalDataPatch struct {
	StudentID      *string `json:"studentId"`
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	Surname        *string `json:"surname"`
	GivenName      *string `json:"givenName"`
	MiddleName     *string `json:"middleName"`
	DateOfBirth    *string `json:"dateOfBirth"`
	CivilStatus    *string `json:"civilStatus"`
	Sex            *string `json:"sex"`
	Course         *string `json:"course"`
	Major          *string `json:"major"`
	YearSection    *string `json:"yearSection"`
	ContactNumber  *string `json:"contactNumber"`
	GuardianName   *string `json:"guardianName"`
	HomeAddress    *string `json:"homeAddress"`
	CurrentAddress *string `json:"currentAddress"`
}

// ChecklistPatch carries the checklist flags a request wants to change
type ChecklistPatch struct {
	ClearanceChecked  *bool `json:"clearance_checked"`
	MOAChecked        *bool `json:"moa_checked"`
	RecordFileChecked *bool `json:"record_file_checked"`
}
