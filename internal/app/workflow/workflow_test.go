package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func profileWith(t *testing.T, types ...models.DocType) models.StudentProfile {
	t.Helper()
	p := NewProfile(7, models.PersonalData{FirstName: "Ana"})
	p.ID = 3
	for _, dt := range types {
		var err error
		p, _, err = UpsertDocument(p, dt, FileRef{Name: string(dt) + ".pdf", URL: "/uploads/" + string(dt), Key: string(dt)}, now)
		require.NoError(t, err)
	}
	return p
}

func TestUpsertDocumentAddsSubmittedEntry(t *testing.T) {
	p := profileWith(t)

	next, replaced, err := UpsertDocument(p, models.DocResume, FileRef{Name: "cv.pdf", URL: "/u/cv.pdf", Key: "cv"}, now)
	require.NoError(t, err)

	assert.Nil(t, replaced)
	assert.Empty(t, p.Documents, "input profile must not be mutated")
	require.Len(t, next.Documents, 1)
	doc := next.Documents[0]
	assert.Equal(t, models.DocResume, doc.DocType)
	assert.Equal(t, models.DocumentSubmitted, doc.Status)
	assert.Equal(t, "cv.pdf", doc.FileName)
	assert.Equal(t, now, doc.UploadDate)
	assert.NotEqual(t, uuid.Nil, doc.ID)
}

func TestReuploadReplacesInPlaceAndKeepsThread(t *testing.T) {
	p := profileWith(t, models.DocResume, models.DocMOA)
	docID := p.Documents[0].ID

	p, _, err := SetDocumentStatus(p, docID, models.DocumentChecked, models.RoleCoordinator)
	require.NoError(t, err)
	p, _, err = SetDocumentStatus(p, docID, models.DocumentForRevision, models.RoleCoordinator)
	require.NoError(t, err)
	p, _, err = AddDocumentComment(p, docID, 99, "wrong page order", now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	next, replaced, err := UpsertDocument(p, models.DocResume, FileRef{Name: "cv-v2.pdf", URL: "/u/v2", Key: "v2"}, later)
	require.NoError(t, err)

	require.NotNil(t, replaced)
	assert.Equal(t, models.DocResume, replaced.DocType)
	assert.Equal(t, "resume", replaced.StorageKey)

	require.Len(t, next.Documents, 2)
	doc := next.Documents[0]
	assert.Equal(t, docID, doc.ID)
	assert.Equal(t, models.DocumentSubmitted, doc.Status)
	assert.Equal(t, "cv-v2.pdf", doc.FileName)
	assert.Equal(t, later, doc.UploadDate)
	require.Len(t, doc.Comments, 1)
	assert.Equal(t, "wrong page order", doc.Comments[0].Content)
}

func TestUpsertDocumentRejectsUnknownTypeAndCompletedProfile(t *testing.T) {
	p := profileWith(t)

	_, _, err := UpsertDocument(p, models.DocType("passport"), FileRef{}, now)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	p.OverallStatus = models.OverallCompleted
	_, _, err = UpsertDocument(p, models.DocResume, FileRef{}, now)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRemoveDocumentOnlyRemovesTarget(t *testing.T) {
	p := profileWith(t, models.DocResume, models.DocMOA, models.DocWaiver)
	target := p.Documents[1].ID

	next, removed, err := RemoveDocument(p, target)
	require.NoError(t, err)

	assert.Equal(t, models.DocMOA, removed.DocType)
	require.Len(t, next.Documents, 2)
	assert.Equal(t, p.Documents[0], next.Documents[0])
	assert.Equal(t, p.Documents[2], next.Documents[1])
	assert.Len(t, p.Documents, 3)

	_, _, err = RemoveDocument(next, target)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestRemoveDocumentFromCompletedProfile(t *testing.T) {
	p := profileWith(t, models.DocResume, models.DocMOA)
	p.OverallStatus = models.OverallCompleted

	next, _, err := RemoveDocument(p, p.Documents[1].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Len(t, next.Documents, 2)
}

func TestCoordinatorTransitions(t *testing.T) {
	tests := []struct {
		from, to models.DocumentStatus
		allowed  bool
	}{
		{models.DocumentSubmitted, models.DocumentChecked, true},
		{models.DocumentChecked, models.DocumentForRevision, true},
		{models.DocumentChecked, models.DocumentDone, true},
		{models.DocumentForRevision, models.DocumentDone, true},
		{models.DocumentChecked, models.DocumentChecked, true},
		{models.DocumentSubmitted, models.DocumentDone, false},
		{models.DocumentSubmitted, models.DocumentForRevision, false},
		{models.DocumentDone, models.DocumentSubmitted, false},
		{models.DocumentForRevision, models.DocumentChecked, false},
		{models.DocumentChecked, models.DocumentStatus("Lost"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(models.RoleCoordinator, tt.from, tt.to))
		})
	}
}

func TestDirectorMayOverrideAnyStatus(t *testing.T) {
	p := profileWith(t, models.DocResume)
	docID := p.Documents[0].ID

	p, tr, err := SetDocumentStatus(p, docID, models.DocumentDone, models.RoleDirector)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentSubmitted, tr.From)
	assert.Equal(t, models.DocumentDone, tr.To)

	p, _, err = SetDocumentStatus(p, docID, models.DocumentSubmitted, models.RoleDirector)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentSubmitted, p.Documents[0].Status)
}

func TestInvalidCoordinatorTransitionIsRejected(t *testing.T) {
	p := profileWith(t, models.DocResume)

	next, _, err := SetDocumentStatus(p, p.Documents[0].ID, models.DocumentDone, models.RoleCoordinator)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, models.DocumentSubmitted, next.Documents[0].Status)
}

func TestStudentCannotSetStatus(t *testing.T) {
	p := profileWith(t, models.DocResume)

	_, _, err := SetDocumentStatus(p, p.Documents[0].ID, models.DocumentChecked, models.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSetStatusUnknownDocument(t *testing.T) {
	p := profileWith(t, models.DocResume)

	_, _, err := SetDocumentStatus(p, uuid.New(), models.DocumentChecked, models.RoleCoordinator)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestCheckingMOAAdvancesProfileRegardlessOfPriorStatus(t *testing.T) {
	for _, prior := range []models.OverallStatus{
		models.OverallSubmitting,
		models.OverallPendingCoordinatorReview,
		models.OverallPendingDirectorReview,
		models.OverallCompleted,
	} {
		t.Run(string(prior), func(t *testing.T) {
			for _, role := range []models.Role{models.RoleCoordinator, models.RoleDirector} {
				p := profileWith(t, models.DocResume, models.DocMOA)
				p.OverallStatus = prior

				next, tr, err := SetDocumentStatus(p, p.Documents[1].ID, models.DocumentChecked, role)
				require.NoError(t, err)
				assert.Equal(t, models.OverallPendingDirectorReview, next.OverallStatus)
				assert.Equal(t, prior, tr.OverallBefore)
				assert.Equal(t, models.OverallPendingDirectorReview, tr.OverallAfter)
			}
		})
	}
}

func TestCheckingOtherDocumentsLeavesProfileStatus(t *testing.T) {
	p := profileWith(t, models.DocResume, models.DocMOA)

	next, _, err := SetDocumentStatus(p, p.Documents[0].ID, models.DocumentChecked, models.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, models.OverallSubmitting, next.OverallStatus)

	moaID := p.Documents[1].ID
	next, _, err = SetDocumentStatus(next, moaID, models.DocumentChecked, models.RoleCoordinator)
	require.NoError(t, err)
	next.OverallStatus = models.OverallPendingCoordinatorReview
	next, _, err = SetDocumentStatus(next, moaID, models.DocumentDone, models.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, models.OverallPendingCoordinatorReview, next.OverallStatus)
}

func TestRepeatedMOACheckStillAppliesSideEffect(t *testing.T) {
	p := profileWith(t, models.DocMOA)
	p, _, err := SetDocumentStatus(p, p.Documents[0].ID, models.DocumentChecked, models.RoleCoordinator)
	require.NoError(t, err)
	p.OverallStatus = models.OverallPendingCoordinatorReview

	next, _, err := SetDocumentStatus(p, p.Documents[0].ID, models.DocumentChecked, models.RoleCoordinator)
	require.NoError(t, err)
	assert.Equal(t, models.OverallPendingDirectorReview, next.OverallStatus)
}

func TestMergeChecklistKeepsUnsetFlags(t *testing.T) {
	prior := models.Checklist{MOAChecked: true, RecordFileChecked: false}

	merged := MergeChecklist(prior, models.ChecklistPatch{ClearanceChecked: boolPtr(true)})

	assert.Equal(t, models.Checklist{ClearanceChecked: true, MOAChecked: true, RecordFileChecked: false}, merged)

	merged = MergeChecklist(merged, models.ChecklistPatch{MOAChecked: boolPtr(false)})
	assert.Equal(t, models.Checklist{ClearanceChecked: true}, merged)
}

func TestMergePersonalData(t *testing.T) {
	prior := models.PersonalData{StudentID: "2021-001", FirstName: "Ana", Course: "BSIT"}

	merged := MergePersonalData(prior, models.PersonalDataPatch{
		LastName: strPtr("Cruz"),
		Course:   strPtr(""),
	})

	assert.Equal(t, "2021-001", merged.StudentID)
	assert.Equal(t, "Ana", merged.FirstName)
	assert.Equal(t, "Cruz", merged.LastName)
	assert.Empty(t, merged.Course)
}

func TestSubmitForReview(t *testing.T) {
	_, err := SubmitForReview(profileWith(t))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	p := profileWith(t, models.DocResume)
	next, err := SubmitForReview(p)
	require.NoError(t, err)
	assert.Equal(t, models.OverallPendingCoordinatorReview, next.OverallStatus)

	_, err = SubmitForReview(next)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	flagged := profileWith(t, models.DocResume)
	flagged.Documents[0].Status = models.DocumentForRevision
	_, err = SubmitForReview(flagged)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestMarkDoneAndComplete(t *testing.T) {
	p := profileWith(t, models.DocResume)

	_, err := Complete(p)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	p, err = MarkDone(p)
	require.NoError(t, err)
	assert.Equal(t, models.OverallPendingDirectorReview, p.OverallStatus)

	flagged := p.Clone()
	flagged.Documents[0].Status = models.DocumentForRevision
	_, err = Complete(flagged)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	p, err = Complete(p)
	require.NoError(t, err)
	assert.Equal(t, models.OverallCompleted, p.OverallStatus)

	_, err = MarkDone(p)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestEffectiveStatus(t *testing.T) {
	p := profileWith(t, models.DocResume)
	p.OverallStatus = models.OverallPendingCoordinatorReview
	assert.Equal(t, models.OverallPendingCoordinatorReview, EffectiveStatus(p))

	p.Documents[0].Status = models.DocumentForRevision
	assert.Equal(t, models.OverallRevisionNeeded, EffectiveStatus(p))

	p.OverallStatus = models.OverallCompleted
	assert.Equal(t, models.OverallCompleted, EffectiveStatus(p))
}

func TestCommentThread(t *testing.T) {
	p := profileWith(t, models.DocResume)
	docID := p.Documents[0].ID

	p, first, err := AddDocumentComment(p, docID, 10, "  please sign page 2 ", now)
	require.NoError(t, err)
	assert.Equal(t, "please sign page 2", first.Content)
	p, second, err := AddDocumentComment(p, docID, 11, "done", now)
	require.NoError(t, err)

	_, _, err = AddDocumentComment(p, docID, 10, "   ", now)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	unchanged, err := DeleteDocumentComment(p, docID, first.ID, 11)
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	assert.Len(t, unchanged.Documents[0].Comments, 2)

	p, err = DeleteDocumentComment(p, docID, first.ID, 10)
	require.NoError(t, err)
	require.Len(t, p.Documents[0].Comments, 1)
	assert.Equal(t, second.ID, p.Documents[0].Comments[0].ID)

	_, err = DeleteDocumentComment(p, docID, first.ID, 10)
	assert.ErrorIs(t, err, apperrors.ErrCommentNotFound)
}
