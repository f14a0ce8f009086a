package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStudentService(f *fixture, rec *events.Recorder) StudentService {
	svc := NewStudentService(f.users, f.profiles, f.store, fakeTemplates{available: []models.DocType{models.DocMOA}}, rec, testLimits, zerolog.Nop())
	svc.(*studentServiceImpl).now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestUploadDocumentCreatesEntry(t *testing.T) {
	f := newFixture()
	rec := &events.Recorder{}
	svc := newTestStudentService(f, rec)
	actor := f.student(t, "ana@school.edu")

	resp, err := svc.UploadDocument(context.Background(), actor, models.DocMOA, pdfUpload("moa.pdf"))
	require.NoError(t, err)
	assert.False(t, resp.Replaced)
	assert.Equal(t, models.DocumentSubmitted, resp.Document.Status)
	assert.Equal(t, "moa.pdf", resp.Document.FileName)
	assert.Equal(t, models.DocMOA.Label(), resp.Document.Label)

	p := f.profiles.get(actor.ProfileID)
	require.Len(t, p.Documents, 1)
	assert.True(t, f.store.has(p.Documents[0].StorageKey))
	assert.Equal(t, []string{events.TypeDocumentUploaded}, rec.Types())
}

func TestReuploadKeepsIdentityAndComments(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	first, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("v1.pdf"))
	require.NoError(t, err)

	// A reviewer flags it and leaves a comment
	p := f.profiles.get(actor.ProfileID)
	oldKey := p.Documents[0].StorageKey
	p.Documents[0].Status = models.DocumentForRevision
	p.Documents[0].Comments = []models.Comment{{ID: uuid.New(), AuthorID: 99, Content: "wrong signatory"}}
	require.NoError(t, f.profiles.Update(ctx, &p))

	second, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("v2.pdf"))
	require.NoError(t, err)
	assert.True(t, second.Replaced)
	assert.Equal(t, first.Document.ID, second.Document.ID)
	assert.Equal(t, models.DocumentSubmitted, second.Document.Status)
	assert.Equal(t, "v2.pdf", second.Document.FileName)
	require.Len(t, second.Document.Comments, 1)
	assert.Equal(t, "wrong signatory", second.Document.Comments[0].Content)

	after := f.profiles.get(actor.ProfileID)
	assert.Len(t, after.Documents, 1)
	assert.False(t, f.store.has(oldKey), "replaced file is removed")
	assert.Equal(t, 1, f.store.count())
}

func TestUploadDocumentRejections(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	t.Run("unknown type", func(t *testing.T) {
		_, err := svc.UploadDocument(ctx, actor, models.DocType("diploma"), pdfUpload("x.pdf"))
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("too large", func(t *testing.T) {
		up := pdfUpload("big.pdf")
		up.Size = testLimits.MaxDocumentSize + 1
		_, err := svc.UploadDocument(ctx, actor, models.DocMOA, up)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("disallowed type", func(t *testing.T) {
		up := pdfUpload("run.exe")
		up.ContentType = "application/x-msdownload"
		_, err := svc.UploadDocument(ctx, actor, models.DocMOA, up)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("storage outage", func(t *testing.T) {
		f.store.failErr = errors.New("disk full")
		defer func() { f.store.failErr = nil }()
		_, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("x.pdf"))
		assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	})

	assert.Empty(t, f.profiles.get(actor.ProfileID).Documents)
	assert.Zero(t, f.store.count())
}

func TestUploadToCompletedProfileDiscardsFile(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	p := f.profiles.get(actor.ProfileID)
	p.OverallStatus = models.OverallCompleted
	require.NoError(t, f.profiles.Update(ctx, &p))

	_, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("late.pdf"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Zero(t, f.store.count())
}

func TestDeleteDocument(t *testing.T) {
	f := newFixture()
	rec := &events.Recorder{}
	svc := newTestStudentService(f, rec)
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	moa, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("moa.pdf"))
	require.NoError(t, err)
	_, err = svc.UploadDocument(ctx, actor, models.DocResume, pdfUpload("cv.pdf"))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteDocument(ctx, actor, moa.Document.ID))

	p := f.profiles.get(actor.ProfileID)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, models.DocResume, p.Documents[0].DocType)
	assert.Equal(t, 1, f.store.count())

	err = svc.DeleteDocument(ctx, actor, moa.Document.ID)
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
	assert.Contains(t, rec.Types(), events.TypeDocumentDeleted)

	p.OverallStatus = models.OverallCompleted
	require.NoError(t, f.profiles.Update(ctx, &p))
	err = svc.DeleteDocument(ctx, actor, p.Documents[0].ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Len(t, f.profiles.get(actor.ProfileID).Documents, 1)
	assert.Equal(t, 1, f.store.count())
}

func TestSubmitForReview(t *testing.T) {
	f := newFixture()
	rec := &events.Recorder{}
	svc := newTestStudentService(f, rec)
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	_, err := svc.SubmitForReview(ctx, actor)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "nothing uploaded yet")

	_, err = svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("moa.pdf"))
	require.NoError(t, err)

	resp, err := svc.SubmitForReview(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, models.OverallPendingCoordinatorReview, resp.OverallStatus)
	assert.Contains(t, rec.Types(), events.TypeProfileStatus)

	_, err = svc.SubmitForReview(ctx, actor)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestUpdatePersonalDataOnlyTouchesGivenFields(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")

	course := "BSIT"
	resp, err := svc.UpdatePersonalData(context.Background(), actor, models.PersonalDataPatch{Course: &course})
	require.NoError(t, err)
	assert.Equal(t, "BSIT", resp.PersonalData.Course)
	assert.Equal(t, "Ana", resp.PersonalData.FirstName)
	assert.Equal(t, 2, resp.Version)
}

func TestUpdateProfilePicture(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")
	ctx := context.Background()

	first, err := svc.UpdateProfilePicture(ctx, actor, pngUpload(t))
	require.NoError(t, err)
	assert.Contains(t, first.ProfilePicture, "/uploads/avatars/")
	assert.Equal(t, 1, f.store.count())

	second, err := svc.UpdateProfilePicture(ctx, actor, pngUpload(t))
	require.NoError(t, err)
	assert.NotEqual(t, first.ProfilePicture, second.ProfilePicture)
	assert.Equal(t, 1, f.store.count(), "previous avatar is removed")

	notImage := Upload{Reader: bytes.NewReader([]byte("hello")), Size: 5, Name: "x.png", ContentType: "image/png"}
	_, err = svc.UpdateProfilePicture(ctx, actor, notImage)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestListDocumentCommentsResolvesAuthors(t *testing.T) {
	f := newFixture()
	svc := newTestStudentService(f, &events.Recorder{})
	actor := f.student(t, "ana@school.edu")
	coord := f.staff(t, models.RoleCoordinator, "Reyes")
	ctx := context.Background()

	up, err := svc.UploadDocument(ctx, actor, models.DocMOA, pdfUpload("moa.pdf"))
	require.NoError(t, err)

	p := f.profiles.get(actor.ProfileID)
	p.Documents[0].Comments = []models.Comment{
		{ID: uuid.New(), AuthorID: coord.ID(), Content: "please sign"},
		{ID: uuid.New(), AuthorID: actor.ID(), Content: "done"},
		{ID: uuid.New(), AuthorID: 12345, Content: "orphan"},
	}
	require.NoError(t, f.profiles.Update(ctx, &p))

	comments, err := svc.ListDocumentComments(ctx, actor, up.Document.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, "Reyes", comments[0].Author.Name)
	assert.Equal(t, "Ana Cruz", comments[1].Author.Name)
	assert.Equal(t, "User", comments[2].Author.Name)

	_, err = svc.ListDocumentComments(ctx, actor, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrDocumentNotFound)
}

func TestTemplateLookup(t *testing.T) {
	svc := newTestStudentService(newFixture(), &events.Recorder{})

	tpl, err := svc.Template(context.Background(), models.DocMOA)
	require.NoError(t, err)
	assert.Equal(t, models.DocMOA.TemplateFileName(), tpl.DownloadName)

	_, err = svc.Template(context.Background(), models.DocResume)
	assert.ErrorIs(t, err, apperrors.ErrTemplateNotFound)
}

func TestStudentWithoutProfile(t *testing.T) {
	svc := newTestStudentService(newFixture(), &events.Recorder{})
	actor := &appauth.Actor{User: &models.User{ID: 7, Role: models.RoleStudent, Status: models.AccountActive}}
	_, err := svc.GetMyProfile(context.Background(), actor)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}
