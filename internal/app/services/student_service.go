package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/imageproc"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/ojtetr/tracker/internal/pkg/templates"
	"github.com/ojtetr/tracker/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// TemplateLookup finds downloadable document templates
type TemplateLookup interface {
	Lookup(docType models.DocType) (templates.Template, error)
	Available() []models.DocType
}

// StudentService covers what a student does with their own profile
type StudentService interface {
	GetMyProfile(ctx context.Context, actor *appauth.Actor) (*dto.ProfileResponse, error)
	UploadDocument(ctx context.Context, actor *appauth.Actor, docType models.DocType, upload Upload) (*dto.UploadResponse, error)
	DeleteDocument(ctx context.Context, actor *appauth.Actor, docID uuid.UUID) error
	UpdatePersonalData(ctx context.Context, actor *appauth.Actor, patch models.PersonalDataPatch) (*dto.ProfileResponse, error)
	UpdateProfilePicture(ctx context.Context, actor *appauth.Actor, upload Upload) (*dto.ProfileResponse, error)
	SubmitForReview(ctx context.Context, actor *appauth.Actor) (*dto.StatusChangeResponse, error)
	ListDocumentComments(ctx context.Context, actor *appauth.Actor, docID uuid.UUID) ([]dto.CommentResponse, error)
	Template(ctx context.Context, docType models.DocType) (templates.Template, error)
}

type studentServiceImpl struct {
	users     UserStore
	profiles  ProfileStore
	mutator   profileMutator
	store     filestorage.BlobStore
	templates TemplateLookup
	publisher events.Publisher
	limits    UploadLimits
	now       func() time.Time
	logger    zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	users UserStore,
	profiles ProfileStore,
	store filestorage.BlobStore,
	templates TemplateLookup,
	publisher events.Publisher,
	limits UploadLimits,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		users:     users,
		profiles:  profiles,
		mutator:   profileMutator{profiles: profiles, logger: logger},
		store:     store,
		templates: templates,
		publisher: publisher,
		limits:    limits,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

func ownProfileID(actor *appauth.Actor) (int64, error) {
	if actor == nil || actor.ProfileID == 0 {
		return 0, apperrors.ErrProfileNotFound
	}
	return actor.ProfileID, nil
}

func (s *studentServiceImpl) present(ctx context.Context, actor *appauth.Actor, p *models.StudentProfile) *dto.ProfileResponse {
	return newAuthorResolver(s.users, s.profiles, s.logger).profile(ctx, p, actor.User)
}

// GetMyProfile returns the caller's profile with comment authors resolved
func (s *studentServiceImpl) GetMyProfile(ctx context.Context, actor *appauth.Actor) (*dto.ProfileResponse, error) {
	id, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, actor, p), nil
}

func checkUpload(upload Upload, maxSize int64, allowed map[string]bool, kind string) error {
	if upload.Reader == nil || upload.Size <= 0 {
		return apperrors.NewValidationError("no file uploaded")
	}
	if upload.Size > maxSize {
		return apperrors.NewValidationError(fmt.Sprintf("%s exceeds the %d MB limit", kind, maxSize>>20))
	}
	if !allowed[upload.ContentType] {
		return apperrors.NewValidationError(fmt.Sprintf("%s type %q is not allowed", kind, upload.ContentType))
	}
	return nil
}

// UploadDocument stores the file and adds or replaces the profile's entry for docType
func (s *studentServiceImpl) UploadDocument(ctx context.Context, actor *appauth.Actor, docType models.DocType, upload Upload) (*dto.UploadResponse, error) {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}
	if !docType.IsValid() {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, fmt.Sprintf("unknown document type %q", docType))
	}
	if err := checkUpload(upload, s.limits.MaxDocumentSize, validation.DocumentMIMETypes, "document"); err != nil {
		metrics.UploadsTotal.WithLabelValues("document", "rejected").Inc()
		return nil, err
	}

	obj, err := s.store.Save(ctx, upload.Reader, upload.Size, upload.Name, upload.ContentType, fmt.Sprintf("documents/%d", profileID))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("document", "error").Inc()
		s.logger.Error().Err(err).Int64("profileID", profileID).Msg("Failed to store document")
		return nil, apperrors.NewUpstreamError("failed to store document", err)
	}

	var previous *models.Document
	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next, prev, err := workflow.UpsertDocument(p, docType, workflow.FileRef{Name: upload.Name, URL: obj.URL, Key: obj.Key}, s.now())
		previous = prev
		return next, err
	})
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("document", "rejected").Inc()
		discardBlob(ctx, s.store, s.logger, obj.Key)
		return nil, err
	}

	if previous != nil && previous.StorageKey != obj.Key {
		discardBlob(ctx, s.store, s.logger, previous.StorageKey)
	}
	metrics.UploadsTotal.WithLabelValues("document", "stored").Inc()

	doc := updated.Documents[updated.DocumentByType(docType)]
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeDocumentUploaded, profileID, actor.ID(), map[string]interface{}{
		"documentId": doc.ID,
		"docType":    doc.DocType,
		"replaced":   previous != nil,
	}))

	s.logger.Info().Int64("profileID", profileID).Str("docType", string(docType)).Bool("replaced", previous != nil).Msg("Document uploaded")

	resolver := newAuthorResolver(s.users, s.profiles, s.logger)
	resolver.seed(actor.User, updated)
	return &dto.UploadResponse{Document: resolver.document(ctx, doc), Replaced: previous != nil}, nil
}

// DeleteDocument removes one of the caller's documents and its stored file
func (s *studentServiceImpl) DeleteDocument(ctx context.Context, actor *appauth.Actor, docID uuid.UUID) error {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return err
	}

	var removed models.Document
	_, err = s.mutator.apply(ctx, s.mutator.byID(profileID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next, doc, err := workflow.RemoveDocument(p, docID)
		removed = doc
		return next, err
	})
	if err != nil {
		return err
	}

	discardBlob(ctx, s.store, s.logger, removed.StorageKey)
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeDocumentDeleted, profileID, actor.ID(), map[string]interface{}{
		"documentId": removed.ID,
		"docType":    removed.DocType,
	}))
	return nil
}

// UpdatePersonalData writes the fields present in patch
func (s *studentServiceImpl) UpdatePersonalData(ctx context.Context, actor *appauth.Actor, patch models.PersonalDataPatch) (*dto.ProfileResponse, error) {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}

	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next := p.Clone()
		next.PersonalData = workflow.MergePersonalData(p.PersonalData, patch)
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	return s.present(ctx, actor, updated), nil
}

// UpdateProfilePicture stores a square, resized copy of the image as the student's avatar
func (s *studentServiceImpl) UpdateProfilePicture(ctx context.Context, actor *appauth.Actor, upload Upload) (*dto.ProfileResponse, error) {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}
	if err := checkUpload(upload, s.limits.MaxAvatarSize, validation.ImageMIMETypes, "image"); err != nil {
		metrics.UploadsTotal.WithLabelValues("avatar", "rejected").Inc()
		return nil, err
	}

	obj, err := storeAvatar(ctx, s.store, upload, s.limits.AvatarDimension, actor.ID())
	if err != nil {
		return nil, err
	}

	var oldURL string
	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), func(p models.StudentProfile) (models.StudentProfile, error) {
		oldURL = p.PersonalData.ProfilePicture
		next := p.Clone()
		next.PersonalData.ProfilePicture = obj.URL
		return next, nil
	})
	if err != nil {
		discardBlob(ctx, s.store, s.logger, obj.Key)
		return nil, err
	}

	if key, ok := filestorage.KeyFromURL(filestorage.PublicPath, oldURL); ok {
		discardBlob(ctx, s.store, s.logger, key)
	}
	return s.present(ctx, actor, updated), nil
}

// storeAvatar crops and resizes an uploaded image, then saves it under the user's avatar prefix
func storeAvatar(ctx context.Context, store filestorage.BlobStore, upload Upload, dim int, userID int64) (filestorage.Object, error) {
	data, err := imageproc.SquareAvatar(upload.Reader, dim)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("avatar", "rejected").Inc()
		if errors.Is(err, imageproc.ErrNotAnImage) {
			return filestorage.Object{}, apperrors.NewValidationError("uploaded file is not a valid image")
		}
		return filestorage.Object{}, fmt.Errorf("error processing image: %w", err)
	}

	obj, err := store.Save(ctx, bytes.NewReader(data), int64(len(data)), "avatar.jpg", imageproc.AvatarContentType, fmt.Sprintf("avatars/%d", userID))
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("avatar", "error").Inc()
		return filestorage.Object{}, apperrors.NewUpstreamError("failed to store image", err)
	}
	metrics.UploadsTotal.WithLabelValues("avatar", "stored").Inc()
	return obj, nil
}

// SubmitForReview hands the caller's profile to the coordinators
func (s *studentServiceImpl) SubmitForReview(ctx context.Context, actor *appauth.Actor) (*dto.StatusChangeResponse, error) {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}

	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), workflow.SubmitForReview)
	if err != nil {
		return nil, err
	}

	recordProfileTransition(ctx, s.publisher, s.logger, updated, actor.ID())
	return &dto.StatusChangeResponse{
		ProfileID:     profileID,
		OverallStatus: workflow.EffectiveStatus(*updated),
		Message:       "Profile submitted for coordinator review",
	}, nil
}

// ListDocumentComments returns the thread of one of the caller's documents
func (s *studentServiceImpl) ListDocumentComments(ctx context.Context, actor *appauth.Actor, docID uuid.UUID) ([]dto.CommentResponse, error) {
	profileID, err := ownProfileID(actor)
	if err != nil {
		return nil, err
	}

	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	i := p.DocumentByID(docID)
	if i < 0 {
		return nil, apperrors.ErrDocumentNotFound
	}

	resolver := newAuthorResolver(s.users, s.profiles, s.logger)
	resolver.seed(actor.User, p)
	return resolver.comments(ctx, p.Documents[i].Comments), nil
}

// Template finds the downloadable template for docType
func (s *studentServiceImpl) Template(_ context.Context, docType models.DocType) (templates.Template, error) {
	return s.templates.Lookup(docType)
}

func recordProfileTransition(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, p *models.StudentProfile, actorID int64) {
	metrics.ProfileTransitions.WithLabelValues(string(p.OverallStatus)).Inc()
	publishEvent(ctx, publisher, logger, events.New(events.TypeProfileStatus, p.ID, actorID, map[string]interface{}{
		"overallStatus": p.OverallStatus,
	}))
	logger.Info().Int64("profileID", p.ID).Str("status", string(p.OverallStatus)).Msg("Profile status changed")
}
