package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/repositories"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/email"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// ReviewService covers the coordinator and director side of the workflow
type ReviewService interface {
	PendingStudents(ctx context.Context) ([]models.StudentSummary, error)
	ApproveStudent(ctx context.Context, actor *appauth.Actor, userID int64) (*dto.UserResponse, error)
	RejectStudent(ctx context.Context, actor *appauth.Actor, userID int64) (*dto.UserResponse, error)
	ListStudents(ctx context.Context, status models.OverallStatus) ([]models.StudentSummary, error)
	ReviewList(ctx context.Context) ([]models.StudentSummary, error)
	StudentDetail(ctx context.Context, profileID int64) (*dto.ProfileResponse, error)
	UpdateChecklist(ctx context.Context, actor *appauth.Actor, profileID int64, patch models.ChecklistPatch) (*dto.ProfileResponse, error)
	SetDocumentStatus(ctx context.Context, actor *appauth.Actor, docID uuid.UUID, status models.DocumentStatus) (*dto.StatusChangeResponse, error)
	MarkDone(ctx context.Context, actor *appauth.Actor, profileID int64) (*dto.StatusChangeResponse, error)
	Complete(ctx context.Context, actor *appauth.Actor, profileID int64) (*dto.StatusChangeResponse, error)
}

type reviewServiceImpl struct {
	users     UserStore
	profiles  ProfileStore
	mutator   profileMutator
	mailer    email.EmailService
	publisher events.Publisher
	logger    zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(users UserStore, profiles ProfileStore, mailer email.EmailService, publisher events.Publisher, logger zerolog.Logger) ReviewService {
	return &reviewServiceImpl{
		users:     users,
		profiles:  profiles,
		mutator:   profileMutator{profiles: profiles, logger: logger},
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

// PendingStudents lists registrations awaiting a decision
func (s *reviewServiceImpl) PendingStudents(ctx context.Context) ([]models.StudentSummary, error) {
	return s.profiles.ListSummaries(ctx, repositories.ProfileFilter{AccountStatus: models.AccountPending})
}

// loadStudent returns a student account; other roles are reported as not found
func (s *reviewServiceImpl) loadStudent(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleStudent {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

// notifyDecision emails the student and publishes the account decision
func (s *reviewServiceImpl) notifyDecision(ctx context.Context, actor *appauth.Actor, user *models.User, eventType string) {
	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Msg("Student has no profile")
		profile = nil
	}
	name := workflow.DisplayName(user, profile)

	send := s.mailer.SendAccountApproved
	if eventType == events.TypeStudentRejected {
		send = s.mailer.SendAccountRejected
	}
	if err := send(user.Email, name); err != nil {
		s.logger.Warn().Err(err).Int64("userID", user.ID).Str("type", eventType).Msg("Failed to send account email")
	}

	var profileID int64
	if profile != nil {
		profileID = profile.ID
	}
	publishEvent(ctx, s.publisher, s.logger, events.New(eventType, profileID, actor.ID(), map[string]interface{}{"userId": user.ID}))
}

// ApproveStudent activates a student account. Approving an active account changes nothing.
func (s *reviewServiceImpl) ApproveStudent(ctx context.Context, actor *appauth.Actor, userID int64) (*dto.UserResponse, error) {
	user, err := s.loadStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsActive() {
		resp := toUserResponse(user, nil)
		return &resp, nil
	}

	if err := s.users.UpdateStatus(ctx, user.ID, models.AccountActive); err != nil {
		return nil, err
	}
	user.Status = models.AccountActive

	s.notifyDecision(ctx, actor, user, events.TypeStudentApproved)

	s.logger.Info().Int64("userID", user.ID).Int64("approvedBy", actor.ID()).Msg("Student approved")
	resp := toUserResponse(user, nil)
	return &resp, nil
}

// RejectStudent declines a pending registration
func (s *reviewServiceImpl) RejectStudent(ctx context.Context, actor *appauth.Actor, userID int64) (*dto.UserResponse, error) {
	user, err := s.loadStudent(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != models.AccountPending {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidTransition,
			fmt.Sprintf("only pending accounts can be rejected, account is %s", user.Status))
	}

	if err := s.users.UpdateStatus(ctx, user.ID, models.AccountRejected); err != nil {
		return nil, err
	}
	user.Status = models.AccountRejected

	s.notifyDecision(ctx, actor, user, events.TypeStudentRejected)

	s.logger.Info().Int64("userID", user.ID).Int64("rejectedBy", actor.ID()).Msg("Student rejected")
	resp := toUserResponse(user, nil)
	return &resp, nil
}

// ListStudents lists active students, optionally narrowed to one effective overall status
func (s *reviewServiceImpl) ListStudents(ctx context.Context, status models.OverallStatus) ([]models.StudentSummary, error) {
	if status != "" && !status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown overall status %q", status))
	}
	return s.profiles.ListSummaries(ctx, repositories.ProfileFilter{AccountStatus: models.AccountActive, Status: status})
}

// ReviewList is the director's queue
func (s *reviewServiceImpl) ReviewList(ctx context.Context) ([]models.StudentSummary, error) {
	return s.profiles.ListSummaries(ctx, repositories.ProfileFilter{
		AccountStatus: models.AccountActive,
		Status:        models.OverallPendingDirectorReview,
	})
}

// StudentDetail returns one profile as a reviewer sees it
func (s *reviewServiceImpl) StudentDetail(ctx context.Context, profileID int64) (*dto.ProfileResponse, error) {
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, p), nil
}

func (s *reviewServiceImpl) present(ctx context.Context, p *models.StudentProfile) *dto.ProfileResponse {
	owner, err := s.users.GetUserByID(ctx, p.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("profileID", p.ID).Msg("Failed to load profile owner")
		owner = nil
	}
	return newAuthorResolver(s.users, s.profiles, s.logger).profile(ctx, p, owner)
}

// UpdateChecklist writes the checklist flags present in patch
func (s *reviewServiceImpl) UpdateChecklist(ctx context.Context, actor *appauth.Actor, profileID int64, patch models.ChecklistPatch) (*dto.ProfileResponse, error) {
	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next := p.Clone()
		next.Checklist = workflow.MergeChecklist(p.Checklist, patch)
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("profileID", profileID).Int64("by", actor.ID()).Msg("Checklist updated")
	return s.present(ctx, updated), nil
}

// SetDocumentStatus applies a reviewer's decision on one document
func (s *reviewServiceImpl) SetDocumentStatus(ctx context.Context, actor *appauth.Actor, docID uuid.UUID, status models.DocumentStatus) (*dto.StatusChangeResponse, error) {
	owner, err := s.profiles.FindByDocumentID(ctx, docID)
	if err != nil {
		return nil, err
	}

	var transition workflow.Transition
	updated, err := s.mutator.apply(ctx, s.mutator.byID(owner.ID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next, t, err := workflow.SetDocumentStatus(p, docID, status, actor.Role())
		transition = t
		return next, err
	})
	if err != nil {
		return nil, err
	}

	metrics.DocumentTransitions.WithLabelValues(string(transition.From), string(transition.To), string(transition.ActorRole)).Inc()
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeDocumentStatus, updated.ID, actor.ID(), transition))
	if transition.OverallAfter != transition.OverallBefore {
		recordProfileTransition(ctx, s.publisher, s.logger, updated, actor.ID())
	}

	s.logger.Info().
		Int64("profileID", updated.ID).
		Str("documentID", docID.String()).
		Str("from", string(transition.From)).
		Str("to", string(transition.To)).
		Str("role", string(transition.ActorRole)).
		Msg("Document status changed")

	docStatus := transition.To
	return &dto.StatusChangeResponse{
		ProfileID:      updated.ID,
		DocumentID:     docID.String(),
		DocumentStatus: &docStatus,
		OverallStatus:  workflow.EffectiveStatus(*updated),
		Message:        fmt.Sprintf("Document marked %s", transition.To),
	}, nil
}

// MarkDone sends a profile on to the director
func (s *reviewServiceImpl) MarkDone(ctx context.Context, actor *appauth.Actor, profileID int64) (*dto.StatusChangeResponse, error) {
	return s.changeOverall(ctx, actor, profileID, workflow.MarkDone, "Profile sent to the director for review")
}

// Complete is the director's final approval
func (s *reviewServiceImpl) Complete(ctx context.Context, actor *appauth.Actor, profileID int64) (*dto.StatusChangeResponse, error) {
	return s.changeOverall(ctx, actor, profileID, workflow.Complete, "Profile completed")
}

func (s *reviewServiceImpl) changeOverall(ctx context.Context, actor *appauth.Actor, profileID int64, change profileChange, message string) (*dto.StatusChangeResponse, error) {
	updated, err := s.mutator.apply(ctx, s.mutator.byID(profileID), change)
	if err != nil {
		return nil, err
	}

	recordProfileTransition(ctx, s.publisher, s.logger, updated, actor.ID())
	return &dto.StatusChangeResponse{
		ProfileID:     updated.ID,
		OverallStatus: workflow.EffectiveStatus(*updated),
		Message:       message,
	}, nil
}
