package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/websocket"
	"github.com/rs/zerolog"
)

// AnnouncementService manages coordinator announcements and their comments
type AnnouncementService interface {
	List(ctx context.Context) ([]dto.AnnouncementResponse, error)
	Create(ctx context.Context, actor *appauth.Actor, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error)
	Delete(ctx context.Context, actor *appauth.Actor, id int64) error
	AddComment(ctx context.Context, actor *appauth.Actor, id int64, content string) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *appauth.Actor, id int64, commentID uuid.UUID) error
}

type announcementServiceImpl struct {
	announcements AnnouncementStore
	users         UserStore
	profiles      ProfileStore
	feed          Broadcaster
	publisher     events.Publisher
	now           func() time.Time
	logger        zerolog.Logger
}

// NewAnnouncementService creates a new AnnouncementService
func NewAnnouncementService(
	announcements AnnouncementStore,
	users UserStore,
	profiles ProfileStore,
	feed Broadcaster,
	publisher events.Publisher,
	logger zerolog.Logger,
) AnnouncementService {
	return &announcementServiceImpl{
		announcements: announcements,
		users:         users,
		profiles:      profiles,
		feed:          feed,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

func (s *announcementServiceImpl) resolver(actor *appauth.Actor) *authorResolver {
	r := newAuthorResolver(s.users, s.profiles, s.logger)
	if actor != nil && actor.ProfileID == 0 {
		r.seed(actor.User, nil)
	}
	return r
}

func (s *announcementServiceImpl) broadcast(msgType string, id int64, payload interface{}) {
	if s.feed == nil {
		return
	}
	s.feed.Broadcast(websocket.Message{Type: msgType, AnnouncementID: id, Payload: payload, Timestamp: s.now()})
}

// List returns every announcement, newest first
func (s *announcementServiceImpl) List(ctx context.Context) ([]dto.AnnouncementResponse, error) {
	items, err := s.announcements.List(ctx)
	if err != nil {
		return nil, err
	}

	r := s.resolver(nil)
	out := make([]dto.AnnouncementResponse, 0, len(items))
	for _, a := range items {
		out = append(out, r.announcement(ctx, a))
	}
	return out, nil
}

// Create posts a new announcement and pushes it to the live feed
func (s *announcementServiceImpl) Create(ctx context.Context, actor *appauth.Actor, req *dto.CreateAnnouncementRequest) (*dto.AnnouncementResponse, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return nil, apperrors.NewValidationError("title and content are required")
	}

	a := &models.Announcement{
		Title:    title,
		Content:  content,
		AuthorID: actor.ID(),
		Comments: []models.Comment{},
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}

	resp := s.resolver(actor).announcement(ctx, *a)
	s.broadcast(websocket.MessageAnnouncementCreated, a.ID, resp)
	publishEvent(ctx, s.publisher, s.logger, events.New(events.TypeAnnouncementCreated, 0, actor.ID(),
		map[string]interface{}{"announcementId": a.ID, "title": a.Title}))

	s.logger.Info().Int64("announcementID", a.ID).Int64("authorID", actor.ID()).Msg("Announcement posted")
	return &resp, nil
}

// Delete removes an announcement with its comments
func (s *announcementServiceImpl) Delete(ctx context.Context, actor *appauth.Actor, id int64) error {
	if err := s.announcements.Delete(ctx, id); err != nil {
		return err
	}

	s.broadcast(websocket.MessageAnnouncementDeleted, id, nil)
	s.logger.Info().Int64("announcementID", id).Int64("by", actor.ID()).Msg("Announcement deleted")
	return nil
}

// AddComment appends a comment from any signed-in user
func (s *announcementServiceImpl) AddComment(ctx context.Context, actor *appauth.Actor, id int64, content string) (*dto.CommentResponse, error) {
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	_, comment, err := workflow.AppendComment(a.Comments, actor.ID(), content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.announcements.AddComment(ctx, id, comment); err != nil {
		return nil, err
	}

	resp := s.resolver(actor).comments(ctx, []models.Comment{comment})[0]
	s.broadcast(websocket.MessageCommentAdded, id, resp)
	return &resp, nil
}

// DeleteComment removes a comment; only its author may do so
func (s *announcementServiceImpl) DeleteComment(ctx context.Context, actor *appauth.Actor, id int64, commentID uuid.UUID) error {
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := workflow.RemoveComment(a.Comments, commentID, actor.ID()); err != nil {
		return err
	}
	if err := s.announcements.DeleteComment(ctx, id, commentID); err != nil {
		return err
	}

	s.broadcast(websocket.MessageCommentDeleted, id, map[string]interface{}{"commentId": commentID})
	return nil
}
