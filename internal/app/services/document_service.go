package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// DocumentService serves the document catalog and the per-document comment threads
type DocumentService interface {
	Catalog(ctx context.Context) *dto.CatalogResponse
	AddComment(ctx context.Context, actor *appauth.Actor, docID uuid.UUID, content string) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *appauth.Actor, docID, commentID uuid.UUID) error
}

type documentServiceImpl struct {
	users     UserStore
	profiles  ProfileStore
	mutator   profileMutator
	templates TemplateLookup
	now       func() time.Time
	logger    zerolog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(users UserStore, profiles ProfileStore, templates TemplateLookup, logger zerolog.Logger) DocumentService {
	return &documentServiceImpl{
		users:     users,
		profiles:  profiles,
		mutator:   profileMutator{profiles: profiles, logger: logger},
		templates: templates,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// Catalog lists every document type by group and flags those with a downloadable template
func (s *documentServiceImpl) Catalog(_ context.Context) *dto.CatalogResponse {
	available := map[models.DocType]bool{}
	for _, t := range s.templates.Available() {
		available[t] = true
	}

	groups := models.DocumentGroups()
	resp := &dto.CatalogResponse{Groups: make([]dto.CatalogGroup, 0, len(groups))}
	for _, g := range groups {
		group := dto.CatalogGroup{Key: g.Key, Title: g.Title, Types: make([]dto.CatalogType, 0, len(g.Types))}
		for _, t := range g.Types {
			group.Types = append(group.Types, dto.CatalogType{
				Value:       string(t.Value),
				Label:       t.Label,
				HasTemplate: available[t.Value],
			})
		}
		resp.Groups = append(resp.Groups, group)
	}
	return resp
}

// profileForComment finds the profile holding docID.
// Students only see their own documents; anyone else's is reported as missing.
func (s *documentServiceImpl) profileForComment(ctx context.Context, actor *appauth.Actor, docID uuid.UUID) (*models.StudentProfile, error) {
	p, err := s.profiles.FindByDocumentID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if actor.Role() == models.RoleStudent && actor.ProfileID != p.ID {
		return nil, apperrors.ErrDocumentNotFound
	}
	return p, nil
}

// AddComment appends to a document's thread
func (s *documentServiceImpl) AddComment(ctx context.Context, actor *appauth.Actor, docID uuid.UUID, content string) (*dto.CommentResponse, error) {
	owner, err := s.profileForComment(ctx, actor, docID)
	if err != nil {
		return nil, err
	}

	var comment models.Comment
	_, err = s.mutator.apply(ctx, s.mutator.byID(owner.ID), func(p models.StudentProfile) (models.StudentProfile, error) {
		next, c, err := workflow.AddDocumentComment(p, docID, actor.ID(), content, s.now())
		comment = c
		return next, err
	})
	if err != nil {
		return nil, err
	}

	resolver := newAuthorResolver(s.users, s.profiles, s.logger)
	if actor.ProfileID == owner.ID {
		resolver.seed(actor.User, owner)
	}
	resp := resolver.comments(ctx, []models.Comment{comment})[0]
	return &resp, nil
}

// DeleteComment removes a comment; only its author may do so
func (s *documentServiceImpl) DeleteComment(ctx context.Context, actor *appauth.Actor, docID, commentID uuid.UUID) error {
	owner, err := s.profileForComment(ctx, actor, docID)
	if err != nil {
		return err
	}

	_, err = s.mutator.apply(ctx, s.mutator.byID(owner.ID), func(p models.StudentProfile) (models.StudentProfile, error) {
		return workflow.DeleteDocumentComment(p, docID, commentID, actor.ID())
	})
	return err
}
