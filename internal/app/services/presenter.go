package services

import (
	"context"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// authorResolver looks up comment and announcement writers once per request
type authorResolver struct {
	users    UserStore
	profiles ProfileStore
	logger   zerolog.Logger
	cache    map[int64]workflow.Author
}

func newAuthorResolver(users UserStore, profiles ProfileStore, logger zerolog.Logger) *authorResolver {
	return &authorResolver{users: users, profiles: profiles, logger: logger, cache: map[int64]workflow.Author{}}
}

// seed records an author whose records the caller already holds
func (r *authorResolver) seed(u *models.User, p *models.StudentProfile) {
	if u != nil {
		r.cache[u.ID] = workflow.ResolveAuthor(u, p)
	}
}

// resolve never fails; an author that cannot be loaded is shown with the fallback identity
func (r *authorResolver) resolve(ctx context.Context, userID int64) workflow.Author {
	if a, ok := r.cache[userID]; ok {
		return a
	}

	user, err := r.users.GetUserByID(ctx, userID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrUserNotFound) {
			r.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to load comment author")
		}
		a := workflow.ResolveAuthor(nil, nil)
		r.cache[userID] = a
		return a
	}

	var profile *models.StudentProfile
	if user.Role == models.RoleStudent {
		profile, err = r.profiles.GetByUserID(ctx, user.ID)
		if err != nil && !apperrors.Is(err, apperrors.ErrProfileNotFound) {
			r.logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to load author profile")
		}
	}

	a := workflow.ResolveAuthor(user, profile)
	r.cache[userID] = a
	return a
}

func toAuthorSummary(a workflow.Author) dto.AuthorSummary {
	return dto.AuthorSummary{ID: a.ID, Name: a.Name, Avatar: a.Avatar, Role: a.Role}
}

func (r *authorResolver) comments(ctx context.Context, thread []models.Comment) []dto.CommentResponse {
	out := make([]dto.CommentResponse, 0, len(thread))
	for _, c := range thread {
		out = append(out, dto.CommentResponse{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Author:    toAuthorSummary(r.resolve(ctx, c.AuthorID)),
		})
	}
	return out
}

func (r *authorResolver) document(ctx context.Context, d models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:         d.ID,
		DocType:    d.DocType,
		Label:      d.DocType.Label(),
		FileName:   d.FileName,
		FileURL:    d.FileURL,
		Status:     d.Status,
		UploadDate: d.UploadDate,
		Comments:   r.comments(ctx, d.Comments),
	}
}

// profile builds the reader's view; owner may be nil when it could not be loaded
func (r *authorResolver) profile(ctx context.Context, p *models.StudentProfile, owner *models.User) *dto.ProfileResponse {
	r.seed(owner, p)

	docs := make([]dto.DocumentResponse, 0, len(p.Documents))
	for _, d := range p.Documents {
		docs = append(docs, r.document(ctx, d))
	}

	resp := &dto.ProfileResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		PersonalData:   p.PersonalData,
		Documents:      docs,
		Checklist:      p.Checklist,
		OverallStatus:  workflow.EffectiveStatus(*p),
		StoredStatus:   p.OverallStatus,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DisplayName:    workflow.DisplayName(owner, p),
		ProfilePicture: workflow.AvatarURL(owner, p),
	}
	if owner != nil {
		resp.Email = owner.Email
		resp.AccountStatus = owner.Status
	}
	return resp
}

func (r *authorResolver) announcement(ctx context.Context, a models.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Author:    toAuthorSummary(r.resolve(ctx, a.AuthorID)),
		Comments:  r.comments(ctx, a.Comments),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toUserResponse(u *models.User, profile *models.StudentProfile) dto.UserResponse {
	resp := dto.UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Role:           u.Role,
		Status:         u.Status,
		Name:           workflow.DisplayName(u, profile),
		ProfilePicture: workflow.AvatarURL(u, profile),
	}
	if profile != nil {
		resp.ProfileID = profile.ID
	}
	return resp
}
