package services

import (
	"context"
	"strings"

	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/ojtetr/tracker/internal/pkg/validation"
	"github.com/rs/zerolog"
)

// UserService defines the operations staff accounts perform on themselves
type UserService interface {
	UpdateStaffProfile(ctx context.Context, actor *appauth.Actor, name string, picture *Upload) (*dto.UserResponse, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	users  UserStore
	store  filestorage.BlobStore
	limits UploadLimits
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(users UserStore, store filestorage.BlobStore, limits UploadLimits, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		users:  users,
		store:  store,
		limits: limits,
		logger: logger,
	}
}

// UpdateStaffProfile changes a coordinator's or director's display name and, when given, their picture.
// An empty name keeps the current one.
func (s *userServiceImpl) UpdateStaffProfile(ctx context.Context, actor *appauth.Actor, name string, picture *Upload) (*dto.UserResponse, error) {
	if !actor.Role().IsStaff() {
		return nil, apperrors.NewForbiddenError("only staff accounts have a staff profile")
	}

	user, err := s.users.GetUserByID(ctx, actor.ID())
	if err != nil {
		return nil, err
	}

	updated := *user
	if name = strings.TrimSpace(name); name != "" {
		updated.Name = name
	}

	var stored *filestorage.Object
	if picture != nil {
		if err := checkUpload(*picture, s.limits.MaxAvatarSize, validation.ImageMIMETypes, "image"); err != nil {
			metrics.UploadsTotal.WithLabelValues("avatar", "rejected").Inc()
			return nil, err
		}
		obj, err := storeAvatar(ctx, s.store, *picture, s.limits.AvatarDimension, user.ID)
		if err != nil {
			return nil, err
		}
		stored = &obj
		updated.ProfilePicture = obj.URL
	}

	if err := s.users.UpdateStaffProfile(ctx, user.ID, updated.Name, updated.ProfilePicture); err != nil {
		if stored != nil {
			discardBlob(ctx, s.store, s.logger, stored.Key)
		}
		return nil, err
	}

	if stored != nil {
		if key, ok := filestorage.KeyFromURL(filestorage.PublicPath, user.ProfilePicture); ok {
			discardBlob(ctx, s.store, s.logger, key)
		}
	}

	s.logger.Info().Int64("userID", user.ID).Bool("picture", stored != nil).Msg("Staff profile updated")
	resp := toUserResponse(&updated, nil)
	return &resp, nil
}
