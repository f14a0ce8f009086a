package services

import (
	"context"
	"fmt"
	"strings"

	appauth "github.com/ojtetr/tracker/internal/app/auth"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/app/workflow"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/auth"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, int, error)
}

// AuthService handles registration, login and account creation
type AuthService interface {
	RegisterStudent(ctx context.Context, req *dto.StudentRegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, actor *appauth.Actor) (*dto.UserResponse, error)
	CreateCoordinator(ctx context.Context, req *dto.CreateCoordinatorRequest) (*dto.UserResponse, error)
}

type authServiceImpl struct {
	users        UserStore
	profiles     ProfileStore
	tokens       TokenIssuer
	hashPassword func(string) (string, error)
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserStore, profiles ProfileStore, tokens TokenIssuer, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		users:        users,
		profiles:     profiles,
		tokens:       tokens,
		hashPassword: auth.HashPassword,
		logger:       logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterStudent creates a pending student account together with its empty profile
func (s *authServiceImpl) RegisterStudent(ctx context.Context, req *dto.StudentRegisterRequest) (*dto.RegisterResponse, error) {
	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:    normalizeEmail(req.Email),
		Password: hashed,
		Role:     models.RoleStudent,
		Status:   models.AccountPending,
	}
	profile := workflow.NewProfile(0, models.PersonalData{
		StudentID:     strings.TrimSpace(req.StudentID),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		ContactNumber: strings.TrimSpace(req.ContactNumber),
	})

	if err := s.users.CreateStudent(ctx, user, &profile); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Student registered, awaiting approval")
	return &dto.RegisterResponse{
		UserID:  user.ID,
		Message: "Registration submitted. You can log in once a coordinator approves your account.",
	}, nil
}

// Login checks credentials and issues a token for active accounts
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive() {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		msg := "your account is waiting for coordinator approval"
		if user.Status == models.AccountRejected {
			msg = "your registration was rejected"
		}
		return nil, apperrors.NewCustomError(apperrors.ErrAccountInactive, msg)
	}

	token, expiresIn, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	var profile *models.StudentProfile
	if user.Role == models.RoleStudent {
		profile, err = s.profiles.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("error loading student profile: %w", err)
		}
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User logged in")

	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int64(expiresIn),
		},
		User: toUserResponse(user, profile),
	}, nil
}

// Me describes the authenticated caller
func (s *authServiceImpl) Me(ctx context.Context, actor *appauth.Actor) (*dto.UserResponse, error) {
	var profile *models.StudentProfile
	if actor.ProfileID != 0 {
		p, err := s.profiles.GetByID(ctx, actor.ProfileID)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	resp := toUserResponse(actor.User, profile)
	return &resp, nil
}

// CreateCoordinator adds an active coordinator account
func (s *authServiceImpl) CreateCoordinator(ctx context.Context, req *dto.CreateCoordinatorRequest) (*dto.UserResponse, error) {
	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:    normalizeEmail(req.Email),
		Password: hashed,
		Role:     models.RoleCoordinator,
		Status:   models.AccountActive,
		Name:     strings.TrimSpace(req.Name),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Msg("Coordinator account created")
	resp := toUserResponse(user, nil)
	return &resp, nil
}
