// Package services implements the use cases behind each route on top of the
// workflow rules, the repositories and the blob store.
package services

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/repositories"
	"github.com/ojtetr/tracker/internal/pkg/websocket"
)

// UserStore is the account persistence the services need
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) error
	UpdateStaffProfile(ctx context.Context, id int64, name, picture string) error
}

// ProfileStore is the student profile persistence the services need
type ProfileStore interface {
	GetByID(ctx context.Context, id int64) (*models.StudentProfile, error)
	GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error)
	FindByDocumentID(ctx context.Context, docID uuid.UUID) (*models.StudentProfile, error)
	Update(ctx context.Context, p *models.StudentProfile) error
	ListSummaries(ctx context.Context, filter repositories.ProfileFilter) ([]models.StudentSummary, error)
}

// AnnouncementStore is the announcement persistence the services need
type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) error
	GetByID(ctx context.Context, id int64) (*models.Announcement, error)
	List(ctx context.Context) ([]models.Announcement, error)
	Delete(ctx context.Context, id int64) error
	AddComment(ctx context.Context, announcementID int64, c models.Comment) error
	DeleteComment(ctx context.Context, announcementID int64, commentID uuid.UUID) error
}

// Broadcaster pushes live updates to connected clients
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Upload is a file received from a client
type Upload struct {
	Reader      io.Reader
	Size        int64
	Name        string
	ContentType string
}

// UploadLimits bounds what clients may upload
type UploadLimits struct {
	MaxDocumentSize int64
	MaxAvatarSize   int64
	AvatarDimension int
}

// Services groups every service the controllers use
type Services struct {
	AuthService         AuthService
	StudentService      StudentService
	ReviewService       ReviewService
	AnnouncementService AnnouncementService
	DocumentService     DocumentService
	UserService         UserService
}
