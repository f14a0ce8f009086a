package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/db"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/dberrors"
	"github.com/ojtetr/tracker/internal/pkg/logger"
)

const usersEmailKey = "users_email_key"

var userColumns = []string{
	"id", "email", "password", "role", "status", "name", "profile_picture", "created_at", "updated_at",
}

// UserRepository handles account persistence
type UserRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db, sb: statementBuilder()}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.Status, &u.Name, &u.ProfilePicture,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) insertUser(ctx context.Context, q pgxQuerier, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("email", "password", "role", "status", "name", "profile_picture").
		Values(user.Email, user.Password, user.Role, user.Status, user.Name, user.ProfilePicture).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, usersEmailKey) {
			logger.Warn().Str("email", user.Email).Msg("Attempted to create user with duplicate email")
			return apperrors.ErrEmailAlreadyExists
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

// CreateUser inserts an account and fills in its generated fields
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.insertUser(ctx, r.db, user); err != nil {
		return err
	}
	logger.Info().Int64("userID", user.ID).Str("role", string(user.Role)).Msg("User created successfully")
	return nil
}

// CreateStudent inserts a student account and its empty profile in one transaction
func (r *UserRepository) CreateStudent(ctx context.Context, user *models.User, profile *models.StudentProfile) error {
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.insertUser(ctx, tx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return insertProfile(ctx, tx, r.sb, profile)
	})
	if err != nil {
		return err
	}

	logger.Info().Int64("userID", user.ID).Int64("profileID", profile.ID).Msg("Student registered")
	return nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(squirrel.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	return scanUser(r.db.QueryRow(ctx, sql, args...))
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// ListUsers returns accounts with the given role and status, oldest first
func (r *UserRepository) ListUsers(ctx context.Context, role models.Role, status models.AccountStatus) ([]models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").
		Where(squirrel.Eq{"role": role, "status": status}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) update(ctx context.Context, id int64, set map[string]interface{}) error {
	sql, args, err := r.sb.Update("users").
		SetMap(set).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update user SQL")
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("userID", id).Msg("Error executing update user query")
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateStatus sets the approval state of an account
func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status models.AccountStatus) error {
	return r.update(ctx, id, map[string]interface{}{"status": status})
}

// UpdateStaffProfile sets the display name and picture of an account
func (r *UserRepository) UpdateStaffProfile(ctx context.Context, id int64, name, picture string) error {
	return r.update(ctx, id, map[string]interface{}{"name": name, "profile_picture": picture})
}

// DeleteStudents removes every student account; profiles go with them
func (r *UserRepository) DeleteStudents(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE role = $1`, models.RoleStudent)
	if err != nil {
		logger.Error().Err(err).Msg("Error deleting student accounts")
		return 0, fmt.Errorf("error deleting students: %w", err)
	}
	return tag.RowsAffected(), nil
}
