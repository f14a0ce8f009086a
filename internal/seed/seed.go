// Package seed creates the staff accounts the workflow cannot run without.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/config"
	"github.com/ojtetr/tracker/internal/pkg/auth"
	"github.com/rs/zerolog"
)

// Account is one staff login to ensure
type Account struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// UserStore is what seeding needs from the user repository
type UserStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// StaffFromConfig lists the coordinator and director configured for seeding.
// Entries without an email or password are skipped.
func StaffFromConfig(cfg *config.Config) []Account {
	candidates := []Account{
		{Email: cfg.Seed.CoordinatorEmail, Password: cfg.Seed.CoordinatorPassword, Name: "OJT Coordinator", Role: models.RoleCoordinator},
		{Email: cfg.Seed.DirectorEmail, Password: cfg.Seed.DirectorPassword, Name: "OJT Director", Role: models.RoleDirector},
	}

	var accounts []Account
	for _, a := range candidates {
		if a.Email != "" && a.Password != "" {
			accounts = append(accounts, a)
		}
	}
	return accounts
}

// EnsureStaff creates every account whose email is not registered yet.
// Existing accounts are left untouched, so running it twice is harmless.
func EnsureStaff(ctx context.Context, users UserStore, accounts []Account, lgr zerolog.Logger) (created int, err error) {
	return ensureStaff(ctx, users, accounts, auth.HashPassword, lgr)
}

func ensureStaff(ctx context.Context, users UserStore, accounts []Account, hash func(string) (string, error), lgr zerolog.Logger) (int, error) {
	var (
		finalErr error
		created  int
	)

	for _, a := range accounts {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if !a.Role.IsStaff() {
			finalErr = errors.Join(finalErr, fmt.Errorf("seed account %s: role %q is not a staff role", email, a.Role))
			continue
		}

		exists, err := users.EmailExists(ctx, email)
		if err != nil {
			lgr.Error().Err(err).Str("email", email).Msg("Error checking seed account")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if exists {
			lgr.Debug().Str("email", email).Msg("Seed account already exists, skipping")
			continue
		}

		hashed, err := hash(a.Password)
		if err != nil {
			finalErr = errors.Join(finalErr, fmt.Errorf("hash password for %s: %w", email, err))
			continue
		}

		user := &models.User{
			Email:    email,
			Password: hashed,
			Name:     a.Name,
			Role:     a.Role,
			Status:   models.AccountActive,
		}
		if err := users.CreateUser(ctx, user); err != nil {
			lgr.Error().Err(err).Str("email", email).Msg("Error creating seed account")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		created++
		lgr.Info().Int64("userID", user.ID).Str("role", string(a.Role)).Str("email", email).Msg("Staff account created")
	}

	return created, finalErr
}
