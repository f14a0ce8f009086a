package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	byEmail map[string]*models.User
	failOn  string
}

func (m *memUsers) EmailExists(_ context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	if u.Email == m.failOn {
		return errors.New("insert failed")
	}
	u.ID = int64(len(m.byEmail) + 1)
	m.byEmail[u.Email] = u
	return nil
}

func plainHash(p string) (string, error) { return "hashed:" + p, nil }

func TestEnsureStaffIsIdempotent(t *testing.T) {
	users := &memUsers{byEmail: map[string]*models.User{}}
	accounts := []Account{
		{Email: " Coordinator@School.edu ", Password: "pw", Name: "Coord", Role: models.RoleCoordinator},
		{Email: "director@school.edu", Password: "pw", Name: "Dir", Role: models.RoleDirector},
	}

	created, err := ensureStaff(context.Background(), users, accounts, plainHash, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	coord := users.byEmail["coordinator@school.edu"]
	require.NotNil(t, coord)
	assert.Equal(t, models.AccountActive, coord.Status)
	assert.Equal(t, "hashed:pw", coord.Password)

	created, err = ensureStaff(context.Background(), users, accounts, plainHash, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, users.byEmail, 2)
}

func TestEnsureStaffCollectsErrors(t *testing.T) {
	users := &memUsers{byEmail: map[string]*models.User{}, failOn: "director@school.edu"}
	accounts := []Account{
		{Email: "student@school.edu", Password: "pw", Role: models.RoleStudent},
		{Email: "director@school.edu", Password: "pw", Role: models.RoleDirector},
		{Email: "coordinator@school.edu", Password: "pw", Role: models.RoleCoordinator},
	}

	created, err := ensureStaff(context.Background(), users, accounts, plainHash, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a staff role")
	assert.Contains(t, err.Error(), "insert failed")
	assert.Equal(t, 1, created, "one failure does not stop the rest")
}

func TestStaffFromConfigSkipsIncompleteEntries(t *testing.T) {
	cfg := &config.Config{}
	cfg.Seed.CoordinatorEmail = "c@school.edu"
	cfg.Seed.CoordinatorPassword = "pw"
	cfg.Seed.DirectorEmail = "d@school.edu"

	accounts := StaffFromConfig(cfg)
	require.Len(t, accounts, 1)
	assert.Equal(t, models.RoleCoordinator, accounts[0].Role)
}
