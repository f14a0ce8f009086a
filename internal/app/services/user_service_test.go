package services

import (
	"context"
	"testing"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateStaffProfile(t *testing.T) {
	f := newFixture()
	svc := NewUserService(f.users, f.store, testLimits, zerolog.Nop())
	ctx := context.Background()
	coord := f.staff(t, models.RoleCoordinator, "Reyes")

	resp, err := svc.UpdateStaffProfile(ctx, coord, "Maria Reyes", nil)
	require.NoError(t, err)
	assert.Equal(t, "Maria Reyes", resp.Name)
	assert.Equal(t, models.DefaultAvatar, resp.ProfilePicture)

	up := pngUpload(t)
	resp, err = svc.UpdateStaffProfile(ctx, coord, "", &up)
	require.NoError(t, err)
	assert.Equal(t, "Maria Reyes", resp.Name, "empty name keeps the current one")
	assert.Contains(t, resp.ProfilePicture, "/uploads/avatars/")
	firstPicture := resp.ProfilePicture

	up = pngUpload(t)
	resp, err = svc.UpdateStaffProfile(ctx, coord, "", &up)
	require.NoError(t, err)
	assert.NotEqual(t, firstPicture, resp.ProfilePicture)
	assert.Equal(t, 1, f.store.count())

	stored, err := f.users.GetUserByID(ctx, coord.ID())
	require.NoError(t, err)
	assert.Equal(t, resp.ProfilePicture, stored.ProfilePicture)

	bad := pngUpload(t)
	bad.ContentType = "image/gif"
	_, err = svc.UpdateStaffProfile(ctx, coord, "", &bad)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	student := f.student(t, "ana@school.edu")
	_, err = svc.UpdateStaffProfile(ctx, student, "x", nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
