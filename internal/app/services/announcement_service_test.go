package services

import (
	"context"
	"testing"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/app/models/dto"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnouncements(t *testing.T) {
	f := newFixture()
	feed := &fakeFeed{}
	rec := &events.Recorder{}
	svc := NewAnnouncementService(f.announcements, f.users, f.profiles, feed, rec, zerolog.Nop())
	ctx := context.Background()

	coord := f.staff(t, models.RoleCoordinator, "Reyes")
	student := f.student(t, "ana@school.edu")

	first, err := svc.Create(ctx, coord, &dto.CreateAnnouncementRequest{Title: "Orientation", Content: "Monday 9AM"})
	require.NoError(t, err)
	assert.Equal(t, "Reyes", first.Author.Name)
	assert.Empty(t, first.Comments)

	second, err := svc.Create(ctx, coord, &dto.CreateAnnouncementRequest{Title: "Deadline", Content: "MOA due Friday"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, coord, &dto.CreateAnnouncementRequest{Title: " ", Content: "x"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	comment, err := svc.AddComment(ctx, student, first.ID, "Where?")
	require.NoError(t, err)
	assert.Equal(t, "Ana Cruz", comment.Author.Name)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	require.Len(t, list[1].Comments, 1)
	assert.Equal(t, "Where?", list[1].Comments[0].Content)

	err = svc.DeleteComment(ctx, coord, first.ID, comment.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	require.NoError(t, svc.DeleteComment(ctx, student, first.ID, comment.ID))

	_, err = svc.AddComment(ctx, student, 999, "hello")
	assert.ErrorIs(t, err, apperrors.ErrAnnouncementNotFound)

	require.NoError(t, svc.Delete(ctx, coord, second.ID))
	assert.ErrorIs(t, svc.Delete(ctx, coord, second.ID), apperrors.ErrAnnouncementNotFound)

	assert.Equal(t, []string{
		websocket.MessageAnnouncementCreated,
		websocket.MessageAnnouncementCreated,
		websocket.MessageCommentAdded,
		websocket.MessageCommentDeleted,
		websocket.MessageAnnouncementDeleted,
	}, feed.types())
	assert.Equal(t, []string{events.TypeAnnouncementCreated, events.TypeAnnouncementCreated}, rec.Types())
}
