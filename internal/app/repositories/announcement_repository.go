package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/logger"
)

// AnnouncementRepository handles announcements and their comment threads
type AnnouncementRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewAnnouncementRepository creates a new AnnouncementRepository
func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db, sb: statementBuilder()}
}

func (r *AnnouncementRepository) selectQuery() squirrel.SelectBuilder {
	return r.sb.Select("id", "title", "content", "author_id", "created_at", "updated_at").From("announcements")
}

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	a := &models.Announcement{Comments: []models.Comment{}}
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("error scanning announcement: %w", err)
	}
	return a, nil
}

// Create inserts an announcement and fills in its generated fields
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	sql, args, err := r.sb.Insert("announcements").
		Columns("title", "content", "author_id").
		Values(a.Title, a.Content, a.AuthorID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create announcement SQL")
		return fmt.Errorf("failed to build create announcement query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		logger.Error().Err(err).Msg("Error executing create announcement query")
		return fmt.Errorf("error creating announcement: %w", err)
	}
	if a.Comments == nil {
		a.Comments = []models.Comment{}
	}
	return nil
}

// GetByID retrieves an announcement with its comments
func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	sql, args, err := r.selectQuery().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get announcement query: %w", err)
	}

	a, err := scanAnnouncement(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, err
	}

	threads, err := r.commentsFor(ctx, []int64{a.ID})
	if err != nil {
		return nil, err
	}
	if c, ok := threads[a.ID]; ok {
		a.Comments = c
	}
	return a, nil
}

// List returns every announcement, newest first, with comments oldest first
func (r *AnnouncementRepository) List(ctx context.Context) ([]models.Announcement, error) {
	sql, args, err := r.selectQuery().OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list announcements SQL")
		return nil, fmt.Errorf("failed to build list announcements query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list announcements query")
		return nil, fmt.Errorf("error listing announcements: %w", err)
	}
	defer rows.Close()

	list := []models.Announcement{}
	ids := []int64{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	threads, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if c, ok := threads[list[i].ID]; ok {
			list[i].Comments = c
		}
	}
	return list, nil
}

func (r *AnnouncementRepository) commentsFor(ctx context.Context, ids []int64) (map[int64][]models.Comment, error) {
	sql, args, err := r.sb.Select("announcement_id", "id", "author_id", "content", "created_at").
		From("announcement_comments").
		Where(squirrel.Eq{"announcement_id": ids}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build comments query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing announcement comments query")
		return nil, fmt.Errorf("error loading comments: %w", err)
	}
	defer rows.Close()

	threads := make(map[int64][]models.Comment, len(ids))
	for rows.Next() {
		var announcementID int64
		var c models.Comment
		if err := rows.Scan(&announcementID, &c.ID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning comment: %w", err)
		}
		threads[announcementID] = append(threads[announcementID], c)
	}
	return threads, rows.Err()
}

// Delete removes an announcement and its comments
func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		logger.Error().Err(err).Int64("announcementID", id).Msg("Error deleting announcement")
		return fmt.Errorf("error deleting announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAnnouncementNotFound
	}
	return nil
}

// DeleteAll removes every announcement and returns how many were removed
func (r *AnnouncementRepository) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM announcements`)
	if err != nil {
		return 0, fmt.Errorf("error deleting announcements: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AddComment appends a comment to an announcement thread
func (r *AnnouncementRepository) AddComment(ctx context.Context, announcementID int64, c models.Comment) error {
	sql, args, err := r.sb.Insert("announcement_comments").
		Columns("id", "announcement_id", "author_id", "content", "created_at").
		Values(c.ID, announcementID, c.AuthorID, c.Content, c.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add comment query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("announcementID", announcementID).Msg("Error adding announcement comment")
		return fmt.Errorf("error adding comment: %w", err)
	}
	return nil
}

// DeleteComment removes one comment from an announcement thread
func (r *AnnouncementRepository) DeleteComment(ctx context.Context, announcementID int64, commentID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM announcement_comments WHERE id = $1 AND announcement_id = $2`,
		commentID, announcementID)
	if err != nil {
		logger.Error().Err(err).Msg("Error deleting announcement comment")
		return fmt.Errorf("error deleting comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}
	return nil
}
