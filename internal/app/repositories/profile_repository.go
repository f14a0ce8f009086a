package repositories

import (
	"context"
	"encoding/json"
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

// forRevisionMatch selects profiles holding at least one document flagged For Revision
var forRevisionMatch = mustJSON([]map[string]string{{"status": string(models.DocumentForRevision)}})

var profileColumns = []string{
	"p.id", "p.user_id", "p.personal_data", "p.documents", "p.coordinator_checklist",
	"p.overall_status", "p.version", "p.created_at", "p.updated_at",
}

// ProfileFilter narrows a student listing
type ProfileFilter struct {
	// AccountStatus limits the owning accounts; empty means any
	AccountStatus models.AccountStatus
	// Status matches the effective overall status; empty means any
	Status models.OverallStatus
}

// ProfileRepository persists student profiles with their embedded documents as JSONB
type ProfileRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db, sb: statementBuilder()}
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

type profileJSON struct {
	personalData []byte
	documents    []byte
	checklist    []byte
}

func encodeProfile(p *models.StudentProfile) (profileJSON, error) {
	var out profileJSON
	var err error
	if out.personalData, err = json.Marshal(p.PersonalData); err != nil {
		return out, fmt.Errorf("failed to encode personal data: %w", err)
	}
	docs := p.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	if out.documents, err = json.Marshal(docs); err != nil {
		return out, fmt.Errorf("failed to encode documents: %w", err)
	}
	if out.checklist, err = json.Marshal(p.Checklist); err != nil {
		return out, fmt.Errorf("failed to encode checklist: %w", err)
	}
	return out, nil
}

func scanProfile(row pgx.Row) (*models.StudentProfile, error) {
	p := &models.StudentProfile{}
	var raw profileJSON
	err := row.Scan(&p.ID, &p.UserID, &raw.personalData, &raw.documents, &raw.checklist,
		&p.OverallStatus, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error scanning profile: %w", err)
	}

	if err := json.Unmarshal(raw.personalData, &p.PersonalData); err != nil {
		return nil, fmt.Errorf("failed to decode personal data of profile %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(raw.documents, &p.Documents); err != nil {
		return nil, fmt.Errorf("failed to decode documents of profile %d: %w", p.ID, err)
	}
	if err := json.Unmarshal(raw.checklist, &p.Checklist); err != nil {
		return nil, fmt.Errorf("failed to decode checklist of profile %d: %w", p.ID, err)
	}
	if p.Documents == nil {
		p.Documents = []models.Document{}
	}
	for i := range p.Documents {
		if p.Documents[i].Comments == nil {
			p.Documents[i].Comments = []models.Comment{}
		}
	}
	return p, nil
}

func insertProfile(ctx context.Context, q pgxQuerier, sb squirrel.StatementBuilderType, p *models.StudentProfile) error {
	enc, err := encodeProfile(p)
	if err != nil {
		return err
	}

	sql, args, err := sb.Insert("student_profiles").
		Columns("user_id", "personal_data", "documents", "coordinator_checklist", "overall_status").
		Values(p.UserID, enc.personalData, enc.documents, enc.checklist, p.OverallStatus).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create profile SQL")
		return fmt.Errorf("failed to build create profile query: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
		logger.Error().Err(err).Int64("userID", p.UserID).Msg("Error executing create profile query")
		return fmt.Errorf("error creating profile: %w", err)
	}
	return nil
}

// Create inserts a profile for an existing account
func (r *ProfileRepository) Create(ctx context.Context, p *models.StudentProfile) error {
	return insertProfile(ctx, r.db, r.sb, p)
}

func (r *ProfileRepository) getOne(ctx context.Context, where interface{}) (*models.StudentProfile, error) {
	sql, args, err := r.sb.Select(profileColumns...).From("student_profiles p").Where(where).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get profile SQL")
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}
	return scanProfile(r.db.QueryRow(ctx, sql, args...))
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.StudentProfile, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

// GetByUserID retrieves the profile owned by an account
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.StudentProfile, error) {
	return r.getOne(ctx, squirrel.Eq{"p.user_id": userID})
}

// FindByDocumentID retrieves the profile holding the document with the given id
func (r *ProfileRepository) FindByDocumentID(ctx context.Context, docID uuid.UUID) (*models.StudentProfile, error) {
	match := mustJSON([]map[string]string{{"id": docID.String()}})
	p, err := r.getOne(ctx, squirrel.Expr("p.documents @> ?::jsonb", match))
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, apperrors.ErrDocumentNotFound
	}
	return p, err
}

// GetProfileIDByUserID returns only the profile id of a student account
func (r *ProfileRepository) GetProfileIDByUserID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM student_profiles WHERE user_id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrProfileNotFound
		}
		return 0, fmt.Errorf("error looking up profile id: %w", err)
	}
	return id, nil
}

// Update writes the whole aggregate if nobody changed it since it was read.
// On success p carries the new version.
func (r *ProfileRepository) Update(ctx context.Context, p *models.StudentProfile) error {
	enc, err := encodeProfile(p)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Update("student_profiles").
		Set("personal_data", enc.personalData).
		Set("documents", enc.documents).
		Set("coordinator_checklist", enc.checklist).
		Set("overall_status", p.OverallStatus).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update profile SQL")
		return fmt.Errorf("failed to build update profile query: %w", err)
	}

	err = r.db.QueryRow(ctx, sql, args...).Scan(&p.Version, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM student_profiles WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("error checking profile: %w", err)
		}
		if !exists {
			return apperrors.ErrProfileNotFound
		}
		return apperrors.ErrVersionConflict
	}
	if err != nil {
		logger.Error().Err(err).Int64("profileID", p.ID).Msg("Error executing update profile query")
		return fmt.Errorf("error updating profile: %w", err)
	}
	return nil
}

// ListSummaries returns one row per student profile, filtered by account and effective status
func (r *ProfileRepository) ListSummaries(ctx context.Context, filter ProfileFilter) ([]models.StudentSummary, error) {
	hasRevision := squirrel.Expr("p.documents @> ?::jsonb", forRevisionMatch)

	q := r.sb.Select(
		"p.id", "p.user_id", "u.email", "u.status", "p.personal_data", "p.overall_status",
		"jsonb_array_length(p.documents)", "p.created_at",
	).
		Column(squirrel.Alias(hasRevision, "has_revision")).
		From("student_profiles p").
		Join("users u ON u.id = p.user_id").
		OrderBy("p.created_at ASC", "p.id ASC")

	if filter.AccountStatus != "" {
		q = q.Where(squirrel.Eq{"u.status": filter.AccountStatus})
	}

	switch filter.Status {
	case "":
	case models.OverallRevisionNeeded:
		q = q.Where(squirrel.And{
			squirrel.Expr("p.documents @> ?::jsonb", forRevisionMatch),
			squirrel.NotEq{"p.overall_status": models.OverallCompleted},
		})
	case models.OverallCompleted:
		q = q.Where(squirrel.Eq{"p.overall_status": models.OverallCompleted})
	default:
		q = q.Where(squirrel.And{
			squirrel.Eq{"p.overall_status": filter.Status},
			squirrel.Expr("NOT (p.documents @> ?::jsonb)", forRevisionMatch),
		})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list profiles SQL")
		return nil, fmt.Errorf("failed to build list profiles query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list profiles query")
		return nil, fmt.Errorf("error listing profiles: %w", err)
	}
	defer rows.Close()

	summaries := []models.StudentSummary{}
	for rows.Next() {
		var s models.StudentSummary
		var personalData []byte
		var revision bool
		if err := rows.Scan(&s.ProfileID, &s.UserID, &s.Email, &s.Status, &personalData, &s.OverallStatus,
			&s.DocumentCount, &s.CreatedAt, &revision); err != nil {
			logger.Error().Err(err).Msg("Error scanning profile summary")
			return nil, fmt.Errorf("error scanning profile summary: %w", err)
		}
		if err := json.Unmarshal(personalData, &s.PersonalData); err != nil {
			return nil, fmt.Errorf("failed to decode personal data of profile %d: %w", s.ProfileID, err)
		}
		s.OverallStatus = models.DeriveOverallStatus(s.OverallStatus, revision)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating profile summaries")
		return nil, err
	}
	return summaries, nil
}

// ClearAllComments empties every document comment thread and returns the number of profiles touched
func (r *ProfileRepository) ClearAllComments(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE student_profiles
		SET documents = (
				SELECT COALESCE(jsonb_agg(jsonb_set(d.elem, '{comments}', '[]'::jsonb) ORDER BY d.idx), '[]'::jsonb)
				FROM jsonb_array_elements(documents) WITH ORDINALITY AS d(elem, idx)
			),
			version = version + 1,
			updated_at = NOW()
		WHERE jsonb_array_length(documents) > 0`)
	if err != nil {
		logger.Error().Err(err).Msg("Error clearing document comments")
		return 0, fmt.Errorf("error clearing comments: %w", err)
	}
	return tag.RowsAffected(), nil
}
