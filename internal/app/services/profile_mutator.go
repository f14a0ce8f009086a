package services

import (
	"context"
	"errors"

	"github.com/ojtetr/tracker/internal/app/models"
	"github.com/ojtetr/tracker/internal/pkg/apperrors"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/rs/zerolog"
)

// maxVersionRetries is how many times a mutation is re-applied after losing a version race
const maxVersionRetries = 3

type profileLoader func(ctx context.Context) (*models.StudentProfile, error)

type profileChange func(p models.StudentProfile) (models.StudentProfile, error)

// profileMutator runs read-modify-write cycles against the profile store
type profileMutator struct {
	profiles ProfileStore
	logger   zerolog.Logger
}

// apply loads the profile, applies change and persists the result.
// A concurrent write makes it reload and re-apply; change must therefore be repeatable.
func (m profileMutator) apply(ctx context.Context, load profileLoader, change profileChange) (*models.StudentProfile, error) {
	for attempt := 0; ; attempt++ {
		current, err := load(ctx)
		if err != nil {
			return nil, err
		}

		next, err := change(*current)
		if err != nil {
			return nil, err
		}

		err = m.profiles.Update(ctx, &next)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return nil, err
		}

		metrics.VersionConflicts.Inc()
		if attempt >= maxVersionRetries {
			m.logger.Warn().Int64("profileID", current.ID).Int("attempts", attempt+1).Msg("Giving up on contended profile update")
			return nil, apperrors.NewCustomError(apperrors.ErrVersionConflict, "profile is being modified by someone else, try again")
		}
		m.logger.Debug().Int64("profileID", current.ID).Int("attempt", attempt+1).Msg("Profile version conflict, retrying")
	}
}

func (m profileMutator) byID(id int64) profileLoader {
	return func(ctx context.Context) (*models.StudentProfile, error) {
		return m.profiles.GetByID(ctx, id)
	}
}
