package services

import (
	"context"

	"github.com/ojtetr/tracker/internal/pkg/events"
	"github.com/ojtetr/tracker/internal/pkg/filestorage"
	"github.com/rs/zerolog"
)

// publishEvent hands e to the publisher. A broker outage never fails the request that caused the event.
func publishEvent(ctx context.Context, publisher events.Publisher, logger zerolog.Logger, e events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, e); err != nil {
		logger.Warn().Err(err).Str("type", e.Type).Int64("profileID", e.ProfileID).Msg("Failed to publish workflow event")
	}
}

// discardBlob removes stored content that is no longer referenced
func discardBlob(ctx context.Context, store filestorage.BlobStore, logger zerolog.Logger, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to delete stored file")
	}
}
