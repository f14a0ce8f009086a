// Package events publishes workflow changes for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ojtetr/tracker/internal/pkg/logger"
	"github.com/ojtetr/tracker/internal/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

// Event types
const (
	TypeDocumentUploaded    = "document.uploaded"
	TypeDocumentDeleted     = "document.deleted"
	TypeDocumentStatus      = "document.status_changed"
	TypeProfileStatus       = "profile.status_changed"
	TypeStudentApproved     = "student.approved"
	TypeStudentRejected     = "student.rejected"
	TypeAnnouncementCreated = "announcement.created"
)

// Event is one workflow fact
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	ProfileID  int64       `json:"profileId,omitempty"`
	ActorID    int64       `json:"actorId,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// New stamps an event with an id and the current time
func New(eventType string, profileID, actorID int64, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		ProfileID:  profileID,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends workflow events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// KafkaPublisher writes events to one topic, keyed by profile so each student's events stay ordered
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a writer for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
			WriteTimeout:           5 * time.Second,
			Async:                  true,
			Completion:             recordCompletion,
		},
	}
}

// recordCompletion counts delivered and failed messages once the writer has flushed a batch
func recordCompletion(messages []kafka.Message, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		logger.Warn().Err(err).Int("messages", len(messages)).Msg("Failed to deliver workflow events")
	}
	for _, m := range messages {
		metrics.EventsPublished.WithLabelValues(messageType(m), result).Inc()
	}
}

func messageType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "type" {
			return string(h.Value)
		}
	}
	return "unknown"
}

// Publish encodes e as JSON and hands it to the writer. Delivery is reported by recordCompletion.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.ProfileID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending writes
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher only logs events; used when no broker is configured
type LogPublisher struct{}

// Publish logs the event at debug level
func (LogPublisher) Publish(_ context.Context, e Event) error {
	logger.Debug().Str("type", e.Type).Int64("profileID", e.ProfileID).Int64("actorID", e.ActorID).Msg("Workflow event")
	return nil
}

// Close does nothing
func (LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish stores e
func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Close does nothing
func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the type of every recorded event in order
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
