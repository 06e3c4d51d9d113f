package core

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/edvin/containerstacks/internal/model"
)

// ActivityLogger is an async writer for customer-visible activity events.
// Each event is also mirrored to the structured log.
type ActivityLogger struct {
	db     DB
	logger zerolog.Logger
	ch     chan model.ActivityEvent
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewActivityLogger(db DB, logger zerolog.Logger) *ActivityLogger {
	al := &ActivityLogger{
		db:     db,
		logger: logger,
		ch:     make(chan model.ActivityEvent, 1024),
		done:   make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *ActivityLogger) drain() {
	defer close(al.done)
	for ev := range al.ch {
		_, err := al.db.Exec(
			// the request context may already be gone
			context.Background(),
			`INSERT INTO activity_logs (organization_id, user_id, event_type, entity_type, entity_id, message, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			nullIfEmpty(ev.OrganizationID), ev.UserID, ev.EventType, ev.EntityType, ev.EntityID, ev.Message, ev.Metadata, ev.CreatedAt,
		)
		if err != nil {
			al.logger.Error().Err(err).Str("event_type", ev.EventType).Msg("failed to write activity log")
		}
	}
}

// Record queues an event. metadata is marshalled to JSON; events are dropped
// with a warning when the buffer is full.
func (al *ActivityLogger) Record(ctx context.Context, ev model.ActivityEvent, metadata any) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	if metadata != nil && ev.Metadata == nil {
		if b, err := json.Marshal(metadata); err == nil {
			ev.Metadata = b
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("event_type", ev.EventType).
		Str("organization_id", ev.OrganizationID).
		Str("entity_id", ev.EntityID).
		Msg(ev.Message)

	al.mu.RLock()
	defer al.mu.RUnlock()
	if al.closed {
		al.logger.Warn().Str("event_type", ev.EventType).Msg("activity logger closed, dropping event")
		return
	}
	select {
	case al.ch <- ev:
	default:
		al.logger.Warn().Str("event_type", ev.EventType).Msg("activity log buffer full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be written.
// Later Record calls drop their event. Close is safe to call more than once.
func (al *ActivityLogger) Close() {
	al.mu.Lock()
	if !al.closed {
		al.closed = true
		close(al.ch)
	}
	al.mu.Unlock()
	<-al.done
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
