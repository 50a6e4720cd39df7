package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving sync run events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events for a specific run, oldest first.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// RecentRuns summarizes the most recent runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// Close closes the store and releases resources.
	Close() error
}

// AppendEvent stores a typed event.
func AppendEvent(ctx context.Context, store Store, event Event) error {
	return store.Append(ctx, event.RunID(), event.Type(), event.Payload(), event.Metadata())
}
