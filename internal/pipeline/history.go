package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsync/internal/eventstore"
	"git.home.luguber.info/inful/docsync/internal/logfields"
)

// historyWriter appends run events to an optional store. It outlives
// cancellation of the run so a canceled run is still recorded as failed.
type historyWriter struct {
	ctx   context.Context
	store eventstore.Store
}

func newHistoryWriter(ctx context.Context, store eventstore.Store) historyWriter {
	return historyWriter{ctx: context.WithoutCancel(ctx), store: store}
}

// record appends event, or logs err from the event constructor. History
// failures never fail a run.
func (h historyWriter) record(event eventstore.Event, err error) {
	if h.store == nil {
		return
	}
	if err == nil {
		err = eventstore.AppendEvent(h.ctx, h.store, event)
	}
	if err != nil {
		slog.Warn("Failed to record run history", logfields.Error(err))
	}
}
