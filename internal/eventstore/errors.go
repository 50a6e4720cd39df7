package eventstore

import (
	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.HistoryError("could not open history database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.HistoryError("failed to initialize history schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.HistoryError("failed to append event to history").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = errors.HistoryError("failed to query history").Build()
)
