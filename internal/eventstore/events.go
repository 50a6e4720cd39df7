package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docsync/internal/foundation/errors"
)

// Event type names stored in the event_type column.
const (
	TypeSyncStarted        = "SyncStarted"
	TypeRepositoryMirrored = "RepositoryMirrored"
	TypeNavigationRebuilt  = "NavigationRebuilt"
	TypeSyncCompleted      = "SyncCompleted"
	TypeSyncFailed         = "SyncFailed"
)

func newBaseEvent(runID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, errors.HistoryError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	return BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// SyncStarted is emitted when a sync run begins.
type SyncStarted struct {
	BaseEvent `json:"-"`

	Trigger      string   `json:"trigger"` // "manual", "watch", "schedule"
	Repositories []string `json:"repositories"`
	SiteConfig   string   `json:"site_config"`
}

// NewSyncStarted creates a SyncStarted event.
func NewSyncStarted(runID, trigger, siteConfig string, repositories []string) (*SyncStarted, error) {
	e := &SyncStarted{Trigger: trigger, Repositories: repositories, SiteConfig: siteConfig}
	base, err := newBaseEvent(runID, TypeSyncStarted, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// RepositoryMirrored is emitted after a repository's content has been mirrored.
type RepositoryMirrored struct {
	BaseEvent `json:"-"`

	Repository  string `json:"repository"`
	Destination string `json:"destination"`
	FileCount   int    `json:"file_count"`
	Revision    string `json:"revision,omitempty"`
	Fingerprint string `json:"fingerprint"`
	DurationMS  int64  `json:"duration_ms"`
}

// NewRepositoryMirrored creates a RepositoryMirrored event.
func NewRepositoryMirrored(runID, repository, destination string, fileCount int, revision, fingerprint string, duration time.Duration) (*RepositoryMirrored, error) {
	e := &RepositoryMirrored{
		Repository:  repository,
		Destination: destination,
		FileCount:   fileCount,
		Revision:    revision,
		Fingerprint: fingerprint,
		DurationMS:  duration.Milliseconds(),
	}
	base, err := newBaseEvent(runID, TypeRepositoryMirrored, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// NavigationRebuilt is emitted once the nav tree has been rebuilt.
type NavigationRebuilt struct {
	BaseEvent `json:"-"`

	Sections int  `json:"sections"`
	Skipped  int  `json:"skipped"`
	Entries  int  `json:"entries"`
	Changed  bool `json:"changed"`
}

// NewNavigationRebuilt creates a NavigationRebuilt event.
func NewNavigationRebuilt(runID string, sections, skipped, entries int, changed bool) (*NavigationRebuilt, error) {
	e := &NavigationRebuilt{Sections: sections, Skipped: skipped, Entries: entries, Changed: changed}
	base, err := newBaseEvent(runID, TypeNavigationRebuilt, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// SyncCompleted is emitted when a sync run finishes successfully.
type SyncCompleted struct {
	BaseEvent `json:"-"`

	FileCount  int   `json:"file_count"`
	NavChanged bool  `json:"nav_changed"`
	DurationMS int64 `json:"duration_ms"`
}

// NewSyncCompleted creates a SyncCompleted event.
func NewSyncCompleted(runID string, fileCount int, navChanged bool, duration time.Duration) (*SyncCompleted, error) {
	e := &SyncCompleted{FileCount: fileCount, NavChanged: navChanged, DurationMS: duration.Milliseconds()}
	base, err := newBaseEvent(runID, TypeSyncCompleted, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}

// SyncFailed is emitted when a sync run aborts.
type SyncFailed struct {
	BaseEvent `json:"-"`

	Stage      string `json:"stage"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// NewSyncFailed creates a SyncFailed event.
func NewSyncFailed(runID, stage, errorMsg string, duration time.Duration) (*SyncFailed, error) {
	e := &SyncFailed{Stage: stage, Error: errorMsg, DurationMS: duration.Milliseconds()}
	base, err := newBaseEvent(runID, TypeSyncFailed, e)
	if err != nil {
		return nil, err
	}
	e.BaseEvent = base
	return e, nil
}
