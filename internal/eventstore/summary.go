// Package eventstore records sync runs as an append-only event log in SQLite
// and projects them into run summaries for the history command.
package eventstore

import (
	"encoding/json"
	"time"
)

// Run status values reported by RunSummary.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunSummary is a read model summarizing one sync run.
type RunSummary struct {
	RunID        string            `json:"run_id"`
	Trigger      string            `json:"trigger,omitempty"`
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	Duration     time.Duration     `json:"duration,omitempty"`
	RepoCount    int               `json:"repo_count"`
	FileCount    int               `json:"file_count"`
	NavChanged   bool              `json:"nav_changed"`
	Revisions    map[string]string `json:"revisions,omitempty"`
	ErrorStage   string            `json:"error_stage,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Summarize folds the events of one run, oldest first, into a RunSummary.
// Events with unreadable payloads are skipped.
func Summarize(runID string, events []Event) RunSummary {
	summary := RunSummary{RunID: runID, Status: RunStatusRunning}
	if len(events) > 0 {
		summary.StartedAt = events[0].Timestamp()
	}

	for _, event := range events {
		switch event.Type() {
		case TypeSyncStarted:
			summary.StartedAt = event.Timestamp()
			var payload SyncStarted
			if err := json.Unmarshal(event.Payload(), &payload); err == nil {
				summary.Trigger = payload.Trigger
			}

		case TypeRepositoryMirrored:
			var payload RepositoryMirrored
			if err := json.Unmarshal(event.Payload(), &payload); err != nil {
				continue
			}
			summary.RepoCount++
			summary.FileCount += payload.FileCount
			if payload.Revision != "" {
				if summary.Revisions == nil {
					summary.Revisions = make(map[string]string)
				}
				summary.Revisions[payload.Repository] = payload.Revision
			}

		case TypeNavigationRebuilt:
			var payload NavigationRebuilt
			if err := json.Unmarshal(event.Payload(), &payload); err == nil {
				summary.NavChanged = payload.Changed
			}

		case TypeSyncCompleted:
			finish(&summary, event.Timestamp(), RunStatusCompleted)

		case TypeSyncFailed:
			finish(&summary, event.Timestamp(), RunStatusFailed)
			var payload SyncFailed
			if err := json.Unmarshal(event.Payload(), &payload); err == nil {
				summary.ErrorStage = payload.Stage
				summary.ErrorMessage = payload.Error
			}
		}
	}
	return summary
}

func finish(summary *RunSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
}
