package metrics

import "time"

// ResultLabel enumerates run and stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Stage names used as metric labels.
const (
	StageLoadSite   = "load_site"
	StageMirror     = "mirror"
	StageRebuildNav = "rebuild_nav"
	StageWriteSite  = "write_site"
)

// Recorder defines observability hooks for sync runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(result ResultLabel)
	SetMirroredFiles(repo string, n int)
	SetNavEntries(repo string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(ResultLabel)                  {}
func (NoopRecorder) SetMirroredFiles(string, int)               {}
func (NoopRecorder) SetNavEntries(string, int)                  {}
