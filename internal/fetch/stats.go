package fetch

import "sync/atomic"

// Task is one scheduled download.
type Task struct {
	ID     string
	URL    string
	OutDir string
}

// Outcome is the result of one task: a saved filename or an error.
type Outcome struct {
	Task     Task
	Filename string
	Err      error
}

// Stats summarizes a completed run. Success + Failed == Total.
type Stats struct {
	Success int
	Failed  int
	Total   int
}

// HistoryRecorder persists finished task outcomes.
type HistoryRecorder interface {
	Record(out Outcome) error
}

// Tracker exposes live progress counters. Safe for concurrent use; read by
// the stats endpoint while a run is in flight.
type Tracker struct {
	scheduled atomic.Int64
	started   atomic.Int64
	success   atomic.Int64
	failed    atomic.Int64
}

// Snapshot is a point-in-time view of a Tracker.
type Snapshot struct {
	Scheduled int64 `json:"scheduled"`
	InFlight  int64 `json:"in_flight"`
	Success   int64 `json:"success"`
	Failed    int64 `json:"failed"`
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) TaskScheduled() {
	t.scheduled.Add(1)
}

func (t *Tracker) TaskStarted() {
	t.started.Add(1)
}

func (t *Tracker) TaskDone(err error) {
	if err != nil {
		t.failed.Add(1)
		return
	}
	t.success.Add(1)
}

func (t *Tracker) Snapshot() Snapshot {
	started := t.started.Load()
	success := t.success.Load()
	failed := t.failed.Load()
	return Snapshot{
		Scheduled: t.scheduled.Load(),
		InFlight:  started - success - failed,
		Success:   success,
		Failed:    failed,
	}
}
