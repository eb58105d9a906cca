package driver

import "time"

// Stage is one step of the per-unit pipeline.
type Stage string

const (
	StageRead      Stage = "read"
	StageSema      Stage = "sema"
	StageTaskGraph Stage = "taskgraph"
	StageTasks     Stage = "tasks"
	StageGroum     Stage = "groum"
)

type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a unit, or for the whole run when Path is
// empty.
type Event struct {
	Path    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. It is called from the goroutine
// analysing the unit.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type progress struct {
	sink ProgressSink
	path string
}

func (p progress) emit(stage Stage, status Status, err error, elapsed time.Duration) {
	if p.sink == nil {
		return
	}
	p.sink.OnEvent(Event{Path: p.path, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func (p progress) working(stage Stage) time.Time {
	p.emit(stage, StatusWorking, nil, 0)
	return time.Now()
}
