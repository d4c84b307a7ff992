package syncer

import "sync"

// EventKind identifies one lifecycle event emitted during a sync run.
// The set of kinds is closed; every kind has exactly one payload type.
type EventKind string

const (
	EventSyncStarted          EventKind = "sync_started"
	EventHealthChecked        EventKind = "health_checked"
	EventHealthCheckCompleted EventKind = "health_check_completed"
	EventRepoStarted          EventKind = "repo_started"
	EventOperationAttempt     EventKind = "operation_attempt"
	EventAutoRepairTriggered  EventKind = "auto_repair_triggered"
	EventRepoRepaired         EventKind = "repo_repaired"
	EventRepoCompleted        EventKind = "repo_completed"
	EventRepoFailed           EventKind = "repo_failed"
	EventRepoSkipped          EventKind = "repo_skipped"
	EventSyncFinished         EventKind = "sync_finished"
)

// Event is a lifecycle notification with a typed payload.
type Event interface {
	Kind() EventKind
}

// SyncStarted is emitted once at the beginning of an orchestration pass.
type SyncStarted struct {
	Owner  string
	Total  int
	Intent Intent
}

func (SyncStarted) Kind() EventKind { return EventSyncStarted }

// HealthChecked is emitted per repository during the up-front health pass.
type HealthChecked struct {
	Name  string
	State HealthState
}

func (HealthChecked) Kind() EventKind { return EventHealthChecked }

// HealthCheckCompleted carries the aggregate health histogram.
type HealthCheckCompleted struct {
	Histogram map[HealthState]int
}

func (HealthCheckCompleted) Kind() EventKind { return EventHealthCheckCompleted }

// RepoStarted is emitted when a repository's turn begins.
type RepoStarted struct {
	Name  string
	Index int
	Total int
}

func (RepoStarted) Kind() EventKind { return EventRepoStarted }

// OperationAttempt is emitted before every attempt of a planned operation.
type OperationAttempt struct {
	Name      string
	Operation OperationType
	Attempt   int
}

func (OperationAttempt) Kind() EventKind { return EventOperationAttempt }

// AutoRepairTriggered is emitted when a failed operation escalates to the
// one-shot repair.
type AutoRepairTriggered struct {
	Name string
}

func (AutoRepairTriggered) Kind() EventKind { return EventAutoRepairTriggered }

// RepoRepaired is emitted when a repository was brought back to health by
// a repair or re-clone.
type RepoRepaired struct {
	Name     string
	Message  string
	Attempts int
}

func (RepoRepaired) Kind() EventKind { return EventRepoRepaired }

// RepoCompleted is emitted when a clone or pull succeeded without repair.
type RepoCompleted struct {
	Name     string
	Message  string
	Attempts int
}

func (RepoCompleted) Kind() EventKind { return EventRepoCompleted }

// RepoFailed is emitted when all attempts for a repository failed, or the
// repository could not be attempted at all.
type RepoFailed struct {
	Name     string
	Reason   string
	Attempts int
}

func (RepoFailed) Kind() EventKind { return EventRepoFailed }

// RepoSkipped is emitted when a repository needed no work.
type RepoSkipped struct {
	Name   string
	Reason string
}

func (RepoSkipped) Kind() EventKind { return EventRepoSkipped }

// SyncFinished carries the completed aggregate result.
type SyncFinished struct {
	Result *Result
}

func (SyncFinished) Kind() EventKind { return EventSyncFinished }

// Handler observes events of one kind.
type Handler func(Event)

// Bus dispatches events synchronously to observers in registration
// order. A panicking observer is isolated: it neither aborts the run nor
// prevents later observers from running.
type Bus struct {
	mu       sync.Mutex
	handlers map[EventKind][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind][]Handler)}
}

// Subscribe registers a handler for one event kind. Handlers for the
// same kind run in the order they were registered.
func (b *Bus) Subscribe(kind EventKind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish delivers the event to every handler registered for its kind.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	handlers := b.handlers[e.Kind()]
	b.mu.Unlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		// Observer failures must not abort the run or other observers.
		_ = recover()
	}()
	h(e)
}
