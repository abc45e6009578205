package values

import (
	"sync"

	"github.com/gitrdm/availcore/object"
	"github.com/google/uuid"
)

// FiberID identifies a Fiber for introspection and control purposes
// (package runtime's embedding surface); it is just the fiber's UUID
// under a name that doesn't require importing google/uuid at call
// sites.
type FiberID = uuid.UUID

// FiberState is the execution state of a Fiber, per spec.md §3.
type FiberState int

const (
	Unstarted FiberState = iota
	Running
	Suspended
	Interrupted
	Parked
	Asleep
	Terminated
	Aborted
)

func (s FiberState) String() string {
	switch s {
	case Unstarted:
		return "Unstarted"
	case Running:
		return "Running"
	case Suspended:
		return "Suspended"
	case Interrupted:
		return "Interrupted"
	case Parked:
		return "Parked"
	case Asleep:
		return "Asleep"
	case Terminated:
		return "Terminated"
	case Aborted:
		return "Aborted"
	default:
		return "FiberState(?)"
	}
}

// FiberFlags are the interrupt / general / synchronization / trace flag
// sets spec.md §3 mentions; each is a small set of independent booleans
// rather than a single bitmask, since levelone and fiber read and write
// them under different locks and combining them would force one lock for
// unrelated concerns.
type FiberFlags struct {
	TerminationRequested            bool
	TraceVariableReadsBeforeWrites  bool
	TraceVariableWrites             bool
}

// SuccessCallback and FailureCallback are invoked, exactly once, when a
// fiber terminates normally or abnormally.
type SuccessCallback func(result *object.Object)
type FailureCallback func(err error)

// Fiber is the value-level handle for a cooperatively scheduled
// execution: it carries the state spec.md §3 lists, but not the
// scheduling mechanics themselves (worker placement, safe-point
// polling, run queues) — those live in package fiber, which holds
// *Fiber values rather than duplicating their state.
type Fiber struct {
	obj *object.Object

	ID       uuid.UUID
	Priority uint8

	mu                sync.Mutex
	State             FiberState
	Continuation      *Continuation
	Result            *object.Object
	Flags             FiberFlags
	ReadSet           map[*Variable]struct{}
	WriteSet          map[*Variable]struct{}

	FiberLocals    Map
	HeritableLocals Map

	OnSuccess SuccessCallback
	OnFailure FailureCallback

	joiningFibers map[*Fiber]struct{}
	wakeUpCancel  func()
}

// NewFiber creates an Unstarted fiber at the given priority (0-255,
// higher runs preferentially — see package fiber's scheduler).
func NewFiber(priority uint8) *Fiber {
	return &Fiber{
		obj:             object.Allocate(object.KindFiber, 0, 0),
		ID:              uuid.New(),
		Priority:        priority,
		State:           Unstarted,
		ReadSet:         make(map[*Variable]struct{}),
		WriteSet:        make(map[*Variable]struct{}),
		FiberLocals:     NewMap(),
		HeritableLocals: NewMap(),
		joiningFibers:   make(map[*Fiber]struct{}),
	}
}

func (f *Fiber) Object() *object.Object { return f.obj }

// SetState transitions the fiber's state under lock; callers (the
// scheduler, JoinFiber, cancellation) are responsible for only making
// transitions the state machine in spec.md §4.6 allows.
func (f *Fiber) SetState(s FiberState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.State = s
}

func (f *Fiber) GetState() FiberState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.State
}

// AddJoiner registers other as waiting on this fiber's termination.
func (f *Fiber) AddJoiner(other *Fiber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joiningFibers[other] = struct{}{}
}

// Joiners returns a snapshot of the fibers currently parked on this
// fiber's termination.
func (f *Fiber) Joiners() []*Fiber {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Fiber, 0, len(f.joiningFibers))
	for j := range f.joiningFibers {
		out = append(out, j)
	}
	return out
}

// RequestTermination sets the TerminationRequested interrupt flag; the
// fiber observes it at its next safe point (package levelone/fiber) and
// transitions to Aborted, cancelling any pending wake-up task.
func (f *Fiber) RequestTermination() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Flags.TerminationRequested = true
	if f.wakeUpCancel != nil {
		f.wakeUpCancel()
		f.wakeUpCancel = nil
	}
}

// SetWakeUpCancel stores the cancel function for a pending timer-based
// wake-up task, so RequestTermination can cancel it per spec.md §4.6.
func (f *Fiber) SetWakeUpCancel(cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wakeUpCancel = cancel
}

// TerminationRequested reports the interrupt flag without needing
// callers to reach into Flags directly (which is unsynchronized state
// read elsewhere only by the fiber's own goroutine).
func (f *Fiber) TerminationRequested() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Flags.TerminationRequested
}
