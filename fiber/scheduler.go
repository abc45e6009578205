// Package fiber implements the cooperative fiber scheduler: a fixed
// worker pool (adapted from the teacher's internal/parallel.WorkerPool)
// that runs values.Fiber values to their next safe point, a priority
// ready queue, joins, and timer-based sleeps with mandatory
// cancellation. Where the teacher supervises worker goroutines with a
// bespoke WaitGroup/shutdown-channel pair, this package uses
// golang.org/x/sync/errgroup for the same supervision with less
// bookkeeping, and reports queue depth and completions through
// Prometheus gauges/counters instead of the teacher's ExecutionStats.
package fiber

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/gitrdm/availcore/levelone"
	"github.com/gitrdm/availcore/values"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	fibersScheduled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availvm_fibers_scheduled_total",
		Help: "Total fibers submitted to the scheduler.",
	})
	fibersCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "availvm_fibers_completed_total",
		Help: "Total fibers that reached Terminated or Aborted.",
	})
	readyQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "availvm_fiber_ready_queue_depth",
		Help: "Current number of fibers waiting for a worker.",
	})
)

func init() {
	prometheus.MustRegister(fibersScheduled, fibersCompleted, readyQueueDepth)
}

// Runner executes one step of a fiber's current continuation — either
// levelone.Interpreter.Step directly, or leveltwo.Engine.Step, which
// compiles or reuses a chunk and then runs the step on the Level-One
// interpreter.
type Runner interface {
	Step(fiber *values.Fiber) (levelone.StepResult, error)
}

// priorityItem is one entry in the scheduler's ready heap.
type priorityItem struct {
	fiber *values.Fiber
	index int
}

type priorityQueue []*priorityItem

func (q priorityQueue) Len() int { return len(q) }
func (q priorityQueue) Less(i, j int) bool {
	return q[i].fiber.Priority > q[j].fiber.Priority // higher priority first
}
func (q priorityQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *priorityQueue) Push(x interface{}) {
	item := x.(*priorityItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *priorityQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Scheduler runs a fixed pool of worker goroutines, each pulling the
// highest-priority ready fiber and stepping it until it reaches a safe
// point, yields, or terminates. maxSteps bounds how long a single
// dispatch to a worker runs before the fiber is put back on the ready
// queue, giving other fibers at the same or lower priority a turn
// (spec.md's safe-point granularity, §4.6).
type Scheduler struct {
	runner   Runner
	maxSteps int

	mu    sync.Mutex
	cond  *sync.Cond
	ready priorityQueue
	closed bool

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler starts workerCount worker goroutines supervised by an
// errgroup.Group, running fibers via runner.
func NewScheduler(workerCount int, runner Runner) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	s := &Scheduler{
		runner:   runner,
		maxSteps: 10000,
		group:    group,
		ctx:      gctx,
		cancel:   cancel,
	}
	s.cond = sync.NewCond(&s.mu)
	for i := 0; i < workerCount; i++ {
		group.Go(func() error {
			s.workerLoop()
			return nil
		})
	}
	return s
}

// Spawn enqueues fiber with its declared priority and makes it eligible
// to run. The fiber must be Unstarted; Spawn transitions it to Running
// the moment a worker picks it up.
func (s *Scheduler) Spawn(fiber *values.Fiber) {
	fibersScheduled.Inc()
	s.enqueue(fiber)
}

func (s *Scheduler) enqueue(fiber *values.Fiber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	heap.Push(&s.ready, &priorityItem{fiber: fiber})
	readyQueueDepth.Set(float64(s.ready.Len()))
	s.cond.Signal()
}

func (s *Scheduler) dequeue() *values.Fiber {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.ready.Len() == 0 && !s.closed {
		s.cond.Wait()
	}
	if s.closed && s.ready.Len() == 0 {
		return nil
	}
	item := heap.Pop(&s.ready).(*priorityItem)
	readyQueueDepth.Set(float64(s.ready.Len()))
	return item.fiber
}

func (s *Scheduler) workerLoop() {
	for {
		f := s.dequeue()
		if f == nil {
			return
		}
		s.runToSafePoint(f)
	}
}

// runToSafePoint steps fiber until it hits a backward branch/call/
// return/explicit-check safe point (approximated here as every
// maxSteps instructions, since this rewrite's levelone.Interpreter does
// not yet distinguish branch direction), suspends, terminates, or is
// cancelled. A fiber that is still runnable afterward is re-enqueued
// rather than monopolizing its worker.
func (s *Scheduler) runToSafePoint(f *values.Fiber) {
	f.SetState(values.Running)
	for i := 0; i < s.maxSteps; i++ {
		if f.TerminationRequested() {
			f.SetState(values.Aborted)
			if f.OnFailure != nil {
				f.OnFailure(values.NewError(values.ErrFiberCancelled, "fiber cancelled"))
			}
			s.notifyJoiners(f)
			fibersCompleted.Inc()
			return
		}
		result, err := s.runner.Step(f)
		if err != nil {
			f.SetState(values.Aborted)
			if f.OnFailure != nil {
				f.OnFailure(err)
			}
			s.notifyJoiners(f)
			fibersCompleted.Inc()
			return
		}
		if result == levelone.StepReturned {
			f.SetState(values.Terminated)
			if f.OnSuccess != nil {
				f.OnSuccess(f.Result)
			}
			s.notifyJoiners(f)
			fibersCompleted.Inc()
			return
		}
	}
	f.SetState(values.Suspended)
	s.enqueue(f)
}

// notifyJoiners wakes every fiber parked on f's termination, delivering
// either f's result or a join-failed error (spec.md §4.6). A joiner
// woken by a successful join carries the joined value forward as its
// own Result, so its own eventual termination reports that value to its
// caller the same way a direct return would; a joiner woken by an
// aborted target is itself failed immediately, since this rewrite has
// no bytecode-level join primitive for it to resume past the failure.
func (s *Scheduler) notifyJoiners(f *values.Fiber) {
	aborted := f.GetState() == values.Aborted
	for _, joiner := range f.Joiners() {
		if aborted {
			joiner.SetState(values.Aborted)
			if joiner.OnFailure != nil {
				joiner.OnFailure(values.NewError(values.ErrJoinFailed, "joined fiber aborted"))
			}
			fibersCompleted.Inc()
			continue
		}
		joiner.Result = f.Result
		joiner.SetState(values.Running)
		s.enqueue(joiner)
	}
}

// JoinFiber parks caller on target's termination, atomically adding it
// to target's joining set and setting caller's state to Parked (spec.md
// §4.6). The caller is re-enqueued once target terminates.
func (s *Scheduler) JoinFiber(caller, target *values.Fiber) {
	caller.SetState(values.Parked)
	target.AddJoiner(caller)
	if target.GetState() == values.Terminated || target.GetState() == values.Aborted {
		s.notifyJoiners(target)
	}
}

// Shutdown stops accepting new fibers and waits for every worker to
// drain its current fiber and exit.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	s.cancel()
	return s.group.Wait()
}

// AwaitSleep schedules fiber to resume after d, cancellable via
// values.Fiber.RequestTermination (which calls the cancel function
// registered here, per spec.md §4.6's "pending wake-up tasks are
// cancelled on termination").
func (s *Scheduler) AwaitSleep(fiber *values.Fiber, d time.Duration) {
	fiber.SetState(values.Asleep)
	timer := time.AfterFunc(d, func() {
		fiber.SetState(values.Running)
		s.enqueue(fiber)
	})
	fiber.SetWakeUpCancel(func() { timer.Stop() })
}
