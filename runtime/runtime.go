// Package runtime is the external embedding surface: creating a VM
// instance, running functions as fibers, and introspecting or
// controlling fibers already in flight. Everything below it (object,
// values, dispatch, levelone, leveltwo, fiber) is usable standalone, but
// an embedder is expected to come in through here.
package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gitrdm/availcore/dispatch"
	"github.com/gitrdm/availcore/fiber"
	"github.com/gitrdm/availcore/leveltwo"
	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
	"go.uber.org/zap"
)

// ModuleLoader resolves a module name to its source. The module
// compiler itself (parsing, macro expansion, populating
// dispatch.Method/MessageBundle) is out of scope for this rewrite, the
// same way it is an explicit Non-goal in spec.md §1 — ModuleLoader is
// the seam a real compiler would plug into.
type ModuleLoader interface {
	Resolve(name string) (io.Reader, error)
}

// Config configures a Runtime: worker pool size, the Level-Two
// compile-failure circuit-breaker threshold, and default fiber trace flags.
// See LoadConfig for loading these from YAML.
type Config struct {
	WorkerCount             int
	CompileFailureThreshold uint32
	DefaultTraceVariables   bool
	Logger                  *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.CompileFailureThreshold == 0 {
		c.CompileFailureThreshold = 3
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// SuccessCallback and FailureCallback mirror values.SuccessCallback/
// FailureCallback at the embedding boundary, named independently so
// callers of this package don't need to import package values just to
// name a callback type.
type SuccessCallback = values.SuccessCallback
type FailureCallback = values.FailureCallback

// Runtime is one VM instance: its method/bundle graph, dependency bus,
// Level-Two engine, and fiber scheduler.
type Runtime struct {
	loader ModuleLoader
	logger *zap.Logger
	cfg    Config

	bus    *dispatch.DependencyBus
	engine *leveltwo.Engine
	sched  *fiber.Scheduler

	mu      sync.RWMutex
	fibers  map[values.FiberID]*values.Fiber
	methods map[dispatch.MethodID]*dispatch.Method
	bundles map[string]*dispatch.MessageBundle
}

// Create builds a Runtime backed by loader, starting its fiber
// scheduler and Level-Two engine.
func Create(loader ModuleLoader, cfg Config) (*Runtime, error) {
	cfg = cfg.withDefaults()
	bus := dispatch.NewDependencyBus()
	engine := leveltwo.NewEngineWithThreshold(func(code *values.RawFunction) (*leveltwo.Chunk, error) {
		return nil, fmt.Errorf("runtime: no Level-Two compiler installed")
	}, cfg.CompileFailureThreshold)
	r := &Runtime{
		loader:  loader,
		logger:  cfg.Logger,
		cfg:     cfg,
		bus:     bus,
		engine:  engine,
		fibers:  make(map[values.FiberID]*values.Fiber),
		methods: make(map[dispatch.MethodID]*dispatch.Method),
		bundles: make(map[string]*dispatch.MessageBundle),
	}
	r.sched = fiber.NewScheduler(cfg.WorkerCount, engine)
	return r, nil
}

// Shutdown drains the scheduler and closes the dependency bus.
func (r *Runtime) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- r.sched.Shutdown() }()
	select {
	case err := <-done:
		r.bus.Shutdown()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunFunction spawns fn as a new fiber at the default priority,
// delegating execution to the fiber scheduler, and returns an ID the
// caller can use to query or abort it.
func (r *Runtime) RunFunction(fn *values.Function, args []*object.Object, onSuccess SuccessCallback, onFailure FailureCallback) (values.FiberID, error) {
	f := values.NewFiber(128)
	f.OnSuccess = onSuccess
	f.OnFailure = onFailure
	if r.cfg.DefaultTraceVariables {
		f.Flags.TraceVariableReadsBeforeWrites = true
		f.Flags.TraceVariableWrites = true
	}

	cont := values.NewContinuation(nil, fn, len(args)+fn.Code.NumLocals+16)
	for i, a := range args {
		cont.Slots[i] = a
	}
	cont.StackPointer = fn.Code.NumArgs + fn.Code.NumLocals
	f.Continuation = cont

	r.mu.Lock()
	r.fibers[f.ID] = f
	r.mu.Unlock()

	r.sched.Spawn(f)
	return f.ID, nil
}

// AbortFiber requests cancellation of the fiber with the given ID.
func (r *Runtime) AbortFiber(id values.FiberID) error {
	f, err := r.lookupFiber(id)
	if err != nil {
		return err
	}
	f.RequestTermination()
	return nil
}

func (r *Runtime) lookupFiber(id values.FiberID) (*values.Fiber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fibers[id]
	if !ok {
		return nil, fmt.Errorf("runtime: no such fiber %s", id)
	}
	return f, nil
}

// Fibers lists every fiber ID this Runtime knows about, live or
// terminated, for introspection tooling.
func (r *Runtime) Fibers() []values.FiberID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]values.FiberID, 0, len(r.fibers))
	for id := range r.fibers {
		out = append(out, id)
	}
	return out
}

// FiberContinuation returns the current continuation of a paused fiber
// for debugger-style inspection.
func (r *Runtime) FiberContinuation(id values.FiberID) (*values.Continuation, error) {
	f, err := r.lookupFiber(id)
	if err != nil {
		return nil, err
	}
	return f.Continuation, nil
}

// StepPaused single-steps a Suspended fiber without rejoining the
// scheduler's ready queue, for a debugger driving execution manually.
func (r *Runtime) StepPaused(id values.FiberID) error {
	f, err := r.lookupFiber(id)
	if err != nil {
		return err
	}
	if f.GetState() != values.Suspended {
		return fmt.Errorf("runtime: fiber %s is not paused", id)
	}
	_, stepErr := r.engine.Step(f)
	return stepErr
}

// ResumePaused re-enqueues a Suspended fiber onto the scheduler.
func (r *Runtime) ResumePaused(id values.FiberID) error {
	f, err := r.lookupFiber(id)
	if err != nil {
		return err
	}
	if f.GetState() != values.Suspended {
		return fmt.Errorf("runtime: fiber %s is not paused", id)
	}
	r.sched.Spawn(f)
	return nil
}

// DefineMethod registers a freshly created method under id, for
// ModuleLoader-driven population.
func (r *Runtime) DefineMethod(id dispatch.MethodID) *dispatch.Method {
	m := dispatch.NewMethod(id)
	r.mu.Lock()
	r.methods[id] = m
	r.mu.Unlock()
	return m
}

// MethodState returns the read-only definition snapshot for id.
func (r *Runtime) MethodState(id dispatch.MethodID) ([]dispatch.Definition, error) {
	r.mu.RLock()
	m, ok := r.methods[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("runtime: no such method %d", id)
	}
	return m.Definitions(), nil
}

// DependencyBus exposes the bus so package-level compilers/ModuleLoader
// implementations outside this module can register chunk dependencies.
func (r *Runtime) DependencyBus() *dispatch.DependencyBus { return r.bus }

// DefineBundle registers bundle under its atom's printable name.
func (r *Runtime) DefineBundle(bundle *dispatch.MessageBundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[bundle.Atom.String()] = bundle
}

// BundleState returns the read-only restriction list for the bundle
// named name.
func (r *Runtime) BundleState(name string) ([]dispatch.Restriction, error) {
	r.mu.RLock()
	b, ok := r.bundles[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("runtime: no such bundle %q", name)
	}
	return append([]dispatch.Restriction(nil), b.Restrictions...), nil
}

// RestrictionState returns the restrictions on the named bundle whose
// ArgIndex is argIndex.
func (r *Runtime) RestrictionState(name string, argIndex int) ([]dispatch.Restriction, error) {
	restrictions, err := r.BundleState(name)
	if err != nil {
		return nil, err
	}
	var out []dispatch.Restriction
	for _, rst := range restrictions {
		if rst.ArgIndex == argIndex {
			out = append(out, rst)
		}
	}
	return out, nil
}
