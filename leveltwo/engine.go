package leveltwo

import (
	"fmt"
	"sync"

	"github.com/gitrdm/availcore/levelone"
	"github.com/gitrdm/availcore/values"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// Compiler turns a RawFunction's nybblecodes into wordcode. The actual
// code-generation strategy is out of this rewrite's scope (spec.md
// treats Level-Two as "a single opaque optimizing compiler stage" —
// §9); Engine only needs something that produces a Chunk, so tests and
// callers can supply a trivial or a real one interchangeably.
type Compiler func(code *values.RawFunction) (*Chunk, error)

// Engine owns compilation and execution of Level-Two chunks for a set
// of functions. Compile calls for the same RawFunction are deduplicated
// through a singleflight.Group so N fibers racing to call a newly-hot
// function trigger exactly one compile; each function's own
// gobreaker.CircuitBreaker opens after failureThreshold consecutive
// compile failures, after which Compile fails fast and Step runs the
// function on the Level-One interpreter without calling the compiler
// until the breaker's timeout elapses. Invalidations are not counted by
// the breaker.
type Engine struct {
	compiler         Compiler
	group            singleflight.Group
	fallback         *levelone.Interpreter
	failureThreshold uint32

	mu       sync.Mutex
	chunks   map[*values.RawFunction]*Chunk
	breakers map[*values.RawFunction]*gobreaker.CircuitBreaker
}

// defaultFailureThreshold is how many consecutive compile failures trip
// a RawFunction's breaker when the caller doesn't configure one
// explicitly.
const defaultFailureThreshold = 3

func NewEngine(compiler Compiler) *Engine {
	return NewEngineWithThreshold(compiler, defaultFailureThreshold)
}

// NewEngineWithThreshold is NewEngine with an explicit compile-failure
// threshold, for embedders loading it from runtime.Config (itself
// loadable from YAML, see runtime.LoadConfig).
func NewEngineWithThreshold(compiler Compiler, failureThreshold uint32) *Engine {
	if failureThreshold == 0 {
		failureThreshold = defaultFailureThreshold
	}
	return &Engine{
		compiler:         compiler,
		fallback:         levelone.NewInterpreter(),
		failureThreshold: failureThreshold,
		chunks:           make(map[*values.RawFunction]*Chunk),
		breakers:         make(map[*values.RawFunction]*gobreaker.CircuitBreaker),
	}
}

func (e *Engine) breakerFor(code *values.RawFunction) *gobreaker.CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok := e.breakers[code]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "leveltwo-compile",
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= e.failureThreshold },
	})
	e.breakers[code] = b
	return b
}

// Compile returns a valid Chunk for code, compiling it (through the
// circuit breaker, deduplicated via singleflight) if none is cached or
// the cached one was invalidated.
func (e *Engine) Compile(code *values.RawFunction) (*Chunk, error) {
	e.mu.Lock()
	if c, ok := e.chunks[code]; ok && c.Valid() {
		e.mu.Unlock()
		return c, nil
	}
	e.mu.Unlock()

	breaker := e.breakerFor(code)
	result, err, _ := e.group.Do(chunkKey(code), func() (interface{}, error) {
		return breaker.Execute(func() (interface{}, error) {
			return e.compiler(code)
		})
	})
	if err != nil {
		return nil, err
	}
	chunk := result.(*Chunk)

	e.mu.Lock()
	e.chunks[code] = chunk
	e.mu.Unlock()
	return chunk, nil
}

func chunkKey(code *values.RawFunction) string {
	return fmt.Sprintf("%p", code)
}

// Invalidate marks the chunk cached for code stale, so the next Compile
// recompiles it. Invalidation by method goes through the
// dispatch.DependencyBus instead: callers register each individual Chunk
// there (Chunk itself satisfies dispatch.ChunkInvalidator), so Engine
// has no bus subscription of its own — this method exists for callers
// that want to invalidate by RawFunction identity directly (e.g. module
// unload discarding a function outright).
func (e *Engine) Invalidate(code *values.RawFunction) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.chunks[code]; ok {
		c.Invalidate()
	}
}

// Step obtains a valid chunk for the current function through Compile
// (reusing a cached one or recompiling), then executes the step on the
// Level-One interpreter; chunk wordcodes are never executed. A failed
// compile (e.g. the circuit breaker is open) takes the same Level-One
// path. It is Engine's implementation of fiber.Runner.
func (e *Engine) Step(fiber *values.Fiber) (levelone.StepResult, error) {
	cont := fiber.Continuation
	if cont == nil {
		return levelone.StepReturned, nil
	}
	chunk, err := e.Compile(cont.Function.Code)
	if err != nil || chunk == nil {
		return e.fallback.Step(fiber)
	}
	cont.Chunk = nil // wordcode execution is not modeled further in this rewrite
	return e.fallback.Step(fiber)
}
