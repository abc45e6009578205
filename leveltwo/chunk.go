// Package leveltwo implements the optimizing compiled-code layer:
// wordcode chunks derived from a RawFunction's nybblecodes, valid only
// as long as the method dispatch decisions baked into them hold.
// Compilation is deduplicated with singleflight so concurrent callers of
// the same cold function share one compile; consecutive compile failures
// for the same function trip a gobreaker circuit breaker that stops
// calling the compiler for it until the breaker's timeout elapses.
// Invalidations are not counted by the breaker.
package leveltwo

import (
	"sync/atomic"

	"github.com/gitrdm/availcore/values"
)

// Chunk is compiled wordcode for one RawFunction: its instruction
// stream, the literal and int-operand pools it indexes into, and the
// set of dispatch.MethodID values it depends on (any one of which
// changing must invalidate it). valid is an atomic flag rather than
// something guarded by Engine's own lock, since Invalidate is called
// from the dispatch.DependencyBus's background goroutine and must never
// block waiting on whatever lock a running fiber might be holding.
type Chunk struct {
	Wordcodes   []uint16
	Literals    []*values.Number
	IntOperands []int32
	Dependents  map[uint64]struct{} // dispatch.MethodID values, stored as uint64

	valid int32
}

func newChunk(wordcodes []uint16, literals []*values.Number, intOperands []int32, dependents map[uint64]struct{}) *Chunk {
	c := &Chunk{Wordcodes: wordcodes, Literals: literals, IntOperands: intOperands, Dependents: dependents}
	atomic.StoreInt32(&c.valid, 1)
	return c
}

// Valid reports whether the chunk can still be run directly, or must be
// recompiled (or fallen back from) first.
func (c *Chunk) Valid() bool { return atomic.LoadInt32(&c.valid) == 1 }

// Invalidate marks the chunk stale. It implements
// dispatch.ChunkInvalidator so the DependencyBus can call it directly
// without either package importing the other's concrete type.
func (c *Chunk) Invalidate() { atomic.StoreInt32(&c.valid, 0) }
