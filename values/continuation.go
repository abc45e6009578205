package values

import (
	"sync"

	"github.com/gitrdm/availcore/object"
)

// continuationRegistry maps a reified continuation's underlying object
// back to the typed Continuation, the same way variableRegistry backs
// WrapVariable: a push-label opcode (levelone.PushLabel) only has
// *object.Object to put on the value stack, but a later non-local
// return through that label needs the typed frame back.
var continuationRegistry = struct {
	mu    sync.RWMutex
	byObj map[*object.Object]*Continuation
}{byObj: make(map[*object.Object]*Continuation)}

// WrapContinuation looks up the Continuation that owns obj. obj must be
// the Object of a continuation previously created by NewContinuation;
// any other object panics.
func WrapContinuation(obj *object.Object) *Continuation {
	continuationRegistry.mu.RLock()
	defer continuationRegistry.mu.RUnlock()
	c, ok := continuationRegistry.byObj[obj]
	if !ok {
		panic("values: WrapContinuation called on an object that is not a Continuation")
	}
	return c
}

// Continuation is a reified call frame: the caller frame (nil at the
// base of a fiber's stack), the function being executed, the Level-One
// program counter, the current stack pointer into the flat slot array,
// and Level-Two resumption fields (Chunk, ChunkOffset). Every frame in
// this module is a Continuation (see levelone.Interpreter.Reify), and
// leveltwo.Engine.Step clears Chunk, so frames always resume in
// nybblecodes.
type Continuation struct {
	obj *object.Object

	Caller      *Continuation
	Function    *Function
	PC          int
	StackPointer int
	Slots       []*object.Object // args, locals, and stack, flattened

	ChunkOffset  int
	Chunk        *object.Object // Level-Two resumption point; cleared by leveltwo.Engine.Step
}

// NewContinuation reifies a frame for function with the given slot
// capacity (args + locals + max stack depth). The stack pointer starts
// just past the function's arguments and locals, so pushes never
// overwrite them.
func NewContinuation(caller *Continuation, function *Function, slotCount int) *Continuation {
	c := &Continuation{
		obj:      object.Allocate(object.KindContinuation, 0, 0),
		Caller:   caller,
		Function: function,
		Slots:    make([]*object.Object, slotCount),
	}
	if function != nil && function.Code != nil {
		c.StackPointer = function.Code.NumArgs + function.Code.NumLocals
	}
	continuationRegistry.mu.Lock()
	continuationRegistry.byObj[c.obj] = c
	continuationRegistry.mu.Unlock()
	return c
}

func (c *Continuation) Object() *object.Object { return c.obj }

// Push stores value at StackPointer and advances it.
func (c *Continuation) Push(value *object.Object) {
	c.Slots[c.StackPointer] = value
	c.StackPointer++
}

// Pop retreats StackPointer and returns the value there.
func (c *Continuation) Pop() *object.Object {
	c.StackPointer--
	v := c.Slots[c.StackPointer]
	c.Slots[c.StackPointer] = nil
	return v
}

// Depth returns the number of frames from this continuation to the base
// of the stack, inclusive.
func (c *Continuation) Depth() int {
	n := 0
	for cur := c; cur != nil; cur = cur.Caller {
		n++
	}
	return n
}
