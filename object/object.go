package object

import (
	"sync"
)

// Object is the single uniform heap value underlying every Avail datum: a
// descriptor plus two variable-length slot arrays — references to other
// objects, and 32-bit integer words. Fixed-position slots are given
// symbolic meaning by higher layers (package values); Object itself only
// owns allocation, slot access, mutability transitions, and identity
// coalescing.
//
// A Mutable object is owned by exactly one fiber and is not safe for
// concurrent access. Immutable and Shared objects may be read concurrently
// without external synchronization; Shared objects additionally serialize
// their (rare, descriptor-mediated) mutations through mu.
type Object struct {
	descriptor *Descriptor

	mu          sync.RWMutex
	objectSlots []*Object
	intSlots    []int32
}

// Allocate creates a new Mutable object of the given kind with the
// requested number of object slots and integer slots. Fixed and
// variable-length slots are not distinguished here; callers in package
// values enforce the
// "descriptor.fixed_object_slots + (variable ? n >= 0 : 0) = object.object_slots"
// invariant by construction (they know how many fixed slots their kind
// declares).
func Allocate(kind DescriptorKind, numObjectSlots, numIntSlots int) *Object {
	o := &Object{descriptor: NewDescriptor(kind)}
	if numObjectSlots > 0 {
		o.objectSlots = make([]*Object, numObjectSlots)
	}
	if numIntSlots > 0 {
		o.intSlots = make([]int32, numIntSlots)
	}
	return o
}

// Descriptor returns the object's current descriptor. The returned
// Descriptor is never mutated (mutability transitions install a new one),
// so it stays a stable view across concurrent MakeImmutable/MakeShared
// calls.
func (o *Object) Descriptor() *Descriptor {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.descriptor
}

// Kind is shorthand for Descriptor().Kind.
func (o *Object) Kind() DescriptorKind {
	return o.Descriptor().Kind
}

// Mutability is shorthand for Descriptor().Mutability.
func (o *Object) Mutability() Mutability {
	return o.Descriptor().Mutability
}

// NumObjectSlots returns the number of object-reference slots.
func (o *Object) NumObjectSlots() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.objectSlots)
}

// NumIntSlots returns the number of 32-bit integer slots.
func (o *Object) NumIntSlots() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.intSlots)
}

// SlotObject returns the object referenced by the slot at index. Index is
// 0-based across the whole object-slot array (fixed slots first, then any
// variable-length tail); it is a programming error to pass an out-of-range
// index, and like the source VM's slot accessors this panics rather than
// returning an error — slot layout is a compile-time contract between a
// kind's constructor and its accessors, not something that fails at
// runtime for well-formed code.
func (o *Object) SlotObject(index int) *Object {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.objectSlots[index]
}

// SetSlotObject stores target into the object-slot at index. Mutating a
// Shared object through this path is the descriptor-mediated mutation path
// callers must hold the object's lock for; SetSlotObject takes it itself so
// individual slot writes are atomic with respect to concurrent readers.
func (o *Object) SetSlotObject(index int, target *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objectSlots[index] = target
}

// SlotInt returns the 32-bit integer stored at index.
func (o *Object) SlotInt(index int) int32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.intSlots[index]
}

// SetSlotInt stores value into the integer slot at index.
func (o *Object) SetSlotInt(index int, value int32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.intSlots[index] = value
}

// AppendObjectSlots grows the object-slot array by appending extra,
// returning the starting index of the appended region. Used by variable-
// length kinds (tuples, bundle-tree edge lists) during construction; it is
// not safe to call concurrently with readers that assume a fixed slot
// count, so callers must only grow an object before publishing it beyond
// the owning fiber.
func (o *Object) AppendObjectSlots(extra ...*Object) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	start := len(o.objectSlots)
	o.objectSlots = append(o.objectSlots, extra...)
	return start
}

// withMutability swaps the descriptor for one at the given mutability.
// Callers must hold o.mu for writing.
func (o *Object) withMutability(m Mutability) {
	o.descriptor = o.descriptor.WithMutability(m)
}
