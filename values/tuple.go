package values

import (
	"github.com/cespare/xxhash/v2"
	"github.com/gitrdm/availcore/object"
)

// Tuple is a thin, kind-agnostic handle onto an object.Object holding one
// of the five tuple representations. Per the redesign notes, callers
// never need to know or switch on which representation they're holding —
// every operation dispatches through tupleOps, a capability-trait table
// keyed by object.DescriptorKind, exactly the way §4.1 describes replacing
// deep descriptor inheritance with a const table keyed by (kind, op).
type Tuple struct {
	obj *object.Object
}

// WrapTuple adapts an *object.Object known to hold a tuple representation
// into a Tuple handle.
func WrapTuple(o *object.Object) Tuple { return Tuple{obj: object.Traverse(o)} }

// Object returns the underlying heap object.
func (t Tuple) Object() *object.Object { return t.obj }

// tupleOps is the capability trait every tuple representation implements.
type tupleOps interface {
	length(o *object.Object) int
	at(o *object.Object, index int) *object.Object
	slice(o *object.Object, from, to int) *object.Object
}

var tupleOpsTable = map[object.DescriptorKind]tupleOps{
	object.KindNybbleTuple:  nybbleTupleOps{},
	object.KindByteTuple:    byteTupleOps{},
	object.KindStringTuple:  stringTupleOps{},
	object.KindObjectTuple:  objectTupleOps{},
	object.KindSplicedTuple: splicedTupleOps{},
}

func tupleOpsFor(kind object.DescriptorKind) tupleOps {
	return object.MustDispatch(kind, tupleOpsTable, "tupleOps")
}

// Length returns the number of elements in the tuple.
func (t Tuple) Length() int { return tupleOpsFor(t.obj.Kind()).length(t.obj) }

// At returns the element at the given 0-based index, dispatching to the
// representation's own accessor. On a spliced tuple this descends O(log n)
// levels; on a flat representation it is O(1).
func (t Tuple) At(index int) *object.Object {
	return tupleOpsFor(t.obj.Kind()).at(t.obj, index)
}

// Slice returns the elements in [from, to). A range covering the whole
// tuple returns the tuple itself. Otherwise flat representations copy
// into a new flat tuple (unavoidable — there is no tree to share); a
// spliced tuple descends into whichever subtree(s) the range touches and
// shares every subtree that is either wholly inside or wholly outside the
// requested range, so only O(log n) new nodes are allocated, never a full
// element copy.
func (t Tuple) Slice(from, to int) Tuple {
	if from == 0 && to == t.Length() {
		return t
	}
	return WrapTuple(tupleOpsFor(t.obj.Kind()).slice(t.obj, from, to))
}

// Concat joins a and b. If either is empty the other is returned
// unchanged (satisfying concat(empty,t)=t=concat(t,empty)). Small results
// are flattened into a single objectTuple; large results become a
// splicedTuple so concatenation stays O(log n) rather than O(n).
func Concat(a, b Tuple) Tuple {
	if a.Length() == 0 {
		return b
	}
	if b.Length() == 0 {
		return a
	}
	if a.Length()+b.Length() <= smallConcatThreshold {
		elems := make([]*object.Object, 0, a.Length()+b.Length())
		for i := 0; i < a.Length(); i++ {
			elems = append(elems, a.At(i))
		}
		for i := 0; i < b.Length(); i++ {
			elems = append(elems, b.At(i))
		}
		return NewObjectTuple(elems)
	}
	return newSplicedTuple(a, b)
}

// smallConcatThreshold bounds how large a concatenation can be before it
// is represented as a splice rather than flattened outright.
const smallConcatThreshold = 32

// EmptyTuple returns the canonical zero-length tuple.
func EmptyTuple() Tuple { return NewObjectTuple(nil) }

// --- hashing -----------------------------------------------------------

// tupleHash computes a representation-independent hash: it folds the
// element hashes (via object.Hash, so a boxed integer element hashes the
// same whether it came from a packed nybble word or a boxed objectTuple
// slot) together with the length, using the same combining step
// regardless of how the tuple happens to be stored (§8 scenario 1). The
// fold runs over every element in order, seeded with the total length,
// so hash(concat(a,b)) is not derivable from hash(a) and hash(b) alone;
// it is recomputed from the elements.
func tupleHash(t Tuple) uint64 {
	n := t.Length()
	acc := xxhash.Sum64String("avail-tuple")
	acc = combineHash(acc, uint64(n))
	for i := 0; i < n; i++ {
		acc = combineHash(acc, object.Hash(t.At(i)))
	}
	return acc
}

func combineHash(acc, x uint64) uint64 {
	const prime = 1099511628211
	return (acc ^ x) * prime
}

func tuplesEqual(a, b Tuple) bool {
	if a.Length() != b.Length() {
		return false
	}
	for i := 0; i < a.Length(); i++ {
		if !object.Equals(a.At(i), b.At(i)) {
			return false
		}
	}
	return true
}

func init() {
	for _, kind := range []object.DescriptorKind{
		object.KindNybbleTuple, object.KindByteTuple, object.KindStringTuple,
		object.KindObjectTuple, object.KindSplicedTuple,
	} {
		object.RegisterHash(kind, func(o *object.Object) uint64 { return tupleHash(WrapTuple(o)) })
		object.RegisterEquals(kind, func(a, b *object.Object) bool { return tuplesEqual(WrapTuple(a), WrapTuple(b)) })
	}
}
