package values

import (
	"math/bits"

	"github.com/bits-and-blooms/bitset"
	"github.com/gitrdm/availcore/object"
)

// Set is a persistent hash-array-mapped trie (HAMT): a shallow node
// either holds its elements in a flat linear scan (cheap for small sets,
// where hashing buys nothing) or branches 32 ways on 5 bits of element
// hash per level, using a population-count bitmap so a branch node only
// allocates a child slot for populated branches. Every operation returns
// a new Set; the old one is untouched, so sets share structure the way
// Avail's tuples share spliced subtrees.
type Set struct {
	obj *object.Object
}

func WrapSet(o *object.Object) Set   { return Set{obj: object.Traverse(o)} }
func (s Set) Object() *object.Object { return s.obj }

// linearBinThreshold is the element count above which a bin switches from
// a flat linear scan to a hashed, bitmap-indexed branch.
const linearBinThreshold = 10

// maxHashLevel bounds trie depth: a linear bin at this level never
// splits, so elements whose hashes agree in the 5*maxHashLevel (35) low
// bits the trie consumes share one unbounded linear bin.
const maxHashLevel = 7

const (
	hashedBinSlotBitmap = iota // intSlots[0]: 32-bit population bitmap
)

// NewSet returns the empty set, represented as an empty linear bin.
func NewSet() Set {
	return Set{obj: object.Allocate(object.KindLinearSetBin, 0, 0)}
}

func hashChunk(hash uint64, level int) int {
	shift := uint(level * 5)
	if shift >= 64 {
		hash = bits.RotateLeft64(hash, level)
		shift = shift % 64
	}
	return int((hash >> shift) & 0x1F)
}

// Size returns the number of elements in the set.
func Size(s Set) int { return setSize(s.obj) }

func setSize(o *object.Object) int {
	switch o.Kind() {
	case object.KindLinearSetBin:
		return o.NumObjectSlots()
	case object.KindHashedSetBin:
		total := 0
		for i := 0; i < o.NumObjectSlots(); i++ {
			total += setSize(o.SlotObject(i))
		}
		return total
	default:
		panic("values: not a set bin")
	}
}

// Contains reports whether elem is a member of s.
func Contains(s Set, elem *object.Object) bool {
	return binContains(s.obj, elem, object.Hash(elem), 0)
}

func binContains(o *object.Object, elem *object.Object, hash uint64, level int) bool {
	switch o.Kind() {
	case object.KindLinearSetBin:
		for i := 0; i < o.NumObjectSlots(); i++ {
			if object.Equals(o.SlotObject(i), elem) {
				return true
			}
		}
		return false
	case object.KindHashedSetBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			return false
		}
		return binContains(o.SlotObject(childIndex(bm, chunk)), elem, hash, level+1)
	default:
		panic("values: not a set bin")
	}
}

// Insert returns a new set containing every element of s plus elem (a
// no-op, returning s unchanged, if elem is already present).
func Insert(s Set, elem *object.Object) Set {
	return Set{obj: binInsert(s.obj, elem, object.Hash(elem), 0)}
}

func binInsert(o *object.Object, elem *object.Object, hash uint64, level int) *object.Object {
	switch o.Kind() {
	case object.KindLinearSetBin:
		n := o.NumObjectSlots()
		elems := make([]*object.Object, 0, n+1)
		for i := 0; i < n; i++ {
			existing := o.SlotObject(i)
			if object.Equals(existing, elem) {
				return o
			}
			elems = append(elems, existing)
		}
		if n < linearBinThreshold || level >= maxHashLevel {
			elems = append(elems, elem)
			return newLinearSetBin(elems)
		}
		// Overflow: rebuild as a hashed bin and insert every element plus
		// the new one through the hashed path.
		hashedEmpty := object.Allocate(object.KindHashedSetBin, 0, 1)
		cur := hashedEmpty
		for _, e := range elems {
			cur = binInsert(cur, e, object.Hash(e), level)
		}
		return binInsert(cur, elem, hash, level)
	case object.KindHashedSetBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			child := newLinearSetBin([]*object.Object{elem})
			return insertChild(o, bm, chunk, child)
		}
		idx := childIndex(bm, chunk)
		newChild := binInsert(o.SlotObject(idx), elem, hash, level+1)
		return replaceChild(o, idx, newChild)
	default:
		panic("values: not a set bin")
	}
}

// Remove returns a new set with elem absent (a no-op, returning s
// unchanged, if elem was never present).
func Remove(s Set, elem *object.Object) Set {
	return Set{obj: binRemove(s.obj, elem, object.Hash(elem), 0)}
}

func binRemove(o *object.Object, elem *object.Object, hash uint64, level int) *object.Object {
	switch o.Kind() {
	case object.KindLinearSetBin:
		n := o.NumObjectSlots()
		elems := make([]*object.Object, 0, n)
		found := false
		for i := 0; i < n; i++ {
			existing := o.SlotObject(i)
			if !found && object.Equals(existing, elem) {
				found = true
				continue
			}
			elems = append(elems, existing)
		}
		if !found {
			return o
		}
		return newLinearSetBin(elems)
	case object.KindHashedSetBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			return o
		}
		idx := childIndex(bm, chunk)
		child := o.SlotObject(idx)
		newChild := binRemove(child, elem, hash, level+1)
		if newChild == child {
			return o
		}
		if setSize(newChild) == 0 {
			return removeChild(o, bm, chunk)
		}
		return replaceChild(o, idx, newChild)
	default:
		panic("values: not a set bin")
	}
}

func newLinearSetBin(elems []*object.Object) *object.Object {
	o := object.Allocate(object.KindLinearSetBin, len(elems), 0)
	for i, e := range elems {
		o.SetSlotObject(i, e)
	}
	return o
}

func bitsetFromSlot(o *object.Object) *bitset.BitSet {
	bm := bitset.New(32)
	raw := uint32(o.SlotInt(hashedBinSlotBitmap))
	for i := uint(0); i < 32; i++ {
		if raw&(1<<i) != 0 {
			bm.Set(i)
		}
	}
	return bm
}

func bitmapWord(bm *bitset.BitSet) int32 {
	var raw uint32
	for i := uint(0); i < 32; i++ {
		if bm.Test(i) {
			raw |= 1 << i
		}
	}
	return int32(raw)
}

// childIndex returns the object-slot position of the child for chunk,
// counting set bits below it in the population bitmap.
func childIndex(bm *bitset.BitSet, chunk uint) int {
	count := 0
	for i := uint(0); i < chunk; i++ {
		if bm.Test(i) {
			count++
		}
	}
	return count
}

func insertChild(o *object.Object, bm *bitset.BitSet, chunk uint, child *object.Object) *object.Object {
	idx := childIndex(bm, chunk)
	n := o.NumObjectSlots()
	children := make([]*object.Object, 0, n+1)
	for i := 0; i < idx; i++ {
		children = append(children, o.SlotObject(i))
	}
	children = append(children, child)
	for i := idx; i < n; i++ {
		children = append(children, o.SlotObject(i))
	}
	bm.Set(chunk)
	out := object.Allocate(o.Kind(), len(children), 1)
	for i, c := range children {
		out.SetSlotObject(i, c)
	}
	out.SetSlotInt(hashedBinSlotBitmap, bitmapWord(bm))
	return out
}

func removeChild(o *object.Object, bm *bitset.BitSet, chunk uint) *object.Object {
	idx := childIndex(bm, chunk)
	n := o.NumObjectSlots()
	children := make([]*object.Object, 0, n-1)
	for i := 0; i < n; i++ {
		if i != idx {
			children = append(children, o.SlotObject(i))
		}
	}
	bm.Clear(chunk)
	out := object.Allocate(o.Kind(), len(children), 1)
	for i, c := range children {
		out.SetSlotObject(i, c)
	}
	out.SetSlotInt(hashedBinSlotBitmap, bitmapWord(bm))
	return out
}

func replaceChild(o *object.Object, idx int, child *object.Object) *object.Object {
	n := o.NumObjectSlots()
	out := object.Allocate(o.Kind(), n, 1)
	for i := 0; i < n; i++ {
		if i == idx {
			out.SetSlotObject(i, child)
		} else {
			out.SetSlotObject(i, o.SlotObject(i))
		}
	}
	out.SetSlotInt(hashedBinSlotBitmap, o.SlotInt(hashedBinSlotBitmap))
	return out
}

func init() {
	for _, kind := range []object.DescriptorKind{object.KindLinearSetBin, object.KindHashedSetBin} {
		object.RegisterHash(kind, func(o *object.Object) uint64 {
			return setHash(Set{obj: o})
		})
		object.RegisterEquals(kind, func(a, b *object.Object) bool {
			return setsEqual(Set{obj: a}, Set{obj: b})
		})
	}
}

// setHash XORs every element's hash together so it is independent of
// insertion order and of whether the set happens to be a linear or
// hashed bin at the moment it's hashed.
func setHash(s Set) uint64 {
	var acc uint64
	walkSet(s.obj, func(elem *object.Object) { acc ^= object.Hash(elem) })
	return combineHash(acc, uint64(Size(s)))
}

func walkSet(o *object.Object, visit func(*object.Object)) {
	switch o.Kind() {
	case object.KindLinearSetBin:
		for i := 0; i < o.NumObjectSlots(); i++ {
			visit(o.SlotObject(i))
		}
	case object.KindHashedSetBin:
		for i := 0; i < o.NumObjectSlots(); i++ {
			walkSet(o.SlotObject(i), visit)
		}
	}
}

func setsEqual(a, b Set) bool {
	if Size(a) != Size(b) {
		return false
	}
	equal := true
	walkSet(a.obj, func(elem *object.Object) {
		if equal && !Contains(b, elem) {
			equal = false
		}
	})
	return equal
}
