package values

import "github.com/gitrdm/availcore/object"

const (
	splicedSlotLeft = iota
	splicedSlotRight
	splicedSlotCount
)

// newSplicedTuple builds a concatenation node over two already-built
// tuples without copying either one's elements. Concat uses this once
// the combined length crosses smallConcatThreshold, so repeated
// concatenation of large tuples stays O(log n) amortized rather than
// O(n) per call.
func newSplicedTuple(a, b Tuple) Tuple {
	o := object.Allocate(object.KindSplicedTuple, splicedSlotCount, 1)
	o.SetSlotObject(splicedSlotLeft, a.Object())
	o.SetSlotObject(splicedSlotRight, b.Object())
	o.SetSlotInt(0, int32(a.Length()+b.Length()))
	return WrapTuple(o)
}

func splicedLeft(o *object.Object) Tuple  { return WrapTuple(o.SlotObject(splicedSlotLeft)) }
func splicedRight(o *object.Object) Tuple { return WrapTuple(o.SlotObject(splicedSlotRight)) }

type splicedTupleOps struct{}

func (splicedTupleOps) length(o *object.Object) int { return int(o.SlotInt(0)) }

func (splicedTupleOps) at(o *object.Object, index int) *object.Object {
	left := splicedLeft(o)
	if n := left.Length(); index < n {
		return left.At(index)
	} else {
		return splicedRight(o).At(index - n)
	}
}

// slice shares whichever subtree(s) lie wholly inside [from,to) and only
// descends into a subtree that straddles the boundary, so a slice of a
// spliced tuple allocates at most O(log n) new nodes rather than copying
// every element.
func (splicedTupleOps) slice(o *object.Object, from, to int) *object.Object {
	left := splicedLeft(o)
	right := splicedRight(o)
	leftLen := left.Length()

	switch {
	case to <= leftLen:
		return left.Slice(from, to).Object()
	case from >= leftLen:
		return right.Slice(from-leftLen, to-leftLen).Object()
	default:
		leftPart := left.Slice(from, leftLen)
		rightPart := right.Slice(0, to-leftLen)
		return newSplicedTuple(leftPart, rightPart).Object()
	}
}
