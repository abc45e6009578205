package values

import "github.com/gitrdm/availcore/object"

// NewObjectTuple builds the general-purpose tuple representation: one
// object slot per element, no packing. Every other representation exists
// purely as a denser encoding of the same logical sequence.
func NewObjectTuple(elements []*object.Object) Tuple {
	o := object.Allocate(object.KindObjectTuple, len(elements), 0)
	for i, e := range elements {
		o.SetSlotObject(i, e)
	}
	return WrapTuple(o)
}

type objectTupleOps struct{}

func (objectTupleOps) length(o *object.Object) int { return o.NumObjectSlots() }

func (objectTupleOps) at(o *object.Object, index int) *object.Object {
	return o.SlotObject(index)
}

func (objectTupleOps) slice(o *object.Object, from, to int) *object.Object {
	elems := make([]*object.Object, 0, to-from)
	for i := from; i < to; i++ {
		elems = append(elems, o.SlotObject(i))
	}
	return NewObjectTuple(elems).Object()
}
