package values

import "github.com/gitrdm/availcore/object"

// NewNybbleTuple packs a sequence of values in [0,15] two per int slot.
// It is the densest tuple representation, used for small-integer-heavy
// tuples such as parse-tree node argument indices.
func NewNybbleTuple(nybbles []byte) Tuple {
	slotCount := (len(nybbles) + 1) / 2
	o := object.Allocate(object.KindNybbleTuple, 0, slotCount+1)
	o.SetSlotInt(0, int32(len(nybbles)))
	for i, n := range nybbles {
		slot := 1 + i/2
		cur := o.SlotInt(slot)
		if i%2 == 0 {
			cur = (cur &^ 0xF) | int32(n&0xF)
		} else {
			cur = (cur &^ 0xF0) | (int32(n&0xF) << 4)
		}
		o.SetSlotInt(slot, cur)
	}
	return WrapTuple(o)
}

func nybbleTupleAt(o *object.Object, index int) byte {
	slot := 1 + index/2
	v := o.SlotInt(slot)
	if index%2 == 0 {
		return byte(v & 0xF)
	}
	return byte((v >> 4) & 0xF)
}

type nybbleTupleOps struct{}

func (nybbleTupleOps) length(o *object.Object) int { return int(o.SlotInt(0)) }

func (nybbleTupleOps) at(o *object.Object, index int) *object.Object {
	return boxSmallInt(int64(nybbleTupleAt(o, index)))
}

func (nybbleTupleOps) slice(o *object.Object, from, to int) *object.Object {
	nybbles := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		nybbles = append(nybbles, nybbleTupleAt(o, i))
	}
	return NewNybbleTuple(nybbles).Object()
}
