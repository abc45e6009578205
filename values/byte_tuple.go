package values

import "github.com/gitrdm/availcore/object"

// NewByteTuple packs a sequence of values in [0,255] one per int slot. It
// is the representation literal byte-array pushes and most binary I/O
// produce; the packing saves seven eighths of the memory an objectTuple
// of the same bytes would cost.
func NewByteTuple(bytes []byte) Tuple {
	o := object.Allocate(object.KindByteTuple, 0, len(bytes))
	for i, b := range bytes {
		o.SetSlotInt(i, int32(b))
	}
	return WrapTuple(o)
}

// byteTupleBytes extracts the raw bytes back out of a byteTuple object,
// used internally by the bigint and string codecs rather than walking
// through boxed Number elements.
func byteTupleBytes(o *object.Object) []byte {
	n := o.NumIntSlots()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(o.SlotInt(i))
	}
	return out
}

type byteTupleOps struct{}

func (byteTupleOps) length(o *object.Object) int { return o.NumIntSlots() }

func (byteTupleOps) at(o *object.Object, index int) *object.Object {
	return boxSmallInt(int64(o.SlotInt(index)))
}

func (byteTupleOps) slice(o *object.Object, from, to int) *object.Object {
	bytes := make([]byte, 0, to-from)
	for i := from; i < to; i++ {
		bytes = append(bytes, byte(o.SlotInt(i)))
	}
	return NewByteTuple(bytes).Object()
}
