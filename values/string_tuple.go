package values

import "github.com/gitrdm/availcore/object"

// NewStringTuple packs a sequence of Unicode code points one per int
// slot — the "two-byte" representation: most source text fits in the
// Basic Multilingual Plane, so this is denser than an objectTuple of
// boxed characters while still handling the full code point range a
// plain two-byte encoding alone could not.
func NewStringTuple(runes []rune) Tuple {
	o := object.Allocate(object.KindStringTuple, 0, len(runes))
	for i, r := range runes {
		o.SetSlotInt(i, int32(r))
	}
	return WrapTuple(o)
}

// wrapString is the Go-string convenience constructor atoms, messages,
// and module names use; it is not itself a distinct representation,
// merely NewStringTuple fed from a decoded Go string.
func wrapString(s string) *object.Object {
	return NewStringTuple([]rune(s)).Object()
}

// unwrapString reads a stringTuple object back into a Go string. It
// panics if o is not a stringTuple, mirroring the typed-slot-access
// convention used throughout this package.
func unwrapString(o *object.Object) string {
	if o.Kind() != object.KindStringTuple {
		panic("values: unwrapString on non-string tuple")
	}
	n := o.NumIntSlots()
	runes := make([]rune, n)
	for i := 0; i < n; i++ {
		runes[i] = rune(o.SlotInt(i))
	}
	return string(runes)
}

type stringTupleOps struct{}

func (stringTupleOps) length(o *object.Object) int { return o.NumIntSlots() }

func (stringTupleOps) at(o *object.Object, index int) *object.Object {
	return boxSmallInt(int64(o.SlotInt(index)))
}

func (stringTupleOps) slice(o *object.Object, from, to int) *object.Object {
	runes := make([]rune, 0, to-from)
	for i := from; i < to; i++ {
		runes = append(runes, rune(o.SlotInt(i)))
	}
	return NewStringTuple(runes).Object()
}
