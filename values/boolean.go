package values

import "github.com/gitrdm/availcore/object"

// Boolean values are preallocated singletons: there are only ever two of
// them, True() and False(), and every truth value in the system shares
// one or the other so Equals on booleans degenerates to pointer equality.
var (
	trueObject  = object.Allocate(object.KindBoolean, 0, 1)
	falseObject = object.Allocate(object.KindBoolean, 0, 1)
)

func init() {
	trueObject.SetSlotInt(0, 1)
	falseObject.SetSlotInt(0, 0)
	object.MakeShared(trueObject)
	object.MakeShared(falseObject)

	object.RegisterHash(object.KindBoolean, func(o *object.Object) uint64 {
		if o.SlotInt(0) != 0 {
			return 0x1111111111111111
		}
		return 0x2222222222222222
	})
	object.RegisterEquals(object.KindBoolean, func(a, b *object.Object) bool {
		return a.SlotInt(0) != 0 == (b.SlotInt(0) != 0)
	})
}

// True returns the singleton true value.
func True() *object.Object { return trueObject }

// False returns the singleton false value.
func False() *object.Object { return falseObject }

// BoolOf converts a Go bool to the corresponding singleton.
func BoolOf(v bool) *object.Object {
	if v {
		return trueObject
	}
	return falseObject
}

// AsBool reads a Boolean object back into a Go bool.
func AsBool(o *object.Object) bool {
	return object.Traverse(o).SlotInt(0) != 0
}
