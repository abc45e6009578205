package values

import "github.com/gitrdm/availcore/object"

// Function is a RawFunction closed over a fixed set of outer values
// captured at creation time. Object slots hold the outer captures;
// Code is kept as a Go-level pointer rather than pushed through slots
// since RawFunction is shared, immutable template state, not part of
// this function's own mutable graph.
type Function struct {
	obj  *object.Object
	Code *RawFunction
}

// NewFunction closes code over outers, one object slot per outer
// capture in declaration order.
func NewFunction(code *RawFunction, outers []*object.Object) *Function {
	obj := object.Allocate(object.KindFunction, len(outers), 0)
	for i, o := range outers {
		obj.SetSlotObject(i, o)
	}
	return &Function{obj: obj, Code: code}
}

func (f *Function) Object() *object.Object { return f.obj }

// NumOuters returns the number of captured outer variables.
func (f *Function) NumOuters() int { return f.obj.NumObjectSlots() }

// Outer returns the capture at the given 0-based index.
func (f *Function) Outer(index int) *object.Object { return f.obj.SlotObject(index) }
