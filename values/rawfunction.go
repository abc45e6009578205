package values

import "github.com/gitrdm/availcore/object"

// RawFunction is the compiled, closure-free template a Function
// instantiates with its outer captures: literal pool, nybblecode
// instructions, declared primitive number, and outer-variable type
// signature. Two Functions built from the same RawFunction with
// different outer captures share this object.
type RawFunction struct {
	obj *object.Object

	Nybblecodes   []byte
	Literals      []*object.Object
	PrimitiveNum  int
	OuterTypes    []Type
	NumArgs       int
	NumLocals     int
	ChunkSlot     *object.Object // not set by leveltwo.Engine, which caches chunks in its own map
}

func NewRawFunction(nybblecodes []byte, literals []*object.Object, primitiveNum, numArgs, numLocals int, outerTypes []Type) *RawFunction {
	return &RawFunction{
		obj:          object.Allocate(object.KindRawFunction, 0, 0),
		Nybblecodes:  nybblecodes,
		Literals:     literals,
		PrimitiveNum: primitiveNum,
		OuterTypes:   outerTypes,
		NumArgs:      numArgs,
		NumLocals:    numLocals,
	}
}

func (r *RawFunction) Object() *object.Object { return r.obj }

// HasPrimitive reports whether this raw function declares a primitive
// to try before falling back to its nybblecode body.
func (r *RawFunction) HasPrimitive() bool { return r.PrimitiveNum != 0 }
