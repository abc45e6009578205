package levelone

import (
	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
)

// PrimitiveFn is a built-in operation identified by a stable numeric
// primitive number (spec.md §9: "keep the numeric namespace... implement
// as a match on the enumeration"). On failure it reports a failureCode
// instead of panicking; Interpreter.Step discards that code and falls
// through to the function's Level-One body. No failure variable is
// bound.
type PrimitiveFn func(args []*object.Object) (result *object.Object, failureCode values.ErrorKind, ok bool)

// Primitive numbers. 0 means "no primitive" (RawFunction.HasPrimitive
// returns false); the rest are a closed, stable enumeration exactly the
// way spec.md §9 asks for.
const (
	PrimNone = iota
	PrimTupleAt
	PrimTupleConcat
	PrimNumberAdd
	PrimNumberDivide
	PrimitiveCount
)

// PrimitiveTable is the primitiveTable [PrimitiveCount]PrimitiveFn array
// spec.md §4.4 calls for, indexed directly by primitive number rather
// than a map, since the number space is small, dense, and fixed at
// compile time.
type PrimitiveTable struct {
	entries [PrimitiveCount]PrimitiveFn
}

func DefaultPrimitiveTable() *PrimitiveTable {
	t := &PrimitiveTable{}
	t.entries[PrimTupleAt] = primTupleAt
	t.entries[PrimTupleConcat] = primTupleConcat
	t.entries[PrimNumberAdd] = primNumberAdd
	t.entries[PrimNumberDivide] = primNumberDivide
	return t
}

// Invoke runs primitive number n against args. A primitive number with
// no registered entry reports ErrInvalidPrimitiveNumber.
func (t *PrimitiveTable) Invoke(n int, args []*object.Object) (*object.Object, values.ErrorKind, bool) {
	if n <= PrimNone || n >= PrimitiveCount || t.entries[n] == nil {
		return nil, values.ErrInvalidPrimitiveNumber, false
	}
	return t.entries[n](args)
}

func primTupleAt(args []*object.Object) (*object.Object, values.ErrorKind, bool) {
	tuple := values.WrapTuple(args[0])
	index := int(values.WrapNumber(args[1]).AsInt64())
	if index < 1 || index > tuple.Length() {
		return nil, values.ErrIncorrectArgumentType, false
	}
	return tuple.At(index - 1), 0, true
}

func primTupleConcat(args []*object.Object) (*object.Object, values.ErrorKind, bool) {
	result := values.Concat(values.WrapTuple(args[0]), values.WrapTuple(args[1]))
	return result.Object(), 0, true
}

func primNumberAdd(args []*object.Object) (*object.Object, values.ErrorKind, bool) {
	sum, err := values.Add(values.WrapNumber(args[0]), values.WrapNumber(args[1]))
	if err != nil {
		kind, _ := values.KindOf(err)
		return nil, kind, false
	}
	return sum.Object(), 0, true
}

func primNumberDivide(args []*object.Object) (*object.Object, values.ErrorKind, bool) {
	quotient, err := values.Divide(values.WrapNumber(args[0]), values.WrapNumber(args[1]))
	if err != nil {
		kind, _ := values.KindOf(err)
		return nil, kind, false
	}
	return quotient.Object(), 0, true
}
