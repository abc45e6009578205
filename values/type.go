package values

import (
	"sync"

	"github.com/gitrdm/availcore/object"
)

// typeTag is the minimal Type lattice §3 supplements into the spec:
// just enough structure for the dispatch package's testing tree to
// decide subtype questions. It is a small closed Go enum rather than an
// object-slot kind, since types never need to be hashed into sets or
// serialized as first-class Avail data for anything this rewrite builds.
type typeTag int

const (
	tagBottom typeTag = iota
	tagAny
	tagTuple
	tagNumber
	tagFunction
	tagUnion
)

// Type is an immutable Go value (not an object.Object) representing a
// position in the subtype lattice. AnyType is the top, BottomType the
// bottom; TupleType/NumberType/FunctionType are parameterized
// constructors, and Union/Intersection combine existing types the way
// spec.md's method dispatch needs to join branches of the testing tree.
type Type struct {
	tag      typeTag
	elements []Type // for tagUnion: the member types
	param    *Type  // for tagTuple: element type; for tagFunction: return type
}

func AnyType() Type    { return Type{tag: tagAny} }
func BottomType() Type { return Type{tag: tagBottom} }

// TupleType constructs the type of tuples whose elements are all
// elementType (a simplification of Avail's per-position tuple types,
// sufficient for the dispatch examples this rewrite exercises).
func TupleType(elementType Type) Type {
	e := elementType
	return Type{tag: tagTuple, param: &e}
}

// NumberType is the type of every Number value; Avail's real number
// type hierarchy (integer range types, etc.) is out of scope here.
func NumberType() Type { return Type{tag: tagNumber} }

// FunctionType constructs the type of functions returning returnType.
func FunctionType(returnType Type) Type {
	r := returnType
	return Type{tag: tagFunction, param: &r}
}

// Union returns the least type that is a supertype of every member.
func Union(members ...Type) Type {
	if len(members) == 1 {
		return members[0]
	}
	return Type{tag: tagUnion, elements: members}
}

// Intersection returns the greatest type that is a subtype of both a and
// b, or BottomType if they share no common value.
func Intersection(a, b Type) Type {
	if a.IsSubtypeOf(b) {
		return a
	}
	if b.IsSubtypeOf(a) {
		return b
	}
	return BottomType()
}

// IsSubtypeOf reports whether every value of type t also has type other.
func (t Type) IsSubtypeOf(other Type) bool {
	if other.tag == tagAny || t.tag == tagBottom {
		return true
	}
	if t.tag == tagAny && other.tag != tagAny {
		return false
	}
	if other.tag == tagUnion {
		for _, m := range other.elements {
			if t.IsSubtypeOf(m) {
				return true
			}
		}
		return false
	}
	if t.tag == tagUnion {
		for _, m := range t.elements {
			if !m.IsSubtypeOf(other) {
				return false
			}
		}
		return true
	}
	if t.tag != other.tag {
		return false
	}
	switch t.tag {
	case tagTuple:
		return t.param.IsSubtypeOf(*other.param)
	case tagFunction:
		return t.param.IsSubtypeOf(*other.param)
	default:
		return true
	}
}

// Equal reports mutual subtyping.
func (t Type) Equal(other Type) bool {
	return t.IsSubtypeOf(other) && other.IsSubtypeOf(t)
}

// TypeOf returns the most specific Type this package's lattice can
// express for a given runtime object — enough granularity for dispatch
// tests, not a faithful replica of Avail's full kind hierarchy.
func TypeOf(o *object.Object) Type {
	switch o.Kind() {
	case object.KindNybbleTuple, object.KindByteTuple, object.KindStringTuple,
		object.KindObjectTuple, object.KindSplicedTuple:
		return TupleType(AnyType())
	case object.KindBoundedInteger, object.KindExtendedInteger, object.KindFloat, object.KindDouble:
		return NumberType()
	case object.KindFunction:
		return FunctionType(AnyType())
	default:
		return AnyType()
	}
}

// typeRegistry backs BoxType/UnboxType: Type is a plain Go value (§ above),
// not an object-slot layout, so boxing it into a literal pool entry (for
// levelone's SuperCast opcode, which needs a statically declared Type as
// an operand) stores the Go value out-of-band and keys it by slot index.
var typeRegistry = struct {
	mu    sync.RWMutex
	types []Type
}{}

// BoxType wraps t as a KindType object.Object suitable for a RawFunction's
// literal pool.
func BoxType(t Type) *object.Object {
	typeRegistry.mu.Lock()
	idx := len(typeRegistry.types)
	typeRegistry.types = append(typeRegistry.types, t)
	typeRegistry.mu.Unlock()

	obj := object.Allocate(object.KindType, 0, 1)
	obj.SetSlotInt(0, int32(idx))
	return obj
}

// UnboxType recovers the Type a previous BoxType call wrapped. obj must
// be a KindType object produced by BoxType.
func UnboxType(obj *object.Object) Type {
	if obj.Kind() != object.KindType {
		panic("values: UnboxType called on a non-Type object")
	}
	idx := int(obj.SlotInt(0))
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()
	return typeRegistry.types[idx]
}
