package values

import (
	"math/big"

	"github.com/gitrdm/availcore/object"
)

// Number kinds. BoundedInteger is arbitrary-precision signed; Extended
// adds the ±infinity sentinels; Float and Double are IEEE-754 single and
// double precision.
const (
	numSlotBig = iota
	numSlotSign // only meaningful for ExtendedInteger: -1, 0 (finite), +1
	numSlotCount
)

const (
	floatSlotBits = iota
	floatSlotCount
)

// Number is a handle onto one of the four number kinds. Arithmetic uses
// the closed pair-dispatch pattern from spec §4.2: Add(a,b) looks up a's
// kind in addTable, and the function found there switches on b's kind —
// an explicit, closed dispatch over both operands' kinds rather than
// open-ended operator overloading.
type Number struct {
	obj *object.Object
}

func WrapNumber(o *object.Object) Number { return Number{obj: object.Traverse(o)} }
func (n Number) Object() *object.Object  { return n.obj }
func (n Number) Kind() object.DescriptorKind { return n.obj.Kind() }

// NewBoundedInteger wraps an arbitrary-precision integer.
func NewBoundedInteger(v *big.Int) Number {
	o := object.Allocate(object.KindBoundedInteger, 1, 0)
	o.SetSlotObject(numSlotBig, wrapBigInt(v))
	return Number{obj: o}
}

// NewInt64 is a convenience constructor for small bounded integers, used
// throughout the interpreter for literal pushes and loop counters.
func NewInt64(v int64) Number {
	return NewBoundedInteger(big.NewInt(v))
}

// boxSmallInt is the helper packed-tuple representations use to produce a
// boxed element on demand; it is deliberately the same constructor
// ordinary code uses, so a nybble tuple's elements hash and compare
// exactly like the equivalent objectTuple of boxed integers (§8 scenario
// 1: representation must not affect identity).
func boxSmallInt(v int64) *object.Object { return NewInt64(v).Object() }

func unboxInt64(o *object.Object) int64 {
	return WrapNumber(o).AsInt64()
}

// infSign: 0 = finite, -1 = negative infinity, +1 = positive infinity.
func NewExtendedInteger(v *big.Int, infSign int) Number {
	o := object.Allocate(object.KindExtendedInteger, 1, numSlotSign+1)
	if infSign == 0 {
		o.SetSlotObject(numSlotBig, wrapBigInt(v))
	} else {
		o.SetSlotObject(numSlotBig, wrapBigInt(big.NewInt(0)))
	}
	o.SetSlotInt(numSlotSign, int32(infSign))
	return Number{obj: o}
}

// PositiveInfinity and NegativeInfinity are the extended-integer
// sentinels referenced throughout §4.2's arithmetic rules.
func PositiveInfinity() Number { return NewExtendedInteger(nil, 1) }
func NegativeInfinity() Number { return NewExtendedInteger(nil, -1) }

func NewFloat(v float32) Number {
	o := object.Allocate(object.KindFloat, 0, floatSlotCount)
	o.SetSlotInt(floatSlotBits, int32(int32FromFloat32Bits(v)))
	return Number{obj: o}
}

func NewDouble(v float64) Number {
	bits := int64(float64Bits(v))
	o := object.Allocate(object.KindDouble, 0, 2)
	o.SetSlotInt(0, int32(bits>>32))
	o.SetSlotInt(1, int32(bits))
	return Number{obj: o}
}

// AsBigInt returns the arbitrary-precision value of a BoundedInteger or
// the finite part of an ExtendedInteger. It panics on Float/Double, the
// same way the source VM's typed slot accessors assume the caller already
// checked the kind.
func (n Number) AsBigInt() *big.Int {
	switch n.Kind() {
	case object.KindBoundedInteger, object.KindExtendedInteger:
		return unwrapBigInt(n.obj.SlotObject(numSlotBig))
	default:
		panic("values: AsBigInt on non-integer Number")
	}
}

// AsInt64 truncates the value to an int64 for interpreter fast paths
// (loop counters, small literal pushes) that don't need arbitrary
// precision.
func (n Number) AsInt64() int64 {
	return n.AsBigInt().Int64()
}

// IsInfinite reports whether n is an ExtendedInteger infinity, and if so
// its sign (+1/-1).
func (n Number) IsInfinite() (sign int, ok bool) {
	if n.Kind() != object.KindExtendedInteger {
		return 0, false
	}
	s := int(n.obj.SlotInt(numSlotSign))
	return s, s != 0
}

// AsFloat32 returns the bit-decoded value of a Float.
func (n Number) AsFloat32() float32 {
	return float32FromBits(uint32(n.obj.SlotInt(floatSlotBits)))
}

// AsFloat64 returns the bit-decoded value of a Double.
func (n Number) AsFloat64() float64 {
	bits := (uint64(uint32(n.obj.SlotInt(0))) << 32) | uint64(uint32(n.obj.SlotInt(1)))
	return float64FromBits(bits)
}

func init() {
	for _, kind := range []object.DescriptorKind{
		object.KindBoundedInteger, object.KindExtendedInteger, object.KindFloat, object.KindDouble,
	} {
		k := kind
		object.RegisterHash(k, func(o *object.Object) uint64 { return numberHash(WrapNumber(o)) })
		object.RegisterEquals(k, func(a, b *object.Object) bool { return numbersEqual(WrapNumber(a), WrapNumber(b)) })
	}
}
