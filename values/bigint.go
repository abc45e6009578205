package values

import (
	"math"
	"math/big"

	"github.com/gitrdm/availcore/object"
)

// wrapBigInt encodes an arbitrary-precision integer as a byteTuple: a
// single sign int slot followed by the magnitude's big-endian bytes.
// Piggybacking on the byteTuple representation means BoundedInteger gets
// hashing, equality, and gob round-tripping for free from the tuple
// machinery instead of a bespoke encoding.
func wrapBigInt(v *big.Int) *object.Object {
	if v == nil {
		v = big.NewInt(0)
	}
	sign := byte(1)
	if v.Sign() < 0 {
		sign = 0
	}
	magnitude := v.Bytes()
	packed := make([]byte, 0, len(magnitude)+1)
	packed = append(packed, sign)
	packed = append(packed, magnitude...)
	return NewByteTuple(packed).Object()
}

func unwrapBigInt(o *object.Object) *big.Int {
	packed := byteTupleBytes(o)
	if len(packed) == 0 {
		return big.NewInt(0)
	}
	magnitude := new(big.Int).SetBytes(packed[1:])
	if packed[0] == 0 {
		magnitude.Neg(magnitude)
	}
	return magnitude
}

func int32FromFloat32Bits(v float32) uint32 { return math.Float32bits(v) }
func float64Bits(v float64) uint64          { return math.Float64bits(v) }
func float32FromBits(bits uint32) float32   { return math.Float32frombits(bits) }
func float64FromBits(bits uint64) float64   { return math.Float64frombits(bits) }
