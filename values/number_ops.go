package values

import (
	"math/big"

	"github.com/cespare/xxhash/v2"
	"github.com/gitrdm/availcore/object"
)

// numberHash folds a Number down to a representation-stable hash. Integers
// hash by their big.Int bytes regardless of whether they happen to be
// BoundedInteger or a finite ExtendedInteger, so promoting one to the
// other never changes identity; the two infinities get fixed sentinels.
func numberHash(n Number) uint64 {
	switch n.Kind() {
	case object.KindBoundedInteger:
		return hashBigInt(n.AsBigInt())
	case object.KindExtendedInteger:
		if sign, ok := n.IsInfinite(); ok {
			if sign > 0 {
				return xxhash.Sum64String("avail-number+inf")
			}
			return xxhash.Sum64String("avail-number-inf")
		}
		return hashBigInt(n.AsBigInt())
	case object.KindFloat:
		return xxhash.Sum64String("avail-number-float") ^ uint64(int32FromFloat32Bits(n.AsFloat32()))
	case object.KindDouble:
		return xxhash.Sum64String("avail-number-double") ^ float64Bits(n.AsFloat64())
	default:
		return 0
	}
}

func hashBigInt(v *big.Int) uint64 {
	acc := xxhash.Sum64String("avail-number-int")
	acc = combineHash(acc, uint64(v.Sign()+1))
	for _, b := range v.Bytes() {
		acc = combineHash(acc, uint64(b))
	}
	return acc
}

// numbersEqual implements the same-value-regardless-of-representation
// rule for the two integer kinds, and exact bit equality for the two
// float kinds; a Float and a Double are never Equals even at the same
// mathematical value, matching the source VM's kind-sensitive equality.
func numbersEqual(a, b Number) bool {
	aInt := a.Kind() == object.KindBoundedInteger || a.Kind() == object.KindExtendedInteger
	bInt := b.Kind() == object.KindBoundedInteger || b.Kind() == object.KindExtendedInteger
	if aInt && bInt {
		aSign, aInf := a.IsInfinite()
		bSign, bInf := b.IsInfinite()
		if aInf || bInf {
			return aInf && bInf && aSign == bSign
		}
		return a.AsBigInt().Cmp(b.AsBigInt()) == 0
	}
	if a.Kind() == object.KindFloat && b.Kind() == object.KindFloat {
		return a.AsFloat32() == b.AsFloat32()
	}
	if a.Kind() == object.KindDouble && b.Kind() == object.KindDouble {
		return a.AsFloat64() == b.AsFloat64()
	}
	return false
}

// addTable implements the closed pair-dispatch matrix from §4.2: Add
// looks up by a's kind first, then the inner function switches on b's
// kind, so adding a fifth number kind means adding one new row here.
// Divide and Compare do not use a table: each switches on the operands'
// kinds directly.
var addTable = map[object.DescriptorKind]func(a, b Number) (Number, error){
	object.KindBoundedInteger:  addFromInteger,
	object.KindExtendedInteger: addFromInteger,
	object.KindFloat:           addFromFloat,
	object.KindDouble:          addFromDouble,
}

// Add computes a+b, promoting across integer/extended-integer boundaries
// and respecting the infinity absorption rules (inf + finite = inf,
// inf + -inf = ArithmeticDomain).
func Add(a, b Number) (Number, error) {
	fn, err := object.Dispatch(a.Kind(), addTable, "Add")
	if err != nil {
		return Number{}, err
	}
	return fn(a, b)
}

func addFromInteger(a, b Number) (Number, error) {
	aSign, aInf := a.IsInfinite()
	bSign, bInf := b.IsInfinite()
	switch {
	case aInf && bInf:
		if aSign != bSign {
			return Number{}, NewError(ErrArithmeticDomain, "infinity minus infinity")
		}
		return NewExtendedInteger(nil, aSign), nil
	case aInf:
		return NewExtendedInteger(nil, aSign), nil
	case bInf:
		return NewExtendedInteger(nil, bSign), nil
	}
	switch b.Kind() {
	case object.KindBoundedInteger, object.KindExtendedInteger:
		sum := new(big.Int).Add(a.AsBigInt(), b.AsBigInt())
		if a.Kind() == object.KindExtendedInteger || b.Kind() == object.KindExtendedInteger {
			return NewExtendedInteger(sum, 0), nil
		}
		return NewBoundedInteger(sum), nil
	case object.KindFloat:
		return NewFloat(float32(a.AsBigInt().Int64()) + b.AsFloat32()), nil
	case object.KindDouble:
		f, _ := new(big.Float).SetInt(a.AsBigInt()).Float64()
		return NewDouble(f + b.AsFloat64()), nil
	default:
		return Number{}, NewError(ErrArithmeticDomain, "cannot add %s to integer", b.Kind())
	}
}

func addFromFloat(a, b Number) (Number, error) {
	switch b.Kind() {
	case object.KindFloat:
		return NewFloat(a.AsFloat32() + b.AsFloat32()), nil
	case object.KindBoundedInteger, object.KindExtendedInteger:
		return addFromInteger(b, a)
	case object.KindDouble:
		return NewDouble(float64(a.AsFloat32()) + b.AsFloat64()), nil
	default:
		return Number{}, NewError(ErrArithmeticDomain, "cannot add %s to float", b.Kind())
	}
}

func addFromDouble(a, b Number) (Number, error) {
	switch b.Kind() {
	case object.KindDouble:
		return NewDouble(a.AsFloat64() + b.AsFloat64()), nil
	case object.KindFloat:
		return NewDouble(a.AsFloat64() + float64(b.AsFloat32())), nil
	case object.KindBoundedInteger, object.KindExtendedInteger:
		return addFromInteger(b, a)
	default:
		return Number{}, NewError(ErrArithmeticDomain, "cannot add %s to double", b.Kind())
	}
}

// Divide computes a/b for the two integer kinds, reporting
// ErrDivisionByZero rather than panicking the way big.Int.Quo would.
// Float and Double division is ordinary IEEE-754 division, including
// its own infinities, and never fails.
func Divide(a, b Number) (Number, error) {
	switch a.Kind() {
	case object.KindBoundedInteger, object.KindExtendedInteger:
		if _, bInf := b.IsInfinite(); bInf {
			if _, aInf := a.IsInfinite(); aInf {
				return Number{}, NewError(ErrArithmeticDomain, "infinity divided by infinity")
			}
			return NewBoundedInteger(big.NewInt(0)), nil
		}
		if b.AsBigInt().Sign() == 0 {
			return Number{}, NewError(ErrDivisionByZero, "integer division by zero")
		}
		if aSign, aInf := a.IsInfinite(); aInf {
			return NewExtendedInteger(nil, aSign*signOf(b.AsBigInt())), nil
		}
		q := new(big.Int).Quo(a.AsBigInt(), b.AsBigInt())
		return NewBoundedInteger(q), nil
	case object.KindFloat:
		return NewFloat(a.AsFloat32() / b.AsFloat32()), nil
	case object.KindDouble:
		return NewDouble(a.AsFloat64() / b.AsFloat64()), nil
	default:
		return Number{}, NewError(ErrArithmeticDomain, "unsupported division kind %s", a.Kind())
	}
}

func signOf(v *big.Int) int {
	if v.Sign() < 0 {
		return -1
	}
	return 1
}

// Compare returns -1, 0, or +1 for a<b, a==b, a>b, restricted to the two
// integer kinds (the only ones with a total order the dispatch tree
// method-selection primitives rely on).
func Compare(a, b Number) (int, error) {
	aSign, aInf := a.IsInfinite()
	bSign, bInf := b.IsInfinite()
	switch {
	case aInf && bInf:
		if aSign == bSign {
			return 0, nil
		}
		return aSign, nil
	case aInf:
		return aSign, nil
	case bInf:
		return -bSign, nil
	}
	return a.AsBigInt().Cmp(b.AsBigInt()), nil
}
