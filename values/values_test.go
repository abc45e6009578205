package values

import (
	"math/big"
	"testing"

	"github.com/gitrdm/availcore/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTupleConcatHashMatchesAcrossRepresentations(t *testing.T) {
	nybbles := NewNybbleTuple([]byte{1, 2, 3})
	objTuple := NewObjectTuple([]*object.Object{boxSmallInt(1), boxSmallInt(2), boxSmallInt(3)})

	assert.True(t, tuplesEqual(nybbles, objTuple))
	assert.Equal(t, tupleHash(nybbles), tupleHash(objTuple))

	bytesA := NewByteTuple([]byte{10, 20})
	bytesB := NewByteTuple([]byte{30, 40})
	spliced := Concat(bytesA, bytesB)
	flattened := NewObjectTuple([]*object.Object{
		boxSmallInt(10), boxSmallInt(20), boxSmallInt(30), boxSmallInt(40),
	})
	assert.Equal(t, 4, spliced.Length())
	assert.True(t, tuplesEqual(spliced, flattened))
	assert.Equal(t, tupleHash(spliced), tupleHash(flattened))
}

func TestTupleSliceSharesSplicedSubtrees(t *testing.T) {
	left := NewObjectTuple([]*object.Object{boxSmallInt(1), boxSmallInt(2)})
	right := NewObjectTuple([]*object.Object{boxSmallInt(3), boxSmallInt(4)})
	whole := newSplicedTuple(left, right)

	sliced := whole.Slice(0, 2)
	assert.Same(t, left.Object(), sliced.Object())
	assert.Equal(t, 2, sliced.Length())
}

func TestStringTupleRoundTrip(t *testing.T) {
	o := wrapString("hello")
	assert.Equal(t, "hello", unwrapString(o))
}

func TestNumberAddPromotesAcrossKinds(t *testing.T) {
	a := NewInt64(2)
	b := NewExtendedInteger(big.NewInt(3), 0)
	sum, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, object.KindExtendedInteger, sum.Kind())
	assert.Equal(t, int64(5), sum.AsInt64())
}

func TestNumberAddInfinityRules(t *testing.T) {
	pos := PositiveInfinity()
	neg := NegativeInfinity()

	sum, err := Add(pos, NewInt64(10))
	require.NoError(t, err)
	sign, ok := sum.IsInfinite()
	require.True(t, ok)
	assert.Equal(t, 1, sign)

	_, err = Add(pos, neg)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrArithmeticDomain, kind)
}

func TestDivideByZeroReportsVMError(t *testing.T) {
	_, err := Divide(NewInt64(1), NewInt64(0))
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrDivisionByZero, kind)
}

func TestNumberEqualityIsRepresentationIndependentForIntegers(t *testing.T) {
	bounded := NewInt64(7)
	extended := NewExtendedInteger(big.NewInt(7), 0)
	assert.True(t, object.Equals(bounded.Object(), extended.Object()))
	assert.Equal(t, object.Hash(bounded.Object()), object.Hash(extended.Object()))
}

func TestSetInsertContainsRemoveRoundTrip(t *testing.T) {
	s := NewSet()
	for i := 0; i < 50; i++ {
		s = Insert(s, boxSmallInt(int64(i)))
	}
	assert.Equal(t, 50, Size(s))
	for i := 0; i < 50; i++ {
		assert.True(t, Contains(s, boxSmallInt(int64(i))))
	}

	s = Remove(s, boxSmallInt(25))
	assert.Equal(t, 49, Size(s))
	assert.False(t, Contains(s, boxSmallInt(25)))
}

func TestSetHashIndependentOfInsertionOrder(t *testing.T) {
	a := NewSet()
	a = Insert(a, boxSmallInt(1))
	a = Insert(a, boxSmallInt(2))
	a = Insert(a, boxSmallInt(3))

	b := NewSet()
	b = Insert(b, boxSmallInt(3))
	b = Insert(b, boxSmallInt(1))
	b = Insert(b, boxSmallInt(2))

	assert.Equal(t, object.Hash(a.Object()), object.Hash(b.Object()))
	assert.True(t, object.Equals(a.Object(), b.Object()))
}

func TestMapPutGetDeleteRoundTrip(t *testing.T) {
	m := NewMap()
	for i := 0; i < 40; i++ {
		m = MapPut(m, boxSmallInt(int64(i)), wrapString("v"))
	}
	assert.Equal(t, 40, MapSize(m))

	v, ok := MapGet(m, boxSmallInt(10))
	require.True(t, ok)
	assert.Equal(t, "v", unwrapString(v))

	m = MapDelete(m, boxSmallInt(10))
	_, ok = MapGet(m, boxSmallInt(10))
	assert.False(t, ok)
	assert.Equal(t, 39, MapSize(m))
}

func TestAtomIdentityNotNameEquality(t *testing.T) {
	a1 := NewAtom("foo", "mymodule")
	a2 := NewAtom("foo", "mymodule")
	assert.False(t, object.Equals(a1.Object(), a2.Object()))
	assert.True(t, object.Equals(a1.Object(), a1.Object()))
}

func TestBooleanSingletonsAreShared(t *testing.T) {
	assert.Equal(t, object.Shared, True().Mutability())
	assert.True(t, AsBool(True()))
	assert.False(t, AsBool(False()))
}
