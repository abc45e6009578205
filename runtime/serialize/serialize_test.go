package serialize

import (
	"testing"

	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripsTuple(t *testing.T) {
	tuple := values.NewObjectTuple([]*object.Object{
		values.NewInt64(1).Object(),
		values.NewInt64(2).Object(),
		values.NewInt64(3).Object(),
	})

	data, err := Encode([]*object.Object{tuple.Object()})
	require.NoError(t, err)

	roots, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	decoded := values.WrapTuple(roots[0])
	assert.Equal(t, 3, decoded.Length())
	assert.True(t, object.Equals(tuple.Object(), decoded.Object()))
}

func TestEncodeDecodePreservesSharedSubstructure(t *testing.T) {
	shared := values.NewInt64(42).Object()
	pairA := values.NewObjectTuple([]*object.Object{shared, shared})

	data, err := Encode([]*object.Object{pairA.Object()})
	require.NoError(t, err)
	roots, err := Decode(data)
	require.NoError(t, err)

	decoded := values.WrapTuple(roots[0])
	assert.Same(t, decoded.At(0), decoded.At(1))
}
