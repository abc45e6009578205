package leveltwo

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gitrdm/availcore/values"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileReusesCachedChunk(t *testing.T) {
	var compileCount int32
	engine := NewEngine(func(code *values.RawFunction) (*Chunk, error) {
		atomic.AddInt32(&compileCount, 1)
		return newChunk(nil, nil, nil, nil), nil
	})

	code := values.NewRawFunction(nil, nil, 0, 0, 0, nil)
	c1, err := engine.Compile(code)
	require.NoError(t, err)
	c2, err := engine.Compile(code)
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&compileCount))
}

func TestInvalidateForcesRecompile(t *testing.T) {
	var compileCount int32
	engine := NewEngine(func(code *values.RawFunction) (*Chunk, error) {
		atomic.AddInt32(&compileCount, 1)
		return newChunk(nil, nil, nil, nil), nil
	})

	code := values.NewRawFunction(nil, nil, 0, 0, 0, nil)
	c1, err := engine.Compile(code)
	require.NoError(t, err)

	engine.Invalidate(code)
	c2, err := engine.Compile(code)
	require.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&compileCount))
}

func TestCircuitBreakerTripsAfterRepeatedCompileFailures(t *testing.T) {
	engine := NewEngine(func(code *values.RawFunction) (*Chunk, error) {
		return nil, errors.New("compile failed")
	})
	code := values.NewRawFunction(nil, nil, 0, 0, 0, nil)

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = engine.Compile(code)
	}
	require.ErrorIs(t, lastErr, gobreaker.ErrOpenState)
}
