package runtime

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct{}

func (fakeLoader) Resolve(name string) (io.Reader, error) {
	return nil, fmt.Errorf("fakeLoader: no module %q", name)
}

func TestRunFunctionCompletesEmptyBody(t *testing.T) {
	rt, err := Create(fakeLoader{}, Config{WorkerCount: 2})
	require.NoError(t, err)
	defer rt.Shutdown(context.Background())

	code := values.NewRawFunction(nil, nil, 0, 0, 0, nil)
	fn := values.NewFunction(code, nil)

	done := make(chan struct{}, 1)
	id, err := rt.RunFunction(fn, nil, func(*object.Object) { done <- struct{}{} }, nil)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("function never completed")
	}

	assert.Contains(t, rt.Fibers(), id)
}
