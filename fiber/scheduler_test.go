package fiber

import (
	"testing"
	"time"

	"github.com/gitrdm/availcore/levelone"
	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type immediateReturnRunner struct{}

func (immediateReturnRunner) Step(f *values.Fiber) (levelone.StepResult, error) {
	return levelone.StepReturned, nil
}

func boxedInt42() *object.Object { return values.NewInt64(42).Object() }

// resultReturningRunner reports StepReturned immediately, the first
// time leaving f.Result set to a fixed value as if it had computed it,
// matching how levelone.Interpreter populates Result on a top-level
// return.
type resultReturningRunner struct{ result *object.Object }

func (r resultReturningRunner) Step(f *values.Fiber) (levelone.StepResult, error) {
	if f.Result == nil {
		f.Result = r.result
	}
	return levelone.StepReturned, nil
}

func TestSpawnRunsFiberToTermination(t *testing.T) {
	sched := NewScheduler(2, immediateReturnRunner{})
	defer sched.Shutdown()

	f := values.NewFiber(100)
	done := make(chan *object.Object, 1)
	f.OnSuccess = func(result *object.Object) { done <- result }
	sched.Spawn(f)

	select {
	case <-done:
		assert.Equal(t, values.Terminated, f.GetState())
	case <-time.After(2 * time.Second):
		t.Fatal("fiber never completed")
	}
}

func TestJoinFiberWakesCallerOnTermination(t *testing.T) {
	sched := NewScheduler(2, resultReturningRunner{result: boxedInt42()})
	defer sched.Shutdown()

	target := values.NewFiber(100)
	caller := values.NewFiber(100)

	done := make(chan *object.Object, 1)
	caller.OnSuccess = func(result *object.Object) { done <- result }

	sched.JoinFiber(caller, target)
	sched.Spawn(target)

	require.Eventually(t, func() bool {
		return target.GetState() == values.Terminated
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case result := <-done:
		assert.Equal(t, int64(42), values.WrapNumber(result).AsInt64())
	case <-time.After(2 * time.Second):
		t.Fatal("caller's success callback was never invoked")
	}
	assert.Equal(t, values.Terminated, caller.GetState())
}

func TestJoinFiberReportsFailureWhenTargetAborts(t *testing.T) {
	sched := NewScheduler(2, blockingRunner{})
	defer sched.Shutdown()

	target := values.NewFiber(100)
	caller := values.NewFiber(100)

	done := make(chan error, 1)
	caller.OnFailure = func(err error) { done <- err }

	sched.JoinFiber(caller, target)
	sched.Spawn(target)
	time.Sleep(20 * time.Millisecond)
	target.RequestTermination()

	select {
	case err := <-done:
		kind, ok := values.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, values.ErrJoinFailed, kind)
	case <-time.After(2 * time.Second):
		t.Fatal("caller's failure callback was never invoked")
	}
	assert.Equal(t, values.Aborted, caller.GetState())
}

func TestCancelledFiberReachesAborted(t *testing.T) {
	sched := NewScheduler(1, blockingRunner{})
	defer sched.Shutdown()

	f := values.NewFiber(100)
	sched.Spawn(f)
	time.Sleep(20 * time.Millisecond)
	f.RequestTermination()

	require.Eventually(t, func() bool {
		return f.GetState() == values.Aborted
	}, 2*time.Second, 10*time.Millisecond)
}

type blockingRunner struct{}

func (blockingRunner) Step(f *values.Fiber) (levelone.StepResult, error) {
	return levelone.StepContinue, nil
}
