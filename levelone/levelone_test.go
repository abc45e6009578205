package levelone

import (
	"testing"

	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxInt(v int64) *object.Object { return values.NewInt64(v).Object() }

func TestPrimitiveTableInvokesTupleAt(t *testing.T) {
	tbl := DefaultPrimitiveTable()
	tuple := values.NewObjectTuple([]*object.Object{boxInt(10), boxInt(20), boxInt(30)})

	result, _, ok := tbl.Invoke(PrimTupleAt, []*object.Object{tuple.Object(), boxInt(2)})
	require.True(t, ok)
	assert.Equal(t, int64(20), values.WrapNumber(result).AsInt64())
}

func TestPrimitiveTableReportsDivisionByZero(t *testing.T) {
	tbl := DefaultPrimitiveTable()
	_, failureCode, ok := tbl.Invoke(PrimNumberDivide, []*object.Object{boxInt(1), boxInt(0)})
	assert.False(t, ok)
	assert.Equal(t, values.ErrDivisionByZero, failureCode)
}

func TestInterpreterStepReturnsAtEndOfFrame(t *testing.T) {
	code := values.NewRawFunction(nil, nil, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 4)

	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	ip := NewInterpreter()
	result, err := ip.Step(fiber)
	require.NoError(t, err)
	assert.Equal(t, StepReturned, result)
	assert.Nil(t, fiber.Continuation)
}

func TestInterpreterStepSetThenGetVariableRoundTrips(t *testing.T) {
	variable := values.NewVariable(values.AnyType())
	literals := []*object.Object{boxInt(5), variable.Object()}

	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(SetVariable), 1,
		byte(GetVariable), 1,
	}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 1, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 4)

	fiber := values.NewFiber(100)
	fiber.Flags.TraceVariableReadsBeforeWrites = true
	fiber.Flags.TraceVariableWrites = true
	fiber.Continuation = cont

	ip := NewInterpreter()
	for i := 0; i < 3; i++ {
		result, err := ip.Step(fiber)
		require.NoError(t, err)
		assert.Equal(t, StepContinue, result)
	}

	result, err := ip.Step(fiber)
	require.NoError(t, err)
	assert.Equal(t, StepReturned, result)
	assert.Len(t, fiber.ReadSet, 1)
	assert.Len(t, fiber.WriteSet, 1)
}

func runToReturn(t *testing.T, ip *Interpreter, fiber *values.Fiber) *object.Object {
	t.Helper()
	for i := 0; i < 64; i++ {
		result, err := ip.Step(fiber)
		require.NoError(t, err)
		if result == StepReturned {
			return fiber.Result
		}
	}
	t.Fatal("interpreter never returned")
	return nil
}

func TestInterpreterStepMakesTuple(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(PushConstant), 1,
		byte(MakeTuple), 2,
	}
	literals := []*object.Object{boxInt(10), boxInt(20)}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	tuple := values.WrapTuple(result)
	require.Equal(t, 2, tuple.Length())
	assert.Equal(t, int64(10), values.WrapNumber(tuple.At(0)).AsInt64())
	assert.Equal(t, int64(20), values.WrapNumber(tuple.At(1)).AsInt64())
}

func TestInterpreterStepMakesSet(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(PushConstant), 1,
		byte(PushConstant), 0,
		byte(MakeSet), 3,
	}
	literals := []*object.Object{boxInt(7), boxInt(8)}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	set := values.WrapSet(result)
	assert.Equal(t, 2, values.Size(set))
	assert.True(t, values.Contains(set, boxInt(7)))
	assert.True(t, values.Contains(set, boxInt(8)))
}

func TestInterpreterStepMakesMap(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0, // key
		byte(PushConstant), 1, // value
		byte(MakeMap), 1,
	}
	literals := []*object.Object{boxInt(1), boxInt(100)}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	m := values.WrapMap(result)
	value, ok := values.MapGet(m, boxInt(1))
	require.True(t, ok)
	assert.Equal(t, int64(100), values.WrapNumber(value).AsInt64())
}

func TestInterpreterStepPermutesTopOfStack(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0, // "a"
		byte(PushConstant), 1, // "b"
		byte(Permute), 2,
		byte(MakeTuple), 2,
	}
	permutation := values.NewObjectTuple([]*object.Object{boxInt(1), boxInt(0)})
	literals := []*object.Object{boxInt(11), boxInt(22), permutation.Object()}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	tuple := values.WrapTuple(result)
	assert.Equal(t, int64(22), values.WrapNumber(tuple.At(0)).AsInt64())
	assert.Equal(t, int64(11), values.WrapNumber(tuple.At(1)).AsInt64())
}

func TestInterpreterStepSuperCastAcceptsSubtype(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(SuperCast), 1,
	}
	literals := []*object.Object{boxInt(5), values.BoxType(values.NumberType())}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	assert.Equal(t, int64(5), values.WrapNumber(result).AsInt64())
}

func TestInterpreterStepSuperCastRejectsMismatchedType(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(SuperCast), 1,
	}
	literals := []*object.Object{boxInt(5), values.BoxType(values.TupleType(values.AnyType()))}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	ip := NewInterpreter()
	result, err := ip.Step(fiber) // PushConstant
	require.NoError(t, err)
	require.Equal(t, StepContinue, result)

	result, err = ip.Step(fiber) // SuperCast
	require.Error(t, err)
	assert.Equal(t, StepFailed, result)
}

func TestInterpreterStepWriteLocalKeepsStackValue(t *testing.T) {
	nybblecodes := []byte{
		byte(PushConstant), 0,
		byte(WriteLocal), 0,
	}
	literals := []*object.Object{boxInt(9)}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 1, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	assert.Equal(t, int64(9), values.WrapNumber(result).AsInt64())
	assert.Equal(t, int64(9), values.WrapNumber(cont.Slots[0]).AsInt64())
}

func TestInterpreterStepPushLabelAndPopOuterNonLocalReturn(t *testing.T) {
	// The label is pushed and immediately used for a non-local return:
	// PushLabel, push the return value, PopOuter back to this frame's
	// caller (nil here, so this is equivalent to a top-level return).
	nybblecodes := []byte{
		byte(PushLabel),
		byte(PushConstant), 0,
		byte(PopOuter), 0,
	}
	literals := []*object.Object{boxInt(99)}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	ip := NewInterpreter()
	for i := 0; i < 2; i++ {
		result, err := ip.Step(fiber)
		require.NoError(t, err)
		require.Equal(t, StepContinue, result)
	}
	result, err := ip.Step(fiber)
	require.NoError(t, err)
	assert.Equal(t, StepReturned, result)
	assert.Equal(t, int64(99), values.WrapNumber(fiber.Result).AsInt64())
}

func TestInterpreterStepExtensionPrefixWidensOperand(t *testing.T) {
	literals := make([]*object.Object, 256)
	for i := range literals {
		literals[i] = boxInt(int64(i))
	}
	// A plain PushConstant's operand is a single byte; ExtensionPrefix
	// widens it to two big-endian bytes (here 0x00, 0xFF = 255).
	nybblecodes := []byte{
		byte(ExtensionPrefix), byte(PushConstant), 0, 255,
	}
	code := values.NewRawFunction(nybblecodes, literals, PrimNone, 0, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 8)
	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	result := runToReturn(t, NewInterpreter(), fiber)
	assert.Equal(t, int64(255), values.WrapNumber(result).AsInt64())
}

func TestInterpreterStepInvokesDeclaredPrimitiveBeforeNybblecodes(t *testing.T) {
	code := values.NewRawFunction(nil, nil, PrimNumberAdd, 2, 0, nil)
	fn := values.NewFunction(code, nil)
	cont := values.NewContinuation(nil, fn, 4)
	cont.Slots[0] = boxInt(3)
	cont.Slots[1] = boxInt(4)

	fiber := values.NewFiber(100)
	fiber.Continuation = cont

	ip := NewInterpreter()
	result, err := ip.Step(fiber)
	require.NoError(t, err)
	assert.Equal(t, StepReturned, result)
	assert.Nil(t, fiber.Continuation)
}
