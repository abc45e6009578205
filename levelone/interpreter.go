package levelone

import (
	"fmt"

	"github.com/gitrdm/availcore/object"
	"github.com/gitrdm/availcore/values"
)

// StepResult reports what Interpreter.Step just did, so the fiber
// scheduler (package fiber) knows whether the fiber can keep running
// immediately, has returned a value, or has failed.
type StepResult int

const (
	StepContinue StepResult = iota
	StepReturned
	StepFailed
)

// Interpreter executes one fiber's current continuation one nybblecode
// instruction at a time. It holds no per-fiber state itself — all
// mutable state lives on the values.Continuation and values.Fiber the
// caller passes in — so one Interpreter value is safely reused across
// every fiber a worker-pool goroutine happens to run (package fiber
// owns that pooling).
type Interpreter struct {
	Primitives *PrimitiveTable
}

func NewInterpreter() *Interpreter {
	return &Interpreter{Primitives: DefaultPrimitiveTable()}
}

// Reify ensures fiber's current frame is a first-class
// values.Continuation. In this rewrite every frame is already a
// Continuation object (package values has no separate "implicit frame"
// representation distinct from Continuation), so Reify is a no-op that
// exists to keep the call site spec.md §4.4 describes — push-label, a
// stack-introspecting primitive, non-local return, or the debugger —
// explicit in the code, in case a future optimization reintroduces an
// unreified fast path.
func (ip *Interpreter) Reify(fiber *values.Fiber) *values.Continuation {
	return fiber.Continuation
}

// Step decodes and executes exactly one instruction of fiber's current
// continuation. ExtensionPrefix is the one exception: it widens the
// operand of the instruction immediately following it, so Step decodes
// and executes that pair together as a single logical instruction.
func (ip *Interpreter) Step(fiber *values.Fiber) (StepResult, error) {
	cont := fiber.Continuation
	if cont == nil {
		return StepReturned, nil
	}
	code := cont.Function.Code
	if cont.PC == 0 && code.HasPrimitive() {
		result, failureCode, ok := ip.Primitives.Invoke(code.PrimitiveNum, cont.Slots[:code.NumArgs])
		if ok {
			cont.Push(result)
			return ip.returnFromFrame(fiber, cont)
		}
		_ = failureCode // no declared failure variable to bind in this rewrite; fall through to the nybblecode body
	}
	if cont.PC >= len(code.Nybblecodes) {
		return ip.returnFromFrame(fiber, cont)
	}

	op := Opcode(code.Nybblecodes[cont.PC])
	cont.PC++
	if needsReification(op) {
		ip.Reify(fiber)
	}

	if op == ExtensionPrefix {
		inner := Opcode(code.Nybblecodes[cont.PC])
		cont.PC++
		return ip.execute(fiber, cont, code, inner, true)
	}
	return ip.execute(fiber, cont, code, op, false)
}

// readOperand consumes one instruction operand: a single nybble-packed
// byte normally, or a two-byte big-endian value when the instruction was
// reached through ExtensionPrefix.
func readOperand(code *values.RawFunction, cont *values.Continuation, wide bool) int {
	if !wide {
		v := int(code.Nybblecodes[cont.PC])
		cont.PC++
		return v
	}
	hi := int(code.Nybblecodes[cont.PC])
	lo := int(code.Nybblecodes[cont.PC+1])
	cont.PC += 2
	return hi<<8 | lo
}

func (ip *Interpreter) execute(fiber *values.Fiber, cont *values.Continuation, code *values.RawFunction, op Opcode, wide bool) (StepResult, error) {
	switch op {
	case PushConstant, PushLiteral:
		operand := readOperand(code, cont, wide)
		cont.Push(code.Literals[operand])
	case PushLocal:
		operand := readOperand(code, cont, wide)
		cont.Push(cont.Slots[operand])
	case PopLocal:
		operand := readOperand(code, cont, wide)
		cont.Slots[operand] = cont.Pop()
	case WriteLocal:
		// Stores the top of stack into a local without consuming it —
		// useful when the value is needed both as a local and as an
		// operand to the instruction that follows.
		operand := readOperand(code, cont, wide)
		cont.Slots[operand] = cont.Slots[cont.StackPointer-1]
	case PushOuter:
		operand := readOperand(code, cont, wide)
		cont.Push(cont.Function.Outer(operand))
	case GetVariable:
		operand := readOperand(code, cont, wide)
		variable := values.WrapVariable(code.Literals[operand])
		if fiber.Flags.TraceVariableReadsBeforeWrites {
			fiber.ReadSet[variable] = struct{}{}
		}
		value, err := variable.Get()
		if err != nil {
			return StepFailed, err
		}
		cont.Push(value)
	case SetVariable:
		operand := readOperand(code, cont, wide)
		variable := values.WrapVariable(code.Literals[operand])
		if fiber.Flags.TraceVariableReadsBeforeWrites || fiber.Flags.TraceVariableWrites {
			fiber.WriteSet[variable] = struct{}{}
		}
		if err := variable.Set(cont.Pop()); err != nil {
			return StepFailed, err
		}
	case MakeTuple:
		count := readOperand(code, cont, wide)
		elems := make([]*object.Object, count)
		for i := count - 1; i >= 0; i-- {
			elems[i] = cont.Pop()
		}
		cont.Push(values.NewObjectTuple(elems).Object())
	case MakeSet:
		count := readOperand(code, cont, wide)
		elems := make([]*object.Object, count)
		for i := count - 1; i >= 0; i-- {
			elems[i] = cont.Pop()
		}
		set := values.NewSet()
		for _, e := range elems {
			set = values.Insert(set, e)
		}
		cont.Push(set.Object())
	case MakeMap:
		pairCount := readOperand(code, cont, wide)
		keys := make([]*object.Object, pairCount)
		vals := make([]*object.Object, pairCount)
		for i := pairCount - 1; i >= 0; i-- {
			vals[i] = cont.Pop()
			keys[i] = cont.Pop()
		}
		m := values.NewMap()
		for i := range keys {
			m = values.MapPut(m, keys[i], vals[i])
		}
		cont.Push(m.Object())
	case PushLabel:
		// Pushes the current frame itself, reified, so a later PopOuter
		// can perform a non-local return straight back to this point.
		cont.Push(cont.Object())
	case PopOuter:
		// Non-local return: the operand byte is not read. The label is
		// the value beneath the top of stack, and the top of stack is
		// what that label's frame returns to its caller.
		returnValue := cont.Pop()
		labelObj := cont.Pop()
		target := values.WrapContinuation(labelObj)
		if target.Caller == nil {
			fiber.Result = returnValue
			fiber.Continuation = nil
			return StepReturned, nil
		}
		fiber.Continuation = target.Caller
		fiber.Continuation.Push(returnValue)
		return StepContinue, nil
	case Permute:
		operand := readOperand(code, cont, wide)
		permutation := values.WrapTuple(code.Literals[operand])
		n := permutation.Length()
		group := make([]*object.Object, n)
		for i := n - 1; i >= 0; i-- {
			group[i] = cont.Pop()
		}
		reordered := make([]*object.Object, n)
		for newPos := 0; newPos < n; newPos++ {
			oldPos := int(values.WrapNumber(permutation.At(newPos)).AsInt64())
			reordered[newPos] = group[oldPos]
		}
		for _, v := range reordered {
			cont.Push(v)
		}
	case SuperCast:
		operand := readOperand(code, cont, wide)
		declared := values.UnboxType(code.Literals[operand])
		top := cont.Pop()
		if !values.TypeOf(top).IsSubtypeOf(declared) {
			return StepFailed, fmt.Errorf("levelone: super-cast value is not a %v", declared)
		}
		cont.Push(top)
	case CallMethod:
		// CallMethod is recognized but performs no method dispatch: it
		// consumes no operand, leaves the stack untouched and reports
		// StepContinue. Neither this package nor package runtime resolves
		// the call through package dispatch.
		return StepContinue, nil
	default:
		return StepFailed, fmt.Errorf("levelone: unrecognized opcode %d", op)
	}
	return StepContinue, nil
}

func (ip *Interpreter) returnFromFrame(fiber *values.Fiber, cont *values.Continuation) (StepResult, error) {
	if cont.Caller == nil {
		// A void top-level body (no nybblecodes, no declared primitive)
		// never pushes anything to pop; everything else is expected to
		// leave exactly one value on the stack before falling off the end.
		var result *object.Object
		if cont.StackPointer > 0 {
			result = cont.Pop()
		}
		fiber.Result = result
		fiber.Continuation = nil
		return StepReturned, nil
	}
	returnValue := cont.Pop()
	fiber.Continuation = cont.Caller
	fiber.Continuation.Push(returnValue)
	return StepContinue, nil
}
