// Package levelone implements the nybblecode interpreter: the
// always-available fallback execution path every RawFunction can run
// on, regardless of whether package leveltwo has compiled it. Level-Two
// chunks are an optimization layered on top of this interpreter, never
// a replacement for it — a deoptimized or never-compiled function
// always still runs here.
package levelone

// Opcode is the nybble-packed instruction set spec.md §4.4 describes.
// ExtensionPrefix widens the following instruction's operand from one
// byte to two, for immediate arguments that don't fit one byte, rather
// than giving every opcode a second wide form.
type Opcode byte

const (
	PushConstant Opcode = iota
	PushLocal
	PushOuter
	PushLiteral
	PopLocal
	PopOuter
	WriteLocal
	CallMethod
	GetVariable
	SetVariable
	MakeTuple
	MakeSet
	MakeMap
	PushLabel
	Permute
	SuperCast
	ExtensionPrefix
)

// needsReification reports whether executing op requires the current
// implicit frame to already be a first-class values.Continuation.
// Reification is checked once here, at the top of Interpreter.Step,
// rather than scattered through every opcode's handler (spec.md §4.4).
func needsReification(op Opcode) bool {
	switch op {
	case PushLabel, PopOuter:
		return true
	default:
		return false
	}
}
