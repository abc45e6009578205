// Package values implements the Avail value model: atoms, tuples, sets,
// maps, numbers, functions, types, variables, continuations, and fibers —
// each a specific use of the uniform object.Object record, dispatched
// through object.DescriptorKind the way package object's capability traits
// intend.
package values

import "fmt"

// ErrorKind is the closed taxonomy of first-class VM errors (spec §7).
// Every failure that can reach a fiber's failure callback, or that a
// primitive can report as its failure code, is one of these.
type ErrorKind int

const (
	ErrNoDefinition ErrorKind = iota
	ErrAmbiguousLookup
	ErrAbstractMethodInvoked
	ErrForwardMethodInvoked
	ErrIncorrectNumberOfArguments
	ErrIncorrectArgumentType
	ErrIncorrectReturnType
	ErrVariableTypeMismatch
	ErrCannotReadUnassignedVariable
	ErrCannotOverwriteWriteOnceVariable
	ErrObserveFailed
	ErrDivisionByZero
	ErrArithmeticDomain
	ErrFiberCancelled
	ErrJoinFailed
	ErrTimerCancelled
	ErrLoadingIsOver
	ErrMalformedMessage
	ErrInvalidPrimitiveNumber
	ErrMemoryExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNoDefinition:
		return "NoDefinition"
	case ErrAmbiguousLookup:
		return "AmbiguousLookup"
	case ErrAbstractMethodInvoked:
		return "AbstractMethodInvoked"
	case ErrForwardMethodInvoked:
		return "ForwardMethodInvoked"
	case ErrIncorrectNumberOfArguments:
		return "IncorrectNumberOfArguments"
	case ErrIncorrectArgumentType:
		return "IncorrectArgumentType"
	case ErrIncorrectReturnType:
		return "IncorrectReturnType"
	case ErrVariableTypeMismatch:
		return "VariableTypeMismatch"
	case ErrCannotReadUnassignedVariable:
		return "CannotReadUnassignedVariable"
	case ErrCannotOverwriteWriteOnceVariable:
		return "CannotOverwriteWriteOnceVariable"
	case ErrObserveFailed:
		return "ObserveFailed"
	case ErrDivisionByZero:
		return "DivisionByZero"
	case ErrArithmeticDomain:
		return "ArithmeticDomain"
	case ErrFiberCancelled:
		return "FiberCancelled"
	case ErrJoinFailed:
		return "JoinFailed"
	case ErrTimerCancelled:
		return "TimerCancelled"
	case ErrLoadingIsOver:
		return "LoadingIsOver"
	case ErrMalformedMessage:
		return "MalformedMessage"
	case ErrInvalidPrimitiveNumber:
		return "InvalidPrimitiveNumber"
	case ErrMemoryExhausted:
		return "MemoryExhausted"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// VMError is a first-class VM error value: an ErrorKind plus a
// human-readable detail message. It implements the standard error
// interface so it composes with fmt.Errorf("...: %w", err) the way the
// rest of this codebase reports failures.
type VMError struct {
	Kind    ErrorKind
	Message string
}

func (e *VMError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError constructs a VMError, formatting Message the way fmt.Errorf
// would (without the %w wrapping, since VMError itself is the leaf).
func NewError(kind ErrorKind, format string, args ...interface{}) *VMError {
	return &VMError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err if it is or wraps a *VMError, and
// reports false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	type wrapper interface{ Unwrap() error }
	for err != nil {
		if e, ok := err.(*VMError); ok {
			return e.Kind, true
		}
		w, ok := err.(wrapper)
		if !ok {
			return 0, false
		}
		err = w.Unwrap()
	}
	return 0, false
}
