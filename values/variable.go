package values

import (
	"sync"

	"github.com/gitrdm/availcore/object"
)

const (
	variableSlotValue = iota
	variableSlotCount
)

// variableRegistry maps a Variable's underlying object back to the
// Variable itself, since Continuations and RawFunction literal pools
// only carry *object.Object (levelone.Interpreter's GetVariable/
// SetVariable opcodes need the typed Variable to call Get/Set on).
var variableRegistry = struct {
	mu    sync.RWMutex
	byObj map[*object.Object]*Variable
}{byObj: make(map[*object.Object]*Variable)}

// WrapVariable looks up the Variable that owns obj. obj must be the
// Object of a value previously created by NewVariable/NewWriteOnceVariable;
// any other object panics.
func WrapVariable(obj *object.Object) *Variable {
	variableRegistry.mu.RLock()
	defer variableRegistry.mu.RUnlock()
	v, ok := variableRegistry.byObj[obj]
	if !ok {
		panic("values: WrapVariable called on an object that is not a Variable")
	}
	return v
}

// WriteObserver is called synchronously after a successful write, once
// the variable's lock has been released. ObserveFailed (§7) is reported when an
// observer itself errors; the write that triggered it still stands, the
// same way the source VM's write-before-notify ordering works.
type WriteObserver func(v *Variable, newValue *object.Object) error

// Variable is a mutable cell with a declared type: reads and writes are
// atomic with respect to each other, every write is type-checked against
// declaredType, and an optional writeOnce flag makes a second write an
// error rather than a silent overwrite.
type Variable struct {
	obj *object.Object

	mu            sync.RWMutex
	assigned      bool
	writeOnce     bool
	declaredType  Type
	observers     []WriteObserver
}

// NewVariable creates an unassigned variable of the given declared type.
func NewVariable(declaredType Type) *Variable {
	v := &Variable{
		obj:          object.Allocate(object.KindVariable, variableSlotCount, 0),
		declaredType: declaredType,
	}
	variableRegistry.mu.Lock()
	variableRegistry.byObj[v.obj] = v
	variableRegistry.mu.Unlock()
	return v
}

// NewWriteOnceVariable creates a variable that accepts exactly one
// assignment; a second Set returns ErrCannotOverwriteWriteOnceVariable.
func NewWriteOnceVariable(declaredType Type) *Variable {
	v := NewVariable(declaredType)
	v.writeOnce = true
	return v
}

func (v *Variable) Object() *object.Object { return v.obj }

// Get returns the variable's current value, or
// ErrCannotReadUnassignedVariable if it has never been set.
func (v *Variable) Get() (*object.Object, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.assigned {
		return nil, NewError(ErrCannotReadUnassignedVariable, "variable has no value")
	}
	return v.obj.SlotObject(variableSlotValue), nil
}

// Set assigns newValue, type-checking it against the declared type and
// rejecting a second write to a write-once variable. Observers run after
// the write is visible to later readers, in registration order; the
// first observer error is returned as ErrObserveFailed and does not
// unwind the write.
func (v *Variable) Set(newValue *object.Object) error {
	v.mu.Lock()
	if v.writeOnce && v.assigned {
		v.mu.Unlock()
		return NewError(ErrCannotOverwriteWriteOnceVariable, "write-once variable already assigned")
	}
	if !TypeOf(newValue).IsSubtypeOf(v.declaredType) {
		v.mu.Unlock()
		return NewError(ErrVariableTypeMismatch, "value is not a %v", v.declaredType)
	}
	v.obj.SetSlotObject(variableSlotValue, newValue)
	v.assigned = true
	observers := append([]WriteObserver(nil), v.observers...)
	v.mu.Unlock()

	for _, observer := range observers {
		if err := observer(v, newValue); err != nil {
			return NewError(ErrObserveFailed, "%v", err)
		}
	}
	return nil
}

// AddObserver registers a WriteObserver, invoked on every future
// successful Set.
func (v *Variable) AddObserver(observer WriteObserver) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.observers = append(v.observers, observer)
}
