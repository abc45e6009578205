package values

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/gitrdm/availcore/object"
)

// atomObjectSlots is the fixed object-slot layout of an atom: name and
// issuing module, each stored as a string tuple so Atom participates in
// the uniform object representation like every other kind.
const (
	atomSlotName = iota
	atomSlotModule
	atomSlotCount
)

// Atom is an interned, module-scoped name: the identity used for methods,
// bundles, and enumerated constants. Properties (an atom's message
// bundle, its enumeration ordinal, and similar side data) are kept in a
// Go-level, atom-identity-keyed map rather than forced through object
// slots — unlike Avail maps, which are content-hashed, property lookup is
// pointer identity, and giving it its own table avoids conflating the two
// addressing schemes.
type Atom struct {
	obj *object.Object

	mu         sync.RWMutex
	properties map[*Atom]*object.Object
}

// NewAtom creates a fresh atom with the given name, issued by module. Two
// separate calls with identical arguments produce distinct, non-Equals
// atoms: nothing in this module interns atoms, so repeated requests for
// "the same" atom return one value only if the caller keeps its own
// lookup table.
func NewAtom(name, module string) *Atom {
	obj := object.Allocate(object.KindAtom, atomSlotCount, 0)
	obj.SetSlotObject(atomSlotName, wrapString(name))
	obj.SetSlotObject(atomSlotModule, wrapString(module))
	return &Atom{obj: obj, properties: make(map[*Atom]*object.Object)}
}

// Object returns the underlying heap object.
func (a *Atom) Object() *object.Object { return a.obj }

// Name returns the atom's name.
func (a *Atom) Name() string {
	return unwrapString(a.obj.SlotObject(atomSlotName))
}

// Module returns the name of the module that issued this atom.
func (a *Atom) Module() string {
	return unwrapString(a.obj.SlotObject(atomSlotModule))
}

func (a *Atom) String() string {
	if a.Module() == "" {
		return a.Name()
	}
	return fmt.Sprintf("%s.%s", a.Module(), a.Name())
}

// SetProperty associates key with value on this atom.
func (a *Atom) SetProperty(key *Atom, value *object.Object) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.properties[key] = value
}

// Property returns the value associated with key, or nil if unset.
func (a *Atom) Property(key *Atom) *object.Object {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.properties[key]
}

func init() {
	object.RegisterHash(object.KindAtom, func(o *object.Object) uint64 {
		return xxhash.Sum64String(unwrapString(o.SlotObject(atomSlotModule)) + "\x00" + unwrapString(o.SlotObject(atomSlotName)))
	})
	object.RegisterEquals(object.KindAtom, func(a, b *object.Object) bool {
		// Atom identity is per-issue, not per-name: two atoms with equal
		// name and module are still distinct unless they are the same
		// object, which object.Equals already checks before consulting
		// the registry.
		return a == b
	})
}
