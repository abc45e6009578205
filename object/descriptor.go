// Package object implements the uniform heap-object representation that
// underlies every Avail value: a fixed-shape record of object slots and
// integer slots whose behavior is supplied by a per-kind Descriptor.
//
// The source VM this package replaces factored behavior through deep
// descriptor inheritance with per-operation method overrides (abstract
// "AbstractDescriptor" classes per operation family). That pattern does not
// translate to Go. Instead a Descriptor carries a closed DescriptorKind tag,
// and polymorphic behavior is resolved through capability-trait tables keyed
// by that tag (see dispatch.go). A kind that doesn't implement a trait simply
// has no entry in that trait's table, and Dispatch reports ErrNotSupported
// rather than falling through to an abstract stub.
package object

import "fmt"

// DescriptorKind identifies the concrete representation of an Object. It is
// the single enum tag mentioned in the design notes: every polymorphic
// operation is ultimately a lookup keyed by (kind, operation).
type DescriptorKind int

const (
	KindNil DescriptorKind = iota
	KindBoolean
	KindAtom

	// Tuple representations. All must hash and compare equal regardless
	// of which one a given value happens to use.
	KindNybbleTuple
	KindByteTuple
	KindStringTuple
	KindObjectTuple
	KindSplicedTuple

	// Hash-array-mapped-trie node kinds, shared by sets and maps.
	KindLinearSetBin
	KindHashedSetBin
	KindLinearMapBin
	KindHashedMapBin

	// Number kinds.
	KindBoundedInteger
	KindExtendedInteger
	KindFloat
	KindDouble

	KindFunction
	KindRawFunction
	KindContinuation
	KindVariable
	KindFiber

	KindMethod
	KindMessageBundle
	KindBundleTreeNode

	KindType

	// KindIndirection is the coalescing/forwarding kind: its single
	// object slot points at the object it has been rewritten into.
	KindIndirection

	kindCount
)

// String renders a DescriptorKind for diagnostics and log messages.
func (k DescriptorKind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindBoolean:
		return "Boolean"
	case KindAtom:
		return "Atom"
	case KindNybbleTuple:
		return "NybbleTuple"
	case KindByteTuple:
		return "ByteTuple"
	case KindStringTuple:
		return "StringTuple"
	case KindObjectTuple:
		return "ObjectTuple"
	case KindSplicedTuple:
		return "SplicedTuple"
	case KindLinearSetBin:
		return "LinearSetBin"
	case KindHashedSetBin:
		return "HashedSetBin"
	case KindLinearMapBin:
		return "LinearMapBin"
	case KindHashedMapBin:
		return "HashedMapBin"
	case KindBoundedInteger:
		return "BoundedInteger"
	case KindExtendedInteger:
		return "ExtendedInteger"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindFunction:
		return "Function"
	case KindRawFunction:
		return "RawFunction"
	case KindContinuation:
		return "Continuation"
	case KindVariable:
		return "Variable"
	case KindFiber:
		return "Fiber"
	case KindMethod:
		return "Method"
	case KindMessageBundle:
		return "MessageBundle"
	case KindBundleTreeNode:
		return "BundleTreeNode"
	case KindType:
		return "Type"
	case KindIndirection:
		return "Indirection"
	default:
		return fmt.Sprintf("DescriptorKind(%d)", int(k))
	}
}

// Mutability is one of Mutable, Immutable, or Shared. The three form a
// lattice: Mutable -> Immutable -> Shared. Once an object is Shared it
// never reverts to a lower state.
type Mutability int

const (
	Mutable Mutability = iota
	Immutable
	Shared
)

func (m Mutability) String() string {
	switch m {
	case Mutable:
		return "Mutable"
	case Immutable:
		return "Immutable"
	case Shared:
		return "Shared"
	default:
		return fmt.Sprintf("Mutability(%d)", int(m))
	}
}

// CanTransitionTo reports whether m may move to next along the lattice.
// Staying put is always allowed; only forward motion along
// Mutable -> Immutable -> Shared is permitted.
func (m Mutability) CanTransitionTo(next Mutability) bool {
	return next >= m
}

// Descriptor is the behavior carrier for a uniform heap Object: which kind
// of value it is, and how mutable it currently is. A Descriptor is never
// mutated once built, but NewDescriptor and WithMutability allocate a
// fresh one on every call: two objects of the same kind and mutability
// hold equal Descriptor values (*a == *b), not the same pointer.
type Descriptor struct {
	Kind       DescriptorKind
	Mutability Mutability
}

// NewDescriptor returns the descriptor for the given kind at Mutable
// mutability, the state every freshly allocated object starts in.
func NewDescriptor(kind DescriptorKind) *Descriptor {
	return &Descriptor{Kind: kind, Mutability: Mutable}
}

// WithMutability returns a descriptor for the same kind at a different
// mutability. It does not mutate d.
func (d *Descriptor) WithMutability(m Mutability) *Descriptor {
	return &Descriptor{Kind: d.Kind, Mutability: m}
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s/%s", d.Kind, d.Mutability)
}
