// Package dispatch implements the Method Dispatch Graph: methods, their
// definitions, the lazily-built testing tree used to pick the most
// specific applicable definition, and the message-bundle tree that maps
// parsed message sends onto methods. Its Method/TestingTree
// cache-and-invalidate discipline is grounded directly on the teacher's
// tabling.go/slg_engine.go pattern of a cached derivation rebuilt lazily
// whenever the underlying facts change; Method itself is a
// Relation-like indexed collection in the sense of the teacher's
// pldb.go, indexed by parameter-type shape instead of by column values.
package dispatch

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gitrdm/availcore/values"
)

// MethodID identifies a Method for dependency-bus bookkeeping. The
// caller chooses it: NewMethod and runtime.Runtime.DefineMethod take it
// as given, and nothing derives it from the method's atom.
type MethodID uint64

// DefinitionKind distinguishes the four shapes a Definition can take.
type DefinitionKind int

const (
	Ordinary DefinitionKind = iota
	Abstract
	Forward
	Macro
)

func (k DefinitionKind) String() string {
	switch k {
	case Ordinary:
		return "Ordinary"
	case Abstract:
		return "Abstract"
	case Forward:
		return "Forward"
	case Macro:
		return "Macro"
	default:
		return "DefinitionKind(?)"
	}
}

// Definition is one entry in a Method: a parameter-type signature plus
// the behavior it selects. Exactly one of Body/Macro is meaningful,
// depending on Kind.
type Definition struct {
	Kind       DefinitionKind
	ParamTypes []values.Type
	Body       *values.Function // Ordinary
	// Forward definitions carry no body; Abstract likewise. Macro bodies
	// are represented the same as Ordinary at this layer — the
	// compile-time-vs-runtime distinction is a levelone/runtime concern.
}

func (d Definition) acceptsArity(n int) bool { return len(d.ParamTypes) == n }

func (d Definition) applicableTo(argTypes []values.Type) bool {
	if !d.acceptsArity(len(argTypes)) {
		return false
	}
	for i, pt := range d.ParamTypes {
		if !argTypes[i].IsSubtypeOf(pt) {
			return false
		}
	}
	return true
}

// moreSpecificThan reports whether d's signature is a subtype of
// other's at every position (and therefore only ever a narrower match).
func (d Definition) moreSpecificThan(other Definition) bool {
	if len(d.ParamTypes) != len(other.ParamTypes) {
		return false
	}
	allLE, oneLT := true, false
	for i := range d.ParamTypes {
		if !d.ParamTypes[i].IsSubtypeOf(other.ParamTypes[i]) {
			allLE = false
			break
		}
		if !d.ParamTypes[i].Equal(other.ParamTypes[i]) {
			oneLT = true
		}
	}
	return allLE && oneLT
}

// testingNode is one node of a TestingTree: an internal node tests
// argTypes[ArgIndex] against Type, branching to ifSubtype or ifNot;
// a leaf (Type unset, both branches nil) holds every definition that
// reached it without having been separated out by an ancestor's test.
type testingNode struct {
	ArgIndex  int
	Type      values.Type
	ifSubtype *testingNode
	ifNot     *testingNode

	leaf []Definition
}

func (n *testingNode) isLeaf() bool { return n.ifSubtype == nil && n.ifNot == nil }

// TestingTree is the cached, lazily-built decision structure
// Method.Lookup consults: a tree of ArgIndex/Type tests, each splitting
// its definitions into an ifSubtype and an ifNot branch, bottoming out
// at leaves holding the definitions no ancestor test separated. It is
// rebuilt wholesale the next time Lookup runs after an
// AddDefinition/RemoveDefinition invalidates it — the same
// coarse-grained cache-and-rebuild discipline the teacher's tabling
// engine uses for memoized derivations, chosen over incremental tree
// surgery because definition changes are rare compared to lookups.
type TestingTree struct {
	root *testingNode
}

// minArity returns the smallest parameter count across defs: every
// ArgIndex the tree tests must be below it, so that no test runs off the
// end of some definition's signature.
func minArity(defs []Definition) int {
	if len(defs) == 0 {
		return 0
	}
	min := len(defs[0].ParamTypes)
	for _, d := range defs[1:] {
		if len(d.ParamTypes) < min {
			min = len(d.ParamTypes)
		}
	}
	return min
}

// buildNode partitions defs on argIndex using the first definition's
// declared type at that position as the pivot: every definition whose
// type there is a subtype of the pivot goes to ifSubtype, the rest to
// ifNot. If the pivot doesn't separate anything (every definition lands
// on the same side), the position carries no discriminating power and
// the next argument position is tried instead; once every position is
// exhausted (or only one definition remains) the node becomes a leaf.
func buildNode(defs []Definition, argIndex int) *testingNode {
	if len(defs) <= 1 || argIndex >= minArity(defs) {
		return &testingNode{leaf: defs}
	}
	pivot := defs[0].ParamTypes[argIndex]
	var yes, no []Definition
	for _, d := range defs {
		if d.ParamTypes[argIndex].IsSubtypeOf(pivot) {
			yes = append(yes, d)
		} else {
			no = append(no, d)
		}
	}
	if len(yes) == len(defs) || len(no) == len(defs) {
		return buildNode(defs, argIndex+1)
	}
	return &testingNode{
		ArgIndex:  argIndex,
		Type:      pivot,
		ifSubtype: buildNode(yes, argIndex+1),
		ifNot:     buildNode(no, argIndex+1),
	}
}

func buildTestingTree(defs []Definition) *TestingTree {
	cp := make([]Definition, len(defs))
	copy(cp, defs)
	return &TestingTree{root: buildNode(cp, 0)}
}

// Lookup walks the tree's ArgIndex/Type tests and collects every leaf
// argTypes can reach: where the argument passes a node's test both
// branches are searched, since a definition sorted into ifNot (a wider
// or unrelated type) may still accept it; where it fails, only ifNot is
// searched, since every definition under ifSubtype requires a subtype
// of the tested Type. It then resolves the most specific of the reached
// definitions whose full signature is applicable to argTypes. If more
// than one maximally-specific candidate applies, it reports
// ErrAmbiguousLookup. If none applies, ErrNoDefinition.
func (tt *TestingTree) Lookup(argTypes []values.Type) (Definition, error) {
	var reached []Definition
	pending := []*testingNode{tt.root}
	for len(pending) > 0 {
		node := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if node.isLeaf() {
			reached = append(reached, node.leaf...)
			continue
		}
		pending = append(pending, node.ifNot)
		if node.ArgIndex < len(argTypes) && argTypes[node.ArgIndex].IsSubtypeOf(node.Type) {
			pending = append(pending, node.ifSubtype)
		}
	}

	var candidates []Definition
	for _, d := range reached {
		if d.applicableTo(argTypes) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return Definition{}, values.NewError(values.ErrNoDefinition, "no applicable definition for %v", argTypes)
	}
	var maximal []Definition
	for _, c := range candidates {
		dominated := false
		for _, other := range candidates {
			if other.moreSpecificThan(c) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, c)
		}
	}
	if len(maximal) != 1 {
		return Definition{}, values.NewError(values.ErrAmbiguousLookup, "%d equally specific definitions apply", len(maximal))
	}
	return maximal[0], nil
}

// Method is the full set of definitions sharing one message-bundle
// name, plus its cached TestingTree.
type Method struct {
	ID MethodID

	mu          sync.RWMutex
	definitions []Definition
	tree        *TestingTree // nil when invalidated; rebuilt on next Lookup
}

func NewMethod(id MethodID) *Method { return &Method{ID: id} }

// AddDefinition appends def and invalidates the cached testing tree.
// Callers must hold no lower lock than Method's (object -> ... ->
// Method -> Bundle -> BundleTree -> ChunkDependents is the fixed
// acquisition order every mutating path in this package follows, to
// avoid the deadlocks §5 calls out).
func (m *Method) AddDefinition(def Definition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.definitions = append(m.definitions, def)
	m.tree = nil
}

// RemoveDefinition removes the first definition whose signature exactly
// matches paramTypes (the §3-supplemented inverse of AddDefinition,
// modelling module unload). Reports false if none matched.
func (m *Method) RemoveDefinition(paramTypes []values.Type) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.definitions {
		if sameSignature(d.ParamTypes, paramTypes) {
			m.definitions = append(m.definitions[:i], m.definitions[i+1:]...)
			m.tree = nil
			return true
		}
	}
	return false
}

func sameSignature(a, b []values.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Lookup rebuilds the testing tree if it was invalidated since the last
// call, then resolves argTypes against it.
func (m *Method) Lookup(argTypes []values.Type) (Definition, error) {
	m.mu.Lock()
	if m.tree == nil {
		sorted := append([]Definition(nil), m.definitions...)
		sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i].ParamTypes) < len(sorted[j].ParamTypes) })
		m.tree = buildTestingTree(sorted)
	}
	tree := m.tree
	m.mu.Unlock()
	return tree.Lookup(argTypes)
}

// Definitions returns a snapshot of the method's current definitions.
func (m *Method) Definitions() []Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Definition(nil), m.definitions...)
}

func (m *Method) String() string {
	return fmt.Sprintf("Method(%d defs)", len(m.Definitions()))
}
