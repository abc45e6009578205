package dispatch

import (
	"testing"
	"time"

	"github.com/gitrdm/availcore/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodLookupPicksMostSpecific(t *testing.T) {
	m := NewMethod(1)
	general := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.AnyType()}}
	specific := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.NumberType()}}
	m.AddDefinition(general)
	m.AddDefinition(specific)

	def, err := m.Lookup([]values.Type{values.NumberType()})
	require.NoError(t, err)
	assert.Equal(t, specific, def)
}

func TestMethodLookupReportsAmbiguity(t *testing.T) {
	m := NewMethod(2)
	a := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.TupleType(values.AnyType())}}
	b := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.NumberType()}}
	m.AddDefinition(a)
	m.AddDefinition(b)

	_, err := m.Lookup([]values.Type{values.BottomType()})
	require.Error(t, err)
	kind, ok := values.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, values.ErrAmbiguousLookup, kind)
}

func TestMethodLookupReportsNoDefinition(t *testing.T) {
	m := NewMethod(3)
	m.AddDefinition(Definition{Kind: Ordinary, ParamTypes: []values.Type{values.NumberType()}})

	_, err := m.Lookup([]values.Type{values.TupleType(values.AnyType())})
	require.Error(t, err)
	kind, ok := values.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, values.ErrNoDefinition, kind)
}

func TestRemoveDefinitionInvalidatesTree(t *testing.T) {
	m := NewMethod(4)
	sig := []values.Type{values.NumberType()}
	m.AddDefinition(Definition{Kind: Ordinary, ParamTypes: sig})

	_, err := m.Lookup(sig)
	require.NoError(t, err)

	ok := m.RemoveDefinition(sig)
	assert.True(t, ok)

	_, err = m.Lookup(sig)
	require.Error(t, err)
}

func TestMethodLookupBranchesOnMultipleArgumentPositions(t *testing.T) {
	m := NewMethod(5)
	numberNumber := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.NumberType(), values.NumberType()}}
	numberAny := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.NumberType(), values.AnyType()}}
	anyAny := Definition{Kind: Ordinary, ParamTypes: []values.Type{values.AnyType(), values.AnyType()}}
	m.AddDefinition(anyAny)
	m.AddDefinition(numberAny)
	m.AddDefinition(numberNumber)

	def, err := m.Lookup([]values.Type{values.NumberType(), values.NumberType()})
	require.NoError(t, err)
	assert.Equal(t, numberNumber, def)

	def, err = m.Lookup([]values.Type{values.NumberType(), values.TupleType(values.AnyType())})
	require.NoError(t, err)
	assert.Equal(t, numberAny, def)

	def, err = m.Lookup([]values.Type{values.TupleType(values.AnyType()), values.TupleType(values.AnyType())})
	require.NoError(t, err)
	assert.Equal(t, anyAny, def)
}

func TestDependencyBusInvalidatesRegisteredChunks(t *testing.T) {
	bus := NewDependencyBus()
	defer bus.Shutdown()

	invalidated := make(chan struct{}, 1)
	chunk := &fakeChunk{invalidated: invalidated}
	bus.RegisterDependency(7, chunk)
	bus.Publish(7)

	select {
	case <-invalidated:
	case <-time.After(time.Second):
		t.Fatal("chunk was never invalidated")
	}
}

type fakeChunk struct{ invalidated chan struct{} }

func (c *fakeChunk) Invalidate() { c.invalidated <- struct{}{} }

func newTestBundle(name string, method *Method) *MessageBundle {
	return NewMessageBundle(values.NewAtom(name, "test"), method)
}

// addSimplePlan wires bundle's default (all-keyword-and-argument) parse
// plan into tree, the way a module compiler would for a bundle with no
// case-insensitive or recursive parts.
func addSimplePlan(tree *BundleTree, bundle *MessageBundle) {
	plan := DefinitionParsingPlan{Instructions: PartsToInstructions(bundle.Parts)}
	bundle.Plans = append(bundle.Plans, plan)
	tree.AddDefinition(bundle, plan, nil)
}

func TestAddRestrictionPrefiltersExcludedArgumentBundle(t *testing.T) {
	// "_ + _" restricted at argument 0 to exclude "- _", mirroring
	// spec.md's scenario 4: `-a+b` must be written `(-a)+b`.
	plusMethod := NewMethod(10)
	minusMethod := NewMethod(11)
	plus := newTestBundle("_ + _", plusMethod)
	minus := newTestBundle("- _", minusMethod)

	root := NewBundleTree()
	addSimplePlan(root, plus)
	addSimplePlan(root, minus)

	root.AddRestriction(plus, Restriction{ArgIndex: 0, Excluded: minus}, nil)
	root.Expand() // advances "_ + _" and "- _" past their first instruction

	// root's own argument successor is where the first argument of
	// "_ + _" is consumed; when that argument resolved to minus, the
	// restriction must keep plus's continuation out of it entirely.
	viaMinus := root.ArgumentSuccessor(minus)
	assert.Empty(t, viaMinus.Complete())

	viaPlus := root.ArgumentSuccessor(plus)
	viaPlus.Expand() // ParsePart "+"
	plusTail, ok := viaPlus.LookupPart("+")
	require.True(t, ok)
	plusTail.Expand() // CheckArgument (second argument)
	secondArg := plusTail.ArgumentSuccessor(plus)
	secondArg.Expand() // plan exhausted: completes
	assert.Contains(t, secondArg.Complete(), plus, "an argument that isn't the excluded bundle must still reach the restricted bundle's completion")
}

func TestExpandDispatchesOnInstructionKind(t *testing.T) {
	m := NewMethod(12)
	bundle := newTestBundle("print _", m)

	root := NewBundleTree()
	addSimplePlan(root, bundle)

	root.Expand() // ParsePart "print"
	child, ok := root.LookupPart("print")
	require.True(t, ok)

	child.Expand() // advances the queued plan through CheckArgument
	argChild := child.ArgumentSuccessor(bundle)

	argChild.Expand() // plan has no instructions left: completes
	require.Contains(t, argChild.Complete(), bundle)
}

func TestExpandDetectsSelfRecursiveCycle(t *testing.T) {
	m := NewMethod(13)
	bundle := newTestBundle("loop", m)
	plan := DefinitionParsingPlan{Instructions: []ParsingInstruction{InstrJumpBackward}}
	bundle.Plans = append(bundle.Plans, plan)

	root := NewBundleTree()
	root.AddDefinition(bundle, plan, nil)
	root.Expand()

	assert.True(t, root.isSourceOfCycle)
	assert.Same(t, root, root.backJump)
}
