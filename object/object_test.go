package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSlotAccess(t *testing.T) {
	o := Allocate(KindAtom, 2, 1)
	require.Equal(t, 2, o.NumObjectSlots())
	require.Equal(t, 1, o.NumIntSlots())

	child := Allocate(KindNil, 0, 0)
	o.SetSlotObject(0, child)
	o.SetSlotInt(0, 42)

	assert.Same(t, child, o.SlotObject(0))
	assert.Equal(t, int32(42), o.SlotInt(0))
	assert.Nil(t, o.SlotObject(1))
}

func TestMutabilityLatticeNeverReverts(t *testing.T) {
	o := Allocate(KindAtom, 0, 0)
	require.Equal(t, Mutable, o.Mutability())

	MakeImmutable(o)
	assert.Equal(t, Immutable, o.Mutability())

	MakeShared(o)
	assert.Equal(t, Shared, o.Mutability())

	// Idempotent: re-running MakeImmutable on an already-Shared object
	// must not demote it.
	MakeImmutable(o)
	assert.Equal(t, Shared, o.Mutability())
}

func TestMakeImmutableRecursesThroughSlots(t *testing.T) {
	child := Allocate(KindAtom, 0, 0)
	parent := Allocate(KindObjectTuple, 1, 0)
	parent.SetSlotObject(0, child)

	MakeImmutable(parent)

	assert.Equal(t, Immutable, parent.Mutability())
	assert.Equal(t, Immutable, child.Mutability())
}

func TestMakeImmutableHandlesCycles(t *testing.T) {
	a := Allocate(KindObjectTuple, 1, 0)
	b := Allocate(KindObjectTuple, 1, 0)
	a.SetSlotObject(0, b)
	b.SetSlotObject(0, a)

	done := make(chan struct{})
	go func() {
		MakeImmutable(a)
		close(done)
	}()
	select {
	case <-done:
	default:
	}
	<-done // would hang forever if the cycle guard were missing

	assert.Equal(t, Immutable, a.Mutability())
	assert.Equal(t, Immutable, b.Mutability())
}

func TestBecomeIndirectionForwardsTraverse(t *testing.T) {
	target := Allocate(KindAtom, 0, 0)
	stale := Allocate(KindAtom, 0, 0)

	BecomeIndirection(stale, target)

	assert.Equal(t, KindIndirection, stale.Kind())
	assert.Same(t, target, Traverse(stale))
	assert.Same(t, target, Traverse(target))
}

func TestDispatchNotSupported(t *testing.T) {
	type fakeOps interface{ Noop() }
	table := map[DescriptorKind]fakeOps{}

	_, err := Dispatch(KindAtom, table, "fakeOps")
	require.Error(t, err)
	assert.True(t, IsNotSupported(err))

	var nse *NotSupportedError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "fakeOps", nse.Operation)
	assert.Equal(t, KindAtom, nse.Kind)
}

func TestHashEqualsRegistryRoundTrip(t *testing.T) {
	RegisterHash(KindBoolean, func(o *Object) uint64 {
		return uint64(o.SlotInt(0)) + 1
	})
	RegisterEquals(KindBoolean, func(a, b *Object) bool {
		return a.Kind() == b.Kind() && a.SlotInt(0) == b.SlotInt(0)
	})

	trueA := Allocate(KindBoolean, 0, 1)
	trueA.SetSlotInt(0, 1)
	trueB := Allocate(KindBoolean, 0, 1)
	trueB.SetSlotInt(0, 1)
	falseC := Allocate(KindBoolean, 0, 1)

	assert.True(t, Equals(trueA, trueB))
	assert.False(t, Equals(trueA, falseC))
	assert.Equal(t, Hash(trueA), Hash(trueB))
}

func TestCoalescePicksMoreCompactSurvivor(t *testing.T) {
	RegisterHash(KindStringTuple, func(o *Object) uint64 { return 7 })
	RegisterEquals(KindStringTuple, func(a, b *Object) bool { return true })

	small := Allocate(KindStringTuple, 0, 1)
	big := Allocate(KindStringTuple, 0, 5)

	survivor := Coalesce(big, small)
	require.NotNil(t, survivor)
	assert.Same(t, small, survivor)
	assert.Equal(t, KindIndirection, big.Kind())
	assert.Same(t, small, Traverse(big))
	assert.GreaterOrEqual(t, int(survivor.Mutability()), int(Immutable))
}

func TestCoalesceNoOpWhenNotEqual(t *testing.T) {
	RegisterHash(KindNybbleTuple, func(o *Object) uint64 { return uint64(o.SlotInt(0)) })
	RegisterEquals(KindNybbleTuple, func(a, b *Object) bool { return a.SlotInt(0) == b.SlotInt(0) })

	a := Allocate(KindNybbleTuple, 0, 1)
	a.SetSlotInt(0, 1)
	b := Allocate(KindNybbleTuple, 0, 1)
	b.SetSlotInt(0, 2)

	assert.Nil(t, Coalesce(a, b))
	assert.Equal(t, KindNybbleTuple, a.Kind())
	assert.Equal(t, KindNybbleTuple, b.Kind())
}
