// Package serialize implements binary serialization of object.Object
// graphs for the external interfaces spec.md §6 describes: "each
// concrete descriptor maps to one serializer operation." Rather than a
// schema-codegen format (protobuf, cap'n proto — both would require
// hand-faking generated code, since this rewrite cannot run protoc),
// one generic payload struct (kind, mutability, slot contents) is
// registered via encoding/gob's gob.Register, and Encode/Decode walk the
// object graph converting every node, whatever its kind, to and from
// that payload. No kind has a serializer operation of its own, so new
// descriptor kinds need no registration.
package serialize

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/gitrdm/availcore/object"
)

// payload is the minimal reconstruction data for one object: its kind,
// mutability, and slot contents (object slots recorded as indices into
// a shared table so shared substructure round-trips instead of being
// duplicated).
type payload struct {
	Kind        object.DescriptorKind
	Mutability  object.Mutability
	ObjectSlots []int // indices into the enclosing Graph.Nodes
	IntSlots    []int32
}

func init() {
	gob.Register(payload{})
}

// Graph is the gob-serializable form of a set of object.Object values
// reachable from one or more roots: a flat node table plus the root
// indices, so that Coalesce-shared or cyclic substructure (e.g. two
// roots pointing at the same indirection target) is represented once.
type Graph struct {
	Nodes []payload
	Roots []int
}

// Encode serializes every object reachable from roots into a Graph and
// gob-encodes it.
func Encode(roots []*object.Object) ([]byte, error) {
	index := make(map[*object.Object]int)
	var nodes []payload

	var visit func(o *object.Object) int
	visit = func(o *object.Object) int {
		o = object.Traverse(o)
		if i, ok := index[o]; ok {
			return i
		}
		i := len(nodes)
		index[o] = i
		nodes = append(nodes, payload{}) // reserve slot before recursing, for cycles
		objSlots := make([]int, o.NumObjectSlots())
		for s := 0; s < o.NumObjectSlots(); s++ {
			objSlots[s] = visit(o.SlotObject(s))
		}
		intSlots := make([]int32, o.NumIntSlots())
		for s := 0; s < o.NumIntSlots(); s++ {
			intSlots[s] = o.SlotInt(s)
		}
		nodes[i] = payload{Kind: o.Kind(), Mutability: o.Mutability(), ObjectSlots: objSlots, IntSlots: intSlots}
		return i
	}

	rootIndices := make([]int, len(roots))
	for i, r := range roots {
		rootIndices[i] = visit(r)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(Graph{Nodes: nodes, Roots: rootIndices}); err != nil {
		return nil, fmt.Errorf("serialize: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs the object graph encoded by Encode, returning the
// roots in the same order they were passed to Encode.
func Decode(data []byte) ([]*object.Object, error) {
	var g Graph
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return nil, fmt.Errorf("serialize: decode: %w", err)
	}

	objects := make([]*object.Object, len(g.Nodes))
	for i, n := range g.Nodes {
		objects[i] = object.Allocate(n.Kind, len(n.ObjectSlots), len(n.IntSlots))
	}
	for i, n := range g.Nodes {
		for s, ref := range n.ObjectSlots {
			objects[i].SetSlotObject(s, objects[ref])
		}
		for s, v := range n.IntSlots {
			objects[i].SetSlotInt(s, v)
		}
		switch n.Mutability {
		case object.Immutable:
			object.MakeImmutable(objects[i])
		case object.Shared:
			object.MakeShared(objects[i])
		}
	}

	roots := make([]*object.Object, len(g.Roots))
	for i, idx := range g.Roots {
		roots[i] = objects[idx]
	}
	return roots, nil
}
