package object

// MakeImmutable recursively transitions o and everything reachable from it
// through object slots to at least Immutable. It is idempotent:
// MakeImmutable(MakeImmutable(v)) observes the same state as a single call,
// since an object already at Immutable or Shared is left untouched.
// visited guards against both re-walking shared substructure and infinite
// recursion through cyclic object graphs (continuations and functions can
// refer back to the module/method that produced them).
func MakeImmutable(o *Object) {
	makeAtLeast(o, Immutable, make(map[*Object]struct{}))
}

// MakeShared recursively transitions o and everything reachable from it to
// Shared, the only mutability from which cross-fiber visibility is safe.
// Like MakeImmutable it never moves an object backward down the lattice,
// and once Shared an object stays Shared.
func MakeShared(o *Object) {
	makeAtLeast(o, Shared, make(map[*Object]struct{}))
}

func makeAtLeast(o *Object, target Mutability, visited map[*Object]struct{}) {
	o = Traverse(o)
	if _, seen := visited[o]; seen {
		return
	}
	visited[o] = struct{}{}

	o.mu.Lock()
	current := o.descriptor.Mutability
	if current >= target {
		slots := append([]*Object(nil), o.objectSlots...)
		o.mu.Unlock()
		// Still need to ensure children meet the invariant even if this
		// object itself was already there (a Shared parent may have been
		// linked to a Mutable child by code that bypassed the barrier).
		for _, child := range slots {
			if child != nil {
				makeAtLeast(child, target, visited)
			}
		}
		return
	}
	o.withMutability(target)
	slots := append([]*Object(nil), o.objectSlots...)
	o.mu.Unlock()

	for _, child := range slots {
		if child != nil {
			makeAtLeast(child, target, visited)
		}
	}
}
