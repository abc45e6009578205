package object

// BecomeIndirection rewrites o in place into an indirection pointing at
// target: o's descriptor is swapped to KindIndirection (at target's
// mutability, since an indirection is exactly as visible as what it now
// represents) and its sole object slot becomes target. This is how the VM
// coalesces two discovered-equal values and how it redirects identity
// after in-place growth; every other operation on o from this point on
// forwards to target via Traverse.
//
// BecomeIndirection must never run while another fiber is reading o's
// identity (e.g. mid-Equals) — callers coalescing values are expected to
// hold whatever higher-level lock protects the value's visibility (see
// package dispatch's lock-ordering contract for bundle-tree coalescing).
func BecomeIndirection(o, target *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.descriptor = &Descriptor{Kind: KindIndirection, Mutability: target.Mutability()}
	o.objectSlots = []*Object{target}
	o.intSlots = nil
}

// Traverse follows a chain of indirections and returns the first
// non-indirection object reached. Every boundary in this codebase that
// accepts an *Object and might be handed a stale indirection calls
// Traverse before doing anything else, so higher layers never observe a
// raw indirection.
func Traverse(o *Object) *Object {
	for {
		o.mu.RLock()
		isIndirection := o.descriptor.Kind == KindIndirection
		var next *Object
		if isIndirection {
			next = o.objectSlots[0]
		}
		o.mu.RUnlock()
		if !isIndirection {
			return o
		}
		o = next
	}
}
