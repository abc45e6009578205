package object

// Coalesce implements the VM's identity-coalescing transformation: when two
// distinct objects are discovered to be Equals, one is rewritten into an
// indirection to the other so future identity comparisons (and memory
// footprint) collapse. Per spec the less-compact object — the one with
// more total slots — becomes the indirection, and the survivor is made at
// least Immutable (Shared objects are left Shared, never demoted).
//
// Coalesce is a no-op if a and b are already the same object (after
// Traverse) or are not Equals. It reports which of the two arguments
// survived as the canonical object.
func Coalesce(a, b *Object) (survivor *Object) {
	a = Traverse(a)
	b = Traverse(b)
	if a == b {
		return a
	}
	if !Equals(a, b) {
		return nil
	}

	loser, winner := a, b
	if totalSlots(a) < totalSlots(b) {
		loser, winner = b, a
	}

	if winner.Mutability() == Mutable {
		MakeImmutable(winner)
	}
	BecomeIndirection(loser, winner)
	return winner
}

func totalSlots(o *Object) int {
	return o.NumObjectSlots() + o.NumIntSlots()
}
