package object

// Dispatch is the generic mechanism every polymorphic operation in this VM
// is built on: a table of per-kind implementations of a capability trait,
// looked up by the object's DescriptorKind. Concrete kinds (package values)
// populate these tables at package init time; a kind that has no entry for
// a given table simply does not implement that capability, and Dispatch
// reports ErrNotSupported instead of falling through to an abstract stub.
//
// T is typically a small interface or function type — e.g. package values
// defines a tupleOps interface and a map[DescriptorKind]tupleOps, and calls
// object.MustDispatch(kind, tupleOpsTable, "tupleOps") to fetch the
// implementation for a given tuple.
func Dispatch[T any](kind DescriptorKind, table map[DescriptorKind]T, operation string) (T, error) {
	if impl, ok := table[kind]; ok {
		return impl, nil
	}
	var zero T
	return zero, &NotSupportedError{Operation: operation, Kind: kind}
}

// MustDispatch is Dispatch for call sites that have already established,
// by construction, that the kind supports the trait (e.g. a tuple
// constructor dispatching to its own kind's ops). It panics on a missing
// entry, which would indicate a registration bug rather than a runtime
// condition.
func MustDispatch[T any](kind DescriptorKind, table map[DescriptorKind]T, operation string) T {
	impl, err := Dispatch(kind, table, operation)
	if err != nil {
		panic(err)
	}
	return impl
}
