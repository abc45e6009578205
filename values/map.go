package values

import (
	"github.com/gitrdm/availcore/object"
)

// Map is the keyed counterpart to Set, built on the same HAMT shape: a
// linear bin of up to linearBinThreshold key/value pairs, a 32-way
// bitmap-indexed branch above it. A linear bin stores each pair as
// two consecutive object slots (key at 2i, value at 2i+1).
type Map struct {
	obj *object.Object
}

func WrapMap(o *object.Object) Map   { return Map{obj: object.Traverse(o)} }
func (m Map) Object() *object.Object { return m.obj }

// NewMap returns the empty map.
func NewMap() Map {
	return Map{obj: object.Allocate(object.KindLinearMapBin, 0, 0)}
}

// MapSize returns the number of key/value pairs.
func MapSize(m Map) int { return mapBinSize(m.obj) }

func mapBinSize(o *object.Object) int {
	switch o.Kind() {
	case object.KindLinearMapBin:
		return o.NumObjectSlots() / 2
	case object.KindHashedMapBin:
		total := 0
		for i := 0; i < o.NumObjectSlots(); i++ {
			total += mapBinSize(o.SlotObject(i))
		}
		return total
	default:
		panic("values: not a map bin")
	}
}

// MapGet returns the value associated with key and true, or (nil, false)
// if key is absent.
func MapGet(m Map, key *object.Object) (*object.Object, bool) {
	return mapBinGet(m.obj, key, object.Hash(key), 0)
}

func mapBinGet(o *object.Object, key *object.Object, hash uint64, level int) (*object.Object, bool) {
	switch o.Kind() {
	case object.KindLinearMapBin:
		n := o.NumObjectSlots() / 2
		for i := 0; i < n; i++ {
			if object.Equals(o.SlotObject(2*i), key) {
				return o.SlotObject(2*i + 1), true
			}
		}
		return nil, false
	case object.KindHashedMapBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			return nil, false
		}
		return mapBinGet(o.SlotObject(childIndex(bm, chunk)), key, hash, level+1)
	default:
		panic("values: not a map bin")
	}
}

// MapPut returns a new map with key bound to value, replacing any prior
// binding for key.
func MapPut(m Map, key, value *object.Object) Map {
	return Map{obj: mapBinPut(m.obj, key, value, object.Hash(key), 0)}
}

func mapBinPut(o *object.Object, key, value *object.Object, hash uint64, level int) *object.Object {
	switch o.Kind() {
	case object.KindLinearMapBin:
		n := o.NumObjectSlots() / 2
		pairs := make([]*object.Object, 0, o.NumObjectSlots()+2)
		replaced := false
		for i := 0; i < n; i++ {
			k, v := o.SlotObject(2*i), o.SlotObject(2*i+1)
			if object.Equals(k, key) {
				v = value
				replaced = true
			}
			pairs = append(pairs, k, v)
		}
		if replaced {
			return newLinearMapBin(pairs)
		}
		if n < linearBinThreshold || level >= maxHashLevel {
			pairs = append(pairs, key, value)
			return newLinearMapBin(pairs)
		}
		hashedEmpty := object.Allocate(object.KindHashedMapBin, 0, 1)
		cur := hashedEmpty
		for i := 0; i < n; i++ {
			k, v := o.SlotObject(2*i), o.SlotObject(2*i+1)
			cur = mapBinPut(cur, k, v, object.Hash(k), level)
		}
		return mapBinPut(cur, key, value, hash, level)
	case object.KindHashedMapBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			child := newLinearMapBin([]*object.Object{key, value})
			return insertChild(o, bm, chunk, child)
		}
		idx := childIndex(bm, chunk)
		newChild := mapBinPut(o.SlotObject(idx), key, value, hash, level+1)
		return replaceChild(o, idx, newChild)
	default:
		panic("values: not a map bin")
	}
}

// MapDelete returns a new map with key unbound (a no-op if key was never
// bound).
func MapDelete(m Map, key *object.Object) Map {
	return Map{obj: mapBinDelete(m.obj, key, object.Hash(key), 0)}
}

func mapBinDelete(o *object.Object, key *object.Object, hash uint64, level int) *object.Object {
	switch o.Kind() {
	case object.KindLinearMapBin:
		n := o.NumObjectSlots() / 2
		pairs := make([]*object.Object, 0, o.NumObjectSlots())
		found := false
		for i := 0; i < n; i++ {
			k, v := o.SlotObject(2*i), o.SlotObject(2*i+1)
			if !found && object.Equals(k, key) {
				found = true
				continue
			}
			pairs = append(pairs, k, v)
		}
		if !found {
			return o
		}
		return newLinearMapBin(pairs)
	case object.KindHashedMapBin:
		bm := bitsetFromSlot(o)
		chunk := uint(hashChunk(hash, level))
		if !bm.Test(chunk) {
			return o
		}
		idx := childIndex(bm, chunk)
		child := o.SlotObject(idx)
		newChild := mapBinDelete(child, key, hash, level+1)
		if newChild == child {
			return o
		}
		if mapBinSize(newChild) == 0 {
			return removeChild(o, bm, chunk)
		}
		return replaceChild(o, idx, newChild)
	default:
		panic("values: not a map bin")
	}
}

func newLinearMapBin(pairs []*object.Object) *object.Object {
	o := object.Allocate(object.KindLinearMapBin, len(pairs), 0)
	for i, p := range pairs {
		o.SetSlotObject(i, p)
	}
	return o
}

func walkMap(o *object.Object, visit func(key, value *object.Object)) {
	switch o.Kind() {
	case object.KindLinearMapBin:
		n := o.NumObjectSlots() / 2
		for i := 0; i < n; i++ {
			visit(o.SlotObject(2*i), o.SlotObject(2*i+1))
		}
	case object.KindHashedMapBin:
		for i := 0; i < o.NumObjectSlots(); i++ {
			walkMap(o.SlotObject(i), visit)
		}
	}
}

func init() {
	for _, kind := range []object.DescriptorKind{object.KindLinearMapBin, object.KindHashedMapBin} {
		object.RegisterHash(kind, func(o *object.Object) uint64 {
			return mapHash(Map{obj: o})
		})
		object.RegisterEquals(kind, func(a, b *object.Object) bool {
			return mapsEqual(Map{obj: a}, Map{obj: b})
		})
	}
}

func mapHash(m Map) uint64 {
	var acc uint64
	walkMap(m.obj, func(k, v *object.Object) {
		acc ^= combineHash(object.Hash(k), object.Hash(v))
	})
	return combineHash(acc, uint64(MapSize(m)))
}

func mapsEqual(a, b Map) bool {
	if MapSize(a) != MapSize(b) {
		return false
	}
	equal := true
	walkMap(a.obj, func(k, v *object.Object) {
		if !equal {
			return
		}
		bv, ok := MapGet(b, k)
		if !ok || !object.Equals(v, bv) {
			equal = false
		}
	})
	return equal
}
