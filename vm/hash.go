package vm

// Hash is a reference-counted key/value sequence. Kept in insertion
// order as a flat pair list, like the instance-variable store.
type Hash struct {
	refHeader
	entries []hashEntry
}

type hashEntry struct {
	key Value
	val Value
}

// NewHash allocates an empty hash with room for capacity entries.
func (vm *VM) NewHash(capacity int) (Value, error) {
	if err := vm.Allocator.Alloc(hashBase + capacity*2*valueSize); err != nil {
		return NilValue(), err
	}
	h := &Hash{entries: make([]hashEntry, 0, capacity)}
	h.refCount = 1
	h.size = hashBase + capacity*2*valueSize
	return Value{tt: TypeHash, ref: h}, nil
}

func (h *Hash) destroy(vm *VM) {
	for i := range h.entries {
		vm.release(h.entries[i].key)
		vm.release(h.entries[i].val)
	}
	h.entries = nil
	vm.Allocator.Free(h.size)
}

// Len returns the entry count.
func (h *Hash) Len() int { return len(h.entries) }

// Get returns the value for key without transferring ownership.
func (h *Hash) Get(key Value) (Value, bool) {
	for i := range h.entries {
		if Compare(h.entries[i].key, key) == 0 {
			return h.entries[i].val, true
		}
	}
	return NilValue(), false
}

// Set stores key/value under the store discipline.
func (h *Hash) Set(vm *VM, key, val Value) {
	for i := range h.entries {
		if Compare(h.entries[i].key, key) == 0 {
			vm.StoreValue(&h.entries[i].val, val)
			return
		}
	}
	vm.Retain(key)
	vm.Retain(val)
	h.entries = append(h.entries, hashEntry{key: key, val: val})
}

// Each visits entries in insertion order.
func (h *Hash) Each(fn func(key, val Value)) {
	for i := range h.entries {
		fn(h.entries[i].key, h.entries[i].val)
	}
}
