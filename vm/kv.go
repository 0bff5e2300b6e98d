package vm

// KVStore is the consumed key-value interface backing instance
// variables. The core only requires get/set/duplicate/destroy keyed by
// symbol; an embedder may substitute its own store (flash-backed,
// fixed-capacity) as long as it honors the retain-on-store discipline.
type KVStore interface {
	// Get returns the value for a key without transferring ownership.
	Get(key SymID) (Value, bool)
	// Set stores a value under key, retaining it and releasing any
	// value it overwrites. Self-assignment must not free the value.
	Set(vm *VM, key SymID, v Value)
	// Dup returns a deep-enough copy: same keys, each value retained
	// once more on behalf of the copy.
	Dup(vm *VM) KVStore
	// Destroy releases every stored value and the store's own block.
	Destroy(vm *VM)
	// Len returns the number of stored pairs.
	Len() int
	// Each visits pairs in insertion order.
	Each(fn func(key SymID, v Value))
}

// ---------------------------------------------------------------------------
// pairStore: the default KVStore
// ---------------------------------------------------------------------------

type kvPair struct {
	key SymID
	val Value
}

// pairStore keeps pairs in insertion order and scans linearly. Instances
// have few variables and the target has no memory to spare for a hash
// table.
type pairStore struct {
	pairs []kvPair
}

// NewPairStore creates an empty pair store charged to the allocator.
func NewPairStore(vm *VM) (KVStore, error) {
	if err := vm.Allocator.Alloc(hashBase); err != nil {
		return nil, err
	}
	return &pairStore{}, nil
}

func (s *pairStore) Get(key SymID) (Value, bool) {
	for i := range s.pairs {
		if s.pairs[i].key == key {
			return s.pairs[i].val, true
		}
	}
	return NilValue(), false
}

func (s *pairStore) Set(vm *VM, key SymID, v Value) {
	vm.Retain(v)
	for i := range s.pairs {
		if s.pairs[i].key == key {
			old := s.pairs[i].val
			s.pairs[i].val = v
			vm.release(old)
			return
		}
	}
	s.pairs = append(s.pairs, kvPair{key: key, val: v})
	vm.Allocator.Alloc(valueSize) //nolint:errcheck // charged best-effort; pair already stored
}

func (s *pairStore) Dup(vm *VM) KVStore {
	vm.Allocator.Alloc(hashBase) //nolint:errcheck
	for range s.pairs {
		vm.Allocator.Alloc(valueSize) //nolint:errcheck
	}
	dst := &pairStore{pairs: make([]kvPair, len(s.pairs))}
	copy(dst.pairs, s.pairs)
	for i := range dst.pairs {
		vm.Retain(dst.pairs[i].val)
	}
	return dst
}

func (s *pairStore) Destroy(vm *VM) {
	for i := range s.pairs {
		vm.release(s.pairs[i].val)
		vm.Allocator.Free(valueSize)
	}
	s.pairs = nil
	vm.Allocator.Free(hashBase)
}

func (s *pairStore) Len() int { return len(s.pairs) }

func (s *pairStore) Each(fn func(key SymID, v Value)) {
	for i := range s.pairs {
		fn(s.pairs[i].key, s.pairs[i].val)
	}
}
