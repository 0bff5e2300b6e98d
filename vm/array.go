package vm

// Array is a reference-counted value vector. Containers exist in this
// core only as dispatch and print targets; the full method set lives
// with the embedder's container layer.
type Array struct {
	refHeader
	items []Value
}

// NewArray allocates an empty array with room for capacity elements.
func (vm *VM) NewArray(capacity int) (Value, error) {
	if err := vm.Allocator.Alloc(arrayBase + capacity*valueSize); err != nil {
		return NilValue(), err
	}
	a := &Array{items: make([]Value, 0, capacity)}
	a.refCount = 1
	a.size = arrayBase + capacity*valueSize
	return Value{tt: TypeArray, ref: a}, nil
}

func (a *Array) destroy(vm *VM) {
	for i := range a.items {
		vm.release(a.items[i])
	}
	a.items = nil
	vm.Allocator.Free(a.size)
}

// Len returns the element count.
func (a *Array) Len() int { return len(a.items) }

// Get returns the element at index without transferring ownership, or
// nil when out of bounds (local recovery per the collaborator
// contract).
func (a *Array) Get(index int) Value {
	if index < 0 || index >= len(a.items) {
		return NilValue()
	}
	return a.items[index]
}

// Push appends a value, retaining it.
func (a *Array) Push(vm *VM, v Value) {
	vm.Retain(v)
	a.items = append(a.items, v)
}

// Set stores a value at index under the store discipline.
func (a *Array) Set(vm *VM, index int, v Value) {
	if index < 0 || index >= len(a.items) {
		return
	}
	vm.StoreValue(&a.items[index], v)
}
