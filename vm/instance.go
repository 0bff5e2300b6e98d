package vm

// Instance is a heap object pairing a class reference with a key-value
// store of instance variables. The class pointer is mutable: object
// construction reassigns it transiently while `initialize` runs under a
// trampoline (see objectNew).
type Instance struct {
	refHeader
	cls  *Class
	ivar KVStore
}

// NewInstance allocates an instance of cls with a fresh variable store.
// Returns ErrOutOfMemory if either block is refused.
func (vm *VM) NewInstance(cls *Class) (Value, error) {
	if err := vm.Allocator.Alloc(instanceSize); err != nil {
		return NilValue(), err
	}
	ivar, err := NewPairStore(vm)
	if err != nil {
		vm.Allocator.Free(instanceSize)
		return NilValue(), err
	}
	ins := &Instance{cls: cls, ivar: ivar}
	ins.refCount = 1
	ins.size = instanceSize
	return Value{tt: TypeInstance, ref: ins}, nil
}

// destroy releases the variable store (which releases every contained
// value) before freeing the instance block.
func (ins *Instance) destroy(vm *VM) {
	ins.ivar.Destroy(vm)
	vm.Allocator.Free(ins.size)
}

// ClassOf returns the instance's class.
func (ins *Instance) ClassOf() *Class { return ins.cls }

// SetIV stores an instance variable, retaining v per the store
// discipline.
func (ins *Instance) SetIV(vm *VM, key SymID, v Value) {
	ins.ivar.Set(vm, key, v)
}

// GetIV reads an instance variable. The returned value is retained on
// behalf of the caller; missing keys read as nil.
func (ins *Instance) GetIV(vm *VM, key SymID) Value {
	v, ok := ins.ivar.Get(key)
	if !ok {
		return NilValue()
	}
	vm.Retain(v)
	return v
}

// IVLen returns the number of stored instance variables.
func (ins *Instance) IVLen() int { return ins.ivar.Len() }

// EachIV visits instance variables in insertion order.
func (ins *Instance) EachIV(fn func(key SymID, v Value)) {
	ins.ivar.Each(fn)
}
