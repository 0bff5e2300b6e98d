package vm

// Range is a reference-counted pair of endpoint values with an
// exclusive-end flag.
type Range struct {
	refHeader
	first      Value
	last       Value
	excludeEnd bool
}

// NewRange allocates a range value, retaining both endpoints.
func (vm *VM) NewRange(first, last Value, excludeEnd bool) (Value, error) {
	if err := vm.Allocator.Alloc(rangeSize); err != nil {
		return NilValue(), err
	}
	r := &Range{first: first, last: last, excludeEnd: excludeEnd}
	r.refCount = 1
	r.size = rangeSize
	vm.Retain(first)
	vm.Retain(last)
	return Value{tt: TypeRange, ref: r}, nil
}

func (r *Range) destroy(vm *VM) {
	vm.release(r.first)
	vm.release(r.last)
	vm.Allocator.Free(r.size)
}

// First returns the start endpoint without transferring ownership.
func (r *Range) First() Value { return r.first }

// Last returns the end endpoint without transferring ownership.
func (r *Range) Last() Value { return r.last }

// ExcludeEnd reports whether the range excludes its end (a...b).
func (r *Range) ExcludeEnd() bool { return r.excludeEnd }
