package vm

// NativeFunc is the registration ABI every built-in and every
// embedder-supplied native method conforms to: it receives the VM, the
// argument window (regs[0] = receiver, regs[1..argc] = arguments) and
// the argument count, and writes its result into regs[0].
type NativeFunc func(vm *VM, regs []Value, argc int)

// Method is a callable: either a native function pointer or a compiled
// bytecode body. A Method on a class's dispatch list lives for the
// process lifetime and is never counted; the same record escaping as a
// first-class Proc value carries its own reference count.
type Method struct {
	refHeader
	sym   SymID
	next  *Method // dispatch-list link; the owning class owns the list
	cFunc bool

	fn   NativeFunc // native body, when cFunc
	irep *IRep      // bytecode body, when !cFunc

	// Captured call context for escaped Procs: the defining frame and
	// the frame of the enclosing self. Used for closures and
	// block_given?.
	callinfo     *CallInfo
	callinfoSelf *CallInfo
}

// Sym returns the method's selector symbol (or 0 for anonymous Procs).
func (m *Method) Sym() SymID { return m.sym }

// IsNative reports whether the method is a native function.
func (m *Method) IsNative() bool { return m.cFunc }

// IRep returns the compiled body for bytecode methods, nil for natives.
func (m *Method) IRep() *IRep { return m.irep }

// destroy frees an escaped Proc's block. Class-list methods never reach
// a zero count, so only Proc values arrive here.
func (m *Method) destroy(vm *VM) {
	vm.Allocator.Free(m.size)
}

// ---------------------------------------------------------------------------
// Proc values
// ---------------------------------------------------------------------------

// NewProc wraps a compiled body as a first-class Proc value, capturing
// the current call frame and the frame of the enclosing self. Returns
// nil value on allocation failure.
func (vm *VM) NewProc(irep *IRep) (Value, error) {
	if err := vm.Allocator.Alloc(procSize); err != nil {
		return NilValue(), err
	}
	p := &Method{
		sym:      0,
		cFunc:    false,
		irep:     irep,
		callinfo: vm.callinfoTail,
	}
	p.refCount = 1
	p.size = procSize

	// A block defined inside a block shares the outer block's self.
	if self := vm.currentRegs()[0]; self.Type() == TypeProc {
		p.callinfoSelf = self.Proc().callinfoSelf
	} else {
		p.callinfoSelf = vm.callinfoTail
	}
	return Value{tt: TypeProc, ref: p}, nil
}
