package vm

import "fmt"

func (vm *VM) registerProcPrimitives() {
	vm.DefineMethod(vm.ProcClass, "new", procNew)
	vm.DefineMethod(vm.ProcClass, "call", procCall)
	vm.DefineMethod(vm.ProcClass, "to_s", procToS)
	vm.DefineMethod(vm.ProcClass, "inspect", procToS)
}

// procNew promotes the block argument to the return value. The block
// was built by the caller; Proc.new only hands it back as a value.
func procNew(vm *VM, v []Value, argc int) {
	if v[1].Type() != TypeProc {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, v[1])
	ClearSlot(&v[1])
}

// procCall pushes a call frame and rewires execution into the block's
// body. The native dispatch path sees the frame chain grow and leaves
// the window to the new frame, so the call arguments stay live as the
// block's registers.
func procCall(vm *VM, v []Value, argc int) {
	p := v[0].Proc()
	if p == nil || p.cFunc || p.irep == nil {
		vm.SetNilReturn(v)
		return
	}
	if vm.pushCallInfo(vm.calleeSym, argc, false) == nil {
		vm.SetNilReturn(v)
		return
	}
	vm.pcIrep = p.irep
	vm.pc = 0
	vm.regBase = vm.nativeBase
}

func procToS(vm *VM, v []Value, argc int) {
	s, err := vm.NewString(fmt.Sprintf("#<Proc:%p>", v[0].Proc()))
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}
