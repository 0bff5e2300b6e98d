package vm

func (vm *VM) registerNilPrimitives() {
	vm.DefineMethod(vm.NilClass, "to_i", nilToI)
	vm.DefineMethod(vm.NilClass, "to_f", nilToF)
	vm.DefineMethod(vm.NilClass, "to_a", nilToA)
	vm.DefineMethod(vm.NilClass, "to_h", nilToH)
	vm.DefineMethod(vm.NilClass, "to_s", nilToS)
	vm.DefineMethod(vm.NilClass, "inspect", nilInspect)
}

func nilToI(vm *VM, v []Value, argc int) {
	vm.SetIntReturn(v, 0)
}

func nilToF(vm *VM, v []Value, argc int) {
	vm.SetReturn(v, FloatValue(0))
}

func nilToA(vm *VM, v []Value, argc int) {
	av, err := vm.NewArray(0)
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, av)
}

func nilToH(vm *VM, v []Value, argc int) {
	hv, err := vm.NewHash(0)
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, hv)
}

func nilToS(vm *VM, v []Value, argc int) {
	s, err := vm.NewString("")
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}

func nilInspect(vm *VM, v []Value, argc int) {
	s, err := vm.NewString("nil")
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}
