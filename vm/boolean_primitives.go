package vm

func (vm *VM) registerBooleanPrimitives() {
	vm.DefineMethod(vm.TrueClass, "to_s", boolToS)
	vm.DefineMethod(vm.TrueClass, "inspect", boolToS)
	vm.DefineMethod(vm.FalseClass, "to_s", boolToS)
	vm.DefineMethod(vm.FalseClass, "inspect", boolToS)
}

func boolToS(vm *VM, v []Value, argc int) {
	text := "false"
	if v[0].Type() == TypeTrue {
		text = "true"
	}
	s, err := vm.NewString(text)
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}
