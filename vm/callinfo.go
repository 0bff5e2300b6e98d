package vm

// CallInfo records what a caller needs to resume after a nested
// bytecode call returns: the saved body, instruction pointer, register
// window base and target class, plus a link to the previous frame. The
// caller chain is a stack allocated as a list, since frames vary in
// size and escaped Procs may capture them.
type CallInfo struct {
	prev        *CallInfo
	irep        *IRep
	pc          int
	regBase     int
	targetClass *Class
	methodSym   SymID
	nArgs       int

	// BlockGiven is set at dispatch time when a block argument
	// followed the positional arguments. block_given? reads this flag
	// instead of recomputing the register layout.
	blockGiven bool
}

// MethodSym returns the selector this frame was entered with.
func (ci *CallInfo) MethodSym() SymID { return ci.methodSym }

// pushCallInfo saves the current interpreter state on the caller chain.
// Returns nil on allocation failure.
func (vm *VM) pushCallInfo(methodSym SymID, nArgs int, blockGiven bool) *CallInfo {
	if err := vm.Allocator.Alloc(callinfoSize); err != nil {
		return nil
	}
	ci := &CallInfo{
		prev:        vm.callinfoTail,
		irep:        vm.pcIrep,
		pc:          vm.pc,
		regBase:     vm.regBase,
		targetClass: vm.targetClass,
		methodSym:   methodSym,
		nArgs:       nArgs,
		blockGiven:  blockGiven,
	}
	vm.callinfoTail = ci
	return ci
}

// popCallInfo restores the saved caller state and unlinks the frame.
func (vm *VM) popCallInfo() {
	ci := vm.callinfoTail
	if ci == nil {
		return
	}
	vm.callinfoTail = ci.prev
	vm.pcIrep = ci.irep
	vm.pc = ci.pc
	vm.regBase = ci.regBase
	vm.targetClass = ci.targetClass
	vm.Allocator.Free(callinfoSize)
}
