package vm

// ---------------------------------------------------------------------------
// Exception handlers and unwinding
// ---------------------------------------------------------------------------

// HandlerKind distinguishes the two handler flavors a protected region
// can register.
type HandlerKind byte

const (
	// HandlerRescue catches a matching exception and resumes normal
	// execution at its target.
	HandlerRescue HandlerKind = iota
	// HandlerEnsure runs its target on the way out whether or not an
	// exception is in flight.
	HandlerEnsure
)

// HandlerFrame records where to resume when the protected region it
// guards raises. Frames form a stack threaded through prev, innermost
// first.
type HandlerFrame struct {
	kind        HandlerKind
	irep        *IRep
	target      int // pc of the rescue or ensure body
	regBase     int
	targetClass *Class
	callinfo    *CallInfo // frame depth at registration time
	prev        *HandlerFrame
}

func (vm *VM) pushHandler(kind HandlerKind, target int) {
	if err := vm.Allocator.Alloc(handlerSize); err != nil {
		log.Errorf("task %s: handler allocation failed: %s", vm.ID, err)
		return
	}
	vm.handlerTail = &HandlerFrame{
		kind:        kind,
		irep:        vm.pcIrep,
		target:      target,
		regBase:     vm.regBase,
		targetClass: vm.targetClass,
		callinfo:    vm.callinfoTail,
		prev:        vm.handlerTail,
	}
}

func (vm *VM) popHandler() *HandlerFrame {
	h := vm.handlerTail
	if h == nil {
		return nil
	}
	vm.handlerTail = h.prev
	vm.Allocator.Free(handlerSize)
	return h
}

// ---------------------------------------------------------------------------
// Raising
// ---------------------------------------------------------------------------

// RaiseError puts an exception in flight and transfers control to the
// innermost handler, or terminates the task when none is registered.
// The message value is retained; the caller keeps its own reference.
func (vm *VM) RaiseError(cls *Class, msg Value) {
	if cls == nil {
		cls = vm.RuntimeErrorClass
	}
	vm.exc = cls
	vm.StoreValue(&vm.excMessage, msg)
	vm.unwind()
}

// unwind transfers control to the innermost handler frame, dropping
// call frames entered after it was registered. With no handler left
// the exception is recorded as pending and the task halts. Inside a
// nested run the search stops at the nesting boundary instead.
func (vm *VM) unwind() {
	if vm.nestDepth > 0 && vm.handlerTail == vm.nestBarrier {
		// Any remaining handler belongs to a frame outside the current
		// nested run. End the nested loop with the exception still in
		// flight; the enclosing loop resumes the unwinding.
		vm.unwindPending = true
		vm.stop = true
		return
	}

	h := vm.popHandler()
	if h == nil {
		vm.excPending = vm.exc
		vm.StoreValue(&vm.excPendingMessage, vm.excMessage)
		vm.clearException()
		vm.halted = true
		return
	}

	for vm.callinfoTail != nil && vm.callinfoTail != h.callinfo {
		vm.popCallInfo()
	}
	vm.pcIrep = h.irep
	vm.pc = h.target
	vm.regBase = h.regBase
	vm.targetClass = h.targetClass

	if h.kind == HandlerRescue {
		vm.lastException = vm.exc
		vm.StoreValue(&vm.lastExcMessage, vm.excMessage)
		vm.clearException()
	}
	// An ensure handler leaves the exception in flight; the ensure
	// body's return resumes unwinding.
}

func (vm *VM) clearException() {
	vm.exc = nil
	vm.Release(&vm.excMessage)
	vm.excMessage = NilValue()
}
