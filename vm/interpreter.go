package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// Interpreter loop
// ---------------------------------------------------------------------------

func (vm *VM) fetch() byte {
	b := vm.pcIrep.Code[vm.pc]
	vm.pc++
	return b
}

func (vm *VM) fetch16() uint16 {
	v := binary.BigEndian.Uint16(vm.pcIrep.Code[vm.pc:])
	vm.pc += 2
	return v
}

// runLoop executes instructions until OpStop, task termination, or the
// instruction stream ends. It is invoked once per top-level run and
// once per nested reentrant run.
func (vm *VM) runLoop() {
	for !vm.stop && !vm.halted {
		if vm.pcIrep == nil || vm.pc >= len(vm.pcIrep.Code) {
			return
		}

		op := Opcode(vm.fetch())
		switch op {
		case OpNop:

		case OpMove:
			a, b := int(vm.fetch()), int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], w[b])

		case OpLoadLit:
			a, idx := int(vm.fetch()), int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], vm.pcIrep.Pools[idx])

		case OpLoadInt:
			a := int(vm.fetch())
			imm := int16(vm.fetch16())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], IntValue(int64(imm)))

		case OpLoadSym:
			a, idx := int(vm.fetch()), int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], SymbolValue(vm.pcIrep.Syms[idx]))

		case OpLoadNil:
			a := int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], NilValue())

		case OpLoadT:
			a := int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], TrueValue())

		case OpLoadF:
			a := int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], FalseValue())

		case OpLoadSlf:
			a := int(vm.fetch())
			w := vm.currentRegs()
			vm.StoreValue(&w[a], w[0])

		case OpGetIV:
			a, idx := int(vm.fetch()), int(vm.fetch())
			sym := vm.pcIrep.Syms[idx]
			w := vm.currentRegs()
			var v Value
			if ins := w[0].Instance(); ins != nil {
				v = ins.GetIV(vm, sym) // retained for us
			} else {
				v = NilValue()
			}
			vm.release(w[a])
			w[a] = v

		case OpSetIV:
			a, idx := int(vm.fetch()), int(vm.fetch())
			sym := vm.pcIrep.Syms[idx]
			w := vm.currentRegs()
			if ins := w[0].Instance(); ins != nil {
				ins.SetIV(vm, sym, w[a])
			}

		case OpGetConst:
			a, idx := int(vm.fetch()), int(vm.fetch())
			sym := vm.pcIrep.Syms[idx]
			w := vm.currentRegs()
			v, ok := vm.GetConst(sym)
			if !ok {
				v = NilValue()
			}
			vm.StoreValue(&w[a], v)

		case OpSetConst:
			a, idx := int(vm.fetch()), int(vm.fetch())
			sym := vm.pcIrep.Syms[idx]
			w := vm.currentRegs()
			vm.SetConst(sym, w[a])

		case OpSend:
			a, idx, argc := int(vm.fetch()), int(vm.fetch()), int(vm.fetch())
			vm.opSend(a, vm.pcIrep.Syms[idx], argc)

		case OpJmp:
			vm.pc = int(vm.fetch16())

		case OpJmpIf:
			a := int(vm.fetch())
			target := int(vm.fetch16())
			if vm.currentRegs()[a].IsTruthy() {
				vm.pc = target
			}

		case OpJmpNot:
			a := int(vm.fetch())
			target := int(vm.fetch16())
			if !vm.currentRegs()[a].IsTruthy() {
				vm.pc = target
			}

		case OpOnErr:
			kind := HandlerKind(vm.fetch())
			target := int(vm.fetch16())
			vm.pushHandler(kind, target)

		case OpPopErr:
			n := int(vm.fetch())
			for i := 0; i < n; i++ {
				vm.popHandler()
			}

		case OpReturn:
			a := int(vm.fetch())
			if vm.exc != nil {
				// Returning out of an ensure body while an exception
				// is in flight: resume unwinding instead.
				vm.unwind()
				continue
			}
			vm.opReturn(a)

		case OpStop:
			vm.stop = true

		default:
			log.Errorf("task %s: unknown opcode 0x%02x", vm.ID, byte(op))
			vm.stop = true
		}
	}
}

// opReturn moves the result into the window's slot 0 (the caller's
// receiver slot), clears the callee's registers and restores the
// caller frame.
func (vm *VM) opReturn(a int) {
	w := vm.currentRegs()
	if a != 0 {
		ret := w[a]
		vm.release(w[0])
		w[0] = ret
		ClearSlot(&w[a])
	}

	if n := vm.pcIrep.NRegs; n > 0 {
		for i := 1; i < n && i < len(w); i++ {
			vm.Release(&w[i])
		}
	}

	if vm.callinfoTail == nil {
		vm.stop = true
		return
	}
	vm.popCallInfo()
}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// opSend resolves and invokes the method sym on the receiver in
// R[a]. Native methods run synchronously against the window starting
// at R[a]; bytecode methods get a new call frame and run when the loop
// resumes.
func (vm *VM) opSend(a int, sym SymID, argc int) {
	window := vm.currentRegs()[a:]
	recv := window[0]
	m, owner := vm.FindMethod(recv, sym)

	if m == nil {
		vm.missingMethod(window, sym, argc)
		return
	}

	if m.cFunc {
		saved := vm.callinfoTail
		vm.calleeSym = sym
		vm.nativeBase = vm.regBase + a
		m.fn(vm, window, argc)
		if vm.unwindPending {
			// A nested run inside the native handed the in-flight
			// exception back to this frame.
			vm.unwindPending = false
			for i := 1; i <= argc+1 && i < len(window); i++ {
				vm.Release(&window[i])
			}
			vm.unwind()
			return
		}
		if vm.callinfoTail != saved || vm.halted {
			// The native entered bytecode (Proc#call, unwinding): the
			// window now belongs to a live frame, leave it alone.
			return
		}
		for i := 1; i <= argc+1 && i < len(window); i++ {
			vm.Release(&window[i])
		}
		return
	}

	blockGiven := argc+1 < len(window) && window[argc+1].Type() == TypeProc
	if vm.pushCallInfo(sym, argc, blockGiven) == nil {
		log.Errorf("task %s: frame allocation failed calling %s", vm.ID, vm.Symbols.Name(sym))
		vm.SetNilReturn(window)
		return
	}
	vm.targetClass = owner
	vm.pcIrep = m.irep
	vm.pc = 0
	vm.regBase += a
}

// missingMethod applies the configured dispatch-miss policy.
func (vm *VM) missingMethod(window []Value, sym SymID, argc int) {
	name := vm.Symbols.Name(sym)

	if vm.MissingMethod == MissingMethodRaise {
		msg, err := vm.NewString("undefined method '" + name + "'")
		if err != nil {
			msg = NilValue()
		}
		vm.RaiseError(vm.NoMethodErrorClass, msg)
		vm.release(msg)
		return
	}

	log.Infof("no method: %s for %s", name, vm.ClassOf(window[0]).Name)
	for i := 1; i <= argc+1 && i < len(window); i++ {
		vm.Release(&window[i])
	}
	vm.SetNilReturn(window)
}
