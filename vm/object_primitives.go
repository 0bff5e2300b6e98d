package vm

// ---------------------------------------------------------------------------
// Object primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerObjectPrimitives() {
	vm.DefineMethod(vm.ObjectClass, "new", objectNew)
	vm.DefineMethod(vm.ObjectClass, "!", objectNot)
	vm.DefineMethod(vm.ObjectClass, "!=", objectNeq)
	vm.DefineMethod(vm.ObjectClass, "<=>", objectCompare)
	vm.DefineMethod(vm.ObjectClass, "===", objectCaseEq)
	vm.DefineMethod(vm.ObjectClass, "class", objectClass)
	vm.DefineMethod(vm.ObjectClass, "dup", objectDup)
	vm.DefineMethod(vm.ObjectClass, "p", objectP)
	vm.DefineMethod(vm.ObjectClass, "print", objectPrint)
	vm.DefineMethod(vm.ObjectClass, "puts", objectPuts)
	vm.DefineMethod(vm.ObjectClass, "raise", objectRaise)
	vm.DefineMethod(vm.ObjectClass, "attr_reader", objectAttrReader)
	vm.DefineMethod(vm.ObjectClass, "attr_accessor", objectAttrAccessor)
	vm.DefineMethod(vm.ObjectClass, "is_a?", objectKindOf)
	vm.DefineMethod(vm.ObjectClass, "kind_of?", objectKindOf)
	vm.DefineMethod(vm.ObjectClass, "nil?", objectNilQ)
	vm.DefineMethod(vm.ObjectClass, "block_given?", objectBlockGiven)
	vm.DefineMethod(vm.ObjectClass, "to_s", objectToS)
	vm.DefineMethod(vm.ObjectClass, "inspect", objectInspect)
	vm.DefineMethod(vm.ObjectClass, "object_id", objectObjectID)
	vm.DefineMethod(vm.ObjectClass, "instance_methods", objectInstanceMethods)
	vm.DefineMethod(vm.ObjectClass, "instance_variables", objectInstanceVariables)
	vm.DefineMethod(vm.ObjectClass, "memory_statistics", objectMemoryStatistics)
	vm.DefineMethod(vm.ObjectClass, "freeze", Ineffect)
}

// Ineffect is the shared no-op body: it leaves the receiver in place,
// so the method returns self. Embedders may register it for selectors
// their programs call but the target cannot support.
func Ineffect(vm *VM, v []Value, argc int) {}

// objectNew allocates an instance of the receiver class, then runs its
// initialize through a one-shot trampoline body so both native and
// compiled initializers go through normal dispatch. The arguments in
// the caller window are passed through in place.
func objectNew(vm *VM, v []Value, argc int) {
	if v[0].Type() != TypeClass {
		vm.RaiseError(vm.TypeErrorClass, NilValue())
		return
	}
	cls := v[0].Class()

	obj, err := vm.NewInstance(cls)
	if err != nil {
		log.Errorf("task %s: new %s: %s", vm.ID, cls.Name, err)
		vm.SetNilReturn(v)
		return
	}

	if m, _ := ResolveMethod(cls, vm.symInitialize); m == nil {
		vm.SetReturn(v, obj)
		return
	}

	trampoline := &IRep{
		NRegs: argc + 2,
		Code:  []byte{byte(OpSend), 0, 0, byte(argc), byte(OpStop)},
		Syms:  []SymID{vm.symInitialize},
	}

	// The window keeps one reference while initialize runs; the other
	// is ours for the return value.
	vm.release(v[0])
	v[0] = obj
	vm.Retain(obj)

	vm.RunNested(trampoline, vm.nativeBase)
	if vm.exc != nil {
		// initialize raised past the constructor; the handler takes
		// over and the half-built instance goes with the window.
		vm.release(obj)
		return
	}

	// initialize may have replaced the class pointer transiently; the
	// constructed object answers to its own class again.
	obj.Instance().cls = cls
	vm.SetReturn(v, obj)
}

func objectNot(vm *VM, v []Value, argc int) {
	vm.SetBoolReturn(v, !v[0].IsTruthy())
}

func objectNeq(vm *VM, v []Value, argc int) {
	vm.SetBoolReturn(v, Compare(v[0], v[1]) != 0)
}

func objectCompare(vm *VM, v []Value, argc int) {
	vm.SetIntReturn(v, int64(Compare(v[0], v[1])))
}

// objectCaseEq is case/when matching: a class tests kind-of, anything
// else tests equality.
func objectCaseEq(vm *VM, v []Value, argc int) {
	if v[0].Type() == TypeClass {
		vm.SetBoolReturn(v, vm.KindOf(v[1], v[0].Class()))
		return
	}
	vm.SetBoolReturn(v, Compare(v[0], v[1]) == 0)
}

func objectClass(vm *VM, v []Value, argc int) {
	vm.SetReturn(v, ClassValue(vm.ClassOf(v[0])))
}

// objectDup makes a shallow copy. Instances copy their variable store,
// containers copy their elements; Procs and Ranges return themselves,
// immediates are their own copy.
func objectDup(vm *VM, v []Value, argc int) {
	switch v[0].Type() {
	case TypeInstance:
		src := v[0].Instance()
		if err := vm.Allocator.Alloc(instanceSize); err != nil {
			vm.SetNilReturn(v)
			return
		}
		dup := &Instance{cls: src.cls, ivar: src.ivar.Dup(vm)}
		dup.refCount = 1
		dup.size = instanceSize
		vm.SetReturn(v, Value{tt: TypeInstance, ref: dup})
	case TypeString:
		s, err := vm.NewString(v[0].Str().Text())
		if err != nil {
			vm.SetNilReturn(v)
			return
		}
		vm.SetReturn(v, s)
	case TypeArray:
		src := v[0].Array()
		av, err := vm.NewArray(src.Len())
		if err != nil {
			vm.SetNilReturn(v)
			return
		}
		for i := 0; i < src.Len(); i++ {
			av.Array().Push(vm, src.Get(i))
		}
		vm.SetReturn(v, av)
	case TypeHash:
		src := v[0].Hash()
		hv, err := vm.NewHash(src.Len())
		if err != nil {
			vm.SetNilReturn(v)
			return
		}
		src.Each(func(key, val Value) {
			hv.Hash().Set(vm, key, val)
		})
		vm.SetReturn(v, hv)
	default:
		// Procs, Ranges, classes and immediates dup to themselves.
		vm.Retain(v[0])
		vm.SetReturn(v, v[0])
	}
}

func objectP(vm *VM, v []Value, argc int) {
	for i := 1; i <= argc; i++ {
		vm.pSub(v[i])
		vm.Console.Putchar('\n')
	}
	if argc >= 1 {
		vm.Retain(v[1])
		vm.SetReturn(v, v[1])
		return
	}
	vm.SetNilReturn(v)
}

func objectPrint(vm *VM, v []Value, argc int) {
	for i := 1; i <= argc; i++ {
		vm.printSub(v[i])
	}
	vm.SetNilReturn(v)
}

func objectPuts(vm *VM, v []Value, argc int) {
	if argc == 0 {
		vm.Console.Putchar('\n')
	}
	for i := 1; i <= argc; i++ {
		if !vm.putsSub(v[i]) {
			vm.Console.Putchar('\n')
		}
	}
	vm.SetNilReturn(v)
}

// objectRaise accepts the four call shapes: bare, message string,
// exception class, class plus message.
func objectRaise(vm *VM, v []Value, argc int) {
	switch {
	case argc == 0:
		vm.RaiseError(vm.RuntimeErrorClass, NilValue())
	case v[1].Type() == TypeClass:
		msg := NilValue()
		if argc >= 2 {
			msg = v[2]
		}
		vm.RaiseError(v[1].Class(), msg)
	default:
		vm.RaiseError(vm.RuntimeErrorClass, v[1])
	}
}

// ---------------------------------------------------------------------------
// Generated attribute accessors
// ---------------------------------------------------------------------------

// attrTarget picks the class the accessor lands on: the receiver when
// the call site is a class, otherwise the open target class.
func attrTarget(vm *VM, recv Value) *Class {
	if recv.Type() == TypeClass {
		return recv.Class()
	}
	return vm.targetClass
}

func objectAttrReader(vm *VM, v []Value, argc int) {
	cls := attrTarget(vm, v[0])
	for i := 1; i <= argc; i++ {
		if v[i].Type() != TypeSymbol {
			continue
		}
		vm.DefineMethod(cls, vm.Symbols.Name(v[i].Symbol()), objectGetIV)
	}
	vm.SetNilReturn(v)
}

func objectAttrAccessor(vm *VM, v []Value, argc int) {
	cls := attrTarget(vm, v[0])
	for i := 1; i <= argc; i++ {
		if v[i].Type() != TypeSymbol {
			continue
		}
		name := vm.Symbols.Name(v[i].Symbol())
		vm.DefineMethod(cls, name, objectGetIV)
		vm.DefineMethod(cls, name+"=", objectSetIV)
	}
	vm.SetNilReturn(v)
}

// objectGetIV is the shared getter body: the variable name is the
// selector the caller used.
func objectGetIV(vm *VM, v []Value, argc int) {
	ins := v[0].Instance()
	if ins == nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, ins.GetIV(vm, vm.CalleeSym()))
}

// objectSetIV is the shared setter body: the variable name is the
// selector minus its trailing '='.
func objectSetIV(vm *VM, v []Value, argc int) {
	ins := v[0].Instance()
	if ins == nil {
		vm.SetNilReturn(v)
		return
	}
	ins.SetIV(vm, vm.Symbols.AttrSymbol(vm.CalleeSym()), v[1])
	vm.Retain(v[1])
	vm.SetReturn(v, v[1])
}

// ---------------------------------------------------------------------------
// Reflection
// ---------------------------------------------------------------------------

func objectKindOf(vm *VM, v []Value, argc int) {
	if argc < 1 || v[1].Type() != TypeClass {
		vm.SetBoolReturn(v, false)
		return
	}
	vm.SetBoolReturn(v, vm.KindOf(v[0], v[1].Class()))
}

func objectNilQ(vm *VM, v []Value, argc int) {
	vm.SetBoolReturn(v, v[0].IsNil())
}

// objectBlockGiven answers for the calling method's frame; inside a
// block it answers for the frame the block's self belongs to.
func objectBlockGiven(vm *VM, v []Value, argc int) {
	ci := vm.callinfoTail
	if p := v[0].Proc(); p != nil {
		ci = p.callinfoSelf
	}
	vm.SetBoolReturn(v, ci != nil && ci.blockGiven)
}

func objectToS(vm *VM, v []Value, argc int) {
	s, err := vm.NewString(vm.renderPrint(v[0]))
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}

func objectInspect(vm *VM, v []Value, argc int) {
	s, err := vm.NewString(vm.renderInspect(v[0]))
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	vm.SetReturn(v, s)
}

func objectObjectID(vm *VM, v []Value, argc int) {
	vm.SetIntReturn(v, vm.objectID(v[0]))
}

// objectID assigns stable identities: immediates encode themselves,
// reference values get a lazily issued serial number.
func (vm *VM) objectID(v Value) int64 {
	switch v.Type() {
	case TypeNil:
		return 0
	case TypeFalse:
		return 1
	case TypeTrue:
		return 2
	case TypeInt:
		return v.Int()*2 + 1
	case TypeSymbol:
		return int64(v.Symbol())
	case TypeClass:
		return int64(v.Class().Sym)
	}
	if !v.HasRef() {
		return 0
	}
	if id, ok := vm.objectIDs[v.ref]; ok {
		return id
	}
	vm.nextObjectID++
	id := vm.nextObjectID
	vm.objectIDs[v.ref] = id
	return id
}

// objectInstanceMethods lists the receiver class's own selectors,
// newest definitions first. Inherited methods are not included.
func objectInstanceMethods(vm *VM, v []Value, argc int) {
	cls := vm.ClassOf(v[0])
	if v[0].Type() == TypeClass {
		cls = v[0].Class()
	}

	n := 0
	cls.EachMethod(func(*Method) { n++ })
	av, err := vm.NewArray(n)
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	cls.EachMethod(func(m *Method) {
		av.Array().Push(vm, SymbolValue(m.sym))
	})
	vm.SetReturn(v, av)
}

// objectInstanceVariables lists the receiver's variable names with the
// conventional sigil restored.
func objectInstanceVariables(vm *VM, v []Value, argc int) {
	ins := v[0].Instance()
	if ins == nil {
		av, err := vm.NewArray(0)
		if err != nil {
			vm.SetNilReturn(v)
			return
		}
		vm.SetReturn(v, av)
		return
	}

	av, err := vm.NewArray(ins.IVLen())
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	ins.EachIV(func(key SymID, _ Value) {
		sym := vm.Symbols.Intern("@" + vm.Symbols.Name(key))
		av.Array().Push(vm, SymbolValue(sym))
	})
	vm.SetReturn(v, av)
}

// objectMemoryStatistics reports the allocator's counters as a hash.
func objectMemoryStatistics(vm *VM, v []Value, argc int) {
	stats := vm.Allocator.Stats()
	hv, err := vm.NewHash(4)
	if err != nil {
		vm.SetNilReturn(v)
		return
	}
	h := hv.Hash()
	h.Set(vm, SymbolValue(vm.Symbols.Intern("total")), IntValue(int64(stats.Limit)))
	h.Set(vm, SymbolValue(vm.Symbols.Intern("used")), IntValue(int64(stats.Used)))
	h.Set(vm, SymbolValue(vm.Symbols.Intern("peak")), IntValue(int64(stats.Peak)))
	h.Set(vm, SymbolValue(vm.Symbols.Intern("live")), IntValue(int64(stats.Live)))
	vm.SetReturn(v, hv)
}
