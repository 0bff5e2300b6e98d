package vm

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("picorb.vm")

// ErrUncaughtException is returned by Run when an exception propagates
// past the last handler. It terminates the owning task only; the VM
// instance and its siblings stay intact.
var ErrUncaughtException = errors.New("uncaught exception")

// MissingMethodPolicy selects what a dispatch miss does.
type MissingMethodPolicy int

const (
	// MissingMethodLog logs the miss and returns nil, the behavior of
	// runtimes predating full exception support.
	MissingMethodLog MissingMethodPolicy = iota
	// MissingMethodRaise raises a catchable NoMethodError.
	MissingMethodRaise
)

// maxRegs is the size of the register file. Frames carve windows out
// of it; the file itself is allocated once.
const maxRegs = 256

// ---------------------------------------------------------------------------
// VM
// ---------------------------------------------------------------------------

// VM is a single task's interpreter state. One logical thread of
// control per instance: an external scheduler may interleave instances
// but never runs two simultaneously, so no field here is locked.
type VM struct {
	// ID identifies this VM instance to snapshots and logs.
	ID string

	Symbols   *SymbolTable
	Allocator Allocator
	Console   Console

	// MissingMethod selects the dispatch-miss behavior.
	MissingMethod MissingMethodPolicy

	consts map[SymID]Value

	// Well-known classes, bound during bootstrap.
	ObjectClass  *Class
	ProcClass    *Class
	NilClass     *Class
	TrueClass    *Class
	FalseClass   *Class
	IntegerClass *Class
	FloatClass   *Class
	SymbolClass  *Class
	ArrayClass   *Class
	StringClass  *Class
	RangeClass   *Class
	HashClass    *Class

	// Exception hierarchy.
	ExceptionClass     *Class
	StandardErrorClass *Class
	RuntimeErrorClass  *Class
	NoMethodErrorClass *Class
	TypeErrorClass     *Class

	// Interpreter state. regBase is the current window's offset into
	// the register file; callinfoTail and handlerTail are the two
	// disjoint frame chains.
	regfile     []Value
	regBase     int
	pcIrep      *IRep
	pc          int
	targetClass *Class

	callinfoTail *CallInfo
	handlerTail  *HandlerFrame

	// In-flight exception state.
	exc               *Class
	excMessage        Value
	excPending        *Class
	excPendingMessage Value
	lastException     *Class
	lastExcMessage    Value

	// Per-native-call scratch: the selector being invoked and the
	// absolute base of the native's window.
	calleeSym  SymID
	nativeBase int

	// Nested-run bookkeeping. Unwinding never crosses the handler
	// boundary captured when the innermost nested run began; it sets
	// unwindPending and hands the in-flight exception back to the
	// enclosing loop.
	nestDepth     int
	nestBarrier   *HandlerFrame
	unwindPending bool

	stop   bool // current run loop should end (OpStop)
	halted bool // task terminated by an uncaught exception

	// Pre-interned selectors.
	symInitialize SymID

	// Cached well-known symbols for the snapshot/content layer.
	contentHashes map[*IRep][32]byte

	// Lazily assigned identities for reference values (object_id).
	objectIDs    map[Ref]int64
	nextObjectID int64
}

// NewVM creates and bootstraps a VM with an unlimited allocator and a
// stdout console.
func NewVM() *VM {
	return NewVMWith(NewCountingAllocator(0), NewStdoutConsole())
}

// NewVMWith creates and bootstraps a VM over the given collaborators.
func NewVMWith(alloc Allocator, console Console) *VM {
	vm := &VM{
		ID:            uuid.New().String(),
		Symbols:       NewSymbolTable(),
		Allocator:     alloc,
		Console:       console,
		consts:        make(map[SymID]Value),
		regfile:       make([]Value, maxRegs),
		contentHashes: make(map[*IRep][32]byte),
		objectIDs:     make(map[Ref]int64),
	}
	for i := range vm.regfile {
		vm.regfile[i] = NilValue()
	}
	vm.bootstrap()
	return vm
}

func (vm *VM) bootstrap() {
	// Object first; its superclass must be explicitly cleared, or a
	// repeated bootstrap would link it to itself.
	vm.ObjectClass = vm.mustDefineClass("Object", nil)
	vm.ObjectClass.Super = nil

	vm.NilClass = vm.mustDefineClass("NilClass", vm.ObjectClass)
	vm.ProcClass = vm.mustDefineClass("Proc", vm.ObjectClass)
	vm.FalseClass = vm.mustDefineClass("FalseClass", vm.ObjectClass)
	vm.TrueClass = vm.mustDefineClass("TrueClass", vm.ObjectClass)
	vm.IntegerClass = vm.mustDefineClass("Integer", vm.ObjectClass)
	vm.FloatClass = vm.mustDefineClass("Float", vm.ObjectClass)
	vm.SymbolClass = vm.mustDefineClass("Symbol", vm.ObjectClass)
	vm.ArrayClass = vm.mustDefineClass("Array", vm.ObjectClass)
	vm.StringClass = vm.mustDefineClass("String", vm.ObjectClass)
	vm.RangeClass = vm.mustDefineClass("Range", vm.ObjectClass)
	vm.HashClass = vm.mustDefineClass("Hash", vm.ObjectClass)

	vm.ExceptionClass = vm.mustDefineClass("Exception", vm.ObjectClass)
	vm.StandardErrorClass = vm.mustDefineClass("StandardError", vm.ExceptionClass)
	vm.RuntimeErrorClass = vm.mustDefineClass("RuntimeError", vm.StandardErrorClass)
	vm.NoMethodErrorClass = vm.mustDefineClass("NoMethodError", vm.StandardErrorClass)
	vm.TypeErrorClass = vm.mustDefineClass("TypeError", vm.StandardErrorClass)

	vm.symInitialize = vm.Symbols.Intern("initialize")

	vm.registerObjectPrimitives()
	vm.registerNilPrimitives()
	vm.registerBooleanPrimitives()
	vm.registerProcPrimitives()

	vm.targetClass = vm.ObjectClass
}

// currentRegs returns the active register window.
func (vm *VM) currentRegs() []Value {
	return vm.regfile[vm.regBase:]
}

// CalleeSym returns the selector of the native method currently being
// invoked. The generated ivar accessors recover their variable name
// from it.
func (vm *VM) CalleeSym() SymID { return vm.calleeSym }

// CalleeName returns the callee selector's name.
func (vm *VM) CalleeName() string { return vm.Symbols.Name(vm.calleeSym) }

// Halted reports whether an uncaught exception terminated this task.
func (vm *VM) Halted() bool { return vm.halted }

// PendingException returns the exception that escaped the last run, if
// any, together with its message payload.
func (vm *VM) PendingException() (*Class, Value) {
	return vm.excPending, vm.excPendingMessage
}

// LastException returns the most recently rescued exception class and
// message. Cleared state means no exception has been rescued yet.
func (vm *VM) LastException() (*Class, Value) {
	return vm.lastException, vm.lastExcMessage
}

// ---------------------------------------------------------------------------
// Native return conventions
// ---------------------------------------------------------------------------

// SetReturn writes a native method's result into window slot 0,
// releasing the receiver that occupied it. The stored value's count
// transfers to the window; natives returning a value that is still
// owned elsewhere must Retain it first.
func (vm *VM) SetReturn(regs []Value, v Value) {
	vm.release(regs[0])
	regs[0] = v
}

// SetNilReturn stores nil into window slot 0.
func (vm *VM) SetNilReturn(regs []Value) { vm.SetReturn(regs, NilValue()) }

// SetBoolReturn stores a boolean into window slot 0.
func (vm *VM) SetBoolReturn(regs []Value, b bool) { vm.SetReturn(regs, BoolValue(b)) }

// SetIntReturn stores an integer into window slot 0.
func (vm *VM) SetIntReturn(regs []Value, n int64) { vm.SetReturn(regs, IntValue(n)) }

// ---------------------------------------------------------------------------
// Dispatch: synchronous native calls
// ---------------------------------------------------------------------------

// Send calls a native method of recv from inside another native method.
// regs must be a window of the register file and regOfs the first
// scratch register after the caller's live slots; the callee window is
// built there: receiver, arguments, trailing nil sentinel. The result
// is slot 0 of that window; the window is cleared to the Empty marker
// before returning so transferred values are not released twice.
//
// Only native targets are supported here; bytecode targets must go
// through Funcall so the interpreter loop owns the frame. A native
// that stages a compiled frame instead of finishing synchronously
// (Proc#call) is rejected the same way: the frame is dropped and the
// send answers nil.
func (vm *VM) Send(regs []Value, regOfs int, recv Value, method string, args ...Value) Value {
	sym := vm.Symbols.Intern(method)
	m, _ := vm.FindMethod(recv, sym)
	if m == nil {
		log.Infof("no method: %s for %s", method, vm.ClassOf(recv).Name)
		return NilValue()
	}
	if !m.cFunc {
		log.Infof("method %s is not native", method)
		return NilValue()
	}

	window := regs[regOfs+2:]
	vm.release(window[0])
	window[0] = recv
	vm.Retain(recv)

	i := 1
	for ; i <= len(args); i++ {
		vm.release(window[i])
		window[i] = args[i-1]
		vm.Retain(args[i-1])
	}
	vm.release(window[i])
	window[i] = NilValue()

	savedSym := vm.calleeSym
	savedBase := vm.nativeBase
	savedCallinfo := vm.callinfoTail
	vm.calleeSym = sym
	// The window is a reslice of the register file, so its capacity
	// recovers the absolute base a reentrant native needs.
	vm.nativeBase = len(vm.regfile) - cap(window)
	m.fn(vm, window, len(args))
	vm.calleeSym = savedSym
	vm.nativeBase = savedBase

	if vm.unwindPending {
		// A nested run inside the native suspended unwinding at this
		// boundary; resume it and give the window up to the handler.
		vm.unwindPending = false
		for j := 0; j <= i; j++ {
			vm.Release(&window[j])
		}
		vm.unwind()
		return NilValue()
	}
	if vm.callinfoTail != savedCallinfo {
		log.Infof("method %s staged a compiled frame; not callable synchronously", method)
		for vm.callinfoTail != savedCallinfo {
			vm.popCallInfo()
		}
		for j := 0; j <= i; j++ {
			vm.Release(&window[j])
		}
		return NilValue()
	}

	ret := window[0]
	for j := 1; j <= i; j++ {
		vm.Release(&window[j])
	}
	ClearSlot(&window[0])
	return ret
}

// Funcall dispatches a compiled method without running it. The
// receiver must be staged in the current window's slot a with argc
// arguments after it, exactly the OpSend layout; a call frame is
// pushed and the instruction pointer rewired to the method body, so
// the staged receiver becomes the callee's self. Execution resumes on
// the next interpreter step. Native targets go through Send instead.
func (vm *VM) Funcall(name string, a, argc int) error {
	sym := vm.Symbols.Intern(name)
	window := vm.currentRegs()[a:]
	m, owner := vm.FindMethod(window[0], sym)
	if m == nil {
		return fmt.Errorf("funcall %s: no method", name)
	}
	if m.cFunc {
		return fmt.Errorf("funcall %s: native target", name)
	}

	blockGiven := argc+1 < len(window) && window[argc+1].Type() == TypeProc
	if vm.pushCallInfo(sym, argc, blockGiven) == nil {
		return ErrOutOfMemory
	}
	vm.targetClass = owner
	vm.pcIrep = m.irep
	vm.pc = 0
	vm.regBase += a
	return nil
}

// ---------------------------------------------------------------------------
// Reentrant nested runs
// ---------------------------------------------------------------------------

// savedContext bundles the interpreter state a nested run clobbers.
type savedContext struct {
	irep    *IRep
	pc      int
	regBase int
}

// RunNested runs a compiled body to completion inside a native method:
// the context triple is saved, the loop runs until OpStop, the triple
// is restored. A nested run is a synchronous recursive invocation of
// the same loop, not a coroutine. Unwinding stops at this boundary:
// when an exception must reach a handler registered outside the nested
// body, the loop ends with the exception still in flight and the
// enclosing loop resumes the unwinding.
func (vm *VM) RunNested(irep *IRep, regBase int) {
	saved := savedContext{irep: vm.pcIrep, pc: vm.pc, regBase: vm.regBase}
	savedBarrier := vm.nestBarrier
	savedCallinfo := vm.callinfoTail
	vm.nestBarrier = vm.handlerTail
	vm.nestDepth++

	vm.pcIrep = irep
	vm.pc = 0
	vm.regBase = regBase

	vm.runLoop()
	vm.stop = false

	vm.nestDepth--
	vm.nestBarrier = savedBarrier
	if vm.exc != nil {
		// The run was abandoned mid-unwind; its frames are dead.
		for vm.callinfoTail != nil && vm.callinfoTail != savedCallinfo {
			vm.popCallInfo()
		}
	}

	vm.pcIrep = saved.irep
	vm.pc = saved.pc
	vm.regBase = saved.regBase
}

// ---------------------------------------------------------------------------
// Top-level entry
// ---------------------------------------------------------------------------

// Run executes a compiled body as this task's program. It returns
// ErrUncaughtException when an exception escapes every handler; the
// task is then terminated but the VM instance remains inspectable.
func (vm *VM) Run(irep *IRep) error {
	if vm.halted {
		return ErrUncaughtException
	}
	vm.pcIrep = irep
	vm.pc = 0
	vm.regBase = 0
	vm.targetClass = vm.ObjectClass

	vm.runLoop()
	vm.stop = false

	if vm.halted {
		log.Errorf("task %s terminated: uncaught %s", vm.ID, vm.excPending.Name)
		return ErrUncaughtException
	}
	return nil
}
