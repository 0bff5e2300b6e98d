package vm

import (
	"errors"
	"fmt"
)

// ErrTypeCollision indicates an attempt to define a class over a global
// binding that already denotes a non-class value. It is a bootstrap
// logic error, not a recoverable user condition.
var ErrTypeCollision = errors.New("name already bound to a non-class value")

// Class identity is its symbol ID. Each class owns a singly-linked list
// of methods and points at exactly one superclass; the chain is acyclic
// and terminates at Object, whose superclass is explicitly nil.
type Class struct {
	Sym   SymID
	Name  string // debug name, mirrors the symbol
	Super *Class
	procs *Method // newest definition first
}

// classSize is the allocator charge for a class record. Classes are a
// process-lifetime arena: allocated once, never freed.
const classSize = 40

// ---------------------------------------------------------------------------
// Class definition
// ---------------------------------------------------------------------------

// DefineClass returns the class bound to name, creating it if absent.
// A nil superclass defaults to Object. Redefinition is idempotent: an
// existing class binding is returned as-is. A non-class binding under
// the same name fails with ErrTypeCollision.
func (vm *VM) DefineClass(name string, super *Class) (*Class, error) {
	sym := vm.Symbols.Intern(name)

	if bound, ok := vm.GetConst(sym); ok {
		if bound.Type() == TypeClass {
			return bound.Class(), nil
		}
		return nil, fmt.Errorf("defining class %s: %w", name, ErrTypeCollision)
	}

	if err := vm.Allocator.Alloc(classSize); err != nil {
		return nil, err
	}
	cls := &Class{Sym: sym, Name: name}
	if super == nil {
		cls.Super = vm.ObjectClass
	} else {
		cls.Super = super
	}
	vm.SetConst(sym, ClassValue(cls))
	return cls, nil
}

// mustDefineClass is the bootstrap path: class-table initialization
// failure is unrecoverable.
func (vm *VM) mustDefineClass(name string, super *Class) *Class {
	cls, err := vm.DefineClass(name, super)
	if err != nil {
		panic(fmt.Sprintf("vm: bootstrap class %s: %v", name, err))
	}
	return cls
}

// GetClassByName returns the class bound to name, or nil if the name is
// unbound or bound to a non-class value.
func (vm *VM) GetClassByName(name string) *Class {
	sym, ok := vm.Symbols.Lookup(name)
	if !ok {
		return nil
	}
	bound, ok := vm.GetConst(sym)
	if !ok || bound.Type() != TypeClass {
		return nil
	}
	return bound.Class()
}

// ---------------------------------------------------------------------------
// Method definition
// ---------------------------------------------------------------------------

// DefineMethod registers a native method on cls (Object when cls is
// nil). Redefinition shadows rather than replaces: the new record is
// prepended and lookup returns the first match, so the old definition
// becomes unreachable without a removal step.
func (vm *VM) DefineMethod(cls *Class, name string, fn NativeFunc) {
	vm.defineMethod(cls, name, &Method{cFunc: true, fn: fn})
}

// DefineBytecodeMethod registers a compiled body as a method on cls.
func (vm *VM) DefineBytecodeMethod(cls *Class, name string, irep *IRep) {
	vm.defineMethod(cls, name, &Method{irep: irep})
}

func (vm *VM) defineMethod(cls *Class, name string, m *Method) {
	if cls == nil {
		cls = vm.ObjectClass
	}
	m.sym = vm.Symbols.Intern(name)
	m.refCount = 1 // class-list methods live for the process lifetime
	m.next = cls.procs
	cls.procs = m
}

// ---------------------------------------------------------------------------
// Method resolution
// ---------------------------------------------------------------------------

// ResolveMethod walks from cls up the superclass chain, scanning each
// class's method list for sym. Returns the first match and the class
// that owns it (needed for super), or (nil, nil) when the walk reaches
// the end of the chain. Linear search is intentional: classes have few
// methods and there is no memory for per-class hash tables.
func ResolveMethod(cls *Class, sym SymID) (*Method, *Class) {
	for c := cls; c != nil; c = c.Super {
		for m := c.procs; m != nil; m = m.next {
			if m.sym == sym {
				return m, c
			}
		}
	}
	return nil, nil
}

// FindMethod resolves sym against the receiver's class.
func (vm *VM) FindMethod(recv Value, sym SymID) (*Method, *Class) {
	return ResolveMethod(vm.ClassOf(recv), sym)
}

// ClassOf maps a value to its class: the fixed singleton for immediate
// and container kinds, the instance's own (possibly user-defined) class
// for instances, and the class itself for class values.
func (vm *VM) ClassOf(v Value) *Class {
	switch v.Type() {
	case TypeTrue:
		return vm.TrueClass
	case TypeFalse:
		return vm.FalseClass
	case TypeNil:
		return vm.NilClass
	case TypeInt:
		return vm.IntegerClass
	case TypeFloat:
		return vm.FloatClass
	case TypeSymbol:
		return vm.SymbolClass
	case TypeInstance:
		return v.Instance().cls
	case TypeClass:
		return v.Class()
	case TypeProc:
		return vm.ProcClass
	case TypeArray:
		return vm.ArrayClass
	case TypeString:
		return vm.StringClass
	case TypeRange:
		return vm.RangeClass
	case TypeHash:
		return vm.HashClass
	default:
		return vm.ObjectClass
	}
}

// KindOf reports whether v's class chain contains cls.
func (vm *VM) KindOf(v Value, cls *Class) bool {
	for c := vm.ClassOf(v); c != nil; c = c.Super {
		if c == cls {
			return true
		}
	}
	return false
}

// EachMethod visits cls's own method list in lookup order (newest
// definitions first).
func (cls *Class) EachMethod(fn func(m *Method)) {
	for m := cls.procs; m != nil; m = m.next {
		fn(m)
	}
}

// ---------------------------------------------------------------------------
// Global constant registry
// ---------------------------------------------------------------------------

// GetConst returns the global binding for sym.
func (vm *VM) GetConst(sym SymID) (Value, bool) {
	v, ok := vm.consts[sym]
	return v, ok
}

// SetConst binds sym globally, retaining the stored value.
func (vm *VM) SetConst(sym SymID, v Value) {
	if old, ok := vm.consts[sym]; ok {
		vm.Retain(v)
		vm.consts[sym] = v
		vm.release(old)
		return
	}
	vm.Retain(v)
	vm.consts[sym] = v
}
