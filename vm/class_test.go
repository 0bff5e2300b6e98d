package vm

import "testing"

// ---------------------------------------------------------------------------
// Class definition tests
// ---------------------------------------------------------------------------

func TestDefineClass(t *testing.T) {
	machine := NewVM()

	cls, err := machine.DefineClass("Widget", nil)
	if err != nil {
		t.Fatalf("DefineClass: %v", err)
	}
	if cls.Name != "Widget" {
		t.Errorf("Name = %q, want %q", cls.Name, "Widget")
	}
	if cls.Super != machine.ObjectClass {
		t.Error("nil superclass should default to Object")
	}
	if machine.GetClassByName("Widget") != cls {
		t.Error("GetClassByName should find the new class")
	}
}

func TestDefineClassIdempotent(t *testing.T) {
	machine := NewVM()

	first, err := machine.DefineClass("Widget", nil)
	if err != nil {
		t.Fatalf("DefineClass: %v", err)
	}
	second, err := machine.DefineClass("Widget", nil)
	if err != nil {
		t.Fatalf("redefinition: %v", err)
	}
	if first != second {
		t.Error("redefinition should return the existing class")
	}
}

func TestDefineClassCollision(t *testing.T) {
	machine := NewVM()

	sym := machine.Symbols.Intern("NotAClass")
	machine.SetConst(sym, IntValue(1))

	if _, err := machine.DefineClass("NotAClass", nil); err == nil {
		t.Error("defining a class over a non-class binding should fail")
	}
}

func TestObjectChainTerminates(t *testing.T) {
	machine := NewVM()

	if machine.ObjectClass.Super != nil {
		t.Error("Object should have no superclass")
	}
	n := 0
	for c := machine.RuntimeErrorClass; c != nil; c = c.Super {
		n++
		if n > 10 {
			t.Fatal("superclass chain does not terminate")
		}
	}
}

// ---------------------------------------------------------------------------
// Method resolution tests
// ---------------------------------------------------------------------------

func TestResolveMethodWalksChain(t *testing.T) {
	machine := NewVM()

	base, _ := machine.DefineClass("Base", nil)
	derived, _ := machine.DefineClass("Derived", base)

	machine.DefineMethod(base, "speak", func(vm *VM, regs []Value, argc int) {
		vm.SetIntReturn(regs, 1)
	})

	sym := machine.Symbols.Intern("speak")
	m, owner := ResolveMethod(derived, sym)
	if m == nil {
		t.Fatal("method should resolve through the superclass")
	}
	if owner != base {
		t.Errorf("owner = %v, want Base", owner.Name)
	}
}

func TestResolveMethodMiss(t *testing.T) {
	machine := NewVM()
	cls, _ := machine.DefineClass("Empty", nil)
	m, owner := ResolveMethod(cls, machine.Symbols.Intern("no_such"))
	if m != nil || owner != nil {
		t.Error("unresolvable selector should yield (nil, nil)")
	}
}

func TestRedefinitionShadows(t *testing.T) {
	machine := NewVM()
	cls, _ := machine.DefineClass("Shadowed", nil)

	var hit string
	machine.DefineMethod(cls, "who", func(vm *VM, regs []Value, argc int) {
		hit = "old"
		vm.SetNilReturn(regs)
	})
	machine.DefineMethod(cls, "who", func(vm *VM, regs []Value, argc int) {
		hit = "new"
		vm.SetNilReturn(regs)
	})

	sym := machine.Symbols.Intern("who")
	m, _ := ResolveMethod(cls, sym)
	if m == nil {
		t.Fatal("selector should resolve")
	}
	m.fn(machine, machine.regfile[4:], 0)
	if hit != "new" {
		t.Errorf("resolved body = %q, want the newest definition", hit)
	}
}

func TestSubclassOverrideWinsOverInherited(t *testing.T) {
	machine := NewVM()
	base, _ := machine.DefineClass("Animal", nil)
	derived, _ := machine.DefineClass("Dog", base)

	machine.DefineMethod(base, "noise", func(vm *VM, regs []Value, argc int) {})
	machine.DefineMethod(derived, "noise", func(vm *VM, regs []Value, argc int) {})

	_, owner := ResolveMethod(derived, machine.Symbols.Intern("noise"))
	if owner != derived {
		t.Errorf("owner = %q, want Dog", owner.Name)
	}
}

// ---------------------------------------------------------------------------
// ClassOf / KindOf tests
// ---------------------------------------------------------------------------

func TestClassOf(t *testing.T) {
	machine := NewVM()

	tests := []struct {
		v    Value
		want *Class
	}{
		{NilValue(), machine.NilClass},
		{TrueValue(), machine.TrueClass},
		{FalseValue(), machine.FalseClass},
		{IntValue(3), machine.IntegerClass},
		{FloatValue(3.5), machine.FloatClass},
		{SymbolValue(0), machine.SymbolClass},
		{ClassValue(machine.ObjectClass), machine.ObjectClass},
	}
	for _, tt := range tests {
		if got := machine.ClassOf(tt.v); got != tt.want {
			t.Errorf("ClassOf(%v) = %q, want %q", tt.v.Type(), got.Name, tt.want.Name)
		}
	}
}

func TestKindOf(t *testing.T) {
	machine := NewVM()

	base, _ := machine.DefineClass("Vehicle", nil)
	derived, _ := machine.DefineClass("Car", base)

	obj, err := machine.NewInstance(derived)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	if !machine.KindOf(obj, derived) {
		t.Error("instance should be kind of its own class")
	}
	if !machine.KindOf(obj, base) {
		t.Error("instance should be kind of its superclass")
	}
	if !machine.KindOf(obj, machine.ObjectClass) {
		t.Error("instance should be kind of Object")
	}
	if machine.KindOf(obj, machine.ProcClass) {
		t.Error("instance should not be kind of an unrelated class")
	}
	machine.Release(&obj)
}

func TestConstRegistry(t *testing.T) {
	machine := NewVM()

	sym := machine.Symbols.Intern("ANSWER")
	machine.SetConst(sym, IntValue(42))
	v, ok := machine.GetConst(sym)
	if !ok || v.Int() != 42 {
		t.Errorf("GetConst = %v %v, want 42 true", v, ok)
	}

	machine.SetConst(sym, IntValue(43))
	v, _ = machine.GetConst(sym)
	if v.Int() != 43 {
		t.Errorf("overwritten const = %d, want 43", v.Int())
	}
}
