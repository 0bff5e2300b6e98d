package vm

import "testing"

// ---------------------------------------------------------------------------
// Reference counting tests
// ---------------------------------------------------------------------------

func TestRetainRelease(t *testing.T) {
	machine := NewVM()

	s, err := machine.NewString("counted")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	machine.Retain(s)
	if s.RefCount() != 2 {
		t.Errorf("RefCount after retain = %d, want 2", s.RefCount())
	}

	alias := s
	machine.Release(&alias)
	if s.RefCount() != 1 {
		t.Errorf("RefCount after release = %d, want 1", s.RefCount())
	}
	if !alias.IsEmpty() {
		t.Error("released slot should be marked Empty")
	}
	machine.Release(&s)
}

func TestReleaseOfEmptySlotIsHarmless(t *testing.T) {
	machine := NewVM()

	s, _ := machine.NewString("once")
	machine.Release(&s)
	// The slot is Empty now; a second release must not double-free.
	machine.Release(&s)
}

func TestStoreValueSelfAssignment(t *testing.T) {
	machine := NewVM()

	s, _ := machine.NewString("self")
	slot := s
	machine.StoreValue(&slot, slot)
	if slot.RefCount() != 1 {
		t.Errorf("RefCount after self-store = %d, want 1", slot.RefCount())
	}
	machine.Release(&slot)
}

func TestStoreValueReleasesOverwritten(t *testing.T) {
	machine := NewVM()
	base := machine.Allocator.Stats().Live

	a, _ := machine.NewString("first")
	var slot Value = NilValue()
	machine.StoreValue(&slot, a)
	machine.release(a) // constructor's reference; slot now sole owner

	b, _ := machine.NewString("second")
	machine.StoreValue(&slot, b)
	machine.release(b)

	machine.Release(&slot)
	if live := machine.Allocator.Stats().Live; live != base {
		t.Errorf("Live = %d after churn, want baseline %d", live, base)
	}
}

func TestDestroyReleasesContainedValues(t *testing.T) {
	machine := NewVM()
	base := machine.Allocator.Stats().Live

	cls, _ := machine.DefineClass("Holder", nil)
	clsCost := machine.Allocator.Stats().Live - base

	obj, err := machine.NewInstance(cls)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	s, _ := machine.NewString("held")
	obj.Instance().SetIV(machine, machine.Symbols.Intern("v"), s)
	machine.Release(&s)

	machine.Release(&obj)
	if live := machine.Allocator.Stats().Live; live != base+clsCost {
		t.Errorf("Live = %d after instance destroy, want %d", live, base+clsCost)
	}
}

func TestAllocatorChurnReturnsToBaseline(t *testing.T) {
	machine := NewVM()
	base := machine.Allocator.Stats().Live

	for i := 0; i < 100; i++ {
		s, err := machine.NewString("churn")
		if err != nil {
			t.Fatalf("NewString: %v", err)
		}
		av, err := machine.NewArray(4)
		if err != nil {
			t.Fatalf("NewArray: %v", err)
		}
		av.Array().Push(machine, s)
		av.Array().Push(machine, IntValue(int64(i)))
		machine.Release(&s)
		machine.Release(&av)
	}

	if live := machine.Allocator.Stats().Live; live != base {
		t.Errorf("Live = %d after churn, want baseline %d", live, base)
	}
}

func TestAllocatorLimit(t *testing.T) {
	a := NewCountingAllocator(100)
	if err := a.Alloc(60); err != nil {
		t.Fatalf("Alloc within limit: %v", err)
	}
	if err := a.Alloc(60); err != ErrOutOfMemory {
		t.Errorf("Alloc past limit = %v, want ErrOutOfMemory", err)
	}
	a.Free(60)
	if err := a.Alloc(60); err != nil {
		t.Errorf("Alloc after free: %v", err)
	}
	stats := a.Stats()
	if stats.Used != 60 || stats.Peak != 60 || stats.Live != 1 {
		t.Errorf("Stats = %+v, want Used 60 Peak 60 Live 1", stats)
	}
}

func TestConstructorFailureUnderLimit(t *testing.T) {
	machine := NewVM()
	// Swap in an exhausted allocator after bootstrap.
	machine.Allocator = NewCountingAllocator(1)
	if _, err := machine.NewString("too big"); err == nil {
		t.Error("NewString under an exhausted allocator should fail")
	}
	if _, err := machine.NewInstance(machine.ObjectClass); err == nil {
		t.Error("NewInstance under an exhausted allocator should fail")
	}
}

// ---------------------------------------------------------------------------
// Key-value store tests
// ---------------------------------------------------------------------------

func TestPairStoreSetGet(t *testing.T) {
	machine := NewVM()
	store, err := NewPairStore(machine)
	if err != nil {
		t.Fatalf("NewPairStore: %v", err)
	}

	k := machine.Symbols.Intern("x")
	store.Set(machine, k, IntValue(10))
	v, ok := store.Get(k)
	if !ok || v.Int() != 10 {
		t.Errorf("Get = %v %v, want 10 true", v, ok)
	}

	store.Set(machine, k, IntValue(20))
	v, _ = store.Get(k)
	if v.Int() != 20 {
		t.Errorf("overwritten value = %d, want 20", v.Int())
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
	store.Destroy(machine)
}

func TestPairStoreInsertionOrder(t *testing.T) {
	machine := NewVM()
	store, _ := NewPairStore(machine)

	names := []string{"c", "a", "b"}
	for i, n := range names {
		store.Set(machine, machine.Symbols.Intern(n), IntValue(int64(i)))
	}

	var got []string
	store.Each(func(key SymID, _ Value) {
		got = append(got, machine.Symbols.Name(key))
	})
	for i, n := range names {
		if got[i] != n {
			t.Errorf("entry %d = %q, want %q (insertion order)", i, got[i], n)
		}
	}
	store.Destroy(machine)
}

func TestPairStoreDupIsIndependent(t *testing.T) {
	machine := NewVM()
	store, _ := NewPairStore(machine)
	k := machine.Symbols.Intern("x")
	store.Set(machine, k, IntValue(1))

	dup := store.Dup(machine)
	dup.Set(machine, k, IntValue(2))

	v, _ := store.Get(k)
	if v.Int() != 1 {
		t.Errorf("original mutated through dup: %d, want 1", v.Int())
	}
	store.Destroy(machine)
	dup.Destroy(machine)
}
