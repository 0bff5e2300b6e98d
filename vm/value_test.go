package vm

import (
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// Value representation tests
// ---------------------------------------------------------------------------

func TestImmediateConstructors(t *testing.T) {
	if v := NilValue(); v.Type() != TypeNil || !v.IsNil() {
		t.Errorf("NilValue type = %v, want TypeNil", v.Type())
	}
	if v := TrueValue(); v.Type() != TypeTrue {
		t.Errorf("TrueValue type = %v, want TypeTrue", v.Type())
	}
	if v := FalseValue(); v.Type() != TypeFalse {
		t.Errorf("FalseValue type = %v, want TypeFalse", v.Type())
	}
	if v := IntValue(42); v.Int() != 42 {
		t.Errorf("Int() = %d, want 42", v.Int())
	}
	if v := FloatValue(1.5); v.Float() != 1.5 {
		t.Errorf("Float() = %g, want 1.5", v.Float())
	}
	if v := BoolValue(true); v.Type() != TypeTrue {
		t.Errorf("BoolValue(true) type = %v, want TypeTrue", v.Type())
	}
	if v := BoolValue(false); v.Type() != TypeFalse {
		t.Errorf("BoolValue(false) type = %v, want TypeFalse", v.Type())
	}
}

func TestTruthiness(t *testing.T) {
	falsy := []Value{NilValue(), FalseValue()}
	for _, v := range falsy {
		if v.IsTruthy() {
			t.Errorf("%v should be falsy", v.Type())
		}
	}
	truthy := []Value{TrueValue(), IntValue(0), FloatValue(0), SymbolValue(1)}
	for _, v := range truthy {
		if !v.IsTruthy() {
			t.Errorf("%v should be truthy", v.Type())
		}
	}
}

func TestHasRef(t *testing.T) {
	machine := NewVM()

	if IntValue(1).HasRef() {
		t.Error("integers should not be reference-counted")
	}
	if ClassValue(machine.ObjectClass).HasRef() {
		t.Error("classes should not be reference-counted")
	}

	s, err := machine.NewString("x")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	if !s.HasRef() {
		t.Error("strings should be reference-counted")
	}
	if s.RefCount() != 1 {
		t.Errorf("fresh string RefCount = %d, want 1", s.RefCount())
	}
	machine.Release(&s)
}

func TestIdentical(t *testing.T) {
	machine := NewVM()

	a, _ := machine.NewString("same")
	b, _ := machine.NewString("same")
	if !a.Identical(a) {
		t.Error("value should be identical to itself")
	}
	if a.Identical(b) {
		t.Error("distinct strings with equal content should not be identical")
	}
	machine.Release(&a)
	machine.Release(&b)
}

func TestAccessorMismatchReturnsNil(t *testing.T) {
	v := IntValue(7)
	if v.Instance() != nil {
		t.Error("Instance() on an integer should be nil")
	}
	if v.Proc() != nil {
		t.Error("Proc() on an integer should be nil")
	}
	if v.Str() != nil {
		t.Error("Str() on an integer should be nil")
	}
}

func TestCompareOrdering(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{IntValue(1), IntValue(2), -1},
		{IntValue(2), IntValue(2), 0},
		{IntValue(3), IntValue(2), 1},
		{IntValue(1), FloatValue(1.0), 0},
		{FloatValue(0.5), IntValue(1), -1},
		{NilValue(), NilValue(), 0},
		{SymbolValue(1), SymbolValue(2), -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%v, %v) = %d, want %d", tt.a.Type(), tt.b.Type(), got, tt.want)
		}
	}
}

func TestCompareNaN(t *testing.T) {
	nan := FloatValue(math.NaN())
	if Compare(nan, IntValue(5)) == 0 {
		t.Error("NaN should not compare equal to a number")
	}
	if Compare(IntValue(5), nan) == 0 {
		t.Error("a number should not compare equal to NaN")
	}
	if Compare(nan, nan) == 0 {
		t.Error("NaN should not compare equal to itself")
	}
}

func TestCompareLargeInts(t *testing.T) {
	a := IntValue(1 << 53)
	b := IntValue(1<<53 + 1)
	if got := Compare(a, b); got != -1 {
		t.Errorf("Compare(2^53, 2^53+1) = %d, want -1", got)
	}
	if got := Compare(b, a); got != 1 {
		t.Errorf("Compare(2^53+1, 2^53) = %d, want 1", got)
	}
}

func TestCompareStrings(t *testing.T) {
	machine := NewVM()
	a, _ := machine.NewString("apple")
	b, _ := machine.NewString("banana")
	if got := Compare(a, b); got != -1 {
		t.Errorf("Compare(apple, banana) = %d, want -1", got)
	}
	c, _ := machine.NewString("apple")
	if got := Compare(a, c); got != 0 {
		t.Errorf("Compare(apple, apple) = %d, want 0", got)
	}
	machine.Release(&a)
	machine.Release(&b)
	machine.Release(&c)
}
