package vm

import (
	"bytes"
	"testing"
)

// ---------------------------------------------------------------------------
// Output formatting tests
// ---------------------------------------------------------------------------

func captureVM() (*VM, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewVMWith(NewCountingAllocator(0), NewWriterConsole(&buf)), &buf
}

func TestPrintSubForms(t *testing.T) {
	machine, buf := captureVM()

	s, _ := machine.NewString("text")
	defer machine.Release(&s)

	tests := []struct {
		v    Value
		want string
	}{
		{NilValue(), ""},
		{TrueValue(), "true"},
		{FalseValue(), "false"},
		{IntValue(-3), "-3"},
		{FloatValue(2.5), "2.5"},
		{SymbolValue(machine.Symbols.Intern("sym")), "sym"},
		{ClassValue(machine.ObjectClass), "Object"},
		{s, "text"},
	}
	for _, tt := range tests {
		buf.Reset()
		machine.printSub(tt.v)
		if got := buf.String(); got != tt.want {
			t.Errorf("printSub(%v) = %q, want %q", tt.v.Type(), got, tt.want)
		}
	}
}

func TestInspectForms(t *testing.T) {
	machine, _ := captureVM()

	s, _ := machine.NewString("he said \"hi\"\n")
	defer machine.Release(&s)

	if got := machine.renderInspect(NilValue()); got != "nil" {
		t.Errorf("inspect nil = %q, want %q", got, "nil")
	}
	sym := SymbolValue(machine.Symbols.Intern("name"))
	if got := machine.renderInspect(sym); got != ":name" {
		t.Errorf("inspect symbol = %q, want %q", got, ":name")
	}
	if got := machine.renderInspect(s); got != "\"he said \\\"hi\\\"\\n\"" {
		t.Errorf("inspect string = %q", got)
	}
}

func TestInspectEscapesUnprintable(t *testing.T) {
	machine, _ := captureVM()
	s, _ := machine.NewString("\x01")
	defer machine.Release(&s)

	if got := machine.renderInspect(s); got != "\"\\x01\"" {
		t.Errorf("inspect = %q, want %q", got, "\"\\x01\"")
	}
}

func TestArrayAndRangeRendering(t *testing.T) {
	machine, _ := captureVM()

	av, _ := machine.NewArray(2)
	av.Array().Push(machine, IntValue(1))
	s, _ := machine.NewString("two")
	av.Array().Push(machine, s)
	machine.Release(&s)

	if got := machine.renderInspect(av); got != "[1, \"two\"]" {
		t.Errorf("array inspect = %q, want %q", got, "[1, \"two\"]")
	}
	machine.Release(&av)

	r, _ := machine.NewRange(IntValue(1), IntValue(5), false)
	if got := machine.renderPrint(r); got != "1..5" {
		t.Errorf("range = %q, want %q", got, "1..5")
	}
	machine.Release(&r)

	r, _ = machine.NewRange(IntValue(1), IntValue(5), true)
	if got := machine.renderPrint(r); got != "1...5" {
		t.Errorf("exclusive range = %q, want %q", got, "1...5")
	}
	machine.Release(&r)
}

func TestHashRendering(t *testing.T) {
	machine, _ := captureVM()

	hv, _ := machine.NewHash(1)
	hv.Hash().Set(machine, SymbolValue(machine.Symbols.Intern("k")), IntValue(9))
	if got := machine.renderInspect(hv); got != "{:k=>9}" {
		t.Errorf("hash inspect = %q, want %q", got, "{:k=>9}")
	}
	machine.Release(&hv)
}

func TestPutsSuppressesDoubledNewline(t *testing.T) {
	machine, buf := captureVM()

	s, _ := machine.NewString("line\n")
	window := machine.regfile[8:]
	machine.StoreValue(&window[0], NilValue())
	machine.StoreValue(&window[1], s)
	objectPuts(machine, window, 1)
	if got := buf.String(); got != "line\n" {
		t.Errorf("puts = %q, want single trailing newline", got)
	}
	machine.Release(&window[1])
	machine.Release(&s)
}

func TestPutsArrayOnePerLine(t *testing.T) {
	machine, buf := captureVM()

	av, _ := machine.NewArray(2)
	av.Array().Push(machine, IntValue(1))
	av.Array().Push(machine, IntValue(2))

	window := machine.regfile[8:]
	machine.StoreValue(&window[0], NilValue())
	machine.StoreValue(&window[1], av)
	objectPuts(machine, window, 1)
	if got := buf.String(); got != "1\n2\n" {
		t.Errorf("puts array = %q, want %q", got, "1\n2\n")
	}
	machine.Release(&window[1])
	machine.Release(&av)
}

func TestPutsNoArgsPrintsBlankLine(t *testing.T) {
	machine, buf := captureVM()

	window := machine.regfile[8:]
	machine.StoreValue(&window[0], NilValue())
	objectPuts(machine, window, 0)
	if got := buf.String(); got != "\n" {
		t.Errorf("puts = %q, want a bare newline", got)
	}
}

func TestInstanceRendering(t *testing.T) {
	machine, _ := captureVM()
	cls, _ := machine.DefineClass("Widget", nil)
	obj, _ := machine.NewInstance(cls)

	got := machine.renderPrint(obj)
	if len(got) < len("#<Widget:") || got[:len("#<Widget:")] != "#<Widget:" {
		t.Errorf("instance rendering = %q, want #<Widget:...>", got)
	}
	machine.Release(&obj)
}
