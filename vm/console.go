package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Console output
// ---------------------------------------------------------------------------

// Console is where print, puts and p write. Embedders on targets
// without a stdout supply their own.
type Console interface {
	Print(s string)
	Putchar(c byte)
}

type writerConsole struct {
	w io.Writer
}

// NewStdoutConsole returns a console writing to standard output.
func NewStdoutConsole() Console { return &writerConsole{w: os.Stdout} }

// NewWriterConsole returns a console writing to w.
func NewWriterConsole(w io.Writer) Console { return &writerConsole{w: w} }

func (c *writerConsole) Print(s string)  { io.WriteString(c.w, s) }
func (c *writerConsole) Putchar(ch byte) { c.w.Write([]byte{ch}) }

// printSub renders a value the way print does: strings raw, nil
// silent, everything else in display form.
func (vm *VM) printSub(v Value) {
	switch v.Type() {
	case TypeEmpty:
		vm.Console.Print("(empty)")
	case TypeNil:
		// nothing
	case TypeFalse:
		vm.Console.Print("false")
	case TypeTrue:
		vm.Console.Print("true")
	case TypeInt:
		vm.Console.Print(strconv.FormatInt(v.Int(), 10))
	case TypeFloat:
		vm.Console.Print(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case TypeSymbol:
		vm.Console.Print(vm.Symbols.Name(v.Symbol()))
	case TypeClass:
		vm.Console.Print(v.Class().Name)
	case TypeInstance:
		ins := v.Instance()
		vm.Console.Print(fmt.Sprintf("#<%s:%p>", ins.cls.Name, ins))
	case TypeProc:
		vm.Console.Print(fmt.Sprintf("#<Proc:%p>", v.Proc()))
	case TypeArray:
		a := v.Array()
		vm.Console.Putchar('[')
		for i := 0; i < a.Len(); i++ {
			if i > 0 {
				vm.Console.Print(", ")
			}
			vm.pSub(a.Get(i))
		}
		vm.Console.Putchar(']')
	case TypeString:
		vm.Console.Print(v.Str().Text())
	case TypeRange:
		r := v.Range()
		vm.printSub(r.First())
		if r.ExcludeEnd() {
			vm.Console.Print("...")
		} else {
			vm.Console.Print("..")
		}
		vm.printSub(r.Last())
	case TypeHash:
		h := v.Hash()
		vm.Console.Putchar('{')
		first := true
		h.Each(func(key, val Value) {
			if !first {
				vm.Console.Print(", ")
			}
			first = false
			vm.pSub(key)
			vm.Console.Print("=>")
			vm.pSub(val)
		})
		vm.Console.Putchar('}')
	}
}

// pSub renders a value the way p does: nil spelled out, symbols with
// their colon, strings quoted and escaped.
func (vm *VM) pSub(v Value) {
	switch v.Type() {
	case TypeNil:
		vm.Console.Print("nil")
	case TypeSymbol:
		vm.Console.Print(":" + vm.Symbols.Name(v.Symbol()))
	case TypeString:
		vm.Console.Putchar('"')
		for _, b := range []byte(v.Str().Text()) {
			switch {
			case b == '"' || b == '\\':
				vm.Console.Putchar('\\')
				vm.Console.Putchar(b)
			case b == '\n':
				vm.Console.Print("\\n")
			case b == '\t':
				vm.Console.Print("\\t")
			case b == '\r':
				vm.Console.Print("\\r")
			case b < 0x20 || b >= 0x7f:
				vm.Console.Print(fmt.Sprintf("\\x%02X", b))
			default:
				vm.Console.Putchar(b)
			}
		}
		vm.Console.Putchar('"')
	default:
		vm.printSub(v)
	}
}

// renderPrint returns a value's print form as a Go string.
func (vm *VM) renderPrint(v Value) string {
	var b strings.Builder
	saved := vm.Console
	vm.Console = NewWriterConsole(&b)
	vm.printSub(v)
	vm.Console = saved
	return b.String()
}

// renderInspect returns a value's p form as a Go string.
func (vm *VM) renderInspect(v Value) string {
	var b strings.Builder
	saved := vm.Console
	vm.Console = NewWriterConsole(&b)
	vm.pSub(v)
	vm.Console = saved
	return b.String()
}

// putsSub prints one value for puts, recursing into arrays one element
// per line. Reports whether the output already ended with a newline.
func (vm *VM) putsSub(v Value) bool {
	if a := v.Array(); a != nil {
		done := true
		for i := 0; i < a.Len(); i++ {
			done = vm.putsSub(a.Get(i))
			if !done {
				vm.Console.Putchar('\n')
				done = true
			}
		}
		return done || a.Len() == 0
	}
	vm.printSub(v)
	if s := v.Str(); s != nil {
		return s.EndsWithNewline()
	}
	return false
}
