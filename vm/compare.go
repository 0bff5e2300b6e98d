package vm

import (
	"bytes"
	"math"
)

// Compare orders two values: negative, zero or positive like
// bytes.Compare. Integers compare exactly; mixed numeric pairs go
// through float64; NaN never compares equal, itself included. Strings
// compare by bytes, symbols by ID, reference kinds by identity (equal
// only when the same block). Mismatched kinds order by type tag so
// the result is deterministic.
func Compare(a, b Value) int {
	if a.Type() == TypeInt && b.Type() == TypeInt {
		ai, bi := a.Int(), b.Int()
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}

	// Cross-numeric comparison.
	if an, aok := numeric(a); aok {
		if bn, bok := numeric(b); bok {
			switch {
			case math.IsNaN(an) || math.IsNaN(bn):
				return 1
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}

	if a.Type() != b.Type() {
		return int(a.Type()) - int(b.Type())
	}

	switch a.Type() {
	case TypeNil, TypeTrue, TypeFalse, TypeEmpty:
		return 0
	case TypeSymbol:
		return int(a.Symbol()) - int(b.Symbol())
	case TypeClass:
		if a.Class() == b.Class() {
			return 0
		}
		return int(a.Class().Sym) - int(b.Class().Sym)
	case TypeString:
		return bytes.Compare(a.Str().data, b.Str().data)
	case TypeArray:
		return compareArrays(a.Array(), b.Array())
	default:
		if a.ref == b.ref {
			return 0
		}
		return 1
	}
}

func numeric(v Value) (float64, bool) {
	switch v.Type() {
	case TypeInt:
		return float64(v.Int()), true
	case TypeFloat:
		return v.Float(), true
	default:
		return 0, false
	}
}

func compareArrays(a, b *Array) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.Get(i), b.Get(i)); c != 0 {
			return c
		}
	}
	return a.Len() - b.Len()
}
