package vm

import "fmt"

// Value represents a PicoRB value as a tagged union.
//
// Immediate kinds (nil, booleans, integers, floats, symbols) carry their
// payload inline. Reference kinds carry a pointer to a shared, reference
// counted heap block. The discriminant is an explicit Type byte rather
// than pointer packing: manual reference counting needs a stable header
// on every heap block, and an explicit tag keeps the lifetime manager
// free of unsafe pointer surgery.
type Value struct {
	tt  Type
	i   int64   // TypeInt payload
	f   float64 // TypeFloat payload
	sym SymID   // TypeSymbol payload
	cls *Class  // TypeClass payload (classes are process-lifetime, never counted)
	ref Ref     // reference-kind payload
}

// Type is the discriminant of a Value.
type Type uint8

const (
	// TypeEmpty marks a cleared register slot. It is distinct from nil:
	// the lifetime manager skips Empty slots, which is what prevents a
	// double release of values whose ownership has been transferred out
	// of a call window.
	TypeEmpty Type = iota
	TypeNil
	TypeFalse
	TypeTrue
	TypeInt
	TypeFloat
	TypeSymbol

	// Reference kinds from here on.
	TypeClass
	TypeInstance
	TypeProc
	TypeArray
	TypeString
	TypeRange
	TypeHash
)

// typeNames is indexed by Type, for diagnostics only.
var typeNames = [...]string{
	"Empty", "Nil", "False", "True", "Integer", "Float", "Symbol",
	"Class", "Instance", "Proc", "Array", "String", "Range", "Hash",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// HasRef reports whether values of this type carry a reference-counted
// heap block. Classes are reference kinds but live for the process
// lifetime and are never counted.
func (t Type) HasRef() bool {
	return t >= TypeInstance
}

// Ref is implemented by every reference-counted heap entity.
type Ref interface {
	header() *refHeader
	// destroy runs the type-specific destructor: release owned values,
	// then return the block's size to the allocator.
	destroy(vm *VM)
}

// refHeader is embedded at the head of every reference-counted block.
type refHeader struct {
	refCount int
	size     int // bytes charged to the allocator
}

func (h *refHeader) header() *refHeader { return h }

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NilValue returns the nil value.
func NilValue() Value { return Value{tt: TypeNil} }

// EmptyValue returns the cleared-slot marker.
func EmptyValue() Value { return Value{tt: TypeEmpty} }

// TrueValue returns the true value.
func TrueValue() Value { return Value{tt: TypeTrue} }

// FalseValue returns the false value.
func FalseValue() Value { return Value{tt: TypeFalse} }

// BoolValue returns true or false as a Value.
func BoolValue(b bool) Value {
	if b {
		return TrueValue()
	}
	return FalseValue()
}

// IntValue returns an integer value.
func IntValue(n int64) Value { return Value{tt: TypeInt, i: n} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{tt: TypeFloat, f: f} }

// SymbolValue returns a symbol value for an interned ID.
func SymbolValue(sym SymID) Value { return Value{tt: TypeSymbol, sym: sym} }

// ClassValue wraps a class as a first-class value.
func ClassValue(cls *Class) Value { return Value{tt: TypeClass, cls: cls} }

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

// Type returns the value's discriminant.
func (v Value) Type() Type { return v.tt }

// IsEmpty reports whether v is the cleared-slot marker.
func (v Value) IsEmpty() bool { return v.tt == TypeEmpty }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v.tt == TypeNil }

// IsBool reports whether v is true or false.
func (v Value) IsBool() bool { return v.tt == TypeTrue || v.tt == TypeFalse }

// IsTruthy reports conditional truth: everything except nil and false.
func (v Value) IsTruthy() bool { return v.tt != TypeNil && v.tt != TypeFalse }

// HasRef reports whether v carries a reference-counted block.
func (v Value) HasRef() bool { return v.tt.HasRef() }

// ---------------------------------------------------------------------------
// Payload accessors
// ---------------------------------------------------------------------------

// Int returns the integer payload. Panics on other types.
func (v Value) Int() int64 {
	if v.tt != TypeInt {
		panic("Value.Int: not an integer")
	}
	return v.i
}

// Float returns the float payload. Panics on other types.
func (v Value) Float() float64 {
	if v.tt != TypeFloat {
		panic("Value.Float: not a float")
	}
	return v.f
}

// Symbol returns the symbol ID payload. Panics on other types.
func (v Value) Symbol() SymID {
	if v.tt != TypeSymbol {
		panic("Value.Symbol: not a symbol")
	}
	return v.sym
}

// Class returns the class payload. Panics on other types.
func (v Value) Class() *Class {
	if v.tt != TypeClass {
		panic("Value.Class: not a class")
	}
	return v.cls
}

// Instance returns the instance payload, or nil if v is not an instance.
func (v Value) Instance() *Instance {
	if v.tt != TypeInstance {
		return nil
	}
	return v.ref.(*Instance)
}

// Proc returns the proc payload, or nil if v is not a proc.
func (v Value) Proc() *Method {
	if v.tt != TypeProc {
		return nil
	}
	return v.ref.(*Method)
}

// Array returns the array payload, or nil if v is not an array.
func (v Value) Array() *Array {
	if v.tt != TypeArray {
		return nil
	}
	return v.ref.(*Array)
}

// Str returns the string payload, or nil if v is not a string.
func (v Value) Str() *RString {
	if v.tt != TypeString {
		return nil
	}
	return v.ref.(*RString)
}

// Range returns the range payload, or nil if v is not a range.
func (v Value) Range() *Range {
	if v.tt != TypeRange {
		return nil
	}
	return v.ref.(*Range)
}

// Hash returns the hash payload, or nil if v is not a hash.
func (v Value) Hash() *Hash {
	if v.tt != TypeHash {
		return nil
	}
	return v.ref.(*Hash)
}

// RefCount returns the current reference count of v's heap block, or 0
// for immediates and classes. Exposed for lifetime tests.
func (v Value) RefCount() int {
	if !v.HasRef() {
		return 0
	}
	return v.ref.header().refCount
}

// Identical reports pointer/payload identity (the same object, not just
// equal contents).
func (v Value) Identical(other Value) bool {
	if v.tt != other.tt {
		return false
	}
	switch v.tt {
	case TypeEmpty, TypeNil, TypeFalse, TypeTrue:
		return true
	case TypeInt:
		return v.i == other.i
	case TypeFloat:
		return v.f == other.f
	case TypeSymbol:
		return v.sym == other.sym
	case TypeClass:
		return v.cls == other.cls
	default:
		return v.ref == other.ref
	}
}
