package vm

// RString is a reference-counted byte string.
type RString struct {
	refHeader
	data []byte
}

// NewString allocates a string value holding a copy of s.
func (vm *VM) NewString(s string) (Value, error) {
	if err := vm.Allocator.Alloc(stringBase + len(s)); err != nil {
		return NilValue(), err
	}
	r := &RString{data: []byte(s)}
	r.refCount = 1
	r.size = stringBase + len(s)
	return Value{tt: TypeString, ref: r}, nil
}

func (r *RString) destroy(vm *VM) {
	r.data = nil
	vm.Allocator.Free(r.size)
}

// Text returns the string contents.
func (r *RString) Text() string { return string(r.data) }

// Len returns the byte length.
func (r *RString) Len() int { return len(r.data) }

// EndsWithNewline reports whether the last byte is '\n'. puts uses this
// to suppress a duplicate trailing newline.
func (r *RString) EndsWithNewline() bool {
	return len(r.data) > 0 && r.data[len(r.data)-1] == '\n'
}
