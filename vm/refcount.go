package vm

// ---------------------------------------------------------------------------
// Reference-counted lifetime manager
// ---------------------------------------------------------------------------
//
// The single invariant: every value stored into a persistent slot
// (instance variable, container element, call-window register) is
// retained at store time and released when overwritten or when the
// owning slot is destroyed. StoreValue enforces the pairing so call
// sites cannot get the order wrong on self-assignment.

// Retain increments the reference count of a reference-kind value.
// No-op for immediates and classes.
func (vm *VM) Retain(v Value) {
	if !v.HasRef() {
		return
	}
	v.ref.header().refCount++
}

// Release decrements the value's reference count, destroying the block
// on the transition to zero, and clears the slot to the Empty marker so
// a second release of the same slot is harmless.
func (vm *VM) Release(slot *Value) {
	vm.release(*slot)
	*slot = EmptyValue()
}

// release decrements without touching the caller's slot.
func (vm *VM) release(v Value) {
	if !v.HasRef() {
		return
	}
	h := v.ref.header()
	h.refCount--
	if h.refCount > 0 {
		return
	}
	if h.refCount < 0 {
		// Double release; the Empty marker should make this
		// unreachable, but do not free twice if it happens.
		log.Errorf("release of dead %s (count %d)", v.tt.String(), h.refCount)
		return
	}
	v.ref.destroy(vm)
}

// StoreValue implements dup-on-store, release-on-overwrite for a
// persistent slot. The new value is retained before the old one is
// released, so assigning a value onto itself cannot free it.
func (vm *VM) StoreValue(slot *Value, v Value) {
	vm.Retain(v)
	old := *slot
	*slot = v
	vm.release(old)
}

// ClearSlot marks a slot Empty without releasing. Used when ownership
// of the slot's value has been transferred elsewhere.
func ClearSlot(slot *Value) {
	*slot = EmptyValue()
}
