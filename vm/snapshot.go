package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Snapshots: content-addressed digests of a task's class tree
// ---------------------------------------------------------------------------

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Snapshot is a portable digest of a VM's visible structure: which
// classes exist, how they chain, and the content hashes of their
// compiled methods. It carries no live object state.
type Snapshot struct {
	VMID    string        `cbor:"1,keyasint"`
	Symbols []string      `cbor:"2,keyasint"`
	Classes []ClassDigest `cbor:"3,keyasint"`
}

// ClassDigest is one class's structural record.
type ClassDigest struct {
	Name    string         `cbor:"1,keyasint"`
	Super   string         `cbor:"2,keyasint,omitempty"`
	Methods []MethodDigest `cbor:"3,keyasint,omitempty"`
}

// MethodDigest records a selector and, for compiled bodies, the
// content hash of the body. Native methods hash to zero; their
// identity is the host binary's.
type MethodDigest struct {
	Name    string   `cbor:"1,keyasint"`
	Native  bool     `cbor:"2,keyasint"`
	Content [32]byte `cbor:"3,keyasint"`
}

// MarshalSnapshot serializes a snapshot to canonical CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("vm: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// TakeSnapshot digests the VM's current class tree.
func (vm *VM) TakeSnapshot() *Snapshot {
	s := &Snapshot{
		VMID:    vm.ID,
		Symbols: vm.Symbols.All(),
	}
	for _, v := range vm.consts {
		if v.Type() != TypeClass {
			continue
		}
		cls := v.Class()
		d := ClassDigest{Name: cls.Name}
		if cls.Super != nil {
			d.Super = cls.Super.Name
		}
		cls.EachMethod(func(m *Method) {
			md := MethodDigest{
				Name:   vm.Symbols.Name(m.sym),
				Native: m.cFunc,
			}
			if !m.cFunc && m.irep != nil {
				md.Content = vm.ContentHash(m.irep)
			}
			d.Methods = append(d.Methods, md)
		})
		s.Classes = append(s.Classes, d)
	}
	sort.Slice(s.Classes, func(i, j int) bool {
		return s.Classes[i].Name < s.Classes[j].Name
	})
	return s
}

// ContentHash returns the content address of a compiled body: the
// SHA-256 of its register shape, instruction stream, pool, symbol
// names and nested-body hashes. Symbols hash by name, not ID, so two
// VMs with different intern orders agree on the hash. Hashes are
// cached per body; bodies are immutable once registered.
func (vm *VM) ContentHash(irep *IRep) [32]byte {
	if h, ok := vm.contentHashes[irep]; ok {
		return h
	}

	h := sha256.New()
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(irep.NLocals))
	binary.BigEndian.PutUint32(hdr[4:], uint32(irep.NRegs))
	h.Write(hdr[:])
	h.Write(irep.Code)

	for _, sym := range irep.Syms {
		h.Write([]byte{0x00})
		h.Write([]byte(vm.Symbols.Name(sym)))
	}
	for _, p := range irep.Pools {
		h.Write([]byte{0x01, byte(p.Type())})
		h.Write([]byte(vm.renderInspect(p)))
	}
	for _, rep := range irep.Reps {
		sub := vm.ContentHash(rep)
		h.Write([]byte{0x02})
		h.Write(sub[:])
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	vm.contentHashes[irep] = out
	return out
}
