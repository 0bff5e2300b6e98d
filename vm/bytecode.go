package vm

import "encoding/binary"

// ---------------------------------------------------------------------------
// IRep: compiled method body
// ---------------------------------------------------------------------------

// IRep is an opaque compiled-body handle: an instruction stream plus
// its constant pool, symbol table and nested bodies. The dispatch
// engine treats it as opaque except for the entry point at offset 0;
// producing IReps is the loader's job, outside this core.
type IRep struct {
	NLocals int
	NRegs   int
	Code    []byte
	Pools   []Value
	Syms    []SymID
	Reps    []*IRep
}

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode is a single bytecode instruction.
type Opcode byte

// Register moves and loads. Operands: a = register (1 byte), idx =
// pool/symbol index (1 byte), i16 = big-endian signed immediate.
const (
	OpNop     Opcode = 0x00
	OpMove    Opcode = 0x01 // a, b       R[a] = R[b]
	OpLoadLit Opcode = 0x02 // a, idx     R[a] = Pools[idx]
	OpLoadInt Opcode = 0x03 // a, i16     R[a] = imm
	OpLoadSym Opcode = 0x04 // a, idx     R[a] = :Syms[idx]
	OpLoadNil Opcode = 0x05 // a
	OpLoadT   Opcode = 0x06 // a
	OpLoadF   Opcode = 0x07 // a
	OpLoadSlf Opcode = 0x08 // a          R[a] = R[0]
)

// Variable access.
const (
	OpGetIV    Opcode = 0x10 // a, idx    R[a] = self.@Syms[idx]
	OpSetIV    Opcode = 0x11 // a, idx    self.@Syms[idx] = R[a]
	OpGetConst Opcode = 0x12 // a, idx    R[a] = ::Syms[idx]
	OpSetConst Opcode = 0x13 // a, idx    ::Syms[idx] = R[a]
)

// Message send. Receiver in R[a], arguments in R[a+1..a+argc], an
// optional block in R[a+argc+1]; the result replaces R[a].
const (
	OpSend Opcode = 0x20 // a, idx, argc
)

// Control flow. Jump targets are absolute code offsets (u16).
const (
	OpJmp    Opcode = 0x30 // u16
	OpJmpIf  Opcode = 0x31 // a, u16    jump when R[a] is truthy
	OpJmpNot Opcode = 0x32 // a, u16    jump when R[a] is falsy
)

// Exception-handler regions. OpOnErr registers a rescue (kind 0) or
// ensure (kind 1) target; OpPopErr discards handlers on normal exit.
const (
	OpOnErr  Opcode = 0x40 // kind, u16
	OpPopErr Opcode = 0x41 // n
)

// Returns and termination. OpStop ends the current run: the outermost
// loop or a nested reentrant run.
const (
	OpReturn Opcode = 0x50 // a
	OpStop   Opcode = 0x51
)

// ---------------------------------------------------------------------------
// Instruction assembly helpers
// ---------------------------------------------------------------------------
//
// The loader normally produces instruction streams; these helpers exist
// for embedders registering hand-built bodies and for tests.

// Asm accumulates an instruction stream.
type Asm struct {
	code []byte
}

// Bytes returns the assembled stream.
func (a *Asm) Bytes() []byte { return a.code }

// Pos returns the current code offset (for jump targets).
func (a *Asm) Pos() int { return len(a.code) }

// Op emits an opcode with single-byte operands.
func (a *Asm) Op(op Opcode, operands ...byte) *Asm {
	a.code = append(a.code, byte(op))
	a.code = append(a.code, operands...)
	return a
}

// Op16 emits an opcode, single-byte operands, then a big-endian u16.
func (a *Asm) Op16(op Opcode, operands []byte, imm uint16) *Asm {
	a.code = append(a.code, byte(op))
	a.code = append(a.code, operands...)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], imm)
	a.code = append(a.code, buf[:]...)
	return a
}

// Patch16 rewrites the u16 at offset (for forward jump targets).
func (a *Asm) Patch16(offset int, imm uint16) {
	binary.BigEndian.PutUint16(a.code[offset:], imm)
}
