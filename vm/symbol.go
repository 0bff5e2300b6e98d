package vm

import (
	"strings"
	"sync"
)

// SymID is an interned symbol identifier for a method, variable or
// class name.
type SymID uint32

// ---------------------------------------------------------------------------
// SymbolTable: interned symbols
// ---------------------------------------------------------------------------

// SymbolTable interns names to unique IDs so method dispatch and
// instance-variable lookup compare small integers instead of strings.
//
// The table is append-only and thread-safe for concurrent reads after
// initial population.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string]SymID
	byID   []string
}

// NewSymbolTable creates a new empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]SymID),
		byID:   make([]string, 0, 256),
	}
}

// Intern returns the ID for a name, creating a new one if needed.
func (st *SymbolTable) Intern(name string) SymID {
	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	// Double-check after acquiring write lock
	if id, ok := st.byName[name]; ok {
		return id
	}

	id := SymID(len(st.byID))
	st.byName[name] = id
	st.byID = append(st.byID, name)
	return id
}

// Lookup returns the ID for a name without creating a new entry.
func (st *SymbolTable) Lookup(name string) (SymID, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byName[name]
	return id, ok
}

// Name returns the name for an ID, or "" if invalid.
func (st *SymbolTable) Name(id SymID) string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// Len returns the number of interned symbols.
func (st *SymbolTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}

// All returns all symbol names in ID order.
func (st *SymbolTable) All() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	result := make([]string, len(st.byID))
	copy(result, st.byID)
	return result
}

// ---------------------------------------------------------------------------
// Accessor name derivation
// ---------------------------------------------------------------------------

// SetterSymbol derives and interns the writer symbol for an attribute
// symbol: :x yields :x=. attr_accessor uses this instead of runtime
// buffer concatenation.
func (st *SymbolTable) SetterSymbol(attr SymID) SymID {
	return st.Intern(st.Name(attr) + "=")
}

// AttrSymbol is the inverse of SetterSymbol: given a writer symbol
// (:x=) it returns the attribute symbol (:x). The generic ivar setter
// uses it to recover the variable key from the callee name.
func (st *SymbolTable) AttrSymbol(setter SymID) SymID {
	return st.Intern(strings.TrimSuffix(st.Name(setter), "="))
}
