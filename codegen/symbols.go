package codegen

import "github.com/llir/llvm/ir"

// SymbolTable maps variable names to their stack slots.  It covers a whole
// function body: nested constructs share it and rebinding a name overwrites
// the previous binding.
type SymbolTable struct {
	slots map[string]*ir.InstAlloca
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{slots: make(map[string]*ir.InstAlloca)}
}

// Bind binds name to slot, replacing any previous binding.
func (st *SymbolTable) Bind(name string, slot *ir.InstAlloca) {
	st.slots[name] = slot
}

// Lookup returns the slot bound to name.
func (st *SymbolTable) Lookup(name string) (*ir.InstAlloca, bool) {
	slot, ok := st.slots[name]
	return slot, ok
}

// Clear removes every binding.  It is called when a new function begins.
func (st *SymbolTable) Clear() {
	for name := range st.slots {
		delete(st.slots, name)
	}
}

// Len returns the number of bound names.
func (st *SymbolTable) Len() int {
	return len(st.slots)
}
