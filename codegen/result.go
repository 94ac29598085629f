package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Result holds the outcome of the most recent visit.  Every visit overwrites
// it, so callers must read it immediately after the visit that produced it.  A
// nil field is the failure signal.
type Result struct {
	// Value is the value computed by the last expression.
	Value value.Value

	// Func is the function completed by the last definition.
	Func *ir.Func
}
