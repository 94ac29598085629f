package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/exp/slices"
)

// verifyFunc checks the structural consistency of a generated function.  A
// failure indicates a bug in the generator rather than in the input.
func verifyFunc(f *ir.Func) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("function has no blocks")
	}

	names := make(map[string]bool)
	for _, param := range f.Params {
		names[param.Name()] = true
	}

	for i, block := range f.Blocks {
		if names[block.Name()] {
			return fmt.Errorf("duplicate local name `%s`", block.Name())
		}
		names[block.Name()] = true

		if block.Term == nil {
			return fmt.Errorf("block `%s` has no terminator", block.Name())
		}

		for _, succ := range block.Term.Succs() {
			if !slices.Contains(f.Blocks, succ) {
				return fmt.Errorf("block `%s` branches to a block outside of the function", block.Name())
			}

			if succ == f.Blocks[0] {
				return fmt.Errorf("block `%s` branches to the entry block", block.Name())
			}
		}

		if ret, ok := block.Term.(*ir.TermRet); ok {
			if ret.X == nil || !ret.X.Type().Equal(f.Sig.RetType) {
				return fmt.Errorf("block `%s` returns a value of the wrong type", block.Name())
			}
		}

		for _, inst := range block.Insts {
			if named, ok := inst.(value.Named); ok && !named.Type().Equal(types.Void) {
				if names[named.Name()] {
					return fmt.Errorf("duplicate local name `%s`", named.Name())
				}
				names[named.Name()] = true
			}

			if err := verifyInst(f, i, inst); err != nil {
				return fmt.Errorf("block `%s`: %w", block.Name(), err)
			}
		}
	}

	return nil
}

// verifyInst checks a single instruction of the block at index blockNdx.
func verifyInst(f *ir.Func, blockNdx int, inst ir.Instruction) error {
	switch v := inst.(type) {
	case *ir.InstCall:
		callee, ok := v.Callee.(*ir.Func)
		if !ok {
			return fmt.Errorf("indirect call")
		}

		if len(callee.Params) != len(v.Args) {
			return fmt.Errorf("call to `%s` with %d arguments, expected %d", callee.Name(), len(v.Args), len(callee.Params))
		}

		for i, arg := range v.Args {
			if !arg.Type().Equal(callee.Params[i].Type()) {
				return fmt.Errorf("argument %d of call to `%s` has the wrong type", i+1, callee.Name())
			}
		}
	case *ir.InstPhi:
		if blockNdx == 0 {
			return fmt.Errorf("phi in the entry block")
		}

		for _, inc := range v.Incs {
			pred, ok := interface{}(inc.Pred).(*ir.Block)
			if !ok || !slices.Contains(f.Blocks, pred) {
				return fmt.Errorf("phi has an incoming block outside of the function")
			}

			if !inc.X.Type().Equal(types.Double) {
				return fmt.Errorf("phi has an incoming value of the wrong type")
			}
		}
	case *ir.InstAlloca:
		if blockNdx != 0 {
			return fmt.Errorf("stack slot outside of the entry block")
		}
	}

	return nil
}
