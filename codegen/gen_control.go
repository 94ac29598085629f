package codegen

import (
	"github.com/fenix-project/arx/ast"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// genIf generates a conditional: both branches join in `ifcont` where a phi
// selects the result.
func (g *Generator) genIf(ifExpr *ast.IfExpr) value.Value {
	g.emitLocation(ifExpr)

	cond := g.genExpr(ifExpr.Cond)
	if cond == nil {
		return nil
	}

	g.emitLocation(ifExpr)
	condVal := g.builder.isTrue(cond, "ifcond")

	thenBlock := g.builder.newBlock("then")
	elseBlock := g.builder.newBlock("else")
	mergeBlock := g.builder.newBlock("ifcont")

	g.builder.condBr(condVal, thenBlock, elseBlock)

	// then branch; the branch may end in a different block than it began
	g.builder.appendBlock(thenBlock)
	thenVal := g.genExpr(ifExpr.Then)
	if thenVal == nil {
		return nil
	}

	g.emitLocation(ifExpr)
	g.builder.br(mergeBlock)
	thenEnd := g.builder.block

	// else branch
	g.builder.appendBlock(elseBlock)
	elseVal := g.genExpr(ifExpr.Else)
	if elseVal == nil {
		return nil
	}

	g.emitLocation(ifExpr)
	g.builder.br(mergeBlock)
	elseEnd := g.builder.block

	g.builder.appendBlock(mergeBlock)
	return g.builder.phi(
		"iftmp",
		ir.NewIncoming(thenVal, thenEnd),
		ir.NewIncoming(elseVal, elseEnd),
	)
}

// genFor generates a counted loop.  The loop variable lives in an entry block
// slot; the body runs before the end condition is checked and the loop always
// yields 0.0.
func (g *Generator) genFor(forExpr *ast.ForExpr) value.Value {
	slot := g.builder.entryAlloca(forExpr.VarName)

	g.emitLocation(forExpr)

	start := g.genExpr(forExpr.Start)
	if start == nil {
		return nil
	}

	g.builder.store(start, slot)

	loopBlock := g.builder.newBlock("loop")
	g.builder.br(loopBlock)
	g.builder.appendBlock(loopBlock)

	g.symbols.Bind(forExpr.VarName, slot)

	if g.genExpr(forExpr.Body) == nil {
		return nil
	}

	var step value.Value
	if forExpr.Step != nil {
		if step = g.genExpr(forExpr.Step); step == nil {
			return nil
		}
	} else {
		step = constant.NewFloat(types.Double, 1)
	}

	end := g.genExpr(forExpr.End)
	if end == nil {
		return nil
	}

	g.emitLocation(forExpr)

	curVar := g.builder.load(slot, forExpr.VarName)
	nextVar := g.builder.fadd(curVar, step, "nextvar")
	g.builder.store(nextVar, slot)

	endCond := g.builder.isTrue(end, "loopcond")

	afterBlock := g.builder.newBlock("afterloop")
	g.builder.condBr(endCond, loopBlock, afterBlock)
	g.builder.appendBlock(afterBlock)

	return zero()
}

// genVar generates local variable bindings and then the body.  Initializers
// are evaluated before their variable is bound, so an initializer naming its
// own variable sees the previous binding.
func (g *Generator) genVar(varExpr *ast.VarExpr) value.Value {
	g.emitLocation(varExpr)

	for _, binding := range varExpr.Bindings {
		var init value.Value
		if binding.Init != nil {
			if init = g.genExpr(binding.Init); init == nil {
				return nil
			}
		} else {
			init = zero()
		}

		slot := g.builder.entryAlloca(binding.Name)

		g.emitLocation(varExpr)
		g.builder.store(init, slot)

		g.symbols.Bind(binding.Name, slot)
	}

	g.emitLocation(varExpr.Body)
	return g.genExpr(varExpr.Body)
}
