package codegen

import (
	"github.com/fenix-project/arx/ast"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func (g *Generator) genNumber(num *ast.NumberExpr) value.Value {
	g.emitLocation(num)

	return constant.NewFloat(types.Double, num.Value)
}

func (g *Generator) genVariable(v *ast.VariableExpr) value.Value {
	g.emitLocation(v)

	slot, ok := g.symbols.Lookup(v.Name)
	if !ok {
		g.raise(v, "unknown variable name: `%s`", v.Name)
		return nil
	}

	return g.builder.load(slot, v.Name)
}

func (g *Generator) genUnary(un *ast.UnaryExpr) value.Value {
	g.emitLocation(un)

	operand := g.genExpr(un.Operand)
	if operand == nil {
		return nil
	}

	// the operand moved the location
	g.emitLocation(un)

	switch un.Op {
	case "-":
		return g.builder.fneg(operand, "negtmp")
	case "!":
		isZero := g.builder.fcmp(enum.FPredOEQ, operand, zero(), "nottmp")
		return g.builder.boolToDouble(isZero, "booltmp")
	}

	f := g.getFunction("unary" + un.Op)
	if f == nil {
		g.raise(un, "unknown unary operator: `%s`", un.Op)
		return nil
	} else if len(f.Params) != 1 {
		g.raise(un, "incorrect number of arguments passed")
		return nil
	}

	return g.builder.call(f, []value.Value{operand}, "unop")
}

func (g *Generator) genBinary(bin *ast.BinaryExpr) value.Value {
	g.emitLocation(bin)

	if bin.Op == "=" {
		return g.genAssign(bin)
	}

	lhs := g.genExpr(bin.Lhs)
	if lhs == nil {
		return nil
	}

	rhs := g.genExpr(bin.Rhs)
	if rhs == nil {
		return nil
	}

	g.emitLocation(bin)

	switch bin.Op {
	case "+":
		return g.builder.fadd(lhs, rhs, "addtmp")
	case "-":
		return g.builder.fsub(lhs, rhs, "subtmp")
	case "*":
		return g.builder.fmul(lhs, rhs, "multmp")
	case "/":
		return g.builder.fdiv(lhs, rhs, "divtmp")
	case "<":
		cmp := g.builder.fcmp(enum.FPredULT, lhs, rhs, "cmptmp")
		return g.builder.boolToDouble(cmp, "booltmp")
	case ">":
		cmp := g.builder.fcmp(enum.FPredUGT, lhs, rhs, "cmptmp")
		return g.builder.boolToDouble(cmp, "booltmp")
	}

	f := g.getFunction("binary" + bin.Op)
	if f == nil {
		g.raise(bin, "invalid binary operator: `%s`", bin.Op)
		return nil
	} else if len(f.Params) != 2 {
		g.raise(bin, "incorrect number of arguments passed")
		return nil
	}

	return g.builder.call(f, []value.Value{lhs, rhs}, "binop")
}

// genAssign generates `=`: the value of the right operand is stored into the
// variable named by the left operand and is the value of the expression.
func (g *Generator) genAssign(bin *ast.BinaryExpr) value.Value {
	dest, ok := bin.Lhs.(*ast.VariableExpr)
	if !ok {
		g.raise(bin, "destination of `=` must be a variable")
		return nil
	}

	val := g.genExpr(bin.Rhs)
	if val == nil {
		return nil
	}

	slot, ok := g.symbols.Lookup(dest.Name)
	if !ok {
		g.raise(dest, "unknown variable name: `%s`", dest.Name)
		return nil
	}

	g.emitLocation(bin)
	g.builder.store(val, slot)
	return val
}

// genCall resolves the callee before generating any argument so a call to an
// unknown function emits nothing.
func (g *Generator) genCall(call *ast.CallExpr) value.Value {
	g.emitLocation(call)

	arity, ok := g.arityOf(call.Callee)
	if !ok {
		g.raise(call, "unknown function referenced: `%s`", call.Callee)
		return nil
	} else if arity != len(call.Args) {
		g.raise(call, "incorrect number of arguments passed to `%s`: expected %d, got %d", call.Callee, arity, len(call.Args))
		return nil
	}

	args := make([]value.Value, len(call.Args))
	for i, arg := range call.Args {
		if args[i] = g.genExpr(arg); args[i] == nil {
			return nil
		}
	}

	callee := g.getFunction(call.Callee)

	g.emitLocation(call)
	return g.builder.call(callee, args, "calltmp")
}
