// Package codegen lowers the Arx AST into LLVM IR with DWARF debug info.
package codegen

import (
	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/report"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// Generator walks top-level AST nodes and emits them into the module of its
// context.  Each visit leaves its outcome in the generator's Result.
type Generator struct {
	ctx *Context

	result  Result
	symbols *SymbolTable
	scopes  *ScopeStack

	// builder is the insertion cursor.  It is nil outside of a function.
	builder *irBuilder

	// materialized holds the declarations created while generating the
	// current function.  They are removed if the function is discarded.
	materialized []*ir.Func

	errors []*report.LocalCompileError
}

// NewGenerator creates a new generator emitting into ctx.
func NewGenerator(ctx *Context) *Generator {
	return &Generator{
		ctx:     ctx,
		symbols: NewSymbolTable(),
		scopes:  NewScopeStack(ctx.CU),
	}
}

// Visit generates a top-level node.  The outcome is available from Result:
// expressions set its value, definitions set its function, and prototypes only
// record their signature.
func (g *Generator) Visit(node ast.Node) {
	switch v := node.(type) {
	case *ast.Prototype:
		g.genPrototype(v)
	case *ast.Function:
		g.genFunction(v)
	case ast.Expr:
		if g.builder == nil {
			g.raise(v, "expression outside of a function body")
			g.result.Value = nil
			return
		}

		g.result.Value = g.genExpr(v)
	default:
		report.ReportICE("unknown AST node: %T", node)
	}
}

// Result returns the outcome of the last visit.
func (g *Generator) Result() Result {
	return g.result
}

// TakeErrors returns and clears the recorded errors.
func (g *Generator) TakeErrors() []*report.LocalCompileError {
	errs := g.errors
	g.errors = nil
	return errs
}

// ScopeDepth returns the number of active debug scopes.
func (g *Generator) ScopeDepth() int {
	return g.scopes.Depth()
}

// -----------------------------------------------------------------------------

// raise records a compile error positioned on node.
func (g *Generator) raise(node ast.Node, msg string, args ...interface{}) {
	g.errors = append(g.errors, report.Raise(node.Span(), msg, args...))
}

// emitLocation sets the current debug location to the position of node in the
// current debug scope.  A nil node clears the location.
func (g *Generator) emitLocation(node ast.Node) {
	if g.builder == nil {
		return
	}

	if node == nil {
		g.builder.loc = nil
		return
	}

	g.builder.loc = g.ctx.DI.NewLocation(int64(node.Line()), int64(node.Col()), g.scopes.Current())
}

// getFunction returns the module function with the given name.  If there is
// none, a declaration is materialized from the registry.  It returns nil if
// the name is unknown.
func (g *Generator) getFunction(name string) *ir.Func {
	if f := g.ctx.LookupFunc(name); f != nil {
		return f
	}

	proto, ok := g.ctx.Registry.Resolve(name)
	if !ok {
		return nil
	}

	f := g.ctx.declare(proto)
	g.materialized = append(g.materialized, f)
	return f
}

// arityOf returns the parameter count of the function name resolves to.
func (g *Generator) arityOf(name string) (int, bool) {
	if f := g.ctx.LookupFunc(name); f != nil {
		return len(f.Params), true
	}

	if proto, ok := g.ctx.Registry.Resolve(name); ok {
		return len(proto.Params), true
	}

	return 0, false
}

// genExpr generates an expression and returns its value or nil if generation
// failed.  Failures have already been recorded.
func (g *Generator) genExpr(expr ast.Expr) value.Value {
	switch v := expr.(type) {
	case *ast.NumberExpr:
		return g.genNumber(v)
	case *ast.VariableExpr:
		return g.genVariable(v)
	case *ast.UnaryExpr:
		return g.genUnary(v)
	case *ast.BinaryExpr:
		return g.genBinary(v)
	case *ast.CallExpr:
		return g.genCall(v)
	case *ast.IfExpr:
		return g.genIf(v)
	case *ast.ForExpr:
		return g.genFor(v)
	case *ast.VarExpr:
		return g.genVar(v)
	}

	report.ReportICE("unknown expression: %T", expr)
	return nil
}
