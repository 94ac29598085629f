package codegen

import (
	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/dibuild"
	"github.com/fenix-project/arx/report"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/exp/slices"
)

// genPrototype records a signature in the registry.  No code is emitted: a
// declaration is materialized the first time the function is called.
func (g *Generator) genPrototype(proto *ast.Prototype) {
	g.ctx.Registry.Register(proto.Clone())
	g.result.Func = nil
}

// definitionAttempt is what must be undone if a function definition fails.
type definitionAttempt struct {
	fn *ir.Func

	// declared is true if fn was an existing declaration rather than a
	// function created for this definition.
	declared bool

	// paramNames are the parameter names of an existing declaration.
	paramNames []string

	// retired is the function that previously held the name, if any.
	retired *ir.Func

	checkpoint dibuild.Checkpoint
}

// genFunction generates a function definition.  On success, the function is
// verified and left in the module.  If its body fails to generate, every trace
// of the definition is removed: the function, the declarations its body
// introduced and its debug metadata.
func (g *Generator) genFunction(fn *ast.Function) {
	g.result = Result{}
	proto := fn.Proto

	if g.ctx.cfg.RejectDuplicateParams {
		for i, name := range proto.Params {
			if slices.Index(proto.Params[:i], name) != -1 {
				g.raise(proto, "duplicate parameter name: `%s`", name)
				return
			}
		}
	}

	// a declaration is named by its callers, so it cannot be renamed out of
	// the way
	existing := g.ctx.LookupFunc(proto.Name)
	if existing != nil && len(existing.Blocks) == 0 && len(existing.Params) != len(proto.Params) {
		g.raise(proto, "conflicting declaration of `%s`", proto.Name)
		return
	}

	// Registering
	attempt := &definitionAttempt{checkpoint: g.ctx.DI.Checkpoint()}
	g.materialized = nil

	g.ctx.Registry.Register(proto.Clone())

	if existing != nil {
		if len(existing.Blocks) > 0 {
			g.ctx.retire(existing)
			attempt.retired = existing
		} else {
			attempt.declared = true
			for _, param := range existing.Params {
				attempt.paramNames = append(attempt.paramNames, param.Name())
			}
		}
	}

	f := g.getFunction(proto.Name)
	if f == nil {
		g.discard(attempt, proto.Name)
		return
	}

	attempt.fn = f
	g.materialized = slices.DeleteFunc(g.materialized, func(m *ir.Func) bool { return m == f })

	body := g.emitDefinition(f, proto, fn.Body)
	g.builder = nil

	if body == nil {
		g.discard(attempt, proto.Name)
		return
	}

	if err := verifyFunc(f); err != nil {
		report.ReportICE("generated invalid function `%s`: %s", f.Name(), err)
	}

	g.materialized = nil
	g.result.Func = f
}

// emitDefinition generates the body of f and returns its value or nil.  The
// debug scope of f is active for exactly the duration of this call.
func (g *Generator) emitDefinition(f *ir.Func, proto *ast.Prototype, body ast.Expr) value.Value {
	// EntryBuilt
	g.builder = newIRBuilder(f)
	g.builder.appendBlock(g.builder.newBlock("entry"))

	file := g.ctx.CU.File
	line := int64(proto.Line())

	sp := g.ctx.DI.NewFunction(file, proto.Name, file, line, g.functionType(len(proto.Params)), line, enum.DIFlagPrototyped)
	f.Metadata = append(f.Metadata, &metadata.Attachment{Name: "dbg", Node: sp})

	g.scopes.Push(sp)
	defer g.scopes.Pop()

	// the prologue has no location so debuggers step over it
	g.emitLocation(nil)

	// ParamsBound
	g.symbols.Clear()

	for i, param := range f.Params {
		name := proto.Params[i]
		param.SetName(g.builder.name(name))

		slot := g.builder.entryAlloca(name + ".addr")

		lv := g.ctx.DI.NewParameterVariable(sp, name, uint64(i+1), file, line, g.doubleType())
		g.ctx.DI.InsertDeclareAtEnd(g.builder.block, slot, lv, g.ctx.DI.NewExpression(), g.ctx.DI.NewLocation(line, 0, sp))

		g.builder.store(param, slot)
		g.symbols.Bind(name, slot)
	}

	// BodyEmitting
	g.emitLocation(body)
	val := g.genExpr(body)
	if val == nil {
		return nil
	}

	g.emitLocation(body)
	g.builder.ret(val)
	return val
}

// discard undoes a failed definition.
func (g *Generator) discard(attempt *definitionAttempt, name string) {
	if f := attempt.fn; f != nil {
		if attempt.declared {
			// revert to the declaration earlier code may already call
			f.Blocks = nil
			f.Metadata = nil
			for i, param := range f.Params {
				param.SetName(attempt.paramNames[i])
			}
		} else {
			g.eraseFunc(f)
		}
	}

	for _, decl := range g.materialized {
		g.eraseFunc(decl)
	}
	g.materialized = nil

	if attempt.retired != nil {
		g.ctx.unretire(attempt.retired, name)
	}

	g.ctx.DI.Rollback(attempt.checkpoint)

	g.result.Value = nil
	g.result.Func = nil
}

// eraseFunc removes f from the module.
func (g *Generator) eraseFunc(f *ir.Func) {
	if ndx := slices.Index(g.ctx.Mod.Funcs, f); ndx != -1 {
		g.ctx.Mod.Funcs = slices.Delete(g.ctx.Mod.Funcs, ndx, ndx+1)
	}
}

// -----------------------------------------------------------------------------

// doubleType returns the debug type of `double`.
func (g *Generator) doubleType() *metadata.DIBasicType {
	return g.ctx.DI.NewBasicType("double", 64, enum.DwarfAttEncodingFloat)
}

// functionType returns the debug type of a function taking numArgs doubles and
// returning a double.
func (g *Generator) functionType(numArgs int) *metadata.DISubroutineType {
	double := g.doubleType()

	elems := make([]metadata.Field, numArgs+1)
	for i := range elems {
		elems[i] = double
	}

	return g.ctx.DI.NewSubroutineType(elems...)
}
