package codegen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/config"
	"github.com/fenix-project/arx/syntax"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
)

const testTriple = "x86_64-unknown-linux-gnu"

func newTestContext(t *testing.T, configure func(*config.Config)) (*Context, *Generator) {
	t.Helper()

	cfg := config.Default()
	cfg.Triple = testTriple
	if configure != nil {
		configure(cfg)
	}

	ctx, err := Bootstrap(cfg)
	if err != nil {
		t.Fatalf("bootstrap failed: %s", err)
	}

	return ctx, NewGenerator(ctx)
}

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()

	nodes, errs := syntax.NewParser(strings.NewReader(src), nil).ParseAll()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}

	return nodes
}

// visitAll visits every node and returns the result of each visit.
func visitAll(g *Generator, nodes []ast.Node) []Result {
	results := make([]Result, len(nodes))
	for i, node := range nodes {
		g.Visit(node)
		results[i] = g.Result()
	}

	return results
}

func compile(t *testing.T, g *Generator, src string) []Result {
	t.Helper()
	return visitAll(g, parse(t, src))
}

func expectErrors(t *testing.T, g *Generator, msgs ...string) {
	t.Helper()

	errs := g.TakeErrors()
	if len(errs) != len(msgs) {
		t.Fatalf("expected %d errors, got %v", len(msgs), errs)
	}

	for i, msg := range msgs {
		if !strings.Contains(errs[i].Message, msg) {
			t.Errorf("expected error %d to mention %q, got %q", i, msg, errs[i].Message)
		}
	}
}

func localVariables(ctx *Context) []*metadata.DILocalVariable {
	var lvs []*metadata.DILocalVariable
	for _, def := range ctx.Mod.MetadataDefs {
		if lv, ok := def.(*metadata.DILocalVariable); ok {
			lvs = append(lvs, lv)
		}
	}

	return lvs
}

func subprogramOf(f *ir.Func) *metadata.DISubprogram {
	for _, md := range f.Metadata {
		if sp, ok := md.Node.(*metadata.DISubprogram); ok && md.Name == "dbg" {
			return sp
		}
	}

	return nil
}

func locationOf(mds []*metadata.Attachment) *metadata.DILocation {
	for _, md := range mds {
		if loc, ok := md.Node.(*metadata.DILocation); ok && md.Name == "dbg" {
			return loc
		}
	}

	return nil
}

// instsOf collects every instruction of f of type T.
func instsOf[T ir.Instruction](f *ir.Func) []T {
	var insts []T
	for _, block := range f.Blocks {
		for _, inst := range block.Insts {
			if v, ok := inst.(T); ok {
				insts = append(insts, v)
			}
		}
	}

	return insts
}

// -----------------------------------------------------------------------------

func TestAddOneScenario(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "function add_one(a):\n  a + 1\n\nadd_one(1);")
	expectErrors(t, g)

	addOne := results[0].Func
	if addOne == nil || addOne.Name() != "add_one" {
		t.Fatalf("add_one was not finalized: %+v", results[0])
	}

	if results[0].Value != nil {
		t.Errorf("definition set the expression value: %v", results[0].Value)
	}

	if len(addOne.Params) != 1 {
		t.Errorf("expected 1 parameter, got %d", len(addOne.Params))
	}

	if n := len(instsOf[*ir.InstAlloca](addOne)); n != 1 {
		t.Errorf("expected 1 stack slot, got %d", n)
	}

	lvs := localVariables(ctx)
	if len(lvs) != 1 || lvs[0].Name != "a" || lvs[0].Arg != 1 {
		t.Errorf("expected one debug variable for `a`, got %+v", lvs)
	}

	adds := instsOf[*ir.InstFAdd](addOne)
	if len(adds) != 1 {
		t.Fatalf("expected one addition, got %d", len(adds))
	}

	anon := results[1].Func
	if anon == nil || anon.Name() != ast.AnonExprName {
		t.Fatalf("top-level expression was not finalized: %+v", results[1])
	}

	calls := instsOf[*ir.InstCall](anon)
	if len(calls) != 1 || calls[0].Callee != addOne {
		t.Error("top-level expression does not call add_one")
	}
}

func TestMissingCallScenario(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "missing(2)\nfunction one(): 1")
	expectErrors(t, g, "unknown function referenced")

	if results[0].Value != nil || results[0].Func != nil {
		t.Error("failed call produced a result")
	}

	if ctx.LookupFunc(ast.AnonExprName) != nil || ctx.LookupFunc("missing") != nil {
		t.Error("failed top-level expression left a function in the module")
	}

	if results[1].Func == nil {
		t.Error("sibling definition was not compiled")
	}
}

func TestUnboundVariableScenario(t *testing.T) {
	ctx, g := newTestContext(t, nil)

	depth := g.ScopeDepth()
	numDefs := len(ctx.Mod.MetadataDefs)

	results := compile(t, g, "function f(a): x + a")
	expectErrors(t, g, "unknown variable name")

	if results[0].Func != nil || ctx.LookupFunc("f") != nil {
		t.Error("failed definition survived in the module")
	}

	if g.ScopeDepth() != depth {
		t.Errorf("scope depth changed from %d to %d", depth, g.ScopeDepth())
	}

	if len(ctx.Mod.MetadataDefs) != numDefs {
		t.Errorf("debug metadata of the failed definition survived: %d -> %d definitions", numDefs, len(ctx.Mod.MetadataDefs))
	}

	// The registry keeps the prototype so a later definition can succeed.
	if _, ok := ctx.Registry.Resolve("f"); !ok {
		t.Error("failed definition was removed from the registry")
	}

	if results := compile(t, g, "function f(a): a"); results[0].Func == nil {
		t.Error("redefinition after a failure did not succeed")
	}
}

func TestParameterSlots(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "function f(a, b, c): a * b + c")
	expectErrors(t, g)

	f := results[0].Func
	if f == nil {
		t.Fatal("definition failed")
	}

	slots := instsOf[*ir.InstAlloca](f)
	lvs := localVariables(ctx)
	declares := instsOf[*ir.InstCall](f)

	if len(f.Params) != 3 || len(slots) != 3 || len(lvs) != 3 || len(declares) != 3 {
		t.Fatalf("expected 3 params, slots, variables and declares; got %d, %d, %d, %d",
			len(f.Params), len(slots), len(lvs), len(declares))
	}

	for i, name := range []string{"a", "b", "c"} {
		if slots[i].Name() != name+".addr" {
			t.Errorf("slot %d is named %s", i, slots[i].Name())
		}

		if lvs[i].Name != name || lvs[i].Arg != uint64(i+1) {
			t.Errorf("debug variable %d is %s (arg %d)", i, lvs[i].Name, lvs[i].Arg)
		}

		if lvs[i].Scope != subprogramOf(f) {
			t.Errorf("debug variable %d is not scoped to its function", i)
		}
	}
}

func TestDebugLocations(t *testing.T) {
	_, g := newTestContext(t, nil)
	results := compile(t, g, "function f(a):\n  a + 1")

	f := results[0].Func
	sp := subprogramOf(f)
	if sp == nil || sp.Name != "f" || sp.Line != 1 {
		t.Fatalf("wrong subprogram: %+v", sp)
	}

	add := instsOf[*ir.InstFAdd](f)[0]
	loc := locationOf(add.Metadata)
	if loc == nil || loc.Line != 2 || loc.Column != 5 || loc.Scope != sp {
		t.Errorf("wrong location for the addition: %+v", loc)
	}

	// the prologue carries no location
	for _, slot := range instsOf[*ir.InstAlloca](f) {
		if locationOf(slot.Metadata) != nil {
			t.Error("stack slot has a location")
		}
	}

	for _, store := range instsOf[*ir.InstStore](f) {
		if locationOf(store.Metadata) != nil {
			t.Error("parameter spill has a location")
		}
	}

	ret, ok := f.Blocks[len(f.Blocks)-1].Term.(*ir.TermRet)
	if !ok || locationOf(ret.Metadata) == nil {
		t.Error("return has no location")
	}
}

func TestScopeBalance(t *testing.T) {
	_, g := newTestContext(t, nil)

	src := `
function ok(a): a
function bad(a): b
function nested(a): if a then var c = 1 in c + missing(a) else 0
function fine(x): for i = 1, i < x in ok(i)
`
	for _, node := range parse(t, src) {
		before := g.ScopeDepth()
		g.Visit(node)

		if g.ScopeDepth() != before || before != 0 {
			t.Errorf("unbalanced scope stack after %s: %d -> %d", node.(*ast.Function).Proto.Name, before, g.ScopeDepth())
		}
	}

	expectErrors(t, g, "unknown variable name", "unknown function referenced")
}

func TestRedefinition(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, `
function f(a): a
function g(x): f(x)
function f(a, b): a + b
function h(): f(1, 2)
`)
	expectErrors(t, g)

	oldF, newF := results[0].Func, results[2].Func
	if oldF == nil || newF == nil || oldF == newF {
		t.Fatal("both definitions of f should be finalized as distinct functions")
	}

	if oldF.Name() != "f.1" || newF.Name() != "f" {
		t.Errorf("expected the old function to be retired: old=%s new=%s", oldF.Name(), newF.Name())
	}

	if ctx.LookupFunc("f") != newF {
		t.Error("name does not resolve to the new definition")
	}

	if calls := instsOf[*ir.InstCall](results[1].Func); calls[len(calls)-1].Callee != oldF {
		t.Error("existing call site was retargeted")
	}

	if calls := instsOf[*ir.InstCall](results[3].Func); calls[len(calls)-1].Callee != newF {
		t.Error("new call site does not use the new signature")
	}

	if proto, _ := ctx.Registry.Resolve("f"); len(proto.Params) != 2 {
		t.Error("registry holds the old signature")
	}
}

func TestFailedRedefinitionRestoresName(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "function f(a): a\nfunction f(a): y\nfunction f(a): a + 1")
	expectErrors(t, g, "unknown variable name")

	if results[1].Func != nil {
		t.Fatal("failing redefinition was finalized")
	}

	if results[0].Func.Name() != "f.1" || results[2].Func.Name() != "f" {
		t.Errorf("wrong names after failed redefinition: %s, %s", results[0].Func.Name(), results[2].Func.Name())
	}

	if ctx.LookupFunc("f.2") != nil {
		t.Error("failed attempt consumed a retired name")
	}
}

func TestExternDeclarations(t *testing.T) {
	ctx, g := newTestContext(t, nil)

	g.Visit(parse(t, "extern sin(x)")[0])
	if g.Result().Func != nil || ctx.LookupFunc("sin") != nil {
		t.Fatal("extern emitted code")
	}

	results := compile(t, g, "function f(a): sin(a)")
	expectErrors(t, g)

	sin := ctx.LookupFunc("sin")
	if sin == nil || len(sin.Blocks) != 0 || len(sin.Params) != 1 {
		t.Fatal("expected a declaration of sin")
	}

	if results[0].Func == nil {
		t.Error("call through an extern failed")
	}
}

func TestFailedDefinitionRemovesDeclarations(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	compile(t, g, "extern foo(x)\nfunction f(a): foo(a) + y")
	expectErrors(t, g, "unknown variable name")

	if ctx.LookupFunc("foo") != nil {
		t.Error("declaration introduced by a failed definition survived")
	}

	if len(ctx.Mod.Funcs) != 0 {
		t.Errorf("expected an empty module, got %d functions", len(ctx.Mod.Funcs))
	}
}

func TestFailedDefinitionOfDeclaration(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "extern foo(x)\nfunction g(a): foo(a)\nfunction foo(x): y")
	expectErrors(t, g, "unknown variable name")

	foo := ctx.LookupFunc("foo")
	if foo == nil || len(foo.Blocks) != 0 || subprogramOf(foo) != nil {
		t.Fatal("failed definition did not revert to the declaration")
	}

	if foo.Params[0].Name() != "x" {
		t.Errorf("parameter name not restored: %s", foo.Params[0].Name())
	}

	if calls := instsOf[*ir.InstCall](results[1].Func); calls[len(calls)-1].Callee != foo {
		t.Error("caller lost its callee")
	}
}

func TestConflictingDeclaration(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, "extern sin(x)\nfunction g(x): sin(x)\nfunction sin(a, b): a + b")
	expectErrors(t, g, "conflicting declaration of `sin`")

	if results[2].Func != nil {
		t.Fatal("conflicting definition was finalized")
	}

	sin := ctx.LookupFunc("sin")
	if sin == nil || len(sin.Blocks) != 0 || len(sin.Params) != 1 {
		t.Fatal("declaration of sin was not kept as it was")
	}

	if ctx.LookupFunc("sin.1") != nil {
		t.Error("declaration was renamed")
	}

	calls := instsOf[*ir.InstCall](results[1].Func)
	if callee := calls[len(calls)-1].Callee.(*ir.Func); callee != sin || callee.Name() != "sin" {
		t.Errorf("caller retargeted to %s", callee.Name())
	}

	if proto, _ := ctx.Registry.Resolve("sin"); len(proto.Params) != 1 {
		t.Error("registry took the conflicting signature")
	}
}

func TestDuplicateParameters(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	compile(t, g, "function f(a, a): a")
	expectErrors(t, g, "duplicate parameter name")

	if ctx.LookupFunc("f") != nil || ctx.Registry.Len() != 0 {
		t.Error("rejected definition left a trace")
	}

	_, g = newTestContext(t, func(cfg *config.Config) { cfg.RejectDuplicateParams = false })
	results := compile(t, g, "function f(a, a): a")
	expectErrors(t, g)

	if results[0].Func == nil {
		t.Error("duplicate parameters should shadow when rejection is disabled")
	}
}

func TestControlFlow(t *testing.T) {
	_, g := newTestContext(t, nil)
	results := compile(t, g, `
function fib(x): if x < 3 then 1 else fib(x - 1) + fib(x - 2)
function count(n): for i = 1, i < n, 2 in n
function locals(a): var b = 2, c in c = a + b
function neg(a): -a + !a
`)
	expectErrors(t, g)

	for _, result := range results {
		if result.Func == nil {
			t.Fatal("definition failed")
		}
	}

	fib := results[0].Func
	var names []string
	for _, block := range fib.Blocks {
		names = append(names, block.Name())
	}

	if strings.Join(names, ",") != "entry,then,else,ifcont" {
		t.Errorf("wrong blocks for fib: %v", names)
	}

	if len(instsOf[*ir.InstPhi](fib)) != 1 {
		t.Error("expected one phi in fib")
	}

	count := results[1].Func
	if len(instsOf[*ir.InstAlloca](count)) != 2 {
		t.Error("expected slots for `n` and `i`")
	}

	if last := count.Blocks[len(count.Blocks)-1]; last.Name() != "afterloop" {
		t.Errorf("loop does not end in `afterloop`: %s", last.Name())
	}

	locals := results[2].Func
	slots := instsOf[*ir.InstAlloca](locals)
	if len(slots) != 3 || slots[1].Name() != "b" || slots[2].Name() != "c" {
		t.Error("expected slots for `a`, `b` and `c` in the entry block")
	}

	if len(instsOf[*ir.InstFNeg](results[3].Func)) != 1 || len(instsOf[*ir.InstUIToFP](results[3].Func)) != 1 {
		t.Error("built-in unary operators were not lowered")
	}
}

func TestUniqueLocalNames(t *testing.T) {
	_, g := newTestContext(t, nil)
	results := compile(t, g, "function f(a): if a then (if a then 1 else 2) else a + a + a")
	expectErrors(t, g)

	if results[0].Func == nil {
		t.Fatal("definition failed")
	}

	if err := verifyFunc(results[0].Func); err != nil {
		t.Error(err)
	}
}

func TestUserOperators(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	results := compile(t, g, `
function binary| 5 (a, b): if a then 1 else if b then 1 else 0
function unary~(v): 0 - v
function t(a, b): ~a | b
`)
	expectErrors(t, g)

	var callees []string
	for _, call := range instsOf[*ir.InstCall](results[2].Func) {
		callees = append(callees, call.Callee.(*ir.Func).Name())
	}

	if strings.Join(callees, ",") != "llvm.dbg.declare,llvm.dbg.declare,unary~,binary|" {
		t.Errorf("wrong operator calls: %v", callees)
	}

	if ctx.LookupFunc("binary|") == nil {
		t.Error("operator function missing from the module")
	}
}

func TestExpressionErrors(t *testing.T) {
	tests := []struct {
		name string
		body ast.Expr
		msg  string
	}{
		{
			"unknown binary operator",
			&ast.BinaryExpr{ASTBase: ast.NewASTBaseAt(1, 1), Op: "%", Lhs: num(1), Rhs: num(2)},
			"invalid binary operator",
		},
		{
			"unknown unary operator",
			&ast.UnaryExpr{ASTBase: ast.NewASTBaseAt(1, 1), Op: "~", Operand: num(1)},
			"unknown unary operator",
		},
		{
			"assignment to a non-variable",
			&ast.BinaryExpr{ASTBase: ast.NewASTBaseAt(1, 1), Op: "=", Lhs: num(1), Rhs: num(2)},
			"destination of `=`",
		},
		{
			"wrong arity",
			&ast.CallExpr{ASTBase: ast.NewASTBaseAt(1, 1), Callee: "id", Args: []ast.Expr{num(1), num(2)}},
			"incorrect number of arguments passed",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, g := newTestContext(t, nil)
			compile(t, g, "function id(a): a")
			numFuncs := len(ctx.Mod.Funcs)

			g.Visit(&ast.Function{
				ASTBase: ast.NewASTBaseAt(1, 1),
				Proto:   &ast.Prototype{ASTBase: ast.NewASTBaseAt(1, 1), Name: "broken"},
				Body:    test.body,
			})

			expectErrors(t, g, test.msg)

			if ctx.LookupFunc("broken") != nil || len(ctx.Mod.Funcs) != numFuncs {
				t.Error("failed definition left a trace")
			}
		})
	}
}

func num(v float64) ast.Expr {
	return &ast.NumberExpr{ASTBase: ast.NewASTBaseAt(1, 1), Value: v}
}

func TestPrototypeVisit(t *testing.T) {
	ctx, g := newTestContext(t, nil)

	marker := constant.NewFloat(types.Double, 42)
	g.result.Value = marker

	proto := &ast.Prototype{Name: "cos", Params: []string{"x"}}
	g.Visit(proto)

	if g.Result().Func != nil || g.Result().Value != marker {
		t.Error("prototype visit changed the result value or set a function")
	}

	registered, ok := ctx.Registry.Resolve("cos")
	if !ok || registered == proto {
		t.Error("registry should hold its own copy of the prototype")
	}
}

func TestIdempotence(t *testing.T) {
	nodes := parse(t, `
function add_one(a): a + 1
function fib(x): if x < 3 then 1 else fib(x - 1) + fib(x - 2)
function bad(a): nope
add_one(fib(5))
`)

	dump := func() ([]string, []string) {
		ctx, g := newTestContext(t, nil)
		visitAll(g, nodes)
		ctx.Finalize()

		var funcs, mds []string
		for _, f := range ctx.Mod.Funcs {
			funcs = append(funcs, f.LLString())
		}

		for _, def := range ctx.Mod.MetadataDefs {
			mds = append(mds, def.LLString())
		}

		return funcs, mds
	}

	funcs1, mds1 := dump()
	funcs2, mds2 := dump()

	if strings.Join(funcs1, "\n") != strings.Join(funcs2, "\n") {
		t.Errorf("functions differ:\n%s\n---\n%s", strings.Join(funcs1, "\n"), strings.Join(funcs2, "\n"))
	}

	if strings.Join(mds1, "\n") != strings.Join(mds2, "\n") {
		t.Error("debug metadata differs")
	}

	if len(nodes[0].(*ast.Function).Proto.Params) != 1 {
		t.Error("compilation mutated the tree")
	}
}

func TestBootstrap(t *testing.T) {
	ctx, _ := newTestContext(t, nil)
	if n := len(ctx.Mod.NamedMetadataDefs["llvm.module.flags"].Nodes); n != 1 {
		t.Errorf("expected 1 module flag on linux, got %d", n)
	}

	if ctx.Mod.TargetTriple != testTriple || ctx.Mod.DataLayout == "" {
		t.Error("target not recorded in the module")
	}

	if ctx.CU.Producer != "Arx Compiler" || ctx.CU.File.Filename != "fib.arxks" || ctx.CU.IsOptimized {
		t.Errorf("wrong compile unit: %+v", ctx.CU)
	}

	darwin, _ := newTestContext(t, func(cfg *config.Config) { cfg.Triple = "arm64-apple-darwin" })
	if n := len(darwin.Mod.NamedMetadataDefs["llvm.module.flags"].Nodes); n != 2 {
		t.Errorf("expected 2 module flags on darwin, got %d", n)
	}

	cfg := config.Default()
	cfg.Triple = "sparc-sun-solaris"
	if _, err := Bootstrap(cfg); err == nil {
		t.Error("bootstrap accepted an unknown target")
	}
}

func TestWriteModule(t *testing.T) {
	ctx, g := newTestContext(t, nil)
	compile(t, g, "function add_one(a):\n  a + 1\n\nadd_one(1);")

	buff := &bytes.Buffer{}
	if _, err := ctx.WriteTo(buff); err == nil {
		t.Error("module written before finalization")
	}

	ctx.Finalize()
	if _, err := ctx.WriteTo(buff); err != nil {
		t.Fatalf("write failed: %s", err)
	}

	out := buff.String()
	for _, expected := range []string{
		"@add_one(double %a)",
		"fadd double",
		"@llvm.dbg.declare",
		"!llvm.dbg.cu",
		"DILocalVariable",
		`!"Debug Info Version"`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("output is missing %s", expected)
		}
	}
}
