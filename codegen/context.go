package codegen

import (
	"fmt"
	"io"

	"github.com/fenix-project/arx/ast"
	"github.com/fenix-project/arx/config"
	"github.com/fenix-project/arx/dibuild"
	"github.com/fenix-project/arx/target"
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
)

// DebugInfoVersion is the version of the debug metadata schema emitted.
const DebugInfoVersion = 3

// Context owns the module being generated and all state that spans top-level
// inputs: the debug info builder, the compile unit and the function registry.
// A context must not be shared between goroutines.
type Context struct {
	// Mod is the module being generated.
	Mod *ir.Module

	// DI builds the debug metadata of Mod.
	DI *dibuild.DIBuilder

	// CU is the compile unit of Mod.
	CU *metadata.DICompileUnit

	// Target is the target Mod is generated for.
	Target *target.Target

	// Registry holds the prototypes of every function seen so far.
	Registry *Registry

	cfg *config.Config

	// retireCounts is the number of times each function name has been retired.
	retireCounts map[string]int
}

// Bootstrap creates a new context: it initializes the target table, creates an
// empty module with its module flags and creates the debug compile unit.  If
// cfg is nil, the default configuration is used.
func Bootstrap(cfg *config.Config) (*Context, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	target.Initialize()
	tgt, err := target.Lookup(cfg.Triple)
	if err != nil {
		return nil, err
	}

	mod := ir.NewModule()
	mod.SourceFilename = cfg.SourceFile
	mod.TargetTriple = tgt.Triple
	mod.DataLayout = tgt.DataLayout

	di := dibuild.NewDIBuilder(mod)
	di.AddModuleFlag(dibuild.FlagWarning, "Debug Info Version", DebugInfoVersion)

	// Darwin only supports DWARF version 2.
	if tgt.IsDarwin() {
		di.AddModuleFlag(dibuild.FlagWarning, "Dwarf Version", 2)
	}

	cu := di.NewCompileUnit(
		di.NewFile(cfg.SourceFile, cfg.SourceDir),
		enum.DwarfLangC,
		enum.EmissionKindFullDebug,
		dibuild.CompileUnitOptions{Producer: cfg.Producer},
	)

	return &Context{
		Mod:          mod,
		DI:           di,
		CU:           cu,
		Target:       tgt,
		Registry:     NewRegistry(),
		cfg:          cfg,
		retireCounts: make(map[string]int),
	}, nil
}

// Finalize seals the debug info of the module.  It must be called once all
// input has been generated and before the module is written.
func (ctx *Context) Finalize() {
	ctx.DI.Finalize()
}

// WriteTo writes the textual IR of the module to w.
func (ctx *Context) WriteTo(w io.Writer) (int64, error) {
	if !ctx.DI.Finalized() {
		return 0, fmt.Errorf("module written before debug info was finalized")
	}

	return ctx.Mod.WriteTo(w)
}

// -----------------------------------------------------------------------------

// LookupFunc returns the module function with the given name.
func (ctx *Context) LookupFunc(name string) *ir.Func {
	for _, f := range ctx.Mod.Funcs {
		if f.Name() == name {
			return f
		}
	}

	return nil
}

// declare adds a declaration matching proto to the module.
func (ctx *Context) declare(proto *ast.Prototype) *ir.Func {
	params := make([]*ir.Param, len(proto.Params))
	for i, name := range proto.Params {
		params[i] = ir.NewParam(name, types.Double)
	}

	return ctx.Mod.NewFunc(proto.Name, types.Double, params...)
}

// retire renames f to a fresh `name.N` so the canonical name can be given to
// a new function.  Existing call sites keep referring to f.
func (ctx *Context) retire(f *ir.Func) string {
	name := f.Name()

	for {
		ctx.retireCounts[name]++

		retiredName := fmt.Sprintf("%s.%d", name, ctx.retireCounts[name])
		if ctx.LookupFunc(retiredName) == nil {
			f.SetName(retiredName)
			return name
		}
	}
}

// unretire restores the canonical name of a function retired by the most
// recent call to retire.
func (ctx *Context) unretire(f *ir.Func, name string) {
	f.SetName(name)
	ctx.retireCounts[name]--
}
