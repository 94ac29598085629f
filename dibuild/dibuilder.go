// Package dibuild builds DWARF debug metadata for an LLVM IR module.  It plays
// the role of LLVM's DIBuilder for modules built with llir: it numbers every
// metadata definition it creates, uniques locations and basic types, and can
// roll the module's metadata back to an earlier checkpoint.
package dibuild

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/exp/slices"
)

// FlagWarning is the module flag behavior that warns when modules with
// different values are linked.
const FlagWarning = 2

// CompileUnitOptions are the optional fields of a compile unit.
type CompileUnitOptions struct {
	Producer       string
	Optimized      bool
	Flags          string
	RuntimeVersion uint64
}

// locKey identifies a uniqued debug location.
type locKey struct {
	line, col int64
	scope     metadata.Field
}

// DIBuilder creates the debug metadata of a module.
type DIBuilder struct {
	mod *ir.Module

	// nextID is the ID given to the next metadata definition.
	nextID int64

	cu *metadata.DICompileUnit

	basicTypes map[string]*metadata.DIBasicType
	locations  map[locKey]*metadata.DILocation

	// declareFn is `llvm.dbg.declare`.  It is declared on first use.
	declareFn *ir.Func

	finalized bool
}

// NewDIBuilder creates a new debug info builder bound to mod.
func NewDIBuilder(mod *ir.Module) *DIBuilder {
	return &DIBuilder{
		mod:        mod,
		basicTypes: make(map[string]*metadata.DIBasicType),
		locations:  make(map[locKey]*metadata.DILocation),
	}
}

// define numbers a metadata definition and adds it to the module.
func (b *DIBuilder) define(def metadata.Definition) {
	def.SetID(b.nextID)
	b.nextID++

	b.mod.MetadataDefs = append(b.mod.MetadataDefs, def)
}

// AddModuleFlag appends an integer flag to `llvm.module.flags`.
func (b *DIBuilder) AddModuleFlag(behavior int64, key string, val int64) {
	flag := &metadata.Tuple{
		Fields: []metadata.Field{
			constant.NewInt(types.I32, behavior),
			&metadata.String{Value: key},
			constant.NewInt(types.I32, val),
		},
	}
	b.define(flag)

	b.appendNamed("llvm.module.flags", flag)
}

func (b *DIBuilder) appendNamed(name string, node metadata.Node) {
	if b.mod.NamedMetadataDefs == nil {
		b.mod.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}

	nd, ok := b.mod.NamedMetadataDefs[name]
	if !ok {
		nd = &metadata.NamedDef{Name: name}
		b.mod.NamedMetadataDefs[name] = nd
	}

	nd.Nodes = append(nd.Nodes, node)
}

// -----------------------------------------------------------------------------

// NewFile creates a file descriptor.
func (b *DIBuilder) NewFile(filename, directory string) *metadata.DIFile {
	file := &metadata.DIFile{
		Filename:  filename,
		Directory: directory,
	}
	b.define(file)

	return file
}

// NewCompileUnit creates the compile unit of the module.  A module has exactly
// one compile unit.
func (b *DIBuilder) NewCompileUnit(file *metadata.DIFile, lang enum.DwarfLang, kind enum.EmissionKind, opts CompileUnitOptions) *metadata.DICompileUnit {
	if b.cu != nil {
		panic("compile unit already created")
	}

	b.cu = &metadata.DICompileUnit{
		Distinct:       true,
		Language:       lang,
		File:           file,
		Producer:       opts.Producer,
		IsOptimized:    opts.Optimized,
		Flags:          opts.Flags,
		RuntimeVersion: opts.RuntimeVersion,
		EmissionKind:   kind,
	}
	b.define(b.cu)

	return b.cu
}

// CompileUnit returns the compile unit of the module.
func (b *DIBuilder) CompileUnit() *metadata.DICompileUnit {
	return b.cu
}

// NewBasicType returns the basic type descriptor of the given name, creating
// it on first use.
func (b *DIBuilder) NewBasicType(name string, bitSize uint64, encoding enum.DwarfAttEncoding) *metadata.DIBasicType {
	if bt, ok := b.basicTypes[name]; ok {
		return bt
	}

	bt := &metadata.DIBasicType{
		Name:     name,
		Size:     bitSize,
		Encoding: encoding,
	}
	b.define(bt)

	b.basicTypes[name] = bt
	return bt
}

// NewSubroutineType creates a subroutine type.  The first element is the
// return type followed by the parameter types.
func (b *DIBuilder) NewSubroutineType(elems ...metadata.Field) *metadata.DISubroutineType {
	typeArray := &metadata.Tuple{Fields: elems}
	b.define(typeArray)

	st := &metadata.DISubroutineType{Types: typeArray}
	b.define(st)

	return st
}

// NewFunction creates a subprogram describing a function definition.
func (b *DIBuilder) NewFunction(scope metadata.Field, name string, file *metadata.DIFile, line int64, typ *metadata.DISubroutineType, scopeLine int64, flags enum.DIFlag) *metadata.DISubprogram {
	sp := &metadata.DISubprogram{
		Distinct:  true,
		Scope:     scope,
		Name:      name,
		File:      file,
		Line:      line,
		Type:      typ,
		ScopeLine: scopeLine,
		Flags:     flags,
		SPFlags:   enum.DISPFlagDefinition,
		Unit:      b.cu,
	}
	b.define(sp)

	return sp
}

// NewParameterVariable creates a descriptor for a function parameter.
// argNo is 1-based.
func (b *DIBuilder) NewParameterVariable(scope metadata.Field, name string, argNo uint64, file *metadata.DIFile, line int64, typ metadata.Field) *metadata.DILocalVariable {
	lv := &metadata.DILocalVariable{
		Scope: scope,
		Name:  name,
		Arg:   argNo,
		File:  file,
		Line:  line,
		Type:  typ,
	}
	b.define(lv)

	return lv
}

// NewExpression creates an empty address expression.  Expressions are printed
// inline.
func (b *DIBuilder) NewExpression() *metadata.DIExpression {
	expr := &metadata.DIExpression{}
	expr.SetID(-1)

	return expr
}

// NewLocation returns the uniqued location for a line and column in scope.
func (b *DIBuilder) NewLocation(line, col int64, scope metadata.Field) *metadata.DILocation {
	key := locKey{line, col, scope}
	if loc, ok := b.locations[key]; ok {
		return loc
	}

	loc := &metadata.DILocation{
		Line:   line,
		Column: col,
		Scope:  scope,
	}
	b.define(loc)

	b.locations[key] = loc
	return loc
}

// InsertDeclareAtEnd appends a call to `llvm.dbg.declare` describing storage
// as variable v to the end of block.
func (b *DIBuilder) InsertDeclareAtEnd(block *ir.Block, storage value.Value, v *metadata.DILocalVariable, expr *metadata.DIExpression, loc *metadata.DILocation) *ir.InstCall {
	if b.declareFn == nil {
		b.declareFn = b.mod.NewFunc(
			"llvm.dbg.declare",
			types.Void,
			ir.NewParam("", types.Metadata),
			ir.NewParam("", types.Metadata),
			ir.NewParam("", types.Metadata),
		)
	}

	call := block.NewCall(
		b.declareFn,
		&metadata.Value{Value: storage},
		&metadata.Value{Value: v},
		&metadata.Value{Value: expr},
	)

	if loc != nil {
		call.Metadata = append(call.Metadata, &metadata.Attachment{Name: "dbg", Node: loc})
	}

	return call
}

// -----------------------------------------------------------------------------

// Checkpoint records the metadata state of the module.
type Checkpoint struct {
	nextID      int64
	numDefs     int
	hadDeclare  bool
	numBasicTys int
}

// Checkpoint returns a checkpoint that a later Rollback can restore.
func (b *DIBuilder) Checkpoint() Checkpoint {
	return Checkpoint{
		nextID:      b.nextID,
		numDefs:     len(b.mod.MetadataDefs),
		hadDeclare:  b.declareFn != nil,
		numBasicTys: len(b.basicTypes),
	}
}

// Rollback removes every metadata definition created since cp along with the
// `llvm.dbg.declare` declaration if it was introduced after cp.
func (b *DIBuilder) Rollback(cp Checkpoint) {
	b.mod.MetadataDefs = b.mod.MetadataDefs[:cp.numDefs]
	b.nextID = cp.nextID

	for key, loc := range b.locations {
		if loc.ID() >= cp.nextID {
			delete(b.locations, key)
		}
	}

	if len(b.basicTypes) != cp.numBasicTys {
		for name, bt := range b.basicTypes {
			if bt.ID() >= cp.nextID {
				delete(b.basicTypes, name)
			}
		}
	}

	if !cp.hadDeclare && b.declareFn != nil {
		if ndx := slices.Index(b.mod.Funcs, b.declareFn); ndx != -1 {
			b.mod.Funcs = slices.Delete(b.mod.Funcs, ndx, ndx+1)
		}

		b.declareFn = nil
	}
}

// Finalize seals the debug info of the module by publishing its compile unit
// in `llvm.dbg.cu`.  Only the first call has any effect.
func (b *DIBuilder) Finalize() {
	if b.finalized || b.cu == nil {
		return
	}

	b.appendNamed("llvm.dbg.cu", b.cu)
	b.finalized = true
}

// Finalized returns whether Finalize has been called.
func (b *DIBuilder) Finalized() bool {
	return b.finalized
}
