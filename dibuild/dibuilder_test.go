package dibuild

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

func newTestBuilder() (*ir.Module, *DIBuilder) {
	mod := ir.NewModule()
	b := NewDIBuilder(mod)
	b.AddModuleFlag(FlagWarning, "Debug Info Version", 3)

	file := b.NewFile("test.arx", ".")
	b.NewCompileUnit(file, enum.DwarfLangC, enum.EmissionKindFullDebug, CompileUnitOptions{Producer: "Arx Compiler"})

	return mod, b
}

func TestDefinitionIDs(t *testing.T) {
	mod, b := newTestBuilder()

	for i, def := range mod.MetadataDefs {
		if def.ID() != int64(i) {
			t.Errorf("definition %d has ID %d", i, def.ID())
		}
	}

	if b.CompileUnit() == nil || b.CompileUnit().File.Filename != "test.arx" {
		t.Fatal("compile unit not created")
	}
}

func TestUniquing(t *testing.T) {
	mod, b := newTestBuilder()
	cu := b.CompileUnit()

	d1 := b.NewBasicType("double", 64, enum.DwarfAttEncodingFloat)
	d2 := b.NewBasicType("double", 64, enum.DwarfAttEncodingFloat)
	if d1 != d2 {
		t.Error("basic types are not uniqued")
	}

	l1 := b.NewLocation(3, 4, cu)
	l2 := b.NewLocation(3, 4, cu)
	l3 := b.NewLocation(3, 5, cu)
	if l1 != l2 || l1 == l3 {
		t.Error("locations are not uniqued by line, column and scope")
	}

	if len(mod.MetadataDefs) != 6 {
		t.Errorf("expected 6 definitions, got %d", len(mod.MetadataDefs))
	}
}

func TestRollback(t *testing.T) {
	mod, b := newTestBuilder()
	file := b.CompileUnit().File

	before := len(mod.MetadataDefs)
	cp := b.Checkpoint()

	double := b.NewBasicType("double", 64, enum.DwarfAttEncodingFloat)
	st := b.NewSubroutineType(double, double)
	sp := b.NewFunction(file, "f", file, 1, st, 1, enum.DIFlagPrototyped)
	lv := b.NewParameterVariable(sp, "a", 1, file, 1, double)
	loc := b.NewLocation(1, 0, sp)

	fn := mod.NewFunc("f", types.Double, ir.NewParam("a", types.Double))
	entry := fn.NewBlock("entry")
	slot := entry.NewAlloca(types.Double)
	b.InsertDeclareAtEnd(entry, slot, lv, b.NewExpression(), loc)

	if len(mod.Funcs) != 2 {
		t.Fatalf("expected `llvm.dbg.declare` to be declared, got %d functions", len(mod.Funcs))
	}

	b.Rollback(cp)

	if len(mod.MetadataDefs) != before {
		t.Errorf("expected %d definitions after rollback, got %d", before, len(mod.MetadataDefs))
	}

	if len(mod.Funcs) != 1 || mod.Funcs[0] != fn {
		t.Error("`llvm.dbg.declare` survived the rollback")
	}

	// the caches must not hand out rolled back nodes
	if b.NewBasicType("double", 64, enum.DwarfAttEncodingFloat) == double {
		t.Error("basic type cache survived the rollback")
	}

	if b.NewLocation(1, 0, sp) == loc {
		t.Error("location cache survived the rollback")
	}

	// numbering continues where the checkpoint left off
	if id := mod.MetadataDefs[before].ID(); id != int64(before) {
		t.Errorf("expected ID %d after rollback, got %d", before, id)
	}
}

func TestFinalize(t *testing.T) {
	mod, b := newTestBuilder()

	if _, ok := mod.NamedMetadataDefs["llvm.dbg.cu"]; ok {
		t.Fatal("compile unit published before finalization")
	}

	b.Finalize()
	b.Finalize()

	cus := mod.NamedMetadataDefs["llvm.dbg.cu"]
	if cus == nil || len(cus.Nodes) != 1 {
		t.Fatal("expected exactly one compile unit in `llvm.dbg.cu`")
	}

	if !b.Finalized() {
		t.Error("builder not marked finalized")
	}

	out := mod.String()
	for _, expected := range []string{
		"!llvm.module.flags",
		"!llvm.dbg.cu",
		`!"Debug Info Version"`,
		"distinct !DICompileUnit(",
		`producer: "Arx Compiler"`,
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("module output is missing %s:\n%s", expected, out)
		}
	}
}

func TestDeclareAttachment(t *testing.T) {
	mod, b := newTestBuilder()
	cu := b.CompileUnit()

	double := b.NewBasicType("double", 64, enum.DwarfAttEncodingFloat)
	lv := b.NewParameterVariable(cu, "x", 1, cu.File, 2, double)
	loc := b.NewLocation(2, 0, cu)

	fn := mod.NewFunc("g", types.Double)
	entry := fn.NewBlock("entry")
	call := b.InsertDeclareAtEnd(entry, entry.NewAlloca(types.Double), lv, b.NewExpression(), loc)

	if len(call.Args) != 3 {
		t.Fatalf("expected 3 arguments, got %d", len(call.Args))
	}

	var found bool
	for _, md := range call.Metadata {
		if md.Name == "dbg" && md.Node == loc {
			found = true
		}
	}

	if !found {
		t.Error("declare call carries no location")
	}
}
