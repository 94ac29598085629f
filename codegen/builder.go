package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"golang.org/x/exp/slices"
)

// irBuilder is the insertion cursor of the function being generated.  Every
// instruction it emits carries the current debug location, if one is set.
type irBuilder struct {
	fn    *ir.Func
	block *ir.Block

	// loc is the current debug location.  nil means no location.
	loc *metadata.DILocation

	// used is the set of local names already taken in fn.
	used map[string]bool
}

func newIRBuilder(fn *ir.Func) *irBuilder {
	return &irBuilder{fn: fn, used: make(map[string]bool)}
}

// name returns a local name based on base that is unique within the function.
func (b *irBuilder) name(base string) string {
	name := base
	for i := 1; b.used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}

	b.used[name] = true
	return name
}

// newBlock creates a block that is not yet part of the function.  Blocks are
// attached with appendBlock once code is about to be emitted into them so the
// block order follows the source.
func (b *irBuilder) newBlock(base string) *ir.Block {
	return ir.NewBlock(b.name(base))
}

// appendBlock attaches block to the function and moves the cursor to its end.
func (b *irBuilder) appendBlock(block *ir.Block) {
	block.Parent = b.fn
	b.fn.Blocks = append(b.fn.Blocks, block)
	b.block = block
}

// entryAlloca creates a `double` stack slot in the entry block.  Slots are
// placed after the slots already there and carry no debug location.
func (b *irBuilder) entryAlloca(name string) *ir.InstAlloca {
	entry := b.fn.Blocks[0]

	slot := ir.NewAlloca(types.Double)
	slot.SetName(b.name(name))

	pos := 0
	for pos < len(entry.Insts) {
		if _, ok := entry.Insts[pos].(*ir.InstAlloca); !ok {
			break
		}

		pos++
	}

	entry.Insts = slices.Insert(entry.Insts, pos, ir.Instruction(slot))
	return slot
}

// -----------------------------------------------------------------------------

func (b *irBuilder) fadd(x, y value.Value, name string) value.Value {
	inst := b.block.NewFAdd(x, y)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) fsub(x, y value.Value, name string) value.Value {
	inst := b.block.NewFSub(x, y)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) fmul(x, y value.Value, name string) value.Value {
	inst := b.block.NewFMul(x, y)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) fdiv(x, y value.Value, name string) value.Value {
	inst := b.block.NewFDiv(x, y)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) fneg(x value.Value, name string) value.Value {
	inst := b.block.NewFNeg(x)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) fcmp(pred enum.FPred, x, y value.Value, name string) value.Value {
	inst := b.block.NewFCmp(pred, x, y)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

// boolToDouble converts an `i1` into 0.0 or 1.0.
func (b *irBuilder) boolToDouble(x value.Value, name string) value.Value {
	inst := b.block.NewUIToFP(x, types.Double)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

// isTrue compares a double against 0.0 yielding an `i1`.
func (b *irBuilder) isTrue(x value.Value, name string) value.Value {
	return b.fcmp(enum.FPredONE, x, zero(), name)
}

func (b *irBuilder) load(slot *ir.InstAlloca, name string) value.Value {
	inst := b.block.NewLoad(types.Double, slot)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) store(x value.Value, slot *ir.InstAlloca) {
	inst := b.block.NewStore(x, slot)
	inst.Metadata = b.attach(inst.Metadata)
}

func (b *irBuilder) call(callee *ir.Func, args []value.Value, name string) value.Value {
	inst := b.block.NewCall(callee, args...)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) phi(name string, incs ...*ir.Incoming) value.Value {
	inst := b.block.NewPhi(incs...)
	inst.SetName(b.name(name))
	inst.Metadata = b.attach(inst.Metadata)
	return inst
}

func (b *irBuilder) br(target *ir.Block) {
	term := b.block.NewBr(target)
	term.Metadata = b.attach(term.Metadata)
}

func (b *irBuilder) condBr(cond value.Value, targetTrue, targetFalse *ir.Block) {
	term := b.block.NewCondBr(cond, targetTrue, targetFalse)
	term.Metadata = b.attach(term.Metadata)
}

func (b *irBuilder) ret(x value.Value) {
	term := b.block.NewRet(x)
	term.Metadata = b.attach(term.Metadata)
}

// attach appends the current location to an instruction's attachments.
func (b *irBuilder) attach(mds []*metadata.Attachment) []*metadata.Attachment {
	if b.loc == nil {
		return mds
	}

	return append(mds, &metadata.Attachment{Name: "dbg", Node: b.loc})
}

// zero returns the constant 0.0.
func zero() constant.Constant {
	return constant.NewFloat(types.Double, 0)
}
