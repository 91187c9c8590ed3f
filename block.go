package pallas

import (
	"fmt"

	"github.com/kallory/pallas/ascii"
)

// CodeBlock is one compiled unit: a flat instruction sequence plus the
// layout its frame is built against. A module, a function body and a
// lambda body each compile to their own CodeBlock; nested FuncDefs produce
// a child CodeBlock referenced by value from a lambdaInstr instruction
// in the parent.
//
// Grounded on original_source/block.h, generalized from a fixed-size
// Instr* vector to a slice of the Instruction interface, and extended
// with the bookkeeping original_source split across CodeBlock/Function:
// parameter names, whether the frame needs a heap environment (for
// closures), and whether the block is a generator body.
type CodeBlock struct {
	instrs []Instruction
	layout *Layout

	Params    []Name
	RestParam Name // zero Name if the block takes no *rest parameter; its slot is len(Params)
	NumLocals int
	NeedsEnv  bool
	IsGen     bool

	// classAttrNames maps a class body's local slot index to the
	// attribute name it should become once MakeClassFromFrame runs the
	// body and harvests its locals into the new Class's own slots.
	classAttrNames []Name

	posMap map[int]Range // instruction index -> source range, for tracebacks
}

func newBlock(layout *Layout) *CodeBlock {
	return &CodeBlock{layout: layout, posMap: map[int]Range{}}
}

func (b *CodeBlock) append(instr Instruction, rg Range) int {
	idx := len(b.instrs)
	b.instrs = append(b.instrs, instr)
	b.posMap[idx] = rg
	return idx
}

func (b *CodeBlock) instrCount() int { return len(b.instrs) }

func (b *CodeBlock) at(i int) Instruction { return b.instrs[i] }

// patchJumpHere rewrites the target of a previously-emitted jump
// instruction to point at the next instruction to be appended, the Go
// analogue of original_source's Block::branchHere.
func (b *CodeBlock) patchJumpHere(at int) {
	b.patchJumpTo(at, len(b.instrs))
}

func (b *CodeBlock) patchJumpTo(at, target int) {
	switch instr := b.instrs[at].(type) {
	case *jumpInstr:
		instr.Target = target
	case *jumpIfFalseInstr:
		instr.Target = target
	case *jumpIfTrueInstr:
		instr.Target = target
	case *forIterInstr:
		instr.Target = target
	case *setupExceptInstr:
		instr.Target = target
	case *setupFinallyInstr:
		instr.Target = target
	case *loopControlJumpInstr:
		instr.Target = target
	default:
		panic(fmt.Sprintf("patchJump: instruction %d is not a jump (%T)", at, instr))
	}
}

// rangeAt returns the source range recorded for instruction i, used to
// annotate a raised exception with a location.
func (b *CodeBlock) rangeAt(i int) Range {
	return b.posMap[i]
}

// disassemble renders one instruction per line with the address and
// operator/operand colored per theme; Program.Disassemble exposes it.
func (b *CodeBlock) disassemble(theme ascii.Theme) string {
	var out string
	for i, instr := range b.instrs {
		out += ascii.Color(theme.Muted, "%4d  ", i) + instr.String() + "\n"
	}
	return out
}
