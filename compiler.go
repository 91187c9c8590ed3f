package pallas

import "math/big"

// scopeKind distinguishes the three lexical contexts the compiler builds a
// Frame-backed CodeBlock for: a module runs directly against vm.globals, a
// function/lambda body gets its own local slots and can close over an
// enclosing function's locals, and a class body runs as a throwaway Frame
// whose locals MakeClassFromFrame harvests into the new Class's attributes.
type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClassBody
)

// regionKind distinguishes the two kinds of exception region a break,
// continue or return might cross on its way out: an except region's
// finally-duplication is a no-op (nothing to run), a finally region's
// body must be inline-compiled once more for its side effects.
type regionKind int

const (
	regionExcept regionKind = iota
	regionFinally
)

type regionInfo struct {
	kind        regionKind
	finallyBody *Block
}

// loopInfo tracks the state a break/continue inside the innermost loop
// needs: where `continue` jumps to, how many regions were open when the
// loop started (so break/continue know how many to cross), the list of
// break jumps still waiting for the loop's exit address, and whether this
// is a for-loop (whose break must additionally pop the live iterator,
// since forIterInstr only auto-pops it when the loop exhausts naturally).
type loopInfo struct {
	continueTarget    int
	regionDepthAtEntry int
	breakPatches      []int
	isForLoop         bool
}

// scope is one lexical frame-to-be: its kind, the local-slot assignment
// for names that live in this frame, the subset of those names explicitly
// declared global/nonlocal, the parent scope (nil at module level), the
// CodeBlock being built, the next free scratch slot, and the loop/region
// stacks used by control-flow statements.
type scope struct {
	kind   scopeKind
	parent *scope
	block  *CodeBlock

	names         map[Name]int
	globalNames   map[Name]bool
	nonlocalNames map[Name]bool

	nextSlot int

	loops   []*loopInfo
	regions []regionInfo
}

func (s *scope) allocTemp() int {
	slot := s.nextSlot
	s.nextSlot++
	if s.nextSlot > s.block.NumLocals {
		s.block.NumLocals = s.nextSlot
	}
	return slot
}

// compiler walks a parsed Block and emits a CodeBlock, implementing every
// Visitor method directly (rather than embedding BaseVisitor) so the Go
// compiler itself flags any node kind left unhandled. Grounded on
// original_source/compiler.cpp's single-pass AST-to-bytecode walk,
// generalized with the scope-chain bookkeeping an upvalue/closure model
// needs that the original's flat namespace didn't.
type compiler struct {
	file string
	idx  *LineIndex
	cur  *scope
}

// CompileModule parses src and compiles it to a module-level CodeBlock:
// the bytecode pushes None, then for every top-level expression statement
// swaps in the freshly computed value as the module's running result —
// the value Program.Run reports back to a caller or REPL.
func CompileModule(file, src string) (*CodeBlock, error) {
	body, err := ParseModule(file, src)
	if err != nil {
		return nil, err
	}
	idx := NewLineIndex(file, src)
	c := &compiler{file: file, idx: idx}
	blk := newBlock(EmptyLayout)
	c.cur = &scope{
		kind:          scopeModule,
		block:         blk,
		names:         map[Name]int{},
		globalNames:   map[Name]bool{},
		nonlocalNames: map[Name]bool{},
	}
	c.emit(constInstr{Value: None}, body.Rg)
	if err := c.compileModuleBody(body); err != nil {
		return nil, err
	}
	return blk, nil
}

func (c *compiler) compileModuleBody(b *Block) error {
	for _, s := range b.Stmts {
		if es, ok := s.(*ExprStmt); ok {
			if err := c.compileExpr(es.Expr); err != nil {
				return err
			}
			c.emit(swapInstr{}, es.Rg)
			c.emit(popInstr{}, es.Rg)
			continue
		}
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) err(msg string, rg Range) error {
	return newCompileError("SyntaxError", msg, Span{File: c.file, Range: rg}, c.idx)
}

func (c *compiler) emit(instr Instruction, rg Range) int {
	return c.cur.block.append(instr, rg)
}

func (c *compiler) patchHere(at int) {
	c.cur.block.patchJumpHere(at)
}

func (c *compiler) compileStmt(s Node) error { return s.Accept(c) }
func (c *compiler) compileExpr(e Node) error { return e.Accept(c) }

func (c *compiler) compileBlock(b *Block) error {
	if b == nil {
		return nil
	}
	for _, s := range b.Stmts {
		if err := c.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileOptionalOrNone(e Node) error {
	if e == nil {
		c.emit(constInstr{Value: None}, Range{})
		return nil
	}
	return c.compileExpr(e)
}

// --- name resolution ---

// emitLoadName resolves name against the scope chain. A name given its own
// slot in the current scope (an ordinary local, or the ad-hoc scratch
// binding a list comprehension's loop variable sets up) always wins first,
// even at module scope.
// Otherwise module scope always means Global; a function/class scope walks
// its parents looking for a providing function scope, counting one depth
// per hop (class-body scopes are skipped as providers but still cost a
// hop, since MakeClassFromFrame gives every class body a real runtime
// Frame); reaching module scope or running out of parents without a match
// falls back to Global, covering genuinely free and builtin names.
func (c *compiler) emitLoadName(name Name, rg Range) {
	s := c.cur
	if slot, ok := s.names[name]; ok {
		c.emit(getLocalInstr{Slot: slot}, rg)
		return
	}
	if s.kind == scopeModule {
		c.emit(getGlobalInstr{Name: name}, rg)
		return
	}
	if s.globalNames[name] {
		c.emit(getGlobalInstr{Name: name}, rg)
		return
	}
	depth := 1
	for p := s.parent; p != nil && p.kind != scopeModule; p = p.parent {
		if p.kind == scopeFunction {
			if slot, ok := p.names[name]; ok {
				c.emit(getUpvalInstr{Depth: depth, Slot: slot}, rg)
				return
			}
		}
		depth++
	}
	c.emit(getGlobalInstr{Name: name}, rg)
}

func (c *compiler) emitStoreName(name Name, rg Range) {
	s := c.cur
	if slot, ok := s.names[name]; ok {
		c.emit(setLocalInstr{Slot: slot}, rg)
		return
	}
	if s.kind == scopeModule {
		c.emit(setGlobalInstr{Name: name}, rg)
		return
	}
	if s.globalNames[name] {
		c.emit(setGlobalInstr{Name: name}, rg)
		return
	}
	if s.nonlocalNames[name] {
		depth := 1
		for p := s.parent; p != nil && p.kind != scopeModule; p = p.parent {
			if p.kind == scopeFunction {
				if slot, ok := p.names[name]; ok {
					c.emit(setUpvalInstr{Depth: depth, Slot: slot}, rg)
					return
				}
			}
			depth++
		}
	}
	c.emit(setGlobalInstr{Name: name}, rg)
}

// exceptBindSlot resolves the local slot an except clause's `as name`
// binding writes into. A function/class scope already has a real slot for
// it (findDefinitions registers except-bound names like any other
// assignment target), so it's reused directly. Module scope has no slot
// namespace of its own, so a scratch temp stands in, and the caller must
// additionally copy it to the global `name` binding once bound — module
// code resolves plain names through Global, never through this temp.
func (c *compiler) exceptBindSlot(name Name) (slot int, needsGlobalCopy bool) {
	if c.cur.kind == scopeModule {
		return c.cur.allocTemp(), true
	}
	if slot, ok := c.cur.names[name]; ok {
		return slot, false
	}
	return c.cur.allocTemp(), false
}

// --- literals ---

func (c *compiler) VisitNameExpr(n *NameExpr) error {
	c.emitLoadName(n.Ident, n.Rg)
	return nil
}

func (c *compiler) VisitIntLit(n *IntLit) error {
	text, base := n.Text, 10
	if len(text) > 2 && (text[:2] == "0x" || text[:2] == "0X") {
		text, base = text[2:], 16
	}
	bi, ok := new(big.Int).SetString(text, base)
	if !ok {
		return c.err("invalid integer literal "+n.Text, n.Rg)
	}
	c.emit(constInstr{Value: normalizeBig(bi)}, n.Rg)
	return nil
}

func (c *compiler) VisitFloatLit(n *FloatLit) error {
	c.emit(constInstr{Value: NewFloat(n.Value)}, n.Rg)
	return nil
}

func (c *compiler) VisitStringLit(n *StringLit) error {
	c.emit(constInstr{Value: NewObjectValue(newStringObject(n.Value))}, n.Rg)
	return nil
}

func (c *compiler) VisitBoolLit(n *BoolLit) error {
	c.emit(constInstr{Value: NewBool(n.Value)}, n.Rg)
	return nil
}

func (c *compiler) VisitNoneLit(n *NoneLit) error {
	c.emit(constInstr{Value: None}, n.Rg)
	return nil
}

// --- operators ---

func (c *compiler) VisitBinaryExpr(n *BinaryExpr) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	c.emit(&binaryOpInstr{Op: n.Op}, n.Rg)
	return nil
}

func (c *compiler) VisitBoolOpExpr(n *BoolOpExpr) error {
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	var j int
	if n.Op == tokAnd {
		j = c.emit(&jumpIfFalseInstr{Pop: false}, n.Rg)
	} else {
		j = c.emit(&jumpIfTrueInstr{Pop: false}, n.Rg)
	}
	c.emit(popInstr{}, n.Rg)
	if err := c.compileExpr(n.Right); err != nil {
		return err
	}
	c.patchHere(j)
	return nil
}

func (c *compiler) VisitUnaryExpr(n *UnaryExpr) error {
	if err := c.compileExpr(n.Expr); err != nil {
		return err
	}
	c.emit(unaryOpInstr{Op: n.Op}, n.Rg)
	return nil
}

// VisitCompareExpr lowers a chained comparison (a < b <= c) as a
// conjunction without re-evaluating any operand twice: each link's right
// operand is stashed in a scratch slot and reused as the next link's left
// operand. A single-op comparison skips all of that scaffolding.
func (c *compiler) VisitCompareExpr(n *CompareExpr) error {
	if len(n.Ops) == 1 {
		if err := c.compileExpr(n.Left); err != nil {
			return err
		}
		if err := c.compileExpr(n.Comps[0]); err != nil {
			return err
		}
		c.emit(compareOpInstr{Op: n.Ops[0]}, n.Rg)
		return nil
	}
	tmp := c.cur.allocTemp()
	tmp2 := c.cur.allocTemp()
	if err := c.compileExpr(n.Left); err != nil {
		return err
	}
	c.emit(setLocalInstr{Slot: tmp}, n.Rg)
	var shortJumps []int
	last := len(n.Ops) - 1
	for i, op := range n.Ops {
		c.emit(getLocalInstr{Slot: tmp}, n.Rg)
		if err := c.compileExpr(n.Comps[i]); err != nil {
			return err
		}
		if i < last {
			c.emit(dupInstr{}, n.Rg)
			c.emit(setLocalInstr{Slot: tmp2}, n.Rg)
		}
		c.emit(compareOpInstr{Op: op}, n.Rg)
		if i < last {
			j := c.emit(&jumpIfFalseInstr{Pop: false}, n.Rg)
			shortJumps = append(shortJumps, j)
			c.emit(popInstr{}, n.Rg)
			tmp, tmp2 = tmp2, tmp
		}
	}
	end := c.cur.block.instrCount()
	for _, j := range shortJumps {
		c.cur.block.patchJumpTo(j, end)
	}
	return nil
}

// --- calls and access ---

func (c *compiler) VisitCallExpr(n *CallExpr) error {
	if attr, ok := n.Callee.(*AttrExpr); ok {
		if err := c.compileExpr(attr.Target); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := c.compileExpr(a); err != nil {
				return err
			}
		}
		c.emit(callMethodInstr{Name: attr.Attr, NArgs: len(n.Args)}, n.Rg)
		return nil
	}
	if err := c.compileExpr(n.Callee); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := c.compileExpr(a); err != nil {
			return err
		}
	}
	c.emit(callInstr{NArgs: len(n.Args)}, n.Rg)
	return nil
}

func (c *compiler) VisitAttrExpr(n *AttrExpr) error {
	if err := c.compileExpr(n.Target); err != nil {
		return err
	}
	c.emit(&getMethodInstr{Name: n.Attr}, n.Rg)
	return nil
}

func (c *compiler) VisitSubscriptExpr(n *SubscriptExpr) error {
	if sl, ok := n.Index.(*SliceExpr); ok {
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		if err := c.compileOptionalOrNone(sl.Start); err != nil {
			return err
		}
		if err := c.compileOptionalOrNone(sl.Stop); err != nil {
			return err
		}
		if err := c.compileOptionalOrNone(sl.Step); err != nil {
			return err
		}
		c.emit(sliceInstr{}, n.Rg)
		return nil
	}
	if err := c.compileExpr(n.Target); err != nil {
		return err
	}
	if err := c.compileExpr(n.Index); err != nil {
		return err
	}
	c.emit(getItemInstr{}, n.Rg)
	return nil
}

// VisitSliceExpr handles a slice literal used outside subscript position
// (e.g. passed to a function): it builds an actual slice object via the
// `slice` builtin rather than emitting sliceInstr, which only makes sense
// immediately following a subscript target on the stack.
func (c *compiler) VisitSliceExpr(n *SliceExpr) error {
	c.emit(getGlobalInstr{Name: Intern("slice")}, n.Rg)
	if err := c.compileOptionalOrNone(n.Start); err != nil {
		return err
	}
	if err := c.compileOptionalOrNone(n.Stop); err != nil {
		return err
	}
	if err := c.compileOptionalOrNone(n.Step); err != nil {
		return err
	}
	c.emit(callInstr{NArgs: 3}, n.Rg)
	return nil
}

// --- containers ---

func (c *compiler) VisitListExpr(n *ListExpr) error {
	for _, it := range n.Items {
		if err := c.compileExpr(it); err != nil {
			return err
		}
	}
	c.emit(listInstr{N: len(n.Items)}, n.Rg)
	return nil
}

func (c *compiler) VisitTupleExpr(n *TupleExpr) error {
	for _, it := range n.Items {
		if err := c.compileExpr(it); err != nil {
			return err
		}
	}
	c.emit(tupleInstr{N: len(n.Items)}, n.Rg)
	return nil
}

func (c *compiler) VisitSetExpr(n *SetExpr) error {
	for _, it := range n.Items {
		if err := c.compileExpr(it); err != nil {
			return err
		}
	}
	c.emit(setInstr{N: len(n.Items)}, n.Rg)
	return nil
}

func (c *compiler) VisitDictExpr(n *DictExpr) error {
	for _, e := range n.Entries {
		if err := c.compileExpr(e.Key); err != nil {
			return err
		}
		if err := c.compileExpr(e.Value); err != nil {
			return err
		}
	}
	c.emit(dictInstr{N: len(n.Entries)}, n.Rg)
	return nil
}

// VisitListCompExpr lowers `[Element for Var in Iter if Ifs...]` to an
// explicit loop building a list in a scratch slot. Var's binding leaks
// into the enclosing scope for the rest of its lifetime (matching Python
// 2's list-comprehension scoping, not Python 3's), which is why its slot
// is registered directly into the current scope's names rather than a
// throwaway never looked up again.
func (c *compiler) VisitListCompExpr(n *ListCompExpr) error {
	resultSlot := c.cur.allocTemp()
	varSlot := c.cur.allocTemp()
	c.cur.names[n.Var] = varSlot

	c.emit(listInstr{N: 0}, n.Rg)
	c.emit(setLocalInstr{Slot: resultSlot}, n.Rg)

	if err := c.compileExpr(n.Iter); err != nil {
		return err
	}
	c.emit(getIterInstr{}, n.Rg)
	loopStart := c.cur.block.instrCount()
	exhausted := c.emit(&forIterInstr{}, n.Rg)
	c.emit(setLocalInstr{Slot: varSlot}, n.Rg)

	var skipJumps []int
	for _, ifExpr := range n.Ifs {
		if err := c.compileExpr(ifExpr); err != nil {
			return err
		}
		j := c.emit(&jumpIfFalseInstr{Pop: true}, n.Rg)
		skipJumps = append(skipJumps, j)
	}

	c.emit(getLocalInstr{Slot: resultSlot}, n.Rg)
	if err := c.compileExpr(n.Element); err != nil {
		return err
	}
	c.emit(callMethodInstr{Name: Intern("append"), NArgs: 1}, n.Rg)
	c.emit(popInstr{}, n.Rg)

	continuePoint := c.cur.block.instrCount()
	for _, j := range skipJumps {
		c.cur.block.patchJumpTo(j, continuePoint)
	}
	c.emit(&jumpInstr{Target: loopStart}, n.Rg)
	c.patchHere(exhausted)
	c.emit(getLocalInstr{Slot: resultSlot}, n.Rg)
	return nil
}

func (c *compiler) VisitLambdaExpr(n *LambdaExpr) error {
	bodyBlock := &Block{Stmts: []Node{&ReturnStmt{Value: n.Body, Rg: n.Rg}}, Rg: n.Rg}
	blk, err := c.compileFunctionBody(n.Params, n.RestParam, bodyBlock, false)
	if err != nil {
		return err
	}
	c.emit(lambdaInstr{Name: Intern("<lambda>"), Block: blk, NDefault: 0}, n.Rg)
	return nil
}

func (c *compiler) VisitCondExpr(n *CondExpr) error {
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	j := c.emit(&jumpIfFalseInstr{Pop: true}, n.Rg)
	if err := c.compileExpr(n.Then); err != nil {
		return err
	}
	end := c.emit(&jumpInstr{}, n.Rg)
	c.patchHere(j)
	if err := c.compileExpr(n.Else); err != nil {
		return err
	}
	c.patchHere(end)
	return nil
}

func (c *compiler) VisitYieldExpr(n *YieldExpr) error {
	if err := c.compileOptionalOrNone(n.Value); err != nil {
		return err
	}
	c.emit(suspendGeneratorInstr{}, n.Rg)
	c.emit(resumeGeneratorInstr{}, n.Rg)
	return nil
}

// --- statements ---

func (c *compiler) VisitBlock(n *Block) error { return c.compileBlock(n) }

func (c *compiler) VisitExprStmt(n *ExprStmt) error {
	if err := c.compileExpr(n.Expr); err != nil {
		return err
	}
	c.emit(popInstr{}, n.Rg)
	return nil
}

func (c *compiler) compileAssignTarget(t Node, rg Range) error {
	switch n := t.(type) {
	case *NameExpr:
		c.emitStoreName(n.Ident, rg)
		return nil
	case *AttrExpr:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		c.emit(setPropInstr{Name: n.Attr}, rg)
		return nil
	case *SubscriptExpr:
		if err := c.compileExpr(n.Target); err != nil {
			return err
		}
		if err := c.compileExpr(n.Index); err != nil {
			return err
		}
		c.emit(setItemInstr{}, rg)
		return nil
	case *TupleExpr:
		return c.compileDestructure(n.Items, rg)
	case *ListExpr:
		return c.compileDestructure(n.Items, rg)
	}
	return c.err("invalid assignment target", rg)
}

// compileDestructure unpacks the container value currently on top of the
// stack into each target in order, raising ValueError if its length
// doesn't match the target count — the one piece of actual semantic work
// beyond plain per-target assignment.
func (c *compiler) compileDestructure(targets []Node, rg Range) error {
	tmp := c.cur.allocTemp()
	c.emit(setLocalInstr{Slot: tmp}, rg)

	c.emit(getLocalInstr{Slot: tmp}, rg)
	c.emit(callMethodInstr{Name: Intern("__len__"), NArgs: 0}, rg)
	c.emit(constInstr{Value: NewInt(int64(len(targets)))}, rg)
	c.emit(compareOpInstr{Op: tokNe}, rg)
	skip := c.emit(&jumpIfFalseInstr{Pop: true}, rg)
	c.emit(getGlobalInstr{Name: Intern("ValueError")}, rg)
	c.emit(constInstr{Value: NewObjectValue(newStringObject("wrong number of values to unpack"))}, rg)
	c.emit(callInstr{NArgs: 1}, rg)
	c.emit(raiseInstr{}, rg)
	c.patchHere(skip)

	for i, t := range targets {
		c.emit(getLocalInstr{Slot: tmp}, rg)
		c.emit(constInstr{Value: NewInt(int64(i))}, rg)
		c.emit(getItemInstr{}, rg)
		if err := c.compileAssignTarget(t, rg); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) VisitAssignStmt(n *AssignStmt) error {
	if err := c.compileExpr(n.Value); err != nil {
		return err
	}
	last := len(n.Targets) - 1
	for i, t := range n.Targets {
		if i < last {
			c.emit(dupInstr{}, n.Rg)
		}
		if err := c.compileAssignTarget(t, n.Rg); err != nil {
			return err
		}
	}
	return nil
}

var augAssignBaseOp = map[tokenKind]tokenKind{
	tokPlusEq:        tokPlus,
	tokMinusEq:       tokMinus,
	tokStarEq:        tokStar,
	tokSlashEq:       tokSlash,
	tokDoubleSlashEq: tokDoubleSlash,
	tokPercentEq:     tokPercent,
	tokDoubleStarEq:  tokDoubleStar,
	tokPipeEq:        tokPipe,
	tokCaretEq:       tokCaret,
	tokAmpEq:         tokAmp,
	tokLShiftEq:      tokLShift,
	tokRShiftEq:      tokRShift,
}

func (c *compiler) VisitAugAssignStmt(n *AugAssignStmt) error {
	baseOp := augAssignBaseOp[n.Op]
	switch t := n.Target.(type) {
	case *NameExpr:
		c.emitLoadName(t.Ident, n.Rg)
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.emit(&binaryOpInstr{Op: baseOp}, n.Rg)
		c.emitStoreName(t.Ident, n.Rg)
		return nil
	case *AttrExpr:
		objSlot := c.cur.allocTemp()
		if err := c.compileExpr(t.Target); err != nil {
			return err
		}
		c.emit(setLocalInstr{Slot: objSlot}, n.Rg)
		c.emit(getLocalInstr{Slot: objSlot}, n.Rg)
		c.emit(&getMethodInstr{Name: t.Attr}, n.Rg)
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.emit(&binaryOpInstr{Op: baseOp}, n.Rg)
		c.emit(getLocalInstr{Slot: objSlot}, n.Rg)
		c.emit(setPropInstr{Name: t.Attr}, n.Rg)
		return nil
	case *SubscriptExpr:
		objSlot := c.cur.allocTemp()
		idxSlot := c.cur.allocTemp()
		if err := c.compileExpr(t.Target); err != nil {
			return err
		}
		c.emit(setLocalInstr{Slot: objSlot}, n.Rg)
		if err := c.compileExpr(t.Index); err != nil {
			return err
		}
		c.emit(setLocalInstr{Slot: idxSlot}, n.Rg)
		c.emit(getLocalInstr{Slot: objSlot}, n.Rg)
		c.emit(getLocalInstr{Slot: idxSlot}, n.Rg)
		c.emit(getItemInstr{}, n.Rg)
		if err := c.compileExpr(n.Value); err != nil {
			return err
		}
		c.emit(&binaryOpInstr{Op: baseOp}, n.Rg)
		c.emit(getLocalInstr{Slot: objSlot}, n.Rg)
		c.emit(getLocalInstr{Slot: idxSlot}, n.Rg)
		c.emit(setItemInstr{}, n.Rg)
		return nil
	}
	return c.err("invalid augmented assignment target", n.Rg)
}

func (c *compiler) VisitIfStmt(n *IfStmt) error {
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	j := c.emit(&jumpIfFalseInstr{Pop: true}, n.Rg)
	if err := c.compileBlock(n.Then); err != nil {
		return err
	}
	var endJumps []int
	endJumps = append(endJumps, c.emit(&jumpInstr{}, n.Rg))
	c.patchHere(j)

	for _, elif := range n.Elifs {
		if err := c.compileExpr(elif.Cond); err != nil {
			return err
		}
		ej := c.emit(&jumpIfFalseInstr{Pop: true}, n.Rg)
		if err := c.compileBlock(elif.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.emit(&jumpInstr{}, n.Rg))
		c.patchHere(ej)
	}

	if err := c.compileBlock(n.Else); err != nil {
		return err
	}
	end := c.cur.block.instrCount()
	for _, j := range endJumps {
		c.cur.block.patchJumpTo(j, end)
	}
	return nil
}

func (c *compiler) VisitWhileStmt(n *WhileStmt) error {
	start := c.cur.block.instrCount()
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	exit := c.emit(&jumpIfFalseInstr{Pop: true}, n.Rg)

	li := &loopInfo{continueTarget: start, regionDepthAtEntry: len(c.cur.regions), isForLoop: false}
	c.cur.loops = append(c.cur.loops, li)
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]

	c.emit(&jumpInstr{Target: start}, n.Rg)
	c.patchHere(exit)
	if err := c.compileBlock(n.Else); err != nil {
		return err
	}
	end := c.cur.block.instrCount()
	for _, j := range li.breakPatches {
		c.cur.block.patchJumpTo(j, end)
	}
	return nil
}

func (c *compiler) VisitForStmt(n *ForStmt) error {
	if err := c.compileExpr(n.Iter); err != nil {
		return err
	}
	c.emit(getIterInstr{}, n.Rg)
	start := c.cur.block.instrCount()
	exhausted := c.emit(&forIterInstr{}, n.Rg)
	c.emitStoreName(n.Var, n.Rg)

	li := &loopInfo{continueTarget: start, regionDepthAtEntry: len(c.cur.regions), isForLoop: true}
	c.cur.loops = append(c.cur.loops, li)
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.cur.loops = c.cur.loops[:len(c.cur.loops)-1]

	c.emit(&jumpInstr{Target: start}, n.Rg)
	c.patchHere(exhausted)
	if err := c.compileBlock(n.Else); err != nil {
		return err
	}
	end := c.cur.block.instrCount()
	for _, j := range li.breakPatches {
		c.cur.block.patchJumpTo(j, end)
	}
	return nil
}

// compileFunctionBody compiles params/restParam/body into their own
// CodeBlock: slots 0..len(params)-1 hold the parameters in order, the
// rest-param (if any) gets the next slot, and every other name
// findDefinitions discovers gets the next free slot after that.
func (c *compiler) compileFunctionBody(params []Name, restParam Name, body *Block, isGen bool) (*CodeBlock, error) {
	d := findDefinitions(body)
	blk := newBlock(EmptyLayout)
	blk.Params = params
	blk.RestParam = restParam
	blk.IsGen = isGen

	sc := &scope{
		kind:          scopeFunction,
		parent:        c.cur,
		block:         blk,
		names:         map[Name]int{},
		globalNames:   map[Name]bool{},
		nonlocalNames: map[Name]bool{},
	}
	for n := range d.globals {
		sc.globalNames[n] = true
	}
	for n := range d.nonlocals {
		sc.nonlocalNames[n] = true
	}

	slot := 0
	for _, p := range params {
		sc.names[p] = slot
		slot++
	}
	if !restParam.IsZero() {
		sc.names[restParam] = slot
		slot++
	}
	for _, name := range d.order {
		if _, ok := sc.names[name]; ok {
			continue
		}
		if sc.globalNames[name] || sc.nonlocalNames[name] {
			continue
		}
		sc.names[name] = slot
		slot++
	}
	sc.nextSlot = slot
	blk.NumLocals = slot
	blk.NeedsEnv = d.hasNestedFn

	saved := c.cur
	c.cur = sc
	err := c.compileBlock(body)
	c.cur = saved
	if err != nil {
		return nil, err
	}
	if len(body.Stmts) == 0 || !endsInReturn(body) {
		if isGen {
			blk.append(leaveGeneratorInstr{}, body.Rg)
		} else {
			blk.append(constInstr{Value: None}, body.Rg)
			blk.append(returnInstr{}, body.Rg)
		}
	}
	return blk, nil
}

// endsInReturn reports whether b's last statement is unconditionally a
// return, letting compileFunctionBody skip appending an implicit
// `return None` when the body already guarantees one. This is a shallow,
// best-effort check (only the literal last statement), not full
// reachability analysis — a harmless redundant trailing return/leave is
// always safe to emit when in doubt.
func endsInReturn(b *Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*ReturnStmt)
	return ok
}

// compileClassBody compiles a class statement's suite into its own
// CodeBlock, slot-per-name in discovery order so classAttrNames can map
// each slot straight back to its attribute name once MakeClassFromFrame
// harvests the body frame's locals.
func (c *compiler) compileClassBody(body *Block) (*CodeBlock, error) {
	d := findDefinitions(body)
	blk := newBlock(EmptyLayout)
	blk.classAttrNames = append([]Name{}, d.order...)
	blk.NeedsEnv = d.hasNestedFn

	sc := &scope{
		kind:          scopeClassBody,
		parent:        c.cur,
		block:         blk,
		names:         map[Name]int{},
		globalNames:   map[Name]bool{},
		nonlocalNames: map[Name]bool{},
	}
	for i, name := range d.order {
		sc.names[name] = i
	}
	sc.nextSlot = len(d.order)
	blk.NumLocals = len(d.order)

	saved := c.cur
	c.cur = sc
	err := c.compileBlock(body)
	c.cur = saved
	if err != nil {
		return nil, err
	}
	return blk, nil
}

func (c *compiler) VisitFuncDef(n *FuncDef) error {
	ndefaults := 0
	for i := len(n.Defaults) - 1; i >= 0; i-- {
		if n.Defaults[i] == nil {
			break
		}
		ndefaults++
	}
	start := len(n.Params) - ndefaults
	for i := start; i < len(n.Params); i++ {
		if err := c.compileExpr(n.Defaults[i]); err != nil {
			return err
		}
	}
	blk, err := c.compileFunctionBody(n.Params, n.RestParam, n.Body, n.IsGen)
	if err != nil {
		return err
	}
	c.emit(lambdaInstr{Name: n.FuncName, Block: blk, NDefault: ndefaults}, n.Rg)
	c.emitStoreName(n.FuncName, n.Rg)
	return nil
}

func (c *compiler) VisitClassDef(n *ClassDef) error {
	for _, b := range n.Bases {
		if err := c.compileExpr(b); err != nil {
			return err
		}
	}
	blk, err := c.compileClassBody(n.Body)
	if err != nil {
		return err
	}
	c.emit(makeClassInstr{Name: n.ClassName, Body: blk, NBases: len(n.Bases)}, n.Rg)
	c.emitStoreName(n.ClassName, n.Rg)
	return nil
}

// crossRegions inline-duplicates every finally body from the innermost
// open region down to (but not including) floor, for a break/continue/
// return statement whose control flow skips the ordinary LeaveFinally
// path. Returns the count of regions crossed, which the caller bakes into
// the emitted loopControlJumpInstr so it can pop that many excStack
// entries at runtime without re-running their bodies.
func (c *compiler) crossRegions(floor int) (int, error) {
	crossed := 0
	for i := len(c.cur.regions) - 1; i >= floor; i-- {
		r := c.cur.regions[i]
		crossed++
		if r.kind == regionFinally && r.finallyBody != nil {
			if err := c.compileBlock(r.finallyBody); err != nil {
				return 0, err
			}
		}
	}
	return crossed, nil
}

func (c *compiler) VisitReturnStmt(n *ReturnStmt) error {
	if c.cur.kind != scopeFunction {
		return c.err("'return' outside function", n.Rg)
	}
	if _, err := c.crossRegions(0); err != nil {
		return err
	}
	if c.cur.block.IsGen {
		if err := c.compileOptionalOrNone(n.Value); err != nil {
			return err
		}
		c.emit(popInstr{}, n.Rg)
		c.emit(leaveGeneratorInstr{}, n.Rg)
		return nil
	}
	if err := c.compileOptionalOrNone(n.Value); err != nil {
		return err
	}
	c.emit(returnInstr{}, n.Rg)
	return nil
}

func (c *compiler) VisitPassStmt(n *PassStmt) error { return nil }

func (c *compiler) VisitBreakStmt(n *BreakStmt) error {
	if len(c.cur.loops) == 0 {
		return c.err("'break' outside loop", n.Rg)
	}
	li := c.cur.loops[len(c.cur.loops)-1]
	if li.isForLoop {
		c.emit(popInstr{}, n.Rg)
	}
	crossed, err := c.crossRegions(li.regionDepthAtEntry)
	if err != nil {
		return err
	}
	j := c.emit(&loopControlJumpInstr{FinallyCount: crossed}, n.Rg)
	li.breakPatches = append(li.breakPatches, j)
	return nil
}

func (c *compiler) VisitContinueStmt(n *ContinueStmt) error {
	if len(c.cur.loops) == 0 {
		return c.err("'continue' outside loop", n.Rg)
	}
	li := c.cur.loops[len(c.cur.loops)-1]
	crossed, err := c.crossRegions(li.regionDepthAtEntry)
	if err != nil {
		return err
	}
	c.emit(&loopControlJumpInstr{FinallyCount: crossed, Target: li.continueTarget}, n.Rg)
	return nil
}

// VisitRaiseStmt lowers `raise expr`. A bare `raise` (re-raise) has no
// active-exception slot to read in this design, so it's approximated as
// raising a fresh RuntimeError — documented as a known simplification.
func (c *compiler) VisitRaiseStmt(n *RaiseStmt) error {
	if n.Value == nil {
		c.emit(getGlobalInstr{Name: Intern("RuntimeError")}, n.Rg)
		c.emit(constInstr{Value: NewObjectValue(newStringObject("No active exception to re-raise"))}, n.Rg)
		c.emit(callInstr{NArgs: 1}, n.Rg)
		c.emit(raiseInstr{}, n.Rg)
		return nil
	}
	if err := c.compileExpr(n.Value); err != nil {
		return err
	}
	c.emit(raiseInstr{}, n.Rg)
	return nil
}

// VisitTryStmt lowers try/except/finally. Two shapes:
//
// finally-only: SetupFinally opens a region around Body (+Else); on the
// normal path Finally runs once, then control jumps past the unwind
// landing pad; the landing pad runs Finally again (without LeaveFinally,
// since the frame is still actively unwinding) and re-raises.
//
// except[+finally]: if there's a Finally, its region opens outermost and
// stays open across the whole except chain; SetupExcept opens innermost
// around Body only, closing immediately after (so break/return crossing
// logic inside a handler body only sees the still-open finally region,
// matching the runtime's own auto-pop-on-landing). Each ExceptClause
// tests its class (if any) via MatchException, binds (if `as name`), runs
// its body, and (if there's a Finally) runs it inline before joining the
// shared end label. An unmatched exception falls through to the open
// finally region's landing pad, which runs Finally once more and
// re-raises.
func (c *compiler) VisitTryStmt(n *TryStmt) error {
	hasFinally := n.Finally != nil
	hasExcepts := len(n.Excepts) > 0

	if hasFinally && !hasExcepts {
		finSetup := c.emit(&setupFinallyInstr{}, n.Rg)
		c.cur.regions = append(c.cur.regions, regionInfo{kind: regionFinally, finallyBody: n.Finally})
		if err := c.compileBlock(n.Body); err != nil {
			return err
		}
		if err := c.compileBlock(n.Else); err != nil {
			return err
		}
		c.cur.regions = c.cur.regions[:len(c.cur.regions)-1]

		if err := c.compileBlock(n.Finally); err != nil {
			return err
		}
		c.emit(leaveFinallyInstr{}, n.Rg)
		normalEnd := c.emit(&jumpInstr{}, n.Rg)

		c.patchHere(finSetup)
		if err := c.compileBlock(n.Finally); err != nil {
			return err
		}
		c.emit(raiseInstr{}, n.Rg)

		c.patchHere(normalEnd)
		return nil
	}

	var finSetup int
	if hasFinally {
		finSetup = c.emit(&setupFinallyInstr{}, n.Rg)
		c.cur.regions = append(c.cur.regions, regionInfo{kind: regionFinally, finallyBody: n.Finally})
	}

	catchSetup := c.emit(&setupExceptInstr{}, n.Rg)
	c.cur.regions = append(c.cur.regions, regionInfo{kind: regionExcept})
	if err := c.compileBlock(n.Body); err != nil {
		return err
	}
	c.cur.regions = c.cur.regions[:len(c.cur.regions)-1]
	c.emit(leaveCatchInstr{}, n.Rg)
	if err := c.compileBlock(n.Else); err != nil {
		return err
	}
	if hasFinally {
		if err := c.compileBlock(n.Finally); err != nil {
			return err
		}
		c.emit(leaveFinallyInstr{}, n.Rg)
	}
	var endJumps []int
	endJumps = append(endJumps, c.emit(&jumpInstr{}, n.Rg))

	c.patchHere(catchSetup)
	for _, ex := range n.Excepts {
		var classJump int
		hasClassTest := ex.ClassExpr != nil
		if hasClassTest {
			if err := c.compileExpr(ex.ClassExpr); err != nil {
				return err
			}
			c.emit(matchExceptionInstr{}, ex.Body.Rg)
			classJump = c.emit(&jumpIfFalseInstr{Pop: true}, ex.Body.Rg)
		}

		bindSlot := -1
		needsGlobalCopy := false
		if !ex.Name.IsZero() {
			bindSlot, needsGlobalCopy = c.exceptBindSlot(ex.Name)
		}
		c.emit(handleExceptionInstr{BindSlot: bindSlot}, ex.Body.Rg)
		if needsGlobalCopy {
			c.emit(getLocalInstr{Slot: bindSlot}, ex.Body.Rg)
			c.emit(setGlobalInstr{Name: ex.Name}, ex.Body.Rg)
		}

		if err := c.compileBlock(ex.Body); err != nil {
			return err
		}
		c.emit(finishHandlerInstr{}, ex.Body.Rg)
		if hasFinally {
			if err := c.compileBlock(n.Finally); err != nil {
				return err
			}
			c.emit(leaveFinallyInstr{}, ex.Body.Rg)
		}
		endJumps = append(endJumps, c.emit(&jumpInstr{}, ex.Body.Rg))
		if hasClassTest {
			c.patchHere(classJump)
		}
	}
	// No clause matched: exc is still on the stack. With an open finally
	// region, its own landing pad catches this re-raise; without one,
	// this propagates straight out.
	c.emit(raiseInstr{}, n.Rg)

	if hasFinally {
		c.patchHere(finSetup)
		if err := c.compileBlock(n.Finally); err != nil {
			return err
		}
		c.emit(raiseInstr{}, n.Rg)
		c.cur.regions = c.cur.regions[:len(c.cur.regions)-1]
	}

	end := c.cur.block.instrCount()
	for _, j := range endJumps {
		c.cur.block.patchJumpTo(j, end)
	}
	return nil
}

func (c *compiler) VisitImportStmt(n *ImportStmt) error {
	c.emitLoadName(Intern("__import__"), n.Rg)
	c.emit(constInstr{Value: NewObjectValue(newStringObject(n.Module.String()))}, n.Rg)
	c.emit(callInstr{NArgs: 1}, n.Rg)
	c.emitStoreName(n.Module, n.Rg)
	return nil
}

func (c *compiler) VisitFromImportStmt(n *FromImportStmt) error {
	c.emitLoadName(Intern("__import__"), n.Rg)
	c.emit(constInstr{Value: NewObjectValue(newStringObject(n.Module.String()))}, n.Rg)
	c.emit(callInstr{NArgs: 1}, n.Rg)
	tmp := c.cur.allocTemp()
	c.emit(setLocalInstr{Slot: tmp}, n.Rg)
	for _, name := range n.Names {
		c.emit(getLocalInstr{Slot: tmp}, n.Rg)
		c.emit(getPropInstr{Name: name}, n.Rg)
		c.emitStoreName(name, n.Rg)
	}
	return nil
}

// VisitAssertStmt lowers `assert Cond[, Msg]`. assertionFailedInstr always
// raises, so the compiler itself implements the "only on failure" branch
// with a skip-jump taken when Cond is true.
func (c *compiler) VisitAssertStmt(n *AssertStmt) error {
	if err := c.compileExpr(n.Cond); err != nil {
		return err
	}
	j := c.emit(&jumpIfTrueInstr{Pop: true}, n.Rg)
	if err := c.compileOptionalOrNone(n.Msg); err != nil {
		return err
	}
	c.emit(assertionFailedInstr{}, n.Rg)
	c.patchHere(j)
	return nil
}

// VisitDelStmt lowers `del`. Neither Object's slot storage nor the
// local/global namespace model supports true unbinding, so a name target
// rebinds to None and an attribute/subscript target goes through
// delPropInstr/delItemInstr: delPropInstr overwrites the attribute with
// None, while delItemInstr removes a dict key or set member.
func (c *compiler) VisitDelStmt(n *DelStmt) error {
	for _, t := range n.Targets {
		switch target := t.(type) {
		case *NameExpr:
			c.emit(constInstr{Value: None}, n.Rg)
			c.emitStoreName(target.Ident, n.Rg)
		case *AttrExpr:
			if err := c.compileExpr(target.Target); err != nil {
				return err
			}
			c.emit(delPropInstr{Name: target.Attr}, n.Rg)
		case *SubscriptExpr:
			if err := c.compileExpr(target.Target); err != nil {
				return err
			}
			if err := c.compileExpr(target.Index); err != nil {
				return err
			}
			c.emit(delItemInstr{}, n.Rg)
		default:
			return c.err("invalid del target", n.Rg)
		}
	}
	return nil
}

func (c *compiler) VisitGlobalStmt(n *GlobalStmt) error   { return nil }
func (c *compiler) VisitNonlocalStmt(n *NonlocalStmt) error { return nil }
