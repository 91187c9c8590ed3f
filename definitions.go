package pallas

// definitionFinder runs over a function, lambda or class body before
// compilation, answering two questions the compiler needs up front: which
// names does this scope assign to (so they resolve as locals rather than
// globals), and does this scope contain a nested function (so its frame
// needs a heap-allocated environment in case an inner function captures
// it lexically)? It also detects `yield` anywhere in the body (but not
// inside a nested def/lambda) to mark a FuncDef as a generator.
//
// Grounded on original_source/analysis.cpp's DefinitionFinder: addName
// skips names already declared global/nonlocal or already assigned, and
// a nested FuncDef/ClassDef only contributes its own name to the
// enclosing scope, never its body.
type definitionFinder struct {
	assigned    map[Name]bool
	order       []Name // assigned names in first-seen order, for deterministic slot assignment
	globals     map[Name]bool
	nonlocals   map[Name]bool
	hasNestedFn bool
	isGenerator bool
}

func findDefinitions(body *Block) *definitionFinder {
	d := &definitionFinder{
		assigned:  map[Name]bool{},
		globals:   map[Name]bool{},
		nonlocals: map[Name]bool{},
	}
	d.walkBlock(body)
	return d
}

func (d *definitionFinder) addName(n Name) {
	if n.IsZero() || d.globals[n] || d.nonlocals[n] {
		return
	}
	if !d.assigned[n] {
		d.order = append(d.order, n)
	}
	d.assigned[n] = true
}

// removeOrder drops n from the order slice, used when a global/nonlocal
// declaration retracts an earlier assignment-implied local.
func (d *definitionFinder) removeOrder(n Name) {
	for i, o := range d.order {
		if o.Equal(n) {
			d.order = append(d.order[:i], d.order[i+1:]...)
			return
		}
	}
}

func (d *definitionFinder) walkBlock(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		d.walkStmt(s)
	}
}

func (d *definitionFinder) walkStmt(s Node) {
	switch n := s.(type) {
	case *AssignStmt:
		for _, t := range n.Targets {
			d.walkAssignTarget(t)
		}
		d.scanYield(n.Value)
	case *AugAssignStmt:
		d.walkAssignTarget(n.Target)
		d.scanYield(n.Value)
	case *ExprStmt:
		d.scanYield(n.Expr)
	case *ReturnStmt:
		if n.Value != nil {
			d.scanYield(n.Value)
		}
	case *IfStmt:
		d.scanYield(n.Cond)
		d.walkBlock(n.Then)
		for _, e := range n.Elifs {
			d.scanYield(e.Cond)
			d.walkBlock(e.Body)
		}
		d.walkBlock(n.Else)
	case *WhileStmt:
		d.scanYield(n.Cond)
		d.walkBlock(n.Body)
		d.walkBlock(n.Else)
	case *ForStmt:
		d.addName(n.Var)
		d.scanYield(n.Iter)
		d.walkBlock(n.Body)
		d.walkBlock(n.Else)
	case *TryStmt:
		d.walkBlock(n.Body)
		for _, ex := range n.Excepts {
			if !ex.Name.IsZero() {
				d.addName(ex.Name)
			}
			d.walkBlock(ex.Body)
		}
		d.walkBlock(n.Else)
		d.walkBlock(n.Finally)
	case *FuncDef:
		d.addName(n.FuncName)
		d.hasNestedFn = true
	case *ClassDef:
		d.addName(n.ClassName)
		d.hasNestedFn = true
	case *ImportStmt:
		d.addName(n.Module)
	case *FromImportStmt:
		for _, nm := range n.Names {
			d.addName(nm)
		}
	case *GlobalStmt:
		for _, nm := range n.Names {
			d.globals[nm] = true
			delete(d.assigned, nm)
			d.removeOrder(nm)
		}
	case *NonlocalStmt:
		for _, nm := range n.Names {
			d.nonlocals[nm] = true
			delete(d.assigned, nm)
			d.removeOrder(nm)
		}
	case *DelStmt:
		for _, t := range n.Targets {
			d.scanYield(t)
		}
	case *AssertStmt:
		d.scanYield(n.Cond)
		if n.Msg != nil {
			d.scanYield(n.Msg)
		}
	case *RaiseStmt:
		if n.Value != nil {
			d.scanYield(n.Value)
		}
	}
}

// walkAssignTarget handles plain names and tuple/list destructuring
// targets; attribute and subscript targets don't introduce a new local.
func (d *definitionFinder) walkAssignTarget(t Node) {
	switch n := t.(type) {
	case *NameExpr:
		d.addName(n.Ident)
	case *TupleExpr:
		for _, item := range n.Items {
			d.walkAssignTarget(item)
		}
	case *ListExpr:
		for _, item := range n.Items {
			d.walkAssignTarget(item)
		}
	}
}

// scanYield walks an expression tree looking for YieldExpr, stopping at
// the boundary of a nested LambdaExpr (which has its own scope).
func (d *definitionFinder) scanYield(e Node) {
	if e == nil || d.isGenerator {
		return
	}
	switch n := e.(type) {
	case *YieldExpr:
		d.isGenerator = true
		if n.Value != nil {
			d.scanYield(n.Value)
		}
	case *BinaryExpr:
		d.scanYield(n.Left)
		d.scanYield(n.Right)
	case *BoolOpExpr:
		d.scanYield(n.Left)
		d.scanYield(n.Right)
	case *UnaryExpr:
		d.scanYield(n.Expr)
	case *CompareExpr:
		d.scanYield(n.Left)
		for _, c := range n.Comps {
			d.scanYield(c)
		}
	case *CallExpr:
		d.scanYield(n.Callee)
		for _, a := range n.Args {
			d.scanYield(a)
		}
	case *AttrExpr:
		d.scanYield(n.Target)
	case *SubscriptExpr:
		d.scanYield(n.Target)
		d.scanYield(n.Index)
	case *SliceExpr:
		d.scanYield(n.Start)
		d.scanYield(n.Stop)
		d.scanYield(n.Step)
	case *ListExpr:
		for _, it := range n.Items {
			d.scanYield(it)
		}
	case *TupleExpr:
		for _, it := range n.Items {
			d.scanYield(it)
		}
	case *SetExpr:
		for _, it := range n.Items {
			d.scanYield(it)
		}
	case *DictExpr:
		for _, entry := range n.Entries {
			d.scanYield(entry.Key)
			d.scanYield(entry.Value)
		}
	case *ListCompExpr:
		d.hasNestedFn = true
		d.scanYield(n.Iter)
	case *LambdaExpr:
		d.hasNestedFn = true
	case *CondExpr:
		d.scanYield(n.Cond)
		d.scanYield(n.Then)
		d.scanYield(n.Else)
	}
}
