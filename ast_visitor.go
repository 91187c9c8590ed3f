package pallas

// Visitor dispatches over every Node type. Grounded on the teacher's
// AstNodeVisitor (one method per node kind, double-dispatched through
// Accept) generalized from grammar nodes to statements/expressions.
type Visitor interface {
	VisitNameExpr(*NameExpr) error
	VisitIntLit(*IntLit) error
	VisitFloatLit(*FloatLit) error
	VisitStringLit(*StringLit) error
	VisitBoolLit(*BoolLit) error
	VisitNoneLit(*NoneLit) error
	VisitBinaryExpr(*BinaryExpr) error
	VisitBoolOpExpr(*BoolOpExpr) error
	VisitUnaryExpr(*UnaryExpr) error
	VisitCompareExpr(*CompareExpr) error
	VisitCallExpr(*CallExpr) error
	VisitAttrExpr(*AttrExpr) error
	VisitSubscriptExpr(*SubscriptExpr) error
	VisitSliceExpr(*SliceExpr) error
	VisitListExpr(*ListExpr) error
	VisitTupleExpr(*TupleExpr) error
	VisitSetExpr(*SetExpr) error
	VisitDictExpr(*DictExpr) error
	VisitListCompExpr(*ListCompExpr) error
	VisitLambdaExpr(*LambdaExpr) error
	VisitCondExpr(*CondExpr) error
	VisitYieldExpr(*YieldExpr) error

	VisitBlock(*Block) error
	VisitExprStmt(*ExprStmt) error
	VisitAssignStmt(*AssignStmt) error
	VisitAugAssignStmt(*AugAssignStmt) error
	VisitIfStmt(*IfStmt) error
	VisitWhileStmt(*WhileStmt) error
	VisitForStmt(*ForStmt) error
	VisitFuncDef(*FuncDef) error
	VisitClassDef(*ClassDef) error
	VisitReturnStmt(*ReturnStmt) error
	VisitPassStmt(*PassStmt) error
	VisitBreakStmt(*BreakStmt) error
	VisitContinueStmt(*ContinueStmt) error
	VisitRaiseStmt(*RaiseStmt) error
	VisitTryStmt(*TryStmt) error
	VisitImportStmt(*ImportStmt) error
	VisitFromImportStmt(*FromImportStmt) error
	VisitAssertStmt(*AssertStmt) error
	VisitDelStmt(*DelStmt) error
	VisitGlobalStmt(*GlobalStmt) error
	VisitNonlocalStmt(*NonlocalStmt) error
}

// BaseVisitor implements every Visitor method as a no-op, letting a
// concrete visitor embed it and override only the methods it cares about
// — the same shorthand the teacher's passes use for AST rewrites that only
// touch a handful of node kinds.
type BaseVisitor struct{}

func (BaseVisitor) VisitNameExpr(*NameExpr) error             { return nil }
func (BaseVisitor) VisitIntLit(*IntLit) error                 { return nil }
func (BaseVisitor) VisitFloatLit(*FloatLit) error             { return nil }
func (BaseVisitor) VisitStringLit(*StringLit) error           { return nil }
func (BaseVisitor) VisitBoolLit(*BoolLit) error               { return nil }
func (BaseVisitor) VisitNoneLit(*NoneLit) error                { return nil }
func (BaseVisitor) VisitBinaryExpr(*BinaryExpr) error         { return nil }
func (BaseVisitor) VisitBoolOpExpr(*BoolOpExpr) error         { return nil }
func (BaseVisitor) VisitUnaryExpr(*UnaryExpr) error           { return nil }
func (BaseVisitor) VisitCompareExpr(*CompareExpr) error       { return nil }
func (BaseVisitor) VisitCallExpr(*CallExpr) error             { return nil }
func (BaseVisitor) VisitAttrExpr(*AttrExpr) error             { return nil }
func (BaseVisitor) VisitSubscriptExpr(*SubscriptExpr) error   { return nil }
func (BaseVisitor) VisitSliceExpr(*SliceExpr) error           { return nil }
func (BaseVisitor) VisitListExpr(*ListExpr) error             { return nil }
func (BaseVisitor) VisitTupleExpr(*TupleExpr) error           { return nil }
func (BaseVisitor) VisitSetExpr(*SetExpr) error               { return nil }
func (BaseVisitor) VisitDictExpr(*DictExpr) error             { return nil }
func (BaseVisitor) VisitListCompExpr(*ListCompExpr) error     { return nil }
func (BaseVisitor) VisitLambdaExpr(*LambdaExpr) error         { return nil }
func (BaseVisitor) VisitCondExpr(*CondExpr) error             { return nil }
func (BaseVisitor) VisitYieldExpr(*YieldExpr) error           { return nil }
func (BaseVisitor) VisitBlock(*Block) error                   { return nil }
func (BaseVisitor) VisitExprStmt(*ExprStmt) error             { return nil }
func (BaseVisitor) VisitAssignStmt(*AssignStmt) error         { return nil }
func (BaseVisitor) VisitAugAssignStmt(*AugAssignStmt) error   { return nil }
func (BaseVisitor) VisitIfStmt(*IfStmt) error                 { return nil }
func (BaseVisitor) VisitWhileStmt(*WhileStmt) error           { return nil }
func (BaseVisitor) VisitForStmt(*ForStmt) error               { return nil }
func (BaseVisitor) VisitFuncDef(*FuncDef) error               { return nil }
func (BaseVisitor) VisitClassDef(*ClassDef) error             { return nil }
func (BaseVisitor) VisitReturnStmt(*ReturnStmt) error         { return nil }
func (BaseVisitor) VisitPassStmt(*PassStmt) error             { return nil }
func (BaseVisitor) VisitBreakStmt(*BreakStmt) error           { return nil }
func (BaseVisitor) VisitContinueStmt(*ContinueStmt) error     { return nil }
func (BaseVisitor) VisitRaiseStmt(*RaiseStmt) error           { return nil }
func (BaseVisitor) VisitTryStmt(*TryStmt) error                { return nil }
func (BaseVisitor) VisitImportStmt(*ImportStmt) error          { return nil }
func (BaseVisitor) VisitFromImportStmt(*FromImportStmt) error  { return nil }
func (BaseVisitor) VisitAssertStmt(*AssertStmt) error          { return nil }
func (BaseVisitor) VisitDelStmt(*DelStmt) error                { return nil }
func (BaseVisitor) VisitGlobalStmt(*GlobalStmt) error          { return nil }
func (BaseVisitor) VisitNonlocalStmt(*NonlocalStmt) error      { return nil }

func (n *NameExpr) Span() Range       { return n.Rg }
func (n *IntLit) Span() Range         { return n.Rg }
func (n *FloatLit) Span() Range       { return n.Rg }
func (n *StringLit) Span() Range      { return n.Rg }
func (n *BoolLit) Span() Range        { return n.Rg }
func (n *NoneLit) Span() Range        { return n.Rg }
func (n *BinaryExpr) Span() Range     { return n.Rg }
func (n *BoolOpExpr) Span() Range     { return n.Rg }
func (n *UnaryExpr) Span() Range      { return n.Rg }
func (n *CompareExpr) Span() Range    { return n.Rg }
func (n *CallExpr) Span() Range       { return n.Rg }
func (n *AttrExpr) Span() Range       { return n.Rg }
func (n *SubscriptExpr) Span() Range  { return n.Rg }
func (n *SliceExpr) Span() Range      { return n.Rg }
func (n *ListExpr) Span() Range       { return n.Rg }
func (n *TupleExpr) Span() Range      { return n.Rg }
func (n *SetExpr) Span() Range        { return n.Rg }
func (n *DictExpr) Span() Range       { return n.Rg }
func (n *ListCompExpr) Span() Range   { return n.Rg }
func (n *LambdaExpr) Span() Range     { return n.Rg }
func (n *CondExpr) Span() Range       { return n.Rg }
func (n *YieldExpr) Span() Range      { return n.Rg }
func (n *Block) Span() Range          { return n.Rg }
func (n *ExprStmt) Span() Range       { return n.Rg }
func (n *AssignStmt) Span() Range     { return n.Rg }
func (n *AugAssignStmt) Span() Range  { return n.Rg }
func (n *IfStmt) Span() Range         { return n.Rg }
func (n *WhileStmt) Span() Range      { return n.Rg }
func (n *ForStmt) Span() Range        { return n.Rg }
func (n *FuncDef) Span() Range        { return n.Rg }
func (n *ClassDef) Span() Range       { return n.Rg }
func (n *ReturnStmt) Span() Range     { return n.Rg }
func (n *PassStmt) Span() Range       { return n.Rg }
func (n *BreakStmt) Span() Range      { return n.Rg }
func (n *ContinueStmt) Span() Range   { return n.Rg }
func (n *RaiseStmt) Span() Range      { return n.Rg }
func (n *TryStmt) Span() Range        { return n.Rg }
func (n *ImportStmt) Span() Range     { return n.Rg }
func (n *FromImportStmt) Span() Range { return n.Rg }
func (n *AssertStmt) Span() Range     { return n.Rg }
func (n *DelStmt) Span() Range        { return n.Rg }
func (n *GlobalStmt) Span() Range     { return n.Rg }
func (n *NonlocalStmt) Span() Range   { return n.Rg }

func (n *NameExpr) Accept(v Visitor) error       { return v.VisitNameExpr(n) }
func (n *IntLit) Accept(v Visitor) error         { return v.VisitIntLit(n) }
func (n *FloatLit) Accept(v Visitor) error       { return v.VisitFloatLit(n) }
func (n *StringLit) Accept(v Visitor) error      { return v.VisitStringLit(n) }
func (n *BoolLit) Accept(v Visitor) error        { return v.VisitBoolLit(n) }
func (n *NoneLit) Accept(v Visitor) error        { return v.VisitNoneLit(n) }
func (n *BinaryExpr) Accept(v Visitor) error     { return v.VisitBinaryExpr(n) }
func (n *BoolOpExpr) Accept(v Visitor) error     { return v.VisitBoolOpExpr(n) }
func (n *UnaryExpr) Accept(v Visitor) error      { return v.VisitUnaryExpr(n) }
func (n *CompareExpr) Accept(v Visitor) error    { return v.VisitCompareExpr(n) }
func (n *CallExpr) Accept(v Visitor) error       { return v.VisitCallExpr(n) }
func (n *AttrExpr) Accept(v Visitor) error       { return v.VisitAttrExpr(n) }
func (n *SubscriptExpr) Accept(v Visitor) error  { return v.VisitSubscriptExpr(n) }
func (n *SliceExpr) Accept(v Visitor) error      { return v.VisitSliceExpr(n) }
func (n *ListExpr) Accept(v Visitor) error       { return v.VisitListExpr(n) }
func (n *TupleExpr) Accept(v Visitor) error      { return v.VisitTupleExpr(n) }
func (n *SetExpr) Accept(v Visitor) error        { return v.VisitSetExpr(n) }
func (n *DictExpr) Accept(v Visitor) error       { return v.VisitDictExpr(n) }
func (n *ListCompExpr) Accept(v Visitor) error   { return v.VisitListCompExpr(n) }
func (n *LambdaExpr) Accept(v Visitor) error     { return v.VisitLambdaExpr(n) }
func (n *CondExpr) Accept(v Visitor) error       { return v.VisitCondExpr(n) }
func (n *YieldExpr) Accept(v Visitor) error      { return v.VisitYieldExpr(n) }
func (n *Block) Accept(v Visitor) error          { return v.VisitBlock(n) }
func (n *ExprStmt) Accept(v Visitor) error       { return v.VisitExprStmt(n) }
func (n *AssignStmt) Accept(v Visitor) error     { return v.VisitAssignStmt(n) }
func (n *AugAssignStmt) Accept(v Visitor) error  { return v.VisitAugAssignStmt(n) }
func (n *IfStmt) Accept(v Visitor) error         { return v.VisitIfStmt(n) }
func (n *WhileStmt) Accept(v Visitor) error      { return v.VisitWhileStmt(n) }
func (n *ForStmt) Accept(v Visitor) error        { return v.VisitForStmt(n) }
func (n *FuncDef) Accept(v Visitor) error        { return v.VisitFuncDef(n) }
func (n *ClassDef) Accept(v Visitor) error       { return v.VisitClassDef(n) }
func (n *ReturnStmt) Accept(v Visitor) error     { return v.VisitReturnStmt(n) }
func (n *PassStmt) Accept(v Visitor) error       { return v.VisitPassStmt(n) }
func (n *BreakStmt) Accept(v Visitor) error      { return v.VisitBreakStmt(n) }
func (n *ContinueStmt) Accept(v Visitor) error   { return v.VisitContinueStmt(n) }
func (n *RaiseStmt) Accept(v Visitor) error      { return v.VisitRaiseStmt(n) }
func (n *TryStmt) Accept(v Visitor) error        { return v.VisitTryStmt(n) }
func (n *ImportStmt) Accept(v Visitor) error     { return v.VisitImportStmt(n) }
func (n *FromImportStmt) Accept(v Visitor) error { return v.VisitFromImportStmt(n) }
func (n *AssertStmt) Accept(v Visitor) error     { return v.VisitAssertStmt(n) }
func (n *DelStmt) Accept(v Visitor) error        { return v.VisitDelStmt(n) }
func (n *GlobalStmt) Accept(v Visitor) error     { return v.VisitGlobalStmt(n) }
func (n *NonlocalStmt) Accept(v Visitor) error   { return v.VisitNonlocalStmt(n) }
