package ast

// Children returns the direct child nodes of n, in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}
	addExprs := func(exprs []Expr) {
		for _, e := range exprs {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	addStmts := func(stmts []Stmt) {
		for _, s := range stmts {
			if s != nil {
				out = append(out, s)
			}
		}
	}

	switch n := n.(type) {
	case *Module:
		for _, d := range n.Decls {
			add(d)
		}
	case *Import:
	case *GlobalFuncDef:
		add(n.FuncDef)
	case *GlobalClassDef:
		add(n.ClassDef)
	case *GlobalVarDef:
		add(n.VarDef, n.Value)
	case *FuncDef:
		for _, a := range n.Args {
			add(a.Type)
		}
		add(n.ReturnType)
		addStmts(n.Body)
	case *ClassDef:
		for _, f := range n.Fields {
			add(f)
		}
		addStmts(n.Body)
	case *VarDef:
		add(n.Type, n.Value)
	case *Assign:
		add(n.Target, n.Value)
	case *AssignLocal:
		add(n.Target, n.Value)
	case *AssignCell:
		add(n.Value)
	case *UnpackAssign:
		for _, t := range n.Targets {
			add(t)
		}
		add(n.Value)
	case *AugAssign:
		add(n.Target, n.Value)
	case *SetAttr:
		add(n.Target, n.Attr, n.Value)
	case *SetItem:
		add(n.Target)
		addExprs(n.Args)
		add(n.Value)
	case *If:
		add(n.Test)
		addStmts(n.ThenBody)
		addStmts(n.ElseBody)
	case *While:
		add(n.Test)
		addStmts(n.Body)
	case *For:
		add(n.Target, n.Iter)
		addStmts(n.Body)
	case *Raise:
		add(n.Exc)
	case *Assert:
		add(n.Test, n.Msg)
	case *Return:
		add(n.Value)
	case *StmtExpr:
		add(n.Value)
	case *BinOp:
		add(n.Left, n.Right)
	case *CmpOp:
		add(n.Left, n.Right)
	case *UnaryOp:
		add(n.Value)
	case *Call:
		add(n.Func)
		addExprs(n.Args)
	case *CallMethod:
		add(n.Target, n.Method)
		addExprs(n.Args)
	case *GetItem:
		add(n.Value)
		addExprs(n.Args)
	case *GetAttr:
		add(n.Value, n.Attr)
	case *List:
		addExprs(n.Items)
	case *Tuple:
		addExprs(n.Items)
	case *And:
		add(n.Left, n.Right)
	case *Or:
		add(n.Left, n.Right)
	case *AssignExpr:
		add(n.Target, n.Value)
	}
	return out
}

// Inspect traverses the tree rooted at n depth-first, calling f for each
// node. If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}
