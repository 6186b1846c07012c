package doppler

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/interp"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
	"github.com/spylang/spy/pkg/vm/operator"
)

// shiftStmt returns the residual replacement of one statement. Under
// lazy error mode, a static error is downgraded to a residual raise plus
// a warning; everything else propagates and aborts the redshift.
func (d *DopplerFrame) shiftStmt(stmt ast.Stmt) ([]ast.Stmt, error) {
	stmts, err := d.shiftStmtDispatch(stmt)
	if err == nil {
		return stmts, nil
	}
	e, ok := spyerror.AsError(err)
	if !ok || d.errorMode != Lazy || !e.Static() {
		return nil, err
	}
	d.frame.VM.EmitWarning(e)
	return d.makeRaiseFromError(stmt, e)
}

// makeRaiseFromError turns a statically-failing statement into a
// residual 'raise' carrying the original diagnostic.
func (d *DopplerFrame) makeRaiseFromError(stmt ast.Stmt, e *spyerror.Error) ([]ast.Stmt, error) {
	exc := &vm.ExcValue{TypeW: vm.B.ExcType(e.Kind), Message: e.Message}
	f := d.frame.VM.MakeFqnConst(exc)
	raise := &ast.Raise{
		NodeBase: ast.NodeBase{Loc: stmt.Location()},
		Exc:      ast.NewFQNConst(stmt.Location(), f),
	}
	return d.shiftStmtDispatch(raise)
}

func (d *DopplerFrame) shiftStmtDispatch(stmt ast.Stmt) ([]ast.Stmt, error) {
	switch stmt := stmt.(type) {
	case *ast.Pass, *ast.Break, *ast.Continue:
		return []ast.Stmt{stmt}, nil
	case *ast.Return:
		return d.shiftReturn(stmt)
	case *ast.VarDef:
		return d.shiftVarDef(stmt)
	case *ast.Assign:
		return d.shiftAssign(stmt)
	case *ast.AugAssign:
		return d.shiftAssign(interp.DesugarAugAssign(stmt))
	case *ast.UnpackAssign:
		return d.shiftUnpackAssign(stmt)
	case *ast.SetAttr:
		return d.shiftSetAttr(stmt)
	case *ast.SetItem:
		return d.shiftSetItem(stmt)
	case *ast.StmtExpr:
		newValue, err := d.evalAndShift(stmt.Value, "")
		if err != nil {
			return nil, err
		}
		return []ast.Stmt{ast.NewStmtExpr(stmt.Loc, newValue)}, nil
	case *ast.If:
		return d.shiftIf(stmt)
	case *ast.While:
		return d.shiftWhile(stmt)
	case *ast.For:
		return d.shiftFor(stmt)
	case *ast.Raise:
		return d.shiftRaise(stmt)
	case *ast.Assert:
		return d.shiftAssert(stmt)
	case *ast.FuncDef:
		// the inner function is a blue artifact; its binding redshifts
		// away and call sites fold to its FQN
		if err := d.frame.ExecFuncDef(stmt); err != nil {
			return nil, err
		}
		return nil, nil
	case *ast.ClassDef:
		if err := d.frame.ExecClassDef(stmt); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return nil, spyerror.New(spyerror.PanicError, "cannot shift statement %T", stmt)
}

func (d *DopplerFrame) shiftReturn(stmt *ast.Return) ([]ast.Stmt, error) {
	value := stmt.Value
	if value == nil {
		value = ast.NewConstant(stmt.Loc, nil)
	}
	newValue, err := d.evalAndShift(value, "@return")
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.Return{NodeBase: ast.NodeBase{Loc: stmt.Loc}, Value: newValue}}, nil
}

func (d *DopplerFrame) shiftVarDef(stmt *ast.VarDef) ([]ast.Stmt, error) {
	_, isAuto := stmt.Type.(*ast.Auto)
	if err := d.frame.ExecVarDef(stmt); err != nil {
		return nil, err
	}
	sym := d.frame.Symtable.Lookup(stmt.Name)
	if sym != nil && sym.Color == symtable.Blue {
		// assignments to blue locals redshift away
		return nil, nil
	}

	var newType ast.Expr
	if isAuto {
		t, _ := d.frame.LocalType(stmt.Name)
		newType = MakeConst(d.frame.VM, stmt.Type.Location(), t)
	} else {
		newType = d.shifted(stmt.Type)
	}
	var newValue ast.Expr
	if stmt.Value != nil {
		newValue = d.shifted(stmt.Value)
	}
	res := &ast.VarDef{
		NodeBase: ast.NodeBase{Loc: stmt.Loc},
		Kind:     stmt.Kind,
		Name:     stmt.Name,
		Type:     newType,
		Value:    newValue,
	}
	return []ast.Stmt{res}, nil
}

func (d *DopplerFrame) shiftAssign(stmt *ast.Assign) ([]ast.Stmt, error) {
	if err := d.frame.ExecAssign(stmt); err != nil {
		return nil, err
	}
	sym := d.frame.Symtable.Lookup(stmt.Target.Value)
	if sym != nil && sym.IsLocal() && sym.Color == symtable.Blue {
		return nil, nil
	}
	specialized := d.frame.SpecializedAssign(stmt)
	newValue := d.shifted(stmt.Value)
	switch specialized := specialized.(type) {
	case *ast.AssignLocal:
		return []ast.Stmt{&ast.AssignLocal{
			NodeBase: ast.NodeBase{Loc: specialized.Loc},
			Target:   specialized.Target,
			Value:    newValue,
		}}, nil
	case *ast.AssignCell:
		return []ast.Stmt{&ast.AssignCell{
			NodeBase: ast.NodeBase{Loc: specialized.Loc},
			Fqn:      specialized.Fqn,
			Value:    newValue,
		}}, nil
	}
	return nil, spyerror.New(spyerror.PanicError, "assignment was not specialized")
}

func (d *DopplerFrame) shiftUnpackAssign(stmt *ast.UnpackAssign) ([]ast.Stmt, error) {
	if err := d.frame.ExecUnpackAssign(stmt); err != nil {
		return nil, err
	}
	newValue := d.shifted(stmt.Value)
	return []ast.Stmt{&ast.UnpackAssign{
		NodeBase: ast.NodeBase{Loc: stmt.Loc},
		Targets:  stmt.Targets,
		Value:    newValue,
	}}, nil
}

func (d *DopplerFrame) shiftSetAttr(stmt *ast.SetAttr) ([]ast.Stmt, error) {
	if _, err := d.frame.ExecStmt(stmt); err != nil {
		return nil, err
	}
	call, err := d.shiftOpImpl(d.frame.Frame, stmt,
		[]ast.Expr{d.shifted(stmt.Target), d.shifted(stmt.Attr), d.shifted(stmt.Value)})
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{ast.NewStmtExpr(stmt.Loc, call)}, nil
}

func (d *DopplerFrame) shiftSetItem(stmt *ast.SetItem) ([]ast.Stmt, error) {
	if _, err := d.frame.ExecStmt(stmt); err != nil {
		return nil, err
	}
	args := []ast.Expr{d.shifted(stmt.Target)}
	for _, arg := range stmt.Args {
		args = append(args, d.shifted(arg))
	}
	args = append(args, d.shifted(stmt.Value))
	call, err := d.shiftOpImpl(d.frame.Frame, stmt, args)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{ast.NewStmtExpr(stmt.Loc, call)}, nil
}

func (d *DopplerFrame) shiftBody(body []ast.Stmt) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for _, stmt := range body {
		stmts, err := d.shiftStmt(stmt)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (d *DopplerFrame) shiftIf(stmt *ast.If) ([]ast.Stmt, error) {
	newTest, err := d.evalAndShift(stmt.Test, "@if")
	if err != nil {
		return nil, err
	}
	newThen, err := d.shiftBody(stmt.ThenBody)
	if err != nil {
		return nil, err
	}
	newElse, err := d.shiftBody(stmt.ElseBody)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.If{
		NodeBase: ast.NodeBase{Loc: stmt.Loc},
		Test:     newTest,
		ThenBody: newThen,
		ElseBody: newElse,
	}}, nil
}

func (d *DopplerFrame) shiftWhile(stmt *ast.While) ([]ast.Stmt, error) {
	newTest, err := d.evalAndShift(stmt.Test, "@while")
	if err != nil {
		return nil, err
	}
	newBody, err := d.shiftBody(stmt.Body)
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{&ast.While{
		NodeBase: ast.NodeBase{Loc: stmt.Loc},
		Test:     newTest,
		Body:     newBody,
	}}, nil
}

func (d *DopplerFrame) shiftFor(stmt *ast.For) ([]ast.Stmt, error) {
	return d.shiftBody(interp.DesugarFor(stmt))
}

func (d *DopplerFrame) shiftRaise(stmt *ast.Raise) ([]ast.Stmt, error) {
	if _, err := d.frame.ExecStmt(stmt); err != nil {
		return nil, err
	}
	call, err := d.shiftOpImpl(d.frame.Frame, stmt, []ast.Expr{d.shifted(stmt.Exc)})
	if err != nil {
		return nil, err
	}
	return []ast.Stmt{ast.NewStmtExpr(stmt.Loc, call)}, nil
}

// shiftAssert lowers an assert onto the internal raise builtin: a test
// known false at compile time raises unconditionally, a red test guards
// the raise with the (negated) condition.
func (d *DopplerFrame) shiftAssert(stmt *ast.Assert) ([]ast.Stmt, error) {
	wamTest, err := d.frame.EvalExpr(stmt.Test, "@assert")
	if err != nil {
		return nil, err
	}
	newTest := d.shifted(stmt.Test)

	msgExpr := ast.Expr(ast.NewStrConst(stmt.Loc, "assertion failed"))
	if stmt.Msg != nil {
		wamMsg, err := d.frame.EvalExpr(stmt.Msg, "")
		if err != nil {
			return nil, err
		}
		if wamMsg.StaticT != vm.B.StrT {
			e := spyerror.New(spyerror.TypeError, "mismatched types")
			e.Add(spyerror.LevelError,
				"expected `str`, got `"+wamMsg.StaticT.Fqn.HumanName()+"`",
				wamMsg.Loc)
			return nil, e
		}
		msgExpr = d.shifted(stmt.Msg)
	}

	raiseCall := ast.NewCall(stmt.Loc,
		ast.NewFQNConst(stmt.Loc, operator.RaiseFn().Fqn()),
		[]ast.Expr{
			ast.NewStrConst(stmt.Loc, string(spyerror.AssertionError)),
			msgExpr,
			ast.NewStrConst(stmt.Loc, stmt.Loc.Filename),
			ast.NewConstant(stmt.Loc, stmt.Loc.LineStart),
		})
	raiseStmt := ast.NewStmtExpr(stmt.Loc, raiseCall)

	if wamTest.IsBlue() {
		if d.frame.VM.IsTrue(wamTest.Val) {
			return nil, nil
		}
		return []ast.Stmt{raiseStmt}, nil
	}
	guarded := &ast.If{
		NodeBase: ast.NodeBase{Loc: stmt.Loc},
		Test:     newTest,
		ElseBody: []ast.Stmt{raiseStmt},
	}
	return []ast.Stmt{guarded}, nil
}
