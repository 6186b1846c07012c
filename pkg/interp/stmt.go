package interp

import (
	"fmt"

	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
	"github.com/spylang/spy/pkg/vm/operator"
)

// Flow is the result of executing a statement. Return/Break/Continue
// are modeled as flow results, not panics; every loop propagates them.
type Flow int

const (
	FlowNormal Flow = iota
	FlowReturn
	FlowBreak
	FlowContinue
)

// FlowResult pairs a flow kind with the returned value, if any.
type FlowResult struct {
	Kind  Flow
	Value vm.Object
}

var flowNormal = FlowResult{Kind: FlowNormal}

// ExecStmt executes one statement and reports how control continues.
func (f *Frame) ExecStmt(stmt ast.Stmt) (FlowResult, error) {
	fr, err := f.execStmtDispatch(stmt)
	if err != nil {
		if e, ok := spyerror.AsError(err); ok {
			e.AddLocMaybe(stmt.Location())
		}
		return fr, err
	}
	return fr, nil
}

// ExecBody executes a statement list, propagating non-normal flow.
func (f *Frame) ExecBody(body []ast.Stmt) (FlowResult, error) {
	for _, stmt := range body {
		fr, err := f.ExecStmt(stmt)
		if err != nil || fr.Kind != FlowNormal {
			return fr, err
		}
	}
	return flowNormal, nil
}

func (f *Frame) execStmtDispatch(stmt ast.Stmt) (FlowResult, error) {
	switch stmt := stmt.(type) {
	case *ast.Pass:
		return flowNormal, nil
	case *ast.Return:
		return f.execReturn(stmt)
	case *ast.Break:
		return FlowResult{Kind: FlowBreak}, nil
	case *ast.Continue:
		return FlowResult{Kind: FlowContinue}, nil
	case *ast.VarDef:
		return flowNormal, f.ExecVarDef(stmt)
	case *ast.Assign:
		return flowNormal, f.ExecAssign(stmt)
	case *ast.AugAssign:
		return flowNormal, f.ExecAssign(DesugarAugAssign(stmt))
	case *ast.UnpackAssign:
		return flowNormal, f.ExecUnpackAssign(stmt)
	case *ast.SetAttr:
		return flowNormal, f.execSetAttr(stmt)
	case *ast.SetItem:
		return flowNormal, f.execSetItem(stmt)
	case *ast.If:
		return f.execIf(stmt)
	case *ast.While:
		return f.execWhile(stmt)
	case *ast.For:
		return f.execFor(stmt)
	case *ast.Raise:
		return flowNormal, f.ExecRaise(stmt)
	case *ast.Assert:
		return flowNormal, f.execAssert(stmt)
	case *ast.StmtExpr:
		_, err := f.EvalExpr(stmt.Value, "")
		return flowNormal, err
	case *ast.FuncDef:
		return flowNormal, f.ExecFuncDef(stmt)
	case *ast.ClassDef:
		return flowNormal, f.ExecClassDef(stmt)
	case *ast.AssignLocal:
		return flowNormal, f.execAssignLocalResidual(stmt)
	case *ast.AssignCell:
		return flowNormal, f.execAssignCellResidual(stmt)
	}
	panic(fmt.Sprintf("interp: unknown statement node %T", stmt))
}

func (f *Frame) execReturn(stmt *ast.Return) (FlowResult, error) {
	value := stmt.Value
	if value == nil {
		value = ast.NewConstant(stmt.Loc, nil)
	}
	wam, err := f.EvalExpr(value, "@return")
	if err != nil {
		return flowNormal, err
	}
	return FlowResult{Kind: FlowReturn, Value: wam.Val}, nil
}

// ExecVarDef declares a name with an explicit or inferred type.
func (f *Frame) ExecVarDef(stmt *ast.VarDef) error {
	var t *vm.Type
	if _, auto := stmt.Type.(*ast.Auto); auto {
		if stmt.Value == nil {
			return spyerror.Simple(spyerror.TypeError,
				"cannot infer the type of `"+stmt.Name+"`",
				"no initializer", stmt.Loc)
		}
		wam, err := f.EvalExpr(stmt.Value, "")
		if err != nil {
			return err
		}
		t = wam.StaticT
		if err := f.DeclareLocal(stmt.Name, t, stmt.Loc); err != nil {
			return err
		}
		if !f.Redshifting() {
			f.StoreLocal(stmt.Name, wam.Val)
		}
		return nil
	}

	t, err := f.EvalExprType(stmt.Type)
	if err != nil {
		return err
	}
	if err := f.DeclareLocal(stmt.Name, t, stmt.Loc); err != nil {
		return err
	}
	if stmt.Value != nil {
		wam, err := f.EvalExpr(stmt.Value, stmt.Name)
		if err != nil {
			return err
		}
		if !f.Redshifting() {
			f.StoreLocal(stmt.Name, wam.Val)
		}
	}
	return nil
}

// ExecAssign resolves the target as local, outer cell or global and
// stores the value.
func (f *Frame) ExecAssign(stmt *ast.Assign) error {
	_, err := f.execAssignStmt(stmt, stmt.Target, stmt.Value)
	return err
}

func (f *Frame) execAssignStmt(origin *ast.Assign, target *ast.StrConst, value ast.Expr) (*vm.MetaArg, error) {
	wam, specialized, err := f.execAssignCommon(target, value)
	if err != nil {
		return nil, err
	}
	if origin != nil && specialized != nil {
		f.specializedAssigns[origin] = specialized
	}
	return wam, nil
}

// execAssignTo is the AssignExpr flavor: assign and yield the value.
func (f *Frame) execAssignTo(target *ast.StrConst, value ast.Expr) (*vm.MetaArg, error) {
	wam, _, err := f.execAssignCommon(target, value)
	return wam, err
}

func (f *Frame) execAssignCommon(target *ast.StrConst, value ast.Expr) (*vm.MetaArg, ast.Stmt, error) {
	varname := target.Value
	sym := f.Symtable.Lookup(varname)
	if sym == nil {
		return nil, nil, spyerror.Simple(spyerror.NameError,
			"name `"+varname+"` is not defined", "not found in this scope", target.Loc)
	}
	switch {
	case sym.IsLocal():
		return f.execAssignLocal(target, value)
	case sym.IsGlobal():
		return f.execAssignGlobal(target, value, sym)
	default:
		return nil, nil, spyerror.New(spyerror.WIP, "assignment to outer scopes not implemented yet")
	}
}

func (f *Frame) execAssignLocal(target *ast.StrConst, value ast.Expr) (*vm.MetaArg, ast.Stmt, error) {
	varname := target.Value
	_, declared := f.localsTypes[varname]
	var wam *vm.MetaArg
	var err error
	if declared {
		wam, err = f.EvalExpr(value, varname)
	} else {
		// first assignment is an implicit declaration
		wam, err = f.EvalExpr(value, "")
		if err == nil {
			err = f.DeclareLocal(varname, wam.StaticT, target.Loc)
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if !f.Redshifting() {
		f.StoreLocal(varname, wam.Val)
	}
	specialized := &ast.AssignLocal{
		NodeBase: ast.NodeBase{Loc: target.Loc},
		Target:   target,
		Value:    value,
	}
	return wam, specialized, nil
}

func (f *Frame) execAssignGlobal(target *ast.StrConst, value ast.Expr, sym *symtable.Symbol) (*vm.MetaArg, ast.Stmt, error) {
	if sym.Color == symtable.Blue {
		err := spyerror.New(spyerror.TypeError, "invalid assignment target")
		err.Add(spyerror.LevelError, sym.Name+" is const", target.Loc)
		err.Add(spyerror.LevelNote, "const declared here", sym.Loc)
		err.Add(spyerror.LevelNote, "help: declare it as variable: `var "+sym.Name+" ...`", sym.Loc)
		return nil, nil, err
	}
	wam, err := f.EvalExpr(value, "")
	if err != nil {
		return nil, nil, err
	}
	w := f.VM.LookupGlobal(sym.Fqn)
	cell, ok := w.(*vm.Cell)
	if !ok {
		return nil, nil, spyerror.Simple(spyerror.ScopeError,
			"cannot assign to `"+sym.Name+"`", "not a mutable global", target.Loc)
	}
	if !f.Redshifting() {
		cell.Set(wam.Val)
	}
	specialized := &ast.AssignCell{
		NodeBase: ast.NodeBase{Loc: target.Loc},
		Fqn:      cell.Fqn,
		Value:    value,
	}
	return wam, specialized, nil
}

func (f *Frame) execAssignLocalResidual(stmt *ast.AssignLocal) error {
	wam, err := f.EvalExpr(stmt.Value, "")
	if err != nil {
		return err
	}
	if _, declared := f.localsTypes[stmt.Target.Value]; !declared {
		if err := f.DeclareLocal(stmt.Target.Value, wam.StaticT, stmt.Target.Loc); err != nil {
			return err
		}
	}
	f.StoreLocal(stmt.Target.Value, wam.Val)
	return nil
}

func (f *Frame) execAssignCellResidual(stmt *ast.AssignCell) error {
	wam, err := f.EvalExpr(stmt.Value, "")
	if err != nil {
		return err
	}
	w := f.VM.LookupGlobal(stmt.Fqn)
	cell, ok := w.(*vm.Cell)
	if !ok {
		return spyerror.New(spyerror.NameError, "unknown cell `%s`", stmt.Fqn)
	}
	cell.Set(wam.Val)
	return nil
}

// ExecUnpackAssign destructures a tuple: the RHS must be a tuple of
// matching arity, and each target is assigned the i-th element through a
// synthesized GetItem.
func (f *Frame) ExecUnpackAssign(stmt *ast.UnpackAssign) error {
	wamTup, err := f.EvalExpr(stmt.Value, "")
	if err != nil {
		return err
	}
	if wamTup.StaticT != vm.B.TupleT {
		t := wamTup.StaticT.Fqn.HumanName()
		err := spyerror.New(spyerror.TypeError, "`%s` does not support unpacking", t)
		err.Add(spyerror.LevelError, "this is `"+t+"`", stmt.Value.Location())
		return err
	}
	tup, ok := wamTup.Val.(*vm.Tuple)
	if !ok {
		return spyerror.Simple(spyerror.TypeError,
			"cannot unpack a red tuple", "value not known at compile time", stmt.Value.Location())
	}
	exp := len(stmt.Targets)
	got := len(tup.Items)
	if exp != got {
		return spyerror.New(spyerror.ValueError,
			"wrong number of values to unpack: expected %d, got %d", exp, got)
	}
	for i, target := range stmt.Targets {
		item := ast.NewGetItem(stmt.Value.Location(), stmt.Value,
			[]ast.Expr{ast.NewConstant(stmt.Value.Location(), i)})
		if _, err := f.execAssignTo(target, item); err != nil {
			return err
		}
	}
	return nil
}

// DesugarAugAssign transforms 'x op= v' into 'x = x op v'.
func DesugarAugAssign(stmt *ast.AugAssign) *ast.Assign {
	return ast.NewAssign(stmt.Loc, stmt.Target,
		ast.NewBinOp(stmt.Loc, stmt.Op,
			ast.NewName(stmt.Target.Loc, stmt.Target.Value),
			stmt.Value))
}

func (f *Frame) execSetAttr(stmt *ast.SetAttr) error {
	wamObj, err := f.EvalExpr(stmt.Target, "")
	if err != nil {
		return err
	}
	wamAttr, err := f.EvalExpr(stmt.Attr, "")
	if err != nil {
		return err
	}
	wamVal, err := f.EvalExpr(stmt.Value, "")
	if err != nil {
		return err
	}
	args := []*vm.MetaArg{wamObj, wamAttr, wamVal}
	oi, err := f.callOP(stmt.Loc, operator.SETATTR, args)
	if err != nil {
		return err
	}
	_, err = f.evalOpImpl(stmt, oi, args)
	return err
}

func (f *Frame) execSetItem(stmt *ast.SetItem) error {
	wamObj, err := f.EvalExpr(stmt.Target, "")
	if err != nil {
		return err
	}
	args := []*vm.MetaArg{wamObj}
	for _, arg := range stmt.Args {
		wam, err := f.EvalExpr(arg, "")
		if err != nil {
			return err
		}
		args = append(args, wam)
	}
	wamVal, err := f.EvalExpr(stmt.Value, "")
	if err != nil {
		return err
	}
	args = append(args, wamVal)
	oi, err := f.callOP(stmt.Loc, operator.SETITEM, args)
	if err != nil {
		return err
	}
	_, err = f.evalOpImpl(stmt, oi, args)
	return err
}

func (f *Frame) execIf(stmt *ast.If) (FlowResult, error) {
	wamCond, err := f.EvalExpr(stmt.Test, "@if")
	if err != nil {
		return flowNormal, err
	}
	if f.VM.IsTrue(wamCond.Val) {
		return f.ExecBody(stmt.ThenBody)
	}
	return f.ExecBody(stmt.ElseBody)
}

func (f *Frame) execWhile(stmt *ast.While) (FlowResult, error) {
	for {
		wamCond, err := f.EvalExpr(stmt.Test, "@while")
		if err != nil {
			return flowNormal, err
		}
		if !f.VM.IsTrue(wamCond.Val) {
			return flowNormal, nil
		}
		fr, err := f.ExecBody(stmt.Body)
		if err != nil {
			return flowNormal, err
		}
		switch fr.Kind {
		case FlowReturn:
			return fr, nil
		case FlowBreak:
			return flowNormal, nil
		}
	}
}

// DesugarFor lowers a for loop onto the iterator protocol:
//
//	@iter = <iter>.__iter__()
//	while @iter.__continue__():
//	    <target> = @iter.__item__()
//	    <body>
//	    @iter = @iter.__next__()
func DesugarFor(stmt *ast.For) []ast.Stmt {
	loc := stmt.Loc
	iterName := ast.NewStrConst(loc, "@iter")
	callMeth := func(meth string) *ast.CallMethod {
		return &ast.CallMethod{
			NodeBase: ast.NodeBase{Loc: loc},
			Target:   ast.NewName(loc, "@iter"),
			Method:   ast.NewStrConst(loc, meth),
		}
	}
	initIter := ast.NewAssign(loc, iterName, &ast.CallMethod{
		NodeBase: ast.NodeBase{Loc: loc},
		Target:   stmt.Iter,
		Method:   ast.NewStrConst(loc, "__iter__"),
	})
	body := []ast.Stmt{
		ast.NewAssign(loc, stmt.Target, callMeth("__item__")),
	}
	body = append(body, stmt.Body...)
	body = append(body, ast.NewAssign(loc, iterName, callMeth("__next__")))
	while := &ast.While{
		NodeBase: ast.NodeBase{Loc: loc},
		Test:     callMeth("__continue__"),
		Body:     body,
	}
	return []ast.Stmt{initIter, while}
}

func (f *Frame) execFor(stmt *ast.For) (FlowResult, error) {
	for _, s := range DesugarFor(stmt) {
		fr, err := f.ExecStmt(s)
		if err != nil || fr.Kind != FlowNormal {
			return fr, err
		}
	}
	return flowNormal, nil
}

// ExecRaise evaluates a raise statement. The RAISE operator lowers the
// blue exception value to a call of the internal raise builtin.
func (f *Frame) ExecRaise(stmt *ast.Raise) error {
	wamExc, err := f.EvalExpr(stmt.Exc, "")
	if err != nil {
		return err
	}
	args := []*vm.MetaArg{wamExc}
	oi, err := f.callOP(stmt.Loc, operator.RAISE, args)
	if err != nil {
		return err
	}
	_, err = f.evalOpImpl(stmt, oi, args)
	return err
}

func (f *Frame) execAssert(stmt *ast.Assert) error {
	wamTest, err := f.EvalExpr(stmt.Test, "@assert")
	if err != nil {
		return err
	}
	msg := "assertion failed"
	if stmt.Msg != nil {
		wamMsg, err := f.EvalExpr(stmt.Msg, "")
		if err != nil {
			return err
		}
		if s, ok := wamMsg.BlueUnwrapStr(); ok {
			msg = s
		}
	}
	if f.Redshifting() {
		return nil
	}
	if !f.VM.IsTrue(wamTest.Val) {
		return spyerror.Simple(spyerror.AssertionError, msg, "", stmt.Loc)
	}
	return nil
}

// ExecFuncDef creates an ASTFunc out of a def statement and binds it
// locally. The new function closes over the enclosing blue namespaces.
func (f *Frame) ExecFuncDef(funcdef *ast.FuncDef) error {
	params := make([]vm.FuncParam, 0, len(funcdef.Args))
	for _, arg := range funcdef.Args {
		t, err := f.EvalExprType(arg.Type)
		if err != nil {
			return err
		}
		params = append(params, vm.FuncParam{T: t, Kind: "simple"})
	}
	resT, err := f.EvalExprType(funcdef.ReturnType)
	if err != nil {
		return err
	}
	functype := vm.NewFuncType(params, resT, funcdef.Color, vm.FuncKind(funcdef.Kind))

	fq := f.VM.GetUniqueFQN(f.NS.Join(funcdef.Name))
	closure := f.Closure.Push(f.locals)
	fn := vm.NewASTFunc(fq, functype, funcdef, closure)
	if err := f.DeclareLocal(funcdef.Name, functype, funcdef.PrototypeLoc); err != nil {
		return err
	}
	f.StoreLocal(funcdef.Name, fn)
	f.VM.AddGlobal(fq, fn)
	return nil
}

func reprForClassDef(classdef *ast.ClassDef) vm.ReprKind {
	switch classdef.Kind {
	case ast.ClassTypelift:
		return vm.ReprTypelift
	default:
		return vm.ReprStruct
	}
}

// FwdeclClassDef creates a forward declaration for a classdef: the name
// is bound to an undefined Type, which becomes usable once the body has
// executed. Forward declarations that are never defined are legal.
func (f *Frame) FwdeclClassDef(classdef *ast.ClassDef) error {
	fq := f.VM.GetUniqueFQN(f.NS.Join(classdef.Name))
	t := vm.Declare(fq, reprForClassDef(classdef), vm.B.ObjectT)
	if err := f.DeclareLocal(classdef.Name, vm.B.TypeT, classdef.Loc); err != nil {
		return err
	}
	f.StoreLocal(classdef.Name, t)
	f.VM.AddGlobal(fq, t)
	return nil
}

// ExecClassDef finalizes a previously forward-declared type by running
// the class body in a ClassFrame.
func (f *Frame) ExecClassDef(classdef *ast.ClassDef) error {
	w, err := f.LoadLocal(classdef.Name)
	if err != nil {
		return err
	}
	t, ok := w.(*vm.Type)
	if !ok || t.IsDefined() {
		return spyerror.New(spyerror.ScopeError,
			"`%s` is not a forward-declared type", classdef.Name)
	}

	closure := f.Closure.Push(f.locals)
	cf := NewClassFrame(f.VM, classdef, t.Fqn, closure)
	body, err := cf.Run()
	if err != nil {
		return err
	}
	t.Define(body)
	operator.EnsureLiftFuncs(f.VM, t)
	return nil
}

// Declare the implicit typed slots every function frame has.
func (f *Frame) declareSpecialLocals(resT *vm.Type, resLoc location.Loc) error {
	if err := f.DeclareLocal("@if", vm.B.BoolT, location.Fake()); err != nil {
		return err
	}
	if err := f.DeclareLocal("@while", vm.B.BoolT, location.Fake()); err != nil {
		return err
	}
	if err := f.DeclareLocal("@assert", vm.B.BoolT, location.Fake()); err != nil {
		return err
	}
	return f.DeclareLocal("@return", resT, resLoc)
}
