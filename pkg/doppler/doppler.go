// Package doppler implements the redshift pass: it runs a red function
// through the evaluator in redshift mode and emits a residual AST in
// which every blue computation has been folded away and every call site
// names a concrete, fully-typed function by FQN. The residual set is
// what the C emitter consumes.
package doppler

import (
	"fmt"

	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/interp"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

// ErrorMode selects how static errors met during redshift are handled:
// eager aborts the compilation, lazy turns them into residual raise
// statements plus a warning. Non-static errors are always eager.
type ErrorMode string

const (
	Eager ErrorMode = "eager"
	Lazy  ErrorMode = "lazy"
)

// DopplerFrame performs redshift on one ASTFunc. It drives a FuncFrame
// with itself attached as the Shifter, so that every evaluated
// expression also records its residual replacement.
type DopplerFrame struct {
	frame *interp.FuncFrame
	fn    *vm.ASTFunc

	shiftedExpr map[ast.Expr]ast.Expr
	opimpl      map[ast.Node]*vm.OpImpl
	errorMode   ErrorMode
}

// NewDopplerFrame prepares the redshift of fn.
func NewDopplerFrame(v *vm.VM, fn *vm.ASTFunc, mode ErrorMode) *DopplerFrame {
	d := &DopplerFrame{
		frame:       interp.NewFuncFrame(v, fn, nil),
		fn:          fn,
		shiftedExpr: make(map[ast.Expr]ast.Expr),
		opimpl:      make(map[ast.Node]*vm.OpImpl),
		errorMode:   mode,
	}
	d.frame.SetShifter(d)
	return d
}

// Redshift lowers a red function and returns the residual ASTFunc. The
// original function is invalidated and forwards to the new one; the
// VM's global table is updated in place.
func Redshift(v *vm.VM, fn *vm.ASTFunc, mode ErrorMode) (*vm.ASTFunc, error) {
	if fn.Color() != symtable.Red {
		return nil, spyerror.New(spyerror.TypeError, "cannot redshift blue function `%s`", fn.Fqn())
	}
	if fn.Redshifted {
		return nil, spyerror.New(spyerror.PanicError, "cannot redshift `%s` twice", fn.Fqn())
	}
	d := NewDopplerFrame(v, fn, mode)
	newFn, err := d.redshift()
	if err != nil {
		if e, ok := spyerror.AsError(err); ok {
			e.PushFrame("dopplerframe", fn.Fqn().String(), fn.FuncDef.Loc)
		}
		return nil, err
	}
	v.StoreGlobal(fn.Fqn(), newFn)
	return newFn, nil
}

func (d *DopplerFrame) redshift() (*vm.ASTFunc, error) {
	if err := d.frame.DeclareArguments(); err != nil {
		return nil, err
	}
	funcdef := d.fn.FuncDef

	for _, stmt := range funcdef.Body {
		if classdef, ok := stmt.(*ast.ClassDef); ok {
			if err := d.frame.FwdeclClassDef(classdef); err != nil {
				return nil, err
			}
		}
	}

	var newBody []ast.Stmt
	for _, stmt := range funcdef.Body {
		stmts, err := d.shiftStmt(stmt)
		if err != nil {
			return nil, err
		}
		newBody = append(newBody, stmts...)
	}

	newFuncDef := funcdef.WithBody(newBody)
	// all non-local lookups were folded to constants, so the residual
	// function closes over nothing
	newFn := vm.NewASTFunc(d.fn.Fqn(), d.fn.FuncType(), newFuncDef, nil)
	newFn.Redshifted = true
	newFn.LocalsTypes = d.frame.LocalsTypes()
	d.fn.Invalidate(newFn)
	return newFn, nil
}

// ===== Shifter hooks =====

// ShiftExpr records the residual replacement of an evaluated
// expression: blue results fold to constants, red results dispatch by
// node kind and consume the already-shifted children.
func (d *DopplerFrame) ShiftExpr(f *interp.Frame, expr ast.Expr, wam *vm.MetaArg) error {
	var res ast.Expr
	if wam.IsBlue() {
		res = MakeConst(f.VM, expr.Location(), wam.BlueVal())
	} else {
		var err error
		res, err = d.shiftExprDispatch(f, expr, wam)
		if err != nil {
			return err
		}
	}
	d.shiftedExpr[expr] = res
	return nil
}

// WrapConversion wraps an already-shifted expression in the implicit
// conversion the typechecker chose for it.
func (d *DopplerFrame) WrapConversion(f *interp.Frame, expr ast.Expr, varname string,
	conv vm.Function, wam *vm.MetaArg) error {
	inner, ok := d.shiftedExpr[expr]
	if !ok {
		return spyerror.New(spyerror.PanicError, "conversion on an unshifted expression")
	}
	fnConst := MakeConst(f.VM, expr.Location(), conv)
	d.shiftedExpr[expr] = ast.NewCall(expr.Location(), fnConst, []ast.Expr{inner})
	return nil
}

// RecordOpImpl keeps the OpImpl chosen for every operator node, for the
// shift of the enclosing expression.
func (d *DopplerFrame) RecordOpImpl(node ast.Node, oi *vm.OpImpl) {
	d.opimpl[node] = oi
}

// ===== expressions =====

// evalAndShift evaluates an expression and returns its residual.
func (d *DopplerFrame) evalAndShift(expr ast.Expr, varname string) (ast.Expr, error) {
	if _, err := d.frame.EvalExpr(expr, varname); err != nil {
		return nil, err
	}
	res, ok := d.shiftedExpr[expr]
	if !ok {
		return nil, spyerror.New(spyerror.PanicError, "expression was not shifted")
	}
	return res, nil
}

func (d *DopplerFrame) shifted(expr ast.Expr) ast.Expr {
	res, ok := d.shiftedExpr[expr]
	if !ok {
		panic(fmt.Sprintf("doppler: missing shifted expr for %T", expr))
	}
	return res
}

func (d *DopplerFrame) shiftExprDispatch(f *interp.Frame, expr ast.Expr, wam *vm.MetaArg) (ast.Expr, error) {
	switch expr := expr.(type) {
	case *ast.Constant, *ast.StrConst, *ast.LocConst, *ast.FQNConst,
		*ast.NameLocal, *ast.NameCell:
		return expr, nil
	case *ast.Name:
		res := f.SpecializedName(expr)
		if res == nil {
			return nil, spyerror.New(spyerror.PanicError, "name `%s` was not specialized", expr.ID)
		}
		return res, nil
	case *ast.BinOp:
		return d.shiftOpImpl(f, expr, []ast.Expr{d.shifted(expr.Left), d.shifted(expr.Right)})
	case *ast.CmpOp:
		return d.shiftOpImpl(f, expr, []ast.Expr{d.shifted(expr.Left), d.shifted(expr.Right)})
	case *ast.UnaryOp:
		return d.shiftOpImpl(f, expr, []ast.Expr{d.shifted(expr.Value)})
	case *ast.Call:
		args := []ast.Expr{d.shifted(expr.Func)}
		for _, arg := range expr.Args {
			args = append(args, d.shifted(arg))
		}
		return d.shiftOpImpl(f, expr, args)
	case *ast.CallMethod:
		args := []ast.Expr{d.shifted(expr.Target), d.shifted(expr.Method)}
		for _, arg := range expr.Args {
			args = append(args, d.shifted(arg))
		}
		return d.shiftOpImpl(f, expr, args)
	case *ast.GetItem:
		args := []ast.Expr{d.shifted(expr.Value)}
		for _, arg := range expr.Args {
			args = append(args, d.shifted(arg))
		}
		return d.shiftOpImpl(f, expr, args)
	case *ast.GetAttr:
		return d.shiftOpImpl(f, expr, []ast.Expr{d.shifted(expr.Value), d.shifted(expr.Attr)})
	case *ast.List:
		return d.shiftList(f, expr, wam)
	case *ast.Tuple:
		items := make([]ast.Expr, len(expr.Items))
		for i, item := range expr.Items {
			items[i] = d.shifted(item)
		}
		return ast.NewTuple(expr.Loc, items), nil
	case *ast.And:
		return &ast.And{NodeBase: ast.NodeBase{Loc: expr.Loc},
			Left: d.shifted(expr.Left), Right: d.shifted(expr.Right)}, nil
	case *ast.Or:
		return &ast.Or{NodeBase: ast.NodeBase{Loc: expr.Loc},
			Left: d.shifted(expr.Left), Right: d.shifted(expr.Right)}, nil
	case *ast.AssignExpr:
		return &ast.AssignExpr{NodeBase: ast.NodeBase{Loc: expr.Loc},
			Target: expr.Target, Value: d.shifted(expr.Value)}, nil
	}
	return nil, spyerror.New(spyerror.PanicError, "cannot shift expression %T", expr)
}

// shiftList rebuilds a list display as '__new__' plus a chain of
// '_push' calls on the synthesized list type.
func (d *DopplerFrame) shiftList(f *interp.Frame, expr *ast.List, wam *vm.MetaArg) (ast.Expr, error) {
	listT := wam.StaticT
	newFqn := listT.Fqn.Join("__new__")
	pushFqn := listT.Fqn.Join("_push")

	var res ast.Expr = ast.NewCall(expr.Loc, ast.NewFQNConst(expr.Loc, newFqn), nil)
	for _, item := range expr.Items {
		res = ast.NewCall(item.Location(), ast.NewFQNConst(item.Location(), pushFqn),
			[]ast.Expr{res, d.shifted(item)})
	}
	return res, nil
}

// shiftOpImpl turns an OpImpl into a residual Call on a FQNConst,
// realizing each ArgSpec against the shifted original arguments.
func (d *DopplerFrame) shiftOpImpl(f *interp.Frame, node ast.Node, origArgs []ast.Expr) (ast.Expr, error) {
	oi, ok := d.opimpl[node]
	if !ok {
		return nil, spyerror.New(spyerror.PanicError, "no OpImpl recorded for node")
	}
	return d.buildOpImplCall(f, node, oi, origArgs), nil
}

func (d *DopplerFrame) buildOpImplCall(f *interp.Frame, node ast.Node, oi *vm.OpImpl, origArgs []ast.Expr) ast.Expr {
	loc := node.Location()
	if oi.IsConst() {
		return MakeConst(f.VM, loc, oi.ConstVal())
	}
	fnConst := MakeConst(f.VM, loc, oi.Fn)
	realArgs := make([]ast.Expr, 0, len(oi.Args))
	for _, spec := range oi.Args {
		realArgs = append(realArgs, d.realizeArgSpec(f, loc, spec, origArgs))
	}
	return ast.NewCall(loc, fnConst, realArgs)
}

func (d *DopplerFrame) realizeArgSpec(f *interp.Frame, loc location.Loc, spec vm.ArgSpec, origArgs []ast.Expr) ast.Expr {
	switch spec := spec.(type) {
	case vm.ArgIdx:
		return origArgs[spec.I]
	case vm.ArgConst:
		return MakeConst(f.VM, spec.Loc, spec.Val)
	case vm.ArgConvert:
		inner := d.realizeArgSpec(f, loc, spec.Inner, origArgs)
		fnConst := MakeConst(f.VM, loc, spec.Conv)
		return ast.NewCall(loc, fnConst, []ast.Expr{inner})
	}
	panic("doppler: unknown ArgSpec")
}
