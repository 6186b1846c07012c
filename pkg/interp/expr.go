package interp

import (
	"fmt"

	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
	"github.com/spylang/spy/pkg/vm/operator"
)

func (f *Frame) evalExprDispatch(expr ast.Expr) (*vm.MetaArg, error) {
	switch expr := expr.(type) {
	case *ast.Constant:
		return f.evalConstant(expr)
	case *ast.StrConst:
		return vm.NewMetaArg(vm.Blue, vm.B.StrT, vm.Str(expr.Value), expr.Loc), nil
	case *ast.LocConst:
		return vm.NewMetaArg(vm.Blue, vm.B.LocT, vm.LocVal(expr.Value), expr.Loc), nil
	case *ast.FQNConst:
		return f.evalFQNConst(expr)
	case *ast.Name:
		return f.evalName(expr)
	case *ast.NameLocal:
		return f.evalNameLocal(expr)
	case *ast.NameCell:
		return f.evalNameCell(expr)
	case *ast.BinOp:
		return f.evalBinOp(expr.Op, expr, expr.Left, expr.Right)
	case *ast.CmpOp:
		return f.evalBinOp(expr.Op, expr, expr.Left, expr.Right)
	case *ast.UnaryOp:
		return f.evalUnaryOp(expr)
	case *ast.Call:
		return f.evalCall(expr)
	case *ast.CallMethod:
		return f.evalCallMethod(expr)
	case *ast.GetItem:
		return f.evalGetItem(expr)
	case *ast.GetAttr:
		return f.evalGetAttr(expr)
	case *ast.List:
		return f.evalList(expr)
	case *ast.Tuple:
		return f.evalTuple(expr)
	case *ast.And:
		return f.evalAndOr(expr, expr.Left, expr.Right, true)
	case *ast.Or:
		return f.evalAndOr(expr, expr.Left, expr.Right, false)
	case *ast.AssignExpr:
		return f.evalAssignExpr(expr)
	}
	panic(fmt.Sprintf("interp: unknown expression node %T", expr))
}

func (f *Frame) evalConstant(expr *ast.Constant) (*vm.MetaArg, error) {
	switch x := expr.Value.(type) {
	case nil, bool, int, int32, int64, int8, uint8, float64:
		w := f.VM.Wrap(x)
		return vm.NewMetaArg(vm.Blue, w.DynType(f.VM), w, expr.Loc), nil
	}
	panic(fmt.Sprintf("interp: unsupported constant %T", expr.Value))
}

func (f *Frame) evalFQNConst(expr *ast.FQNConst) (*vm.MetaArg, error) {
	w := f.VM.LookupGlobal(expr.Fqn)
	if w == nil {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("unknown global `%s`", expr.Fqn), "not found", expr.Loc)
	}
	m := vm.MetaArgFromObject(f.VM, w)
	m.Loc = expr.Loc
	return m, nil
}

func (f *Frame) evalName(name *ast.Name) (*vm.MetaArg, error) {
	sym := f.Symtable.Lookup(name.ID)
	if sym == nil {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("name `%s` is not defined", name.ID),
			"not found in this scope", name.Loc)
	}
	switch {
	case sym.IsGlobal():
		return f.evalNameGlobal(name, sym)
	case sym.IsLocal():
		return f.evalNameLocalSym(name, sym)
	default:
		return f.evalNameOuter(name, sym)
	}
}

func (f *Frame) evalNameGlobal(name *ast.Name, sym *symtable.Symbol) (*vm.MetaArg, error) {
	w := f.VM.LookupGlobal(sym.Fqn)
	if w == nil {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("name `%s` is not defined", name.ID),
			"global not found", name.Loc)
	}
	if cell, ok := w.(*vm.Cell); ok {
		// module-level var: reads go through the cell so that residual
		// code can keep mutating it
		cur := cell.Get()
		val := cur
		if f.Redshifting() && sym.Color == symtable.Red {
			val = nil
		}
		f.specializedNames[name] = ast.NewNameCell(name.Loc, cell.Fqn)
		m := vm.NewMetaArg(sym.Color, cur.DynType(f.VM), val, name.Loc)
		m.Sym = sym
		return m, nil
	}
	f.specializedNames[name] = ast.NewFQNConst(name.Loc, sym.Fqn)
	m := vm.NewMetaArg(sym.Color, w.DynType(f.VM), w, name.Loc)
	m.Sym = sym
	return m, nil
}

func (f *Frame) evalNameLocalSym(name *ast.Name, sym *symtable.Symbol) (*vm.MetaArg, error) {
	t, ok := f.localsTypes[name.ID]
	if !ok {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("name `%s` is not defined", name.ID),
			"used before declaration", name.Loc)
	}
	var val vm.Object
	if sym.Color == symtable.Red && f.Redshifting() {
		val = nil
	} else {
		var err error
		val, err = f.LoadLocal(name.ID)
		if err != nil {
			if e, ok := spyerror.AsError(err); ok {
				e.AddLocMaybe(name.Loc)
			}
			return nil, err
		}
	}
	f.specializedNames[name] = ast.NewNameLocal(name.Loc, name.ID)
	m := vm.NewMetaArg(sym.Color, t, val, name.Loc)
	m.Sym = sym
	return m, nil
}

func (f *Frame) evalNameOuter(name *ast.Name, sym *symtable.Symbol) (*vm.MetaArg, error) {
	// closed-over variables are always blue
	ns := f.Closure.At(sym.Level)
	if ns == nil {
		return nil, spyerror.Simple(spyerror.ScopeError,
			fmt.Sprintf("illegal outer access to `%s`", name.ID),
			"no enclosing scope at this level", name.Loc)
	}
	w, ok := ns[name.ID]
	if !ok || w == nil {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("name `%s` is not defined", name.ID),
			"not found in the enclosing scope", name.Loc)
	}
	m := vm.NewMetaArg(symtable.Blue, w.DynType(f.VM), w, name.Loc)
	m.Sym = sym
	return m, nil
}

func (f *Frame) evalNameLocal(expr *ast.NameLocal) (*vm.MetaArg, error) {
	// residual node: appears only when re-executing redshifted code
	t, ok := f.localsTypes[expr.ID]
	if !ok {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("name `%s` is not defined", expr.ID), "not found", expr.Loc)
	}
	val, err := f.LoadLocal(expr.ID)
	if err != nil {
		return nil, err
	}
	return vm.NewMetaArg(symtable.Red, t, val, expr.Loc), nil
}

func (f *Frame) evalNameCell(expr *ast.NameCell) (*vm.MetaArg, error) {
	w := f.VM.LookupGlobal(expr.Fqn)
	cell, ok := w.(*vm.Cell)
	if !ok {
		return nil, spyerror.Simple(spyerror.NameError,
			fmt.Sprintf("unknown cell `%s`", expr.Fqn), "not found", expr.Loc)
	}
	cur := cell.Get()
	return vm.NewMetaArg(symtable.Red, cur.DynType(f.VM), cur, expr.Loc), nil
}

func (f *Frame) evalBinOp(op string, node ast.Expr, left, right ast.Expr) (*vm.MetaArg, error) {
	mf, ok := operator.FromToken(op)
	if !ok {
		panic("interp: unknown binary operator " + op)
	}
	wamL, err := f.EvalExpr(left, "")
	if err != nil {
		return nil, err
	}
	wamR, err := f.EvalExpr(right, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wamL, wamR}
	oi, err := f.callOP(node.Location(), mf, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(node, oi, args)
}

func (f *Frame) evalUnaryOp(expr *ast.UnaryOp) (*vm.MetaArg, error) {
	mf, ok := operator.UnaryFromToken(expr.Op)
	if !ok {
		panic("interp: unknown unary operator " + expr.Op)
	}
	wam, err := f.EvalExpr(expr.Value, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wam}
	oi, err := f.callOP(expr.Loc, mf, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(expr, oi, args)
}

func (f *Frame) evalCall(expr *ast.Call) (*vm.MetaArg, error) {
	wamF, err := f.EvalExpr(expr.Func, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wamF}
	for _, arg := range expr.Args {
		wam, err := f.EvalExpr(arg, "")
		if err != nil {
			return nil, err
		}
		args = append(args, wam)
	}
	oi, err := f.callOP(expr.Loc, operator.CALL, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(expr, oi, args)
}

func (f *Frame) evalCallMethod(expr *ast.CallMethod) (*vm.MetaArg, error) {
	wamObj, err := f.EvalExpr(expr.Target, "")
	if err != nil {
		return nil, err
	}
	wamMeth, err := f.EvalExpr(expr.Method, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wamObj, wamMeth}
	for _, arg := range expr.Args {
		wam, err := f.EvalExpr(arg, "")
		if err != nil {
			return nil, err
		}
		args = append(args, wam)
	}
	oi, err := f.callOP(expr.Loc, operator.CALLMETHOD, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(expr, oi, args)
}

func (f *Frame) evalGetItem(expr *ast.GetItem) (*vm.MetaArg, error) {
	wamObj, err := f.EvalExpr(expr.Value, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wamObj}
	for _, arg := range expr.Args {
		wam, err := f.EvalExpr(arg, "")
		if err != nil {
			return nil, err
		}
		args = append(args, wam)
	}
	oi, err := f.callOP(expr.Loc, operator.GETITEM, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(expr, oi, args)
}

func (f *Frame) evalGetAttr(expr *ast.GetAttr) (*vm.MetaArg, error) {
	wamObj, err := f.EvalExpr(expr.Value, "")
	if err != nil {
		return nil, err
	}
	wamAttr, err := f.EvalExpr(expr.Attr, "")
	if err != nil {
		return nil, err
	}
	args := []*vm.MetaArg{wamObj, wamAttr}
	oi, err := f.callOP(expr.Loc, operator.GETATTR, args)
	if err != nil {
		return nil, err
	}
	return f.evalOpImpl(expr, oi, args)
}

func (f *Frame) evalList(expr *ast.List) (*vm.MetaArg, error) {
	if len(expr.Items) == 0 {
		return nil, spyerror.Simple(spyerror.TypeError,
			"cannot infer the item type of an empty list literal",
			"empty list", expr.Loc)
	}
	var itemT *vm.Type
	color := symtable.Blue
	items := make([]*vm.MetaArg, 0, len(expr.Items))
	for _, item := range expr.Items {
		wam, err := f.EvalExpr(item, "")
		if err != nil {
			return nil, err
		}
		items = append(items, wam)
		color = symtable.MaybeBlue(color, wam.Color)
		if itemT == nil {
			itemT = wam.StaticT
		} else {
			itemT = f.VM.UnionType(itemT, wam.StaticT)
		}
	}
	listT := f.VM.MakeListType(itemT)
	var val vm.Object
	if !(color == symtable.Red && f.Redshifting()) {
		vals := make([]vm.Object, len(items))
		for i, wam := range items {
			vals[i] = wam.Val
		}
		val = &vm.ListVal{TypeW: listT, Items: vals}
	}
	// list displays are built at run time, so the result is red even
	// when every item is blue
	return vm.NewMetaArg(symtable.Red, listT, val, expr.Loc), nil
}

func (f *Frame) evalTuple(expr *ast.Tuple) (*vm.MetaArg, error) {
	items := make([]*vm.MetaArg, 0, len(expr.Items))
	colors := make([]vm.Color, 0, len(expr.Items))
	for _, item := range expr.Items {
		wam, err := f.EvalExpr(item, "")
		if err != nil {
			return nil, err
		}
		items = append(items, wam)
		colors = append(colors, wam.Color)
	}
	color := symtable.MaybeBlue(colors...)
	var val vm.Object
	if !(color == symtable.Red && f.Redshifting()) {
		vals := make([]vm.Object, len(items))
		for i, wam := range items {
			vals[i] = wam.Val
		}
		val = &vm.Tuple{Items: vals}
	}
	return vm.NewMetaArg(color, vm.B.TupleT, val, expr.Loc), nil
}

func (f *Frame) evalAndOr(node ast.Expr, left, right ast.Expr, isAnd bool) (*vm.MetaArg, error) {
	wamL, err := f.EvalExpr(left, "")
	if err != nil {
		return nil, err
	}
	wamR, err := f.EvalExpr(right, "")
	if err != nil {
		return nil, err
	}
	for _, wam := range []*vm.MetaArg{wamL, wamR} {
		if wam.StaticT != vm.B.BoolT {
			return nil, spyerror.Simple(spyerror.TypeError,
				"mismatched types",
				"expected `bool`, got `"+wam.StaticT.Fqn.HumanName()+"`", wam.Loc)
		}
	}
	color := symtable.MaybeBlue(wamL.Color, wamR.Color)
	var val vm.Object
	if !(color == symtable.Red && f.Redshifting()) {
		l := bool(wamL.Val.(vm.Bool))
		r := bool(wamR.Val.(vm.Bool))
		if isAnd {
			val = vm.Bool(l && r)
		} else {
			val = vm.Bool(l || r)
		}
	}
	return vm.NewMetaArg(color, vm.B.BoolT, val, node.Location()), nil
}

func (f *Frame) evalAssignExpr(expr *ast.AssignExpr) (*vm.MetaArg, error) {
	wam, err := f.execAssignTo(expr.Target, expr.Value)
	if err != nil {
		return nil, err
	}
	return wam, nil
}
