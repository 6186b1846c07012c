package doppler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ts "github.com/spylang/spy/internal/testsupport"
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/doppler"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/interp"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

func mustParse(t *testing.T, s string) fqn.FQN {
	t.Helper()
	f, err := fqn.Parse(s)
	require.NoError(t, err)
	return f
}

// redshiftOne loads a module and redshifts the named function.
func redshiftOne(t *testing.T, mod *ast.Module, name string, mode doppler.ErrorMode) (*vm.VM, *vm.ASTFunc, error) {
	t.Helper()
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	fn, err := ts.FuncOf(v, wmod, name)
	require.NoError(t, err)
	newFn, err := doppler.Redshift(v, fn, mode)
	return v, newFn, err
}

// requireCall asserts that e is Call(FQNConst(callee), ...) and returns
// its arguments.
func requireCall(t *testing.T, e ast.Expr, callee string) []ast.Expr {
	t.Helper()
	call, ok := e.(*ast.Call)
	require.True(t, ok, "expected a Call, got %T", e)
	fn, ok := call.Func.(*ast.FQNConst)
	require.True(t, ok, "callee must be a FQNConst, got %T", call.Func)
	require.Equal(t, callee, fn.Fqn.String())
	return call.Args
}

func requireNameLocal(t *testing.T, e ast.Expr, id string) {
	t.Helper()
	n, ok := e.(*ast.NameLocal)
	require.True(t, ok, "expected NameLocal, got %T", e)
	require.Equal(t, id, n.ID)
}

func retValue(t *testing.T, fn *vm.ASTFunc) ast.Expr {
	t.Helper()
	require.NotEmpty(t, fn.FuncDef.Body)
	ret, ok := fn.FuncDef.Body[len(fn.FuncDef.Body)-1].(*ast.Return)
	require.True(t, ok, "last statement must be a Return, got %T",
		fn.FuncDef.Body[len(fn.FuncDef.Body)-1])
	return ret.Value
}

func TestRedshiftBinOp(t *testing.T) {
	// def add(x: i32, y: i32) -> i32: return x + y
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("add", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}}, "i32",
			ts.Ret(ts.Bin("+", ts.Nm("x"), ts.Nm("y"))),
		)),
	)
	v, newFn, err := redshiftOne(t, mod, "add", doppler.Eager)
	require.NoError(t, err)

	args := requireCall(t, retValue(t, newFn), "operator::i32_add")
	require.Len(t, args, 2)
	requireNameLocal(t, args[0], "x")
	requireNameLocal(t, args[1], "y")

	require.NoError(t, doppler.ValidateResidual(newFn))

	// the residual is re-executable and equivalent
	res, err := v.FastCall(newFn, []vm.Object{vm.I32(2), vm.I32(3)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(5)), res)
}

func TestRedshiftInsertsConversion(t *testing.T) {
	// def f(x: i32) -> f64: return x
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "f64",
			ts.Ret(ts.Nm("x")),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)

	args := requireCall(t, retValue(t, newFn), "operator::i32_to_f64")
	require.Len(t, args, 1)
	requireNameLocal(t, args[0], "x")
}

func TestRedshiftFoldsBlueGlobals(t *testing.T) {
	mod := ts.Mod("m",
		ts.GConst("K", ts.C(10)),
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Ret(ts.Bin("*", ts.Nm("K"), ts.C(2))),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)

	c, ok := retValue(t, newFn).(*ast.Constant)
	require.True(t, ok, "blue computation must fold to a constant")
	require.Equal(t, int32(20), c.Value)
}

func TestRedshiftInvalidatesOriginal(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32", ts.Ret(ts.C(1)))),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	old, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)

	newFn, err := doppler.Redshift(v, old, doppler.Eager)
	require.NoError(t, err)

	require.True(t, newFn.Redshifted)
	require.Nil(t, newFn.Closure)
	require.False(t, old.IsValid())
	require.Same(t, newFn, old.RedshiftedInto())
	// the global table now resolves to the residual function
	require.Equal(t, vm.Object(newFn), v.LookupGlobal(old.Fqn()))

	_, err = doppler.Redshift(v, newFn, doppler.Eager)
	require.Error(t, err, "cannot redshift twice")
}

func TestRedshiftDispatchViaBlueMetafunc(t *testing.T) {
	// @struct class MyInt:
	//     __ll__: i32
	//     def my_getitem(self: MyInt, i: i32) -> i32: return self.__ll__ + i
	//     def __GETITEM__(self, i): return OpSpec(my_getitem)
	//
	// def f(m: MyInt, y: i32) -> i32: return m[y]
	myInt := ts.Class("MyInt",
		[]ts.Param{{Name: "__ll__", Type: "i32"}},
		ts.Func("my_getitem", symtable.Red,
			[]ts.Param{{Name: "self", Type: "MyInt"}, {Name: "i", Type: "i32"}}, "i32",
			ts.Ret(ts.Bin("+", ts.Attr(ts.Nm("self"), "__ll__"), ts.Nm("i")))),
		ts.Metafunc(ts.Func("__GETITEM__", symtable.Blue,
			[]ts.Param{{Name: "self", Type: "dynamic"}, {Name: "i", Type: "dynamic"}}, "dynamic",
			ts.Ret(ts.CallE(ts.Nm("OpSpec"), ts.Nm("my_getitem"))))),
	)
	f := ts.Func("f", symtable.Red,
		[]ts.Param{{Name: "m", Type: "MyInt"}, {Name: "y", Type: "i32"}}, "i32",
		ts.Ret(ts.Item(ts.Nm("m"), ts.Nm("y"))),
	)
	mod := ts.Mod("m", ts.GClass(myInt), ts.GFunc(f))

	_, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)

	args := requireCall(t, retValue(t, newFn), "m::MyInt::my_getitem")
	require.Len(t, args, 2)
	requireNameLocal(t, args[0], "m")
	requireNameLocal(t, args[1], "y")
	require.NoError(t, doppler.ValidateResidual(newFn))
}

func TestErrorModes(t *testing.T) {
	badBody := func() *ast.FuncDef {
		return ts.Func("foo", symtable.Red, nil, "i32",
			ts.Ret(ts.Bin("+", ts.C(1), ts.S("hello"))),
		)
	}

	t.Run("eager", func(t *testing.T) {
		mod := ts.Mod("m", ts.GFunc(badBody()))
		_, _, err := redshiftOne(t, mod, "foo", doppler.Eager)
		require.True(t, spyerror.IsKind(err, spyerror.TypeError))
		e, _ := spyerror.AsError(err)
		require.Equal(t, "cannot do `i32` + `str`", e.Message)
	})

	t.Run("lazy", func(t *testing.T) {
		mod := ts.Mod("m", ts.GFunc(badBody()))
		v, newFn, err := redshiftOne(t, mod, "foo", doppler.Lazy)
		require.NoError(t, err)

		// the failing statement became a residual raise
		require.Len(t, newFn.FuncDef.Body, 1)
		stmtExpr, ok := newFn.FuncDef.Body[0].(*ast.StmtExpr)
		require.True(t, ok)
		args := requireCall(t, stmtExpr.Value, "operator::raise")
		require.Equal(t, "TypeError", args[0].(*ast.StrConst).Value)
		require.Equal(t, "cannot do `i32` + `str`", args[1].(*ast.StrConst).Value)

		// and a warning was emitted
		require.Len(t, v.Warnings, 1)
		require.Equal(t, spyerror.TypeError, v.Warnings[0].Kind)

		require.NoError(t, doppler.ValidateResidual(newFn))
	})
}

func TestNonStaticErrorsAreAlwaysEager(t *testing.T) {
	// tuple arity mismatch is a ValueError: not downgradable
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("foo", symtable.Red, nil, "i32",
			ts.Unpack(ts.TupleE(ts.C(1), ts.C(2), ts.C(3)), "a", "b"),
			ts.Ret(ts.Nm("a")),
		)),
	)
	_, _, err := redshiftOne(t, mod, "foo", doppler.Lazy)
	require.True(t, spyerror.IsKind(err, spyerror.ValueError))
}

func TestRedshiftAssert(t *testing.T) {
	// def t(): assert False, "bang"
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("t", symtable.Red, nil, "NoneType",
			ts.Assert(ts.C(false), ts.S("bang")),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "t", doppler.Eager)
	require.NoError(t, err)

	require.Len(t, newFn.FuncDef.Body, 1)
	stmtExpr, ok := newFn.FuncDef.Body[0].(*ast.StmtExpr)
	require.True(t, ok)
	args := requireCall(t, stmtExpr.Value, "operator::raise")
	require.Len(t, args, 4)
	require.Equal(t, "AssertionError", args[0].(*ast.StrConst).Value)
	require.Equal(t, "bang", args[1].(*ast.StrConst).Value)
}

func TestRedshiftAssertTrueVanishes(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("t", symtable.Red, nil, "NoneType",
			ts.Assert(ts.C(true), ts.S("never")),
			ts.Ret(ts.C(nil)),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "t", doppler.Eager)
	require.NoError(t, err)
	require.Len(t, newFn.FuncDef.Body, 1)
	_, ok := newFn.FuncDef.Body[0].(*ast.Return)
	require.True(t, ok)
}

func TestRedshiftRedAssertIsGuarded(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("t", symtable.Red,
			[]ts.Param{{Name: "ok", Type: "bool"}}, "NoneType",
			ts.Assert(ts.Nm("ok"), ts.S("bad")),
			ts.Ret(ts.C(nil)),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "t", doppler.Eager)
	require.NoError(t, err)

	guard, ok := newFn.FuncDef.Body[0].(*ast.If)
	require.True(t, ok, "a red assert lowers to a conditional raise")
	requireNameLocal(t, guard.Test, "ok")
	require.Empty(t, guard.ThenBody)
	require.Len(t, guard.ElseBody, 1)
}

func TestRedshiftCellAccess(t *testing.T) {
	mod := ts.Mod("m",
		ts.GVar("counter", "i32", ts.C(0)),
		ts.GFunc(ts.Func("bump", symtable.Red, nil, "i32",
			ts.Assign("counter", ts.Bin("+", ts.Nm("counter"), ts.C(1))),
			ts.Ret(ts.Nm("counter")),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "bump", doppler.Eager)
	require.NoError(t, err)

	assignCell, ok := newFn.FuncDef.Body[0].(*ast.AssignCell)
	require.True(t, ok, "writes to module vars go through the cell")
	require.Equal(t, "m::counter", assignCell.Fqn.String())
	addArgs := requireCall(t, assignCell.Value, "operator::i32_add")
	_, ok = addArgs[0].(*ast.NameCell)
	require.True(t, ok, "reads of module vars go through the cell")

	retCell, ok := retValue(t, newFn).(*ast.NameCell)
	require.True(t, ok)
	require.Equal(t, "m::counter", retCell.Fqn.String())

	require.NoError(t, doppler.ValidateResidual(newFn))
}

func TestRedshiftControlFlowResidual(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "n", Type: "i32"}}, "i32",
			ts.Assign("total", ts.C(0)),
			ts.WhileS(ts.Cmp(">", ts.Nm("n"), ts.C(0)),
				ts.Assign("total", ts.Bin("+", ts.Nm("total"), ts.Nm("n"))),
				ts.Assign("n", ts.Bin("-", ts.Nm("n"), ts.C(1))),
			),
			ts.Ret(ts.Nm("total")),
		)),
	)
	v, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)
	require.NoError(t, doppler.ValidateResidual(newFn))

	// locals keep their inferred types for the emitter
	require.Same(t, vm.B.I32T, newFn.LocalsTypes["total"])
	require.Same(t, vm.B.I32T, newFn.LocalsTypes["n"])

	// the residual still computes the same function
	res, err := v.FastCall(newFn, []vm.Object{vm.I32(4)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(10)), res)
}

func TestMakeConstRoundTrip(t *testing.T) {
	v := interp.NewVM()
	listT := v.MakeListType(vm.B.I32T)
	values := []vm.Object{
		vm.I32(42), vm.F64(1.5), vm.Bool(true), vm.Str("hi"), vm.B.None,
		&vm.Tuple{Items: []vm.Object{vm.I32(1), vm.Str("two")}},
		vm.B.I32T,
		listT,
	}
	frame := interp.NewFrame(v, mustParse(t, "m"), symtable.New("m", symtable.Blue), nil, "astframe")

	for _, w := range values {
		expr := doppler.MakeConst(v, location.Fake(), w)
		wam, err := frame.EvalExpr(expr, "")
		require.NoError(t, err)
		require.True(t, wam.IsBlue())
		switch want := w.(type) {
		case *vm.Tuple:
			got := wam.Val.(*vm.Tuple)
			require.Equal(t, want.Items, got.Items)
		default:
			require.Equal(t, w, wam.Val)
		}
	}
}

func TestRedshiftListDisplay(t *testing.T) {
	// def f(x: i32) -> i32:
	//     l = [x, 1]
	//     return l[0]
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "i32",
			ts.Assign("l", ts.ListE(ts.Nm("x"), ts.C(1))),
			ts.Ret(ts.Item(ts.Nm("l"), ts.C(0))),
		)),
	)
	v, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)

	// the display lowers to __new__ plus a chain of _push calls
	assign, ok := newFn.FuncDef.Body[0].(*ast.AssignLocal)
	require.True(t, ok)
	push2 := requireCall(t, assign.Value, "builtins::list[builtins::i32]::_push")
	require.Len(t, push2, 2)
	push1 := requireCall(t, push2[0], "builtins::list[builtins::i32]::_push")
	requireCall(t, push1[0], "builtins::list[builtins::i32]::__new__")
	requireNameLocal(t, push1[1], "x")

	getArgs := requireCall(t, retValue(t, newFn), "builtins::list[builtins::i32]::__getitem__")
	requireNameLocal(t, getArgs[0], "l")

	require.NoError(t, doppler.ValidateResidual(newFn))
	require.Same(t, v.MakeListType(vm.B.I32T), newFn.LocalsTypes["l"])

	// the residual stays executable
	res, err := v.FastCall(newFn, []vm.Object{vm.I32(9)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(9)), res)
}

func TestResidualGrammar(t *testing.T) {
	// every expression node of a redshifted body is one of the allowed
	// residual kinds
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "i32",
			ts.IfS(ts.Cmp("<", ts.Nm("x"), ts.C(0)),
				[]ast.Stmt{ts.Ret(ts.Bin("-", ts.C(0), ts.Nm("x")))},
				[]ast.Stmt{ts.Ret(ts.Nm("x"))},
			),
		)),
	)
	_, newFn, err := redshiftOne(t, mod, "f", doppler.Eager)
	require.NoError(t, err)
	require.NoError(t, doppler.ValidateResidual(newFn))

	kinds := map[string]bool{}
	for _, stmt := range newFn.FuncDef.Body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if _, ok := n.(ast.Expr); ok {
				switch n.(type) {
				case *ast.Constant, *ast.StrConst, *ast.LocConst, *ast.FQNConst,
					*ast.NameLocal, *ast.NameCell, *ast.And, *ast.Or, *ast.Tuple:
				case *ast.Call:
				default:
					kinds["unexpected"] = true
				}
			}
			return true
		})
	}
	require.False(t, kinds["unexpected"])
}
