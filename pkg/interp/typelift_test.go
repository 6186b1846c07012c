package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ts "github.com/spylang/spy/internal/testsupport"
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

func andE(l, r ast.Expr) *ast.And {
	return &ast.And{Left: l, Right: r}
}

func orE(l, r ast.Expr) *ast.Or {
	return &ast.Or{Left: l, Right: r}
}

func augAssign(target, op string, value ast.Expr) *ast.AugAssign {
	return &ast.AugAssign{Op: op, Target: ts.S(target), Value: value}
}

func setItem(target ast.Expr, index, value ast.Expr) *ast.SetItem {
	return &ast.SetItem{Target: target, Args: []ast.Expr{index}, Value: value}
}

func TestTypeliftWrapUnwrap(t *testing.T) {
	// @typelift
	// class Meters:
	//     __ll__: i32
	//
	// def wrap(x: i32) -> Meters: return x
	// def unwrap(m: Meters) -> i32: return m
	mod := ts.Mod("m",
		ts.GClass(ts.Typelift(ts.Class("Meters",
			[]ts.Param{{Name: "__ll__", Type: "i32"}}))),
		ts.GFunc(ts.Func("wrap", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "Meters",
			ts.Ret(ts.Nm("x")),
		)),
		ts.GFunc(ts.Func("unwrap", symtable.Red,
			[]ts.Param{{Name: "m", Type: "Meters"}}, "i32",
			ts.Ret(ts.Nm("m")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	metersT, ok := wmod.GetAttrMaybe("Meters").(*vm.Type)
	require.True(t, ok)
	require.Equal(t, vm.ReprTypelift, metersT.Repr)
	require.Same(t, vm.B.I32T, metersT.Lifted)

	wrap, err := ts.FuncOf(v, wmod, "wrap")
	require.NoError(t, err)
	unwrap, err := ts.FuncOf(v, wmod, "unwrap")
	require.NoError(t, err)

	lifted, err := v.FastCall(wrap, []vm.Object{vm.I32(42)})
	require.NoError(t, err)
	lv, ok := lifted.(*vm.LiftedVal)
	require.True(t, ok, "wrapping yields a lifted value")
	require.Same(t, metersT, lv.TypeW)

	// unwrap(wrap(x)) == x
	back, err := v.FastCall(unwrap, []vm.Object{lifted})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(42)), back)
}

func TestAugAssign(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "i32",
			augAssign("x", "+", ts.C(5)),
			ts.Ret(ts.Nm("x")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	res, err := v.FastCall(f, []vm.Object{vm.I32(37)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(42)), res)
}

func TestBoolAndOr(t *testing.T) {
	// def f(a: bool, b: bool) -> bool: return (a and b) or (a != b)
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "a", Type: "bool"}, {Name: "b", Type: "bool"}}, "bool",
			ts.Ret(orE(andE(ts.Nm("a"), ts.Nm("b")), ts.Cmp("!=", ts.Nm("a"), ts.Nm("b")))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)

	cases := []struct {
		a, b, want bool
	}{
		{true, true, true},
		{true, false, true},
		{false, false, false},
	}
	for _, tc := range cases {
		res, err := v.FastCall(f, []vm.Object{vm.Bool(tc.a), vm.Bool(tc.b)})
		require.NoError(t, err)
		require.Equal(t, vm.Object(vm.Bool(tc.want)), res, "f(%v, %v)", tc.a, tc.b)
	}
}

func TestListOps(t *testing.T) {
	// def f(x: i32) -> i32:
	//     l = [x, 10]
	//     l[1] = l[1] + 1
	//     return l[0] + l[1]
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "i32",
			ts.Assign("l", ts.ListE(ts.Nm("x"), ts.C(10))),
			setItem(ts.Nm("l"), ts.C(1), ts.Bin("+", ts.Item(ts.Nm("l"), ts.C(1)), ts.C(1))),
			ts.Ret(ts.Bin("+", ts.Item(ts.Nm("l"), ts.C(0)), ts.Item(ts.Nm("l"), ts.C(1)))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	res, err := v.FastCall(f, []vm.Object{vm.I32(31)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(42)), res)
}

func TestListIndexError(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Assign("l", ts.ListE(ts.C(1))),
			ts.Ret(ts.Item(ts.Nm("l"), ts.C(5))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.Error(t, err)
}
