package interp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	ts "github.com/spylang/spy/internal/testsupport"
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
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

func TestExecSimpleFunction(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("add", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}}, "i32",
			ts.Ret(ts.Bin("+", ts.Nm("x"), ts.Nm("y"))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	add, err := ts.FuncOf(v, wmod, "add")
	require.NoError(t, err)
	res, err := v.FastCall(add, []vm.Object{vm.I32(2), vm.I32(3)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(5)), res)
}

func TestImplicitReturnConversion(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red,
			[]ts.Param{{Name: "x", Type: "i32"}}, "f64",
			ts.Ret(ts.Nm("x")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	res, err := v.FastCall(f, []vm.Object{vm.I32(42)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.F64(42)), res)
}

func TestIfWhileControlFlow(t *testing.T) {
	// def collatz_len(n: i32) -> i32:
	//     steps = 0
	//     while n != 1:
	//         if n % 2 == 0: n = n / 2
	//         else: n = 3*n + 1
	//         steps = steps + 1
	//     return steps
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("collatz_len", symtable.Red,
			[]ts.Param{{Name: "n", Type: "i32"}}, "i32",
			ts.Assign("steps", ts.C(0)),
			ts.WhileS(ts.Cmp("!=", ts.Nm("n"), ts.C(1)),
				ts.IfS(ts.Cmp("==", ts.Bin("%", ts.Nm("n"), ts.C(2)), ts.C(0)),
					[]ast.Stmt{ts.Assign("n", ts.Bin("/", ts.Nm("n"), ts.C(2)))},
					[]ast.Stmt{ts.Assign("n", ts.Bin("+", ts.Bin("*", ts.C(3), ts.Nm("n")), ts.C(1)))},
				),
				ts.Assign("steps", ts.Bin("+", ts.Nm("steps"), ts.C(1))),
			),
			ts.Ret(ts.Nm("steps")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	f, err := ts.FuncOf(v, wmod, "collatz_len")
	require.NoError(t, err)
	res, err := v.FastCall(f, []vm.Object{vm.I32(6)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(8)), res)
}

func TestGlobalConstFolding(t *testing.T) {
	mod := ts.Mod("m",
		ts.GConst("K", ts.C(10)),
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Ret(ts.Bin("*", ts.Nm("K"), ts.C(2))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	res, err := v.FastCall(f, nil)
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(20)), res)
}

func TestVarGlobalGoesThroughCell(t *testing.T) {
	mod := ts.Mod("m",
		ts.GVar("counter", "i32", ts.C(0)),
		ts.GFunc(ts.Func("bump", symtable.Red, nil, "i32",
			ts.Assign("counter", ts.Bin("+", ts.Nm("counter"), ts.C(1))),
			ts.Ret(ts.Nm("counter")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	cell, ok := v.LookupGlobal(mustParse(t, "m::counter")).(*vm.Cell)
	require.True(t, ok, "a module-level var resolves to a Cell")
	require.Equal(t, vm.Object(vm.I32(0)), cell.Get())

	bump, err := ts.FuncOf(v, wmod, "bump")
	require.NoError(t, err)
	_, err = v.FastCall(bump, nil)
	require.NoError(t, err)
	res, err := v.FastCall(bump, nil)
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(2)), res)
	require.Equal(t, vm.Object(vm.I32(2)), cell.Get())
}

func TestAssignToConstGlobalFails(t *testing.T) {
	mod := ts.Mod("m",
		ts.GConst("K", ts.C(10)),
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Assign("K", ts.C(11)),
			ts.Ret(ts.Nm("K")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.TypeError))
	e, _ := spyerror.AsError(err)
	require.Equal(t, "invalid assignment target", e.Message)
}

func TestDoubleDeclarationIsScopeError(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Blue, nil, "i32",
			ts.VarDecl("x", "i32", ts.C(1)),
			ts.VarDecl("x", "i32", ts.C(2)),
			ts.Ret(ts.Nm("x")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.ScopeError))
}

func TestUnpackAssign(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Blue, nil, "i32",
			&ast.UnpackAssign{
				NodeBase: ast.NodeBase{},
				Targets:  []*ast.StrConst{ts.S("a"), ts.S("b")},
				Value:    ts.TupleE(ts.C(7), ts.C(35)),
			},
			ts.Ret(ts.Bin("+", ts.Nm("a"), ts.Nm("b"))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	res, err := v.FastCall(f, nil)
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(42)), res)
}

func TestUnpackArityMismatch(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Blue, nil, "i32",
			ts.Unpack(ts.TupleE(ts.C(1), ts.C(2), ts.C(3)), "a", "b"),
			ts.Ret(ts.Nm("a")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.ValueError))
}

func TestAssertFailure(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("boom", symtable.Red, nil, "NoneType",
			ts.Assert(ts.Cmp("==", ts.C(1), ts.C(2)), ts.S("bang")),
			ts.Ret(ts.C(nil)),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "boom")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.AssertionError))
	e, _ := spyerror.AsError(err)
	require.Equal(t, "bang", e.Message)
}

func TestRaiseStatement(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("boom", symtable.Red, nil, "NoneType",
			ts.RaiseS(ts.CallE(ts.Nm("IndexError"), ts.S("too far"))),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "boom")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.IndexError))
	e, _ := spyerror.AsError(err)
	require.Equal(t, "too far", e.Message)
}

func TestMissingReturnIsTypeError(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Expr(ts.C(1)),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.TypeError))
	e, _ := spyerror.AsError(err)
	require.Contains(t, e.Message, "without a `return`")
}

func TestUnknownNameIsNameError(t *testing.T) {
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("f", symtable.Red, nil, "i32",
			ts.Ret(ts.Nm("nope")),
		)),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "f")
	require.NoError(t, err)
	_, err = v.FastCall(f, nil)
	require.True(t, spyerror.IsKind(err, spyerror.NameError))
}

func TestBlueGenericSynthesizesNamespace(t *testing.T) {
	// @blue
	// def make_Point(T):
	//     class Point:
	//         x: T
	//         y: T
	//     return Point
	// Point_i32 = make_Point(i32)
	mod := ts.Mod("m",
		ts.GFunc(ts.Func("make_Point", symtable.Blue,
			[]ts.Param{{Name: "T", Type: "dynamic"}}, "dynamic",
			ts.Class("Point", []ts.Param{{Name: "x", Type: "T"}, {Name: "y", Type: "T"}}),
			ts.Ret(ts.Nm("Point")),
		)),
		ts.GConst("Point_i32", ts.CallE(ts.Nm("make_Point"), ts.Nm("i32"))),
	)
	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)

	w := wmod.GetAttrMaybe("Point_i32")
	require.NotNil(t, w)
	pointT, ok := w.(*vm.Type)
	require.True(t, ok)
	require.Equal(t, "m::make_Point[builtins::i32]::Point", pointT.Fqn.String())
	require.True(t, pointT.IsDefined())

	require.Equal(t, []string{"x", "y"}, pointT.Fields.Keys())
	xT, _ := pointT.Fields.Get("x")
	yT, _ := pointT.Fields.Get("y")
	require.Same(t, vm.B.I32T, xT)
	require.Same(t, vm.B.I32T, yT)

	// the instantiation is registered under its synthesized FQN
	require.Equal(t, vm.Object(pointT), v.LookupGlobal(pointT.Fqn))
}

func TestStructIteratorForLoop(t *testing.T) {
	// class RangeIter:
	//     i: i32
	//     n: i32
	//     def __iter__(self) -> RangeIter: return self
	//     def __continue__(self) -> bool: return self.i < self.n
	//     def __item__(self) -> i32: return self.i
	//     def __next__(self) -> RangeIter: return RangeIter(self.i + 1, self.n)
	//
	// def sum_below(n: i32) -> i32:
	//     total = 0
	//     for x in RangeIter(0, n):
	//         total = total + x
	//     return total
	rangeIter := ts.Class("RangeIter",
		[]ts.Param{{Name: "i", Type: "i32"}, {Name: "n", Type: "i32"}},
		ts.Func("__iter__", symtable.Red,
			[]ts.Param{{Name: "self", Type: "RangeIter"}}, "RangeIter",
			ts.Ret(ts.Nm("self"))),
		ts.Func("__continue__", symtable.Red,
			[]ts.Param{{Name: "self", Type: "RangeIter"}}, "bool",
			ts.Ret(ts.Cmp("<", ts.Attr(ts.Nm("self"), "i"), ts.Attr(ts.Nm("self"), "n")))),
		ts.Func("__item__", symtable.Red,
			[]ts.Param{{Name: "self", Type: "RangeIter"}}, "i32",
			ts.Ret(ts.Attr(ts.Nm("self"), "i"))),
		ts.Func("__next__", symtable.Red,
			[]ts.Param{{Name: "self", Type: "RangeIter"}}, "RangeIter",
			ts.Ret(ts.CallE(ts.Nm("RangeIter"),
				ts.Bin("+", ts.Attr(ts.Nm("self"), "i"), ts.C(1)),
				ts.Attr(ts.Nm("self"), "n")))),
	)
	sumBelow := ts.Func("sum_below", symtable.Red,
		[]ts.Param{{Name: "n", Type: "i32"}}, "i32",
		ts.Assign("total", ts.C(0)),
		&ast.For{
			NodeBase: ast.NodeBase{},
			Target:   ts.S("x"),
			Iter:     ts.CallE(ts.Nm("RangeIter"), ts.C(0), ts.Nm("n")),
			Body: []ast.Stmt{
				ts.Assign("total", ts.Bin("+", ts.Nm("total"), ts.Nm("x"))),
			},
		},
		ts.Ret(ts.Nm("total")),
	)
	mod := ts.Mod("m", ts.GClass(rangeIter), ts.GFunc(sumBelow))

	v, wmod, err := ts.LoadModule(mod)
	require.NoError(t, err)
	f, err := ts.FuncOf(v, wmod, "sum_below")
	require.NoError(t, err)
	res, err := v.FastCall(f, []vm.Object{vm.I32(5)})
	require.NoError(t, err)
	require.Equal(t, vm.Object(vm.I32(10)), res)
}

func TestModuleInitHook(t *testing.T) {
	mod := ts.Mod("m",
		ts.GVar("initialized", "i32", ts.C(0)),
		ts.GFunc(ts.Func("__INIT__", symtable.Blue,
			[]ts.Param{{Name: "mod", Type: "module"}}, "NoneType",
			ts.Assign("initialized", ts.C(1)),
			ts.Ret(ts.C(nil)),
		)),
	)
	v, _, err := ts.LoadModule(mod)
	require.NoError(t, err)
	cell, ok := v.LookupGlobal(mustParse(t, "m::initialized")).(*vm.Cell)
	require.True(t, ok)
	require.Equal(t, vm.Object(vm.I32(1)), cell.Get())
}
