package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spylang/spy/pkg/fqn"
)

func TestWrapUnwrapRoundTrip(t *testing.T) {
	v := New()
	cases := []interface{}{
		true, false, int8(-5), uint8(200), int32(42), 3.5, "hello",
	}
	for _, x := range cases {
		w := v.Wrap(x)
		require.Equal(t, x, v.Unwrap(w), "round trip of %T", x)
	}
	require.Nil(t, v.Unwrap(v.Wrap(nil)))
}

func TestDynTypes(t *testing.T) {
	v := New()
	require.Same(t, B.I32T, v.Wrap(42).DynType(v))
	require.Same(t, B.F64T, v.Wrap(1.5).DynType(v))
	require.Same(t, B.StrT, v.Wrap("x").DynType(v))
	require.Same(t, B.BoolT, v.Wrap(true).DynType(v))
	require.Same(t, B.NoneT, v.Wrap(nil).DynType(v))
	require.Same(t, B.TypeT, B.I32T.DynType(v))
}

func TestGetUniqueFQN(t *testing.T) {
	v := New()
	base := fqn.New("mod::lambda")
	f1 := v.GetUniqueFQN(base)
	f2 := v.GetUniqueFQN(base)
	f3 := v.GetUniqueFQN(base)
	require.Equal(t, "mod::lambda", f1.String())
	require.Equal(t, "mod::lambda#1", f2.String())
	require.Equal(t, "mod::lambda#2", f3.String())
}

func TestAddGlobalUniqueness(t *testing.T) {
	v := New()
	f := fqn.New("mod::x")
	v.AddGlobal(f, I32(1))
	require.Panics(t, func() { v.AddGlobal(f, I32(2)) })
}

func TestModuleItemsMirrorGlobals(t *testing.T) {
	v := New()
	mod := NewModule("mod", "mod.spy")
	v.RegisterModule(mod)
	v.AddGlobal(fqn.New("mod::x"), I32(7))

	w := mod.GetAttrMaybe("x")
	require.Equal(t, Object(I32(7)), w)
	require.Equal(t, w, v.LookupGlobal(fqn.New("mod::x")))
}

func TestMakeFqnConstIdempotent(t *testing.T) {
	v := New()
	w := Str("hello")
	f1 := v.MakeFqnConst(w)
	f2 := v.MakeFqnConst(w)
	require.True(t, f1.Equal(f2))
	require.Equal(t, "const", f1.ModName())
	require.Equal(t, Object(w), v.LookupGlobal(f1))
}

func TestMakeFqnConstTypesAndFuncs(t *testing.T) {
	v := New()
	// builtin types keep their own FQN
	require.Equal(t, "builtins::i32", v.MakeFqnConst(B.I32T).String())

	ft := NewFuncType(nil, B.I32T, Red, FuncPlain)
	fn := NewBuiltinFunc(fqn.New("mod::f"), ft, true,
		func(v *VM, args []Object) (Object, error) { return I32(0), nil })
	got := v.MakeFqnConst(fn)
	require.Equal(t, "mod::f", got.String())
	require.Equal(t, Object(fn), v.LookupGlobal(got))
}

func TestUnionType(t *testing.T) {
	v := New()
	require.Same(t, B.I32T, v.UnionType(B.I32T, B.I32T))
	require.Same(t, B.DynamicT, v.UnionType(B.I32T, B.DynamicT))
	require.Same(t, B.ObjectT, v.UnionType(B.I32T, B.StrT))
	// exception types meet at their common ancestor
	et := B.ExcType("TypeError")
	st := B.ExcType("ScopeError")
	require.Same(t, B.StaticErrorT, v.UnionType(et, st))
}

func TestIsInstance(t *testing.T) {
	v := New()
	require.True(t, v.IsInstance(I32(1), B.I32T))
	require.True(t, v.IsInstance(I32(1), B.DynamicT))
	require.True(t, v.IsInstance(I32(1), B.ObjectT))
	require.False(t, v.IsInstance(I32(1), B.StrT))
}

func TestListTypeSynthesis(t *testing.T) {
	v := New()
	l1 := v.MakeListType(B.I32T)
	l2 := v.MakeListType(B.I32T)
	l3 := v.MakeListType(B.F64T)
	require.Same(t, l1, l2)
	require.NotSame(t, l1, l3)
	require.Equal(t, "builtins::list[builtins::i32]", l1.Fqn.String())
	require.True(t, l1.IsReferenceType())
	require.NotNil(t, l1.LookupFunc("__getitem__"))
	require.NotNil(t, v.LookupGlobal(l1.Fqn.Join("__getitem__")))
}

func TestOrderedMap(t *testing.T) {
	m := NewOrderedMap[int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("c", 3)
	m.Set("a", 4)
	require.Equal(t, []string{"b", "a", "c"}, m.Keys())
	got, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, 4, got)
}

func TestClosureSharing(t *testing.T) {
	outer := (*Closure)(nil).Push(Namespace{"x": I32(1)})
	inner := outer.Push(Namespace{"y": I32(2)})
	require.Equal(t, Object(I32(2)), inner.At(1)["y"])
	require.Equal(t, Object(I32(1)), inner.At(2)["x"])
	require.Nil(t, inner.At(3))
}

func TestFuncTypesEqual(t *testing.T) {
	a := NewFuncType([]FuncParam{{T: B.I32T, Kind: "simple"}}, B.I32T, Red, FuncPlain)
	b := NewFuncType([]FuncParam{{T: B.I32T, Kind: "simple"}}, B.I32T, Red, FuncPlain)
	c := NewFuncType([]FuncParam{{T: B.F64T, Kind: "simple"}}, B.I32T, Red, FuncPlain)
	require.True(t, FuncTypesEqual(a, b))
	require.False(t, FuncTypesEqual(a, c))
}

func TestForwardDeclaredType(t *testing.T) {
	decl := Declare(fqn.New("mod::S"), ReprStruct, B.ObjectT)
	require.False(t, decl.IsDefined())

	body := NewClassBody()
	body.Fields.Set("x", B.I32T)
	decl.Define(body)
	require.True(t, decl.IsDefined())
	ft, ok := decl.Fields.Get("x")
	require.True(t, ok)
	require.Same(t, B.I32T, ft)
}

func TestInvalidatedFuncCannotRun(t *testing.T) {
	v := New()
	ft := NewFuncType(nil, B.I32T, Red, FuncPlain)
	old := NewASTFunc(fqn.New("mod::f"), ft, nil, nil)
	repl := NewASTFunc(fqn.New("mod::f"), ft, nil, nil)
	repl.Redshifted = true
	old.Invalidate(repl)
	require.False(t, old.IsValid())
	require.Same(t, repl, old.RedshiftedInto())

	_, err := v.FastCall(old, nil)
	require.Error(t, err)
}
