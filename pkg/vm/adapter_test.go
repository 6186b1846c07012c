package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

func TestFuncAdapterReshufflesArgs(t *testing.T) {
	v := New()
	subT := NewFuncType([]FuncParam{
		{T: B.I32T, Kind: "simple"}, {T: B.I32T, Kind: "simple"},
	}, B.I32T, Red, FuncPlain)
	sub := NewBuiltinFunc(fqn.New("mod::sub"), subT, true,
		func(v *VM, args []Object) (Object, error) {
			return args[0].(I32) - args[1].(I32), nil
		})

	// adapt sub(a, b) into rsub(b, a) with a pre-filled constant bias
	rsubT := NewFuncType([]FuncParam{
		{T: B.I32T, Kind: "simple"}, {T: B.I32T, Kind: "simple"},
	}, B.I32T, Red, FuncPlain)
	rsub := NewFuncAdapter(rsubT, sub, []ArgSpec{ArgIdx{I: 1}, ArgIdx{I: 0}})
	res, err := v.FastCall(rsub, []Object{I32(3), I32(10)})
	require.NoError(t, err)
	require.Equal(t, Object(I32(7)), res)

	fixed := NewFuncAdapter(rsubT, sub, []ArgSpec{
		ArgConst{Val: I32(100), Loc: location.Fake()},
		ArgIdx{I: 0},
	})
	res, err = v.FastCall(fixed, []Object{I32(58), I32(999)})
	require.NoError(t, err)
	require.Equal(t, Object(I32(42)), res)
}

func TestFuncAdapterConvert(t *testing.T) {
	v := New()
	toF64T := NewFuncType([]FuncParam{{T: B.I32T, Kind: "simple"}}, B.F64T, Red, FuncPlain)
	toF64 := NewBuiltinFunc(fqn.New("mod::to_f64"), toF64T, true,
		func(v *VM, args []Object) (Object, error) {
			return F64(args[0].(I32)), nil
		})
	halfT := NewFuncType([]FuncParam{{T: B.F64T, Kind: "simple"}}, B.F64T, Red, FuncPlain)
	half := NewBuiltinFunc(fqn.New("mod::half"), halfT, true,
		func(v *VM, args []Object) (Object, error) {
			return args[0].(F64) / 2, nil
		})

	adapted := NewFuncAdapter(halfT, half, []ArgSpec{
		ArgConvert{Conv: toF64, Inner: ArgIdx{I: 0}},
	})
	res, err := v.FastCall(adapted, []Object{I32(5)})
	require.NoError(t, err)
	require.Equal(t, Object(F64(2.5)), res)
}

func TestOpImplAsAdapter(t *testing.T) {
	v := New()
	incT := NewFuncType([]FuncParam{{T: B.I32T, Kind: "simple"}}, B.I32T, Red, FuncPlain)
	inc := NewBuiltinFunc(fqn.New("mod::inc"), incT, true,
		func(v *VM, args []Object) (Object, error) {
			return args[0].(I32) + 1, nil
		})
	oi := NewOpImpl(incT, inc, []ArgSpec{ArgIdx{I: 0}})
	ad := oi.AsAdapter()
	res, err := v.FastCall(ad, []Object{I32(41)})
	require.NoError(t, err)
	require.Equal(t, Object(I32(42)), res)
	require.True(t, ad.IsPure())
	require.Equal(t, Function(inc), ad.Target())
}
