package operator

import (
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// ConvertMaybe returns nil if the argument already satisfies the
// expected type, else the unary conversion function to apply, else a
// TypeError. Conversions are limited to a fixed lattice: integer
// widening, integer->float and typelift wrap/unwrap; they are never
// implicit across reference-kind boundaries.
func ConvertMaybe(v *vm.VM, expT *vm.Type, marg *vm.MetaArg) (vm.Function, error) {
	got := marg.StaticT
	if assignable(got, expT) {
		return nil, nil
	}
	if conv, ok := std.convs[[2]*vm.Type{got, expT}]; ok {
		return conv, nil
	}
	if expT.Repr == vm.ReprTypelift && expT.IsDefined() && expT.Lifted == got {
		if lift := expT.LookupFunc("__lift__"); lift != nil {
			return lift, nil
		}
	}
	if got.Repr == vm.ReprTypelift && got.IsDefined() && got.Lifted == expT {
		if unlift := got.LookupFunc("__unlift__"); unlift != nil {
			return unlift, nil
		}
	}
	err := spyerror.New(spyerror.TypeError, "mismatched types")
	err.Add(spyerror.LevelError,
		"expected `"+expT.Fqn.HumanName()+"`, got `"+got.Fqn.HumanName()+"`",
		marg.Loc)
	return nil, err
}

// assignable reports whether got satisfies expT without loss.
func assignable(got, expT *vm.Type) bool {
	if got == expT || expT == vm.B.DynamicT || expT == vm.B.ObjectT {
		return true
	}
	if got.FuncInfo != nil && expT.FuncInfo != nil {
		return vm.FuncTypesEqual(got, expT)
	}
	for cur := got.Base; cur != nil; cur = cur.Base {
		if cur == expT {
			return true
		}
	}
	return false
}
