package operator

import (
	"github.com/spylang/spy/pkg/vm"
)

// GETITEM dispatches 'obj[args...]'. For generic functions '[]' means
// "instantiate", which is a call.
func GETITEM(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamObj := args[0]
	t := wamObj.StaticT
	spec := vm.NullSpec

	if t.FuncInfo != nil && t.FuncInfo.Kind == vm.FuncGeneric {
		var err error
		spec, err = funcCallOpSpec(v, args)
		if err != nil {
			return nil, err
		}
	} else if mf := t.LookupBlueFunc("__GETITEM__"); mf != nil {
		var err error
		spec, err = v.FastMetaCall(mf, args)
		if err != nil {
			return nil, err
		}
	} else if fn := t.LookupFunc("__getitem__"); fn != nil {
		spec = vm.NewOpSpecArgs(fn, args)
	} else if t == vm.B.TupleT && wamObj.IsBlue() && len(args) == 2 && args[1].IsBlue() {
		// blue tuple with a blue in-range i32 index folds to the item
		tup, _ := wamObj.BlueVal().(*vm.Tuple)
		i, ok := args[1].BlueVal().(vm.I32)
		if tup != nil && ok && i >= 0 && int(i) < len(tup.Items) {
			spec = vm.NewOpSpecConst(tup.Items[i])
		}
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle, "cannot do `{0}`[...]")
}

// SETITEM dispatches 'obj[args...] = value'. The value is the last
// MetaArg.
func SETITEM(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamObj := args[0]
	t := wamObj.StaticT
	spec := vm.NullSpec

	if mf := t.LookupBlueFunc("__SETITEM__"); mf != nil {
		var err error
		spec, err = v.FastMetaCall(mf, args)
		if err != nil {
			return nil, err
		}
	} else if fn := t.LookupFunc("__setitem__"); fn != nil {
		spec = vm.NewOpSpecArgs(fn, args)
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle, "cannot do `{0}`[...] = ...")
}
