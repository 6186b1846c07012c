package operator

import (
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// funcCallOpSpec resolves a direct call: the callee MetaArg must be a
// blue function value, so that the residual call site can name it by
// FQN.
func funcCallOpSpec(v *vm.VM, args []*vm.MetaArg) (*vm.OpSpec, error) {
	wamF := args[0]
	if !wamF.IsBlue() {
		err := spyerror.New(spyerror.WIP, "indirect calls are not supported")
		err.Add(spyerror.LevelError, "this function value is red", wamF.Loc)
		return nil, err
	}
	fn, ok := wamF.BlueVal().(vm.Function)
	if !ok {
		return vm.NullSpec, nil
	}
	spec := vm.NewOpSpecArgs(fn, args[1:])
	spec.DirectCall = true
	return spec, nil
}

// CALL dispatches 'f(args...)'. args[0] describes the callee.
func CALL(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamF := args[0]
	t := wamF.StaticT
	spec := vm.NullSpec
	errmsg := "cannot call objects of type `{0}`"

	switch {
	case t == vm.B.TypeT && wamF.IsBlue():
		cls, ok := wamF.BlueVal().(*vm.Type)
		if !ok {
			break
		}
		var err error
		spec, err = classCallOpSpec(v, cls, args)
		if err != nil {
			return nil, err
		}
	case t.FuncInfo != nil:
		if t.FuncInfo.Kind == vm.FuncGeneric {
			errmsg = "generic functions must be called via `[...]`"
			break
		}
		var err error
		spec, err = funcCallOpSpec(v, args)
		if err != nil {
			return nil, err
		}
	case t == vm.B.DynamicT:
		spec = vm.NewOpSpec(std.dynamicCall)
	default:
		if call := t.LookupFunc("__call__"); call != nil {
			var err error
			spec, err = dunderOpSpec(v, call, args)
			if err != nil {
				return nil, err
			}
		}
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle, errmsg)
}

// CALLMETHOD dispatches 'obj.meth(args...)'. args[0] is the receiver,
// args[1] the (blue str) method name.
func CALLMETHOD(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamObj, wamMeth := args[0], args[1]
	t := wamObj.StaticT
	spec := vm.NullSpec

	meth, _ := wamMeth.BlueUnwrapStr()
	if cm := t.LookupBlueFunc("__call_method__"); cm != nil {
		var err error
		spec, err = v.FastMetaCall(cm, args)
		if err != nil {
			return nil, err
		}
	} else if fn := t.LookupFunc(meth); fn != nil {
		// pass the receiver as the implicit self, dropping the name
		selfArgs := append([]*vm.MetaArg{wamObj}, args[2:]...)
		spec = vm.NewOpSpecArgs(fn, selfArgs)
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle,
		"method `{0}::"+meth+"` does not exist")
}
