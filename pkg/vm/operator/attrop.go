package operator

import (
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

func unwrapAttrMaybe(wamAttr *vm.MetaArg) string {
	if s, ok := wamAttr.BlueUnwrapStr(); ok {
		return s
	}
	return "<unknown>"
}

// GETATTR dispatches 'obj.attr'. Struct and typelift fields get a
// synthesized accessor registered under the owning type's namespace, so
// that residual code can call it by FQN; module attributes fold to
// constants.
func GETATTR(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamObj, wamAttr := args[0], args[1]
	t := wamObj.StaticT
	attr := unwrapAttrMaybe(wamAttr)
	spec := vm.NullSpec

	if !t.IsDefined() {
		return nil, spyerror.Simple(spyerror.TypeError,
			"type `"+t.Fqn.HumanName()+"` is only forward-declared",
			"attribute access on undefined type", wamObj.Loc)
	}

	switch {
	case t == vm.B.ModuleT && wamObj.IsBlue():
		mod := wamObj.BlueVal().(*vm.Module)
		if w := mod.GetAttrMaybe(attr); w != nil {
			spec = vm.NewOpSpecConst(w)
		} else {
			err := spyerror.New(spyerror.ImportError,
				"cannot import `%s.%s`", mod.Name, attr)
			err.Add(spyerror.LevelError, "attribute `"+attr+"` does not exist", wamAttr.Loc)
			return nil, err
		}
	case hasMember(t, attr):
		spec = vm.NewOpSpec(memberAccessor(v, t, attr, false))
	case t.IsDefined() && lookupDictConst(t, attr) != nil:
		spec = vm.NewOpSpecConst(lookupDictConst(t, attr))
	default:
		if mf := t.LookupBlueFunc("__GETATTR__"); mf != nil {
			var err error
			spec, err = v.FastMetaCall(mf, args)
			if err != nil {
				return nil, err
			}
		}
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle,
		"type `{0}` has no attribute '"+attr+"'")
}

// SETATTR dispatches 'obj.attr = value'.
func SETATTR(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamObj, wamAttr := args[0], args[1]
	t := wamObj.StaticT
	attr := unwrapAttrMaybe(wamAttr)
	spec := vm.NullSpec

	if !t.IsDefined() {
		return nil, spyerror.Simple(spyerror.TypeError,
			"type `"+t.Fqn.HumanName()+"` is only forward-declared",
			"attribute access on undefined type", wamObj.Loc)
	}

	if hasMember(t, attr) {
		spec = vm.NewOpSpec(memberAccessor(v, t, attr, true))
	} else if mf := t.LookupBlueFunc("__SETATTR__"); mf != nil {
		var err error
		spec, err = v.FastMetaCall(mf, args)
		if err != nil {
			return nil, err
		}
	}
	return typecheckOpSpec(v, spec, args, DispatchSingle,
		"type `{0}` does not support assignment to attribute '"+attr+"'")
}

func hasMember(t *vm.Type, attr string) bool {
	if !t.IsDefined() {
		return false
	}
	return t.Fields.Has(attr)
}

func lookupDictConst(t *vm.Type, attr string) vm.Object {
	w, _ := t.Dict.Get(attr)
	return w
}

// memberAccessor returns the getter or setter builtin for one field of a
// struct/typelift type, minting and registering it on first use.
func memberAccessor(v *vm.VM, t *vm.Type, attr string, set bool) vm.Function {
	var name string
	if set {
		name = "__set_" + attr + "__"
	} else {
		name = "__get_" + attr + "__"
	}
	f := t.Fqn.Join(name)
	if w := v.LookupGlobal(f); w != nil {
		return w.(vm.Function)
	}

	fieldT, _ := t.Fields.Get(attr)
	b := vm.B
	var bf *vm.BuiltinFunc
	if set {
		ft := vm.NewFuncType([]vm.FuncParam{
			{T: t, Kind: "simple"}, {T: b.StrT, Kind: "simple"}, {T: fieldT, Kind: "simple"},
		}, b.NoneT, vm.Red, vm.FuncPlain)
		bf = vm.NewBuiltinFunc(f, ft, false, func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return setMember(v, args[0], attr, args[2])
		})
	} else {
		ft := vm.NewFuncType([]vm.FuncParam{
			{T: t, Kind: "simple"}, {T: b.StrT, Kind: "simple"},
		}, fieldT, vm.Red, vm.FuncPlain)
		bf = vm.NewBuiltinFunc(f, ft, false, func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return getMember(v, args[0], attr)
		})
	}
	v.AddGlobal(f, bf)
	return bf
}

func getMember(v *vm.VM, obj vm.Object, attr string) (vm.Object, error) {
	switch obj := obj.(type) {
	case *vm.StructVal:
		if w, ok := obj.Values[attr]; ok {
			return w, nil
		}
		return nil, spyerror.New(spyerror.PanicError,
			"uninitialized field `%s` of `%s`", attr, obj.TypeW.Fqn)
	case *vm.LiftedVal:
		if attr == "__ll__" {
			return obj.LL, nil
		}
	}
	return nil, spyerror.New(spyerror.PanicError,
		"cannot read attribute `%s` of `%s`", attr, obj.DynType(v).Fqn)
}

func setMember(v *vm.VM, obj vm.Object, attr string, val vm.Object) (vm.Object, error) {
	switch obj := obj.(type) {
	case *vm.StructVal:
		obj.Values[attr] = val
		return vm.B.None, nil
	case *vm.LiftedVal:
		if attr == "__ll__" {
			obj.LL = val
			return vm.B.None, nil
		}
	}
	return nil, spyerror.New(spyerror.PanicError,
		"cannot write attribute `%s` of `%s`", attr, obj.DynType(v).Fqn)
}
