package operator

import (
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// classCallOpSpec resolves 'Cls(args...)' for a blue class value: a
// user-provided __NEW__ metafunction wins, then the default constructors
// for exceptions and structs.
func classCallOpSpec(v *vm.VM, cls *vm.Type, args []*vm.MetaArg) (*vm.OpSpec, error) {
	if mf := cls.LookupBlueFunc("__NEW__"); mf != nil {
		return v.FastMetaCall(mf, args)
	}
	switch {
	case cls.IsExceptionType():
		return excNewOpSpec(v, cls, args)
	case cls.Repr == vm.ReprStruct:
		return structNewOpSpec(v, cls, args)
	case cls.Repr == vm.ReprTypelift:
		return liftNewOpSpec(v, cls, args)
	}
	return vm.NullSpec, nil
}

// excNewOpSpec builds 'Cls(message)' for exception types. The message
// defaults to the empty string; exceptions stay blue because the C
// backend can raise only blue exceptions.
func excNewOpSpec(v *vm.VM, cls *vm.Type, args []*vm.MetaArg) (*vm.OpSpec, error) {
	f := cls.Fqn.Join("__new__")
	fn, _ := v.LookupGlobal(f).(vm.Function)
	if fn == nil {
		ft := vm.NewFuncType([]vm.FuncParam{{T: vm.B.StrT, Kind: "simple"}}, cls, vm.Blue, vm.FuncPlain)
		fn = vm.NewBuiltinFunc(f, ft, true, func(v *vm.VM, callArgs []vm.Object) (vm.Object, error) {
			return &vm.ExcValue{TypeW: cls, Message: v.UnwrapStr(callArgs[0])}, nil
		})
		v.AddGlobal(f, fn)
	}
	msgArgs := args[1:]
	if len(msgArgs) == 0 {
		msgArgs = []*vm.MetaArg{vm.MetaArgFromObject(v, vm.Str(""))}
	}
	return vm.NewOpSpecArgs(fn, msgArgs), nil
}

// structNewOpSpec builds the positional field constructor of a @struct
// type.
func structNewOpSpec(v *vm.VM, cls *vm.Type, args []*vm.MetaArg) (*vm.OpSpec, error) {
	if !cls.IsDefined() {
		return nil, spyerror.New(spyerror.TypeError,
			"cannot instantiate forward-declared type `%s`", cls.Fqn.HumanName())
	}
	f := cls.Fqn.Join("__new__")
	fn, _ := v.LookupGlobal(f).(vm.Function)
	if fn == nil {
		fieldNames := cls.Fields.Keys()
		params := make([]vm.FuncParam, len(fieldNames))
		for i, name := range fieldNames {
			ft, _ := cls.Fields.Get(name)
			params[i] = vm.FuncParam{T: ft, Kind: "simple"}
		}
		ft := vm.NewFuncType(params, cls, vm.Red, vm.FuncPlain)
		names := append([]string(nil), fieldNames...)
		fn = vm.NewBuiltinFunc(f, ft, false, func(v *vm.VM, callArgs []vm.Object) (vm.Object, error) {
			values := make(map[string]vm.Object, len(names))
			for i, name := range names {
				values[name] = callArgs[i]
			}
			return &vm.StructVal{TypeW: cls, Values: values}, nil
		})
		v.AddGlobal(f, fn)
	}
	return vm.NewOpSpecArgs(fn, args[1:]), nil
}

// liftNewOpSpec builds 'Cls(llvalue)' for a @typelift type.
func liftNewOpSpec(v *vm.VM, cls *vm.Type, args []*vm.MetaArg) (*vm.OpSpec, error) {
	if !cls.IsDefined() {
		return nil, spyerror.New(spyerror.TypeError,
			"cannot instantiate forward-declared type `%s`", cls.Fqn.HumanName())
	}
	lift := cls.LookupFunc("__lift__")
	if lift == nil {
		return vm.NullSpec, nil
	}
	return vm.NewOpSpecArgs(lift, args[1:]), nil
}

// EnsureLiftFuncs mints the wrap/unwrap conversion pair of a @typelift
// type and records them in its dict; the interpreter calls it right
// after the class body is finalized.
func EnsureLiftFuncs(v *vm.VM, cls *vm.Type) {
	if cls.Repr != vm.ReprTypelift || cls.Lifted == nil {
		return
	}
	if cls.LookupFunc("__lift__") != nil {
		return
	}
	ll := cls.Lifted
	liftFQN := cls.Fqn.Join("__lift__")
	liftT := vm.NewFuncType([]vm.FuncParam{{T: ll, Kind: "simple"}}, cls, vm.Red, vm.FuncPlain)
	lift := vm.NewBuiltinFunc(liftFQN, liftT, true, func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return &vm.LiftedVal{TypeW: cls, LL: args[0]}, nil
	})
	v.AddGlobal(liftFQN, lift)
	cls.Dict.Set("__lift__", lift)

	unliftFQN := cls.Fqn.Join("__unlift__")
	unliftT := vm.NewFuncType([]vm.FuncParam{{T: cls, Kind: "simple"}}, ll, vm.Red, vm.FuncPlain)
	unlift := vm.NewBuiltinFunc(unliftFQN, unliftT, true, func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		lv, ok := args[0].(*vm.LiftedVal)
		if !ok {
			return nil, spyerror.New(spyerror.PanicError, "expected a lifted value")
		}
		return lv.LL, nil
	})
	v.AddGlobal(unliftFQN, unlift)
	cls.Dict.Set("__unlift__", unlift)
}
