package vm

import (
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

// ArgSpec describes how one actual argument of an OpImpl is produced
// from the runtime arguments: taken verbatim, pre-filled with a
// constant, or converted.
type ArgSpec interface {
	argSpec()
}

// ArgIdx takes the i-th incoming argument.
type ArgIdx struct {
	I int
}

// ArgConst supplies a fixed value.
type ArgConst struct {
	Val Object
	Loc location.Loc
}

// ArgConvert applies a unary conversion function to an inner spec.
type ArgConvert struct {
	Conv  Function
	Inner ArgSpec
}

func (ArgIdx) argSpec()     {}
func (ArgConst) argSpec()   {}
func (ArgConvert) argSpec() {}

// OpImpl is the typechecked output of dispatch: a concrete call
// template. Executing it means building the real argument list from the
// ArgSpecs and calling Fn.
type OpImpl struct {
	// InFuncType is the type the OpImpl behaves as when executed: its
	// params mirror the incoming MetaArgs.
	InFuncType *Type
	Fn         Function
	Args       []ArgSpec

	constVal Object
	isConst  bool
}

// NewOpImpl builds a call template.
func NewOpImpl(inFuncType *Type, fn Function, args []ArgSpec) *OpImpl {
	return &OpImpl{InFuncType: inFuncType, Fn: fn, Args: args}
}

// NewOpImplConst builds an OpImpl whose execution yields a constant.
func NewOpImplConst(v *VM, w Object) *OpImpl {
	ft := NewFuncType(nil, w.DynType(v), Blue, FuncPlain)
	return &OpImpl{InFuncType: ft, constVal: w, isConst: true}
}

// IsConst reports a constant result.
func (oi *OpImpl) IsConst() bool { return oi.isConst }

// ConstVal returns the constant result.
func (oi *OpImpl) ConstVal() Object { return oi.constVal }

// IsPure reports whether blue arguments may fold the call at compile
// time.
func (oi *OpImpl) IsPure() bool {
	return oi.isConst || oi.Fn.IsPure()
}

// RestType returns the static result type.
func (oi *OpImpl) RestType() *Type {
	return oi.InFuncType.FuncInfo.ResType
}

// Execute runs the template: evaluate each ArgSpec against args, then
// call Fn.
func (oi *OpImpl) Execute(v *VM, args []Object) (Object, error) {
	if oi.isConst {
		return oi.constVal, nil
	}
	realArgs, err := evalArgSpecs(v, oi.Args, args)
	if err != nil {
		return nil, err
	}
	return v.FastCall(oi.Fn, realArgs)
}

func evalArgSpecs(v *VM, specs []ArgSpec, args []Object) ([]Object, error) {
	realArgs := make([]Object, len(specs))
	for i, spec := range specs {
		w, err := evalArgSpec(v, spec, args)
		if err != nil {
			return nil, err
		}
		realArgs[i] = w
	}
	return realArgs, nil
}

func evalArgSpec(v *VM, spec ArgSpec, args []Object) (Object, error) {
	switch spec := spec.(type) {
	case ArgIdx:
		return args[spec.I], nil
	case ArgConst:
		return spec.Val, nil
	case ArgConvert:
		w, err := evalArgSpec(v, spec.Inner, args)
		if err != nil {
			return nil, err
		}
		return v.FastCall(spec.Conv, []Object{w})
	default:
		panic("vm: unknown ArgSpec")
	}
}

// AsAdapter wraps the OpImpl into a first-class function value.
func (oi *OpImpl) AsAdapter() *FuncAdapter {
	return &FuncAdapter{functype: oi.InFuncType, target: oi.Fn, args: oi.Args}
}

func (oi *OpImpl) DynType(v *VM) *Type { return B.ObjectT }

func (oi *OpImpl) String() string {
	if oi.isConst {
		return "<OpImpl const " + oi.constVal.String() + ">"
	}
	return "<OpImpl `" + oi.Fn.Fqn().String() + "`>"
}

// FuncAdapter adapts a target function to a different signature: it
// re-shuffles, pre-fills or converts the incoming arguments according to
// its ArgSpec list.
type FuncAdapter struct {
	functype *Type
	target   Function
	args     []ArgSpec
}

// NewFuncAdapter builds an adapter.
func NewFuncAdapter(functype *Type, target Function, args []ArgSpec) *FuncAdapter {
	return &FuncAdapter{functype: functype, target: target, args: args}
}

// adapterFQN is shared by all adapters; adapters never end up in the
// residual AST, so they don't need unique names.
var adapterFQN = fqn.New("builtins::__adapter__")

func (f *FuncAdapter) Fqn() fqn.FQN         { return adapterFQN }
func (f *FuncAdapter) FuncType() *Type      { return f.functype }
func (f *FuncAdapter) IsPure() bool         { return f.target.IsPure() }
func (f *FuncAdapter) DefLoc() location.Loc { return f.target.DefLoc() }
func (f *FuncAdapter) DynType(v *VM) *Type  { return f.functype }
func (f *FuncAdapter) Target() Function     { return f.target }

func (f *FuncAdapter) String() string {
	return "<spy adapter `" + f.functype.Signature() + "` for `" + f.target.Fqn().String() + "`>"
}
