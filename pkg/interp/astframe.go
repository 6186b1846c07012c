package interp

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
	"github.com/spylang/spy/pkg/vm/operator"
)

// FuncFrame executes the body of an ASTFunc.
type FuncFrame struct {
	*Frame
	Fn      *vm.ASTFunc
	FuncDef *ast.FuncDef
}

// NewFuncFrame prepares a frame for one invocation of fn. For blue
// functions the frame's namespace embeds the type qualifiers derived
// from the blue type arguments, so that artifacts created by
// make_Point(i32) land under make_Point[i32]::...
func NewFuncFrame(v *vm.VM, fn *vm.ASTFunc, args []vm.Object) *FuncFrame {
	ns := computeNS(fn, args)
	f := NewFrame(v, ns, fn.FuncDef.Symtable, fn.Closure, "astframe")
	return &FuncFrame{Frame: f, Fn: fn, FuncDef: fn.FuncDef}
}

func computeNS(fn *vm.ASTFunc, args []vm.Object) fqn.FQN {
	if fn.Color() == vm.Red {
		return fn.Fqn()
	}
	// only type params contribute qualifiers; non-type blue arguments
	// are ignored for naming, uniqueness is guaranteed by GetUniqueFQN
	var quals []fqn.FQN
	for _, w := range args {
		if t, ok := w.(*vm.Type); ok {
			quals = append(quals, t.Fqn)
		}
	}
	if len(quals) == 0 {
		return fn.Fqn()
	}
	return fn.Fqn().WithQualifiers(quals)
}

// DeclareArguments adds the formal parameters (and the implicit typed
// slots) to the frame without binding values; redshift declares but
// never populates them.
func (f *FuncFrame) DeclareArguments() error {
	info := f.Fn.FuncType().FuncInfo
	if err := f.declareSpecialLocals(info.ResType, f.FuncDef.ReturnType.Location()); err != nil {
		return err
	}
	for i, arg := range f.FuncDef.Args {
		if err := f.DeclareLocal(arg.Name, info.Params[i].T, arg.Loc); err != nil {
			return err
		}
	}
	return nil
}

func (f *FuncFrame) initArguments(args []vm.Object) error {
	info := f.Fn.FuncType().FuncInfo
	if len(args) != len(f.FuncDef.Args) {
		return spyerror.New(spyerror.TypeError,
			"`%s` takes %d arguments but %d were supplied",
			f.Fn.Fqn(), len(f.FuncDef.Args), len(args))
	}
	for i, arg := range f.FuncDef.Args {
		if !f.VM.IsInstance(args[i], info.Params[i].T) {
			return spyerror.New(spyerror.TypeError,
				"argument `%s` of `%s`: expected `%s`, got `%s`",
				arg.Name, f.Fn.Fqn(),
				info.Params[i].T.Fqn.HumanName(),
				args[i].DynType(f.VM).Fqn.HumanName())
		}
		f.StoreLocal(arg.Name, args[i])
	}
	return nil
}

// Run executes the function body and returns its value.
func (f *FuncFrame) Run(args []vm.Object) (vm.Object, error) {
	w, err := f.run(args)
	if err != nil {
		f.pushFrameInfo(err, f.FuncDef.Loc)
	}
	return w, err
}

func (f *FuncFrame) run(args []vm.Object) (vm.Object, error) {
	if err := f.DeclareArguments(); err != nil {
		return nil, err
	}
	if err := f.initArguments(args); err != nil {
		return nil, err
	}

	// forward-declare the types defined by outermost classdefs, so that
	// later statements can reference them before the body runs
	for _, stmt := range f.FuncDef.Body {
		if classdef, ok := stmt.(*ast.ClassDef); ok {
			if err := f.FwdeclClassDef(classdef); err != nil {
				return nil, err
			}
		}
	}

	fr, err := f.ExecBody(f.FuncDef.Body)
	if err != nil {
		return nil, err
	}
	if fr.Kind == FlowReturn {
		if fr.Value == nil {
			return vm.B.None, nil
		}
		return fr.Value, nil
	}

	// fell off the end: fine for void functions, an error otherwise
	resT := f.Fn.FuncType().FuncInfo.ResType
	if resT == vm.B.NoneT || resT == vm.B.DynamicT {
		return vm.B.None, nil
	}
	return nil, spyerror.Simple(spyerror.TypeError,
		"reached the end of the function without a `return`",
		"no return", f.FuncDef.Loc.MakeEndLoc())
}

// CallASTFunc is the hook installed on the VM to execute user functions.
func CallASTFunc(v *vm.VM, fn *vm.ASTFunc, args []vm.Object) (vm.Object, error) {
	return NewFuncFrame(v, fn, args).Run(args)
}

// NewVM returns a VM with the operator module installed and the
// interpreter wired in as the ASTFunc executor.
func NewVM() *vm.VM {
	return InstallVM(vm.New())
}

// InstallVM wires the interpreter into an existing VM.
func InstallVM(v *vm.VM) *vm.VM {
	operator.Install(v)
	v.SetASTCaller(CallASTFunc)
	return v
}
