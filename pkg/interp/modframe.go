package interp

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

// ModFrame executes a module body: it registers the module, forward
// declares its classes, executes each top-level declaration and finally
// calls the module's __INIT__ hook, if present.
type ModFrame struct {
	*Frame
	Mod *ast.Module
}

// NewModFrame prepares the frame for one module.
func NewModFrame(v *vm.VM, mod *ast.Module) *ModFrame {
	ns := fqn.FQN{Parts: []fqn.NSPart{{Name: mod.Name}}}
	f := NewFrame(v, ns, mod.Symtable, nil, "modframe")
	return &ModFrame{Frame: f, Mod: mod}
}

// Run executes the module and returns the populated Module object.
func (f *ModFrame) Run() (*vm.Module, error) {
	w, err := f.run()
	if err != nil {
		f.pushFrameInfo(err, f.Mod.Loc)
	}
	return w, err
}

func (f *ModFrame) run() (*vm.Module, error) {
	wmod := vm.NewModule(f.Mod.Name, f.Mod.Filename)
	f.VM.RegisterModule(wmod)
	// the module object itself is addressable, so that whole-module
	// imports resolve and 'mod.attr' folds through GETATTR
	f.VM.AddGlobal(f.NS, wmod)

	for _, decl := range f.Mod.Decls {
		if gcd, ok := decl.(*ast.GlobalClassDef); ok {
			if err := f.FwdeclClassDef(gcd.ClassDef); err != nil {
				return nil, err
			}
		}
	}

	for _, decl := range f.Mod.Decls {
		switch decl := decl.(type) {
		case *ast.Import:
			// imports were resolved by the scope analyzer; the symbols
			// already point at the foreign FQNs
		case *ast.GlobalFuncDef:
			if err := f.ExecFuncDef(decl.FuncDef); err != nil {
				return nil, err
			}
		case *ast.GlobalClassDef:
			if err := f.ExecClassDef(decl.ClassDef); err != nil {
				return nil, err
			}
		case *ast.GlobalVarDef:
			if err := f.execGlobalVarDef(decl); err != nil {
				return nil, err
			}
		default:
			return nil, spyerror.New(spyerror.ParseError, "unknown declaration kind")
		}
	}

	if wInit := wmod.GetAttrMaybe("__INIT__"); wInit != nil {
		initFn, ok := wInit.(*vm.ASTFunc)
		if !ok || initFn.Color() != symtable.Blue {
			return nil, spyerror.New(spyerror.TypeError, "__INIT__ must be a blue function")
		}
		if _, err := f.VM.FastCall(initFn, []vm.Object{wmod}); err != nil {
			return nil, err
		}
	}
	return wmod, nil
}

// execGlobalVarDef evaluates a module-level declaration. 'var' globals
// get a Cell so that assignments stay possible after redshift; 'const'
// globals are registered directly and frozen blue.
func (f *ModFrame) execGlobalVarDef(decl *ast.GlobalVarDef) error {
	vardef := decl.VarDef
	fq := f.VM.GetUniqueFQN(f.NS.Join(vardef.Name))

	var wam *vm.MetaArg
	var err error
	if _, auto := vardef.Type.(*ast.Auto); auto {
		wam, err = f.EvalExpr(decl.Value, "")
		if err != nil {
			return err
		}
	} else {
		t, terr := f.EvalExprType(vardef.Type)
		if terr != nil {
			return terr
		}
		wam, err = f.EvalExpr(decl.Value, "")
		if err != nil {
			return err
		}
		if !f.VM.IsInstance(wam.Val, t) {
			return spyerror.Simple(spyerror.TypeError,
				"mismatched types",
				"expected `"+t.Fqn.HumanName()+"`, got `"+wam.StaticT.Fqn.HumanName()+"`",
				decl.Value.Location())
		}
	}

	if vardef.Kind == symtable.KindVar {
		f.VM.AddGlobal(fq, vm.NewCell(fq, wam.Val))
	} else {
		f.VM.AddGlobal(fq, wam.Val)
	}
	return nil
}
