// Package interp implements the semantic evaluator: frames which execute
// statements, evaluate expressions to MetaArgs, resolve names through
// the symbol table and dispatch every operator through the OPERATOR
// metafunctions.
//
// One frame represents one lexical scope. FuncFrame runs function bodies,
// ClassFrame runs classdef bodies, ModFrame runs module bodies. The
// doppler pass reuses the same machinery by attaching a Shifter to the
// frame.
package interp

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
	"github.com/spylang/spy/pkg/vm/operator"
)

// Shifter is the hook the doppler pass plugs into a frame: it observes
// every evaluated expression and every chosen OpImpl, and builds the
// residual AST on the side.
type Shifter interface {
	ShiftExpr(f *Frame, expr ast.Expr, wam *vm.MetaArg) error
	WrapConversion(f *Frame, expr ast.Expr, varname string, conv vm.Function, wam *vm.MetaArg) error
	RecordOpImpl(node ast.Node, oi *vm.OpImpl)
}

// Frame owns the state of one lexical scope.
type Frame struct {
	VM *vm.VM

	// NS is the namespace generated artifacts go under.
	NS fqn.FQN

	Symtable *symtable.SymTable

	// Closure chains the namespaces of the enclosing blue frames.
	Closure *vm.Closure

	// Kind tags the frame for tracebacks: "astframe", "modframe",
	// "classframe" or "dopplerframe".
	Kind string

	locals        vm.Namespace
	localsTypes   map[string]*vm.Type
	localsDeclLoc map[string]location.Loc

	// specializations recorded for the doppler pass
	specializedNames   map[*ast.Name]ast.Expr
	specializedAssigns map[*ast.Assign]ast.Stmt

	shifter Shifter
}

// NewFrame builds a bare frame; callers normally use NewFuncFrame,
// NewClassFrame or NewModFrame.
func NewFrame(v *vm.VM, ns fqn.FQN, st *symtable.SymTable, closure *vm.Closure, kind string) *Frame {
	return &Frame{
		VM:                 v,
		NS:                 ns,
		Symtable:           st,
		Closure:            closure,
		Kind:               kind,
		locals:             make(vm.Namespace),
		localsTypes:        make(map[string]*vm.Type),
		localsDeclLoc:      make(map[string]location.Loc),
		specializedNames:   make(map[*ast.Name]ast.Expr),
		specializedAssigns: make(map[*ast.Assign]ast.Stmt),
	}
}

// SetShifter attaches the doppler hooks; the frame switches to redshift
// mode.
func (f *Frame) SetShifter(s Shifter) {
	f.shifter = s
	f.Kind = "dopplerframe"
}

// Redshifting reports whether the frame runs under the doppler pass. Red
// expressions are not executed in this mode; their MetaArgs carry no
// value.
func (f *Frame) Redshifting() bool { return f.shifter != nil }

// LocalType returns the declared (or inferred) type of a local.
func (f *Frame) LocalType(name string) (*vm.Type, bool) {
	t, ok := f.localsTypes[name]
	return t, ok
}

// LocalDeclLoc returns where a local was declared.
func (f *Frame) LocalDeclLoc(name string) location.Loc {
	return f.localsDeclLoc[name]
}

// LocalsTypes exposes the final inferred local types; redshift captures
// them into the residual ASTFunc.
func (f *Frame) LocalsTypes() map[string]*vm.Type {
	out := make(map[string]*vm.Type, len(f.localsTypes))
	for k, v := range f.localsTypes {
		out[k] = v
	}
	return out
}

// Locals exposes the frame's bindings as a namespace for closures.
func (f *Frame) Locals() vm.Namespace { return f.locals }

// SpecializedName returns the residual replacement recorded for a Name.
func (f *Frame) SpecializedName(name *ast.Name) ast.Expr {
	return f.specializedNames[name]
}

// SpecializedAssign returns the residual replacement recorded for an
// Assign.
func (f *Frame) SpecializedAssign(assign *ast.Assign) ast.Stmt {
	return f.specializedAssigns[assign]
}

// DeclareLocal introduces a name with a type. Double declarations raise
// ScopeError with both locations; the scope analyzer already catches
// this for red frames, but blue frames declare as they execute.
func (f *Frame) DeclareLocal(name string, t *vm.Type, loc location.Loc) error {
	if _, ok := f.localsTypes[name]; ok {
		oldLoc := f.localsDeclLoc[name]
		err := spyerror.New(spyerror.ScopeError, "variable `%s` already declared", name)
		err.Add(spyerror.LevelError, "this is the new declaration", loc)
		err.Add(spyerror.LevelNote, "this is the previous declaration", oldLoc)
		return err
	}
	if t.FuncInfo == nil {
		f.VM.MakeFqnConst(t)
	}
	f.localsTypes[name] = t
	f.localsDeclLoc[name] = loc
	return nil
}

// StoreLocal binds a value; only used outside redshift.
func (f *Frame) StoreLocal(name string, w vm.Object) {
	f.locals[name] = w
}

// LoadLocal reads a binding.
func (f *Frame) LoadLocal(name string) (vm.Object, error) {
	w, ok := f.locals[name]
	if !ok || w == nil {
		return nil, spyerror.New(spyerror.Exception, "read from uninitialized local `%s`", name)
	}
	return w, nil
}

// pushFrameInfo tags an unwinding error with this frame, once.
func (f *Frame) pushFrameInfo(err error, loc location.Loc) {
	if e, ok := spyerror.AsError(err); ok {
		e.PushFrame(f.Kind, f.NS.String(), loc)
	}
}

// callOP invokes an OPERATOR metafunction, attaching the node's location
// to any error that comes back bare.
func (f *Frame) callOP(loc location.Loc, mf operator.Metafunc, args []*vm.MetaArg) (*vm.OpImpl, error) {
	oi, err := mf(f.VM, args)
	if err != nil {
		if e, ok := spyerror.AsError(err); ok {
			e.AddLocMaybe(loc)
		}
		return nil, err
	}
	return oi, nil
}

// typecheckMaybe checks a MetaArg against the declared type of varname
// and returns the conversion to apply, if any. varname "" means no
// check; the special names @return, @if, @while and @assert drive the
// wording of the diagnostics.
func (f *Frame) typecheckMaybe(wam *vm.MetaArg, varname string) (vm.Function, error) {
	if varname == "" {
		return nil, nil
	}
	expT, ok := f.localsTypes[varname]
	if !ok {
		return nil, nil
	}
	conv, err := operator.ConvertMaybe(f.VM, expT, wam)
	if err != nil {
		if e, ok := spyerror.AsError(err); ok && e.Kind == spyerror.TypeError {
			because := " because of type declaration"
			switch varname {
			case "@return":
				because = " because of return type"
			case "@if", "@while", "@assert":
				because = ""
			}
			e.Add(spyerror.LevelNote,
				"expected `"+expT.Fqn.HumanName()+"`"+because,
				f.localsDeclLoc[varname])
		}
		return nil, err
	}
	return conv, nil
}

// EvalExpr evaluates an expression to a MetaArg. If varname is
// non-empty, the result is typechecked against that local's declared
// type and the implicit conversion is applied (or, under redshift,
// recorded for the doppler to wrap around the residual).
func (f *Frame) EvalExpr(expr ast.Expr, varname string) (*vm.MetaArg, error) {
	wam, err := f.evalExprDispatch(expr)
	if err != nil {
		if e, ok := spyerror.AsError(err); ok {
			e.AddLocMaybe(expr.Location())
		}
		return nil, err
	}

	if f.shifter != nil {
		if err := f.shifter.ShiftExpr(f, expr, wam); err != nil {
			return nil, err
		}
	}

	conv, err := f.typecheckMaybe(wam, varname)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return wam, nil
	}
	if f.shifter != nil {
		// the doppler wraps the residual in the conversion call; red
		// values are not executed here
		if err := f.shifter.WrapConversion(f, expr, varname, conv, wam); err != nil {
			return nil, err
		}
		return wam, nil
	}

	w, err := f.VM.FastCall(conv, []vm.Object{wam.Val})
	if err != nil {
		return nil, err
	}
	res := vm.NewMetaArg(wam.Color, conv.FuncType().FuncInfo.ResType, w, wam.Loc)
	res.Sym = wam.Sym
	return res, nil
}

// EvalExprType evaluates an expression that must denote a type.
func (f *Frame) EvalExprType(expr ast.Expr) (*vm.Type, error) {
	wam, err := f.EvalExpr(expr, "")
	if err != nil {
		return nil, err
	}
	switch w := wam.Val.(type) {
	case *vm.Type:
		f.VM.MakeFqnConst(w)
		return w, nil
	case vm.None:
		// allow 'None' as a type annotation
		return vm.B.NoneT, nil
	}
	var got string
	if wam.Val == nil {
		got = wam.StaticT.Fqn.HumanName()
	} else {
		got = wam.Val.DynType(f.VM).Fqn.HumanName()
	}
	return nil, spyerror.Simple(spyerror.TypeError,
		"expected `type`, got `"+got+"`", "expected `type`", expr.Location())
}

// evalOpImpl computes the result MetaArg of a dispatched operation. The
// color rule: a pure implementation with all-blue arguments folds to
// blue; otherwise the color of the called function's type wins. Red
// results are not executed under redshift.
func (f *Frame) evalOpImpl(node ast.Node, oi *vm.OpImpl, args []*vm.MetaArg) (*vm.MetaArg, error) {
	if f.shifter != nil {
		f.shifter.RecordOpImpl(node, oi)
	}

	var color vm.Color
	if oi.IsPure() {
		colors := make([]vm.Color, len(args))
		for i, a := range args {
			colors[i] = a.Color
		}
		color = symtable.MaybeBlue(colors...)
	} else {
		color = oi.InFuncType.FuncInfo.Color
	}

	var res vm.Object
	if color == vm.Red && f.Redshifting() {
		res = nil
	} else {
		vals := make([]vm.Object, len(args))
		for i, a := range args {
			vals[i] = a.Val
		}
		var err error
		res, err = oi.Execute(f.VM, vals)
		if err != nil {
			if e, ok := spyerror.AsError(err); ok {
				e.AddLocMaybe(node.Location())
			}
			return nil, err
		}
	}
	return vm.NewMetaArg(color, oi.RestType(), res, node.Location()), nil
}
