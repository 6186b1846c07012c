package vm

import (
	"fmt"
	"strconv"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
)

// VM is the explicit context threaded through every evaluator call. It
// owns the module table, the flat global table and the FQN uniqueness
// state. A VM is single-threaded: frames mutate it in sequence, never
// concurrently.
type VM struct {
	// Modules maps module name to module, in load order.
	Modules *OrderedMap[*Module]

	// Globals is the flat table of every named object.
	Globals *OrderedMap[Object]

	// Interner backs the deterministic qualifier encoding of c_names.
	Interner *fqn.Interner

	uniqueFqns map[string]bool
	constFqns  map[Object]fqn.FQN

	listTypes map[*Type]*Type

	// astCall executes an ASTFunc; installed by the interpreter package
	// to keep the dependency arrow pointing from interp to vm.
	astCall func(v *VM, fn *ASTFunc, args []Object) (Object, error)

	// Warnings collected during lazy-mode redshift, drained by the
	// driver.
	Warnings []*spyerror.Error
}

// New creates a fresh VM with the builtins module registered.
func New() *VM {
	v := &VM{
		Modules:    NewOrderedMap[*Module](),
		Globals:    NewOrderedMap[Object](),
		Interner:   fqn.NewInterner(),
		uniqueFqns: make(map[string]bool),
		constFqns:  make(map[Object]fqn.FQN),
		listTypes:  make(map[*Type]*Type),
	}
	v.bootstrapBuiltins()
	return v
}

func (v *VM) bootstrapBuiltins() {
	mod := NewModule("builtins", "")
	v.RegisterModule(mod)
	// prebuilt blue constants minted by MakeFqnConst live here
	v.RegisterModule(NewModule("const", ""))
	for _, t := range B.allTypes() {
		v.AddGlobal(t.Fqn, t)
	}
	v.AddGlobal(fqn.New("builtins::None"), B.None)
	v.AddGlobal(fqn.New("builtins::True"), Bool(true))
	v.AddGlobal(fqn.New("builtins::False"), Bool(false))

	// OpSpec constructor: lets user-level blue metafunctions build
	// dispatch results, e.g. 'return OpSpec(my_getitem)'.
	opspecFQN := fqn.New("builtins::OpSpec")
	opspecT := NewFuncTypeVariadic(
		[]FuncParam{{T: B.DynamicT, Kind: "simple"}},
		B.DynamicT, Blue, FuncPlain)
	v.AddGlobal(opspecFQN, NewBuiltinFunc(opspecFQN, opspecT, true,
		func(v *VM, args []Object) (Object, error) {
			fn, ok := args[0].(Function)
			if !ok {
				return nil, spyerror.New(spyerror.TypeError,
					"OpSpec() expects a function, got `%s`", args[0].DynType(v).Fqn.HumanName())
			}
			if len(args) == 1 {
				return NewOpSpec(fn), nil
			}
			margs := make([]*MetaArg, 0, len(args)-1)
			for _, w := range args[1:] {
				if m, ok := w.(*MetaArg); ok {
					margs = append(margs, m)
				} else {
					margs = append(margs, MetaArgFromObject(v, w))
				}
			}
			return NewOpSpecArgs(fn, margs), nil
		}))
}

// SetASTCaller installs the ASTFunc execution hook.
func (v *VM) SetASTCaller(fn func(v *VM, fn *ASTFunc, args []Object) (Object, error)) {
	v.astCall = fn
}

// RegisterModule adds a module to the module table.
func (v *VM) RegisterModule(mod *Module) {
	if v.Modules.Has(mod.Name) {
		panic("vm: module registered twice: " + mod.Name)
	}
	v.Modules.Set(mod.Name, mod)
}

// AddGlobal registers a named object. The FQN must be unique: every
// Function, Type and constant in the VM has exactly one name.
func (v *VM) AddGlobal(f fqn.FQN, w Object) {
	key := f.Key()
	if v.Globals.Has(key) {
		panic("vm: duplicate global FQN: " + key)
	}
	v.Globals.Set(key, w)
	v.uniqueFqns[key] = true
	if mod, ok := v.Modules.Get(f.ModName()); ok && len(f.Parts) == 2 && f.Suffix == 0 {
		mod.Items.Set(f.Attr(), w)
	}
}

// StoreGlobal replaces the value of an existing global; used for
// assignments to red module-level vars.
func (v *VM) StoreGlobal(f fqn.FQN, w Object) {
	key := f.Key()
	if !v.Globals.Has(key) {
		panic("vm: store to unknown global: " + key)
	}
	v.Globals.Set(key, w)
	if mod, ok := v.Modules.Get(f.ModName()); ok && len(f.Parts) == 2 {
		mod.Items.Set(f.Attr(), w)
	}
}

// LookupGlobal returns the object registered under f, or nil.
func (v *VM) LookupGlobal(f fqn.FQN) Object {
	w, _ := v.Globals.Get(f.Key())
	return w
}

// GetUniqueFQN returns base if it is unused, else base with the first
// free numeric suffix. Used for lambdas, closures and specialization
// artifacts.
func (v *VM) GetUniqueFQN(base fqn.FQN) fqn.FQN {
	if !v.uniqueFqns[base.Key()] {
		v.uniqueFqns[base.Key()] = true
		return base
	}
	for n := 1; ; n++ {
		f := base.WithSuffix(n)
		if !v.uniqueFqns[f.Key()] {
			v.uniqueFqns[f.Key()] = true
			return f
		}
	}
}

// MakeFqnConst assigns a FQN to an arbitrary blue value so that redshift
// can emit it as a FQNConst. Idempotent: a value already registered
// keeps its name. Functions and types use their own FQN; everything
// else is minted under the 'const' module.
func (v *VM) MakeFqnConst(w Object) fqn.FQN {
	switch w := w.(type) {
	case Function:
		f := w.Fqn()
		if v.LookupGlobal(f) == nil {
			v.AddGlobal(f, w)
		}
		return f
	case *Type:
		if v.LookupGlobal(w.Fqn) == nil {
			v.AddGlobal(w.Fqn, w)
		}
		return w.Fqn
	}
	if f, ok := v.constFqns[w]; ok {
		return f
	}
	base := fqn.FQN{Parts: []fqn.NSPart{
		{Name: "const"},
		{Name: w.DynType(v).Fqn.Attr() + "_" + strconv.Itoa(len(v.constFqns))},
	}}
	f := v.GetUniqueFQN(base)
	v.AddGlobal(f, w)
	v.constFqns[w] = f
	return f
}

// Wrap converts a host value into an Object.
func (v *VM) Wrap(x interface{}) Object {
	switch x := x.(type) {
	case nil:
		return B.None
	case Object:
		return x
	case bool:
		return Bool(x)
	case int:
		return I32(x)
	case int32:
		return I32(x)
	case int64:
		return I32(x)
	case int8:
		return I8(x)
	case uint8:
		return U8(x)
	case float64:
		return F64(x)
	case string:
		return Str(x)
	case location.Loc:
		return LocVal(x)
	}
	panic(fmt.Sprintf("vm: cannot wrap %T", x))
}

// Unwrap converts an Object back to a host value where possible.
func (v *VM) Unwrap(w Object) interface{} {
	switch w := w.(type) {
	case None:
		return nil
	case Bool:
		return bool(w)
	case I8:
		return int8(w)
	case U8:
		return uint8(w)
	case I32:
		return int32(w)
	case F64:
		return float64(w)
	case Str:
		return string(w)
	case LocVal:
		return location.Loc(w)
	}
	return w
}

// UnwrapStr returns the Go string behind a str value.
func (v *VM) UnwrapStr(w Object) string {
	s, ok := w.(Str)
	if !ok {
		panic("vm: not a str: " + w.String())
	}
	return string(s)
}

// IsTrue reports whether a bool value is true.
func (v *VM) IsTrue(w Object) bool {
	b, ok := w.(Bool)
	return ok && bool(b)
}

// DynTypeOf returns the dynamic type of w.
func (v *VM) DynTypeOf(w Object) *Type {
	return w.DynType(v)
}

// IsInstance reports whether w is acceptable where t is expected.
func (v *VM) IsInstance(w Object, t *Type) bool {
	if t == B.DynamicT || t == B.ObjectT {
		return true
	}
	wt := w.DynType(v)
	for cur := wt; cur != nil; cur = cur.Base {
		if cur == t || FuncTypesEqual(cur, t) {
			return true
		}
	}
	return false
}

// UnionType returns the most precise common ancestor of two types;
// 'dynamic' absorbs everything, unrelated types meet at 'object'.
func (v *VM) UnionType(a, b *Type) *Type {
	if a == b {
		return a
	}
	if a == B.DynamicT || b == B.DynamicT {
		return B.DynamicT
	}
	seen := make(map[*Type]bool)
	for cur := a; cur != nil; cur = cur.Base {
		seen[cur] = true
	}
	for cur := b; cur != nil; cur = cur.Base {
		if seen[cur] {
			return cur
		}
	}
	return B.ObjectT
}

// FastCall invokes a function with already-wrapped arguments.
func (v *VM) FastCall(fn Function, args []Object) (Object, error) {
	switch fn := fn.(type) {
	case *BuiltinFunc:
		return fn.Fn(v, args)
	case *ASTFunc:
		if !fn.IsValid() {
			return nil, spyerror.New(spyerror.PanicError,
				"call to invalidated function `%s` (already redshifted)", fn.Fqn())
		}
		if v.astCall == nil {
			panic("vm: no ASTFunc caller installed")
		}
		return v.astCall(v, fn, args)
	case *FuncAdapter:
		realArgs, err := evalArgSpecs(v, fn.args, args)
		if err != nil {
			return nil, err
		}
		return v.FastCall(fn.target, realArgs)
	default:
		panic(fmt.Sprintf("vm: cannot call %T", fn))
	}
}

// FastMetaCall invokes a blue metafunction with MetaArgs and returns the
// OpSpec it produces. A metafunction returning a plain function is
// shorthand for a simple OpSpec on it.
func (v *VM) FastMetaCall(fn Function, margs []*MetaArg) (*OpSpec, error) {
	args := make([]Object, len(margs))
	for i, m := range margs {
		args[i] = m
	}
	res, err := v.FastCall(fn, args)
	if err != nil {
		return nil, err
	}
	switch res := res.(type) {
	case *OpSpec:
		return res, nil
	case Function:
		return NewOpSpec(res), nil
	case None:
		return NullSpec, nil
	default:
		return nil, spyerror.New(spyerror.TypeError,
			"metafunction `%s` returned `%s`, expected an OpSpec",
			fn.Fqn(), res.DynType(v).Fqn.HumanName())
	}
}

// EmitWarning records a lazy-mode warning for the driver to surface.
func (v *VM) EmitWarning(err *spyerror.Error) {
	v.Warnings = append(v.Warnings, err)
}
