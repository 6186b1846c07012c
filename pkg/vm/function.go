package vm

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

// Namespace maps names to values; blue frames expose their locals to
// inner functions through namespaces.
type Namespace map[string]Object

// Closure is a persistent chain of enclosing namespaces. Pushing shares
// the tail, so deeply nested blue frames don't copy their ancestors.
type Closure struct {
	ns    Namespace
	outer *Closure
}

// Push returns a new closure with ns as the innermost namespace.
func (c *Closure) Push(ns Namespace) *Closure {
	return &Closure{ns: ns, outer: c}
}

// At returns the namespace at the given level: 1 is the innermost
// enclosing scope, 2 its parent, and so on.
func (c *Closure) At(level int) Namespace {
	cur := c
	for i := 1; i < level && cur != nil; i++ {
		cur = cur.outer
	}
	if cur == nil {
		return nil
	}
	return cur.ns
}

// Function is implemented by every callable: host builtins, user
// ASTFuncs and adapters. Invocation goes through VM.FastCall.
type Function interface {
	Object
	Fqn() fqn.FQN
	FuncType() *Type
	IsPure() bool
	DefLoc() location.Loc
}

// BuiltinFunc is a host-implemented primitive with a signature and a Go
// callable.
type BuiltinFunc struct {
	fqn      fqn.FQN
	functype *Type
	pure     bool
	defLoc   location.Loc
	Fn       func(v *VM, args []Object) (Object, error)
}

// NewBuiltinFunc creates a builtin. Pure builtins propagate blueness
// through the color rule.
func NewBuiltinFunc(f fqn.FQN, functype *Type, pure bool,
	fn func(v *VM, args []Object) (Object, error)) *BuiltinFunc {
	return &BuiltinFunc{
		fqn:      f,
		functype: functype,
		pure:     pure,
		defLoc:   location.Builtin(f.String()),
		Fn:       fn,
	}
}

func (f *BuiltinFunc) Fqn() fqn.FQN            { return f.fqn }
func (f *BuiltinFunc) FuncType() *Type         { return f.functype }
func (f *BuiltinFunc) IsPure() bool            { return f.pure }
func (f *BuiltinFunc) DefLoc() location.Loc    { return f.defLoc }
func (f *BuiltinFunc) DynType(v *VM) *Type     { return f.functype }
func (f *BuiltinFunc) String() string          { return reprString("builtin", f.fqn) }

// ASTFunc is a user-defined function: its body is an AST executed by a
// frame. Redshifting an ASTFunc produces a new one whose body consists
// entirely of residual forms; the original is invalidated and keeps a
// forward pointer.
type ASTFunc struct {
	fqn      fqn.FQN
	functype *Type
	FuncDef  *ast.FuncDef

	// Closure is the chain of enclosing blue namespaces; nil after
	// redshift.
	Closure *Closure

	// LocalsTypes captures the final inferred type of every local;
	// populated by redshift for the emitter.
	LocalsTypes map[string]*Type

	Redshifted     bool
	redshiftedInto *ASTFunc
}

// NewASTFunc wraps a funcdef into a callable.
func NewASTFunc(f fqn.FQN, functype *Type, funcdef *ast.FuncDef, closure *Closure) *ASTFunc {
	return &ASTFunc{fqn: f, functype: functype, FuncDef: funcdef, Closure: closure}
}

func (f *ASTFunc) Fqn() fqn.FQN         { return f.fqn }
func (f *ASTFunc) FuncType() *Type      { return f.functype }
func (f *ASTFunc) IsPure() bool         { return false }
func (f *ASTFunc) DefLoc() location.Loc { return f.FuncDef.PrototypeLoc }
func (f *ASTFunc) DynType(v *VM) *Type  { return f.functype }

// Color returns the function's color.
func (f *ASTFunc) Color() Color { return f.functype.FuncInfo.Color }

// Invalidate marks the function as superseded by its redshifted form.
func (f *ASTFunc) Invalidate(into *ASTFunc) {
	f.redshiftedInto = into
}

// RedshiftedInto returns the forward pointer, or nil if the function is
// still valid.
func (f *ASTFunc) RedshiftedInto() *ASTFunc { return f.redshiftedInto }

// IsValid reports whether the function may still be executed.
func (f *ASTFunc) IsValid() bool { return f.redshiftedInto == nil }

func (f *ASTFunc) String() string {
	extra := ""
	if f.Redshifted {
		extra = " (redshifted)"
	} else if f.Color() == Blue {
		extra = " (blue)"
	}
	return "<spy function `" + f.fqn.String() + "`" + extra + ">"
}
