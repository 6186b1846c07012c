// Package testsupport provides compact AST constructors and loading
// shortcuts for the compiler test suites. Production code must not
// import it.
package testsupport

import (
	"fmt"

	"github.com/spylang/spy/pkg/analyze"
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/interp"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

var lineCounter int

// L mints a fresh fake location; every node gets its own line so that
// diagnostics stay distinguishable in tests.
func L() location.Loc {
	lineCounter++
	return location.Loc{
		Filename:  "<test>",
		LineStart: lineCounter,
		LineEnd:   lineCounter,
		ColStart:  0,
		ColEnd:    10,
	}
}

// Mod assembles a module AST.
func Mod(name string, decls ...ast.Decl) *ast.Module {
	return &ast.Module{
		NodeBase: ast.NodeBase{Loc: L()},
		Name:     name,
		Filename: "<test>",
		Decls:    decls,
	}
}

// GFunc wraps a funcdef as a top-level declaration.
func GFunc(fd *ast.FuncDef) *ast.GlobalFuncDef {
	return &ast.GlobalFuncDef{NodeBase: ast.NodeBase{Loc: fd.Loc}, FuncDef: fd}
}

// GClass wraps a classdef as a top-level declaration.
func GClass(cd *ast.ClassDef) *ast.GlobalClassDef {
	return &ast.GlobalClassDef{NodeBase: ast.NodeBase{Loc: cd.Loc}, ClassDef: cd}
}

// GConst declares a top-level constant with an inferred type.
func GConst(name string, value ast.Expr) *ast.GlobalVarDef {
	loc := L()
	return &ast.GlobalVarDef{
		NodeBase: ast.NodeBase{Loc: loc},
		VarDef: &ast.VarDef{
			NodeBase: ast.NodeBase{Loc: loc},
			Kind:     symtable.KindConst,
			Name:     name,
			Type:     &ast.Auto{NodeBase: ast.NodeBase{Loc: loc}},
		},
		Value: value,
	}
}

// GVar declares a top-level mutable variable with an explicit type.
func GVar(name, typ string, value ast.Expr) *ast.GlobalVarDef {
	loc := L()
	return &ast.GlobalVarDef{
		NodeBase: ast.NodeBase{Loc: loc},
		VarDef: &ast.VarDef{
			NodeBase: ast.NodeBase{Loc: loc},
			Kind:     symtable.KindVar,
			Name:     name,
			Type:     Nm(typ),
		},
		Value: value,
	}
}

// Import builds a 'from mod import attr' declaration.
func Import(mod, attr string) *ast.Import {
	return &ast.Import{NodeBase: ast.NodeBase{Loc: L()}, ModName: mod, Attr: attr}
}

// Param is one formal parameter (or class field): a name and the name of
// its type.
type Param struct {
	Name string
	Type string
}

// Func builds a funcdef. Parameter and return types are given as names
// resolved at definition time (i32, f64, dynamic, ...).
func Func(name string, color symtable.Color, params []Param, ret string, body ...ast.Stmt) *ast.FuncDef {
	loc := L()
	args := make([]ast.FuncArg, len(params))
	for i, p := range params {
		args[i] = ast.FuncArg{Name: p.Name, Type: Nm(p.Type), Loc: L()}
	}
	return &ast.FuncDef{
		NodeBase:     ast.NodeBase{Loc: loc},
		Name:         name,
		Color:        color,
		Kind:         ast.FuncPlain,
		Args:         args,
		ReturnType:   Nm(ret),
		Body:         body,
		PrototypeLoc: loc,
	}
}

// Metafunc marks a blue funcdef as a metafunction.
func Metafunc(fd *ast.FuncDef) *ast.FuncDef {
	fd.Color = symtable.Blue
	fd.Kind = ast.FuncMetafunc
	return fd
}

// Class builds a struct classdef with one field per Param, in order.
func Class(name string, fields []Param, body ...ast.Stmt) *ast.ClassDef {
	loc := L()
	vardefs := make([]*ast.VarDef, len(fields))
	for i, f := range fields {
		floc := L()
		vardefs[i] = &ast.VarDef{
			NodeBase: ast.NodeBase{Loc: floc},
			Kind:     symtable.KindVar,
			Name:     f.Name,
			Type:     Nm(f.Type),
		}
	}
	return &ast.ClassDef{
		NodeBase: ast.NodeBase{Loc: loc},
		Name:     name,
		Kind:     ast.ClassStruct,
		Fields:   vardefs,
		Body:     body,
	}
}

// Typelift marks a classdef as a @typelift wrapper type.
func Typelift(cd *ast.ClassDef) *ast.ClassDef {
	cd.Kind = ast.ClassTypelift
	return cd
}

// ===== expressions =====

// Nm references a name.
func Nm(id string) *ast.Name { return ast.NewName(L(), id) }

// C builds a primitive literal.
func C(v interface{}) *ast.Constant { return ast.NewConstant(L(), v) }

// S builds a string literal.
func S(s string) *ast.StrConst { return ast.NewStrConst(L(), s) }

// Bin builds a binary operation.
func Bin(op string, l, r ast.Expr) *ast.BinOp { return ast.NewBinOp(L(), op, l, r) }

// Cmp builds a comparison.
func Cmp(op string, l, r ast.Expr) *ast.CmpOp {
	return &ast.CmpOp{NodeBase: ast.NodeBase{Loc: L()}, Op: op, Left: l, Right: r}
}

// CallE builds a call expression.
func CallE(fn ast.Expr, args ...ast.Expr) *ast.Call { return ast.NewCall(L(), fn, args) }

// Item builds an indexing expression.
func Item(value ast.Expr, args ...ast.Expr) *ast.GetItem { return ast.NewGetItem(L(), value, args) }

// Attr builds an attribute access.
func Attr(value ast.Expr, attr string) *ast.GetAttr {
	return &ast.GetAttr{NodeBase: ast.NodeBase{Loc: L()}, Value: value, Attr: S(attr)}
}

// TupleE builds a tuple display.
func TupleE(items ...ast.Expr) *ast.Tuple { return ast.NewTuple(L(), items) }

// ListE builds a list display.
func ListE(items ...ast.Expr) *ast.List {
	return &ast.List{NodeBase: ast.NodeBase{Loc: L()}, Items: items}
}

// ===== statements =====

// Ret builds a return statement.
func Ret(value ast.Expr) *ast.Return {
	return &ast.Return{NodeBase: ast.NodeBase{Loc: L()}, Value: value}
}

// Assign builds an assignment.
func Assign(target string, value ast.Expr) *ast.Assign {
	return ast.NewAssign(L(), S(target), value)
}

// VarDecl builds a local declaration with an explicit type.
func VarDecl(name, typ string, value ast.Expr) *ast.VarDef {
	return &ast.VarDef{
		NodeBase: ast.NodeBase{Loc: L()},
		Kind:     symtable.KindVar,
		Name:     name,
		Type:     Nm(typ),
		Value:    value,
	}
}

// Expr wraps an expression as a statement.
func Expr(value ast.Expr) *ast.StmtExpr { return ast.NewStmtExpr(L(), value) }

// Assert builds an assert statement; msg may be nil.
func Assert(test, msg ast.Expr) *ast.Assert {
	return &ast.Assert{NodeBase: ast.NodeBase{Loc: L()}, Test: test, Msg: msg}
}

// RaiseS builds a raise statement.
func RaiseS(exc ast.Expr) *ast.Raise {
	return &ast.Raise{NodeBase: ast.NodeBase{Loc: L()}, Exc: exc}
}

// IfS builds an if statement.
func IfS(test ast.Expr, then, els []ast.Stmt) *ast.If {
	return &ast.If{NodeBase: ast.NodeBase{Loc: L()}, Test: test, ThenBody: then, ElseBody: els}
}

// WhileS builds a while statement.
func WhileS(test ast.Expr, body ...ast.Stmt) *ast.While {
	return &ast.While{NodeBase: ast.NodeBase{Loc: L()}, Test: test, Body: body}
}

// Unpack builds a tuple-unpacking assignment.
func Unpack(value ast.Expr, targets ...string) *ast.UnpackAssign {
	ts := make([]*ast.StrConst, len(targets))
	for i, t := range targets {
		ts[i] = S(t)
	}
	return &ast.UnpackAssign{NodeBase: ast.NodeBase{Loc: L()}, Targets: ts, Value: value}
}

// ===== loading =====

// LoadModule analyzes and executes a module on a fresh wired VM.
func LoadModule(mod *ast.Module) (*vm.VM, *vm.Module, error) {
	v := interp.NewVM()
	wmod, err := LoadModuleInto(v, mod)
	return v, wmod, err
}

// LoadModuleInto analyzes and executes a module on an existing VM.
func LoadModuleInto(v *vm.VM, mod *ast.Module) (*vm.Module, error) {
	if err := analyze.New(v).Analyze(mod); err != nil {
		return nil, err
	}
	return interp.NewModFrame(v, mod).Run()
}

// FuncOf fetches a module-level function.
func FuncOf(v *vm.VM, wmod *vm.Module, name string) (*vm.ASTFunc, error) {
	w := wmod.GetAttrMaybe(name)
	if w == nil {
		return nil, fmt.Errorf("no function %q in module %q", name, wmod.Name)
	}
	fn, ok := w.(*vm.ASTFunc)
	if !ok {
		return nil, fmt.Errorf("%q is %T, not an ASTFunc", name, w)
	}
	return fn, nil
}
