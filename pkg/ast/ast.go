// Package ast defines the SPy module AST consumed by the evaluator and
// produced (in residual form) by the doppler pass. The surface parser
// that builds these trees is an external collaborator; within this repo
// they are constructed programmatically.
package ast

import (
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/symtable"
)

// Node is implemented by every AST node.
type Node interface {
	Location() location.Loc
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	exprNode()
}

// NodeBase carries the source location common to all nodes.
type NodeBase struct {
	Loc location.Loc
}

// Location implements Node.
func (n *NodeBase) Location() location.Loc { return n.Loc }

// Color of a function: blue runs at compile time, red at run time.
type Color = symtable.Color

// FuncKind discriminates how a function participates in dispatch.
type FuncKind string

const (
	FuncPlain    FuncKind = "plain"
	FuncMetafunc FuncKind = "metafunc"
	FuncGeneric  FuncKind = "generic"
)

// ClassKind selects the metaclass of a classdef.
type ClassKind string

const (
	ClassStruct   ClassKind = "struct"
	ClassTypelift ClassKind = "typelift"
)

// VarKind distinguishes mutable variables from constants.
type VarKind = symtable.VarKind

// ===== module level =====

// Module is a parsed source file: an ordered list of declarations.
type Module struct {
	NodeBase
	Name     string
	Filename string
	Decls    []Decl
	Symtable *symtable.SymTable
}

// Decl is a top-level declaration.
type Decl interface {
	Node
	declNode()
}

// Import brings a name from another module into scope.
type Import struct {
	NodeBase
	ModName string
	Attr    string // empty: import the whole module
	AsName  string
}

// GlobalFuncDef is a top-level function definition.
type GlobalFuncDef struct {
	NodeBase
	FuncDef *FuncDef
}

// GlobalClassDef is a top-level class definition.
type GlobalClassDef struct {
	NodeBase
	ClassDef *ClassDef
}

// GlobalVarDef is a top-level 'var x: T = ...' or 'x = ...' declaration.
type GlobalVarDef struct {
	NodeBase
	VarDef *VarDef
	Value  Expr
}

func (*Import) declNode()         {}
func (*GlobalFuncDef) declNode()  {}
func (*GlobalClassDef) declNode() {}
func (*GlobalVarDef) declNode()   {}

// ===== statements =====

// FuncArg is one formal parameter of a funcdef.
type FuncArg struct {
	Name string
	Type Expr
	Loc  location.Loc
}

// FuncDef defines a function. The symtable is attached by the scope
// analyzer before the funcdef is executed.
type FuncDef struct {
	NodeBase
	Name         string
	Color        Color
	Kind         FuncKind
	Args         []FuncArg
	ReturnType   Expr
	Body         []Stmt
	Symtable     *symtable.SymTable
	PrototypeLoc location.Loc
}

// WithBody returns a shallow copy of the funcdef with a new body. Used by
// the doppler pass to assemble the residual function.
func (f *FuncDef) WithBody(body []Stmt) *FuncDef {
	g := *f
	g.Body = body
	return &g
}

// ClassDef defines a class in two phases: forward declaration, then body
// execution which finalizes fields and methods.
type ClassDef struct {
	NodeBase
	Name     string
	Kind     ClassKind
	Fields   []*VarDef
	Body     []Stmt
	Symtable *symtable.SymTable
}

// VarDef declares a name with an explicit type, or Auto for inference.
type VarDef struct {
	NodeBase
	Kind  VarKind
	Name  string
	Type  Expr
	Value Expr // may be nil
}

// Assign stores a value into a name. The target carries its own loc.
type Assign struct {
	NodeBase
	Target *StrConst
	Value  Expr
}

// AssignLocal is the residual form of an assignment to a local. It only
// appears in redshifted ASTs.
type AssignLocal struct {
	NodeBase
	Target *StrConst
	Value  Expr
}

// AssignCell is the residual form of an assignment to a module-level var
// routed through its Cell. It only appears in redshifted ASTs.
type AssignCell struct {
	NodeBase
	Fqn   fqn.FQN
	Value Expr
}

// UnpackAssign destructures a tuple into multiple targets.
type UnpackAssign struct {
	NodeBase
	Targets []*StrConst
	Value   Expr
}

// AugAssign is 'x op= value'; desugared to 'x = x op value'.
type AugAssign struct {
	NodeBase
	Op     string
	Target *StrConst
	Value  Expr
}

// SetAttr is 'target.attr = value'.
type SetAttr struct {
	NodeBase
	Target Expr
	Attr   *StrConst
	Value  Expr
}

// SetItem is 'target[args...] = value'.
type SetItem struct {
	NodeBase
	Target Expr
	Args   []Expr
	Value  Expr
}

// If executes one of two bodies depending on a bool condition.
type If struct {
	NodeBase
	Test     Expr
	ThenBody []Stmt
	ElseBody []Stmt
}

// While loops until the condition is false.
type While struct {
	NodeBase
	Test Expr
	Body []Stmt
}

// For iterates; desugared by the evaluator to init_iter + while.
type For struct {
	NodeBase
	Target *StrConst
	Iter   Expr
	Body   []Stmt
}

// Raise raises an exception; only blue values are supported.
type Raise struct {
	NodeBase
	Exc Expr
}

// Assert checks a condition, raising AssertionError on failure.
type Assert struct {
	NodeBase
	Test Expr
	Msg  Expr // may be nil
}

// Pass does nothing.
type Pass struct {
	NodeBase
}

// Return exits the enclosing function with a value.
type Return struct {
	NodeBase
	Value Expr
}

// Break exits the innermost loop.
type Break struct {
	NodeBase
}

// Continue jumps to the next iteration of the innermost loop.
type Continue struct {
	NodeBase
}

// StmtExpr evaluates an expression for its effects.
type StmtExpr struct {
	NodeBase
	Value Expr
}

func (*FuncDef) stmtNode()      {}
func (*ClassDef) stmtNode()     {}
func (*VarDef) stmtNode()       {}
func (*Assign) stmtNode()       {}
func (*AssignLocal) stmtNode()  {}
func (*AssignCell) stmtNode()   {}
func (*UnpackAssign) stmtNode() {}
func (*AugAssign) stmtNode()    {}
func (*SetAttr) stmtNode()      {}
func (*SetItem) stmtNode()      {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*For) stmtNode()          {}
func (*Raise) stmtNode()        {}
func (*Assert) stmtNode()       {}
func (*Pass) stmtNode()         {}
func (*Return) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*StmtExpr) stmtNode()     {}

// ===== expressions =====

// Constant is a primitive literal: int64, float64, bool or nil.
type Constant struct {
	NodeBase
	Value interface{}
}

// StrConst is a string literal. It doubles as the target of assignments
// so that targets carry a location.
type StrConst struct {
	NodeBase
	Value string
}

// LocConst is a source-location literal, used by the raise lowering.
type LocConst struct {
	NodeBase
	Value location.Loc
}

// FQNConst references a global by fully-qualified name. After redshift,
// every function callee is one of these.
type FQNConst struct {
	NodeBase
	Fqn fqn.FQN
}

// Name references a symbol; resolution is driven by the symtable.
type Name struct {
	NodeBase
	ID string
}

// NameLocal is the residual form of a red local reference.
type NameLocal struct {
	NodeBase
	ID string
}

// NameCell is the residual form of a read of a module-level var routed
// through its Cell.
type NameCell struct {
	NodeBase
	Fqn fqn.FQN
}

// Auto marks a VarDef type to be inferred from the initializer.
type Auto struct {
	NodeBase
}

// BinOp is an arithmetic/bitwise binary operation.
type BinOp struct {
	NodeBase
	Op    string
	Left  Expr
	Right Expr
}

// CmpOp is a comparison.
type CmpOp struct {
	NodeBase
	Op    string
	Left  Expr
	Right Expr
}

// UnaryOp is '-x', 'not x', etc.
type UnaryOp struct {
	NodeBase
	Op    string
	Value Expr
}

// Call invokes a callable with positional arguments.
type Call struct {
	NodeBase
	Func Expr
	Args []Expr
}

// CallMethod invokes a method on a target.
type CallMethod struct {
	NodeBase
	Target Expr
	Method *StrConst
	Args   []Expr
}

// GetItem is 'value[args...]'.
type GetItem struct {
	NodeBase
	Value Expr
	Args  []Expr
}

// GetAttr is 'value.attr'.
type GetAttr struct {
	NodeBase
	Value Expr
	Attr  *StrConst
}

// List is a list display.
type List struct {
	NodeBase
	Items []Expr
}

// Tuple is a tuple display.
type Tuple struct {
	NodeBase
	Items []Expr
}

// And is short-circuit conjunction.
type And struct {
	NodeBase
	Left  Expr
	Right Expr
}

// Or is short-circuit disjunction.
type Or struct {
	NodeBase
	Left  Expr
	Right Expr
}

// AssignExpr is the walrus form: assign and yield the value.
type AssignExpr struct {
	NodeBase
	Target *StrConst
	Value  Expr
}

func (*Constant) exprNode()   {}
func (*StrConst) exprNode()   {}
func (*LocConst) exprNode()   {}
func (*FQNConst) exprNode()   {}
func (*Name) exprNode()       {}
func (*NameLocal) exprNode()  {}
func (*NameCell) exprNode()   {}
func (*Auto) exprNode()       {}
func (*BinOp) exprNode()      {}
func (*CmpOp) exprNode()      {}
func (*UnaryOp) exprNode()    {}
func (*Call) exprNode()       {}
func (*CallMethod) exprNode() {}
func (*GetItem) exprNode()    {}
func (*GetAttr) exprNode()    {}
func (*List) exprNode()       {}
func (*Tuple) exprNode()      {}
func (*And) exprNode()        {}
func (*Or) exprNode()         {}
func (*AssignExpr) exprNode() {}
