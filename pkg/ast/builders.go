package ast

import (
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

// Constructors for the node kinds that get built programmatically all
// over the evaluator, the doppler pass and the tests.

func NewConstant(loc location.Loc, value interface{}) *Constant {
	return &Constant{NodeBase: NodeBase{Loc: loc}, Value: value}
}

func NewStrConst(loc location.Loc, value string) *StrConst {
	return &StrConst{NodeBase: NodeBase{Loc: loc}, Value: value}
}

func NewLocConst(loc location.Loc, value location.Loc) *LocConst {
	return &LocConst{NodeBase: NodeBase{Loc: loc}, Value: value}
}

func NewFQNConst(loc location.Loc, f fqn.FQN) *FQNConst {
	return &FQNConst{NodeBase: NodeBase{Loc: loc}, Fqn: f}
}

func NewName(loc location.Loc, id string) *Name {
	return &Name{NodeBase: NodeBase{Loc: loc}, ID: id}
}

func NewNameLocal(loc location.Loc, id string) *NameLocal {
	return &NameLocal{NodeBase: NodeBase{Loc: loc}, ID: id}
}

func NewNameCell(loc location.Loc, f fqn.FQN) *NameCell {
	return &NameCell{NodeBase: NodeBase{Loc: loc}, Fqn: f}
}

func NewCall(loc location.Loc, fn Expr, args []Expr) *Call {
	return &Call{NodeBase: NodeBase{Loc: loc}, Func: fn, Args: args}
}

func NewTuple(loc location.Loc, items []Expr) *Tuple {
	return &Tuple{NodeBase: NodeBase{Loc: loc}, Items: items}
}

func NewGetItem(loc location.Loc, value Expr, args []Expr) *GetItem {
	return &GetItem{NodeBase: NodeBase{Loc: loc}, Value: value, Args: args}
}

func NewBinOp(loc location.Loc, op string, left, right Expr) *BinOp {
	return &BinOp{NodeBase: NodeBase{Loc: loc}, Op: op, Left: left, Right: right}
}

func NewStmtExpr(loc location.Loc, value Expr) *StmtExpr {
	return &StmtExpr{NodeBase: NodeBase{Loc: loc}, Value: value}
}

func NewAssign(loc location.Loc, target *StrConst, value Expr) *Assign {
	return &Assign{NodeBase: NodeBase{Loc: loc}, Target: target, Value: value}
}
