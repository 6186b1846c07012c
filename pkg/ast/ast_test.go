package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

func loc() location.Loc { return location.Fake() }

func TestInspectVisitsAllChildren(t *testing.T) {
	// (x + 1) < f(y)
	tree := &CmpOp{
		NodeBase: NodeBase{Loc: loc()},
		Op:       "<",
		Left:     NewBinOp(loc(), "+", NewName(loc(), "x"), NewConstant(loc(), 1)),
		Right:    NewCall(loc(), NewName(loc(), "f"), []Expr{NewName(loc(), "y")}),
	}

	var names []string
	count := 0
	Inspect(tree, func(n Node) bool {
		count++
		if name, ok := n.(*Name); ok {
			names = append(names, name.ID)
		}
		return true
	})
	require.Equal(t, []string{"x", "f", "y"}, names)
	require.Equal(t, 7, count)
}

func TestInspectPrune(t *testing.T) {
	tree := NewBinOp(loc(), "+",
		NewBinOp(loc(), "*", NewName(loc(), "a"), NewName(loc(), "b")),
		NewName(loc(), "c"))

	var names []string
	Inspect(tree, func(n Node) bool {
		if _, ok := n.(*BinOp); ok && n != Node(tree) {
			return false // skip the nested product
		}
		if name, ok := n.(*Name); ok {
			names = append(names, name.ID)
		}
		return true
	})
	require.Equal(t, []string{"c"}, names)
}

func TestWithBodyIsShallow(t *testing.T) {
	fd := &FuncDef{
		NodeBase: NodeBase{Loc: loc()},
		Name:     "f",
		Body:     []Stmt{&Pass{NodeBase: NodeBase{Loc: loc()}}},
	}
	newBody := []Stmt{&Return{NodeBase: NodeBase{Loc: loc()}, Value: NewConstant(loc(), 1)}}
	g := fd.WithBody(newBody)
	require.Equal(t, "f", g.Name)
	require.Len(t, fd.Body, 1)
	require.Len(t, g.Body, 1)
	require.NotEqual(t, fd.Body, g.Body)
}

func TestDump(t *testing.T) {
	e := NewFQNConst(loc(), fqn.New("mod::foo"))
	out := Dump(e)
	require.Contains(t, out, "FQNConst")
	require.Contains(t, out, "foo")
}
