package doppler

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/vm"
)

// MakeConst emits the shortest legal AST representation of a blue value:
// primitives become literals, tuples recurse item-wise, and everything
// else gets a FQN minted through the VM and becomes a FQNConst.
func MakeConst(v *vm.VM, loc location.Loc, w vm.Object) ast.Expr {
	switch w := w.(type) {
	case vm.None:
		return ast.NewConstant(loc, nil)
	case vm.Bool:
		return ast.NewConstant(loc, bool(w))
	case vm.I8:
		return ast.NewConstant(loc, int8(w))
	case vm.U8:
		return ast.NewConstant(loc, uint8(w))
	case vm.I32:
		return ast.NewConstant(loc, int32(w))
	case vm.F64:
		return ast.NewConstant(loc, float64(w))
	case vm.Str:
		return ast.NewStrConst(loc, string(w))
	case vm.LocVal:
		return ast.NewLocConst(loc, location.Loc(w))
	case *vm.Tuple:
		items := make([]ast.Expr, len(w.Items))
		for i, item := range w.Items {
			items[i] = MakeConst(v, loc, item)
		}
		return ast.NewTuple(loc, items)
	}
	return ast.NewFQNConst(loc, v.MakeFqnConst(w))
}
