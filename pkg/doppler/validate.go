package doppler

import (
	"fmt"

	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

// RedshiftAll redshifts every valid red ASTFunc registered in the VM, in
// registration order. Functions created while redshifting (e.g. by blue
// calls performed from red code) are picked up in subsequent sweeps.
func RedshiftAll(v *vm.VM, mode ErrorMode) error {
	done := make(map[*vm.ASTFunc]bool)
	for {
		fns := collectRedFuncs(v, done)
		if len(fns) == 0 {
			return nil
		}
		for _, fn := range fns {
			done[fn] = true
			if _, err := Redshift(v, fn, mode); err != nil {
				return err
			}
		}
	}
}

func collectRedFuncs(v *vm.VM, done map[*vm.ASTFunc]bool) []*vm.ASTFunc {
	var fns []*vm.ASTFunc
	v.Globals.Each(func(key string, w vm.Object) bool {
		fn, ok := w.(*vm.ASTFunc)
		if ok && !done[fn] && fn.IsValid() && !fn.Redshifted && fn.Color() == symtable.Red {
			fns = append(fns, fn)
		}
		return true
	})
	return fns
}

// ValidateResidual asserts the guarantees the C emitter relies on: every
// expression node of a redshifted body is a constant, a local or cell
// reference, a FQNConst or a Call on a FQNConst (plus the simple
// composites And, Or, Tuple, AssignExpr and the list-display lowering,
// which is itself made of such calls).
func ValidateResidual(fn *vm.ASTFunc) error {
	if !fn.Redshifted {
		return spyerror.New(spyerror.PanicError, "`%s` is not redshifted", fn.Fqn())
	}
	var bad ast.Node
	for _, stmt := range fn.FuncDef.Body {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if bad != nil {
				return false
			}
			expr, ok := n.(ast.Expr)
			if !ok {
				return true
			}
			if !residualExprOK(expr) {
				bad = n
				return false
			}
			return true
		})
	}
	if bad != nil {
		return spyerror.New(spyerror.PanicError,
			"residual of `%s` contains an unresolved %s", fn.Fqn(), fmt.Sprintf("%T", bad))
	}
	return nil
}

func residualExprOK(expr ast.Expr) bool {
	switch expr := expr.(type) {
	case *ast.Constant, *ast.StrConst, *ast.LocConst, *ast.FQNConst,
		*ast.NameLocal, *ast.NameCell, *ast.And, *ast.Or, *ast.Tuple,
		*ast.AssignExpr:
		return true
	case *ast.Call:
		_, ok := expr.Func.(*ast.FQNConst)
		return ok
	}
	return false
}
