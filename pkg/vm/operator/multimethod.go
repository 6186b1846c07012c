// Package operator implements the OPERATOR metafunctions: for every
// operator of the language it inspects the static types of the incoming
// MetaArgs, selects an implementation (multimethod tables first, dunder
// lookup second) and typechecks the resulting OpSpec into an OpImpl.
package operator

import (
	"github.com/spylang/spy/pkg/vm"
)

type mmKey struct {
	op    string
	left  *vm.Type
	right *vm.Type
}

// multiMethodTable maps (op, leftType, rightType) to an implementation.
// A partial entry with a nil side means "any operand accepted there";
// used for dynamic.
type multiMethodTable struct {
	impls map[mmKey]vm.Function
}

func newMultiMethodTable() *multiMethodTable {
	return &multiMethodTable{impls: make(map[mmKey]vm.Function)}
}

func (t *multiMethodTable) register(op string, left, right *vm.Type, impl vm.Function) {
	key := mmKey{op, left, right}
	if _, ok := t.impls[key]; ok {
		panic("operator: duplicate multimethod " + op)
	}
	t.impls[key] = impl
}

func (t *multiMethodTable) registerPartial(op string, left *vm.Type, impl vm.Function) {
	t.register(op, left, nil, impl)
}

// lookup returns the implementation for the exact pair, falling back to
// partial entries. nil means no match.
func (t *multiMethodTable) lookup(op string, left, right *vm.Type) vm.Function {
	if impl, ok := t.impls[mmKey{op, left, right}]; ok {
		return impl
	}
	if impl, ok := t.impls[mmKey{op, left, nil}]; ok {
		return impl
	}
	if impl, ok := t.impls[mmKey{op, nil, right}]; ok {
		return impl
	}
	return nil
}

// getBinaryOpSpec consults the table for a binary operator.
func (t *multiMethodTable) getBinaryOpSpec(op string, l, r *vm.MetaArg) *vm.OpSpec {
	impl := t.lookup(op, l.StaticT, r.StaticT)
	if impl == nil {
		return nil
	}
	return vm.NewOpSpec(impl)
}
