package vm

import (
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/spyerror"
)

// MakeListType returns the generic instantiation list[item]. Each
// distinct item type gets its own Type, with the method dictionary
// synthesized on first instantiation; subsequent calls return the same
// Type.
func (v *VM) MakeListType(item *Type) *Type {
	if t, ok := v.listTypes[item]; ok {
		return t
	}
	f := fqn.New("builtins::list").WithQualifiers([]fqn.FQN{item.Fqn})
	t := NewType(f, ReprList, B.ObjectT)
	t.ItemType = item
	t.SetReference()
	v.listTypes[item] = t
	v.AddGlobal(f, t)

	param := func(pt *Type) FuncParam { return FuncParam{T: pt, Kind: "simple"} }
	reg := func(name string, ft *Type, fn func(v *VM, args []Object) (Object, error)) *BuiltinFunc {
		bf := NewBuiltinFunc(f.Join(name), ft, false, fn)
		v.AddGlobal(bf.Fqn(), bf)
		t.Dict.Set(name, bf)
		return bf
	}

	reg("__new__", NewFuncType(nil, t, Red, FuncPlain),
		func(v *VM, args []Object) (Object, error) {
			return &ListVal{TypeW: t}, nil
		})

	reg("_push", NewFuncType([]FuncParam{param(t), param(item)}, t, Red, FuncPlain),
		func(v *VM, args []Object) (Object, error) {
			l := args[0].(*ListVal)
			l.Items = append(l.Items, args[1])
			return l, nil
		})

	reg("__getitem__", NewFuncType([]FuncParam{param(t), param(B.I32T)}, item, Red, FuncPlain),
		func(v *VM, args []Object) (Object, error) {
			l := args[0].(*ListVal)
			i := int(args[1].(I32))
			if i < 0 || i >= len(l.Items) {
				return nil, spyerror.New(spyerror.IndexError,
					"list index out of range: %d (length %d)", i, len(l.Items))
			}
			return l.Items[i], nil
		})

	reg("__setitem__", NewFuncType([]FuncParam{param(t), param(B.I32T), param(item)}, B.NoneT, Red, FuncPlain),
		func(v *VM, args []Object) (Object, error) {
			l := args[0].(*ListVal)
			i := int(args[1].(I32))
			if i < 0 || i >= len(l.Items) {
				return nil, spyerror.New(spyerror.IndexError,
					"list index out of range: %d (length %d)", i, len(l.Items))
			}
			l.Items[i] = args[2]
			return B.None, nil
		})

	reg("__len__", NewFuncType([]FuncParam{param(t)}, B.I32T, Red, FuncPlain),
		func(v *VM, args []Object) (Object, error) {
			return I32(len(args[0].(*ListVal).Items)), nil
		})

	return t
}
