package operator

import (
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// RAISE dispatches a 'raise' statement. Only blue values are supported:
// either an exception type ('raise IndexError') or an instance ('raise
// IndexError("out of bounds")'). The value is lowered to a call to the
// internal raise builtin with a hardcoded message, filename and line, so
// that every raise site carries its location metadata.
func RAISE(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
	wamExc := args[0]
	if !wamExc.IsBlue() {
		err := spyerror.New(spyerror.TypeError, "`raise` only accepts blue values for now")
		err.Add(spyerror.LevelError, "this is red", wamExc.Loc)
		return nil, err
	}

	var etype, msg string
	switch w := wamExc.BlueVal().(type) {
	case *vm.Type:
		if !w.IsExceptionType() {
			return typecheckOpSpec(v, vm.NullSpec, args, DispatchSingle, "cannot raise `{0}`")
		}
		// 'raise IndexError': synthesize an empty-message instance
		etype = string(vm.B.ExcKindOf(w))
	case *vm.ExcValue:
		etype = string(vm.B.ExcKindOf(w.TypeW))
		msg = w.Message
	default:
		return typecheckOpSpec(v, vm.NullSpec, args, DispatchSingle, "cannot raise `{0}`")
	}

	loc := wamExc.Loc
	spec := vm.NewOpSpecArgs(std.raiseFn, []*vm.MetaArg{
		vm.MetaArgFromObject(v, vm.Str(etype)),
		vm.MetaArgFromObject(v, vm.Str(msg)),
		vm.MetaArgFromObject(v, vm.Str(loc.Filename)),
		vm.MetaArgFromObject(v, vm.I32(loc.LineStart)),
	})
	return typecheckOpSpec(v, spec, args, DispatchSingle, "cannot raise `{0}`")
}

// RaiseFn exposes the internal raise builtin; the evaluator lowers
// assert failures onto it.
func RaiseFn() vm.Function { return std.raiseFn }
