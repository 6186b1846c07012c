package operator

import (
	"github.com/spylang/spy/pkg/vm"
)

func unaryOp(tok, dunder, errmsg string) Metafunc {
	return func(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
		arg := args[0]
		var spec *vm.OpSpec
		if fn := arg.StaticT.LookupBlueFunc(dunder); fn != nil {
			var err error
			spec, err = v.FastMetaCall(fn, args)
			if err != nil {
				return nil, err
			}
		} else if impl := std.unaryMM.lookup(tok, arg.StaticT, nil); impl != nil {
			spec = vm.NewOpSpec(impl)
		} else {
			spec = vm.NullSpec
		}
		return typecheckOpSpec(v, spec, args, DispatchSingle, errmsg)
	}
}

var (
	NEG = unaryOp("-", "__NEG__", "cannot do -`{0}`")
	NOT = unaryOp("not", "__NOT__", "cannot do not `{0}`")
)

// UnaryFromToken returns the generic unary operator for the given token.
func UnaryFromToken(tok string) (Metafunc, bool) {
	switch tok {
	case "-":
		return NEG, true
	case "not":
		return NOT, true
	}
	return nil, false
}
