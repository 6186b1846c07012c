package operator

import (
	"fmt"
	"strings"

	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// DispatchKind is a property of an OPERATOR: single dispatch depends
// only on the type of the first operand (CALL, GETATTR, ...), multi
// dispatch on the types of all operands (binary operators). It drives
// error reporting only.
type DispatchKind string

const (
	DispatchSingle DispatchKind = "single"
	DispatchMulti  DispatchKind = "multi"
)

// typecheckOpSpec turns an OpSpec into an executable OpImpl: it checks
// the arity, verifies color discipline and inserts implicit conversions
// where the argument types don't match the implementation's parameters.
func typecheckOpSpec(v *vm.VM, spec *vm.OpSpec, inArgs []*vm.MetaArg,
	dispatch DispatchKind, errmsg string) (*vm.OpImpl, error) {

	if spec.IsNull() {
		return nil, opspecNullError(inArgs, dispatch, errmsg)
	}
	if spec.IsConst() {
		return vm.NewOpImplConst(v, spec.ConstVal()), nil
	}

	fn := spec.Func()
	outFuncType := fn.FuncType()
	outInfo := outFuncType.FuncInfo
	inFuncType := funcTypeFromMetaArgs(inArgs, outInfo.ResType, outInfo.Color)

	// a simple OpSpec passes the incoming MetaArgs in order
	outArgs := spec.Args()
	if spec.IsSimple() {
		outArgs = inArgs
	}

	defLoc := fn.DefLoc()
	var callLoc location.Loc
	if spec.DirectCall && len(inArgs) > 0 {
		callLoc = inArgs[0].Loc
	}

	if !outInfo.ArgcountOK(len(outArgs)) {
		return nil, wrongArgcountError(len(outArgs), len(outInfo.Params), outArgs, defLoc, callLoc)
	}

	args := make([]vm.ArgSpec, 0, len(outArgs))
	for i, outArg := range outArgs {
		var paramT *vm.Type
		if i < len(outInfo.Params) {
			paramT = outInfo.Params[i].T
		} else {
			// variadic tail of a host metafunction
			paramT = vm.B.DynamicT
		}

		if outInfo.Color == vm.Blue && outArg.Color == vm.Red {
			err := spyerror.New(spyerror.TypeError, "cannot call blue function with red arguments")
			if !callLoc.IsZero() {
				err.Add(spyerror.LevelError, "this is blue", callLoc)
			}
			err.Add(spyerror.LevelError, "this is red", outArg.Loc)
			err.Add(spyerror.LevelNote, "function defined here", defLoc)
			return nil, err
		}

		conv, err := convForParam(v, paramT, outArg, defLoc)
		if err != nil {
			return nil, err
		}

		var arg vm.ArgSpec
		if outArg.IsBlue() {
			arg = vm.ArgConst{Val: outArg.BlueVal(), Loc: outArg.Loc}
		} else {
			// red MetaArgs must come from the input
			idx := indexOfMetaArg(inArgs, outArg)
			if idx < 0 {
				panic("operator: red OpSpec argument not present in the input")
			}
			arg = vm.ArgIdx{I: idx}
		}
		if conv != nil {
			arg = vm.ArgConvert{Conv: conv, Inner: arg}
		}
		args = append(args, arg)
	}

	return vm.NewOpImpl(inFuncType, fn, args), nil
}

func indexOfMetaArg(args []*vm.MetaArg, m *vm.MetaArg) int {
	for i, a := range args {
		if a == m {
			return i
		}
	}
	return -1
}

func funcTypeFromMetaArgs(args []*vm.MetaArg, res *vm.Type, color vm.Color) *vm.Type {
	params := make([]vm.FuncParam, len(args))
	for i, a := range args {
		params[i] = vm.FuncParam{T: a.StaticT, Kind: "simple"}
	}
	return vm.NewFuncType(params, res, color, vm.FuncPlain)
}

// convForParam is ConvertMaybe with the callee's definition attached to
// the error.
func convForParam(v *vm.VM, paramT *vm.Type, arg *vm.MetaArg, defLoc location.Loc) (vm.Function, error) {
	conv, err := ConvertMaybe(v, paramT, arg)
	if err != nil {
		if e, ok := spyerror.AsError(err); ok && e.Kind == spyerror.TypeError {
			e.Add(spyerror.LevelNote, "function defined here", defLoc)
		}
		return nil, err
	}
	return conv, nil
}

// opspecNullError reports "no implementation found". Single dispatch
// points at the receiver only; multi dispatch lists all operand types.
func opspecNullError(inArgs []*vm.MetaArg, dispatch DispatchKind, errmsg string) error {
	for i, arg := range inArgs {
		placeholder := fmt.Sprintf("{%d}", i)
		errmsg = strings.ReplaceAll(errmsg, placeholder, arg.StaticT.Fqn.HumanName())
	}
	err := spyerror.New(spyerror.TypeError, "%s", errmsg)
	if dispatch == DispatchSingle {
		target := inArgs[0]
		t := target.StaticT.Fqn.HumanName()
		if !target.Loc.IsZero() {
			err.Add(spyerror.LevelError, "this is `"+t+"`", target.Loc)
		}
		if target.Sym != nil {
			err.Add(spyerror.LevelNote, "`"+target.Sym.Name+"` defined here", target.Sym.Loc)
		}
	} else {
		for _, arg := range inArgs {
			t := arg.StaticT.Fqn.HumanName()
			err.Add(spyerror.LevelError, "this is `"+t+"`", arg.Loc)
		}
	}
	return err
}

func maybePlural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

func wrongArgcountError(got, exp int, args []*vm.MetaArg,
	defLoc, callLoc location.Loc) error {
	takes := maybePlural(exp, fmt.Sprintf("takes %d argument", exp),
		fmt.Sprintf("takes %d arguments", exp))
	supplied := maybePlural(got, "1 argument was supplied",
		fmt.Sprintf("%d arguments were supplied", got))
	err := spyerror.New(spyerror.TypeError, "this function %s but %s", takes, supplied)
	if !callLoc.IsZero() {
		if got < exp {
			diff := exp - got
			err.Add(spyerror.LevelError,
				fmt.Sprintf("%d %s missing", diff, maybePlural(diff, "argument", "arguments")),
				callLoc)
		} else {
			diff := got - exp
			loc := args[exp].Loc.WithColEnd(args[len(args)-1].Loc.ColEnd)
			err.Add(spyerror.LevelError,
				fmt.Sprintf("%d extra %s", diff, maybePlural(diff, "argument", "arguments")),
				loc)
		}
	}
	if !defLoc.IsZero() {
		err.Add(spyerror.LevelNote, "function defined here", defLoc)
	}
	return err
}
