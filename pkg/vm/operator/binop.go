package operator

import (
	"github.com/spylang/spy/pkg/vm"
)

// Metafunc is the signature of every OPERATOR: it receives the MetaArgs
// describing the operands and returns a typechecked OpImpl.
type Metafunc func(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error)

// dunderOpSpec resolves a dunder found in the receiver's type dict into
// an OpSpec: blue metafunctions are consulted with the MetaArgs, plain
// methods are called directly.
func dunderOpSpec(v *vm.VM, fn vm.Function, args []*vm.MetaArg) (*vm.OpSpec, error) {
	fi := fn.FuncType().FuncInfo
	if fi != nil && fi.Color == vm.Blue && fi.Kind == vm.FuncMetafunc {
		return v.FastMetaCall(fn, args)
	}
	return vm.NewOpSpecArgs(fn, args), nil
}

// binOp builds the Metafunc for one binary operator token: multimethod
// table first, dunder lookup second.
func binOp(tok, dunder, errmsg string) Metafunc {
	return func(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
		l, r := args[0], args[1]
		spec := std.mm.getBinaryOpSpec(tok, l, r)
		if spec == nil {
			if fn := l.StaticT.LookupFunc(dunder); fn != nil {
				var err error
				spec, err = dunderOpSpec(v, fn, args)
				if err != nil {
					return nil, err
				}
			} else {
				spec = vm.NullSpec
			}
		}
		return typecheckOpSpec(v, spec, args, DispatchMulti, errmsg)
	}
}

// canUseReferenceEq reports whether '==' may fall back to identity: the
// two types must have a common ancestor which is a reference type, and
// that ancestor must be neither 'object' nor 'dynamic'.
func canUseReferenceEq(v *vm.VM, ltype, rtype *vm.Type) bool {
	common := v.UnionType(ltype, rtype)
	return common != vm.B.ObjectT &&
		common != vm.B.DynamicT &&
		common.IsReferenceType()
}

// eqOp is binOp plus the reference-equality fallback.
func eqOp(tok, dunder, errmsg string, identity func() vm.Function) Metafunc {
	return func(v *vm.VM, args []*vm.MetaArg) (*vm.OpImpl, error) {
		l, r := args[0], args[1]
		spec := std.mm.getBinaryOpSpec(tok, l, r)
		if spec == nil {
			if fn := l.StaticT.LookupFunc(dunder); fn != nil {
				var err error
				spec, err = dunderOpSpec(v, fn, args)
				if err != nil {
					return nil, err
				}
			} else if canUseReferenceEq(v, l.StaticT, r.StaticT) {
				spec = vm.NewOpSpec(identity())
			} else {
				spec = vm.NullSpec
			}
		}
		return typecheckOpSpec(v, spec, args, DispatchMulti, errmsg)
	}
}

var (
	// ADD and friends are the generic operators dispatched by the
	// evaluator for every BinOp/CmpOp node.
	ADD      = binOp("+", "__add__", "cannot do `{0}` + `{1}`")
	SUB      = binOp("-", "__sub__", "cannot do `{0}` - `{1}`")
	MUL      = binOp("*", "__mul__", "cannot do `{0}` * `{1}`")
	DIV      = binOp("/", "__div__", "cannot do `{0}` / `{1}`")
	FLOORDIV = binOp("//", "__floordiv__", "cannot do `{0}` // `{1}`")
	MOD      = binOp("%", "__mod__", "cannot do `{0}` % `{1}`")
	LSHIFT   = binOp("<<", "__lshift__", "cannot do `{0}` << `{1}`")
	RSHIFT   = binOp(">>", "__rshift__", "cannot do `{0}` >> `{1}`")
	AND      = binOp("&", "__and__", "cannot do `{0}` & `{1}`")
	OR       = binOp("|", "__or__", "cannot do `{0}` | `{1}`")
	XOR      = binOp("^", "__xor__", "cannot do `{0}` ^ `{1}`")
	LT       = binOp("<", "__lt__", "cannot do `{0}` < `{1}`")
	LE       = binOp("<=", "__le__", "cannot do `{0}` <= `{1}`")
	GT       = binOp(">", "__gt__", "cannot do `{0}` > `{1}`")
	GE       = binOp(">=", "__ge__", "cannot do `{0}` >= `{1}`")

	EQ = eqOp("==", "__eq__", "cannot do `{0}` == `{1}`",
		func() vm.Function { return std.objectIs })
	NE = eqOp("!=", "__ne__", "cannot do `{0}` != `{1}`",
		func() vm.Function { return std.objectIsNot })
)

// FromToken returns the generic binary operator for the given token.
func FromToken(tok string) (Metafunc, bool) {
	switch tok {
	case "+":
		return ADD, true
	case "-":
		return SUB, true
	case "*":
		return MUL, true
	case "/":
		return DIV, true
	case "//":
		return FLOORDIV, true
	case "%":
		return MOD, true
	case "<<":
		return LSHIFT, true
	case ">>":
		return RSHIFT, true
	case "&":
		return AND, true
	case "|":
		return OR, true
	case "^":
		return XOR, true
	case "==":
		return EQ, true
	case "!=":
		return NE, true
	case "<":
		return LT, true
	case "<=":
		return LE, true
	case ">":
		return GT, true
	case ">=":
		return GE, true
	}
	return nil, false
}
