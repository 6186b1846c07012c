package operator

import (
	"math"
	"strings"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// std holds the concrete builtin implementations and the multimethod
// tables over them. It is built once at package init and is immutable
// afterwards; Install registers its functions into a VM's global table.
var std = newStdOps()

type stdOps struct {
	mm      *multiMethodTable
	unaryMM *multiMethodTable
	all     []*vm.BuiltinFunc

	objectIs    *vm.BuiltinFunc
	objectIsNot *vm.BuiltinFunc
	raiseFn     *vm.BuiltinFunc
	dynamicCall *vm.BuiltinFunc

	convs map[[2]*vm.Type]*vm.BuiltinFunc
}

func (s *stdOps) mkFunc(name string, params []*vm.Type, res *vm.Type, pure bool,
	fn func(v *vm.VM, args []vm.Object) (vm.Object, error)) *vm.BuiltinFunc {
	fps := make([]vm.FuncParam, len(params))
	for i, p := range params {
		fps[i] = vm.FuncParam{T: p, Kind: "simple"}
	}
	ft := vm.NewFuncType(fps, res, vm.Red, vm.FuncPlain)
	bf := vm.NewBuiltinFunc(fqn.New("operator::"+name), ft, pure, fn)
	s.all = append(s.all, bf)
	return bf
}

func (s *stdOps) regConv(from, to *vm.Type, name string,
	fn func(v *vm.VM, args []vm.Object) (vm.Object, error)) {
	bf := s.mkFunc(name, []*vm.Type{from}, to, true, fn)
	s.convs[[2]*vm.Type{from, to}] = bf
}

var binTokens = []string{"+", "-", "*", "/", "//", "%", "<<", ">>", "&", "|", "^"}
var cmpTokens = []string{"==", "!=", "<", "<=", ">", ">="}

func opName(tok string) string {
	names := map[string]string{
		"+": "add", "-": "sub", "*": "mul", "/": "div", "//": "floordiv",
		"%": "mod", "<<": "lshift", ">>": "rshift", "&": "and", "|": "or",
		"^": "xor", "==": "eq", "!=": "ne", "<": "lt", "<=": "le",
		">": "gt", ">=": "ge",
	}
	return names[tok]
}

func newStdOps() *stdOps {
	s := &stdOps{
		mm:      newMultiMethodTable(),
		unaryMM: newMultiMethodTable(),
		convs:   make(map[[2]*vm.Type]*vm.BuiltinFunc),
	}
	b := vm.B

	s.regIntOps("i8", b.I8T,
		func(w vm.Object) int64 { return int64(w.(vm.I8)) },
		func(x int64) vm.Object { return vm.I8(int8(x)) })
	s.regIntOps("u8", b.U8T,
		func(w vm.Object) int64 { return int64(w.(vm.U8)) },
		func(x int64) vm.Object { return vm.U8(uint8(x)) })
	s.regIntOps("i32", b.I32T,
		func(w vm.Object) int64 { return int64(w.(vm.I32)) },
		func(x int64) vm.Object { return vm.I32(int32(x)) })
	s.regF64Ops()
	s.regStrOps()
	s.regBoolOps()
	s.regDynamicOps()
	s.regUnaryOps()
	s.regConvs()
	s.regObjectOps()
	s.regRaise()
	return s
}

// regIntOps registers the full integer family for one type. The mixed
// int/f64 rows are registered by regF64Ops, which reuses the f64
// implementations (the typechecker inserts the widening conversion).
func (s *stdOps) regIntOps(tname string, t *vm.Type,
	toI64 func(vm.Object) int64, fromI64 func(int64) vm.Object) {
	for _, tok := range binTokens {
		tok := tok
		impl := s.mkFunc(tname+"_"+opName(tok), []*vm.Type{t, t}, t, true,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				l, r := toI64(args[0]), toI64(args[1])
				res, err := intArith(tok, l, r)
				if err != nil {
					return nil, err
				}
				return fromI64(res), nil
			})
		s.mm.register(tok, t, t, impl)
	}
	for _, tok := range cmpTokens {
		tok := tok
		impl := s.mkFunc(tname+"_"+opName(tok), []*vm.Type{t, t}, vm.B.BoolT, true,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				return vm.Bool(intCmp(tok, toI64(args[0]), toI64(args[1]))), nil
			})
		s.mm.register(tok, t, t, impl)
	}
}

func intArith(tok string, l, r int64) (int64, error) {
	switch tok {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, spyerror.New(spyerror.ZeroDivisionError, "division by zero")
		}
		return l / r, nil
	case "//":
		if r == 0 {
			return 0, spyerror.New(spyerror.ZeroDivisionError, "division by zero")
		}
		q := l / r
		if (l%r != 0) && ((l < 0) != (r < 0)) {
			q--
		}
		return q, nil
	case "%":
		if r == 0 {
			return 0, spyerror.New(spyerror.ZeroDivisionError, "modulo by zero")
		}
		m := l % r
		if m != 0 && ((l < 0) != (r < 0)) {
			m += r
		}
		return m, nil
	case "<<":
		return l << uint64(r), nil
	case ">>":
		return l >> uint64(r), nil
	case "&":
		return l & r, nil
	case "|":
		return l | r, nil
	case "^":
		return l ^ r, nil
	}
	panic("operator: bad int token " + tok)
}

func intCmp(tok string, l, r int64) bool {
	switch tok {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	case ">=":
		return l >= r
	}
	panic("operator: bad cmp token " + tok)
}

func (s *stdOps) regF64Ops() {
	b := vm.B
	f64arith := []string{"+", "-", "*", "/", "//"}
	impls := make(map[string]*vm.BuiltinFunc)
	for _, tok := range f64arith {
		tok := tok
		impl := s.mkFunc("f64_"+opName(tok), []*vm.Type{b.F64T, b.F64T}, b.F64T, true,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				l := float64(args[0].(vm.F64))
				r := float64(args[1].(vm.F64))
				switch tok {
				case "+":
					return vm.F64(l + r), nil
				case "-":
					return vm.F64(l - r), nil
				case "*":
					return vm.F64(l * r), nil
				case "/":
					if r == 0 {
						return nil, spyerror.New(spyerror.ZeroDivisionError, "division by zero")
					}
					return vm.F64(l / r), nil
				default: // //
					if r == 0 {
						return nil, spyerror.New(spyerror.ZeroDivisionError, "division by zero")
					}
					return vm.F64(math.Floor(l / r)), nil
				}
			})
		s.mm.register(tok, b.F64T, b.F64T, impl)
		impls[tok] = impl
	}
	for _, tok := range cmpTokens {
		tok := tok
		impl := s.mkFunc("f64_"+opName(tok), []*vm.Type{b.F64T, b.F64T}, b.BoolT, true,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				l := float64(args[0].(vm.F64))
				r := float64(args[1].(vm.F64))
				var res bool
				switch tok {
				case "==":
					res = l == r
				case "!=":
					res = l != r
				case "<":
					res = l < r
				case "<=":
					res = l <= r
				case ">":
					res = l > r
				default:
					res = l >= r
				}
				return vm.Bool(res), nil
			})
		s.mm.register(tok, b.F64T, b.F64T, impl)
		impls[tok] = impl
	}
	// mixed int/f64 rows: the typechecker widens the int side.
	mixed := []string{"+", "-", "*", "/", "==", "!=", "<", "<=", ">", ">="}
	for _, intT := range []*vm.Type{b.I8T, b.U8T, b.I32T} {
		for _, tok := range mixed {
			s.mm.register(tok, b.F64T, intT, impls[tok])
			s.mm.register(tok, intT, b.F64T, impls[tok])
		}
	}
}

func (s *stdOps) regStrOps() {
	b := vm.B
	add := s.mkFunc("str_add", []*vm.Type{b.StrT, b.StrT}, b.StrT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return args[0].(vm.Str) + args[1].(vm.Str), nil
		})
	mul := s.mkFunc("str_mul", []*vm.Type{b.StrT, b.I32T}, b.StrT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			n := int(args[1].(vm.I32))
			if n < 0 {
				n = 0
			}
			return vm.Str(strings.Repeat(string(args[0].(vm.Str)), n)), nil
		})
	eq := s.mkFunc("str_eq", []*vm.Type{b.StrT, b.StrT}, b.BoolT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return vm.Bool(args[0].(vm.Str) == args[1].(vm.Str)), nil
		})
	ne := s.mkFunc("str_ne", []*vm.Type{b.StrT, b.StrT}, b.BoolT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return vm.Bool(args[0].(vm.Str) != args[1].(vm.Str)), nil
		})
	s.mm.register("+", b.StrT, b.StrT, add)
	s.mm.register("*", b.StrT, b.I32T, mul)
	s.mm.register("==", b.StrT, b.StrT, eq)
	s.mm.register("!=", b.StrT, b.StrT, ne)
}

func (s *stdOps) regBoolOps() {
	b := vm.B
	toks := []string{"==", "!=", "&", "|", "^", "<", "<=", ">", ">="}
	for _, tok := range toks {
		tok := tok
		res := b.BoolT
		impl := s.mkFunc("bool_"+opName(tok), []*vm.Type{b.BoolT, b.BoolT}, res, true,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				l := bool(args[0].(vm.Bool))
				r := bool(args[1].(vm.Bool))
				var out bool
				switch tok {
				case "==":
					out = l == r
				case "!=":
					out = l != r
				case "&":
					out = l && r
				case "|":
					out = l || r
				case "^":
					out = l != r
				case "<":
					out = !l && r
				case "<=":
					out = !l || r
				case ">":
					out = l && !r
				default:
					out = l || !r
				}
				return vm.Bool(out), nil
			})
		s.mm.register(tok, b.BoolT, b.BoolT, impl)
	}
}

// regDynamicOps registers the partial rows for dynamic: any opposite
// operand is accepted and dispatch happens at run time.
func (s *stdOps) regDynamicOps() {
	b := vm.B
	toks := []string{"+", "*", "==", "!=", "<", "<=", ">", ">="}
	for _, tok := range toks {
		tok := tok
		impl := s.mkFunc("dynamic_"+opName(tok), []*vm.Type{b.DynamicT, b.DynamicT}, b.DynamicT, false,
			func(v *vm.VM, args []vm.Object) (vm.Object, error) {
				return dynamicBinOp(v, tok, args[0], args[1])
			})
		s.mm.registerPartial(tok, b.DynamicT, impl)
		s.mm.register(tok, nil, b.DynamicT, impl)
	}
	s.dynamicCall = s.mkFunc("dynamic_call", []*vm.Type{b.DynamicT}, b.DynamicT, false,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			fn, ok := args[0].(vm.Function)
			if !ok {
				return nil, spyerror.New(spyerror.TypeError,
					"cannot call objects of type `%s`", args[0].DynType(v).Fqn.HumanName())
			}
			return v.FastCall(fn, args[1:])
		})
	s.dynamicCall.FuncType().FuncInfo.Variadic = true
}

func dynamicBinOp(v *vm.VM, tok string, l, r vm.Object) (vm.Object, error) {
	li, lok := l.(vm.I32)
	ri, rok := r.(vm.I32)
	if lok && rok {
		if isCmpToken(tok) {
			return vm.Bool(intCmp(tok, int64(li), int64(ri))), nil
		}
		res, err := intArith(tok, int64(li), int64(ri))
		return vm.I32(int32(res)), err
	}
	ls, lok2 := l.(vm.Str)
	rs, rok2 := r.(vm.Str)
	if lok2 && rok2 {
		switch tok {
		case "+":
			return ls + rs, nil
		case "==":
			return vm.Bool(ls == rs), nil
		case "!=":
			return vm.Bool(ls != rs), nil
		}
	}
	return nil, spyerror.New(spyerror.PanicError,
		"unsupported operand types for dynamic `%s`: `%s` and `%s`",
		tok, l.DynType(v).Fqn.HumanName(), r.DynType(v).Fqn.HumanName())
}

func isCmpToken(tok string) bool {
	for _, t := range cmpTokens {
		if t == tok {
			return true
		}
	}
	return false
}

func (s *stdOps) regUnaryOps() {
	b := vm.B
	negI8 := s.mkFunc("i8_neg", []*vm.Type{b.I8T}, b.I8T, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return -args[0].(vm.I8), nil
		})
	negI32 := s.mkFunc("i32_neg", []*vm.Type{b.I32T}, b.I32T, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return -args[0].(vm.I32), nil
		})
	negF64 := s.mkFunc("f64_neg", []*vm.Type{b.F64T}, b.F64T, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return -args[0].(vm.F64), nil
		})
	notBool := s.mkFunc("bool_not", []*vm.Type{b.BoolT}, b.BoolT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return !args[0].(vm.Bool), nil
		})
	s.unaryMM.registerPartial("-", b.I8T, negI8)
	s.unaryMM.registerPartial("-", b.I32T, negI32)
	s.unaryMM.registerPartial("-", b.F64T, negF64)
	s.unaryMM.registerPartial("not", b.BoolT, notBool)
}

func (s *stdOps) regConvs() {
	b := vm.B
	s.regConv(b.I8T, b.I32T, "i8_to_i32", func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return vm.I32(args[0].(vm.I8)), nil
	})
	s.regConv(b.U8T, b.I32T, "u8_to_i32", func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return vm.I32(args[0].(vm.U8)), nil
	})
	s.regConv(b.I8T, b.F64T, "i8_to_f64", func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return vm.F64(args[0].(vm.I8)), nil
	})
	s.regConv(b.U8T, b.F64T, "u8_to_f64", func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return vm.F64(args[0].(vm.U8)), nil
	})
	s.regConv(b.I32T, b.F64T, "i32_to_f64", func(v *vm.VM, args []vm.Object) (vm.Object, error) {
		return vm.F64(args[0].(vm.I32)), nil
	})
}

func (s *stdOps) regObjectOps() {
	b := vm.B
	s.objectIs = s.mkFunc("object_is", []*vm.Type{b.ObjectT, b.ObjectT}, b.BoolT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return vm.Bool(args[0] == args[1]), nil
		})
	s.objectIsNot = s.mkFunc("object_isnot", []*vm.Type{b.ObjectT, b.ObjectT}, b.BoolT, true,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			return vm.Bool(args[0] != args[1]), nil
		})
}

// regRaise registers the internal raise builtin: every raise site in
// residual code becomes a call to it, so location metadata survives into
// the emitted program.
func (s *stdOps) regRaise() {
	b := vm.B
	s.raiseFn = s.mkFunc("raise", []*vm.Type{b.StrT, b.StrT, b.StrT, b.I32T}, b.NoneT, false,
		func(v *vm.VM, args []vm.Object) (vm.Object, error) {
			etype := v.UnwrapStr(args[0])
			msg := v.UnwrapStr(args[1])
			fname := v.UnwrapStr(args[2])
			lineno := int(args[3].(vm.I32))
			loc := location.Loc{Filename: fname, LineStart: lineno, LineEnd: lineno, ColStart: 0, ColEnd: -1}
			return nil, spyerror.Simple(spyerror.Kind(etype), msg, "", loc)
		})
}

// Install registers the operator module and all its functions into the
// VM's global table.
func Install(v *vm.VM) {
	if v.Modules.Has("operator") {
		return
	}
	mod := vm.NewModule("operator", "")
	v.RegisterModule(mod)
	for _, bf := range std.all {
		v.AddGlobal(bf.Fqn(), bf)
	}
}
