package vm

import (
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/spyerror"
)

// Builtins holds the primitive types shared by every VM. They are
// created once at package init and are immutable afterwards; all mutable
// compilation state lives on the VM.
type Builtins struct {
	ObjectT  *Type
	DynamicT *Type
	TypeT    *Type
	NoneT    *Type
	BoolT    *Type
	I8T      *Type
	U8T      *Type
	I32T     *Type
	F64T     *Type
	StrT     *Type
	TupleT   *Type
	ModuleT  *Type
	CellT    *Type
	MetaArgT *Type
	LocT     *Type

	ExceptionT   *Type
	StaticErrorT *Type
	excTypes     map[spyerror.Kind]*Type
	excOrder     []spyerror.Kind

	None Object
}

// B is the builtin type universe.
var B = newBuiltins()

func newBuiltins() *Builtins {
	bt := func(name string, repr ReprKind, base *Type) *Type {
		return NewType(fqn.New("builtins::"+name), repr, base)
	}
	b := &Builtins{}
	b.ObjectT = bt("object", ReprObject, nil)
	b.DynamicT = bt("dynamic", ReprDynamic, nil)
	b.TypeT = bt("type", ReprType, b.ObjectT)
	b.NoneT = bt("NoneType", ReprPrimitive, b.ObjectT)
	b.BoolT = bt("bool", ReprPrimitive, b.ObjectT)
	b.I8T = bt("i8", ReprPrimitive, b.ObjectT)
	b.U8T = bt("u8", ReprPrimitive, b.ObjectT)
	b.I32T = bt("i32", ReprPrimitive, b.ObjectT)
	b.F64T = bt("f64", ReprPrimitive, b.ObjectT)
	b.StrT = bt("str", ReprPrimitive, b.ObjectT)
	b.TupleT = bt("tuple", ReprTuple, b.ObjectT)
	b.ModuleT = bt("module", ReprModule, b.ObjectT)
	b.CellT = bt("Cell", ReprCell, b.ObjectT)
	b.MetaArgT = bt("MetaArg", ReprMetaArg, b.ObjectT)
	b.LocT = bt("Loc", ReprLoc, b.ObjectT)

	b.ExceptionT = bt("Exception", ReprException, b.ObjectT)
	b.ExceptionT.SetReference()
	b.StaticErrorT = bt("StaticError", ReprException, b.ExceptionT)
	b.excTypes = make(map[spyerror.Kind]*Type)
	static := []spyerror.Kind{
		spyerror.TypeError, spyerror.ScopeError, spyerror.NameError,
		spyerror.ParseError, spyerror.ImportError,
	}
	dynamic := []spyerror.Kind{
		spyerror.ValueError, spyerror.IndexError, spyerror.ZeroDivisionError,
		spyerror.PanicError, spyerror.AssertionError, spyerror.KeyError,
		spyerror.WIP,
	}
	for _, k := range static {
		t := bt(string(k), ReprException, b.StaticErrorT)
		t.SetReference()
		b.excTypes[k] = t
		b.excOrder = append(b.excOrder, k)
	}
	for _, k := range dynamic {
		t := bt(string(k), ReprException, b.ExceptionT)
		t.SetReference()
		b.excTypes[k] = t
		b.excOrder = append(b.excOrder, k)
	}
	b.excTypes[spyerror.Exception] = b.ExceptionT

	b.None = None{}
	return b
}

// ExcType returns the builtin exception type for the given kind.
func (b *Builtins) ExcType(kind spyerror.Kind) *Type {
	t, ok := b.excTypes[kind]
	if !ok {
		return b.ExceptionT
	}
	return t
}

// ExcKindOf returns the error kind of an exception type.
func (b *Builtins) ExcKindOf(t *Type) spyerror.Kind {
	for k, et := range b.excTypes {
		if et == t {
			return k
		}
	}
	return spyerror.Exception
}

// allTypes returns every builtin type for global-table registration.
func (b *Builtins) allTypes() []*Type {
	out := []*Type{
		b.ObjectT, b.DynamicT, b.TypeT, b.NoneT, b.BoolT, b.I8T, b.U8T,
		b.I32T, b.F64T, b.StrT, b.TupleT, b.ModuleT, b.CellT, b.MetaArgT,
		b.LocT, b.ExceptionT, b.StaticErrorT,
	}
	for _, k := range b.excOrder {
		out = append(out, b.excTypes[k])
	}
	return out
}
