package vm

import (
	"strings"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/symtable"
)

// ReprKind discriminates the in-memory representation of a type's
// instances.
type ReprKind string

const (
	ReprPrimitive ReprKind = "primitive"
	ReprObject    ReprKind = "object"
	ReprDynamic   ReprKind = "dynamic"
	ReprType      ReprKind = "type"
	ReprStruct    ReprKind = "struct"
	ReprTypelift  ReprKind = "typelift"
	ReprFunc      ReprKind = "func"
	ReprException ReprKind = "exception"
	ReprList      ReprKind = "list"
	ReprTuple     ReprKind = "tuple"
	ReprModule    ReprKind = "module"
	ReprCell      ReprKind = "cell"
	ReprMetaArg   ReprKind = "metaarg"
	ReprLoc       ReprKind = "loc"
)

// Color re-exported for convenience; blue is compile-time, red run-time.
type Color = symtable.Color

// Color constants re-exported from symtable.
const (
	Blue = symtable.Blue
	Red  = symtable.Red
)

// FuncKind discriminates how a function participates in dispatch.
type FuncKind string

const (
	FuncPlain    FuncKind = "plain"
	FuncMetafunc FuncKind = "metafunc"
	FuncGeneric  FuncKind = "generic"
)

// FuncParam is one formal parameter of a FuncType.
type FuncParam struct {
	T    *Type
	Kind string // "simple"
}

// FuncTypeInfo is attached to Types that describe functions. A FuncType
// is itself a Type; the info carries the signature.
type FuncTypeInfo struct {
	Params   []FuncParam
	ResType  *Type
	Color    Color
	Kind     FuncKind
	Variadic bool
}

// ArgcountOK reports whether a call with n arguments matches the
// signature's arity.
func (fi *FuncTypeInfo) ArgcountOK(n int) bool {
	if fi.Variadic {
		return n >= len(fi.Params)
	}
	return n == len(fi.Params)
}

// Type is a first-class Object describing a kind of value. Types are
// created by the ModFrame (top-level classes), by blue functions
// (generics) or at VM bootstrap (builtins); they live forever in the
// VM's global table.
type Type struct {
	Fqn  fqn.FQN
	Repr ReprKind

	// Base is the single ancestor; the lattice has no multiple
	// inheritance. nil only for 'object' and 'dynamic'.
	Base *Type

	// Dict holds methods and blue metafunction hooks keyed by name.
	Dict *OrderedMap[Object]

	// Fields of a struct/typelift body, in declaration order.
	Fields *OrderedMap[*Type]

	// Lifted is the low-level payload type of a @typelift class.
	Lifted *Type

	// FuncInfo is non-nil iff this Type describes functions.
	FuncInfo *FuncTypeInfo

	// ItemType of a generic list instantiation.
	ItemType *Type

	defined   bool
	reference bool
}

// NewType creates a defined type with an empty dict.
func NewType(f fqn.FQN, repr ReprKind, base *Type) *Type {
	return &Type{
		Fqn:     f,
		Repr:    repr,
		Base:    base,
		Dict:    NewOrderedMap[Object](),
		Fields:  NewOrderedMap[*Type](),
		defined: true,
	}
}

// Declare creates a forward-declared type: it has a name but no body
// yet. Field or method access on it is illegal until Define is called.
func Declare(f fqn.FQN, repr ReprKind, base *Type) *Type {
	t := NewType(f, repr, base)
	t.defined = false
	return t
}

// IsDefined reports whether the type's body has been executed.
func (t *Type) IsDefined() bool { return t.defined }

// IsReferenceType reports whether instances are handled by reference.
func (t *Type) IsReferenceType() bool { return t.reference }

// SetReference marks the type as a reference type.
func (t *Type) SetReference() { t.reference = true }

// ClassBody is the result of executing a classdef body.
type ClassBody struct {
	Fields *OrderedMap[*Type]
	Dict   *OrderedMap[Object]
}

// NewClassBody returns an empty class body.
func NewClassBody() *ClassBody {
	return &ClassBody{Fields: NewOrderedMap[*Type](), Dict: NewOrderedMap[Object]()}
}

// Define finalizes a forward-declared type from its executed body.
func (t *Type) Define(body *ClassBody) {
	if t.defined {
		panic("vm: type defined twice: " + t.Fqn.String())
	}
	t.Fields = body.Fields
	t.Dict = body.Dict
	if t.Repr == ReprTypelift {
		ll, ok := body.Fields.Get("__ll__")
		if !ok {
			panic("vm: typelift without __ll__ field: " + t.Fqn.String())
		}
		t.Lifted = ll
	}
	t.defined = true
}

// LookupFunc finds a function of either color in the type's dict. Lookup
// is linear within the type and its base chain; dispatch to dunders is
// by structural check, not inheritance of a fixed interface.
func (t *Type) LookupFunc(name string) Function {
	for cur := t; cur != nil; cur = cur.Base {
		if w, ok := cur.Dict.Get(name); ok {
			if fn, ok := w.(Function); ok {
				return fn
			}
		}
	}
	return nil
}

// LookupBlueFunc finds an UPPERCASE metafunction hook (e.g. __GETITEM__):
// a blue function receiving MetaArgs and returning an OpSpec.
func (t *Type) LookupBlueFunc(name string) Function {
	fn := t.LookupFunc(name)
	if fn == nil {
		return nil
	}
	fi := fn.FuncType().FuncInfo
	if fi == nil || fi.Color != symtable.Blue {
		return nil
	}
	return fn
}

// IsExceptionType reports whether t descends from Exception.
func (t *Type) IsExceptionType() bool {
	for cur := t; cur != nil; cur = cur.Base {
		if cur.Repr == ReprException {
			return true
		}
	}
	return false
}

// DynType implements Object: the dynamic type of a type is 'type'.
func (t *Type) DynType(v *VM) *Type { return B.TypeT }

func (t *Type) String() string {
	if t.FuncInfo != nil {
		return "<spy type " + t.Signature() + ">"
	}
	return reprString("type", t.Fqn)
}

// Signature renders a functype for diagnostics, e.g. 'def(i32, i32) -> i32'.
func (t *Type) Signature() string {
	fi := t.FuncInfo
	if fi == nil {
		return t.Fqn.HumanName()
	}
	var sb strings.Builder
	if fi.Color == symtable.Blue {
		sb.WriteString("@blue ")
	}
	sb.WriteString("def(")
	for i, p := range fi.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.T.Fqn.HumanName())
	}
	if fi.Variadic {
		if len(fi.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(") -> ")
	sb.WriteString(fi.ResType.Fqn.HumanName())
	return sb.String()
}

// NewFuncType builds the Type describing functions with the given
// signature.
func NewFuncType(params []FuncParam, res *Type, color Color, kind FuncKind) *Type {
	t := NewType(funcTypeFQN(params, res), ReprFunc, B.ObjectT)
	t.FuncInfo = &FuncTypeInfo{Params: params, ResType: res, Color: color, Kind: kind}
	return t
}

// NewFuncTypeVariadic is NewFuncType for host metafunctions accepting a
// variable number of trailing MetaArgs.
func NewFuncTypeVariadic(params []FuncParam, res *Type, color Color, kind FuncKind) *Type {
	t := NewFuncType(params, res, color, kind)
	t.FuncInfo.Variadic = true
	return t
}

func funcTypeFQN(params []FuncParam, res *Type) fqn.FQN {
	quals := make([]fqn.FQN, 0, len(params)+1)
	for _, p := range params {
		quals = append(quals, p.T.Fqn)
	}
	quals = append(quals, res.Fqn)
	return fqn.New("builtins::def").WithQualifiers(quals)
}

// FuncTypesEqual compares two functypes structurally; all other type
// pairs compare by identity.
func FuncTypesEqual(a, b *Type) bool {
	fa, fb := a.FuncInfo, b.FuncInfo
	if fa == nil || fb == nil {
		return a == b
	}
	if len(fa.Params) != len(fb.Params) || fa.ResType != fb.ResType ||
		fa.Color != fb.Color || fa.Kind != fb.Kind || fa.Variadic != fb.Variadic {
		return false
	}
	for i := range fa.Params {
		if fa.Params[i].T != fb.Params[i].T {
			return false
		}
	}
	return true
}
