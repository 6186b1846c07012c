package vm

import (
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/symtable"
)

// MetaArg is the compile-time description of one argument position: its
// color, the static type the expression is proven to have, the value if
// it is known, and where it comes from. MetaArgs are the currency of
// dispatch: every operator takes MetaArgs, not raw values.
//
// Val is non-nil iff the color is blue, except inside a redshift frame
// where red expressions intentionally carry no value.
type MetaArg struct {
	Color   Color
	StaticT *Type
	Val     Object
	Loc     location.Loc
	Sym     *symtable.Symbol
}

// NewMetaArg builds a MetaArg.
func NewMetaArg(color Color, staticT *Type, val Object, loc location.Loc) *MetaArg {
	return &MetaArg{Color: color, StaticT: staticT, Val: val, Loc: loc}
}

// MetaArgFromObject wraps a concrete value as a blue MetaArg with its
// dynamic type.
func MetaArgFromObject(v *VM, w Object) *MetaArg {
	return &MetaArg{Color: Blue, StaticT: w.DynType(v), Val: w, Loc: location.Builtin("prebuilt")}
}

// IsBlue reports whether the argument is known at compile time.
func (m *MetaArg) IsBlue() bool { return m.Color == Blue }

// BlueVal returns the compile-time value; the argument must be blue.
func (m *MetaArg) BlueVal() Object {
	if !m.IsBlue() {
		panic("vm: BlueVal on a red MetaArg")
	}
	return m.Val
}

// BlueUnwrapStr returns the value as a Go string if the argument is a
// blue str, else "".
func (m *MetaArg) BlueUnwrapStr() (string, bool) {
	if m.IsBlue() && m.StaticT == B.StrT {
		if s, ok := m.Val.(Str); ok {
			return string(s), true
		}
	}
	return "", false
}

func (m *MetaArg) DynType(v *VM) *Type { return B.MetaArgT }

func (m *MetaArg) String() string {
	if m.IsBlue() {
		return "<MetaArg blue " + m.StaticT.Fqn.HumanName() + ">"
	}
	return "<MetaArg red " + m.StaticT.Fqn.HumanName() + ">"
}
