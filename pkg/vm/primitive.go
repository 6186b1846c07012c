package vm

import (
	"fmt"
	"strconv"

	"github.com/spylang/spy/pkg/location"
)

// Primitive values are small comparable Go values, so that identical
// blue constants deduplicate naturally in the VM's constant table.

// None is the unit value.
type None struct{}

func (None) DynType(v *VM) *Type { return B.NoneT }
func (None) String() string      { return "None" }

// Bool wraps a boolean.
type Bool bool

func (Bool) DynType(v *VM) *Type { return B.BoolT }
func (b Bool) String() string    { return strconv.FormatBool(bool(b)) }

// I8 is a signed 8-bit integer.
type I8 int8

func (I8) DynType(v *VM) *Type { return B.I8T }
func (i I8) String() string    { return strconv.FormatInt(int64(i), 10) }

// U8 is an unsigned 8-bit integer.
type U8 uint8

func (U8) DynType(v *VM) *Type { return B.U8T }
func (u U8) String() string    { return strconv.FormatUint(uint64(u), 10) }

// I32 is a signed 32-bit integer.
type I32 int32

func (I32) DynType(v *VM) *Type { return B.I32T }
func (i I32) String() string    { return strconv.FormatInt(int64(i), 10) }

// F64 is a 64-bit float.
type F64 float64

func (F64) DynType(v *VM) *Type { return B.F64T }
func (f F64) String() string    { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Str wraps a string.
type Str string

func (Str) DynType(v *VM) *Type { return B.StrT }
func (s Str) String() string    { return strconv.Quote(string(s)) }

// LocVal wraps a source location as a first-class value; LocConst nodes
// evaluate to it.
type LocVal location.Loc

func (LocVal) DynType(v *VM) *Type { return B.LocT }
func (l LocVal) String() string    { return location.Loc(l).String() }

// Tuple is an immutable sequence of values.
type Tuple struct {
	Items []Object
}

func (*Tuple) DynType(v *VM) *Type { return B.TupleT }
func (t *Tuple) String() string    { return reprString("tuple", len(t.Items)) }

// ListVal is an instance of a generic list[T] type.
type ListVal struct {
	TypeW *Type
	Items []Object
}

func (l *ListVal) DynType(v *VM) *Type { return l.TypeW }
func (l *ListVal) String() string {
	return fmt.Sprintf("<spy %s of %d>", l.TypeW.Fqn.HumanName(), len(l.Items))
}

// StructVal is an instance of a @struct type: fixed-layout fields read
// and written by name.
type StructVal struct {
	TypeW  *Type
	Values map[string]Object
}

func (s *StructVal) DynType(v *VM) *Type { return s.TypeW }
func (s *StructVal) String() string      { return reprString("struct", s.TypeW.Fqn) }

// LiftedVal is an instance of a @typelift type: a low-level payload
// wrapped with its own method table.
type LiftedVal struct {
	TypeW *Type
	LL    Object
}

func (l *LiftedVal) DynType(v *VM) *Type { return l.TypeW }
func (l *LiftedVal) String() string      { return reprString("typelift", l.TypeW.Fqn) }

// ExcValue is an exception instance.
type ExcValue struct {
	TypeW   *Type
	Message string
}

func (e *ExcValue) DynType(v *VM) *Type { return e.TypeW }
func (e *ExcValue) String() string {
	return fmt.Sprintf("%s(%q)", e.TypeW.Fqn.Attr(), e.Message)
}
