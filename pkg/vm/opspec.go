package vm

// OpSpec is what a metafunction returns when asked "how do I implement
// this operation on these MetaArgs?".
//
// Variants:
//   - null: no implementation, the caller reports a type error
//   - const: the result is a compile-time constant
//   - simple: call Fn with the incoming MetaArgs verbatim
//   - args: call Fn with the substituted MetaArgs (possibly including
//     fresh Const MetaArgs not present in the input)
type OpSpec struct {
	fn       Function
	args     []*MetaArg
	constVal Object
	isConst  bool

	// DirectCall marks CALL dispatch, where the first input MetaArg is
	// the function itself; used only to improve diagnostics.
	DirectCall bool
}

// NullSpec is the "no implementation" OpSpec.
var NullSpec = &OpSpec{}

// NewOpSpec returns a simple OpSpec calling fn with the input MetaArgs.
func NewOpSpec(fn Function) *OpSpec {
	return &OpSpec{fn: fn}
}

// NewOpSpecArgs returns an OpSpec calling fn with the given MetaArgs.
func NewOpSpecArgs(fn Function, args []*MetaArg) *OpSpec {
	return &OpSpec{fn: fn, args: args}
}

// NewOpSpecConst returns an OpSpec whose result is a constant.
func NewOpSpecConst(w Object) *OpSpec {
	return &OpSpec{constVal: w, isConst: true}
}

// IsNull reports "no implementation".
func (s *OpSpec) IsNull() bool { return s.fn == nil && !s.isConst }

// IsConst reports a constant result.
func (s *OpSpec) IsConst() bool { return s.isConst }

// IsSimple reports verbatim argument passing.
func (s *OpSpec) IsSimple() bool { return s.fn != nil && s.args == nil }

// Func returns the implementation function; nil for null/const specs.
func (s *OpSpec) Func() Function { return s.fn }

// Args returns the substituted MetaArgs; nil for simple specs.
func (s *OpSpec) Args() []*MetaArg { return s.args }

// ConstVal returns the constant result of a const spec.
func (s *OpSpec) ConstVal() Object { return s.constVal }

// SetArgs overrides the substituted MetaArgs. None of the OPERATORs in
// pkg/vm/operator call it.
func (s *OpSpec) SetArgs(args []*MetaArg) { s.args = args }

func (s *OpSpec) DynType(v *VM) *Type { return B.ObjectT }

func (s *OpSpec) String() string {
	switch {
	case s.IsNull():
		return "<OpSpec null>"
	case s.isConst:
		return "<OpSpec const " + s.constVal.String() + ">"
	default:
		return "<OpSpec `" + s.fn.Fqn().String() + "`>"
	}
}
