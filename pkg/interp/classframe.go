package interp

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/vm"
)

// ClassFrame executes a classdef body: field declarations first, then
// method definitions; the collected ClassBody finalizes the type.
type ClassFrame struct {
	*Frame
	ClassDef *ast.ClassDef
}

// NewClassFrame prepares the frame for one classdef.
func NewClassFrame(v *vm.VM, classdef *ast.ClassDef, ns fqn.FQN, closure *vm.Closure) *ClassFrame {
	f := NewFrame(v, ns, classdef.Symtable, closure, "classframe")
	return &ClassFrame{Frame: f, ClassDef: classdef}
}

// Run executes the body and returns the collected fields and dict.
func (f *ClassFrame) Run() (*vm.ClassBody, error) {
	body, err := f.run()
	if err != nil {
		f.pushFrameInfo(err, f.ClassDef.Loc)
	}
	return body, err
}

func (f *ClassFrame) run() (*vm.ClassBody, error) {
	if err := f.DeclareLocal("@if", vm.B.BoolT, location.Fake()); err != nil {
		return nil, err
	}
	body := vm.NewClassBody()

	for _, vardef := range f.ClassDef.Fields {
		if err := f.ExecVarDef(vardef); err != nil {
			return nil, err
		}
		t := f.localsTypes[vardef.Name]
		body.Fields.Set(vardef.Name, t)
	}

	for _, stmt := range f.ClassDef.Body {
		if _, err := f.ExecStmt(stmt); err != nil {
			return nil, err
		}
	}

	// collect methods and other bindings in declaration order
	for _, stmt := range f.ClassDef.Body {
		var name string
		switch stmt := stmt.(type) {
		case *ast.FuncDef:
			name = stmt.Name
		case *ast.Assign:
			name = stmt.Target.Value
		case *ast.VarDef:
			name = stmt.Name
		default:
			continue
		}
		if w, ok := f.locals[name]; ok {
			if _, isField := body.Fields.Get(name); !isField {
				body.Dict.Set(name, w)
			}
		}
	}
	return body, nil
}
