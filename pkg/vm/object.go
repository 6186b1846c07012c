// Package vm implements the object model and registry of the SPy
// compiler core: the universal Object value, first-class types, the
// function hierarchy and the MetaArg/OpSpec/OpImpl dispatch currency.
//
// A VM owns every value created during a compilation and keeps them
// alive for its whole lifetime; there is no reclamation of globals.
package vm

import "fmt"

// Object is the universal value. Every value can report its dynamic Type
// and render itself for diagnostics.
type Object interface {
	DynType(v *VM) *Type
	String() string
}

// reprString is shared by values whose rendering is a simple tag.
func reprString(kind string, payload interface{}) string {
	return fmt.Sprintf("<spy %s %v>", kind, payload)
}
