package vm

import (
	"github.com/spylang/spy/pkg/fqn"
)

// Module is a blue namespace: an ordered table of named objects.
type Module struct {
	Name     string
	Filepath string
	Items    *OrderedMap[Object]
}

// NewModule returns an empty module.
func NewModule(name, filepath string) *Module {
	return &Module{Name: name, Filepath: filepath, Items: NewOrderedMap[Object]()}
}

// Fqn returns the module's own FQN.
func (m *Module) Fqn() fqn.FQN {
	return fqn.FQN{Parts: []fqn.NSPart{{Name: m.Name}}}
}

// GetAttrMaybe returns the named item, or nil.
func (m *Module) GetAttrMaybe(name string) Object {
	w, _ := m.Items.Get(name)
	return w
}

func (m *Module) DynType(v *VM) *Type { return B.ModuleT }
func (m *Module) String() string      { return reprString("module", m.Name) }

// Cell is an indirection for mutable module-level state. A global
// 'var x: i32 = 0' resolves to a Cell so that assignments remain
// possible after redshift, which freezes all blue globals.
type Cell struct {
	Fqn fqn.FQN
	val Object
}

// NewCell wraps an initial value.
func NewCell(f fqn.FQN, val Object) *Cell {
	return &Cell{Fqn: f, val: val}
}

// Get returns the current value.
func (c *Cell) Get() Object { return c.val }

// Set replaces the current value.
func (c *Cell) Set(val Object) { c.val = val }

func (c *Cell) DynType(v *VM) *Type { return B.CellT }
func (c *Cell) String() string      { return reprString("cell", c.Fqn) }
