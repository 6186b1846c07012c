// Package symtable defines the name-resolution records attached to every
// scope: which names a scope defines, their color, kind and storage, and
// how far up the closure chain referenced names live.
package symtable

import (
	"fmt"

	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
)

// Color marks when a value is known: blue at compile time, red at run
// time.
type Color string

const (
	Blue Color = "blue"
	Red  Color = "red"
)

// MaybeBlue returns Blue iff every given color is blue. This is the color
// propagation rule for pure operations.
func MaybeBlue(colors ...Color) Color {
	for _, c := range colors {
		if c != Blue {
			return Red
		}
	}
	return Blue
}

// VarKind distinguishes mutable variables from constants.
type VarKind string

const (
	KindVar   VarKind = "var"
	KindConst VarKind = "const"
)

// Storage selects how a name is materialized.
type Storage string

const (
	StorageDirect    Storage = "direct"
	StorageCell      Storage = "cell"
	StorageNameError Storage = "NameError"
)

// ImportRef references a name imported from another module.
type ImportRef struct {
	ModName string
	Attr    string // empty: the whole module
}

func (r ImportRef) String() string {
	if r.Attr == "" {
		return r.ModName
	}
	return r.ModName + "." + r.Attr
}

// Symbol is one name-table record.
//
// Level indicates in which scope the symbol resides: 0 means this scope
// (a local), 1 the most immediate outer scope, and so on. For a
// module-level funcdef there are three levels: locals (0), the module
// scope (1) and builtins (2).
type Symbol struct {
	Name    string
	Color   Color
	VarKind VarKind
	Storage Storage
	Level   int
	ImpRef  *ImportRef
	Fqn     fqn.FQN // non-zero for globals
	Loc     location.Loc
	TypeLoc location.Loc
}

// IsLocal reports whether the symbol is defined by this scope.
func (s *Symbol) IsLocal() bool { return s.Level == 0 }

// IsGlobal reports whether the symbol resolves through the VM's global
// table.
func (s *Symbol) IsGlobal() bool { return !s.Fqn.IsZero() }

// SymTable collects all the names used in a given scope: definitions
// (level 0) and references to outer scopes (level > 0). It also records
// the color of the frame it corresponds to; module and classdef frames
// are blue.
type SymTable struct {
	Name    string
	Color   Color
	symbols map[string]*Symbol
	order   []string
}

// New returns an empty symbol table.
func New(name string, color Color) *SymTable {
	return &SymTable{Name: name, Color: color, symbols: make(map[string]*Symbol)}
}

func (t *SymTable) String() string {
	return fmt.Sprintf("<SymTable %q>", t.Name)
}

// Add records a symbol; the name must not be present yet.
func (t *SymTable) Add(sym *Symbol) {
	if _, ok := t.symbols[sym.Name]; ok {
		panic(fmt.Sprintf("symtable: duplicate symbol %q", sym.Name))
	}
	t.symbols[sym.Name] = sym
	t.order = append(t.order, sym.Name)
}

// Lookup returns the symbol for name, or nil.
func (t *SymTable) Lookup(name string) *Symbol {
	return t.symbols[name]
}

// LookupDefinition returns the symbol only if this scope defines it.
func (t *SymTable) LookupDefinition(name string) *Symbol {
	sym := t.symbols[name]
	if sym != nil && sym.IsLocal() {
		return sym
	}
	return nil
}

// HasDefinition reports whether this scope defines name.
func (t *SymTable) HasDefinition(name string) bool {
	return t.LookupDefinition(name) != nil
}

// Names returns the symbol names in insertion order.
func (t *SymTable) Names() []string {
	return t.order
}
