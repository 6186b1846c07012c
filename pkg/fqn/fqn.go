// Package fqn implements fully-qualified names.
//
// A FQN uniquely identifies a named object inside the current VM. The
// wire format is 'modname::part1[qual1, qual2]::part2', where 'modname'
// can be composed of multiple parts separated by dots (e.g. 'a.b.c') and
// qualifiers are themselves FQNs, nested to arbitrary depth.
package fqn

import (
	"strconv"
	"strings"
)

// NSPart is one segment of a FQN: a name plus optional qualifiers.
// Qualifiers encode generic instantiations, e.g. list[i32].
type NSPart struct {
	Name       string
	Qualifiers []FQN
}

// FQN is an ordered sequence of NSParts. The first part is the module
// name. Suffix is a disambiguation counter minted by the VM: two objects
// that would otherwise share the same name get suffixes #1, #2, ...
// Suffix 0 means "no suffix".
type FQN struct {
	Parts  []NSPart
	Suffix int
}

// New builds a FQN from a wire-format string. It panics on malformed
// input, so it must be used only with trusted literals; use Parse for
// anything user-provided.
func New(s string) FQN {
	f, err := Parse(s)
	if err != nil {
		panic("fqn.New: " + err.Error())
	}
	return f
}

// IsZero reports whether f is the zero FQN.
func (f FQN) IsZero() bool {
	return len(f.Parts) == 0
}

// ModName returns the module part of the FQN.
func (f FQN) ModName() string {
	if len(f.Parts) == 0 {
		return ""
	}
	return f.Parts[0].Name
}

// Attr returns the name of the last part.
func (f FQN) Attr() string {
	if len(f.Parts) == 0 {
		return ""
	}
	return f.Parts[len(f.Parts)-1].Name
}

// Join returns a new FQN with one more unqualified part appended.
func (f FQN) Join(name string) FQN {
	return f.JoinQual(name, nil)
}

// JoinQual returns a new FQN with one more part appended. The receiver's
// suffix is dropped: suffixes apply only to the FQN as a whole.
func (f FQN) JoinQual(name string, quals []FQN) FQN {
	parts := make([]NSPart, len(f.Parts), len(f.Parts)+1)
	copy(parts, f.Parts)
	parts = append(parts, NSPart{Name: name, Qualifiers: quals})
	return FQN{Parts: parts}
}

// WithQualifiers returns a copy of f whose last part carries the given
// qualifiers. Used to synthesize namespaces for blue calls, e.g.
// make_Point(i32) -> make_Point[i32].
func (f FQN) WithQualifiers(quals []FQN) FQN {
	parts := make([]NSPart, len(f.Parts))
	copy(parts, f.Parts)
	last := &parts[len(parts)-1]
	last.Qualifiers = quals
	return FQN{Parts: parts, Suffix: f.Suffix}
}

// WithSuffix returns a copy of f with the given disambiguation suffix.
func (f FQN) WithSuffix(n int) FQN {
	g := f
	g.Suffix = n
	return g
}

// Equal reports structural equality of two FQNs.
func (f FQN) Equal(other FQN) bool {
	if f.Suffix != other.Suffix || len(f.Parts) != len(other.Parts) {
		return false
	}
	for i := range f.Parts {
		if !f.Parts[i].equal(other.Parts[i]) {
			return false
		}
	}
	return true
}

func (p NSPart) equal(other NSPart) bool {
	if p.Name != other.Name || len(p.Qualifiers) != len(other.Qualifiers) {
		return false
	}
	for i := range p.Qualifiers {
		if !p.Qualifiers[i].Equal(other.Qualifiers[i]) {
			return false
		}
	}
	return true
}

// String serializes the FQN in wire format.
func (f FQN) String() string {
	var sb strings.Builder
	for i, part := range f.Parts {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(part.Name)
		if len(part.Qualifiers) > 0 {
			sb.WriteByte('[')
			for j, q := range part.Qualifiers {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(q.String())
			}
			sb.WriteByte(']')
		}
	}
	if f.Suffix > 0 {
		sb.WriteByte('#')
		sb.WriteString(strconv.Itoa(f.Suffix))
	}
	return sb.String()
}

// HumanName returns the name to show in diagnostics: the bare attribute
// for builtins, the full name otherwise.
func (f FQN) HumanName() string {
	if f.ModName() == "builtins" && len(f.Parts) == 2 && len(f.Parts[1].Qualifiers) == 0 {
		return f.Attr()
	}
	return f.String()
}

// Key returns a canonical map key for the FQN.
func (f FQN) Key() string {
	return f.String()
}

// Interner assigns stable decimal indexes to qualifier lists, so that
// CName can encode generics deterministically. The VM owns one Interner
// for its whole lifetime.
type Interner struct {
	indexes map[string]int
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{indexes: make(map[string]int)}
}

// Index returns the index of the given qualifier list, assigning the next
// free one on first use. Indexes start at 0 and grow in first-seen order.
func (in *Interner) Index(quals []FQN) int {
	key := FQN{Parts: []NSPart{{Name: "q", Qualifiers: quals}}}.String()
	if n, ok := in.indexes[key]; ok {
		return n
	}
	n := len(in.indexes)
	in.indexes[key] = n
	return n
}

// CName flattens the FQN into a valid C identifier: dots become '_',
// '::' becomes '__', qualifier brackets become '_<index>' with the index
// taken from the interner, and the suffix (if any) is appended as '_<n>'.
func (f FQN) CName(in *Interner) string {
	var sb strings.Builder
	sb.WriteString("spy_")
	for i, part := range f.Parts {
		if i > 0 {
			sb.WriteString("__")
		}
		sb.WriteString(strings.ReplaceAll(part.Name, ".", "_"))
		if len(part.Qualifiers) > 0 {
			sb.WriteByte('_')
			sb.WriteString(strconv.Itoa(in.Index(part.Qualifiers)))
		}
	}
	if f.Suffix > 0 {
		sb.WriteByte('_')
		sb.WriteString(strconv.Itoa(f.Suffix))
	}
	return sb.String()
}
