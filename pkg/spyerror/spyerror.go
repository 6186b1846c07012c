// Package spyerror defines the error envelope produced by the compiler
// core: a kind from the fixed taxonomy, a primary message and zero or
// more annotations pointing into the source code. The core only builds
// these values; formatting for the terminal lives in Formatter, which no
// CLI command calls.
package spyerror

import (
	"errors"
	"fmt"

	"github.com/spylang/spy/pkg/location"
)

// Kind is the error taxonomy. Static kinds are raised by the
// metafunctions/evaluator during blue execution or redshift and can be
// downgraded to residual raise statements in lazy mode.
type Kind string

const (
	TypeError         Kind = "TypeError"
	ScopeError        Kind = "ScopeError"
	NameError         Kind = "NameError"
	ParseError        Kind = "ParseError"
	ImportError       Kind = "ImportError"
	ValueError        Kind = "ValueError"
	IndexError        Kind = "IndexError"
	ZeroDivisionError Kind = "ZeroDivisionError"
	PanicError        Kind = "PanicError"
	AssertionError    Kind = "AssertionError"
	KeyError          Kind = "KeyError"
	WIP               Kind = "WIP"
	Exception         Kind = "Exception"
)

// Static reports whether errors of this kind may be turned into lazy
// residual raises during redshift.
func (k Kind) Static() bool {
	switch k {
	case TypeError, ScopeError, NameError, ParseError, ImportError:
		return true
	}
	return false
}

// Level classifies an annotation.
type Level string

const (
	LevelError Level = "error"
	LevelNote  Level = "note"
	LevelPanic Level = "panic"
)

// Annotation is one underlined range with a message.
type Annotation struct {
	Level   Level
	Message string
	Loc     location.Loc
}

// FrameInfo is one entry of a compile-time traceback.
type FrameInfo struct {
	Kind string // "astframe", "modframe", "classframe", "dopplerframe"
	Name string // FQN of the frame's namespace
	Loc  location.Loc
}

// Error is the envelope for everything in the taxonomy.
type Error struct {
	Kind        Kind
	Message     string
	Annotations []Annotation
	Frames      []FrameInfo
}

// New builds an Error with no annotations.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Simple builds an Error with a single primary annotation.
func Simple(kind Kind, msg, annMsg string, loc location.Loc) *Error {
	return New(kind, "%s", msg).Add(LevelError, annMsg, loc)
}

// Add appends an annotation and returns the error for chaining.
func (e *Error) Add(level Level, msg string, loc location.Loc) *Error {
	e.Annotations = append(e.Annotations, Annotation{Level: level, Message: msg, Loc: loc})
	return e
}

// AddLocMaybe attaches a bare primary annotation if the error has none
// yet. Statement/expression dispatchers use it so that every error points
// at least at the node being evaluated.
func (e *Error) AddLocMaybe(loc location.Loc) {
	if len(e.Annotations) == 0 && !loc.IsZero() {
		e.Add(LevelError, "", loc)
	}
}

// PushFrame records a traceback entry; called while an error unwinds
// through nested frames, so entries are outermost-last.
func (e *Error) PushFrame(kind, name string, loc location.Loc) {
	e.Frames = append(e.Frames, FrameInfo{Kind: kind, Name: name, Loc: loc})
}

// Static reports whether this error can be made lazy during redshift.
func (e *Error) Static() bool {
	return e.Kind.Static()
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsError unwraps err into an *Error, if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a core error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
