package spyerror

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spylang/spy/pkg/location"
)

func TestStaticKinds(t *testing.T) {
	static := []Kind{TypeError, ScopeError, NameError, ParseError, ImportError}
	for _, k := range static {
		require.True(t, k.Static(), "%s should be static", k)
	}
	dynamic := []Kind{ValueError, IndexError, ZeroDivisionError, PanicError,
		AssertionError, KeyError, WIP, Exception}
	for _, k := range dynamic {
		require.False(t, k.Static(), "%s should not be static", k)
	}
}

func TestErrorsAsMatching(t *testing.T) {
	err := New(TypeError, "mismatched types")
	wrapped := fmt.Errorf("while compiling: %w", err)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	require.Equal(t, TypeError, e.Kind)
	require.True(t, IsKind(wrapped, TypeError))
	require.False(t, IsKind(wrapped, ValueError))
}

func TestAddLocMaybe(t *testing.T) {
	loc := location.Fake()
	err := New(NameError, "name `x` is not defined")
	err.AddLocMaybe(loc)
	require.Len(t, err.Annotations, 1)

	// a second call must not override the primary annotation
	err.AddLocMaybe(location.Loc{Filename: "other", LineStart: 9})
	require.Len(t, err.Annotations, 1)
	require.Equal(t, loc, err.Annotations[0].Loc)
}

func TestFormatterUnderlines(t *testing.T) {
	src := []string{"x = 1 + \"hello\""}
	fmtr := &Formatter{
		UseColors:  false,
		ReadSource: func(string) ([]string, error) { return src, nil },
	}
	err := New(TypeError, "cannot do `i32` + `str`")
	err.Add(LevelError, "this is `i32`", location.Loc{
		Filename: "test.spy", LineStart: 1, LineEnd: 1, ColStart: 4, ColEnd: 5,
	})
	err.Add(LevelNote, "this is `str`", location.Loc{
		Filename: "test.spy", LineStart: 1, LineEnd: 1, ColStart: 8, ColEnd: 15,
	})

	out := fmtr.Format(err)
	require.Contains(t, out, "TypeError: cannot do `i32` + `str`")
	require.Contains(t, out, "x = 1 + \"hello\"")
	require.Contains(t, out, "    ^ this is `i32`")
	require.Contains(t, out, "        |_____| this is `str`")
}

func TestFormatterColors(t *testing.T) {
	fmtr := &Formatter{
		UseColors:  true,
		ReadSource: func(string) ([]string, error) { return []string{"boom"}, nil },
	}
	err := New(TypeError, "boom")
	out := fmtr.Format(err)
	require.True(t, strings.Contains(out, "\x1b[31;01m"))
}

func TestTracebackRendering(t *testing.T) {
	fmtr := &Formatter{
		UseColors:  false,
		ReadSource: func(string) ([]string, error) { return nil, nil },
	}
	err := New(TypeError, "boom")
	// innermost first, as recorded while unwinding
	err.PushFrame("dopplerframe", "mod::foo", location.Loc{Filename: "m.spy", LineStart: 3})
	err.PushFrame("modframe", "mod", location.Loc{Filename: "m.spy", LineStart: 1})

	out := fmtr.Format(err)
	require.Contains(t, out, "Static error during redshift:")
	require.Contains(t, out, "Traceback (most recent call last):")
	modIdx := strings.Index(out, "[module] mod")
	fooIdx := strings.Index(out, "[redshift] mod::foo")
	require.True(t, modIdx >= 0 && fooIdx >= 0)
	require.Less(t, modIdx, fooIdx, "outer frames print first")
}
