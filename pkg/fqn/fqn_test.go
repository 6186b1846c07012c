package fqn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"mod::foo",
		"a.b.c::foo",
		"builtins::list[builtins::i32]",
		"mod::make_Point[builtins::i32]::Point",
		"mod::f[a::b[c::d], e::g]",
		"mod::foo#3",
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc, func(t *testing.T) {
			f, err := Parse(tc)
			require.NoError(t, err)
			require.Equal(t, tc, f.String())

			again, err := Parse(f.String())
			require.NoError(t, err)
			require.True(t, f.Equal(again))
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"mod::foo[",
		"mod::foo]",
		"mod::foo[a::b",
		"mod::[x]",
		"mod::foo extra",
		"mod::foo#0",
	}
	for _, tc := range cases {
		_, err := Parse(tc)
		require.Error(t, err, "input %q", tc)
	}
}

func TestStructuralEquality(t *testing.T) {
	a := New("mod::foo[builtins::i32]")
	b := New("mod::foo[builtins::i32]")
	c := New("mod::foo[builtins::f64]")
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(a.WithSuffix(1)))
}

func TestJoinAndQualifiers(t *testing.T) {
	mod := FQN{Parts: []NSPart{{Name: "mod"}}}
	f := mod.Join("make_Point")
	require.Equal(t, "mod::make_Point", f.String())

	g := f.WithQualifiers([]FQN{New("builtins::i32")}).Join("Point")
	require.Equal(t, "mod::make_Point[builtins::i32]::Point", g.String())
	require.Equal(t, "Point", g.Attr())
	require.Equal(t, "mod", g.ModName())
}

func TestCName(t *testing.T) {
	in := NewInterner()
	require.Equal(t, "spy_a_b_c__foo", New("a.b.c::foo").CName(in))
	require.Equal(t, "spy_mod__foo_2", New("mod::foo#2").CName(in))

	// qualifier lists get stable decimal indexes in first-seen order
	l32 := New("builtins::list[builtins::i32]")
	l64 := New("builtins::list[builtins::f64]")
	require.Equal(t, "spy_builtins__list_0", l32.CName(in))
	require.Equal(t, "spy_builtins__list_1", l64.CName(in))
	require.Equal(t, "spy_builtins__list_0", l32.CName(in))
}

func TestHumanName(t *testing.T) {
	require.Equal(t, "i32", New("builtins::i32").HumanName())
	require.Equal(t, "mod::foo", New("mod::foo").HumanName())
}
