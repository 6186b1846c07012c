package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFQNCommand(t *testing.T) {
	ctl := New()
	var out bytes.Buffer
	ctl.Writer = &out

	err := ctl.Run([]string{"spy", "fqn", "mod::make_Point[builtins::i32]::Point"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "fqn:    mod::make_Point[builtins::i32]::Point")
	require.Contains(t, out.String(), "c_name: spy_mod__make_Point_0__Point")
}

func TestNinjaCommand(t *testing.T) {
	dir := t.TempDir()
	ctl := New()
	var out bytes.Buffer
	ctl.Writer = &out

	err := ctl.Run([]string{"spy", "ninja", "--build-dir", dir, "hello", "hello.c"})
	require.NoError(t, err)
	require.Contains(t, out.String(), "build.ninja")
}
