package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.yaml")
	data := `
Target: wasi
OutputKind: lib
BuildType: debug
OptLevel: 1
CFlags: ["-DSPY_DEBUG", "-Ispy$dir/include"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, TargetWasi, cfg.Target)
	require.Equal(t, OutputLib, cfg.Kind)
	require.Equal(t, BuildDebug, cfg.BuildType)
	require.Equal(t, 1, cfg.OptLevel)
}

func TestLoadConfigRejectsUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "build.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Target: playstation\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestFmtFlagsEscaping(t *testing.T) {
	require.Equal(t, "a b c", fmtFlags([]string{"a", "b", "c"}))
	// '$' doubles for ninja, the result is shell-quoted
	require.Equal(t, "'spy_foo$$bar'", fmtFlags([]string{"spy_foo$bar"}))
}

func TestNinjaSingleFile(t *testing.T) {
	dir := t.TempDir()
	w := NewNinjaWriter(DefaultConfig(), dir)
	out, err := w.Write("hello", []string{"hello.c"})
	require.NoError(t, err)
	require.Equal(t, "hello", out)

	data, err := os.ReadFile(filepath.Join(dir, "build.ninja"))
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "rule ccld")
	require.Contains(t, content, "build hello: ccld hello.c")
	require.Contains(t, content, "-O2")
}

func TestNinjaManyFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Target = TargetWasi
	w := NewNinjaWriter(cfg, dir)
	out, err := w.Write("app", []string{"a.c", "b.c"})
	require.NoError(t, err)
	require.Equal(t, "app.wasm", out)

	data, err := os.ReadFile(filepath.Join(dir, "build.ninja"))
	require.NoError(t, err)
	content := string(data)
	require.Contains(t, content, "build a.o: cc a.c")
	require.Contains(t, content, "build b.o: cc b.c")
	require.Contains(t, content, "build app.wasm: link a.o b.o")
	require.Contains(t, content, "cc = wasi-clang")
}
