package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
)

// fmtFlags formats CFLAGS/LDFLAGS for a build.ninja: items that the shell
// would need escaped are wrapped in single quotes, then '$' is escaped for
// ninja syntax.
func fmtFlags(flags []string) string {
	escaped := make([]string, len(flags))
	for i, flag := range flags {
		quoted := flag
		if shellquote.Join(flag) != flag {
			quoted = "'" + strings.ReplaceAll(flag, "'", `'"'"'`) + "'"
		}
		escaped[i] = strings.ReplaceAll(quoted, "$", "$$")
	}
	return strings.Join(escaped, " ")
}

// NinjaWriter generates a build.ninja compiling the C files the emitter
// produced.
type NinjaWriter struct {
	Config   Config
	BuildDir string
}

// NewNinjaWriter returns a writer targeting the given directory.
func NewNinjaWriter(cfg Config, buildDir string) *NinjaWriter {
	return &NinjaWriter{Config: cfg, BuildDir: buildDir}
}

// outName returns the linked artifact name for basename.
func (w *NinjaWriter) outName(basename string) string {
	switch {
	case w.Config.Target == TargetWasi:
		return basename + ".wasm"
	case w.Config.Kind == OutputLib:
		return basename + ".so"
	default:
		return basename
	}
}

// Write emits <BuildDir>/build.ninja for the given C files and returns
// the name of the linked output.
func (w *NinjaWriter) Write(basename string, cfiles []string) (string, error) {
	out := w.outName(basename)
	var content string
	if len(cfiles) == 1 {
		content = w.genSingle(out, cfiles[0])
	} else {
		content = w.genMany(out, cfiles)
	}
	path := filepath.Join(w.BuildDir, "build.ninja")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("cannot write %s: %w", path, err)
	}
	return out, nil
}

// genSingle collapses CC and LINK into one rule: almost every test
// compiles a single file, and skipping the relink shaves real time off
// the suite.
func (w *NinjaWriter) genSingle(out, cfile string) string {
	cc, cflags, ldflags := w.Config.compiler()
	var sb strings.Builder
	fmt.Fprintf(&sb, "cc = %s\n", cc)
	fmt.Fprintf(&sb, "cflags = %s\n", fmtFlags(cflags))
	fmt.Fprintf(&sb, "ldflags = %s\n", fmtFlags(ldflags))
	sb.WriteString("\nrule ccld\n")
	sb.WriteString("  command = $cc $cflags $in -o $out $ldflags\n")
	sb.WriteString("  description = CCLD $out\n\n")
	fmt.Fprintf(&sb, "build %s: ccld %s\n", ninjaEscape(out), ninjaEscape(cfile))
	fmt.Fprintf(&sb, "default %s\n", ninjaEscape(out))
	return sb.String()
}

func (w *NinjaWriter) genMany(out string, cfiles []string) string {
	cc, cflags, ldflags := w.Config.compiler()
	var sb strings.Builder
	fmt.Fprintf(&sb, "cc = %s\n", cc)
	fmt.Fprintf(&sb, "cflags = %s\n", fmtFlags(cflags))
	fmt.Fprintf(&sb, "ldflags = %s\n", fmtFlags(ldflags))
	sb.WriteString("\nrule cc\n")
	sb.WriteString("  command = $cc $cflags -c $in -o $out\n")
	sb.WriteString("  description = CC $out\n\n")
	sb.WriteString("rule link\n")
	sb.WriteString("  command = $cc $in -o $out $ldflags\n")
	sb.WriteString("  description = LINK $out\n\n")

	var objs []string
	for _, cfile := range cfiles {
		obj := strings.TrimSuffix(filepath.Base(cfile), ".c") + ".o"
		objs = append(objs, obj)
		fmt.Fprintf(&sb, "build %s: cc %s\n", ninjaEscape(obj), ninjaEscape(cfile))
	}
	fmt.Fprintf(&sb, "\nbuild %s: link %s\n", ninjaEscape(out), strings.Join(objs, " "))
	fmt.Fprintf(&sb, "default %s\n", ninjaEscape(out))
	return sb.String()
}

func ninjaEscape(s string) string {
	s = strings.ReplaceAll(s, "$", "$$")
	s = strings.ReplaceAll(s, " ", "$ ")
	return s
}
