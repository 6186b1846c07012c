// Package build generates the build.ninja driving the compilation of the
// emitted C sources.
package build

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target selects the toolchain the C sources are compiled with.
type Target string

const (
	TargetNative Target = "native"
	TargetWasi   Target = "wasi"
)

// OutputKind selects what gets linked.
type OutputKind string

const (
	OutputExe OutputKind = "exe"
	OutputLib OutputKind = "lib"
)

// BuildType selects the optimization profile.
type BuildType string

const (
	BuildRelease BuildType = "release"
	BuildDebug   BuildType = "debug"
)

// Config describes one build of the emitted C sources.
type Config struct {
	Target    Target     `yaml:"Target"`
	Kind      OutputKind `yaml:"OutputKind"`
	BuildType BuildType  `yaml:"BuildType"`
	OptLevel  int        `yaml:"OptLevel"`
	CC        string     `yaml:"CC"`
	CFlags    []string   `yaml:"CFlags"`
	LDFlags   []string   `yaml:"LDFlags"`
}

// DefaultConfig is a native release exe.
func DefaultConfig() Config {
	return Config{
		Target:    TargetNative,
		Kind:      OutputExe,
		BuildType: BuildRelease,
		OptLevel:  2,
	}
}

// LoadConfig reads a YAML build configuration, filling the defaults for
// absent fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read build config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse build config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Target {
	case TargetNative, TargetWasi:
	default:
		return fmt.Errorf("unknown target %q", c.Target)
	}
	switch c.Kind {
	case OutputExe, OutputLib:
	default:
		return fmt.Errorf("unknown output kind %q", c.Kind)
	}
	switch c.BuildType {
	case BuildRelease, BuildDebug:
	default:
		return fmt.Errorf("unknown build type %q", c.BuildType)
	}
	return nil
}

// compiler returns the effective toolchain settings.
func (c Config) compiler() (cc string, cflags, ldflags []string) {
	cc = c.CC
	if cc == "" {
		switch c.Target {
		case TargetWasi:
			cc = "wasi-clang"
		default:
			cc = "cc"
		}
	}
	cflags = append(cflags, fmt.Sprintf("-O%d", c.OptLevel))
	if c.BuildType == BuildDebug {
		cflags = append(cflags, "-g")
	}
	cflags = append(cflags, c.CFlags...)
	ldflags = append(ldflags, c.LDFlags...)
	if c.Kind == OutputLib && c.Target == TargetWasi {
		ldflags = append(ldflags, "-Wl,--no-entry")
	}
	return cc, cflags, ldflags
}
