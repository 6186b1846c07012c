// Package driver orchestrates a compilation: it discovers and loads
// modules in topological order, runs the scope analyzer and the module
// frames, and finally redshifts every red function. All file I/O happens
// here, behind the Loader interface; the evaluator core never touches
// the filesystem and never writes to stdout or stderr.
package driver

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spylang/spy/pkg/analyze"
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/doppler"
	"github.com/spylang/spy/pkg/interp"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/vm"
)

// Loader produces the parsed AST of a module; the surface parser is an
// external collaborator plugged in here.
type Loader interface {
	Load(modname string) (*ast.Module, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(modname string) (*ast.Module, error)

// Load implements Loader.
func (f LoaderFunc) Load(modname string) (*ast.Module, error) { return f(modname) }

// Driver owns one compilation.
type Driver struct {
	VM     *vm.VM
	Loader Loader

	log     *zap.Logger
	loading map[string]bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger attaches a logger; the default is a nop.
func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// New builds a driver with a fresh, fully-wired VM.
func New(loader Loader, opts ...Option) *Driver {
	d := &Driver{
		VM:      interp.NewVM(),
		Loader:  loader,
		log:     zap.NewNop(),
		loading: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ImportModule loads a module and, recursively, everything it imports.
// Import cycles are detected and reported.
func (d *Driver) ImportModule(modname string) (*vm.Module, error) {
	if mod, ok := d.VM.Modules.Get(modname); ok {
		return mod, nil
	}
	if d.loading[modname] {
		return nil, spyerror.New(spyerror.ImportError,
			"circular import of module `%s`", modname)
	}
	d.loading[modname] = true
	defer delete(d.loading, modname)

	d.log.Info("loading module", zap.String("module", modname))
	mod, err := d.Loader.Load(modname)
	if err != nil {
		if _, ok := spyerror.AsError(err); ok {
			return nil, err
		}
		return nil, spyerror.New(spyerror.ImportError,
			"cannot load module `%s`: %v", modname, err)
	}

	// recurse on the imports first, so that foreign names resolve while
	// this module executes
	for _, decl := range mod.Decls {
		imp, ok := decl.(*ast.Import)
		if !ok {
			continue
		}
		if imp.ModName == "builtins" || imp.ModName == "operator" {
			continue
		}
		if _, err := d.ImportModule(imp.ModName); err != nil {
			return nil, err
		}
	}

	if err := analyze.New(d.VM).Analyze(mod); err != nil {
		return nil, err
	}
	if err := d.checkImports(mod); err != nil {
		return nil, err
	}

	wmod, err := interp.NewModFrame(d.VM, mod).Run()
	if err != nil {
		return nil, err
	}
	d.log.Info("module loaded",
		zap.String("module", modname),
		zap.Int("items", wmod.Items.Len()))
	return wmod, nil
}

// checkImports verifies that every imported attribute actually exists in
// the foreign module.
func (d *Driver) checkImports(mod *ast.Module) error {
	for _, decl := range mod.Decls {
		imp, ok := decl.(*ast.Import)
		if !ok || imp.Attr == "" {
			continue
		}
		foreign, ok := d.VM.Modules.Get(imp.ModName)
		if !ok {
			return spyerror.Simple(spyerror.ImportError,
				fmt.Sprintf("cannot import module `%s`", imp.ModName),
				"module not found", imp.Loc)
		}
		if foreign.GetAttrMaybe(imp.Attr) == nil {
			return spyerror.Simple(spyerror.ImportError,
				fmt.Sprintf("cannot import `%s.%s`", imp.ModName, imp.Attr),
				"attribute not found", imp.Loc)
		}
	}
	return nil
}

// Redshift lowers every red function loaded so far, drains the lazy-mode
// warnings to the log and validates the residual set for the emitter.
func (d *Driver) Redshift(mode doppler.ErrorMode) error {
	d.log.Info("redshift", zap.String("error_mode", string(mode)))
	if err := doppler.RedshiftAll(d.VM, mode); err != nil {
		return err
	}
	for _, warn := range d.VM.Warnings {
		d.log.Warn("redshift warning",
			zap.String("kind", string(warn.Kind)),
			zap.String("message", warn.Message))
	}
	return d.validateAll()
}

func (d *Driver) validateAll() error {
	var err error
	d.VM.Globals.Each(func(key string, w vm.Object) bool {
		fn, ok := w.(*vm.ASTFunc)
		if ok && fn.Redshifted {
			if verr := doppler.ValidateResidual(fn); verr != nil {
				err = verr
				return false
			}
		}
		return true
	})
	return err
}

// Compile is the whole pipeline: import the main module, then redshift.
func (d *Driver) Compile(modname string, mode doppler.ErrorMode) (*vm.Module, error) {
	wmod, err := d.ImportModule(modname)
	if err != nil {
		return nil, err
	}
	if err := d.Redshift(mode); err != nil {
		return nil, err
	}
	return wmod, nil
}
