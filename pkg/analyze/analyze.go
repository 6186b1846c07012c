// Package analyze implements the scope analyzer: it walks a module AST
// and attaches a SymTable to the module and to every funcdef/classdef,
// recording for each name its color, kind, storage and the level of the
// scope that defines it.
package analyze

import (
	"github.com/spylang/spy/pkg/ast"
	"github.com/spylang/spy/pkg/fqn"
	"github.com/spylang/spy/pkg/location"
	"github.com/spylang/spy/pkg/spyerror"
	"github.com/spylang/spy/pkg/symtable"
	"github.com/spylang/spy/pkg/vm"
)

// Analyzer resolves names against the VM's builtins and the modules
// loaded so far.
type Analyzer struct {
	VM *vm.VM
}

// New returns an analyzer bound to a VM.
func New(v *vm.VM) *Analyzer {
	return &Analyzer{VM: v}
}

// scope is one entry of the lexical chain during analysis. The chain
// mirrors the runtime closure chain exactly, so reference levels match
// what the frames will see.
type scope struct {
	table    *symtable.SymTable
	parent   *scope
	isModule bool
	modFqn   fqn.FQN
	color    symtable.Color
}

// Analyze builds and attaches symbol tables for the whole module.
func (a *Analyzer) Analyze(mod *ast.Module) error {
	st := symtable.New(mod.Name, symtable.Blue)
	mod.Symtable = st
	s := &scope{
		table:    st,
		isModule: true,
		modFqn:   fqn.FQN{Parts: []fqn.NSPart{{Name: mod.Name}}},
		color:    symtable.Blue,
	}

	// first pass: module-level definitions
	for _, decl := range mod.Decls {
		switch decl := decl.(type) {
		case *ast.Import:
			if err := a.defineImport(s, decl); err != nil {
				return err
			}
		case *ast.GlobalFuncDef:
			fd := decl.FuncDef
			a.define(s, &symtable.Symbol{
				Name: fd.Name, Color: symtable.Blue,
				VarKind: symtable.KindConst, Storage: symtable.StorageDirect,
				Fqn: s.modFqn.Join(fd.Name), Loc: fd.Loc, TypeLoc: fd.PrototypeLoc,
			})
		case *ast.GlobalClassDef:
			cd := decl.ClassDef
			a.define(s, &symtable.Symbol{
				Name: cd.Name, Color: symtable.Blue,
				VarKind: symtable.KindConst, Storage: symtable.StorageDirect,
				Fqn: s.modFqn.Join(cd.Name), Loc: cd.Loc, TypeLoc: cd.Loc,
			})
		case *ast.GlobalVarDef:
			vd := decl.VarDef
			color, kind, storage := symtable.Blue, symtable.KindConst, symtable.StorageDirect
			if vd.Kind == symtable.KindVar {
				color, kind, storage = symtable.Red, symtable.KindVar, symtable.StorageCell
			}
			a.define(s, &symtable.Symbol{
				Name: vd.Name, Color: color, VarKind: kind, Storage: storage,
				Fqn: s.modFqn.Join(vd.Name), Loc: vd.Loc, TypeLoc: typeLocOf(vd),
			})
		}
	}

	// second pass: resolve module-level expressions and recurse
	for _, decl := range mod.Decls {
		switch decl := decl.(type) {
		case *ast.GlobalFuncDef:
			if err := a.analyzeFuncDef(decl.FuncDef, s); err != nil {
				return err
			}
		case *ast.GlobalClassDef:
			if err := a.analyzeClassDef(decl.ClassDef, s); err != nil {
				return err
			}
		case *ast.GlobalVarDef:
			if decl.VarDef.Type != nil {
				a.resolveExpr(s, decl.VarDef.Type)
			}
			a.resolveExpr(s, decl.Value)
		}
	}
	return nil
}

func typeLocOf(vd *ast.VarDef) location.Loc {
	if vd.Type != nil {
		return vd.Type.Location()
	}
	return vd.Loc
}

// define records a definition, tolerating duplicates in blue scopes
// (the frame re-checks and reports them with both locations while
// executing).
func (a *Analyzer) define(s *scope, sym *symtable.Symbol) error {
	if existing := s.table.LookupDefinition(sym.Name); existing != nil {
		if s.color == symtable.Red {
			err := spyerror.New(spyerror.ScopeError, "variable `%s` already declared", sym.Name)
			err.Add(spyerror.LevelError, "this is the new declaration", sym.Loc)
			err.Add(spyerror.LevelNote, "this is the previous declaration", existing.Loc)
			return err
		}
		return nil
	}
	// a name may have been recorded as a reference before the defining
	// statement was seen; definitions win
	if s.table.Lookup(sym.Name) != nil {
		return nil
	}
	s.table.Add(sym)
	return nil
}

func (a *Analyzer) defineImport(s *scope, imp *ast.Import) error {
	name := imp.AsName
	if name == "" {
		name = imp.Attr
	}
	if name == "" {
		name = imp.ModName
	}
	var f fqn.FQN
	if imp.Attr == "" {
		f = fqn.FQN{Parts: []fqn.NSPart{{Name: imp.ModName}}}
	} else {
		f = fqn.FQN{Parts: []fqn.NSPart{{Name: imp.ModName}, {Name: imp.Attr}}}
	}
	return a.define(s, &symtable.Symbol{
		Name: name, Color: symtable.Blue,
		VarKind: symtable.KindConst, Storage: symtable.StorageDirect,
		Fqn: f, Loc: imp.Loc, TypeLoc: imp.Loc,
		ImpRef: &symtable.ImportRef{ModName: imp.ModName, Attr: imp.Attr},
	})
}

func (a *Analyzer) analyzeFuncDef(fd *ast.FuncDef, parent *scope) error {
	// parameter and return types are evaluated by the defining frame,
	// so their names belong to the parent scope
	for _, arg := range fd.Args {
		a.resolveExpr(parent, arg.Type)
	}
	if fd.ReturnType != nil {
		a.resolveExpr(parent, fd.ReturnType)
	}

	st := symtable.New(fd.Name, fd.Color)
	fd.Symtable = st
	s := &scope{table: st, parent: parent, color: fd.Color}

	for _, arg := range fd.Args {
		if err := a.define(s, &symtable.Symbol{
			Name: arg.Name, Color: fd.Color,
			VarKind: symtable.KindVar, Storage: symtable.StorageDirect,
			Loc: arg.Loc, TypeLoc: arg.Loc,
		}); err != nil {
			return err
		}
	}
	return a.analyzeBody(s, fd.Body)
}

func (a *Analyzer) analyzeClassDef(cd *ast.ClassDef, parent *scope) error {
	st := symtable.New(cd.Name, symtable.Blue)
	cd.Symtable = st
	s := &scope{table: st, parent: parent, color: symtable.Blue}

	for _, field := range cd.Fields {
		if err := a.define(s, &symtable.Symbol{
			Name: field.Name, Color: symtable.Blue,
			VarKind: symtable.KindVar, Storage: symtable.StorageDirect,
			Loc: field.Loc, TypeLoc: typeLocOf(field),
		}); err != nil {
			return err
		}
		if field.Type != nil {
			a.resolveExpr(s, field.Type)
		}
		if field.Value != nil {
			a.resolveExpr(s, field.Value)
		}
	}
	return a.analyzeBody(s, cd.Body)
}

// analyzeBody collects the definitions of a statement list, then
// resolves every reference and recurses into nested scopes.
func (a *Analyzer) analyzeBody(s *scope, body []ast.Stmt) error {
	if err := a.collectStmts(s, body); err != nil {
		return err
	}
	return a.resolveStmts(s, body)
}

func (a *Analyzer) collectStmts(s *scope, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := a.collectStmt(s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) collectStmt(s *scope, stmt ast.Stmt) error {
	switch stmt := stmt.(type) {
	case *ast.VarDef:
		return a.define(s, &symtable.Symbol{
			Name: stmt.Name, Color: s.color, VarKind: stmt.Kind,
			Storage: symtable.StorageDirect, Loc: stmt.Loc, TypeLoc: typeLocOf(stmt),
		})
	case *ast.Assign:
		a.implicitTarget(s, stmt.Target)
	case *ast.AugAssign:
		a.implicitTarget(s, stmt.Target)
	case *ast.UnpackAssign:
		for _, t := range stmt.Targets {
			a.implicitTarget(s, t)
		}
	case *ast.FuncDef:
		return a.define(s, &symtable.Symbol{
			Name: stmt.Name, Color: symtable.Blue, VarKind: symtable.KindConst,
			Storage: symtable.StorageDirect, Loc: stmt.Loc, TypeLoc: stmt.PrototypeLoc,
		})
	case *ast.ClassDef:
		return a.define(s, &symtable.Symbol{
			Name: stmt.Name, Color: symtable.Blue, VarKind: symtable.KindConst,
			Storage: symtable.StorageDirect, Loc: stmt.Loc, TypeLoc: stmt.Loc,
		})
	case *ast.For:
		a.implicitTarget(s, stmt.Target)
		a.implicitName(s, "@iter", stmt.Loc)
		return a.collectStmts(s, stmt.Body)
	case *ast.If:
		if err := a.collectStmts(s, stmt.ThenBody); err != nil {
			return err
		}
		return a.collectStmts(s, stmt.ElseBody)
	case *ast.While:
		return a.collectStmts(s, stmt.Body)
	case *ast.StmtExpr:
		if ae, ok := stmt.Value.(*ast.AssignExpr); ok {
			a.implicitTarget(s, ae.Target)
		}
	}
	return nil
}

// implicitTarget records an assignment target: if the name resolves to
// an enclosing scope it stays a reference, else the first assignment is
// an implicit local declaration.
func (a *Analyzer) implicitTarget(s *scope, target *ast.StrConst) {
	if s.table.Lookup(target.Value) != nil {
		return
	}
	if sym := a.resolveOuter(s, target.Value, target.Loc); sym != nil {
		s.table.Add(sym)
		return
	}
	a.implicitName(s, target.Value, target.Loc)
}

func (a *Analyzer) implicitName(s *scope, name string, loc location.Loc) {
	if s.table.Lookup(name) != nil {
		return
	}
	s.table.Add(&symtable.Symbol{
		Name: name, Color: s.color, VarKind: symtable.KindVar,
		Storage: symtable.StorageDirect, Loc: loc, TypeLoc: loc,
	})
}

func (a *Analyzer) resolveStmts(s *scope, stmts []ast.Stmt) error {
	for _, stmt := range stmts {
		if err := a.resolveStmt(s, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) resolveStmt(s *scope, stmt ast.Stmt) error {
	switch stmt := stmt.(type) {
	case *ast.FuncDef:
		return a.analyzeFuncDef(stmt, s)
	case *ast.ClassDef:
		return a.analyzeClassDef(stmt, s)
	case *ast.If:
		a.resolveExpr(s, stmt.Test)
		if err := a.resolveStmts(s, stmt.ThenBody); err != nil {
			return err
		}
		return a.resolveStmts(s, stmt.ElseBody)
	case *ast.While:
		a.resolveExpr(s, stmt.Test)
		return a.resolveStmts(s, stmt.Body)
	case *ast.For:
		a.resolveExpr(s, stmt.Iter)
		return a.resolveStmts(s, stmt.Body)
	default:
		for _, child := range ast.Children(stmt) {
			if expr, ok := child.(ast.Expr); ok {
				a.resolveExpr(s, expr)
			}
		}
	}
	return nil
}

// resolveExpr records a reference symbol for every free Name in expr.
func (a *Analyzer) resolveExpr(s *scope, expr ast.Expr) {
	ast.Inspect(expr, func(n ast.Node) bool {
		if name, ok := n.(*ast.Name); ok {
			a.resolveName(s, name.ID, name.Loc)
		}
		return true
	})
}

func (a *Analyzer) resolveName(s *scope, name string, loc location.Loc) {
	if s.table.Lookup(name) != nil {
		return
	}
	if sym := a.resolveOuter(s, name, loc); sym != nil {
		s.table.Add(sym)
	}
	// unresolved names stay absent; the evaluator reports NameError at
	// the usage site
}

// resolveOuter searches the enclosing scopes and builtins for a name,
// returning the reference symbol to record locally, or nil.
func (a *Analyzer) resolveOuter(s *scope, name string, loc location.Loc) *symtable.Symbol {
	level := 0
	for cur := s.parent; cur != nil; cur = cur.parent {
		level++
		def := cur.table.LookupDefinition(name)
		if def == nil {
			continue
		}
		sym := *def
		sym.Level = level
		if !cur.isModule {
			// closed-over names are always blue
			sym.Color = symtable.Blue
		}
		return &sym
	}
	return a.builtinSymbol(name, level)
}

func (a *Analyzer) builtinSymbol(name string, level int) *symtable.Symbol {
	builtinsMod, ok := a.VM.Modules.Get("builtins")
	if !ok || builtinsMod.GetAttrMaybe(name) == nil {
		return nil
	}
	loc := location.Builtin("builtins")
	return &symtable.Symbol{
		Name: name, Color: symtable.Blue,
		VarKind: symtable.KindConst, Storage: symtable.StorageDirect,
		Level: level + 1,
		Fqn:   fqn.FQN{Parts: []fqn.NSPart{{Name: "builtins"}, {Name: name}}},
		ImpRef: &symtable.ImportRef{ModName: "builtins", Attr: name},
		Loc:    loc, TypeLoc: loc,
	}
}
