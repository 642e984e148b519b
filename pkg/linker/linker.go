// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package linker implements the assembler-style multi-pass symbol resolver:
// a global symbol table (GOT-like) is built across all input files, imports
// are resolved against it in a second pass, and a third pass synthesizes
// PLT-style stub modules for anything still unresolved. Grounded on
// pkg/ingestion's CallResolver, which performs the analogous three-step
// build-index / resolve / fall-back-to-stub sequence for Go cross-package
// call resolution; here generalized to Cairo cross-module import
// resolution.
package linker

import (
	"path/filepath"
	"strings"

	"github.com/kraklabs/cairolens/pkg/cairoir"
	"github.com/kraklabs/cairolens/pkg/extract"
	"github.com/kraklabs/cairolens/pkg/version"
)

// FileInput is one source file handed to the linker.
type FileInput struct {
	Path string
	Src  string
}

// SymbolTable is the process-wide GOT-like map from a textual key to the
// owning Contract. Multiple keys may point to the same contract; last
// write wins on conflict, per spec.
type SymbolTable struct {
	entries map[string]*cairoir.Contract
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*cairoir.Contract)}
}

// Set registers key -> contract, overwriting any previous owner.
func (t *SymbolTable) Set(key string, c *cairoir.Contract) {
	t.entries[key] = c
}

// Lookup returns the contract registered under key, if any.
func (t *SymbolTable) Lookup(key string) (*cairoir.Contract, bool) {
	c, ok := t.entries[key]
	return c, ok
}

// Len reports the number of distinct keys registered.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// Linker runs the three-pass resolution over a set of files. Its state
// (symbol table, stub registry, resolved-imports map, parsed-file cache)
// persists for the lifetime of the Linker, across LinkFiles calls,
// mirroring the single-Linker-instance-per-run model of spec.md §5.
type Linker struct {
	symbols         *SymbolTable
	stubs           map[string]*cairoir.Contract
	resolvedImports map[string]string // module_path -> source description
	parsed          map[string][]*cairoir.Contract
}

// New returns a Linker ready to link a batch of files.
func New() *Linker {
	return &Linker{
		symbols:         newSymbolTable(),
		stubs:           make(map[string]*cairoir.Contract),
		resolvedImports: make(map[string]string),
		parsed:          make(map[string][]*cairoir.Contract),
	}
}

// Result is the outcome of a Link run.
type Result struct {
	Contracts       []*cairoir.Contract
	Symbols         *SymbolTable
	Stubs           map[string]*cairoir.Contract
	ResolvedImports map[string]string
}

// LinkFile links a single file on demand: extract, register, resolve
// against whatever has been registered so far, then stub anything still
// unresolved. Equivalent to calling LinkFiles with a single-element slice.
func (l *Linker) LinkFile(path, src string) []*cairoir.Contract {
	return l.LinkFiles([]FileInput{{Path: path, Src: src}})
}

// LinkFiles runs the three-pass linker over files: Pass 1 extracts and
// registers symbols for every file, Pass 2 resolves every contract's
// imports against the symbol table, Pass 3 synthesizes stubs for anything
// still unresolved.
func (l *Linker) LinkFiles(files []FileInput) []*cairoir.Contract {
	// Pass 1: extract and register.
	for _, f := range files {
		l.extractAndRegister(f.Path, f.Src)
	}

	// Pass 2: resolve.
	var all []*cairoir.Contract
	for _, contracts := range l.parsed {
		all = append(all, contracts...)
	}
	for _, c := range all {
		for i := range c.Imports {
			l.resolve(&c.Imports[i])
		}
	}

	// Pass 3: stub.
	for _, c := range all {
		for i := range c.Imports {
			if !c.Imports[i].Resolved && !c.Imports[i].StubCreated {
				l.stub(&c.Imports[i])
			}
		}
		c.StubModules = l.stubs
	}

	// Stub contracts synthesized above are symbol-table entries, not
	// members of any input file's parsed set; fold them into the
	// returned contracts so callers (analyzer, report) see them
	// alongside everything extracted from source.
	for _, stub := range l.stubs {
		all = append(all, stub)
	}

	return all
}

// LinkDirectories is the directory-mode entry point: files have already
// been discovered (by pkg/discovery) and their source read; this simply
// forwards to LinkFiles. Kept as a distinct name to mirror the
// directory-mode / single-file duality callers expect.
func (l *Linker) LinkDirectories(files []FileInput) *Result {
	contracts := l.LinkFiles(files)
	return &Result{
		Contracts:       contracts,
		Symbols:         l.symbols,
		Stubs:           l.stubs,
		ResolvedImports: l.resolvedImports,
	}
}

// extractAndRegister is Pass 1 for a single file: run version detection
// and extraction, then register every lookup key (bare name,
// filestem::name, module path variants, and a synthetic module-kind
// contract for the file itself).
func (l *Linker) extractAndRegister(path, src string) {
	if _, ok := l.parsed[path]; ok {
		return
	}

	dialect := version.Detect(src)
	imports := extract.ExtractImports(src, dialect)
	contracts := extract.ExtractContracts(src, path)

	fileStem := stemOf(path)
	modulePath, hasModule := ModulePath(path)

	if hasModule {
		moduleContract := cairoir.NewContract(fileStem, path, cairoir.KindModule)
		l.symbols.Set(modulePath, moduleContract)
		l.symbols.Set(fileStem, moduleContract)
	}

	for _, c := range contracts {
		c.Imports = imports

		l.symbols.Set(c.Name, c)
		l.symbols.Set(fileStem+"::"+c.Name, c)
		if hasModule {
			l.symbols.Set(modulePath+"::"+c.Name, c)
			l.symbols.Set(modulePath, c)
		}

		for _, fn := range c.Functions {
			l.symbols.Set(fileStem+"::"+fn.Name, c)
			if hasModule {
				l.symbols.Set(modulePath+"::"+fn.Name, c)
			}
		}
	}

	l.parsed[path] = contracts
}

// resolve is Pass 2 for a single import: consult the symbol table in the
// order specified (exact module path, each imported symbol, crate::-prefix
// stripping with progressive-prefix retry), stopping on the first hit.
func (l *Linker) resolve(imp *cairoir.Import) {
	if imp.Resolved {
		return
	}

	if _, ok := l.symbols.Lookup(imp.ModulePath); ok {
		l.markResolved(imp)
		return
	}

	for _, sym := range imp.ImportedSymbols {
		if _, ok := l.symbols.Lookup(sym); ok {
			l.markResolved(imp)
			return
		}
	}

	if strings.HasPrefix(imp.ModulePath, "crate::") {
		stripped := strings.TrimPrefix(imp.ModulePath, "crate::")
		if _, ok := l.symbols.Lookup(stripped); ok {
			l.markResolved(imp)
			return
		}

		parts := strings.Split(stripped, "::")
		for i := range parts {
			partial := strings.Join(parts[:i+1], "::")
			if _, ok := l.symbols.Lookup(partial); ok {
				l.markResolved(imp)
				return
			}
		}
	}
}

func (l *Linker) markResolved(imp *cairoir.Import) {
	imp.Resolved = true
	imp.StubCreated = false
	l.resolvedImports[imp.ModulePath] = "<symbol_table>"
}

// stub is Pass 3 for a single unresolved import: synthesize (once per
// module path) a stub Contract named after the last `::`-segment, with one
// stub Function per imported symbol.
func (l *Linker) stub(imp *cairoir.Import) {
	if existing, ok := l.stubs[imp.ModulePath]; ok {
		imp.StubCreated = true
		imp.Resolved = false
		_ = existing
		return
	}

	segments := strings.Split(imp.ModulePath, "::")
	name := segments[len(segments)-1]

	stubContract := cairoir.NewContract(name, "<stub:"+imp.ModulePath+">", cairoir.KindStub)
	for _, sym := range imp.ImportedSymbols {
		stubContract.Functions = append(stubContract.Functions, cairoir.Function{
			Name:       sym,
			Visibility: cairoir.VisibilityExternal,
			Decorators: []string{"stub"},
			IsStub:     true,
		})
	}
	stubContract.ParseWarnings = append(stubContract.ParseWarnings,
		"Stub created for missing module: "+imp.ModulePath)

	l.stubs[imp.ModulePath] = stubContract
	imp.StubCreated = true
	imp.Resolved = false
}

// ModulePath computes the module path for a file relative to the first
// src/ ancestor, joined by "::", with the .cairo suffix stripped. Returns
// false if the path has no src/ ancestor.
func ModulePath(filePath string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filePath), "/")
	srcIndex := -1
	for i, p := range parts {
		if p == "src" {
			srcIndex = i
			break
		}
	}
	if srcIndex == -1 || srcIndex == len(parts)-1 {
		return "", false
	}

	moduleParts := append([]string{}, parts[srcIndex+1:]...)
	last := moduleParts[len(moduleParts)-1]
	moduleParts[len(moduleParts)-1] = strings.TrimSuffix(last, ".cairo")

	return strings.Join(moduleParts, "::"), true
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
