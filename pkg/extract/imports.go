// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract implements the regex-level scanners that turn raw Cairo
// source text into contract IR: import extraction and contract/function/
// storage/event extraction. Both scanners are deliberately lossy,
// line-oriented, and tolerant of both Cairo 0 and Cairo 1 syntax.
package extract

import (
	"regexp"
	"strings"

	"github.com/kraklabs/cairolens/pkg/cairoir"
)

// cairo0ImportPattern matches `from <path> import <symbols>`.
var cairo0ImportPattern = regexp.MustCompile(`^\s*from\s+(\S+)\s+import\s+(.+?)\s*$`)

// cairo1UseBracePattern matches `use <path>::{a, b, c};`.
var cairo1UseBracePattern = regexp.MustCompile(`^\s*use\s+([\w:]+)::\{([^}]*)\}\s*;`)

// cairo1UseSimplePattern matches `use <path>;`.
var cairo1UseSimplePattern = regexp.MustCompile(`^\s*use\s+([\w:]+)\s*;`)

// ExtractImports scans src line by line and returns the imports found,
// using the Cairo 0 or Cairo 1 grammar according to dialect (as returned by
// pkg/version.Detect). Line numbers are 1-based from the file's first line.
func ExtractImports(src string, dialect int) []cairoir.Import {
	if dialect == 0 {
		return extractCairo0Imports(src)
	}
	return extractCairo1Imports(src)
}

func extractCairo0Imports(src string) []cairoir.Import {
	var imports []cairoir.Import
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		m := cairo0ImportPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		modulePath := m[1]
		symbolsStr := strings.TrimSpace(m[2])

		var symbols []string
		if symbolsStr != "*" {
			for _, s := range strings.Split(symbolsStr, ",") {
				s = strings.TrimSpace(s)
				if s != "" {
					symbols = append(symbols, s)
				}
			}
		}

		imports = append(imports, cairoir.Import{
			ModulePath:      modulePath,
			ImportedSymbols: symbols,
			Line:            i + 1,
		})
	}
	return imports
}

func extractCairo1Imports(src string) []cairoir.Import {
	var imports []cairoir.Import
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "use ") {
			continue
		}

		if m := cairo1UseBracePattern.FindStringSubmatch(trimmed); m != nil {
			var symbols []string
			for _, s := range strings.Split(m[2], ",") {
				s = strings.TrimSpace(s)
				if s != "" {
					symbols = append(symbols, s)
				}
			}
			imports = append(imports, cairoir.Import{
				ModulePath:      m[1],
				ImportedSymbols: symbols,
				Line:            i + 1,
			})
			continue
		}

		if m := cairo1UseSimplePattern.FindStringSubmatch(trimmed); m != nil {
			path := m[1]
			segments := strings.Split(path, "::")
			last := segments[len(segments)-1]
			if last != "" && isUpper(last[0]) {
				imports = append(imports, cairoir.Import{
					ModulePath:      strings.Join(segments[:len(segments)-1], "::"),
					ImportedSymbols: []string{last},
					Line:            i + 1,
				})
			} else {
				imports = append(imports, cairoir.Import{
					ModulePath: path,
					Line:       i + 1,
				})
			}
		}
	}
	return imports
}

func isUpper(b byte) bool {
	return b >= 'A' && b <= 'Z'
}
