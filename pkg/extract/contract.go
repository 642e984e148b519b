// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"

	"github.com/kraklabs/cairolens/pkg/cairoir"
)

var (
	contractAttrPattern  = regexp.MustCompile(`#\[starknet::(contract|interface)\]`)
	modDeclPattern       = regexp.MustCompile(`\bmod\s+(\w+)`)
	storageAttrPattern   = regexp.MustCompile(`#\[storage\]`)
	storageStructPattern = regexp.MustCompile(`\bstruct\s+Storage\b`)
	storageFieldPattern  = regexp.MustCompile(`^\s*(\w+)\s*:\s*([^,]+?),?\s*$`)
	fnHeaderPattern      = regexp.MustCompile(`\bfn\s+(\w+)`)
	eventAttrPattern     = regexp.MustCompile(`#\[event\]`)
	eventDeclPattern     = regexp.MustCompile(`\b(?:struct|enum)\s+(\w+)`)
)

// ExtractContracts performs a single pass over the lines of src and returns
// the contracts found, following the lookahead/brace-balancing rules of the
// contract extractor: contract/interface headers, #[storage] struct fields,
// function headers with body spans, and #[event] declarations.
func ExtractContracts(src, filePath string) []*cairoir.Contract {
	lines := strings.Split(src, "\n")
	var contracts []*cairoir.Contract
	var current *cairoir.Contract

	i := 0
	for i < len(lines) {
		line := lines[i]

		if contractAttrPattern.MatchString(line) {
			attr := contractAttrPattern.FindStringSubmatch(line)[1]
			kind := cairoir.KindContract
			if attr == "interface" {
				kind = cairoir.KindInterface
			}
			name, found := lookaheadModName(lines, i, 5)
			if found {
				current = cairoir.NewContract(name, filePath, kind)
				current.FilePath = filePath
				contracts = append(contracts, current)
			}
			i++
			continue
		}

		if current != nil && storageAttrPattern.MatchString(line) {
			vars, consumed := extractStorageVars(lines, i)
			current.StorageVariables = append(current.StorageVariables, vars...)
			i += consumed
			continue
		}

		if current != nil && strings.Contains(line, "fn ") && fnHeaderPattern.MatchString(line) {
			fn, consumed := extractFunction(lines, i)
			current.Functions = append(current.Functions, fn)
			i += consumed
			continue
		}

		if current != nil && eventAttrPattern.MatchString(line) {
			ev, found := lookaheadEvent(lines, i, 10)
			if found {
				current.Events = append(current.Events, ev)
			}
			i++
			continue
		}

		i++
	}

	return contracts
}

// lookaheadModName looks up to maxAhead lines ahead (inclusive of the
// current line) for a `mod <Name>` declaration.
func lookaheadModName(lines []string, from, maxAhead int) (string, bool) {
	end := from + maxAhead
	if end > len(lines) {
		end = len(lines)
	}
	for j := from; j < end; j++ {
		if m := modDeclPattern.FindStringSubmatch(lines[j]); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// extractStorageVars looks ahead up to 50 lines for `struct Storage`, then
// scans up to 100 subsequent lines while balancing braces, collecting one
// StorageVariable per field line while depth > 0. Returns the number of
// lines consumed from `from`.
func extractStorageVars(lines []string, from int) ([]cairoir.StorageVariable, int) {
	structLine := -1
	lookEnd := from + 50
	if lookEnd > len(lines) {
		lookEnd = len(lines)
	}
	for j := from; j < lookEnd; j++ {
		if storageStructPattern.MatchString(lines[j]) {
			structLine = j
			break
		}
	}
	if structLine == -1 {
		return nil, 1
	}

	var vars []cairoir.StorageVariable
	depth := 0
	scanEnd := structLine + 100
	if scanEnd > len(lines) {
		scanEnd = len(lines)
	}
	entered := false
	j := structLine
	for ; j < scanEnd; j++ {
		line := lines[j]
		open := strings.Count(line, "{")
		closeCount := strings.Count(line, "}")

		if depth > 0 {
			if m := storageFieldPattern.FindStringSubmatch(line); m != nil {
				name := strings.TrimSpace(m[1])
				typ := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[2]), ","))
				if name != "" && typ != "" {
					vars = append(vars, cairoir.StorageVariable{
						Name: name,
						Type: typ,
						Line: j + 1,
					})
				}
			}
		}

		depth += open - closeCount
		if open > 0 {
			entered = true
		}
		if entered && depth <= 0 {
			j++
			break
		}
	}

	return vars, j - from
}

// extractFunction extracts a function header starting at line `from`:
// name, parameters, optional return type, visibility/decorators, and a
// brace-balanced body span. Returns the number of lines consumed.
func extractFunction(lines []string, from int) (cairoir.Function, int) {
	header := lines[from]

	fn := cairoir.Function{
		Line: from + 1,
	}

	if m := fnHeaderPattern.FindStringSubmatch(header); m != nil {
		fn.Name = m[1]
	}

	fn.Parameters = extractParams(header)
	fn.Returns = extractReturns(header)

	switch {
	case strings.Contains(header, "#[external") || strings.Contains(header, "external("):
		fn.Visibility = cairoir.VisibilityExternal
	case strings.Contains(header, "#[view"):
		fn.Visibility = cairoir.VisibilityView
	default:
		fn.Visibility = cairoir.VisibilityInternal
	}

	if strings.Contains(header, "pub(crate)") {
		fn.Decorators = append(fn.Decorators, "pub(crate)")
	} else if strings.Contains(header, "pub ") || strings.Contains(header, "pub\t") {
		fn.Decorators = append(fn.Decorators, "pub")
	}

	bodyStart, bodyEnd, found := findBalancedBody(lines, from)
	if found {
		fn.BodyStartLine = bodyStart + 1
		fn.BodyEndLine = bodyEnd + 1
		fn.BodyText = strings.Join(lines[bodyStart:bodyEnd+1], "\n")
		return fn, bodyEnd - from + 1
	}

	return fn, 1
}

// extractParams extracts the first (...) group from header, strips
// ref/mut, and splits parameters on top-level commas, then on the first
// colon for name/type.
func extractParams(header string) []cairoir.Param {
	open := strings.Index(header, "(")
	if open == -1 {
		return nil
	}
	end := findMatchingParen(header, open)
	if end == -1 {
		return nil
	}
	inner := header[open+1 : end]
	if strings.TrimSpace(inner) == "" {
		return nil
	}

	var params []cairoir.Param
	for _, part := range splitTopLevelCommas(inner) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.TrimPrefix(part, "ref ")
		part = strings.TrimPrefix(part, "mut ")
		colon := strings.Index(part, ":")
		if colon == -1 {
			params = append(params, cairoir.Param{Name: part})
			continue
		}
		name := strings.TrimSpace(part[:colon])
		typ := strings.TrimSpace(part[colon+1:])
		params = append(params, cairoir.Param{Name: name, Type: typ})
	}
	return params
}

// extractReturns extracts the `-> ...` clause up to `{` or `;`.
func extractReturns(header string) []cairoir.Param {
	arrow := strings.Index(header, "->")
	if arrow == -1 {
		return nil
	}
	rest := header[arrow+2:]
	endBrace := strings.IndexAny(rest, "{;")
	if endBrace != -1 {
		rest = rest[:endBrace]
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil
	}
	return []cairoir.Param{{Type: rest}}
}

// findBalancedBody advances from `from` until the first `{` (body start),
// then continues until depth returns to zero (body end). Returns
// (startLine, endLine, found) as zero-based indices into lines.
func findBalancedBody(lines []string, from int) (int, int, bool) {
	depth := 0
	started := false
	start := -1

	for j := from; j < len(lines); j++ {
		line := lines[j]
		for _, ch := range line {
			switch ch {
			case '{':
				if !started {
					started = true
					start = j
				}
				depth++
			case '}':
				depth--
				if started && depth == 0 {
					return start, j, true
				}
			}
		}
	}
	return 0, 0, false
}

// lookaheadEvent looks up to maxAhead lines ahead for a struct/enum
// declaration naming the event.
func lookaheadEvent(lines []string, from, maxAhead int) (cairoir.Event, bool) {
	end := from + maxAhead
	if end > len(lines) {
		end = len(lines)
	}
	for j := from; j < end; j++ {
		if m := eventDeclPattern.FindStringSubmatch(lines[j]); m != nil {
			return cairoir.Event{Name: m[1], Line: j + 1}, true
		}
	}
	return cairoir.Event{}, false
}

// findMatchingParen returns the index of the ')' matching the '(' at pos,
// or -1 if unbalanced.
func findMatchingParen(s string, pos int) int {
	depth := 0
	for i := pos; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevelCommas splits s on commas that are not nested inside
// parentheses or angle brackets (for generic types like Array<felt252>).
func splitTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '<':
			depth++
		case ')', '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
