// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package statement

import (
	"regexp"
	"strings"
)

var (
	letBindingPattern   = regexp.MustCompile(`let\s+(mut\s+)?(\w+)\s*=\s*([^;]+);`)
	assignmentPattern   = regexp.MustCompile(`(\w+)\s*=\s*([^;]+);`)
	ifPattern           = regexp.MustCompile(`if\s+([^{]+)\s*\{`)
	elsePattern         = regexp.MustCompile(`\}\s*else\s*\{`)
	elseIfPattern       = regexp.MustCompile(`\}\s*else\s+if\s+([^{]+)\s*\{`)
	matchPattern        = regexp.MustCompile(`match\s+([^{]+)\s*\{`)
	returnPattern       = regexp.MustCompile(`return\s+([^;]+);|return;`)
	assertPattern       = regexp.MustCompile(`assert[!]?\s*\(([^)]+)\)`)
	storageReadPattern  = regexp.MustCompile(`self\.(\w+)\.read\(\)`)
	storageWritePattern = regexp.MustCompile(`self\.(\w+)\.write\(([^)]+)\)`)
	functionCallPattern = regexp.MustCompile(`(\w+)\s*\(([^)]*)\)`)

	identifierPattern = regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]*`)
)

// expressionKeywords are identifiers extractVarsFromExpr filters out: Cairo
// keywords and literals that are never variable references.
var expressionKeywords = map[string]struct{}{
	"let": {}, "mut": {}, "if": {}, "else": {}, "match": {},
	"return": {}, "true": {}, "false": {}, "self": {},
}

// Parse splits body into lines and classifies each one, tracking brace
// depth as it goes. Depth for control-flow statements (if/else/match) is
// the depth BEFORE the line's own braces; every other statement gets that
// same depth plus one when the line contains an opening brace, so a
// statement on the same line as an opening brace is already counted as
// inside the new block.
func Parse(body string, startLine int) []Statement {
	var statements []Statement
	lines := strings.Split(body, "\n")
	depth := 0

	for i, line := range lines {
		lineNum := startLine + i
		openCount := strings.Count(line, "{")
		closeCount := strings.Count(line, "}")

		stmt := parseLine(line, lineNum)
		if stmt != nil {
			switch stmt.Kind {
			case KindIf, KindElse, KindMatch:
				stmt.BlockDepth = depth
			default:
				stmt.BlockDepth = depth
				if strings.Contains(line, "{") {
					stmt.BlockDepth++
				}
			}
			statements = append(statements, *stmt)
		}

		depth += openCount - closeCount
	}

	return statements
}

func parseLine(line string, lineNum int) *Statement {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return nil
	}
	if strings.HasPrefix(stripped, "//") {
		return nil
	}

	if strings.Contains(stripped, "self.") {
		if m := storageWritePattern.FindStringSubmatch(stripped); m != nil {
			return &Statement{
				Kind:       KindStorageWrite,
				StorageVar: m[1],
				Value:      m[2],
				Line:       lineNum,
				RawText:    stripped,
			}
		}
		if m := storageReadPattern.FindStringSubmatch(stripped); m != nil {
			return &Statement{
				Kind:       KindStorageRead,
				StorageVar: m[1],
				Line:       lineNum,
				RawText:    stripped,
			}
		}
	}

	if m := ifPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:      KindIf,
			Condition: strings.TrimSpace(m[1]),
			Line:      lineNum,
			RawText:   stripped,
		}
	}

	if m := elseIfPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:      KindElse,
			IsElseIf:  true,
			Condition: strings.TrimSpace(m[1]),
			Line:      lineNum,
			RawText:   stripped,
		}
	}

	if elsePattern.MatchString(stripped) {
		return &Statement{
			Kind:    KindElse,
			Line:    lineNum,
			RawText: stripped,
		}
	}

	if m := matchPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:       KindMatch,
			Expression: strings.TrimSpace(m[1]),
			Line:       lineNum,
			RawText:    stripped,
		}
	}

	if m := returnPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:       KindReturn,
			Expression: m[1],
			Line:       lineNum,
			RawText:    stripped,
		}
	}

	if m := assertPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:      KindAssert,
			Condition: m[1],
			Line:      lineNum,
			RawText:   stripped,
		}
	}

	if m := letBindingPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:       KindLetBinding,
			IsMutable:  m[1] != "",
			Variable:   m[2],
			Expression: strings.TrimSpace(m[3]),
			Line:       lineNum,
			RawText:    stripped,
		}
	}

	if m := assignmentPattern.FindStringSubmatch(stripped); m != nil {
		return &Statement{
			Kind:       KindAssignment,
			Variable:   m[1],
			Expression: strings.TrimSpace(m[2]),
			Line:       lineNum,
			RawText:    stripped,
		}
	}

	if m := functionCallPattern.FindStringSubmatch(stripped); m != nil {
		funcName := m[1]
		var args []string
		for _, a := range strings.Split(m[2], ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				args = append(args, a)
			}
		}
		lower := strings.ToLower(stripped)
		isExternal := strings.Contains(lower, "dispatcher") || strings.Contains(stripped, "::")

		return &Statement{
			Kind:         KindCall,
			FunctionName: funcName,
			Arguments:    args,
			IsExternal:   isExternal,
			Line:         lineNum,
			RawText:      stripped,
		}
	}

	return nil
}

// ExtractVariablesUsed returns the variable names referenced by stmt's
// right-hand-side expression(s), skipping Cairo keywords and literals.
func ExtractVariablesUsed(stmt Statement) []string {
	switch stmt.Kind {
	case KindAssignment, KindLetBinding:
		return extractVarsFromExpr(stmt.Expression)
	case KindIf:
		return extractVarsFromExpr(stmt.Condition)
	case KindReturn:
		if stmt.Expression != "" {
			return extractVarsFromExpr(stmt.Expression)
		}
	case KindCall:
		var vars []string
		for _, arg := range stmt.Arguments {
			vars = append(vars, extractVarsFromExpr(arg)...)
		}
		return vars
	case KindStorageWrite:
		return extractVarsFromExpr(stmt.Value)
	}
	return nil
}

// ExtractVariablesDefined returns the variable name a let-binding or
// assignment statement defines.
func ExtractVariablesDefined(stmt Statement) []string {
	switch stmt.Kind {
	case KindLetBinding, KindAssignment:
		return []string{stmt.Variable}
	}
	return nil
}

func extractVarsFromExpr(expr string) []string {
	var vars []string
	for _, m := range identifierPattern.FindAllString(expr, -1) {
		if _, isKeyword := expressionKeywords[m]; isKeyword {
			continue
		}
		vars = append(vars, m)
	}
	return vars
}
