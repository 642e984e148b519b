// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report shapes the contract IR, per-function analysis, and stub
// report into the plain-struct form serialized to JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/cairolens/pkg/analyzer"
	"github.com/kraklabs/cairolens/pkg/cairoir"
	"github.com/kraklabs/cairolens/pkg/cfg"
	"github.com/kraklabs/cairolens/pkg/dataflow"
	"github.com/kraklabs/cairolens/pkg/statement"
)

// ParamRecord is the serialized form of a cairoir.Param.
type ParamRecord struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// FunctionRecord is the serialized form of a cairoir.Function.
type FunctionRecord struct {
	Name       string        `json:"name" yaml:"name"`
	Visibility string        `json:"visibility" yaml:"visibility"`
	Parameters []ParamRecord `json:"parameters" yaml:"parameters"`
	Returns    []ParamRecord `json:"returns" yaml:"returns"`
	Decorators []string      `json:"decorators" yaml:"decorators"`
	Line       int           `json:"line" yaml:"line"`
	IsStub     bool          `json:"is_stub" yaml:"is_stub"`
}

// StorageVariableRecord is the serialized form of a cairoir.StorageVariable.
type StorageVariableRecord struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Line   int    `json:"line" yaml:"line"`
	IsStub bool   `json:"is_stub" yaml:"is_stub"`
}

// EventRecord is the serialized form of a cairoir.Event.
type EventRecord struct {
	Name   string        `json:"name" yaml:"name"`
	Fields []ParamRecord `json:"fields" yaml:"fields"`
	Line   int           `json:"line" yaml:"line"`
	IsStub bool          `json:"is_stub" yaml:"is_stub"`
}

// ImportRecord is the serialized form of a cairoir.Import.
type ImportRecord struct {
	ModulePath      string   `json:"module_path" yaml:"module_path"`
	ImportedSymbols []string `json:"imported_symbols" yaml:"imported_symbols"`
	Line            int      `json:"line" yaml:"line"`
	Resolved        bool     `json:"resolved" yaml:"resolved"`
	StubCreated     bool     `json:"stub_created" yaml:"stub_created"`
}

// ContractRecord is the serialized contract IR described by spec.md §6:
// name, file path, kind, ordered function/storage/event/import lists, and
// unordered sets of unresolved calls/types plus synthesized stub modules.
type ContractRecord struct {
	Name             string                  `json:"name" yaml:"name"`
	FilePath         string                  `json:"file_path" yaml:"file_path"`
	Kind             string                  `json:"kind" yaml:"kind"`
	Functions        []FunctionRecord        `json:"functions" yaml:"functions"`
	StorageVariables []StorageVariableRecord `json:"storage_variables" yaml:"storage_variables"`
	Events           []EventRecord           `json:"events" yaml:"events"`
	Imports          []ImportRecord          `json:"imports" yaml:"imports"`
	UnresolvedCalls  []string                `json:"unresolved_calls" yaml:"unresolved_calls"`
	UnresolvedTypes  []string                `json:"unresolved_types" yaml:"unresolved_types"`
	StubModules      []string                `json:"stub_modules" yaml:"stub_modules"`
	ParseWarnings    []string                `json:"parse_warnings" yaml:"parse_warnings"`
	ParseErrors      []string                `json:"parse_errors" yaml:"parse_errors"`
}

// CFGNodeRecord is the serialized form of a cfg.Node, embedding its
// statement dict as a generic map so unset statement fields are omitted
// rather than serialized as zero values.
type CFGNodeRecord struct {
	ID           int            `json:"id" yaml:"id"`
	Type         string         `json:"type" yaml:"type"`
	Successors   []int          `json:"successors" yaml:"successors"`
	Predecessors []int          `json:"predecessors" yaml:"predecessors"`
	Statement    map[string]any `json:"statement,omitempty" yaml:"statement,omitempty"`
}

// CFGRecord is the serialized control flow graph for one function.
type CFGRecord struct {
	FunctionName string          `json:"function_name" yaml:"function_name"`
	EntryNode    int             `json:"entry_node" yaml:"entry_node"`
	ExitNodes    []int           `json:"exit_nodes" yaml:"exit_nodes"`
	Nodes        []CFGNodeRecord `json:"nodes" yaml:"nodes"`
}

// WarningRecord is one analysis warning: no_body, no_statements,
// uninitialized, or unused_def, per spec.md §6.
type WarningRecord struct {
	Type    string `json:"type" yaml:"type"`
	Message string `json:"message" yaml:"message"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// DataflowRecord is the serialized dataflow analysis for one function.
type DataflowRecord struct {
	DefUseChains    []DefUseChainRecord   `json:"def_use_chains" yaml:"def_use_chains"`
	StorageAccesses []StorageAccessRecord `json:"storage_accesses" yaml:"storage_accesses"`
	ExternalCalls   []ExternalCallRecord  `json:"external_calls" yaml:"external_calls"`
}

// DefUseChainRecord is the serialized form of a dataflow.DefUseChain.
type DefUseChainRecord struct {
	Variable    string `json:"variable" yaml:"variable"`
	Definitions []int  `json:"definitions" yaml:"definitions"`
	Uses        []int  `json:"uses" yaml:"uses"`
}

// StorageAccessRecord is the serialized form of a dataflow.StorageAccess.
type StorageAccessRecord struct {
	StorageVar string `json:"storage_var" yaml:"storage_var"`
	AccessType string `json:"access_type" yaml:"access_type"`
	NodeID     int    `json:"node_id" yaml:"node_id"`
	Line       int    `json:"line" yaml:"line"`
	Value      string `json:"value,omitempty" yaml:"value,omitempty"`
}

// ExternalCallRecord is the serialized form of a dataflow.ExternalCall.
type ExternalCallRecord struct {
	FunctionName string   `json:"function_name" yaml:"function_name"`
	Arguments    []string `json:"arguments" yaml:"arguments"`
	NodeID       int      `json:"node_id" yaml:"node_id"`
	Line         int      `json:"line" yaml:"line"`
	IsExternal   bool     `json:"is_external" yaml:"is_external"`
}

// FunctionAnalysisRecord is the serialized per-function analysis record.
type FunctionAnalysisRecord struct {
	Name      string          `json:"name" yaml:"name"`
	HasBody   bool            `json:"has_body" yaml:"has_body"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
	Graph     *CFGRecord      `json:"graph,omitempty" yaml:"graph,omitempty"`
	PathCount int             `json:"path_count,omitempty" yaml:"path_count,omitempty"`
	Dataflow  *DataflowRecord `json:"dataflow,omitempty" yaml:"dataflow,omitempty"`
	Warnings  []WarningRecord `json:"warnings" yaml:"warnings"`
}

// ContractAnalysisRecord bundles a contract record with its per-function
// analysis records.
type ContractAnalysisRecord struct {
	Contract  ContractRecord           `json:"contract" yaml:"contract"`
	Skipped   bool                     `json:"skipped" yaml:"skipped"`
	Functions []FunctionAnalysisRecord `json:"functions" yaml:"functions"`
}

// StubEntry is one synthesized stub in the stub report.
type StubEntry struct {
	FilePathPlaceholder string   `json:"file_path_placeholder" yaml:"file_path_placeholder"`
	FunctionCount       int      `json:"function_count" yaml:"function_count"`
	Warnings            []string `json:"warnings" yaml:"warnings"`
}

// StubReport is the aggregate stub/resolution report described by
// spec.md §6.
type StubReport struct {
	TotalStubs      int               `json:"total_stubs" yaml:"total_stubs"`
	TotalResolved   int               `json:"total_resolved" yaml:"total_resolved"`
	TotalSymbols    int               `json:"total_symbols" yaml:"total_symbols"`
	StubbedModules  []string          `json:"stubbed_modules" yaml:"stubbed_modules"`
	ResolvedModules []string          `json:"resolved_modules" yaml:"resolved_modules"`
	Stubs           []StubEntry       `json:"stubs" yaml:"stubs"`
	Resolved        map[string]string `json:"resolved" yaml:"resolved"`
}

// Result is the full top-level report: every analyzed contract plus the
// aggregate stub report.
type Result struct {
	Contracts []ContractAnalysisRecord `json:"contracts" yaml:"contracts"`
	Stubs     StubReport               `json:"stubs" yaml:"stubs"`
}

// BuildContractRecord shapes a cairoir.Contract into its wire record.
func BuildContractRecord(c *cairoir.Contract) ContractRecord {
	rec := ContractRecord{
		Name:     c.Name,
		FilePath: c.FilePath,
		Kind:     string(c.Kind),
	}
	for _, fn := range c.Functions {
		rec.Functions = append(rec.Functions, FunctionRecord{
			Name:       fn.Name,
			Visibility: string(fn.Visibility),
			Parameters: buildParams(fn.Parameters),
			Returns:    buildParams(fn.Returns),
			Decorators: fn.Decorators,
			Line:       fn.Line,
			IsStub:     fn.IsStub,
		})
	}
	for _, sv := range c.StorageVariables {
		rec.StorageVariables = append(rec.StorageVariables, StorageVariableRecord{
			Name: sv.Name, Type: sv.Type, Line: sv.Line, IsStub: sv.IsStub,
		})
	}
	for _, ev := range c.Events {
		rec.Events = append(rec.Events, EventRecord{
			Name: ev.Name, Fields: buildParams(ev.Fields), Line: ev.Line, IsStub: ev.IsStub,
		})
	}
	for _, imp := range c.Imports {
		rec.Imports = append(rec.Imports, ImportRecord{
			ModulePath:      imp.ModulePath,
			ImportedSymbols: imp.ImportedSymbols,
			Line:            imp.Line,
			Resolved:        imp.Resolved,
			StubCreated:     imp.StubCreated,
		})
	}
	rec.UnresolvedCalls = sortedKeys(c.UnresolvedCalls)
	rec.UnresolvedTypes = sortedKeys(c.UnresolvedTypes)
	for name := range c.StubModules {
		rec.StubModules = append(rec.StubModules, name)
	}
	rec.ParseWarnings = c.ParseWarnings
	rec.ParseErrors = c.ParseErrors
	return rec
}

func buildParams(params []cairoir.Param) []ParamRecord {
	out := make([]ParamRecord, 0, len(params))
	for _, p := range params {
		out = append(out, ParamRecord{Name: p.Name, Type: p.Type})
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// BuildResult shapes an analyzer.Result into the top-level wire Result.
func BuildResult(res *analyzer.Result) Result {
	out := Result{}
	stubbedModuleSet := map[string]struct{}{}
	resolvedModuleSet := map[string]struct{}{}
	resolvedMap := map[string]string{}
	totalSymbols := 0

	for _, ca := range res.Contracts {
		contractRec := BuildContractRecord(ca.Contract)
		car := ContractAnalysisRecord{Contract: contractRec, Skipped: ca.Skipped}

		for _, fn := range ca.Functions {
			car.Functions = append(car.Functions, buildFunctionAnalysisRecord(fn))
		}
		out.Contracts = append(out.Contracts, car)

		for _, imp := range ca.Contract.Imports {
			totalSymbols += len(imp.ImportedSymbols)
			if imp.StubCreated {
				stubbedModuleSet[imp.ModulePath] = struct{}{}
			}
			if imp.Resolved {
				resolvedModuleSet[imp.ModulePath] = struct{}{}
				resolvedMap[imp.ModulePath] = ca.Contract.FilePath
			}
		}
	}

	out.Stubs = StubReport{
		TotalStubs:      len(stubbedModuleSet),
		TotalResolved:   len(resolvedModuleSet),
		TotalSymbols:    totalSymbols,
		StubbedModules:  sortedKeys(stubbedModuleSet),
		ResolvedModules: sortedKeys(resolvedModuleSet),
		Resolved:        resolvedMap,
	}
	for _, ca := range res.Contracts {
		if !ca.Contract.IsStub() {
			continue
		}
		out.Stubs.Stubs = append(out.Stubs.Stubs, StubEntry{
			FilePathPlaceholder: ca.Contract.FilePath,
			FunctionCount:       len(ca.Contract.Functions),
			Warnings:            ca.Contract.ParseWarnings,
		})
	}

	return out
}

func buildFunctionAnalysisRecord(fn analyzer.FunctionAnalysis) FunctionAnalysisRecord {
	rec := FunctionAnalysisRecord{
		Name:  fn.FunctionName,
		Error: fn.Error,
	}

	if fn.Skipped {
		rec.HasBody = false
		rec.Warnings = append(rec.Warnings, WarningRecord{Type: "no_body", Message: fn.SkipReason})
		return rec
	}
	rec.HasBody = true

	if fn.Graph != nil {
		if len(fn.Graph.Nodes) <= 2 {
			rec.Warnings = append(rec.Warnings, WarningRecord{Type: "no_statements", Message: "function body has no analyzable statements"})
		}
		rec.Graph = buildCFGRecord(fn.Graph)
		rec.PathCount = len(fn.Paths)
	}
	rec.Dataflow = &DataflowRecord{
		DefUseChains:    buildDefUseChains(fn.DefUseChains),
		StorageAccesses: buildStorageAccesses(fn.StorageAccesses),
		ExternalCalls:   buildExternalCalls(fn.ExternalCalls),
	}
	for _, u := range fn.UninitializedUses {
		rec.Warnings = append(rec.Warnings, WarningRecord{Type: "uninitialized", Message: u.Message, Line: u.Line})
	}
	for _, u := range fn.UnusedDefinitions {
		rec.Warnings = append(rec.Warnings, WarningRecord{Type: "unused_def", Message: u.Message})
	}
	return rec
}

func buildCFGRecord(g *cfg.Graph) *CFGRecord {
	rec := &CFGRecord{
		FunctionName: g.FunctionName,
		EntryNode:    g.EntryNodeID,
		ExitNodes:    g.ExitNodeIDs,
	}
	for _, n := range g.Nodes {
		nodeRec := CFGNodeRecord{
			ID:           n.ID,
			Type:         string(n.Type),
			Successors:   n.Successors,
			Predecessors: n.Predecessors,
		}
		if n.Statement != nil {
			nodeRec.Statement = statementToMap(n.Statement)
		}
		rec.Nodes = append(rec.Nodes, nodeRec)
	}
	return rec
}

func buildDefUseChains(chains []dataflow.DefUseChain) []DefUseChainRecord {
	out := make([]DefUseChainRecord, 0, len(chains))
	for _, c := range chains {
		out = append(out, DefUseChainRecord{Variable: c.Variable, Definitions: c.Definitions, Uses: c.Uses})
	}
	return out
}

func buildStorageAccesses(accesses []dataflow.StorageAccess) []StorageAccessRecord {
	out := make([]StorageAccessRecord, 0, len(accesses))
	for _, a := range accesses {
		out = append(out, StorageAccessRecord{
			StorageVar: a.StorageVar, AccessType: a.AccessType, NodeID: a.NodeID, Line: a.Line, Value: a.Value,
		})
	}
	return out
}

func buildExternalCalls(calls []dataflow.ExternalCall) []ExternalCallRecord {
	out := make([]ExternalCallRecord, 0, len(calls))
	for _, c := range calls {
		out = append(out, ExternalCallRecord{
			FunctionName: c.FunctionName, Arguments: c.Arguments, NodeID: c.NodeID, Line: c.Line, IsExternal: c.IsExternal,
		})
	}
	return out
}

// statementToMap embeds a statement.Statement as a plain map so unset
// fields are omitted from the wire form instead of serialized as zero
// values, matching the per-kind dict shapes of spec.md §3.
func statementToMap(s *statement.Statement) map[string]any {
	m := map[string]any{
		"kind":        string(s.Kind),
		"line":        s.Line,
		"raw_text":    s.RawText,
		"block_depth": s.BlockDepth,
	}
	if s.Variable != "" {
		m["variable"] = s.Variable
	}
	if s.Expression != "" {
		m["expression"] = s.Expression
	}
	if s.IsMutable {
		m["is_mutable"] = s.IsMutable
	}
	if s.Condition != "" {
		m["condition"] = s.Condition
	}
	if s.IsElseIf {
		m["is_else_if"] = s.IsElseIf
	}
	if s.Message != "" {
		m["message"] = s.Message
	}
	if s.FunctionName != "" {
		m["function_name"] = s.FunctionName
	}
	if len(s.Arguments) > 0 {
		m["arguments"] = s.Arguments
	}
	if s.IsExternal {
		m["is_external"] = s.IsExternal
	}
	if s.StorageVar != "" {
		m["storage_var"] = s.StorageVar
	}
	if s.Value != "" {
		m["value"] = s.Value
	}
	return m
}

// ToJSON marshals a Result to indented JSON.
func ToJSON(res Result) ([]byte, error) {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshaling JSON: %w", err)
	}
	return b, nil
}

// ToYAML marshals a Result to YAML.
func ToYAML(res Result) ([]byte, error) {
	b, err := yaml.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("report: marshaling YAML: %w", err)
	}
	return b, nil
}
