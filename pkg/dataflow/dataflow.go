// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dataflow runs def-use, storage-access, external-call, and
// reaching-definitions analyses over a cfg.Graph, and derives two lint
// warnings from them: possibly-uninitialized uses and unused definitions.
package dataflow

import (
	"fmt"
	"sort"

	"github.com/kraklabs/cairolens/pkg/cfg"
	"github.com/kraklabs/cairolens/pkg/statement"
)

// DefUseChain records every node that defines and every node that uses a
// given variable name.
type DefUseChain struct {
	Variable    string
	Definitions []int
	Uses        []int
}

// StorageAccess is one read or write of a contract storage variable.
type StorageAccess struct {
	StorageVar string
	AccessType string // "read" or "write"
	NodeID     int
	Line       int
	Value      string // set for writes only
}

// ExternalCall is one function-call statement, flagged external or not by
// the same dispatcher/:: heuristic the statement parser uses.
type ExternalCall struct {
	FunctionName string
	Arguments    []string
	NodeID       int
	Line         int
	IsExternal   bool
}

// UninitializedUse is a lint warning: a variable used at a node with no
// reaching definition.
type UninitializedUse struct {
	Variable string
	NodeID   int
	Line     int
	Message  string
}

// UnusedDefinition is a lint warning: a variable defined but never used
// anywhere in the function.
type UnusedDefinition struct {
	Variable        string
	DefinitionNodes []int
	Message         string
}

// defUseKey identifies one reaching definition: the variable name and the
// node ID where it was defined.
type defUseKey struct {
	variable string
	nodeID   int
}

// Analyzer runs dataflow analyses over a single function's CFG.
type Analyzer struct {
	graph *cfg.Graph
}

// New returns an Analyzer bound to graph.
func New(graph *cfg.Graph) *Analyzer {
	return &Analyzer{graph: graph}
}

// DefUseChains returns one chain per variable name referenced anywhere in
// the function, sorted alphabetically by variable name.
func (a *Analyzer) DefUseChains() []DefUseChain {
	varDefs := make(map[string][]int)
	varUses := make(map[string][]int)

	for _, node := range a.graph.Nodes {
		if node.Statement == nil {
			continue
		}
		for _, v := range statement.ExtractVariablesDefined(*node.Statement) {
			varDefs[v] = append(varDefs[v], node.ID)
		}
		for _, v := range statement.ExtractVariablesUsed(*node.Statement) {
			varUses[v] = append(varUses[v], node.ID)
		}
	}

	allVars := make(map[string]struct{}, len(varDefs)+len(varUses))
	for v := range varDefs {
		allVars[v] = struct{}{}
	}
	for v := range varUses {
		allVars[v] = struct{}{}
	}

	names := make([]string, 0, len(allVars))
	for v := range allVars {
		names = append(names, v)
	}
	sort.Strings(names)

	chains := make([]DefUseChain, 0, len(names))
	for _, v := range names {
		chains = append(chains, DefUseChain{
			Variable:    v,
			Definitions: varDefs[v],
			Uses:        varUses[v],
		})
	}
	return chains
}

// StorageAccesses returns every storage read/write statement in the
// function, in node order.
func (a *Analyzer) StorageAccesses() []StorageAccess {
	var accesses []StorageAccess
	for _, node := range a.graph.Nodes {
		if node.Statement == nil {
			continue
		}
		switch node.Statement.Kind {
		case statement.KindStorageRead:
			accesses = append(accesses, StorageAccess{
				StorageVar: node.Statement.StorageVar,
				AccessType: "read",
				NodeID:     node.ID,
				Line:       node.Statement.Line,
			})
		case statement.KindStorageWrite:
			accesses = append(accesses, StorageAccess{
				StorageVar: node.Statement.StorageVar,
				AccessType: "write",
				NodeID:     node.ID,
				Line:       node.Statement.Line,
				Value:      node.Statement.Value,
			})
		}
	}
	return accesses
}

// ExternalCalls returns every call statement in the function, in node
// order.
func (a *Analyzer) ExternalCalls() []ExternalCall {
	var calls []ExternalCall
	for _, node := range a.graph.Nodes {
		if node.Statement == nil || node.Statement.Kind != statement.KindCall {
			continue
		}
		calls = append(calls, ExternalCall{
			FunctionName: node.Statement.FunctionName,
			Arguments:    node.Statement.Arguments,
			NodeID:       node.ID,
			Line:         node.Statement.Line,
			IsExternal:   node.Statement.IsExternal,
		})
	}
	return calls
}

// ReachingDefinitions computes, for each node, the set of (variable,
// defining-node-ID) pairs that may reach it: a forward iterative fixpoint
// over in[n] = union(out[p] for p in preds(n)), out[n] = gen[n] union
// (in[n] - kill[n]), capped at 100 iterations.
func (a *Analyzer) ReachingDefinitions() map[int]map[defUseKey]struct{} {
	reachingIn := make(map[int]map[defUseKey]struct{}, len(a.graph.Nodes))
	reachingOut := make(map[int]map[defUseKey]struct{}, len(a.graph.Nodes))
	for _, node := range a.graph.Nodes {
		reachingIn[node.ID] = map[defUseKey]struct{}{}
		reachingOut[node.ID] = map[defUseKey]struct{}{}
	}

	const maxIterations = 100
	changed := true
	iterations := 0

	for changed && iterations < maxIterations {
		changed = false
		iterations++

		for _, node := range a.graph.Nodes {
			newIn := map[defUseKey]struct{}{}
			for _, predID := range node.Predecessors {
				for k := range reachingOut[predID] {
					newIn[k] = struct{}{}
				}
			}
			if !keySetEqual(newIn, reachingIn[node.ID]) {
				reachingIn[node.ID] = newIn
				changed = true
			}

			gen := genDefinitions(node)
			kill := killDefinitions(node, reachingIn[node.ID])

			newOut := map[defUseKey]struct{}{}
			for k := range gen {
				newOut[k] = struct{}{}
			}
			for k := range reachingIn[node.ID] {
				if _, killed := kill[k]; !killed {
					newOut[k] = struct{}{}
				}
			}
			if !keySetEqual(newOut, reachingOut[node.ID]) {
				reachingOut[node.ID] = newOut
				changed = true
			}
		}
	}

	return reachingIn
}

func genDefinitions(node cfg.Node) map[defUseKey]struct{} {
	gen := map[defUseKey]struct{}{}
	if node.Statement == nil {
		return gen
	}
	for _, v := range statement.ExtractVariablesDefined(*node.Statement) {
		gen[defUseKey{variable: v, nodeID: node.ID}] = struct{}{}
	}
	return gen
}

func killDefinitions(node cfg.Node, reaching map[defUseKey]struct{}) map[defUseKey]struct{} {
	kill := map[defUseKey]struct{}{}
	if node.Statement == nil {
		return kill
	}

	defined := make(map[string]struct{})
	for _, v := range statement.ExtractVariablesDefined(*node.Statement) {
		defined[v] = struct{}{}
	}

	for k := range reaching {
		if _, redefined := defined[k.variable]; redefined && k.nodeID != node.ID {
			kill[k] = struct{}{}
		}
	}
	return kill
}

func keySetEqual(a, b map[defUseKey]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// UninitializedUses flags every (variable, node) pair where the variable
// is used but no definition of it reaches that node.
func (a *Analyzer) UninitializedUses() []UninitializedUse {
	var warnings []UninitializedUse
	reaching := a.ReachingDefinitions()

	for _, node := range a.graph.Nodes {
		if node.Statement == nil {
			continue
		}
		used := statement.ExtractVariablesUsed(*node.Statement)
		for _, v := range used {
			hasDefinition := false
			for k := range reaching[node.ID] {
				if k.variable == v {
					hasDefinition = true
					break
				}
			}
			if !hasDefinition {
				warnings = append(warnings, UninitializedUse{
					Variable: v,
					NodeID:   node.ID,
					Line:     node.Statement.Line,
					Message:  fmt.Sprintf("Variable '%s' may be used before initialization", v),
				})
			}
		}
	}

	return warnings
}

// UnusedDefinitions flags every variable that is defined somewhere but
// never used anywhere in the function.
func (a *Analyzer) UnusedDefinitions() []UnusedDefinition {
	var warnings []UnusedDefinition
	for _, chain := range a.DefUseChains() {
		if len(chain.Definitions) > 0 && len(chain.Uses) == 0 {
			warnings = append(warnings, UnusedDefinition{
				Variable:        chain.Variable,
				DefinitionNodes: chain.Definitions,
				Message:         fmt.Sprintf("Variable '%s' is defined but never used", chain.Variable),
			})
		}
	}
	return warnings
}
