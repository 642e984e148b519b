// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cfg

import "github.com/kraklabs/cairolens/pkg/statement"

// Builder turns a flat statement stream into a Graph. A Builder is
// single-use: call Build once per function.
type Builder struct {
	nodeCounter int
	graph       *Graph
}

// NewBuilder returns a fresh Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build constructs the control flow graph for functionName's statement
// stream. An empty stream produces an entry node wired directly to exit.
func (b *Builder) Build(functionName string, statements []statement.Statement) *Graph {
	b.graph = &Graph{FunctionName: functionName}
	b.nodeCounter = 0

	entry := b.createNode(NodeEntry, nil)
	b.graph.EntryNodeID = entry.ID

	exit := b.createNode(NodeExit, nil)
	b.graph.ExitNodeIDs = append(b.graph.ExitNodeIDs, exit.ID)

	if len(statements) == 0 {
		b.graph.AddEdge(entry.ID, exit.ID)
		return b.graph
	}

	currentID := b.buildSequential(statements, entry.ID, exit.ID, 0)
	if currentID != nil {
		b.graph.AddEdge(*currentID, exit.ID)
	}

	return b.graph
}

func (b *Builder) createNode(t NodeType, stmt *statement.Statement) *Node {
	node := Node{ID: b.nodeCounter, Type: t, Statement: stmt}
	b.nodeCounter++
	b.graph.Nodes = append(b.graph.Nodes, node)
	return &b.graph.Nodes[len(b.graph.Nodes)-1]
}

// buildSequential walks statements from startIdx, wiring each into the
// graph in order, and returns the ID of the last live node, or nil if the
// sequence terminated (a return was hit).
func (b *Builder) buildSequential(statements []statement.Statement, currentID, exitID int, startIdx int) *int {
	i := startIdx
	for i < len(statements) {
		stmt := statements[i]

		switch stmt.Kind {
		case statement.KindIf:
			var mergeID int
			mergeID, i = b.buildIf(statements, i, currentID, exitID)
			currentID = mergeID
		case statement.KindMatch:
			var mergeID int
			mergeID, i = b.buildMatch(statements, i, currentID, exitID)
			currentID = mergeID
		case statement.KindReturn:
			returnNode := b.createNode(NodeStmt, &statements[i])
			b.graph.AddEdge(currentID, returnNode.ID)
			b.graph.AddEdge(returnNode.ID, exitID)
			return nil
		default:
			stmtNode := b.createNode(NodeStmt, &statements[i])
			b.graph.AddEdge(currentID, stmtNode.ID)
			currentID = stmtNode.ID
		}

		i++
	}

	return &currentID
}

// buildIf wires a branch node for the if condition, recurses into the
// then/else blocks (extracted via block depth), and returns the merge
// node plus the index the caller should resume from (one before the next
// statement, since the sequential loop increments it).
func (b *Builder) buildIf(statements []statement.Statement, ifIdx, currentID, exitID int) (int, int) {
	ifStmt := statements[ifIdx]
	ifDepth := ifStmt.BlockDepth

	branchNode := b.createNode(NodeBranch, &statements[ifIdx])
	b.graph.AddEdge(currentID, branchNode.ID)

	thenBlock, elseBlock, nextIdx := extractIfBlocks(statements, ifIdx, ifDepth)

	mergeNode := b.createNode(NodeMerge, nil)

	if len(thenBlock) > 0 {
		thenLast := b.buildSequential(thenBlock, branchNode.ID, exitID, 0)
		if thenLast != nil {
			b.graph.AddEdge(*thenLast, mergeNode.ID)
		}
	} else {
		b.graph.AddEdge(branchNode.ID, mergeNode.ID)
	}

	if elseBlock != nil {
		elseLast := b.buildSequential(elseBlock, branchNode.ID, exitID, 0)
		if elseLast != nil {
			b.graph.AddEdge(*elseLast, mergeNode.ID)
		}
	} else {
		b.graph.AddEdge(branchNode.ID, mergeNode.ID)
	}

	return mergeNode.ID, nextIdx - 1
}

// buildMatch wires a branch node for the match expression and treats the
// entire match body (everything until depth drops back to the match's own
// depth) as a single sequential block, merging at the end.
func (b *Builder) buildMatch(statements []statement.Statement, matchIdx, currentID, exitID int) (int, int) {
	matchStmt := statements[matchIdx]
	matchDepth := matchStmt.BlockDepth

	branchNode := b.createNode(NodeBranch, &statements[matchIdx])
	b.graph.AddEdge(currentID, branchNode.ID)

	mergeNode := b.createNode(NodeMerge, nil)

	nextIdx := len(statements)
	for i := matchIdx + 1; i < len(statements); i++ {
		if statements[i].BlockDepth <= matchDepth {
			nextIdx = i
			break
		}
	}

	matchBody := statements[matchIdx+1 : nextIdx]

	if len(matchBody) > 0 {
		bodyLast := b.buildSequential(matchBody, branchNode.ID, exitID, 0)
		if bodyLast != nil {
			b.graph.AddEdge(*bodyLast, mergeNode.ID)
		}
	} else {
		b.graph.AddEdge(branchNode.ID, mergeNode.ID)
	}

	return mergeNode.ID, nextIdx - 1
}

// extractIfBlocks splits statements[ifIdx+1:] into a then-block and an
// optional else-block, using block depth to find each block's extent: a
// statement belongs to the then-block until depth drops back to ifDepth or
// an else at exactly ifDepth is seen, and to the else-block similarly.
func extractIfBlocks(statements []statement.Statement, ifIdx, ifDepth int) ([]statement.Statement, []statement.Statement, int) {
	var thenBlock []statement.Statement
	var elseBlock []statement.Statement
	elseIdx := -1

	i := ifIdx + 1
	for i < len(statements) {
		stmt := statements[i]

		if stmt.Kind == statement.KindElse && stmt.BlockDepth == ifDepth {
			elseIdx = i
			break
		}
		if stmt.BlockDepth <= ifDepth {
			break
		}

		thenBlock = append(thenBlock, stmt)
		i++
	}

	if elseIdx != -1 {
		i = elseIdx + 1
		for i < len(statements) {
			stmt := statements[i]
			if stmt.BlockDepth <= ifDepth {
				break
			}
			elseBlock = append(elseBlock, stmt)
			i++
		}
	}

	return thenBlock, elseBlock, i
}

// ComputeDominators returns, for each node ID, the set of node IDs that
// dominate it: an iterative fixpoint over "dom(n) = {n} union
// intersection(dom(p) for p in preds(n))", seeded with dom(entry) =
// {entry} and dom(n) = all-nodes for everything else.
func ComputeDominators(g *Graph) map[int]map[int]struct{} {
	if g == nil || len(g.Nodes) == 0 {
		return map[int]map[int]struct{}{}
	}

	allNodes := make(map[int]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		allNodes[n.ID] = struct{}{}
	}

	dominators := make(map[int]map[int]struct{}, len(g.Nodes))
	dominators[g.EntryNodeID] = map[int]struct{}{g.EntryNodeID: {}}
	for _, n := range g.Nodes {
		if n.ID == g.EntryNodeID {
			continue
		}
		dominators[n.ID] = cloneSet(allNodes)
	}

	changed := true
	for changed {
		changed = false
		for _, n := range g.Nodes {
			if n.ID == g.EntryNodeID {
				continue
			}

			newDom := map[int]struct{}{n.ID: {}}
			if len(n.Predecessors) > 0 {
				intersection := cloneSet(dominators[n.Predecessors[0]])
				for _, predID := range n.Predecessors[1:] {
					intersection = intersectSets(intersection, dominators[predID])
				}
				for id := range intersection {
					newDom[id] = struct{}{}
				}
			}

			if !setsEqual(newDom, dominators[n.ID]) {
				dominators[n.ID] = newDom
				changed = true
			}
		}
	}

	return dominators
}

func cloneSet(s map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func intersectSets(a, b map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for k := range a {
		if _, ok := b[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

func setsEqual(a, b map[int]struct{}) bool {
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

const defaultMaxPaths = 100

// EnumeratePaths enumerates entry-to-exit paths via DFS, breaking cycles
// with a per-path visited set and stopping once maxPaths paths have been
// found. maxPaths <= 0 uses the default of 100.
func EnumeratePaths(g *Graph, maxPaths int) [][]int {
	if g == nil {
		return nil
	}
	if maxPaths <= 0 {
		maxPaths = defaultMaxPaths
	}

	var paths [][]int
	dfsPaths(g, g.EntryNodeID, nil, map[int]struct{}{}, &paths, maxPaths)
	return paths
}

func dfsPaths(g *Graph, currentID int, currentPath []int, visited map[int]struct{}, paths *[][]int, maxPaths int) {
	if len(*paths) >= maxPaths {
		return
	}

	path := append(append([]int{}, currentPath...), currentID)
	seen := cloneSet(visited)
	seen[currentID] = struct{}{}

	if isExitNode(g, currentID) {
		*paths = append(*paths, path)
		return
	}

	node := g.Node(currentID)
	if node == nil {
		return
	}
	for _, succID := range node.Successors {
		if _, ok := seen[succID]; !ok {
			dfsPaths(g, succID, path, seen, paths, maxPaths)
		}
	}
}

func isExitNode(g *Graph, id int) bool {
	for _, exitID := range g.ExitNodeIDs {
		if exitID == id {
			return true
		}
	}
	return false
}
