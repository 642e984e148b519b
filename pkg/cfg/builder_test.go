// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package cfg

import (
	"testing"

	"github.com/kraklabs/cairolens/pkg/statement"
)

func TestBuild_EmptyFunction(t *testing.T) {
	g := NewBuilder().Build("empty", nil)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected entry+exit only, got %d nodes", len(g.Nodes))
	}
	entry := g.Node(g.EntryNodeID)
	if len(entry.Successors) != 1 || entry.Successors[0] != g.ExitNodeIDs[0] {
		t.Errorf("expected entry to wire directly to exit, got %+v", entry)
	}
}

func TestBuild_IfElseMerges(t *testing.T) {
	body := `if x > 0 {
    let y = 1;
} else {
    let y = 2;
}
let z = y;
`
	stmts := statement.Parse(body, 1)
	g := NewBuilder().Build("f", stmts)

	var branchCount, mergeCount, exitPreds int
	for _, n := range g.Nodes {
		switch n.Type {
		case NodeBranch:
			branchCount++
		case NodeMerge:
			mergeCount++
		}
	}
	if branchCount != 1 {
		t.Errorf("expected exactly 1 branch node, got %d", branchCount)
	}
	if mergeCount != 1 {
		t.Errorf("expected exactly 1 merge node, got %d", mergeCount)
	}

	exitNode := g.Node(g.ExitNodeIDs[0])
	exitPreds = len(exitNode.Predecessors)
	if exitPreds != 1 {
		t.Errorf("expected exit to have exactly 1 predecessor (the trailing statement), got %d", exitPreds)
	}
}

func TestBuild_ReturnTerminatesPath(t *testing.T) {
	body := `if x > 0 {
    return 1;
}
let z = 2;
`
	stmts := statement.Parse(body, 1)
	g := NewBuilder().Build("f", stmts)

	exitNode := g.Node(g.ExitNodeIDs[0])
	if len(exitNode.Predecessors) != 2 {
		t.Fatalf("expected 2 predecessors on exit (return + merge->z's implicit edge), got %d: %+v", len(exitNode.Predecessors), exitNode)
	}
}

func TestEnumeratePaths_RespectsMaxPaths(t *testing.T) {
	body := `if a > 0 {
    let x = 1;
} else {
    let x = 2;
}
`
	stmts := statement.Parse(body, 1)
	g := NewBuilder().Build("f", stmts)

	paths := EnumeratePaths(g, 1)
	if len(paths) != 1 {
		t.Errorf("expected EnumeratePaths to stop at maxPaths=1, got %d", len(paths))
	}

	allPaths := EnumeratePaths(g, 0)
	if len(allPaths) != 2 {
		t.Errorf("expected 2 distinct entry-exit paths through the if/else, got %d: %v", len(allPaths), allPaths)
	}
}

func TestComputeDominators_EntryDominatesAll(t *testing.T) {
	body := `let x = 1;
let y = 2;
`
	stmts := statement.Parse(body, 1)
	g := NewBuilder().Build("f", stmts)

	doms := ComputeDominators(g)
	for _, n := range g.Nodes {
		if _, ok := doms[n.ID][g.EntryNodeID]; !ok {
			t.Errorf("expected entry node %d to dominate node %d, dominators were %v", g.EntryNodeID, n.ID, doms[n.ID])
		}
	}
}
