// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package statement

import "testing"

func TestParse_BasicKinds(t *testing.T) {
	body := `let v = self.value.read();
self.value.write(v + 1);
if v > 0 {
    return v;
} else {
    return 0;
}
assert(v != 0);
helper(v);
`
	stmts := Parse(body, 1)

	want := []Kind{
		KindStorageRead,
		KindStorageWrite,
		KindIf,
		KindReturn,
		KindElse,
		KindReturn,
		KindAssert,
		KindCall,
	}
	if len(stmts) != len(want) {
		t.Fatalf("expected %d statements, got %d: %+v", len(want), len(stmts), stmts)
	}
	for i, k := range want {
		if stmts[i].Kind != k {
			t.Errorf("statement %d: got kind %s, want %s (%+v)", i, stmts[i].Kind, k, stmts[i])
		}
	}

	// Any line containing "self." is checked against storage_read/write
	// before anything else, so the let-binding wrapper around a storage
	// read is classified purely as a storage read.
	if stmts[0].StorageVar != "value" {
		t.Errorf("expected storage read of value, got %+v", stmts[0])
	}
	if stmts[1].StorageVar != "value" || stmts[1].Value != "v + 1" {
		t.Errorf("unexpected storage write: %+v", stmts[1])
	}
}

func TestParse_BlockDepth(t *testing.T) {
	body := `if x > 0 {
    let y = 1;
}
`
	stmts := Parse(body, 1)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %+v", len(stmts), stmts)
	}
	if stmts[0].Kind != KindIf || stmts[0].BlockDepth != 0 {
		t.Errorf("if statement should report the depth before its own brace: %+v", stmts[0])
	}
	if stmts[1].Kind != KindLetBinding || stmts[1].BlockDepth != 1 {
		t.Errorf("let binding inside the if-block should report depth 1: %+v", stmts[1])
	}
}

func TestExtractVariablesUsedAndDefined(t *testing.T) {
	stmts := Parse("let total = a + b;\n", 1)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	used := ExtractVariablesUsed(stmts[0])
	if len(used) != 2 || used[0] != "a" || used[1] != "b" {
		t.Errorf("expected [a b], got %v", used)
	}
	defined := ExtractVariablesDefined(stmts[0])
	if len(defined) != 1 || defined[0] != "total" {
		t.Errorf("expected [total], got %v", defined)
	}
}

func TestParse_CallIsExternalHeuristic(t *testing.T) {
	stmts := Parse("IERC20Dispatcher::transfer(recipient, amount);\n", 1)
	if len(stmts) != 1 || stmts[0].Kind != KindCall {
		t.Fatalf("expected a single call statement, got %+v", stmts)
	}
	if !stmts[0].IsExternal {
		t.Errorf("expected is_external heuristic (dispatcher/::) to fire: %+v", stmts[0])
	}
}
