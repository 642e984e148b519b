// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package linker

import (
	"testing"

	"github.com/kraklabs/cairolens/pkg/cairoir"
)

func TestLinkFiles_ResolvesLocalImport(t *testing.T) {
	a := `#[starknet::contract]
mod A {
    use crate::b::Helper;

    #[external(v0)] fn call_helper(ref self: ContractState) {
        let x = 1;
    }
}
`
	b := `#[starknet::contract]
mod Helper {
    #[external(v0)] fn helper(ref self: ContractState) {
        let y = 2;
    }
}
`
	l := New()
	contracts := l.LinkFiles([]FileInput{
		{Path: "src/a.cairo", Src: a},
		{Path: "src/b.cairo", Src: b},
	})

	var aContract *cairoir.Contract
	for _, c := range contracts {
		if c.Name == "A" {
			aContract = c
		}
	}
	if aContract == nil {
		t.Fatalf("contract A not found among %d contracts", len(contracts))
	}
	if len(aContract.Imports) != 1 {
		t.Fatalf("expected 1 import on A, got %d", len(aContract.Imports))
	}
	imp := aContract.Imports[0]
	if !imp.Resolved {
		t.Errorf("expected crate::b::Helper to resolve against the local symbol table, got %+v", imp)
	}
	if imp.StubCreated {
		t.Errorf("resolved import should not also be stub-created: %+v", imp)
	}
}

func TestLinkFiles_StubsUnresolvedImport(t *testing.T) {
	a := `#[starknet::contract]
mod A {
    use crate::b::Helper;

    #[external(v0)] fn call_helper(ref self: ContractState) {
        let x = 1;
    }
}
`
	l := New()
	contracts := l.LinkFiles([]FileInput{
		{Path: "src/a.cairo", Src: a},
	})

	if len(contracts) != 2 {
		t.Fatalf("expected A plus the synthesized stub contract, got %d: %+v", len(contracts), contracts)
	}

	var aContract, stub *cairoir.Contract
	for _, c := range contracts {
		if c.IsStub() {
			stub = c
		} else {
			aContract = c
		}
	}
	if aContract == nil || stub == nil {
		t.Fatalf("expected one non-stub and one stub contract among %+v", contracts)
	}

	imp := aContract.Imports[0]
	if imp.Resolved {
		t.Errorf("expected unresolved import, got resolved: %+v", imp)
	}
	if !imp.StubCreated {
		t.Errorf("expected a stub to be created for missing module crate::b, got %+v", imp)
	}

	if len(l.stubs) != 1 {
		t.Fatalf("expected exactly one stub registered, got %d: %v", len(l.stubs), l.stubs)
	}
	if stub.FilePath != "<stub:crate::b>" {
		t.Errorf("expected stub FilePath to be the module placeholder, got %q", stub.FilePath)
	}
	if len(stub.Functions) != 1 || stub.Functions[0].Name != "Helper" {
		t.Errorf("expected one stub function named Helper, got %+v", stub.Functions)
	}
	if !stub.Functions[0].IsStub || stub.Functions[0].Visibility != cairoir.VisibilityExternal {
		t.Errorf("stub function should be marked IsStub and external: %+v", stub.Functions[0])
	}
	if len(stub.ParseWarnings) != 1 {
		t.Errorf("expected one parse warning on the stub contract, got %v", stub.ParseWarnings)
	}
}

func TestModulePath(t *testing.T) {
	cases := []struct {
		path string
		want string
		ok   bool
	}{
		{"src/components/upgradeable.cairo", "components::upgradeable", true},
		{"src/a.cairo", "a", true},
		{"lib/no_src_ancestor.cairo", "", false},
	}
	for _, tc := range cases {
		got, ok := ModulePath(tc.path)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ModulePath(%q) = (%q, %v), want (%q, %v)", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}
