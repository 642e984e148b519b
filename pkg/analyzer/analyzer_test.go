// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyzer

import (
	"testing"

	"github.com/kraklabs/cairolens/pkg/cairoir"
	"github.com/kraklabs/cairolens/pkg/extract"
)

func TestAnalyze_SkipsStubContracts(t *testing.T) {
	stub := cairoir.NewContract("Helper", "<stub>", cairoir.KindStub)
	stub.Functions = append(stub.Functions, cairoir.Function{Name: "helper", IsStub: true})

	a := New(nil, 0)
	result := a.Analyze([]*cairoir.Contract{stub})

	if result.Summary.ContractsSkipped != 1 || result.Summary.ContractsAnalyzed != 0 {
		t.Fatalf("expected the stub contract to be skipped entirely, got summary %+v", result.Summary)
	}
}

func TestAnalyze_FunctionWithoutBodyIsSkipped(t *testing.T) {
	c := cairoir.NewContract("Counter", "src/counter.cairo", cairoir.KindContract)
	c.Functions = append(c.Functions, cairoir.Function{Name: "noop", Visibility: cairoir.VisibilityExternal})

	a := New(nil, 0)
	result := a.Analyze([]*cairoir.Contract{c})

	if len(result.Contracts) != 1 || len(result.Contracts[0].Functions) != 1 {
		t.Fatalf("expected one contract with one function analyzed, got %+v", result.Contracts)
	}
	fn := result.Contracts[0].Functions[0]
	if !fn.Skipped || fn.SkipReason != "no parsed body" {
		t.Errorf("expected function to be skipped for missing body, got %+v", fn)
	}
	if result.Summary.FunctionsSkipped != 1 {
		t.Errorf("expected 1 skipped function in summary, got %d", result.Summary.FunctionsSkipped)
	}
}

func TestAnalyze_FullPipelineOnExtractedContract(t *testing.T) {
	src := `#[starknet::contract]
mod Counter {
    #[storage]
    struct Storage {
        value: felt252,
    }

    #[external(v0)] fn increment(ref self: ContractState) {
        let v = self.value.read();
        self.value.write(v + 1);
    }
}
`
	contracts := extract.ExtractContracts(src, "src/counter.cairo")
	if len(contracts) != 1 {
		t.Fatalf("expected 1 contract from extraction, got %d", len(contracts))
	}

	a := New(nil, 0)
	result := a.Analyze(contracts)

	if result.Summary.FunctionsAnalyzed != 1 {
		t.Fatalf("expected 1 function analyzed, got %d", result.Summary.FunctionsAnalyzed)
	}
	fn := result.Contracts[0].Functions[0]
	if fn.Skipped {
		t.Fatalf("did not expect increment() to be skipped: %+v", fn)
	}
	if len(fn.StorageAccesses) != 2 {
		t.Errorf("expected a storage read and a storage write, got %+v", fn.StorageAccesses)
	}
	if fn.Graph == nil || len(fn.Graph.Nodes) == 0 {
		t.Errorf("expected a non-empty CFG, got %+v", fn.Graph)
	}
	if len(fn.Paths) != 1 {
		t.Errorf("expected 1 straight-line entry-exit path, got %d: %v", len(fn.Paths), fn.Paths)
	}
}

func TestAnalyze_SummaryAggregatesWarningsAndErrors(t *testing.T) {
	c := cairoir.NewContract("Counter", "src/counter.cairo", cairoir.KindContract)
	c.Functions = append(c.Functions, cairoir.Function{Name: "noop", Visibility: cairoir.VisibilityExternal})

	a := New(nil, 0)
	result := a.Analyze([]*cairoir.Contract{c})

	if result.Summary.TotalWarnings != 1 {
		t.Errorf("expected the skipped no-body function to count as 1 warning, got %d", result.Summary.TotalWarnings)
	}
	if result.Summary.TotalErrors != 0 {
		t.Errorf("expected no errors for a function that was merely skipped, got %d", result.Summary.TotalErrors)
	}
}

func TestAnalyze_WithMaxPathsCapsEnumeration(t *testing.T) {
	src := `#[starknet::contract]
mod Branchy {
    #[external(v0)] fn pick(ref self: ContractState, x: felt252) {
        if x > 0 {
            let y = 1;
        } else {
            let y = 2;
        }
    }
}
`
	contracts := extract.ExtractContracts(src, "src/branchy.cairo")
	a := New(nil, 0).WithMaxPaths(1)
	result := a.Analyze(contracts)

	fn := result.Contracts[0].Functions[0]
	if len(fn.Paths) != 1 {
		t.Fatalf("expected WithMaxPaths(1) to cap enumeration at 1 path, got %d", len(fn.Paths))
	}
}
