// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kraklabs/cairolens/pkg/analyzer"
	"github.com/kraklabs/cairolens/pkg/cairoir"
	"github.com/kraklabs/cairolens/pkg/extract"
	"github.com/kraklabs/cairolens/pkg/linker"
)

func TestBuildContractRecord_ShapesImportsAndSets(t *testing.T) {
	c := cairoir.NewContract("Token", "src/token.cairo", cairoir.KindContract)
	c.Imports = append(c.Imports, cairoir.Import{ModulePath: "interfaces::ierc20", Resolved: true})
	c.UnresolvedCalls["helper"] = struct{}{}
	c.StubModules["interfaces::imissing"] = cairoir.NewContract("imissing", "<stub>", cairoir.KindStub)

	rec := BuildContractRecord(c)
	if rec.Name != "Token" || rec.Kind != "contract" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Imports) != 1 || !rec.Imports[0].Resolved {
		t.Errorf("expected resolved import to survive shaping, got %+v", rec.Imports)
	}
	if len(rec.UnresolvedCalls) != 1 || rec.UnresolvedCalls[0] != "helper" {
		t.Errorf("expected unresolved call set to surface, got %v", rec.UnresolvedCalls)
	}
	if len(rec.StubModules) != 1 {
		t.Errorf("expected 1 stub module name, got %v", rec.StubModules)
	}
}

func TestBuildResult_FullPipelineRoundTrip(t *testing.T) {
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
	a := analyzer.New(nil, 0)
	analysisResult := a.Analyze(contracts)

	result := BuildResult(analysisResult)
	if len(result.Contracts) != 1 {
		t.Fatalf("expected 1 contract record, got %d", len(result.Contracts))
	}
	fn := result.Contracts[0].Functions[0]
	if !fn.HasBody {
		t.Fatalf("expected increment() to have a body, got %+v", fn)
	}
	if fn.Graph == nil || len(fn.Graph.Nodes) == 0 {
		t.Errorf("expected a CFG record, got %+v", fn.Graph)
	}
	if fn.Dataflow == nil || len(fn.Dataflow.StorageAccesses) != 2 {
		t.Errorf("expected 2 storage accesses in the dataflow record, got %+v", fn.Dataflow)
	}

	b, err := ToJSON(result)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if !strings.Contains(string(b), "\"storage_var\"") {
		t.Errorf("expected storage_var field in JSON output")
	}

	var roundTrip map[string]any
	if err := json.Unmarshal(b, &roundTrip); err != nil {
		t.Fatalf("json.Unmarshal round trip: %v", err)
	}
}

func TestBuildResult_IncludesStubReportEntry(t *testing.T) {
	src := `#[starknet::contract]
mod A {
    use crate::missing::Helper;

    #[external(v0)] fn call_helper(ref self: ContractState) {
        let x = 1;
    }
}
`
	l := linker.New()
	contracts := l.LinkFiles([]linker.FileInput{{Path: "src/a.cairo", Src: src}})

	a := analyzer.New(nil, 0)
	analysisResult := a.Analyze(contracts)

	result := BuildResult(analysisResult)

	if result.Stubs.TotalStubs != 1 {
		t.Fatalf("expected 1 stubbed module, got %d: %+v", result.Stubs.TotalStubs, result.Stubs)
	}
	if len(result.Stubs.Stubs) != 1 {
		t.Fatalf("expected exactly 1 stub report entry, got %d: %+v", len(result.Stubs.Stubs), result.Stubs.Stubs)
	}
	entry := result.Stubs.Stubs[0]
	if entry.FilePathPlaceholder != "<stub:crate::missing>" {
		t.Errorf("expected full module-path placeholder, got %q", entry.FilePathPlaceholder)
	}
	if entry.FunctionCount != 1 {
		t.Errorf("expected the stub's one synthesized function to be counted, got %d", entry.FunctionCount)
	}
	if len(entry.Warnings) != 1 {
		t.Errorf("expected the stub's creation warning to surface, got %v", entry.Warnings)
	}

	var foundStubContract bool
	for _, car := range result.Contracts {
		if car.Contract.Kind == string(cairoir.KindStub) {
			foundStubContract = true
		}
	}
	if !foundStubContract {
		t.Errorf("expected the synthesized stub contract to appear among result.Contracts, got %+v", result.Contracts)
	}
}

func TestToYAML_ProducesValidDocument(t *testing.T) {
	result := Result{Stubs: StubReport{Resolved: map[string]string{}}}
	b, err := ToYAML(result)
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	if !strings.Contains(string(b), "contracts:") {
		t.Errorf("expected a contracts key in YAML output, got %s", b)
	}
}
