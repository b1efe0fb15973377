package analysis

import (
	"testing"

	"wasmguard/wasmmodule"
)

func TestAnalyze_InfiniteLoopModule(t *testing.T) {
	mod := moduleWithBody([]byte{0x03, 0x40, 0x0C, 0x00, 0x0B})

	result, err := NewAnalyzer().Analyze(mod)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	var found bool
	for _, p := range result.SecurityAssessment.SuspiciousPatterns {
		if p.PatternName == "InfiniteLoop" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Analyze() found no InfiniteLoop pattern; got %+v", result.SecurityAssessment.SuspiciousPatterns)
	}
	if result.RiskScore.Overall == RiskOK {
		t.Errorf("RiskScore.Overall = OK, want Warning or Severe for an infinite-loop module (score %d)",
			result.RiskScore.Score)
	}
}

func TestAnalyze_CleanModule(t *testing.T) {
	mod := &wasmmodule.Module{
		Types:     []wasmmodule.FunctionType{{Results: []wasmmodule.ValueType{wasmmodule.I32}}},
		Functions: []wasmmodule.Function{{TypeIdx: 0}},
		Exports:   []wasmmodule.Export{{Name: "compute", Kind: wasmmodule.ExportFunction, Index: 0}},
		Code:      []wasmmodule.CodeSection{{Body: []byte{0x41, 0x01, 0x0B}}}, // i32.const 1; end
	}

	result, err := NewAnalyzer().Analyze(mod)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.RiskScore.Overall != RiskOK {
		t.Errorf("RiskScore.Overall = %v, want OK for a trivial module", result.RiskScore.Overall)
	}
	if result.ModuleInfo.FunctionCount != 1 || result.ModuleInfo.ExportCount != 1 {
		t.Errorf("unexpected ModuleInfo: %+v", result.ModuleInfo)
	}
}

func TestModuleHash_DeterministicAndSensitive(t *testing.T) {
	modA := moduleWithBody([]byte{0x41, 0x01, 0x0B})
	modB := moduleWithBody([]byte{0x41, 0x02, 0x0B})

	h1, err := ModuleHash(modA)
	if err != nil {
		t.Fatalf("ModuleHash() error = %v", err)
	}
	h2, err := ModuleHash(moduleWithBody([]byte{0x41, 0x01, 0x0B}))
	if err != nil {
		t.Fatalf("ModuleHash() error = %v", err)
	}
	if h1 != h2 {
		t.Error("ModuleHash() must be deterministic for equal modules")
	}

	h3, err := ModuleHash(modB)
	if err != nil {
		t.Fatalf("ModuleHash() error = %v", err)
	}
	if h1 == h3 {
		t.Error("ModuleHash() should change when a code body changes")
	}
}

func TestAnalyzeFast_FlagsCriticalPattern(t *testing.T) {
	mod := moduleWithBody([]byte{0x03, 0x40, 0x0C, 0x00, 0x0B})

	result, err := NewAnalyzer().AnalyzeFast(mod)
	if err != nil {
		t.Fatalf("AnalyzeFast() error = %v", err)
	}
	if len(result.SecurityAssessment.SuspiciousPatterns) == 0 {
		t.Fatal("AnalyzeFast() should flag the critical infinite-loop pattern")
	}
	if result.RiskScore.Overall == RiskOK {
		t.Errorf("AnalyzeFast() overall = OK, want Warning or Severe (score %d)", result.RiskScore.Score)
	}
}
