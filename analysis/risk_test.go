package analysis

import "testing"

func TestRiskScorer_AllClear(t *testing.T) {
	score := NewRiskScorer().Score(SecurityAssessment{})
	if score.Overall != RiskOK || score.Score != 0 {
		t.Errorf("Score(empty) = %+v, want overall OK with score 0", score)
	}
}

func TestRiskScorer_SevereSuspiciousPatternEscalates(t *testing.T) {
	security := SecurityAssessment{
		MemoryPatterns: []MemoryPattern{
			{PatternType: "MemoryGrowth", RiskLevel: RiskWarning},
		},
		SuspiciousPatterns: []SuspiciousPattern{
			{PatternName: "InfiniteLoop", RiskLevel: RiskSevere},
		},
	}

	score := NewRiskScorer().Score(security)
	if score.Overall == RiskOK {
		t.Errorf("Score() overall = OK, want at least Warning for a severe pattern; score = %d", score.Score)
	}
	if score.ComplexityRisk != RiskSevere {
		t.Errorf("ComplexityRisk = %v, want Severe", score.ComplexityRisk)
	}
}

func TestRiskScorer_DimensionThresholds(t *testing.T) {
	tests := []struct {
		name     string
		security SecurityAssessment
		overall  RiskLevel
	}{
		{
			"high complexity alone",
			SecurityAssessment{ControlFlowComplexity: 150},
			RiskOK, // 25 < 30
		},
		{
			"severe memory plus severe syscall",
			SecurityAssessment{
				MemoryPatterns:   []MemoryPattern{{RiskLevel: RiskSevere}},
				SyscallFunctions: []SyscallFunction{{Name: "exec_cmd", RiskLevel: RiskSevere}},
			},
			RiskWarning, // 30 + 25 = 55
		},
		{
			"everything severe",
			SecurityAssessment{
				MemoryPatterns:        []MemoryPattern{{RiskLevel: RiskSevere}},
				ControlFlowComplexity: 150,
				SyscallFunctions:      []SyscallFunction{{RiskLevel: RiskSevere}},
				SuspiciousPatterns: []SuspiciousPattern{
					{RiskLevel: RiskSevere}, {RiskLevel: RiskSevere}, {RiskLevel: RiskSevere},
					{RiskLevel: RiskSevere}, {RiskLevel: RiskSevere}, {RiskLevel: RiskSevere},
				},
			},
			RiskSevere, // 30 + 25 + 25 + 20 = 100
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := NewRiskScorer().Score(tt.security)
			if score.Overall != tt.overall {
				t.Errorf("Score() overall = %v (score %d), want %v", score.Overall, score.Score, tt.overall)
			}
		})
	}
}

func TestGenerateRecommendations_OnePerDimension(t *testing.T) {
	risk := RiskScore{
		Overall:        RiskSevere,
		MemoryRisk:     RiskSevere,
		ExecutionRisk:  RiskWarning,
		SyscallRisk:    RiskSevere,
		ComplexityRisk: RiskWarning,
	}

	recs := NewRiskScorer().GenerateRecommendations(risk)
	if len(recs) != 5 {
		t.Fatalf("GenerateRecommendations() produced %d entries, want 5 (4 dimensions + severe catch-all)", len(recs))
	}

	categories := make(map[string]bool)
	for _, r := range recs {
		categories[r.Category] = true
	}
	for _, want := range []string{"Memory", "Execution", "Syscalls", "Patterns", "General"} {
		if !categories[want] {
			t.Errorf("missing recommendation category %q", want)
		}
	}
}

func TestGenerateRecommendations_EmptyWhenOK(t *testing.T) {
	if recs := NewRiskScorer().GenerateRecommendations(RiskScore{}); len(recs) != 0 {
		t.Errorf("GenerateRecommendations(all OK) = %+v, want none", recs)
	}
}
