package analysis

// RiskScorer composes the per-dimension findings in a SecurityAssessment
// into a single RiskScore and a set of actionable recommendations.
type RiskScorer struct{}

// NewRiskScorer returns a RiskScorer.
func NewRiskScorer() *RiskScorer { return &RiskScorer{} }

// Score sums four dimension contributions (memory, execution, syscalls,
// and suspicious-pattern count) into an overall risk level.
func (RiskScorer) Score(security SecurityAssessment) RiskScore {
	var score uint32

	memoryRisk := RiskOK
	switch {
	case anyPatternAtLevel(security.MemoryPatterns, RiskSevere):
		score += 30
		memoryRisk = RiskSevere
	case anyPatternAtLevel(security.MemoryPatterns, RiskWarning):
		score += 15
		memoryRisk = RiskWarning
	}

	executionRisk := RiskOK
	switch {
	case security.ControlFlowComplexity > 100:
		score += 25
		executionRisk = RiskSevere
	case security.ControlFlowComplexity > 50:
		score += 10
		executionRisk = RiskWarning
	}

	syscallRisk := RiskOK
	switch {
	case anySyscallAtLevel(security.SyscallFunctions, RiskSevere):
		score += 25
		syscallRisk = RiskSevere
	case anySyscallAtLevel(security.SyscallFunctions, RiskWarning):
		score += 10
		syscallRisk = RiskWarning
	}

	// A single severe pattern (an infinite loop, say) must not score as
	// zero just because the total count is low.
	complexityRisk := RiskOK
	switch {
	case len(security.SuspiciousPatterns) > 5 || anySuspiciousAtLevel(security.SuspiciousPatterns, RiskSevere):
		score += 20
		complexityRisk = RiskSevere
	case len(security.SuspiciousPatterns) > 2:
		score += 8
		complexityRisk = RiskWarning
	}

	overall := RiskOK
	switch {
	case score >= 70:
		overall = RiskSevere
	case score >= 30:
		overall = RiskWarning
	}

	return RiskScore{
		Overall:        overall,
		MemoryRisk:     memoryRisk,
		ExecutionRisk:  executionRisk,
		SyscallRisk:    syscallRisk,
		ComplexityRisk: complexityRisk,
		Score:          score,
	}
}

// ScoreFast is the cheaper variant used by the fast analysis path: the
// memory and suspicious-pattern dimensions only check whether any finding
// is present, execution only checks whether control-flow complexity exceeds
// 50, and syscalls separate a Severe-rated function from any other finding.
// It uses a lower Severe/Warning threshold to compensate for the coarser
// signal.
func (RiskScorer) ScoreFast(security SecurityAssessment) RiskScore {
	var score uint32

	memoryRisk := RiskOK
	if len(security.MemoryPatterns) > 0 {
		score += 20
		memoryRisk = RiskWarning
	}

	executionRisk := RiskOK
	if security.ControlFlowComplexity > 50 {
		score += 25
		executionRisk = RiskWarning
	}

	syscallRisk := RiskOK
	switch {
	case anySyscallAtLevel(security.SyscallFunctions, RiskSevere):
		score += 30
		syscallRisk = RiskSevere
	case len(security.SyscallFunctions) > 0:
		score += 10
		syscallRisk = RiskWarning
	}

	complexityRisk := RiskOK
	if len(security.SuspiciousPatterns) > 0 {
		score += 25
		complexityRisk = RiskSevere
	}

	overall := RiskOK
	switch {
	case score >= 60:
		overall = RiskSevere
	case score >= 25:
		overall = RiskWarning
	}

	return RiskScore{
		Overall:        overall,
		MemoryRisk:     memoryRisk,
		ExecutionRisk:  executionRisk,
		SyscallRisk:    syscallRisk,
		ComplexityRisk: complexityRisk,
		Score:          score,
	}
}

func anyPatternAtLevel(patterns []MemoryPattern, level RiskLevel) bool {
	for _, p := range patterns {
		if p.RiskLevel == level {
			return true
		}
	}
	return false
}

func anySuspiciousAtLevel(patterns []SuspiciousPattern, level RiskLevel) bool {
	for _, p := range patterns {
		if p.RiskLevel == level {
			return true
		}
	}
	return false
}

func anySyscallAtLevel(funcs []SyscallFunction, level RiskLevel) bool {
	for _, f := range funcs {
		if f.RiskLevel == level {
			return true
		}
	}
	return false
}

// GenerateRecommendations emits at least one Recommendation per non-OK risk
// dimension, plus a catch-all when the overall verdict is Severe.
func (RiskScorer) GenerateRecommendations(risk RiskScore) []Recommendation {
	var out []Recommendation

	if risk.MemoryRisk != RiskOK {
		out = append(out, Recommendation{
			Category: "Memory",
			Message:  "Module shows suspicious memory access patterns",
			Severity: risk.MemoryRisk,
			Action:   "Apply strict memory limits",
		})
	}
	if risk.ExecutionRisk != RiskOK {
		out = append(out, Recommendation{
			Category: "Execution",
			Message:  "High control flow complexity detected",
			Severity: risk.ExecutionRisk,
			Action:   "Limit execution time and instruction count",
		})
	}
	if risk.SyscallRisk != RiskOK {
		out = append(out, Recommendation{
			Category: "Syscalls",
			Message:  "Module exercises risky syscall-like functions",
			Severity: risk.SyscallRisk,
			Action:   "Restrict the syscall allow-list to the minimum required",
		})
	}
	if risk.ComplexityRisk != RiskOK {
		out = append(out, Recommendation{
			Category: "Patterns",
			Message:  "Module contains suspicious instruction patterns",
			Severity: risk.ComplexityRisk,
			Action:   "Review flagged functions before granting elevated capabilities",
		})
	}
	if risk.Overall == RiskSevere {
		out = append(out, Recommendation{
			Category: "General",
			Message:  "Module poses significant security risks",
			Severity: RiskSevere,
			Action:   "Consider rejecting or applying maximum restrictions",
		})
	}

	return out
}
