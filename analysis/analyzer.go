package analysis

import (
	"strings"
	"time"

	"github.com/mitchellh/hashstructure/v2"

	"wasmguard/wasmmodule"
)

// Analyzer runs the full static-analysis pipeline (pattern matching,
// security assessment, capability inference, risk scoring) over a decoded
// module and produces one AnalysisResult.
type Analyzer struct {
	security   *SecurityAnalyzer
	capability *CapabilityInferrer
	risk       *RiskScorer
}

// NewAnalyzer returns an Analyzer with a fresh SecurityAnalyzer and
// CapabilityInferrer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		security:   NewSecurityAnalyzer(),
		capability: NewCapabilityInferrer(),
		risk:       NewRiskScorer(),
	}
}

// Analyze runs the complete pipeline and stamps the elapsed wall time and
// module hash onto the result.
func (a *Analyzer) Analyze(mod *wasmmodule.Module) (AnalysisResult, error) {
	start := time.Now()

	info := moduleInfo(mod)
	security := a.security.Analyze(mod)
	capabilities := a.capability.Infer(mod, security)
	score := a.risk.Score(security)
	recommendations := a.risk.GenerateRecommendations(score)

	hash, err := ModuleHash(mod)
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		ModuleInfo:             info,
		SecurityAssessment:     security,
		CapabilityRequirements: capabilities,
		RiskScore:              score,
		Recommendations:        recommendations,
		AnalysisTime:           time.Since(start),
		ModuleHash:             hash,
	}, nil
}

// AnalyzeFast runs the cheaper pipeline variant: quick complexity counting,
// a single critical-pattern check per function body, and the coarser
// ScoreFast rollup. It trades precision for speed on the hot path (e.g. a
// first-pass triage before the full Analyze runs).
func (a *Analyzer) AnalyzeFast(mod *wasmmodule.Module) (AnalysisResult, error) {
	start := time.Now()

	info := moduleInfo(mod)
	security := a.fastSecurityAssessment(mod)
	capabilities := a.fastCapabilityInference(mod, security)
	score := a.risk.ScoreFast(security)
	recommendations := a.risk.GenerateRecommendations(score)

	hash, err := ModuleHash(mod)
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		ModuleInfo:             info,
		SecurityAssessment:     security,
		CapabilityRequirements: capabilities,
		RiskScore:              score,
		Recommendations:        recommendations,
		AnalysisTime:           time.Since(start),
		ModuleHash:             hash,
	}, nil
}

func moduleInfo(mod *wasmmodule.Module) ModuleInfo {
	var memPages *uint32
	if mod.Memory != nil {
		min := mod.Memory.Min
		memPages = &min
	}
	return ModuleInfo{
		FunctionCount: len(mod.Functions),
		ExportCount:   len(mod.Exports),
		MemoryPages:   memPages,
	}
}

func (a *Analyzer) fastSecurityAssessment(mod *wasmmodule.Module) SecurityAssessment {
	var memoryPatterns []MemoryPattern
	var suspicious []SuspiciousPattern
	var syscallFuncs []SyscallFunction
	var complexity uint32

	for funcIdx, code := range mod.Code {
		complexity += quickComplexity(code.Body)
		if containsInfiniteLoopPattern(code.Body) {
			suspicious = append(suspicious, SuspiciousPattern{
				PatternName:       "CriticalPattern",
				FunctionIndex:     uint32(funcIdx),
				InstructionOffset: 0,
				Description:       "Critical security pattern detected",
				RiskLevel:         RiskSevere,
			})
		}
		if containsByte(code.Body, 0x40) {
			memoryPatterns = append(memoryPatterns, MemoryPattern{
				PatternType: "MemoryGrowth",
				Locations:   []uint32{uint32(funcIdx)},
				RiskLevel:   RiskWarning,
				Description: "Memory growth detected",
			})
		}
	}

	for _, exp := range mod.Exports {
		if IsSyscallLike(exp.Name) {
			syscallFuncs = append(syscallFuncs, SyscallFunction{
				Name:        exp.Name,
				ImportIndex: 0,
				UsageCount:  1,
				RiskLevel:   assessSyscallRisk(exp.Name),
			})
		}
	}

	return SecurityAssessment{
		MemoryPatterns:        memoryPatterns,
		ControlFlowComplexity: complexity,
		SuspiciousPatterns:    suspicious,
		SyscallFunctions:      syscallFuncs,
		ResourceRequirements:  a.quickResourceEstimation(mod),
	}
}

func quickComplexity(bytecode []byte) uint32 {
	complexity := uint32(1)
	for _, op := range bytecode {
		switch op {
		case 0x02, 0x03, 0x04, 0x05, 0x0C, 0x0D:
			complexity++
		}
	}
	return complexity
}

func containsInfiniteLoopPattern(bytecode []byte) bool {
	pattern := []byte{0x03, 0x40, 0x0C, 0x00, 0x0B}
	if len(bytecode) < len(pattern) {
		return false
	}
	for i := 0; i <= len(bytecode)-len(pattern); i++ {
		match := true
		for j, b := range pattern {
			if bytecode[i+j] != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (a *Analyzer) quickResourceEstimation(mod *wasmmodule.Module) ResourceRequirements {
	var estimatedMemory uint64
	if mod.Memory != nil {
		estimatedMemory = uint64(mod.Memory.Min) * 65536
	}
	return ResourceRequirements{
		EstimatedMemory:    estimatedMemory,
		EstimatedCPUCycles: uint64(len(mod.Functions)) * 1000,
		MaxStackDepth:      32,
		MaxCallDepth:       16,
	}
}

func (a *Analyzer) fastCapabilityInference(mod *wasmmodule.Module, security SecurityAssessment) CapabilityRequirements {
	var required []string
	var permissions []Permission

	for _, exp := range mod.Exports {
		switch {
		case strings.Contains(exp.Name, "log"):
			required = append(required, "Log")
			permissions = append(permissions, Permission{Name: "Log", Required: true, Reason: "Logging function exported"})
		case strings.Contains(exp.Name, "time"):
			required = append(required, "GetTime")
		case strings.Contains(exp.Name, "random"):
			required = append(required, "Random")
		case strings.Contains(exp.Name, "sensor"):
			required = append(required, "ReadSensor")
		case strings.Contains(exp.Name, "alert"):
			required = append(required, "SendAlert")
		}
	}

	if mod.Memory != nil && mod.Memory.Min > 10 {
		required = append(required, "MemoryGrow")
	}
	if security.ControlFlowComplexity > 50 {
		required = append(required, "HighComplexity")
	}

	return CapabilityRequirements{
		RequiredCapabilities: required,
		InferredPermissions:  permissions,
	}
}

// ModuleHash computes a deterministic structural hash over the entire
// decoded module, used as the AnalysisResult cache key. Hashing the whole
// structure rather than a summary of it means any change to types, code
// bodies, or exports invalidates the cache.
func ModuleHash(mod *wasmmodule.Module) (uint64, error) {
	return hashstructure.Hash(mod, hashstructure.FormatV2, nil)
}
