// Package analysis statically scans a decoded module to infer required
// capabilities, flag suspicious byte patterns, and compute a risk score
// that feeds sandbox configuration, all before a single instruction runs.
package analysis

import "time"

// RiskLevel is a three-tier severity used throughout the analysis pipeline.
type RiskLevel int

const (
	RiskOK RiskLevel = iota
	RiskWarning
	RiskSevere
)

func (r RiskLevel) String() string {
	switch r {
	case RiskOK:
		return "OK"
	case RiskWarning:
		return "Warning"
	case RiskSevere:
		return "Severe"
	default:
		return "Unknown"
	}
}

// SuspiciousPattern is one fixed-byte-sequence match found in a function body.
type SuspiciousPattern struct {
	PatternName       string
	FunctionIndex     uint32
	InstructionOffset uint32
	Description       string
	RiskLevel         RiskLevel
}

// MemoryPattern flags a memory-access concern found during security analysis.
type MemoryPattern struct {
	PatternType string
	Locations   []uint32
	RiskLevel   RiskLevel
	Description string
}

// SyscallFunction records an exported function whose name looks like a
// syscall, along with how often it's called and its assessed risk.
type SyscallFunction struct {
	Name        string
	ImportIndex uint32
	UsageCount  uint32
	RiskLevel   RiskLevel
}

// ResourceRequirements estimates what running the module would cost.
type ResourceRequirements struct {
	EstimatedMemory    uint64
	EstimatedCPUCycles uint64
	MaxStackDepth      uint32
	MaxCallDepth       uint32
}

// SecurityAssessment aggregates every static finding about a module.
type SecurityAssessment struct {
	MemoryPatterns        []MemoryPattern
	ControlFlowComplexity uint32
	SuspiciousPatterns    []SuspiciousPattern
	SyscallFunctions      []SyscallFunction
	ResourceRequirements  ResourceRequirements
}

// Permission is one inferred capability requirement with its justification.
type Permission struct {
	Name     string
	Required bool
	Reason   string
}

// CapabilityRequirements is the output of capability inference.
type CapabilityRequirements struct {
	RequiredCapabilities []string
	OptionalCapabilities []string
	InferredPermissions  []Permission
}

// RiskScore is the final, per-dimension and overall risk rollup.
type RiskScore struct {
	Overall        RiskLevel
	MemoryRisk     RiskLevel
	ExecutionRisk  RiskLevel
	SyscallRisk    RiskLevel
	ComplexityRisk RiskLevel
	Score          uint32
}

// Recommendation is one actionable note attached to a non-OK risk dimension.
type Recommendation struct {
	Category string
	Message  string
	Severity RiskLevel
	Action   string
}

// ModuleInfo is a compact summary of the module's declared shape.
type ModuleInfo struct {
	Size          int
	FunctionCount int
	ExportCount   int
	MemoryPages   *uint32
	GlobalCount   int
}

// AnalysisResult is the complete output of running the pipeline over one
// module: purely computed, cacheable by module hash.
type AnalysisResult struct {
	ModuleInfo             ModuleInfo
	SecurityAssessment     SecurityAssessment
	CapabilityRequirements CapabilityRequirements
	RiskScore              RiskScore
	Recommendations        []Recommendation
	AnalysisTime           time.Duration
	ModuleHash             uint64
}

// SandboxConstraints is the recommended sandbox configuration derived from
// a module's inferred capabilities and security assessment. These are
// reported requirements; the policy the caller actually applies may still
// deny network/filesystem access regardless of what's recommended here.
type SandboxConstraints struct {
	MaxMemoryPages        uint32
	MaxCPUTimeMS          uint64
	MaxInstructions       uint64
	MaxSyscalls           uint32
	PreemptionIntervalMS  uint64
	MemoryGrowthRateLimit *uint32
	SyscallRateLimit      *uint32
	NetworkAllowed        bool
	MaxNetworkConnections uint32
	FilesystemAllowed     bool
	AllowedPaths          []string
}

// DefaultSandboxConstraints mirrors the conservative defaults applied before
// any capability-driven relaxation.
func DefaultSandboxConstraints() SandboxConstraints {
	return SandboxConstraints{
		MaxMemoryPages:       64,
		MaxCPUTimeMS:         5000,
		MaxInstructions:      1_000_000,
		MaxSyscalls:          100,
		PreemptionIntervalMS: 1000,
		NetworkAllowed:       false,
		FilesystemAllowed:    false,
	}
}
