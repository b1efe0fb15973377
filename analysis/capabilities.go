package analysis

import (
	"strings"

	"wasmguard/wasmmodule"
)

type trigger struct {
	exportName    string
	syscallSubstr string
}

type capabilityRule struct {
	name        string
	triggers    []trigger
	riskLevel   RiskLevel
	description string
}

// CapabilityInferrer maps export names, memory thresholds, security-analysis
// findings, and syscall-like names to required capabilities, via a fixed
// rule table.
type CapabilityInferrer struct {
	rules []capabilityRule
}

// NewCapabilityInferrer returns an inferrer pre-loaded with the engine's
// capability rule table.
func NewCapabilityInferrer() *CapabilityInferrer {
	return &CapabilityInferrer{rules: []capabilityRule{
		{
			name:        "Log",
			triggers:    []trigger{{exportName: "wasm_log"}},
			riskLevel:   RiskOK,
			description: "Module requires logging capability",
		},
		{
			name:        "GetTime",
			triggers:    []trigger{{exportName: "wasm_get_time"}},
			riskLevel:   RiskOK,
			description: "Module requires time access",
		},
		{
			name:        "Random",
			triggers:    []trigger{{exportName: "wasm_random"}},
			riskLevel:   RiskOK,
			description: "Module requires random number generation",
		},
		{
			name:        "ReadSensor",
			triggers:    []trigger{{exportName: "wasm_read_sensor"}, {syscallSubstr: "sensor"}},
			riskLevel:   RiskWarning,
			description: "Module requires sensor access",
		},
		{
			name:        "SendAlert",
			triggers:    []trigger{{exportName: "wasm_send_alert"}, {syscallSubstr: "alert"}},
			riskLevel:   RiskWarning,
			description: "Module requires alert sending capability",
		},
		{
			name:        "MemoryGrow",
			triggers:    nil, // driven by memory thresholds and security patterns, not name triggers
			riskLevel:   RiskWarning,
			description: "Module requires memory growth capability",
		},
		{
			name:        "NetworkAccess",
			triggers:    []trigger{{syscallSubstr: "socket"}, {syscallSubstr: "connect"}},
			riskLevel:   RiskSevere,
			description: "Module requires network access - HIGH RISK",
		},
		{
			name:        "FileSystemAccess",
			triggers:    []trigger{{syscallSubstr: "open"}, {syscallSubstr: "read"}, {syscallSubstr: "write"}},
			riskLevel:   RiskSevere,
			description: "Module requires file system access - HIGH RISK",
		},
	}}
}

// Infer scans mod's exports, memory declaration, and security assessment
// against the rule table, returning the accumulated CapabilityRequirements.
func (c *CapabilityInferrer) Infer(mod *wasmmodule.Module, security SecurityAssessment) CapabilityRequirements {
	required := make(map[string]struct{})
	optional := make(map[string]struct{})
	var permissions []Permission

	for _, exp := range mod.Exports {
		c.analyzeExport(exp.Name, required, &permissions)
	}

	if mod.Memory != nil {
		c.analyzeMemoryRequirements(*mod.Memory, required, &permissions)
	}

	c.analyzeSecurityPatterns(security, required, &permissions)

	for _, sc := range security.SyscallFunctions {
		c.analyzeSyscallCapability(sc.Name, required, &permissions)
	}

	return CapabilityRequirements{
		RequiredCapabilities: setToSlice(required),
		OptionalCapabilities: setToSlice(optional),
		InferredPermissions:  permissions,
	}
}

func (c *CapabilityInferrer) analyzeExport(exportName string, required map[string]struct{}, permissions *[]Permission) {
	for _, rule := range c.rules {
		for _, t := range rule.triggers {
			if t.exportName != "" && strings.Contains(exportName, t.exportName) {
				required[rule.name] = struct{}{}
				*permissions = append(*permissions, Permission{
					Name:     rule.name,
					Required: true,
					Reason:   "Export '" + exportName + "' detected",
				})
			}
		}
	}
}

func (c *CapabilityInferrer) analyzeMemoryRequirements(mem wasmmodule.MemoryType, required map[string]struct{}, permissions *[]Permission) {
	maxPages := uint32(0)
	if mem.Max != nil {
		maxPages = *mem.Max
	}
	if mem.Min > 10 || maxPages > 100 {
		required["MemoryGrow"] = struct{}{}
		*permissions = append(*permissions, Permission{
			Name:     "MemoryGrow",
			Required: true,
			Reason:   "Large memory requirement",
		})
	}
	if mem.Max == nil {
		required["UnlimitedMemory"] = struct{}{}
		*permissions = append(*permissions, Permission{
			Name:     "UnlimitedMemory",
			Required: true,
			Reason:   "Module requests unlimited memory growth",
		})
	}
}

func (c *CapabilityInferrer) analyzeSecurityPatterns(security SecurityAssessment, required map[string]struct{}, permissions *[]Permission) {
	for _, p := range security.MemoryPatterns {
		if p.PatternType == "MemoryGrowth" {
			required["MemoryGrow"] = struct{}{}
			*permissions = append(*permissions, Permission{
				Name:     "MemoryGrow",
				Required: true,
				Reason:   "Memory growth operations detected",
			})
		}
	}

	if security.ControlFlowComplexity > 100 {
		required["HighComplexity"] = struct{}{}
		*permissions = append(*permissions, Permission{
			Name:     "HighComplexity",
			Required: true,
			Reason:   "High control flow complexity",
		})
	}

	for _, p := range security.SuspiciousPatterns {
		switch p.PatternName {
		case "InfiniteLoop":
			required["LongRunning"] = struct{}{}
			*permissions = append(*permissions, Permission{
				Name:     "LongRunning",
				Required: true,
				Reason:   "Potential infinite loop detected",
			})
		case "IndirectCall":
			required["DynamicExecution"] = struct{}{}
			*permissions = append(*permissions, Permission{
				Name:     "DynamicExecution",
				Required: true,
				Reason:   "Indirect function calls detected",
			})
		}
	}
}

func (c *CapabilityInferrer) analyzeSyscallCapability(syscallName string, required map[string]struct{}, permissions *[]Permission) {
	for _, rule := range c.rules {
		for _, t := range rule.triggers {
			if t.syscallSubstr != "" && strings.Contains(syscallName, t.syscallSubstr) {
				required[rule.name] = struct{}{}
				*permissions = append(*permissions, Permission{
					Name:     rule.name,
					Required: true,
					Reason:   "Syscall '" + syscallName + "' requires capability",
				})
			}
		}
	}

	capName := "Syscall_" + syscallName
	required[capName] = struct{}{}
	*permissions = append(*permissions, Permission{
		Name:     capName,
		Required: true,
		Reason:   "Direct syscall access: " + syscallName,
	})
}

func setToSlice(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}

// RecommendConstraints derives a SandboxConstraints bundle from the inferred
// capability requirements and the security assessment. Network and
// filesystem access are always reported as denied when their capability is
// required; these are the engine's own recommendations, not a relaxation
// the caller must additionally enforce; the policy layer denies them
// unconditionally regardless of what's recommended here.
func (c *CapabilityInferrer) RecommendConstraints(caps CapabilityRequirements, security SecurityAssessment) SandboxConstraints {
	constraints := DefaultSandboxConstraints()
	required := toSet(caps.RequiredCapabilities)

	if _, ok := required["MemoryGrow"]; ok {
		constraints.MaxMemoryPages = 256
	} else {
		constraints.MaxMemoryPages = 64
	}
	if _, ok := required["UnlimitedMemory"]; ok {
		constraints.MaxMemoryPages = 1024
		rate := uint32(10)
		constraints.MemoryGrowthRateLimit = &rate
	}

	if _, ok := required["HighComplexity"]; ok {
		constraints.MaxCPUTimeMS = 10000
		constraints.MaxInstructions = 10_000_000
	} else {
		constraints.MaxCPUTimeMS = 5000
		constraints.MaxInstructions = 1_000_000
	}
	if _, ok := required["LongRunning"]; ok {
		constraints.MaxCPUTimeMS = 30000
		constraints.PreemptionIntervalMS = 100
	}

	for name := range required {
		if strings.HasPrefix(name, "Syscall_") {
			constraints.MaxSyscalls = 1000
			rate := uint32(100)
			constraints.SyscallRateLimit = &rate
			break
		}
	}

	if _, ok := required["NetworkAccess"]; ok {
		constraints.NetworkAllowed = false
		constraints.MaxNetworkConnections = 0
	}
	if _, ok := required["FileSystemAccess"]; ok {
		constraints.FilesystemAllowed = false
		constraints.AllowedPaths = nil
	}

	return constraints
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
