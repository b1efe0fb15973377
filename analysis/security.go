package analysis

import (
	"strconv"
	"strings"

	"wasmguard/memory"
	"wasmguard/wasmmodule"
)

// SecurityAnalyzer aggregates the pattern matcher's raw findings into a
// SecurityAssessment: memory/bounds patterns, syscall-function risk, and a
// resource-requirement estimate.
type SecurityAnalyzer struct {
	patterns *PatternMatcher
}

// NewSecurityAnalyzer returns a SecurityAnalyzer backed by a fresh PatternMatcher.
func NewSecurityAnalyzer() *SecurityAnalyzer {
	return &SecurityAnalyzer{patterns: NewPatternMatcher()}
}

// Analyze runs every pattern/security rule over mod and returns the aggregated assessment.
func (a *SecurityAnalyzer) Analyze(mod *wasmmodule.Module) SecurityAssessment {
	return SecurityAssessment{
		MemoryPatterns:        a.analyzeMemoryPatterns(mod),
		ControlFlowComplexity: a.patterns.ControlFlowComplexity(mod),
		SuspiciousPatterns:    a.patterns.FindPatterns(mod),
		SyscallFunctions:      a.analyzeSyscallFunctions(mod),
		ResourceRequirements:  a.estimateResourceRequirements(mod),
	}
}

func (a *SecurityAnalyzer) analyzeMemoryPatterns(mod *wasmmodule.Module) []MemoryPattern {
	var patterns []MemoryPattern

	dataFlow := a.patterns.AnalyzeDataFlow(mod)
	if dataFlow.MemoryWrites > 1000 {
		patterns = append(patterns, MemoryPattern{
			PatternType: "ExcessiveWrites",
			Locations:   []uint32{0},
			RiskLevel:   RiskWarning,
			Description: "Module performs excessive memory write operations",
		})
	}

	for funcIdx, code := range mod.Code {
		if containsByte(code.Body, 0x40) {
			patterns = append(patterns, MemoryPattern{
				PatternType: "MemoryGrowth",
				Locations:   []uint32{uint32(funcIdx)},
				RiskLevel:   RiskWarning,
				Description: "Function contains memory growth operations",
			})
		}
	}

	patterns = append(patterns, a.detectUnalignedAccess(mod)...)
	patterns = append(patterns, a.detectBufferOverflowPatterns(mod)...)
	return patterns
}

func containsByte(body []byte, b byte) bool {
	for _, v := range body {
		if v == b {
			return true
		}
	}
	return false
}

func (a *SecurityAnalyzer) detectUnalignedAccess(mod *wasmmodule.Module) []MemoryPattern {
	var patterns []MemoryPattern
	for funcIdx, code := range mod.Code {
		body := code.Body
		for i := 0; i < len(body); i++ {
			if body[i] >= 0x28 && body[i] <= 0x35 && i+1 < len(body) {
				if alignment := body[i+1]; alignment > 2 {
					patterns = append(patterns, MemoryPattern{
						PatternType: "UnalignedAccess",
						Locations:   []uint32{uint32(i)},
						RiskLevel:   RiskWarning,
						Description: "Potentially unaligned memory access in function " + strconv.Itoa(funcIdx),
					})
				}
			}
		}
	}
	return patterns
}

func (a *SecurityAnalyzer) detectBufferOverflowPatterns(mod *wasmmodule.Module) []MemoryPattern {
	var patterns []MemoryPattern
	for funcIdx, code := range mod.Code {
		risk := boundsCheckRisk(code.Body)
		switch {
		case risk > 0.7:
			patterns = append(patterns, MemoryPattern{
				PatternType: "BufferOverflow",
				Locations:   []uint32{uint32(funcIdx)},
				RiskLevel:   RiskSevere,
				Description: "Function shows patterns consistent with buffer overflow vulnerabilities",
			})
		case risk > 0.4:
			patterns = append(patterns, MemoryPattern{
				PatternType: "PotentialBufferOverflow",
				Locations:   []uint32{uint32(funcIdx)},
				RiskLevel:   RiskWarning,
				Description: "Function may have insufficient bounds checking",
			})
		}
	}
	return patterns
}

// boundsCheckRisk is 1 - (bounds-checks / memory-accesses): the fraction of
// memory load/store operations NOT preceded by a comparison op in the
// 10-byte window before them. Zero accesses yields zero risk.
func boundsCheckRisk(bytecode []byte) float64 {
	memoryAccesses := 0
	boundsChecks := 0
	for i := 0; i < len(bytecode); i++ {
		if bytecode[i] >= 0x28 && bytecode[i] <= 0x3E {
			memoryAccesses++
			if i >= 10 && containsComparisonOp(bytecode[i-10:i]) {
				boundsChecks++
			}
		}
	}
	if memoryAccesses == 0 {
		return 0
	}
	return 1.0 - float64(boundsChecks)/float64(memoryAccesses)
}

func containsComparisonOp(window []byte) bool {
	for _, op := range window {
		if op >= 0x46 && op <= 0x51 {
			return true
		}
	}
	return false
}

func (a *SecurityAnalyzer) analyzeSyscallFunctions(mod *wasmmodule.Module) []SyscallFunction {
	var out []SyscallFunction
	names := a.patterns.DetectSyscallPatterns(mod)
	for idx, name := range names {
		out = append(out, SyscallFunction{
			Name:        name,
			ImportIndex: uint32(idx),
			UsageCount:  a.countSyscallUsage(mod, name),
			RiskLevel:   assessSyscallRisk(name),
		})
	}
	return out
}

var (
	highRiskSyscallSubstrings   = []string{"exec", "fork", "system", "open", "write", "socket", "connect"}
	mediumRiskSyscallSubstrings = []string{"read", "malloc", "free", "mmap", "signal"}
)

func assessSyscallRisk(name string) RiskLevel {
	for _, s := range highRiskSyscallSubstrings {
		if strings.Contains(name, s) {
			return RiskSevere
		}
	}
	for _, s := range mediumRiskSyscallSubstrings {
		if strings.Contains(name, s) {
			return RiskWarning
		}
	}
	return RiskOK
}

func (a *SecurityAnalyzer) countSyscallUsage(mod *wasmmodule.Module, name string) uint32 {
	exportIdx := -1
	for i, exp := range mod.Exports {
		if exp.Name == name {
			exportIdx = i
			break
		}
	}
	if exportIdx < 0 {
		return 0
	}
	var count uint32
	for _, code := range mod.Code {
		count += countFunctionCalls(code.Body, uint32(exportIdx))
	}
	return count
}

// countFunctionCalls counts `call` (0x10) instructions whose single-byte
// operand equals target. Multi-byte LEB128 operands aren't decoded here,
// mirroring the byte-level scan the rest of the pattern matcher performs.
func countFunctionCalls(bytecode []byte, target uint32) uint32 {
	var count uint32
	for i := 0; i < len(bytecode); i++ {
		if bytecode[i] == 0x10 && i+1 < len(bytecode) && uint32(bytecode[i+1]) == target {
			count++
		}
	}
	return count
}

func (a *SecurityAnalyzer) estimateResourceRequirements(mod *wasmmodule.Module) ResourceRequirements {
	var estimatedMemory uint64
	if mod.Memory != nil {
		estimatedMemory = uint64(mod.Memory.Min) * memory.PageSize
		if mod.Memory.Max != nil {
			if max := uint64(*mod.Memory.Max) * memory.PageSize; max > estimatedMemory {
				estimatedMemory = max
			}
		}
	}

	var cycles uint64
	var maxStackDepth, maxCallDepth uint32
	for _, code := range mod.Code {
		c, stackDepth, callDepth := analyzeFunctionComplexity(code.Body)
		cycles += c
		if stackDepth > maxStackDepth {
			maxStackDepth = stackDepth
		}
		if callDepth > maxCallDepth {
			maxCallDepth = callDepth
		}
	}

	return ResourceRequirements{
		EstimatedMemory:    estimatedMemory,
		EstimatedCPUCycles: cycles,
		MaxStackDepth:      maxStackDepth,
		MaxCallDepth:       maxCallDepth,
	}
}

// analyzeFunctionComplexity estimates a cycle cost, simulated stack depth,
// and simulated call depth over one function body. Each opcode contributes
// exactly one push/pop/no-op classification; local.set and local.tee in
// particular are pops only, never a push and a pop.
func analyzeFunctionComplexity(bytecode []byte) (cycles uint64, maxStackDepth, maxCallDepth uint32) {
	var stackDepth, callDepth int32

	for _, op := range bytecode {
		switch {
		case op <= 0x11:
			cycles++
		case op >= 0x28 && op <= 0x3E:
			cycles += 3
		case op >= 0x02 && op <= 0x05:
			cycles += 2
		case op >= 0x6A && op <= 0xC4:
			cycles++
		default:
			cycles++
		}

		switch {
		case op >= 0x41 && op <= 0x44: // const
			stackDepth++
		case op == 0x20: // local.get
			stackDepth++
		case op == 0x21, op == 0x22: // local.set, local.tee
			stackDepth--
		case op == 0x23: // global.get
			stackDepth++
		case op == 0x24: // global.set
			stackDepth--
		case op >= 0x28 && op <= 0x35: // load
			stackDepth++
		case op >= 0x36 && op <= 0x3E: // store
			stackDepth -= 2
		case op == 0x1A: // drop
			stackDepth--
		case op == 0x10, op == 0x11: // call, call_indirect
			callDepth++
			if callDepth > int32(maxCallDepth) {
				maxCallDepth = uint32(callDepth)
			}
		case op == 0x0F: // return
			if callDepth > 0 {
				callDepth--
			}
		}

		if stackDepth < 0 {
			stackDepth = 0
		}
		if uint32(stackDepth) > maxStackDepth {
			maxStackDepth = uint32(stackDepth)
		}
	}
	return cycles, maxStackDepth, maxCallDepth
}

