package analysis

import (
	"strings"

	"wasmguard/wasmmodule"
)

type patternTemplate struct {
	name        string
	opcodes     []byte
	riskLevel   RiskLevel
	description string
}

// PatternMatcher scans function bodies for fixed opcode byte-sequences and
// computes cyclomatic complexity and data-flow counters.
type PatternMatcher struct {
	templates []patternTemplate
}

// NewPatternMatcher returns a matcher pre-loaded with the engine's fixed
// pattern templates.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{templates: []patternTemplate{
		{"InfiniteLoop", []byte{0x03, 0x40, 0x0C, 0x00, 0x0B}, RiskSevere, "Potential infinite loop detected"},
		{"MemoryBomb", []byte{0x40, 0x00}, RiskWarning, "Memory growth operation detected"},
		{"DeepRecursion", []byte{0x10}, RiskWarning, "Function call detected - check for recursion"},
		{"IndirectCall", []byte{0x11}, RiskWarning, "Indirect function call detected"},
		{"UnalignedAccess", []byte{0x28, 0x00}, RiskWarning, "Potentially unaligned memory access"},
		{"StackManipulation", []byte{0x1A, 0x1B}, RiskOK, "Stack manipulation operations"},
		{"CryptoOperations", []byte{0x73, 0x74, 0x75}, RiskOK, "Bitwise operations that may indicate cryptographic code"},
	}}
}

// FindPatterns scans every function body in the module against every
// template, returning one SuspiciousPattern per match.
func (m *PatternMatcher) FindPatterns(mod *wasmmodule.Module) []SuspiciousPattern {
	var findings []SuspiciousPattern
	for funcIdx, code := range mod.Code {
		for _, tmpl := range m.templates {
			for _, offset := range findByteMatches(code.Body, tmpl.opcodes) {
				findings = append(findings, SuspiciousPattern{
					PatternName:       tmpl.name,
					FunctionIndex:     uint32(funcIdx),
					InstructionOffset: offset,
					Description:       tmpl.description,
					RiskLevel:         tmpl.riskLevel,
				})
			}
		}
	}
	return findings
}

func findByteMatches(bytecode, pattern []byte) []uint32 {
	var matches []uint32
	if len(pattern) == 0 || len(bytecode) < len(pattern) {
		return matches
	}
	for i := 0; i <= len(bytecode)-len(pattern); i++ {
		if string(bytecode[i:i+len(pattern)]) == string(pattern) {
			matches = append(matches, uint32(i))
		}
	}
	return matches
}

// ControlFlowComplexity sums the cyclomatic complexity of every function
// body (each function starts at 1 and is incremented per
// if/else/loop/block/br/br_if/br_table occurrence).
func (m *PatternMatcher) ControlFlowComplexity(mod *wasmmodule.Module) uint32 {
	var total uint32
	for _, code := range mod.Code {
		total += cyclomaticComplexity(code.Body)
	}
	return total
}

func cyclomaticComplexity(bytecode []byte) uint32 {
	complexity := uint32(1)
	i := 0
	for i < len(bytecode) {
		switch bytecode[i] {
		case 0x02, 0x03, 0x04, 0x05, 0x0C, 0x0D:
			complexity++
		case 0x0E: // br_table: skip its target table
			complexity++
			i++
			if i < len(bytecode) {
				count := int(bytecode[i])
				i += count + 1
			}
		}
		i++
	}
	return complexity
}

// syscallLikeSubstrings is the fixed substring list IsSyscallLike matches
// export names against.
var syscallLikeSubstrings = []string{
	"wasm_", "host_", "env_", "sys_", "os_",
	"read", "write", "open", "close", "socket",
	"connect", "bind", "listen", "accept",
	"malloc", "free", "mmap", "munmap",
	"exit", "abort", "signal", "fork", "exec",
}

// IsSyscallLike reports whether name contains any syscall-suggestive substring.
func IsSyscallLike(name string) bool {
	for _, s := range syscallLikeSubstrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

// DetectSyscallPatterns returns every export name that looks syscall-like.
func (m *PatternMatcher) DetectSyscallPatterns(mod *wasmmodule.Module) []string {
	var names []string
	for _, exp := range mod.Exports {
		if IsSyscallLike(exp.Name) {
			names = append(names, exp.Name)
		}
	}
	return names
}

// DataFlowAnalysis aggregates global/memory/table access counts by opcode range.
type DataFlowAnalysis struct {
	GlobalReads   uint32
	GlobalWrites  uint32
	MemoryReads   uint32
	MemoryWrites  uint32
	TableAccesses uint32
}

// RiskIndicators returns human-readable flags for unusually heavy access patterns.
func (d DataFlowAnalysis) RiskIndicators() []string {
	var out []string
	if d.GlobalWrites > 100 {
		out = append(out, "Excessive global variable modifications")
	}
	if d.MemoryWrites > d.MemoryReads*2 {
		out = append(out, "Write-heavy memory access pattern")
	}
	if d.TableAccesses > 50 {
		out = append(out, "Frequent table access operations")
	}
	return out
}

// AnalyzeDataFlow counts global/load/store/table operations by opcode range
// across every function body.
func (m *PatternMatcher) AnalyzeDataFlow(mod *wasmmodule.Module) DataFlowAnalysis {
	var d DataFlowAnalysis
	for _, code := range mod.Code {
		for _, op := range code.Body {
			switch {
			case op == 0x23:
				d.GlobalReads++
			case op == 0x24:
				d.GlobalWrites++
			case op >= 0x28 && op <= 0x35:
				d.MemoryReads++
			case op >= 0x36 && op <= 0x3E:
				d.MemoryWrites++
			case op == 0x25 || op == 0x26:
				d.TableAccesses++
			}
		}
	}
	return d
}
