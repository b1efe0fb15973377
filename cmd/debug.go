package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"wasmguard/debugger"
	"wasmguard/instance"
)

var debugCmd = &cobra.Command{
	Use:   "debug <instance-id>",
	Short: "Attach an interactive debugger session to an instance",
	Long: `Attach an interactive debugger session to a created or running instance.
Reads one command per line from a raw terminal: s steps one suspension point,
c continues with a budget of one step, b <function-index> <offset> sets a
breakpoint, m <address> <length> inspects memory, t dumps the execution
trace, q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	ctx := GetContext()
	id := args[0]

	inst, err := instance.Load(ctx, id, GetStateRoot())
	if err != nil {
		return fmt.Errorf("load instance: %w", err)
	}
	inst.Debugger.Enable()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runDebugNonInteractive(inst)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw terminal mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	terminal := term.NewTerminal(os.Stdin, "wasmguard-debug> ")
	fmt.Fprintf(terminal, "debugging %s (module hash %d, risk %s)\r\n", inst.ID, inst.Analysis.ModuleHash, inst.Analysis.RiskScore.Overall)
	fmt.Fprint(terminal, "commands: s(tep) c(ontinue) b(reakpoint) m(emory) t(race) q(uit)\r\n")

	// suspensionHook reports current debug state for exactly one suspension
	// point per call; there is no opcode interpreter behind it to actually
	// advance, matching the explicit out-of-scope boundary documented on
	// debugger.StepHook.
	suspensionHook := func() (debugger.DebugInfo, bool, error) {
		return inst.Debugger.GetDebugInfo(), true, nil
	}

	for {
		line, err := terminal.ReadLine()
		if err != nil {
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch input[0] {
		case 's':
			info, err := inst.Debugger.Step(debugger.StepInto, suspensionHook)
			if err != nil {
				fmt.Fprintf(terminal, "step error: %v\r\n", err)
				continue
			}
			printDebugInfo(terminal, info)
		case 'c':
			info, err := inst.Debugger.Continue(suspensionHook, 1)
			if err != nil {
				fmt.Fprintf(terminal, "continue error: %v\r\n", err)
				continue
			}
			printDebugInfo(terminal, info)
		case 'b':
			fields := strings.Fields(input)
			if len(fields) != 3 {
				fmt.Fprint(terminal, "usage: b <function-index> <offset>\r\n")
				continue
			}
			fnIdx, err1 := strconv.ParseUint(fields[1], 10, 32)
			offset, err2 := strconv.ParseUint(fields[2], 10, 32)
			if err1 != nil || err2 != nil {
				fmt.Fprint(terminal, "usage: b <function-index> <offset>\r\n")
				continue
			}
			bpID := inst.Debugger.SetBreakpoint(uint32(fnIdx), uint32(offset))
			fmt.Fprintf(terminal, "breakpoint %d set\r\n", bpID)
		case 'm':
			fields := strings.Fields(input)
			if len(fields) != 3 {
				fmt.Fprint(terminal, "usage: m <address> <length>\r\n")
				continue
			}
			addr, err1 := strconv.ParseUint(fields[1], 10, 32)
			length, err2 := strconv.ParseUint(fields[2], 10, 32)
			if err1 != nil || err2 != nil {
				fmt.Fprint(terminal, "usage: m <address> <length>\r\n")
				continue
			}
			data, err := inst.Debugger.InspectMemory(uint32(addr), uint32(length))
			if err != nil {
				fmt.Fprintf(terminal, "memory error: %v\r\n", err)
				continue
			}
			fmt.Fprintf(terminal, "%x\r\n", data)
		case 't':
			trace := inst.Debugger.GetTrace()
			data, _ := json.Marshal(trace)
			fmt.Fprintf(terminal, "%s\r\n", data)
		case 'q':
			return nil
		default:
			fmt.Fprint(terminal, "unknown command\r\n")
		}
	}
}

func printDebugInfo(w *term.Terminal, info debugger.DebugInfo) {
	fmt.Fprintf(w, "ip=%d sp=%d memSize=%d callDepth=%d\r\n",
		info.InstructionPointer, info.StackPointer, info.MemorySize, len(info.CallStack))
}

// runDebugNonInteractive supports debugging when stdin isn't a TTY (e.g. in
// scripted or CI use): it prints the current debug info once and exits.
func runDebugNonInteractive(inst *instance.Instance) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("debugging %s (non-interactive)\n", inst.ID)
	info := inst.Debugger.GetDebugInfo()
	data, _ := json.MarshalIndent(info, "", "  ")
	fmt.Println(string(data))
	for scanner.Scan() {
		// drain remaining input, if any, then exit
		break
	}
	return nil
}
