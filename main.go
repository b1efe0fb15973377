// wasmguard is a sandboxed execution engine for portable stack-machine
// bytecode modules.
//
// Commands:
//
//	create   - Create an instance (but don't start it)
//	start    - Start a created instance
//	run      - Create and start an instance
//	exec     - Invoke a host function in a running instance
//	state    - Output the state of an instance
//	kill     - Stop a running instance
//	delete   - Delete an instance
//	list     - List instances
//	manifest - Generate a default manifest
//	decode   - Decode a module and print its structure
//	analyze  - Run the static risk analyzer against a module
//	debug    - Attach an interactive debugger session to an instance
package main

import (
	"fmt"
	"os"

	"wasmguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wasmguard:", err)
		os.Exit(1)
	}
}
