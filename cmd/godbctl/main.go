// Command godbctl is a small interactive harness over the storage core: it
// loads a table manifest and lets you scan, insert, and inspect tables one
// command at a time. It is not a SQL shell — there is no parser, and every
// command maps directly to a single operator or catalog call.
package main

import (
	"fmt"
	"os"
)

func main() {
	shell, err := newShell()
	if err != nil {
		fmt.Fprintln(os.Stderr, "godbctl:", err)
		os.Exit(1)
	}
	defer shell.Close()

	if len(os.Args) > 1 {
		if err := shell.dispatch(os.Args[1:]); err != nil {
			fmt.Fprintln(os.Stderr, "godbctl:", err)
			os.Exit(1)
		}
		return
	}

	shell.repl()
}
