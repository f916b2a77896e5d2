package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"nomen/internal/faults"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command tree and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, errorLine(err))
		}
		return 1
	}
	return 0
}

func errorLine(err error) string {
	if faults.Classified(err) {
		return fmt.Sprintf("error [%s]: %v", faults.Code(err), err)
	}
	return fmt.Sprintf("error: %v", err)
}
