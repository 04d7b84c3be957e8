package main

import (
	"fmt"
	"os"

	"github.com/temirov/gistore/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the gistore shell command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(cli.ExitCodeForError(executionError))
	}
}
