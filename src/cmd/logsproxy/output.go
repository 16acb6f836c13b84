// FILE: logsproxy/src/cmd/logsproxy/output.go
package main

import (
	"fmt"
	"io"
	"os"
)

// OutputHandler writes startup and shutdown messages to the console. All
// console output is suppressed in quiet mode, logging is configured
// separately.
type OutputHandler struct {
	quiet  bool
	stdout io.Writer
	stderr io.Writer
	exit   func(int)
}

var output *OutputHandler

// InitOutputHandler installs the process-wide console handler
func InitOutputHandler(quiet bool) {
	output = newOutputHandler(quiet, os.Stdout, os.Stderr)
}

func newOutputHandler(quiet bool, stdout, stderr io.Writer) *OutputHandler {
	return &OutputHandler{
		quiet:  quiet,
		stdout: stdout,
		stderr: stderr,
		exit:   os.Exit,
	}
}

func (o *OutputHandler) Print(format string, args ...any) {
	if !o.quiet {
		fmt.Fprintf(o.stdout, format, args...)
	}
}

func (o *OutputHandler) Error(format string, args ...any) {
	if !o.quiet {
		fmt.Fprintf(o.stderr, format, args...)
	}
}

// FatalError reports and exits with code, the message is still subject to
// quiet mode
func (o *OutputHandler) FatalError(code int, format string, args ...any) {
	o.Error(format, args...)
	o.exit(code)
}

func Print(format string, args ...any) {
	if output != nil {
		output.Print(format, args...)
	}
}

func Error(format string, args ...any) {
	if output != nil {
		output.Error(format, args...)
	}
}

func FatalError(code int, format string, args ...any) {
	if output == nil {
		// Handler not initialized yet
		fmt.Fprintf(os.Stderr, format, args...)
		os.Exit(code)
	}
	output.FatalError(code, format, args...)
}
