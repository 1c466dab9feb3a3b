// Package appshell is the process wrapper shared by heatsim mains.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc is an application entry point returning an exit code.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs fn with SIGINT/SIGTERM cancellation and exits with its code.
func Main(fn RunFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Exec(ctx, os.Args[1:], os.Stdout, os.Stderr, fn)
	stop()
	os.Exit(code)
}

// Exec maps an empty argv to -h and reports 130 when ctx was cancelled
// underneath a run that otherwise succeeded.
func Exec(ctx context.Context, argv []string, stdout, stderr io.Writer, fn RunFunc) int {
	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	code := fn(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}
	return code
}
