// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/14rynx/heat-simulator/internal/cmdutil"
	"github.com/14rynx/heat-simulator/internal/engine"
	"github.com/14rynx/heat-simulator/internal/writers"
)

const tracerName = "github.com/14rynx/heat-simulator/internal/appcore"

type Options struct {
	RunID    string
	Scenario string
	Quiet    bool
	BufSize  int
}

type VisitorFunc[T any] func(engine.Snapshot) (keep bool, out T, err error)

type WriterFactory[T any] interface {
	Start(out io.Writer, bufSize int) (chan<- T, <-chan error)
}

// Run builds the rack, streams visited ticks through the writer and maps the
// outcome to an exit code: 0 ok, 2 bad configuration, 3 I/O or run error,
// 130 cancelled. A broken pipe downstream counts as success.
func Run[T any](
	parent context.Context,
	stdout, stderr io.Writer,
	o Options,
	cfg engine.Config,
	visit VisitorFunc[T],
	wf WriterFactory[T],
) int {
	warn := cmdutil.Warner{Dst: stderr, Quiet: o.Quiet}

	rack, err := engine.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	for i, m := range cfg.Modules {
		if len(m.Intervals) == 0 {
			warn.Warnf("slot %d (%s) never activates", i, m.Name)
		}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "heatsim.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", o.RunID),
		attribute.String("run.scenario", o.Scenario),
		attribute.Int("rack.slots", rack.Slots()),
	)

	bufSize := o.BufSize
	if bufSize <= 0 {
		bufSize = 64
	}
	outw := bufio.NewWriter(stdout)
	inCh, writeErr := wf.Start(outw, bufSize)

	total, _, rerr := cmdutil.RunStream[T](ctx, rack, visit, func(x T) error {
		select {
		case inCh <- x:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	close(inCh)
	span.SetAttributes(attribute.Int("run.rows", total))

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return 0
	} else if werr != nil {
		span.SetStatus(codes.Error, werr.Error())
		fmt.Fprintln(stderr, werr)
		return 3
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return 0
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return 3
	}

	if rerr != nil {
		if errors.Is(rerr, context.Canceled) {
			span.SetStatus(codes.Error, "cancelled")
			return 130
		}
		span.SetStatus(codes.Error, rerr.Error())
		fmt.Fprintln(stderr, rerr)
		return 3
	}
	if total == 0 {
		warn.Warnf("no ticks matched the readout filter")
	}
	return 0
}
