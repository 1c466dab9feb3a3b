// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/14rynx/heat-simulator/internal/appcore"
	"github.com/14rynx/heat-simulator/internal/cli"
	"github.com/14rynx/heat-simulator/internal/cmdutil"
	"github.com/14rynx/heat-simulator/internal/config"
	"github.com/14rynx/heat-simulator/internal/engine"
	"github.com/14rynx/heat-simulator/internal/output"
	"github.com/14rynx/heat-simulator/internal/scenario"
	"github.com/14rynx/heat-simulator/internal/telemetry"
	"github.com/14rynx/heat-simulator/internal/version"
	"github.com/14rynx/heat-simulator/internal/visitors"
	"github.com/14rynx/heat-simulator/internal/writers"
	"github.com/14rynx/heat-simulator/pkg/api"
)

// flushed flushes w and maps the result to an exit code.
func flushed(w *bufio.Writer, stderr io.Writer, code int) int {
	if e := w.Flush(); writers.IsBrokenPipe(e) {
		return 0
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return 3
	}
	return code
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	env, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	fs := cli.NewFlagSet("heatsim")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	opts, err := cli.ParseArgsWithDefaults(fs, argv, cli.Defaults{
		Output:     env.Output,
		Threads:    env.Threads,
		Thresholds: env.Thresholds,
		Quiet:      env.Quiet,
	})
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			return flushed(outw, stderr, 0)
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return flushed(outw, stderr, 2)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "heatsim version %s\n", version.Version)
		return flushed(outw, stderr, 0)
	}
	if opts.List {
		for _, name := range scenario.BuiltinNames() {
			sc, err := scenario.Builtin(name)
			if err != nil {
				_, _ = fmt.Fprintln(stderr, err)
				return 3
			}
			_, _ = fmt.Fprintf(outw, "%-22s %d slots  %s\n", name, len(sc.Config.Modules), sc.Description)
		}
		return flushed(outw, stderr, 0)
	}

	var sc scenario.Scenario
	if opts.Scenario != "" {
		sc, err = scenario.Load(opts.Scenario)
	} else {
		sc, err = scenario.Builtin(opts.Builtin)
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	} else if _, err := uuid.Parse(runID); err != nil {
		_, _ = fmt.Fprintf(stderr, "invalid --run-id %q: %v\n", runID, err)
		return 2
	}

	cfg := sc.Config
	if opts.StartHeat != nil {
		cfg.StartHeat = *opts.StartHeat
	}
	if opts.Attenuation != nil {
		a := *opts.Attenuation
		cfg.Attenuation = &a
	}
	cfg.Workers = opts.Threads

	watch := sc.Watch
	if opts.Watch != cli.WatchFromScenario {
		watch = opts.Watch
	}
	if watch >= len(cfg.Modules) {
		_, _ = fmt.Fprintf(stderr, "--watch %d out of range (rack has %d slots)\n", watch, len(cfg.Modules))
		return 2
	}
	thresholds := sc.Thresholds
	if opts.ThresholdsSet {
		thresholds = opts.Thresholds
	}

	shutdown, err := telemetry.Setup(parent, telemetry.Options{
		Endpoint:    env.OTelEndpoint,
		Enabled:     env.OTelEnabled,
		ServiceName: env.ServiceName,
	})
	if err != nil {
		cmdutil.Warner{Dst: stderr, Quiet: opts.Quiet}.Warnf("tracing disabled: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	name := sc.Name
	if name == "" {
		name = opts.Builtin
	}
	meta := output.Meta{
		RunID:       runID,
		Scenario:    name,
		Slots:       sc.Names(),
		Thresholds:  thresholds,
		Attenuation: attenuationOf(cfg),
	}
	visit := visitors.Readout{RunID: runID, Watch: watch, Every: opts.Every, Thresholds: thresholds}
	wf := appcore.NewTickWriterFactory(opts.Output, opts.Header, meta)

	return appcore.Run[api.TickV1](parent, stdout, stderr,
		appcore.Options{RunID: runID, Scenario: name, Quiet: opts.Quiet},
		cfg, visit.Visit, wf,
	)
}

func attenuationOf(cfg engine.Config) float64 {
	if cfg.Attenuation != nil {
		return *cfg.Attenuation
	}
	return engine.DefaultAttenuation(len(cfg.Modules))
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
