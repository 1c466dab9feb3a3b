// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/14rynx/heat-simulator/internal/output"
	"github.com/14rynx/heat-simulator/internal/version"
)

// WatchFromScenario leaves the watched slot to the scenario document.
const WatchFromScenario = -2

// Options holds all CLI flags.
type Options struct {
	// Input
	Scenario string
	Builtin  string
	List     bool

	// Rack overrides; nil keeps the scenario value.
	StartHeat   *float64
	Attenuation *float64

	// Readout
	Watch         int // WatchFromScenario, -1 = every tick, N = slot N cycles
	Every         int
	Thresholds    []float64
	ThresholdsSet bool

	// Performance
	Threads int

	// Output
	Output string
	Header bool // true unless --no-header
	Quiet  bool
	RunID  string // empty = generate

	Version bool
}

// Defaults are the values flags fall back to, typically taken from the
// environment.
type Defaults struct {
	Output     string
	Threads    int
	Thresholds []float64
	Quiet      bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: rack heat burnout simulator

Version: %s

Usage of %s:
  %s --builtin leshak-gun
  %s --scenario rack.yaml --output tsv --thresholds 2.5,5,10

`, name, version.Version, name, name, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags with built-in defaults.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	return ParseArgsWithDefaults(fs, argv, Defaults{Output: output.FormatText})
}

// ParseArgsWithDefaults registers and parses all flags, returns an Options struct.
func ParseArgsWithDefaults(fs *flag.FlagSet, argv []string, def Defaults) (Options, error) {
	var opt Options
	var help bool
	if def.Output == "" {
		def.Output = output.FormatText
	}

	// Input
	fs.StringVar(&opt.Scenario, "scenario", "", "YAML scenario file [*]")
	fs.StringVar(&opt.Builtin, "builtin", "", "built-in scenario name (see --list) [*]")
	fs.BoolVar(&opt.List, "list", false, "list built-in scenarios and exit [false]")

	// Rack overrides
	startHeat := optFloat{dst: &opt.StartHeat}
	fs.Var(&startHeat, "start-heat", "initial rack heat in [0,1] (default from scenario)")
	att := optFloat{dst: &opt.Attenuation}
	fs.Var(&att, "attenuation", "per-slot distance attenuation in [0,1] (default 0.25^(1/(N-1)))")

	// Readout
	fs.IntVar(&opt.Watch, "watch", WatchFromScenario, "emit only ticks where slot N completes a cycle (-1 = every tick; default from scenario)")
	fs.IntVar(&opt.Every, "every", 1, "emit every K-th tick when not watching a slot [1]")
	th := floatList{dst: &opt.Thresholds, set: &opt.ThresholdsSet}
	opt.Thresholds = slices.Clone(def.Thresholds)
	opt.ThresholdsSet = def.Thresholds != nil
	fs.Var(&th, "thresholds", "comma-separated damage levels for P(damage > level); 'none' clears")

	// Performance
	fs.IntVar(&opt.Threads, "threads", def.Threads, fmt.Sprintf("worker goroutines for the damage phase (0 = serial) [%d]", def.Threads))

	// Output
	fs.StringVar(&opt.Output, "output", def.Output, "output format: "+strings.Join(output.Formats, " | ")+" ["+def.Output+"]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line in text/TSV [false]")
	fs.BoolVar(&opt.Quiet, "quiet", def.Quiet, "suppress warnings on stderr")
	fs.StringVar(&opt.RunID, "run-id", "", "run id (UUID) echoed in JSON/JSONL output (default random)")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version || opt.List {
		return opt, nil
	}
	opt.Header = !noHeader
	if fs.NArg() > 0 {
		return opt, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	// Validation
	switch {
	case opt.Scenario != "" && opt.Builtin != "":
		return opt, errors.New("--scenario conflicts with --builtin")
	case opt.Scenario == "" && opt.Builtin == "":
		return opt, errors.New("provide --scenario or --builtin (see --list)")
	}
	if !slices.Contains(output.Formats, opt.Output) {
		return opt, fmt.Errorf("invalid --output %q", opt.Output)
	}
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be >= 0")
	}
	if opt.Every < 1 {
		return opt, errors.New("--every must be >= 1")
	}
	if opt.Watch < -1 && opt.Watch != WatchFromScenario {
		return opt, errors.New("--watch must be >= -1")
	}
	if v := opt.StartHeat; v != nil && (*v < 0 || *v > 1) {
		return opt, errors.New("--start-heat must be in [0,1]")
	}
	if v := opt.Attenuation; v != nil && (*v < 0 || *v > 1) {
		return opt, errors.New("--attenuation must be in [0,1]")
	}
	return opt, nil
}

// optFloat is a float flag that records whether it was given.
type optFloat struct{ dst **float64 }

func (f *optFloat) String() string {
	if f.dst == nil || *f.dst == nil {
		return ""
	}
	return strconv.FormatFloat(**f.dst, 'g', -1, 64)
}

func (f *optFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return fmt.Errorf("invalid number %q", s)
	}
	*f.dst = &v
	return nil
}

// floatList parses comma-separated levels.
type floatList struct {
	dst *[]float64
	set *bool
}

func (f *floatList) String() string {
	if f.dst == nil {
		return ""
	}
	parts := make([]string, len(*f.dst))
	for i, v := range *f.dst {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (f *floatList) Set(s string) error {
	*f.set = true
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		*f.dst = []float64{}
		return nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid level %q", part)
		}
		out = append(out, v)
	}
	*f.dst = out
	return nil
}
