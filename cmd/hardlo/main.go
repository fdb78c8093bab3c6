// Command hardlo estimates the leading-order dijet cross section dσ/dp_T
// in hadron collisions by Monte Carlo integration.
//
//	hardlo <input.yaml> <steps> [flags]
//	hardlo init-config [dir]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/Sergeyir/HardProcessesLO/internal/config"
	"github.com/Sergeyir/HardProcessesLO/internal/diag"
	"github.com/Sergeyir/HardProcessesLO/internal/pipeline"
)

var pipelineRun = pipeline.Run

// exitError carries an exit code through cobra once the message is printed.
type exitError struct{ code int }

func (e exitError) Error() string { return "exit " + strconv.Itoa(e.code) }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	seed        uint64
	concurrency int
	outputDir   string
	formats     []string
	errorModel  string
	deltaY      bool
	logLevel    string
	metricsFile string
	noStatus    bool
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	var ee exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	default:
		// cobra flag parsing errors
		tags := diag.NewTags(stderr)
		fmt.Fprintln(stderr, tags.Error(err.Error()))
		fmt.Fprint(stderr, root.UsageString())
		return 1
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "hardlo <input.yaml> <steps>",
		Short:         "LO dijet dσ/dp_T by Monte Carlo integration",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exitError{code: integrate(cmd, args, f, stdout, stderr)}
		},
	}
	root.SetOut(stderr)
	root.SetErr(stderr)
	pf := root.Flags()
	pf.Uint64Var(&f.seed, "seed", 0, "random seed (0 derives one from the clock)")
	pf.IntVar(&f.concurrency, "concurrency", 0, "parallel bins (0 uses all CPUs)")
	pf.StringVar(&f.outputDir, "output-dir", "", "output directory")
	pf.StringSliceVar(&f.formats, "format", nil, "output format: root, yoda, yaml, plot, sqlite (repeatable)")
	pf.StringVar(&f.errorModel, "error-model", "", "bin error estimate: legacy or variance")
	pf.BoolVar(&f.deltaY, "deltay", false, "also fill dσ/dΔy")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	pf.BoolVar(&f.noStatus, "no-status", false, "disable the status lines on stderr")

	root.AddCommand(newInitCmd(stdout, stderr))
	return root
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [dir]",
		Short: "write a runnable input.yaml (never overwrites)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			tags := diag.NewTags(stderr)
			path, err := writeTemplate(dir)
			if err != nil {
				fmt.Fprintln(stderr, tags.Error(err.Error()))
				return exitError{code: 1}
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
}

func integrate(cmd *cobra.Command, args []string, f flags, stdout, stderr io.Writer) int {
	start := time.Now()
	tags := diag.NewTags(stderr)
	if len(args) != 2 {
		fmt.Fprintln(stderr, tags.Error(fmt.Sprintf("Expected 2 parameters while %d parameter(s) were provided", len(args))))
		fmt.Fprintln(stderr, "Usage: hardlo <input.yaml> <number of integration steps>")
		fmt.Fprintln(stderr, tags.Info("Run 'hardlo init-config' to create an example input.yaml"))
		return 1
	}
	path := args[0]
	if st, err := os.Stat(path); err != nil || st.IsDir() {
		fmt.Fprintln(stderr, tags.Error(fmt.Sprintf("file %s was not found", path)))
		return 1
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[1]))
	if err != nil || steps <= 0 {
		fmt.Fprintln(stderr, tags.Error(fmt.Sprintf("number of integration steps must be a positive integer, got %q", args[1])))
		return 1
	}

	// .env fills HARDLO_* variables that are not already set
	if err := cfgpkg.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(stderr, tags.Info("ignoring .env: "+err.Error()))
	}
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(stderr, tags.Error(fmt.Sprintf("file %s was not found", path)))
		} else {
			fmt.Fprintln(stderr, tags.Error(err.Error()))
		}
		return 1
	}
	cfg = cfgpkg.Merge(cfg, overrides(cmd, f))
	if err := cfgpkg.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, tags.Error(err.Error()))
		_ = dumpConfig(stderr, cfg)
		return 1
	}

	logger := diag.NewLogger(uuid.NewString(), cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Close()

	if err := preflightCheckOutputDir(cfg.Output.Dir); err != nil {
		fmt.Fprintln(stderr, tags.Error("output directory not writable: "+err.Error()))
		logger.Error("cli", string(diag.Classify(err)), "preflight", &start)
		return 1
	}
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fmt.Fprintln(stderr, tags.Error(err.Error()))
		logger.Error("cli", string(diag.Classify(err)), "assemble: "+err.Error(), &start)
		return 1
	}
	set.Samples = steps
	comp.Terminal = diag.NewTerminal(stderr, !f.noStatus)

	logger.DebugStart("config", "effective", map[string]string{
		"file":        path,
		"pdfset":      set.PDFSet,
		"energy":      strconv.FormatFloat(set.SqrtS, 'g', -1, 64),
		"pthatmin":    strconv.FormatFloat(set.PTHatMin, 'g', -1, 64),
		"abs_max_y":   strconv.FormatFloat(set.AbsMaxY, 'g', -1, 64),
		"bins":        strconv.Itoa(set.Bins),
		"seed":        strconv.FormatUint(set.Seed, 10),
		"concurrency": strconv.Itoa(set.Concurrency),
		"error_model": string(set.ErrorModel),
		"formats":     strings.Join(cfg.Output.Formats, ","),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	sum, err := pipelineRun(ctx, comp, set, logger)
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("cli", code, "first error", &start)
		diag.IncOp("cli", "run", "error")
		diag.IncError("cli", code)
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, tags.Error(err.Error()))
		}
		return 1
	}
	diag.IncOp("cli", "run", "success")
	diag.ObserveDuration("cli", "run", time.Since(start).Milliseconds())

	fmt.Fprintf(stdout, "Integral: %g\n", sum.Integral)
	fmt.Fprintf(stdout, "Integral x bin width: %g\n", sum.IntegralWidth)
	fmt.Fprintf(stdout, "Seed: %d\n", sum.Seed)
	if sum.DegenerateBins > 0 {
		fmt.Fprintln(stderr, tags.Info(fmt.Sprintf("%d bin(s) had no admissible sample", sum.DegenerateBins)))
	}
	return 0
}

// overrides takes only flags given on the command line.
func overrides(cmd *cobra.Command, f flags) cfgpkg.Overrides {
	var o cfgpkg.Overrides
	fl := cmd.Flags()
	if fl.Changed("seed") {
		o.Seed = &f.seed
	}
	if fl.Changed("concurrency") {
		o.Concurrency = &f.concurrency
	}
	if fl.Changed("deltay") {
		o.DeltaY = &f.deltaY
	}
	o.OutputDir = f.outputDir
	o.Formats = f.formats
	o.ErrorModel = f.errorModel
	o.LogLevel = f.logLevel
	o.MetricsFile = f.metricsFile
	return o
}

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "effective configuration:\n%s", b)
	return err
}

// writeTemplate creates dir/input.yaml; an existing file is left untouched.
func writeTemplate(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	b, err := cfgpkg.Template()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "input.yaml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%s already exists", path)
		}
		return "", err
	}
	defer f.Close()
	_, err = f.Write(b)
	return path, err
}

// preflightCheckOutputDir fails early when dir (or, if missing, its parent)
// cannot take new files.
func preflightCheckOutputDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil
	}
	st, err := os.Stat(dir)
	switch {
	case err == nil && !st.IsDir():
		return fmt.Errorf("%s exists and is not a directory", dir)
	case err == nil:
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		return os.Remove(name)
	case !os.IsNotExist(err):
		return err
	}
	parent := filepath.Dir(filepath.Clean(dir))
	for {
		pst, err := os.Stat(parent)
		if err == nil {
			if !pst.IsDir() {
				return fmt.Errorf("%s is not a directory", parent)
			}
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
		next := filepath.Dir(parent)
		if next == parent {
			return fmt.Errorf("no existing parent for %s", dir)
		}
		parent = next
	}
	tmp, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	return os.RemoveAll(tmp)
}
