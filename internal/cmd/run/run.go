package run

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sanirun/sanirun/internal/build/cargo"
	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/internal/config"
	"github.com/sanirun/sanirun/internal/orchestrator"
	"github.com/sanirun/sanirun/internal/tools"
	"github.com/sanirun/sanirun/pkg/cmdutils"
	"github.com/sanirun/sanirun/pkg/dependencies"
	"github.com/sanirun/sanirun/pkg/log"
	"github.com/sanirun/sanirun/pkg/report"
	"github.com/sanirun/sanirun/util/stringutil"
)

type runOptions struct {
	fs *afero.Afero

	modes     []string
	failFast  bool
	buildDir  string
	reportDir string
	crate     string
	timeout   time.Duration
	verbose   bool
	printJSON bool
}

func (opts *runOptions) validate() error {
	// Check if the build dir exists and can be accessed
	info, err := opts.fs.Stat(opts.buildDir)
	if err != nil {
		err = errors.WithStack(err)
		log.Error(err, err.Error())
		return cmdutils.WrapSilentError(err)
	}
	if !info.IsDir() {
		err = errors.Errorf("build directory %s is not a directory", opts.buildDir)
		log.Error(err, err.Error())
		return cmdutils.WrapSilentError(err)
	}

	return nil
}

type runCmd struct {
	*cobra.Command
	opts *runOptions
}

func New() *cobra.Command {
	opts := &runOptions{fs: &afero.Afero{Fs: afero.NewOsFs()}}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the test suite and run it under all configured instrumentation modes",
		Long: `Builds the crate's test binary and executes the test suite once per
instrumentation mode: a plain native run, an AddressSanitizer run, a
MemorySanitizer run and a valgrind memcheck run. Each mode's output is
written to the report directory together with an aggregate summary.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cmd := runCmd{c, opts}
			return cmd.run()
		},
	}

	cmd.Flags().StringSliceVarP(&opts.modes, "modes", "m", nil,
		"Instrumentation modes to run. The default is to run all catalog modes.")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false,
		"Abort after the first mode that does not pass. Remaining modes are\nreported as skipped.")
	cmd.Flags().StringVar(&opts.buildDir, "build-dir", "",
		"Root of the crate whose test suite is exercised. Defaults to the\ncurrent directory or the value from sanirun.yaml.")
	cmd.Flags().StringVar(&opts.reportDir, "report-dir", "",
		"Directory the per-mode logs and the aggregate summary are written to.")
	cmd.Flags().StringVar(&opts.crate, "crate", "",
		"Restrict test binary discovery to this crate.")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0,
		"Override the per-mode timeouts. The default is each mode's own timeout.")
	cmd.Flags().BoolVar(&opts.verbose, "stream-output", false,
		"Stream the test output while it is captured.")
	cmd.Flags().BoolVar(&opts.printJSON, "json", false,
		"Print the aggregate report as JSON to stdout.")

	return cmd
}

func (c *runCmd) run() error {
	// Settle the option precedence: flags win over sanirun.yaml, which
	// wins over the defaults
	projectDir := c.opts.buildDir
	if projectDir == "" {
		projectDir = "."
	}
	projectConfig, err := config.ParseProjectConfig(projectDir)
	if err != nil {
		return err
	}
	if c.opts.buildDir == "" {
		c.opts.buildDir = projectConfig.BuildDir
	}
	if c.opts.reportDir == "" {
		c.opts.reportDir = projectConfig.ReportDir
	}
	if c.opts.crate == "" {
		c.opts.crate = projectConfig.Crate
	}
	if c.opts.timeout == 0 {
		c.opts.timeout = projectConfig.Timeout
	}
	err = c.opts.validate()
	if err != nil {
		return err
	}

	// Cancellation is cooperative: an interrupt cancels between modes,
	// a running mode is only stopped by its timeout
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	modes, err := c.selectModes(ctx)
	if err != nil {
		return err
	}

	c.checkDependencies(modes)

	orch, err := orchestrator.New(&orchestrator.Options{
		Modes:     modes,
		BuildDir:  c.opts.buildDir,
		Crate:     c.opts.crate,
		FailFast:  c.opts.failFast,
		Timeout:   c.opts.timeout,
		ReportDir: c.opts.reportDir,
		Verbose:   c.opts.verbose,
	})
	if err != nil {
		return err
	}

	rep, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	if c.opts.printJSON {
		s, err := stringutil.ToJsonString(rep)
		if err != nil {
			return err
		}
		c.Println(s)
	} else {
		printSummary(rep)
	}

	if rep.Outcome != report.Outcome_PASS {
		return cmdutils.WrapPipelineFailedError(errors.Errorf("one or more modes did not pass"))
	}
	return nil
}

// selectModes builds the catalog and narrows it to the requested
// modes. The host triple is only resolved when a selected mode needs a
// cross-flagged rebuild, because resolving it requires rustc.
func (c *runCmd) selectModes(ctx context.Context) ([]*catalog.Mode, error) {
	selected := stringutil.NonEmpty(c.opts.modes)
	if len(selected) == 0 {
		selected = catalog.Names()
	}

	// First selection pass without a triple, just to learn whether one
	// is needed
	modes, err := catalog.Select(catalog.Default(""), selected)
	if err != nil {
		return nil, cmdutils.WrapIncorrectUsageError(err)
	}

	needsTriple := false
	for _, m := range modes {
		if m.RequiresRebuild {
			needsTriple = true
			break
		}
	}
	if !needsTriple {
		return modes, nil
	}

	triple, err := cargo.HostTriple(ctx, tools.Default)
	if err != nil {
		return nil, err
	}
	log.Debugf("Host triple: %s", triple)

	return catalog.Select(catalog.Default(triple), selected)
}

// checkDependencies warns about missing or outdated tools up front. A
// missing tool is not fatal here: the affected mode reports an ERROR
// outcome when it actually needs the tool, so the summary stays
// complete.
func (c *runCmd) checkDependencies(modes []*catalog.Mode) {
	keys := dependencies.ForModes(modes)
	deps, err := dependencies.Define(keys)
	if err != nil {
		log.Warnf("%v", err)
		return
	}
	ok, err := dependencies.Check(keys, deps, tools.Default)
	if err != nil {
		log.Warnf("%v", err)
		return
	}
	if !ok {
		log.Warn("Some required tools are missing, the affected modes will report errors")
	}
}

func printSummary(rep *report.PipelineReport) {
	log.Print()
	for _, res := range rep.Results {
		switch res.Outcome {
		case report.Outcome_PASS:
			log.Successf("%-10s %s", res.Mode, res.Outcome)
		case report.Outcome_SKIPPED:
			log.Infof("%-10s %s", res.Mode, res.Outcome)
		default:
			log.Warnf("%-10s %s (%s)", res.Mode, res.Outcome, res.Reason)
		}
	}
	if rep.Outcome == report.Outcome_PASS {
		log.Successf("overall    %s", rep.Outcome)
	} else {
		log.Warnf("overall    %s", rep.Outcome)
	}
}
