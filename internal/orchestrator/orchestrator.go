package orchestrator

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/internal/artifact"
	"github.com/sanirun/sanirun/internal/build/cargo"
	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/pkg/log"
	"github.com/sanirun/sanirun/pkg/report"
	moderunner "github.com/sanirun/sanirun/pkg/runner/mode"
	"github.com/sanirun/sanirun/util/fileutil"
)

// Builder produces the test binary for a mode.
type Builder interface {
	Build(ctx context.Context, mode *catalog.Mode) error
}

// Runner executes one mode against a resolved test executable.
type Runner interface {
	Run(ctx context.Context, mode *catalog.Mode, executable string) *report.ModeResult
}

// Writer persists per-mode logs and the aggregate summary.
type Writer interface {
	WriteModeLog(result *report.ModeResult) error
	WriteSummary(rep *report.PipelineReport) error
}

// Locator resolves the single executable test binary for a build
// signature.
type Locator func(buildDir string, sig artifact.BuildSignature) (string, error)

type Options struct {
	Modes    []*catalog.Mode
	BuildDir string
	// Crate narrows artifact discovery to one crate's test binary.
	Crate string
	// FailFast aborts remaining modes after the first non-passing mode,
	// marking them as skipped in the report.
	FailFast bool
	// Timeout overrides the per-mode timeouts when set.
	Timeout   time.Duration
	ReportDir string
	Verbose   bool

	// The collaborators below default to the real implementations and
	// are only set in tests.
	Builder Builder
	Runner  Runner
	Writer  Writer
	Locator Locator
}

type Orchestrator struct {
	opts *Options
}

func New(opts *Options) (*Orchestrator, error) {
	if len(opts.Modes) == 0 {
		return nil, errors.New("no instrumentation modes configured")
	}
	if opts.Builder == nil {
		opts.Builder = cargo.NewBuilder(&cargo.BuilderOptions{
			BuildDir: opts.BuildDir,
		})
	}
	if opts.Runner == nil {
		opts.Runner = moderunner.NewRunner(&moderunner.RunnerOptions{
			BuildDir: opts.BuildDir,
			Timeout:  opts.Timeout,
			Verbose:  opts.Verbose,
		})
	}
	if opts.Writer == nil {
		writer, err := report.NewWriter(opts.ReportDir)
		if err != nil {
			return nil, err
		}
		opts.Writer = writer
	}
	if opts.Locator == nil {
		opts.Locator = artifact.Find
	}
	return &Orchestrator{opts: opts}, nil
}

// Run executes all configured modes in catalog order, strictly
// sequentially, and persists the report. Per-mode failures are captured
// in the mode's result; only persistence failures are returned as
// errors. Cancellation is checked between modes, a cancelled context
// marks the remaining modes as skipped.
func (o *Orchestrator) Run(ctx context.Context) (*report.PipelineReport, error) {
	results := make([]*report.ModeResult, 0, len(o.opts.Modes))
	abort := false

	for _, m := range o.opts.Modes {
		if abort || ctx.Err() != nil {
			results = append(results, report.Skipped(m.Name))
			continue
		}

		log.Infof("Running mode %s (%s)", m.Name, m.Description)
		res := o.runMode(ctx, m)

		err := o.opts.Writer.WriteModeLog(res)
		if err != nil {
			return nil, err
		}
		results = append(results, res)

		switch res.Outcome {
		case report.Outcome_PASS:
			log.Successf("%s: %s", m.Name, res.Outcome)
		default:
			log.Warnf("%s: %s (%s)", m.Name, res.Outcome, res.Reason)
			if o.opts.FailFast {
				abort = true
			}
		}
	}

	rep := &report.PipelineReport{
		Results: results,
		Outcome: report.Aggregate(results),
	}
	err := o.opts.Writer.WriteSummary(rep)
	if err != nil {
		return nil, err
	}

	log.Infof("Report written to %s", fileutil.PrettifyPath(o.opts.ReportDir))
	return rep, nil
}

// runMode drives one mode through build, artifact resolution and
// execution. Build and resolution failures yield an ERROR result,
// because the mode's tests never ran; they must not look like a test
// failure.
func (o *Orchestrator) runMode(ctx context.Context, m *catalog.Mode) *report.ModeResult {
	sig := artifact.BuildSignature{
		TargetDir: m.TargetDir,
		Target:    m.Target,
		Crate:     o.opts.Crate,
	}

	needsBuild := m.RequiresRebuild
	if !needsBuild {
		// Modes without their own build reuse an existing artifact and
		// only build when none is present yet.
		if _, err := o.opts.Locator(o.opts.BuildDir, sig); err != nil {
			needsBuild = true
		}
	}

	if needsBuild {
		err := o.opts.Builder.Build(ctx, m)
		if err != nil {
			res := &report.ModeResult{
				Mode:     m.Name,
				Outcome:  report.Outcome_ERROR,
				ExitCode: -1,
				Reason:   "build failed: " + err.Error(),
			}
			var buildErr *cargo.BuildError
			if errors.As(err, &buildErr) {
				res.Reason = "build failed"
				res.Output = []byte(buildErr.Output)
			}
			return res
		}
	}

	executable, err := o.opts.Locator(o.opts.BuildDir, sig)
	if err != nil {
		return &report.ModeResult{
			Mode:     m.Name,
			Outcome:  report.Outcome_ERROR,
			ExitCode: -1,
			Reason:   err.Error(),
		}
	}

	return o.opts.Runner.Run(ctx, m, executable)
}
