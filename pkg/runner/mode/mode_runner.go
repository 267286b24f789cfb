package mode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/pkg/log"
	"github.com/sanirun/sanirun/pkg/parser/sanitizer"
	"github.com/sanirun/sanirun/pkg/report"
	"github.com/sanirun/sanirun/util/envutil"
	"github.com/sanirun/sanirun/util/executil"
	"github.com/sanirun/sanirun/util/stringutil"
)

// maxLineLength bounds the scanner buffer. Sanitizer stack traces can
// produce long lines.
const maxLineLength = 1024 * 1024

type RunnerOptions struct {
	// BuildDir is the working directory for the test binary.
	BuildDir string
	// Timeout overrides the mode's own timeout when set.
	Timeout time.Duration
	// Verbose streams the child output to LogOutput while it is being
	// captured.
	Verbose   bool
	LogOutput io.Writer
}

func (options *RunnerOptions) ValidateOptions() error {
	if options.LogOutput == nil {
		options.LogOutput = os.Stderr
	}
	return nil
}

type Runner struct {
	*RunnerOptions
}

func NewRunner(options *RunnerOptions) *Runner {
	return &Runner{RunnerOptions: options}
}

// Run executes the given mode against the resolved test executable and
// returns its result. Per-mode failures are captured in the result,
// they never surface as errors: a mode that could not be started or
// timed out yields an ERROR outcome, everything else is classified by
// the mode's classifier.
func (r *Runner) Run(ctx context.Context, m *catalog.Mode, executable string) *report.ModeResult {
	err := r.ValidateOptions()
	if err != nil {
		return errorResult(m, nil, err.Error())
	}

	args := append([]string{}, m.Wrapper...)
	args = append(args, executable)
	args = append(args, m.Args...)

	// The mode environment wins on conflicting keys
	env, err := envutil.Overlay(os.Environ(), m.Env)
	if err != nil {
		return errorResult(m, nil, err.Error())
	}

	timeout := m.Timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	var cmdCtx context.Context
	var cancelCmdCtx context.CancelFunc
	if timeout > 0 {
		cmdCtx, cancelCmdCtx = context.WithTimeout(ctx, timeout)
	} else {
		cmdCtx, cancelCmdCtx = context.WithCancel(ctx)
	}
	defer cancelCmdCtx()

	cmd := executil.CommandContext(cmdCtx, args[0], args[1:]...)
	cmd.TerminateProcessGroupWhenContextDone = true
	cmd.Env = env
	cmd.Dir = r.BuildDir

	// The child's combined output goes three ways: into the capture
	// buffer for the log artifact, through a pipe to the marker
	// scanner, and in verbose mode to the caller's log output.
	pr, pw, err := os.Pipe()
	if err != nil {
		return errorResult(m, nil, errors.WithStack(err).Error())
	}
	var output bytes.Buffer
	sink := io.MultiWriter(&output, pw)
	if r.Verbose {
		sink = io.MultiWriter(&output, pw, log.NewPTermWriter(r.LogOutput))
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	var sanitizerReport string
	routines := errgroup.Group{}
	routines.Go(func() error {
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
		for scanner.Scan() {
			if rep, found := sanitizer.FindReport(scanner.Text()); found && sanitizerReport == "" {
				sanitizerReport = rep
			}
		}
		return errors.WithStack(scanner.Err())
	})

	log.Debugf("Command: %s", strings.Join(stringutil.QuotedStrings(cmd.Args), " "))
	start := time.Now()
	err = cmd.Start()
	if err != nil {
		_ = pw.Close()
		_ = routines.Wait()
		_ = pr.Close()
		return errorResult(m, nil, "failed to start: "+err.Error())
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	// Close the write end so the scanner reaches EOF
	_ = pw.Close()
	scanErr := routines.Wait()
	_ = pr.Close()
	if scanErr != nil {
		log.Warnf("failed to scan %s output: %v", m.Name, scanErr)
	}

	if cmd.TerminatedAfterContextDone() {
		res := errorResult(m, output.Bytes(), fmt.Sprintf("timed out after %s", timeout))
		res.Duration = duration
		return res
	}

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			res := errorResult(m, output.Bytes(), "failed to run: "+waitErr.Error())
			res.Duration = duration
			return res
		}
		exitCode = exitErr.ExitCode()
	}

	outcome, reason := m.Classify(exitCode, output.String(), sanitizerReport)
	return &report.ModeResult{
		Mode:     m.Name,
		Outcome:  outcome,
		ExitCode: exitCode,
		Reason:   reason,
		Duration: duration,
		Output:   output.Bytes(),
	}
}

func errorResult(m *catalog.Mode, output []byte, reason string) *report.ModeResult {
	return &report.ModeResult{
		Mode:     m.Name,
		Outcome:  report.Outcome_ERROR,
		ExitCode: -1,
		Reason:   reason,
		Output:   output,
	}
}
