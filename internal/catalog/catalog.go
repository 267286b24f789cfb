package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/pkg/report"
	"github.com/sanirun/sanirun/util/sliceutil"
)

const (
	ModeNative   = "native"
	ModeAddress  = "address"
	ModeMemory   = "memory"
	ModeValgrind = "valgrind"
)

// ValgrindErrorExitCode is passed via --error-exitcode so that "valgrind
// detected a defect" is distinguishable from the test binary's own exit
// codes and from valgrind failing to start.
const ValgrindErrorExitCode = 100

// Classifier decides the outcome of a mode from the process exit code,
// the captured combined output and the first sanitizer/valgrind report
// found in it. It is only applied when the process actually ran to
// completion; start failures and timeouts are classified by the runner.
type Classifier func(exitCode int, output string, sanitizerReport string) (report.Outcome, string)

// Mode describes one instrumentation regime. Modes are defined once at
// process start and not modified afterwards.
type Mode struct {
	Name        string
	Description string

	// Env is applied on top of the ambient environment. Mode keys win
	// on conflicts.
	Env map[string]string

	// RequiresRebuild means the test binary must be built with the
	// mode's flags before running. Modes without it reuse an existing
	// artifact and only build when none is present.
	RequiresRebuild bool

	// BuildArgs are additional cargo arguments for the mode's build.
	BuildArgs []string

	// TargetDir is the cargo target directory relative to the build
	// root. Sanitizer builds get their own directory so that their
	// instrumented artifacts never mix with the native ones.
	TargetDir string

	// Target is the target triple to build for. Required for
	// -Zsanitizer builds, empty for the native host build.
	Target string

	// Wrapper is prepended to the invocation argv, e.g. valgrind and
	// its options.
	Wrapper []string

	// Args are passed to the test executable.
	Args []string

	Timeout  time.Duration
	Classify Classifier
}

// Default returns all supported modes in report order. The target
// triple is required by the sanitizer modes, which cannot build without
// an explicit --target.
func Default(target string) []*Mode {
	return []*Mode{
		{
			Name:        ModeNative,
			Description: "plain test suite run without instrumentation",
			TargetDir:   "target",
			Timeout:     10 * time.Minute,
			Classify:    classifySanitizer,
		},
		{
			Name:        ModeAddress,
			Description: "AddressSanitizer instrumented run",
			Env: map[string]string{
				"RUSTFLAGS":       "-Zsanitizer=address",
				"RUSTC_BOOTSTRAP": "1",
				"ASAN_OPTIONS":    "detect_stack_use_after_return=1",
			},
			RequiresRebuild: true,
			TargetDir:       "target/address",
			Target:          target,
			Timeout:         20 * time.Minute,
			Classify:        classifySanitizer,
		},
		{
			Name:        ModeMemory,
			Description: "MemorySanitizer instrumented run with origin tracking",
			Env: map[string]string{
				"RUSTFLAGS":       "-Zsanitizer=memory -Zsanitizer-memory-track-origins",
				"RUSTC_BOOTSTRAP": "1",
			},
			RequiresRebuild: true,
			// MemorySanitizer reports false positives unless the
			// standard library is instrumented as well.
			BuildArgs: []string{"-Zbuild-std"},
			TargetDir: "target/memory",
			Target:    target,
			Timeout:   30 * time.Minute,
			Classify:  classifySanitizer,
		},
		{
			Name:        ModeValgrind,
			Description: "native binary run under valgrind memcheck",
			TargetDir:   "target",
			Wrapper: []string{
				"valgrind",
				fmt.Sprintf("--error-exitcode=%d", ValgrindErrorExitCode),
				"--leak-check=full",
				"--errors-for-leak-kinds=definite",
			},
			// Valgrind serializes threads anyway, and a single thread
			// keeps its reports readable.
			Args:     []string{"--test-threads=1"},
			Timeout:  45 * time.Minute,
			Classify: classifyValgrind,
		},
	}
}

// Names returns the names of all supported modes in report order.
func Names() []string {
	var names []string
	for _, m := range Default("") {
		names = append(names, m.Name)
	}
	return names
}

// Select returns the modes with the given names, in catalog order. The
// selection never reorders modes. An unknown name is a configuration
// error.
func Select(modes []*Mode, names []string) ([]*Mode, error) {
	byName := make(map[string]*Mode, len(modes))
	for _, m := range modes {
		byName[m.Name] = m
	}
	for _, name := range names {
		if _, found := byName[name]; !found {
			return nil, errors.Errorf("unknown mode %q, supported modes: %s",
				name, strings.Join(Names(), ", "))
		}
	}

	var selected []*Mode
	for _, m := range modes {
		if sliceutil.Contains(names, m.Name) {
			selected = append(selected, m)
		}
	}
	return selected, nil
}

func classifySanitizer(exitCode int, output string, sanitizerReport string) (report.Outcome, string) {
	// A sanitizer report means a defect was found even if the process
	// exited with code 0, which happens with -fsanitize-recover style
	// setups.
	if sanitizerReport != "" {
		return report.Outcome_FAIL, sanitizerReport
	}
	if exitCode == 0 {
		return report.Outcome_PASS, ""
	}
	return report.Outcome_FAIL, fmt.Sprintf("test binary exited with code %d", exitCode)
}

func classifyValgrind(exitCode int, output string, sanitizerReport string) (report.Outcome, string) {
	switch {
	case exitCode == ValgrindErrorExitCode:
		if sanitizerReport != "" {
			return report.Outcome_FAIL, sanitizerReport
		}
		return report.Outcome_FAIL, "valgrind detected memory errors"
	case exitCode == 0:
		if sanitizerReport != "" {
			return report.Outcome_FAIL, sanitizerReport
		}
		return report.Outcome_PASS, ""
	case strings.Contains(output, "valgrind: ") && !strings.Contains(output, "ERROR SUMMARY"):
		// Lines prefixed with "valgrind: " without a final error
		// summary mean valgrind aborted before running the binary.
		return report.Outcome_ERROR, "valgrind failed to run"
	default:
		return report.Outcome_FAIL, fmt.Sprintf("test binary exited with code %d under valgrind", exitCode)
	}
}
