package mode

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanirun/sanirun/internal/catalog"
	"github.com/sanirun/sanirun/pkg/report"
)

func TestMain(m *testing.M) {
	if runtime.GOOS == "windows" {
		// The tests below use shell scripts as test executables
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func createScript(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "fake-test-binary")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+content+"\n"), 0755)
	require.NoError(t, err)
	return path
}

func passThroughClassifier(exitCode int, output string, sanitizerReport string) (report.Outcome, string) {
	if sanitizerReport != "" {
		return report.Outcome_FAIL, sanitizerReport
	}
	if exitCode == 0 {
		return report.Outcome_PASS, ""
	}
	return report.Outcome_FAIL, "nonzero exit"
}

func testMode(timeout time.Duration) *catalog.Mode {
	return &catalog.Mode{
		Name:     "test-mode",
		Timeout:  timeout,
		Classify: passThroughClassifier,
	}
}

func TestRun_Pass(t *testing.T) {
	script := createScript(t, "echo running tests; exit 0")

	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), testMode(0), script)

	assert.Equal(t, report.Outcome_PASS, res.Outcome)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, string(res.Output), "running tests")
}

func TestRun_Fail(t *testing.T) {
	script := createScript(t, "exit 7")

	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), testMode(0), script)

	assert.Equal(t, report.Outcome_FAIL, res.Outcome)
	assert.Equal(t, 7, res.ExitCode)
}

func TestRun_SanitizerReportWithCleanExit(t *testing.T) {
	script := createScript(t,
		"echo '==8141==ERROR: AddressSanitizer: heap-use-after-free on address 0x10'; exit 0")

	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), testMode(0), script)

	// A sanitizer report beats a clean exit code
	assert.Equal(t, report.Outcome_FAIL, res.Outcome)
	assert.Contains(t, res.Reason, "AddressSanitizer: heap-use-after-free")
}

func TestRun_ModeEnvWins(t *testing.T) {
	t.Setenv("SANIRUN_TEST_VAR", "ambient")

	script := createScript(t, `echo "var=$SANIRUN_TEST_VAR"; exit 0`)
	m := testMode(0)
	m.Env = map[string]string{"SANIRUN_TEST_VAR": "mode"}

	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), m, script)

	assert.Equal(t, report.Outcome_PASS, res.Outcome)
	assert.Contains(t, string(res.Output), "var=mode")
}

func TestRun_Wrapper(t *testing.T) {
	script := createScript(t, "exit 0")
	m := testMode(0)
	// Run the script through env(1) as a stand-in for valgrind
	m.Wrapper = []string{"/usr/bin/env"}

	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), m, script)

	assert.Equal(t, report.Outcome_PASS, res.Outcome)
}

func TestRun_Timeout(t *testing.T) {
	script := createScript(t, "sleep 30")

	runner := NewRunner(&RunnerOptions{})
	start := time.Now()
	res := runner.Run(context.Background(), testMode(250*time.Millisecond), script)
	elapsed := time.Since(start)

	assert.Equal(t, report.Outcome_ERROR, res.Outcome)
	assert.Contains(t, res.Reason, "timed out")
	// The process group was terminated, we did not wait for the sleep
	assert.Less(t, elapsed, 10*time.Second)
}

func TestRun_StartFailure(t *testing.T) {
	runner := NewRunner(&RunnerOptions{})
	res := runner.Run(context.Background(), testMode(0), filepath.Join(t.TempDir(), "does-not-exist"))

	assert.Equal(t, report.Outcome_ERROR, res.Outcome)
	assert.Contains(t, res.Reason, "failed to start")
	assert.Equal(t, -1, res.ExitCode)
}

func TestRun_TimeoutOverride(t *testing.T) {
	script := createScript(t, "sleep 30")

	// The runner timeout wins over the mode timeout
	runner := NewRunner(&RunnerOptions{Timeout: 250 * time.Millisecond})
	res := runner.Run(context.Background(), testMode(time.Hour), script)

	assert.Equal(t, report.Outcome_ERROR, res.Outcome)
	assert.Contains(t, res.Reason, "timed out")
}
