package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanirun/sanirun/pkg/report"
)

func TestDefault_ModeOrder(t *testing.T) {
	modes := Default("x86_64-unknown-linux-gnu")
	require.Len(t, modes, 4)

	var names []string
	for _, m := range modes {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{ModeNative, ModeAddress, ModeMemory, ModeValgrind}, names)
}

func TestDefault_SanitizerModesRebuild(t *testing.T) {
	for _, m := range Default("x86_64-unknown-linux-gnu") {
		switch m.Name {
		case ModeAddress, ModeMemory:
			assert.True(t, m.RequiresRebuild, m.Name)
			assert.Contains(t, m.Env["RUSTFLAGS"], "-Zsanitizer=")
			assert.Equal(t, "x86_64-unknown-linux-gnu", m.Target)
			// Instrumented artifacts must not mix with the native ones
			assert.NotEqual(t, "target", m.TargetDir, m.Name)
		case ModeNative, ModeValgrind:
			assert.False(t, m.RequiresRebuild, m.Name)
			assert.Equal(t, "target", m.TargetDir, m.Name)
		}
	}
}

func TestSelect(t *testing.T) {
	modes := Default("")

	selected, err := Select(modes, []string{ModeValgrind, ModeNative})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	// Selection never reorders modes
	assert.Equal(t, ModeNative, selected[0].Name)
	assert.Equal(t, ModeValgrind, selected[1].Name)
}

func TestSelect_UnknownMode(t *testing.T) {
	_, err := Select(Default(""), []string{"thread"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestClassifySanitizer(t *testing.T) {
	tests := []struct {
		name            string
		exitCode        int
		sanitizerReport string
		expected        report.Outcome
	}{
		{name: "clean exit", exitCode: 0, expected: report.Outcome_PASS},
		{name: "test failure", exitCode: 101, expected: report.Outcome_FAIL},
		{name: "killed by sanitizer", exitCode: 137, expected: report.Outcome_FAIL},
		{
			name:            "clean exit with sanitizer report",
			exitCode:        0,
			sanitizerReport: "AddressSanitizer: heap-buffer-overflow",
			expected:        report.Outcome_FAIL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, reason := classifySanitizer(tt.exitCode, "", tt.sanitizerReport)
			assert.Equal(t, tt.expected, outcome)
			if tt.sanitizerReport != "" {
				assert.Equal(t, tt.sanitizerReport, reason)
			}
		})
	}
}

func TestClassifyValgrind(t *testing.T) {
	tests := []struct {
		name     string
		exitCode int
		output   string
		expected report.Outcome
	}{
		{name: "clean exit", exitCode: 0, expected: report.Outcome_PASS},
		{
			name:     "defect found",
			exitCode: ValgrindErrorExitCode,
			output:   "==1==ERROR SUMMARY: 2 errors from 1 contexts",
			expected: report.Outcome_FAIL,
		},
		{
			name:     "test failure under valgrind",
			exitCode: 101,
			output:   "==1== ERROR SUMMARY: 0 errors from 0 contexts",
			expected: report.Outcome_FAIL,
		},
		{
			name:     "valgrind could not run",
			exitCode: 1,
			output:   "valgrind: Bad option: --no-such-option",
			expected: report.Outcome_ERROR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, _ := classifyValgrind(tt.exitCode, tt.output, "")
			assert.Equal(t, tt.expected, outcome)
		})
	}
}
