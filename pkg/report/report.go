package report

import (
	"time"
)

type Outcome string

// These constants must have this exact value (in uppercase) because
// they are written verbatim to the summary file, which is parsed back
// by automation.
const (
	Outcome_PASS    Outcome = "PASS"
	Outcome_FAIL    Outcome = "FAIL"
	Outcome_ERROR   Outcome = "ERROR"
	Outcome_SKIPPED Outcome = "SKIPPED"
)

// ModeResult is the result of executing a single instrumentation mode.
// It is created once per mode execution and not modified afterwards,
// except for LogPath which is filled in by the report writer when the
// captured output is persisted.
type ModeResult struct {
	Mode     string  `json:"mode"`
	Outcome  Outcome `json:"outcome"`
	ExitCode int     `json:"exit_code"`

	// Reason describes why the mode did not pass: the sanitizer report
	// that was found, a timeout marker, or a build failure.
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	LogPath  string        `json:"log,omitempty"`

	// Output is the combined stdout/stderr of the mode's process (or of
	// the failed build). It is persisted to LogPath by the report
	// writer and not included in the JSON summary.
	Output []byte `json:"-"`
}

// Skipped returns the result for a mode that was not executed, either
// because an earlier mode failed with fail-fast requested or because
// the run was cancelled.
func Skipped(mode string) *ModeResult {
	return &ModeResult{
		Mode:     mode,
		Outcome:  Outcome_SKIPPED,
		ExitCode: -1,
		Reason:   "not executed",
	}
}

// PipelineReport is the aggregate result of one orchestrator
// invocation. Results are ordered like the catalog.
type PipelineReport struct {
	Results []*ModeResult `json:"results"`
	Outcome Outcome       `json:"outcome"`
}

// Aggregate computes the overall outcome: PASS iff every mode was
// executed and passed. A skipped mode makes the aggregate outcome FAIL.
func Aggregate(results []*ModeResult) Outcome {
	for _, res := range results {
		if res.Outcome != Outcome_PASS {
			return Outcome_FAIL
		}
	}
	return Outcome_PASS
}
