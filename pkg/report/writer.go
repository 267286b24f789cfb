package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	summaryFileName     = "summary.txt"
	summaryJsonFileName = "summary.json"
	overallKey          = "overall"
)

// A PersistenceError indicates that results could not be written to the
// report directory. It is fatal to the whole invocation, because an
// unrecorded run can't be trusted.
type PersistenceError struct {
	err error
}

func (e PersistenceError) Error() string {
	return e.err.Error()
}

func (e PersistenceError) Unwrap() error {
	return e.err
}

func WrapPersistenceError(err error) error {
	return &PersistenceError{err}
}

// Writer persists mode results under a report directory: one log file
// per executed mode plus an aggregate summary. A new invocation
// deterministically overwrites the files of a previous one, it never
// appends to them.
type Writer struct {
	ReportDir string
}

func NewWriter(reportDir string) (*Writer, error) {
	err := os.MkdirAll(reportDir, 0755)
	if err != nil {
		return nil, WrapPersistenceError(errors.WithStack(err))
	}
	return &Writer{ReportDir: reportDir}, nil
}

// WriteModeLog persists the captured output of the mode to
// <report-dir>/<mode>.log and records the path in the result.
func (w *Writer) WriteModeLog(result *ModeResult) error {
	logPath := filepath.Join(w.ReportDir, result.Mode+".log")
	err := os.WriteFile(logPath, result.Output, 0644)
	if err != nil {
		return WrapPersistenceError(errors.WithStack(err))
	}
	result.LogPath = logPath
	return nil
}

// WriteSummary writes the aggregate summary in two formats: a plain
// text file with one "<mode>: <OUTCOME>" line per configured mode
// followed by an "overall" line, and a JSON file with the full report.
func (w *Writer) WriteSummary(report *PipelineReport) error {
	var sb strings.Builder
	for _, res := range report.Results {
		fmt.Fprintf(&sb, "%s: %s\n", res.Mode, res.Outcome)
	}
	fmt.Fprintf(&sb, "%s: %s\n", overallKey, report.Outcome)

	summaryPath := filepath.Join(w.ReportDir, summaryFileName)
	err := os.WriteFile(summaryPath, []byte(sb.String()), 0644)
	if err != nil {
		return WrapPersistenceError(errors.WithStack(err))
	}

	jsonBytes, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return WrapPersistenceError(errors.WithStack(err))
	}
	jsonPath := filepath.Join(w.ReportDir, summaryJsonFileName)
	err = os.WriteFile(jsonPath, jsonBytes, 0644)
	if err != nil {
		return WrapPersistenceError(errors.WithStack(err))
	}

	return nil
}

// SummaryEntry is one (mode, outcome) pair read back from the plain
// text summary.
type SummaryEntry struct {
	Mode    string
	Outcome Outcome
}

// ReadSummary parses the plain text summary of a previous invocation
// and returns the per-mode entries in file order plus the overall
// outcome.
func ReadSummary(reportDir string) ([]SummaryEntry, Outcome, error) {
	summaryPath := filepath.Join(reportDir, summaryFileName)
	f, err := os.Open(summaryPath)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}
	defer f.Close()

	var entries []SummaryEntry
	var overall Outcome
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		mode, outcome, found := strings.Cut(line, ": ")
		if !found {
			return nil, "", errors.Errorf("invalid summary line: %q", line)
		}
		if mode == overallKey {
			overall = Outcome(outcome)
			continue
		}
		entries = append(entries, SummaryEntry{Mode: mode, Outcome: Outcome(outcome)})
	}
	if err := scanner.Err(); err != nil {
		return nil, "", errors.WithStack(err)
	}

	return entries, overall, nil
}
