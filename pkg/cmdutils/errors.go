package cmdutils

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

var ErrSilent = &SilentError{err: errors.New("SilentError")}

// SilentError indicates that the error message should not be printed
// when the error is handled.
type SilentError struct {
	err error
}

func (e SilentError) Error() string {
	return e.err.Error()
}

func (e SilentError) Unwrap() error {
	return e.err
}

// WrapSilentError wraps an existing error into a SilentError to avoid
// having the error message printed when the error is handled.
func WrapSilentError(err error) error {
	return &SilentError{err}
}

// IncorrectUsageError indicates that the command wasn't used correctly,
// for example because required arguments are missing.
// When an IncorrectUsageError is handled, the usage message should be
// printed.
type IncorrectUsageError struct {
	err error
}

func (e IncorrectUsageError) Error() string {
	return e.err.Error()
}

func (e IncorrectUsageError) Unwrap() error {
	return e.err
}

// WrapIncorrectUsageError wraps an existing error into a
// IncorrectUsageError to have the usage message printed when the error
// is handled.
func WrapIncorrectUsageError(err error) error {
	return &IncorrectUsageError{err}
}

// PipelineFailedError indicates that the orchestrator ran to completion
// but one or more instrumentation modes did not pass. It is mapped to
// exit code 1, as opposed to exit code 2 which is used for errors of
// the orchestrator itself.
type PipelineFailedError struct {
	err error
}

func (e PipelineFailedError) Error() string {
	return e.err.Error()
}

func (e PipelineFailedError) Unwrap() error {
	return e.err
}

// WrapPipelineFailedError wraps an existing error into a
// PipelineFailedError to have it handled with exit code 1.
func WrapPipelineFailedError(err error) error {
	return &PipelineFailedError{err}
}

// ExecError includes information about the exec.Cmd which failed in the
// error message.
type ExecError struct {
	err error
	cmd *exec.Cmd
}

func (e ExecError) Error() string {
	return strings.Join(e.cmd.Args, " ") + ": " + e.err.Error()
}

func (e ExecError) Unwrap() error {
	return e.err
}

func WrapExecError(err error, cmd *exec.Cmd) error {
	return &ExecError{err, cmd}
}
