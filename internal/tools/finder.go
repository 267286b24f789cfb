package tools

import (
	"os/exec"

	"github.com/pkg/errors"
)

// Finder locates the external tools the orchestrator depends on. The
// toolchain bootstrap is responsible for putting them on the search
// path; a missing tool is reported, never silently skipped.
type Finder interface {
	CargoPath() (string, error)
	RustcPath() (string, error)
	ValgrindPath() (string, error)
}

type FinderImpl struct{}

func (f FinderImpl) CargoPath() (string, error) {
	path, err := exec.LookPath("cargo")
	return path, errors.WithStack(err)
}

func (f FinderImpl) RustcPath() (string, error) {
	path, err := exec.LookPath("rustc")
	return path, errors.WithStack(err)
}

func (f FinderImpl) ValgrindPath() (string, error) {
	path, err := exec.LookPath("valgrind")
	return path, errors.WithStack(err)
}

var Default Finder = FinderImpl{}
