package dependencies

import (
	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/internal/tools"
	"github.com/sanirun/sanirun/pkg/log"
)

type Key string

const (
	CARGO    Key = "cargo"
	RUSTC    Key = "rustc"
	VALGRIND Key = "valgrind"

	MESSAGE_VERSION = "sanirun requires %s %s or higher, have %s"
	MESSAGE_MISSING = "sanirun requires %s, but it is not installed"
)

// Dependency represents a single external tool dependency
type Dependency struct {
	finder tools.Finder

	Key        Key
	MinVersion semver.Version
	// these fields are used to implement custom logic to
	// retrieve version or installation information for the
	// specific dependency
	GetVersion func(*Dependency) (*semver.Version, error)
	Installed  func(*Dependency) bool
}

// CheckVersion compares MinVersion against GetVersion
func (dep *Dependency) CheckVersion() bool {
	currentVersion, err := dep.GetVersion(dep)
	if err != nil {
		log.Warnf("Unable to get current version for %s, message: %v", dep.Key, err)
		// we want to be lenient if we were not able to extract the version
		return true
	}

	if currentVersion.Compare(&dep.MinVersion) == -1 {
		log.Warnf(MESSAGE_VERSION, dep.Key, dep.MinVersion.String(), currentVersion.String())
		return false
	}
	return true
}

func (dep *Dependency) Ok() bool {
	if !dep.Installed(dep) {
		log.Warnf(MESSAGE_MISSING, dep.Key)
		return false
	}

	return dep.CheckVersion()
}

// helper to easily check against functions from the tools.Finder interface
func (dep *Dependency) checkFinder(finderFunc func() (string, error)) bool {
	if _, err := finderFunc(); err != nil {
		return false
	}
	return true
}

// Check iterates over a list of dependencies and reports whether they
// are all fulfilled
func Check(keys []Key, deps Dependencies, finder tools.Finder) (bool, error) {
	allFine := true
	for _, key := range keys {
		dep, found := deps[key]
		if !found {
			return false, errors.Errorf("Undefined dependency %s", key)
		}

		dep.finder = finder

		log.Debugf("Checking dependency: %s version >= %s", dep.Key, dep.MinVersion.String())

		if !dep.Ok() {
			allFine = false
		}
	}
	return allFine, nil
}
