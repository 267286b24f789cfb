package dependencies

import (
	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/internal/catalog"
)

type Dependencies map[Key]*Dependency

// Define returns a fresh copy of the named dependency definitions
func Define(keys []Key) (Dependencies, error) {
	deps := Dependencies{}
	for _, key := range keys {
		if dep, found := all[key]; found {
			// make a copy of the dependency to be able to modify it
			// without side effects, for example in tests
			newDep := dep
			deps[key] = &newDep
			continue
		}
		return nil, errors.Errorf("Unknown dependency %s", key)
	}
	return deps, nil
}

// ForModes returns the dependency keys the given modes need. Cargo and
// rustc are always required because every mode runs a cargo-built test
// binary; valgrind only when the valgrind mode is selected.
func ForModes(modes []*catalog.Mode) []Key {
	keys := []Key{CARGO, RUSTC}
	for _, m := range modes {
		if m.Name == catalog.ModeValgrind {
			keys = append(keys, VALGRIND)
			break
		}
	}
	return keys
}

// List of all known dependencies
var all = map[Key]Dependency{
	CARGO: {
		Key:        CARGO,
		MinVersion: *semver.MustParse("1.60.0"),
		GetVersion: cargoVersion,
		Installed: func(dep *Dependency) bool {
			return dep.checkFinder(dep.finder.CargoPath)
		},
	},
	RUSTC: {
		Key:        RUSTC,
		MinVersion: *semver.MustParse("1.60.0"),
		GetVersion: rustcVersion,
		Installed: func(dep *Dependency) bool {
			return dep.checkFinder(dep.finder.RustcPath)
		},
	},
	VALGRIND: {
		Key: VALGRIND,
		// --error-exitcode with reliable leak kinds needs a reasonably
		// recent memcheck
		MinVersion: *semver.MustParse("3.15.0"),
		GetVersion: valgrindVersion,
		Installed: func(dep *Dependency) bool {
			return dep.checkFinder(dep.finder.ValgrindPath)
		},
	},
}
