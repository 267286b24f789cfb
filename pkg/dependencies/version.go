package dependencies

import (
	"fmt"
	"os/exec"
	"regexp"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/pkg/cmdutils"
)

/*
Note: we made the "patch" part of the semver (when parsing the output with regex) optional
to be more lenient when a command returns something like 1.2 instead of 1.2.0
*/
var (
	cargoRegex    = regexp.MustCompile(`(?m)cargo (?P<version>\d+\.\d+(\.\d+)?)`)
	rustcRegex    = regexp.MustCompile(`(?m)rustc (?P<version>\d+\.\d+(\.\d+)?)`)
	valgrindRegex = regexp.MustCompile(`(?m)valgrind-(?P<version>\d+\.\d+(\.\d+)?)`)
)

func cargoVersion(dep *Dependency) (*semver.Version, error) {
	path, err := dep.finder.CargoPath()
	if err != nil {
		return nil, err
	}

	version, err := getVersionFromCommand(path, []string{"--version"}, cargoRegex, dep.Key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return version, nil
}

func rustcVersion(dep *Dependency) (*semver.Version, error) {
	path, err := dep.finder.RustcPath()
	if err != nil {
		return nil, err
	}

	version, err := getVersionFromCommand(path, []string{"--version"}, rustcRegex, dep.Key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return version, nil
}

func valgrindVersion(dep *Dependency) (*semver.Version, error) {
	path, err := dep.finder.ValgrindPath()
	if err != nil {
		return nil, err
	}

	version, err := getVersionFromCommand(path, []string{"--version"}, valgrindRegex, dep.Key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return version, nil
}

// takes a command + args and parses the output for a semver
func getVersionFromCommand(cmdPath string, args []string, re *regexp.Regexp, key Key) (*semver.Version, error) {
	cmd := exec.Command(cmdPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, cmdutils.WrapExecError(errors.WithStack(err), cmd)
	}
	return extractVersion(string(output), re, key)
}

func extractVersion(output string, re *regexp.Regexp, key Key) (*semver.Version, error) {
	result := re.FindStringSubmatch(output)
	if len(result) <= 1 {
		return nil, fmt.Errorf("No matching version string for %s", key)
	}

	version, err := semver.NewVersion(result[1])
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return version, nil
}
