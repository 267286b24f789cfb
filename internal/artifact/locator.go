package artifact

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/sanirun/sanirun/util/fileutil"
)

// BuildSignature identifies the build that produced the artifact a mode
// has to run: the cargo target directory, the target triple and the
// crate whose test binary is wanted.
type BuildSignature struct {
	// TargetDir is the cargo target directory relative to the build
	// root, e.g. "target" or "target/address".
	TargetDir string
	// Target is the target triple, empty for a plain host build.
	Target string
	// Crate restricts candidates to test binaries of this crate. When
	// empty, any test binary in the deps directory is a candidate.
	Crate string
}

// A NoArtifactFoundError indicates that no executable test binary
// matched the build signature.
type NoArtifactFoundError struct {
	Pattern string
}

func (e NoArtifactFoundError) Error() string {
	return fmt.Sprintf("no test executable found matching %s", e.Pattern)
}

// An AmbiguousArtifactError indicates that more than one executable
// matched the build signature. Picking one silently would invalidate
// the mode's result, so this is always reported to the caller.
type AmbiguousArtifactError struct {
	Pattern    string
	Candidates []string
}

func (e AmbiguousArtifactError) Error() string {
	return fmt.Sprintf("found %d test executables matching %s: %s",
		len(e.Candidates), e.Pattern, strings.Join(e.Candidates, ", "))
}

// Find resolves the single executable test binary for the given build
// signature under the build root. Cargo emits test binaries as
// <crate>-<hash> into the deps directory, next to non-executable
// build artifacts, so candidates are filtered by executable bit and by
// not carrying a build artifact extension.
func Find(buildDir string, sig BuildSignature) (string, error) {
	prefix := "*"
	if sig.Crate != "" {
		// Cargo replaces dashes with underscores in artifact names
		prefix = strings.ReplaceAll(sig.Crate, "-", "_")
	}

	elems := []string{buildDir, sig.TargetDir}
	if sig.Target != "" {
		elems = append(elems, sig.Target)
	}
	elems = append(elems, "debug", "deps", prefix+"-*")
	pattern := filepath.Join(elems...)

	matches, err := zglob.Glob(pattern)
	if err != nil {
		return "", errors.WithStack(err)
	}

	var candidates []string
	for _, match := range matches {
		if !isTestExecutable(match) {
			continue
		}
		candidates = append(candidates, match)
	}

	switch len(candidates) {
	case 0:
		return "", errors.WithStack(&NoArtifactFoundError{Pattern: pattern})
	case 1:
		absPath, err := filepath.Abs(candidates[0])
		if err != nil {
			return "", errors.WithStack(err)
		}
		return absPath, nil
	default:
		return "", errors.WithStack(&AmbiguousArtifactError{
			Pattern:    pattern,
			Candidates: candidates,
		})
	}
}

func isTestExecutable(path string) bool {
	// Dependency info, metadata and library artifacts live next to the
	// test binaries in the deps directory.
	ext := filepath.Ext(path)
	if ext != "" && ext != ".exe" {
		return false
	}
	return fileutil.IsExecutable(path)
}
