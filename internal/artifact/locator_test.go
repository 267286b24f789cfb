package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createDepsDir(t *testing.T, sig BuildSignature) (string, string) {
	buildDir := t.TempDir()
	elems := []string{buildDir, sig.TargetDir}
	if sig.Target != "" {
		elems = append(elems, sig.Target)
	}
	elems = append(elems, "debug", "deps")
	depsDir := filepath.Join(elems...)
	err := os.MkdirAll(depsDir, 0755)
	require.NoError(t, err)
	return buildDir, depsDir
}

func createFile(t *testing.T, dir, name string, perm os.FileMode) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\n"), perm)
	require.NoError(t, err)
	return path
}

func TestFind(t *testing.T) {
	sig := BuildSignature{TargetDir: "target", Crate: "melior"}
	buildDir, depsDir := createDepsDir(t, sig)

	want := createFile(t, depsDir, "melior-8fe2bc572884b45f", 0755)
	// Non-executable build artifacts next to the test binary
	createFile(t, depsDir, "melior-8fe2bc572884b45f.d", 0644)
	createFile(t, depsDir, "libmelior-0c5d803036d82225.rmeta", 0644)
	// Another crate's test binary is not a candidate
	createFile(t, depsDir, "other_crate-1111111111111111", 0755)

	path, err := Find(buildDir, sig)
	require.NoError(t, err)
	wantAbs, err := filepath.Abs(want)
	require.NoError(t, err)
	assert.Equal(t, wantAbs, path)
}

func TestFind_TargetTriple(t *testing.T) {
	sig := BuildSignature{
		TargetDir: "target/address",
		Target:    "x86_64-unknown-linux-gnu",
		Crate:     "melior",
	}
	buildDir, depsDir := createDepsDir(t, sig)
	want := createFile(t, depsDir, "melior-aaaaaaaaaaaaaaaa", 0755)

	path, err := Find(buildDir, sig)
	require.NoError(t, err)
	wantAbs, err := filepath.Abs(want)
	require.NoError(t, err)
	assert.Equal(t, wantAbs, path)
}

func TestFind_NoArtifact(t *testing.T) {
	sig := BuildSignature{TargetDir: "target", Crate: "melior"}
	buildDir, depsDir := createDepsDir(t, sig)
	// Only non-executable artifacts are present
	createFile(t, depsDir, "melior-8fe2bc572884b45f.d", 0644)

	_, err := Find(buildDir, sig)
	require.Error(t, err)

	var notFoundErr *NoArtifactFoundError
	require.True(t, errors.As(err, &notFoundErr))
}

func TestFind_AmbiguousArtifact(t *testing.T) {
	sig := BuildSignature{TargetDir: "target", Crate: "melior"}
	buildDir, depsDir := createDepsDir(t, sig)
	first := createFile(t, depsDir, "melior-8fe2bc572884b45f", 0755)
	second := createFile(t, depsDir, "melior-0c5d803036d82225", 0755)

	_, err := Find(buildDir, sig)
	require.Error(t, err)

	// Never resolved by guessing: both candidates are reported
	var ambiguousErr *AmbiguousArtifactError
	require.True(t, errors.As(err, &ambiguousErr))
	assert.ElementsMatch(t, []string{first, second}, ambiguousErr.Candidates)
}

func TestFind_DashesInCrateName(t *testing.T) {
	sig := BuildSignature{TargetDir: "target", Crate: "my-crate"}
	buildDir, depsDir := createDepsDir(t, sig)
	createFile(t, depsDir, "my_crate-8fe2bc572884b45f", 0755)

	_, err := Find(buildDir, sig)
	require.NoError(t, err)
}
