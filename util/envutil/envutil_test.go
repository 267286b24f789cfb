package envutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetenv(t *testing.T) {
	var env []string

	env, err := Setenv(env, "foo", "foo")
	require.NoError(t, err)
	require.Equal(t, env, []string{"foo=foo"})

	env, err = Setenv(env, "foo", "bar")
	require.NoError(t, err)
	require.Equal(t, env, []string{"foo=bar"})

	env, err = Setenv(env, "bao", "bab")
	require.NoError(t, err)
	require.Equal(t, env, []string{"foo=bar", "bao=bab"})
}

func TestSetenv_InvalidKey(t *testing.T) {
	_, err := Setenv(nil, "foo=bar", "baz")
	require.Error(t, err)
}

func TestGetenv(t *testing.T) {
	var val string

	val = Getenv([]string{}, "foo")
	require.Equal(t, val, "")

	val = Getenv([]string{"foo=bar"}, "foo")
	require.Equal(t, val, "bar")
}

func TestOverlay(t *testing.T) {
	env := []string{"PATH=/usr/bin", "RUSTFLAGS=-Copt-level=1"}

	env, err := Overlay(env, map[string]string{
		"RUSTFLAGS":       "-Zsanitizer=address",
		"RUSTC_BOOTSTRAP": "1",
	})
	require.NoError(t, err)

	// The override wins on conflicting keys and the rest of the
	// environment is kept
	require.Equal(t, "-Zsanitizer=address", Getenv(env, "RUSTFLAGS"))
	require.Equal(t, "1", Getenv(env, "RUSTC_BOOTSTRAP"))
	require.Equal(t, "/usr/bin", Getenv(env, "PATH"))
}

func TestOverlay_Deterministic(t *testing.T) {
	overrides := map[string]string{"b": "2", "a": "1", "c": "3"}

	first, err := Overlay(nil, overrides)
	require.NoError(t, err)
	second, err := Overlay(nil, overrides)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, []string{"a=1", "b=2", "c=3"}, first)
}
