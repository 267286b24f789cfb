package envutil

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// LookupEnv is like os.LookupEnv but uses the specified environment
// instead of the current process environment.
func LookupEnv(env []string, key string) (string, bool) {
	envMap := ToMap(env)
	val, ok := envMap[key]
	return val, ok
}

// Getenv is like os.Getenv but uses the specified environment instead
// of the current process environment.
func Getenv(env []string, key string) string {
	envMap := ToMap(env)
	return envMap[key]
}

// Setenv is like os.Setenv but uses the specified environment instead
// of the current process environment. If the key is already set, its
// value is replaced.
func Setenv(env []string, key, value string) ([]string, error) {
	if strings.ContainsAny(key, "="+"\x00") {
		return nil, errors.Errorf("invalid key: %q", key)
	}

	if strings.ContainsRune(value, '\x00') {
		return nil, errors.Errorf("invalid value: %q", value)
	}

	kv := key + "=" + value

	// Check if the key is already set
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			// Replace the value
			env[i] = kv
			return env, nil
		}
	}

	// The key is not set yet, append it
	env = append(env, kv)
	return env, nil
}

// Overlay applies the overrides on top of env. Override keys win on
// conflicts. Overrides are applied in sorted key order so that the
// resulting environment is deterministic.
func Overlay(env []string, overrides map[string]string) ([]string, error) {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var err error
	for _, key := range keys {
		env, err = Setenv(env, key, overrides[key])
		if err != nil {
			return nil, err
		}
	}
	return env, nil
}

// ToMap converts the specified strings representing an environment in
// the form "key=value" to a map.
func ToMap(env []string) map[string]string {
	res := make(map[string]string)
	for _, e := range env {
		s := strings.SplitN(e, "=", 2)
		if len(s) != 2 {
			continue
		}
		key, val := s[0], s[1]
		res[key] = val
	}
	return res
}
