// Package envutil reads and renders process environments held as
// KEY=VALUE slices, the form returned by os.Environ and accepted by
// exec.Cmd.Env.
package envutil

import (
	"strings"
)

// GetEnv gets a value from an env slice.
// Returns the value and true if found, or empty string and false if not.
// When a key appears more than once the last entry wins, matching how
// the process environment is built by exec.
func GetEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

// NonEmpty returns the value of key only if it is set to a non-empty
// string. Build systems frequently export variables as empty to mean
// "unset", so detection code treats both cases the same.
func NonEmpty(env []string, key string) (string, bool) {
	v, ok := GetEnv(env, key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// FirstNonEmpty returns the first key from keys that is set to a non-empty
// value, along with that value.
func FirstNonEmpty(env []string, keys ...string) (key, value string, ok bool) {
	for _, k := range keys {
		if v, found := NonEmpty(env, k); found {
			return k, v, true
		}
	}
	return "", "", false
}

// SetEnv sets or replaces an environment variable in an env slice.
// Returns the modified slice. If the key already exists, its value is updated
// in place. Otherwise, the new entry is appended.
func SetEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

// MergeEnv merges additional env vars into base, with additional taking precedence.
// Returns a new slice and never modifies base.
func MergeEnv(base, additional []string) []string {
	overrides := make(map[string]string, len(additional))
	order := make([]string, 0, len(additional))
	for _, e := range additional {
		k := keyOf(e)
		if _, exists := overrides[k]; !exists {
			order = append(order, k)
		}
		overrides[k] = e
	}

	replaced := make(map[string]bool, len(overrides))
	result := make([]string, 0, len(base)+len(additional))
	for _, e := range base {
		k := keyOf(e)
		if replaced[k] {
			// Drop later duplicates of an overridden key.
			continue
		}
		if override, ok := overrides[k]; ok {
			result = append(result, override)
			replaced[k] = true
		} else {
			result = append(result, e)
		}
	}

	for _, k := range order {
		if !replaced[k] {
			result = append(result, overrides[k])
		}
	}
	return result
}

func keyOf(entry string) string {
	if idx := strings.IndexByte(entry, '='); idx >= 0 {
		return entry[:idx]
	}
	return entry
}
