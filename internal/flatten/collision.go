package flatten

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Policy decides what happens when a file's flattened name is already taken.
type Policy string

const (
	// PolicyOverwrite renames unconditionally and inherits whatever the
	// host rename does with an existing destination.
	PolicyOverwrite Policy = "overwrite"
	// PolicyError fails with ErrCollision before renaming.
	PolicyError Policy = "error"
	// PolicySuffix moves to the first free "name (N).ext".
	PolicySuffix Policy = "suffix"
	// PolicySkipIdentical removes the source when the destination holds the
	// same content, and behaves like PolicySuffix otherwise.
	PolicySkipIdentical Policy = "skip-identical"
)

// maxSuffix bounds the search for a free name.
const maxSuffix = 10000

func (p Policy) String() string {
	return string(p)
}

// ParsePolicy parses a policy name. The empty string means PolicyOverwrite.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return PolicyOverwrite, nil
	case "error", "fail":
		return PolicyError, nil
	case "suffix", "rename":
		return PolicySuffix, nil
	case "skip-identical", "dedupe":
		return PolicySkipIdentical, nil
	default:
		return "", fmt.Errorf("unsupported collision policy '%s': must be one of: overwrite, error, suffix, skip-identical", s)
	}
}

// suffixedName returns name with " (n)" inserted before its extension.
// Dotfiles without a further extension get the suffix appended.
func suffixedName(name string, n int) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	return fmt.Sprintf("%s (%d)%s", stem, n, ext)
}

// freeName finds the first suffixed variant of name that taken reports as unused.
func freeName(name string, taken func(string) (bool, error)) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		candidate := suffixedName(name, n)
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no free name for %s after %d attempts", ErrCollision, name, maxSuffix)
}
