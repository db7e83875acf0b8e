package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// GlobPattern is a comma-separated list of doublestar patterns. Patterns
// prefixed with '!' exclude paths that a positive pattern matched.
type GlobPattern struct {
	positivePatterns []string
	negativePatterns []string
}

func ParseGlobPattern(globPattern string) *GlobPattern {
	gp := &GlobPattern{}

	if globPattern == "" {
		return gp
	}

	patterns := strings.Split(globPattern, ",")
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "!") {
			gp.negativePatterns = append(gp.negativePatterns, strings.TrimPrefix(pattern, "!"))
		} else {
			gp.positivePatterns = append(gp.positivePatterns, pattern)
		}
	}

	return gp
}

// IsEmpty reports whether no pattern at all was given.
func (gp *GlobPattern) IsEmpty() bool {
	return gp == nil || (len(gp.positivePatterns) == 0 && len(gp.negativePatterns) == 0)
}

// Validate checks every pattern for syntax errors up front, so a bad
// pattern is reported before any file is touched.
func (gp *GlobPattern) Validate() error {
	for _, pattern := range append(append([]string{}, gp.positivePatterns...), gp.negativePatterns...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern '%s'", pattern)
		}
	}
	return nil
}

// Match reports whether path (slash or OS separated) is selected. With no
// positive patterns every path not excluded by a negative one matches.
func (gp *GlobPattern) Match(path string) (bool, error) {
	path = filepath.ToSlash(path)

	matchesPositive := len(gp.positivePatterns) == 0
	for _, pattern := range gp.positivePatterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if matched {
			matchesPositive = true
			break
		}
	}

	if !matchesPositive {
		return false, nil
	}

	for _, pattern := range gp.negativePatterns {
		matched, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("invalid glob pattern '%s': %w", pattern, err)
		}
		if matched {
			return false, nil
		}
	}

	return true, nil
}
