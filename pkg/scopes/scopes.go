package scopes

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// Separator splits a permission list string.
	Separator = " "
	// Delimiter splits a permission name into its hierarchy segments.
	Delimiter = "."
	// Wildcard matches any name, or any name below a prefix when used as "tenant.*".
	Wildcard = "*"
)

// Parse splits a space separated list. Empty input yields nil.
func Parse(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Join renders names as a space separated list.
func Join(names []string) string {
	return strings.Join(names, Separator)
}

// Valid reports whether name is a well-formed permission name: lowercase
// segments of letters, digits and underscores joined by dots.
func Valid(name string) bool {
	if name == "" {
		return false
	}
	for seg := range strings.SplitSeq(name, Delimiter) {
		if seg == "" {
			return false
		}
		for _, c := range seg {
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
				return false
			}
		}
	}
	return true
}

// Matches reports whether name is covered by pattern. "*" covers everything
// and "tenant.*" covers every name below "tenant." but not "tenant" itself.
func Matches(name, pattern string) bool {
	switch {
	case pattern == Wildcard:
		return true
	case strings.HasSuffix(pattern, Delimiter+Wildcard):
		prefix := strings.TrimSuffix(pattern, Wildcard)
		return len(name) > len(prefix) && strings.HasPrefix(name, prefix)
	default:
		return name == pattern
	}
}

// Has reports whether any pattern in granted covers name.
func Has(granted []string, name string) bool {
	return slices.ContainsFunc(granted, func(p string) bool { return Matches(name, p) })
}

// HasAll reports whether granted covers every required name.
// An empty requirement is always met.
func HasAll(granted, required []string) bool {
	for _, r := range required {
		if !Has(granted, r) {
			return false
		}
	}
	return true
}

// HasAny reports whether granted covers at least one required name.
func HasAny(granted, required []string) bool {
	return slices.ContainsFunc(required, func(r string) bool { return Has(granted, r) })
}

// Validate checks that every name is well-formed and present in known.
func Validate(names, known []string) error {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	for _, n := range names {
		if !Valid(n) {
			return fmt.Errorf("%w: %q", ErrInvalidFormat, n)
		}
		if _, ok := set[n]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPermission, n)
		}
	}
	return nil
}

// Normalize returns the names sorted with duplicates and blanks removed.
// It returns nil when nothing is left.
func Normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}
