package loader

import "strings"

// FilterByPattern keeps scenarios whose ID or name matches any of the
// comma-separated glob patterns (e.g. "TC-BUS*,TC-TIME*"). An empty
// pattern keeps everything.
func FilterByPattern(cases []*TestCase, pattern string) []*TestCase {
	patterns := splitList(pattern)
	if len(patterns) == 0 {
		return cases
	}
	var filtered []*TestCase
	for _, tc := range cases {
		for _, p := range patterns {
			if MatchPattern(tc.ID, p) || MatchPattern(tc.Name, p) {
				filtered = append(filtered, tc)
				break
			}
		}
	}
	return filtered
}

// FilterByTags keeps scenarios carrying at least one of the comma-separated
// tags. Tags prefixed with "!" exclude instead.
func FilterByTags(cases []*TestCase, tags string) []*TestCase {
	var wanted, excluded []string
	for _, t := range splitList(tags) {
		if rest, ok := strings.CutPrefix(t, "!"); ok {
			if rest != "" {
				excluded = append(excluded, rest)
			}
			continue
		}
		wanted = append(wanted, t)
	}

	var filtered []*TestCase
	for _, tc := range cases {
		if len(wanted) > 0 && !hasAnyTag(tc.Tags, wanted) {
			continue
		}
		if hasAnyTag(tc.Tags, excluded) {
			continue
		}
		filtered = append(filtered, tc)
	}
	return filtered
}

// MatchPattern performs simple glob matching with a leading and/or
// trailing "*".
func MatchPattern(name, pattern string) bool {
	if pattern == "*" || pattern == "" {
		return true
	}

	hasPrefix := pattern[0] == '*'
	hasSuffix := pattern[len(pattern)-1] == '*'

	switch {
	case hasPrefix && hasSuffix && len(pattern) > 2:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case hasPrefix:
		return strings.HasSuffix(name, pattern[1:])
	case hasSuffix:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasAnyTag(testTags, wanted []string) bool {
	for _, t := range testTags {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}
