package query

import (
	"strings"
	"unicode"
)

// indexFold returns the byte offset of the first case-insensitive occurrence
// of the ASCII keyword kw in s, or -1.
func indexFold(s, kw string) int {
	for i := 0; i+len(kw) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(kw)], kw) {
			return i
		}
	}
	return -1
}

// afterKeyword returns the original-case text following the first occurrence
// of kw, trimmed.
func afterKeyword(raw, kw string) string {
	i := indexFold(raw, kw)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(raw[i+len(kw):])
}

// splitWord splits s around the first whole-word, case-insensitive
// occurrence of w. ok is false when w does not occur as a word.
func splitWord(s, w string) (before, after string, ok bool) {
	from := 0
	for from <= len(s) {
		i := indexFold(s[from:], w)
		if i < 0 {
			return "", "", false
		}
		i += from
		end := i + len(w)
		if isBoundary(s, i-1) && isBoundary(s, end) {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[end:]), true
		}
		from = i + 1
	}
	return "", "", false
}

// isBoundary reports whether byte i is outside s or whitespace.
func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	return unicode.IsSpace(rune(s[i]))
}

// trimLeadingWord removes w from the start of s when it stands as a word.
func trimLeadingWord(s, w string) string {
	if len(s) >= len(w) && strings.EqualFold(s[:len(w)], w) && isBoundary(s, len(w)) && len(s) > len(w) {
		return strings.TrimSpace(s[len(w):])
	}
	return s
}

// trimTrailingWords removes one trailing phrase from s when it stands as
// whole words. Phrases are tried in order.
func trimTrailingWords(s string, phrases ...string) string {
	for _, p := range phrases {
		if len(s) <= len(p) {
			continue
		}
		start := len(s) - len(p)
		if strings.EqualFold(s[start:], p) && isBoundary(s, start-1) {
			return strings.TrimSpace(s[:start])
		}
	}
	return s
}

// unquote strips one pair of matching quotes or backticks around s.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// resolveColumn maps a user reference to a stored column name. An exact match
// wins; otherwise exactly one case-insensitive match is required.
func resolveColumn(names []string, ref string) (string, error) {
	ref = unquote(strings.TrimSpace(ref))
	var folded []string
	for _, n := range names {
		if n == ref {
			return n, nil
		}
		if strings.EqualFold(n, ref) {
			folded = append(folded, n)
		}
	}
	switch len(folded) {
	case 0:
		return "", &UnknownColumnError{Name: ref}
	case 1:
		return folded[0], nil
	default:
		return "", &AmbiguousColumnError{Name: ref, Candidates: folded}
	}
}

// resolveFirst tries each candidate reference in order and returns the first
// that resolves. The error reported is the one for the last candidate.
func resolveFirst(names []string, candidates ...string) (string, error) {
	var err error
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		var name string
		name, err = resolveColumn(names, c)
		if err == nil {
			return name, nil
		}
	}
	return "", err
}
