// Package pathtok implements the single path-tokenization rule shared by
// the bloom prefilter and the path trie: both must tokenize identically
// or the prefilter's "no token, no match" guarantee no longer protects
// the trie it sits in front of.
package pathtok

import "strings"

// Tokenize normalizes path separators, lowercases, splits on '/', and
// for any filename segment containing an internal dot, splits each
// trailing ".ext" off as its own token (keeping the leading dot), e.g.
// "src/FOO.test.ts" -> [src, foo, .test, .ts]. Empty segments and empty
// dot-parts are dropped.
func Tokenize(path string) []string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	normalized = strings.ToLower(normalized)

	tokens := make([]string, 0, 8)
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "" {
			continue
		}
		if !strings.Contains(segment, ".") {
			tokens = append(tokens, segment)
			continue
		}
		parts := strings.Split(segment, ".")
		if parts[0] != "" {
			tokens = append(tokens, parts[0])
		}
		for _, part := range parts[1:] {
			if part == "" {
				continue
			}
			tokens = append(tokens, "."+part)
		}
	}
	return tokens
}

// IsWildcard reports whether a single token is a glob wildcard segment:
// the double-wildcard "**", or a segment carrying a "*" or "?" anywhere
// within it.
func IsWildcard(token string) bool {
	if token == "**" {
		return true
	}
	return strings.ContainsAny(token, "*?")
}
