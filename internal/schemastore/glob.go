// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package schemastore

import (
	"regexp"
	"strings"
)

// compileGlob translates an association file-match pattern into a regexp.
// `*` matches within one path segment, `**` across segments, `?` one
// character. Patterns without a separator match against the base name.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				sb.WriteString(".*")
				i++
			} else {
				sb.WriteString("[^/]*")
			}
		case '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// matchPath applies a compiled glob to a resource path, falling back to the
// base name for separator-free patterns.
func matchPath(re *regexp.Regexp, pattern, path string) bool {
	if re.MatchString(path) {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if i := strings.LastIndexByte(path, '/'); i >= 0 {
			return re.MatchString(path[i+1:])
		}
	}
	return false
}

// resourcePath strips the scheme from a resource URI so globs written for
// plain paths keep working for file:// URIs.
func resourcePath(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		return uri[i+3:]
	}
	return uri
}
