// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package schemastore

import "regexp"

var modelineRe = regexp.MustCompile(`#\s*yaml-language-server:\s*\$schema=(\S+)`)

// Modeline finds the first in-document schema directive, e.g.
//
//	# yaml-language-server: $schema=https://example.com/schema.json#/defs/pod
//
// The returned URI may carry a JSON-pointer fragment. start and end delimit
// the URI within text, for anchoring resolution warnings.
func Modeline(text string) (uri string, start, end int, ok bool) {
	loc := modelineRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", 0, 0, false
	}
	return text[loc[2]:loc[3]], loc[2], loc[3], true
}
