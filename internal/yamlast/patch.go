// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package yamlast

import "strings"

// PlaceholderKey is the disposable key inserted on an empty line so that an
// in-progress document parses. Results derived from it must be filtered out
// before leaving the completion engine.
const PlaceholderKey = "yamlkitholder"

// Patch is a pure text transformation that makes syntactically incomplete
// input parseable: a bare word gets a trailing colon, an empty line gets a
// placeholder key. Offsets at or before InsertAt are unaffected; offsets
// after it shift by InsertLen.
type Patch struct {
	Text      string
	InsertAt  int
	InsertLen int
	// UsedPlaceholder reports that PlaceholderKey was inserted.
	UsedPlaceholder bool
}

// ToOriginal translates an offset in the patched text back to the original.
func (p Patch) ToOriginal(off int) int {
	if off > p.InsertAt+p.InsertLen {
		return off - p.InsertLen
	}
	if off > p.InsertAt {
		return p.InsertAt
	}
	return off
}

// FromOriginal translates an original offset into the patched text.
func (p Patch) FromOriginal(off int) int {
	if off > p.InsertAt {
		return off + p.InsertLen
	}
	return off
}

// PatchForCompletion returns a patched copy of text that parses at the
// cursor, or ok=false when the current line needs no help (it already forms
// a key/value shape).
func PatchForCompletion(text string, offset int) (Patch, bool) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += offset
	}
	line := text[lineStart:lineEnd]
	trimmed := strings.TrimSpace(line)

	if trimmed == "" || trimmed == "-" {
		insertion := PlaceholderKey + ":"
		at := offset
		return Patch{
			Text:            text[:at] + insertion + text[at:],
			InsertAt:        at,
			InsertLen:       len(insertion),
			UsedPlaceholder: true,
		}, true
	}

	if strings.Contains(trimmed, ":") {
		return Patch{}, false
	}

	// Bare word: terminate it with a colon right after the trimmed content.
	at := lineStart + len(strings.TrimRight(line, " \t"))
	return Patch{
		Text:      text[:at] + ":" + text[at:],
		InsertAt:  at,
		InsertLen: 1,
	}, true
}
