// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package yamlast

import "sort"

// Position is a zero-based line/character pair.
type Position struct {
	Line      int
	Character int
}

// LineIndex maps byte offsets to line/character positions and back.
type LineIndex struct {
	lineStarts []int
	length     int
}

// NewLineIndex builds an index over text.
func NewLineIndex(text string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{lineStarts: starts, length: len(text)}
}

// LineCount returns the number of lines, at least one.
func (ix *LineIndex) LineCount() int { return len(ix.lineStarts) }

// LineStart returns the offset of the first byte of line.
// Out-of-range lines clamp to the buffer bounds.
func (ix *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(ix.lineStarts) {
		return ix.length
	}
	return ix.lineStarts[line]
}

// PositionFor converts a byte offset into a Position. Offsets beyond the
// buffer clamp to its end.
func (ix *LineIndex) PositionFor(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > ix.length {
		offset = ix.length
	}
	line := sort.SearchInts(ix.lineStarts, offset+1) - 1
	return Position{Line: line, Character: offset - ix.lineStarts[line]}
}

// OffsetFor converts a Position into a byte offset, clamped to the buffer.
func (ix *LineIndex) OffsetFor(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(ix.lineStarts) {
		return ix.length
	}
	offset := ix.lineStarts[pos.Line] + pos.Character
	end := ix.length
	if pos.Line+1 < len(ix.lineStarts) {
		end = ix.lineStarts[pos.Line+1]
	}
	if offset > end {
		offset = end
	}
	return offset
}
