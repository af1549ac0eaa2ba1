// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package yamlast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/yamlast"
)

func TestPatchForCompletion(t *testing.T) {
	tests := []struct {
		name            string
		text            string
		offset          int
		wantOK          bool
		wantText        string
		wantPlaceholder bool
	}{
		{
			name:   "complete line needs no patch",
			text:   "name: web\n",
			offset: 3,
			wantOK: false,
		},
		{
			name:            "empty line gets placeholder",
			text:            "a: 1\n\n",
			offset:          5,
			wantOK:          true,
			wantText:        "a: 1\n" + yamlast.PlaceholderKey + ":\n",
			wantPlaceholder: true,
		},
		{
			name:     "bare word gets colon",
			text:     "a: 1\nrepl",
			offset:   9,
			wantOK:   true,
			wantText: "a: 1\nrepl:",
		},
		{
			name:     "bare word with trailing spaces",
			text:     "repl  ",
			offset:   4,
			wantOK:   true,
			wantText: "repl:  ",
		},
		{
			name:            "dash item gets placeholder",
			text:            "items:\n  -\n",
			offset:          10,
			wantOK:          true,
			wantText:        "items:\n  -" + yamlast.PlaceholderKey + ":\n",
			wantPlaceholder: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := yamlast.PatchForCompletion(tt.text, tt.offset)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantText, p.Text)
			assert.Equal(t, tt.wantPlaceholder, p.UsedPlaceholder)
		})
	}
}

func TestPatchOffsetTranslation(t *testing.T) {
	text := "a: 1\nrepl"
	p, ok := yamlast.PatchForCompletion(text, len(text))
	require.True(t, ok)
	require.Equal(t, "a: 1\nrepl:", p.Text)

	// Offsets before the insertion are unchanged.
	assert.Equal(t, 2, p.ToOriginal(2))
	assert.Equal(t, 2, p.FromOriginal(2))

	// Offsets after the insertion shift by its length.
	end := len(p.Text)
	assert.Equal(t, len(text), p.ToOriginal(end))

	// Offsets inside the insertion clamp to the insertion point.
	assert.Equal(t, p.InsertAt, p.ToOriginal(p.InsertAt+1))
}

func TestPatchedTextParses(t *testing.T) {
	text := "spec:\n  repl"
	p, ok := yamlast.PatchForCompletion(text, len(text))
	require.True(t, ok)

	parsed := yamlast.Parse(p.Text)
	require.Len(t, parsed.Documents, 1)
	require.Empty(t, parsed.Documents[0].Errors)

	obj, isObj := parsed.Documents[0].Root.(*yamlast.ObjectNode)
	require.True(t, isObj)
	spec, isSpec := obj.Property("spec").Value.(*yamlast.ObjectNode)
	require.True(t, isSpec)
	require.NotNil(t, spec.Property("repl"))
}
