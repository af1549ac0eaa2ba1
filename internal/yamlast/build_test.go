// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package yamlast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/yamlast"
)

func TestParseSimpleMapping(t *testing.T) {
	parsed := yamlast.Parse("name: web\nreplicas: 3\n")
	require.Len(t, parsed.Documents, 1)
	doc := parsed.Documents[0]
	assert.Empty(t, doc.Errors)

	obj, ok := doc.Root.(*yamlast.ObjectNode)
	require.True(t, ok)
	require.Len(t, obj.Properties, 2)

	name := obj.Property("name")
	require.NotNil(t, name)
	str, ok := name.Value.(*yamlast.StringNode)
	require.True(t, ok)
	assert.Equal(t, "web", str.Value)

	replicas := obj.Property("replicas")
	require.NotNil(t, replicas)
	num, ok := replicas.Value.(*yamlast.NumberNode)
	require.True(t, ok)
	assert.True(t, num.IsInteger)
	assert.Equal(t, int64(3), yamlast.Value(num))
}

func TestParseScalarSniffing(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind yamlast.Kind
	}{
		{"plain string", "a: hello", yamlast.KindString},
		{"integer", "a: 42", yamlast.KindNumber},
		{"negative integer", "a: -7", yamlast.KindNumber},
		{"hex integer", "a: 0x1F", yamlast.KindNumber},
		{"float", "a: 3.14", yamlast.KindNumber},
		{"exponent", "a: 1e3", yamlast.KindNumber},
		{"bool true", "a: true", yamlast.KindBoolean},
		{"bool False", "a: False", yamlast.KindBoolean},
		{"null literal", "a: null", yamlast.KindNull},
		{"tilde", "a: ~", yamlast.KindNull},
		{"quoted number stays string", `a: "42"`, yamlast.KindString},
		{"version-like string", "a: 1.2.3", yamlast.KindString},
		{"yes is a string", "a: yes", yamlast.KindString},
		{"infinity", "a: .inf", yamlast.KindNumber},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := yamlast.Parse(tt.text)
			require.Len(t, parsed.Documents, 1)
			obj, ok := parsed.Documents[0].Root.(*yamlast.ObjectNode)
			require.True(t, ok)
			p := obj.Property("a")
			require.NotNil(t, p)
			assert.Equal(t, tt.kind, p.Value.Kind())
		})
	}
}

func TestParseMultiDocument(t *testing.T) {
	text := "a: 1\n---\nb: 2\n---\nc: 3\n"
	parsed := yamlast.Parse(text)
	require.Len(t, parsed.Documents, 3)
	for i, key := range []string{"a", "b", "c"} {
		obj, ok := parsed.Documents[i].Root.(*yamlast.ObjectNode)
		require.True(t, ok, "document %d", i)
		assert.NotNil(t, obj.Property(key))
	}
}

func TestParseMultiDocumentFaultIsolation(t *testing.T) {
	// The middle document is broken; its neighbors still parse.
	text := "a: 1\n---\n{ : :\n---\nc: 3\n"
	parsed := yamlast.Parse(text)
	require.Len(t, parsed.Documents, 3)

	assert.Empty(t, parsed.Documents[0].Errors)
	assert.NotEmpty(t, parsed.Documents[1].Errors)
	assert.Empty(t, parsed.Documents[2].Errors)

	obj, ok := parsed.Documents[2].Root.(*yamlast.ObjectNode)
	require.True(t, ok)
	assert.NotNil(t, obj.Property("c"))
}

func TestParseMissingValueSynthesizesNull(t *testing.T) {
	parsed := yamlast.Parse("key:\n")
	obj, ok := parsed.Documents[0].Root.(*yamlast.ObjectNode)
	require.True(t, ok)
	p := obj.Property("key")
	require.NotNil(t, p)
	null, ok := p.Value.(*yamlast.NullNode)
	require.True(t, ok)
	assert.True(t, null.Synthetic)
}

func TestParseDuplicateKeysWarn(t *testing.T) {
	parsed := yamlast.Parse("a: 1\na: 2\n")
	require.Len(t, parsed.Documents, 1)
	doc := parsed.Documents[0]
	assert.Empty(t, doc.Errors)
	assert.NotEmpty(t, doc.Warnings)

	// Both entries survive in the tree.
	obj, ok := doc.Root.(*yamlast.ObjectNode)
	require.True(t, ok)
	assert.Len(t, obj.Properties, 2)
}

func TestParseAnchorsAndAliases(t *testing.T) {
	text := "base: &b\n  x: 1\ncopy: *b\n"
	parsed := yamlast.Parse(text)
	doc := parsed.Documents[0]
	require.Empty(t, doc.Errors)
	obj, ok := doc.Root.(*yamlast.ObjectNode)
	require.True(t, ok)

	cp := obj.Property("copy")
	require.NotNil(t, cp)
	alias, ok := cp.Value.(*yamlast.ObjectNode)
	require.True(t, ok)
	require.NotNil(t, alias.Property("x"))

	// The alias expansion is positioned at the alias, not the anchor.
	assert.Greater(t, alias.Offset(), obj.Property("base").Value.Offset())
}

func TestParseSequences(t *testing.T) {
	parsed := yamlast.Parse("items:\n  - a\n  - b\n")
	obj, ok := parsed.Documents[0].Root.(*yamlast.ObjectNode)
	require.True(t, ok)
	arr, ok := obj.Property("items").Value.(*yamlast.ArrayNode)
	require.True(t, ok)
	require.Len(t, arr.Items, 2)
	assert.Equal(t, "a", yamlast.Value(arr.Items[0]))
}

func TestParseNeverPanicsOnGarbage(t *testing.T) {
	inputs := []string{
		"", "---", "--- \n---\n", ":\n", "\t\t", "[", "{a:", "!!binary x",
		"a: [1, 2\nb: }",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { yamlast.Parse(in) }, "input %q", in)
	}
}

func TestNodeAtOffset(t *testing.T) {
	text := "metadata:\n  name: web\n"
	parsed := yamlast.Parse(text)
	root := parsed.Documents[0].Root

	tests := []struct {
		name   string
		offset int
		want   yamlast.Kind
	}{
		{"inside outer key", 2, yamlast.KindString},
		{"inside inner key", 13, yamlast.KindString},
		{"inside value", 19, yamlast.KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := yamlast.NodeAtOffset(root, tt.offset, true)
			require.NotNil(t, n)
			assert.Equal(t, tt.want, n.Kind())
		})
	}
}

func TestLineIndexRoundTrip(t *testing.T) {
	text := "ab\ncde\n\nf"
	ix := yamlast.NewLineIndex(text)
	assert.Equal(t, 4, ix.LineCount())

	for off := 0; off <= len(text); off++ {
		pos := ix.PositionFor(off)
		assert.Equal(t, off, ix.OffsetFor(pos), "offset %d", off)
	}
	assert.Equal(t, yamlast.Position{Line: 1, Character: 2}, ix.PositionFor(5))
}
