// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package matcher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/matcher"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

func mustSchema(t *testing.T, src string) *jschema.ResolvedSchema {
	t.Helper()
	root, err := jschema.Parse([]byte(src))
	require.NoError(t, err)
	rs := jschema.NewResolved(root, "file:///test.json")
	require.Empty(t, rs.Errors)
	return rs
}

func mustRoot(t *testing.T, text string) yamlast.Node {
	t.Helper()
	parsed := yamlast.Parse(text)
	require.Len(t, parsed.Documents, 1)
	require.NotNil(t, parsed.Documents[0].Root)
	return parsed.Documents[0].Root
}

func valueNode(t *testing.T, root yamlast.Node, key string) yamlast.Node {
	t.Helper()
	obj, ok := root.(*yamlast.ObjectNode)
	require.True(t, ok)
	p := obj.Property(key)
	require.NotNil(t, p)
	return p.Value
}

func TestMatchProperties(t *testing.T) {
	rs := mustSchema(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string", "title": "Name"},
			"count": {"type": "integer"}
		}
	}`)
	root := mustRoot(t, "name: web\ncount: 2\n")

	m := matcher.Match(root, rs)
	require.Empty(t, m.Errors)

	rootFrags := m.ForNode(root)
	require.Len(t, rootFrags, 1)
	assert.Same(t, rs.Root, rootFrags[0].Schema)

	nameFrags := m.ForNode(valueNode(t, root, "name"))
	require.Len(t, nameFrags, 1)
	assert.Equal(t, "Name", nameFrags[0].Schema.Title)
}

func TestMatchThroughRef(t *testing.T) {
	rs := mustSchema(t, `{
		"properties": {"pod": {"$ref": "#/definitions/Pod"}},
		"definitions": {
			"Pod": {"properties": {"kind": {"title": "Kind"}}}
		}
	}`)
	root := mustRoot(t, "pod:\n  kind: Pod\n")

	m := matcher.Match(root, rs)
	require.Empty(t, m.Errors)

	pod := valueNode(t, root, "pod").(*yamlast.ObjectNode)
	kindFrags := m.ForNode(valueNode(t, pod, "kind"))
	require.Len(t, kindFrags, 1)
	assert.Equal(t, "Kind", kindFrags[0].Schema.Title)
}

func TestMatchAnyOfUnion(t *testing.T) {
	rs := mustSchema(t, `{
		"anyOf": [
			{"properties": {"a": {"title": "A"}}},
			{"properties": {"b": {"title": "B"}}}
		]
	}`)
	root := mustRoot(t, "a: 1\nb: 2\n")

	m := matcher.Match(root, rs)

	aFrags := m.ForNode(valueNode(t, root, "a"))
	bFrags := m.ForNode(valueNode(t, root, "b"))
	require.Len(t, aFrags, 1)
	require.Len(t, bFrags, 1)
	assert.Equal(t, "A", aFrags[0].Schema.Title)
	assert.Equal(t, "B", bFrags[0].Schema.Title)

	// The root sees the top schema plus both branches.
	assert.Len(t, m.ForNode(root), 3)
}

func TestMatchNotInverts(t *testing.T) {
	rs := mustSchema(t, `{
		"type": "object",
		"not": {"properties": {"x": {"const": "bad"}}}
	}`)
	root := mustRoot(t, "x: bad\n")

	m := matcher.Match(root, rs)

	var sawInverted bool
	for _, r := range m.ForNode(root) {
		if r.Inverted {
			sawInverted = true
		}
	}
	assert.True(t, sawInverted)

	xFrags := m.ForNode(valueNode(t, root, "x"))
	require.Len(t, xFrags, 1)
	assert.True(t, xFrags[0].Inverted)
}

func TestMatchIfThenElse(t *testing.T) {
	schema := `{
		"type": "object",
		"if": {"properties": {"kind": {"const": "Deployment"}}, "required": ["kind"]},
		"then": {"properties": {"replicas": {"title": "Then"}}},
		"else": {"properties": {"replicas": {"title": "Else"}}}
	}`

	t.Run("then branch", func(t *testing.T) {
		rs := mustSchema(t, schema)
		root := mustRoot(t, "kind: Deployment\nreplicas: 2\n")
		m := matcher.Match(root, rs)
		frags := m.ForNode(valueNode(t, root, "replicas"))
		require.Len(t, frags, 1)
		assert.Equal(t, "Then", frags[0].Schema.Title)
	})

	t.Run("else branch", func(t *testing.T) {
		rs := mustSchema(t, schema)
		root := mustRoot(t, "kind: Service\nreplicas: 2\n")
		m := matcher.Match(root, rs)
		frags := m.ForNode(valueNode(t, root, "replicas"))
		require.Len(t, frags, 1)
		assert.Equal(t, "Else", frags[0].Schema.Title)
	})
}

func TestMatchPatternAndAdditionalProperties(t *testing.T) {
	rs := mustSchema(t, `{
		"properties": {"fixed": {"title": "Fixed"}},
		"patternProperties": {"^x-": {"title": "Pattern"}},
		"additionalProperties": {"title": "Extra"}
	}`)
	root := mustRoot(t, "fixed: 1\nx-custom: 2\nother: 3\n")

	m := matcher.Match(root, rs)

	assert.Equal(t, "Fixed", m.ForNode(valueNode(t, root, "fixed"))[0].Schema.Title)
	assert.Equal(t, "Pattern", m.ForNode(valueNode(t, root, "x-custom"))[0].Schema.Title)
	assert.Equal(t, "Extra", m.ForNode(valueNode(t, root, "other"))[0].Schema.Title)
}

func TestMatchArrayItems(t *testing.T) {
	rs := mustSchema(t, `{
		"properties": {
			"list": {"type": "array", "items": {"title": "Item"}}
		}
	}`)
	root := mustRoot(t, "list:\n  - one\n  - two\n")

	m := matcher.Match(root, rs)
	arr := valueNode(t, root, "list").(*yamlast.ArrayNode)
	for _, item := range arr.Items {
		frags := m.ForNode(item)
		require.Len(t, frags, 1)
		assert.Equal(t, "Item", frags[0].Schema.Title)
	}
}

func TestMatchRecursiveSchemaTerminates(t *testing.T) {
	rs := mustSchema(t, `{
		"$ref": "#/definitions/Node",
		"definitions": {
			"Node": {
				"properties": {"next": {"$ref": "#/definitions/Node"}}
			}
		}
	}`)
	root := mustRoot(t, "next:\n  next:\n    next: null\n")

	assert.NotPanics(t, func() {
		m := matcher.Match(root, rs)
		assert.NotEmpty(t, m.All)
	})
}

func TestSatisfies(t *testing.T) {
	rs := mustSchema(t, `{}`)

	tests := []struct {
		name   string
		text   string
		schema string
		want   bool
	}{
		{"type match", "a: hi", `{"type": "object"}`, true},
		{"type mismatch", "a: hi", `{"type": "array"}`, false},
		{"required present", "a: hi", `{"required": ["a"]}`, true},
		{"required missing", "a: hi", `{"required": ["b"]}`, false},
		{"const on property", "kind: Pod", `{"properties": {"kind": {"const": "Pod"}}}`, true},
		{"const mismatch", "kind: Job", `{"properties": {"kind": {"const": "Pod"}}}`, false},
		{"anyOf one branch", "a: 1", `{"anyOf": [{"type": "array"}, {"type": "object"}]}`, true},
		{"not", "a: 1", `{"not": {"type": "object"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := jschema.Parse([]byte(tt.schema))
			require.NoError(t, err)
			node := mustRoot(t, tt.text)
			assert.Equal(t, tt.want, matcher.Satisfies(node, schema, rs))
		})
	}
}

func TestTypeMatches(t *testing.T) {
	root := mustRoot(t, "int: 3\nfloat: 3.5\nstr: hi\nflag: true\nnothing: null\n").(*yamlast.ObjectNode)

	tests := []struct {
		key   string
		types []string
		want  bool
	}{
		{"int", []string{"integer"}, true},
		{"int", []string{"number"}, true},
		{"float", []string{"integer"}, false},
		{"float", []string{"number"}, true},
		{"str", []string{"string"}, true},
		{"flag", []string{"boolean"}, true},
		{"nothing", []string{"null"}, true},
		{"str", []string{"integer", "boolean"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, matcher.TypeMatches(root.Property(tt.key).Value, tt.types))
		})
	}
}
