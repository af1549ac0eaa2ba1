// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/kube"
	"github.com/yamlkit/yamlkit/internal/validation"
)

func resolved(t *testing.T, src string) *jschema.ResolvedSchema {
	t.Helper()
	root, err := jschema.Parse([]byte(src))
	require.NoError(t, err)
	rs := jschema.NewResolved(root, "file:///test.json")
	require.Empty(t, rs.Errors)
	return rs
}

func errorsOnly(diags []validation.Diagnostic) []validation.Diagnostic {
	var out []validation.Diagnostic
	for _, d := range diags {
		if d.Severity == validation.SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func TestValidateEmptySchemaAcceptsEverything(t *testing.T) {
	rs := resolved(t, `{}`)
	texts := []string{
		"a: 1\n",
		"nested:\n  deep:\n    list:\n      - 1\n      - x\n",
		"",
	}
	for _, text := range texts {
		diags := validation.Validate(text, validation.Options{Resolved: rs})
		assert.Empty(t, diags, "text %q", text)
	}
}

func TestValidateConformantDocument(t *testing.T) {
	rs := resolved(t, `{
		"type": "object",
		"properties": {
			"apiVersion": {"type": "string"},
			"kind": {"enum": ["Pod", "Deployment"]},
			"metadata": {
				"type": "object",
				"properties": {"name": {"type": "string"}},
				"required": ["name"]
			}
		},
		"required": ["apiVersion", "kind"]
	}`)
	text := "apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: web\n"
	assert.Empty(t, validation.Validate(text, validation.Options{Resolved: rs}))
}

func TestValidateTypeMismatch(t *testing.T) {
	rs := resolved(t, `{"properties": {"apiVersion": {"type": "string"}}}`)
	text := "apiVersion: false\n"

	diags := errorsOnly(validation.Validate(text, validation.Options{Resolved: rs}))
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "incorrect type")
	assert.Contains(t, diags[0].Message, "string")
	assert.Equal(t, "false", text[diags[0].Start:diags[0].End])
}

func TestValidateIntegerRejectsFloat(t *testing.T) {
	rs := resolved(t, `{"properties": {"replicas": {"type": "integer"}}}`)

	assert.Empty(t, errorsOnly(validation.Validate("replicas: 3\n", validation.Options{Resolved: rs})))

	diags := errorsOnly(validation.Validate("replicas: 3.5\n", validation.Options{Resolved: rs}))
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "integer")
}

func TestValidateEnumMismatch(t *testing.T) {
	rs := resolved(t, `{"properties": {"kind": {"enum": ["Pod", "Deployment"]}}}`)
	diags := errorsOnly(validation.Validate("kind: Job\n", validation.Options{Resolved: rs}))
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "Pod")
	assert.Contains(t, diags[0].Message, "Deployment")
}

func TestValidateMissingRequired(t *testing.T) {
	rs := resolved(t, `{
		"type": "object",
		"properties": {
			"metadata": {
				"type": "object",
				"properties": {"name": {}},
				"required": ["name"]
			}
		},
		"required": ["metadata"]
	}`)

	t.Run("missing at root", func(t *testing.T) {
		diags := errorsOnly(validation.Validate("other: 1\n", validation.Options{Resolved: rs}))
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, `missing property "metadata"`)
	})

	t.Run("missing in nested object", func(t *testing.T) {
		diags := errorsOnly(validation.Validate("metadata:\n  labels: {}\n", validation.Options{Resolved: rs}))
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, `missing property "name"`)
	})
}

func TestValidateAdditionalProperties(t *testing.T) {
	t.Run("forbidden reports unknown keys", func(t *testing.T) {
		rs := resolved(t, `{"properties": {"known": {}}, "additionalProperties": false}`)
		text := "known: 1\nmystery: 2\n"
		diags := errorsOnly(validation.Validate(text, validation.Options{Resolved: rs}))
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "mystery")
		assert.Equal(t, "mystery", text[diags[0].Start:diags[0].End])
	})

	t.Run("silent tolerates unknown keys", func(t *testing.T) {
		rs := resolved(t, `{"properties": {"known": {}}}`)
		diags := validation.Validate("known: 1\nmystery: 2\n", validation.Options{Resolved: rs})
		assert.Empty(t, diags)
	})

	t.Run("schema-valued constrains unknown keys", func(t *testing.T) {
		rs := resolved(t, `{"additionalProperties": {"type": "string"}}`)
		diags := errorsOnly(validation.Validate("x: notanumber\ny: 3\n", validation.Options{Resolved: rs}))
		require.Len(t, diags, 1)
		assert.Contains(t, diags[0].Message, "string")
	})
}

func TestValidateNotViolation(t *testing.T) {
	rs := resolved(t, `{"type": "object", "not": {"required": ["forbidden"]}}`)

	assert.Empty(t, errorsOnly(validation.Validate("allowed: 1\n", validation.Options{Resolved: rs})))

	diags := errorsOnly(validation.Validate("forbidden: 1\n", validation.Options{Resolved: rs}))
	assert.NotEmpty(t, diags)
}

func TestValidateAnyOfAcceptsEitherBranch(t *testing.T) {
	rs := resolved(t, `{
		"properties": {
			"port": {"anyOf": [{"type": "integer"}, {"type": "string"}]}
		}
	}`)
	assert.Empty(t, errorsOnly(validation.Validate("port: 8080\n", validation.Options{Resolved: rs})))
	assert.Empty(t, errorsOnly(validation.Validate("port: http\n", validation.Options{Resolved: rs})))

	diags := errorsOnly(validation.Validate("port: [1]\n", validation.Options{Resolved: rs}))
	assert.NotEmpty(t, diags)
}

func TestValidateSyntaxErrors(t *testing.T) {
	diags := validation.Validate("a: [1, 2\n", validation.Options{})
	require.NotEmpty(t, diags)
	assert.Equal(t, validation.SeverityError, diags[0].Severity)
}

func TestValidateDuplicateKeysWarn(t *testing.T) {
	diags := validation.Validate("a: 1\na: 2\n", validation.Options{})
	require.NotEmpty(t, diags)
	for _, d := range diags {
		assert.Equal(t, validation.SeverityWarning, d.Severity)
	}
}

func TestValidateSchemaLoadFailure(t *testing.T) {
	text := "# yaml-language-server: $schema=https://example.com/missing.json\na: 1\n"
	diags := validation.Validate(text, validation.Options{
		SchemaError: errors.New("connection refused"),
		SchemaURI:   "https://example.com/missing.json",
	})
	require.Len(t, diags, 1)
	assert.Equal(t, validation.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "missing.json")

	// Anchored at the modeline URI.
	assert.True(t, strings.HasPrefix(text[diags[0].Start:], "https://example.com/missing.json"))
}

func TestValidateMultiDocument(t *testing.T) {
	rs := resolved(t, `{"properties": {"kind": {"type": "string"}}}`)
	text := "kind: ok\n---\nkind: 42\n"
	diags := errorsOnly(validation.Validate(text, validation.Options{Resolved: rs}))
	require.Len(t, diags, 1)
	assert.Equal(t, "42", text[diags[0].Start:diags[0].End])
}

func TestValidateKubernetesFastPath(t *testing.T) {
	root, err := jschema.Parse([]byte(`{
		"definitions": {
			"v1.Pod": {
				"properties": {
					"apiVersion": {"type": "string"},
					"kind": {"type": "string"},
					"spec": {
						"properties": {"containers": {"type": "array"}}
					}
				}
			}
		}
	}`))
	require.NoError(t, err)
	rs := jschema.NewResolved(root, "file:///k8s.json")
	idx := kube.BuildIndex(root)
	opts := validation.Options{Resolved: rs, KubeIndex: idx, IsKubernetes: true}

	assert.Empty(t, validation.Validate("kind: Pod\nspec:\n  containers: []\n", opts))

	diags := validation.Validate("kind: Pod\nspec:\n  volumes: []\n", opts)
	require.Len(t, diags, 1)
	assert.Equal(t, validation.SeverityWarning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "volumes")
}

func TestValidatePositionsArePopulated(t *testing.T) {
	rs := resolved(t, `{"properties": {"b": {"type": "integer"}}}`)
	text := "a: 1\nb: nope\n"
	diags := errorsOnly(validation.Validate(text, validation.Options{Resolved: rs}))
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].StartPos.Line)
	assert.Equal(t, 3, diags[0].StartPos.Character)
	assert.Equal(t, "yamlkit", diags[0].Source)
}
