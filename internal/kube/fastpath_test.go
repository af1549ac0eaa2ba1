// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package kube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/kube"
)

const kubeLikeSchema = `{
	"definitions": {
		"io.k8s.api.apps.v1.Deployment": {
			"properties": {
				"apiVersion": {"type": "string"},
				"kind": {"type": "string"},
				"metadata": {"$ref": "#/definitions/io.k8s.ObjectMeta"},
				"spec": {
					"type": "object",
					"properties": {
						"replicas": {"type": "integer"},
						"template": {"type": "object"}
					}
				}
			}
		},
		"io.k8s.ObjectMeta": {
			"properties": {
				"name": {"type": "string"},
				"labels": {"type": "object"}
			}
		}
	}
}`

func buildIndex(t *testing.T) *kube.Index {
	t.Helper()
	root, err := jschema.Parse([]byte(kubeLikeSchema))
	require.NoError(t, err)
	return kube.BuildIndex(root)
}

func TestBuildIndexRootNodes(t *testing.T) {
	idx := buildIndex(t)

	// Only definitions with kind+apiVersion contribute root properties.
	assert.Equal(t, []string{"apiVersion", "kind", "metadata", "spec"}, idx.RootPropertyNames())
	assert.Equal(t, []string{"Deployment"}, idx.RootNodes["spec"])

	// ObjectMeta has no kind/apiVersion, so its properties are not roots.
	assert.NotContains(t, idx.RootPropertyNames(), "name")
}

func TestIndexChildren(t *testing.T) {
	idx := buildIndex(t)

	assert.Equal(t, []string{"replicas", "template"}, idx.ChildrenOf("spec"))
	assert.Equal(t, []string{"labels", "name"}, idx.ChildrenOf("metadata"))

	assert.True(t, idx.HasChild("spec", "replicas"))
	assert.False(t, idx.HasChild("spec", "containers"))

	assert.True(t, idx.Knows("spec"))
	assert.False(t, idx.Knows("volumes"))
}

func TestBuildIndexNilRoot(t *testing.T) {
	idx := kube.BuildIndex(nil)
	assert.Empty(t, idx.RootPropertyNames())
	assert.False(t, idx.Knows("spec"))
}
