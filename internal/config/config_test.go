// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yamlkit/yamlkit/internal/config"
)

func TestDefault(t *testing.T) {
	s := config.Default()
	assert.Equal(t, "  ", s.Indent)
	assert.Equal(t, 200*time.Millisecond, s.Debounce())
	assert.Equal(t, "=@", s.ExpressionPrefix)
	assert.False(t, s.AlphabeticalOrdering)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("alphabeticalOrdering: true\n"), 0o600))

	s, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, s.AlphabeticalOrdering)
	assert.Equal(t, "  ", s.Indent)
	assert.Equal(t, 200, s.DebounceMillis)
	assert.Equal(t, "=@", s.ExpressionPrefix)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.DefaultFileName)
	s := config.Default()
	s.AlphabeticalOrdering = true
	s.DebounceMillis = 50
	s.Schemas = map[string][]string{
		"deploy*.yaml": {"https://example.com/deployment.json"},
	}
	s.Snippets = []config.SnippetTemplate{
		{Name: "base", Description: "Base manifest", Body: "kind: Pod"},
	}
	require.NoError(t, s.Save(path))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.AlphabeticalOrdering, loaded.AlphabeticalOrdering)
	assert.Equal(t, s.DebounceMillis, loaded.DebounceMillis)
	assert.Equal(t, s.Schemas, loaded.Schemas)
	assert.Equal(t, s.Snippets, loaded.Snippets)
}
