// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package config handles yamlkit engine settings.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the settings file looked up in the working directory.
const DefaultFileName = "yamlkit.yaml"

// SnippetTemplate is an author-defined completion template offered
// unconditionally outside scalar-value contexts.
type SnippetTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Body        string `yaml:"body"`
}

// Settings is the yamlkit.yaml configuration file.
type Settings struct {
	// Indent is the indentation unit used when synthesizing nested snippets.
	Indent string `yaml:"indent,omitempty"`

	// AlphabeticalOrdering sorts property completions by name instead of
	// schema declaration order.
	AlphabeticalOrdering bool `yaml:"alphabeticalOrdering,omitempty"`

	// DebounceMillis is the validation debounce interval.
	DebounceMillis int `yaml:"debounceMillis,omitempty"`

	// ExpressionPrefix marks scalar values completed against the
	// side-loaded context schema.
	ExpressionPrefix string `yaml:"expressionPrefix,omitempty"`

	// Schemas maps file-match globs to schema URIs.
	Schemas map[string][]string `yaml:"schemas,omitempty"`

	// Snippets are static completion templates.
	Snippets []SnippetTemplate `yaml:"snippets,omitempty"`
}

// Default returns the settings used when no file is present.
func Default() *Settings {
	return &Settings{
		Indent:           "  ",
		DebounceMillis:   200,
		ExpressionPrefix: "=@",
	}
}

// Load reads Settings from a file path, filling unset fields with defaults.
func Load(path string) (*Settings, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	s := &Settings{}
	if err := yaml.NewDecoder(f).Decode(s); err != nil {
		return nil, err
	}
	s.applyDefaults()
	return s, nil
}

// Save writes the Settings to a file path.
func (s *Settings) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(s)
}

// Debounce returns the validation debounce interval.
func (s *Settings) Debounce() time.Duration {
	return time.Duration(s.DebounceMillis) * time.Millisecond
}

func (s *Settings) applyDefaults() {
	d := Default()
	if s.Indent == "" {
		s.Indent = d.Indent
	}
	if s.DebounceMillis <= 0 {
		s.DebounceMillis = d.DebounceMillis
	}
	if s.ExpressionPrefix == "" {
		s.ExpressionPrefix = d.ExpressionPrefix
	}
}
