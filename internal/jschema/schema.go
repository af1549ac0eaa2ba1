// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package jschema provides JSON Schema parsing, traversal and $ref
// resolution for schemas authored in JSON or YAML.
package jschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Schema is one JSON Schema object. Schemas are treated as immutable once
// resolved; derived indexes are built alongside them, never by mutating
// schema fields in place.
//
// A boolean schema (`true` / `false`) is represented with Always set; all
// other fields are then zero.
type Schema struct {
	ID          string             `json:"$id,omitempty"`
	SchemaField string             `json:"$schema,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	Comment     string             `json:"$comment,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`

	// metadata
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Examples    []any  `json:"examples,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// validation
	// Use Type for a single type, or Types for multiple; never both.
	Type  string   `json:"-"`
	Types []string `json:"-"`
	Enum  []any    `json:"enum,omitempty"`
	// Const is *any because a JSON null is a valid const.
	Const   *any   `json:"-"`
	Format  string `json:"format,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	// objects
	Properties           map[string]*Schema    `json:"-"`
	PropertyOrder        []string              `json:"-"`
	PatternProperties    map[string]*Schema    `json:"patternProperties,omitempty"`
	AdditionalProperties *AdditionalProperties `json:"additionalProperties,omitempty"`
	Required             []string              `json:"required,omitempty"`

	// arrays
	Items      *Schema   `json:"-"`
	ItemsArray []*Schema `json:"-"`
	MinItems   *int      `json:"minItems,omitempty"`
	MaxItems   *int      `json:"maxItems,omitempty"`

	// logic
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	// conditional
	If   *Schema `json:"if,omitempty"`
	Then *Schema `json:"then,omitempty"`
	Else *Schema `json:"else,omitempty"`

	// editor extensions
	DefaultSnippets []Snippet `json:"defaultSnippets,omitempty"`
	DoNotSuggest    bool      `json:"doNotSuggest,omitempty"`

	// Always is non-nil when the schema was the literal `true` or `false`.
	Always *bool `json:"-"`

	// URL is the URI of the document this fragment was loaded from. It is
	// bookkeeping set during resolution, not part of the wire format.
	URL string `json:"-"`
}

// Snippet is an author-defined completion template carried in a schema via
// the defaultSnippets extension keyword.
type Snippet struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
	// Body is a structured value rendered to YAML at the insertion indent.
	Body any `json:"body,omitempty"`
	// BodyText is a literal, possibly multi-line, insert text.
	BodyText string `json:"bodyText,omitempty"`
}

// AdditionalProperties distinguishes the three authorable states: absent
// (nil pointer), boolean, and schema-valued.
type AdditionalProperties struct {
	Allowed *bool
	Schema  *Schema
}

// Forbidden reports an explicit `additionalProperties: false`.
func (a *AdditionalProperties) Forbidden() bool {
	return a != nil && a.Allowed != nil && !*a.Allowed
}

func (a *AdditionalProperties) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		a.Allowed = &b
		return nil
	}
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	a.Schema = &s
	return nil
}

func (a *AdditionalProperties) MarshalJSON() ([]byte, error) {
	if a.Allowed != nil {
		return json.Marshal(*a.Allowed)
	}
	return json.Marshal(a.Schema)
}

type schemaAlias Schema // avoids recursing into UnmarshalJSON

func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = Schema{Always: &b}
		return nil
	}

	aux := struct {
		Type       json.RawMessage `json:"type,omitempty"`
		Items      json.RawMessage `json:"items,omitempty"`
		Properties json.RawMessage `json:"properties,omitempty"`
		Const      json.RawMessage `json:"const,omitempty"`
		*schemaAlias
	}{schemaAlias: (*schemaAlias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Type) > 0 {
		if aux.Type[0] == '[' {
			if err := json.Unmarshal(aux.Type, &s.Types); err != nil {
				return fmt.Errorf("invalid type array: %w", err)
			}
		} else if err := json.Unmarshal(aux.Type, &s.Type); err != nil {
			return fmt.Errorf("invalid type: %w", err)
		}
	}
	if len(aux.Items) > 0 {
		if aux.Items[0] == '[' {
			if err := json.Unmarshal(aux.Items, &s.ItemsArray); err != nil {
				return fmt.Errorf("invalid items array: %w", err)
			}
		} else {
			s.Items = &Schema{}
			if err := json.Unmarshal(aux.Items, s.Items); err != nil {
				return fmt.Errorf("invalid items: %w", err)
			}
		}
	}
	if len(aux.Properties) > 0 {
		props, order, err := unmarshalOrderedProperties(aux.Properties)
		if err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}
		s.Properties = props
		s.PropertyOrder = order
	}
	if len(aux.Const) > 0 {
		var v any
		if err := json.Unmarshal(aux.Const, &v); err != nil {
			return fmt.Errorf("invalid const: %w", err)
		}
		s.Const = &v
	}
	return nil
}

// unmarshalOrderedProperties decodes a properties object while recording the
// declaration order of its keys, which drives completion ranking.
func unmarshalOrderedProperties(data []byte) (map[string]*Schema, []string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("properties is not an object")
	}
	props := make(map[string]*Schema)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("non-string property name")
		}
		sub := &Schema{}
		if err := dec.Decode(sub); err != nil {
			return nil, nil, err
		}
		props[key] = sub
		order = append(order, key)
	}
	return props, order, nil
}

// OrderedPropertyNames returns property names in declaration order, with any
// names missing from the recorded order appended deterministically.
func (s *Schema) OrderedPropertyNames() []string {
	seen := make(map[string]bool, len(s.PropertyOrder))
	names := make([]string, 0, len(s.Properties))
	for _, name := range s.PropertyOrder {
		if _, ok := s.Properties[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range s.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// TypeSet returns the declared types of the schema, or nil when untyped.
func (s *Schema) TypeSet() []string {
	if s.Type != "" {
		return []string{s.Type}
	}
	return s.Types
}

// IsFileRef reports whether ref points outside the current document.
// External refs do not start with "#".
func IsFileRef(ref string) bool {
	return ref != "" && !strings.HasPrefix(ref, "#")
}

// SplitRef splits a ref into its document URI and JSON-pointer fragment.
// Either part may be empty.
func SplitRef(ref string) (uri, fragment string) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}
