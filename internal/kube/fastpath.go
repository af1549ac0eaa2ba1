// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package kube provides a flattened pre-index over Kubernetes-family
// schemas. Those schemas carry hundreds of definitions reached through $ref
// and anyOf; flattening every definition's properties into name-keyed maps
// buys a much cheaper completion and validation path for documents flagged
// as Kubernetes.
package kube

import (
	"sort"
	"strings"

	"github.com/yamlkit/yamlkit/internal/jschema"
)

// ChildEntry describes one definition-scoped occurrence of a property name.
type ChildEntry struct {
	// Children are the names of the property's own sub-properties.
	Children []string
	// Type is the property's declared schema type.
	Type string
	// Owner is the short name of the owning definition.
	Owner string
}

// Index is a pure derived structure: building it never mutates the source
// schema.
type Index struct {
	// RootNodes maps a top-level property name to the kinds that own it.
	RootNodes map[string][]string
	// ChildNodes maps a property name to its occurrences across
	// definitions.
	ChildNodes map[string][]ChildEntry
}

// BuildIndex flattens every definition of a Kubernetes-family schema.
func BuildIndex(root *jschema.Schema) *Index {
	idx := &Index{
		RootNodes:  make(map[string][]string),
		ChildNodes: make(map[string][]ChildEntry),
	}
	if root == nil {
		return idx
	}
	defs := root.Definitions
	if defs == nil {
		defs = root.Defs
	}
	for name, def := range defs {
		if def == nil {
			continue
		}
		kind := shortName(name)
		topLevel := isTopLevelKind(def)
		for _, propName := range def.OrderedPropertyNames() {
			prop := derefInternal(root, def.Properties[propName])
			if topLevel {
				idx.RootNodes[propName] = append(idx.RootNodes[propName], kind)
			}
			entry := ChildEntry{
				Children: prop.OrderedPropertyNames(),
				Type:     propType(prop),
				Owner:    kind,
			}
			idx.ChildNodes[propName] = append(idx.ChildNodes[propName], entry)
		}
	}
	for _, kinds := range idx.RootNodes {
		sort.Strings(kinds)
	}
	return idx
}

// RootPropertyNames returns the flattened top-level property names, sorted.
func (ix *Index) RootPropertyNames() []string {
	names := make([]string, 0, len(ix.RootNodes))
	for name := range ix.RootNodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ChildrenOf returns the union of child property names recorded for parent.
func (ix *Index) ChildrenOf(parent string) []string {
	seen := map[string]bool{}
	var names []string
	for _, entry := range ix.ChildNodes[parent] {
		for _, c := range entry.Children {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Knows reports whether parent is indexed at all.
func (ix *Index) Knows(parent string) bool {
	_, ok := ix.ChildNodes[parent]
	return ok
}

// HasChild reports whether child is a known sub-property of parent.
func (ix *Index) HasChild(parent, child string) bool {
	for _, entry := range ix.ChildNodes[parent] {
		for _, c := range entry.Children {
			if c == child {
				return true
			}
		}
	}
	return false
}

// derefInternal follows in-document refs so ref-heavy definitions still
// flatten their children. External refs stay opaque.
func derefInternal(root, s *jschema.Schema) *jschema.Schema {
	for depth := 0; s != nil && s.Ref != "" && !jschema.IsFileRef(s.Ref) && depth < 16; depth++ {
		target, err := jschema.ResolvePointer(root, s.Ref)
		if err != nil || target == nil {
			return s
		}
		s = target
	}
	return s
}

// isTopLevelKind recognizes definitions that describe whole manifests.
func isTopLevelKind(def *jschema.Schema) bool {
	_, hasKind := def.Properties["kind"]
	_, hasAPIVersion := def.Properties["apiVersion"]
	return hasKind && hasAPIVersion
}

func shortName(definition string) string {
	if i := strings.LastIndexByte(definition, '.'); i >= 0 {
		return definition[i+1:]
	}
	return definition
}

func propType(s *jschema.Schema) string {
	if s == nil {
		return ""
	}
	if types := s.TypeSet(); len(types) > 0 {
		return types[0]
	}
	if len(s.Properties) > 0 {
		return "object"
	}
	if s.Items != nil || s.ItemsArray != nil {
		return "array"
	}
	return ""
}
