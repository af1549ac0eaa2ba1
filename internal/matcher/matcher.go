// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package matcher computes, for every node of an AST, the set of schema
// fragments that apply to it.
package matcher

import (
	"reflect"
	"regexp"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

// MatchResult ties one applicable schema fragment to one node. Inverted
// fragments come from a `not` branch: their shape is disallowed rather than
// allowed, they are never offered as completions, and a value satisfying one
// is a validation error.
type MatchResult struct {
	Node     yamlast.Node
	Schema   *jschema.Schema
	Inverted bool
}

// Matches is the result of matching a whole tree.
type Matches struct {
	All    []MatchResult
	Errors []error
}

// ForNode returns the fragments applicable to one node.
func (m *Matches) ForNode(n yamlast.Node) []MatchResult {
	var out []MatchResult
	for _, r := range m.All {
		if r.Node == n {
			out = append(out, r)
		}
	}
	return out
}

// Match walks root against the resolved schema and returns every applicable
// fragment per node. It never fails: unresolvable refs contribute zero
// matches plus an entry in Errors.
func Match(root yamlast.Node, resolved *jschema.ResolvedSchema) *Matches {
	m := &Matches{}
	if root == nil || resolved == nil || resolved.Root == nil {
		return m
	}
	w := &walker{resolved: resolved, out: m, seen: map[visitKey]bool{}}
	w.walk(root, resolved.Root, false)
	return m
}

type visitKey struct {
	node     yamlast.Node
	schema   *jschema.Schema
	inverted bool
}

type walker struct {
	resolved *jschema.ResolvedSchema
	out      *Matches
	seen     map[visitKey]bool
}

func (w *walker) deref(schema *jschema.Schema) *jschema.Schema {
	if schema == nil || schema.Ref == "" {
		return schema
	}
	target, err := w.resolved.Deref(schema)
	if err != nil {
		w.out.Errors = append(w.out.Errors, err)
		return nil
	}
	return target
}

func (w *walker) walk(node yamlast.Node, schema *jschema.Schema, inverted bool) {
	if node == nil {
		return
	}
	schema = w.deref(schema)
	if schema == nil {
		return
	}
	if schema.Always != nil {
		// Boolean schemas carry no structure to descend into.
		return
	}
	key := visitKey{node: node, schema: schema, inverted: inverted}
	if w.seen[key] {
		return
	}
	w.seen[key] = true

	w.out.All = append(w.out.All, MatchResult{Node: node, Schema: schema, Inverted: inverted})

	switch t := node.(type) {
	case *yamlast.ObjectNode:
		for _, p := range t.Properties {
			if p.Key == nil {
				continue
			}
			sub := w.schemaForKey(schema, p.Key.Value)
			if sub == nil {
				// No properties/patternProperties/additionalProperties
				// entry: nothing to match. The validation engine decides
				// whether the key itself is an error.
				continue
			}
			pk := visitKey{node: p, schema: sub, inverted: inverted}
			if !w.seen[pk] {
				w.seen[pk] = true
				w.out.All = append(w.out.All, MatchResult{Node: p, Schema: sub, Inverted: inverted})
			}
			if p.Value != nil {
				w.walk(p.Value, sub, inverted)
			}
		}
	case *yamlast.ArrayNode:
		switch {
		case schema.ItemsArray != nil:
			for i, item := range t.Items {
				if i < len(schema.ItemsArray) {
					w.walk(item, schema.ItemsArray[i], inverted)
				}
			}
		case schema.Items != nil:
			for _, item := range t.Items {
				w.walk(item, schema.Items, inverted)
			}
		}
	}

	for _, sub := range schema.AllOf {
		w.walk(node, sub, inverted)
	}
	for _, sub := range schema.AnyOf {
		w.walk(node, sub, inverted)
	}
	for _, sub := range schema.OneOf {
		w.walk(node, sub, inverted)
	}
	if schema.Not != nil {
		w.walk(node, schema.Not, !inverted)
	}
	if schema.If != nil {
		// `if` contributes no visible match; it only selects then/else.
		// Its scope is the same object instance being matched.
		if w.Satisfies(node, schema.If) {
			if schema.Then != nil {
				w.walk(node, schema.Then, inverted)
			}
		} else if schema.Else != nil {
			w.walk(node, schema.Else, inverted)
		}
	}
}

// schemaForKey picks the sub-schema governing one object key: properties
// first, then patternProperties, then a schema-valued additionalProperties.
func (w *walker) schemaForKey(schema *jschema.Schema, key string) *jschema.Schema {
	if sub, ok := schema.Properties[key]; ok {
		return sub
	}
	for pattern, sub := range schema.PatternProperties {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(key) {
			return sub
		}
	}
	if ap := schema.AdditionalProperties; ap != nil && ap.Schema != nil {
		return ap.Schema
	}
	return nil
}

const maxSatisfyDepth = 64

// Satisfies reports whether node structurally satisfies schema: type,
// const/enum, required members and per-property recursion. It is the
// predicate behind if/then/else selection and hover's branch reporting.
func (w *walker) Satisfies(node yamlast.Node, schema *jschema.Schema) bool {
	return w.satisfies(node, schema, 0)
}

// Satisfies is the exported form used by the hover and validation engines.
func Satisfies(node yamlast.Node, schema *jschema.Schema, resolved *jschema.ResolvedSchema) bool {
	w := &walker{resolved: resolved, out: &Matches{}, seen: map[visitKey]bool{}}
	return w.satisfies(node, schema, 0)
}

func (w *walker) satisfies(node yamlast.Node, schema *jschema.Schema, depth int) bool {
	if depth > maxSatisfyDepth {
		return true
	}
	schema = w.deref(schema)
	if schema == nil {
		return true
	}
	if schema.Always != nil {
		return *schema.Always
	}
	if types := schema.TypeSet(); len(types) > 0 && !TypeMatches(node, types) {
		return false
	}
	if schema.Const != nil && !valueEqual(yamlast.Value(node), *schema.Const) {
		return false
	}
	if len(schema.Enum) > 0 {
		found := false
		for _, v := range schema.Enum {
			if valueEqual(yamlast.Value(node), v) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if obj, ok := node.(*yamlast.ObjectNode); ok {
		for _, req := range schema.Required {
			if obj.Property(req) == nil {
				return false
			}
		}
		for _, p := range obj.Properties {
			if p.Key == nil || p.Value == nil {
				continue
			}
			if sub, ok := schema.Properties[p.Key.Value]; ok {
				if !w.satisfies(p.Value, sub, depth+1) {
					return false
				}
			}
		}
	}

	for _, sub := range schema.AllOf {
		if !w.satisfies(node, sub, depth+1) {
			return false
		}
	}
	if len(schema.AnyOf) > 0 {
		any := false
		for _, sub := range schema.AnyOf {
			if w.satisfies(node, sub, depth+1) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if len(schema.OneOf) > 0 {
		count := 0
		for _, sub := range schema.OneOf {
			if w.satisfies(node, sub, depth+1) {
				count++
			}
		}
		if count != 1 {
			return false
		}
	}
	if schema.Not != nil && w.satisfies(node, schema.Not, depth+1) {
		return false
	}
	return true
}

// TypeMatches reports whether the node's runtime kind satisfies one of the
// declared schema type names. Numbers satisfy "integer" only when the
// literal had no fractional or exponent part.
func TypeMatches(node yamlast.Node, types []string) bool {
	for _, t := range types {
		switch t {
		case "object":
			if node.Kind() == yamlast.KindObject {
				return true
			}
		case "array":
			if node.Kind() == yamlast.KindArray {
				return true
			}
		case "string":
			if node.Kind() == yamlast.KindString {
				return true
			}
		case "boolean":
			if node.Kind() == yamlast.KindBoolean {
				return true
			}
		case "number":
			if node.Kind() == yamlast.KindNumber {
				return true
			}
		case "integer":
			if num, ok := node.(*yamlast.NumberNode); ok && num.IsInteger {
				return true
			}
		case "null":
			if node.Kind() == yamlast.KindNull {
				return true
			}
		}
	}
	return false
}

func valueEqual(a, b any) bool {
	if na, ok := toFloat(a); ok {
		if nb, ok := toFloat(b); ok {
			return na == nb
		}
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}
