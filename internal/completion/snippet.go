// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package completion

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yamlkit/yamlkit/internal/jschema"
)

const maxSynthesisDepth = 5

// synthesizeProperty builds the YAML-correct insert text for completing a
// property key: a bare `name: ` for scalars, or a fully indented nested
// skeleton expanding required and defaulted sub-properties for objects and
// arrays. baseIndent is the indentation of the line being completed.
func synthesizeProperty(name string, schema *jschema.Schema, resolved *jschema.ResolvedSchema, baseIndent, unit string) string {
	schema = deref(resolved, schema)
	switch schemaKind(schema) {
	case "object":
		body := objectSkeleton(schema, resolved, baseIndent+unit, unit, 0)
		if body == "" {
			body = baseIndent + unit
		}
		return name + ":\n" + body
	case "array":
		return name + ":\n" + arraySkeleton(schema, resolved, baseIndent+unit, unit, 0)
	default:
		if ph := scalarPlaceholder(schema); ph != "" {
			return name + ": " + ph
		}
		return name + ": "
	}
}

func deref(resolved *jschema.ResolvedSchema, s *jschema.Schema) *jschema.Schema {
	if resolved == nil || s == nil || s.Ref == "" {
		return s
	}
	target, err := resolved.Deref(s)
	if err != nil || target == nil {
		return s
	}
	return target
}

func schemaKind(s *jschema.Schema) string {
	if s == nil {
		return ""
	}
	for _, t := range s.TypeSet() {
		if t == "object" || t == "array" {
			return t
		}
	}
	if len(s.TypeSet()) > 0 {
		return s.TypeSet()[0]
	}
	if len(s.Properties) > 0 {
		return "object"
	}
	if s.Items != nil || s.ItemsArray != nil {
		return "array"
	}
	return ""
}

// objectSkeleton renders the required (and defaulted) properties of an
// object schema as indented lines, recursively. Returns "" when the schema
// contributes nothing.
func objectSkeleton(schema *jschema.Schema, resolved *jschema.ResolvedSchema, indent, unit string, depth int) string {
	if schema == nil || depth > maxSynthesisDepth {
		return ""
	}
	names := skeletonPropertyNames(schema)
	if len(names) == 0 {
		return ""
	}
	var lines []string
	for _, pname := range names {
		ps := deref(resolved, schema.Properties[pname])
		switch schemaKind(ps) {
		case "object":
			body := objectSkeleton(ps, resolved, indent+unit, unit, depth+1)
			if body == "" {
				body = indent + unit
			}
			lines = append(lines, indent+pname+":\n"+body)
		case "array":
			lines = append(lines, indent+pname+":\n"+arraySkeleton(ps, resolved, indent+unit, unit, depth+1))
		default:
			lines = append(lines, indent+pname+": "+scalarPlaceholder(ps))
		}
	}
	return strings.Join(lines, "\n")
}

// skeletonPropertyNames picks which sub-properties a synthesized skeleton
// expands: every required property, plus declared properties carrying a
// default, in schema declaration order.
func skeletonPropertyNames(schema *jschema.Schema) []string {
	required := map[string]bool{}
	for _, r := range schema.Required {
		required[r] = true
	}
	var names []string
	for _, name := range schema.OrderedPropertyNames() {
		if required[name] || schema.Properties[name].Default != nil {
			names = append(names, name)
		}
	}
	return names
}

func arraySkeleton(schema *jschema.Schema, resolved *jschema.ResolvedSchema, indent, unit string, depth int) string {
	item := schema.Items
	if item == nil && len(schema.ItemsArray) > 0 {
		item = schema.ItemsArray[0]
	}
	item = deref(resolved, item)
	if schemaKind(item) == "object" && depth <= maxSynthesisDepth {
		// Continuation lines align under the dash content.
		body := objectSkeleton(item, resolved, indent+"  ", unit, depth+1)
		if body != "" {
			return indent + "- " + strings.TrimPrefix(body, indent+"  ")
		}
	}
	return indent + "- " + scalarPlaceholder(item)
}

func scalarPlaceholder(schema *jschema.Schema) string {
	if schema == nil {
		return ""
	}
	if schema.Default != nil {
		return renderScalar(schema.Default)
	}
	if schema.Const != nil {
		return renderScalar(*schema.Const)
	}
	return ""
}

// renderScalar renders a schema-provided value as a YAML scalar literal.
func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.TrimRight(string(out), "\n")
	}
}

// reindent prefixes every line after the first with baseIndent so a
// multi-line template lands at the insertion depth.
func reindent(body, baseIndent string) string {
	lines := strings.Split(body, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = baseIndent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
