// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package completion

import (
	"strings"

	"github.com/yamlkit/yamlkit/internal/config"
	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

// exprSegment is one dotted path step of an expression value. start is the
// byte offset of the step's name within the expression body.
type exprSegment struct {
	name  string
	start int
}

// expressionItems completes a scalar value written in the expression
// sub-mode: a string starting with the configured prefix, holding a dotted
// path into the side-loaded context schema. Segments may carry bracket
// predicates, which select into array items and are ignored for navigation.
// Every item carries an explicit replace range covering only the final
// segment, so accepting a completion never rewrites the earlier path.
func expressionItems(node *yamlast.StringNode, opts Options, settings *config.Settings, translate func(int) int) []Item {
	if opts.ContextSchema == nil || opts.ContextSchema.Root == nil {
		return nil
	}
	body := strings.TrimPrefix(node.Value, settings.ExpressionPrefix)
	segs := splitExpression(body)
	if len(segs) == 0 {
		return nil
	}
	partial := segs[len(segs)-1]

	cur := opts.ContextSchema.Root
	for _, seg := range segs[:len(segs)-1] {
		if seg.name == "" && seg.start == 0 {
			continue // leading dot addresses the root
		}
		cur = stepExpression(opts.ContextSchema, cur, seg.name)
		if cur == nil {
			return nil
		}
	}
	cur = intoItems(opts.ContextSchema, deref(opts.ContextSchema, cur))
	if cur == nil {
		return nil
	}

	contentStart := node.Offset()
	if node.Quoted {
		contentStart++
	}
	segStart := contentStart + len(settings.ExpressionPrefix) + partial.start
	segEnd := segStart + len(partial.name)

	var items []Item
	seq := 0
	for _, name := range cur.OrderedPropertyNames() {
		ps := deref(opts.ContextSchema, cur.Properties[name])
		if ps != nil && ps.DoNotSuggest {
			continue
		}
		items = append(items, Item{
			Label:           name,
			InsertText:      name,
			Documentation:   describe(ps),
			SortText:        sortKey(groupValue, seq),
			FilterText:      name,
			ReplaceStart:    translate(segStart),
			ReplaceEnd:      translate(segEnd),
			HasReplaceRange: true,
		})
		seq++
	}
	return items
}

// splitExpression breaks an expression body into dotted segments, skipping
// over bracket predicates. A trailing dot yields a final empty segment,
// which completes the full candidate set.
func splitExpression(expr string) []exprSegment {
	var segs []exprSegment
	i := 0
	for {
		start := i
		for i < len(expr) && expr[i] != '.' && expr[i] != '[' {
			i++
		}
		segs = append(segs, exprSegment{name: expr[start:i], start: start})
		for i < len(expr) && expr[i] == '[' {
			depth := 1
			i++
			for i < len(expr) && depth > 0 {
				switch expr[i] {
				case '[':
					depth++
				case ']':
					depth--
				}
				i++
			}
		}
		if i >= len(expr) || expr[i] != '.' {
			return segs
		}
		i++
	}
}

// stepExpression navigates one named step, descending through array item
// schemas so predicates like containers[0] land on the element type.
func stepExpression(resolved *jschema.ResolvedSchema, cur *jschema.Schema, name string) *jschema.Schema {
	cur = intoItems(resolved, deref(resolved, cur))
	if cur == nil {
		return nil
	}
	next, ok := cur.Properties[name]
	if !ok {
		return nil
	}
	return deref(resolved, next)
}

// intoItems unwraps array schemas to their element schema.
func intoItems(resolved *jschema.ResolvedSchema, s *jschema.Schema) *jschema.Schema {
	for depth := 0; s != nil && depth < maxSynthesisDepth; depth++ {
		if s.Items != nil {
			s = deref(resolved, s.Items)
			continue
		}
		if len(s.ItemsArray) > 0 {
			s = deref(resolved, s.ItemsArray[0])
			continue
		}
		return s
	}
	return s
}
