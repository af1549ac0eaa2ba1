// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package completion

import (
	"strings"

	"github.com/op/go-logging"

	"github.com/yamlkit/yamlkit/internal/config"
	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/kube"
	"github.com/yamlkit/yamlkit/internal/matcher"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

var log = logging.MustGetLogger("yamlkit")

// Options carries the collaborators of one completion request.
type Options struct {
	Settings *config.Settings
	// Resolved is the schema for the resource; nil degrades to static
	// snippets only.
	Resolved *jschema.ResolvedSchema
	// ContextSchema is the side-loaded schema backing expression values.
	ContextSchema *jschema.ResolvedSchema
	// KubeIndex enables the flattened fast path for Kubernetes documents.
	KubeIndex    *kube.Index
	IsKubernetes bool
	// Parsed, when set, is the already built AST for text; it skips the
	// initial parse. The patch-and-retry step still re-parses patched text.
	Parsed *yamlast.ParsedDocument
}

type contextKind int

const (
	ctxRoot contextKind = iota
	ctxKey
	ctxValue
)

type cursorContext struct {
	kind     contextKind
	object   *yamlast.ObjectNode // enclosing object for key completion
	array    *yamlast.ArrayNode  // enclosing array when the cursor sits between items
	property *yamlast.PropertyNode
	value    yamlast.Node
	// partial identifies the token being completed, in work-text offsets.
	partialStart, partialEnd int
	hasPartial               bool
}

// Complete computes the completion items for a cursor offset in text.
// It never fails: schema problems degrade to schema-less results.
func Complete(text string, offset int, opts Options) (items []Item) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("completion recovered: %v", r)
			items = nil
		}
	}()
	settings := opts.Settings
	if settings == nil {
		settings = config.Default()
	}

	workOffset := offset
	translate := func(off int) int { return off }
	usedPlaceholder := false

	parsed := opts.Parsed
	if parsed == nil {
		parsed = yamlast.Parse(text)
	}
	doc := parsed.DocumentAtOffset(offset)
	var node yamlast.Node
	if doc != nil && doc.Root != nil {
		node = yamlast.NodeAtOffset(doc.Root, offset, true)
	}

	// The patch-and-retry step: while a key or an empty continuation line
	// is being typed the text does not parse where the cursor is, so a
	// patched copy is parsed instead and all ranges are translated back.
	if p, ok := yamlast.PatchForCompletion(text, offset); ok {
		parsed = yamlast.Parse(p.Text)
		translate = p.ToOriginal
		usedPlaceholder = p.UsedPlaceholder
		if p.UsedPlaceholder {
			workOffset = p.InsertAt + 1
		}
		doc = parsed.DocumentAtOffset(workOffset)
		node = nil
		if doc != nil && doc.Root != nil {
			node = yamlast.NodeAtOffset(doc.Root, workOffset, true)
		}
	}

	cctx := classify(node, workOffset)
	baseIndent := lineIndent(text, offset)

	var matches *matcher.Matches
	if opts.Resolved != nil && doc != nil && doc.Root != nil {
		matches = matcher.Match(doc.Root, opts.Resolved)
	}

	switch cctx.kind {
	case ctxValue:
		items = append(items, valueItems(cctx, matches, opts, settings, translate)...)
	default:
		items = append(items, keyItems(cctx, matches, opts, settings, baseIndent, translate, usedPlaceholder)...)
	}

	// Static snippets apply whenever the context is not a scalar value,
	// schema or no schema.
	if cctx.kind != ctxValue {
		items = append(items, snippetItems(opts, settings, baseIndent)...)
	}

	items = dedupeItems(items)
	if settings.AlphabeticalOrdering {
		sortAlphabetical(items)
	}
	return items
}

func classify(node yamlast.Node, offset int) cursorContext {
	switch t := node.(type) {
	case nil:
		return cursorContext{kind: ctxRoot}
	case *yamlast.StringNode:
		if p, ok := t.Parent().(*yamlast.PropertyNode); ok {
			if p.Key == t {
				obj, _ := p.Parent().(*yamlast.ObjectNode)
				return cursorContext{
					kind: ctxKey, object: obj, property: p,
					partialStart: t.Offset(), partialEnd: t.End(), hasPartial: true,
				}
			}
			return scalarValueContext(t, p, offset)
		}
		return scalarValueContext(t, nil, offset)
	case *yamlast.NumberNode, *yamlast.BooleanNode, *yamlast.NullNode:
		p, _ := node.Parent().(*yamlast.PropertyNode)
		return scalarValueContext(node, p, offset)
	case *yamlast.PropertyNode:
		if t.Key != nil && offset <= t.Key.End() {
			obj, _ := t.Parent().(*yamlast.ObjectNode)
			return cursorContext{
				kind: ctxKey, object: obj, property: t,
				partialStart: t.Key.Offset(), partialEnd: t.Key.End(), hasPartial: true,
			}
		}
		return cursorContext{kind: ctxValue, property: t, value: t.Value}
	case *yamlast.ObjectNode:
		return cursorContext{kind: ctxKey, object: t}
	case *yamlast.ArrayNode:
		return cursorContext{kind: ctxKey, array: t}
	default:
		return cursorContext{kind: ctxRoot}
	}
}

func scalarValueContext(value yamlast.Node, p *yamlast.PropertyNode, _ int) cursorContext {
	return cursorContext{kind: ctxValue, property: p, value: value}
}

// keyItems produces property completions for a key (or root) context.
func keyItems(cctx cursorContext, matches *matcher.Matches, opts Options, settings *config.Settings, baseIndent string, translate func(int) int, usedPlaceholder bool) []Item {
	existing := map[string]bool{}
	if cctx.object != nil {
		for _, p := range cctx.object.Properties {
			if p == cctx.property || p.Key == nil {
				continue
			}
			existing[p.Key.Value] = true
		}
	}

	if opts.IsKubernetes && opts.KubeIndex != nil && cctx.array == nil {
		if items, ok := kubeKeyItems(cctx, opts.KubeIndex, existing, translate); ok {
			return items
		}
	}
	if opts.Resolved == nil {
		return nil
	}

	var frags []*jschema.Schema
	switch {
	case cctx.array != nil:
		// Between the items of an array (flow sequences reach here): the
		// candidates come from the element schema, never the root.
		if matches != nil {
			for _, r := range matches.ForNode(cctx.array) {
				if r.Inverted {
					continue
				}
				if item := elementSchema(opts.Resolved, r.Schema); item != nil {
					frags = append(frags, expandCombinators(opts.Resolved, item)...)
				}
			}
		}
	case cctx.object != nil && matches != nil:
		for _, r := range matches.ForNode(cctx.object) {
			if !r.Inverted {
				frags = append(frags, r.Schema)
			}
		}
	default:
		// Empty or unparseable document: complete against the schema root.
		frags = expandCombinators(opts.Resolved, opts.Resolved.Root)
	}

	var items []Item
	seq := 0
	for _, frag := range frags {
		for _, name := range frag.OrderedPropertyNames() {
			if existing[name] || name == yamlast.PlaceholderKey {
				continue
			}
			ps := frag.Properties[name]
			dps := deref(opts.Resolved, ps)
			if dps != nil && dps.DoNotSuggest {
				continue
			}
			item := Item{
				Label:         name,
				InsertText:    synthesizeProperty(name, ps, opts.Resolved, baseIndent, settings.Indent),
				Documentation: describe(dps),
				SortText:      sortKey(groupProperty, seq),
				FilterText:    name,
			}
			if cctx.hasPartial && !usedPlaceholder {
				item.HasReplaceRange = true
				item.ReplaceStart = translate(cctx.partialStart)
				item.ReplaceEnd = translate(cctx.partialEnd)
			}
			items = append(items, item)
			seq++
		}
	}
	return items
}

// kubeKeyItems serves a key context from the flattened Kubernetes index.
// ok is false when the index has nothing for this position, in which case
// the caller falls back to the general matcher.
func kubeKeyItems(cctx cursorContext, index *kube.Index, existing map[string]bool, translate func(int) int) ([]Item, bool) {
	var names []string
	if cctx.object == nil || cctx.object.Parent() == nil {
		names = index.RootPropertyNames()
	} else if p, ok := cctx.object.Parent().(*yamlast.PropertyNode); ok && p.Key != nil && index.Knows(p.Key.Value) {
		names = index.ChildrenOf(p.Key.Value)
	}
	if len(names) == 0 {
		return nil, false
	}
	var items []Item
	seq := 0
	for _, name := range names {
		if existing[name] || name == yamlast.PlaceholderKey {
			continue
		}
		item := Item{
			Label:      name,
			InsertText: name + ": ",
			SortText:   sortKey(groupProperty, seq),
			FilterText: name,
		}
		if cctx.hasPartial {
			item.HasReplaceRange = true
			item.ReplaceStart = translate(cctx.partialStart)
			item.ReplaceEnd = translate(cctx.partialEnd)
		}
		items = append(items, item)
		seq++
	}
	return items, true
}

// valueItems produces scalar-value completions: the union of enum, const,
// default and examples values from every non-inverted match.
func valueItems(cctx cursorContext, matches *matcher.Matches, opts Options, settings *config.Settings, translate func(int) int) []Item {
	if s, ok := cctx.value.(*yamlast.StringNode); ok && strings.HasPrefix(s.Value, settings.ExpressionPrefix) {
		return expressionItems(s, opts, settings, translate)
	}
	if matches == nil {
		return nil
	}

	var frags []*jschema.Schema
	if cctx.value != nil {
		for _, r := range matches.ForNode(cctx.value) {
			if !r.Inverted {
				frags = append(frags, r.Schema)
			}
		}
	}
	if cctx.property != nil {
		for _, r := range matches.ForNode(cctx.property) {
			if !r.Inverted {
				frags = append(frags, deref(opts.Resolved, r.Schema))
			}
		}
	}

	seenValue := map[string]bool{}
	var items []Item
	seq := 0
	add := func(v any, doc string) {
		rendered := renderScalar(v)
		if rendered == "" || seenValue[rendered] {
			return
		}
		seenValue[rendered] = true
		item := Item{
			Label:         rendered,
			InsertText:    rendered,
			Documentation: doc,
			SortText:      sortKey(groupValue, seq),
			FilterText:    rendered,
		}
		if scalarHasText(cctx.value) {
			item.HasReplaceRange = true
			item.ReplaceStart = translate(cctx.value.Offset())
			item.ReplaceEnd = translate(cctx.value.End())
		}
		items = append(items, item)
		seq++
	}

	for _, frag := range frags {
		if frag == nil {
			continue
		}
		for _, v := range frag.Enum {
			add(v, frag.Description)
		}
		if frag.Const != nil {
			add(*frag.Const, frag.Description)
		}
		if frag.Default != nil {
			add(frag.Default, frag.Description)
		}
		for _, v := range frag.Examples {
			add(v, frag.Description)
		}
	}
	return items
}

func snippetItems(opts Options, settings *config.Settings, baseIndent string) []Item {
	var items []Item
	seq := 0
	for _, tpl := range settings.Snippets {
		items = append(items, Item{
			Label:         tpl.Name,
			InsertText:    reindent(tpl.Body, baseIndent),
			Documentation: tpl.Description,
			SortText:      sortKey(groupSnippet, seq),
			FilterText:    tpl.Name,
		})
		seq++
	}
	if opts.Resolved != nil && opts.Resolved.Root != nil {
		for _, sn := range opts.Resolved.Root.DefaultSnippets {
			body := sn.BodyText
			if body == "" && sn.Body != nil {
				body = renderScalar(sn.Body)
			}
			items = append(items, Item{
				Label:         sn.Label,
				InsertText:    reindent(body, baseIndent),
				Documentation: sn.Description,
				SortText:      sortKey(groupSnippet, seq),
				FilterText:    sn.Label,
			})
			seq++
		}
	}
	return items
}

// expandCombinators flattens a schema and its anyOf/oneOf/allOf branches
// (following refs) into the list of fragments contributing properties.
func expandCombinators(resolved *jschema.ResolvedSchema, s *jschema.Schema) []*jschema.Schema {
	var out []*jschema.Schema
	seen := map[*jschema.Schema]bool{}
	var expand func(*jschema.Schema)
	expand = func(s *jschema.Schema) {
		s = deref(resolved, s)
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
		for _, sub := range s.AllOf {
			expand(sub)
		}
		for _, sub := range s.AnyOf {
			expand(sub)
		}
		for _, sub := range s.OneOf {
			expand(sub)
		}
	}
	expand(s)
	return out
}

// elementSchema resolves an array schema to the schema of its elements.
func elementSchema(resolved *jschema.ResolvedSchema, s *jschema.Schema) *jschema.Schema {
	s = deref(resolved, s)
	if s == nil {
		return nil
	}
	if s.Items != nil {
		return deref(resolved, s.Items)
	}
	if len(s.ItemsArray) > 0 {
		return deref(resolved, s.ItemsArray[0])
	}
	return nil
}

func describe(s *jschema.Schema) string {
	if s == nil {
		return ""
	}
	if s.Description != "" {
		return s.Description
	}
	return s.Title
}

func scalarHasText(n yamlast.Node) bool {
	switch t := n.(type) {
	case nil:
		return false
	case *yamlast.NullNode:
		return !t.Synthetic && t.Length() > 0
	default:
		return n.Length() > 0
	}
}

func lineIndent(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	i := start
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return text[start:i]
}
