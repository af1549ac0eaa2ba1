// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package hover renders schema documentation for a cursor position in a
// YAML document as markdown.
package hover

import (
	"fmt"
	"strings"

	"github.com/op/go-logging"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/matcher"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

var log = logging.MustGetLogger("yamlkit")

// branchSeparator joins the documentation of multiple satisfied schema
// branches into one hover body.
const branchSeparator = "\n\n||||\n\n"

// Result is a hover response: markdown content and the byte range of the
// node it documents.
type Result struct {
	Content string
	Start   int
	End     int
}

// Hover returns the documentation for the node at offset, or nil when the
// position has no documented schema match.
func Hover(text string, offset int, resolved *jschema.ResolvedSchema) *Result {
	return ForParsed(yamlast.Parse(text), offset, resolved)
}

// ForParsed is Hover over an already parsed document, so callers holding a
// cached AST avoid a re-parse.
func ForParsed(parsed *yamlast.ParsedDocument, offset int, resolved *jschema.ResolvedSchema) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("hover recovered: %v", r)
			res = nil
		}
	}()
	if resolved == nil || parsed == nil {
		return nil
	}
	doc := parsed.DocumentAtOffset(offset)
	if doc == nil || doc.Root == nil {
		return nil
	}
	node := yamlast.NodeAtOffset(doc.Root, offset, true)
	if node == nil {
		return nil
	}

	matches := matcher.Match(doc.Root, resolved)
	target := hoverTarget(node, offset)
	if target == nil {
		return nil
	}
	// Only branches the value actually satisfies are documented: hovering a
	// string must not surface the integer branch of a union.
	checkNode := target
	if p, ok := target.(*yamlast.PropertyNode); ok && p.Value != nil {
		checkNode = p.Value
	}

	var sections []string
	seen := map[string]bool{}
	for _, m := range matches.ForNode(target) {
		if m.Inverted {
			continue
		}
		if !matcher.Satisfies(checkNode, m.Schema, resolved) {
			continue
		}
		section := describeFragment(resolved, m.Schema)
		if section == "" || seen[section] {
			continue
		}
		seen[section] = true
		sections = append(sections, section)
	}
	if len(sections) == 0 {
		return nil
	}
	anchor := anchorNode(node)
	return &Result{
		Content: strings.Join(sections, branchSeparator),
		Start:   anchor.Offset(),
		End:     anchor.End(),
	}
}

// hoverTarget picks the node whose schema fragments document the position:
// a key resolves to its property, so the hover shows what the property
// means rather than what the string literal is.
func hoverTarget(node yamlast.Node, offset int) yamlast.Node {
	if s, ok := node.(*yamlast.StringNode); ok {
		if p, pok := s.Parent().(*yamlast.PropertyNode); pok && p.Key == s {
			return p
		}
	}
	if p, ok := node.(*yamlast.PropertyNode); ok && p.Key != nil && offset <= p.Key.End() {
		return p
	}
	return node
}

// anchorNode narrows the reported range to the key when hovering a property.
func anchorNode(node yamlast.Node) yamlast.Node {
	if p, ok := node.(*yamlast.PropertyNode); ok && p.Key != nil {
		return p.Key
	}
	if s, ok := node.(*yamlast.StringNode); ok {
		if p, pok := s.Parent().(*yamlast.PropertyNode); pok && p.Key == s {
			return s
		}
	}
	return node
}

func describeFragment(resolved *jschema.ResolvedSchema, s *jschema.Schema) string {
	s = derefFragment(resolved, s)
	if s == nil {
		return ""
	}
	var b strings.Builder
	if s.Title != "" {
		b.WriteString("#### ")
		b.WriteString(s.Title)
	}
	if s.Description != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Description)
	}
	if s.Deprecated {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("*Deprecated.*")
	}
	if b.Len() == 0 {
		return ""
	}
	if len(s.Enum) > 0 {
		b.WriteString("\n\nAllowed values: ")
		for i, v := range s.Enum {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%v`", v)
		}
	}
	if s.URL != "" {
		fmt.Fprintf(&b, "\n\nSource: [%s](%s)", sourceName(s.URL), s.URL)
	}
	return b.String()
}

// sourceName shortens a schema URI to its final path element for display.
func sourceName(uri string) string {
	trimmed := strings.TrimRight(uri, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func derefFragment(resolved *jschema.ResolvedSchema, s *jschema.Schema) *jschema.Schema {
	if resolved == nil || s == nil || s.Ref == "" {
		return s
	}
	target, err := resolved.Deref(s)
	if err != nil || target == nil {
		return s
	}
	return target
}
