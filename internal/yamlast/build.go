// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package yamlast

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/op/go-logging"
	"gopkg.in/yaml.v3"
)

var log = logging.MustGetLogger("yamlkit")

// Issue is one parser finding, positioned by byte offsets into the full text.
type Issue struct {
	Message string
	Start   int
	End     int
}

// SingleDocument is one `---`-separated document of a parsed text.
// A nil Root with no errors means an empty but valid document.
type SingleDocument struct {
	Root         Node
	Errors       []Issue
	Warnings     []Issue
	IsKubernetes bool
	Index        int

	// Start and End delimit the document's span in the full text.
	Start int
	End   int
}

// ParsedDocument is the result of parsing one text snapshot. Offsets in the
// contained nodes are absolute within Text.
type ParsedDocument struct {
	Text      string
	Documents []*SingleDocument
	Lines     *LineIndex
}

// DocumentAtOffset returns the single document whose span contains offset.
func (p *ParsedDocument) DocumentAtOffset(offset int) *SingleDocument {
	for _, d := range p.Documents {
		if offset >= d.Start && offset <= d.End {
			return d
		}
	}
	if n := len(p.Documents); n > 0 {
		return p.Documents[n-1]
	}
	return nil
}

// Parse builds the AST for text. It never fails: syntax errors are collected
// per document and a document whose root could not be built gets a nil root
// plus one generic error.
func Parse(text string) *ParsedDocument {
	parsed := &ParsedDocument{
		Text:  text,
		Lines: NewLineIndex(text),
	}
	for i, unit := range splitDocuments(text) {
		doc := &SingleDocument{
			Index: i,
			Start: unit.base,
			End:   unit.base + len(unit.text),
		}
		buildUnit(unit, doc, len(text))
		parsed.Documents = append(parsed.Documents, doc)
	}
	if len(parsed.Documents) == 0 {
		parsed.Documents = []*SingleDocument{{Start: 0, End: len(text)}}
	}
	return parsed
}

// unit is one document-separated slice of the input, parsed independently so
// a syntax error in one document cannot take down its siblings.
type unit struct {
	text string
	base int
}

func splitDocuments(text string) []unit {
	var units []unit
	start := 0
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		if isDocumentSeparator(line) && offset > start {
			units = append(units, unit{text: text[start:offset], base: start})
			start = offset
		}
		offset += len(line)
	}
	if len(text) > start || len(units) == 0 {
		units = append(units, unit{text: text[start:], base: start})
	}
	return units
}

func isDocumentSeparator(line string) bool {
	trimmed := strings.TrimRight(line, "\r\n")
	return trimmed == "---" || strings.HasPrefix(trimmed, "--- ")
}

func buildUnit(u unit, doc *SingleDocument, bufLen int) {
	var root yaml.Node
	err := yaml.Unmarshal([]byte(u.text), &root)
	b := &builder{unit: u, doc: doc, bufLen: bufLen, lines: NewLineIndex(u.text)}
	if err != nil {
		b.recordError(err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		if err == nil && strings.TrimSpace(u.text) != "" && !isDocumentSeparator(u.text) {
			doc.Errors = append(doc.Errors, Issue{
				Message: "document could not be parsed",
				Start:   doc.Start,
				End:     doc.End,
			})
		}
		return
	}
	doc.Root = b.build(root.Content[0], 0)
}

type builder struct {
	unit   unit
	doc    *SingleDocument
	lines  *LineIndex
	bufLen int
	depth  int
}

const maxAliasDepth = 512

// offsetOf converts a yaml.Node position (1-based line/column within the
// unit) to an absolute offset, clamped to the buffer.
func (b *builder) offsetOf(n *yaml.Node) int {
	off := b.unit.base + b.lines.OffsetFor(Position{Line: n.Line - 1, Character: n.Column - 1})
	return clamp(off, b.bufLen)
}

func clamp(off, max int) int {
	if off < 0 {
		return 0
	}
	if off > max {
		return max
	}
	return off
}

func (b *builder) build(n *yaml.Node, _ int) Node {
	if n == nil {
		return nil
	}
	if isIncludeTag(n.Tag) {
		log.Warningf("unsupported include directive %q skipped", n.Tag)
		return nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		return b.buildObject(n)
	case yaml.SequenceNode:
		return b.buildArray(n)
	case yaml.ScalarNode:
		return b.buildScalar(n)
	case yaml.AliasNode:
		return b.buildAlias(n)
	default:
		return nil
	}
}

func isIncludeTag(tag string) bool {
	return tag == "!include" || tag == "!!include" || tag == "!inc"
}

func (b *builder) buildObject(n *yaml.Node) Node {
	obj := &ObjectNode{}
	obj.offset = b.offsetOf(n)
	seen := map[string]bool{}
	end := obj.offset
	for i := 0; i < len(n.Content); i += 2 {
		keyNode := n.Content[i]
		var valNode *yaml.Node
		if i+1 < len(n.Content) {
			valNode = n.Content[i+1]
		}
		prop := b.buildProperty(keyNode, valNode)
		if prop == nil {
			continue
		}
		if prop.Key != nil {
			if seen[prop.Key.Value] {
				b.doc.Warnings = append(b.doc.Warnings, Issue{
					Message: fmt.Sprintf("duplicate key %q", prop.Key.Value),
					Start:   prop.Key.Offset(),
					End:     prop.Key.End(),
				})
			}
			seen[prop.Key.Value] = true
		}
		prop.setParent(obj)
		obj.Properties = append(obj.Properties, prop)
		if prop.End() > end {
			end = prop.End()
		}
	}
	if isFlow(n) && len(obj.Properties) == 0 {
		end = obj.offset + 2
	}
	obj.length = end - obj.offset
	return obj
}

func (b *builder) buildProperty(keyNode, valNode *yaml.Node) *PropertyNode {
	prop := &PropertyNode{}

	// Keys are always modeled as strings. A non-scalar key is treated as an
	// opaque key with no structural interpretation.
	key := &StringNode{Value: keyNode.Value, Quoted: isQuoted(keyNode)}
	key.offset = b.offsetOf(keyNode)
	key.length = clamp(key.offset+scalarLength(keyNode), b.bufLen) - key.offset
	key.setParent(prop)
	prop.Key = key
	prop.offset = key.offset

	var value Node
	if valNode != nil {
		value = b.build(valNode, 0)
	}
	if value == nil {
		// Missing or skipped value: substitute a synthetic null positioned
		// at the key's end so downstream ranges stay well formed.
		null := &NullNode{Synthetic: true}
		null.offset = key.End()
		null.length = 0
		value = null
	}
	value.setParent(prop)
	prop.Value = value

	end := value.End()
	if key.End() > end {
		end = key.End()
	}
	prop.length = end - prop.offset
	return prop
}

func (b *builder) buildArray(n *yaml.Node) Node {
	arr := &ArrayNode{}
	arr.offset = b.offsetOf(n)
	end := arr.offset

	content := n.Content
	// A dangling final entry (`- a\n- `) parses as an empty null scalar;
	// drop it, but only in last position.
	if ln := len(content); ln > 0 {
		last := content[ln-1]
		if last.Kind == yaml.ScalarNode && last.Tag == "!!null" && last.Value == "" {
			content = content[:ln-1]
		}
	}

	for _, item := range content {
		node := b.build(item, 0)
		if node == nil {
			continue
		}
		node.setParent(arr)
		arr.Items = append(arr.Items, node)
		if node.End() > end {
			end = node.End()
		}
	}
	if isFlow(n) && len(arr.Items) == 0 {
		end = arr.offset + 2
	}
	arr.length = end - arr.offset
	return arr
}

func (b *builder) buildAlias(n *yaml.Node) Node {
	if n.Alias == nil {
		null := &NullNode{Synthetic: true}
		null.offset = b.offsetOf(n)
		return null
	}
	if b.depth >= maxAliasDepth {
		log.Warningf("alias nesting exceeds %d levels, substituting null", maxAliasDepth)
		null := &NullNode{Synthetic: true}
		null.offset = b.offsetOf(n)
		return null
	}
	b.depth++
	defer func() { b.depth-- }()

	// Aliases are expanded to a fresh copy of the anchored node, not shared,
	// but positioned at the alias itself.
	node := b.build(n.Alias, 0)
	if node == nil {
		null := &NullNode{Synthetic: true}
		null.offset = b.offsetOf(n)
		return null
	}
	reposition(node, b.offsetOf(n), len(n.Value)+1)
	return node
}

func reposition(n Node, offset, length int) {
	switch t := n.(type) {
	case *ObjectNode:
		t.offset, t.length = offset, length
	case *ArrayNode:
		t.offset, t.length = offset, length
	case *PropertyNode:
		t.offset, t.length = offset, length
	case *StringNode:
		t.offset, t.length = offset, length
	case *NumberNode:
		t.offset, t.length = offset, length
	case *BooleanNode:
		t.offset, t.length = offset, length
	case *NullNode:
		t.offset, t.length = offset, length
	}
}

var (
	intBase10Re = regexp.MustCompile(`^[-+]?[0-9]+$`)
	intBase8Re  = regexp.MustCompile(`^0o[0-7]+$`)
	intBase16Re = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	floatRe     = regexp.MustCompile(`^[-+]?(\.[0-9]+|[0-9]+(\.[0-9]*)?)([eE][-+]?[0-9]+)?$`)
)

var (
	nullLiterals = map[string]bool{"null": true, "Null": true, "NULL": true, "~": true, "": true}
	boolLiterals = map[string]bool{
		"true": true, "True": true, "TRUE": true,
		"false": false, "False": false, "FALSE": false,
	}
	nanLiterals = map[string]bool{".nan": true, ".NaN": true, ".NAN": true}
)

func (b *builder) buildScalar(n *yaml.Node) Node {
	offset := b.offsetOf(n)
	length := clamp(offset+scalarLength(n), b.bufLen) - offset
	val := n.Value

	if isQuoted(n) {
		s := &StringNode{Value: val, Quoted: true}
		s.offset, s.length = offset, length
		return s
	}

	if nullLiterals[val] {
		null := &NullNode{}
		null.offset, null.length = offset, length
		return null
	}
	if bv, ok := boolLiterals[val]; ok {
		bn := &BooleanNode{Value: bv, Literal: val}
		bn.offset, bn.length = offset, length
		return bn
	}
	if num, ok := sniffNumber(val); ok {
		num.offset, num.length = offset, length
		return num
	}

	s := &StringNode{Value: val}
	s.offset, s.length = offset, length
	return s
}

func sniffNumber(val string) (*NumberNode, bool) {
	switch {
	case intBase10Re.MatchString(val):
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			// Out-of-range integer literal, keep the magnitude.
			f, _ := strconv.ParseFloat(val, 64)
			return &NumberNode{Value: f, IsInteger: true}, true
		}
		return &NumberNode{Value: float64(i), IsInteger: true}, true
	case intBase8Re.MatchString(val):
		i, err := strconv.ParseInt(val[2:], 8, 64)
		if err != nil {
			return nil, false
		}
		return &NumberNode{Value: float64(i), IsInteger: true}, true
	case intBase16Re.MatchString(val):
		i, err := strconv.ParseInt(val[2:], 16, 64)
		if err != nil {
			return nil, false
		}
		return &NumberNode{Value: float64(i), IsInteger: true}, true
	case nanLiterals[val]:
		return &NumberNode{Value: math.NaN()}, true
	}
	if inf, ok := sniffInfinity(val); ok {
		return &NumberNode{Value: inf}, true
	}
	if floatRe.MatchString(val) && strings.ContainsAny(val, ".eE") {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, false
		}
		return &NumberNode{Value: f}, true
	}
	return nil, false
}

func sniffInfinity(val string) (float64, bool) {
	sign := 1.0
	s := val
	if strings.HasPrefix(s, "-") {
		sign = -1.0
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	switch s {
	case ".inf", ".Inf", ".INF":
		return sign * math.Inf(1), true
	}
	return 0, false
}

func isQuoted(n *yaml.Node) bool {
	return n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0
}

func isFlow(n *yaml.Node) bool {
	return n.Style&yaml.FlowStyle != 0
}

// scalarLength estimates the source length of a scalar. Quoted scalars add
// their delimiters; block scalars are measured by their decoded content.
func scalarLength(n *yaml.Node) int {
	if isQuoted(n) {
		return len(n.Value) + 2
	}
	return len(n.Value)
}

var yamlErrLineRe = regexp.MustCompile(`(?:yaml: )?line (\d+):\s*(.*)`)

func (b *builder) recordError(err error) {
	var messages []string
	if te, ok := err.(*yaml.TypeError); ok {
		messages = te.Errors
	} else {
		messages = []string{err.Error()}
	}
	for _, msg := range messages {
		issue := Issue{Message: msg, Start: b.doc.Start, End: b.doc.End}
		if m := yamlErrLineRe.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			start := b.unit.base + b.lines.LineStart(line-1)
			end := b.unit.base + b.lines.LineStart(line)
			issue = Issue{Message: m[2], Start: clamp(start, b.bufLen), End: clamp(end, b.bufLen)}
		}
		if isDuplicateKeyMessage(issue.Message) {
			b.doc.Warnings = append(b.doc.Warnings, issue)
		} else {
			b.doc.Errors = append(b.doc.Errors, issue)
		}
	}
}

func isDuplicateKeyMessage(msg string) bool {
	return strings.Contains(msg, "already defined") || strings.Contains(msg, "duplicate")
}
