// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package validation turns a YAML text plus its resolved schema into a list
// of positioned diagnostics. It reports both syntax problems from the parser
// and structural problems against the schema, and it never fails: a missing
// or broken schema degrades to syntax-only diagnostics.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/op/go-logging"

	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/kube"
	"github.com/yamlkit/yamlkit/internal/matcher"
	"github.com/yamlkit/yamlkit/internal/schemastore"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

var log = logging.MustGetLogger("yamlkit")

// Severity grades a diagnostic.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

// Diagnostic is one reported problem. Start and End are byte offsets into
// the validated text; StartPos and EndPos are the same places as
// line/character positions.
type Diagnostic struct {
	Start    int
	End      int
	StartPos yamlast.Position
	EndPos   yamlast.Position
	Severity Severity
	Message  string
	Source   string
}

const diagnosticSource = "yamlkit"

// Options carries the collaborators of one validation run.
type Options struct {
	// Resolved is the schema for the resource. Nil skips structural checks.
	Resolved *jschema.ResolvedSchema
	// SchemaError, when set, records why the resource's schema could not be
	// loaded. It becomes a single warning and suppresses structural checks.
	SchemaError error
	// SchemaURI names the schema for the SchemaError message.
	SchemaURI string
	// KubeIndex, with IsKubernetes, switches structural checks to the
	// flattened Kubernetes fast path.
	KubeIndex    *kube.Index
	IsKubernetes bool
	// Parsed, when set, is the already built AST for the validated text and
	// skips the internal parse.
	Parsed *yamlast.ParsedDocument
}

// Validate checks text and returns its diagnostics, deduplicated and sorted
// by position.
func Validate(text string, opts Options) (diags []Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("validation recovered: %v", r)
			diags = nil
		}
	}()
	parsed := opts.Parsed
	if parsed == nil {
		parsed = yamlast.Parse(text)
	}
	v := &validator{parsed: parsed, opts: opts}
	for _, doc := range parsed.Documents {
		v.validateDocument(doc)
	}
	return v.finish()
}

type validator struct {
	parsed *yamlast.ParsedDocument
	opts   Options
	diags  []Diagnostic
}

func (v *validator) add(start, end int, sev Severity, message string) {
	if end < start {
		end = start
	}
	v.diags = append(v.diags, Diagnostic{
		Start:    start,
		End:      end,
		StartPos: v.parsed.Lines.PositionFor(start),
		EndPos:   v.parsed.Lines.PositionFor(end),
		Severity: sev,
		Message:  message,
		Source:   diagnosticSource,
	})
}

func (v *validator) validateDocument(doc *yamlast.SingleDocument) {
	for _, is := range doc.Errors {
		v.add(is.Start, is.End, SeverityError, is.Message)
	}
	for _, is := range doc.Warnings {
		v.add(is.Start, is.End, SeverityWarning, is.Message)
	}

	if v.opts.SchemaError != nil {
		start, end := doc.Start, doc.Start
		if _, mStart, mEnd, ok := schemastore.Modeline(v.parsed.Text); ok {
			start, end = mStart, mEnd
		}
		uri := v.opts.SchemaURI
		if uri == "" {
			uri = "schema"
		}
		v.add(start, end, SeverityWarning, fmt.Sprintf("unable to load schema %s: %v", uri, v.opts.SchemaError))
		return
	}
	if v.opts.Resolved == nil || doc.Root == nil {
		return
	}

	if (v.opts.IsKubernetes || doc.IsKubernetes) && v.opts.KubeIndex != nil {
		v.kubeChecks(doc.Root)
		return
	}

	matches := matcher.Match(doc.Root, v.opts.Resolved)
	for _, err := range matches.Errors {
		v.add(doc.Start, doc.Start, SeverityWarning, err.Error())
	}
	yamlast.Walk(doc.Root, func(n yamlast.Node) {
		v.checkNode(n, matches)
	})
}

// checkNode applies the structural checks to one node given its applicable
// schema fragments. Property nodes carry the same fragment as their value
// and are skipped to avoid double reporting.
func (v *validator) checkNode(node yamlast.Node, matches *matcher.Matches) {
	if _, ok := node.(*yamlast.PropertyNode); ok {
		return
	}
	var normal []*jschema.Schema
	for _, r := range matches.ForNode(node) {
		if r.Inverted {
			if matcher.Satisfies(node, r.Schema, v.opts.Resolved) {
				v.add(node.Offset(), node.End(), SeverityError, "value matches a schema it is not allowed to match")
			}
			continue
		}
		normal = append(normal, r.Schema)
	}
	if len(normal) == 0 {
		return
	}

	v.checkValue(node, normal)
	if obj, ok := node.(*yamlast.ObjectNode); ok {
		v.checkObject(obj, normal, matches)
	}
}

// checkValue reports a single error when no fragment accepts the node's
// type and literal value. Only fragments carrying their own type, const or
// enum constraint participate: a combinator parent constrains through its
// branches, which are matched onto the same node.
func (v *validator) checkValue(node yamlast.Node, frags []*jschema.Schema) {
	var constraining []*jschema.Schema
	for _, frag := range frags {
		if len(frag.TypeSet()) > 0 || frag.Const != nil || len(frag.Enum) > 0 {
			constraining = append(constraining, frag)
		}
	}
	if len(constraining) == 0 {
		return
	}

	var expectedTypes []string
	var allowedValues []string
	hasEnum := false
	for _, frag := range constraining {
		if valueAccepted(node, frag, v.opts.Resolved) {
			return
		}
		for _, t := range frag.TypeSet() {
			expectedTypes = appendUnique(expectedTypes, t)
		}
		for _, e := range frag.Enum {
			allowedValues = appendUnique(allowedValues, fmt.Sprintf("%v", e))
			hasEnum = true
		}
		if frag.Const != nil {
			allowedValues = appendUnique(allowedValues, fmt.Sprintf("%v", *frag.Const))
			hasEnum = true
		}
	}
	msg := fmt.Sprintf("incorrect type. expected %s", strings.Join(expectedTypes, " | "))
	if hasEnum {
		msg = fmt.Sprintf("value is not accepted. valid values: %s", strings.Join(allowedValues, ", "))
	}
	v.add(node.Offset(), node.End(), SeverityError, msg)
}

// valueAccepted checks only the value-shaped constraints of a fragment:
// type, const and enum. Required members and nested properties are checked
// separately so one problem yields one diagnostic.
func valueAccepted(node yamlast.Node, frag *jschema.Schema, resolved *jschema.ResolvedSchema) bool {
	shallow := *frag
	shallow.Ref = ""
	shallow.Required = nil
	shallow.Properties = nil
	shallow.AllOf = nil
	shallow.AnyOf = nil
	shallow.OneOf = nil
	shallow.Not = nil
	shallow.If, shallow.Then, shallow.Else = nil, nil, nil
	return matcher.Satisfies(node, &shallow, resolved)
}

func (v *validator) checkObject(obj *yamlast.ObjectNode, frags []*jschema.Schema, matches *matcher.Matches) {
	for _, frag := range frags {
		if !fragmentApplies(obj, frag, v.opts.Resolved) {
			continue
		}
		for _, req := range frag.Required {
			if obj.Property(req) == nil {
				v.add(obj.Offset(), obj.End(), SeverityError, fmt.Sprintf("missing property %q", req))
			}
		}
	}

	// A key with no recorded fragment matched nothing in the schema. That
	// is an error only when an applicable fragment forbids extra keys;
	// a silent (absent) additionalProperties tolerates it.
	for _, p := range obj.Properties {
		if p.Key == nil {
			continue
		}
		if len(matches.ForNode(p)) > 0 {
			continue
		}
		for _, frag := range frags {
			ap := frag.AdditionalProperties
			if ap == nil || !ap.Forbidden() || !fragmentApplies(obj, frag, v.opts.Resolved) {
				continue
			}
			v.add(p.Key.Offset(), p.Key.End(), SeverityError, fmt.Sprintf("property %s is not allowed", p.Key.Value))
			break
		}
	}
}

// fragmentApplies decides whether an object-shaped fragment governs this
// object instance. Union branches are discriminated by declared properties
// carrying const or enum (the kind/apiVersion idiom): a branch whose
// discriminator disagrees with the document does not apply.
func fragmentApplies(obj *yamlast.ObjectNode, frag *jschema.Schema, resolved *jschema.ResolvedSchema) bool {
	if ts := frag.TypeSet(); len(ts) > 0 && !matcher.TypeMatches(obj, ts) {
		return false
	}
	for name, ps := range frag.Properties {
		dps := derefSchema(resolved, ps)
		if dps == nil || (dps.Const == nil && len(dps.Enum) == 0) {
			continue
		}
		p := obj.Property(name)
		if p == nil || p.Value == nil {
			continue
		}
		if !matcher.Satisfies(p.Value, ps, resolved) {
			return false
		}
	}
	return true
}

func derefSchema(resolved *jschema.ResolvedSchema, s *jschema.Schema) *jschema.Schema {
	if resolved == nil || s == nil || s.Ref == "" {
		return s
	}
	target, err := resolved.Deref(s)
	if err != nil || target == nil {
		return s
	}
	return target
}

// kubeChecks is the flattened fast path: every key must be a known child of
// its parent key per the pre-built index. It trades combinator fidelity for
// speed on the very large Kubernetes schemas.
func (v *validator) kubeChecks(root yamlast.Node) {
	index := v.opts.KubeIndex
	yamlast.Walk(root, func(n yamlast.Node) {
		obj, ok := n.(*yamlast.ObjectNode)
		if !ok {
			return
		}
		parent, hasParent := parentKey(obj)
		for _, p := range obj.Properties {
			if p.Key == nil {
				continue
			}
			switch {
			case !hasParent:
				if _, ok := index.RootNodes[p.Key.Value]; !ok {
					v.add(p.Key.Offset(), p.Key.End(), SeverityWarning, fmt.Sprintf("unknown property %s", p.Key.Value))
				}
			case index.Knows(parent):
				if !index.HasChild(parent, p.Key.Value) {
					v.add(p.Key.Offset(), p.Key.End(), SeverityWarning, fmt.Sprintf("property %s is not known for %s", p.Key.Value, parent))
				}
			}
		}
	})
}

func parentKey(obj *yamlast.ObjectNode) (string, bool) {
	p, ok := obj.Parent().(*yamlast.PropertyNode)
	if !ok || p.Key == nil {
		return "", false
	}
	return p.Key.Value, true
}

// finish deduplicates by span and message and orders diagnostics by
// position.
func (v *validator) finish() []Diagnostic {
	type key struct {
		start, end int
		message    string
	}
	seen := map[key]bool{}
	out := v.diags[:0]
	for _, d := range v.diags {
		k := key{d.Start, d.End, d.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
