// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package jschema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// RefError is an unresolvable $ref. It degrades the referring sub-schema to
// "no constraint"; it never aborts matching.
type RefError struct {
	Ref string
	URI string
	Err error
}

func (e *RefError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve $ref %q in %s: %v", e.Ref, e.URI, e.Err)
	}
	return fmt.Sprintf("cannot resolve $ref %q in %s", e.Ref, e.URI)
}

func (e *RefError) Unwrap() error { return e.Err }

// ResolvedSchema is a schema whose $ref pointers have been dereferenced into
// a reference table. Fragments keep their Ref fields; consumers follow them
// through Deref, which keeps cyclic schemas finite.
type ResolvedSchema struct {
	Root   *Schema
	Errors []error

	mu   sync.RWMutex
	refs map[*Schema]*Schema
}

// NewResolved wraps root and builds the in-document portion of its
// reference table. Cross-document refs are added by the schema store via
// AddRef as it fetches their target documents.
func NewResolved(root *Schema, uri string) *ResolvedSchema {
	r := &ResolvedSchema{Root: root, refs: make(map[*Schema]*Schema)}
	if root == nil {
		return r
	}
	Traverse(root)(func(s *Schema) bool {
		if s.URL == "" {
			s.URL = uri
		}
		if s.Ref == "" || IsFileRef(s.Ref) {
			return true
		}
		target, err := ResolvePointer(root, s.Ref)
		if err != nil {
			r.Errors = append(r.Errors, &RefError{Ref: s.Ref, URI: uri, Err: err})
			return true
		}
		r.refs[s] = target
		return true
	})
	return r
}

// Conjoin combines several resolved schemas into one allOf conjunction. The
// parts' reference tables and errors carry over as-is; the wrapper is never
// re-traversed, so no ref is resolved twice.
func Conjoin(uri string, parts ...*ResolvedSchema) *ResolvedSchema {
	roots := make([]*Schema, len(parts))
	for i, p := range parts {
		roots[i] = p.Root
	}
	r := &ResolvedSchema{
		Root: &Schema{AllOf: roots, URL: uri},
		refs: make(map[*Schema]*Schema),
	}
	for _, p := range parts {
		r.Merge(p)
	}
	return r
}

// AddRef records the resolution of a fragment's $ref.
func (r *ResolvedSchema) AddRef(from, to *Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[from] = to
}

// Deref follows s.Ref one step. Schemas without a ref return themselves.
// An unresolvable ref is attempted lazily against the root document before
// giving up with a RefError.
func (r *ResolvedSchema) Deref(s *Schema) (*Schema, error) {
	if s == nil || s.Ref == "" {
		return s, nil
	}
	r.mu.RLock()
	target, ok := r.refs[s]
	r.mu.RUnlock()
	if ok {
		return target, nil
	}
	if !IsFileRef(s.Ref) {
		target, err := ResolvePointer(r.Root, s.Ref)
		if err == nil {
			r.AddRef(s, target)
			return target, nil
		}
		return nil, &RefError{Ref: s.Ref, URI: s.URL, Err: err}
	}
	return nil, &RefError{Ref: s.Ref, URI: s.URL}
}

// Merge combines another resolved schema's reference table and errors into
// this one. Used when multiple schemas apply to one resource.
func (r *ResolvedSchema) Merge(other *ResolvedSchema) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for from, to := range other.refs {
		r.refs[from] = to
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// ResolvePointer evaluates a JSON pointer ("#/a/b/0") against root.
func ResolvePointer(root *Schema, pointer string) (*Schema, error) {
	p := strings.TrimPrefix(pointer, "#")
	if p == "" || p == "/" {
		return root, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("unsupported pointer %q", pointer)
	}
	cur := root
	segments := strings.Split(p[1:], "/")
	for i := 0; i < len(segments); i++ {
		if cur == nil {
			return nil, fmt.Errorf("pointer %q walks past a missing schema", pointer)
		}
		seg := unescapePointerSegment(segments[i])
		next, consumed, err := step(cur, seg, segments[i+1:])
		if err != nil {
			return nil, fmt.Errorf("pointer %q: %w", pointer, err)
		}
		cur = next
		i += consumed
	}
	if cur == nil {
		return nil, fmt.Errorf("pointer %q has no target", pointer)
	}
	return cur, nil
}

// step resolves one pointer segment, possibly consuming a following key or
// index segment for map- and slice-valued keywords.
func step(cur *Schema, seg string, rest []string) (*Schema, int, error) {
	keyed := func(m map[string]*Schema, what string) (*Schema, int, error) {
		if len(rest) == 0 {
			return nil, 0, fmt.Errorf("%s requires a key segment", what)
		}
		key := unescapePointerSegment(rest[0])
		sub, ok := m[key]
		if !ok {
			return nil, 0, fmt.Errorf("no %s entry %q", what, key)
		}
		return sub, 1, nil
	}
	indexed := func(list []*Schema, what string) (*Schema, int, error) {
		if len(rest) == 0 {
			return nil, 0, fmt.Errorf("%s requires an index segment", what)
		}
		idx, err := strconv.Atoi(rest[0])
		if err != nil || idx < 0 || idx >= len(list) {
			return nil, 0, fmt.Errorf("bad %s index %q", what, rest[0])
		}
		return list[idx], 1, nil
	}

	switch seg {
	case "properties":
		return keyed(cur.Properties, "properties")
	case "patternProperties":
		return keyed(cur.PatternProperties, "patternProperties")
	case "definitions":
		return keyed(cur.Definitions, "definitions")
	case "$defs":
		return keyed(cur.Defs, "$defs")
	case "items":
		if cur.ItemsArray != nil {
			return indexed(cur.ItemsArray, "items")
		}
		if cur.Items == nil {
			return nil, 0, fmt.Errorf("no items schema")
		}
		return cur.Items, 0, nil
	case "additionalProperties":
		if cur.AdditionalProperties == nil || cur.AdditionalProperties.Schema == nil {
			return nil, 0, fmt.Errorf("no additionalProperties schema")
		}
		return cur.AdditionalProperties.Schema, 0, nil
	case "allOf":
		return indexed(cur.AllOf, "allOf")
	case "anyOf":
		return indexed(cur.AnyOf, "anyOf")
	case "oneOf":
		return indexed(cur.OneOf, "oneOf")
	case "not":
		if cur.Not == nil {
			return nil, 0, fmt.Errorf("no not schema")
		}
		return cur.Not, 0, nil
	case "if":
		if cur.If == nil {
			return nil, 0, fmt.Errorf("no if schema")
		}
		return cur.If, 0, nil
	case "then":
		if cur.Then == nil {
			return nil, 0, fmt.Errorf("no then schema")
		}
		return cur.Then, 0, nil
	case "else":
		if cur.Else == nil {
			return nil, 0, fmt.Errorf("no else schema")
		}
		return cur.Else, 0, nil
	default:
		return nil, 0, fmt.Errorf("unsupported segment %q", seg)
	}
}

func unescapePointerSegment(seg string) string {
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}
