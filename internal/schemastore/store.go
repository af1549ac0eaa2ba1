// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package schemastore resolves document URIs to JSON schemas, loading and
// caching them through an injected fetch capability.
package schemastore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sync"

	"github.com/op/go-logging"
	"golang.org/x/sync/singleflight"

	"github.com/yamlkit/yamlkit/internal/jschema"
)

var log = logging.MustGetLogger("yamlkit")

// FetchFunc retrieves raw schema content. The transport (file, HTTP, custom
// scheme) is the host's concern.
type FetchFunc func(ctx context.Context, uri string) ([]byte, error)

// ResolverFunc is a pluggable association callback consulted before modeline
// and glob lookup. An empty result falls through.
type ResolverFunc func(resourceURI string) []string

// LoadError is a fetch or parse failure for a schema document. It degrades
// the affected document to schema-less operation plus one warning.
type LoadError struct {
	URI string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("cannot load schema %s: %v", e.URI, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

type association struct {
	pattern string
	re      *regexp.Regexp
	uris    []string
}

// Store owns schema association and the resolved-schema cache. Lifecycle is
// tied to the engine instance; there is no process-wide state.
type Store struct {
	fetch    FetchFunc
	resolver ResolverFunc

	mu           sync.RWMutex
	associations []association
	docs         map[string]*jschema.ResolvedSchema // per schema document URI
	cache        map[string]*jschema.ResolvedSchema // per requested URI (may carry fragment)

	flight singleflight.Group
}

// New creates a Store around the given fetch capability.
func New(fetch FetchFunc) *Store {
	return &Store{
		fetch: fetch,
		docs:  make(map[string]*jschema.ResolvedSchema),
		cache: make(map[string]*jschema.ResolvedSchema),
	}
}

// SetResolver installs the pluggable resolver callback.
func (s *Store) SetResolver(fn ResolverFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolver = fn
}

// AddAssociation registers a glob file-match association. Re-registering a
// pattern replaces it; among distinct matching patterns, later registrations
// take precedence on conflict.
func (s *Store) AddAssociation(pattern string, schemaURIs ...string) error {
	re, err := compileGlob(pattern)
	if err != nil {
		return fmt.Errorf("invalid association pattern %q: %w", pattern, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.associations {
		if s.associations[i].pattern == pattern {
			s.associations = append(s.associations[:i], s.associations[i+1:]...)
			break
		}
	}
	s.associations = append(s.associations, association{pattern: pattern, re: re, uris: schemaURIs})
	return nil
}

// SchemaURIsFor resolves a resource URI to schema URIs: the custom resolver
// first, then an in-document modeline, then glob associations (the latest
// matching registration wins).
func (s *Store) SchemaURIsFor(resourceURI, text string) []string {
	s.mu.RLock()
	resolver := s.resolver
	s.mu.RUnlock()

	if resolver != nil {
		if uris := resolver(resourceURI); len(uris) > 0 {
			return uris
		}
	}
	if uri, _, _, ok := Modeline(text); ok {
		return []string{uri}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	path := resourcePath(resourceURI)
	for i := len(s.associations) - 1; i >= 0; i-- {
		a := s.associations[i]
		if matchPath(a.re, a.pattern, path) {
			return a.uris
		}
	}
	return nil
}

// SchemaForResource resolves every schema that applies to the resource and
// combines multiple matches as a conjunction. A nil result with nil error
// means no schema is associated.
func (s *Store) SchemaForResource(ctx context.Context, resourceURI, text string) (*jschema.ResolvedSchema, error) {
	uris := s.SchemaURIsFor(resourceURI, text)
	if len(uris) == 0 {
		return nil, nil
	}
	resolved := make([]*jschema.ResolvedSchema, 0, len(uris))
	for _, uri := range uris {
		r, err := s.ResolveURI(ctx, uri)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, r)
	}
	if len(resolved) == 1 {
		return resolved[0], nil
	}

	// More than one schema applies: combine as an implicit conjunction.
	return jschema.Conjoin(resourceURI, resolved...), nil
}

// ResolveURI loads a schema by URI (optionally carrying a JSON-pointer
// fragment), resolves its refs transitively and caches the result.
// Concurrent callers for the same URI coalesce into one resolution.
func (s *Store) ResolveURI(ctx context.Context, uri string) (*jschema.ResolvedSchema, error) {
	s.mu.RLock()
	cached, ok := s.cache[uri]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.flight.Do("resolve\x00"+uri, func() (any, error) {
		docURI, fragment := jschema.SplitRef(uri)
		if docURI == "" {
			return nil, &LoadError{URI: uri, Err: errors.New("empty schema uri")}
		}
		doc, err := s.loadDocument(ctx, docURI, map[string]*jschema.ResolvedSchema{})
		if err != nil {
			return nil, err
		}
		result := doc
		if fragment != "" && fragment != "#" {
			target, perr := jschema.ResolvePointer(doc.Root, fragment)
			if perr != nil {
				return nil, &LoadError{URI: uri, Err: perr}
			}
			result = jschema.NewResolved(target, docURI)
			result.Merge(doc)
		}
		s.mu.Lock()
		s.cache[uri] = result
		s.mu.Unlock()
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jschema.ResolvedSchema), nil
}

// loadDocument fetches and resolves one schema document. inflight carries
// the documents currently being resolved on this call path: a second visit
// to an in-flight URI returns its (partially resolved) document rather than
// refetching, which breaks reference cycles.
func (s *Store) loadDocument(ctx context.Context, uri string, inflight map[string]*jschema.ResolvedSchema) (*jschema.ResolvedSchema, error) {
	if r, ok := inflight[uri]; ok {
		return r, nil
	}
	s.mu.RLock()
	r, ok := s.docs[uri]
	s.mu.RUnlock()
	if ok {
		return r, nil
	}

	data, err, _ := s.flight.Do("fetch\x00"+uri, func() (any, error) {
		return s.fetch(ctx, uri)
	})
	if err != nil {
		return nil, &LoadError{URI: uri, Err: err}
	}
	root, err := jschema.Parse(data.([]byte))
	if err != nil {
		return nil, &LoadError{URI: uri, Err: err}
	}

	res := jschema.NewResolved(root, uri)
	inflight[uri] = res
	jschema.Traverse(root)(func(frag *jschema.Schema) bool {
		if !jschema.IsFileRef(frag.Ref) {
			return true
		}
		refURI, pointer := jschema.SplitRef(frag.Ref)
		abs := resolveRelative(uri, refURI)
		sub, err := s.loadDocument(ctx, abs, inflight)
		if err != nil {
			log.Warningf("schema %s: %v", uri, err)
			res.Errors = append(res.Errors, &jschema.RefError{Ref: frag.Ref, URI: uri, Err: err})
			return true
		}
		target := sub.Root
		if pointer != "" && pointer != "#" {
			target, err = jschema.ResolvePointer(sub.Root, pointer)
			if err != nil {
				res.Errors = append(res.Errors, &jschema.RefError{Ref: frag.Ref, URI: uri, Err: err})
				return true
			}
		}
		res.AddRef(frag, target)
		if sub != res {
			res.Merge(sub)
		}
		return true
	})

	s.mu.Lock()
	s.docs[uri] = res
	s.mu.Unlock()
	return res, nil
}

// Invalidate drops the document cached for uri. The combined-resolution
// cache is cleared wholesale since entries may transitively embed the
// invalidated document.
func (s *Store) Invalidate(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
	s.cache = make(map[string]*jschema.ResolvedSchema)
}

func resolveRelative(baseURI, ref string) string {
	base, err := url.Parse(baseURI)
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}
