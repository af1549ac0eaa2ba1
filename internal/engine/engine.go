// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package engine is the facade over the parsing, schema, completion, hover
// and validation machinery. Each public method is independently safe: an
// internal failure degrades to an empty result, never an abort.
package engine

import (
	"context"
	"strings"
	"sync"

	"github.com/op/go-logging"

	"github.com/yamlkit/yamlkit/internal/completion"
	"github.com/yamlkit/yamlkit/internal/config"
	"github.com/yamlkit/yamlkit/internal/hover"
	"github.com/yamlkit/yamlkit/internal/jschema"
	"github.com/yamlkit/yamlkit/internal/kube"
	"github.com/yamlkit/yamlkit/internal/schemastore"
	"github.com/yamlkit/yamlkit/internal/validation"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

var log = logging.MustGetLogger("yamlkit")

// Document is one versioned text snapshot identified by URI.
type Document struct {
	URI     string
	Text    string
	Version int
}

type astKey struct {
	uri     string
	version int
}

// Engine coordinates the per-request services. All methods are safe for
// concurrent use.
type Engine struct {
	store    *schemastore.Store
	settings *config.Settings

	// contextSchema backs the expression value sub-mode, side-loaded by the
	// embedder rather than associated per resource.
	contextMu     sync.RWMutex
	contextSchema *jschema.ResolvedSchema

	astMu    sync.RWMutex
	astCache map[astKey]*yamlast.ParsedDocument

	kubeMu    sync.RWMutex
	kubeCache map[*jschema.ResolvedSchema]*kube.Index

	debouncer *debouncer
}

// New builds an Engine around a schema store and settings. A nil settings
// falls back to defaults.
func New(store *schemastore.Store, settings *config.Settings) *Engine {
	if settings == nil {
		settings = config.Default()
	}
	e := &Engine{
		store:     store,
		settings:  settings,
		astCache:  map[astKey]*yamlast.ParsedDocument{},
		kubeCache: map[*jschema.ResolvedSchema]*kube.Index{},
	}
	e.debouncer = newDebouncer(settings.Debounce())
	return e
}

// Store exposes the engine's schema store for association management.
func (e *Engine) Store() *schemastore.Store { return e.store }

// SetContextSchema installs the side-loaded schema backing expression
// values.
func (e *Engine) SetContextSchema(rs *jschema.ResolvedSchema) {
	e.contextMu.Lock()
	e.contextSchema = rs
	e.contextMu.Unlock()
}

// Parse returns the positioned AST for a document snapshot, cached by
// (URI, version). It never fails.
func (e *Engine) Parse(doc Document) (parsed *yamlast.ParsedDocument) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("parse recovered: %v", r)
			parsed = &yamlast.ParsedDocument{Text: doc.Text, Lines: yamlast.NewLineIndex(doc.Text)}
		}
	}()
	key := astKey{uri: doc.URI, version: doc.Version}
	e.astMu.RLock()
	cached := e.astCache[key]
	e.astMu.RUnlock()
	if cached != nil {
		return cached
	}
	parsed = yamlast.Parse(doc.Text)
	if e.isKubernetes(doc) {
		for _, d := range parsed.Documents {
			d.IsKubernetes = true
		}
	}
	e.astMu.Lock()
	// One live snapshot per URI: a new version supersedes the old one.
	for k := range e.astCache {
		if k.uri == doc.URI {
			delete(e.astCache, k)
		}
	}
	e.astCache[key] = parsed
	e.astMu.Unlock()
	return parsed
}

// Schema resolves the schema associated with a document, or (nil, nil) when
// none applies.
func (e *Engine) Schema(ctx context.Context, doc Document) (*jschema.ResolvedSchema, error) {
	return e.store.SchemaForResource(ctx, doc.URI, doc.Text)
}

// Complete computes completion items at a byte offset. Schema problems
// degrade to schema-less (snippet only) results.
func (e *Engine) Complete(ctx context.Context, doc Document, offset int) (items []completion.Item) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("complete recovered: %v", r)
			items = nil
		}
	}()
	resolved, err := e.Schema(ctx, doc)
	if err != nil {
		log.Warningf("completion without schema for %s: %v", doc.URI, err)
		resolved = nil
	}
	isKube := e.isKubernetes(doc)
	opts := completion.Options{
		Settings:      e.settings,
		Resolved:      resolved,
		ContextSchema: e.currentContextSchema(),
		IsKubernetes:  isKube,
		Parsed:        e.Parse(doc),
	}
	if isKube && resolved != nil {
		opts.KubeIndex = e.kubeIndex(resolved)
	}
	return completion.Complete(doc.Text, offset, opts)
}

// Hover returns markdown documentation for the node at a byte offset, or
// nil.
func (e *Engine) Hover(ctx context.Context, doc Document, offset int) *hover.Result {
	resolved, err := e.Schema(ctx, doc)
	if err != nil || resolved == nil {
		return nil
	}
	return hover.ForParsed(e.Parse(doc), offset, resolved)
}

// Validate checks a document immediately and returns its diagnostics.
func (e *Engine) Validate(ctx context.Context, doc Document) []validation.Diagnostic {
	opts := validation.Options{Parsed: e.Parse(doc)}
	resolved, err := e.Schema(ctx, doc)
	switch {
	case err != nil:
		opts.SchemaError = err
		opts.SchemaURI = strings.Join(e.store.SchemaURIsFor(doc.URI, doc.Text), ", ")
	case resolved != nil:
		opts.Resolved = resolved
		if e.isKubernetes(doc) {
			opts.IsKubernetes = true
			opts.KubeIndex = e.kubeIndex(resolved)
		}
	}
	return validation.Validate(doc.Text, opts)
}

// ScheduleValidation arranges for deliver to be called with the document's
// diagnostics after the debounce interval. A newer snapshot for the same
// URI cancels a pending run; this is the engine's only cancellation point.
func (e *Engine) ScheduleValidation(ctx context.Context, doc Document, deliver func(Document, []validation.Diagnostic)) {
	e.debouncer.schedule(doc.URI, func() {
		deliver(doc, e.Validate(ctx, doc))
	})
}

// Close releases pending timers.
func (e *Engine) Close() {
	e.debouncer.stopAll()
}

// isKubernetes reports whether the document resolves to a Kubernetes-family
// schema, keyed off the schema URI.
func (e *Engine) isKubernetes(doc Document) bool {
	for _, uri := range e.store.SchemaURIsFor(doc.URI, doc.Text) {
		if strings.Contains(strings.ToLower(uri), "kubernetes") {
			return true
		}
	}
	return false
}

// kubeIndex returns the flattened index for a resolved schema, building it
// at most once per resolution.
func (e *Engine) kubeIndex(resolved *jschema.ResolvedSchema) *kube.Index {
	e.kubeMu.RLock()
	idx := e.kubeCache[resolved]
	e.kubeMu.RUnlock()
	if idx != nil {
		return idx
	}
	idx = kube.BuildIndex(resolved.Root)
	e.kubeMu.Lock()
	e.kubeCache[resolved] = idx
	e.kubeMu.Unlock()
	return idx
}

func (e *Engine) currentContextSchema() *jschema.ResolvedSchema {
	e.contextMu.RLock()
	defer e.contextMu.RUnlock()
	return e.contextSchema
}
