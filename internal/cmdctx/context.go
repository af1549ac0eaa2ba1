// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package cmdctx loads the CLI session (settings plus a ready engine) and
// threads it through cobra command contexts.
package cmdctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yamlkit/yamlkit/internal/config"
	"github.com/yamlkit/yamlkit/internal/engine"
	"github.com/yamlkit/yamlkit/internal/schemastore"
)

type sessionKeyType struct{}

var sessionKey sessionKeyType

// Session is everything a command needs: the loaded settings, where they
// came from, and an engine wired to a schema store.
type Session struct {
	Settings *config.Settings
	// SettingsPath is the file the settings were loaded from, or the
	// default location when no file existed yet.
	SettingsPath string
	Engine       *engine.Engine
}

// With stores a Session in a context.
func With(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// From extracts the Session from a context. Returns nil if not stored.
func From(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// Load builds the CLI session: settings from yamlkit.yaml in the working
// directory when present, otherwise defaults, plus an engine whose store
// carries the settings' schema associations.
func Load(ctx context.Context) (context.Context, error) {
	path := config.DefaultFileName
	settings, err := config.Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		settings = config.Default()
	case err != nil:
		return ctx, fmt.Errorf("loading %s: %w", path, err)
	}

	store := schemastore.New(FetchSchema)
	for pattern, uris := range settings.Schemas {
		if err := store.AddAssociation(pattern, uris...); err != nil {
			return ctx, fmt.Errorf("schema association %q: %w", pattern, err)
		}
	}
	watchLocalSchemas(ctx, store, settings)

	s := &Session{
		Settings:     settings,
		SettingsPath: path,
		Engine:       engine.New(store, settings),
	}
	return With(ctx, s), nil
}

// watchLocalSchemas keeps file-backed schema associations fresh for the
// lifetime of the session: an edit to a watched schema file invalidates its
// cached resolution. Watching is best effort; a failure just means stale
// caches until restart.
func watchLocalSchemas(ctx context.Context, store *schemastore.Store, settings *config.Settings) {
	w, err := schemastore.NewWatcher(store)
	if err != nil {
		return
	}
	watching := false
	for _, uris := range settings.Schemas {
		for _, uri := range uris {
			path, ok := localSchemaPath(uri)
			if !ok {
				continue
			}
			if err := w.Add(path); err != nil {
				continue
			}
			watching = true
		}
	}
	if !watching {
		_ = w.Close()
		return
	}
	w.Start(ctx)
}

func localSchemaPath(uri string) (string, bool) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return "", false
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return "", false
		}
		return u.Path, true
	default:
		return uri, true
	}
}

const fetchTimeout = 15 * time.Second

const maxSchemaBytes = 32 << 20

// FetchSchema is the CLI's schema fetch capability: file paths and
// file:// URIs read from disk, http(s) URIs over the network.
func FetchSchema(ctx context.Context, uri string) ([]byte, error) {
	switch {
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return fetchHTTP(ctx, uri)
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, err
		}
		return os.ReadFile(u.Path) //nolint:gosec // schema location is user input
	default:
		return os.ReadFile(uri) //nolint:gosec // schema location is user input
	}
}

func fetchHTTP(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: %s", uri, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes))
}
