// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package completion produces schema-aware completion items for a cursor
// position in a YAML document.
package completion

import (
	"fmt"
	"sort"
)

// Item is one completion result. ReplaceStart/ReplaceEnd, when set, identify
// the token to replace instead of inserting at the cursor; offsets are in
// original-document coordinates.
type Item struct {
	Label         string
	InsertText    string
	Documentation string
	SortText      string
	FilterText    string

	ReplaceStart    int
	ReplaceEnd      int
	HasReplaceRange bool
}

const (
	groupProperty = "1"
	groupValue    = "1"
	groupSnippet  = "9"
)

func sortKey(group string, seq int) string {
	return fmt.Sprintf("%s%04d", group, seq)
}

// dedupeItems keeps the first item per (label, documentation) pair,
// preserving order.
func dedupeItems(items []Item) []Item {
	type key struct{ label, doc string }
	seen := map[key]bool{}
	out := items[:0]
	for _, it := range items {
		k := key{it.Label, it.Documentation}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}

// sortAlphabetical reorders property items by label, rewriting their sort
// keys so the alphabetical-ordering setting survives client-side sorting.
func sortAlphabetical(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortText[:1] != items[j].SortText[:1] {
			return items[i].SortText < items[j].SortText
		}
		return items[i].Label < items[j].Label
	})
	for i := range items {
		items[i].SortText = sortKey(items[i].SortText[:1], i)
	}
}
