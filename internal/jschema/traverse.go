// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package jschema

// Traverse returns an iterator over schema and every sub-schema beneath it.
// It handles cycles by tracking visited schemas.
func Traverse(schema *Schema) func(yield func(*Schema) bool) {
	return func(yield func(*Schema) bool) {
		visited := make(map[*Schema]struct{})
		traverseWithVisited(schema, yield, visited)
	}
}

func traverseWithVisited(schema *Schema, yield func(*Schema) bool, visited map[*Schema]struct{}) bool {
	if schema == nil {
		return true
	}
	if _, ok := visited[schema]; ok {
		return true
	}
	visited[schema] = struct{}{}

	if !yield(schema) {
		return false
	}

	// Objects
	for _, s := range schema.Properties {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	for _, s := range schema.PatternProperties {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	if schema.AdditionalProperties != nil {
		if !traverseWithVisited(schema.AdditionalProperties.Schema, yield, visited) {
			return false
		}
	}

	// Arrays
	if !traverseWithVisited(schema.Items, yield, visited) {
		return false
	}
	for _, s := range schema.ItemsArray {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}

	// Logic
	for _, s := range schema.AllOf {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	for _, s := range schema.AnyOf {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	for _, s := range schema.OneOf {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	if !traverseWithVisited(schema.Not, yield, visited) {
		return false
	}

	// Conditional
	if !traverseWithVisited(schema.If, yield, visited) {
		return false
	}
	if !traverseWithVisited(schema.Then, yield, visited) {
		return false
	}
	if !traverseWithVisited(schema.Else, yield, visited) {
		return false
	}

	// Definitions
	for _, s := range schema.Defs {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}
	for _, s := range schema.Definitions {
		if !traverseWithVisited(s, yield, visited) {
			return false
		}
	}

	return true
}
