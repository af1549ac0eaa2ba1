// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package prompts

import (
	"github.com/charmbracelet/huh"
)

// RunAssociateForm runs the interactive form for registering a file-match
// glob against one or more schema URIs.
func RunAssociateForm(pattern, schemas *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("File match pattern").
				Prompt(": ").
				Inline(true).
				Placeholder("**/deployment*.yaml").
				Value(pattern).
				Validate(requiredValidator("pattern")),
			huh.NewInput().
				Title("Schema URI(s), comma-separated").
				Prompt(": ").
				Inline(true).
				Placeholder("https://example.com/schema.json").
				Value(schemas).
				Validate(requiredValidator("schema URI")),
		),
	).WithTheme(Theme()).Run()
}
