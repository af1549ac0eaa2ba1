// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/cmdctx"
	"github.com/yamlkit/yamlkit/internal/engine"
	"github.com/yamlkit/yamlkit/internal/schemastore"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

type completeOptions struct {
	line       int
	column     int
	offset     int
	showInsert bool
}

func registerCompleteCmd(parent *cobra.Command) {
	opts := &completeOptions{offset: -1}

	cmd := &cobra.Command{
		Use:   "complete <file>",
		Short: "List schema-aware completions at a position in a YAML file",
		Example: `  # Completions at line 4, column 3 (1-based)
  yamlkit complete deploy.yaml --line 4 --column 3

  # Completions at a byte offset, with insert texts
  yamlkit complete deploy.yaml --offset 52 --insert`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.line, "line", 1, "Cursor line (1-based)")
	cmd.Flags().IntVar(&opts.column, "column", 1, "Cursor column (1-based)")
	cmd.Flags().IntVar(&opts.offset, "offset", -1, "Cursor byte offset (overrides line/column)")
	cmd.Flags().BoolVar(&opts.showInsert, "insert", false, "Print full insert texts")

	parent.AddCommand(cmd)
}

func runComplete(cmd *cobra.Command, path string, opts *completeOptions) error {
	sess, err := cmdctx.RequireFromCommand(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is a CLI argument
	if err != nil {
		return err
	}
	text := string(data)
	offset := opts.offset
	if offset < 0 {
		offset = yamlast.NewLineIndex(text).OffsetFor(yamlast.Position{
			Line:      opts.line - 1,
			Character: opts.column - 1,
		})
	}

	doc := engine.Document{URI: schemastore.FileURI(path), Text: text}
	items := sess.Engine.Complete(cmd.Context(), doc, offset)
	if len(items) == 0 {
		fmt.Println("no completions")
		return nil
	}
	for _, it := range items {
		line := it.Label
		if it.Documentation != "" {
			line += "  " + firstLine(it.Documentation)
		}
		fmt.Println(line)
		if opts.showInsert {
			fmt.Printf("  %q\n", it.InsertText)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
