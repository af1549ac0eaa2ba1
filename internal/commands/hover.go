// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/cmdctx"
	"github.com/yamlkit/yamlkit/internal/engine"
	"github.com/yamlkit/yamlkit/internal/schemastore"
	"github.com/yamlkit/yamlkit/internal/yamlast"
)

type hoverOptions struct {
	line   int
	column int
	offset int
}

func registerHoverCmd(parent *cobra.Command) {
	opts := &hoverOptions{offset: -1}

	cmd := &cobra.Command{
		Use:   "hover <file>",
		Short: "Show schema documentation for a position in a YAML file",
		Example: `  # Documentation for the token at line 2, column 3
  yamlkit hover deploy.yaml --line 2 --column 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHover(cmd, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.line, "line", 1, "Cursor line (1-based)")
	cmd.Flags().IntVar(&opts.column, "column", 1, "Cursor column (1-based)")
	cmd.Flags().IntVar(&opts.offset, "offset", -1, "Cursor byte offset (overrides line/column)")

	parent.AddCommand(cmd)
}

func runHover(cmd *cobra.Command, path string, opts *hoverOptions) error {
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
	res := sess.Engine.Hover(cmd.Context(), doc, offset)
	if res == nil {
		fmt.Println("no documentation")
		return nil
	}
	fmt.Println(res.Content)
	return nil
}
