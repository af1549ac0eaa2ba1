// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/cmdctx"
	"github.com/yamlkit/yamlkit/internal/engine"
	"github.com/yamlkit/yamlkit/internal/prompts"
	"github.com/yamlkit/yamlkit/internal/schemastore"
	"github.com/yamlkit/yamlkit/internal/validation"
)

type validateOptions struct {
	schema string
}

func registerValidateCmd(parent *cobra.Command) {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate YAML files against their associated schemas",
		Long: `Validate YAML files against their associated schemas.

Schemas are resolved per file: an in-document modeline comment wins,
then the glob associations from yamlkit.yaml. The --schema flag
overrides both.`,
		Example: `  # Validate using configured associations
  yamlkit validate deploy.yaml

  # Validate against an explicit schema
  yamlkit validate --schema ./schemas/deployment.json deploy.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.schema, "schema", "", "Schema URI overriding associations")

	parent.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string, opts *validateOptions) error {
	sess, err := cmdctx.RequireFromCommand(cmd)
	if err != nil {
		return err
	}
	if opts.schema != "" {
		sess.Engine.Store().SetResolver(func(string) []string {
			return []string{opts.schema}
		})
	}

	failures := 0
	for _, path := range args {
		data, err := os.ReadFile(path) //nolint:gosec // path is a CLI argument
		if err != nil {
			return err
		}
		doc := engine.Document{URI: schemastore.FileURI(path), Text: string(data)}
		diags := sess.Engine.Validate(cmd.Context(), doc)
		prompts.PrintDiagnostics(path, diags)
		for _, d := range diags {
			if d.Severity == validation.SeverityError {
				failures++
			}
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d validation error(s)", failures)
	}
	return nil
}
