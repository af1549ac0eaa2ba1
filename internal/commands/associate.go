// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/cmdctx"
	"github.com/yamlkit/yamlkit/internal/prompts"
)

type associateOptions struct {
	pattern string
	schemas string
}

func registerAssociateCmd(parent *cobra.Command) {
	opts := &associateOptions{}

	cmd := &cobra.Command{
		Use:   "associate",
		Short: "Register a file-match glob for one or more schemas",
		Long: `Register a file-match glob for one or more schemas and persist it
to yamlkit.yaml. Files matching the pattern are validated and completed
against the given schema URIs.`,
		Example: `  # Interactive mode
  yamlkit associate

  # Non-interactive
  yamlkit associate --pattern "**/deployment*.yaml" --schema ./schemas/deployment.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssociate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "File match glob")
	cmd.Flags().StringVarP(&opts.schemas, "schema", "s", "", "Schema URI(s), comma-separated")

	parent.AddCommand(cmd)
}

func runAssociate(cmd *cobra.Command, opts *associateOptions) error {
	sess, err := cmdctx.RequireFromCommand(cmd)
	if err != nil {
		return err
	}

	if opts.pattern == "" || opts.schemas == "" {
		if err := prompts.RunAssociateForm(&opts.pattern, &opts.schemas); err != nil {
			return err
		}
	}

	var uris []string
	for _, u := range strings.Split(opts.schemas, ",") {
		if u = strings.TrimSpace(u); u != "" {
			uris = append(uris, u)
		}
	}
	if err := sess.Engine.Store().AddAssociation(opts.pattern, uris...); err != nil {
		return err
	}

	if sess.Settings.Schemas == nil {
		sess.Settings.Schemas = map[string][]string{}
	}
	sess.Settings.Schemas[opts.pattern] = uris
	if err := sess.Settings.Save(sess.SettingsPath); err != nil {
		return err
	}

	prompts.PrintResult([]prompts.ResultField{
		{Label: "Pattern", Value: opts.pattern},
		{Label: "Schemas", Value: strings.Join(uris, ", ")},
	}, "Association saved to "+sess.SettingsPath)
	return nil
}
