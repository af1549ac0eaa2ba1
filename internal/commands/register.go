// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

// Package commands contains all CLI command definitions.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/yamlkit/yamlkit/internal/cmdctx"
)

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "yamlkit",
		Short:             "Schema-aware YAML validation, completion and documentation",
		Version:           "0.1.0",
		PersistentPreRunE: cmdctx.PreRunLoad,
	}

	registerValidateCmd(rootCmd)
	registerCompleteCmd(rootCmd)
	registerHoverCmd(rootCmd)
	registerAssociateCmd(rootCmd)

	return rootCmd
}
