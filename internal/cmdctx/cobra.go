// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package cmdctx

import (
	"errors"

	"github.com/spf13/cobra"
)

// FromCommand extracts the Session from a cobra.Command's context.
// Returns nil if no Session is stored.
func FromCommand(cmd *cobra.Command) *Session {
	return From(cmd.Context())
}

// RequireFromCommand extracts the Session from a cobra.Command's context,
// returning an error if not found.
func RequireFromCommand(cmd *cobra.Command) (*Session, error) {
	s := FromCommand(cmd)
	if s == nil {
		return nil, errors.New("session not loaded")
	}
	return s, nil
}

// PreRunLoad is a PersistentPreRunE function that loads the session and
// stores it in the command's context.
func PreRunLoad(cmd *cobra.Command, _ []string) error {
	ctx, err := Load(cmd.Context())
	if err != nil {
		return err
	}
	cmd.SetContext(ctx)
	return nil
}
