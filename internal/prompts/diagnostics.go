// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yamlkit Authors

package prompts

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/yamlkit/yamlkit/internal/validation"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e74c3c"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9ca24"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#27ca3f"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#bababa"))
)

// PrintDiagnostics renders one file's diagnostics, one line each, with
// 1-based line:column locations.
func PrintDiagnostics(path string, diags []validation.Diagnostic) {
	if len(diags) == 0 {
		fmt.Printf("%s %s\n", okStyle.Render("✓"), path)
		return
	}
	fmt.Println(dimStyle.Render(path))
	for _, d := range diags {
		sev := warningStyle.Render(d.Severity.String())
		if d.Severity == validation.SeverityError {
			sev = errorStyle.Render(d.Severity.String())
		}
		fmt.Printf("  %d:%d %s %s\n", d.StartPos.Line+1, d.StartPos.Character+1, sev, d.Message)
	}
}
