// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui holds the small set of terminal-presentation helpers shared
// by cairolens's CLI subcommands: color initialization and progress bars
// keyed to the run's current phase.
package ui

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// InitColors disables ANSI color globally when noColor is set, the
// NO_COLOR environment variable is present, or stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Warnf prints a yellow-highlighted warning line to stderr.
func Warnf(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// Errorf prints a red-highlighted error line to stderr.
func Errorf(format string, args ...any) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: "+format+"\n", args...)
}

// Successf prints a green-highlighted line to stderr, used for a run's
// final summary line.
func Successf(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(os.Stderr, format+"\n", args...)
}

// ProgressConfig controls whether and how a progress bar is shown.
type ProgressConfig struct {
	Quiet bool
}

// NewProgressBar returns a progress bar for total items described by
// description, or nil when quiet mode suppresses progress entirely.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if cfg.Quiet {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
