// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"sort"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/config"
	"github.com/staranto/covcache/internal/meta"
)

// InitApp loads the config file and builds the command tree. A missing config
// file is not an error; flags then fall back to env vars and defaults.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Debug("no config loaded")
	}

	return NewApp(meta.Meta{
		Args:    args,
		Config:  cfg,
		Context: ctx,
	}), nil
}

// NewApp builds the command tree around m. Tests use it to inject an
// analyser, a store or an output writer.
func NewApp(m meta.Meta) *cli.Command {
	app := &cli.Command{
		Name:  "covcache",
		Usage: "cached structural analysis of source files for coverage reporting",
	}
	if m.Stdout != nil {
		app.Writer = m.Stdout
	}

	app.Commands = append(app.Commands,
		AnalyseCommandBuilder(m),
		StatsCommandBuilder(m),
		PurgeCommandBuilder(m),
		CompletionCommandBuilder(m),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app
}
