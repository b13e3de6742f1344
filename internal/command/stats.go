// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/meta"
	"github.com/staranto/covcache/internal/output"
)

// StatsCommandAction reports the number, size and age of cache entries.
func StatsCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	fs, err := FileStore(ctx, cmd, m)
	if err != nil {
		return err
	}

	stats, err := fs.Stats()
	if err != nil {
		return err
	}
	log.Debugf("stats for %s: %d entries", stats.Dir, stats.Entries)

	return output.EmitStats(Stdout(m), stats, OutputOptions(cmd, m))
}

// StatsCommandBuilder constructs the cli.Command definition for "stats".
func StatsCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "stats",
		Usage:     "show cache entry count, size and age",
		UsageText: `covcache stats [options]`,
		Action:    StatsCommandAction,
		Meta:      meta,
	}).Build()
}
