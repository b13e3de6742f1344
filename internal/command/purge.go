// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/meta"
)

// PurgeCommandAction removes entries older than --hours. Fresh entries are
// never touched, so purging only costs recomputation.
func PurgeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	fs, err := FileStore(ctx, cmd, m)
	if err != nil {
		return err
	}

	hours := cmd.Int("hours")
	if hours <= 0 {
		fmt.Fprintln(Stdout(m), "cache cleaning disabled, set --hours or cache.clean")
		return nil
	}

	res, err := fs.Purge(hours)
	if err != nil {
		return err
	}

	fmt.Fprintf(Stdout(m), "removed %s entries, freed %s\n",
		humanize.Comma(int64(res.Removed)), humanize.Bytes(uint64(res.Freed)))
	return nil
}

// PurgeCommandBuilder constructs the cli.Command definition for "purge".
func PurgeCommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "purge",
		Usage:     "remove cache entries older than --hours",
		UsageText: `covcache purge --hours N [options]`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "hours",
				Usage: "age in hours beyond which entries are removed; 0 disables",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("COVCACHE_CACHE_CLEAN"),
					yaml.YAML("cache.clean", altsrc.StringSourcer(meta.Config.Source)),
				),
			},
		},
		Action: PurgeCommandAction,
		Meta:   meta,
	}).Build()
}
