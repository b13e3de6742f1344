// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"runtime"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/staranto/covcache/internal/analysis"
	"github.com/staranto/covcache/internal/cache"
	"github.com/staranto/covcache/internal/meta"
	"github.com/staranto/covcache/internal/output"
)

// AnalyseCommandAction runs the selected operations for every FILE argument
// and emits the results in argument order. A file that fails to analyse does
// not stop the others; all failures are returned together.
func AnalyseCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)

	files := cmd.Args().Slice()
	if len(files) == 0 {
		return errors.New("at least one FILE is required")
	}

	ops, err := parseOps(cmd.String("op"))
	if err != nil {
		return err
	}

	a, cached, err := BuildAnalyser(ctx, cmd, m)
	if err != nil {
		return err
	}

	reports, err := analyseFiles(ctx, a, files, ops, cmd.Int("jobs"))

	if cached != nil {
		c := cached.Counters()
		log.WithFields(log.Fields{
			"hits":       c.Hits,
			"misses":     c.Misses,
			"unreadable": c.Unreadable,
		}).Debug("cache counters")
	}

	if emitErr := output.Emit(Stdout(m), reports, OutputOptions(cmd, m)); emitErr != nil {
		return errors.Join(err, emitErr)
	}
	return err
}

// analyseFiles fans files out over at most jobs workers. Persist failures are
// logged and the result kept; any other error drops that report.
func analyseFiles(ctx context.Context, a analysis.Analyser, files []string, ops []analysis.Operation, jobs int) ([]output.Report, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	slots := make([][]output.Report, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			for _, op := range ops {
				if err := gctx.Err(); err != nil {
					return err
				}

				r, err := analysis.Run(a, op, file)
				var pErr *cache.PersistError
				switch {
				case errors.As(err, &pErr):
					log.WithError(err).Warnf("result for %s not cached", file)
				case err != nil:
					errs[i] = errors.Join(errs[i], err)
					continue
				}

				slots[i] = append(slots[i], output.Report{File: file, Operation: op, Result: r})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reports []output.Report
	for _, s := range slots {
		reports = append(reports, s...)
	}
	return reports, errors.Join(errs...)
}

// AnalyseCommandBuilder constructs the cli.Command definition for "analyse".
func AnalyseCommandBuilder(meta meta.Meta) *cli.Command {
	src := altsrc.StringSourcer(meta.Config.Source)

	return (&CommandBuilder{
		Name:      "analyse",
		Usage:     "report classes, traits, functions, line counts and ignored lines",
		UsageText: `covcache analyse [options] FILE...`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "op",
				Usage: "comma-separated operations: classes,traits,functions,loc,ignored (default: all)",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("analyse.op", src),
				),
				Validator: func(value string) error {
					return FlagValidators(value, JammedFlagValidator, OpsValidator)
				},
			},
			&cli.BoolWithInverseFlag{
				Name:  "annotations",
				Usage: "honor //coverage:ignore annotations",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("analyse.annotations", src),
				),
				Value: true,
			},
			&cli.BoolWithInverseFlag{
				Name:  "deprecated",
				Usage: "ignore declarations marked Deprecated",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("analyse.deprecated", src),
				),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "files analysed in parallel (default: number of CPUs)",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("COVCACHE_JOBS"),
				),
			},
		},
		Action: AnalyseCommandAction,
		Meta:   meta,
	}).Build()
}
