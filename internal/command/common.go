// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/analysis"
	"github.com/staranto/covcache/internal/analysis/goparse"
	"github.com/staranto/covcache/internal/aws"
	"github.com/staranto/covcache/internal/cache"
	"github.com/staranto/covcache/internal/cache/s3store"
	"github.com/staranto/covcache/internal/meta"
	"github.com/staranto/covcache/internal/output"
)

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// Stdout returns where command results go.
func Stdout(m meta.Meta) io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// CommandBuilder constructs a cli.Command for a subcommand using a consistent
// pattern: metadata wiring, global flags and the global validator.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags: append(cb.Flags, NewGlobalFlags(cb.Name, cb.Meta.Config.Source)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: cb.Action,
	}
}

// BuildStore returns the injected store or builds one from --store. A
// non-empty partition selects a subdirectory, or prefix, of the configured
// location.
func BuildStore(ctx context.Context, cmd *cli.Command, m meta.Meta, partition string) (cache.Store, error) {
	if m.Store != nil {
		return m.Store, nil
	}

	switch cmd.String("store") {
	case "s3":
		cfg, err := aws.LoadAWSConfig(ctx,
			aws.WithProfile(cmd.String("s3-profile")),
			aws.WithRegion(cmd.String("s3-region")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := aws.NewS3(cfg, aws.WithEndpoint(cmd.String("s3-endpoint")))
		prefix := path.Join(cmd.String("s3-prefix"), partition)
		log.Debugf("s3 store: bucket=%s prefix=%s", cmd.String("s3-bucket"), prefix)
		return s3store.New(client, cmd.String("s3-bucket"), s3store.WithPrefix(prefix))
	default:
		dir := cmd.String("cache-dir")
		if dir != "" {
			dir = filepath.Join(dir, partition)
		}
		return cache.NewFileStore(dir)
	}
}

// Partition names the store partition for an analyser configuration. Results
// computed with different analyser flags never share entries.
func Partition(annotations, deprecated bool) string {
	return fmt.Sprintf("a%d-d%d", btoi(annotations), btoi(deprecated))
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FileStore returns the file store rooted at --cache-dir for maintenance
// commands, which cover every partition below it. Remote stores are managed
// with the provider's own tooling.
func FileStore(ctx context.Context, cmd *cli.Command, m meta.Meta) (*cache.FileStore, error) {
	store, err := BuildStore(ctx, cmd, m, "")
	if err != nil {
		return nil, err
	}
	fs, ok := store.(*cache.FileStore)
	if !ok {
		return nil, fmt.Errorf("%s is only supported for the file store", cmd.Name)
	}
	return fs, nil
}

// BuildAnalyser returns the analyser commands run. Unless --no-cache is given
// the underlying analyser is wrapped in a cache.CachingAnalyser, which is also
// returned so callers can report its counters.
func BuildAnalyser(ctx context.Context, cmd *cli.Command, m meta.Meta) (analysis.Analyser, *cache.CachingAnalyser, error) {
	annotations, deprecated := cmd.Bool("annotations"), cmd.Bool("deprecated")
	var inner analysis.Analyser = goparse.New(annotations, deprecated)
	if m.Analyser != nil {
		inner = m.Analyser
	}

	if !cmd.Bool("cache") {
		log.Debug("cache disabled")
		return inner, nil, nil
	}

	store, err := BuildStore(ctx, cmd, m, Partition(annotations, deprecated))
	if err != nil {
		return nil, nil, err
	}
	c := cache.New(store, inner)
	return c, c, nil
}

// OutputOptions gathers the rendering flags. Color defaults to on only when
// results go to a terminal.
func OutputOptions(cmd *cli.Command, m meta.Meta) output.Options {
	color := output.IsTerminal(Stdout(m))
	if cmd.IsSet("color") {
		color = cmd.Bool("color")
	}

	return output.Options{
		Format:  cmd.String("output"),
		Color:   color,
		Titles:  cmd.Bool("titles"),
		Sort:    cmd.String("sort"),
		Filter:  cmd.String("filter"),
		Padding: cmd.Int("padding"),
		Colors:  output.ColorsFrom(m.Config),
	}
}
