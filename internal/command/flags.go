// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/cache"
)

// NewGlobalFlags returns the flags shared by every subcommand. ns is the
// subcommand name and is used to look up namespaced config keys first, so
// "analyse.output" wins over "output". cfgSource is the config file path.
func NewGlobalFlags(ns string, cfgSource string) (flags []cli.Flag) {
	src := altsrc.StringSourcer(cfgSource)
	defaultDir, _ := cache.Dir()

	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "cache-dir",
			Aliases: []string{"d"},
			Usage:   "directory holding cache entries",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("COVCACHE_CACHE_DIR"),
				yaml.YAML("cache.dir", src),
			),
			Value: defaultDir,
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "cache store, file or s3",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("COVCACHE_STORE"),
				yaml.YAML("cache.store", src),
			),
			Value: "file",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, StoreValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:  "cache",
			Usage: "use the persistent cache (--no-cache analyses every file afresh)",
			Value: cache.Enabled(),
		},
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output (default: on for terminals)",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"color", src),
				yaml.YAML("color", src),
			),
		},
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to text results",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", src),
				yaml.YAML("output", src),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.IntFlag{
			Name:  "padding",
			Usage: "extra space between text columns",
			Sources: cli.NewValueSourceChain(
				yaml.YAML("padding", src),
			),
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of columns to sort text results by",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"sort", src),
			),
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", src),
				yaml.YAML("titles", src),
			),
			Value: true,
		},
	}

	return append(flags, NewS3Flags(cfgSource)...)
}

// NewS3Flags returns the flags used when --store=s3.
func NewS3Flags(cfgSource string) []cli.Flag {
	var flags []cli.Flag
	for _, f := range []struct{ name, usage string }{
		{"bucket", "S3 bucket for cache entries"},
		{"prefix", "key prefix within the bucket"},
		{"region", "AWS region. Defaults to the shell's AWS config"},
		{"profile", "AWS shared config profile"},
		{"endpoint", "S3 compatible endpoint URL"},
	} {
		flag := &cli.StringFlag{
			Name:     "s3-" + f.name,
			Usage:    f.usage,
			Category: "s3",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("COVCACHE_S3_" + strings.ToUpper(f.name)),
			),
		}
		flags = append(flags, ValueChainFlagFromConfigFile("s3."+f.name, cfgSource, flag))
	}
	return flags
}

// ValueChainFlagFromConfigFile adds the config file key to the end of the
// flag's Sources chain.
func ValueChainFlagFromConfigFile(key string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(key, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)
	return flag
}
