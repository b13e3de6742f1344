// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/covcache/internal/analysis"
)

// GlobalFlagsValidator checks combinations that single flag validators can't.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.String("store") == "s3" && c.String("s3-bucket") == "" {
		return errors.New("--store=s3 requires --s3-bucket")
	}
	if c.String("store") == "file" && c.Bool("cache") && c.String("cache-dir") == "" {
		return errors.New("no cache directory could be resolved, set --cache-dir")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	return oneOf(value, "text", "json", "yaml")
}

func StoreValidator(value any) error {
	return oneOf(value, "file", "s3")
}

// OpsValidator accepts a comma-separated list of operation names.
func OpsValidator(value any) error {
	_, err := parseOps(value.(string))
	return err
}

func oneOf(value any, valid ...string) error {
	s, _ := value.(string)
	if !slices.Contains(valid, s) {
		return fmt.Errorf("must be one of %v", valid)
	}
	return nil
}

// parseOps turns "classes,loc" into operations, keeping the order given and
// dropping duplicates. An empty spec selects every operation.
func parseOps(spec string) ([]analysis.Operation, error) {
	if strings.TrimSpace(spec) == "" {
		return analysis.Operations, nil
	}

	var ops []analysis.Operation
	for _, s := range strings.Split(spec, ",") {
		op, err := analysis.ParseOperation(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ops, op) {
			ops = append(ops, op)
		}
	}
	return ops, nil
}
