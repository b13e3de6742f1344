// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"
	"io"

	"github.com/staranto/covcache/internal/analysis"
	"github.com/staranto/covcache/internal/cache"
	"github.com/staranto/covcache/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
// Analyser and Store are optional: when nil, commands build them from flags.
type Meta struct {
	Args     []string
	Config   config.Type
	Context  context.Context
	Analyser analysis.Analyser
	Store    cache.Store
	Stdout   io.Writer
}
