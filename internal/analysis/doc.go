// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package analysis defines the per-file static analysis contract: the five
// operations, the result shape each one returns, and the Analyser interface
// that concrete analysers and the caching decorator both satisfy.
package analysis
