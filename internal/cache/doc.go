// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cache memoizes per-file analysis results on disk. CachingAnalyser
// wraps an analysis.Analyser and serves a stored result for as long as the
// source file has not been modified since the result was written.
//
// Entries live in one flat namespace and are named by the hex SHA-256 of the
// file path concatenated with the operation identifier. Paths are used as
// given: "a/../b.go" and "b.go" are different keys. Freshness is judged on
// modification times alone, so a file rewritten within the filesystem's
// timestamp resolution of a cache write can be served stale.
package cache
