// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output flattens analysis results into rows and renders them as a
// text table, JSON or YAML, with optional sorting and filtering.
package output
