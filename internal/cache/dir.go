// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"path/filepath"
)

// Dir resolves the default cache directory.
// Precedence:
//  1. COVCACHE_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/covcache
//
// Returns ("", false) if no directory can be resolved (treat as disabled).
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("COVCACHE_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "covcache"), true
	}
	return "", false
}

// Enabled returns true unless COVCACHE_CACHE explicitly disables it
// ("0"/"false").
func Enabled() bool {
	enabled, _ := os.LookupEnv("COVCACHE_CACHE")
	return enabled == "" || (enabled != "0" && enabled != "false")
}
