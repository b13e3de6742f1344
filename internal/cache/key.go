// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/staranto/covcache/internal/analysis"
)

// Key addresses one cache entry. It is the hex encoded SHA-256 of the file
// path followed by the operation identifier.
type Key string

// KeyFor derives the key for filename and op.
func KeyFor(filename string, op analysis.Operation) Key {
	h := sha256.New()
	_, _ = h.Write([]byte(filename + string(op)))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

func (k Key) String() string { return string(k) }

// isKey reports whether name looks like a key. Anything else in the cache
// directory, such as an in-flight temp file, is not an entry.
func isKey(name string) bool {
	if len(name) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}
