// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import "fmt"

// FileSystemError reports a failed filesystem or store operation.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// DecodeError reports an entry that is empty, truncated, from another format
// version or holding a different result shape than the one requested.
type DecodeError struct {
	Key    Key
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache entry %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("cache entry %s: %s", e.Key, e.Reason)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PersistError reports that a freshly computed result could not be stored.
// The result itself is still valid.
type PersistError struct {
	Key Key
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist cache entry %s: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
