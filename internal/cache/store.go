// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
)

// Store persists entry blobs in a single flat namespace addressed by Key.
// The time of the last successful Write is the entry's only freshness marker.
type Store interface {
	// ModTime returns when the entry was last written. ok is false when no
	// entry exists.
	ModTime(key Key) (t time.Time, ok bool, err error)
	// Read returns the entry blob.
	Read(key Key) ([]byte, error)
	// Write replaces the entry blob.
	Write(key Key, data []byte) error
}

// FileStore keeps one file per entry directly inside a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, &FileSystemError{Op: "mkdir", Path: dir, Err: err}
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory holding the entries.
func (s *FileStore) Dir() string { return s.dir }

// Path returns where the entry for key lives.
func (s *FileStore) Path(key Key) string {
	return filepath.Join(s.dir, key.String())
}

func (s *FileStore) ModTime(key Key) (time.Time, bool, error) {
	info, err := os.Stat(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, &FileSystemError{Op: "stat", Path: s.Path(key), Err: err}
	}
	return info.ModTime(), true, nil
}

func (s *FileStore) Read(key Key) ([]byte, error) {
	b, err := os.ReadFile(s.Path(key))
	if err != nil {
		return nil, &FileSystemError{Op: "read", Path: s.Path(key), Err: err}
	}
	return b, nil
}

// Write stores data in a temp file next to the entry and renames it into
// place, so readers see either the old entry or the new one.
func (s *FileStore) Write(key Key, data []byte) error {
	p := s.Path(key)

	tmp, err := os.CreateTemp(s.dir, "."+key.String()+".tmp-*")
	if err != nil {
		return &FileSystemError{Op: "write", Path: p, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &FileSystemError{Op: "write", Path: p, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &FileSystemError{Op: "write", Path: p, Err: err}
	}
	if err := os.Rename(tmpPath, p); err != nil {
		_ = os.Remove(tmpPath)
		return &FileSystemError{Op: "rename", Path: p, Err: fmt.Errorf("failed to replace entry: %w", err)}
	}

	log.Debugf("wrote cache entry %s (%d bytes)", p, len(data))
	return nil
}
