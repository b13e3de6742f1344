// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
)

// Stats summarizes the entries of a FileStore.
type Stats struct {
	Dir       string
	Entries   int
	TotalSize int64
	Oldest    time.Time
	Newest    time.Time
}

// PurgeResult reports what Purge removed.
type PurgeResult struct {
	Removed int
	Freed   int64
}

// Stats walks the store directory and the partition directories below it.
// Files that are not entries are skipped.
func (s *FileStore) Stats() (Stats, error) {
	stats := Stats{Dir: s.dir}

	err := s.walk(func(_ string, info fs.FileInfo) {
		if !isKey(info.Name()) {
			return
		}
		stats.Entries++
		stats.TotalSize += info.Size()
		if stats.Oldest.IsZero() || info.ModTime().Before(stats.Oldest) {
			stats.Oldest = info.ModTime()
		}
		if info.ModTime().After(stats.Newest) {
			stats.Newest = info.ModTime()
		}
	})

	return stats, err
}

// Purge removes entries, and abandoned temp files, older than the provided
// number of hours, in the store directory and any partition below it. If
// hours <= 0 it is a no-op. This is a maintenance operation; CachingAnalyser
// never deletes entries.
func (s *FileStore) Purge(hours int) (PurgeResult, error) {
	var result PurgeResult

	if hours <= 0 {
		log.Debug("cache cleaning disabled")
		return result, nil
	}
	maxAge := time.Duration(hours) * time.Hour

	err := s.walk(func(path string, info fs.FileInfo) {
		name := info.Name()
		if !(isKey(name) || strings.Contains(name, ".tmp-")) {
			return
		}
		if time.Since(info.ModTime()) <= maxAge {
			return
		}
		if err := os.Remove(path); err != nil {
			log.WithError(err).Warnf("failed to remove cache file %s", path)
			return
		}
		log.Debugf("removed cache file %s", path)
		result.Removed++
		result.Freed += info.Size()
	})
	if err != nil {
		return result, fmt.Errorf("failed to purge cache: %w", err)
	}

	return result, nil
}

// walk calls fn for every regular file under the store directory. Only a
// failure to list the store directory itself is returned.
func (s *FileStore) walk(fn func(path string, info fs.FileInfo)) error {
	return filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.dir {
				return &FileSystemError{Op: "list", Path: s.dir, Err: err}
			}
			log.WithError(err).Warnf("skipping %s", path)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// Removed between listing and Info.
			return nil
		}
		fn(path, info)
		return nil
	})
}
