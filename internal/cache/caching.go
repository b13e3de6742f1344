// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"os"
	"sync/atomic"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/covcache/internal/analysis"
)

// CachingAnalyser decorates an analysis.Analyser with a persistent cache.
// It is safe for concurrent use; concurrent misses for the same key within a
// process share one computation.
//
// A call returning a *PersistError also returns a valid result: the analysis
// succeeded but the result could not be stored. Errors from the wrapped
// analyser are returned unchanged and are never cached.
type CachingAnalyser struct {
	store    Store
	analyser analysis.Analyser
	group    singleflight.Group

	hits       atomic.Int64
	misses     atomic.Int64
	unreadable atomic.Int64
}

var _ analysis.Analyser = (*CachingAnalyser)(nil)

// Counters is a snapshot of cache activity since construction.
type Counters struct {
	Hits   int64
	Misses int64
	// Unreadable counts entries that were present and fresh but could not be
	// read or decoded.
	Unreadable int64
}

// New wraps analyser with a cache kept in store.
func New(store Store, analyser analysis.Analyser) *CachingAnalyser {
	return &CachingAnalyser{store: store, analyser: analyser}
}

// Counters returns the current counters.
func (c *CachingAnalyser) Counters() Counters {
	return Counters{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Unreadable: c.unreadable.Load(),
	}
}

func (c *CachingAnalyser) ClassesIn(filename string) (analysis.Classes, error) {
	return lookup(c, analysis.OpClasses, filename, c.analyser.ClassesIn)
}

func (c *CachingAnalyser) TraitsIn(filename string) (analysis.Traits, error) {
	return lookup(c, analysis.OpTraits, filename, c.analyser.TraitsIn)
}

func (c *CachingAnalyser) FunctionsIn(filename string) (analysis.Functions, error) {
	return lookup(c, analysis.OpFunctions, filename, c.analyser.FunctionsIn)
}

func (c *CachingAnalyser) LinesOfCodeFor(filename string) (analysis.LinesOfCode, error) {
	return lookup(c, analysis.OpLinesOfCode, filename, c.analyser.LinesOfCodeFor)
}

func (c *CachingAnalyser) IgnoredLinesFor(filename string) (analysis.IgnoredLines, error) {
	return lookup(c, analysis.OpIgnoredLines, filename, c.analyser.IgnoredLinesFor)
}

// lookup serves op for filename from the cache, or computes, stores and
// returns it.
func lookup[T analysis.Result](
	c *CachingAnalyser,
	op analysis.Operation,
	filename string,
	compute func(string) (T, error),
) (T, error) {
	var zero T

	key := KeyFor(filename, op)
	entry := log.WithFields(log.Fields{"op": op, "file": filename, "key": key})

	fresh, err := c.valid(key, filename)
	if err != nil {
		return zero, err
	}

	if fresh {
		r, err := c.read(key, op)
		if err == nil {
			if v, ok := r.(T); ok {
				c.hits.Add(1)
				entry.Debug("cache hit")
				return v, nil
			}
		}
		c.unreadable.Add(1)
		entry.WithError(err).Warn("unreadable cache entry, recomputing")
	}

	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		result, err := compute(filename)
		if err != nil {
			return nil, err
		}
		c.misses.Add(1)
		entry.Debug("cache miss")
		return result, c.write(key, result)
	})
	if shared {
		entry.Debug("shared in-flight computation")
	}

	result, ok := v.(T)
	if !ok {
		return zero, err
	}
	return result, err
}

// valid reports whether a usable entry exists for key. An entry is fresh
// unless it is strictly older than the source file.
func (c *CachingAnalyser) valid(key Key, filename string) (bool, error) {
	src, err := os.Stat(filename)
	if err != nil {
		return false, &FileSystemError{Op: "stat", Path: filename, Err: err}
	}

	written, ok, err := c.store.ModTime(key)
	if err != nil {
		log.WithError(err).Warnf("cannot stat cache entry %s", key)
		return false, nil
	}
	if !ok {
		return false, nil
	}

	return !written.Before(src.ModTime()), nil
}

func (c *CachingAnalyser) read(key Key, op analysis.Operation) (analysis.Result, error) {
	blob, err := c.store.Read(key)
	if err != nil {
		return nil, err
	}
	return Decode(key, blob, op)
}

func (c *CachingAnalyser) write(key Key, r analysis.Result) error {
	blob, err := Encode(r)
	if err != nil {
		return &PersistError{Key: key, Err: err}
	}
	if err := c.store.Write(key, blob); err != nil {
		return &PersistError{Key: key, Err: err}
	}
	return nil
}
