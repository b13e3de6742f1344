// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/covcache/internal/analysis"
	"github.com/staranto/covcache/internal/analysis/goparse"
)

func TestCachingAnalyser_HitStability(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	inner := newCountingAnalyser()
	c := New(newTestStore(t), inner)

	first, err := c.ClassesIn(src)
	require.NoError(t, err)
	second, err := c.ClassesIn(src)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.count(analysis.OpClasses))
	assert.Equal(t, Counters{Hits: 1, Misses: 1}, c.Counters())
}

func TestCachingAnalyser_AllOperationsHit(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	inner := newCountingAnalyser()
	c := New(newTestStore(t), inner)

	for i := 0; i < 2; i++ {
		classes, err := c.ClassesIn(src)
		require.NoError(t, err)
		assert.Contains(t, classes, "A")

		traits, err := c.TraitsIn(src)
		require.NoError(t, err)
		assert.Contains(t, traits, "T")

		functions, err := c.FunctionsIn(src)
		require.NoError(t, err)
		assert.Equal(t, "func f()", functions["f"].Signature)

		loc, err := c.LinesOfCodeFor(src)
		require.NoError(t, err)
		assert.Equal(t, 10, loc.LinesOfCode)

		ignored, err := c.IgnoredLinesFor(src)
		require.NoError(t, err)
		assert.Equal(t, analysis.IgnoredLines{4, 5}, ignored)
	}

	for _, op := range analysis.Operations {
		assert.Equal(t, 1, inner.count(op), "operation %s", op)
	}
}

func TestCachingAnalyser_InvalidationOnChange(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	_, err := c.ClassesIn(src)
	require.NoError(t, err)
	written, _, err := store.ModTime(KeyFor(src, analysis.OpClasses))
	require.NoError(t, err)

	touch(t, src)
	inner.mu.Lock()
	inner.classes = analysis.Classes{"A": {Name: "A"}, "B": {Name: "B"}}
	inner.mu.Unlock()

	got, err := c.ClassesIn(src)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, inner.count(analysis.OpClasses))

	rewritten, _, err := store.ModTime(KeyFor(src, analysis.OpClasses))
	require.NoError(t, err)
	assert.False(t, rewritten.Before(written))

	blob, err := store.Read(KeyFor(src, analysis.OpClasses))
	require.NoError(t, err)
	stored, err := Decode("", blob, analysis.OpClasses)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestCachingAnalyser_EqualModTimeIsFresh(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	_, err := c.TraitsIn(src)
	require.NoError(t, err)

	// Entry and source share the same timestamp.
	same := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(src, same, same))
	require.NoError(t, os.Chtimes(store.Path(KeyFor(src, analysis.OpTraits)), same, same))

	_, err = c.TraitsIn(src)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.count(analysis.OpTraits))

	// Any amount older than the source is stale.
	require.NoError(t, os.Chtimes(store.Path(KeyFor(src, analysis.OpTraits)), same, same.Add(-time.Microsecond)))
	_, err = c.TraitsIn(src)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.count(analysis.OpTraits))
}

func TestCachingAnalyser_KeyIndependence(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	_, err := c.ClassesIn(src)
	require.NoError(t, err)
	_, err = c.TraitsIn(src)
	require.NoError(t, err)

	traitsKey := KeyFor(src, analysis.OpTraits)
	before, err := store.Read(traitsKey)
	require.NoError(t, err)

	// Make only the classes entry stale and recompute it.
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path(KeyFor(src, analysis.OpClasses)), old, old))
	_, err = c.ClassesIn(src)
	require.NoError(t, err)
	_, err = c.TraitsIn(src)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.count(analysis.OpClasses))
	assert.Equal(t, 1, inner.count(analysis.OpTraits))

	after, err := store.Read(traitsKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCachingAnalyser_PathDiscrimination(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.go", "package a\n")
	b := writeSource(t, dir, "b.go", "package b\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	_, err := c.LinesOfCodeFor(a)
	require.NoError(t, err)
	_, err = c.LinesOfCodeFor(b)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.count(analysis.OpLinesOfCode))
	assert.NotEqual(t, KeyFor(a, analysis.OpLinesOfCode), KeyFor(b, analysis.OpLinesOfCode))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
}

func TestCachingAnalyser_FailureIsolation(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	boom := &analysis.AnalysisError{Op: analysis.OpFunctions, Filename: src, Err: errors.New("parse failure")}
	inner.err = boom
	c := New(store, inner)

	_, err := c.FunctionsIn(src)
	assert.Same(t, boom, err)

	_, ok, err := store.ModTime(KeyFor(src, analysis.OpFunctions))
	require.NoError(t, err)
	assert.False(t, ok, "a failed computation must not be cached")

	// The failure is not remembered either.
	inner.mu.Lock()
	inner.err = nil
	inner.mu.Unlock()
	functions, err := c.FunctionsIn(src)
	require.NoError(t, err)
	assert.Contains(t, functions, "f")
	assert.Equal(t, 2, inner.count(analysis.OpFunctions))
}

func TestCachingAnalyser_FailureKeepsPreviousEntry(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	_, err := c.IgnoredLinesFor(src)
	require.NoError(t, err)
	key := KeyFor(src, analysis.OpIgnoredLines)
	before, err := store.Read(key)
	require.NoError(t, err)

	touch(t, src)
	inner.mu.Lock()
	inner.err = errors.New("boom")
	inner.mu.Unlock()

	_, err = c.IgnoredLinesFor(src)
	assert.EqualError(t, err, "boom")

	after, err := store.Read(key)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCachingAnalyser_MissingSource(t *testing.T) {
	inner := newCountingAnalyser()
	c := New(newTestStore(t), inner)

	_, err := c.ClassesIn(filepath.Join(t.TempDir(), "gone.go"))
	var fsErr *FileSystemError
	require.True(t, errors.As(err, &fsErr))
	assert.Equal(t, "stat", fsErr.Op)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, 0, inner.count(analysis.OpClasses))
}

func TestCachingAnalyser_CorruptEntryRecomputes(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	inner := newCountingAnalyser()
	c := New(store, inner)

	key := KeyFor(src, analysis.OpClasses)
	for _, blob := range []string{"", `{"format":1,"kind":"classesIn","da`, `{"format":1,"kind":"traitsIn","data":{}}`} {
		require.NoError(t, store.Write(key, []byte(blob)))

		got, err := c.ClassesIn(src)
		require.NoError(t, err)
		assert.Contains(t, got, "A")
	}

	assert.Equal(t, 3, inner.count(analysis.OpClasses))
	assert.Equal(t, int64(3), c.Counters().Unreadable)

	// The last recomputation repaired the entry.
	_, err := c.ClassesIn(src)
	require.NoError(t, err)
	assert.Equal(t, 3, inner.count(analysis.OpClasses))
}

func TestCachingAnalyser_PersistFailureKeepsResult(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	store := newTestStore(t)
	require.NoError(t, os.RemoveAll(store.Dir()))
	inner := newCountingAnalyser()
	c := New(store, inner)

	loc, err := c.LinesOfCodeFor(src)
	var pErr *PersistError
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, KeyFor(src, analysis.OpLinesOfCode), pErr.Key)
	assert.Equal(t, 10, loc.LinesOfCode)
}

func TestCachingAnalyser_ConcurrentMisses(t *testing.T) {
	src := writeSource(t, t.TempDir(), "a.go", "package a\n")
	inner := newCountingAnalyser()
	inner.delay = 20 * time.Millisecond
	c := New(newTestStore(t), inner)

	const workers = 8
	results := make([]analysis.Classes, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := c.ClassesIn(src)
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	inner.mu.Lock()
	maxInflight := inner.maxInflight
	inner.mu.Unlock()
	assert.Equal(t, 1, maxInflight, "one computation per key at a time")

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

// The scenario from the package documentation: a file gains a class and the
// cache notices.
func TestCachingAnalyser_Scenario(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir, "a.go", "package src\n\ntype A struct{}\n")
	store := newTestStore(t)

	parsing := goparse.New(true, false)
	counted := &countingWrapper{Analyser: parsing}
	c := New(store, counted)

	got, err := c.ClassesIn(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, classNames(got))
	assert.FileExists(t, filepath.Join(store.Dir(), KeyFor(src, analysis.OpClasses).String()))

	got, err = c.ClassesIn(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, classNames(got))
	assert.Equal(t, 1, counted.classes)

	require.NoError(t, os.WriteFile(src, []byte("package src\n\ntype A struct{}\n\ntype B struct{}\n"), 0o600))
	touch(t, src)

	got, err = c.ClassesIn(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, classNames(got))
	assert.Equal(t, 2, counted.classes)
}

type countingWrapper struct {
	analysis.Analyser
	classes int
}

func (w *countingWrapper) ClassesIn(filename string) (analysis.Classes, error) {
	w.classes++
	return w.Analyser.ClassesIn(filename)
}

func classNames(c analysis.Classes) []string {
	var names []string
	for _, n := range []string{"A", "B", "C"} {
		if _, ok := c[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
