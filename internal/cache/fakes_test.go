// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/staranto/covcache/internal/analysis"
)

// countingAnalyser returns canned results and records every call.
type countingAnalyser struct {
	mu    sync.Mutex
	calls map[analysis.Operation]int
	err   error
	delay time.Duration

	inflight    int
	maxInflight int

	classes analysis.Classes
}

func newCountingAnalyser() *countingAnalyser {
	return &countingAnalyser{
		calls: map[analysis.Operation]int{},
		classes: analysis.Classes{
			"A": {Name: "A", NamespacedName: "src.A", Namespace: "src", StartLine: 1, EndLine: 3, Methods: map[string]analysis.MethodInfo{}},
		},
	}
}

func (a *countingAnalyser) enter(op analysis.Operation) error {
	a.mu.Lock()
	a.calls[op]++
	a.inflight++
	if a.inflight > a.maxInflight {
		a.maxInflight = a.inflight
	}
	err := a.err
	delay := a.delay
	a.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	a.mu.Lock()
	a.inflight--
	a.mu.Unlock()
	return err
}

func (a *countingAnalyser) count(op analysis.Operation) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[op]
}

func (a *countingAnalyser) ClassesIn(string) (analysis.Classes, error) {
	if err := a.enter(analysis.OpClasses); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.classes, nil
}

func (a *countingAnalyser) TraitsIn(string) (analysis.Traits, error) {
	if err := a.enter(analysis.OpTraits); err != nil {
		return nil, err
	}
	return analysis.Traits{
		"T": {Name: "T", NamespacedName: "src.T", Namespace: "src", StartLine: 5, EndLine: 7, Methods: map[string]analysis.MethodInfo{}},
	}, nil
}

func (a *countingAnalyser) FunctionsIn(string) (analysis.Functions, error) {
	if err := a.enter(analysis.OpFunctions); err != nil {
		return nil, err
	}
	return analysis.Functions{
		"f": {Name: "f", NamespacedName: "src.f", Namespace: "src", Signature: "func f()", StartLine: 9, EndLine: 10, CCN: 1},
	}, nil
}

func (a *countingAnalyser) LinesOfCodeFor(string) (analysis.LinesOfCode, error) {
	if err := a.enter(analysis.OpLinesOfCode); err != nil {
		return analysis.LinesOfCode{}, err
	}
	return analysis.LinesOfCode{LinesOfCode: 10, CommentLinesOfCode: 2, NonCommentLinesOfCode: 8, LogicalLinesOfCode: 4}, nil
}

func (a *countingAnalyser) IgnoredLinesFor(string) (analysis.IgnoredLines, error) {
	if err := a.enter(analysis.OpIgnoredLines); err != nil {
		return nil, err
	}
	return analysis.IgnoredLines{4, 5}, nil
}

// writeSource creates a source file whose modification time lies in the past,
// so an entry written now is always newer.
func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(p, past, past))
	return p
}

// touch moves the modification time of p into the future.
func touch(t *testing.T, p string) {
	t.Helper()
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(p, future, future))
}

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return s
}
