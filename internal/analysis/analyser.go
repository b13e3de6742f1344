// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package analysis

import "fmt"

// Analyser performs the static analysis of a single source file. Each method
// may be arbitrarily expensive and must not retain state between calls.
type Analyser interface {
	ClassesIn(filename string) (Classes, error)
	TraitsIn(filename string) (Traits, error)
	FunctionsIn(filename string) (Functions, error)
	LinesOfCodeFor(filename string) (LinesOfCode, error)
	IgnoredLinesFor(filename string) (IgnoredLines, error)
}

// AnalysisError reports that an analyser could not produce a result for a
// file.
type AnalysisError struct {
	Op       Operation
	Filename string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Filename, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Run dispatches op to the matching Analyser method.
func Run(a Analyser, op Operation, filename string) (Result, error) {
	switch op {
	case OpClasses:
		return a.ClassesIn(filename)
	case OpTraits:
		return a.TraitsIn(filename)
	case OpFunctions:
		return a.FunctionsIn(filename)
	case OpLinesOfCode:
		return a.LinesOfCodeFor(filename)
	case OpIgnoredLines:
		return a.IgnoredLinesFor(filename)
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}
