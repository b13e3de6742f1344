// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package analysis

import "fmt"

// Operation identifies one of the five analysis operations. The string value
// is stable across releases because it is part of every cache key.
type Operation string

const (
	OpClasses      Operation = "classesIn"
	OpTraits       Operation = "traitsIn"
	OpFunctions    Operation = "functionsIn"
	OpLinesOfCode  Operation = "linesOfCodeFor"
	OpIgnoredLines Operation = "ignoredLinesFor"
)

// Operations lists every operation in a fixed order.
var Operations = []Operation{
	OpClasses,
	OpTraits,
	OpFunctions,
	OpLinesOfCode,
	OpIgnoredLines,
}

// shortNames maps the user facing names accepted on the command line.
var shortNames = map[string]Operation{
	"classes":   OpClasses,
	"traits":    OpTraits,
	"functions": OpFunctions,
	"loc":       OpLinesOfCode,
	"ignored":   OpIgnoredLines,
}

// ParseOperation accepts either the short name ("classes") or the stable
// identifier ("classesIn").
func ParseOperation(s string) (Operation, error) {
	if op, ok := shortNames[s]; ok {
		return op, nil
	}
	for _, op := range Operations {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q", s)
}

// ShortName returns the command line name of the operation.
func (o Operation) ShortName() string {
	for k, v := range shortNames {
		if v == o {
			return k
		}
	}
	return string(o)
}

// Result is the closed set of values an operation can produce. Only the
// types in this package implement it.
type Result interface {
	Operation() Operation
	sealed()
}

// MethodInfo describes a single method of a class or trait.
type MethodInfo struct {
	MethodName string `json:"methodName" yaml:"methodName"`
	Signature  string `json:"signature" yaml:"signature"`
	Visibility string `json:"visibility" yaml:"visibility"`
	StartLine  int    `json:"startLine" yaml:"startLine"`
	EndLine    int    `json:"endLine" yaml:"endLine"`
	CCN        int    `json:"ccn" yaml:"ccn"`
}

// ClassInfo is the structural metadata of a class-like type.
type ClassInfo struct {
	Name           string                `json:"name" yaml:"name"`
	NamespacedName string                `json:"namespacedName" yaml:"namespacedName"`
	Namespace      string                `json:"namespace" yaml:"namespace"`
	StartLine      int                   `json:"startLine" yaml:"startLine"`
	EndLine        int                   `json:"endLine" yaml:"endLine"`
	Methods        map[string]MethodInfo `json:"methods" yaml:"methods"`
}

// TraitInfo has the same shape as ClassInfo but is kept as a distinct type so
// a traits entry can never decode as a classes entry.
type TraitInfo struct {
	Name           string                `json:"name" yaml:"name"`
	NamespacedName string                `json:"namespacedName" yaml:"namespacedName"`
	Namespace      string                `json:"namespace" yaml:"namespace"`
	StartLine      int                   `json:"startLine" yaml:"startLine"`
	EndLine        int                   `json:"endLine" yaml:"endLine"`
	Methods        map[string]MethodInfo `json:"methods" yaml:"methods"`
}

// FunctionInfo describes a free function.
type FunctionInfo struct {
	Name           string `json:"name" yaml:"name"`
	NamespacedName string `json:"namespacedName" yaml:"namespacedName"`
	Namespace      string `json:"namespace" yaml:"namespace"`
	Signature      string `json:"signature" yaml:"signature"`
	StartLine      int    `json:"startLine" yaml:"startLine"`
	EndLine        int    `json:"endLine" yaml:"endLine"`
	CCN            int    `json:"ccn" yaml:"ccn"`
}

// Classes is keyed by class name.
type Classes map[string]ClassInfo

// Traits is keyed by trait name.
type Traits map[string]TraitInfo

// Functions is keyed by function name.
type Functions map[string]FunctionInfo

// LinesOfCode holds the line counts of a single file.
type LinesOfCode struct {
	LinesOfCode           int `json:"linesOfCode" yaml:"linesOfCode"`
	CommentLinesOfCode    int `json:"commentLinesOfCode" yaml:"commentLinesOfCode"`
	NonCommentLinesOfCode int `json:"nonCommentLinesOfCode" yaml:"nonCommentLinesOfCode"`
	LogicalLinesOfCode    int `json:"logicalLinesOfCode" yaml:"logicalLinesOfCode"`
}

// IgnoredLines is the sorted, de-duplicated set of line numbers excluded from
// coverage accounting.
type IgnoredLines []int

func (Classes) Operation() Operation      { return OpClasses }
func (Traits) Operation() Operation       { return OpTraits }
func (Functions) Operation() Operation    { return OpFunctions }
func (LinesOfCode) Operation() Operation  { return OpLinesOfCode }
func (IgnoredLines) Operation() Operation { return OpIgnoredLines }

func (Classes) sealed()      {}
func (Traits) sealed()       {}
func (Functions) sealed()    {}
func (LinesOfCode) sealed()  {}
func (IgnoredLines) sealed() {}

// Contains reports whether line is ignored. The receiver must be sorted.
func (il IgnoredLines) Contains(line int) bool {
	lo, hi := 0, len(il)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case il[mid] == line:
			return true
		case il[mid] < line:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}
