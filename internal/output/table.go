// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/staranto/covcache/internal/analysis"
)

// Column is one column of a rendered result. Key is the row map key and the
// name accepted by --sort and --filter.
type Column struct {
	Key   string
	Title string
}

// Dataset is the flattened, tabular view of a single analysis.Result.
type Dataset struct {
	Columns     []Column
	Rows        []map[string]interface{}
	DefaultSort string
}

// Tabulate flattens r into rows. Classes and traits produce one row per
// method (a type without methods still gets a row), line counts produce one
// row per metric and ignored lines are compressed into ranges.
func Tabulate(r analysis.Result) Dataset {
	switch v := r.(type) {
	case analysis.Classes:
		ds := typeColumns("class")
		for _, c := range v {
			ds.Rows = append(ds.Rows, methodRows(c.Name, c.StartLine, c.EndLine, c.Methods)...)
		}
		return ds
	case analysis.Traits:
		ds := typeColumns("trait")
		for _, t := range v {
			ds.Rows = append(ds.Rows, methodRows(t.Name, t.StartLine, t.EndLine, t.Methods)...)
		}
		return ds
	case analysis.Functions:
		ds := Dataset{
			Columns: []Column{
				{Key: "name", Title: "FUNCTION"},
				{Key: "lines", Title: "LINES"},
				{Key: "ccn", Title: "CCN"},
				{Key: "signature", Title: "SIGNATURE"},
			},
			DefaultSort: "name",
		}
		for _, f := range v {
			ds.Rows = append(ds.Rows, map[string]interface{}{
				"name":      f.Name,
				"lines":     lineSpan(f.StartLine, f.EndLine),
				"start":     f.StartLine,
				"ccn":       f.CCN,
				"signature": f.Signature,
			})
		}
		return ds
	case analysis.LinesOfCode:
		return Dataset{
			Columns: []Column{
				{Key: "metric", Title: "METRIC"},
				{Key: "value", Title: "VALUE"},
			},
			Rows: []map[string]interface{}{
				{"metric": "loc", "value": v.LinesOfCode},
				{"metric": "cloc", "value": v.CommentLinesOfCode},
				{"metric": "ncloc", "value": v.NonCommentLinesOfCode},
				{"metric": "lloc", "value": v.LogicalLinesOfCode},
			},
		}
	case analysis.IgnoredLines:
		ds := Dataset{
			Columns: []Column{
				{Key: "from", Title: "FROM"},
				{Key: "to", Title: "TO"},
				{Key: "count", Title: "COUNT"},
			},
		}
		for _, rg := range Ranges(v) {
			ds.Rows = append(ds.Rows, map[string]interface{}{
				"from":  rg[0],
				"to":    rg[1],
				"count": rg[1] - rg[0] + 1,
			})
		}
		return ds
	default:
		return Dataset{}
	}
}

func typeColumns(kind string) Dataset {
	return Dataset{
		Columns: []Column{
			{Key: "name", Title: strings.ToUpper(kind)},
			{Key: "method", Title: "METHOD"},
			{Key: "visibility", Title: "VISIBILITY"},
			{Key: "lines", Title: "LINES"},
			{Key: "ccn", Title: "CCN"},
		},
		DefaultSort: "name,start",
	}
}

func methodRows(name string, start, end int, methods map[string]analysis.MethodInfo) []map[string]interface{} {
	if len(methods) == 0 {
		return []map[string]interface{}{{
			"name":  name,
			"lines": lineSpan(start, end),
			"start": start,
		}}
	}

	rows := make([]map[string]interface{}, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, map[string]interface{}{
			"name":       name,
			"method":     m.MethodName,
			"visibility": m.Visibility,
			"lines":      lineSpan(m.StartLine, m.EndLine),
			"start":      m.StartLine,
			"ccn":        m.CCN,
			"signature":  m.Signature,
		})
	}
	return rows
}

func lineSpan(start, end int) string {
	if start == end {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// Ranges compresses a sorted line set into inclusive [from, to] pairs.
func Ranges(lines []int) [][2]int {
	var out [][2]int
	for _, l := range lines {
		if n := len(out); n > 0 && out[n-1][1]+1 == l {
			out[n-1][1] = l
			continue
		}
		out = append(out, [2]int{l, l})
	}
	return out
}

// SortDataset sorts rows in place by a comma separated list of keys. A
// leading "-" sorts that key descending, a leading "!" makes string
// comparison case sensitive. Integers compare numerically.
func SortDataset(rows []map[string]interface{}, spec string) {
	if spec == "" || len(rows) < 2 {
		return
	}

	type sortKey struct {
		name          string
		descending    bool
		caseSensitive bool
	}

	var keys []sortKey
	for _, k := range strings.Split(spec, ",") {
		var sk sortKey
		for len(k) > 0 && (k[0] == '-' || k[0] == '!') {
			if k[0] == '-' {
				sk.descending = true
			} else {
				sk.caseSensitive = true
			}
			k = k[1:]
		}
		if k == "" {
			continue
		}
		sk.name = k
		keys = append(keys, sk)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(rows[i][k.name], rows[j][k.name], k.caseSensitive)
			if c == 0 {
				continue
			}
			if k.descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}, caseSensitive bool) int {
	if ai, ok := a.(int); ok {
		if bi, ok := b.(int); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			}
			return 0
		}
	}

	as, bs := InterfaceToString(a), InterfaceToString(b)
	if !caseSensitive {
		as, bs = strings.ToLower(as), strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}
