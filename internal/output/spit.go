// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/staranto/covcache/internal/analysis"
	"github.com/staranto/covcache/internal/cache"
	"github.com/staranto/covcache/internal/config"
)

// Report is one operation's result for one file.
type Report struct {
	File      string             `json:"file" yaml:"file"`
	Operation analysis.Operation `json:"operation" yaml:"operation"`
	Result    analysis.Result    `json:"result" yaml:"result"`
}

// Colors are lipgloss color specs for the text table.
type Colors struct {
	Title string
	Even  string
	Odd   string
}

// Options controls rendering. Format is one of text, json or yaml.
type Options struct {
	Format  string
	Color   bool
	Titles  bool
	Sort    string
	Filter  string
	Padding int
	Colors  Colors
}

// ColorsFrom reads the colors.* keys of cfg with fallbacks.
func ColorsFrom(cfg config.Type) Colors {
	var c Colors
	c.Title, _ = cfg.GetString("colors.title", "#f6be00")
	c.Even, _ = cfg.GetString("colors.even", "#ffffff")
	c.Odd, _ = cfg.GetString("colors.odd", "#00c8f0")
	return c
}

// IsTerminal reports whether w is a terminal. Only *os.File can be one.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Emit renders reports in the requested format.
func Emit(w io.Writer, reports []Report, opts Options) error {
	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s (%s)\n", r.File, r.Operation.ShortName())

			ds := Tabulate(r.Result)
			rows := FilterDataset(ds.Rows, opts.Filter)
			spec := opts.Sort
			if spec == "" {
				spec = ds.DefaultSort
			}
			SortDataset(rows, spec)
			TableWriter(w, ds.Columns, rows, opts)
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", opts.Format)
	}
}

// TableWriter renders the rows in a tabular form honoring color, titles and
// padding options.
func TableWriter(w io.Writer, columns []Column, rows []map[string]interface{}, opts Options) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "-")
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerStyle = headerStyle.Foreground(lipgloss.Color(opts.Colors.Title))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(opts.Colors.Even))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(opts.Colors.Odd))
	}

	var cells [][]string
	for _, row := range rows {
		cell := make([]string, 0, len(columns))
		for _, col := range columns {
			cell = append(cell, InterfaceToString(row[col.Key], "-"))
		}
		cells = append(cells, cell)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}

			return style
		}).
		Headers().
		Rows(cells...)

	if opts.Titles {
		headers := make([]string, 0, len(columns))
		for _, col := range columns {
			headers = append(headers, col.Title)
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// StatsReport is the serialized form of cache.Stats.
type StatsReport struct {
	Dir       string    `json:"dir" yaml:"dir"`
	Entries   int       `json:"entries" yaml:"entries"`
	TotalSize int64     `json:"totalSize" yaml:"totalSize"`
	Oldest    time.Time `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	Newest    time.Time `json:"newest,omitempty" yaml:"newest,omitempty"`
}

// EmitStats renders cache statistics. Text output humanizes sizes and ages.
func EmitStats(w io.Writer, s cache.Stats, opts Options) error {
	report := StatsReport(s)

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(w).Encode(report)
	}

	age := func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	}

	columns := []Column{{Key: "key", Title: "KEY"}, {Key: "value", Title: "VALUE"}}
	rows := []map[string]interface{}{
		{"key": "dir", "value": s.Dir},
		{"key": "entries", "value": humanize.Comma(int64(s.Entries))},
		{"key": "size", "value": humanize.Bytes(uint64(s.TotalSize))},
		{"key": "oldest", "value": age(s.Oldest)},
		{"key": "newest", "value": age(s.Newest)},
	}
	log.Debugf("stats: %+v", s)
	TableWriter(w, columns, rows, opts)
	return nil
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
