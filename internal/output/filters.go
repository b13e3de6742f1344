// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/apex/log"
)

// filterRegex is the pattern used to parse filter expressions into key, operator, and target components.
// It matches: key + operator + target, where operator can be negated with !
var filterRegex = regexp.MustCompile(`^(.*?)(!?[=^~><@/])(.*)$`)

// Filter represents a single parsed --filter expression including the key,
// operand, optional negation and target value.
type Filter struct {
	Key     string
	Negate  bool
	Operand string
	Target  string
}

// BuildFilters parses a filter specification string into a slice of Filter.
// Invalid specs (unsupported operand or malformed expression) are skipped.
func BuildFilters(spec string) []Filter {
	//nolint:prealloc
	var filters []Filter

	if spec == "" {
		return filters
	}

	// Default delimiter is ",", allow an override.
	delim := ","
	if d, ok := os.LookupEnv("COVCACHE_FILTER_DELIM"); ok && d != "" {
		delim = d
	}

	for _, filterSpec := range strings.Split(spec, delim) {
		parts := filterRegex.FindStringSubmatch(filterSpec)
		if parts == nil || parts[1] == "" {
			log.Error("invalid filter: " + filterSpec)
			continue
		}

		negate := strings.HasPrefix(parts[2], "!")
		if negate {
			parts[2] = strings.TrimPrefix(parts[2], "!")
		}

		filters = append(filters, Filter{
			Key:     parts[1],
			Negate:  negate,
			Operand: parts[2],
			Target:  parts[3],
		})
	}

	return filters
}

// FilterDataset returns the rows that match every filter in spec. Rows are
// not copied.
func FilterDataset(rows []map[string]interface{}, spec string) []map[string]interface{} {
	filters := BuildFilters(spec)
	if len(filters) == 0 {
		return rows
	}

	filtered := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if applyFilters(row, filters) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// applyFilters returns true if the row matches all of the provided filters.
// Filters naming a column the row does not have are reported and skipped.
func applyFilters(row map[string]interface{}, filters []Filter) bool {
	for _, filter := range filters {
		value, ok := row[filter.Key]
		if !ok {
			msg := fmt.Sprintf("filter key not found: %s", filter.Key)
			log.Error(msg)
			continue
		}
		if value == nil {
			return false
		}

		var result bool
		switch v := value.(type) {
		case int:
			result = checkIntOperand(v, filter)
		case string:
			result = checkStringOperand(v, filter)
		default:
			result = checkStringOperand(fmt.Sprintf("%v", v), filter)
		}

		if !result {
			return false
		}
	}

	return true
}

// checkIntOperand compares numerically when the target is an integer and
// falls back to string semantics otherwise.
func checkIntOperand(value int, filter Filter) bool {
	target, err := strconv.Atoi(filter.Target)
	if err != nil {
		return checkStringOperand(strconv.Itoa(value), filter)
	}

	switch filter.Operand {
	case "=":
		return (value == target) == !filter.Negate
	case ">":
		return (value > target) == !filter.Negate
	case "<":
		return (value < target) == !filter.Negate
	default:
		return checkStringOperand(strconv.Itoa(value), filter)
	}
}

// checkStringOperand evaluates a string comparison style filter against the
// provided value using the operand semantics.
func checkStringOperand(value string, filter Filter) bool {
	switch filter.Operand {
	case "=":
		return value == filter.Target == !filter.Negate
	case "~":
		return strings.EqualFold(value, filter.Target) == !filter.Negate
	case "^":
		return strings.HasPrefix(value, filter.Target) == !filter.Negate
	case ">":
		return value > filter.Target == !filter.Negate
	case "<":
		return value < filter.Target == !filter.Negate
	case "@":
		return strings.Contains(value, filter.Target) == !filter.Negate
	case "/":
		matched, err := regexp.MatchString(filter.Target, value)
		if err != nil {
			log.Error("invalid regex: " + filter.Target)
			return false
		}
		return matched == !filter.Negate
	default:
		log.Error("unsupported filtering operand: " + filter.Operand)
		return false
	}
}
