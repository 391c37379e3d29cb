package sdk

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fieldNameRE = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// Match holds field equality constraints given as key=value pairs. Values are
// string, bool or int64.
type Match map[string]any

// ParseMatch parses key=value arguments. Repeated keys keep the last value and
// are reported as warnings.
func ParseMatch(args []string) (Match, []string, error) {
	m := Match{}
	var warnings []string

	for _, raw := range args {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid match %q (expected key=value)", raw)
		}
		key = strings.TrimSpace(key)
		if !fieldNameRE.MatchString(key) {
			return nil, nil, fmt.Errorf("invalid field name %q", key)
		}
		if _, dup := m[key]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate field %q, last value wins", key))
		}
		m[key] = inferValue(strings.TrimSpace(value))
	}
	return m, warnings, nil
}

// Decimals stay strings so that "40.00" matches the backend's text exactly.
func inferValue(raw string) any {
	if b, err := strconv.ParseBool(strings.ToLower(raw)); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	return raw
}

// Expression renders the constraints as a bexpr conjunction with keys in
// lexical order. An empty Match renders as "".
func (m Match) Expression() string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s == %s", key, formatValue(m[key])))
	}
	return strings.Join(parts, " and ")
}

func formatValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return strconv.Quote(fmt.Sprintf("%v", value))
	}
}

// CombineFilters joins the non-empty expressions with and.
func CombineFilters(exprs ...string) string {
	var parts []string
	for _, expr := range exprs {
		if expr = strings.TrimSpace(expr); expr != "" {
			parts = append(parts, expr)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ") and (") + ")"
}
