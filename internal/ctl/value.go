package ctl

import (
	"fmt"
	"strconv"
	"strings"

	"settingsd/pkg/types"
)

// parseValue turns a raw command line argument into a typed setting
// value. kind forces the interpretation; when empty the raw string is
// inferred: booleans become flags, numbers become numbers, everything
// else is text.
func parseValue(kind, raw string) (types.Value, error) {
	switch kind {
	case "text":
		return types.TextValue(raw), nil
	case "number":
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Value{}, fmt.Errorf("not a number: %q", raw)
		}
		return types.NumberValue(n), nil
	case "flag":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return types.Value{}, fmt.Errorf("not a flag: %q", raw)
		}
		return types.FlagValue(b), nil
	case "list":
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		return types.ListValue(items...), nil
	case "":
		if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
			return types.FlagValue(b), nil
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return types.NumberValue(n), nil
		}
		return types.TextValue(raw), nil
	default:
		return types.Value{}, fmt.Errorf("unknown kind: %s (want text|number|flag|list)", kind)
	}
}

// formatValue renders a value for terminal output.
func formatValue(v types.Value) string {
	switch v.Kind {
	case types.KindText:
		return v.Text
	case types.KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case types.KindFlag:
		return strconv.FormatBool(v.Flag)
	case types.KindList:
		return strings.Join(v.List, ",")
	}
	return ""
}
