package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

//go:generate go run ../../cmd/linectl-catgen -catalog catalog.yaml -output enums_gen.go

// Telemetry lists every telemetry item in declaration order.
func Telemetry() []TmID {
	return slices.Clone(tmOrder)
}

// ParseCmdID accepts a command name or a numeric id (decimal or 0x hex).
func ParseCmdID(s string) (CmdID, error) {
	v, err := parseEnum(s, cmdNames)
	if err != nil {
		return 0, fmt.Errorf("command %w", err)
	}
	return v, nil
}

// ParseTmID accepts a telemetry name or a numeric id.
func ParseTmID(s string) (TmID, error) {
	v, err := parseEnum(s, tmNames)
	if err != nil {
		return 0, fmt.Errorf("telemetry %w", err)
	}
	return v, nil
}

// parseEnum resolves a member name (case-insensitive) or a declared number.
func parseEnum[T ~int64](s string, names map[T]string) (T, error) {
	s = strings.TrimSpace(s)
	for v, n := range names {
		if strings.EqualFold(n, s) {
			return v, nil
		}
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		if _, ok := names[T(n)]; ok {
			return T(n), nil
		}
	}
	return 0, fmt.Errorf("%q is not one of %s", s, strings.Join(sortedNames(names), ", "))
}

func sortedNames[T ~int64](names map[T]string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
