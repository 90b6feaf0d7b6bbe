package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseIDArg extracts a numeric request ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("request ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid request ID %q", s)
	}
	return id, nil
}

// ParseDenyArgs extracts a request ID and an optional free-form reason.
func ParseDenyArgs(args string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if parts[0] == "" {
		return 0, "", fmt.Errorf("request ID is required")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid request ID %q", parts[0])
	}
	reason := ""
	if len(parts) == 2 {
		reason = strings.TrimSpace(parts[1])
	}
	return id, reason, nil
}

// ParseRuleArgs parses "/rule on|off <name>" arguments.
func ParseRuleArgs(args string) (enable bool, name string, err error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return false, "", fmt.Errorf("usage: on|off <name>")
	}
	switch parts[0] {
	case "on":
		enable = true
	case "off":
		enable = false
	default:
		return false, "", fmt.Errorf("expected on or off, got %q", parts[0])
	}
	return enable, parts[1], nil
}
