package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	DefaultListLimit = 50 // Default limit for list/search commands
	ListNameMaxLen   = 60 // Name truncation in list output
)

// ErrorResponse is the JSON error shape written to stderr.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports a simple status with a path.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// UpdateResponse reports a config change.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// RebuildResult reports a query-layer rebuild.
type RebuildResult struct {
	Status  string `json:"status"`
	Entries int    `json:"entries"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// truncateString shortens s to maxLen runes, ending in "...".
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// formatValue renders a field value for human output.
func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, "; ")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
