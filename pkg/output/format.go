package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format represents the output format type
type Format int

const (
	// FormatAuto picks pretty output on a terminal and plain output otherwise
	FormatAuto Format = iota
	// FormatPretty renders headers, trees and colors for people
	FormatPretty
	// FormatPlain renders one item per line for scripts
	FormatPlain
	// FormatJSON renders machine-readable JSON output
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatPretty:
		return "pretty"
	case FormatPlain:
		return "plain"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat parses a string into a Format value
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "auto":
		return FormatAuto, nil
	case "pretty", "", "term":
		return FormatPretty, nil
	case "plain", "text":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatPretty, fmt.Errorf("unknown format: %s (expected pretty, plain, json or auto)", s)
	}
}

// DetectFormat resolves FormatAuto for the given output file.
func DetectFormat(out *os.File) Format {
	if out == nil {
		return FormatPlain
	}
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return FormatPlain
	}
	return FormatPretty
}

// ColorEnabled reports whether styled output should carry ANSI codes.
func ColorEnabled(out *os.File, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" || out == nil {
		return false
	}
	if !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd()) {
		return false
	}
	return termenv.NewOutput(out).EnvColorProfile() != termenv.Ascii
}
