// Package logging builds the process-wide slog logger for dewdrop binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger writing to w. json emits one object per line for log
// shippers; text is the human-readable charmbracelet format. level is one of
// debug, info, warn, error.
func New(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	switch format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.Level(lvl)})), nil
	case FormatText:
		return slog.New(log.NewWithOptions(w, log.Options{
			Level:           lvl,
			ReportTimestamp: true,
		})), nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q: want %s|%s", format, FormatJSON, FormatText)
	}
}
