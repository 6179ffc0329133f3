// Package logging sets up the run log file. Console output goes
// through pkg/ui; the log file carries the debug trail for support.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// DefaultLogFile is the run log path, truncated on every invocation.
const DefaultLogFile = "po_report.log"

// Setup opens path for writing (truncating any previous run) and
// returns a debug-level structured logger plus a close func. An empty
// path logs to io.Discard.
func Setup(path string) (*slog.Logger, func() error, error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	h := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(h), f.Close, nil
}
