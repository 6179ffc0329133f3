// Package iohelper provides helpers for reading HTTP response bodies
// with size limits, so a misbehaving appliance cannot exhaust memory.
package iohelper

import (
	"io"
	"log/slog"
)

// Body size limits for different response classes.
const (
	// SmallMaxBodySize covers error pages and login responses (8KB).
	SmallMaxBodySize int64 = 8 * 1024

	// DefaultMaxBodySize covers ticket and rule search pages (4MB).
	// A full page of 100 tickets with variable bags fits comfortably.
	DefaultMaxBodySize int64 = 4 * 1024 * 1024
)

// ReadBody reads from r with a size limit. A nil reader yields an empty
// slice and no error.
func ReadBody(r io.Reader, maxSize int64) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadBodyDefault reads from r with the default 4MB limit.
func ReadBodyDefault(r io.Reader) ([]byte, error) {
	return ReadBody(r, DefaultMaxBodySize)
}

// ReadBodyOrLog reads the body using ReadBodyDefault and logs any error.
// The returned slice may be nil on error.
func ReadBodyOrLog(r io.Reader, logger *slog.Logger) []byte {
	data, err := ReadBodyDefault(r)
	if err != nil && logger != nil {
		logger.Warn("body read failed", slog.String("error", err.Error()))
	}
	return data
}

// DrainAndClose reads any remaining data from r and closes it if it is a
// ReadCloser, so the connection can be reused for keep-alive. Always
// returns nil to allow use in defer.
func DrainAndClose(r io.Reader) error {
	if r == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 64*1024))
	if rc, ok := r.(io.ReadCloser); ok {
		rc.Close()
	}
	return nil
}
