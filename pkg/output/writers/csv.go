// Package writers provides the report renderers: CSV for spreadsheet
// import and a self-contained interactive HTML document.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"github.com/poreport/poreport/pkg/rows"
)

// UTF-8 BOM for Excel compatibility.
const utf8BOM = "\xEF\xBB\xBF"

// CSVOptions configures the CSV renderer.
type CSVOptions struct {
	// Delimiter sets the field delimiter. Default is comma.
	Delimiter rune

	// ExcelCompatible prepends a UTF-8 BOM so Excel displays Unicode
	// device and policy names correctly.
	ExcelCompatible bool

	// SanitizeFormulas prefixes cells starting with = + - @ TAB CR so
	// documentation values cannot execute as spreadsheet formulas.
	SanitizeFormulas bool

	// TruncateAt limits cell length (0 = no limit).
	TruncateAt int
}

// sanitizeCell prevents spreadsheet formula execution on open.
func sanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// truncateCell truncates a cell to maxLen runes with an ellipsis.
func truncateCell(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// RenderCSV writes the header row and one row per ticket. A failure to
// write any single row is logged and skipped; header or flush failures
// abort. Returns the number of data rows written.
func RenderCSV(w io.Writer, p *rows.Projector, data []rows.Enriched, opts CSVOptions, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}
	if opts.ExcelCompatible {
		if _, err := io.WriteString(w, utf8BOM); err != nil {
			return 0, fmt.Errorf("csv: write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	if err := cw.Write(p.Headers()); err != nil {
		return 0, fmt.Errorf("csv: write header: %w", err)
	}

	written := 0
	for _, e := range data {
		row := p.Row(e)
		for i, cell := range row {
			if opts.SanitizeFormulas {
				cell = sanitizeCell(cell)
			}
			if opts.TruncateAt > 0 {
				cell = truncateCell(cell, opts.TruncateAt)
			}
			row[i] = cell
		}
		if err := cw.Write(row); err != nil {
			log.Error("csv row skipped",
				slog.String("ticket", e.Ticket.BusinessKey),
				slog.String("error", err.Error()))
			continue
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("csv: flush: %w", err)
	}
	return written, nil
}
