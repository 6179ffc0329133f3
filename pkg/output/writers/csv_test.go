package writers

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poreport/poreport/pkg/fields"
	"github.com/poreport/poreport/pkg/firemon"
	"github.com/poreport/poreport/pkg/rows"
)

func sampleTicket() firemon.Ticket {
	return firemon.Ticket{
		BusinessKey: "PO-101",
		Status:      firemon.StatusCompleted,
		CreatedDate: "2026-08-01T09:30:00Z",
		Completed:   "2026-08-02T10:00:00Z",
		CompletedBy: &firemon.Identity{Username: "bob"},
		CreatedBy:   &firemon.Identity{DisplayName: "Jane Doe"},
		Variables: firemon.Variables{
			DeviceID:   "12",
			DeviceName: "edge-fw-1",
			PolicyName: "Perimeter",
			RuleNumber: "7",
			RuleGUID:   "rule-guid",
			PolicyGUID: "pol-guid",
		},
	}
}

func plainProjector() *rows.Projector {
	return rows.NewProjector(fields.NewSelection(false, false, nil, nil), fields.NewDiscovery())
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := RenderCSV(&buf, plainProjector(), []rows.Enriched{{Ticket: sampleTicket()}},
		CSVOptions{ExcelCompatible: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"), "missing UTF-8 BOM")

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\xEF\xBB\xBF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, rows.FixedHeaders, records[0])
	assert.Equal(t, "PO-101", records[1][0])
	assert.Equal(t, "2026-08-01 09:30:00", records[1][1])
	assert.Equal(t, "2026-08-02 10:00:00", records[1][2])
	assert.Equal(t, "bob", records[1][9])
	assert.Equal(t, "Jane Doe", records[1][10])
}

func TestRenderCSVNoBOMByDefault(t *testing.T) {
	var buf bytes.Buffer
	_, err := RenderCSV(&buf, plainProjector(), nil, CSVOptions{}, nil)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(buf.String(), "\xEF\xBB\xBF"))
}

func TestSanitizeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"=SUM(A1)", "'=SUM(A1)"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"\tx", "'\tx"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeCell(tt.in), tt.in)
	}
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "short", truncateCell("short", 10))
	assert.Equal(t, "abcdefg...", truncateCell("abcdefghijkl", 10))
	assert.Equal(t, "unlimited value", truncateCell("unlimited value", 0))

	// rune-aware: multibyte input never splits mid-character
	got := truncateCell(strings.Repeat("ü", 20), 10)
	assert.Equal(t, strings.Repeat("ü", 7)+"...", got)
}

func TestRenderCSVSanitizesFormulaCells(t *testing.T) {
	tk := sampleTicket()
	d := fields.NewDiscovery()
	fields.ObserveKeys(d, map[string]firemon.FlexString{"note": ""})
	p := rows.NewProjector(fields.NewSelection(false, true, nil, nil), d)

	rd := &firemon.RuleDetail{Props: map[string]firemon.FlexString{"note": "=HYPERLINK(evil)"}}
	var buf bytes.Buffer
	_, err := RenderCSV(&buf, p, []rows.Enriched{{Ticket: tk, Detail: rd}},
		CSVOptions{SanitizeFormulas: true}, nil)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	last := records[1][len(records[1])-1]
	assert.Equal(t, "'=HYPERLINK(evil)", last)
}
