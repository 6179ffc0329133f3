package rows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poreport/poreport/pkg/fields"
	"github.com/poreport/poreport/pkg/firemon"
)

type fakeSource struct {
	details map[string]*firemon.RuleDetail
	err     error
	calls   int
}

func (f *fakeSource) RuleDetail(_ context.Context, deviceID, _, _ string) (*firemon.RuleDetail, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.details[deviceID], nil
}

func reviewTicket() firemon.Ticket {
	return firemon.Ticket{
		BusinessKey: "PO-101",
		Status:      firemon.StatusReview,
		CreatedDate: "2026-08-01T09:30:00Z",
		Assignee:    &firemon.Identity{DisplayName: "Ann Alyst"},
		CreatedBy:   &firemon.Identity{Username: "jdoe"},
		Variables: firemon.Variables{
			DeviceID:          "12",
			DeviceName:        "edge-fw-1",
			PolicyDisplayName: "Perimeter",
			RuleNumber:        "7",
			RuleGUID:          "rule-guid",
			PolicyGUID:        "pol-guid",
		},
	}
}

func TestCollectSkipsTicketsWithoutRuleRef(t *testing.T) {
	src := &fakeSource{}
	bare := firemon.Ticket{BusinessKey: "PO-1"} // no device/policy/rule
	sel := fields.NewSelection(true, true, nil, nil)

	enriched, _ := Collect(context.Background(), src, []firemon.Ticket{bare}, sel, nil)
	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].Detail)
	assert.Zero(t, src.calls, "no lookup for a ticket without a rule reference")
}

func TestCollectWithoutEnrichmentNeverLooksUp(t *testing.T) {
	src := &fakeSource{}
	sel := fields.NewSelection(false, false, nil, nil)

	enriched, _ := Collect(context.Background(), src, []firemon.Ticket{reviewTicket()}, sel, nil)
	require.Len(t, enriched, 1)
	assert.Zero(t, src.calls)
}

func TestCollectLookupFailureIsSoft(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	sel := fields.NewSelection(true, false, nil, nil)

	enriched, _ := Collect(context.Background(), src, []firemon.Ticket{reviewTicket()}, sel, nil)
	require.Len(t, enriched, 1)
	assert.Nil(t, enriched[0].Detail)
}

func TestCollectObservesDocKeys(t *testing.T) {
	src := &fakeSource{details: map[string]*firemon.RuleDetail{
		"12": {RuleName: "allow-web", Props: map[string]firemon.FlexString{"owner": "netops"}},
	}}
	sel := fields.NewSelection(false, true, nil, nil)

	enriched, disc := Collect(context.Background(), src, []firemon.Ticket{reviewTicket()}, sel, nil)
	require.NotNil(t, enriched[0].Detail)
	assert.Equal(t, []string{"owner"}, disc.Keys())
}

func TestRowFixedColumns(t *testing.T) {
	sel := fields.NewSelection(false, false, nil, nil)
	p := NewProjector(sel, fields.NewDiscovery())

	row := p.Row(Enriched{Ticket: reviewTicket()})
	require.Len(t, row, len(FixedHeaders))
	assert.Equal(t, "PO-101", row[0])
	assert.Equal(t, "2026-08-01 09:30:00", row[1])
	assert.Equal(t, "", row[2], "in-review ticket has no completion date")
	assert.Equal(t, "Review", row[3])
	assert.Equal(t, "edge-fw-1", row[4])
	assert.Equal(t, "12", row[5])
	assert.Equal(t, "Perimeter", row[6])
	assert.Equal(t, "7", row[7])
	assert.Equal(t, Placeholder, row[8], "rule name needs enrichment")
	assert.Equal(t, "Ann Alyst", row[9])
	assert.Equal(t, "jdoe", row[10])
}

func TestRowEmptyTicketRendersPlaceholders(t *testing.T) {
	p := NewProjector(fields.NewSelection(false, false, nil, nil), fields.NewDiscovery())

	row := p.Row(Enriched{})
	assert.Equal(t, Placeholder, row[0])
	assert.Equal(t, Placeholder, row[1])
	assert.Equal(t, "", row[2])
	assert.Equal(t, Placeholder, row[4])
	assert.Equal(t, Placeholder, row[9], "unknown status has no relevant identity")
	assert.Equal(t, Placeholder, row[10])
}

func TestAssigneeOrCompleter(t *testing.T) {
	assignee := &firemon.Identity{DisplayName: "Ann"}
	completer := &firemon.Identity{Username: "bob"}

	tests := []struct {
		status string
		want   string
	}{
		{firemon.StatusReview, "Ann"},
		{firemon.StatusCompleted, "bob"},
		{firemon.StatusCancelled, "bob"},
		{"Weird", Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := AssigneeOrCompleter(firemon.Ticket{
				Status: tt.status, Assignee: assignee, CompletedBy: completer,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatTimestamps(t *testing.T) {
	assert.Equal(t, "2026-08-15 14:02:59", FormatCreated("2026-08-15T14:02:59+00:00"))
	assert.Equal(t, Placeholder, FormatCreated(""))
	assert.Equal(t, "garbled", FormatCreated("garbled"), "unparseable passes through")
	assert.Equal(t, "", FormatCompleted(""))
	assert.Equal(t, "2026-08-15 14:02:59", FormatCompleted("2026-08-15T14:02:59Z"))
}

func TestDetailValue(t *testing.T) {
	rd := &firemon.RuleDetail{
		RuleAction:   "ACCEPT",
		Sources:      []firemon.NetworkObject{{DisplayName: "net-a"}, {DisplayName: "net-b"}},
		Destinations: nil,
		Services: []firemon.ServiceGroup{
			{Services: []firemon.ServiceEntry{{FormattedValue: "tcp/443"}, {FormattedValue: "tcp/80"}}},
		},
		Apps: []firemon.NetworkObject{{DisplayName: "Any"}, {DisplayName: "ssl"}},
	}

	assert.Equal(t, "net-a, net-b", DetailValue(rd, "source"))
	assert.Equal(t, "Any", DetailValue(rd, "destination"), "empty list is unrestricted")
	assert.Equal(t, "tcp/443, tcp/80", DetailValue(rd, "service"))
	assert.Equal(t, "ssl", DetailValue(rd, "application"), "literal Any entries dropped")
	assert.Equal(t, "ACCEPT", DetailValue(rd, "action"))
	assert.Equal(t, Placeholder, DetailValue(nil, "source"))
}

func TestDetailValueAllAnyApps(t *testing.T) {
	rd := &firemon.RuleDetail{Apps: []firemon.NetworkObject{{DisplayName: "Any"}}}
	assert.Equal(t, "Any", DetailValue(rd, "application"))
}

func TestDocValue(t *testing.T) {
	rd := &firemon.RuleDetail{Props: map[string]firemon.FlexString{
		"owner":       "netops",
		"review_note": "",
	}}

	assert.Equal(t, "netops", DocValue(rd, "owner"))
	assert.Equal(t, "", DocValue(rd, "review_note"), "present but empty stays empty")
	assert.Equal(t, Placeholder, DocValue(rd, "absent"))
	assert.Equal(t, Placeholder, DocValue(nil, "owner"))
}

func TestHeadersIncludeSelectedColumns(t *testing.T) {
	d := fields.NewDiscovery()
	fields.ObserveKeys(d, map[string]firemon.FlexString{"owner": ""})
	sel := fields.NewSelection(true, true, []string{"source", "action"}, nil)

	p := NewProjector(sel, d)
	want := append(append([]string{}, FixedHeaders...), "Source", "Action", "Rule Doc: Owner")
	assert.Equal(t, want, p.Headers())
}

func TestRowWithDetailAndDocColumns(t *testing.T) {
	d := fields.NewDiscovery()
	fields.ObserveKeys(d, map[string]firemon.FlexString{"owner": ""})
	sel := fields.NewSelection(true, true, []string{"action"}, nil)
	p := NewProjector(sel, d)

	rd := &firemon.RuleDetail{
		RuleName:   "allow-web",
		RuleAction: "ACCEPT",
		Props:      map[string]firemon.FlexString{"owner": "netops"},
	}
	row := p.Row(Enriched{Ticket: reviewTicket(), Detail: rd})
	require.Len(t, row, len(FixedHeaders)+2)
	assert.Equal(t, "allow-web", row[8])
	assert.Equal(t, "ACCEPT", row[len(FixedHeaders)])
	assert.Equal(t, "netops", row[len(FixedHeaders)+1])
}
