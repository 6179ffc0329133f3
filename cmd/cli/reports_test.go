package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poreport/poreport/pkg/config"
	"github.com/poreport/poreport/pkg/firemon"
	"github.com/poreport/poreport/pkg/rows"
)

func TestReportBase(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 15, 2, 0, time.UTC)

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{
			name: "workflow only",
			cfg:  config.Config{WorkflowID: 2},
			want: "po_tickets_wf2_20260830_141502",
		},
		{
			name: "status lowercased",
			cfg:  config.Config{WorkflowID: 2, Status: "Completed"},
			want: "po_tickets_wf2_completed_20260830_141502",
		},
		{
			name: "all is not part of the name",
			cfg:  config.Config{WorkflowID: 2, Status: "all"},
			want: "po_tickets_wf2_20260830_141502",
		},
		{
			name: "days window",
			cfg:  config.Config{WorkflowID: 5, Days: 30},
			want: "po_tickets_wf5_30days_20260830_141502",
		},
		{
			name: "status and days",
			cfg:  config.Config{WorkflowID: 2, Status: "Review", Days: 7},
			want: "po_tickets_wf2_review_7days_20260830_141502",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reportBase(&tt.cfg, now))
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "", normalizeStatus(""))
	assert.Equal(t, "", normalizeStatus("all"))
	assert.Equal(t, "Review", normalizeStatus("Review"))
}

func TestEmailBody(t *testing.T) {
	cfg := &config.Config{WorkflowID: 2, Status: "Review", Days: 30}
	data := []rows.Enriched{
		{Ticket: firemon.Ticket{Status: firemon.StatusReview}},
		{Ticket: firemon.Ticket{Status: firemon.StatusReview}},
		{Ticket: firemon.Ticket{Status: firemon.StatusCompleted}},
	}

	body := emailBody(cfg, data, []string{"po_reports/po_tickets_wf2_x.csv"})
	assert.Contains(t, body, "Workflow:  2")
	assert.Contains(t, body, "Status:    Review")
	assert.Contains(t, body, "last 30 days")
	assert.Contains(t, body, "Total tickets: 3")
	assert.Contains(t, body, "po_tickets_wf2_x.csv")
	assert.NotContains(t, body, "po_reports/", "attachments are listed by base name")
}

func TestEmailBodyStatusOrderIsStable(t *testing.T) {
	cfg := &config.Config{WorkflowID: 2}
	data := []rows.Enriched{
		{Ticket: firemon.Ticket{Status: firemon.StatusCancelled}},
		{Ticket: firemon.Ticket{Status: firemon.StatusCompleted}},
		{Ticket: firemon.Ticket{Status: firemon.StatusReview}},
	}

	body := emailBody(cfg, data, nil)
	review := strings.Index(body, "Review:")
	completed := strings.Index(body, "Completed:")
	cancelled := strings.Index(body, "Cancelled:")
	require.True(t, review >= 0 && completed >= 0 && cancelled >= 0)
	assert.Less(t, review, completed)
	assert.Less(t, completed, cancelled)
}

func TestWorkflowChoices(t *testing.T) {
	options, ids := workflowChoices([]firemon.Workflow{
		{ID: 2, Name: "Rule Review"},
		{ID: 5, Name: "Cleanup", Disabled: true},
	})

	assert.Equal(t, []string{"Rule Review (id 2)", "Cleanup (id 5) (DISABLED)"}, options)
	assert.Equal(t, []int{2, 5}, ids, "disabled workflows stay selectable")
}
