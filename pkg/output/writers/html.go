package writers

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/poreport/poreport/pkg/fields"
	"github.com/poreport/poreport/pkg/firemon"
	"github.com/poreport/poreport/pkg/rows"
)

//go:embed templates/report.html
var reportTemplate string

// HTMLConfig configures the HTML renderer.
type HTMLConfig struct {
	// Title is the document title (default: "Policy Optimizer Tickets Report").
	Title string

	// BaseURL is the appliance host base, used for ticket/device/rule
	// links. Empty disables links (they render as "#").
	BaseURL string

	// DefaultWorkflowID is used for ticket links when a ticket does not
	// carry its workflow reference.
	DefaultWorkflowID int

	// MaxDocValueLen truncates visible doc values; the full value stays
	// in the cell's hover title (default: 100).
	MaxDocValueLen int
}

// htmlColumn is one table header cell.
type htmlColumn struct {
	Name      string
	Class     string
	Sort      string // "text", "date" or "int"; drives client-side sorting
	TitleAttr string
}

// htmlCell is one variable (detail or doc) body cell.
type htmlCell struct {
	Value string
	Title string
}

// htmlRow is one ticket row.
type htmlRow struct {
	TicketURL         string
	BusinessKey       string
	CreatedDate       string
	CreatedBy         string
	CompletedDate     string
	AssigneeCompleted string
	Status            string
	StatusClass       string
	DeviceURL         string
	DeviceName        string
	PolicyName        string
	RuleNumber        string
	RuleURL           string
	RuleName          string
	Extra             []htmlCell
}

// htmlData is the full template payload.
type htmlData struct {
	Title        string
	GeneratedAt  time.Time
	Total        int
	Review       int
	Completed    int
	Cancelled    int
	MinWidth     int
	BodyMinWidth int
	Columns      []htmlColumn
	Rows         []htmlRow
}

// fixedHTMLColumns is the table layout before the selected detail and
// doc columns. The order differs from the CSV contract: the HTML view
// groups people and dates together for review triage. The status
// column must stay at index 5; the client-side status filter reads it
// by position.
var fixedHTMLColumns = []htmlColumn{
	{Name: "Ticket ID", Sort: "text"},
	{Name: "Created Date", Sort: "date"},
	{Name: "Created By", Sort: "text"},
	{Name: "Processed Date", Sort: "date"},
	{Name: "Assignee/Completed By", Sort: "text"},
	{Name: "Status", Sort: "text"},
	{Name: "Device Name", Sort: "text"},
	{Name: "Policy Name", Sort: "text"},
	{Name: "Rule #", Sort: "int"},
	{Name: "Rule Name", Sort: "text"},
}

// RenderHTML writes one self-contained HTML document: summary cards,
// free-text and status filtering, per-column type-aware sorting, all
// executed client-side. Summary counts are computed here, independent
// of the CSV pass.
func RenderHTML(w io.Writer, cfg HTMLConfig, p *rows.Projector, data []rows.Enriched) error {
	if cfg.Title == "" {
		cfg.Title = "Policy Optimizer Tickets Report"
	}
	if cfg.MaxDocValueLen <= 0 {
		cfg.MaxDocValueLen = 100
	}

	tmpl, err := template.New("report").Funcs(sprig.HtmlFuncMap()).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("html: parse template: %w", err)
	}

	d := htmlData{
		Title:       cfg.Title,
		GeneratedAt: time.Now(),
		Total:       len(data),
		Columns:     buildColumns(p),
	}
	for _, e := range data {
		switch e.Ticket.Status {
		case firemon.StatusReview:
			d.Review++
		case firemon.StatusCompleted:
			d.Completed++
		case firemon.StatusCancelled:
			d.Cancelled++
		}
		d.Rows = append(d.Rows, buildRow(cfg, p, e))
	}

	d.MinWidth = 1400
	if wide := len(d.Columns) * 120; wide > d.MinWidth {
		d.MinWidth = wide
	}
	d.BodyMinWidth = d.MinWidth + 40

	if err := tmpl.Execute(w, d); err != nil {
		return fmt.Errorf("html: render: %w", err)
	}
	return nil
}

func buildColumns(p *rows.Projector) []htmlColumn {
	cols := make([]htmlColumn, 0, len(fixedHTMLColumns)+len(p.DetailFields())+len(p.DocKeys()))
	cols = append(cols, fixedHTMLColumns...)
	for _, f := range p.DetailFields() {
		cols = append(cols, htmlColumn{
			Name:  fields.DetailHeader(f),
			Class: "detail-header",
			Sort:  "text",
		})
	}
	for _, k := range p.DocKeys() {
		cols = append(cols, htmlColumn{
			Name:      fields.TitleCase(strings.ReplaceAll(k, "_", " ")),
			Class:     "prop-header",
			Sort:      "text",
			TitleAttr: "Rule Doc: " + k,
		})
	}
	return cols
}

func buildRow(cfg HTMLConfig, p *rows.Projector, e rows.Enriched) htmlRow {
	t := e.Ticket
	v := t.Variables

	ruleName := rows.Placeholder
	if e.Detail != nil && e.Detail.RuleName != "" {
		ruleName = e.Detail.RuleName
	}

	r := htmlRow{
		TicketURL:         ticketURL(cfg, t),
		BusinessKey:       orNA(t.BusinessKey),
		CreatedDate:       rows.FormatCreated(t.CreatedDate),
		CreatedBy:         t.CreatedBy.Name(),
		CompletedDate:     rows.FormatCompleted(t.Completed),
		AssigneeCompleted: rows.AssigneeOrCompleter(t),
		Status:            orNA(t.Status),
		StatusClass:       "status-" + strings.ToLower(t.Status),
		DeviceURL:         deviceURL(cfg, v),
		DeviceName:        orNA(v.DeviceName),
		PolicyName:        v.PolicyLabel(),
		RuleNumber:        orNA(v.RuleNumber.String()),
		RuleURL:           ruleURL(cfg, v),
		RuleName:          ruleName,
	}

	for _, f := range p.DetailFields() {
		r.Extra = append(r.Extra, htmlCell{Value: rows.DetailValue(e.Detail, f)})
	}
	for _, k := range p.DocKeys() {
		full := rows.DocValue(e.Detail, k)
		cell := htmlCell{Value: full}
		if len([]rune(full)) > cfg.MaxDocValueLen {
			cell.Value = string([]rune(full)[:cfg.MaxDocValueLen]) + "..."
			cell.Title = full
		}
		r.Extra = append(r.Extra, cell)
	}
	return r
}

func ticketURL(cfg HTMLConfig, t firemon.Ticket) string {
	if cfg.BaseURL == "" {
		return "#"
	}
	return fmt.Sprintf("%s/policyoptimizer/#/domain/1/workflow/%d/review/%d/view",
		cfg.BaseURL, t.WorkflowID(cfg.DefaultWorkflowID), t.ID)
}

func deviceURL(cfg HTMLConfig, v firemon.Variables) string {
	if cfg.BaseURL == "" || v.DeviceID == "" {
		return "#"
	}
	return fmt.Sprintf("%s/securitymanager/#/domain/1/device/%s/dashboard", cfg.BaseURL, v.DeviceID)
}

func ruleURL(cfg HTMLConfig, v firemon.Variables) string {
	if cfg.BaseURL == "" || !v.HasRuleRef() {
		return "#"
	}
	return fmt.Sprintf("%s/securitymanager/#/domain/1/device/%s/policy/%s/rule/%s/dashboard?usageDays=30",
		cfg.BaseURL, v.DeviceID, v.PolicyGUID, v.RuleGUID)
}

func orNA(s string) string {
	if s == "" {
		return rows.Placeholder
	}
	return s
}
