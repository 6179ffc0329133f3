// Package rows projects (ticket, optional rule detail) pairs into the
// flat named-value rows both report renderers consume. Rows are
// transient: they exist only for the duration of rendering.
package rows

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poreport/poreport/pkg/fields"
	"github.com/poreport/poreport/pkg/firemon"
)

// Placeholder is rendered for any field whose source data or enrichment
// is absent.
const Placeholder = "N/A"

// timestampLayout is the display format for ticket dates.
const timestampLayout = "2006-01-02 15:04:05"

// FixedHeaders is the column set every report carries before the
// selected detail and doc columns.
var FixedHeaders = []string{
	"Ticket ID", "Created Date", "Completed Date", "Status",
	"Device Name", "Device ID", "Policy Name", "Rule Number", "Rule Name",
	"Assignee/Completed By", "Created By",
}

// DetailSource resolves one rule's configuration. *firemon.Client
// satisfies it; tests substitute fakes.
type DetailSource interface {
	RuleDetail(ctx context.Context, deviceID, policyGUID, ruleGUID string) (*firemon.RuleDetail, error)
}

// Enriched pairs a ticket with its optional rule detail.
type Enriched struct {
	Ticket firemon.Ticket
	Detail *firemon.RuleDetail
}

// Collect runs the enrichment scan: one rule-detail lookup per ticket
// that carries a full rule reference, observed doc keys accumulated
// along the way. Lookup failures are soft; the ticket keeps a nil
// Detail and renders placeholders. Tickets missing any of deviceId,
// policyGuid or ruleGuid are skipped outright.
func Collect(ctx context.Context, src DetailSource, tickets []firemon.Ticket, sel fields.Selection, log *slog.Logger) ([]Enriched, *fields.Discovery) {
	if log == nil {
		log = slog.Default()
	}
	disc := fields.NewDiscovery()
	out := make([]Enriched, 0, len(tickets))

	for _, t := range tickets {
		e := Enriched{Ticket: t}
		if sel.NeedsEnrichment() && t.Variables.HasRuleRef() {
			rd, err := src.RuleDetail(ctx,
				t.Variables.DeviceID.String(), t.Variables.PolicyGUID, t.Variables.RuleGUID)
			if err != nil {
				log.Warn("rule detail lookup failed",
					slog.String("ticket", t.BusinessKey),
					slog.String("error", err.Error()))
			} else {
				e.Detail = rd
				if sel.IncludeDocs {
					fields.ObserveKeys(disc, rd.Props)
				}
			}
		}
		out = append(out, e)
	}
	return out, disc
}

// Projector maps enriched tickets into ordered rows against a column
// set resolved once per run.
type Projector struct {
	sel     fields.Selection
	detail  []string
	docKeys []string
	missing []string
}

// NewProjector resolves the run's column set from the selection and the
// doc keys discovered during the enrichment scan.
func NewProjector(sel fields.Selection, disc *fields.Discovery) *Projector {
	p := &Projector{sel: sel, detail: sel.Detail()}
	p.docKeys, p.missing = sel.DocColumns(disc)
	return p
}

// Headers returns the full ordered header list: fixed columns, then
// selected detail columns, then doc columns.
func (p *Projector) Headers() []string {
	out := make([]string, 0, len(FixedHeaders)+len(p.detail)+len(p.docKeys))
	out = append(out, FixedHeaders...)
	for _, f := range p.detail {
		out = append(out, fields.DetailHeader(f))
	}
	for _, k := range p.docKeys {
		out = append(out, fields.DocHeader(k))
	}
	return out
}

// DetailFields returns the detail field names rendered this run.
func (p *Projector) DetailFields() []string { return p.detail }

// DocKeys returns the doc property keys rendered this run.
func (p *Projector) DocKeys() []string { return p.docKeys }

// MissingDocFields returns the requested doc keys never observed in
// this run; they are dropped from the report and surfaced to the user.
func (p *Projector) MissingDocFields() []string { return p.missing }

// Row projects one enriched ticket into cells matching Headers.
func (p *Projector) Row(e Enriched) []string {
	t := e.Ticket
	rd := e.Detail

	ruleName := Placeholder
	if rd != nil && rd.RuleName != "" {
		ruleName = rd.RuleName
	}

	out := make([]string, 0, len(FixedHeaders)+len(p.detail)+len(p.docKeys))
	out = append(out,
		orPlaceholder(t.BusinessKey),
		FormatCreated(t.CreatedDate),
		FormatCompleted(t.Completed),
		orPlaceholder(t.Status),
		orPlaceholder(t.Variables.DeviceName),
		orPlaceholder(t.Variables.DeviceID.String()),
		t.Variables.PolicyLabel(),
		orPlaceholder(t.Variables.RuleNumber.String()),
		ruleName,
		AssigneeOrCompleter(t),
		t.CreatedBy.Name(),
	)

	for _, f := range p.detail {
		out = append(out, DetailValue(rd, f))
	}
	for _, k := range p.docKeys {
		out = append(out, DocValue(rd, k))
	}
	return out
}

// FormatCreated reformats a created timestamp for display; absent
// renders the placeholder, unparseable is left as-is.
func FormatCreated(s string) string {
	if s == "" {
		return Placeholder
	}
	return formatTimestamp(s)
}

// FormatCompleted reformats a completion timestamp; absent renders
// empty (an in-review ticket simply has no completion date).
func FormatCompleted(s string) string {
	if s == "" {
		return ""
	}
	return formatTimestamp(s)
}

func formatTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format(timestampLayout)
}

// AssigneeOrCompleter surfaces the identity relevant to the ticket's
// state: the assignee while in review, the completer once completed or
// cancelled.
func AssigneeOrCompleter(t firemon.Ticket) string {
	switch t.Status {
	case firemon.StatusReview:
		return t.Assignee.Name()
	case firemon.StatusCompleted, firemon.StatusCancelled:
		return t.CompletedBy.Name()
	default:
		return Placeholder
	}
}

// DetailValue renders one structural field of a rule. A nil detail
// renders the placeholder.
func DetailValue(rd *firemon.RuleDetail, field string) string {
	if rd == nil {
		return Placeholder
	}
	switch field {
	case "source":
		return joinObjects(rd.Sources)
	case "destination":
		return joinObjects(rd.Destinations)
	case "service":
		return joinServices(rd.Services)
	case "application":
		return joinApps(rd.Apps)
	case "action":
		return orPlaceholder(rd.RuleAction)
	default:
		return Placeholder
	}
}

// DocValue renders one documentation property. A key present with an
// empty value renders empty; an absent key or nil detail renders the
// placeholder.
func DocValue(rd *firemon.RuleDetail, key string) string {
	if rd == nil {
		return Placeholder
	}
	v, ok := rd.Props[key]
	if !ok {
		return Placeholder
	}
	return v.String()
}

// joinObjects joins display names with commas. An empty list means the
// rule is unrestricted and renders "Any".
func joinObjects(objs []firemon.NetworkObject) string {
	if len(objs) == 0 {
		return "Any"
	}
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = orPlaceholder(o.DisplayName)
	}
	return strings.Join(names, ", ")
}

// joinApps joins application names, dropping entries literally named
// "Any" to keep the column readable. A list that empties out (or was
// empty) renders "Any".
func joinApps(apps []firemon.NetworkObject) string {
	var names []string
	for _, a := range apps {
		if a.DisplayName == "Any" {
			continue
		}
		names = append(names, orPlaceholder(a.DisplayName))
	}
	if len(names) == 0 {
		return "Any"
	}
	return strings.Join(names, ", ")
}

// joinServices flattens the nested service groups into their formatted
// values.
func joinServices(groups []firemon.ServiceGroup) string {
	var names []string
	for _, g := range groups {
		for _, e := range g.Services {
			names = append(names, orPlaceholder(e.FormattedValue))
		}
	}
	if len(names) == 0 {
		return "Any"
	}
	return strings.Join(names, ", ")
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
