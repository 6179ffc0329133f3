// Package fields tracks which rule fields a report includes: the fixed
// set of structural detail fields, and the open-ended documentation
// property keys that can only be learned by scanning every enriched
// rule in the run.
package fields

import (
	"slices"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DetailFields is the closed set of structural rule fields a report can
// include, in canonical column order.
var DetailFields = []string{"source", "destination", "service", "application", "action"}

// Selection captures the caller's field intent. A nil requested list
// means "all": all detail fields, or all discovered doc keys.
type Selection struct {
	IncludeDetails bool
	IncludeDocs    bool

	detail []string
	doc    []string
}

// NewSelection validates the requested detail fields against
// DetailFields (unknown names are dropped, requested order kept) and
// records the requested doc keys verbatim. A non-nil request whose
// entries are all unknown selects no detail columns; only a nil
// request means "all".
func NewSelection(includeDetails, includeDocs bool, detail, doc []string) Selection {
	s := Selection{
		IncludeDetails: includeDetails,
		IncludeDocs:    includeDocs,
	}
	if detail != nil {
		s.detail = make([]string, 0, len(detail))
		for _, f := range detail {
			if slices.Contains(DetailFields, f) {
				s.detail = append(s.detail, f)
			}
		}
	}
	s.doc = doc
	return s
}

// Detail returns the detail fields this run renders, in order. Empty
// when details are not included.
func (s Selection) Detail() []string {
	if !s.IncludeDetails {
		return nil
	}
	if s.detail == nil {
		return DetailFields
	}
	return s.detail
}

// DocRequested returns the raw requested doc keys (nil means all).
func (s Selection) DocRequested() []string { return s.doc }

// NeedsEnrichment reports whether any selected column requires a
// rule-detail lookup.
func (s Selection) NeedsEnrichment() bool {
	return s.IncludeDetails || s.IncludeDocs
}

// Discovery accumulates the documentation property keys observed across
// all enriched rules in a run. The report column set cannot be known
// per-row, so callers scan first and render second.
type Discovery struct {
	keys map[string]struct{}
}

// NewDiscovery returns an empty Discovery.
func NewDiscovery() *Discovery {
	return &Discovery{keys: make(map[string]struct{})}
}

// ObserveKeys records the keys of one rule's props map.
func ObserveKeys[V any](d *Discovery, props map[string]V) {
	for k := range props {
		d.keys[k] = struct{}{}
	}
}

// Seen reports whether key was observed in this run.
func (d *Discovery) Seen(key string) bool {
	_, ok := d.keys[key]
	return ok
}

// Keys returns all observed keys, sorted.
func (d *Discovery) Keys() []string {
	out := make([]string, 0, len(d.keys))
	for k := range d.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DocColumns resolves the doc column set for a run: the requested
// subset intersected with the observed keys (requested order kept), or
// every observed key sorted when nothing specific was requested.
// Requested keys never observed are returned as missing so the run can
// report them.
func (s Selection) DocColumns(d *Discovery) (cols, missing []string) {
	if !s.IncludeDocs || d == nil {
		return nil, nil
	}
	if s.doc == nil {
		return d.Keys(), nil
	}
	for _, k := range s.doc {
		if d.Seen(k) {
			cols = append(cols, k)
		} else {
			missing = append(missing, k)
		}
	}
	return cols, missing
}

// TitleCase renders s with each word capitalized.
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// DetailHeader renders a detail field name as a column header
// ("source" -> "Source").
func DetailHeader(field string) string {
	return TitleCase(field)
}

// DocHeader renders a doc property key as a column header
// ("change_control_number" -> "Rule Doc: Change Control Number").
func DocHeader(key string) string {
	return "Rule Doc: " + TitleCase(strings.ReplaceAll(key, "_", " "))
}
