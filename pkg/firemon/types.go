package firemon

import (
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
)

// FlexString decodes a JSON string, number, boolean or null into a
// string. The appliance is loose about scalar types: device ids arrive
// as numbers on some versions and strings on others, and documentation
// property values can be anything.
type FlexString string

// UnmarshalJSONFrom implements custom decoding for jsonutil/json.
func (f *FlexString) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	if k := dec.PeekKind(); k == '[' || k == '{' {
		// Arrays and objects have no scalar rendering.
		*f = ""
		return dec.SkipValue()
	}
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	switch tok.Kind() {
	case '"':
		*f = FlexString(tok.String())
	case '0':
		v := tok.Float()
		if v == float64(int64(v)) {
			*f = FlexString(strconv.FormatInt(int64(v), 10))
		} else {
			*f = FlexString(strconv.FormatFloat(v, 'f', -1, 64))
		}
	case 't', 'f':
		*f = FlexString(strconv.FormatBool(tok.Bool()))
	default: // null
		*f = ""
	}
	return nil
}

// String returns the decoded value.
func (f FlexString) String() string { return string(f) }

// Identity is an appliance user reference attached to a ticket.
type Identity struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Name returns the display name, falling back to the username, falling
// back to "N/A".
func (i *Identity) Name() string {
	if i == nil {
		return "N/A"
	}
	if i.DisplayName != "" {
		return i.DisplayName
	}
	if i.Username != "" {
		return i.Username
	}
	return "N/A"
}

// Ticket statuses used by the Policy Optimizer workflow.
const (
	StatusReview    = "Review"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Variables is the per-ticket variable bag identifying the rule under
// review.
type Variables struct {
	DeviceID          FlexString `json:"deviceId"`
	DeviceName        string     `json:"deviceName"`
	PolicyName        string     `json:"policyName"`
	PolicyDisplayName string     `json:"policyDisplayName"`
	RuleNumber        FlexString `json:"ruleNumber"`
	RuleGUID          string     `json:"ruleGuid"`
	PolicyGUID        string     `json:"policyGuid"`
}

// PolicyLabel returns the display name when present, else the raw
// policy name, else "N/A".
func (v Variables) PolicyLabel() string {
	if v.PolicyDisplayName != "" {
		return v.PolicyDisplayName
	}
	if v.PolicyName != "" {
		return v.PolicyName
	}
	return "N/A"
}

// HasRuleRef reports whether the ticket carries the full (device,
// policy, rule) triple needed for a rule-detail lookup.
func (v Variables) HasRuleRef() bool {
	return v.DeviceID != "" && v.PolicyGUID != "" && v.RuleGUID != ""
}

// Workflow is an approval pipeline that review tickets belong to.
type Workflow struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

// WorkflowVersion links a ticket back to its workflow.
type WorkflowVersion struct {
	Workflow Workflow `json:"workflow"`
}

// Ticket is one rule-review request moving through workflow states.
type Ticket struct {
	ID              int64            `json:"id"`
	BusinessKey     string           `json:"businessKey"`
	Status          string           `json:"status"`
	CreatedDate     string           `json:"createdDate"`
	Completed       string           `json:"completed"`
	Assignee        *Identity        `json:"assignee"`
	CompletedBy     *Identity        `json:"completedBy"`
	CreatedBy       *Identity        `json:"createdBy"`
	Variables       Variables        `json:"variables"`
	WorkflowVersion *WorkflowVersion `json:"workflowVersion"`
}

// WorkflowID returns the ticket's workflow id, or def when the link is
// absent.
func (t Ticket) WorkflowID(def int) int {
	if t.WorkflowVersion != nil && t.WorkflowVersion.Workflow.ID != 0 {
		return t.WorkflowVersion.Workflow.ID
	}
	return def
}

// NetworkObject is a named source, destination or application entry on
// a rule.
type NetworkObject struct {
	DisplayName string `json:"displayName"`
}

// ServiceEntry is one formatted service value inside a service group.
type ServiceEntry struct {
	FormattedValue string `json:"formattedValue"`
}

// ServiceGroup wraps the nested service entries the rule search returns.
type ServiceGroup struct {
	Services []ServiceEntry `json:"services"`
}

// RuleDetail is the structural configuration and documentation of one
// firewall rule. Props is open-ended: its key set differs per install
// and must be discovered by scanning all fetched rules.
type RuleDetail struct {
	RuleName     string                `json:"ruleName"`
	RuleAction   string                `json:"ruleAction"`
	Sources      []NetworkObject       `json:"sources"`
	Destinations []NetworkObject       `json:"destinations"`
	Services     []ServiceGroup        `json:"services"`
	Apps         []NetworkObject       `json:"apps"`
	Props        map[string]FlexString `json:"props"`
}

// pagedResults is the envelope every search endpoint wraps results in.
type pagedResults[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}
