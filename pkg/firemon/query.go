package firemon

import (
	"fmt"
	"strings"
)

// TicketQuery builds the SIQL filter expression for the review
// paged-search endpoint. A status of "" or "all" (any case) means no
// status predicate; days <= 0 means no created-date predicate.
func TicketQuery(workflowID int, status string, days int) string {
	statusFiltered := status != "" && !strings.EqualFold(status, "all")

	switch {
	case days > 0 && statusFiltered:
		return fmt.Sprintf("review { (workflow = %d AND status = '%s' AND created ~ DATE('-%d days')) }",
			workflowID, status, days)
	case days > 0:
		return fmt.Sprintf("review { (workflow = %d AND created ~ DATE('-%d days')) }", workflowID, days)
	case statusFiltered:
		return fmt.Sprintf("review { workflow = %d AND status = '%s' }", workflowID, status)
	default:
		return fmt.Sprintf("review { workflow = %d }", workflowID)
	}
}

// RuleQuery builds the SIQL expression for a single rule lookup,
// selecting the documentation props alongside the structural fields.
func RuleQuery(deviceID, policyGUID, ruleGUID string) string {
	return fmt.Sprintf(
		"domain{id=1} and device{id=%s} and policy{uid='%s'} and rule{uid='%s'} | fields(tfacount, props, controlstat, usage(date('last 30 days')), change, highlight)",
		deviceID, policyGUID, ruleGUID)
}
