package support

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// Agent renders the final user-facing reply from an AggregateResult and
// owns the escalation decision. It never talks to the store directly;
// ticket creation goes through the customer-data agent, and rendering uses
// only fields already present in the aggregate.
type Agent struct {
	dataAgent contractx.DataAgent

	mu        sync.Mutex
	escalated map[string]*escalationEntry
}

func New(dataAgent contractx.DataAgent) (*Agent, error) {
	if dataAgent == nil {
		return nil, errors.New("data agent is required")
	}
	return &Agent{
		dataAgent: dataAgent,
		escalated: make(map[string]*escalationEntry, 16),
	}, nil
}

func (a *Agent) Render(ctx context.Context, aggregate *contractx.AggregateResult, intents []contractx.Intent) (contractx.FinalResponse, error) {
	if aggregate == nil {
		return contractx.FinalResponse{}, fmt.Errorf("%w: aggregate is nil", contractx.ErrValidation)
	}
	if len(intents) == 0 {
		return contractx.FinalResponse{}, fmt.Errorf("%w: intent set is empty", contractx.ErrValidation)
	}

	decision := a.escalate(ctx, aggregate, intents)

	var sections []string
	for _, intent := range intents {
		if s := renderIntent(aggregate, intent); s != "" {
			sections = append(sections, s)
		}
	}

	if decision.Triggered {
		sections = append(sections, escalationSection(decision))
	}
	if aggregate.Degraded() {
		sections = append(sections, "Some of your account data could not be retrieved right now, so parts of this answer may be incomplete.")
	}

	summary := buildSummary(aggregate, intents, decision)
	return contractx.FinalResponse{
		Reply:   strings.Join(sections, "\n\n"),
		Summary: summary,
	}, nil
}

func renderIntent(agg *contractx.AggregateResult, intent contractx.Intent) string {
	results := resultsFor(agg, intent)

	switch intent {
	case contractx.IntentLookup:
		return renderLookup(results)
	case contractx.IntentUpgrade:
		return renderUpgrade(results)
	case contractx.IntentBillingDispute:
		return "We have reviewed your billing records." + billingDetail(results)
	case contractx.IntentCancellation:
		return "We have received your cancellation request and reviewed your account." + billingDetail(results)
	case contractx.IntentTicketStatusReport:
		return renderTicketReport(results)
	default:
		return ""
	}
}

func renderLookup(results []contractx.ToolResult) string {
	for _, res := range results {
		if !res.Success {
			continue
		}
		if len(res.Customers) > 0 {
			c := res.Customers[0]
			return fmt.Sprintf("Customer %d: %s <%s>, tier=%s, status=%s.", c.ID, c.Name, c.Email, c.Tier, c.Status)
		}
		if res.Note != "" {
			return "We could not find that customer record: " + res.Note + "."
		}
	}
	return "We could not retrieve that customer record."
}

func renderUpgrade(results []contractx.ToolResult) string {
	for _, res := range results {
		if !res.Success || len(res.Customers) == 0 {
			continue
		}
		c := res.Customers[0]
		return fmt.Sprintf("Upgrade check for %s (tier=%s): %s. Ticket history on file: %d.",
			c.Name, c.Tier, res.Note, len(res.Tickets))
	}
	return "We could not complete the upgrade eligibility check."
}

func billingDetail(results []contractx.ToolResult) string {
	for _, res := range results {
		if res.Success && len(res.Tickets) > 0 {
			return fmt.Sprintf(" There are %d open billing-related tickets on your account.", len(res.Tickets))
		}
	}
	return ""
}

func renderTicketReport(results []contractx.ToolResult) string {
	for _, res := range results {
		if !res.Success || res.Counts == nil {
			continue
		}
		if _, ok := res.Counts["high_priority_open"]; !ok {
			continue
		}
		s := fmt.Sprintf("High-priority open tickets across %d matching customers: %d.",
			res.Counts["customers"], res.Counts["high_priority_open"])
		for _, t := range res.Tickets {
			s += fmt.Sprintf("\n- ticket %d (customer %d): %s", t.ID, t.CustomerID, t.Description)
		}
		return s
	}
	return "The ticket status report could not be completed."
}

func escalationSection(decision contractx.EscalationDecision) string {
	if decision.Failed {
		return "We attempted to escalate your issue but creating the escalation ticket failed. Please contact support directly; this has been recorded."
	}
	return fmt.Sprintf("Your issue has been escalated: a high-priority ticket (#%d) has been created and assigned to our team. Reason: %s.",
		decision.Ticket.ID, decision.Reason)
}

func buildSummary(agg *contractx.AggregateResult, intents []contractx.Intent, decision contractx.EscalationDecision) contractx.ResponseSummary {
	summary := contractx.ResponseSummary{
		QueryID:    agg.QueryID,
		Intents:    intents,
		Escalation: decision,
		Degraded:   agg.Degraded(),
	}

	seen := make(map[int64]struct{}, 8)
	for _, res := range agg.Results {
		for _, t := range res.Tickets {
			if _, dup := seen[t.ID]; !dup {
				seen[t.ID] = struct{}{}
				summary.TicketIDs = append(summary.TicketIDs, t.ID)
			}
		}
	}
	if decision.Ticket != nil {
		if _, dup := seen[decision.Ticket.ID]; !dup {
			summary.TicketIDs = append(summary.TicketIDs, decision.Ticket.ID)
		}
	}
	sort.Slice(summary.TicketIDs, func(i, j int) bool { return summary.TicketIDs[i] < summary.TicketIDs[j] })

	var failed []string
	for id, res := range agg.Results {
		if !res.Success {
			failed = append(failed, id)
		}
	}
	sort.Strings(failed)
	summary.Failures = failed

	return summary
}

func resultsFor(agg *contractx.AggregateResult, intent contractx.Intent) []contractx.ToolResult {
	var ids []string
	for id, in := range agg.Intents {
		if in == intent {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]contractx.ToolResult, 0, len(ids))
	for _, id := range ids {
		out = append(out, agg.Results[id])
	}
	return out
}

var _ contractx.SupportAgent = (*Agent)(nil)
