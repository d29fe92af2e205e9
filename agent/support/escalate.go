package support

import (
	"context"
	"fmt"
	"sync"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

const unresolvedBillingNote = "unresolved billing issue"

// escalationEntry holds the one decision a query id may ever produce.
// The Once guards the ticket creation; concurrent renders of the same
// query block on it and share the result.
type escalationEntry struct {
	once     sync.Once
	decision contractx.EscalationDecision
}

// escalate evaluates the escalation criteria once per query. Re-rendering
// the same aggregate, concurrently or later, returns the recorded decision
// instead of creating a second ticket.
func (a *Agent) escalate(ctx context.Context, agg *contractx.AggregateResult, intents []contractx.Intent) contractx.EscalationDecision {
	triggered, reason := escalationTrigger(agg, intents)
	if !triggered {
		return contractx.EscalationDecision{}
	}

	a.mu.Lock()
	entry, ok := a.escalated[agg.QueryID]
	if !ok {
		entry = &escalationEntry{}
		a.escalated[agg.QueryID] = entry
	}
	a.mu.Unlock()

	entry.once.Do(func() {
		decision := contractx.EscalationDecision{Triggered: true, Reason: reason}
		ticket, err := a.dataAgent.CreateTicket(ctx, escalationCustomerID(agg, intents), contractx.PriorityHigh, "Escalation: "+reason)
		if err != nil {
			// EscalationFailed must reach the user, never be dropped.
			decision.Failed = true
		} else {
			decision.Ticket = &ticket
		}
		entry.decision = decision
	})
	return entry.decision
}

// Triggered when a billing-dispute or cancellation intent has either an
// unresolved billing signal on its payload, or a failed ToolResult. A
// data-layer failure on those intents escalates instead of dead-ending.
func escalationTrigger(agg *contractx.AggregateResult, intents []contractx.Intent) (bool, string) {
	for _, intent := range intents {
		if intent != contractx.IntentBillingDispute && intent != contractx.IntentCancellation {
			continue
		}
		for _, res := range resultsFor(agg, intent) {
			if !res.Success {
				return true, fmt.Sprintf("data unavailable while handling %s", intent)
			}
			if res.Note == unresolvedBillingNote {
				return true, fmt.Sprintf("unresolved billing issue on %s request", intent)
			}
			for _, c := range res.Customers {
				if c.BillingFlag {
					return true, fmt.Sprintf("billing flag set on customer %d", c.ID)
				}
			}
		}
	}
	return false, ""
}

// escalationCustomerID prefers the customer record carried by a triggering
// result; when every data step failed, the id resolved at request
// validation keeps the ticket attributed to the right account.
func escalationCustomerID(agg *contractx.AggregateResult, intents []contractx.Intent) int64 {
	for _, intent := range intents {
		if intent != contractx.IntentBillingDispute && intent != contractx.IntentCancellation {
			continue
		}
		for _, res := range resultsFor(agg, intent) {
			if len(res.Customers) > 0 {
				return res.Customers[0].ID
			}
		}
	}
	return agg.CustomerID
}
