package routernode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// PlanSubTasks decomposes the resolved intent set into SubTasks with
// dependency edges. SubTasks from different intents are independent of
// each other and may dispatch concurrently; edges only exist inside one
// intent's expansion.
func PlanSubTasks(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	var plan []contractx.SubTask
	for _, intent := range in.Intents {
		plan = append(plan, planIntent(intent, in.CustomerID)...)
	}
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}

	in.Plan = plan
	return in, nil
}

func planIntent(intent contractx.Intent, customerID int64) []contractx.SubTask {
	switch intent {
	case contractx.IntentLookup:
		return []contractx.SubTask{{
			ID:         taskID(intent, contractx.StepProfile),
			Intent:     intent,
			Kind:       contractx.StepProfile,
			CustomerID: customerID,
		}}

	case contractx.IntentUpgrade:
		return []contractx.SubTask{{
			ID:         taskID(intent, contractx.StepUpgradeContext),
			Intent:     intent,
			Kind:       contractx.StepUpgradeContext,
			CustomerID: customerID,
		}}

	case contractx.IntentBillingDispute, contractx.IntentCancellation:
		// Billing history is only meaningful once the customer record is
		// in hand, so the history step waits on the profile step.
		profile := contractx.SubTask{
			ID:         taskID(intent, contractx.StepProfile),
			Intent:     intent,
			Kind:       contractx.StepProfile,
			CustomerID: customerID,
		}
		history := contractx.SubTask{
			ID:         taskID(intent, contractx.StepBillingHistory),
			Intent:     intent,
			Kind:       contractx.StepBillingHistory,
			CustomerID: customerID,
			DependsOn:  profile.ID,
		}
		return []contractx.SubTask{profile, history}

	case contractx.IntentTicketStatusReport:
		customerSet := contractx.SubTask{
			ID:     taskID(intent, contractx.StepCustomerSet),
			Intent: intent,
			Kind:   contractx.StepCustomerSet,
			Filter: &contractx.CustomerFilter{Tier: "premium"},
		}
		ticketScan := contractx.SubTask{
			ID:        taskID(intent, contractx.StepTicketScan),
			Intent:    intent,
			Kind:      contractx.StepTicketScan,
			DependsOn: customerSet.ID,
		}
		return []contractx.SubTask{customerSet, ticketScan}

	default:
		return nil
	}
}

func taskID(intent contractx.Intent, kind contractx.SubTaskKind) string {
	return fmt.Sprintf("%s:%s", intent, kind)
}
