package contract

import "context"

type Classifier interface {
	Classify(ctx context.Context, text string) ([]IntentCandidate, error)
}

// DataAgent resolves one SubTask into gateway calls. Resolve never returns
// an error: gateway failures come back inside the ToolResult so the router
// always has something to aggregate. The write methods exist only for
// explicit instructions forwarded from the support escalation path; the
// data agent itself never decides to write.
type DataAgent interface {
	Resolve(ctx context.Context, task SubTask) ToolResult
	CreateTicket(ctx context.Context, customerID int64, priority TicketPriority, description string) (Ticket, error)
	UpdateCustomer(ctx context.Context, customerID int64, fields CustomerUpdate) (*Customer, error)
}

type SupportAgent interface {
	Render(ctx context.Context, aggregate *AggregateResult, intents []Intent) (FinalResponse, error)
}

// Gateway is the fixed tool-invocation boundary in front of the store.
// Every operation is idempotent except CreateTicket. A missing record is
// an empty result, not an error.
type Gateway interface {
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilter) ([]Customer, error)
	ListOpenTickets(ctx context.Context, customerID int64) ([]Ticket, error)
	ListHighPriorityOpenTickets(ctx context.Context, customerIDs []int64) ([]Ticket, error)
	CreateTicket(ctx context.Context, customerID int64, priority TicketPriority, description string) (Ticket, error)
	UpdateTicket(ctx context.Context, ticketID int64, fields TicketUpdate) (Ticket, error)
	CustomerHistory(ctx context.Context, customerID int64) ([]Ticket, error)
	UpdateCustomer(ctx context.Context, id int64, fields CustomerUpdate) (*Customer, error)
}
