package dataagent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
	gatewayx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/gateway"
)

// Agent is the customer-data specialist. It turns one SubTask into one or
// more gateway calls and always answers with a ToolResult; gateway errors
// are folded into the result instead of crossing the boundary. It never
// decides to write: CreateTicket and UpdateCustomer only forward explicit
// instructions from the support escalation path.
type Agent struct {
	gateway contractx.Gateway
}

func New(gateway contractx.Gateway) (*Agent, error) {
	if gateway == nil {
		return nil, errors.New("gateway is required")
	}
	return &Agent{gateway: gateway}, nil
}

func (a *Agent) Resolve(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	switch task.Kind {
	case contractx.StepProfile:
		return a.resolveProfile(ctx, task)
	case contractx.StepUpgradeContext:
		return a.resolveUpgradeContext(ctx, task)
	case contractx.StepBillingHistory:
		return a.resolveBillingHistory(ctx, task)
	case contractx.StepCustomerSet:
		return a.resolveCustomerSet(ctx, task)
	case contractx.StepTicketScan:
		return a.resolveTicketScan(ctx, task)
	default:
		return failureResult(string(task.Kind), fmt.Errorf("%w: unknown subtask kind %q", contractx.ErrValidation, task.Kind))
	}
}

func (a *Agent) resolveProfile(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	c, err := a.gateway.GetCustomer(ctx, task.CustomerID)
	if err != nil {
		return failureResult(gatewayx.OpGetCustomer, err)
	}
	res := contractx.ToolResult{Operation: gatewayx.OpGetCustomer, Success: true}
	if c == nil {
		res.Note = fmt.Sprintf("customer %d not found", task.CustomerID)
		return res
	}
	res.Customers = []contractx.Customer{*c}
	return res
}

func (a *Agent) resolveUpgradeContext(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	c, err := a.gateway.GetCustomer(ctx, task.CustomerID)
	if err != nil {
		return failureResult(gatewayx.OpGetCustomer, err)
	}
	if c == nil {
		return contractx.ToolResult{
			Operation: gatewayx.OpGetCustomer,
			Success:   true,
			Note:      fmt.Sprintf("customer %d not found", task.CustomerID),
		}
	}

	history, err := a.gateway.CustomerHistory(ctx, task.CustomerID)
	if err != nil {
		return failureResult(gatewayx.OpCustomerHistory, err)
	}

	note := "not eligible for upgrade"
	if c.Status == "active" && c.Tier != "premium" {
		note = "eligible for upgrade"
	}
	return contractx.ToolResult{
		Operation: gatewayx.OpCustomerHistory,
		Success:   true,
		Customers: []contractx.Customer{*c},
		Tickets:   history,
		Note:      note,
	}
}

func (a *Agent) resolveBillingHistory(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	customer := customerFromContext(task.Context, task.CustomerID)
	if customer == nil {
		c, err := a.gateway.GetCustomer(ctx, task.CustomerID)
		if err != nil {
			return failureResult(gatewayx.OpGetCustomer, err)
		}
		customer = c
	}

	open, err := a.gateway.ListOpenTickets(ctx, task.CustomerID)
	if err != nil {
		return failureResult(gatewayx.OpListOpenTickets, err)
	}

	var billing []contractx.Ticket
	for _, t := range open {
		if t.BillingRelated() {
			billing = append(billing, t)
		}
	}

	res := contractx.ToolResult{
		Operation: gatewayx.OpListOpenTickets,
		Success:   true,
		Tickets:   billing,
	}
	if customer != nil {
		res.Customers = []contractx.Customer{*customer}
		if customer.BillingFlag || len(billing) > 0 {
			res.Note = "unresolved billing issue"
		}
	}
	return res
}

func (a *Agent) resolveCustomerSet(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	filter := contractx.CustomerFilter{}
	if task.Filter != nil {
		filter = *task.Filter
	}
	customers, err := a.gateway.ListCustomers(ctx, filter)
	if err != nil {
		return failureResult(gatewayx.OpListCustomers, err)
	}
	return contractx.ToolResult{
		Operation: gatewayx.OpListCustomers,
		Success:   true,
		Customers: customers,
		Counts:    map[string]int{"customers": len(customers)},
	}
}

// resolveTicketScan fans out one gateway call per customer id from the
// dependency result, concurrently, and merges the tickets into a single
// ToolResult. The first gateway error fails the whole scan.
func (a *Agent) resolveTicketScan(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	if task.Context == nil {
		return failureResult(gatewayx.OpListHighPriorityOpenTickets,
			fmt.Errorf("%w: ticket scan requires a customer set context", contractx.ErrValidation))
	}

	customers := task.Context.Customers
	if len(customers) == 0 {
		return contractx.ToolResult{
			Operation: gatewayx.OpListHighPriorityOpenTickets,
			Success:   true,
			Counts:    map[string]int{"customers": 0, "high_priority_open": 0},
		}
	}

	var mu sync.Mutex
	var merged []contractx.Ticket
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range customers {
		id := c.ID
		g.Go(func() error {
			tickets, err := a.gateway.ListHighPriorityOpenTickets(gctx, []int64{id})
			if err != nil {
				return err
			}
			mu.Lock()
			merged = append(merged, tickets...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return failureResult(gatewayx.OpListHighPriorityOpenTickets, err)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return contractx.ToolResult{
		Operation: gatewayx.OpListHighPriorityOpenTickets,
		Success:   true,
		Customers: customers,
		Tickets:   merged,
		Counts: map[string]int{
			"customers":          len(customers),
			"high_priority_open": len(merged),
		},
	}
}

func (a *Agent) CreateTicket(ctx context.Context, customerID int64, priority contractx.TicketPriority, description string) (contractx.Ticket, error) {
	t, err := a.gateway.CreateTicket(ctx, customerID, priority, description)
	if err != nil {
		return contractx.Ticket{}, fmt.Errorf("forward create ticket: %w", err)
	}
	return t, nil
}

func (a *Agent) UpdateCustomer(ctx context.Context, customerID int64, fields contractx.CustomerUpdate) (*contractx.Customer, error) {
	c, err := a.gateway.UpdateCustomer(ctx, customerID, fields)
	if err != nil {
		return nil, fmt.Errorf("forward update customer: %w", err)
	}
	return c, nil
}

func customerFromContext(depResult *contractx.ToolResult, customerID int64) *contractx.Customer {
	if depResult == nil {
		return nil
	}
	for i := range depResult.Customers {
		if depResult.Customers[i].ID == customerID {
			return &depResult.Customers[i]
		}
	}
	return nil
}

func failureResult(operation string, err error) contractx.ToolResult {
	code := contractx.ToolErrorFailure
	if errors.Is(err, context.DeadlineExceeded) {
		code = contractx.ToolErrorTimeout
	}
	return contractx.ToolResult{
		Operation: operation,
		Success:   false,
		Error: &contractx.ToolError{
			Code:    code,
			Message: err.Error(),
		},
	}
}

var _ contractx.DataAgent = (*Agent)(nil)
