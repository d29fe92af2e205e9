package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// MemoryGateway is an in-process Gateway backed by maps. It is the demo
// and test store; the Postgres gateway is the production one. A single
// mutex serializes writes, which also satisfies the per-ticket
// serialization requirement.
type MemoryGateway struct {
	mu           sync.RWMutex
	customers    map[int64]contractx.Customer
	tickets      map[int64]contractx.Ticket
	nextTicketID int64

	now func() time.Time
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		customers:    make(map[int64]contractx.Customer, 16),
		tickets:      make(map[int64]contractx.Ticket, 32),
		nextTicketID: 1,
		now:          time.Now,
	}
}

// Seed loads the demo data set: a handful of active customers, one premium
// customer with a high-priority open ticket, and one customer carrying an
// unresolved billing flag.
func (g *MemoryGateway) Seed() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	for _, c := range []contractx.Customer{
		{ID: 1, Name: "Alice Nakhon", Email: "alice@example.com", Tier: "standard", Status: "active", CreatedAt: now},
		{ID: 3, Name: "Chai Somboon", Email: "chai@example.com", Tier: "standard", Status: "active", BillingFlag: true, CreatedAt: now},
		{ID: 5, Name: "Elena Petrova", Email: "elena@example.com", Tier: "standard", Status: "active", CreatedAt: now},
		{ID: 7, Name: "Gan Disabled", Email: "gan@example.com", Tier: "standard", Status: "disabled", CreatedAt: now},
		{ID: 12345, Name: "Pat Premium", Email: "pat@example.com", Tier: "premium", Status: "active", CreatedAt: now},
	} {
		g.customers[c.ID] = c
	}

	seedTickets := []contractx.Ticket{
		{CustomerID: 3, Priority: contractx.PriorityNormal, Status: contractx.TicketOpen, Description: "Double charge on monthly bill"},
		{CustomerID: 5, Priority: contractx.PriorityNormal, Status: contractx.TicketClosed, Description: "Password reset"},
		{CustomerID: 12345, Priority: contractx.PriorityHigh, Status: contractx.TicketOpen, Description: "Service outage on premium plan"},
		{CustomerID: 12345, Priority: contractx.PriorityNormal, Status: contractx.TicketOpen, Description: "Feature request"},
	}
	for _, t := range seedTickets {
		t.ID = g.nextTicketID
		t.CreatedAt = now
		g.nextTicketID++
		g.tickets[t.ID] = t
	}
}

func (g *MemoryGateway) GetCustomer(ctx context.Context, id int64) (*contractx.Customer, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.customers[id]
	if !ok {
		return nil, nil
	}
	out := c
	return &out, nil
}

func (g *MemoryGateway) ListCustomers(ctx context.Context, filter contractx.CustomerFilter) ([]contractx.Customer, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]contractx.Customer, 0, len(g.customers))
	for _, c := range g.customers {
		if filter.Tier != "" && !strings.EqualFold(c.Tier, filter.Tier) {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(c.Status, filter.Status) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (g *MemoryGateway) ListOpenTickets(ctx context.Context, customerID int64) ([]contractx.Ticket, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []contractx.Ticket
	for _, t := range g.tickets {
		if t.CustomerID == customerID && t.Status == contractx.TicketOpen {
			out = append(out, t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (g *MemoryGateway) ListHighPriorityOpenTickets(ctx context.Context, customerIDs []int64) ([]contractx.Ticket, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(customerIDs))
	for _, id := range customerIDs {
		wanted[id] = struct{}{}
	}

	var out []contractx.Ticket
	for _, t := range g.tickets {
		if _, ok := wanted[t.CustomerID]; !ok {
			continue
		}
		if t.Status == contractx.TicketOpen && t.Priority == contractx.PriorityHigh {
			out = append(out, t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (g *MemoryGateway) CreateTicket(ctx context.Context, customerID int64, priority contractx.TicketPriority, description string) (contractx.Ticket, error) {
	if priority != contractx.PriorityNormal && priority != contractx.PriorityHigh {
		return contractx.Ticket{}, fmt.Errorf("%w: unknown priority %q", contractx.ErrValidation, priority)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	t := contractx.Ticket{
		ID:          g.nextTicketID,
		CustomerID:  customerID,
		Priority:    priority,
		Status:      contractx.TicketOpen,
		Description: description,
		CreatedAt:   g.now().UTC(),
	}
	g.nextTicketID++
	g.tickets[t.ID] = t
	return t, nil
}

func (g *MemoryGateway) UpdateTicket(ctx context.Context, ticketID int64, fields contractx.TicketUpdate) (contractx.Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t, ok := g.tickets[ticketID]
	if !ok {
		return contractx.Ticket{}, fmt.Errorf("%w: id=%d", contractx.ErrTicketNotFound, ticketID)
	}
	if fields.Priority != nil {
		t.Priority = *fields.Priority
	}
	if fields.Status != nil {
		t.Status = *fields.Status
	}
	g.tickets[ticketID] = t
	return t, nil
}

func (g *MemoryGateway) CustomerHistory(ctx context.Context, customerID int64) ([]contractx.Ticket, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []contractx.Ticket
	for _, t := range g.tickets {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	sortTickets(out)
	return out, nil
}

func (g *MemoryGateway) UpdateCustomer(ctx context.Context, id int64, fields contractx.CustomerUpdate) (*contractx.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.customers[id]
	if !ok {
		return nil, nil
	}
	if fields.Name != nil {
		c.Name = *fields.Name
	}
	if fields.Email != nil {
		c.Email = *fields.Email
	}
	if fields.Status != nil {
		c.Status = *fields.Status
	}
	g.customers[id] = c
	out := c
	return &out, nil
}

// newest first, id as tie-breaker so ordering is stable in tests
func sortTickets(ts []contractx.Ticket) {
	sort.Slice(ts, func(i, j int) bool {
		if !ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
			return ts[i].CreatedAt.After(ts[j].CreatedAt)
		}
		return ts[i].ID > ts[j].ID
	})
}

var _ contractx.Gateway = (*MemoryGateway)(nil)
