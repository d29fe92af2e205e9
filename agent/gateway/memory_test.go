package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

func TestMemoryGatewayGetCustomerNotFoundIsEmptySuccess(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()

	c, err := g.GetCustomer(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetCustomer error: %v", err)
	}
	if c != nil {
		t.Fatalf("want nil customer for unknown id, got %+v", c)
	}
}

func TestMemoryGatewayCreateTicketRoundTrip(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()
	ctx := context.Background()

	created, err := g.CreateTicket(ctx, 1, contractx.PriorityHigh, "Escalation: unresolved billing issue")
	if err != nil {
		t.Fatalf("CreateTicket error: %v", err)
	}
	if created.ID == 0 || created.Status != contractx.TicketOpen {
		t.Fatalf("unexpected created ticket: %+v", created)
	}

	open, err := g.ListOpenTickets(ctx, 1)
	if err != nil {
		t.Fatalf("ListOpenTickets error: %v", err)
	}
	if len(open) != 1 || open[0].ID != created.ID {
		t.Fatalf("created ticket not listed, got %+v", open)
	}

	high, err := g.ListHighPriorityOpenTickets(ctx, []int64{1})
	if err != nil {
		t.Fatalf("ListHighPriorityOpenTickets error: %v", err)
	}
	if len(high) != 1 || high[0].Priority != contractx.PriorityHigh {
		t.Fatalf("high-priority listing = %+v", high)
	}
}

func TestMemoryGatewayCreateTicketRejectsUnknownPriority(t *testing.T) {
	g := NewMemoryGateway()
	_, err := g.CreateTicket(context.Background(), 1, contractx.TicketPriority("urgent"), "bad")
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestMemoryGatewayListCustomersFilters(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()
	ctx := context.Background()

	premium, err := g.ListCustomers(ctx, contractx.CustomerFilter{Tier: "premium"})
	if err != nil {
		t.Fatalf("ListCustomers error: %v", err)
	}
	if len(premium) != 1 || premium[0].ID != 12345 {
		t.Fatalf("premium filter = %+v", premium)
	}

	active, err := g.ListCustomers(ctx, contractx.CustomerFilter{Status: "active", Limit: 2})
	if err != nil {
		t.Fatalf("ListCustomers error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("limit not applied, got %d customers", len(active))
	}
}

func TestMemoryGatewayListOpenTicketsExcludesClosed(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()

	open, err := g.ListOpenTickets(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListOpenTickets error: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("customer 5 only has a closed ticket, got %+v", open)
	}
}

func TestMemoryGatewayUpdateTicketNotFound(t *testing.T) {
	g := NewMemoryGateway()
	_, err := g.UpdateTicket(context.Background(), 42, contractx.TicketUpdate{})
	if !errors.Is(err, contractx.ErrTicketNotFound) {
		t.Fatalf("err = %v, want ErrTicketNotFound", err)
	}
}

func TestMemoryGatewayConcurrentUpdatesSameTicket(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()
	ctx := context.Background()

	created, err := g.CreateTicket(ctx, 1, contractx.PriorityNormal, "flapping ticket")
	if err != nil {
		t.Fatalf("CreateTicket error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		status := contractx.TicketOpen
		if i%2 == 0 {
			status = contractx.TicketClosed
		}
		go func(s contractx.TicketStatus) {
			defer wg.Done()
			if _, err := g.UpdateTicket(ctx, created.ID, contractx.TicketUpdate{Status: &s}); err != nil {
				t.Errorf("UpdateTicket error: %v", err)
			}
		}(status)
	}
	wg.Wait()

	got, err := g.UpdateTicket(ctx, created.ID, contractx.TicketUpdate{})
	if err != nil {
		t.Fatalf("read-back error: %v", err)
	}
	if got.Status != contractx.TicketOpen && got.Status != contractx.TicketClosed {
		t.Fatalf("ticket state corrupted: %+v", got)
	}
	if got.ID != created.ID || got.CustomerID != 1 {
		t.Fatalf("ticket identity corrupted: %+v", got)
	}
}

func TestMemoryGatewayUpdateCustomer(t *testing.T) {
	g := NewMemoryGateway()
	g.Seed()
	ctx := context.Background()

	email := "alice+new@example.com"
	updated, err := g.UpdateCustomer(ctx, 1, contractx.CustomerUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdateCustomer error: %v", err)
	}
	if updated == nil || updated.Email != email {
		t.Fatalf("update not applied: %+v", updated)
	}

	missing, err := g.UpdateCustomer(ctx, 999, contractx.CustomerUpdate{Email: &email})
	if err != nil {
		t.Fatalf("UpdateCustomer error: %v", err)
	}
	if missing != nil {
		t.Fatalf("want nil for unknown customer, got %+v", missing)
	}
}
