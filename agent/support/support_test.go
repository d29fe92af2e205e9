package support

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

type fakeDataAgent struct {
	mu          sync.Mutex
	createCalls int
	createErr   error
	createDelay time.Duration
	nextID      int64
}

func (f *fakeDataAgent) Resolve(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	return contractx.ToolResult{Success: true}
}

func (f *fakeDataAgent) CreateTicket(ctx context.Context, customerID int64, priority contractx.TicketPriority, description string) (contractx.Ticket, error) {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return contractx.Ticket{}, f.createErr
	}
	f.nextID++
	return contractx.Ticket{
		ID:          f.nextID,
		CustomerID:  customerID,
		Priority:    priority,
		Status:      contractx.TicketOpen,
		Description: description,
	}, nil
}

func (f *fakeDataAgent) UpdateCustomer(ctx context.Context, customerID int64, fields contractx.CustomerUpdate) (*contractx.Customer, error) {
	return nil, nil
}

func billingAggregate(queryID string, res contractx.ToolResult) *contractx.AggregateResult {
	agg := contractx.NewAggregateResult(queryID)
	agg.Put("billing-dispute:billing_history", contractx.IntentBillingDispute, res)
	return agg
}

func TestRenderEscalatesOnBillingFlag(t *testing.T) {
	fda := &fakeDataAgent{}
	a, err := New(fda)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	agg := billingAggregate("q1", contractx.ToolResult{
		Success:   true,
		Customers: []contractx.Customer{{ID: 3, Name: "Chai Somboon", BillingFlag: true}},
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if !resp.Summary.Escalation.Triggered {
		t.Fatalf("want escalation, got %+v", resp.Summary.Escalation)
	}
	if fda.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", fda.createCalls)
	}
	ticket := resp.Summary.Escalation.Ticket
	if ticket == nil || ticket.Priority != contractx.PriorityHigh || ticket.CustomerID != 3 {
		t.Fatalf("escalation ticket = %+v", ticket)
	}
	if !strings.Contains(resp.Reply, "has been escalated") {
		t.Fatalf("reply missing escalation section: %q", resp.Reply)
	}
}

func TestRenderEscalatesOnUnresolvedBillingNote(t *testing.T) {
	fda := &fakeDataAgent{}
	a, _ := New(fda)

	agg := billingAggregate("q2", contractx.ToolResult{
		Success: true,
		Note:    "unresolved billing issue",
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !resp.Summary.Escalation.Triggered || fda.createCalls != 1 {
		t.Fatalf("escalation = %+v, calls = %d", resp.Summary.Escalation, fda.createCalls)
	}
}

func TestRenderEscalatesOnDataFailure(t *testing.T) {
	fda := &fakeDataAgent{}
	a, _ := New(fda)

	agg := contractx.NewAggregateResult("q3")
	agg.CustomerID = 7
	agg.Put("cancellation:profile", contractx.IntentCancellation, contractx.ToolResult{
		Success: false,
		Error:   &contractx.ToolError{Code: contractx.ToolErrorStoreUnavailable, Message: "connection refused"},
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentCancellation})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !resp.Summary.Escalation.Triggered {
		t.Fatalf("data failure on cancellation must escalate, got %+v", resp.Summary.Escalation)
	}
	if resp.Summary.Escalation.Ticket == nil || resp.Summary.Escalation.Ticket.CustomerID != 7 {
		t.Fatalf("ticket must fall back to the resolved customer id, got %+v", resp.Summary.Escalation.Ticket)
	}
	if !resp.Summary.Degraded {
		t.Fatalf("summary must mark degraded")
	}
	if len(resp.Summary.Failures) != 1 || resp.Summary.Failures[0] != "cancellation:profile" {
		t.Fatalf("failures = %v", resp.Summary.Failures)
	}
}

func TestRenderNoEscalationForLookup(t *testing.T) {
	fda := &fakeDataAgent{}
	a, _ := New(fda)

	agg := contractx.NewAggregateResult("q4")
	agg.Put("lookup:profile", contractx.IntentLookup, contractx.ToolResult{
		Success:   true,
		Customers: []contractx.Customer{{ID: 3, BillingFlag: true}},
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentLookup})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if resp.Summary.Escalation.Triggered || fda.createCalls != 0 {
		t.Fatalf("lookup must never escalate, got %+v", resp.Summary.Escalation)
	}
}

func TestRenderEscalationIsIdempotentPerQuery(t *testing.T) {
	fda := &fakeDataAgent{}
	a, _ := New(fda)

	agg := billingAggregate("q5", contractx.ToolResult{
		Success:   true,
		Customers: []contractx.Customer{{ID: 3, BillingFlag: true}},
	})
	first, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
	if err != nil {
		t.Fatalf("first Render: %v", err)
	}
	second, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}

	if fda.createCalls != 1 {
		t.Fatalf("create calls = %d, want exactly one per query", fda.createCalls)
	}
	if first.Summary.Escalation.Ticket.ID != second.Summary.Escalation.Ticket.ID {
		t.Fatalf("re-render returned a different ticket: %d vs %d",
			first.Summary.Escalation.Ticket.ID, second.Summary.Escalation.Ticket.ID)
	}
}

func TestRenderConcurrentSameQueryCreatesOneTicket(t *testing.T) {
	fda := &fakeDataAgent{createDelay: 20 * time.Millisecond}
	a, _ := New(fda)

	agg := billingAggregate("q_concurrent", contractx.ToolResult{
		Success:   true,
		Customers: []contractx.Customer{{ID: 3, BillingFlag: true}},
	})

	const renders = 4
	decisions := make([]contractx.EscalationDecision, renders)
	var wg sync.WaitGroup
	for i := 0; i < renders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
			if err != nil {
				t.Errorf("Render: %v", err)
				return
			}
			decisions[i] = resp.Summary.Escalation
		}(i)
	}
	wg.Wait()

	if fda.createCalls != 1 {
		t.Fatalf("create calls = %d, want exactly one ticket per query", fda.createCalls)
	}
	for i, d := range decisions {
		if !d.Triggered || d.Ticket == nil {
			t.Fatalf("render %d did not share the decision: %+v", i, d)
		}
		if d.Ticket.ID != decisions[0].Ticket.ID {
			t.Fatalf("render %d got ticket %d, render 0 got %d", i, d.Ticket.ID, decisions[0].Ticket.ID)
		}
	}
}

func TestRenderSurfacesEscalationFailure(t *testing.T) {
	fda := &fakeDataAgent{createErr: errors.New("store down")}
	a, _ := New(fda)

	agg := billingAggregate("q6", contractx.ToolResult{
		Success:   true,
		Customers: []contractx.Customer{{ID: 3, BillingFlag: true}},
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentBillingDispute})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	esc := resp.Summary.Escalation
	if !esc.Triggered || !esc.Failed || esc.Ticket != nil {
		t.Fatalf("escalation = %+v, want triggered+failed without ticket", esc)
	}
	if !strings.Contains(resp.Reply, "escalation ticket failed") {
		t.Fatalf("reply must tell the user the escalation failed: %q", resp.Reply)
	}
}

func TestRenderValidation(t *testing.T) {
	a, _ := New(&fakeDataAgent{})

	if _, err := a.Render(context.Background(), nil, []contractx.Intent{contractx.IntentLookup}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("nil aggregate err = %v", err)
	}
	if _, err := a.Render(context.Background(), contractx.NewAggregateResult("q"), nil); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("empty intents err = %v", err)
	}
}

func TestRenderTicketReportSection(t *testing.T) {
	a, _ := New(&fakeDataAgent{})

	agg := contractx.NewAggregateResult("q7")
	agg.Put("ticket-status-report:ticket_scan", contractx.IntentTicketStatusReport, contractx.ToolResult{
		Success: true,
		Tickets: []contractx.Ticket{{ID: 9, CustomerID: 12345, Priority: contractx.PriorityHigh, Status: contractx.TicketOpen, Description: "Service outage on premium plan"}},
		Counts:  map[string]int{"customers": 1, "high_priority_open": 1},
	})
	resp, err := a.Render(context.Background(), agg, []contractx.Intent{contractx.IntentTicketStatusReport})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(resp.Reply, "High-priority open tickets across 1 matching customers: 1.") {
		t.Fatalf("reply = %q", resp.Reply)
	}
	if len(resp.Summary.TicketIDs) != 1 || resp.Summary.TicketIDs[0] != 9 {
		t.Fatalf("ticket ids = %v", resp.Summary.TicketIDs)
	}
}
