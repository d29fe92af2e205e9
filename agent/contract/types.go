package contract

import (
	"strings"
	"time"
)

type Intent string

const (
	IntentLookup             Intent = "lookup"
	IntentUpgrade            Intent = "upgrade"
	IntentBillingDispute     Intent = "billing-dispute"
	IntentCancellation       Intent = "cancellation"
	IntentTicketStatusReport Intent = "ticket-status-report"
)

// KnownIntents is the closed set the router dispatches on. Multi-intent
// queries are represented as a slice of these, never as a tag of their own.
var KnownIntents = []Intent{
	IntentLookup,
	IntentUpgrade,
	IntentBillingDispute,
	IntentCancellation,
	IntentTicketStatusReport,
}

func (i Intent) Valid() bool {
	for _, known := range KnownIntents {
		if i == known {
			return true
		}
	}
	return false
}

type IntentCandidate struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Query is the raw user request. Immutable once received; QueryID keys
// escalation idempotency and the aggregate lifetime.
type Query struct {
	QueryID    string `json:"query_id"`
	Text       string `json:"text"`
	CustomerID int64  `json:"customer_id,omitempty"`
}

// SubTaskKind discriminates the gateway-facing step a SubTask resolves to.
// A single intent may expand to more than one step.
type SubTaskKind string

const (
	StepProfile        SubTaskKind = "profile"
	StepUpgradeContext SubTaskKind = "upgrade_context"
	StepBillingHistory SubTaskKind = "billing_history"
	StepCustomerSet    SubTaskKind = "customer_set"
	StepTicketScan     SubTaskKind = "ticket_scan"
)

type SubTask struct {
	ID         string          `json:"id"`
	Intent     Intent          `json:"intent"`
	Kind       SubTaskKind     `json:"kind"`
	CustomerID int64           `json:"customer_id,omitempty"`
	Filter     *CustomerFilter `json:"filter,omitempty"`
	DependsOn  string          `json:"depends_on,omitempty"`

	// Context carries the dependency's ToolResult. The router injects it
	// after the dependency completes, before the dependent dispatches.
	Context *ToolResult `json:"context,omitempty"`
}

type CustomerFilter struct {
	Tier   string `json:"tier,omitempty"`
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type ToolErrorCode string

const (
	ToolErrorFailure          ToolErrorCode = "tool_failure"
	ToolErrorTimeout          ToolErrorCode = "upstream_timeout"
	ToolErrorStoreUnavailable ToolErrorCode = "store_unavailable"
	ToolErrorSkipped          ToolErrorCode = "dependency_failed"
)

type ToolError struct {
	Code    ToolErrorCode `json:"code"`
	Message string        `json:"message"`
}

// ToolResult is the normalized outcome of one or more gateway calls.
// "Not found" is a success with an empty payload, never an error.
type ToolResult struct {
	Operation string         `json:"operation"`
	Success   bool           `json:"success"`
	Customers []Customer     `json:"customers,omitempty"`
	Tickets   []Ticket       `json:"tickets,omitempty"`
	Counts    map[string]int `json:"counts,omitempty"`
	Note      string         `json:"note,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// AggregateResult maps SubTask id to its ToolResult. Owned by the router
// for the lifetime of one query; failed results stay in the map annotated
// with the intent they affected.
type AggregateResult struct {
	QueryID string `json:"query_id"`
	// CustomerID is the id resolved at request validation, kept so
	// escalation can attribute a ticket even when every data step failed.
	CustomerID int64                 `json:"customer_id,omitempty"`
	Results    map[string]ToolResult `json:"results"`
	Intents    map[string]Intent     `json:"intents"`
}

func NewAggregateResult(queryID string) *AggregateResult {
	return &AggregateResult{
		QueryID: queryID,
		Results: make(map[string]ToolResult, 4),
		Intents: make(map[string]Intent, 4),
	}
}

func (a *AggregateResult) Put(taskID string, intent Intent, res ToolResult) {
	a.Results[taskID] = res
	a.Intents[taskID] = intent
}

// FailuresFor reports whether any result recorded for the intent failed.
func (a *AggregateResult) FailuresFor(intent Intent) bool {
	if a == nil {
		return false
	}
	for id, res := range a.Results {
		if a.Intents[id] == intent && !res.Success {
			return true
		}
	}
	return false
}

func (a *AggregateResult) Degraded() bool {
	if a == nil {
		return false
	}
	for _, res := range a.Results {
		if !res.Success {
			return true
		}
	}
	return false
}

type TicketPriority string

const (
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
)

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Tier        string    `json:"tier"`
	Status      string    `json:"status"`
	BillingFlag bool      `json:"billing_flag"`
	CreatedAt   time.Time `json:"created_at"`
}

type Ticket struct {
	ID          int64          `json:"id"`
	CustomerID  int64          `json:"customer_id"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

// BillingRelated reports whether the ticket text suggests a billing issue.
func (t Ticket) BillingRelated() bool {
	desc := strings.ToLower(t.Description)
	for _, kw := range []string{"bill", "charge", "payment", "refund"} {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

type TicketUpdate struct {
	Priority *TicketPriority `json:"priority,omitempty"`
	Status   *TicketStatus   `json:"status,omitempty"`
}

type CustomerUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Status *string `json:"status,omitempty"`
}

type EscalationDecision struct {
	Triggered bool    `json:"triggered"`
	Reason    string  `json:"reason,omitempty"`
	Ticket    *Ticket `json:"ticket,omitempty"`
	Failed    bool    `json:"failed,omitempty"`
}

// ResponseSummary is the machine-readable side of a FinalResponse, used
// for logging and tests.
type ResponseSummary struct {
	QueryID    string             `json:"query_id"`
	Intents    []Intent           `json:"intents"`
	Escalation EscalationDecision `json:"escalation"`
	TicketIDs  []int64            `json:"ticket_ids,omitempty"`
	Failures   []string           `json:"failures,omitempty"`
	Degraded   bool               `json:"degraded"`
}

type FinalResponse struct {
	Reply   string          `json:"reply"`
	Summary ResponseSummary `json:"summary"`
}
