package routernode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

var (
	ErrInvalidQuery = errors.New("query text is empty")
	ErrEmptyPlan    = errors.New("no subtasks planned")
)

type GraphState struct {
	Query      contractx.Query
	CustomerID int64

	Candidates []contractx.IntentCandidate
	Intents    []contractx.Intent

	Plan      []contractx.SubTask
	Aggregate *contractx.AggregateResult
}

var customerIDPattern = regexp.MustCompile(`(?i)\b(?:customer|id)\s*#?\s*(\d+)\b`)

// ValidateRequest checks the raw query and freezes it into graph state.
// An explicit customer id wins; otherwise the text is scanned for one.
func ValidateRequest(in contractx.Query, nowFn func() time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidQuery
	}
	in.Text = text

	if strings.TrimSpace(in.QueryID) == "" {
		in.QueryID = fmt.Sprintf("q_%d", nowFn().UTC().UnixNano())
	}

	customerID := in.CustomerID
	if customerID == 0 {
		if m := customerIDPattern.FindStringSubmatch(text); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				customerID = id
			}
		}
	}

	return &GraphState{
		Query:      in,
		CustomerID: customerID,
	}, nil
}
