package contract

import "errors"

// Sentinel errors for conditions that abort a request. Tool failures and
// upstream timeouts are not here: they must cross the agent boundary
// in-band, so they travel as ToolError codes inside a ToolResult.
var (
	ErrClassificationFailed = errors.New("no intent resolved for query")
	ErrEscalationFailed     = errors.New("escalation ticket creation failed")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrValidation           = errors.New("validation failed")
)
