package gateway

import "github.com/cloudwego/eino/schema"

// Operation names are part of the external contract consumed by the
// customer-data agent. Keep them stable.
const (
	OpGetCustomer                 = "get_customer"
	OpListCustomers               = "list_customers"
	OpListOpenTickets             = "list_open_tickets"
	OpListHighPriorityOpenTickets = "list_high_priority_open_tickets"
	OpCreateTicket                = "create_ticket"
	OpUpdateTicket                = "update_ticket"
	OpCustomerHistory             = "customer_history"
	OpUpdateCustomer              = "update_customer"
)

// Catalog describes every gateway operation with its argument schema. The
// a2a server publishes it on /v1/tools so peer agents can enumerate what
// the data layer offers without importing the implementation.
func Catalog() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: OpGetCustomer,
			Desc: "Fetch a single customer record by id. Missing customers return an empty payload.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
			}),
		},
		{
			Name: OpListCustomers,
			Desc: "List customers filtered by tier and/or status.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"tier":   {Type: schema.String, Desc: "Customer tier filter, e.g. premium"},
				"status": {Type: schema.String, Desc: "Customer status filter, e.g. active"},
				"limit":  {Type: schema.Integer, Desc: "Maximum rows to return"},
			}),
		},
		{
			Name: OpListOpenTickets,
			Desc: "List open tickets for one customer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
			}),
		},
		{
			Name: OpListHighPriorityOpenTickets,
			Desc: "List open high-priority tickets for a set of customer ids.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_ids": {
					Type:     schema.Array,
					Desc:     "Customer ids to scan",
					Required: true,
					ElemInfo: &schema.ParameterInfo{Type: schema.Integer},
				},
			}),
		},
		{
			Name: OpCreateTicket,
			Desc: "Create a ticket for a customer. The only non-idempotent operation.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
				"priority":    {Type: schema.String, Desc: "normal or high", Required: true},
				"description": {Type: schema.String, Desc: "Ticket description", Required: true},
			}),
		},
		{
			Name: OpUpdateTicket,
			Desc: "Update status and/or priority of an existing ticket.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"ticket_id": {Type: schema.Integer, Desc: "Ticket id", Required: true},
				"priority":  {Type: schema.String, Desc: "normal or high"},
				"status":    {Type: schema.String, Desc: "open or closed"},
			}),
		},
		{
			Name: OpCustomerHistory,
			Desc: "Full ticket history for one customer, newest first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
			}),
		},
		{
			Name: OpUpdateCustomer,
			Desc: "Update name, email, or status of an existing customer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"customer_id": {Type: schema.Integer, Desc: "Customer id", Required: true},
				"name":        {Type: schema.String, Desc: "New display name"},
				"email":       {Type: schema.String, Desc: "New email address"},
				"status":      {Type: schema.String, Desc: "New account status"},
			}),
		},
	}
}
