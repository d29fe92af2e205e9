package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Email       string    `bun:"email,notnull"`
	Tier        string    `bun:"tier,notnull,default:'standard'"`
	Status      string    `bun:"status,notnull,default:'active'"`
	BillingFlag bool      `bun:"billing_flag,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type ticketRow struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID          int64     `bun:"id,pk,autoincrement"`
	CustomerID  int64     `bun:"customer_id,notnull"`
	Priority    string    `bun:"priority,notnull"`
	Status      string    `bun:"status,notnull"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresGateway implements the Gateway contract on the customers/tickets
// tables. Ticket updates go through a row-level SELECT ... FOR UPDATE so
// concurrent updates to the same ticket id serialize in the store.
type PostgresGateway struct {
	db *bun.DB
}

func NewPostgresGateway(cfg PostgresConfig) (*PostgresGateway, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", contractx.ErrValidation)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return &PostgresGateway{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (g *PostgresGateway) Close() error {
	return g.db.Close()
}

func (g *PostgresGateway) GetCustomer(ctx context.Context, id int64) (*contractx.Customer, error) {
	var row customerRow
	err := g.db.NewSelect().Model(&row).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer id=%d: %w", id, err)
	}
	c := row.toCustomer()
	return &c, nil
}

func (g *PostgresGateway) ListCustomers(ctx context.Context, filter contractx.CustomerFilter) ([]contractx.Customer, error) {
	var rows []customerRow
	q := g.db.NewSelect().Model(&rows).Order("c.id ASC")
	if filter.Tier != "" {
		q = q.Where("lower(c.tier) = lower(?)", filter.Tier)
	}
	if filter.Status != "" {
		q = q.Where("lower(c.status) = lower(?)", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customersFromRows(rows), nil
}

func (g *PostgresGateway) ListOpenTickets(ctx context.Context, customerID int64) ([]contractx.Ticket, error) {
	var rows []ticketRow
	err := g.db.NewSelect().Model(&rows).
		Where("t.customer_id = ?", customerID).
		Where("t.status = ?", string(contractx.TicketOpen)).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list open tickets customer=%d: %w", customerID, err)
	}
	return ticketsFromRows(rows), nil
}

func (g *PostgresGateway) ListHighPriorityOpenTickets(ctx context.Context, customerIDs []int64) ([]contractx.Ticket, error) {
	if len(customerIDs) == 0 {
		return nil, nil
	}
	var rows []ticketRow
	err := g.db.NewSelect().Model(&rows).
		Where("t.customer_id IN (?)", bun.In(customerIDs)).
		Where("t.status = ?", string(contractx.TicketOpen)).
		Where("t.priority = ?", string(contractx.PriorityHigh)).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list high priority open tickets: %w", err)
	}
	return ticketsFromRows(rows), nil
}

func (g *PostgresGateway) CreateTicket(ctx context.Context, customerID int64, priority contractx.TicketPriority, description string) (contractx.Ticket, error) {
	if priority != contractx.PriorityNormal && priority != contractx.PriorityHigh {
		return contractx.Ticket{}, fmt.Errorf("%w: unknown priority %q", contractx.ErrValidation, priority)
	}

	row := ticketRow{
		CustomerID:  customerID,
		Priority:    string(priority),
		Status:      string(contractx.TicketOpen),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := g.db.NewInsert().Model(&row).Returning("*").Exec(ctx); err != nil {
		return contractx.Ticket{}, fmt.Errorf("create ticket customer=%d: %w", customerID, err)
	}
	return row.toTicket(), nil
}

func (g *PostgresGateway) UpdateTicket(ctx context.Context, ticketID int64, fields contractx.TicketUpdate) (contractx.Ticket, error) {
	var out ticketRow
	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row ticketRow
		err := tx.NewSelect().Model(&row).Where("t.id = ?", ticketID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: id=%d", contractx.ErrTicketNotFound, ticketID)
		}
		if err != nil {
			return err
		}

		if fields.Priority != nil {
			row.Priority = string(*fields.Priority)
		}
		if fields.Status != nil {
			row.Status = string(*fields.Status)
		}
		if _, err := tx.NewUpdate().Model(&row).
			Column("priority", "status").
			Where("id = ?", ticketID).
			Exec(ctx); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		if errors.Is(err, contractx.ErrTicketNotFound) {
			return contractx.Ticket{}, err
		}
		return contractx.Ticket{}, fmt.Errorf("update ticket id=%d: %w", ticketID, err)
	}
	return out.toTicket(), nil
}

func (g *PostgresGateway) CustomerHistory(ctx context.Context, customerID int64) ([]contractx.Ticket, error) {
	var rows []ticketRow
	err := g.db.NewSelect().Model(&rows).
		Where("t.customer_id = ?", customerID).
		Order("t.created_at DESC", "t.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("customer history customer=%d: %w", customerID, err)
	}
	return ticketsFromRows(rows), nil
}

func (g *PostgresGateway) UpdateCustomer(ctx context.Context, id int64, fields contractx.CustomerUpdate) (*contractx.Customer, error) {
	q := g.db.NewUpdate().Model((*customerRow)(nil)).Where("id = ?", id)
	touched := false
	if fields.Name != nil {
		q = q.Set("name = ?", *fields.Name)
		touched = true
	}
	if fields.Email != nil {
		q = q.Set("email = ?", *fields.Email)
		touched = true
	}
	if fields.Status != nil {
		q = q.Set("status = ?", *fields.Status)
		touched = true
	}
	if touched {
		if _, err := q.Exec(ctx); err != nil {
			return nil, fmt.Errorf("update customer id=%d: %w", id, err)
		}
	}
	return g.GetCustomer(ctx, id)
}

func (r customerRow) toCustomer() contractx.Customer {
	return contractx.Customer{
		ID:          r.ID,
		Name:        r.Name,
		Email:       r.Email,
		Tier:        r.Tier,
		Status:      r.Status,
		BillingFlag: r.BillingFlag,
		CreatedAt:   r.CreatedAt,
	}
}

func (r ticketRow) toTicket() contractx.Ticket {
	return contractx.Ticket{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		Priority:    contractx.TicketPriority(r.Priority),
		Status:      contractx.TicketStatus(r.Status),
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}

func customersFromRows(rows []customerRow) []contractx.Customer {
	out := make([]contractx.Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCustomer())
	}
	return out
}

func ticketsFromRows(rows []ticketRow) []contractx.Ticket {
	out := make([]contractx.Ticket, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTicket())
	}
	return out
}

var _ contractx.Gateway = (*PostgresGateway)(nil)
