package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

type ClientConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Client speaks the orchestration protocol to a remote agent process.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("a2a base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid a2a base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func MustNewClient(cfg ClientConfig) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Query submits a raw query to a remote router.
func (c *Client) Query(ctx context.Context, q contractx.Query) (contractx.FinalResponse, error) {
	var out contractx.FinalResponse
	if err := c.post(ctx, "/v1/query", q, &out); err != nil {
		return contractx.FinalResponse{}, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal a2a request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build a2a request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute a2a request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read a2a response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("a2a http status=%d path=%s body=%s", resp.StatusCode, path, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode a2a response: %w", err)
	}
	return nil
}

// RemoteDataAgent adapts a Client into the DataAgent contract so a router
// can dispatch to a customer-data agent running as its own service.
// Transport failures become failed ToolResults, keeping the no-throw rule.
type RemoteDataAgent struct {
	client *Client
}

func NewRemoteDataAgent(client *Client) (*RemoteDataAgent, error) {
	if client == nil {
		return nil, errors.New("a2a client is required")
	}
	return &RemoteDataAgent{client: client}, nil
}

func (r *RemoteDataAgent) Resolve(ctx context.Context, task contractx.SubTask) contractx.ToolResult {
	var out contractx.ToolResult
	if err := r.client.post(ctx, "/v1/agents/data/resolve", task, &out); err != nil {
		code := contractx.ToolErrorStoreUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			code = contractx.ToolErrorTimeout
		}
		return contractx.ToolResult{
			Operation: string(task.Kind),
			Success:   false,
			Error: &contractx.ToolError{
				Code:    code,
				Message: err.Error(),
			},
		}
	}
	return out
}

func (r *RemoteDataAgent) CreateTicket(ctx context.Context, customerID int64, priority contractx.TicketPriority, description string) (contractx.Ticket, error) {
	var out contractx.Ticket
	err := r.client.post(ctx, "/v1/agents/data/create_ticket", createTicketRequest{
		CustomerID:  customerID,
		Priority:    priority,
		Description: description,
	}, &out)
	if err != nil {
		return contractx.Ticket{}, fmt.Errorf("%w: %v", contractx.ErrEscalationFailed, err)
	}
	return out, nil
}

func (r *RemoteDataAgent) UpdateCustomer(ctx context.Context, customerID int64, fields contractx.CustomerUpdate) (*contractx.Customer, error) {
	var out struct {
		Customer *contractx.Customer `json:"customer"`
	}
	err := r.client.post(ctx, "/v1/agents/data/update_customer", updateCustomerRequest{
		CustomerID: customerID,
		Fields:     fields,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Customer, nil
}

var _ contractx.DataAgent = (*RemoteDataAgent)(nil)
