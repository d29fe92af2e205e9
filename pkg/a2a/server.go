package a2a

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
	gatewayx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/gateway"
)

type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"5s"`
}

// QueryHandler is the router's entry point as seen by the transport.
type QueryHandler interface {
	Handle(ctx context.Context, q contractx.Query) (contractx.FinalResponse, error)
}

// Server exposes the orchestration protocol over HTTP: the public query
// endpoint plus the per-agent endpoints used when the agents run as
// separate processes. Degraded answers are still 200; only malformed
// requests are 4xx and data-layer write failures 5xx.
type Server struct {
	cfg       ServerConfig
	engine    *gin.Engine
	router    QueryHandler
	dataAgent contractx.DataAgent
	support   contractx.SupportAgent
}

func NewServer(cfg ServerConfig, router QueryHandler, dataAgent contractx.DataAgent, support contractx.SupportAgent) (*Server, error) {
	if router == nil {
		return nil, errors.New("query handler is required")
	}
	if dataAgent == nil {
		return nil, errors.New("data agent is required")
	}
	if support == nil {
		return nil, errors.New("support agent is required")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = ":8080"
	}

	s := &Server{
		cfg:       cfg,
		router:    router,
		dataAgent: dataAgent,
		support:   support,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.register(engine)
	s.engine = engine

	return s, nil
}

func (s *Server) register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.GET("/tools", s.handleTools)
	v1.POST("/query", s.handleQuery)
	v1.POST("/agents/data/resolve", s.handleResolve)
	v1.POST("/agents/data/create_ticket", s.handleCreateTicket)
	v1.POST("/agents/data/update_customer", s.handleUpdateCustomer)
	v1.POST("/agents/support/render", s.handleRender)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Msg("a2a server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleTools publishes the data-gateway operation catalog so peer agents
// can discover the data surface without importing the gateway package.
func (s *Server) handleTools(c *gin.Context) {
	infos := gatewayx.Catalog()
	tools := make([]gin.H, 0, len(infos))
	for _, info := range infos {
		entry := gin.H{"name": info.Name, "description": info.Desc}
		if info.ParamsOneOf != nil {
			if params, err := info.ParamsOneOf.ToOpenAPIV3(); err == nil {
				entry["parameters"] = params
			}
		}
		tools = append(tools, entry)
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

func (s *Server) handleQuery(c *gin.Context) {
	var q contractx.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed query", err))
		return
	}

	resp, err := s.router.Handle(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrClassificationFailed):
			// Terminal for the query, but an explicit user-visible answer.
			c.JSON(http.StatusOK, classificationFailedResponse(q))
		case errors.Is(err, contractx.ErrValidation):
			c.JSON(http.StatusBadRequest, errorBody("invalid query", err))
		default:
			log.Error().Err(err).Str("query_id", q.QueryID).Msg("query handling failed")
			c.JSON(http.StatusInternalServerError, errorBody("query handling failed", err))
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleResolve(c *gin.Context) {
	var task contractx.SubTask
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed subtask", err))
		return
	}
	if task.ID == "" || task.Kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subtask id and kind are required"})
		return
	}

	// ToolResult is always 200: failures travel inside the result.
	c.JSON(http.StatusOK, s.dataAgent.Resolve(c.Request.Context(), task))
}

type createTicketRequest struct {
	CustomerID  int64                    `json:"customer_id"`
	Priority    contractx.TicketPriority `json:"priority"`
	Description string                   `json:"description"`
}

func (s *Server) handleCreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed create_ticket request", err))
		return
	}

	ticket, err := s.dataAgent.CreateTicket(c.Request.Context(), req.CustomerID, req.Priority, req.Description)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorBody("invalid create_ticket request", err))
			return
		}
		c.JSON(http.StatusBadGateway, errorBody("data layer unavailable", err))
		return
	}
	c.JSON(http.StatusOK, ticket)
}

type updateCustomerRequest struct {
	CustomerID int64                    `json:"customer_id"`
	Fields     contractx.CustomerUpdate `json:"fields"`
}

func (s *Server) handleUpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed update_customer request", err))
		return
	}

	customer, err := s.dataAgent.UpdateCustomer(c.Request.Context(), req.CustomerID, req.Fields)
	if err != nil {
		c.JSON(http.StatusBadGateway, errorBody("data layer unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

type renderRequest struct {
	Aggregate *contractx.AggregateResult `json:"aggregate"`
	Intents   []contractx.Intent         `json:"intents"`
}

func (s *Server) handleRender(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed render request", err))
		return
	}

	resp, err := s.support.Render(c.Request.Context(), req.Aggregate, req.Intents)
	if err != nil {
		if errors.Is(err, contractx.ErrValidation) {
			c.JSON(http.StatusBadRequest, errorBody("invalid render request", err))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("render failed", err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func classificationFailedResponse(q contractx.Query) contractx.FinalResponse {
	return contractx.FinalResponse{
		Reply: "Sorry, we could not determine what you need from that request. Please rephrase it, for example: \"Get customer information for ID 5\" or \"I want to cancel my subscription\".",
		Summary: contractx.ResponseSummary{
			QueryID:  q.QueryID,
			Failures: []string{"classification_failed"},
		},
	}
}

func errorBody(msg string, err error) gin.H {
	return gin.H{"error": msg, "detail": err.Error()}
}
