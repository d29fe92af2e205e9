package router

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
	routernode "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/nodes/router"
)

var (
	ErrInvalidQuery = routernode.ErrInvalidQuery
)

const (
	defaultClassifyThreshold = 0.5
	defaultDispatchTimeout   = 10 * time.Second
)

type Config struct {
	// ClassifyThreshold discards delegated-classifier candidates below
	// this confidence. Rule matches carry 1.0 and always pass.
	ClassifyThreshold float64
	// DispatchTimeout bounds each agent-to-agent SubTask call.
	DispatchTimeout time.Duration
}

// Router is the orchestrator: the only component that calls other agents.
// It owns the SubTask plan and the AggregateResult for the lifetime of one
// query; independent queries run concurrently through the same Router.
type Router struct {
	classifier contractx.Classifier
	dataAgent  contractx.DataAgent
	support    contractx.SupportAgent

	graphRunner compose.Runnable[contractx.Query, contractx.FinalResponse]

	classifyThreshold float64
	dispatchTimeout   time.Duration

	now func() time.Time
}

func New(
	classifier contractx.Classifier,
	dataAgent contractx.DataAgent,
	support contractx.SupportAgent,
	cfg Config,
) (*Router, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if dataAgent == nil {
		return nil, errors.New("data agent is required")
	}
	if support == nil {
		return nil, errors.New("support agent is required")
	}

	threshold := cfg.ClassifyThreshold
	if threshold <= 0 {
		threshold = defaultClassifyThreshold
	}
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	r := &Router{
		classifier:        classifier,
		dataAgent:         dataAgent,
		support:           support,
		classifyThreshold: threshold,
		dispatchTimeout:   timeout,
		now:               time.Now,
	}

	graphRunner, err := r.compileHandleQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// Handle processes one query end to end: classify, plan, dispatch, join,
// render. Partial gateway failures come back inside the response; only
// classification failure and internal invariant violations return an error.
func (r *Router) Handle(ctx context.Context, q contractx.Query) (contractx.FinalResponse, error) {
	return r.graphRunner.Invoke(ctx, q)
}
