package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
	routernode "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/nodes/router"
)

func (r *Router) compileHandleQueryGraph(
	ctx context.Context,
) (compose.Runnable[contractx.Query, contractx.FinalResponse], error) {
	graph := compose.NewGraph[contractx.Query, contractx.FinalResponse]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.Query) (*routernode.GraphState, error) {
			return routernode.ValidateRequest(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intents",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.ClassifyIntents(ctx, in, r.classifier, r.classifyThreshold)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intents: %w", err)
	}

	if err := graph.AddLambdaNode("plan_subtasks",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.PlanSubTasks(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_subtasks: %w", err)
	}

	if err := graph.AddLambdaNode("dispatch_subtasks",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.DispatchSubTasks(ctx, in, r.dataAgent, r.dispatchTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_subtasks: %w", err)
	}

	if err := graph.AddLambdaNode("render_response",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (contractx.FinalResponse, error) {
			return routernode.RenderResponse(ctx, in, r.support)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node render_response: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "classify_intents"},
		{"classify_intents", "plan_subtasks"},
		{"plan_subtasks", "dispatch_subtasks"},
		{"dispatch_subtasks", "render_response"},
		{"render_response", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.handle_query"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
