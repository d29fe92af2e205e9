package routernode

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// DispatchSubTasks executes the plan in dependency order. Each wave of
// ready SubTasks runs concurrently; a SubTask whose dependency failed is
// not dispatched and resolves to a failure result instead, so the
// aggregate always holds one entry per planned SubTask.
func DispatchSubTasks(
	ctx context.Context,
	in *GraphState,
	agent contractx.DataAgent,
	timeout time.Duration,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if len(in.Plan) == 0 {
		return nil, ErrEmptyPlan
	}

	agg := contractx.NewAggregateResult(in.Query.QueryID)
	agg.CustomerID = in.CustomerID
	completed := make(map[string]contractx.ToolResult, len(in.Plan))
	var mu sync.Mutex

	pending := in.Plan
	for len(pending) > 0 {
		var ready, blocked []contractx.SubTask
		for _, task := range pending {
			if task.DependsOn == "" {
				ready = append(ready, task)
				continue
			}
			if _, done := completed[task.DependsOn]; done {
				ready = append(ready, task)
			} else {
				blocked = append(blocked, task)
			}
		}
		if len(ready) == 0 {
			return nil, fmt.Errorf("%w: dependency cycle in plan", contractx.ErrValidation)
		}

		g := new(errgroup.Group)
		for _, task := range ready {
			task := task
			if task.DependsOn != "" {
				dep := completed[task.DependsOn]
				if !dep.Success {
					res := skippedResult(task)
					mu.Lock()
					agg.Put(task.ID, task.Intent, res)
					completed[task.ID] = res
					mu.Unlock()
					continue
				}
				task.Context = &dep
			}
			g.Go(func() error {
				res := resolveWithTimeout(ctx, agent, task, timeout)
				mu.Lock()
				agg.Put(task.ID, task.Intent, res)
				completed[task.ID] = res
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		pending = blocked
	}

	in.Aggregate = agg
	return in, nil
}

// resolveWithTimeout bounds one agent-to-agent call. A call that outlives
// its budget is abandoned and reported as a timeout failure; it must never
// hang the whole query.
func resolveWithTimeout(
	ctx context.Context,
	agent contractx.DataAgent,
	task contractx.SubTask,
	timeout time.Duration,
) contractx.ToolResult {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan contractx.ToolResult, 1)
	go func() {
		done <- agent.Resolve(cctx, task)
	}()

	select {
	case res := <-done:
		return res
	case <-cctx.Done():
		return contractx.ToolResult{
			Operation: string(task.Kind),
			Success:   false,
			Error: &contractx.ToolError{
				Code:    contractx.ToolErrorTimeout,
				Message: fmt.Sprintf("subtask %s exceeded %s", task.ID, timeout),
			},
		}
	}
}

func skippedResult(task contractx.SubTask) contractx.ToolResult {
	return contractx.ToolResult{
		Operation: string(task.Kind),
		Success:   false,
		Error: &contractx.ToolError{
			Code:    contractx.ToolErrorSkipped,
			Message: fmt.Sprintf("dependency %s failed, subtask not dispatched", task.DependsOn),
		},
	}
}
