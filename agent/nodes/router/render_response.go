package routernode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// RenderResponse hands the joined aggregate to the support agent. The
// aggregate may carry partial failures; the support agent still renders a
// degraded-but-honest reply.
func RenderResponse(
	ctx context.Context,
	in *GraphState,
	support contractx.SupportAgent,
) (contractx.FinalResponse, error) {
	if in == nil || in.Aggregate == nil {
		return contractx.FinalResponse{}, fmt.Errorf("%w: aggregate is nil", contractx.ErrValidation)
	}
	return support.Render(ctx, in.Aggregate, in.Intents)
}
