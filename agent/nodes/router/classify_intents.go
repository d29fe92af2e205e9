package routernode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// ClassifyIntents resolves the query text into a non-empty intent set.
// Candidates below the confidence threshold are discarded; an empty
// surviving set is terminal for the query.
func ClassifyIntents(
	ctx context.Context,
	in *GraphState,
	classifier contractx.Classifier,
	threshold float64,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	candidates, err := classifier.Classify(ctx, in.Query.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrClassificationFailed, err)
	}

	seen := make(map[contractx.Intent]struct{}, len(candidates))
	var intents []contractx.Intent
	for _, cand := range candidates {
		if !cand.Intent.Valid() || cand.Confidence < threshold {
			continue
		}
		if _, dup := seen[cand.Intent]; dup {
			continue
		}
		seen[cand.Intent] = struct{}{}
		intents = append(intents, cand.Intent)
	}

	if len(intents) == 0 {
		return nil, fmt.Errorf("%w: no candidate cleared threshold=%.2f", contractx.ErrClassificationFailed, threshold)
	}

	in.Candidates = candidates
	in.Intents = intents
	return in, nil
}
