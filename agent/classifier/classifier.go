package classifier

import (
	"context"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// Chain tries each classifier in order and returns the first non-empty
// candidate list. The usual wiring is rules first, LLM fallback second,
// so deterministic matches never pay for a model call.
type Chain struct {
	classifiers []contractx.Classifier
}

func NewChain(classifiers ...contractx.Classifier) *Chain {
	return &Chain{classifiers: classifiers}
}

func (c *Chain) Classify(ctx context.Context, text string) ([]contractx.IntentCandidate, error) {
	var lastErr error
	for _, cl := range c.classifiers {
		candidates, err := cl.Classify(ctx, text)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

var _ contractx.Classifier = (*Chain)(nil)
