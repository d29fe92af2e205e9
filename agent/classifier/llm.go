package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

const classifySystemPrompt = `You classify customer-service queries into intents.
Allowed intents: lookup, upgrade, billing-dispute, cancellation, ticket-status-report.
A query may carry several intents. Respond with strict JSON only, no prose:
{"candidates":[{"intent":"<intent>","confidence":<0.0-1.0>}]}
Rank candidates by confidence descending. Omit intents that do not apply.`

// LLMClassifier is the delegated classifier collaborator. The router only
// consults it when no deterministic rule matched.
type LLMClassifier struct {
	client *openaisdk.Client
	model  string
}

func NewLLMClassifier(client *openaisdk.Client, model string) (*LLMClassifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: llm client is required", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	return &LLMClassifier{client: client, model: model}, nil
}

type classifyLLMOutput struct {
	Candidates []contractx.IntentCandidate `json:"candidates"`
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) ([]contractx.IntentCandidate, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(classifySystemPrompt),
			openaisdk.UserMessage(text),
		},
		Temperature: openaisdk.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("classifier invoke: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: classifier returned no choices", contractx.ErrClassificationFailed)
	}

	raw := extractJSONObject(resp.Choices[0].Message.Content)
	var out classifyLLMOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: classifier response is not valid JSON: %v", contractx.ErrClassificationFailed, err)
	}

	candidates := make([]contractx.IntentCandidate, 0, len(out.Candidates))
	for _, cand := range out.Candidates {
		if !cand.Intent.Valid() {
			continue
		}
		if cand.Confidence < 0 || cand.Confidence > 1 {
			continue
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

// extractJSONObject trims anything a chat model wraps around the JSON
// body, such as markdown fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

var _ contractx.Classifier = (*LLMClassifier)(nil)
