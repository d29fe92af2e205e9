package classifier

import (
	"context"
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

func intentsOf(candidates []contractx.IntentCandidate) map[contractx.Intent]bool {
	out := make(map[contractx.Intent]bool, len(candidates))
	for _, c := range candidates {
		out[c.Intent] = true
	}
	return out
}

func TestRuleClassifierSingleIntents(t *testing.T) {
	cases := []struct {
		text string
		want contractx.Intent
	}{
		{"Get customer information for ID 5", contractx.IntentLookup},
		{"show me customer 12", contractx.IntentLookup},
		{"I'm customer 12345 and need help upgrading my account", contractx.IntentUpgrade},
		{"I've been charged twice, please refund immediately!", contractx.IntentBillingDispute},
		{"I want to cancel my subscription", contractx.IntentCancellation},
		{"What's the status of all high-priority tickets for premium customers?", contractx.IntentTicketStatusReport},
	}

	c := NewRuleClassifier()
	for _, tc := range cases {
		candidates, err := c.Classify(context.Background(), tc.text)
		if err != nil {
			t.Fatalf("Classify(%q) error: %v", tc.text, err)
		}
		got := intentsOf(candidates)
		if !got[tc.want] {
			t.Errorf("Classify(%q) = %v, want %s", tc.text, candidates, tc.want)
		}
		for _, cand := range candidates {
			if cand.Confidence != 1.0 {
				t.Errorf("rule match confidence = %v, want 1.0", cand.Confidence)
			}
		}
	}
}

func TestRuleClassifierMultiIntent(t *testing.T) {
	c := NewRuleClassifier()
	candidates, err := c.Classify(context.Background(),
		"I want to cancel my subscription but I'm having billing issues")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}

	got := intentsOf(candidates)
	if !got[contractx.IntentCancellation] || !got[contractx.IntentBillingDispute] {
		t.Fatalf("want cancellation+billing-dispute, got %v", candidates)
	}
}

func TestRuleClassifierNoMatch(t *testing.T) {
	c := NewRuleClassifier()
	candidates, err := c.Classify(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("want no candidates, got %v", candidates)
	}
}

type fakeClassifier struct {
	candidates []contractx.IntentCandidate
	err        error
	calls      int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) ([]contractx.IntentCandidate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func TestChainFallsThroughToSecondClassifier(t *testing.T) {
	second := &fakeClassifier{candidates: []contractx.IntentCandidate{
		{Intent: contractx.IntentUpgrade, Confidence: 0.8},
	}}
	chain := NewChain(NewRuleClassifier(), second)

	candidates, err := chain.Classify(context.Background(), "something unrecognizable")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if second.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", second.calls)
	}
	if len(candidates) != 1 || candidates[0].Intent != contractx.IntentUpgrade {
		t.Fatalf("unexpected candidates: %v", candidates)
	}
}

func TestChainSkipsFallbackWhenRulesMatch(t *testing.T) {
	second := &fakeClassifier{}
	chain := NewChain(NewRuleClassifier(), second)

	if _, err := chain.Classify(context.Background(), "cancel my subscription"); err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if second.calls != 0 {
		t.Fatalf("fallback should not be consulted on a rule match, calls = %d", second.calls)
	}
}

func TestChainReturnsLastError(t *testing.T) {
	wantErr := errors.New("model unreachable")
	chain := NewChain(NewRuleClassifier(), &fakeClassifier{err: wantErr})

	_, err := chain.Classify(context.Background(), "unmatchable text")
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestExtractJSONObject(t *testing.T) {
	in := "```json\n{\"candidates\":[]}\n```"
	if got := extractJSONObject(in); got != `{"candidates":[]}` {
		t.Fatalf("extractJSONObject = %q", got)
	}
}
