package classifier

import (
	"context"
	"regexp"

	contractx "github.com/tanpawarit/Chative-Customer-Service-Coordination/agent/contract"
)

// RuleClassifier resolves intents with deterministic keyword patterns.
// Matches carry confidence 1.0 so they always clear the router threshold;
// queries no rule recognizes fall through to the delegated classifier.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

var intentPatterns = []struct {
	intent   contractx.Intent
	patterns []*regexp.Regexp
}{
	{
		intent: contractx.IntentBillingDispute,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bbilling\b`),
			regexp.MustCompile(`(?i)\bcharged?\b`),
			regexp.MustCompile(`(?i)\brefund\b`),
			regexp.MustCompile(`(?i)\binvoice\b`),
			regexp.MustCompile(`(?i)\bpayment\b`),
		},
	},
	{
		intent: contractx.IntentCancellation,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcancel(l?ation|l?ing|l?ed)?\b`),
			regexp.MustCompile(`(?i)\bclose my (account|subscription)\b`),
		},
	},
	{
		intent: contractx.IntentTicketStatusReport,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)high[- ]priority tickets?`),
			regexp.MustCompile(`(?i)status of .{0,40}tickets?`),
			regexp.MustCompile(`(?i)\btickets? for (premium|active) customers\b`),
		},
	},
	{
		intent: contractx.IntentUpgrade,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bupgrad(e|ing|ed)\b`),
			regexp.MustCompile(`(?i)\bhigher (plan|tier)\b`),
		},
	},
	{
		intent: contractx.IntentLookup,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)customer (information|details|record)`),
			regexp.MustCompile(`(?i)\b(get|show|fetch|look ?up) .{0,30}customer\b`),
			regexp.MustCompile(`(?i)\baccount (details|information)\b`),
			regexp.MustCompile(`(?i)\bwho is customer\b`),
		},
	},
}

func (c *RuleClassifier) Classify(ctx context.Context, text string) ([]contractx.IntentCandidate, error) {
	var out []contractx.IntentCandidate
	for _, entry := range intentPatterns {
		for _, p := range entry.patterns {
			if p.MatchString(text) {
				out = append(out, contractx.IntentCandidate{Intent: entry.intent, Confidence: 1.0})
				break
			}
		}
	}
	return out, nil
}

var _ contractx.Classifier = (*RuleClassifier)(nil)
