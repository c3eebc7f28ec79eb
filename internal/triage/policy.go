package triage

import (
	"slices"

	"github.com/mythictransfers/supportdesk/internal/knowledge"
	"github.com/mythictransfers/supportdesk/internal/models"
)

// Policy forces review for classifications that must never auto-send.
type Policy struct {
	Intents        []models.Intent
	Sentiments     []models.Sentiment
	ScamIndicators bool
}

// PolicyFromRules converts the knowledge base's force-review rules.
func PolicyFromRules(rules knowledge.ForceReview) Policy {
	p := Policy{ScamIndicators: rules.ScamIndicators}
	for _, intent := range rules.Intents {
		p.Intents = append(p.Intents, models.Intent(intent))
	}
	for _, sentiment := range rules.Sentiments {
		p.Sentiments = append(p.Sentiments, models.Sentiment(sentiment))
	}
	return p
}

// Apply downgrades an auto-send draft to review when a rule matches.
// It never promotes a review draft.
func (p Policy) Apply(draft *models.DraftResponse, analysis *models.Analysis) {
	if draft == nil || analysis == nil || !draft.ShouldAutoSend() {
		return
	}

	rule := p.match(analysis)
	if rule == "" {
		return
	}
	draft.AutoSend = false
	draft.RequiresReview = true
	draft.Route = models.RouteHumanReview
	draft.RouteReason = policyReasonPrefix + rule
}

func (p Policy) match(analysis *models.Analysis) string {
	switch {
	case p.ScamIndicators && analysis.PotentialScamIndicators:
		return "scam_indicators"
	case slices.Contains(p.Intents, analysis.Intent):
		return "intent_" + string(analysis.Intent)
	case slices.Contains(p.Sentiments, analysis.Sentiment):
		return "sentiment_" + string(analysis.Sentiment)
	default:
		return ""
	}
}
