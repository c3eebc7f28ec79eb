package triage

import (
	"testing"

	"github.com/mythictransfers/supportdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantResponse string
		wantRoute    models.Route
		wantReason   string
	}{
		{
			name:         "structured auto send",
			raw:          `{"reply": "Your order shipped!", "routing": "AUTO-SEND"}`,
			wantResponse: "Your order shipped!",
			wantRoute:    models.RouteAutoSend,
			wantReason:   ReasonModelAutoSend,
		},
		{
			name:         "structured underscore spelling",
			raw:          `{"reply": "Press at 300F", "routing": "auto_send"}`,
			wantResponse: "Press at 300F",
			wantRoute:    models.RouteAutoSend,
			wantReason:   ReasonModelAutoSend,
		},
		{
			name:         "structured human review",
			raw:          "```json\n{\"reply\": \"Please send photos.\", \"routing\": \"HUMAN_REVIEW\"}\n```",
			wantResponse: "Please send photos.",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonModelReview,
		},
		{
			name:         "structured unknown routing value",
			raw:          `{"reply": "Hi", "routing": "MAYBE"}`,
			wantResponse: "Hi",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonInvalidRouting,
		},
		{
			name:         "review token overrides structured auto",
			raw:          `{"reply": "Refund coming", "routing": "AUTO-SEND"} [HUMAN-REVIEW]`,
			wantResponse: "Refund coming",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonReviewToken,
		},
		{
			name:         "legacy auto token",
			raw:          "Thanks for reaching out!\n\nMythic Transfers Team\n[AUTO-SEND]",
			wantResponse: "Thanks for reaching out!\n\nMythic Transfers Team",
			wantRoute:    models.RouteAutoSend,
			wantReason:   ReasonAutoSendToken,
		},
		{
			name:         "legacy review token",
			raw:          "We need photos first.\n[HUMAN-REVIEW]",
			wantResponse: "We need photos first.",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonReviewToken,
		},
		{
			name:         "both tokens present",
			raw:          "[AUTO-SEND] Hello [HUMAN-REVIEW]",
			wantResponse: "Hello",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonReviewToken,
		},
		{
			name:         "no signal defaults to review",
			raw:          "Just some text",
			wantResponse: "Just some text",
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonNoRoutingSignal,
		},
		{
			name:         "json with empty reply falls back to tokens",
			raw:          `{"reply": "", "routing": "AUTO-SEND"}`,
			wantResponse: `{"reply": "", "routing": "AUTO-SEND"}`,
			wantRoute:    models.RouteHumanReview,
			wantReason:   ReasonNoRoutingSignal,
		},
		{
			name:         "braces in free text",
			raw:          "Use code {SAVE10} at checkout [AUTO-SEND]",
			wantResponse: "Use code {SAVE10} at checkout",
			wantRoute:    models.RouteAutoSend,
			wantReason:   ReasonAutoSendToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := ParseDraft(tt.raw)
			assert.Equal(t, tt.wantResponse, draft.Response)
			assert.Equal(t, tt.wantRoute, draft.Route)
			assert.Equal(t, tt.wantReason, draft.RouteReason)
			assert.Equal(t, tt.raw, draft.RawResponse)
			assert.False(t, draft.AutoSend && draft.RequiresReview, "auto send and review both set")
			assert.Equal(t, tt.wantRoute == models.RouteAutoSend, draft.ShouldAutoSend())
			assert.NotContains(t, draft.Response, autoSendToken)
			assert.NotContains(t, draft.Response, humanReviewToken)
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	t.Run("extracts object surrounded by prose", func(t *testing.T) {
		analysis, err := ParseAnalysis(`Sure! {"intent":"damage_claim","urgency":"high","sentiment":"angry","has_order_number":true,"potential_scam_indicators":false,"summary":"Box arrived crushed"} Hope that helps.`)
		require.NoError(t, err)
		assert.Equal(t, models.IntentDamageClaim, analysis.Intent)
		assert.Equal(t, models.UrgencyHigh, analysis.Urgency)
		assert.Equal(t, models.SentimentAngry, analysis.Sentiment)
		assert.True(t, analysis.HasOrderNumber)
		assert.Equal(t, "Box arrived crushed", analysis.Summary)
	})

	t.Run("accepts quoted booleans", func(t *testing.T) {
		analysis, err := ParseAnalysis(`{"intent":"refund_request","sentiment":"angry","has_order_number":"true","potential_scam_indicators":"false"}`)
		require.NoError(t, err)
		require.NotNil(t, analysis)
		assert.Equal(t, models.IntentRefundRequest, analysis.Intent)
		assert.Equal(t, models.SentimentAngry, analysis.Sentiment)
		assert.True(t, analysis.HasOrderNumber)
		assert.False(t, analysis.PotentialScamIndicators)
	})

	t.Run("null flags decode as false", func(t *testing.T) {
		analysis, err := ParseAnalysis(`{"intent":"other","has_order_number":null,"potential_scam_indicators":"TRUE"}`)
		require.NoError(t, err)
		assert.False(t, analysis.HasOrderNumber)
		assert.True(t, analysis.PotentialScamIndicators)
	})

	t.Run("rejects non boolean flag", func(t *testing.T) {
		_, err := ParseAnalysis(`{"intent":"other","has_order_number":"maybe"}`)
		assert.Error(t, err)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := ParseAnalysis("I cannot help with that")
		assert.ErrorIs(t, err, errNoJSONObject)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseAnalysis(`{"intent": }`)
		assert.Error(t, err)
	})
}
