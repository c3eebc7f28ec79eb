package models

type Intent string

const (
	IntentOrderStatus     Intent = "order_status"
	IntentDamageClaim     Intent = "damage_claim"
	IntentRefundRequest   Intent = "refund_request"
	IntentHowToPress      Intent = "how_to_press"
	IntentFileHelp        Intent = "file_help"
	IntentTikTokQuestion  Intent = "tiktok_question"
	IntentCombineOrders   Intent = "combine_orders"
	IntentGeneralQuestion Intent = "general_question"
	IntentComplaint       Intent = "complaint"
	IntentOther           Intent = "other"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentFrustrated Sentiment = "frustrated"
	SentimentAngry      Sentiment = "angry"
)

// Analysis is the model's classification of an inbound message.
// A nil *Analysis means classification failed and is treated as unknown.
type Analysis struct {
	Intent                  Intent    `json:"intent"`
	Urgency                 Urgency   `json:"urgency"`
	Sentiment               Sentiment `json:"sentiment"`
	HasOrderNumber          bool      `json:"has_order_number"`
	PotentialScamIndicators bool      `json:"potential_scam_indicators"`
	Summary                 string    `json:"summary"`
}

// Route is the routing decision for a drafted reply.
type Route string

const (
	RouteAutoSend    Route = "auto_send"
	RouteHumanReview Route = "human_review"
)

// DraftResponse is a drafted reply together with its routing decision.
// AutoSend and RequiresReview are never both true.
type DraftResponse struct {
	Response       string `json:"response"`
	RequiresReview bool   `json:"requiresReview"`
	AutoSend       bool   `json:"autoSend"`
	RawResponse    string `json:"rawResponse"`
	Route          Route  `json:"route"`
	RouteReason    string `json:"routeReason"`
}

// ShouldAutoSend reports whether the draft may go out without a human.
func (d *DraftResponse) ShouldAutoSend() bool {
	return d != nil && d.AutoSend && !d.RequiresReview
}
