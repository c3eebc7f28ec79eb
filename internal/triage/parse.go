package triage

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mythictransfers/supportdesk/internal/models"
)

const (
	autoSendToken    = "[AUTO-SEND]"
	humanReviewToken = "[HUMAN-REVIEW]"
)

// Route reasons recorded on every draft.
const (
	ReasonModelAutoSend   = "model_auto_send"
	ReasonModelReview     = "model_human_review"
	ReasonInvalidRouting  = "invalid_routing_value"
	ReasonAutoSendToken   = "auto_send_token"
	ReasonReviewToken     = "human_review_token"
	ReasonNoRoutingSignal = "no_routing_signal"
	policyReasonPrefix    = "policy:"
)

var (
	errNoJSONObject = errors.New("no JSON object in completion")

	// First "{" through last "}".
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ParseAnalysis decodes the classification completion.
func ParseAnalysis(text string) (*models.Analysis, error) {
	match := jsonObjectPattern.FindString(text)
	if match == "" {
		return nil, errNoJSONObject
	}

	var wire analysisWire
	if err := json.Unmarshal([]byte(match), &wire); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	return &models.Analysis{
		Intent:                  wire.Intent,
		Urgency:                 wire.Urgency,
		Sentiment:               wire.Sentiment,
		HasOrderNumber:          bool(wire.HasOrderNumber),
		PotentialScamIndicators: bool(wire.PotentialScamIndicators),
		Summary:                 wire.Summary,
	}, nil
}

type analysisWire struct {
	Intent                  models.Intent    `json:"intent"`
	Urgency                 models.Urgency   `json:"urgency"`
	Sentiment               models.Sentiment `json:"sentiment"`
	HasOrderNumber          looseBool        `json:"has_order_number"`
	PotentialScamIndicators looseBool        `json:"potential_scam_indicators"`
	Summary                 string           `json:"summary"`
}

// looseBool accepts true, false, null and their quoted forms. Models
// sometimes quote booleans.
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	value := strings.ToLower(strings.Trim(strings.TrimSpace(string(data)), `"`))
	switch value {
	case "true":
		*b = true
	case "false", "null", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

type structuredDraft struct {
	Reply   string `json:"reply"`
	Routing string `json:"routing"`
}

// ParseDraft turns a drafting completion into a routed DraftResponse.
//
// A JSON object with a non-empty "reply" is routed by its "routing" value.
// Anything else is treated as free text and routed by the bracketed
// [AUTO-SEND] / [HUMAN-REVIEW] tokens. A review token anywhere in the raw
// text forces review, and no usable signal at all defaults to review.
func ParseDraft(raw string) *models.DraftResponse {
	reviewTokenSeen := strings.Contains(raw, humanReviewToken)

	if structured, ok := parseStructured(raw); ok {
		route, reason := routeFromValue(structured.Routing)
		if reviewTokenSeen {
			route, reason = models.RouteHumanReview, ReasonReviewToken
		}
		return newDraft(stripTokens(structured.Reply), raw, route, reason)
	}

	autoTokenSeen := strings.Contains(raw, autoSendToken)
	switch {
	case reviewTokenSeen:
		return newDraft(stripTokens(raw), raw, models.RouteHumanReview, ReasonReviewToken)
	case autoTokenSeen:
		return newDraft(stripTokens(raw), raw, models.RouteAutoSend, ReasonAutoSendToken)
	default:
		return newDraft(stripTokens(raw), raw, models.RouteHumanReview, ReasonNoRoutingSignal)
	}
}

func parseStructured(raw string) (structuredDraft, bool) {
	var draft structuredDraft
	match := jsonObjectPattern.FindString(raw)
	if match == "" {
		return draft, false
	}
	if err := json.Unmarshal([]byte(match), &draft); err != nil {
		return draft, false
	}
	if strings.TrimSpace(draft.Reply) == "" {
		return draft, false
	}
	return draft, true
}

func routeFromValue(value string) (models.Route, string) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "AUTO-SEND", "AUTO_SEND":
		return models.RouteAutoSend, ReasonModelAutoSend
	case "HUMAN-REVIEW", "HUMAN_REVIEW":
		return models.RouteHumanReview, ReasonModelReview
	default:
		return models.RouteHumanReview, ReasonInvalidRouting
	}
}

func stripTokens(text string) string {
	text = strings.ReplaceAll(text, autoSendToken, "")
	text = strings.ReplaceAll(text, humanReviewToken, "")
	return strings.TrimSpace(text)
}

// newDraft is the only constructor, so AutoSend and RequiresReview always agree with route.
func newDraft(response, raw string, route models.Route, reason string) *models.DraftResponse {
	auto := route == models.RouteAutoSend
	return &models.DraftResponse{
		Response:       response,
		RequiresReview: !auto,
		AutoSend:       auto,
		RawResponse:    raw,
		Route:          route,
		RouteReason:    reason,
	}
}
