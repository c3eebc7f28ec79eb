// Package knowledge holds the shop's policy and brand-voice facts and renders
// them into the system prompt used for drafting replies.
package knowledge

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

//go:embed prompt.tmpl
var promptTemplate string

type Base struct {
	BrandVoice         BrandVoice         `yaml:"brand_voice"`
	Company            Company            `yaml:"company"`
	Policies           Policies           `yaml:"policies"`
	Product            Product            `yaml:"product"`
	FileRequirements   FileRequirements   `yaml:"file_requirements"`
	TikTokLive         TikTokLive         `yaml:"tiktok_live"`
	PaymentMethods     []string           `yaml:"payment_methods"`
	ResponseGuidelines ResponseGuidelines `yaml:"response_guidelines"`
	ConfidenceRules    ConfidenceRules    `yaml:"confidence_rules"`
}

type BrandVoice struct {
	Tone           string   `yaml:"tone"`
	DishonestyTone string   `yaml:"dishonesty_tone"`
	Personality    []string `yaml:"personality"`
	SignOff        string   `yaml:"sign_off"`
	ExamplePhrases []string `yaml:"example_phrases"`
}

type Company struct {
	Name         string `yaml:"name"`
	Website      string `yaml:"website"`
	Email        string `yaml:"email"`
	TikTok       string `yaml:"tiktok"`
	Location     string `yaml:"location"`
	SupportHours string `yaml:"support_hours"`
	ResponseTime string `yaml:"response_time"`
}

type Policies struct {
	Shipping       ShippingPolicy `yaml:"shipping"`
	ReturnsRefunds ReturnsPolicy  `yaml:"returns_refunds"`
	CombineOrders  CombinePolicy  `yaml:"combine_orders"`
	Discounts      DiscountPolicy `yaml:"discounts"`
}

type ShippingPolicy struct {
	ProcessingTime string `yaml:"processing_time"`
	CustomBulkTime string `yaml:"custom_bulk_time"`
	Carriers       string `yaml:"carriers"`
	Tracking       string `yaml:"tracking"`
	LocalPickup    string `yaml:"local_pickup"`
}

type ReturnsPolicy struct {
	ReturnsAllowed          bool     `yaml:"returns_allowed"`
	Reason                  string   `yaml:"reason"`
	RefundMethod            string   `yaml:"refund_method"`
	DamageClaimRequirements []string `yaml:"damage_claim_requirements"`
	Cancellation            string   `yaml:"cancellation"`
}

type CombinePolicy struct {
	How     string `yaml:"how"`
	Release string `yaml:"release"`
}

type DiscountPolicy struct {
	AffiliateWholesale  string `yaml:"affiliate_wholesale"`
	StackingProhibited  bool   `yaml:"stacking_prohibited"`
	StackingConsequence string `yaml:"stacking_consequence"`
}

type Product struct {
	Type              string            `yaml:"type"`
	Technology        string            `yaml:"technology"`
	PressInstructions PressInstructions `yaml:"press_instructions"`
	NoCuttingWeeding  bool              `yaml:"no_cutting_weeding"`
	Recommendation    string            `yaml:"recommendation"`
}

type PressInstructions struct {
	Temperature string `yaml:"temperature"`
	Time        string `yaml:"time"`
	Pressure    string `yaml:"pressure"`
	Peel        string `yaml:"peel"`
	Repress     string `yaml:"repress"`
}

type FileRequirements struct {
	PreferredFormat string `yaml:"preferred_format"`
	Avoid           string `yaml:"avoid"`
	HelpAvailable   string `yaml:"help_available"`
}

type TikTokLive struct {
	HowToClaim      string `yaml:"how_to_claim"`
	CheckoutProcess string `yaml:"checkout_process"`
	MissedClaim     string `yaml:"missed_claim"`
	Support         string `yaml:"support"`
}

type ResponseGuidelines struct {
	OrderStatus     map[string]string `yaml:"order_status"`
	DamageClaims    DamageGuidelines  `yaml:"damage_claims"`
	RefundRequests  map[string]string `yaml:"refund_requests"`
	HowToPress      map[string]string `yaml:"how_to_press"`
	CustomOrders    map[string]string `yaml:"custom_orders"`
	TikTokQuestions map[string]string `yaml:"tiktok_questions"`
}

type DamageGuidelines struct {
	LegitimateSounding string   `yaml:"legitimate_sounding"`
	Suspicious         string   `yaml:"suspicious"`
	RedFlags           []string `yaml:"red_flags"`
}

type ConfidenceRules struct {
	AutoSend    []string    `yaml:"auto_send"`
	HumanReview []string    `yaml:"human_review"`
	ForceReview ForceReview `yaml:"force_review"`
}

// ForceReview lists classification outcomes that always route a draft to a human.
type ForceReview struct {
	Intents        []string `yaml:"intents"`
	Sentiments     []string `yaml:"sentiments"`
	ScamIndicators bool     `yaml:"scam_indicators"`
}

// Default returns the built-in knowledge base.
func Default() (*Base, error) {
	return Parse(defaultYAML)
}

// Load reads a knowledge base from path, or returns the built-in one when path is empty.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML knowledge base document.
func Parse(data []byte) (*Base, error) {
	var base Base
	if err := yaml.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	if base.Company.Name == "" {
		return nil, fmt.Errorf("knowledge base is missing company.name")
	}
	if base.BrandVoice.SignOff == "" {
		return nil, fmt.Errorf("knowledge base is missing brand_voice.sign_off")
	}

	return &base, nil
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

// SystemPrompt renders the drafting system prompt.
func (b *Base) SystemPrompt() (string, error) {
	tmpl, err := template.New("system").Funcs(promptFuncs).Parse(promptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, b); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}
