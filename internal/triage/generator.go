package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/mythictransfers/supportdesk/internal/knowledge"
	"github.com/mythictransfers/supportdesk/internal/llm"
	"github.com/mythictransfers/supportdesk/internal/logger"
	"github.com/mythictransfers/supportdesk/internal/metrics"
	"github.com/mythictransfers/supportdesk/internal/models"
	"go.uber.org/zap"
)

const (
	analyzeMaxTokens = 256
	draftMaxTokens   = 1024
)

var draftSchema = &llm.Schema{
	Properties: map[string]llm.Property{
		"reply":   {Type: "string", Description: "The email to send to the customer"},
		"routing": {Type: "string", Enum: []string{"AUTO-SEND", "HUMAN-REVIEW"}},
	},
	Required: []string{"reply", "routing"},
}

// Generator classifies inbound mail and drafts routed replies.
type Generator struct {
	completer    llm.Completer
	systemPrompt string
	policy       Policy
	log          *zap.Logger
}

// NewGenerator renders the knowledge base's system prompt once up front.
func NewGenerator(completer llm.Completer, kb *knowledge.Base, log *zap.Logger) (*Generator, error) {
	systemPrompt, err := kb.SystemPrompt()
	if err != nil {
		return nil, err
	}
	return &Generator{
		completer:    completer,
		systemPrompt: systemPrompt,
		policy:       PolicyFromRules(kb.ConfidenceRules.ForceReview),
		log:          logger.Named(log, "triage"),
	}, nil
}

// Analyze classifies msg. Failures are logged and reported as a nil analysis.
func (g *Generator) Analyze(ctx context.Context, msg *models.InboundMessage) *models.Analysis {
	start := time.Now()
	text, err := g.completer.Complete(ctx, llm.Request{
		Prompt:    classificationPrompt(msg),
		MaxTokens: analyzeMaxTokens,
		JSON:      true,
	})
	metrics.RecordLLMCall(g.completer.Name(), "analyze", time.Since(start), err)
	if err != nil {
		g.log.Warn("Failed to classify email", zap.String("message_id", msg.MessageID), zap.Error(err))
		return nil
	}

	analysis, err := ParseAnalysis(text)
	if err != nil {
		g.log.Warn("Failed to parse classification", zap.String("message_id", msg.MessageID), zap.Error(err))
		return nil
	}
	return analysis
}

// Draft writes a reply and decides its route. analysis, order and customer may be nil.
func (g *Generator) Draft(ctx context.Context, msg *models.InboundMessage, analysis *models.Analysis,
	order *models.OrderRecord, customer *models.CustomerRecord) (*models.DraftResponse, error) {
	start := time.Now()
	text, err := g.completer.Complete(ctx, llm.Request{
		System:    g.systemPrompt,
		Prompt:    draftPrompt(msg, order, customer),
		MaxTokens: draftMaxTokens,
		JSON:      true,
		Schema:    draftSchema,
	})
	metrics.RecordLLMCall(g.completer.Name(), "draft", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to draft response: %w", err)
	}

	draft := ParseDraft(text)
	g.policy.Apply(draft, analysis)
	g.log.Debug("Drafted response",
		zap.String("message_id", msg.MessageID),
		zap.String("route", string(draft.Route)),
		zap.String("reason", draft.RouteReason))
	return draft, nil
}
