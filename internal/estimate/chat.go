package estimate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/toolbelt/plumbing-estimator/internal/ai"
	"github.com/toolbelt/plumbing-estimator/internal/features"
	"github.com/toolbelt/plumbing-estimator/internal/money"
)

// Intent is what a chat message is asking for.
type Intent string

const (
	IntentJob      Intent = "job"
	IntentGreeting Intent = "greeting"
	IntentHelp     Intent = "help"
	IntentThanks   Intent = "thanks"
	IntentOther    Intent = "other"
)

// jobKeywords match anywhere in the message, so "bathroom" counts as "bath".
var jobKeywords = []string{
	"fix", "repair", "install", "replace", "leak", "pipe", "drain",
	"toilet", "sink", "shower", "bath", "faucet", "water", "plumbing",
}

const (
	greetingReply = "Hello! I'm your AI plumbing assistant. I can help you estimate costs and time " +
		"for plumbing jobs. Just describe what you need done!"
	helpReply = "I can help you with plumbing job estimates! Just describe your plumbing needs:\n" +
		"- Repairs (leaks, clogs, etc.)\n" +
		"- Installations (toilets, sinks, showers, etc.)\n" +
		"- Replacements or upgrades\n\n" +
		"I'll analyze your description and provide cost and time estimates!"
	thanksReply = "You're welcome! Let me know if you need help with anything else!"
	promptReply = "I'm here to help with plumbing estimates! Could you describe the plumbing work " +
		"you need done? Include details like fixtures, repairs, or installations you're considering."
	moreDetailReply = "I understand you're describing a plumbing job, but I need a bit more detail to provide " +
		"an accurate estimate. Could you tell me more about:\n" +
		"- The specific fixtures involved (toilet, sink, shower, etc.)\n" +
		"- The type/quality level you're looking for (standard, luxury, etc.)\n" +
		"- Any other relevant details about the work?"
)

// ChatEstimate is the compact estimate attached to a chat reply.
type ChatEstimate struct {
	CostDZD  float64 `json:"cost_dzd"`
	CostGBP  float64 `json:"cost_gbp"`
	TimeDays int     `json:"time_days"`
}

// ChatResponse is the reply to one chat message.
type ChatResponse struct {
	Response  string          `json:"response"`
	Intent    Intent          `json:"intent"`
	ID        string          `json:"id,omitempty"`
	Estimate  *ChatEstimate   `json:"estimate,omitempty"`
	Features  features.Record `json:"features,omitempty"`
	Materials []Material      `json:"materials,omitempty"`
	Tasks     []Task          `json:"tasks,omitempty"`
}

// DetectIntent classifies a chat message. Job keywords win over small talk.
func DetectIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, kw := range jobKeywords {
		if strings.Contains(lower, kw) {
			return IntentJob
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && r != '\''
	})
	has := func(candidates ...string) bool {
		for _, w := range words {
			for _, c := range candidates {
				if w == c {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("hello", "hi", "hey"):
		return IntentGreeting
	case has("help") || strings.Contains(lower, "what can you do"):
		return IntentHelp
	case has("thank", "thanks"):
		return IntentThanks
	default:
		return IntentOther
	}
}

// Chat answers a conversational message, estimating when it describes a job.
func (s *Service) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	message, err := ai.CheckDescription(message)
	if err != nil {
		return nil, err
	}

	intent := DetectIntent(message)
	switch intent {
	case IntentGreeting:
		return &ChatResponse{Response: greetingReply, Intent: intent}, nil
	case IntentHelp:
		return &ChatResponse{Response: helpReply, Intent: intent}, nil
	case IntentThanks:
		return &ChatResponse{Response: thanksReply, Intent: intent}, nil
	case IntentOther:
		return &ChatResponse{Response: promptReply, Intent: intent}, nil
	}

	result, err := s.Estimate(ctx, message)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.logger.Warn("chat estimate failed", zap.Error(err))
		return &ChatResponse{Response: moreDetailReply, Intent: intent}, nil
	}

	quote, err := BuildQuote(result.Features)
	if err != nil {
		s.logger.Warn("failed to build quote", zap.Error(err))
		quote = &Quote{}
	}

	return &ChatResponse{
		Response: chatSummary(message, result),
		Intent:   intent,
		ID:       result.ID,
		Estimate: &ChatEstimate{
			CostDZD:  result.CostDZD,
			CostGBP:  result.CostGBP,
			TimeDays: result.TimeDays,
		},
		Features:  result.Features,
		Materials: quote.Materials,
		Tasks:     quote.Tasks,
	}, nil
}

func chatSummary(message string, r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I understand you need help with: %s\n\n", message)
	b.WriteString("Based on my analysis, here's what I estimate:\n")
	fmt.Fprintf(&b, "💰 Cost: %s (%s)\n", money.Format("£", r.CostGBP), money.FormatCode(r.CostDZD, "DZD"))
	fmt.Fprintf(&b, "⏱️ Time: %d days\n\n", r.TimeDays)
	if r.Fallback {
		b.WriteString("I couldn't read every detail from your description, so some fixtures use typical values. ")
	} else {
		b.WriteString("This estimate is based on the specific details you provided. ")
	}
	b.WriteString("Would you like me to explain any part of this estimate or do you have additional questions?")
	return b.String()
}
