package bot

import (
	"context"
	"strings"
)

// Responder produces the bot side of a conversation. Implementations must be
// safe for concurrent use; the websocket server calls Respond from per-room
// goroutines.
type Responder interface {
	Respond(ctx context.Context, profile Profile, history []Turn, message string) (string, error)
}

// Profile carries the per-chatbot prompt material.
type Profile struct {
	Name               string
	AllowedResponses   string
	ForbiddenResponses string
}

type Turn struct {
	Sender  string
	Content string
}

const fallbackReply = "I'm having trouble connecting right now. Please try again in a moment."

// RuleResponder is the zero-dependency responder used when no model API key
// is configured, and in tests. It answers from a small keyword table and asks
// for contact details once it detects buying intent.
type RuleResponder struct{}

func NewRuleResponder() *RuleResponder {
	return &RuleResponder{}
}

func (r *RuleResponder) Respond(ctx context.Context, profile Profile, history []Turn, message string) (string, error) {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "price", "pricing", "cost", "quote", "demo", "trial", "sales", "contact"):
		return "I'd love to have someone from our team follow up. Could you provide your email address?", nil
	case containsAny(lower, "hello", "hi", "hey"):
		name := profile.Name
		if name == "" {
			name = "our assistant"
		}
		return "Hello! You're chatting with " + name + ". What can I help you with?", nil
	case containsAny(lower, "bye", "thanks", "thank you"):
		return "Thanks for chatting today. Feel free to come back any time!", nil
	case strings.HasSuffix(strings.TrimSpace(message), "?"):
		return "Good question. Let me check that for you - is there anything else you'd like to know in the meantime?", nil
	default:
		return "Got it. Could you tell me a bit more so I can point you in the right direction?", nil
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
