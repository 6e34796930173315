package bot

import (
	"clai-chat/internal/env"
	"context"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = openai.GPT3Dot5Turbo

// OpenAIResponder generates replies through the OpenAI chat API. Errors are
// swallowed into a fixed fallback reply so a model outage never surfaces as a
// failed conversation.
type OpenAIResponder struct {
	client *openai.Client
	model  string
}

func NewOpenAIResponder(apiKey, model string) *OpenAIResponder {
	if model == "" {
		model = defaultModel
	}
	return &OpenAIResponder{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// FromEnv returns the OpenAI responder when an API key is configured, the
// rule-based responder otherwise.
func FromEnv() Responder {
	apiKey := env.Get(env.OpenAIAPIKey)
	if apiKey == "" {
		return NewRuleResponder()
	}
	return NewOpenAIResponder(apiKey, env.Get(env.OpenAIModel))
}

func (r *OpenAIResponder) Respond(ctx context.Context, profile Profile, history []Turn, message string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(profile),
		},
	}

	for _, turn := range history {
		role := openai.ChatMessageRoleUser
		if turn.Sender == "bot" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: turn.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		log.Printf("bot: chat completion failed: %v", err)
		return fallbackReply, nil
	}
	if len(resp.Choices) == 0 {
		return fallbackReply, nil
	}

	return resp.Choices[0].Message.Content, nil
}

func systemPrompt(profile Profile) string {
	prompt := fmt.Sprintf("You are a helpful assistant for %s.", profile.Name)
	if profile.AllowedResponses != "" {
		prompt += "\n\nDO SAY:\n" + profile.AllowedResponses
	}
	if profile.ForbiddenResponses != "" {
		prompt += "\n\nDO NOT SAY:\n" + profile.ForbiddenResponses
	}
	return prompt
}
