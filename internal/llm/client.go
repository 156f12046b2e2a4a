// Package llm adapts the OpenAI chat completion API to the
// conversation responder contract.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"telecaller-platform/internal/conversation"
)

const defaultTimeout = 8 * time.Second

// Client generates stage utterances with a chat model. A slow or
// failing API call surfaces as an error to the engine, which falls
// back to static lines, so the timeout here bounds one full turn.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	timeout     time.Duration
	log         *slog.Logger
}

func NewClient(apiKey, model string, temperature float64, log *slog.Logger) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		api:         openai.NewClient(apiKey),
		model:       model,
		temperature: float32(temperature),
		timeout:     defaultTimeout,
		log:         log,
	}
}

var _ conversation.Responder = (*Client)(nil)

// Respond produces the assistant utterance for one stage. The system
// prompt carries the call context; the stage instruction steers the
// model toward the current step of the flow.
func (c *Client) Respond(ctx context.Context, systemPrompt string, history []conversation.Entry, stage conversation.Stage) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, e := range history {
		role := openai.ChatMessageRoleUser
		if e.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: e.Text})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: stageInstruction(stage),
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func stageInstruction(s conversation.Stage) string {
	switch s {
	case conversation.StageGreeting:
		return "Open the call: greet warmly and introduce yourself in one or two sentences."
	case conversation.StagePermissionCheck:
		return "Confirm you are speaking with the right person and ask for two or three minutes of their time."
	case conversation.StageIdentityVerification:
		return "Acknowledge their role and explain briefly why their institution was selected."
	case conversation.StageProgramIntroduction:
		return "Introduce the programme from the call context in two or three sentences."
	case conversation.StageBenefitsDiscussion:
		return "Describe the concrete benefits for their students, tied to what they just said."
	case conversation.StageObjectionHandling:
		return "Address their last concern directly and empathetically, then invite them back to the programme's value."
	case conversation.StagePricingDiscussion:
		return "Present the fee, the scholarship and the final price from the call context, value first."
	case conversation.StageNextSteps:
		return "Propose concrete next steps: sending the brochure by email or scheduling a follow-up call."
	case conversation.StageClosing:
		return "Thank them for their time and close the call politely in one or two sentences."
	default:
		return "Say a brief polite goodbye."
	}
}
