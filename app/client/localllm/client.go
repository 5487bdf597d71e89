package localllm

import (
	"context"
	"fmt"
	"strings"

	"intakedesk/app/config"
	"intakedesk/app/llm"

	"github.com/samber/do"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var _ llm.Chat = (*Client)(nil)

// Client runs chat against a local Ollama-style server. Text only: audio
// mode requires the hosted backend.
type Client struct {
	cfg   *config.Config
	model *ollama.LLM
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	model, err := ollama.New(
		ollama.WithServerURL(cfg.Local.BaseURL),
		ollama.WithModel(cfg.Local.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Client{
		cfg:   cfg,
		model: model,
	}, nil
}

func (c *Client) Chat(ctx context.Context, turns []llm.Turn, temperature float32) (string, error) {
	content := make([]llms.MessageContent, 0, len(turns))
	for _, turn := range turns {
		content = append(content, llms.TextParts(messageType(turn.Role), turn.Content))
	}

	resp, err := c.model.GenerateContent(ctx, content, llms.WithTemperature(float64(temperature)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion found")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func messageType(role llm.Role) llms.ChatMessageType {
	switch role {
	case llm.RoleUser:
		return llms.ChatMessageTypeHuman
	case llm.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeSystem
	}
}
