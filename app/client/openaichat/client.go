package openaichat

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"intakedesk/app/config"
	"intakedesk/app/llm"

	"github.com/samber/do"
	"github.com/sashabaranov/go-openai"
)

const requestTimeout = 30 * time.Second

var _ llm.Chat = (*Client)(nil)
var _ llm.Audio = (*Client)(nil)

// Client talks to a hosted OpenAI-compatible endpoint for chat, speech
// transcription and speech synthesis.
type Client struct {
	cfg    *config.Config
	client *openai.Client
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	clientConfig := openai.DefaultConfig(cfg.OpenAI.Token)
	clientConfig.BaseURL = cfg.OpenAI.BaseURL
	clientConfig.HTTPClient = &http.Client{
		Timeout: requestTimeout,
	}

	return &Client{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (c *Client) Chat(ctx context.Context, turns []llm.Turn, temperature float32) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    wireRole(turn.Role),
			Content: turn.Content,
		})
	}

	aiResponse, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       c.cfg.OpenAI.Model,
			Messages:    messages,
			Temperature: temperature,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(aiResponse.Choices) == 0 {
		return "", fmt.Errorf("no chat completion found")
	}

	return strings.TrimSpace(aiResponse.Choices[0].Message.Content), nil
}

func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.OpenAI.TranscribeModel,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe audio: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Synthesize returns a raw PCM stream (24kHz, 16-bit mono) of the spoken text.
func (c *Client) Synthesize(ctx context.Context, text string) (io.ReadCloser, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.OpenAI.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.cfg.OpenAI.TTSVoice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return resp, nil
}

// wireRole maps internal roles to API ones. Note turns ride as system turns.
func wireRole(role llm.Role) string {
	switch role {
	case llm.RoleUser:
		return openai.ChatMessageRoleUser
	case llm.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleSystem
	}
}
