package llm

import (
	"context"
	"io"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleNote marks internal scratch turns (field snapshots, supervisor
	// corrections, history digests). Note turns never reach the end user
	// and are sent to the model as system turns.
	RoleNote Role = "note"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chat is the model capability the agent runs on: an ordered list of turns
// plus a sampling temperature in, a single text reply out.
type Chat interface {
	Chat(ctx context.Context, turns []Turn, temperature float32) (string, error)
}

// Audio is the optional speech capability used in audio mode.
type Audio interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}
