package userio

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"intakedesk/app/config"
	"intakedesk/app/llm"

	"github.com/samber/do"
)

// Service is the conversation boundary towards the customer: stdin/stdout
// in text mode, microphone capture plus spoken replies in audio mode.
type Service struct {
	cfg     *config.Config
	audio   llm.Audio
	scanner *bufio.Scanner
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var audio llm.Audio
	if cfg.Audio.Enabled {
		audio = do.MustInvoke[llm.Audio](di)
	}

	return &Service{
		cfg:     cfg,
		audio:   audio,
		scanner: bufio.NewScanner(os.Stdin),
	}, nil
}

func (s *Service) Read(ctx context.Context) (string, error) {
	if s.cfg.Audio.Enabled {
		return s.readAudio(ctx)
	}

	fmt.Print("> ")

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", fmt.Errorf("input closed")
	}

	return strings.TrimSpace(s.scanner.Text()), nil
}

// readAudio records until silence and transcribes. Transcription failures
// degrade to an empty utterance instead of ending the session.
func (s *Service) readAudio(ctx context.Context) (string, error) {
	audioPath, err := recordUntilSilence(ctx, s.cfg.Audio)
	if err != nil {
		return "", fmt.Errorf("failed to record audio: %w", err)
	}
	defer os.Remove(audioPath)

	text, err := s.audio.Transcribe(ctx, audioPath)
	if err != nil {
		slog.Warn("Transcription failed, treating input as empty", "error", err)
		return "", nil
	}

	slog.Debug("Transcribed input", "text", text)

	return strings.TrimSpace(text), nil
}

func (s *Service) Write(ctx context.Context, msg string) error {
	fmt.Println(msg)

	if !s.cfg.Audio.Enabled {
		return nil
	}

	stream, err := s.audio.Synthesize(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	defer stream.Close()

	return play(ctx, stream)
}
