package intake

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"intakedesk/app/llm"
)

// runRigid walks the fixed question list one field at a time. Each answer
// is accepted or rejected by a single model call; a rejected answer re-asks
// the same question. No supervisor pass, no history injection: the model's
// own accept signal is trusted as-is.
func (s *Service) runRigid(ctx context.Context) error {
	systemPrompt, err := s.set.Format("system_prompt", map[string]any{"company": s.cfg.Company})
	if err != nil {
		return err
	}
	s.transcript.Append(llm.RoleSystem, systemPrompt)

	invalidInput, err := s.set.Format("invalid_input", nil)
	if err != nil {
		return err
	}

	for _, question := range s.set.Questions() {
		for {
			if err = s.io.Write(ctx, question.Text); err != nil {
				return err
			}
			s.transcript.Append(llm.RoleAssistant, question.Text)

			input, err := s.io.Read(ctx)
			if err != nil {
				return err
			}
			s.transcript.Append(llm.RoleUser, input)

			instruction, err := s.set.Format("validation_instruction", map[string]any{
				"key":              question.Key,
				"invalid_response": sentinelInvalid,
			})
			if err != nil {
				return err
			}

			prompt := append(slices.Clone(s.transcript.Turns()), llm.Turn{Role: llm.RoleNote, Content: instruction})

			result, err := s.chat.Chat(ctx, prompt, chatTemperature)
			if err != nil {
				return fmt.Errorf("validation call for %s failed: %w", question.Key, err)
			}

			slog.Debug("Rigid answer validation", "key", question.Key, "result", result)

			if !strings.EqualFold(strings.TrimSpace(result), sentinelInvalid) {
				s.extracted[question.Key] = result
				break
			}

			if err = s.io.Write(ctx, invalidInput); err != nil {
				return err
			}
		}
	}

	return s.finalize(ctx)
}
