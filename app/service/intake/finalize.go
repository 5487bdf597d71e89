package intake

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"intakedesk/app/llm"
	"intakedesk/app/service/fields"
	"intakedesk/app/service/store"
)

// fallbackOrderKey keys sessions that ended without an order number, so a
// ceiling-terminated conversation is still persisted somewhere findable.
const fallbackOrderKey = "UNKNOWN"

// finalize runs whether the loop ended by supervisor accept, by field
// completion or by the message ceiling: summarize, score frustration,
// persist, and surface the result to the customer.
func (s *Service) finalize(ctx context.Context) error {
	working := s.transcript.Project()

	note, err := s.set.Format("partial_notes", map[string]any{
		"extracted": fields.FormatExtracted(s.extracted),
	})
	if err != nil {
		return err
	}
	working = s.appendBoth(working, llm.RoleNote, note)

	summaryInstruction, err := s.set.Format("summary_instruction", nil)
	if err != nil {
		return err
	}

	summaryPrompt := append(slices.Clone(working), llm.Turn{Role: llm.RoleNote, Content: summaryInstruction})

	summary, err := s.chat.Chat(ctx, summaryPrompt, chatTemperature)
	if err != nil {
		return err
	}

	score, err := s.frustrationScore(ctx, working)
	if err != nil {
		return err
	}

	orderID, ok := s.extracted[fields.KeyOrderNumber]
	if !ok {
		orderID = fallbackOrderKey
	}

	session := store.Session{
		Timestamp:        store.Now(),
		Mode:             s.cfg.Mode,
		Conversation:     working,
		Extracted:        s.extracted,
		Summary:          summary,
		FrustrationScore: score,
		Lang:             s.cfg.Lang,
	}

	if err = s.store.Save(orderID, session); err != nil {
		return err
	}

	extractedMsg, err := s.set.Format("extracted_info", map[string]any{
		"extracted": fields.FormatExtracted(s.extracted),
	})
	if err != nil {
		return err
	}
	if err = s.io.Write(ctx, extractedMsg); err != nil {
		return err
	}

	summaryMsg, err := s.set.Format("summary_prefix", map[string]any{"summary": summary})
	if err != nil {
		return err
	}

	return s.io.Write(ctx, summaryMsg)
}

// frustrationScore asks the model for a 0-10 integer. Anything that does
// not parse, or falls outside the range, yields a null score. Only the
// transport can fail here.
func (s *Service) frustrationScore(ctx context.Context, working []llm.Turn) (*int, error) {
	instruction, err := s.set.Format("customer_frustration", nil)
	if err != nil {
		return nil, err
	}

	prompt := append(slices.Clone(working), llm.Turn{Role: llm.RoleNote, Content: instruction})

	reply, err := s.chat.Chat(ctx, prompt, chatTemperature)
	if err != nil {
		return nil, err
	}

	score, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil || score < 0 || score > 10 {
		slog.Debug("Discarding frustration score", "reply", reply)
		return nil, nil
	}

	return &score, nil
}
