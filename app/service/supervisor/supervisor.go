package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"intakedesk/app/llm"
	"intakedesk/app/service/convo"
	"intakedesk/app/service/fields"
	"intakedesk/app/service/prompts"
)

const reviewTemperature = 0.3

// Verdict is the outcome of one review pass. Fields is the cleaned-up field
// map the caller should adopt; the input snapshot is never mutated.
type Verdict struct {
	OK     bool
	Fields map[string]string
}

// Service cross-checks extracted fields against the conversation with a
// second model pass: a yes/no hint, an optional correction round, an
// optional discard round, then a local format check that has the final say.
type Service struct {
	chat llm.Chat
	set  *prompts.Set
	lang string
}

func New(chat llm.Chat, set *prompts.Set, lang string) *Service {
	return &Service{
		chat: chat,
		set:  set,
		lang: lang,
	}
}

func (s *Service) Review(ctx context.Context, conversation []llm.Turn, extracted map[string]string) (Verdict, error) {
	snapshot := make(map[string]string, len(extracted))
	maps.Copy(snapshot, extracted)

	intro, err := s.set.Format("role_intro", map[string]any{
		"conversation": convo.Format(conversation),
	})
	if err != nil {
		return Verdict{}, err
	}

	check, err := s.set.Format("notes_check", map[string]any{
		"extracted":     fields.FormatExtracted(snapshot),
		"required_keys": strings.Join(fields.RequiredKeys, ", "),
	})
	if err != nil {
		return Verdict{}, err
	}

	review := []llm.Turn{
		{Role: llm.RoleSystem, Content: intro},
		{Role: llm.RoleUser, Content: check},
	}

	reply, err := s.chat.Chat(ctx, review, reviewTemperature)
	if err != nil {
		return Verdict{}, fmt.Errorf("supervisor check failed: %w", err)
	}
	review = append(review, llm.Turn{Role: llm.RoleAssistant, Content: reply})

	slog.Debug("Supervisor verdict hint", "reply", reply)

	if !isYes(reply) {
		ok, err := s.repair(ctx, &review, snapshot)
		if err != nil {
			return Verdict{}, err
		}
		if !ok {
			// Rejected before the recheck succeeded. Still normalize what
			// remains so no invalid value survives the pass.
			cleanFields(snapshot, s.lang)
			return Verdict{OK: false, Fields: snapshot}, nil
		}
	}

	cleanFields(snapshot, s.lang)

	return Verdict{
		OK:     len(fields.Missing(snapshot)) == 0,
		Fields: snapshot,
	}, nil
}

// repair asks the model for field corrections and applies them to the
// snapshot. Returns false when the model still considers the state wrong,
// after discarding whichever fields it names as incorrect.
func (s *Service) repair(ctx context.Context, review *[]llm.Turn, snapshot map[string]string) (bool, error) {
	fix, err := s.set.Format("fix_prompt", nil)
	if err != nil {
		return false, err
	}

	*review = append(*review, llm.Turn{Role: llm.RoleUser, Content: fix})

	reply, err := s.chat.Chat(ctx, *review, reviewTemperature)
	if err != nil {
		return false, fmt.Errorf("supervisor fix failed: %w", err)
	}
	*review = append(*review, llm.Turn{Role: llm.RoleAssistant, Content: reply})

	corrections, err := ParseFieldMap(reply)
	if err != nil {
		slog.Debug("Supervisor correction payload unparseable", "payload", reply, "error", err)
		return false, s.discardIncorrect(ctx, review, snapshot)
	}

	for key, value := range corrections {
		if isRequiredKey(key) {
			snapshot[key] = value
		}
	}

	recheck, err := s.set.Format("recheck", map[string]any{
		"extracted": fields.FormatExtracted(snapshot),
	})
	if err != nil {
		return false, err
	}

	*review = append(*review, llm.Turn{Role: llm.RoleUser, Content: recheck})

	reply, err = s.chat.Chat(ctx, *review, reviewTemperature)
	if err != nil {
		return false, fmt.Errorf("supervisor recheck failed: %w", err)
	}
	*review = append(*review, llm.Turn{Role: llm.RoleAssistant, Content: reply})

	if !isYes(reply) {
		return false, s.discardIncorrect(ctx, review, snapshot)
	}

	return true, nil
}

// discardIncorrect asks which fields are wrong and drops them from the
// snapshot. An unparseable reply removes nothing; the verdict is already a
// reject either way.
func (s *Service) discardIncorrect(ctx context.Context, review *[]llm.Turn, snapshot map[string]string) error {
	which, err := s.set.Format("which_incorrect", map[string]any{
		"required_keys": strings.Join(fields.RequiredKeys, ", "),
	})
	if err != nil {
		return err
	}

	*review = append(*review, llm.Turn{Role: llm.RoleUser, Content: which})

	reply, err := s.chat.Chat(ctx, *review, reviewTemperature)
	if err != nil {
		return fmt.Errorf("supervisor discard failed: %w", err)
	}
	*review = append(*review, llm.Turn{Role: llm.RoleAssistant, Content: reply})

	incorrect, err := ParseFieldList(reply)
	if err != nil {
		slog.Debug("Supervisor removal payload unparseable", "payload", reply, "error", err)
		return nil
	}

	for _, key := range incorrect {
		delete(snapshot, key)
	}

	return nil
}

// cleanFields runs the format validator over every entry, deleting invalid
// values and replacing valid ones with their normalized form.
func cleanFields(snapshot map[string]string, lang string) {
	for key, value := range snapshot {
		valid, normalized := fields.Validate(key, value, lang)
		if !valid {
			slog.Debug("Dropping invalid field", "key", key, "value", value)
			delete(snapshot, key)
			continue
		}
		snapshot[key] = normalized
	}
}

func isYes(reply string) bool {
	return strings.EqualFold(strings.TrimSpace(reply), "yes")
}

func isRequiredKey(key string) bool {
	for _, required := range fields.RequiredKeys {
		if key == required {
			return true
		}
	}
	return false
}
