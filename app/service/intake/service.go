package intake

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"intakedesk/app/config"
	"intakedesk/app/llm"
	"intakedesk/app/service/convo"
	"intakedesk/app/service/fields"
	"intakedesk/app/service/prompts"
	"intakedesk/app/service/store"
	"intakedesk/app/service/supervisor"
	"intakedesk/app/service/userio"

	"github.com/samber/do"
)

// Service drives one intake conversation: it extracts the required ticket
// fields from the dialogue, has the supervisor cross-check them, and
// persists the finished session.
type Service struct {
	cfg      *config.Config
	chat     llm.Chat
	io       UserIO
	store    Store
	reviewer Reviewer
	set      *prompts.Set

	transcript convo.Transcript
	extracted  map[string]string
	msgCount   int

	historyLookedUp bool
	cachedHistory   string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	chat := do.MustInvoke[llm.Chat](di)

	set, err := prompts.Load("customer_support", cfg.Lang)
	if err != nil {
		return nil, err
	}

	supervisorSet, err := prompts.Load("supervisor", cfg.Lang)
	if err != nil {
		return nil, err
	}

	return NewService(
		cfg,
		chat,
		do.MustInvoke[*userio.Service](di),
		do.MustInvoke[*store.Service](di),
		supervisor.New(chat, supervisorSet, cfg.Lang),
		set,
	), nil
}

// NewService wires a session from explicit collaborators.
func NewService(cfg *config.Config, chat llm.Chat, io UserIO, st Store, reviewer Reviewer, set *prompts.Set) *Service {
	return &Service{
		cfg:       cfg,
		chat:      chat,
		io:        io,
		store:     st,
		reviewer:  reviewer,
		set:       set,
		extracted: make(map[string]string),
	}
}

// Run executes one full session in the configured mode.
func (s *Service) Run(ctx context.Context) error {
	switch s.cfg.Mode {
	case "rigid":
		return s.runRigid(ctx)
	case "natural":
		return s.runNatural(ctx)
	default:
		return fmt.Errorf("unknown mode %q", s.cfg.Mode)
	}
}

// Extracted exposes the collected fields after Run returns.
func (s *Service) Extracted() map[string]string {
	return s.extracted
}

func (s *Service) runNatural(ctx context.Context) error {
	systemPrompt, err := s.set.Format("system_prompt", map[string]any{"company": s.cfg.Company})
	if err != nil {
		return err
	}

	welcome, err := s.set.Format("welcome", map[string]any{"company": s.cfg.Company})
	if err != nil {
		return err
	}

	if err = s.io.Write(ctx, welcome); err != nil {
		return err
	}

	s.transcript.Append(llm.RoleSystem, systemPrompt)
	s.transcript.Append(llm.RoleAssistant, welcome)
	s.msgCount = 1

	var working []llm.Turn
	current := phaseCollecting

	for current != phaseDone {
		switch current {
		case phaseCollecting:
			working = s.transcript.Project()

			input, err := s.io.Read(ctx)
			if err != nil {
				return err
			}
			working = s.appendBoth(working, llm.RoleUser, input)

			note, err := s.set.Format("partial_notes", map[string]any{
				"extracted": fields.FormatExtracted(s.extracted),
			})
			if err != nil {
				return err
			}
			working = s.appendBoth(working, llm.RoleNote, note)

			if err = s.extractMissing(ctx, working); err != nil {
				return err
			}

			if s.allCollected() || s.msgCount%s.cfg.Intake.CheckEveryNMsg == 0 {
				current = phaseSupervising
			} else {
				current = phaseInjecting
			}

		case phaseSupervising:
			verdict, err := s.reviewer.Review(ctx, working, s.extracted)
			if err != nil {
				return err
			}
			s.extracted = verdict.Fields

			if verdict.OK {
				thanks, err := s.set.Format("thanks_message", nil)
				if err != nil {
					return err
				}
				if err = s.io.Write(ctx, thanks); err != nil {
					return err
				}

				current = phaseDone
				break
			}

			correction, err := s.set.Format("supervisor_correction", map[string]any{
				"extracted":     fields.FormatExtracted(s.extracted),
				"required_keys": strings.Join(fields.RequiredKeys, ", "),
			})
			if err != nil {
				return err
			}
			working = s.appendBoth(working, llm.RoleNote, correction)

			current = phaseInjecting

		case phaseInjecting:
			digest, err := s.historyDigest()
			if err != nil {
				return err
			}

			if digest != "" {
				// Into the working context only, right after the system turn.
				// The transcript never carries it, or every save would
				// duplicate the whole history.
				working = convo.Insert(working, 1, llm.Turn{Role: llm.RoleNote, Content: digest})
			}

			current = phaseReplying

		case phaseReplying:
			reply, err := s.chat.Chat(ctx, working, chatTemperature)
			if err != nil {
				return err
			}

			s.transcript.Append(llm.RoleAssistant, reply)
			if err = s.io.Write(ctx, reply); err != nil {
				return err
			}

			slog.Debug("Assistant reply",
				"reply", reply,
				"extracted", fields.FormatExtracted(s.extracted),
				"msg_count", s.msgCount,
			)

			s.msgCount++
			if s.allCollected() || s.msgCount >= s.cfg.Intake.MaxMessages {
				current = phaseDone
			} else {
				current = phaseCollecting
			}
		}
	}

	return s.finalize(ctx)
}

// extractMissing issues one extraction call per still-missing field, in
// required-key order. A NONE reply leaves the field absent for this turn.
func (s *Service) extractMissing(ctx context.Context, working []llm.Turn) error {
	for _, key := range fields.Missing(s.extracted) {
		instruction, err := s.set.Format("validation_instruction", map[string]any{
			"key":              key,
			"invalid_response": sentinelNone,
		})
		if err != nil {
			return err
		}

		prompt := append(slices.Clone(working), llm.Turn{Role: llm.RoleNote, Content: instruction})

		result, err := s.chat.Chat(ctx, prompt, chatTemperature)
		if err != nil {
			return fmt.Errorf("extraction call for %s failed: %w", key, err)
		}

		slog.Debug("Extraction result", "key", key, "result", result)

		if !strings.EqualFold(strings.TrimSpace(result), sentinelNone) {
			s.extracted[key] = result
		}
	}

	return nil
}

// appendBoth records a turn in the transcript and the working context.
func (s *Service) appendBoth(working []llm.Turn, role llm.Role, content string) []llm.Turn {
	s.transcript.Append(role, content)
	return append(working, llm.Turn{Role: role, Content: content})
}

func (s *Service) allCollected() bool {
	return len(fields.Missing(s.extracted)) == 0
}
