package intake

import (
	"fmt"
	"strings"

	"intakedesk/app/llm"
	"intakedesk/app/service/fields"

	"github.com/elliotchance/pie/v2"
)

// historyDigest returns a formatted digest of prior sessions for the
// extracted order number, or "" when there is nothing to inject. The store
// is consulted at most once per session; the first result, hit or miss, is
// cached.
func (s *Service) historyDigest() (string, error) {
	orderID, ok := s.extracted[fields.KeyOrderNumber]
	if !ok {
		return "", nil
	}

	if s.historyLookedUp {
		return s.cachedHistory, nil
	}
	s.historyLookedUp = true

	keys, err := s.store.ListKeys()
	if err != nil {
		return "", fmt.Errorf("failed to list stored orders: %w", err)
	}

	if !pie.Contains(keys, strings.ToUpper(orderID)) {
		return "", nil
	}

	sessions, err := s.store.LoadAll(orderID)
	if err != nil {
		return "", fmt.Errorf("failed to load prior sessions: %w", err)
	}

	header, err := s.set.Format("history_msg", map[string]any{"order_id": orderID})
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(header)

	for _, session := range sessions {
		builder.WriteString("\n\n" + session.Timestamp + " -> ")

		for _, turn := range session.Conversation {
			switch turn.Role {
			case llm.RoleUser:
				builder.WriteString(fmt.Sprintf("\n[USER]: %q", turn.Content))
			case llm.RoleAssistant:
				builder.WriteString(fmt.Sprintf("\n[YOU]: %q", turn.Content))
			case llm.RoleNote:
				builder.WriteString(fmt.Sprintf("\n[NOTE]: %q", turn.Content))
			}
		}
	}

	s.cachedHistory = builder.String()

	return s.cachedHistory, nil
}
