package convo

import (
	"fmt"
	"slices"
	"strings"

	"intakedesk/app/llm"
)

// Transcript is the append-only record of one session. It keeps every turn
// ever produced, note turns included, and is what gets persisted at the end.
// The model-facing context is always derived from it via Project.
type Transcript struct {
	turns []llm.Turn
}

func (t *Transcript) Append(role llm.Role, content string) {
	t.turns = append(t.turns, llm.Turn{Role: role, Content: content})
}

func (t *Transcript) Turns() []llm.Turn {
	return slices.Clone(t.turns)
}

func (t *Transcript) Len() int {
	return len(t.turns)
}

// Project returns the working context: the transcript with every note turn
// stripped. Stale field snapshots and supervisor corrections disappear here,
// so the model only ever sees the one fresh note the loop appends afterwards.
func (t *Transcript) Project() []llm.Turn {
	working := make([]llm.Turn, 0, len(t.turns))

	for _, turn := range t.turns {
		if turn.Role == llm.RoleNote {
			continue
		}
		working = append(working, turn)
	}

	return working
}

// Insert places a turn at a fixed position in a working context.
func Insert(turns []llm.Turn, index int, turn llm.Turn) []llm.Turn {
	return slices.Insert(turns, index, turn)
}

// Format renders turns as one line each, for embedding into a prompt.
func Format(turns []llm.Turn) string {
	var builder strings.Builder

	for _, turn := range turns {
		builder.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}

	return builder.String()
}
