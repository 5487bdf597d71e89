package intake

import (
	"context"
	"maps"
	"strings"
	"testing"

	"intakedesk/app/config"
	"intakedesk/app/llm"
	"intakedesk/app/service/prompts"
	"intakedesk/app/service/store"
	"intakedesk/app/service/supervisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChat answers extraction calls from a fixed field table and replies to
// summary/frustration instructions from canned strings. Anything else gets
// a generic assistant reply.
type fakeChat struct {
	fields      map[string]string
	summary     string
	frustration string

	prompts [][]llm.Turn
}

func (c *fakeChat) Chat(_ context.Context, turns []llm.Turn, _ float32) (string, error) {
	c.prompts = append(c.prompts, turns)
	last := turns[len(turns)-1].Content

	switch {
	case strings.Contains(last, "extract the value of the field"):
		for key, value := range c.fields {
			if strings.Contains(last, "'"+key+"'") {
				return value, nil
			}
		}
		return "NONE", nil

	case strings.Contains(last, "short summary"):
		return c.summary, nil

	case strings.Contains(last, "scale from 0 to 10"):
		return c.frustration, nil

	default:
		return "Could you tell me a bit more?", nil
	}
}

type scriptedIO struct {
	inputs  []string
	reads   int
	outputs []string
}

func (s *scriptedIO) Read(_ context.Context) (string, error) {
	if s.reads >= len(s.inputs) {
		s.reads++
		return "", nil
	}

	input := s.inputs[s.reads]
	s.reads++

	return input, nil
}

func (s *scriptedIO) Write(_ context.Context, msg string) error {
	s.outputs = append(s.outputs, msg)
	return nil
}

// fakeReviewer replays a fixed accept/reject script, passing the extracted
// snapshot through untouched.
type fakeReviewer struct {
	accepts []bool
	calls   int
}

func (r *fakeReviewer) Review(_ context.Context, _ []llm.Turn, extracted map[string]string) (supervisor.Verdict, error) {
	ok := false
	if r.calls < len(r.accepts) {
		ok = r.accepts[r.calls]
	}
	r.calls++

	snapshot := make(map[string]string, len(extracted))
	maps.Copy(snapshot, extracted)

	return supervisor.Verdict{OK: ok, Fields: snapshot}, nil
}

type countingStore struct {
	*store.Service
	listCalls int
}

func (c *countingStore) ListKeys() ([]string, error) {
	c.listCalls++
	return c.Service.ListKeys()
}

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()

	cfg := &config.Config{Mode: mode}
	cfg.FillDefaults()

	return cfg
}

func newSession(t *testing.T, cfg *config.Config, chat llm.Chat, io UserIO, st Store, reviewer Reviewer) *Service {
	t.Helper()

	set, err := prompts.Load("customer_support", "en")
	require.NoError(t, err)

	return NewService(cfg, chat, io, st, reviewer, set)
}

func allFields() map[string]string {
	return map[string]string{
		"order_number": "ord67890",
		"category":     "shipping",
		"description":  "my package never arrived at all",
		"urgency":      "high",
	}
}

func TestNatural_CompletionShortCircuitsCadence(t *testing.T) {
	chat := &fakeChat{fields: allFields(), summary: "lost package", frustration: "7"}
	io := &scriptedIO{inputs: []string{"hi, my order ord67890 never arrived, this is urgent"}}
	reviewer := &fakeReviewer{accepts: []bool{true}}

	st, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	svc := newSession(t, testConfig(t, "natural"), chat, io, st, reviewer)
	require.NoError(t, svc.Run(context.Background()))

	// All fields landed on the first turn, so the supervisor ran right
	// away instead of waiting for the third-message cadence.
	assert.Equal(t, 1, reviewer.calls)
	assert.Equal(t, 1, io.reads)

	sessions, err := st.LoadAll("ord67890")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	assert.Equal(t, "natural", sessions[0].Mode)
	assert.Equal(t, "lost package", sessions[0].Summary)
	require.NotNil(t, sessions[0].FrustrationScore)
	assert.Equal(t, 7, *sessions[0].FrustrationScore)
}

func TestNatural_TerminatesAtCeiling(t *testing.T) {
	chat := &fakeChat{summary: "nothing gathered", frustration: "maybe"}
	io := &scriptedIO{}
	reviewer := &fakeReviewer{}

	st, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	cfg := testConfig(t, "natural")
	cfg.Intake.MaxMessages = 6

	svc := newSession(t, cfg, chat, io, st, reviewer)
	require.NoError(t, svc.Run(context.Background()))

	// One read per loop turn: message counter runs 1..5 before hitting 6.
	assert.Equal(t, 5, io.reads)
	assert.Equal(t, 1, reviewer.calls)

	// Nothing extracted: the session lands under the fallback key, with a
	// null frustration score since "maybe" is not an integer.
	sessions, err := st.LoadAll("UNKNOWN")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].FrustrationScore)
	assert.Empty(t, sessions[0].Extracted)
}

func TestNatural_CadenceInvariant(t *testing.T) {
	chat := &fakeChat{summary: "s", frustration: "0"}
	io := &scriptedIO{}
	reviewer := &fakeReviewer{}

	st, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	cfg := testConfig(t, "natural")
	cfg.Intake.MaxMessages = 10
	cfg.Intake.CheckEveryNMsg = 3

	svc := newSession(t, cfg, chat, io, st, reviewer)
	require.NoError(t, svc.Run(context.Background()))

	// Messages 3, 6 and 9 trigger a check; nothing else does.
	assert.Equal(t, 3, reviewer.calls)
}

func TestNatural_OutOfRangeFrustrationIsNull(t *testing.T) {
	chat := &fakeChat{fields: allFields(), summary: "s", frustration: "15"}
	io := &scriptedIO{inputs: []string{"everything at once"}}
	reviewer := &fakeReviewer{accepts: []bool{true}}

	st, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	svc := newSession(t, testConfig(t, "natural"), chat, io, st, reviewer)
	require.NoError(t, svc.Run(context.Background()))

	sessions, err := st.LoadAll("ord67890")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].FrustrationScore)
}

func TestNatural_HistoryInjectedOnceAndNotPersisted(t *testing.T) {
	base, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	prior := store.Session{
		Timestamp: store.Now(),
		Mode:      "natural",
		Conversation: []llm.Turn{
			{Role: llm.RoleUser, Content: "my charger sparked"},
			{Role: llm.RoleAssistant, Content: "sorry about that"},
		},
		Extracted: map[string]string{"order_number": "ORD67890"},
		Summary:   "sparking charger",
		Lang:      "en",
	}
	require.NoError(t, base.Save("ORD67890", prior))

	st := &countingStore{Service: base}

	chat := &fakeChat{
		fields:      map[string]string{"order_number": "ord67890"},
		summary:     "follow-up",
		frustration: "2",
	}
	io := &scriptedIO{inputs: []string{"it's about ord67890 again", "still broken", "yes"}}
	reviewer := &fakeReviewer{}

	cfg := testConfig(t, "natural")
	cfg.Intake.MaxMessages = 4
	cfg.Intake.CheckEveryNMsg = 10

	svc := newSession(t, cfg, chat, io, st, reviewer)
	require.NoError(t, svc.Run(context.Background()))

	// The digest reached the model...
	sawHistory := false
	for _, prompt := range chat.prompts {
		for _, turn := range prompt {
			if strings.Contains(turn.Content, "my charger sparked") {
				sawHistory = true
			}
		}
	}
	assert.True(t, sawHistory)

	// ...via a single lookup, despite multiple turns after extraction.
	assert.Equal(t, 1, st.listCalls)

	// The persisted record never contains the injected digest.
	sessions, err := base.LoadAll("ORD67890")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, turn := range sessions[1].Conversation {
		assert.NotContains(t, turn.Content, "contacted us before")
	}
}

func TestRigid_ReasksOnInvalid(t *testing.T) {
	chat := &rigidChat{
		validations: []string{
			"INVALID",  // first order number attempt rejected
			"ORD12345", // second accepted
			"shipping",
			"box arrived broken",
			"low",
		},
		summary:     "broken box",
		frustration: "3",
	}
	io := &scriptedIO{inputs: []string{"uh, twelve?", "ORD12345", "shipping", "box arrived broken", "low"}}

	st, err := store.NewAt(t.TempDir())
	require.NoError(t, err)

	svc := newSession(t, testConfig(t, "rigid"), chat, io, st, &fakeReviewer{})
	require.NoError(t, svc.Run(context.Background()))

	assert.Equal(t, 5, io.reads)

	// The rejected answer produced an "invalid input" message and a re-ask.
	questionCount := 0
	invalidCount := 0
	for _, out := range io.outputs {
		if strings.Contains(out, "order number") {
			questionCount++
		}
		if strings.Contains(out, "doesn't look like a valid answer") {
			invalidCount++
		}
	}
	assert.Equal(t, 2, questionCount)
	assert.Equal(t, 1, invalidCount)

	sessions, err := st.LoadAll("ORD12345")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "rigid", sessions[0].Mode)
	assert.Equal(t, "ORD12345", sessions[0].Extracted["order_number"])
	assert.Equal(t, "low", sessions[0].Extracted["urgency"])
}

// rigidChat consumes scripted validation verdicts in order.
type rigidChat struct {
	validations []string
	calls       int
	summary     string
	frustration string
}

func (c *rigidChat) Chat(_ context.Context, turns []llm.Turn, _ float32) (string, error) {
	last := turns[len(turns)-1].Content

	switch {
	case strings.Contains(last, "extract the value of the field"):
		if c.calls >= len(c.validations) {
			return "INVALID", nil
		}
		reply := c.validations[c.calls]
		c.calls++
		return reply, nil

	case strings.Contains(last, "short summary"):
		return c.summary, nil

	case strings.Contains(last, "scale from 0 to 10"):
		return c.frustration, nil
	}

	return "", nil
}
