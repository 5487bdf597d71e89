package store

import (
	"regexp"
	"testing"

	"intakedesk/app/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Service {
	t.Helper()

	s, err := NewAt(t.TempDir())
	require.NoError(t, err)

	return s
}

func sampleSession() Session {
	score := 4

	return Session{
		Timestamp: Now(),
		Mode:      "natural",
		Conversation: []llm.Turn{
			{Role: llm.RoleSystem, Content: "be helpful"},
			{Role: llm.RoleUser, Content: "my package is late"},
			{Role: llm.RoleAssistant, Content: "sorry to hear that"},
		},
		Extracted: map[string]string{
			"order_number": "ORD12345",
			"category":     "shipping",
		},
		Summary:          "late package",
		FrustrationScore: &score,
		Lang:             "en",
	}
}

func TestSaveAndLoadAll(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("ord12345", sampleSession()))
	require.NoError(t, s.Save("ORD12345", sampleSession()))

	// Keys are case-insensitive: both saves land in the same log.
	sessions, err := s.LoadAll("ORD12345")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "natural", sessions[0].Mode)
	assert.Equal(t, "ORD12345", sessions[0].Extracted["order_number"])
	require.NotNil(t, sessions[0].FrustrationScore)
	assert.Equal(t, 4, *sessions[0].FrustrationScore)
	assert.Len(t, sessions[0].Conversation, 3)
}

func TestLoadAll_UnknownKey(t *testing.T) {
	s := newTestStore(t)

	sessions, err := s.LoadAll("ORD99999")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestListKeys(t *testing.T) {
	s := newTestStore(t)

	keys, err := s.ListKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Save("ORD1", sampleSession()))
	require.NoError(t, s.Save("ord2", sampleSession()))

	keys, err = s.ListKeys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ORD1", "ORD2"}, keys)
}

func TestNullFrustrationScoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	session := sampleSession()
	session.FrustrationScore = nil
	require.NoError(t, s.Save("ORD7", session))

	sessions, err := s.LoadAll("ORD7")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].FrustrationScore)
}

func TestTimestampFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`)
	assert.Regexp(t, pattern, Now())
}
