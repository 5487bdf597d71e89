package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"intakedesk/app/llm"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// TimestampLayout matches ISO-8601 local time with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000"

var defaultDir = filepath.Join("data", "conversations")

// Session is one persisted intake conversation.
type Session struct {
	Timestamp        string            `json:"timestamp"`
	Mode             string            `json:"mode"`
	Conversation     []llm.Turn        `json:"conversation"`
	Extracted        map[string]string `json:"extracted"`
	Summary          string            `json:"summary"`
	FrustrationScore *int              `json:"frustration_score"`
	Lang             string            `json:"lang"`
}

// Service keeps per-order session logs as JSON array files, one file per
// order number. Files are append-only at the array level: every save loads
// the existing array, appends and rewrites.
type Service struct {
	dir string
	mu  sync.RWMutex
}

func New(_ *do.Injector) (*Service, error) {
	if err := os.MkdirAll(defaultDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversations dir: %w", err)
	}

	return &Service{dir: defaultDir}, nil
}

// NewAt creates a store rooted at dir, creating it if needed.
func NewAt(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create conversations dir: %w", err)
	}

	return &Service{dir: dir}, nil
}

func (s *Service) filePath(orderID string) string {
	return filepath.Join(s.dir, strings.ToUpper(orderID)+".json")
}

// Save appends a session to the order's log, creating the file if absent.
func (s *Service) Save(orderID string, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load(orderID)
	if err != nil {
		return err
	}

	sessions = append(sessions, session)

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	if err = os.WriteFile(s.filePath(orderID), data, 0644); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}

	slog.Info("Saved session",
		"order_id", orderID,
		"sessions_total", len(sessions),
	)

	return nil
}

// LoadAll returns every stored session for an order, empty if none exist.
func (s *Service) LoadAll(orderID string) ([]Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(orderID)
}

func (s *Service) load(orderID string) ([]Session, error) {
	data, err := os.ReadFile(s.filePath(orderID))
	if os.IsNotExist(err) {
		return []Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	var sessions []Session
	if err = json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("failed to parse sessions file: %w", err)
	}

	return sessions, nil
}

// ListKeys enumerates every order number that has stored sessions.
func (s *Service) ListKeys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions dir: %w", err)
	}

	return pie.Map(matches, func(path string) string {
		return strings.TrimSuffix(filepath.Base(path), ".json")
	}), nil
}

// Now formats the current local time in the persisted timestamp layout.
func Now() string {
	return time.Now().Format(TimestampLayout)
}
