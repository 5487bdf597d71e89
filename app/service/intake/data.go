package intake

import (
	"context"

	"intakedesk/app/llm"
	"intakedesk/app/service/store"
	"intakedesk/app/service/supervisor"
)

// Sentinel replies the model uses to signal "no value found". Never errors.
const (
	sentinelNone    = "NONE"
	sentinelInvalid = "INVALID"
)

const chatTemperature = 0.3

// UserIO is the read/write boundary towards the customer, text or voice.
type UserIO interface {
	Read(ctx context.Context) (string, error)
	Write(ctx context.Context, msg string) error
}

// Store persists finished sessions and serves prior-session lookups.
type Store interface {
	Save(orderID string, session store.Session) error
	LoadAll(orderID string) ([]store.Session, error)
	ListKeys() ([]string, error)
}

// Reviewer is the supervisor pass invoked at the check cadence.
type Reviewer interface {
	Review(ctx context.Context, conversation []llm.Turn, extracted map[string]string) (supervisor.Verdict, error)
}

// phase is the state of the natural-mode conversation machine. One user
// turn walks collecting -> (supervising) -> injecting -> replying; the
// machine exits to done on supervisor accept, field completion or the
// message ceiling.
type phase int

const (
	phaseCollecting phase = iota
	phaseSupervising
	phaseInjecting
	phaseReplying
	phaseDone
)
