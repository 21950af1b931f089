package attribution

import (
	"context"
	"time"
)

// State is the install record persisted across process restarts. InstalledAt
// is written once, the first time the tracker initializes, and never changes
// for the lifetime of the install. PostbackSent flips to true only after a
// confirmed-successful install report and is never reset.
type State struct {
	InstalledAt  time.Time
	PostbackSent bool
}

// StateStore persists the install record. Implementations must survive
// process restarts (but not reinstall, which by definition clears them).
type StateStore interface {
	// Load returns the persisted state and whether a record existed.
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, state State) error
}
