package attribution

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Metrics receives report outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ReportSent(event string)
	ReportFailed(event string)
	ReportDropped(event string)
}

type nopMetrics struct{}

func (nopMetrics) ReportSent(string)    {}
func (nopMetrics) ReportFailed(string)  {}
func (nopMetrics) ReportDropped(string) {}

// Tracker converts application events into at most one conversion-value
// update per report, window-gated against the install timestamp. Reporting
// is best-effort: no method blocks its caller or returns an error, and a
// failed update is only logged. The single exception to fire-and-forget is
// the install report, whose success is persisted so it is sent at most once
// per install across any number of process restarts.
type Tracker struct {
	store    StateStore
	sink     any
	cap      Capability
	policy   Policy
	logger   *slog.Logger
	metrics  Metrics
	clock    func() time.Time
	dispatch func(func())

	// installMu guards PostbackSent read-modify-write so that concurrent
	// install reports cannot double-send.
	installMu sync.Mutex
	state     State
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) { t.clock = clock }
}

// WithDispatcher overrides how sink calls are scheduled. The default runs
// them on a new goroutine; tests pass a synchronous dispatcher.
func WithDispatcher(dispatch func(func())) Option {
	return func(t *Tracker) { t.dispatch = dispatch }
}

// WithMetrics attaches a report-outcome recorder.
func WithMetrics(m Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// New loads or creates the install record, resolves the sink capability,
// performs one-time registration if the sink requires it, and attempts the
// install report. A nil sink is valid and makes every report a logged no-op.
func New(ctx context.Context, store StateStore, sink any, policy Policy, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		store:    store,
		sink:     sink,
		cap:      DetectCapability(sink),
		policy:   policy,
		logger:   logger,
		metrics:  nopMetrics{},
		clock:    time.Now,
		dispatch: func(fn func()) { go fn() },
	}
	for _, opt := range opts {
		opt(t)
	}

	state, ok, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading install state: %w", err)
	}
	if !ok {
		state = State{InstalledAt: t.clock()}
		if err := store.Save(ctx, state); err != nil {
			return nil, fmt.Errorf("saving install state: %w", err)
		}
		t.logger.Info("install recorded", "installed_at", state.InstalledAt)
	}
	t.state = state

	if t.cap == CapabilityNone {
		t.logger.Warn("no attribution sink capability, conversion reporting disabled")
	} else {
		t.logger.Info("attribution sink resolved", "capability", t.cap.String())
	}

	if reg, ok := t.sink.(Registrar); ok {
		if err := reg.RegisterForAttribution(ctx); err != nil {
			t.logger.Warn("attribution registration failed", "error", err)
		}
	}

	t.ReportInstall(ctx)

	return t, nil
}

// InstalledAt returns the immutable install timestamp.
func (t *Tracker) InstalledAt() time.Time {
	return t.state.InstalledAt
}

// Capability returns the sink capability resolved at construction.
func (t *Tracker) Capability() Capability {
	return t.cap
}

// ReportNoteCreated reports a note creation, upgraded to the first-note
// event when firstNote is set.
func (t *Tracker) ReportNoteCreated(ctx context.Context, firstNote bool) {
	ev := EventNoteCreated
	if firstNote {
		ev = EventFirstNoteCreated
	}
	t.submit(ctx, ev, t.policy.LockWindow(ev), false)
}

// ReportNoteEdited reports a note edit.
func (t *Tracker) ReportNoteEdited(ctx context.Context) {
	t.submit(ctx, EventNoteEdited, t.policy.LockWindow(EventNoteEdited), false)
}

// ReportMultipleNotesCreated reports that the caller's multi-note threshold
// was reached. Gating on the threshold is the caller's responsibility.
func (t *Tracker) ReportMultipleNotesCreated(ctx context.Context) {
	t.submit(ctx, EventMultipleNotesCreated, t.policy.LockWindow(EventMultipleNotesCreated), false)
}

// ReportActiveUser reports that the caller's active-user threshold was
// reached. Gating on the threshold is the caller's responsibility.
func (t *Tracker) ReportActiveUser(ctx context.Context) {
	t.submit(ctx, EventActiveUser, t.policy.LockWindow(EventActiveUser), false)
}

// ReportCustom reports a value outside the fixed event set. The same window
// gating applies; lockWindow is taken as given rather than derived from
// policy.
func (t *Tracker) ReportCustom(ctx context.Context, fine int, coarse CoarseValue, lockWindow bool) {
	ev := Event{Name: "custom", Fine: fine, Coarse: coarse}
	t.submit(ctx, ev, lockWindow, false)
}

// ReportInstall attempts the one-time install report. It is skipped outright
// once a previous attempt succeeded; while the persisted flag is false it is
// re-attempted on every call, which in practice means once per process start.
func (t *Tracker) ReportInstall(ctx context.Context) {
	t.installMu.Lock()
	sent := t.state.PostbackSent
	t.installMu.Unlock()
	if sent {
		t.logger.Debug("install already reported, skipping")
		return
	}
	t.submit(ctx, EventInstall, true, true)
}

func (t *Tracker) submit(ctx context.Context, ev Event, lockWindow, install bool) {
	now := t.clock()
	window := t.policy.Window(t.state.InstalledAt, now)
	if window == WindowExpired {
		t.logger.Debug("attribution window expired, dropping report", "event", ev.Name)
		t.metrics.ReportDropped(ev.Name)
		return
	}
	if t.cap == CapabilityNone {
		t.logger.Debug("no attribution sink, dropping report", "event", ev.Name)
		t.metrics.ReportDropped(ev.Name)
		return
	}

	t.logger.Debug("submitting conversion report",
		"event", ev.Name, "fine", ev.Fine, "coarse", string(ev.Coarse),
		"lock_window", lockWindow, "window", window.String())

	// The caller's context may be tied to a request that completes before
	// the sink call does; the report must still run to completion.
	ctx = context.WithoutCancel(ctx)
	t.dispatch(func() { t.send(ctx, ev, lockWindow, install) })
}

func (t *Tracker) send(ctx context.Context, ev Event, lockWindow, install bool) {
	if install {
		t.installMu.Lock()
		defer t.installMu.Unlock()
		if t.state.PostbackSent {
			return
		}
	}

	if err := t.update(ctx, ev, lockWindow); err != nil {
		t.logger.Warn("conversion update failed", "event", ev.Name, "error", err)
		t.metrics.ReportFailed(ev.Name)
		return
	}
	t.metrics.ReportSent(ev.Name)

	if install {
		t.state.PostbackSent = true
		if err := t.store.Save(ctx, t.state); err != nil {
			// The flag stays false and the next process start re-sends.
			t.logger.Warn("persisting install-reported flag failed", "error", err)
		}
	}
}

func (t *Tracker) update(ctx context.Context, ev Event, lockWindow bool) error {
	switch t.cap {
	case CapabilityFull:
		return t.sink.(ValueUpdater).UpdateConversionValue(ctx, ev.Fine, ev.Coarse, lockWindow)
	case CapabilityFine:
		return t.sink.(FineValueUpdater).UpdateFineValue(ctx, ev.Fine)
	case CapabilityLegacy:
		t.sink.(LegacyUpdater).UpdateFineValueSync(ev.Fine)
		return nil
	}
	return ErrSinkUnavailable
}
