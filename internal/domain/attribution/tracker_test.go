package attribution_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/linkrunner-labs/pageone/internal/domain/attribution"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	state  attribution.State
	exists bool
	saves  int
}

func (s *memStore) Load(ctx context.Context) (attribution.State, bool, error) {
	return s.state, s.exists, nil
}

func (s *memStore) Save(ctx context.Context, state attribution.State) error {
	s.state = state
	s.exists = true
	s.saves++
	return nil
}

type sinkCall struct {
	fine       int
	coarse     attribution.CoarseValue
	lockWindow bool
}

type fullSink struct {
	calls      []sinkCall
	err        error
	registered int
}

func (s *fullSink) UpdateConversionValue(ctx context.Context, fine int, coarse attribution.CoarseValue, lockWindow bool) error {
	s.calls = append(s.calls, sinkCall{fine: fine, coarse: coarse, lockWindow: lockWindow})
	return s.err
}

func (s *fullSink) RegisterForAttribution(ctx context.Context) error {
	s.registered++
	return nil
}

type fineSink struct {
	fines []int
	err   error
}

func (s *fineSink) UpdateFineValue(ctx context.Context, fine int) error {
	s.fines = append(s.fines, fine)
	return s.err
}

type legacySink struct {
	fines []int
}

func (s *legacySink) UpdateFineValueSync(fine int) {
	s.fines = append(s.fines, fine)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracker(t *testing.T, store attribution.StateStore, sink any, opts ...attribution.Option) *attribution.Tracker {
	t.Helper()
	opts = append([]attribution.Option{
		attribution.WithDispatcher(func(fn func()) { fn() }),
	}, opts...)
	tracker, err := attribution.New(context.Background(), store, sink, attribution.DefaultPolicy(), testLogger(), opts...)
	require.NoError(t, err)
	return tracker
}

func TestTracker_InstallReportedOnce(t *testing.T) {
	store := &memStore{}
	sink := &fullSink{}

	newTracker(t, store, sink)

	require.Equal(t, 1, sink.registered)
	require.Equal(t, []sinkCall{{fine: 1, coarse: attribution.CoarseLow, lockWindow: true}}, sink.calls)
	require.True(t, store.state.PostbackSent)

	// Simulated restart with the same persisted state: no second send.
	newTracker(t, store, sink)
	require.Len(t, sink.calls, 1)
}

func TestTracker_InstallRetriesAfterFailure(t *testing.T) {
	store := &memStore{}
	sink := &fullSink{err: errors.New("postback delivery failed")}

	newTracker(t, store, sink)
	require.Len(t, sink.calls, 1)
	require.False(t, store.state.PostbackSent)

	// Next cold start, sink back online.
	sink.err = nil
	newTracker(t, store, sink)
	require.Len(t, sink.calls, 2)
	require.True(t, store.state.PostbackSent)
}

func TestTracker_RepeatedInstallSingleSend(t *testing.T) {
	store := &memStore{}
	sink := &fullSink{}

	// Async dispatch plus an explicit second ReportInstall; the flag guard
	// must collapse them to one successful send.
	done := make(chan struct{}, 2)
	tracker, err := attribution.New(context.Background(), store, sink, attribution.DefaultPolicy(), testLogger(),
		attribution.WithDispatcher(func(fn func()) {
			fn()
			done <- struct{}{}
		}))
	require.NoError(t, err)

	tracker.ReportInstall(context.Background())
	require.Len(t, sink.calls, 1)
	require.True(t, store.state.PostbackSent)
	<-done
}

func TestTracker_EventValueMapping(t *testing.T) {
	install := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{state: attribution.State{InstalledAt: install, PostbackSent: true}, exists: true}
	sink := &fullSink{}
	tracker := newTracker(t, store, sink, attribution.WithClock(func() time.Time {
		return install.Add(time.Hour)
	}))

	ctx := context.Background()
	tracker.ReportNoteCreated(ctx, false)
	tracker.ReportNoteCreated(ctx, true)
	tracker.ReportNoteEdited(ctx)
	tracker.ReportMultipleNotesCreated(ctx)
	tracker.ReportActiveUser(ctx)
	tracker.ReportCustom(ctx, 3, attribution.CoarseHigh, false)

	require.Equal(t, []sinkCall{
		{fine: 1, coarse: attribution.CoarseLow, lockWindow: false},
		{fine: 2, coarse: attribution.CoarseMedium, lockWindow: true},
		{fine: 3, coarse: attribution.CoarseLow, lockWindow: true},
		{fine: 4, coarse: attribution.CoarseMedium, lockWindow: true},
		{fine: 5, coarse: attribution.CoarseHigh, lockWindow: true},
		{fine: 3, coarse: attribution.CoarseHigh, lockWindow: false},
	}, sink.calls)
}

func TestTracker_ExpiredWindowSuppressesReports(t *testing.T) {
	install := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{state: attribution.State{InstalledAt: install, PostbackSent: true}, exists: true}
	sink := &fullSink{}
	tracker := newTracker(t, store, sink, attribution.WithClock(func() time.Time {
		return install.Add(40 * 24 * time.Hour)
	}))

	ctx := context.Background()
	tracker.ReportNoteCreated(ctx, true)
	tracker.ReportNoteEdited(ctx)
	tracker.ReportActiveUser(ctx)
	tracker.ReportCustom(ctx, 5, attribution.CoarseHigh, true)

	require.Empty(t, sink.calls)
}

func TestTracker_ExpiredWindowSuppressesInstall(t *testing.T) {
	install := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{state: attribution.State{InstalledAt: install}, exists: true}
	sink := &fullSink{}

	newTracker(t, store, sink, attribution.WithClock(func() time.Time {
		return install.Add(36 * 24 * time.Hour)
	}))

	require.Empty(t, sink.calls)
	require.False(t, store.state.PostbackSent)
}

func TestTracker_ScenarioTimeline(t *testing.T) {
	install := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := install
	store := &memStore{}
	sink := &fullSink{}
	tracker := newTracker(t, store, sink, attribution.WithClock(func() time.Time {
		return now
	}))

	// Install at T0.
	require.Equal(t, []sinkCall{{fine: 1, coarse: attribution.CoarseLow, lockWindow: true}}, sink.calls)
	require.Equal(t, install, tracker.InstalledAt())

	// First note at T0+1d: fine 2, medium, window locked.
	now = install.Add(24 * time.Hour)
	tracker.ReportNoteCreated(context.Background(), true)
	require.Equal(t, sinkCall{fine: 2, coarse: attribution.CoarseMedium, lockWindow: true}, sink.calls[1])

	// Edit at T0+40d: window expired, sink untouched.
	now = install.Add(40 * 24 * time.Hour)
	tracker.ReportNoteEdited(context.Background())
	require.Len(t, sink.calls, 2)
}

func TestTracker_FineOnlySink(t *testing.T) {
	store := &memStore{}
	sink := &fineSink{}
	tracker := newTracker(t, store, sink)

	require.Equal(t, attribution.CapabilityFine, tracker.Capability())
	require.Equal(t, []int{1}, sink.fines)
	require.True(t, store.state.PostbackSent)

	tracker.ReportActiveUser(context.Background())
	require.Equal(t, []int{1, 5}, sink.fines)
}

func TestTracker_LegacySinkTreatedAsSuccess(t *testing.T) {
	store := &memStore{}
	sink := &legacySink{}
	tracker := newTracker(t, store, sink)

	require.Equal(t, attribution.CapabilityLegacy, tracker.Capability())
	require.Equal(t, []int{1}, sink.fines)
	require.True(t, store.state.PostbackSent)
}

func TestTracker_NoSinkNoops(t *testing.T) {
	store := &memStore{}
	tracker := newTracker(t, store, nil)

	require.Equal(t, attribution.CapabilityNone, tracker.Capability())
	require.False(t, store.state.PostbackSent)

	// Reports are silent no-ops, not errors.
	tracker.ReportNoteCreated(context.Background(), true)
	tracker.ReportActiveUser(context.Background())
}

func TestTracker_FailingSinkLeavesStateAlone(t *testing.T) {
	install := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{state: attribution.State{InstalledAt: install, PostbackSent: true}, exists: true}
	sink := &fullSink{err: errors.New("postback delivery failed")}
	tracker := newTracker(t, store, sink, attribution.WithClock(func() time.Time {
		return install.Add(time.Hour)
	}))

	for i := 0; i < 5; i++ {
		tracker.ReportNoteEdited(context.Background())
	}

	require.Len(t, sink.calls, 5)
	require.Zero(t, store.saves)
	require.True(t, store.state.PostbackSent)
}
