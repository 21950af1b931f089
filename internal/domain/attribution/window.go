package attribution

import "time"

// Window is the attribution window derived from time since install. It is
// never stored; it is recomputed from the install timestamp on every report.
type Window int

const (
	Window0 Window = iota
	Window1
	Window2
	WindowExpired
)

func (w Window) String() string {
	switch w {
	case Window0:
		return "window_0"
	case Window1:
		return "window_1"
	case Window2:
		return "window_2"
	case WindowExpired:
		return "expired"
	}
	return "unknown"
}

// Policy holds the tunable knobs of the reporting protocol. The window
// boundaries are inclusive of their upper bound, so an elapsed time of
// exactly Window0 still counts as Window0.
type Policy struct {
	// Window0, Window1 and Window2 are elapsed-since-install upper bounds.
	// Past Window2 every report is dropped.
	Window0 time.Duration
	Window1 time.Duration
	Window2 time.Duration

	// LockThreshold is the minimum fine value at which an ordinary event
	// locks the attribution window immediately instead of waiting for the
	// window to run out. The install report always locks.
	LockThreshold int
}

// DefaultPolicy returns the shipped policy: 2/7/35 day windows, and any
// non-baseline signal (fine value >= 2) locks the window.
func DefaultPolicy() Policy {
	return Policy{
		Window0:       2 * 24 * time.Hour,
		Window1:       7 * 24 * time.Hour,
		Window2:       35 * 24 * time.Hour,
		LockThreshold: 2,
	}
}

// Window maps elapsed time since install to an attribution window.
func (p Policy) Window(installedAt, now time.Time) Window {
	elapsed := now.Sub(installedAt)
	switch {
	case elapsed <= p.Window0:
		return Window0
	case elapsed <= p.Window1:
		return Window1
	case elapsed <= p.Window2:
		return Window2
	default:
		return WindowExpired
	}
}

// LockWindow reports whether an ordinary (non-install) event should lock
// the attribution window.
func (p Policy) LockWindow(ev Event) bool {
	return ev.Fine >= p.LockThreshold
}
