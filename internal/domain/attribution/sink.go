package attribution

import "context"

// The attribution provider API has grown three generations of the
// conversion-update call. A sink implements whichever generation it speaks;
// the tracker detects the richest one once at construction and sticks with it.

// ValueUpdater is the full-surface sink: fine value, coarse value and
// explicit window-lock control, with a synchronous error result.
type ValueUpdater interface {
	UpdateConversionValue(ctx context.Context, fine int, coarse CoarseValue, lockWindow bool) error
}

// FineValueUpdater is the reduced sink: fine value only, no coarse tier and
// no lock control, still with an error result.
type FineValueUpdater interface {
	UpdateFineValue(ctx context.Context, fine int) error
}

// LegacyUpdater is the oldest sink: fine value only and no feedback at all.
// The tracker treats legacy updates as always-succeeded.
type LegacyUpdater interface {
	UpdateFineValueSync(fine int)
}

// Registrar is an optional sink capability: providers that require an
// explicit one-time registration before accepting conversion updates.
type Registrar interface {
	RegisterForAttribution(ctx context.Context) error
}

// Capability identifies which sink generation the tracker resolved.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityLegacy
	CapabilityFine
	CapabilityFull
)

func (c Capability) String() string {
	switch c {
	case CapabilityFull:
		return "full"
	case CapabilityFine:
		return "fine"
	case CapabilityLegacy:
		return "legacy"
	}
	return "none"
}

// DetectCapability picks the richest interface the sink implements.
// A nil sink yields CapabilityNone, which turns every report into a no-op.
func DetectCapability(sink any) Capability {
	if sink == nil {
		return CapabilityNone
	}
	if _, ok := sink.(ValueUpdater); ok {
		return CapabilityFull
	}
	if _, ok := sink.(FineValueUpdater); ok {
		return CapabilityFine
	}
	if _, ok := sink.(LegacyUpdater); ok {
		return CapabilityLegacy
	}
	return CapabilityNone
}
