package attribution

// CoarseValue is the three-level tier reported alongside the fine value.
type CoarseValue string

const (
	CoarseLow    CoarseValue = "low"
	CoarseMedium CoarseValue = "medium"
	CoarseHigh   CoarseValue = "high"
)

// Event is one entry of the closed conversion-event set. The fine value is
// the 1-5 integer the ad network bids on; the coarse value is its bucketed
// counterpart for networks that only receive the coarse postback.
type Event struct {
	Name   string
	Fine   int
	Coarse CoarseValue
}

var (
	EventInstall              = Event{Name: "install", Fine: 1, Coarse: CoarseLow}
	EventNoteCreated          = Event{Name: "note_created", Fine: 1, Coarse: CoarseLow}
	EventFirstNoteCreated     = Event{Name: "first_note_created", Fine: 2, Coarse: CoarseMedium}
	EventNoteEdited           = Event{Name: "note_edited", Fine: 3, Coarse: CoarseLow}
	EventMultipleNotesCreated = Event{Name: "multiple_notes_created", Fine: 4, Coarse: CoarseMedium}
	EventActiveUser           = Event{Name: "active_user", Fine: 5, Coarse: CoarseHigh}
)
