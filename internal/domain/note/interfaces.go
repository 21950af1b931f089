package note

import "context"

// Repository provides persistence for notes.
type Repository interface {
	Create(ctx context.Context, n *Note) error
	Get(ctx context.Context, id string) (*Note, error)
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]Summary, error)
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)
	Count(ctx context.Context) (int, error)
}

// ConversionTracker receives conversion signals after persistence commits.
// Implementations must be fire-and-forget: they never block and never fail
// the calling operation.
type ConversionTracker interface {
	ReportNoteCreated(ctx context.Context, firstNote bool)
	ReportNoteEdited(ctx context.Context)
	ReportMultipleNotesCreated(ctx context.Context)
	ReportActiveUser(ctx context.Context)
}
