package note

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Thresholds are the note counts at which milestone conversion signals fire.
// Gating lives here, with the event producer, not in the tracker.
type Thresholds struct {
	MultipleNotes int
	ActiveUser    int
}

// DefaultThresholds returns the shipped milestone counts.
func DefaultThresholds() Thresholds {
	return Thresholds{MultipleNotes: 3, ActiveUser: 5}
}

// Service handles note business logic and emits conversion signals once the
// corresponding write has committed.
type Service struct {
	notes      Repository
	tracker    ConversionTracker
	thresholds Thresholds
	logger     *slog.Logger
}

// NewService creates a new note service. tracker may be nil, in which case
// no conversion signals are emitted.
func NewService(notes Repository, tracker ConversionTracker, thresholds Thresholds, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		notes:      notes,
		tracker:    tracker,
		thresholds: thresholds,
		logger:     logger,
	}
}

// CreateRequest describes a note creation request.
type CreateRequest struct {
	Title string
	Body  string
}

// UpdateRequest describes a note update request. Nil fields are left as-is.
type UpdateRequest struct {
	Title *string
	Body  *string
}

// Create creates a new note and reports the creation milestones reached by
// the resulting note count.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Note, error) {
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: empty note", ErrInvalidInput)
	}

	now := time.Now()
	n := &Note{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Body:      req.Body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.reportCreated(ctx)
	return n, nil
}

// Get returns a note by id.
func (s *Service) Get(ctx context.Context, id string) (*Note, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.notes.Get(ctx, id)
}

// Update applies the given changes and reports the edit.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Note, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	n, err := s.notes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Body != nil {
		n.Body = *req.Body
	}
	n.UpdatedAt = time.Now()

	if err := s.notes.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("updating note: %w", err)
	}

	if s.tracker != nil {
		s.tracker.ReportNoteEdited(ctx)
	}
	return n, nil
}

// Delete removes a note. Deletion produces no conversion signal.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.notes.Delete(ctx, id)
}

// List returns note summaries, most recently updated first.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Summary, error) {
	return s.notes.List(ctx, opts)
}

// Search runs a full-text query over titles and bodies.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidInput)
	}
	return s.notes.Search(ctx, query, limit)
}

// reportCreated emits the creation signal plus any milestone reached by the
// post-commit note count. A count failure only costs the signal, never the
// create itself.
func (s *Service) reportCreated(ctx context.Context) {
	if s.tracker == nil {
		return
	}
	count, err := s.notes.Count(ctx)
	if err != nil {
		s.logger.Warn("counting notes for conversion signal failed", "error", err)
		return
	}

	s.tracker.ReportNoteCreated(ctx, count == 1)
	if count == s.thresholds.MultipleNotes {
		s.tracker.ReportMultipleNotesCreated(ctx)
	}
	if count == s.thresholds.ActiveUser {
		s.tracker.ReportActiveUser(ctx)
	}
}
