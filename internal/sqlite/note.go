package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linkrunner-labs/pageone/internal/domain/note"
)

const previewLength = 120

// NoteRepository implements note.Repository for SQLite
type NoteRepository struct {
	db *DB
}

// NewNoteRepository creates a new NoteRepository
func NewNoteRepository(db *DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a new note
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	query := `
		INSERT INTO notes (id, title, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.Title, n.Body, n.CreatedAt, n.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Get returns a note by id
func (r *NoteRepository) Get(ctx context.Context, id string) (*note.Note, error) {
	query := `
		SELECT id, title, body, created_at, updated_at
		FROM notes
		WHERE id = ?
	`
	var n note.Note
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, note.ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &n, nil
}

// Update writes the note's title, body and updated timestamp
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	query := `
		UPDATE notes SET title = ?, body = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, n.Title, n.Body, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if affected == 0 {
		return note.ErrNoteNotFound
	}
	return nil
}

// Delete removes a note by id
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if affected == 0 {
		return note.ErrNoteNotFound
	}
	return nil
}

// List returns note summaries ordered by most recently updated
func (r *NoteRepository) List(ctx context.Context, opts note.ListOptions) ([]note.Summary, error) {
	query := `
		SELECT id, title, substr(body, 1, ?), created_at, updated_at
		FROM notes
		ORDER BY updated_at DESC
	`
	args := []interface{}{previewLength}

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	var summaries []note.Summary
	for rows.Next() {
		var s note.Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.Preview, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating note rows: %w", err)
	}
	return summaries, nil
}

// Search runs an FTS5 query over titles and bodies
func (r *NoteRepository) Search(ctx context.Context, query string, limit int) ([]note.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	stmt := `
		SELECT
			n.id, n.title, substr(n.body, 1, ?), n.created_at, n.updated_at,
			bm25(notes_fts) AS rank,
			snippet(notes_fts, 1, '[', ']', '...', 10) AS snip
		FROM notes_fts
		JOIN notes n ON n.rowid = notes_fts.rowid
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, stmt, previewLength, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	var hits []note.SearchHit
	for rows.Next() {
		var hit note.SearchHit
		if err := rows.Scan(
			&hit.Note.ID, &hit.Note.Title, &hit.Note.Preview,
			&hit.Note.CreatedAt, &hit.Note.UpdatedAt,
			&hit.Rank, &hit.Snippet,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search rows: %w", err)
	}
	return hits, nil
}

// Count returns the total number of notes
func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}
