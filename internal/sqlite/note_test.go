package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/linkrunner-labs/pageone/internal/domain/note"
	"github.com/stretchr/testify/require"
)

func insertNote(t *testing.T, repo *NoteRepository, title, body string) *note.Note {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	n := &note.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestNoteRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	created := insertNote(t, repo, "Groceries", "milk, eggs, flour")

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Groceries", got.Title)
	require.Equal(t, "milk, eggs, flour", got.Body)
}

func TestNoteRepository_GetMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, note.ErrNoteNotFound)
}

func TestNoteRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	n := insertNote(t, repo, "Draft", "first version")
	n.Body = "second version"
	n.UpdatedAt = n.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, n))

	got, err := repo.Get(ctx, n.ID)
	require.NoError(t, err)
	require.Equal(t, "second version", got.Body)
}

func TestNoteRepository_UpdateMissing(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)

	err := repo.Update(context.Background(), &note.Note{ID: "missing", Body: "x"})
	require.ErrorIs(t, err, note.ErrNoteNotFound)
}

func TestNoteRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	n := insertNote(t, repo, "Temp", "delete me")
	require.NoError(t, repo.Delete(ctx, n.ID))

	_, err := repo.Get(ctx, n.ID)
	require.ErrorIs(t, err, note.ErrNoteNotFound)

	require.ErrorIs(t, repo.Delete(ctx, n.ID), note.ErrNoteNotFound)
}

func TestNoteRepository_ListOrdersByUpdated(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	older := insertNote(t, repo, "Older", "body")
	newer := insertNote(t, repo, "Newer", "body")
	newer.UpdatedAt = newer.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, newer))

	summaries, err := repo.List(ctx, note.ListOptions{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, newer.ID, summaries[0].ID)
	require.Equal(t, older.ID, summaries[1].ID)
}

func TestNoteRepository_ListLimit(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)

	for i := 0; i < 5; i++ {
		insertNote(t, repo, "Note", "body")
	}

	summaries, err := repo.List(context.Background(), note.ListOptions{Limit: 3})
	require.NoError(t, err)
	require.Len(t, summaries, 3)
}

func TestNoteRepository_Search(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	match := insertNote(t, repo, "Travel plans", "flight to Lisbon in June")
	insertNote(t, repo, "Groceries", "milk and eggs")

	hits, err := repo.Search(ctx, "lisbon", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, match.ID, hits[0].Note.ID)
	require.Contains(t, hits[0].Snippet, "[Lisbon]")
}

func TestNoteRepository_SearchReflectsEdits(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	n := insertNote(t, repo, "Draft", "about gophers")
	n.Body = "about herons"
	require.NoError(t, repo.Update(ctx, n))

	hits, err := repo.Search(ctx, "gophers", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	hits, err = repo.Search(ctx, "herons", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestNoteRepository_Count(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNoteRepository(db)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	insertNote(t, repo, "One", "body")
	insertNote(t, repo, "Two", "body")

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
