// Package mocks provides testify mocks for repository interfaces.
package mocks

import (
	"context"

	"github.com/linkrunner-labs/pageone/internal/domain/note"
	"github.com/stretchr/testify/mock"
)

// NoteRepository is a mock for note.Repository.
type NoteRepository struct {
	mock.Mock
}

func (m *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NoteRepository) Get(ctx context.Context, id string) (*note.Note, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*note.Note); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NoteRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NoteRepository) List(ctx context.Context, opts note.ListOptions) ([]note.Summary, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]note.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NoteRepository) Search(ctx context.Context, query string, limit int) ([]note.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	if hits, ok := args.Get(0).([]note.SearchHit); ok {
		return hits, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NoteRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
