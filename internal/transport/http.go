// Package transport exposes the note service over HTTP.
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/linkrunner-labs/pageone/internal/domain/note"
)

// Handler serves the note API.
type Handler struct {
	notes  *note.Service
	logger *slog.Logger
}

// NewRouter builds the chi router with the given middlewares applied to
// every route.
func NewRouter(notes *note.Service, logger *slog.Logger, middlewares ...func(http.Handler) http.Handler) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{notes: notes, logger: logger}

	router := chi.NewRouter()
	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Route("/notes", func(r chi.Router) {
		r.Post("/", h.createNote)
		r.Get("/", h.listNotes)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getNote)
			r.Put("/", h.updateNote)
			r.Delete("/", h.deleteNote)
		})
	})

	return router
}

type createNoteRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type updateNoteRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, note.ErrInvalidInput)
		return
	}

	n, err := h.notes.Create(r.Context(), note.CreateRequest{Title: req.Title, Body: req.Body})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, n)
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, n)
}

func (h *Handler) updateNote(w http.ResponseWriter, r *http.Request) {
	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, note.ErrInvalidInput)
		return
	}

	n, err := h.notes.Update(r.Context(), chi.URLParam(r, "id"), note.UpdateRequest{
		Title: req.Title,
		Body:  req.Body,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, n)
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listNotes returns recency-ordered summaries, or search hits when a q
// parameter is present.
func (h *Handler) listNotes(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit")

	if query := r.URL.Query().Get("q"); query != "" {
		hits, err := h.notes.Search(r.Context(), query, limit)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if hits == nil {
			hits = []note.SearchHit{}
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
		return
	}

	summaries, err := h.notes.List(r.Context(), note.ListOptions{
		Limit:  limit,
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if summaries == nil {
		summaries = []note.Summary{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"notes": summaries})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, note.ErrNoteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, note.ErrInvalidInput):
		status = http.StatusBadRequest
	default:
		h.logger.Error("request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
