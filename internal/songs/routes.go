package songs

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/justdancerequests/overlay/internal/catalog"
	"github.com/justdancerequests/overlay/internal/logger"
	"github.com/justdancerequests/overlay/internal/status"
	"github.com/justdancerequests/overlay/internal/store"
)

// HistoryStore records and lists request outcomes.
type HistoryStore interface {
	History
	ListRequests(ctx context.Context, limit int) ([]store.RequestRecord, error)
}

// Handlers serve the song browsing and request endpoints.
type Handlers struct {
	api      API
	catalog  *catalog.Catalog
	notifier *status.Notifier
	history  HistoryStore
	log      logger.Logger
}

func NewHandlers(api API, cat *catalog.Catalog, notifier *status.Notifier, history HistoryStore, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.GetDefault()
	}
	if cat == nil {
		cat = catalog.New()
	}
	return &Handlers{api: api, catalog: cat, notifier: notifier, history: history, log: log}
}

// RegisterRoutes mounts the /api/songs, /api/status and /api/requests endpoints.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/api/songs/search", h.handleSearch)
	r.Get("/api/songs/{id}", h.handleSong)
	r.Post("/api/songs/{id}/request", h.handleRequest)
	r.Get("/api/status", h.handleStatus)
	r.Get("/api/requests/history", h.handleHistory)
}

func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		http.Error(w, "missing ?q=", http.StatusBadRequest)
		return
	}
	found, err := h.api.Search(r.Context(), q)
	if err != nil {
		h.log.Warn("song search failed", "query", q, "error", err)
		http.Error(w, "song search failed", http.StatusBadGateway)
		return
	}
	h.catalog.Put(found...)

	entries := make([]catalog.SearchEntry, 0, len(found))
	for _, s := range found {
		entries = append(entries, catalog.NewSearchEntry(s))
	}
	writeJSON(w, entries)
}

func (h *Handlers) handleSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	song, ok := h.lookup(r.Context(), id)
	if !ok {
		http.Error(w, "unknown song id", http.StatusNotFound)
		return
	}
	writeJSON(w, song)
}

func (h *Handlers) handleRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	song, ok := h.lookup(r.Context(), id)
	if !ok {
		song = catalog.Song{ID: id}
	}
	st := NewDetails(song, h.api, h.notifier, h.history, h.log).Request(context.WithoutCancel(r.Context()))
	writeJSON(w, st)
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.notifier.Current())
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, []store.RequestRecord{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.history.ListRequests(r.Context(), limit)
	if err != nil {
		h.log.Error("list request history failed", "error", err)
		http.Error(w, "cannot list history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

func (h *Handlers) lookup(ctx context.Context, id string) (catalog.Song, bool) {
	if s, ok := h.catalog.Get(id); ok {
		return s, true
	}
	s, err := h.api.Song(ctx, id)
	if err != nil {
		h.log.Debug("song lookup failed", "song_id", id, "error", err)
		return catalog.Song{}, false
	}
	h.catalog.Put(s)
	return s, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
