package state

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justdancerequests/overlay/internal/configsync"
	"github.com/justdancerequests/overlay/internal/streamer"
)

// RegisterRoutes mounts the /api/config and /api/state endpoints.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/api/config", s.handleGet)
	r.Route("/api/config/chat-integration", func(r chi.Router) {
		r.Get("/", s.handleGetChatIntegration)
		r.Post("/toggle", s.handleToggle)
		r.Put("/banlist-format", s.handleBanlistFormat)
		r.Get("/banlist-preview", s.handleBanlistPreview)
	})

	r.Post("/api/state/save", func(w http.ResponseWriter, r *http.Request) {
		if err := s.Flush(r.Context()); err != nil {
			s.log.Error("state save failed", "error", err)
			http.Error(w, "cannot save state", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Post("/api/state/rehydrate", func(w http.ResponseWriter, r *http.Request) {
		s.Rehydrate()
		w.Write([]byte("ok"))
	})
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Current())
}

func (s *Service) handleGetChatIntegration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.page.Configuration())
}

func (s *Service) handleToggle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if !streamer.IsTogglePath(path) {
		http.Error(w, "unknown toggle path", http.StatusBadRequest)
		return
	}
	cfg, err := s.page.ToggleEnabled(path)
	if err != nil {
		s.editFailed(w, err)
		return
	}
	writeJSON(w, cfg)
}

func (s *Service) handleBanlistFormat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Format *string `json:"format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Format == nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	cfg, err := s.page.SetBanlistFormat(*body.Format)
	if err != nil {
		s.editFailed(w, err)
		return
	}
	writeJSON(w, cfg)
}

func (s *Service) handleBanlistPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := s.page.Configuration().Commands.Banlist.Format
	writeJSON(w, map[string]string{
		"format":  format,
		"preview": streamer.FormatBanlistEntry(format, q.Get("title"), q.Get("artist")),
	})
}

func (s *Service) editFailed(w http.ResponseWriter, err error) {
	s.log.Error("configuration edit failed", "error", err)
	if errors.Is(err, configsync.ErrInvalidTree) {
		http.Error(w, "invalid configuration", http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, "cannot apply edit", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
