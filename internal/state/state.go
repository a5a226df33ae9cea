// Package state owns the canonical streamer configuration: it receives the
// edits forwarded by the configuration page, pushes them to overlays and
// persists them.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/justdancerequests/overlay/internal/configsync"
	"github.com/justdancerequests/overlay/internal/logger"
	"github.com/justdancerequests/overlay/internal/streamer"
	"github.com/justdancerequests/overlay/internal/ws"
)

// Saves are coalesced for saveWait but happen at least every saveMaxWait
// while edits keep arriving.
const (
	saveWait    = 250 * time.Millisecond
	saveMaxWait = 2 * time.Second
)

// Persister stores streamer configurations.
type Persister interface {
	SaveConfiguration(ctx context.Context, streamerID string, cfg streamer.StreamerConfiguration) error
	LoadConfiguration(ctx context.Context, streamerID string) (streamer.StreamerConfiguration, bool, error)
}

// Broadcaster pushes messages to connected overlays.
type Broadcaster interface {
	Broadcast(m ws.Message) int
}

// Service owns the canonical configuration of one streamer.
type Service struct {
	streamerID string
	store      Persister
	hub        Broadcaster
	log        logger.Logger

	mu      sync.Mutex
	current streamer.StreamerConfiguration
	dirty   bool

	// saveMu serializes Flush so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	save        func()
	cancelSave  func()
	page        *configsync.Page
	rehydrateMu sync.Mutex
	rehydrate   []func()
}

// NewService loads the streamer's configuration, falling back to defaults
// when none was saved.
func NewService(ctx context.Context, streamerID string, store Persister, hub Broadcaster, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.GetDefault()
	}
	cfg, found, err := store.LoadConfiguration(ctx, streamerID)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if !found {
		cfg = streamer.Default()
		log.Info("no saved configuration, using defaults", "streamer_id", streamerID)
	}

	s := &Service{
		streamerID: streamerID,
		store:      store,
		hub:        hub,
		log:        log.With("streamer_id", streamerID),
		current:    cfg,
	}
	s.save, s.cancelSave = debounce.NewWithMaxWait(saveWait, saveMaxWait, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.log.Error("failed to save configuration", "error", err)
		}
	})
	s.page = configsync.NewPage(cfg.ChatIntegration, s.Update)
	return s, nil
}

// Update merges a partial configuration, notifies overlays and schedules a
// save. It never reports failures to the caller.
func (s *Service) Update(p streamer.Partial) {
	s.mu.Lock()
	s.current = s.current.Merge(p)
	s.dirty = true
	cfg := s.current
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(ws.Message{Type: ws.TypeConfigUpdate, Data: cfg})
	}
	s.save()
}

// Current returns the canonical configuration.
func (s *Service) Current() streamer.StreamerConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Page returns the chat integration page bound to this service.
func (s *Service) Page() *configsync.Page {
	return s.page
}

// Flush writes the configuration if there are unsaved edits.
func (s *Service) Flush(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	cfg := s.current
	s.dirty = false
	s.mu.Unlock()

	if err := s.store.SaveConfiguration(ctx, s.streamerID, cfg); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	s.log.Debug("configuration saved")
	return nil
}

// OnRehydrate registers fn to run when overlays ask for the current state.
func (s *Service) OnRehydrate(fn func()) {
	s.rehydrateMu.Lock()
	defer s.rehydrateMu.Unlock()
	s.rehydrate = append(s.rehydrate, fn)
}

// Rehydrate rebroadcasts the configuration and runs the registered hooks.
func (s *Service) Rehydrate() {
	if s.hub != nil {
		s.hub.Broadcast(ws.Message{Type: ws.TypeConfigUpdate, Data: s.Current()})
	}
	s.rehydrateMu.Lock()
	hooks := append([]func(){}, s.rehydrate...)
	s.rehydrateMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Close stops pending saves and flushes synchronously.
func (s *Service) Close(ctx context.Context) error {
	s.cancelSave()
	return s.Flush(ctx)
}
