package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justdancerequests/overlay/internal/catalog"
	"github.com/justdancerequests/overlay/internal/config"
	"github.com/justdancerequests/overlay/internal/logger"
	"github.com/justdancerequests/overlay/internal/songs"
	"github.com/justdancerequests/overlay/internal/state"
	"github.com/justdancerequests/overlay/internal/status"
	"github.com/justdancerequests/overlay/internal/store"
	"github.com/justdancerequests/overlay/internal/ws"
)

func main() {
	if err := run(); err != nil {
		logger.Error("overlay stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.LogLevel(cfg.Log.Level)
	logCfg.JSON = cfg.Log.JSON
	logCfg.File = cfg.Log.File
	logger.Init(logCfg)
	log := logger.GetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := store.NewStore(cfg.Store.Path)
	if err := db.Init(); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	hub := ws.NewHub(log.With("component", "ws"))

	notifier := status.New(status.WithDuration(cfg.Status.Duration))
	defer notifier.Close()
	notifier.OnChange(func(s status.Status) {
		hub.Broadcast(ws.Message{Type: ws.TypeStatus, Data: s})
	})

	svc, err := state.NewService(ctx, cfg.Server.StreamerID, db, hub, log.With("component", "state"))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			log.Error("final configuration save failed", "error", err)
		}
	}()
	svc.OnRehydrate(func() {
		hub.Broadcast(ws.Message{Type: ws.TypeStatus, Data: notifier.Current()})
	})

	client := songs.NewClient(songs.ClientConfig{
		BaseURL: cfg.ESB.BaseURL,
		Token:   cfg.ESB.Token,
		Timeout: cfg.ESB.Timeout,
	})
	handlers := songs.NewHandlers(client, catalog.New(), notifier, db, log.With("component", "songs"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<h3>Just Dance Requests overlay</h3>
<p>Streamer: %s</p>
<p>Connected overlays: %d</p>
<ul>
  <li><a href="/api/config" target="_blank">Configuration</a></li>
  <li><a href="/api/requests/history" target="_blank">Request history</a></li>
  <li><a href="/api/debug/clients" target="_blank">Client Count</a></li>
</ul>`, cfg.Server.StreamerID, hub.ClientsCount())
	})
	r.Get("/ws", hub.Handler)

	svc.RegisterRoutes(r)
	handlers.RegisterRoutes(r)

	r.Get("/api/debug/clients", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%d\n", hub.ClientsCount())
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok","service":"jdr-overlay"}`)
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "error", err)
	}
	return nil
}
