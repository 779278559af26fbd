package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/thajpo/ceo-dashboard/internal/api"
	"github.com/thajpo/ceo-dashboard/internal/config"
	"github.com/thajpo/ceo-dashboard/internal/dashboard"
	"github.com/thajpo/ceo-dashboard/internal/events"
	"github.com/thajpo/ceo-dashboard/internal/metrics"
	"github.com/thajpo/ceo-dashboard/internal/queue"
	"github.com/thajpo/ceo-dashboard/internal/router"
	"github.com/thajpo/ceo-dashboard/internal/ws"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to the agent runtime and serve the local API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cfg)
		},
	}
}

func settingsFrom(cfg *config.Config) router.Settings {
	return router.Settings{
		InboxCapacity: cfg.Inbox.Capacity,
		BurstWindow:   cfg.Inbox.BurstWindow(),
		HighUsage:     cfg.Usage.HighThreshold,
		ConfirmPhrase: cfg.Autonomy.ConfirmPhrase,
	}
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	outbox, err := queue.NewQueue(cfg.Storage.StateDir, cfg.Storage.OutboxMax)
	if err != nil {
		return fmt.Errorf("failed to open outbox: %w", err)
	}
	defer outbox.Close()

	wsClient := ws.NewClient(cfg.Dashboard.WSURL, cfg.Dashboard.Token, cfg.Dashboard.ReconnectDelay())
	wsClient.SetQueue(outbox)
	wsClient.SetMetrics(m)

	rt := router.New(router.Options{
		Outbound: wsClient,
		Metrics:  m,
		Settings: settingsFrom(cfg),
	})
	loop := router.NewLoop(rt, 0)

	wsClient.SetMessageHandler(func(data []byte) {
		ev, err := events.Decode(data)
		if err != nil {
			log.Printf("Dropping runtime frame: %v", err)
			m.EventDropped("malformed")
			return
		}
		if !loop.Submit(ev) {
			m.EventDropped("stopped")
		}
	})
	wsClient.SetOnConnect(func() {
		if n := outbox.Len(); n > 0 {
			log.Printf("Outbox holds %d undelivered frames", n)
		}
	})

	srv := api.NewServer(api.Options{
		Loop:           loop,
		Runtime:        dashboard.NewClient(cfg.Dashboard.HTTPURL, cfg.Dashboard.Token, cfg.Dashboard.RequestTimeout()),
		Gatherer:       reg,
		Connected:      wsClient.Connected,
		AllowedOrigins: cfg.API.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(ctx) }()

	if err := loop.Do(ctx, func(r *router.Router) { r.Subscribe(srv.Hub().Publish) }); err != nil {
		return err
	}

	go func() {
		if err := wsClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Runtime connection stopped: %v", err)
		}
	}()

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				settings := settingsFrom(next)
				if err := loop.Do(ctx, func(r *router.Router) { r.ApplySettings(settings) }); err != nil {
					log.Printf("Failed to apply config: %v", err)
					return
				}
				log.Printf("Applied config from %s", configPath)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Config watcher stopped: %v", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Local API listening on %s", cfg.API.Listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Shutting down")
	case err := <-serveErr:
		wsClient.Close()
		return fmt.Errorf("local API failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to stop local API: %v", err)
	}
	wsClient.Close()
	<-loopDone
	return nil
}
