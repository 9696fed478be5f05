// Command fitstride boots the client orchestration layer headless: session
// store, façade services, and navigation shell wired to a Supabase backend,
// with Prometheus metrics exposed for development and integration runs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/service"
	"github.com/fitstride/fitstride/internal/infrastructure/supabase"
	"github.com/fitstride/fitstride/internal/pkg/config"
	"github.com/fitstride/fitstride/internal/ui"
	"github.com/fitstride/fitstride/pkg/logger"
)

// logNotifier renders user-facing notices to the log; a real client shell
// would show them as toasts.
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Notify(notice ui.Notice) {
	event := n.log.Info()
	switch notice.Level {
	case ui.LevelWarn:
		event = n.log.Warn()
	case ui.LevelError:
		event = n.log.Error()
	}
	event.Str("notice", string(notice.Level)).Msg(notice.Message)
}

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := supabase.New(supabase.Config{
		URL:        cfg.Supabase.URL,
		AnonKey:    cfg.Supabase.AnonKey,
		HTTPClient: &http.Client{Timeout: cfg.Supabase.Timeout},
		Realtime:   cfg.Supabase.Realtime,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("supabase client init failed")
	}
	defer client.Close()

	store := service.NewSessionStore(client.Auth(), client.Profiles(), log)
	defer store.Close()

	profiles := service.NewProfileService(client.Profiles(), log)
	follows := service.NewFollowService(client.Follows(), store, log)
	workouts := service.NewWorkoutService(client.Workouts(), store, log)

	notices := logNotifier{log: log}
	feed := ui.NewListController("feed", workouts.FollowedFeed, log)
	feed.OnChange(func(s ui.ListState[domain.Workout]) {
		if s.Err != nil {
			notices.Notify(ui.ErrorNotice(s.Err))
		}
	})
	search := ui.NewSearchController(profiles, log)
	search.OnChange(func(s ui.SearchState) {
		if s.Err != nil {
			notices.Notify(ui.ErrorNotice(s.Err))
		}
	})
	profileScreen := ui.NewProfileScreen(profiles, follows, workouts, log)

	shell := ui.NewShell(store, log)
	shell.OnChange(func(route ui.Route, tab ui.Tab) {
		log.Info().Str("route", string(route)).Str("tab", string(tab)).Msg("navigation")
		switch {
		case route == ui.RouteTabs && tab == ui.TabFeed:
			feed.Mount(ctx)
		case route == ui.RouteTabs && tab == ui.TabSearch:
			search.Query(ctx, "")
		case route == ui.RouteTabs && tab == ui.TabProfile:
			if me, ok := store.Identity(); ok {
				profileScreen.Load(ctx, me.ID)
			}
		default:
			feed.Unmount()
		}
	})
	shell.Attach()
	defer shell.Detach()

	if err := store.Bootstrap(ctx); err != nil {
		log.Warn().Err(err).Msg("session bootstrap failed, starting signed out")
	}

	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: promhttp.Handler(),
	}
	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown failed")
	}
}
