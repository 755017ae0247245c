package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/config"
	"github.com/datadiag/datadiag/internal/httpapi"
	apimw "github.com/datadiag/datadiag/internal/httpapi/middleware"
	"github.com/datadiag/datadiag/internal/logging"
	"github.com/datadiag/datadiag/internal/notify"
	"github.com/datadiag/datadiag/internal/repo/memory"
	"github.com/datadiag/datadiag/internal/runner"
	"github.com/datadiag/datadiag/internal/systems"
	"github.com/datadiag/datadiag/internal/watch"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One catalog per process; all registration happens here, before
	// anything can run against it.
	cat := catalog.New(logger)
	systems.RegisterAll(cat, logger)

	run := runner.New(cat, logger)
	store := memory.New()
	api := httpapi.NewServer(logger, cat, run, store)

	if cfg.Watch.System != "" {
		var notifiers notify.Multi
		if slack := notify.NewSlack(cfg.Watch.Webhook); slack != nil {
			notifiers = append(notifiers, slack)
		}
		w := watch.New(logger, run, notifiers,
			cfg.Watch.System, cfg.Watch.DataFile,
			cfg.Watch.Interval, cfg.Watch.Cooldown,
		)
		go w.Run(ctx)
	}

	keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	handler := api.Router(keys, cfg.AllowedOrigins, cfg.PublicRatePerMin, cfg.AdminRatePerMin)

	srv := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
