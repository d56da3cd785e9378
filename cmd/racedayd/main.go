package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arvindsc/entain-assessment/core/config"
	"github.com/arvindsc/entain-assessment/core/logger"
	"github.com/arvindsc/entain-assessment/core/server"
	"github.com/arvindsc/entain-assessment/racing"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("racedayd exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		appCfg    appConfig
		clientCfg racing.ClientConfig
		storeCfg  racing.StoreConfig
		serverCfg server.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&clientCfg)
	config.MustLoad(&storeCfg)
	config.MustLoad(&serverCfg)

	logOpt := logger.WithDevelopment("racedayd")
	if appCfg.Env == "production" {
		logOpt = logger.WithProduction("racedayd")
	}
	log := logger.New(logOpt)

	client := racing.NewClient(clientCfg, racing.WithClientLogger(log))
	store, err := racing.NewStore(client, storeCfg, racing.WithStoreLogger(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Start(ctx); err != nil {
		return err
	}
	defer store.Stop()

	srv, err := server.NewFromConfig(serverCfg, server.WithLogger(log))
	if err != nil {
		return err
	}

	log.Info("racedayd starting",
		logger.Component("main"),
		logger.Key("addr", serverCfg.Addr),
		logger.Key("upstream", clientCfg.BaseURL),
	)

	if err := srv.Start(ctx, racing.NewHandler(store, log)); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
