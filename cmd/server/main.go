package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wesee/internal/app"
	"wesee/internal/config"
	"wesee/internal/domain/task"
	"wesee/internal/logger"
	"wesee/internal/outbox"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Logger)

	c, err := app.NewContainer(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init container")
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error().Err(err).Msg("cleanup error")
		}
	}()

	if err := c.DialBroker(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to broker")
	}

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid HTTP port")
	}

	server := app.New(c)
	relay := outbox.NewMessageRelay(c.DB, c.Outbox, c.Broker, map[task.Kind]outbox.TaskFailer{
		task.KindScrape: c.ScrapeTasks,
		task.KindCV:     c.CVTasks,
	}, cfg.Outbox, logger.Named("outbox"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("http server listening")
		return server.Fiber.Listen(addr)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Fiber.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
