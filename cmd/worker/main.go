package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"wesee/internal/app"
	"wesee/internal/config"
	"wesee/internal/infrastructure/crew"
	"wesee/internal/infrastructure/linkedin"
	"wesee/internal/logger"
	"wesee/internal/usecase"
	"wesee/internal/worker"
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

	model, err := crew.NewModel(cfg.LLM)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init llm")
	}
	writer, err := crew.New(model, cfg.LLM, logger.Named("crew"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load crew definitions")
	}

	jobs := []usecase.TaskJob{
		usecase.NewScrapeJob(c.ScrapeTasks, c.ProfileCodec, c.Credentials,
			linkedin.NewScraper(cfg.Scraper, logger.Named("linkedin")), logger.Named("scrape")),
		usecase.NewCVJob(c.CVTasks, c.ProfileCodec, writer, logger.Named("cv")),
	}
	runner := worker.NewRunner(c.Broker, c.Broker.Queues(), cfg.RabbitMQ.Prefetch, logger.Named("worker"), jobs...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("provider", cfg.LLM.Provider).Str("model", cfg.LLM.Model).Msg("worker started")
	if err := runner.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker stopped with error")
		return
	}
	logger.Info().Msg("worker stopped")
}
