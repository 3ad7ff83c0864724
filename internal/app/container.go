package app

import (
	"context"
	"fmt"
	"time"

	"wesee/internal/config"
	"wesee/internal/database"
	dbpostgres "wesee/internal/database/postgres"
	"wesee/internal/domain/task"
	"wesee/internal/infrastructure/cache"
	"wesee/internal/infrastructure/queue"
	"wesee/internal/logger"
	"wesee/internal/pkg/jwt"
	"wesee/internal/pkg/secret"
	"wesee/internal/repository"
	"wesee/internal/usecase"
)

// Container holds the dependencies shared by the server, the worker and the CLI.
type Container struct {
	Config config.Config
	DB     database.DB
	Redis  *cache.Redis
	Broker *queue.RabbitMQ

	Profiles    *repository.PostgresProfileRepository
	Scrapers    *repository.PostgresScraperRepository
	ScrapeTasks *repository.PostgresTaskRepository
	CVTasks     *repository.PostgresTaskRepository
	Outbox      *repository.PostgresOutboxRepository

	Box *secret.Box
	JWT jwt.Service

	ProfileCodec *usecase.ProfileCodec
	Credentials  *usecase.ScraperCredentials
}

// NewContainer connects to Postgres and Redis. The broker is dialled separately by the
// processes that need it.
func NewContainer(cfg config.Config) (*Container, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	box, err := secret.NewBox(cfg.Scraper.SecretKey)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("scraper secret: %w", err)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		Redis:       cache.NewRedis(ctx, cfg.Redis, logger.Named("redis")),
		Profiles:    repository.NewPostgresProfileRepository(db),
		Scrapers:    repository.NewPostgresScraperRepository(db),
		ScrapeTasks: repository.NewScrapeTaskRepository(db),
		CVTasks:     repository.NewCVTaskRepository(db),
		Outbox:      repository.NewPostgresOutboxRepository(),
		Box:         box,
		JWT:         jwt.NewHMACService(cfg.JWT.AdminSecret, cfg.JWT.AdminExpiresIn, cfg.App.AppName),
	}
	c.ProfileCodec = usecase.NewProfileCodec(c.Profiles, c.Redis, logger.Named("profiles"))
	c.Credentials = usecase.NewScraperCredentials(c.Scrapers, c.Box, logger.Named("scrapers"))

	return c, nil
}

// DialBroker connects to RabbitMQ and declares the task topology.
func (c *Container) DialBroker() error {
	if c.Broker != nil {
		return nil
	}
	b, err := queue.Dial(c.Config.RabbitMQ, logger.Named("rabbitmq"))
	if err != nil {
		return err
	}
	if err := b.DeclareTopology(); err != nil {
		_ = b.Close()
		return err
	}
	c.Broker = b
	return nil
}

func (c *Container) TaskRepositories() []task.Repository {
	return []task.Repository{c.ScrapeTasks, c.CVTasks}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Broker != nil {
		_ = c.Broker.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
