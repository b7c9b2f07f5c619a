package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"note_ingest/internal/artifact"
	"note_ingest/internal/config"
	"note_ingest/internal/httpapi"
	"note_ingest/internal/publisher"
	"note_ingest/internal/service"
	"note_ingest/internal/source/firecrawl"
	"note_ingest/internal/storage/github"
	"note_ingest/internal/storage/postgres"
	"note_ingest/internal/storage/redis"
	"note_ingest/internal/storage/s3"
	"note_ingest/internal/storage/vault"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ingester stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	storage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	deps := service.CallbackDeps{
		Storage:  storage,
		Renderer: artifact.NewRenderer(artifact.WithLocation(cfg.Location())),
	}

	var (
		jobs   service.JobStore
		status httpapi.JobLookup
	)

	if cfg.Database.Host != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		logger.Info("connected to database")

		jobStore := postgres.NewJobStore(db)
		deliveryStore := postgres.NewDeliveryStore(db)

		jobs = jobStore
		deps.Jobs = jobStore
		deps.Deliveries = deliveryStore
		deps.TxManager = postgres.NewTransactionManager(db)
		status = service.NewJobStatus(jobStore, deliveryStore, logger, cfg.API.Secret)
	}

	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return err
		}
		defer rabbitMQ.Close()
		deps.Publisher = rabbitMQ
	}

	if cfg.Callback.Dedupe {
		guard, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Callback.DedupeTTL,
		}, logger)
		if err != nil {
			return err
		}
		defer guard.Close()
		deps.Guard = guard
		logger.Info("delivery guard enabled", "ttl", cfg.Callback.DedupeTTL)
	}

	extractor := firecrawl.New(firecrawl.Config{
		BaseURL: cfg.Firecrawl.BaseURL,
		APIKey:  cfg.Firecrawl.APIKey,
		Timeout: cfg.Firecrawl.Timeout,
	}, logger)

	submitter := service.NewJobSubmitter(extractor, jobs, logger, service.SubmitterConfig{
		Secret:     cfg.API.Secret,
		WebhookURL: cfg.WebhookURL(),
	})
	processor := service.NewCallbackProcessor(deps, logger, service.CallbackConfig{
		Prefix:  cfg.Storage.Prefix,
		Timeout: cfg.Callback.Timeout,
	})

	api := httpapi.NewServer(submitter, processor, status, logger, httpapi.Config{
		CallbackToken: cfg.Callback.Token,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting note ingester",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Backend,
			"webhook", cfg.API.PublicURL+"/api/callback",
		)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.StorageClient, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		return s3.New(ctx, s3.Config{
			Bucket:          cfg.Storage.S3.Bucket,
			Region:          cfg.Storage.S3.Region,
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
		}, logger)
	case config.BackendVault:
		return vault.New(ctx, vault.Config{
			Path:        cfg.Storage.Vault.Path,
			Git:         cfg.Storage.Vault.Git,
			AuthorName:  cfg.Storage.Vault.AuthorName,
			AuthorEmail: cfg.Storage.Vault.AuthorEmail,
		}, logger)
	default:
		return github.New(github.Config{
			Token:          cfg.Storage.GitHub.Token,
			Owner:          cfg.Storage.GitHub.Owner,
			Repo:           cfg.Storage.GitHub.Repo,
			Branch:         cfg.Storage.GitHub.Branch,
			CommitterName:  cfg.Storage.GitHub.CommitterName,
			CommitterEmail: cfg.Storage.GitHub.CommitterEmail,
			APIURL:         cfg.Storage.GitHub.APIURL,
			Timeout:        cfg.Storage.GitHub.Timeout,
		}, logger)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
