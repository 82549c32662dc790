// Command userd wires the event store, read model, and outbox worker
// together against a PostgreSQL pool and starts River. It is a composition
// root, not a CLI: no flags, no subcommands, no HTTP surface. An actual
// front-end (HTTP API, CRM ingestion, etc.) is a separate collaborator that
// imports this module's packages directly and builds its own
// command.Handlers / query.Handlers against the same pool and registry.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	es "github.com/userevents/core"
	"github.com/userevents/core/config"
	"github.com/userevents/core/dispatch"
	"github.com/userevents/core/logging"
	"github.com/userevents/core/projection"
	"github.com/userevents/core/providers/email"
	"github.com/userevents/core/queue/river"
	"github.com/userevents/core/readmodel"
	"github.com/userevents/core/stores/pgx"
	"github.com/userevents/core/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()
	log := logging.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("parse pool config: %w", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("create pool: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("database connection pool ready", zap.Int32("max_conns", cfg.Database.MaxConns))

	registry := user.Registry()
	store := pgx.New(pool, registry, nil)

	rows := readmodel.NewPgxRepository(pool)
	ledger := projection.NewPgxLedger(pool)

	emailProvider := buildEmailProvider(cfg.Email, log)

	reader := es.Reader{UoW: store}
	readModelRepo := user.NewRepository(reader, reader)
	runner := projection.NewRunner(ledger, map[string]projection.Handler{
		projection.TaskReadModel:    projection.NewReadModelHandler(readModelRepo, rows),
		projection.TaskWelcomeEmail: projection.NewWelcomeEmailHandler(emailProvider, nil),
	})

	taskRegistry := dispatch.NewRegistry()
	taskRegistry.Register(user.Created{}.EventKind(), projection.TaskReadModel, projection.TaskWelcomeEmail)
	taskRegistry.Register(user.Updated{}.EventKind(), projection.TaskReadModel)
	taskRegistry.Register(user.PasswordChanged{}.EventKind(), projection.TaskReadModel)
	taskRegistry.Register(user.Deleted{}.EventKind(), projection.TaskReadModel)

	worker := river.NewOutboxWorker(taskRegistry, runner, registry)
	riverClient, err := river.NewClient(pool, worker, river.Config{
		MaxWorkers:                  cfg.River.MaxWorkers,
		CompletedJobRetentionPeriod: cfg.River.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("build river client: %w", err)
	}

	// This binary owns only the write/projection pipeline: the event
	// store, the outbox worker, and River. A front-end collaborator (HTTP
	// API, gRPC, CRM ingestion) constructs its own command.Handlers and
	// query.Handlers from this module's exported packages —
	// command.New(pgx.New(pool, registry, riverClient), cfg.Command.MaxAttempts)
	// and query.New(rows, es.Reader{UoW: store}) — against the same pool
	// and registry, rather than this composition root building and
	// discarding them with nothing to call them.
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("start river client: %w", err)
	}
	log.Info("userd started", zap.Int("river_max_workers", cfg.River.MaxWorkers))

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return riverClient.Stop(stopCtx)
}

func buildEmailProvider(cfg config.EmailConfig, log *zap.Logger) email.Provider {
	switch cfg.Provider {
	default:
		return email.NewLoggingProvider(log, cfg.DefaultFrom)
	}
}
