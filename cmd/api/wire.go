package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/bryanwahyu/greenscan/internal/application"
	appanalysis "github.com/bryanwahyu/greenscan/internal/application/analysis"
	apphistory "github.com/bryanwahyu/greenscan/internal/application/history"
	"github.com/bryanwahyu/greenscan/internal/config"
	"github.com/bryanwahyu/greenscan/internal/domain/analysis"
	"github.com/bryanwahyu/greenscan/internal/domain/history"
	"github.com/bryanwahyu/greenscan/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/greenscan/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/greenscan/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/greenscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/greenscan/internal/infra/httpserver"
	"github.com/bryanwahyu/greenscan/internal/infra/identity"
	minioStore "github.com/bryanwahyu/greenscan/internal/infra/storage"
	"github.com/bryanwahyu/greenscan/internal/infra/webhook"
	"github.com/bryanwahyu/greenscan/internal/logging"
	"github.com/bryanwahyu/greenscan/internal/middleware"
)

const identityTimeout = 10 * time.Second

type historyRepository interface {
	history.Repository
	Migrate(ctx context.Context) error
}

type historyStore struct {
	db   *sql.DB
	repo historyRepository
}

func (h *historyStore) Close() error { return h.db.Close() }

// openHistory connects the configured database and picks the matching repository
func openHistory(ctx context.Context, cfg *config.Config) (*historyStore, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Database.Driver {
	case "mysql":
		if conn, err = mysqlp.Connect(ctx, cfg.MySQLDSN()); err != nil {
			return nil, err
		}
		return &historyStore{db: conn, repo: mysqlp.NewHistoryRepository(conn, cfg.Database.Table)}, nil
	case "postgres":
		if conn, err = postgresp.Connect(ctx, cfg.PostgresDSN()); err != nil {
			return nil, err
		}
		return &historyStore{db: conn, repo: postgresp.NewHistoryRepository(conn, cfg.Database.Table)}, nil
	case "sqlite":
		if conn, err = sqlitep.Open(ctx, cfg.Database.Path); err != nil {
			return nil, err
		}
		return &historyStore{db: conn, repo: sqlitep.NewHistoryRepository(conn, cfg.Database.Table)}, nil
	}
	return nil, goerr.New("unknown database driver", goerr.V("driver", cfg.Database.Driver))
}

func newAnalyzer(cfg *config.Config) analysis.Analyzer {
	if cfg.Analyzer.Provider == "openai" {
		return openai.NewClient(cfg.Analyzer.OpenAI.APIKey, cfg.Analyzer.OpenAI.Model)
	}
	return webhook.NewClient(cfg.Analyzer.WebhookURL, cfg.Analyzer.Timeout, cfg.Analyzer.RetryMax, logging.Default())
}

type app struct {
	deps    httpserver.Deps
	history *historyStore
}

func (a *app) Close() error { return a.history.Close() }

// build wires config into the router dependencies
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logging.Default()

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	// sqlite is mostly used locally; create the table on start
	if cfg.Database.Driver == "sqlite" {
		if err := store.repo.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
	}

	resolver, err := identity.New(identity.Options{
		Mode:        cfg.Identity.Mode,
		Header:      cfg.Identity.Header,
		APIKeys:     cfg.Identity.APIKeys,
		ProviderURL: cfg.Identity.ProviderURL,
		Cookie:      cfg.Identity.Cookie,
		Timeout:     identityTimeout,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: store.db},
	}

	analyses := appanalysis.NewService(newAnalyzer(cfg), application.SystemClock{}, cfg.Analyzer.Timeout)
	analyses.Observer = middleware.AnalysisObserver{}
	analyses.IdleTTL = cfg.Analyzer.SessionTTL
	if cfg.History.StoreResults {
		analyses.History = store.repo
	}

	if cfg.MinioEnabled() {
		bucket, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.Prefix,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			store.Close()
			return nil, err
		}
		analyses.Archive = bucket
		checkers["storage"] = bucket
		logger.Info("archiving reports", "bucket", cfg.Minio.BucketName, "prefix", cfg.Minio.Prefix)
	}

	return &app{
		history: store,
		deps: httpserver.Deps{
			Analysis:       analyses,
			History:        apphistory.NewService(store.repo, cfg.History.PageSize),
			Identity:       resolver,
			Limiter:        middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate),
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Checkers:       checkers,
		},
	}, nil
}
