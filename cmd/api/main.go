package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"opdsapi/internal/auth"
	"opdsapi/internal/book"
	"opdsapi/internal/catalog"
	"opdsapi/internal/catalogconfig"
	"opdsapi/internal/config"
	"opdsapi/internal/logging"
	"opdsapi/internal/metrics"
	"opdsapi/internal/platform/archiveorg"
	"opdsapi/internal/provider"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbPool *pgxpool.Pool
	var source catalogconfig.Source = catalogconfig.FileSource{Path: cfg.Catalog.Path}
	if cfg.Catalog.Source == "postgres" {
		dbPool = mustOpenDB(ctx, cfg.Database.DSN)
		defer dbPool.Close()
		source = catalogconfig.NewPostgresSource(dbPool, cfg.Catalog.Name)
	}

	repo := catalogconfig.NewRepository(source)
	if err := repo.Load(ctx); err != nil {
		logging.Fatal().Err(err).Str("source", source.String()).Msg("load catalog configuration")
	}
	go reloadOnHangup(ctx, repo)

	client := archiveorg.NewClient(archiveorg.Config{
		BaseURL:           cfg.Archive.BaseURL,
		UserAgent:         cfg.Archive.UserAgent,
		Timeout:           cfg.Archive.Timeout,
		RequestsPerSecond: cfg.Archive.RequestsPerSecond,
		MaxRetries:        cfg.Archive.MaxRetries,
		BreakerFailures:   cfg.Archive.BreakerFailures,
		BreakerTimeout:    cfg.Archive.BreakerTimeout,
		S3Access:          cfg.Archive.S3Access,
		S3Secret:          cfg.Archive.S3Secret,
	})
	dataProvider := provider.New(client, cfg.Archive.Workers)

	factory := catalog.NewFactory(repo, dataProvider, catalog.Options{
		ItemsPerPage:  cfg.Catalog.ItemsPerPage,
		ItemsPerGroup: cfg.Catalog.ItemsPerGroup,
		MaxResults:    cfg.Catalog.MaxResults,
		SearchSection: cfg.Catalog.SearchSection,
		SearchItem:    cfg.Catalog.SearchItem,
		ShelfURL:      cfg.Links.Shelf,
		ProfileURL:    cfg.Links.Profile,
	})

	router := newRouter(ctx, cfg, handlers{
		catalog: catalog.NewHTTPHandler(factory, cfg.Catalog.RootNavKey),
		book:    book.NewHTTPHandler(book.NewService(dataProvider, client)),
		auth:    auth.NewHTTPHandler(auth.NewDocument(cfg.Links)),
		ready: func(ctx context.Context) error {
			if repo.Catalog() == nil {
				return errors.New("catalog configuration not loaded")
			}
			if dbPool != nil {
				return dbPool.Ping(ctx)
			}
			return nil
		},
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("catalog_source", source.String()).
		Int("workers", cfg.Archive.Workers).
		Msg("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("server error")
	}
	logging.Info().Msg("server stopped")
}

// reloadOnHangup reloads the catalog configuration on SIGHUP. A failed
// reload keeps serving the previous configuration.
func reloadOnHangup(ctx context.Context, repo *catalogconfig.Repository) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			err := repo.Load(ctx)
			metrics.RecordReload(err)
			if err != nil {
				logging.Error().Err(err).Msg("catalog reload failed, keeping previous configuration")
			}
		}
	}
}

func mustOpenDB(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("cannot create db pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logging.Fatal().Err(fmt.Errorf("ping %s: %w", redactDSN(dsn), err)).Msg("cannot reach database")
	}
	logging.Info().Msg("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
