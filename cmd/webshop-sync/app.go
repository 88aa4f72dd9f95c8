package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"webshopsync/internal/assets"
	"webshopsync/internal/config"
	"webshopsync/internal/httpx"
	"webshopsync/internal/localstore"
	"webshopsync/internal/reconcile"
	"webshopsync/internal/repository"
	"webshopsync/internal/syncrun"
	"webshopsync/internal/webshop"
)

var errMismatch = errors.New("product differs from the webshop")

type app struct {
	cfg   config.Config
	log   zerolog.Logger
	pool  *pgxpool.Pool
	store *localstore.Store
	repos *repository.Set
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger, withDB bool) (*app, error) {
	transport := webshop.NewHTTPTransport(cfg.Webshop.URL, cfg.Webshop.APIKey, cfg.Webshop.Timeout)
	client := webshop.NewClient(transport, webshop.Options{
		MaxAttempts: cfg.Webshop.RetryAttempts,
		BackoffBase: cfg.Webshop.RetryBackoffBase,
		BackoffMax:  cfg.Webshop.RetryBackoffMax,
		RPS:         cfg.Webshop.RateLimitRPS,
		Logger:      log.With().Str("component", "webshop").Logger(),
	})

	if cfg.FTP.Addr == "" {
		log.Warn().Msg("FTP_ADDR is not set, product pictures cannot be uploaded")
	}
	pictures := assets.NewSynchronizer(assets.NewFTPStore(assets.FTPConfig{
		Addr:     cfg.FTP.Addr,
		User:     cfg.FTP.User,
		Password: cfg.FTP.Password,
		Dir:      cfg.FTP.Dir,
		Timeout:  cfg.FTP.Timeout,
	}), log.With().Str("component", "assets").Logger())

	a := &app{
		cfg: cfg,
		log: log,
		repos: repository.NewSet(client, pictures, reconcile.Config{
			DiffAgainstRemote: cfg.Sync.DiffPictures,
		}, log.With().Str("component", "reconcile").Logger()),
	}

	if withDB {
		pool, err := openDB(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		log.Info().Str("dsn", redactDSN(cfg.DBDSN)).Msg("database connection OK")
		a.pool = pool
		a.store = localstore.New(pool)
	}
	return a, nil
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *app) syncService() *syncrun.Service {
	return syncrun.NewService(a.store, a.store, a.repos, syncrun.Config{
		Concurrency: a.cfg.Sync.Concurrency,
	}, a.log.With().Str("component", "syncrun").Logger())
}

func (a *app) runSync(ctx context.Context, f runFlags, out io.Writer) error {
	run, err := a.syncService().Run(ctx, f.since)
	if run != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(run); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return err
	}
	if run.Failed > 0 {
		return fmt.Errorf("%d entities failed, see sync_run_failures for run %s", run.Failed, run.ID)
	}
	return nil
}

func (a *app) serve(ctx context.Context) error {
	handler := syncrun.NewHTTPHandler(a.syncService(), a.cfg.InternalSecret)
	if a.cfg.InternalSecret == "" {
		a.log.Warn().Msg("INTERNAL_SECRET is not set, the sync endpoint is unprotected")
	}

	srv := &http.Server{
		Addr:              a.cfg.AppAddr,
		Handler:           newRouter(a.store, handler, httpx.NewRateLimitMiddleware(6, 2), a.log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		// a sync request answers when the run is over
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.AppAddr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) purge(ctx context.Context, f purgeFlags, out io.Writer) error {
	if f.all {
		if err := a.repos.Maintenance.PurgeAllTestData(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "test data of every kind deleted")
		return nil
	}
	if err := a.repos.Maintenance.PurgeTestData(ctx, f.kind); err != nil {
		return err
	}
	fmt.Fprintf(out, "test data of %s deleted\n", f.kind)
	return nil
}

func (a *app) delete(ctx context.Context, f deleteFlags, out io.Writer) error {
	if err := a.repos.DeleteByID(ctx, f.kind, f.id); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d deleted\n", f.kind, f.id)
	return nil
}

func (a *app) verifyProduct(ctx context.Context, f verifyFlags, out io.Writer) error {
	local, err := a.store.Product(ctx, f.id)
	if err != nil {
		return err
	}
	remote, err := a.repos.Products.GetByID(ctx, f.id)
	if err != nil {
		return err
	}

	mismatches := reconcile.Compare(local, *remote)
	if len(mismatches) == 0 {
		fmt.Fprintf(out, "product %d matches\n", f.id)
		return nil
	}
	for _, m := range mismatches {
		fmt.Fprintln(out, m.String())
	}
	return errMismatch
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot ping database (%s): %w", redactDSN(dsn), err)
	}
	return pool, nil
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
