// Package main is the entry point for the catalogue server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support. The other subcommands
// run a single editorial operation and exit.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"catalogcms/internal/cache"
	"catalogcms/internal/config"
	"catalogcms/internal/database"
	"catalogcms/internal/editor"
	"catalogcms/internal/handlers"
	"catalogcms/internal/middleware"
	"catalogcms/internal/querylog"
	"catalogcms/internal/router"
	"catalogcms/internal/seed"
	"catalogcms/internal/store"
)

const usage = `usage: catalogcms [command]

commands:
  serve                        start the HTTP server (default)
  publish   --lang L PAGE_ID   publish one language of a page
  unpublish --lang L PAGE_ID   withdraw one language of a page
  tag --lang L PAGE_ID CATEGORY_PAGE_ID
                               tag the draft of a page with a category
  snapshot  PAGE_ID            copy the draft of a page into a child snapshot
  seed                         create the demo catalogue if the database is empty
`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	switch cmd {
	case "serve":
		err = serve(cfg)
	case "publish", "unpublish":
		err = publish(cfg, cmd, args)
	case "tag":
		err = tag(cfg, args)
	case "snapshot":
		err = snapshot(cfg, args)
	case "seed":
		err = runSeed(cfg)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

// openDB connects to PostgreSQL and runs pending migrations.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(cfg.DSN(), querylog.New(cfg.LogSQL))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// openListingCache connects to Valkey. The catalogue works without it, so
// a failed connection only disables caching.
func openListingCache(cfg *config.Config) (*cache.ListingCache, *redis.Client) {
	client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, listing cache disabled", "error", err)
		return nil, nil
	}
	return cache.NewListingCache(client, cfg.CacheTTL), client
}

func serve(cfg *config.Config) error {
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"languages", cfg.Languages,
	)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := seed.Seed(context.Background(), db, cfg.Languages); err != nil {
			return fmt.Errorf("seed database: %w", err)
		}
	}

	listings, client := openListingCache(cfg)
	if client != nil {
		defer client.Close()
	}

	categories := store.NewCategoryStore(db, cfg.Languages)

	// Outside development only public category revisions are served.
	public := handlers.NewPublic(categories, listings, cfg.Languages, !cfg.IsDev())

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.New(public, limiter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// parsePageIDs parses the positional arguments of a subcommand as page
// ids.
func parsePageIDs(fs *pflag.FlagSet, want int) ([]uuid.UUID, error) {
	if fs.NArg() != want {
		return nil, fmt.Errorf("expected %d page ids, got %d arguments", want, fs.NArg())
	}
	ids := make([]uuid.UUID, want)
	for i := range ids {
		id, err := uuid.Parse(fs.Arg(i))
		if err != nil {
			return nil, fmt.Errorf("invalid page id %q: %w", fs.Arg(i), err)
		}
		ids[i] = id
	}
	return ids, nil
}

// openEditor connects to PostgreSQL and Valkey. The returned function
// closes both.
func openEditor(cfg *config.Config) (*editor.Editor, *store.CategoryStore, func(), error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	listings, client := openListingCache(cfg)
	closeAll := func() {
		if client != nil {
			client.Close()
		}
		db.Close()
	}
	categories := store.NewCategoryStore(db, cfg.Languages)
	return editor.New(db, categories, listings), categories, closeAll, nil
}

// publish publishes or unpublishes one language of a page.
func publish(cfg *config.Config, cmd string, args []string) error {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	lang := fs.StringP("lang", "l", cfg.DefaultLanguage(), "language to "+cmd)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parsePageIDs(fs, 1)
	if err != nil {
		return err
	}

	ed, _, closeAll, err := openEditor(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	ctx := context.Background()
	if cmd == "unpublish" {
		err = ed.Unpublish(ctx, ids[0], *lang)
	} else {
		_, err = ed.Publish(ctx, ids[0], *lang)
	}
	if err != nil {
		return err
	}
	slog.Info("page updated", "action", cmd, "page_id", ids[0], "language", *lang)
	return nil
}

// tag adds a category to the draft of a page in one language.
func tag(cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("tag", pflag.ContinueOnError)
	lang := fs.StringP("lang", "l", cfg.DefaultLanguage(), "language of the tag")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parsePageIDs(fs, 2)
	if err != nil {
		return err
	}

	ed, categories, closeAll, err := openEditor(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	ctx := context.Background()
	cat, err := categories.FindByPageID(ctx, ids[1])
	if err != nil {
		return err
	}
	if cat == nil {
		return fmt.Errorf("page %s is not a category: %w", ids[1], store.ErrNotFound)
	}
	if _, err := ed.Tag(ctx, ids[0], *lang, cat); err != nil {
		return err
	}
	return nil
}

// snapshot copies the draft of a page into a new child page.
func snapshot(cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("snapshot", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids, err := parsePageIDs(fs, 1)
	if err != nil {
		return err
	}

	ed, _, closeAll, err := openEditor(cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	snap, err := ed.Snapshot(context.Background(), ids[0])
	if err != nil {
		return err
	}
	fmt.Println(snap.ID)
	return nil
}

func runSeed(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return seed.Seed(context.Background(), db, cfg.Languages)
}
