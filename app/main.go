package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/champcarillon/actualites/app/api"
	"github.com/champcarillon/actualites/app/archive"
	"github.com/champcarillon/actualites/app/browser"
	"github.com/champcarillon/actualites/app/cfg"
	"github.com/champcarillon/actualites/app/database"
	"github.com/champcarillon/actualites/app/dates"
	"github.com/champcarillon/actualites/app/feed"
	"github.com/champcarillon/actualites/app/harvest"
	"github.com/champcarillon/actualites/app/media"
	"github.com/champcarillon/actualites/app/profile"
)

func main() {
	// Load configuration
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogging(appCfg.Debug)

	// Run the selected mode
	if err := run(appCfg); err != nil {
		slog.Error("Exiting with error", "mode", appCfg.Mode, "error", err)
		os.Exit(1)
	}
}

// setupLogging installs the default text logger at info or debug level
func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// run opens the shared resources and dispatches to the harvest or serve mode
func run(appCfg *cfg.Cfg) error {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting actualites", "version", appCfg.Version, "mode", appCfg.Mode, "timezone", appCfg.Timezone)

	// UI profile and journal
	prof, err := loadProfile(appCfg.UIProfile)
	if err != nil {
		return err
	}

	db, err := openJournal(appCfg.DBPath)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	switch appCfg.Mode {
	case cfg.ModeServe:
		var reader api.JournalReader
		if db != nil {
			reader = database.NewJournalRepository(db)
		}
		return runServer(ctx, appCfg, prof, reader)
	default:
		var journal harvest.Journal = harvest.NopJournal{}
		if db != nil {
			journal = database.NewJournalRepository(db)
		}
		return runHarvest(ctx, appCfg, prof, journal)
	}
}

// loadProfile returns the built-in profile, or the one at path laid over it
func loadProfile(path string) (*profile.Profile, error) {
	if path == "" {
		return profile.Default()
	}
	slog.Info("Loading UI profile", "path", path)
	return profile.Load(path)
}

// openJournal opens the SQLite journal and applies migrations. It returns
// nil when the journal is disabled.
func openJournal(path string) (*database.DB, error) {
	if path == "" {
		slog.Info("Journal disabled")
		return nil, nil
	}

	db, err := database.NewConnection(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("Journal ready", "path", path, "schema_version", version, "dirty", dirty)

	return db, nil
}

// runHarvest drives the browser through one harvest run
func runHarvest(ctx context.Context, appCfg *cfg.Cfg, prof *profile.Profile, journal harvest.Journal) error {
	session, err := browser.New(ctx, prof, browser.Options{
		UserDataDir:   appCfg.ProfileDir,
		Headless:      appCfg.Headless,
		LoginTimeout:  appCfg.LoginTimeout,
		ViewerTimeout: appCfg.ViewerTimeout,
		CloseTimeout:  appCfg.CloseTimeout,
		QueryTimeout:  appCfg.QueryTimeout,
		FetchTimeout:  appCfg.FetchTimeout,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	// Archive pipeline
	resolver := media.NewResolver(session, &http.Client{}, appCfg.UserAgent, appCfg.FetchTimeout)
	walker := media.NewWalker(resolver, appCfg.PollInterval, appCfg.AdvanceTimeout)
	writer := archive.NewWriter(appCfg.ArchiveDir())

	orchestrator := harvest.NewOrchestrator(session, &prof.Lexicon, writer, resolver, walker, journal, harvest.Options{
		Chat:          appCfg.Chat,
		Now:           appCfg.Now,
		PollInterval:  appCfg.PollInterval,
		ExpandTimeout: appCfg.ExpandTimeout,
		SettleDelay:   appCfg.SettleDelay,
	})

	slog.Info("Harvesting", "chat", appCfg.Chat, "count", appCfg.Count, "archive", writer.Root(),
		"reference_date", appCfg.Now.Format(time.DateOnly))

	result, err := orchestrator.Run(ctx, appCfg.Count)
	if err != nil {
		var postErr *harvest.PostError
		if errors.As(err, &postErr) {
			slog.Error("Post left incomplete, inspect or delete it before the next run",
				"dir", postErr.Dir, "stage", string(postErr.Stage), "images_saved", postErr.Saved)
		}
		return err
	}

	if result.Exhausted {
		slog.Warn("Fewer posts than requested", "archived", len(result.Archived), "requested", appCfg.Count)
	}
	return nil
}

// runServer serves the archive preview until a shutdown signal arrives
func runServer(ctx context.Context, appCfg *cfg.Cfg, prof *profile.Profile, journal api.JournalReader) error {
	humanDate := func(date string) string {
		return dates.Human(dates.Key(date), &prof.Lexicon)
	}

	handler := api.NewHandler(
		archive.NewReader(appCfg.ArchiveDir()),
		feed.NewGenerator(appCfg, &prof.Lexicon),
		journal,
		humanDate,
		appCfg.Version,
	)
	server := api.NewServer(handler, appCfg.ArchiveDir(), appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "archive", appCfg.ArchiveDir())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown error: %w", err)
	}

	slog.Info("HTTP server stopped")
	return nil
}
