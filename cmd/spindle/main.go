package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spindleworks/spindle/internal/api"
	"github.com/spindleworks/spindle/internal/auth"
	"github.com/spindleworks/spindle/internal/config"
	"github.com/spindleworks/spindle/internal/database"
	"github.com/spindleworks/spindle/internal/event"
	"github.com/spindleworks/spindle/internal/filesystem"
	"github.com/spindleworks/spindle/internal/history"
	"github.com/spindleworks/spindle/internal/importer"
	"github.com/spindleworks/spindle/internal/logging"
	"github.com/spindleworks/spindle/internal/scanner"
	"github.com/spindleworks/spindle/internal/selection"
	"github.com/spindleworks/spindle/internal/track"
	"github.com/spindleworks/spindle/internal/version"
	"github.com/spindleworks/spindle/internal/watcher"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "import":
			if err := runImport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "export":
			if err := runExport(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "clear":
			if err := runClear(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "reset-token":
			if err := resetToken(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("SPINDLE_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}
	return config.Load(configPath)
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser := logging.New(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	if logCloser != nil {
		defer logCloser.Close() //nolint:errcheck
	}
	slog.SetDefault(logger)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Initialize services
	trackStore := track.NewStore(db)
	historyService := history.NewService(db)
	scannerService := scanner.NewService(logger, cfg.Scanner.Exclusions, cfg.Scanner.MaxFilesPerSecond)
	selectionModel := selection.NewModel(historyService)
	authService := auth.NewService(db)

	// Initialize event bus
	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	coordinator := importer.NewCoordinator(scannerService, trackStore, historyService, eventBus, logger)

	// First boot: generate the API token and print it once. Only the hash
	// survives in the database.
	ctx := context.Background()
	if token, generated, err := authService.EnsureToken(ctx); err != nil {
		return fmt.Errorf("ensuring API token: %w", err)
	} else if generated {
		fmt.Printf("Generated API token (shown once, store it safely): %s\n", token)
		logger.Info("generated new API token")
	}

	// Seed the selection list from whatever history already exists.
	if err := selectionModel.Refresh(ctx); err != nil {
		logger.Warn("initial selection refresh failed", "error", err)
	}

	// Keep the selection list in sync as the library changes.
	refreshSelection := func(e event.Event) {
		if err := selectionModel.Refresh(context.Background()); err != nil {
			logger.Warn("selection refresh failed", "event", string(e.Type), "error", err)
		}
	}
	eventBus.Subscribe(event.ScanCompleted, refreshSelection)
	eventBus.Subscribe(event.HistoryCleared, refreshSelection)

	// Trace every event at debug level.
	eventBus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", string(e.Type), "data", e.Data)
	})

	logger.Info("starting spindle",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	// Set up HTTP router
	router := api.NewRouter(api.RouterDeps{
		AuthService:    authService,
		Coordinator:    coordinator,
		Selection:      selectionModel,
		HistoryService: historyService,
		TrackStore:     trackStore,
		Bus:            eventBus,
		Logger:         logger,
		BasePath:       cfg.Server.BasePath,
	})

	// Graceful shutdown
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start filesystem watcher over scanned roots
	if cfg.Watcher.Enabled {
		scanFn := func(ctx context.Context, roots []string) error {
			_, err := coordinator.Run(ctx, roots)
			return err
		}
		debounce := time.Duration(cfg.Watcher.DebounceSeconds) * time.Second
		watcherService := watcher.NewService(scanFn, historyService, eventBus, logger, debounce)
		go watcherService.Start(runCtx)
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-runCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// runImport scans the given directories in the foreground and prints a
// summary. Intended for one-shot use without the server.
func runImport(dirs []string) error {
	if len(dirs) == 0 {
		return fmt.Errorf("usage: spindle import <dir> [<dir>...]")
	}

	cfg, db, logger, cleanup, err := openForCommand()
	if err != nil {
		return err
	}
	defer cleanup()

	trackStore := track.NewStore(db)
	historyService := history.NewService(db)
	scannerService := scanner.NewService(logger, cfg.Scanner.Exclusions, cfg.Scanner.MaxFilesPerSecond)

	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	coordinator := importer.NewCoordinator(scannerService, trackStore, historyService, eventBus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		coordinator.Cancel()
	}()

	if _, err := coordinator.Run(ctx, dirs); err != nil {
		return err
	}

	// Poll until the background run finishes.
	var status *importer.Run
	lastMessage := ""
	for {
		status = coordinator.Status()
		if status == nil {
			return fmt.Errorf("run disappeared")
		}
		if status.Message != lastMessage {
			lastMessage = status.Message
			fmt.Printf("[%3.0f%%] %s\n", status.Progress*100, status.Message)
		}
		if status.Status != importer.StatusRunning {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Printf("%s: %d directories, %d tracks imported, %d failed\n",
		status.Status, status.DirsProcessed, status.RecordsPersisted, status.RecordsFailed)
	for _, msg := range status.DirErrors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
	if status.Status == importer.StatusCanceled {
		return fmt.Errorf("import canceled")
	}
	return nil
}

// runExport dumps the whole library to a JSON file.
func runExport(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: spindle export <file>")
	}
	target := args[0]

	_, db, _, cleanup, err := openForCommand()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	trackStore := track.NewStore(db)
	historyService := history.NewService(db)

	tracks, err := trackStore.List(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("listing tracks: %w", err)
	}
	roots, err := historyService.List(ctx)
	if err != nil {
		return fmt.Errorf("listing roots: %w", err)
	}

	doc := map[string]any{
		"exported_at":   time.Now().UTC().Format(time.RFC3339),
		"tracks":        tracks,
		"scanned_roots": roots,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding export: %w", err)
	}

	if err := filesystem.WriteFileAtomic(target, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	fmt.Printf("Exported %d tracks and %d roots to %s\n", len(tracks), len(roots), target)
	return nil
}

// runClear deletes all imported tracks and scan history. Irreversible, so it
// requires --yes or an interactive confirmation.
func runClear(args []string) error {
	confirmed := false
	for _, arg := range args {
		if arg == "--yes" || arg == "-y" {
			confirmed = true
		}
	}
	if !confirmed {
		fmt.Print("This deletes all imported tracks and scan history. Type 'yes' to continue: ")
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil || answer != "yes" {
			return fmt.Errorf("aborted")
		}
	}

	_, db, _, cleanup, err := openForCommand()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := history.NewService(db).DeleteAll(context.Background()); err != nil {
		return fmt.Errorf("clearing library: %w", err)
	}

	fmt.Println("Library cleared.")
	return nil
}

// resetToken regenerates the API token offline and prints the new value.
// Existing clients are invalidated.
func resetToken() error {
	_, db, _, cleanup, err := openForCommand()
	if err != nil {
		return err
	}
	defer cleanup()

	token, err := auth.NewService(db).ResetToken(context.Background())
	if err != nil {
		return fmt.Errorf("resetting token: %w", err)
	}

	fmt.Printf("New API token (shown once, store it safely): %s\n", token)
	return nil
}

// openForCommand loads config and opens a migrated database for subcommands.
func openForCommand() (*config.Config, *sql.DB, *slog.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Subcommands log to stderr so stdout stays clean for output.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	cleanup := func() { _ = db.Close() }
	return cfg, db, logger, cleanup, nil
}
