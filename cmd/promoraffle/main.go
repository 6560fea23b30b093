package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promoraffle/promoraffle/internal/api"
	"github.com/promoraffle/promoraffle/internal/auth"
	"github.com/promoraffle/promoraffle/internal/catalog"
	"github.com/promoraffle/promoraffle/internal/config"
	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/notify"
	"github.com/promoraffle/promoraffle/internal/raffle"
	"github.com/promoraffle/promoraffle/internal/store"
	"github.com/promoraffle/promoraffle/internal/tracing"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprint(os.Stderr, config.Usage)
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.DBPath, cfg.AdminUser)
		if err != nil {
			slog.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		database.Close()

		printInitResult(cfg.DBPath, cfg.AdminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	products, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load product catalog", "error", err)
		os.Exit(1)
	}
	if err := seedCatalog(ctx, database, products); err != nil {
		slog.Error("failed to seed product catalog", "error", err)
		os.Exit(1)
	}

	if n, err := store.PurgeExpiredTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("purged revoked tokens", "count", n)
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := tracing.Init(cfg.JaegerEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	notifiers := notify.Multi{notify.LogNotifier{}}
	if len(cfg.KafkaBrokers) > 0 {
		kafka := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafka.Close()
		notifiers = append(notifiers, kafka)
		slog.Info("kafka notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	svc := raffle.New(database)
	svc.TicketPrefix = cfg.TicketPrefix
	svc.Retries = cfg.RegisterRetries
	svc.ImportBatchSize = cfg.ImportBatchSize
	svc.ImportParallelism = cfg.ImportParallelism
	svc.DefaultRaffleDate = cfg.RaffleDate
	svc.Notifier = notifiers

	apiRouter := api.NewRouter(svc, auth.NewTokens(jwtSecret), products)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := api.LoggingMiddleware(mux)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "ticket_prefix", cfg.TicketPrefix)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.WaitNotifications(flushCtx); err != nil {
		slog.Warn("pending notifications abandoned", "error", err)
	}
	if err := shutdownTracing(flushCtx); err != nil {
		slog.Warn("flushing traces", "error", err)
	}

	slog.Info("server stopped, closing database")
}

// seedCatalog loads the product catalog once per database. Later changes go
// through the products API.
func seedCatalog(ctx context.Context, database *sql.DB, products []model.Product) error {
	_, seeded, err := store.GetSetting(ctx, database, store.SettingCatalogSeeded)
	if err != nil {
		return err
	}
	if seeded {
		return nil
	}

	if err := store.SeedProducts(ctx, database, products); err != nil {
		return err
	}
	slog.Info("product catalog seeded", "products", len(products))
	return store.SetSetting(ctx, database, store.SettingCatalogSeeded, time.Now().UTC().Format(time.RFC3339))
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	_, err = store.CreateUser(context.Background(), database, adminUsername, hash, model.RoleAdmin)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
