package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mergington/internal/adapters/email"
	web "mergington/internal/adapters/http"
	"mergington/internal/adapters/http/middleware"
	"mergington/internal/adapters/remote"
	"mergington/internal/adapters/storage"
	auditStore "mergington/internal/adapters/storage/audit"
	"mergington/internal/adapters/storage/roster"
	"mergington/internal/application/flash"
	"mergington/internal/application/orchestrators"
	"mergington/internal/config"
	"mergington/internal/domain/activity"
	"mergington/internal/domain/audit"
	"mergington/internal/observability"
)

const shutdownTimeout = 15 * time.Second

// cliFlags are the command line overrides of the environment config.
type cliFlags struct {
	addr      string
	sourceURL string
	offline   bool
}

func newRootCmd() *cobra.Command {
	var flags cliFlags
	var cfg config.Config
	var journalLimit int

	root := &cobra.Command{
		Use:           "mergington",
		Short:         "Serves the Mergington High School activity signup page",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, &loaded, flags)
			level, _ := config.ParseLevel(loaded.LogLevel)
			slog.SetDefault(observability.NewLogger(cmd.ErrOrStderr(), loaded.IsProduction(), level))
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	root.PersistentFlags().StringVar(&flags.sourceURL, "source-url", "", "activity source URL (overrides MERGINGTON_SOURCE_URL)")
	root.PersistentFlags().BoolVar(&flags.offline, "offline", false, "skip the activity source and use the built-in activities")
	root.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides MERGINGTON_ADDR)")

	root.AddCommand(&cobra.Command{
		Use:   "activities",
		Short: "Resolve the activity source once and print the normalized list as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printActivities(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	})

	journalCmd := &cobra.Command{
		Use:   "journal <activity-id>",
		Short: "Print the recorded signup events of one activity as JSON, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJournal(cmd.Context(), cfg, args[0], journalLimit, cmd.OutOrStdout())
		},
	}
	journalCmd.Flags().IntVar(&journalLimit, "limit", 100, "maximum number of events to print")
	root.AddCommand(journalCmd)
	return root
}

// applyFlags copies explicitly set flags over the environment values.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags cliFlags) {
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = flags.addr
	}
	if cmd.Flags().Changed("source-url") {
		cfg.SourceURL = flags.sourceURL
	}
	if flags.offline {
		cfg.SourceURL = ""
	}
}

// loadActivities resolves the activity source once.
func loadActivities(ctx context.Context, cfg config.Config) orchestrators.LoadActivitiesResult {
	deps := orchestrators.LoadActivitiesDeps{}
	if cfg.SourceURL != "" {
		deps.Fetcher = remote.NewClient(cfg.SourceURL, cfg.SourceTimeout)
	}
	return orchestrators.ExecuteLoadActivities(ctx, deps)
}

func printActivities(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	loaded := loadActivities(ctx, cfg)
	activities := activity.Normalize(loaded.Records)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(activities); err != nil {
		return fmt.Errorf("write activities: %w", err)
	}
	fmt.Fprintf(stderr, "origin: %s\n", loaded.Origin)
	return nil
}

// printJournal reads the signup journal at cfg.JournalPath.
// PRE: limit > 0
func printJournal(ctx context.Context, cfg config.Config, activityID string, limit int, stdout io.Writer) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", limit)
	}
	db, err := storage.OpenJournal(ctx, cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("signup journal: %w", err)
	}
	timedDB := storage.NewTimedDB(db, cfg.SlowQuery())
	defer timedDB.Close()

	events, err := auditStore.NewSQLiteStore(timedDB).ListByActivity(ctx, activityID, limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []audit.Event{}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// serve seeds the roster, starts the HTTP server and blocks until ctx is done.
func serve(ctx context.Context, cfg config.Config) error {
	csrfKey, err := cfg.CSRFSecret()
	if err != nil {
		return err
	}

	// the source resolves before the listener exists so no page is served unseeded
	loaded := loadActivities(ctx, cfg)
	store := roster.NewMemoryStore(loaded.Records)

	db, err := storage.OpenJournal(ctx, cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("signup journal: %w", err)
	}
	timedDB := storage.NewTimedDB(db, cfg.SlowQuery())
	defer timedDB.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Second)
	go sweepVisitors(ctx, limiter)

	handler, err := web.NewMux(web.Options{
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.IsProduction(),
		TrustedOrigins: cfg.Origins(),
		RateLimiter:    limiter,
		SlowRequest:    cfg.SlowRequest(),
	}, web.Deps{
		Store:    store,
		Messages: flash.NewRegistry(cfg.MessageTTL),
		Journal:  auditStore.NewSQLiteStore(timedDB),
		Mailer:   email.NewSender(cfg.ResendKey, cfg.MailFrom),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", cfg.Addr, "version", version, "origin", loaded.Origin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// sweepVisitors drops idle rate limit entries every minute until ctx is done.
func sweepVisitors(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(5 * time.Minute); n > 0 {
				slog.Debug("rate_limit_sweep", "removed", n)
			}
		}
	}
}
