package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baiirun/reqtrack/internal/config"
	"github.com/baiirun/reqtrack/internal/db"
	"github.com/baiirun/reqtrack/internal/export"
	"github.com/baiirun/reqtrack/internal/metrics"
	"github.com/baiirun/reqtrack/internal/model"
	"github.com/baiirun/reqtrack/internal/web"
)

var (
	flagDB     string
	flagJSON   bool
	flagFormat string
	flagOut    string

	flagSearch    string
	flagStatus    string
	flagPriority  string
	flagUnit      string
	flagDeveloper string
)

var rootCmd = &cobra.Command{
	Use:   "reqtrack",
	Short: "Track requirements through Pending, In Progress and Completed",
	Long: `A small requirements tracker with comments, a history log, filtering
and CSV/XLSX export. Run "reqtrack serve" for the web dashboard.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and serve the web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := cfg.Logger()
		database, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		opts := web.Options{
			Logger:          logger,
			Metrics:         metrics.New(),
			RequestIDHeader: cfg.RequestIDHeader,
		}
		if cfg.Prometheus.Enabled {
			opts.MetricsPath = cfg.Prometheus.Path
		}
		srv := web.NewServer(database, opts)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.WithFields(logrus.Fields{
			"db":  cfg.Database.Path,
			"env": cfg.GoAppEnvironment,
		}).Info("starting server")
		return srv.ListenAndServe(ctx, cfg.SocketAddress, cfg.ShutdownTimeout)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.Database.Path, dbOptions(cfg))
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		applied, err := database.EnsureSchema(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Schema is up to date")
			return nil
		}
		fmt.Fprintf(out, "Applied migrations: %v\n", applied)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export requirements, comments and history as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		write, err := exportWriter(flagFormat)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close() }()

		rows, err := database.ExportRows(cmd.Context())
		if err != nil {
			return err
		}

		var out io.Writer = cmd.OutOrStdout()
		if flagOut != "" {
			f, err := os.Create(flagOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", flagOut, err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		if err := write(out, rows); err != nil {
			return err
		}
		if flagOut != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", flagOut)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (overrides DB_PATH)")

	listCmd.Flags().StringVar(&flagSearch, "search", "", "substring of title, description or developer")
	listCmd.Flags().StringVar(&flagStatus, "status", "", "status filter")
	listCmd.Flags().StringVar(&flagPriority, "priority", "", "priority filter")
	listCmd.Flags().StringVar(&flagUnit, "unit", "", "unit filter")
	listCmd.Flags().StringVar(&flagDeveloper, "developer", "", "developer filter")
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "output as JSON")

	exportCmd.Flags().StringVar(&flagFormat, "format", "csv", "export format: csv or xlsx")
	exportCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
}

func exportWriter(format string) (func(io.Writer, []model.ExportRow) error, error) {
	switch strings.ToLower(format) {
	case "csv", "":
		return export.WriteCSV, nil
	case "xlsx":
		return export.WriteXLSX, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want csv or xlsx)", format)
	}
}

// loadConfig reads the environment and .env files and applies --db.
func loadConfig() (*config.Configuration, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	return cfg, nil
}

func dbOptions(cfg *config.Configuration) db.Options {
	return db.Options{BusyTimeout: cfg.Database.BusyTimeout, OwnerID: cfg.OwnerID}
}

// openDB opens the configured database and brings its schema up to date.
func openDB(ctx context.Context, cfg *config.Configuration) (*db.DB, error) {
	database, err := db.Open(cfg.Database.Path, dbOptions(cfg))
	if err != nil {
		return nil, err
	}
	if _, err := database.EnsureSchema(ctx); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
