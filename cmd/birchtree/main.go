package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/leengari/birchtree/databases"
	"github.com/leengari/birchtree/internal/birch"
	"github.com/leengari/birchtree/internal/config"
	"github.com/leengari/birchtree/internal/logging"
	"github.com/leengari/birchtree/internal/network"
	"github.com/leengari/birchtree/internal/query/projection"
	"github.com/leengari/birchtree/internal/repl"
	"github.com/leengari/birchtree/internal/source/memory"
	"github.com/leengari/birchtree/internal/source/pgsource"
	"github.com/leengari/birchtree/internal/source/sqlsource"
	"github.com/leengari/birchtree/internal/storage"
	"github.com/leengari/birchtree/internal/storage/writer"
	"github.com/leengari/birchtree/internal/telemetry"
)

// Options are command-line overrides of the environment configuration
type Options struct {
	Server      bool   `short:"s" long:"server" description:"Run in server mode"`
	Port        int    `short:"p" long:"port" description:"Port to listen on"`
	Driver      string `short:"d" long:"driver" description:"Row source: memory, sqlite, postgres, pgx, mysql, sqlserver"`
	DSN         string `long:"dsn" description:"Data source name for SQL drivers"`
	DataDir     string `long:"data" description:"JSON database directory for the memory driver"`
	SchemaCache string `long:"schema-cache" description:"YAML schema cache snapshot"`
	LogLevel    string `long:"log-level" description:"debug, info, warn or error"`
}

// rowSource is both collaborators of the tree
type rowSource interface {
	birch.Executor
	projection.Introspector
}

func main() {
	options := &Options{}
	if _, err := flags.Parse(options); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOptions(cfg, options)

	logger, closeFn := logging.SetupLogger(cfg)
	defer closeFn()
	slog.SetDefault(logger)

	if err := run(cfg, options.Server); err != nil {
		slog.Error("birchtree failed", "error", err)
		closeFn()
		os.Exit(1)
	}
}

func run(cfg *config.Config, serverMode bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, "birchtree")
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	src, closeSource, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	cache := projection.NewSchemaCache()
	if cfg.SchemaCachePath != "" {
		if err := cache.Load(cfg.SchemaCachePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("ignoring schema cache snapshot", "path", cfg.SchemaCachePath, "error", err)
		}
		// Save the schema cache on shutdown
		defer func() {
			if err := cache.Save(cfg.SchemaCachePath); err != nil {
				slog.Error("schema cache save failed", "error", err)
			}
		}()
	}

	projector := projection.NewProjector(src, cache)
	if len(cfg.WarmTables) > 0 {
		if err := projector.Warm(ctx, cfg.WarmTables...); err != nil {
			return fmt.Errorf("warm schema cache: %w", err)
		}
	}

	tree := birch.New(src, projector)
	tree.AddObserver(birch.NewLoggingObserver())

	slog.Info("Application ready!", "driver", cfg.Driver, "cached_tables", cache.Len())

	if serverMode {
		slog.Info("Starting Server mode...")
		return network.Start(ctx, cfg.Port, tree)
	}
	slog.Info("Starting REPL mode...")
	repl.Start(ctx, tree)
	return nil
}

func applyOptions(cfg *config.Config, o *Options) {
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.Driver != "" {
		cfg.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.DSN = o.DSN
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.SchemaCache != "" {
		cfg.SchemaCachePath = o.SchemaCache
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

func openSource(ctx context.Context, cfg *config.Config) (rowSource, func(), error) {
	switch {
	case cfg.UsesMemory():
		if err := ensureDatabaseSeeded(cfg.DataDir, databases.Content, "music"); err != nil {
			return nil, nil, fmt.Errorf("failed to seed database: %w", err)
		}
		src, err := memory.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case cfg.Driver == "pgx":
		return pgsource.Open(ctx, cfg.DSN)
	default:
		return sqlsource.Open(ctx, cfg.Driver, cfg.DSN)
	}
}

// ensureDatabaseSeeded copies the embedded database root into dir unless
// dir already holds a database
func ensureDatabaseSeeded(dir string, seedFS fs.FS, root string) error {
	if _, err := os.Stat(filepath.Join(dir, "meta.json")); !os.IsNotExist(err) {
		return err // Already exists (or unreadable)
	}

	slog.Info("Seeding database...", "path", dir)

	db, err := storage.LoadDatabase(seedFS, root)
	if err != nil {
		return err
	}
	return writer.SaveDatabase(db, dir)
}
