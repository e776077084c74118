// Package main is the sqlite2es CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dukiAleksey/sqlite2elasticsearch/internal/cli"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/config"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/es"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/metrics/prompush"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/pipeline"
	"github.com/dukiAleksey/sqlite2elasticsearch/internal/storage"
	"github.com/dukiAleksey/sqlite2elasticsearch/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sqlite2es/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if neither
// exists, pure defaults are returned so the tool can run from flags alone.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// commonFlags are the flags shared by every migration command. The db, url
// and index flags override whatever the config file says.
type commonFlags struct {
	configPath *string
	dbPath     *string
	esURL      *string
	index      *string
	debug      *bool
}

func commonFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := &commonFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path"),
		dbPath:     fs.String("db", "", "source database path (overrides config)"),
		esURL:      fs.String("url", "", "Elasticsearch base URL (overrides config)"),
		index:      fs.String("index", "", "target index name (overrides config)"),
		debug:      fs.Bool("debug", false, "enable debug logging"),
	}
	return fs, f
}

// apply merges flag overrides into cfg and reports the effective debug mode.
func (f *commonFlags) apply(cfg *config.Config) bool {
	if *f.dbPath != "" {
		cfg.Source.DatabasePath = *f.dbPath
	}
	if *f.esURL != "" {
		cfg.Elasticsearch.URL = *f.esURL
	}
	if *f.index != "" {
		cfg.Elasticsearch.Index = *f.index
	}
	return cfg.Debug || *f.debug
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "run":
		runMigration()
	case "dump":
		runDump()
	case "create-index":
		runCreateIndex()
	case "version", "--version", "-v":
		fmt.Printf("sqlite2es version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup performs the startup shared by all commands: config, overrides,
// logger with a run id so interleaved log streams from repeated invocations
// stay separable.
func setup(fs *flag.FlagSet, flags *commonFlags) (*config.Config, *zap.Logger) {
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := flags.apply(cfg)
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	if resolvedConfigPath != "" {
		logger.Debug("config loaded",
			zap.String("config_path", resolvedConfigPath),
			zap.Bool("debug", debugMode),
		)
	}
	return cfg, logger
}

func runMigration() {
	fs, flags := commonFlagSet("run")
	cfg, logger := setup(fs, flags)
	defer logger.Sync()

	src, err := storage.NewSQLiteSource(cfg.Source.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open source database",
			zap.String("path", cfg.Source.DatabasePath), zap.Error(err))
	}
	defer src.Close()

	backend := metrics.Nop()
	if cfg.Metrics.PushgatewayURL != "" {
		b, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
		backend = b
	}

	client := es.NewClient(cfg.Elasticsearch.URL, es.WithLogger(logger), es.WithMetrics(backend))
	pipe := pipeline.New(src, client,
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(backend),
	)

	ctx := context.Background()
	stats, runErr := pipe.Run(ctx, cfg.Elasticsearch.Index)
	if err := backend.Flush(ctx); err != nil {
		logger.Warn("Metrics push failed", zap.Error(err))
	}
	if runErr != nil {
		logger.Error("Migration failed", zap.Error(runErr))
		_ = src.Close()
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("migration complete",
		zap.Int("movies", stats.Movies),
		zap.Int("documents", stats.Documents),
		zap.Duration("duration", stats.Duration),
	)
	cli.WriteRunSummary(os.Stdout, cfg.Elasticsearch.Index, stats)
}

func runDump() {
	fs, flags := commonFlagSet("dump")
	cfg, logger := setup(fs, flags)
	defer logger.Sync()

	src, err := storage.NewSQLiteSource(cfg.Source.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open source database",
			zap.String("path", cfg.Source.DatabasePath), zap.Error(err))
	}
	defer src.Close()

	// Extraction and normalization only; nothing is sent anywhere.
	pipe := pipeline.New(src, nil, pipeline.WithLogger(logger))
	docs, err := pipe.Documents(context.Background())
	if err != nil {
		logger.Error("Dump failed", zap.Error(err))
		_ = src.Close()
		_ = logger.Sync()
		os.Exit(1)
	}
	if err := cli.WriteBulkPayload(os.Stdout, cfg.Elasticsearch.Index, docs); err != nil {
		logger.Fatal("Failed to write payload", zap.Error(err))
	}
}

func runCreateIndex() {
	fs, flags := commonFlagSet("create-index")
	mappingPath := fs.String("mapping", "", "path to an index mapping JSON file (empty = server defaults)")
	cfg, logger := setup(fs, flags)
	defer logger.Sync()

	var mapping []byte
	if *mappingPath != "" {
		var err error
		mapping, err = os.ReadFile(*mappingPath)
		if err != nil {
			logger.Fatal("Failed to read mapping file", zap.Error(err))
		}
	}

	client := es.NewClient(cfg.Elasticsearch.URL, es.WithLogger(logger))
	err := client.CreateIndex(context.Background(), cfg.Elasticsearch.Index, mapping)
	switch {
	case errors.Is(err, es.ErrIndexExists):
		fmt.Printf("Index already exists: %s\n", cfg.Elasticsearch.Index)
	case err != nil:
		logger.Fatal("Failed to create index", zap.Error(err))
	default:
		fmt.Printf("Index created: %s\n", cfg.Elasticsearch.Index)
	}
}

func printUsage() {
	fmt.Println(`sqlite2es - Migrate the legacy movies database into Elasticsearch

Usage:
  sqlite2es run [flags]           Run the full migration (extract, transform, load)
  sqlite2es dump [flags]          Print the would-be _bulk payload as NDJSON (no load)
  sqlite2es create-index [flags]  Create the target index with an optional mapping
  sqlite2es version               Show version
  sqlite2es help                  Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/sqlite2es/config.yaml,
                     falling back to ./config.yaml, then built-in defaults)
  --db string        Source database path (overrides config)
  --url string       Elasticsearch base URL (overrides config)
  --index string     Target index name (overrides config)
  --debug            Enable debug logging

Create-Index Flags:
  --mapping string   Path to an index mapping JSON file (empty = server defaults)

Examples:
  sqlite2es run --db movies.sqlite --url http://localhost:9200 --index movies
  sqlite2es dump --db movies.sqlite | head
  sqlite2es create-index --index movies --mapping mapping.json`)
}
