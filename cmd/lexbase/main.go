// Copyright 2026 Caselode
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/caselode/lexbase"
	"github.com/caselode/lexbase/config"
	"github.com/caselode/lexbase/core"
	"github.com/caselode/lexbase/ingestion"
	"github.com/caselode/lexbase/source"
	"github.com/caselode/lexbase/storage"
)

func main() {
	app := &cli.App{
		Name:  "lexbase",
		Usage: "Legal knowledge ingestion and partitioned store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a knowledge article XML export",
				ArgsUsage: "<source-file>",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Tenant id to scope written entities",
					},
					&cli.StringFlag{
						Name:  "ingested-by",
						Usage: "Actor recorded on entity audit fields",
					},
					&cli.BoolFlag{
						Name:  "relevant-only",
						Usage: "Persist only entities the classifier marked relevant",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Entities per store batch (0 = config value)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search ingested knowledge articles",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Tenant id to search within",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "count",
				Usage:  "Count stored knowledge articles",
				Action: countCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB database directory",
					},
					&cli.StringFlag{
						Name:    "tenant",
						Aliases: []string{"t"},
						Usage:   "Tenant id to count (empty = whole store)",
					},
					&cli.BoolFlag{
						Name:  "include-expired",
						Usage: "Include soft-deleted entities",
					},
					&cli.BoolFlag{
						Name:  "relevant-only",
						Usage: "Count only entities marked relevant",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig layers CLI flags over the YAML config.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if db := c.String("db"); db != "" {
		cfg.Store.Path = db
	}
	if tenant := c.String("tenant"); tenant != "" {
		cfg.Ingest.TenantID = tenant
	}
	if c.IsSet("relevant-only") {
		cfg.Ingest.FilterRelevantOnly = c.Bool("relevant-only")
	}
	if size := c.Int("batch-size"); size > 0 {
		cfg.Ingest.BatchSize = size
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config) (*lexbase.Database, error) {
	var opts []lexbase.DatabaseOption
	if cfg.Store.InMemory {
		opts = append(opts, lexbase.WithInMemory())
	}
	return lexbase.NewDatabase(cfg.Store.Path, opts...)
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one source file argument")
	}
	sourcePath := c.Args().First()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fetcher := source.NewFileFetcher(filepath.Dir(sourcePath))
	pipeline, err := db.NewIngestionPipeline(fetcher, source.XMLParser{},
		ingestion.WithBatchSize(cfg.Ingest.BatchSize),
		ingestion.WithBatchDelay(cfg.Ingest.BatchDelay),
		ingestion.WithClassifierWeights(cfg.Classifier),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", cfg.Store.Path)
	fmt.Fprintf(os.Stderr, "Tenant:   %s\n", cfg.Ingest.TenantID)
	fmt.Fprintf(os.Stderr, "Source:   %s\n\n", sourcePath)

	result, runErr := pipeline.Run(context.Background(), filepath.Base(sourcePath), ingestion.RunOptions{
		TenantID:           cfg.Ingest.TenantID,
		IngestedBy:         c.String("ingested-by"),
		FilterRelevantOnly: cfg.Ingest.FilterRelevantOnly,
		Progress:           os.Stderr,
	})
	if result != nil {
		fmt.Println(result.Summary())
	}
	if runErr != nil {
		return fmt.Errorf("ingestion failed: %w", runErr)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a query argument")
	}
	query := strings.Join(c.Args().Slice(), " ")

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(context.Background(), cfg.Ingest.TenantID, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, result := range results {
		fmt.Printf("%2d. [%.2f] %s: %s (%s)\n",
			i+1, result.Score, result.Entity.EntityID, result.Entity.Title, result.Entity.ContentKind)
	}
	return nil
}

func countCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var partition *storage.Partition
	if tenant := c.String("tenant"); tenant != "" {
		partition = &storage.Partition{
			TenantID: tenant,
			Category: core.DocumentTypeKnowledgeArticle,
		}
	}

	query := storage.Query[*core.KnowledgeEntity]{
		IncludeExpired: c.Bool("include-expired"),
	}
	if c.Bool("relevant-only") {
		query.Filter = func(entity *core.KnowledgeEntity) bool {
			return entity.Classification.IsRelevant
		}
	}

	count, err := db.EntityRepository().Count(context.Background(), partition, query)
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	fmt.Println(count)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
