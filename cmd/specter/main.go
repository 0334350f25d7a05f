// Copyright 2025 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/poiesic/specter"
	"github.com/poiesic/specter/config"
	"github.com/poiesic/specter/ingestion"
	"github.com/poiesic/specter/knowledge"
	"github.com/poiesic/specter/resolve"
	"github.com/poiesic/specter/server"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "specter",
		Usage: "Legal question answering over a curated knowledge base and vector index",
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
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Rebuild the vector index from the knowledge base and FAQ files",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "faq",
						Usage: "Additional Q:/A: formatted FAQ file (repeatable)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items embedded per request",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent embedding batches",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: ingestion.DefaultBackoff.MaxAttempts,
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Suppress progress output",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "structured",
						Usage: "Format the answer with legal reference, explanation and next steps",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Log every resolution stage",
					},
				},
			},
			{
				Name:   "topics",
				Usage:  "List curated legal topics",
				Action: topicsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "indexed",
						Usage: "List indexed record counts per category instead",
					},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "Measure retrieval accuracy against the indexed dataset",
				Action: evaluateCommand,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openService(c *cli.Context) (*specter.Service, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	svc, err := specter.New(cfg, specter.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, cfg, nil
}

func serveCommand(c *cli.Context) error {
	svc, cfg, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if addr := c.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	srv, err := server.New(svc.Resolver(), svc.KnowledgeBase(), cfg.Server, server.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	return srv.Run(c.Context)
}

func ingestCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Knowledge.FAQFiles = append(cfg.Knowledge.FAQFiles, c.StringSlice("faq")...)

	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	backoff := ingestion.DefaultBackoff
	backoff.MaxAttempts = c.Int("max-retries")

	svc, err := specter.New(cfg, specter.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithPoolSize(c.Int("workers")),
		ingestion.WithBackoff(backoff),
	}
	if !c.Bool("quiet") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}

	fmt.Fprintf(c.App.ErrWriter, "Index adapter: %s\n", cfg.Index.Adapter)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	stats, err := svc.Ingest(c.Context, opts...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return writeJSON(c.App.Writer, stats)
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("question is required")
	}

	svc, _, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	var monitor resolve.Monitor
	if c.Bool("verbose") {
		monitor = resolve.NewLogMonitor(slog.Default())
	}
	res, err := svc.Resolver().ResolveWithMonitor(c.Context, question,
		resolve.Options{Structured: c.Bool("structured")}, monitor)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintln(w, res.Answer)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(res.Sources, ", "))
	if res.Confidence != nil {
		fmt.Fprintf(w, "Confidence: %.1f%%\n", *res.Confidence*100)
	} else {
		fmt.Fprintln(w, "Confidence: n/a")
	}
	if res.MatchedQuestion != "" {
		fmt.Fprintf(w, "Matched: %s\n", res.MatchedQuestion)
	}
	return nil
}

func topicsCommand(c *cli.Context) error {
	if c.Bool("indexed") {
		return indexedCommand(c)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	base, err := knowledge.Builtin()
	if cfg.Knowledge.File != "" {
		base, err = knowledge.LoadFile(cfg.Knowledge.File)
	}
	if err != nil {
		return fmt.Errorf("failed to load knowledge base: %w", err)
	}

	for _, t := range base.Topics() {
		fmt.Fprintf(c.App.Writer, "%-32s %-28s %s\n", t.Key, t.Category, t.Label)
	}
	fmt.Fprintf(c.App.Writer, "\n%d topics\n", base.Len())
	return nil
}

func indexedCommand(c *cli.Context) error {
	svc, _, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	counts, err := svc.IndexedCategories(c.Context)
	if err != nil {
		return err
	}
	categories := slices.Sorted(maps.Keys(counts))
	total := 0
	for _, cat := range categories {
		fmt.Fprintf(c.App.Writer, "%-36s %d\n", cat, counts[cat])
		total += counts[cat]
	}
	fmt.Fprintf(c.App.Writer, "\n%d indexed records\n", total)
	return nil
}

func evaluateCommand(c *cli.Context) error {
	svc, _, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	metrics, err := svc.Evaluate(c.Context)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	return writeJSON(c.App.Writer, metrics)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
