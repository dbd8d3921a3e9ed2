package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/substrat-dev/ragd/api"
	"github.com/substrat-dev/ragd/db"
	"github.com/substrat-dev/ragd/internal/config"
	"github.com/substrat-dev/ragd/internal/gemini"
	"github.com/substrat-dev/ragd/internal/graph"
	"github.com/substrat-dev/ragd/internal/log"
	"github.com/substrat-dev/ragd/internal/rag"
	"github.com/substrat-dev/ragd/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides config")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{JSON: true})
	logger.Info("starting", "version", AppVersion)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := store.NewPool(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer pool.Close()

	client, err := gemini.New(ctx, gemini.Config{
		APIKey:         cfg.GeminiAPIKey,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}

	chunks := store.New(pool, logger)
	graphStore := graph.NewStore(pool, logger)
	extractor := graph.NewExtractor(client, logger)

	pipeline := rag.New(client, client, chunks, &graphIndexer{extractor, graphStore}, rag.Config{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopK:         cfg.TopK,
		MaxDistance:  cfg.MaxDistance,
	}, logger)

	var verifier api.Verifier
	tokens, err := cfg.ParseAPITokens()
	if err != nil {
		return fmt.Errorf("parsing api tokens: %w", err)
	}
	if len(tokens) > 0 {
		verifier = api.TokenVerifier(tokens)
	} else {
		logger.Warn("no api tokens configured; trusting X-Tenant-ID header")
	}

	server := api.NewServer(pipeline, chunks, graphStore, client, pool, verifier, logger)

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr
	}
	return server.Run(ctx, addr)
}

// graphIndexer glues the extractor and the graph store into the single
// collaborator the pipeline wants.
type graphIndexer struct {
	*graph.Extractor
	*graph.Store
}
