// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dx-index/internal/container"
	"github.com/pdiddy/dx-index/internal/extract"
	"github.com/pdiddy/dx-index/internal/pdftext"
	"github.com/pdiddy/dx-index/internal/pipeline"
	"github.com/pdiddy/dx-index/internal/ratelimit"
	"github.com/pdiddy/dx-index/internal/store"
	"github.com/pdiddy/dx-index/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a directory of report PDFs into the initiative database",
	Long: `Run scans --data-dir for PDF files, converts each to text with the
containerized pdftotext image, chunks the text, extracts initiative
candidates chunk by chunk through the model, and stores the normalized
results. Unreadable PDFs are skipped; re-running over the same files
replaces their previous rows instead of duplicating them.

The model API key is read from --api-key, the DX_INDEX_API_KEY
environment variable, or .secrets/openai-api-key.`,
	RunE: runRun,
}

func runConfig(cmd *cobra.Command) types.PipelineConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	dbPath, _ := cmd.Flags().GetString("db")
	model, _ := cmd.Flags().GetString("model")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	chunkOverlap, _ := cmd.Flags().GetInt("chunk-overlap")
	maxChunks, _ := cmd.Flags().GetInt("max-chunks")
	noJSON, _ := cmd.Flags().GetBool("no-json")
	rpm, _ := cmd.Flags().GetInt("rpm")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	similarity, _ := cmd.Flags().GetFloat64("similarity-threshold")

	return types.PipelineConfig{
		DataDir:             dataDir,
		OutputDir:           outputDir,
		EmitJSON:            !noJSON,
		SimilarityThreshold: similarity,
		Chunking: types.ChunkingConfig{
			Size:                 chunkSize,
			Overlap:              chunkOverlap,
			MaxChunksPerDocument: maxChunks,
		},
		Model: types.ModelConfig{
			Model:             model,
			MaxRetries:        maxRetries,
			Timeout:           60 * time.Second,
			RequestsPerMinute: rpm,
		},
		Store: types.StoreConfig{Path: dbPath},
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := runConfig(cmd)

	apiKeyFlag, _ := cmd.Flags().GetString("api-key")
	apiKey := secretDefault("openai-api-key", apiKeyFlag)
	if apiKey == "" {
		apiKey = viper.GetString("api_key")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: pass --api-key, set DX_INDEX_API_KEY, or create .secrets/openai-api-key")
	}
	cfg.Model.APIKey = apiKey

	docs, err := pipeline.DiscoverDocuments(cfg.DataDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintf(os.Stderr, "no PDF files found under %s\n", cfg.DataDir)
		return nil
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	texts, err := pdftext.NewPdftotextExtractor(rt)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	backend := &extract.OpenAIBackend{
		APIKey: cfg.Model.APIKey,
		Model:  cfg.Model.Model,
		Client: &http.Client{Timeout: cfg.Model.Timeout},
	}
	client := extract.NewClient(backend, ratelimit.PerMinute(cfg.Model.RequestsPerMinute), cfg.Model.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := pipeline.New(cfg, texts, client, db, os.Stdout)
	summary, err := orch.Run(ctx, docs)
	if err != nil {
		return err
	}
	// Skipped and failed documents are recorded in the summary; only
	// configuration-level failures exit non-zero.
	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d document(s) failed\n", summary.Failed)
	}
	return nil
}

func init() {
	runCmd.Flags().String("data-dir", "data", "directory scanned for report PDFs")
	runCmd.Flags().String("output-dir", "outputs", "directory for JSON artifacts and raw audit files")
	runCmd.Flags().String("model", "gpt-4o-mini", "model identifier for extraction")
	runCmd.Flags().String("api-key", "", "model API key (overrides secrets and environment)")
	runCmd.Flags().Int("chunk-size", 3000, "characters per chunk")
	runCmd.Flags().Int("chunk-overlap", 500, "characters shared with the previous chunk")
	runCmd.Flags().Int("max-chunks", 0, "cap on chunks sent to the model per document (0 = no cap)")
	runCmd.Flags().Bool("no-json", false, "skip writing JSON artifacts")
	runCmd.Flags().Int("rpm", 60, "model requests per minute")
	runCmd.Flags().Int("max-retries", 3, "retry attempts per chunk for transient failures")
	runCmd.Flags().Float64("similarity-threshold", 0, "token-overlap ratio for adjacent-chunk dedup (0 = default 0.9)")

	rootCmd.AddCommand(runCmd)
}
