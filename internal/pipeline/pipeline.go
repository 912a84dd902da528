// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the extraction run: discover report PDFs,
// convert each to text, window the text into chunks, call the model per
// chunk, normalize the accumulated candidates, and persist per document.
// Documents are independent; one bad PDF or failed write never stops the
// run.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/dx-index/internal/chunk"
	"github.com/pdiddy/dx-index/internal/extract"
	"github.com/pdiddy/dx-index/internal/normalize"
	"github.com/pdiddy/dx-index/internal/pdftext"
	"github.com/pdiddy/dx-index/internal/store"
	"github.com/pdiddy/dx-index/pkg/types"
)

// ChunkExtractor is the per-chunk model call. Satisfied by *extract.Client.
type ChunkExtractor interface {
	ExtractChunk(ctx context.Context, chunkIndex int, chunkText string, docCtx extract.DocumentContext) (types.RawExtraction, error)
}

// Saver persists one document's initiatives. Satisfied by *store.Store.
type Saver interface {
	SaveDocument(ctx context.Context, doc types.Document, initiatives []types.Initiative) (int64, error)
}

// DocumentResult records the outcome for one input PDF.
type DocumentResult struct {
	Filename     string `json:"filename"`
	Status       string `json:"status"` // "processed", "skipped", or "failed"
	Pages        int    `json:"pages,omitempty"`
	Chunks       int    `json:"chunks,omitempty"`
	FailedChunks int    `json:"failed_chunks,omitempty"`
	Initiatives  int    `json:"initiatives,omitempty"`
	Err          error  `json:"-"`
}

// Summary aggregates a full run.
type Summary struct {
	Processed        int              `json:"processed"`
	Skipped          int              `json:"skipped"`
	Failed           int              `json:"failed"`
	TotalInitiatives int              `json:"total_initiatives"`
	Documents        []DocumentResult `json:"documents"`
}

// Orchestrator runs the extraction pipeline over a set of documents,
// sequentially, sharing one model client and one store across the run.
type Orchestrator struct {
	cfg   types.PipelineConfig
	texts pdftext.Extractor
	model ChunkExtractor
	store Saver
	out   io.Writer
}

// New assembles an orchestrator. out receives progress and audit lines;
// nil discards them.
func New(cfg types.PipelineConfig, texts pdftext.Extractor, model ChunkExtractor, saver Saver, out io.Writer) *Orchestrator {
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{cfg: cfg, texts: texts, model: model, store: saver, out: out}
}

// DiscoverDocuments lists the PDF files under dataDir and parses their
// filenames into document metadata, sorted by filename for deterministic
// run order.
func DiscoverDocuments(dataDir string) ([]types.Document, error) {
	var docs []types.Document
	err := filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			docs = append(docs, pdftext.ParseFilename(path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

// Run processes every document and returns the run summary. It stops early
// only on context cancellation or invalid chunking configuration; anything
// scoped to a single document or chunk is recorded and skipped.
func (o *Orchestrator) Run(ctx context.Context, docs []types.Document) (Summary, error) {
	var summary Summary
	var allInitiatives []types.Initiative

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		fmt.Fprintf(o.out, "[%d/%d] %s\n", i+1, len(docs), doc.Filename)

		result, initiatives, err := o.processDocument(ctx, doc)
		if err != nil {
			var cfgErr *chunk.ConfigError
			if errors.As(err, &cfgErr) || ctx.Err() != nil {
				return summary, err
			}
		}

		switch result.Status {
		case "processed":
			summary.Processed++
		case "skipped":
			summary.Skipped++
		case "failed":
			summary.Failed++
		}
		summary.TotalInitiatives += result.Initiatives
		summary.Documents = append(summary.Documents, result)
		allInitiatives = append(allInitiatives, initiatives...)
	}

	if o.cfg.EmitJSON && len(allInitiatives) > 0 {
		name := fmt.Sprintf("all_initiatives_%s.json", time.Now().Format("20060102_150405"))
		path := filepath.Join(o.cfg.OutputDir, name)
		if err := writeJSONFile(path, consolidatedArtifact{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Total:       len(allInitiatives),
			Initiatives: allInitiatives,
		}); err != nil {
			fmt.Fprintf(o.out, "consolidated artifact write failed: %v\n", err)
		} else {
			fmt.Fprintf(o.out, "wrote %s\n", path)
		}
	}

	fmt.Fprintf(o.out, "done: %d processed, %d skipped, %d failed, %d initiatives\n",
		summary.Processed, summary.Skipped, summary.Failed, summary.TotalInitiatives)
	return summary, nil
}

func (o *Orchestrator) processDocument(ctx context.Context, doc types.Document) (DocumentResult, []types.Initiative, error) {
	result := DocumentResult{Filename: doc.Filename}

	text, pages, err := o.texts.ExtractText(doc.Path)
	if err != nil {
		var unreadable *pdftext.UnreadablePDFError
		if errors.As(err, &unreadable) {
			fmt.Fprintf(o.out, "  skipped: %v\n", err)
			result.Status = "skipped"
			result.Err = err
			return result, nil, nil
		}
		result.Status = "failed"
		result.Err = err
		return result, nil, err
	}
	result.Pages = pages

	chunker, err := chunk.New(text, o.cfg.Chunking.Size, o.cfg.Chunking.Overlap)
	if err != nil {
		result.Status = "failed"
		result.Err = err
		return result, nil, err
	}
	chunks := chunker.All()
	if limit := o.cfg.Chunking.MaxChunksPerDocument; limit > 0 && len(chunks) > limit {
		fmt.Fprintf(o.out, "  capping at %d of %d chunks\n", limit, len(chunks))
		chunks = chunks[:limit]
	}
	result.Chunks = len(chunks)

	docCtx := extract.DocumentContext{
		CompanyName: doc.CompanyName,
		ReportType:  doc.ReportType,
		Year:        doc.Year,
	}

	var raws []types.RawExtraction
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			result.Status = "failed"
			result.Err = err
			return result, nil, err
		}

		raw, err := o.model.ExtractChunk(ctx, c.Index, c.Text, docCtx)
		if err != nil {
			if ctx.Err() != nil {
				result.Status = "failed"
				result.Err = err
				return result, nil, err
			}
			fmt.Fprintf(o.out, "  chunk %d failed: %v\n", c.Index, err)
			result.FailedChunks++
			continue
		}
		raws = append(raws, raw)
	}

	if err := o.writeRawAudit(doc, raws); err != nil {
		fmt.Fprintf(o.out, "  audit write failed: %v\n", err)
	}

	initiatives := normalize.Normalize(doc, raws, normalize.Options{
		SimilarityThreshold: o.cfg.SimilarityThreshold,
	}, prefixWriter{w: o.out})

	if _, err := o.store.SaveDocument(ctx, doc, initiatives); err != nil {
		var werr *store.WriteError
		if errors.As(err, &werr) && ctx.Err() == nil {
			fmt.Fprintf(o.out, "  store write failed: %v\n", err)
			result.Status = "failed"
			result.Err = err
			return result, nil, nil
		}
		result.Status = "failed"
		result.Err = err
		return result, nil, err
	}

	if o.cfg.EmitJSON {
		path := filepath.Join(o.cfg.OutputDir, artifactName(doc))
		if err := writeJSONFile(path, documentArtifact{
			CompanyName: doc.CompanyName,
			ReportType:  doc.ReportType,
			Year:        doc.Year,
			SourceFile:  doc.Filename,
			ExtractedAt: time.Now().UTC().Format(time.RFC3339),
			Initiatives: initiatives,
		}); err != nil {
			fmt.Fprintf(o.out, "  artifact write failed: %v\n", err)
		}
	}

	fmt.Fprintf(o.out, "  %d initiatives from %d chunks (%d failed)\n",
		len(initiatives), result.Chunks, result.FailedChunks)
	result.Status = "processed"
	result.Initiatives = len(initiatives)
	return result, initiatives, nil
}

// writeRawAudit dumps the pre-normalization extractions for one document
// as YAML, so coercions and dedup decisions can be traced back to what the
// model actually said.
func (o *Orchestrator) writeRawAudit(doc types.Document, raws []types.RawExtraction) error {
	if !o.cfg.EmitJSON || len(raws) == 0 {
		return nil
	}
	dir := filepath.Join(o.cfg.OutputDir, "raw")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(rawAudit{
		SourceFile:  doc.Filename,
		Extractions: raws,
	})
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	return os.WriteFile(filepath.Join(dir, sanitize(base)+".raw.yaml"), data, 0o644)
}

type rawAudit struct {
	SourceFile  string                `yaml:"source_file"`
	Extractions []types.RawExtraction `yaml:"extractions"`
}

// documentArtifact is the per-document JSON output layout.
type documentArtifact struct {
	CompanyName string             `json:"company_name"`
	ReportType  string             `json:"report_type"`
	Year        string             `json:"year"`
	SourceFile  string             `json:"source_file"`
	ExtractedAt string             `json:"extracted_at"`
	Initiatives []types.Initiative `json:"initiatives"`
}

// consolidatedArtifact is the end-of-run JSON output layout.
type consolidatedArtifact struct {
	GeneratedAt string             `json:"generated_at"`
	Total       int                `json:"total"`
	Initiatives []types.Initiative `json:"initiatives"`
}

// artifactName builds the per-document output filename,
// Company_Year_ReportType.json with spaces underscored.
func artifactName(doc types.Document) string {
	parts := []string{doc.CompanyName}
	if doc.Year != "" {
		parts = append(parts, doc.Year)
	}
	parts = append(parts, doc.ReportType)
	return sanitize(strings.Join(parts, "_")) + ".json"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '\\':
			return '-'
		default:
			return r
		}
	}, s)
}

func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// prefixWriter indents normalization audit lines under the current
// document's progress line.
type prefixWriter struct {
	w io.Writer
}

func (p prefixWriter) Write(b []byte) (int, error) {
	if _, err := p.w.Write(append([]byte("  "), b...)); err != nil {
		return 0, err
	}
	return len(b), nil
}
