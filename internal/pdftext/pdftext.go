// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext turns report PDFs into plain text for chunking. The
// conversion itself runs in a container (pdftotext image) behind the
// Extractor interface, so the pipeline treats it as a black box.
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/dx-index/internal/container"
)

// imagePdftotext is the conversion container image.
const imagePdftotext = "pdftotext:latest"

// UnreadablePDFError reports a PDF that could not be converted to text
// (encrypted, corrupt, or scanned without a text layer). The pipeline
// skips the document and moves on.
type UnreadablePDFError struct {
	Path string
	Err  error
}

func (e *UnreadablePDFError) Error() string {
	return fmt.Sprintf("unreadable PDF %s: %v", e.Path, e.Err)
}

func (e *UnreadablePDFError) Unwrap() error { return e.Err }

// Extractor converts one PDF file into plain text and a page count.
type Extractor interface {
	ExtractText(path string) (text string, pageCount int, err error)
}

// PdftotextExtractor pipes PDFs through the pdftotext container image.
type PdftotextExtractor struct {
	runtime container.Runtime
}

// NewPdftotextExtractor creates an extractor backed by the given container
// runtime. It verifies that the pdftotext image exists locally before
// returning.
func NewPdftotextExtractor(rt container.Runtime) (*PdftotextExtractor, error) {
	if err := rt.ImageExists(imagePdftotext); err != nil {
		return nil, fmt.Errorf("pdftotext image not available in %s: %w", rt.Name(), err)
	}
	return &PdftotextExtractor{runtime: rt}, nil
}

// ExtractText reads the PDF at path, pipes it through pdftotext, and
// returns the text plus the page count. pdftotext separates pages with
// form feeds, which is where the count comes from.
func (p *PdftotextExtractor) ExtractText(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, &UnreadablePDFError{Path: path, Err: err}
	}
	defer f.Close()

	var out bytes.Buffer
	if err := p.runtime.Run(imagePdftotext, []string{"-layout", "-", "-"}, f, &out); err != nil {
		return "", 0, &UnreadablePDFError{Path: path, Err: err}
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", 0, &UnreadablePDFError{Path: path, Err: fmt.Errorf("conversion produced no text")}
	}

	pages := strings.Count(text, "\f") + 1
	return text, pages, nil
}
