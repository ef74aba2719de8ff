// Package ocr turns lab report documents into plain text for extraction.
package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crosscheck-health/labrecon/internal/config"
)

// Extractor extracts text content from a document on disk.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "local", "":
		return &Auto{pdf: NewPdfToText(cfg.PdfToTextPath)}, nil
	case "text":
		return &Passthrough{}, nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}

// Passthrough reads a document verbatim; for reports already in plain text.
type Passthrough struct{}

func (p *Passthrough) ExtractText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrapf(err, "ocr: read %s", path)
	}
	return string(data), nil
}

// Auto routes PDFs through pdftotext and everything else through Passthrough.
type Auto struct {
	pdf  Extractor
	text Passthrough
}

func (a *Auto) ExtractText(ctx context.Context, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return a.pdf.ExtractText(ctx, path)
	}
	return a.text.ExtractText(ctx, path)
}
