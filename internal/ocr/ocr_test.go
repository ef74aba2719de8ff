package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-health/labrecon/internal/config"
)

func TestNewExtractor_LocalDefault(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Auto{}, ext)
}

func TestNewExtractor_Text(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "text"})
	require.NoError(t, err)
	assert.IsType(t, &Passthrough{}, ext)
}

func TestNewExtractor_Unknown(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "tesseract"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hemoglobin 13.5 g/dL"), 0o644))

	text, err := (&Passthrough{}).ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hemoglobin 13.5 g/dL", text)
}

func TestPassthrough_Missing(t *testing.T) {
	_, err := (&Passthrough{}).ExtractText(context.Background(), "/no/such/report.txt")
	require.Error(t, err)
}

func TestAuto_RoutesNonPDFToPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain"), 0o644))

	ext, err := NewExtractor(config.OCRConfig{Provider: "local"})
	require.NoError(t, err)

	text, err := ext.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "plain", text)
}

func TestPdfToText_MissingBinary(t *testing.T) {
	p := NewPdfToText("/no/such/pdftotext")
	_, err := p.ExtractText(context.Background(), "report.pdf")
	require.Error(t, err)
}
