package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crosscheck-health/labrecon/internal/export"
	"github.com/crosscheck-health/labrecon/internal/extract"
	"github.com/crosscheck-health/labrecon/internal/fetcher"
	"github.com/crosscheck-health/labrecon/internal/model"
)

var (
	runExportCSV  string
	runExportXLSX string
)

var runCmd = &cobra.Command{
	Use:   "run <document>",
	Short: "Reconcile a single lab report",
	Long:  "Fetches the document (local path, http(s) or ftp URL), extracts its text, runs the full reconciliation pipeline, and prints the result as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := processReport(ctx, env, args[0])
		if err != nil {
			return err
		}

		if result.Normalized != nil {
			if runExportCSV != "" {
				if err := export.SaveCSV(runExportCSV, result.Normalized); err != nil {
					return err
				}
			}
			if runExportXLSX != "" {
				if err := export.SaveXLSX(runExportXLSX, result.Normalized); err != nil {
					return err
				}
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runExportCSV, "export-csv", "", "also write the normalized records to a CSV file")
	runCmd.Flags().StringVar(&runExportXLSX, "export-xlsx", "", "also write the normalized records to an XLSX workbook")
	rootCmd.AddCommand(runCmd)
}

// processReport fetches a document reference, extracts its text, and runs the
// pipeline over it.
func processReport(ctx context.Context, env *pipelineEnv, ref string) (*model.RunResult, error) {
	path, cleanup, err := localizeDocument(ctx, env.Fetcher, ref)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	text, err := env.OCR.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}

	result := env.Pipeline.Run(ctx, extract.Document{Name: ref, Text: text})

	zap.L().Info("report processed",
		zap.String("document", ref),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// localizeDocument makes the referenced document available as a local file.
// Remote documents are downloaded to a temp file that cleanup removes.
func localizeDocument(ctx context.Context, f fetcher.Fetcher, ref string) (string, func(), error) {
	noop := func() {}

	if !strings.Contains(ref, "://") {
		return ref, noop, nil
	}

	data, err := fetcher.ReadAll(ctx, f, ref)
	if err != nil {
		return "", noop, err
	}

	tmp, err := os.CreateTemp("", "labrecon-*"+filepath.Ext(ref))
	if err != nil {
		return "", noop, eris.Wrap(err, "create temp document")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", noop, eris.Wrap(err, "write temp document")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck
		return "", noop, eris.Wrap(err, "close temp document")
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil //nolint:errcheck
}
