package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crosscheck-health/labrecon/internal/model"
)

var batchLimit int

var batchCmd = &cobra.Command{
	Use:   "batch <directory>",
	Short: "Reconcile every lab report in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		docs, err := listReports(args[0], batchLimit)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Fprintln(os.Stderr, "No report documents found.")
			return nil
		}

		maxConcurrent := cfg.Batch.MaxConcurrentReports
		if maxConcurrent <= 0 {
			maxConcurrent = 4
		}

		var completed, failed atomic.Int32
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxConcurrent)

		for _, doc := range docs {
			doc := doc
			g.Go(func() error {
				result, err := processReport(gctx, env, doc)
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch: report failed", zap.String("document", doc), zap.Error(err))
					return nil
				}
				if result.Status == model.RunStatusFailed {
					failed.Add(1)
				} else {
					completed.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()

		zap.L().Info("batch complete",
			zap.Int("total", len(docs)),
			zap.Int32("completed", completed.Load()),
			zap.Int32("failed", failed.Load()),
		)
		fmt.Printf("processed %d reports: %d completed, %d failed\n",
			len(docs), completed.Load(), failed.Load())
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of reports to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

var reportExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// listReports returns the report documents directly inside dir, sorted by name.
func listReports(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read directory %s", dir)
	}

	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if reportExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			docs = append(docs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(docs)

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}
