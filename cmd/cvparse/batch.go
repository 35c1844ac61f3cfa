package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-parser/internal/async"
	"github.com/joseph-ayodele/cv-parser/internal/common"
	"github.com/joseph-ayodele/cv-parser/internal/ingest"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
	"github.com/joseph-ayodele/cv-parser/internal/report"
	"github.com/joseph-ayodele/cv-parser/internal/score"
)

func newBatchCommand(a *app) *cobra.Command {
	var (
		out           string
		jsonDir       string
		workers       int
		strategy      string
		lang          string
		includeHidden bool
	)
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Parse every PDF under a directory and write an XLSX report",
		Example: `  cvparse batch ./inbox --json-dir ./records
  cvparse batch ./inbox --workers 8 --out report.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(root)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return common.InvalidArgumentErrorf("%s is not a directory", root)
			}
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(filepath.Dir(root), "cv-report.xlsx")
			}
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}

			proc, err := pipeline.New(a.cfg, a.logger)
			if err != nil {
				return err
			}
			scorer, err := score.NewScorer(a.cfg.Score.CoreFields)
			if err != nil {
				return err
			}

			files, stats, err := ingest.NewFSIngestor(a.logger, 0).IngestDirectory(ctx, root, !includeHidden)
			if err != nil {
				return err
			}

			// duplicates and unreadable files keep their row but are not processed
			rows := make([]report.Row, len(files))
			var jobs []async.Job
			var jobRow []int
			for i, f := range files {
				rows[i] = report.Row{Path: f.Path, HashHex: f.HashHex, Deduplicated: f.Deduplicated}
				if f.Err != "" {
					rows[i].Err = errors.New(f.Err)
					continue
				}
				if f.Deduplicated {
					continue
				}
				jobs = append(jobs, async.Job{
					Name: f.Path,
					Load: func() (pipeline.Request, error) {
						doc, err := f.Load()
						return pipeline.Request{Document: doc, Strategy: st, LanguageHint: lang}, err
					},
				})
				jobRow = append(jobRow, i)
			}

			outcomes := async.Run(ctx, proc, jobs, a.logger,
				async.WithWorkers(workers),
				async.WithJobTimeout(a.cfg.Batch.JobTimeout),
			)

			processed := 0
			for n, o := range outcomes {
				row := &rows[jobRow[n]]
				row.Result = o.Result
				row.Err = o.Err
				row.Elapsed = o.Elapsed
				if o.Err != nil {
					continue
				}
				processed++
				row.Missing = scorer.Missing(o.Result.Record)
				if jsonDir != "" {
					if err := writeResultFile(jsonDir, jsonFileName(root, row.Path), o.Result); err != nil {
						return err
					}
				}
			}
			failed := 0
			for _, r := range rows {
				if r.Err != nil {
					failed++
				}
			}

			b, err := report.NewService(a.logger).ExportXLSX(ctx, rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return common.WrapError(err, "write report")
			}

			a.logger.Info("batch.done",
				"root", root,
				"documents", len(files),
				"processed", processed,
				"failed", failed,
				"duplicates", stats.Deduplicated,
				"report", out,
			)
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d documents, %d failed, %d duplicates; report written to %s\n",
				len(files), failed, stats.Deduplicated, out); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(files))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "XLSX report path (default <dir>/../cv-report.xlsx)")
	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "also write one JSON result per document here")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent documents (default $BATCH_WORKERS)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "local or external (default $EXTRACT_STRATEGY)")
	cmd.Flags().StringVar(&lang, "lang", "", "language hint for OCR")
	cmd.Flags().BoolVar(&includeHidden, "include-hidden", false, "descend into hidden files and directories")
	return cmd
}
