package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-parser/internal/async"
	"github.com/joseph-ayodele/cv-parser/internal/ingest"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
)

func newWatchCommand(a *app) *cobra.Command {
	var (
		jsonDir  string
		debounce time.Duration
		initial  bool
		strategy string
		lang     string
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Parse résumés as they appear under the given directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			proc, err := pipeline.New(a.cfg, a.logger)
			if err != nil {
				return err
			}

			roots := make([]string, len(args))
			for i, r := range args {
				if roots[i], err = filepath.Abs(r); err != nil {
					return err
				}
			}
			rootOf := func(path string) string {
				for _, r := range roots {
					if rel, err := filepath.Rel(r, path); err == nil && filepath.IsLocal(rel) {
						return r
					}
				}
				return filepath.Dir(path)
			}

			pool := async.NewPool(proc, a.logger,
				async.WithWorkers(a.cfg.Batch.Workers),
				async.WithJobTimeout(a.cfg.Batch.JobTimeout),
				async.WithBaseContext(ctx),
				async.WithOnResult(func(o async.Outcome) {
					if o.Err != nil {
						return
					}
					name := jsonFileName(rootOf(o.Job.Name), o.Job.Name)
					if err := writeResultFile(jsonDir, name, o.Result); err != nil {
						a.logger.Error("watch.write_failed", "path", o.Job.Name, "error", err)
						return
					}
					a.logger.Info("watch.written", "path", o.Job.Name, "json", filepath.Join(jsonDir, name))
				}),
			)
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), a.cfg.Batch.JobTimeout)
				defer cancel()
				pool.Shutdown(sctx)
			}()

			paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Roots:       roots,
				SkipHidden:  true,
				InitialScan: initial,
				Debounce:    debounce,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "watching %v, writing JSON to %s\n", roots, jsonDir); err != nil {
				return err
			}

			ing := ingest.NewFSIngestor(a.logger, 0)
			seen := map[string]struct{}{}
			for {
				select {
				case <-ctx.Done():
					return nil
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					a.logger.Warn("watch.error", "error", err)
				case path, ok := <-paths:
					if !ok {
						return nil
					}
					f, err := ing.IngestPath(ctx, path)
					if err != nil {
						a.logger.Warn("watch.ingest_failed", "path", path, "error", err)
						continue
					}
					if _, dup := seen[f.HashHex]; dup {
						a.logger.Debug("watch.duplicate", "path", path, "sha256", f.HashHex)
						continue
					}
					seen[f.HashHex] = struct{}{}
					err = pool.Enqueue(ctx, async.Job{
						Name: f.Path,
						Load: func() (pipeline.Request, error) {
							doc, err := f.Load()
							return pipeline.Request{Document: doc, Strategy: st, LanguageHint: lang}, err
						},
					})
					if err != nil {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().StringVar(&jsonDir, "json-dir", "records", "where JSON results are written")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "wait this long after the last write before parsing")
	cmd.Flags().BoolVar(&initial, "initial", false, "also parse files already present")
	cmd.Flags().StringVar(&strategy, "strategy", "", "local or external (default $EXTRACT_STRATEGY)")
	cmd.Flags().StringVar(&lang, "lang", "", "language hint for OCR")
	return cmd
}
