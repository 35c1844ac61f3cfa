package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-parser/internal/ingest"
	"github.com/joseph-ayodele/cv-parser/internal/pipeline"
	"github.com/joseph-ayodele/cv-parser/internal/schema"
)

func newParseCommand(a *app) *cobra.Command {
	var (
		strategy string
		lang     string
		out      string
		validate bool
		compact  bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file.pdf>",
		Short: "Parse one résumé and print the record with its scores as JSON",
		Example: `  cvparse parse cv.pdf
  cvparse parse scan.pdf --strategy external --lang it --validate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStrategy(strategy)
			if err != nil {
				return err
			}
			proc, err := pipeline.New(a.cfg, a.logger)
			if err != nil {
				return err
			}

			f, err := ingest.NewFSIngestor(a.logger, 0).IngestPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := f.Load()
			if err != nil {
				return err
			}

			res, err := proc.Process(cmd.Context(), pipeline.Request{Document: doc, Strategy: st, LanguageHint: lang})
			if err != nil {
				return err
			}
			if validate {
				if err := schema.Validate(res.Record); err != nil {
					return fmt.Errorf("record does not match the schema: %w", err)
				}
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = file.Close() }()
				w = file
			}
			return writeJSON(w, res, !compact)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "local or external (default $EXTRACT_STRATEGY)")
	cmd.Flags().StringVar(&lang, "lang", "", "language hint for OCR, e.g. it, en, fr")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&validate, "validate", false, "check the record against the JSON schema")
	cmd.Flags().BoolVar(&compact, "compact", false, "single-line JSON")
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the canonical record",
		Args:  cobra.NoArgs,
		// config is not needed here
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), schema.JSONSchema(), true)
		},
	}
}
