package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/cv-parser/internal/common"
)

// app holds what every subcommand needs once flags and environment are read.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	var (
		envFile  string
		logLevel string
		a        = &app{}
	)

	root := &cobra.Command{
		Use:           "cvparse",
		Short:         "Turn résumé PDFs into canonical records with completeness scores",
		Long: `Turn résumé PDFs into canonical records with completeness scores.

Text is read locally with pdftotext. Scanned documents need the external strategy,
which uploads the PDF to the OCR.space-compatible service at $OCR_ENDPOINT (with
$OCR_API_KEY). No endpoint is configured by default, so nothing leaves the machine
unless you set one; when it is set and pdftotext is missing, local requests fall
back to that service too.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				if err := os.Setenv("ENV_FILE", envFile); err != nil {
					return err
				}
			}
			cfg, err := common.LoadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = common.NewLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(a.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env, or $ENV_FILE)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL)")

	root.AddCommand(
		newParseCommand(a),
		newBatchCommand(a),
		newWatchCommand(a),
		newSchemaCommand(),
	)
	return root
}
