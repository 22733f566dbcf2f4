package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/billaudit/internal/config"
	"github.com/gyeh/billaudit/internal/db"
	"github.com/gyeh/billaudit/internal/exitcode"
	"github.com/gyeh/billaudit/internal/logging"
	"github.com/gyeh/billaudit/internal/source"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "billaudit",
	Short: "Clinic bill vs insurer settlement reconciliation and fragmentation audit",
	Long: "Reconciles a clinic's itemized invoice against the insurer's settlement (PAM) and the " +
		"coverage contract, detects billing fragmentation and opacity, and drafts the technical " +
		"report and complaint.",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("BILLAUDIT_DB_URL"), "Postgres connection string for the case store (or set BILLAUDIT_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

// addInputFlags registers the input source flags shared by audit, plan and load.
func addInputFlags(cmd *cobra.Command, withCase bool) {
	f := cmd.Flags()
	f.StringVar(&cfg.InputPath, "input", "", "JSON input document (.json or .json.gz)")
	f.StringVar(&cfg.BillPath, "bill", "", "Parquet file of invoice items")
	f.StringVar(&cfg.AuthorizationPath, "authorization", "", "Parquet file of settlement lines")
	f.StringVar(&cfg.ContractPath, "contract", "", "Contract YAML, used with --bill and --authorization")
	if withCase {
		f.StringVar(&cfg.CaseID, "case", "", "Stored case id to read from the case store")
	}
}

func newLogger() zerolog.Logger {
	log, err := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcode.UsageError)
	}
	return log
}

// prepare merges the optional config file and validates the run.
func prepare(log zerolog.Logger) {
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			log.Error().Err(err).Str("config", cfg.ConfigPath).Msg("config file invalid")
			os.Exit(exitcode.ValidationError)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
}

// loadInput reads the selected input, opening the case store only when a
// case id was given.
func loadInput(ctx context.Context, log zerolog.Logger) *source.Loaded {
	var cases source.CaseReader
	if cfg.CaseID != "" {
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		cases = source.NewStore(pool, log)
	}

	loaded, err := source.Load(ctx, log, &cfg, cases)
	if err != nil {
		var pe *source.PhaseError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("loading input failed")
		} else {
			log.Error().Err(err).Msg("loading input failed")
		}
		os.Exit(exitcode.LoadError)
	}
	return loaded
}
