package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billaudit/internal/config"
	"github.com/gyeh/billaudit/internal/db"
	"github.com/gyeh/billaudit/internal/exitcode"
	"github.com/gyeh/billaudit/internal/source"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Store a JSON or Parquet input as a case in Postgres",
	RunE:  runLoad,
}

func init() {
	addInputFlags(loadCmd, false)
	f := loadCmd.Flags()
	f.StringVar(&cfg.Label, "label", "", "Free-text label stored with the case")
	f.BoolVar(&cfg.Force, "force", false, "Store a new case even if the same input is already stored")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := cmd.Context()

	prepare(log)
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if mode, _ := cfg.Mode(); mode == config.SourceCase {
		log.Error().Msg("load reads --input or --bill/--authorization/--contract, not --case")
		os.Exit(exitcode.UsageError)
	}

	loaded := loadInput(ctx, log)

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()
	store := source.NewStore(pool, log)

	if !cfg.Force {
		id, ok, err := store.FindCase(ctx, loaded.SHA256)
		if err != nil {
			log.Error().Err(err).Msg("case lookup failed")
			os.Exit(exitcode.LoadError)
		}
		if ok {
			log.Info().
				Str("case_id", id.String()).
				Str("sha256", loaded.SHA256).
				Msg("input already stored, skipping (use --force to store again)")
			fmt.Println(id)
			return nil
		}
	}

	id, err := store.SaveCase(ctx, loaded.Input, cfg.Label)
	if err != nil {
		log.Error().Err(err).Msg("storing case failed")
		os.Exit(exitcode.LoadError)
	}
	fmt.Println(id)
	return nil
}
