package main

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gyeh/billaudit/internal/audit"
	"github.com/gyeh/billaudit/internal/exitcode"
	"github.com/gyeh/billaudit/internal/output"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit one case and write the result envelope",
	RunE:  runAudit,
}

func init() {
	addInputFlags(auditCmd, true)
	f := auditCmd.Flags()
	f.StringVar(&cfg.ConfigPath, "config", "", "YAML file with engine settings")
	f.StringVar(&cfg.OutputPath, "output", "-", "Result JSON path, - for stdout (.gz compresses)")
	f.StringVar(&cfg.ReportDir, "report-dir", "", "Directory for report.txt and complaint.txt")
	f.BoolVar(&cfg.FailOnFindings, "fail-on-findings", false, "Exit with a distinct code when fragmentation or opacity is found")
	f.IntVar(&cfg.Workers, "workers", 0, "Concurrent row workers (default 1)")
	f.IntVar(&cfg.OpacityThreshold, "opacity-threshold", 0, "Opacity score at which a line is flagged (default 60)")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := cmd.Context()
	prepare(log)

	opts := cfg.EngineOptions()
	loaded := loadInput(ctx, log)

	if t := opts.WithInputConfig(loaded.Input.Config).OpacityThreshold; t > audit.MaxOpacityScore {
		log.Warn().
			Int("threshold", t).
			Int("max_score", audit.MaxOpacityScore).
			Msg("opacity threshold exceeds the maximum score; no line can be flagged")
	}

	start := time.Now()
	out, runErr := audit.Run(loaded.Input, opts)
	if out == nil {
		log.Error().Err(runErr).Msg("audit failed")
		os.Exit(exitcode.AuditError)
	}

	env := output.Envelope{
		RunID:       uuid.NewString(),
		InputSHA256: loaded.SHA256,
		Result:      out,
	}
	if err := output.WriteJSON(cfg.OutputPath, env); err != nil {
		log.Error().Err(err).Str("output", cfg.OutputPath).Msg("writing result failed")
		os.Exit(exitcode.AuditError)
	}
	if cfg.ReportDir != "" {
		paths, err := output.WriteReports(cfg.ReportDir, out)
		if err != nil {
			log.Error().Err(err).Str("dir", cfg.ReportDir).Msg("writing reports failed")
			os.Exit(exitcode.AuditError)
		}
		log.Debug().Strs("files", paths).Msg("reports written")
	}

	if runErr != nil {
		var ie *audit.InputError
		if errors.As(runErr, &ie) {
			log.Error().Strs("missing", ie.Missing).Str("run_id", env.RunID).Msg("audit stopped: required input missing")
		} else {
			log.Error().Err(runErr).Msg("audit failed")
		}
		os.Exit(exitcode.AuditError)
	}

	s := out.Summary
	log.Info().
		Str("run_id", env.RunID).
		Int("lines", s.LinesAudited).
		Int("skipped", s.LinesSkipped).
		Int("fragmented", s.FragmentedLines).
		Int("opacity_flagged", s.OpacityFlaggedLines).
		Bool("systemic", s.Systemic.Applies).
		Str("impact", s.TotalFragmentationImpact.String()).
		Dur("duration", time.Since(start)).
		Msg("audit complete")

	if cfg.FailOnFindings && out.HasFindings() {
		os.Exit(exitcode.FindingsDetected)
	}
	return nil
}
