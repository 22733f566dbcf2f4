package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gyeh/billaudit/internal/audit"
	"github.com/gyeh/billaudit/internal/exitcode"
	"github.com/gyeh/billaudit/internal/output"
	"github.com/gyeh/billaudit/internal/source"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run: load and describe the input without auditing it",
	RunE:  runPlan,
}

func init() {
	addInputFlags(planCmd, true)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := newLogger()
	prepare(log)

	loaded := loadInput(cmd.Context(), log)
	if err := output.WriteText(os.Stdout, planText(loaded)); err != nil {
		log.Error().Err(err).Msg("writing plan failed")
		os.Exit(exitcode.UsageError)
	}
	return nil
}

func planText(loaded *source.Loaded) string {
	in := loaded.Input
	lines := in.Authorization.Lines()
	zero := 0
	for _, l := range lines {
		if l.TotalValue == 0 {
			zero++
		}
	}
	em := audit.InferEventModel(in.Bill.Items)
	st := audit.NewBillIndex(in.Bill.Items).Stats()

	var b strings.Builder
	b.WriteString("=== billaudit plan ===\n")
	fmt.Fprintf(&b, "Source:       %s\n", loaded.Mode)
	fmt.Fprintf(&b, "Input SHA256: %s\n", loaded.SHA256)
	paths := make([]string, 0, len(loaded.Files))
	for p := range loaded.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Fprintf(&b, "  %s  %s\n", loaded.Files[p], p)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Bill items:   %d\n", len(in.Bill.Items))
	fmt.Fprintf(&b, "Folios:       %d\n", len(in.Authorization.Folios))
	fmt.Fprintf(&b, "Lines:        %d (%d zero-value, skipped by the audit)\n", len(lines), zero)
	fmt.Fprintf(&b, "Rules:        %d\n", len(in.Contract.Rules))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Principal act: %s\n", em.PrincipalAct)
	if len(em.DetectedPackages) == 0 {
		b.WriteString("Packages:      none\n")
	}
	for _, p := range em.DetectedPackages {
		fmt.Fprintf(&b, "Package:       %s\n", p)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Amount buckets:      %d (%d shared by several items)\n", st.AmountBuckets, st.SharedAmounts)
	fmt.Fprintf(&b, "Description buckets: %d\n", st.DescriptionBuckets)
	return b.String()
}
