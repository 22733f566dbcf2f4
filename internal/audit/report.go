package audit

import (
	"fmt"
	"strings"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

const complaintJustification = "The lines above were charged to the patient without a basis that can be " +
	"verified against the clinic's itemized invoice or the coverage contract. Under the patient's " +
	"right to clear and itemized billing information, the insurer and the provider are asked to " +
	"disclose the detailed composition of each charge and to reassess its coverage, refunding any " +
	"amount that cannot be substantiated."

const separator = "------------------------------------------------------------"

// BuildReport renders the technical audit report.
func BuildReport(out *model.Output) string {
	var b strings.Builder
	s := out.Summary

	b.WriteString("TECHNICAL BILLING AUDIT REPORT\n")
	b.WriteString(separator + "\n\n")

	b.WriteString("EVENT MODEL\n")
	fmt.Fprintf(&b, "  Principal act:       %s\n", out.EventModel.PrincipalAct)
	fmt.Fprintf(&b, "  Detected packages:   %s\n", joinPackages(out.EventModel.DetectedPackages))
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	fmt.Fprintf(&b, "  Lines audited:       %d of %d (%d zero-value skipped)\n", s.LinesAudited, s.LinesTotal, s.LinesSkipped)
	fmt.Fprintf(&b, "  Copay analyzed:      %s\n", s.TotalAnalyzed)
	fmt.Fprintf(&b, "  Fragmentation:       %s over %d lines (M1 %d, M2 %d, M3 %d)\n",
		s.TotalFragmentationImpact, s.FragmentedLines, s.MotorCounts.M1, s.MotorCounts.M2, s.MotorCounts.M3)
	fmt.Fprintf(&b, "  Coverage shortfall:  %s\n", s.TotalCoverageShortfall)
	fmt.Fprintf(&b, "  Global opacity:      %d (threshold %d) %s\n", s.GlobalOpacity.Score, s.GlobalOpacity.Threshold, verdict(s.GlobalOpacity.Applies))
	fmt.Fprintf(&b, "  Opacity-flagged:     %d lines\n", s.OpacityFlaggedLines)
	fmt.Fprintf(&b, "  Systemic pattern:    %s\n", verdict(s.Systemic.Applies))
	for _, reason := range s.Systemic.Reasons {
		fmt.Fprintf(&b, "    - %s\n", reason)
	}
	if s.InconsistentLines > 0 {
		fmt.Fprintf(&b, "  Inconsistent lines:  %d (total differs from coverage plus copay)\n", s.InconsistentLines)
	}
	b.WriteString("\n")

	b.WriteString("FINDINGS\n")
	findings := 0
	for _, r := range out.AuditRows {
		if r.Fragmentation.Level == model.LevelCorrect && !r.Opacity.Applies {
			continue
		}
		findings++
		writeFinding(&b, findings, r)
	}
	if findings == 0 {
		b.WriteString("  No fragmentation or opacity findings.\n")
	}
	return b.String()
}

func writeFinding(b *strings.Builder, n int, r model.AuditRow) {
	l := r.Line
	fmt.Fprintf(b, "  [%d] Folio %s, line %s, code %s: %s\n", n, l.FolioID, l.ID, l.Code, l.Description)
	fmt.Fprintf(b, "      Total %s, covered %s, copay %s\n", l.TotalValue, l.CoveredAmount, l.PatientCopay)
	if r.ArithmeticGap != 0 {
		fmt.Fprintf(b, "      Arithmetic gap: %s\n", normalize.FormatAmount(r.ArithmeticGap))
	}
	fmt.Fprintf(b, "      Match: %s\n", r.Match.Status)
	for _, a := range r.Match.Attempts {
		fmt.Fprintf(b, "        %-18s %-7s %s\n", a.Strategy, a.Outcome, a.Details)
	}
	fmt.Fprintf(b, "      Contract: %s (%s)", r.Contract.State, r.Contract.Domain)
	if r.Contract.Note != "" {
		fmt.Fprintf(b, ", %s", r.Contract.Note)
	}
	b.WriteString("\n")
	if r.Fragmentation.Level != model.LevelCorrect {
		fmt.Fprintf(b, "      Pattern: %s %s, impact %s\n", r.Fragmentation.Motor, r.Fragmentation.Motor.Label(), r.Fragmentation.EconomicImpact)
		fmt.Fprintf(b, "      Rationale: %s\n", r.Fragmentation.Rationale)
	}
	fmt.Fprintf(b, "      Opacity: %d %s\n", r.Opacity.Score, verdict(r.Opacity.Applies))
	for _, p := range r.Opacity.Breakdown {
		fmt.Fprintf(b, "        +%-3d %s\n", p.Points, p.Criterion)
	}
}

// BuildComplaint renders the complaint letter over opacity-flagged lines.
func BuildComplaint(out *model.Output) string {
	var flagged []model.AuditRow
	for _, r := range out.AuditRows {
		if r.Opacity.Applies {
			flagged = append(flagged, r)
		}
	}

	var b strings.Builder
	b.WriteString("COMPLAINT: REQUEST FOR BILLING TRANSPARENCY\n")
	b.WriteString(separator + "\n\n")
	if len(flagged) == 0 {
		b.WriteString("No line reached the opacity threshold. No claim is generated.\n")
		return b.String()
	}

	b.WriteString("The following settlement lines are disputed:\n\n")
	var total model.Money
	for i, r := range flagged {
		total += r.Line.PatientCopay
		fmt.Fprintf(&b, "  %d. Folio %s, code %s, %q: copay %s (opacity %d)\n",
			i+1, r.Line.FolioID, r.Line.Code, r.Line.Description, r.Line.PatientCopay, r.Opacity.Score)
	}
	fmt.Fprintf(&b, "\n  Total disputed: %s\n\n", total)
	b.WriteString(complaintJustification + "\n")
	return b.String()
}

func verdict(applies bool) string {
	if applies {
		return "APPLIES"
	}
	return "does not apply"
}

func joinPackages(pkgs []model.Package) string {
	if len(pkgs) == 0 {
		return "none"
	}
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
