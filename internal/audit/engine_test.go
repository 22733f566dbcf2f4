package audit

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billaudit/internal/model"
)

func rule(id string, d model.CoverageDomain) model.ContractRule {
	return model.ContractRule{ID: id, Domain: d, LiteralText: string(d) + " covered per plan"}
}

func singleFolio(lines ...model.AuthorizationLine) model.Authorization {
	return model.Authorization{Folios: []model.Folio{{FolioID: "F1", Items: lines}}}
}

// surgicalInput is a small surgical admission with one correct line, one
// split accessory act and one generic dump.
func surgicalInput() model.Input {
	return model.Input{
		Bill: model.Bill{Items: []model.BillItem{
			{ID: "B1", Description: "Derecho de pabellón", Total: 300000},
			{ID: "B2", Description: "Honorarios cirujano", Total: 500000},
		}},
		Authorization: singleFolio(
			model.AuthorizationLine{ID: "L1", Code: "2001001", Description: "Derecho de pabellon", TotalValue: 300000, CoveredAmount: 300000},
			model.AuthorizationLine{ID: "L2", Code: "2001005", Description: "recovery suite right", TotalValue: 120000, PatientCopay: 120000},
			model.AuthorizationLine{ID: "L3", Code: "3101302", Description: "miscellaneous supplies", TotalValue: 25000, PatientCopay: 25000},
			model.AuthorizationLine{ID: "L4", Code: "3101302", Description: "adjustment", TotalValue: 0},
		),
		Contract: model.Contract{Rules: []model.ContractRule{
			rule("R1", model.DomainOperatingRoom),
			rule("R2", model.DomainClinicalMaterials),
		}},
	}
}

func rowByID(t *testing.T, out *model.Output, id string) model.AuditRow {
	t.Helper()
	for _, r := range out.AuditRows {
		if r.Line.ID == id {
			return r
		}
	}
	t.Fatalf("no audit row for line %s", id)
	return model.AuditRow{}
}

func TestRun_UniqueAnchorCorrect(t *testing.T) {
	in := model.Input{
		Bill:          model.Bill{Items: []model.BillItem{{ID: "B1", Description: "Operating room right", Total: 300000}}},
		Authorization: singleFolio(model.AuthorizationLine{ID: "L1", Code: "2001001", Description: "Operating room right", TotalValue: 300000, CoveredAmount: 300000}),
		Contract:      model.Contract{Rules: []model.ContractRule{rule("R1", model.DomainOperatingRoom)}},
	}
	out, err := Run(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := rowByID(t, out, "L1")
	if r.Match.Status != model.MatchOK {
		t.Errorf("match status = %s, want OK", r.Match.Status)
	}
	if len(r.Match.MatchedBillItems) != 1 || r.Match.MatchedBillItems[0] != "B1" {
		t.Errorf("matched = %v, want [B1]", r.Match.MatchedBillItems)
	}
	if r.Fragmentation.Level != model.LevelCorrect || r.Fragmentation.Motor != model.MotorNone {
		t.Errorf("classification = %+v, want CORRECT/NONE", r.Fragmentation)
	}
	if r.Opacity.Applies || r.Opacity.Score != 0 {
		t.Errorf("opacity = %+v, want score 0 not applying", r.Opacity)
	}
	if r.Contract.State != model.ContractVerifiable {
		t.Errorf("contract state = %s", r.Contract.State)
	}
	if out.HasFindings() {
		t.Error("expected no findings")
	}
	if !strings.Contains(out.ComplaintText, "No claim is generated") {
		t.Errorf("complaint should state no claim:\n%s", out.ComplaintText)
	}
}

func TestRun_ArtificialActSplitting(t *testing.T) {
	out, err := Run(surgicalInput(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := rowByID(t, out, "L2")
	if r.Fragmentation.Level != model.LevelStructuralFragmentation || r.Fragmentation.Motor != model.MotorM1 {
		t.Fatalf("classification = %+v, want STRUCTURAL_FRAGMENTATION/M1", r.Fragmentation)
	}
	if r.Fragmentation.EconomicImpact != 120000 {
		t.Errorf("impact = %d, want 120000", r.Fragmentation.EconomicImpact)
	}
	if r.Fragmentation.Rationale == "" {
		t.Error("expected a rationale")
	}
}

func TestRun_GenericDumpingWithOpacity(t *testing.T) {
	out, err := Run(surgicalInput(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := rowByID(t, out, "L3")
	if r.Fragmentation.Motor != model.MotorM3 {
		t.Fatalf("motor = %s, want M3", r.Fragmentation.Motor)
	}
	if r.Match.Status != model.MatchFail {
		t.Errorf("match status = %s, want FAIL", r.Match.Status)
	}
	want := PointsGenericUnmatched + PointsZeroCoverage + PointsGenericVocabulary + PointsUntraceable
	if r.Opacity.Score != want || want != 65 {
		t.Errorf("opacity score = %d, want 65", r.Opacity.Score)
	}
	if !r.Opacity.Applies {
		t.Error("opacity should apply at 65 >= 60")
	}
	if len(r.Opacity.Breakdown) != 4 {
		t.Errorf("breakdown = %+v, want 4 criteria", r.Opacity.Breakdown)
	}
	if !strings.Contains(out.ComplaintText, "miscellaneous supplies") {
		t.Errorf("complaint should list the flagged line:\n%s", out.ComplaintText)
	}
}

func TestRun_GenericDumpingWithoutContractRule(t *testing.T) {
	in := surgicalInput()
	in.Contract.Rules = []model.ContractRule{rule("R1", model.DomainOperatingRoom)}
	out, err := Run(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := rowByID(t, out, "L3")
	if r.Contract.State != model.ContractNotVerifiable {
		t.Fatalf("contract state = %s", r.Contract.State)
	}
	if r.Opacity.Score != MaxOpacityScore {
		t.Errorf("score = %d, want %d", r.Opacity.Score, MaxOpacityScore)
	}
}

func TestRun_DescriptionHitWithoutAmountStaysUnmatched(t *testing.T) {
	in := model.Input{
		Bill: model.Bill{Items: []model.BillItem{{ID: "B1", Description: "Miscellaneous supplies", Total: 9999}}},
		Authorization: singleFolio(
			model.AuthorizationLine{ID: "L1", Code: "3101302", Description: "miscellaneous supplies", TotalValue: 25000, PatientCopay: 25000},
		),
		Contract: model.Contract{Rules: []model.ContractRule{rule("R1", model.DomainOperatingRoom)}},
	}
	out, err := Run(in, DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := rowByID(t, out, "L1")
	if r.Match.Attempts[0].Outcome != model.MatchOK || r.Match.Attempts[1].Outcome != model.MatchFail {
		t.Fatalf("outcomes = %s, %s", r.Match.Attempts[0].Outcome, r.Match.Attempts[1].Outcome)
	}
	if len(r.Match.MatchedBillItems) != 0 {
		t.Errorf("matched = %v, want empty", r.Match.MatchedBillItems)
	}
	want := PointsGenericUnmatched + PointsZeroCoverage + PointsGenericVocabulary + PointsUnverifiableGeneric
	if r.Opacity.Score != want || want != 60 {
		t.Errorf("opacity score = %d, want 60", r.Opacity.Score)
	}
	if !r.Opacity.Applies {
		t.Error("opacity should apply at 60")
	}
	if !strings.Contains(out.ComplaintText, "miscellaneous supplies") {
		t.Errorf("complaint should list the flagged line:\n%s", out.ComplaintText)
	}
}

func TestRun_ThresholdAboveMaximumNeverApplies(t *testing.T) {
	if MaxOpacityScore != 75 {
		t.Fatalf("MaxOpacityScore = %d, want 75", MaxOpacityScore)
	}
	in := surgicalInput()
	in.Contract.Rules = []model.ContractRule{rule("R1", model.DomainOperatingRoom)}

	opts := DefaultOptions()
	opts.OpacityThreshold = MaxOpacityScore
	out, _ := Run(in, opts)
	if !out.Summary.GlobalOpacity.Applies {
		t.Fatal("threshold 75 should be reachable")
	}

	opts.OpacityThreshold = MaxOpacityScore + 1
	out, _ = Run(in, opts)
	if out.Summary.GlobalOpacity.Score != MaxOpacityScore {
		t.Errorf("global score = %d, want %d", out.Summary.GlobalOpacity.Score, MaxOpacityScore)
	}
	if out.Summary.GlobalOpacity.Applies {
		t.Error("threshold 76 must never apply")
	}
	for _, r := range out.AuditRows {
		if r.Opacity.Applies {
			t.Errorf("line %s applies above the maximum score", r.Line.ID)
		}
	}
}

func TestRun_OpacityBound(t *testing.T) {
	out, _ := Run(surgicalInput(), DefaultOptions())
	for _, r := range out.AuditRows {
		if r.Opacity.Score < 0 || r.Opacity.Score > MaxOpacityScore {
			t.Errorf("line %s score %d out of [0, %d]", r.Line.ID, r.Opacity.Score, MaxOpacityScore)
		}
	}
}

func TestRun_MissingContractStops(t *testing.T) {
	in := surgicalInput()
	in.Contract.Rules = nil
	out, err := Run(in, DefaultOptions())

	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *InputError, got %v", err)
	}
	if len(inputErr.Missing) != 1 || inputErr.Missing[0] != "contract.rules" {
		t.Errorf("missing = %v", inputErr.Missing)
	}
	if !strings.HasPrefix(out.ReportText, CriticalErrorMarker) {
		t.Errorf("report should start with %q: %q", CriticalErrorMarker, out.ReportText)
	}
	if len(out.AuditRows) != 0 || len(out.Matrix) != 0 {
		t.Error("no rows expected on stop")
	}

	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"auditRows":[]`)) {
		t.Errorf("auditRows should encode as an empty list: %s", data)
	}
}

func TestRun_AllInputsMissing(t *testing.T) {
	_, err := Run(model.Input{}, DefaultOptions())
	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *InputError, got %v", err)
	}
	if len(inputErr.Missing) != 3 {
		t.Errorf("missing = %v, want all three categories", inputErr.Missing)
	}
}

func TestRun_SkipsZeroValueLines(t *testing.T) {
	out, err := Run(surgicalInput(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Summary.LinesTotal != 4 || out.Summary.LinesAudited != 3 || out.Summary.LinesSkipped != 1 {
		t.Errorf("lines total/audited/skipped = %d/%d/%d, want 4/3/1",
			out.Summary.LinesTotal, out.Summary.LinesAudited, out.Summary.LinesSkipped)
	}
	for _, r := range out.AuditRows {
		if r.Line.ID == "L4" {
			t.Error("zero-value line must not be audited")
		}
	}
	if len(out.Matrix) != len(out.AuditRows) {
		t.Errorf("matrix has %d rows, audit has %d", len(out.Matrix), len(out.AuditRows))
	}
}

func TestRun_Conservation(t *testing.T) {
	out, _ := Run(surgicalInput(), DefaultOptions())
	var sum model.Money
	for _, r := range out.AuditRows {
		if r.Fragmentation.Level == model.LevelCorrect {
			if r.Fragmentation.EconomicImpact != 0 {
				t.Errorf("correct line %s carries impact %d", r.Line.ID, r.Fragmentation.EconomicImpact)
			}
			continue
		}
		if r.Fragmentation.EconomicImpact != r.Line.PatientCopay {
			t.Errorf("line %s impact %d != copay %d", r.Line.ID, r.Fragmentation.EconomicImpact, r.Line.PatientCopay)
		}
		sum += r.Fragmentation.EconomicImpact
	}
	if out.Summary.TotalFragmentationImpact != sum {
		t.Errorf("total impact = %d, rows sum to %d", out.Summary.TotalFragmentationImpact, sum)
	}
	if sum != 145000 {
		t.Errorf("impact = %d, want 145000", sum)
	}
}

func TestRun_Deterministic(t *testing.T) {
	in := surgicalInput()
	first, _ := Run(in, DefaultOptions())
	want, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, workers := range []int{1, 2, 8} {
		opts := DefaultOptions()
		opts.Workers = workers
		out, _ := Run(in, opts)
		got, _ := json.Marshal(out)
		if !bytes.Equal(got, want) {
			t.Errorf("workers=%d: output differs from first run", workers)
		}
	}
}

func TestRun_InputConfigOverridesThreshold(t *testing.T) {
	in := surgicalInput()
	threshold := 70
	in.Config = &model.InputConfig{OpacityThreshold: &threshold}
	out, _ := Run(in, DefaultOptions())
	if out.Summary.GlobalOpacity.Threshold != 70 {
		t.Errorf("threshold = %d, want 70", out.Summary.GlobalOpacity.Threshold)
	}
	if rowByID(t, out, "L3").Opacity.Applies {
		t.Error("65 must not apply at threshold 70")
	}
}

func TestRun_CustomGenericBucketCodes(t *testing.T) {
	in := surgicalInput()
	in.Config = &model.InputConfig{GenericBucketCodes: []string{"9999999"}}
	out, _ := Run(in, DefaultOptions())
	r := rowByID(t, out, "L3")
	if r.Fragmentation.Motor == model.MotorM3 {
		t.Error("3101302 is no longer a generic bucket, M3 must not fire")
	}
}

func TestRun_ArithmeticGapRecorded(t *testing.T) {
	in := surgicalInput()
	in.Authorization.Folios[0].Items[1].CoveredAmount = 0
	in.Authorization.Folios[0].Items[1].PatientCopay = 100000
	out, _ := Run(in, DefaultOptions())
	if rowByID(t, out, "L2").ArithmeticGap != 20000 {
		t.Errorf("gap = %d, want 20000", rowByID(t, out, "L2").ArithmeticGap)
	}
	if out.Summary.InconsistentLines != 1 {
		t.Errorf("inconsistent lines = %d, want 1", out.Summary.InconsistentLines)
	}
}

func TestWithInputConfig_IgnoresInvalidOverrides(t *testing.T) {
	zero := 0
	negative := -0.5
	opts := DefaultOptions().WithInputConfig(&model.InputConfig{
		OpacityThreshold:   &zero,
		SystemicM3Fraction: &negative,
	})
	if opts.OpacityThreshold != DefaultOpacityThreshold {
		t.Errorf("threshold = %d", opts.OpacityThreshold)
	}
	if !opts.SystemicM3Fraction.Equal(DefaultSystemicM3Fraction) {
		t.Errorf("fraction = %s", opts.SystemicM3Fraction)
	}

	above := 1.5
	opts = DefaultOptions().WithInputConfig(&model.InputConfig{SystemicM3Fraction: &above})
	if !opts.SystemicM3Fraction.Equal(DefaultSystemicM3Fraction) {
		t.Errorf("fraction above 1 = %s, want default", opts.SystemicM3Fraction)
	}

	one := 1.0
	opts = DefaultOptions().WithInputConfig(&model.InputConfig{SystemicM3Fraction: &one})
	if !opts.SystemicM3Fraction.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fraction = %s, want 1", opts.SystemicM3Fraction)
	}
}
