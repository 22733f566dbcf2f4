package audit

import (
	"strings"
	"testing"

	"github.com/gyeh/billaudit/internal/model"
)

func TestBuildReport_Findings(t *testing.T) {
	out, err := Run(surgicalInput(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{
		"TECHNICAL BILLING AUDIT REPORT",
		"Principal act:       SURGERY",
		"OPERATING_ROOM_RIGHT",
		"Copay analyzed:      $145,000",
		"M1 Artificial act splitting, impact $120,000",
		"M3 Untraceable generic dumping, impact $25,000",
		"+25  generic bucket code with no matched invoice item",
	} {
		if !strings.Contains(out.ReportText, want) {
			t.Errorf("report missing %q:\n%s", want, out.ReportText)
		}
	}
	if strings.Contains(out.ReportText, "line L1,") {
		t.Error("correct, non-flagged line must not get a finding block")
	}
}

func TestBuildComplaint_ListsOnlyFlaggedLines(t *testing.T) {
	out, _ := Run(surgicalInput(), DefaultOptions())
	if !strings.Contains(out.ComplaintText, `"miscellaneous supplies": copay $25,000 (opacity 65)`) {
		t.Errorf("complaint missing flagged line:\n%s", out.ComplaintText)
	}
	if strings.Contains(out.ComplaintText, "recovery suite right") {
		t.Error("M1 line below the opacity threshold must not be claimed")
	}
	if !strings.Contains(out.ComplaintText, "Total disputed: $25,000") {
		t.Errorf("complaint total:\n%s", out.ComplaintText)
	}
	if !strings.Contains(out.ComplaintText, complaintJustification) {
		t.Error("complaint must carry the justification paragraph")
	}
}

func TestBuildComplaint_NoClaim(t *testing.T) {
	out := &model.Output{AuditRows: []model.AuditRow{correctRow(100)}}
	text := BuildComplaint(out)
	if !strings.Contains(text, "No claim is generated") {
		t.Errorf("complaint:\n%s", text)
	}
	if strings.Contains(text, complaintJustification) {
		t.Error("no justification without flagged lines")
	}
}
