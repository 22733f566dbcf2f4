package audit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billaudit/internal/model"
)

// Occurrence counts at which a motor's pattern is considered systemic.
const (
	SystemicM1Count = 3
	SystemicM2Count = 5
)

// Aggregate folds the rows into a Summary. Line totals that depend on
// skipped lines are filled in by Run.
func Aggregate(rows []model.AuditRow, opts Options) model.Summary {
	s := model.Summary{
		LinesAudited: len(rows),
		GlobalOpacity: model.GlobalOpacity{
			Threshold: opts.OpacityThreshold,
		},
		Systemic: model.Systemic{Reasons: []string{}},
	}

	for _, r := range rows {
		s.TotalAnalyzed += r.Line.PatientCopay
		s.TotalCoverageShortfall += r.Contract.CoverageShortfall
		if r.ArithmeticGap != 0 {
			s.InconsistentLines++
		}

		if r.Fragmentation.Level != model.LevelCorrect {
			s.FragmentedLines++
			s.TotalFragmentationImpact += r.Fragmentation.EconomicImpact
			switch r.Fragmentation.Motor {
			case model.MotorM1:
				s.MotorCounts.M1++
			case model.MotorM2:
				s.MotorCounts.M2++
			case model.MotorM3:
				s.MotorCounts.M3++
				s.M3Copay += r.Line.PatientCopay
			}
		}

		if r.Opacity.Score > s.GlobalOpacity.Score {
			s.GlobalOpacity.Score = r.Opacity.Score
		}
		if r.Opacity.Applies {
			s.OpacityFlaggedLines++
		}
	}
	s.GlobalOpacity.Applies = len(rows) > 0 && s.GlobalOpacity.Score >= opts.OpacityThreshold

	total := decimal.NewFromInt(int64(s.TotalAnalyzed))
	m3 := decimal.NewFromInt(int64(s.M3Copay))
	s.M3Share = "0.0000"
	if s.TotalAnalyzed > 0 {
		s.M3Share = m3.Div(total).StringFixed(4)
	}

	if s.MotorCounts.M1 >= SystemicM1Count {
		s.Systemic.Reasons = append(s.Systemic.Reasons,
			fmt.Sprintf("artificial act splitting on %d lines (threshold %d)", s.MotorCounts.M1, SystemicM1Count))
	}
	if s.MotorCounts.M2 >= SystemicM2Count {
		s.Systemic.Reasons = append(s.Systemic.Reasons,
			fmt.Sprintf("package unbundling on %d lines (threshold %d)", s.MotorCounts.M2, SystemicM2Count))
	}
	// m3 / total >= fraction, compared without division.
	if s.TotalAnalyzed > 0 && s.M3Copay > 0 && m3.GreaterThanOrEqual(opts.SystemicM3Fraction.Mul(total)) {
		s.Systemic.Reasons = append(s.Systemic.Reasons,
			fmt.Sprintf("generic dumping carries %s of analyzed copay (threshold %s)",
				m3.Div(total).Mul(decimal.NewFromInt(100)).StringFixed(1)+"%",
				opts.SystemicM3Fraction.Mul(decimal.NewFromInt(100)).StringFixed(1)+"%"))
	}
	s.Systemic.Applies = len(s.Systemic.Reasons) > 0
	return s
}
