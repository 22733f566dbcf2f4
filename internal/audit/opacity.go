package audit

import (
	"github.com/gyeh/billaudit/internal/model"
)

// Item Opacity Points weights.
const (
	PointsGenericUnmatched    = 25
	PointsZeroCoverage        = 15
	PointsGenericVocabulary   = 10
	PointsUntraceable         = 15
	PointsUnverifiableGeneric = 10

	// MaxOpacityScore is the sum of all weights. A threshold above it never trips.
	MaxOpacityScore = PointsGenericUnmatched + PointsZeroCoverage + PointsGenericVocabulary +
		PointsUntraceable + PointsUnverifiableGeneric
)

var genericVocabularyTerms = []string{
	"not covered", "non covered", "supplies", "miscellaneous", "sundry", "various",
	"no cubierto", "insumos", "varios", "otros gastos",
}

type opacityCriterion struct {
	label  string
	points int
	holds  func(lc *lineContext) bool
}

var opacityCriteria = []opacityCriterion{
	{
		label:  "generic bucket code with no matched invoice item",
		points: PointsGenericUnmatched,
		holds:  func(lc *lineContext) bool { return lc.generic && len(lc.trace.MatchedBillItems) == 0 },
	},
	{
		label:  "zero coverage with patient copay",
		points: PointsZeroCoverage,
		holds:  func(lc *lineContext) bool { return lc.zeroCoverageWithCopay() },
	},
	{
		label:  "generic or uninformative description",
		points: PointsGenericVocabulary,
		holds: func(lc *lineContext) bool {
			_, ok := lc.hasTerm(genericVocabularyTerms)
			return ok
		},
	},
	{
		label:  "not traceable to the invoice",
		points: PointsUntraceable,
		holds:  func(lc *lineContext) bool { return lc.trace.Status == model.MatchFail },
	},
	{
		label:  "generic bucket code without a verifiable contract rule",
		points: PointsUnverifiableGeneric,
		holds:  func(lc *lineContext) bool { return lc.generic && lc.contract.State != model.ContractVerifiable },
	},
}

// ScoreOpacity sums the criteria that hold for the line. Lines with no copay
// and positive coverage are exempt and score zero.
func ScoreOpacity(lc *lineContext, threshold int) model.Opacity {
	op := model.Opacity{Breakdown: []model.OpacityPoint{}}
	if lc.line.PatientCopay == 0 && lc.line.CoveredAmount > 0 {
		op.Exempt = true
		return op
	}
	for _, c := range opacityCriteria {
		if c.holds(lc) {
			op.Score += c.points
			op.Breakdown = append(op.Breakdown, model.OpacityPoint{Criterion: c.label, Points: c.points})
		}
	}
	op.Applies = op.Score >= threshold
	return op
}
