// Package audit reconciles an insurer's settlement against the clinic's
// invoice and the coverage contract, and detects billing fragmentation and
// opacity. Run is a pure function of its input: no I/O, no shared state.
package audit

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

const (
	DefaultOpacityThreshold = 60
	DefaultWorkers          = 1

	// CriticalErrorMarker prefixes the report of an audit that could not run.
	CriticalErrorMarker = "CRITICAL ERROR"
)

// DefaultSystemicM3Fraction is the share of analyzed copay routed through M3
// lines that marks the pattern as systemic.
var DefaultSystemicM3Fraction = decimal.RequireFromString("0.10")

// Options tunes one audit. The zero value is not usable; start from DefaultOptions.
type Options struct {
	OpacityThreshold   int
	SystemicM3Fraction decimal.Decimal
	GenericBucketCodes []string
	// Workers bounds concurrent row construction. Output is identical for any value.
	Workers int
}

func DefaultOptions() Options {
	return Options{
		OpacityThreshold:   DefaultOpacityThreshold,
		SystemicM3Fraction: DefaultSystemicM3Fraction,
		GenericBucketCodes: append([]string(nil), DefaultGenericBucketCodes...),
		Workers:            DefaultWorkers,
	}
}

// WithInputConfig applies per-input overrides. Non-positive thresholds and
// fractions outside [0, 1] are ignored, matching config file validation.
func (o Options) WithInputConfig(cfg *model.InputConfig) Options {
	if cfg == nil {
		return o
	}
	if cfg.OpacityThreshold != nil && *cfg.OpacityThreshold > 0 {
		o.OpacityThreshold = *cfg.OpacityThreshold
	}
	if cfg.SystemicM3Fraction != nil && *cfg.SystemicM3Fraction >= 0 && *cfg.SystemicM3Fraction <= 1 {
		o.SystemicM3Fraction = decimal.NewFromFloat(*cfg.SystemicM3Fraction)
	}
	if len(cfg.GenericBucketCodes) > 0 {
		o.GenericBucketCodes = append([]string(nil), cfg.GenericBucketCodes...)
	}
	return o
}

// InputError reports the input categories that were empty.
type InputError struct {
	Missing []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("missing required input: %s", strings.Join(e.Missing, ", "))
}

// lineContext is everything the classifier and scorer know about one line.
// Fields are filled in stage order and never changed afterwards.
type lineContext struct {
	line     model.AuthorizationLine
	folded   string
	generic  bool
	event    model.EventModel
	trace    model.MatchTrace
	contract model.ContractCheck
}

func (lc *lineContext) zeroCoverageWithCopay() bool {
	return lc.line.CoveredAmount == 0 && lc.line.PatientCopay > 0
}

func (lc *lineContext) hasTerm(terms []string) (string, bool) {
	return normalize.HasAnyTerm(lc.folded, terms)
}

// auditContext is the read-only state shared by all rows of one audit.
type auditContext struct {
	index   *BillIndex
	event   model.EventModel
	rules   []model.ContractRule
	generic map[string]struct{}
	opts    Options
}

func (ac *auditContext) buildRow(line model.AuthorizationLine) model.AuditRow {
	_, generic := ac.generic[normalize.NormalizeCode(line.Code)]
	lc := &lineContext{
		line:    line,
		folded:  normalize.FoldText(line.Description),
		generic: generic,
		event:   ac.event,
	}
	lc.trace = Match(ac.index, line)
	lc.contract = EvaluateContract(line, ac.rules)

	return model.AuditRow{
		Line:          line,
		Match:         lc.trace,
		Contract:      lc.contract,
		Fragmentation: Classify(lc),
		Opacity:       ScoreOpacity(lc, ac.opts.OpacityThreshold),
		ArithmeticGap: int64(line.TotalValue) - int64(line.CoveredAmount) - int64(line.PatientCopay),
	}
}

// Run audits one input. When a whole input category is empty it returns an
// error-shaped output together with an *InputError.
func Run(in model.Input, opts Options) (*model.Output, error) {
	opts = opts.WithInputConfig(in.Config)
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}

	if err := checkInput(in); err != nil {
		return errorOutput(err), err
	}

	ac := &auditContext{
		index:   NewBillIndex(in.Bill.Items),
		event:   InferEventModel(in.Bill.Items),
		rules:   in.Contract.Rules,
		generic: normalize.CodeSet(opts.GenericBucketCodes),
		opts:    opts,
	}

	all := in.Authorization.Lines()
	lines := make([]model.AuthorizationLine, 0, len(all))
	for _, l := range all {
		if l.TotalValue == 0 {
			continue
		}
		lines = append(lines, l)
	}

	rows := make([]model.AuditRow, len(lines))
	if opts.Workers == 1 {
		for i, l := range lines {
			rows[i] = ac.buildRow(l)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(opts.Workers)
		for i, l := range lines {
			g.Go(func() error {
				rows[i] = ac.buildRow(l)
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := Aggregate(rows, opts)
	summary.LinesTotal = len(all)
	summary.LinesSkipped = len(all) - len(lines)

	out := &model.Output{
		Summary:    summary,
		EventModel: ac.event,
		Matrix:     BuildMatrix(rows),
		AuditRows:  rows,
	}
	out.ReportText = BuildReport(out)
	out.ComplaintText = BuildComplaint(out)
	return out, nil
}

func checkInput(in model.Input) *InputError {
	var missing []string
	if len(in.Bill.Items) == 0 {
		missing = append(missing, "bill.items")
	}
	if len(in.Authorization.Folios) == 0 {
		missing = append(missing, "authorization.folios")
	}
	if len(in.Contract.Rules) == 0 {
		missing = append(missing, "contract.rules")
	}
	if len(missing) > 0 {
		return &InputError{Missing: missing}
	}
	return nil
}

func errorOutput(err *InputError) *model.Output {
	return &model.Output{
		EventModel: model.EventModel{
			PrincipalAct:     model.ActGeneralHospitalization,
			DetectedPackages: []model.Package{},
		},
		Summary: model.Summary{
			Systemic: model.Systemic{Reasons: []string{}},
		},
		Matrix:    []model.FindingRow{},
		AuditRows: []model.AuditRow{},
		ReportText: fmt.Sprintf("%s: %s. The audit requires the invoice, the settlement and the contract; "+
			"no line was analyzed.\n", CriticalErrorMarker, err.Error()),
		Error: err.Error(),
	}
}

// BuildMatrix flattens rows for display.
func BuildMatrix(rows []model.AuditRow) []model.FindingRow {
	matrix := make([]model.FindingRow, 0, len(rows))
	for _, r := range rows {
		matrix = append(matrix, model.FindingRow{
			LineID:         r.Line.ID,
			FolioID:        r.Line.FolioID,
			Code:           r.Line.Code,
			Description:    r.Line.Description,
			TotalValue:     r.Line.TotalValue,
			CoveredAmount:  r.Line.CoveredAmount,
			PatientCopay:   r.Line.PatientCopay,
			MatchStatus:    r.Match.Status,
			Domain:         r.Contract.Domain,
			ContractState:  r.Contract.State,
			Level:          r.Fragmentation.Level,
			Motor:          r.Fragmentation.Motor,
			EconomicImpact: r.Fragmentation.EconomicImpact,
			OpacityScore:   r.Opacity.Score,
			OpacityApplies: r.Opacity.Applies,
		})
	}
	return matrix
}
