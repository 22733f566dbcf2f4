package model

// MatchStrategy names one attempt of the match cascade.
type MatchStrategy string

const (
	StrategyDescriptionFamily MatchStrategy = "DESCRIPTION_FAMILY"
	StrategyAmountExact       MatchStrategy = "AMOUNT_EXACT"
)

// MatchOutcome is the result of one match attempt. OK > PARTIAL > FAIL.
type MatchOutcome string

const (
	MatchOK      MatchOutcome = "OK"
	MatchPartial MatchOutcome = "PARTIAL"
	MatchFail    MatchOutcome = "FAIL"
)

func (o MatchOutcome) rank() int {
	switch o {
	case MatchOK:
		return 2
	case MatchPartial:
		return 1
	default:
		return 0
	}
}

// BestOutcome returns the stronger of two outcomes.
func BestOutcome(a, b MatchOutcome) MatchOutcome {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

type MatchAttempt struct {
	Strategy MatchStrategy `json:"strategy"`
	Outcome  MatchOutcome  `json:"outcome"`
	Details  string        `json:"details"`
}

// MatchTrace records every attempt for one authorization line, in order.
type MatchTrace struct {
	Attempts         []MatchAttempt `json:"attempts"`
	Status           MatchOutcome   `json:"status"`
	MatchedBillItems []string       `json:"matchedBillItems"`
}

// DomainSource tells how a line's coverage domain was resolved.
type DomainSource string

const (
	DomainFromCodeTable DomainSource = "CODE_TABLE"
	DomainFromKeywords  DomainSource = "DESCRIPTION_KEYWORDS"
	DomainFromDefault   DomainSource = "DEFAULT"
)

type ContractState string

const (
	ContractVerifiable    ContractState = "VERIFIABLE"
	ContractNotVerifiable ContractState = "NOT_VERIFIABLE_DUE_TO_CONTRACT"
)

// ContractCheck is the contract evaluation of one line. ExpectedCoverage is
// only set when the applicable rule states a coverage percentage.
type ContractCheck struct {
	Domain            CoverageDomain `json:"domain"`
	DomainSource      DomainSource   `json:"domainSource"`
	State             ContractState  `json:"state"`
	RuleID            string         `json:"ruleId,omitempty"`
	RuleText          string         `json:"ruleText,omitempty"`
	Note              string         `json:"note,omitempty"`
	ExpectedCoverage  *Money         `json:"expectedCoverage,omitempty"`
	CoverageShortfall Money          `json:"coverageShortfall"`
}

type Level string

const (
	LevelCorrect                 Level = "CORRECT"
	LevelStructuralFragmentation Level = "STRUCTURAL_FRAGMENTATION"
)

// Motor identifies the fragmentation detector that fired.
type Motor string

const (
	MotorNone Motor = "NONE"
	MotorM1   Motor = "M1"
	MotorM2   Motor = "M2"
	MotorM3   Motor = "M3"
)

// Label returns the human-readable pattern name.
func (m Motor) Label() string {
	switch m {
	case MotorM1:
		return "Artificial act splitting"
	case MotorM2:
		return "Package unbundling"
	case MotorM3:
		return "Untraceable generic dumping"
	default:
		return "None"
	}
}

type Classification struct {
	Level          Level  `json:"level"`
	Motor          Motor  `json:"motor"`
	Rationale      string `json:"rationale,omitempty"`
	EconomicImpact Money  `json:"economicImpact"`
}

type OpacityPoint struct {
	Criterion string `json:"criterion"`
	Points    int    `json:"points"`
}

// Opacity is the Item Opacity Points result of one line.
type Opacity struct {
	Score     int            `json:"score"`
	Applies   bool           `json:"applies"`
	Exempt    bool           `json:"exempt"`
	Breakdown []OpacityPoint `json:"breakdown"`
}

// AuditRow is the full audit result for one authorization line.
// ArithmeticGap is TotalValue - (CoveredAmount + PatientCopay).
type AuditRow struct {
	Line          AuthorizationLine `json:"line"`
	Match         MatchTrace        `json:"match"`
	Contract      ContractCheck     `json:"contract"`
	Fragmentation Classification    `json:"fragmentation"`
	Opacity       Opacity           `json:"opacity"`
	ArithmeticGap int64             `json:"arithmeticGap"`
}

// FindingRow is the flattened display form of an AuditRow.
type FindingRow struct {
	LineID         string         `json:"lineId"`
	FolioID        string         `json:"folioId"`
	Code           string         `json:"code"`
	Description    string         `json:"description"`
	TotalValue     Money          `json:"totalValue"`
	CoveredAmount  Money          `json:"coveredAmount"`
	PatientCopay   Money          `json:"patientCopay"`
	MatchStatus    MatchOutcome   `json:"matchStatus"`
	Domain         CoverageDomain `json:"domain"`
	ContractState  ContractState  `json:"contractState"`
	Level          Level          `json:"level"`
	Motor          Motor          `json:"motor"`
	EconomicImpact Money          `json:"economicImpact"`
	OpacityScore   int            `json:"opacityScore"`
	OpacityApplies bool           `json:"opacityApplies"`
}

type PrincipalAct string

const (
	ActSurgery                PrincipalAct = "SURGERY"
	ActGeneralHospitalization PrincipalAct = "GENERAL_HOSPITALIZATION"
)

// Package is a bundled charge whose price is expected to include accessory costs.
type Package string

const (
	PackageOperatingRoomRight Package = "OPERATING_ROOM_RIGHT"
	PackageIntegralDayBed     Package = "INTEGRAL_DAY_BED"
	PackageSurgical           Package = "SURGICAL_PACKAGE"
)

type EventModel struct {
	PrincipalAct     PrincipalAct `json:"principalAct"`
	DetectedPackages []Package    `json:"detectedPackages"`
}

type MotorCounts struct {
	M1 int `json:"m1"`
	M2 int `json:"m2"`
	M3 int `json:"m3"`
}

type GlobalOpacity struct {
	Score     int  `json:"score"`
	Threshold int  `json:"threshold"`
	Applies   bool `json:"applies"`
}

type Systemic struct {
	Applies bool     `json:"applies"`
	Reasons []string `json:"reasons"`
}

// Summary aggregates all audit rows. It carries no state of its own.
type Summary struct {
	LinesTotal               int           `json:"linesTotal"`
	LinesAudited             int           `json:"linesAudited"`
	LinesSkipped             int           `json:"linesSkipped"`
	TotalAnalyzed            Money         `json:"totalAnalyzed"`
	TotalFragmentationImpact Money         `json:"totalFragmentationImpact"`
	TotalCoverageShortfall   Money         `json:"totalCoverageShortfall"`
	FragmentedLines          int           `json:"fragmentedLines"`
	MotorCounts              MotorCounts   `json:"motorCounts"`
	M3Copay                  Money         `json:"m3Copay"`
	M3Share                  string        `json:"m3Share"`
	OpacityFlaggedLines      int           `json:"opacityFlaggedLines"`
	InconsistentLines        int           `json:"inconsistentLines"`
	GlobalOpacity            GlobalOpacity `json:"globalOpacity"`
	Systemic                 Systemic      `json:"systemic"`
}

// Output is the complete engine result for one audit.
type Output struct {
	Summary       Summary      `json:"summary"`
	EventModel    EventModel   `json:"eventModel"`
	Matrix        []FindingRow `json:"matrix"`
	AuditRows     []AuditRow   `json:"auditRows"`
	ReportText    string       `json:"reportText"`
	ComplaintText string       `json:"complaintText"`
	Error         string       `json:"error,omitempty"`
}

// HasFindings reports whether any row was fragmented or opacity-flagged.
func (o *Output) HasFindings() bool {
	return o.Summary.FragmentedLines > 0 || o.Summary.OpacityFlaggedLines > 0
}
