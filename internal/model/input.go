package model

// BillItem is one line of the clinic's invoice.
type BillItem struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Quantity    *float64 `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	UnitPrice   *Money   `json:"unitPrice,omitempty" yaml:"unit_price,omitempty"`
	Total       Money    `json:"total" yaml:"total"`
	Code        string   `json:"code,omitempty" yaml:"code,omitempty"`
}

// AuthorizationLine is one line of the insurer's settlement (PAM).
// TotalValue == CoveredAmount + PatientCopay is not guaranteed.
type AuthorizationLine struct {
	ID            string `json:"id" yaml:"id"`
	FolioID       string `json:"folioId" yaml:"folio_id"`
	Code          string `json:"code" yaml:"code"`
	Description   string `json:"description" yaml:"description"`
	TotalValue    Money  `json:"totalValue" yaml:"total_value"`
	CoveredAmount Money  `json:"coveredAmount" yaml:"covered_amount"`
	PatientCopay  Money  `json:"patientCopay" yaml:"patient_copay"`
}

// Folio groups authorization lines of one settlement batch.
type Folio struct {
	FolioID string              `json:"folioId" yaml:"folio_id"`
	Items   []AuthorizationLine `json:"items" yaml:"items"`
}

// ContractRule states how the coverage contract treats one domain.
type ContractRule struct {
	ID              string         `json:"id" yaml:"id"`
	Domain          CoverageDomain `json:"domain" yaml:"domain"`
	CoveragePercent *float64       `json:"coveragePercent,omitempty" yaml:"coverage_percent,omitempty"`
	Cap             *Money         `json:"cap,omitempty" yaml:"cap,omitempty"`
	LiteralText     string         `json:"literalText" yaml:"literal_text"`
}

type Bill struct {
	Items []BillItem `json:"items" yaml:"items"`
}

type Authorization struct {
	Folios []Folio `json:"folios" yaml:"folios"`
}

type Contract struct {
	Rules []ContractRule `json:"rules" yaml:"rules"`
}

// InputConfig carries per-audit overrides of the engine defaults.
type InputConfig struct {
	OpacityThreshold   *int     `json:"opacityThreshold,omitempty"`
	SystemicM3Fraction *float64 `json:"systemicM3Fraction,omitempty"`
	GenericBucketCodes []string `json:"genericBucketCodes,omitempty"`
}

// Input is the canonical audit request: the three normalized records plus
// optional configuration.
type Input struct {
	Bill          Bill          `json:"bill"`
	Authorization Authorization `json:"authorization"`
	Contract      Contract      `json:"contract"`
	Config        *InputConfig  `json:"config,omitempty"`
}

// Lines flattens all folios into one slice, preserving folio and line order.
// A line without its own FolioID inherits the folio's.
func (a Authorization) Lines() []AuthorizationLine {
	var lines []AuthorizationLine
	for _, f := range a.Folios {
		for _, l := range f.Items {
			if l.FolioID == "" {
				l.FolioID = f.FolioID
			}
			lines = append(lines, l)
		}
	}
	return lines
}
