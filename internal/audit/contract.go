package audit

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

// codeDomains maps known settlement group codes (normalized) to their domain.
var codeDomains = map[string]model.CoverageDomain{
	"0101001": model.DomainConsultation,          // medical consultation
	"0101002": model.DomainConsultation,          // specialist consultation
	"0202001": model.DomainHospitalization,       // day bed
	"0202002": model.DomainHospitalization,       // integral day bed
	"0202003": model.DomainHospitalization,       // intensive care day bed
	"0301001": model.DomainLabImaging,            // laboratory panel
	"0401001": model.DomainLabImaging,            // imaging
	"0601001": model.DomainPhysicalTherapy,       // physical therapy session
	"1101001": model.DomainProfessionalFees,      // surgeon fees
	"1101002": model.DomainProfessionalFees,      // assistant surgeon fees
	"1101003": model.DomainProfessionalFees,      // anesthesiologist fees
	"2001001": model.DomainOperatingRoom,         // operating room right
	"2001002": model.DomainOperatingRoom,         // minor procedures room
	"2101001": model.DomainProsthesesOrthoses,    // prostheses
	"2101002": model.DomainProsthesesOrthoses,    // orthoses
	"2201001": model.DomainTransport,             // ambulance transfer
	"3101001": model.DomainInHospitalMedications, // itemized medications
	"3101002": model.DomainClinicalMaterials,     // itemized clinical materials
	"3101302": model.DomainClinicalMaterials,     // miscellaneous supplies
	"3101304": model.DomainInHospitalMedications, // miscellaneous medications
	"3201001": model.DomainOther,                 // non-covered expenses
	"3201002": model.DomainOther,                 // non-tariffed services
}

// DefaultGenericBucketCodes are the settlement codes known to aggregate
// miscellaneous costs without itemization.
var DefaultGenericBucketCodes = []string{"3101302", "3101304", "3201001", "3201002"}

// domainKeywords matches terms as word-start stems and words as whole words.
// Short roots like "fee" and "lab" go in words so "feeding" and "labor" miss.
type domainKeywords struct {
	domain model.CoverageDomain
	terms  []string
	words  []string
}

func (dk domainKeywords) matches(folded string) bool {
	if _, ok := normalize.HasAnyWord(folded, dk.words); ok {
		return true
	}
	_, ok := normalize.HasAnyTerm(folded, dk.terms)
	return ok
}

// descriptionDomains is evaluated in order. Operating room precedes
// hospitalization so "operating room" is not read as a room charge.
var descriptionDomains = []domainKeywords{
	{domain: model.DomainOperatingRoom, terms: []string{"operating", "surgical suite", "pabellon", "quirofano"}},
	{domain: model.DomainPhysicalTherapy, terms: []string{"physical therapy", "physiotherapy", "kinesiolog", "kinesioterapia"}},
	{
		domain: model.DomainProfessionalFees,
		terms:  []string{"physician", "surgeon", "anesthesi", "anestesi", "honorario", "cirujano"},
		words:  []string{"fee", "fees"},
	},
	{domain: model.DomainProsthesesOrthoses, terms: []string{"prosthe", "protesis", "orthotic", "orthos", "ortesis"}},
	{domain: model.DomainInHospitalMedications, terms: []string{"medication", "drug", "medicamento", "farmaco"}},
	{domain: model.DomainClinicalMaterials, terms: []string{"material", "suppl", "device", "insumo"}},
	{
		domain: model.DomainLabImaging,
		terms:  []string{"panel", "culture", "imaging", "scan", "x ray", "cultivo", "imagen", "radiograf"},
		words:  []string{"lab", "labs", "laboratory", "laboratories", "laboratorio", "laboratorios"},
	},
	{domain: model.DomainTransport, terms: []string{"transport", "ambulance", "traslado", "ambulancia"}},
	{domain: model.DomainConsultation, terms: []string{"consultation", "office visit", "consulta"}},
	{domain: model.DomainHospitalization, terms: []string{"room", "bed", "hospitaliz", "dia cama"}},
}

// ResolveDomain maps a line to a coverage domain: code table first, then
// description keywords, then OTHER.
func ResolveDomain(line model.AuthorizationLine) (model.CoverageDomain, model.DomainSource) {
	if d, ok := codeDomains[normalize.NormalizeCode(line.Code)]; ok {
		return d, model.DomainFromCodeTable
	}
	folded := normalize.FoldText(line.Description)
	for _, dk := range descriptionDomains {
		if dk.matches(folded) {
			return dk.domain, model.DomainFromKeywords
		}
	}
	return model.DomainOther, model.DomainFromDefault
}

// EvaluateContract looks up the first rule covering the line's domain.
func EvaluateContract(line model.AuthorizationLine, rules []model.ContractRule) model.ContractCheck {
	domain, source := ResolveDomain(line)
	check := model.ContractCheck{
		Domain:       domain,
		DomainSource: source,
		State:        model.ContractNotVerifiable,
	}

	var rule *model.ContractRule
	for i := range rules {
		if rules[i].Domain == domain {
			rule = &rules[i]
			break
		}
	}
	if rule == nil {
		check.Note = fmt.Sprintf("contract has no rule for domain %s", domain)
		return check
	}

	check.State = model.ContractVerifiable
	check.RuleID = rule.ID
	check.RuleText = rule.LiteralText
	if rule.CoveragePercent != nil {
		expected := expectedCoverage(line.TotalValue, *rule.CoveragePercent, rule.Cap)
		check.ExpectedCoverage = &expected
		if expected > line.CoveredAmount {
			check.CoverageShortfall = expected - line.CoveredAmount
		}
	}
	return check
}

// expectedCoverage is round(total * percent / 100), limited by cap when set.
func expectedCoverage(total model.Money, percent float64, limit *model.Money) model.Money {
	d := decimal.NewFromInt(int64(total)).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	expected := model.Money(d.IntPart())
	if expected < 0 {
		expected = 0
	}
	if limit != nil && expected > *limit {
		expected = *limit
	}
	return expected
}
