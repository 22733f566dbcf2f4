package audit

import (
	"sort"
	"strings"

	"github.com/gyeh/billaudit/internal/model"
	"github.com/gyeh/billaudit/internal/normalize"
)

// Vocabulary is matched against folded text, English and Spanish forms.
var (
	operatingRoomTerms = []string{
		"operating room", "operating theater", "operating theatre", "surgical suite",
		"pabellon", "quirofano",
	}
	dayBedTerms = []string{
		"day bed", "bed day", "room and board", "patient room",
		"dia cama", "cama integral",
	}
	surgicalPackageTerms = []string{
		"surgical package", "surgical bundle", "paquete quirurgico",
	}
)

// InferEventModel looks for evidence of the principal clinical act and of
// bundled packages in the invoice descriptions. Best effort: no evidence
// yields GENERAL_HOSPITALIZATION with no packages.
func InferEventModel(items []model.BillItem) model.EventModel {
	folded := make([]string, 0, len(items))
	for _, item := range items {
		folded = append(folded, normalize.FoldText(item.Description))
	}
	// Newline keeps terms from spanning two items.
	corpus := strings.Join(folded, "\n")

	em := model.EventModel{
		PrincipalAct:     model.ActGeneralHospitalization,
		DetectedPackages: []model.Package{},
	}
	if _, ok := normalize.HasAnyTerm(corpus, operatingRoomTerms); ok {
		em.PrincipalAct = model.ActSurgery
		em.DetectedPackages = append(em.DetectedPackages, model.PackageOperatingRoomRight)
	}
	if _, ok := normalize.HasAnyTerm(corpus, dayBedTerms); ok {
		em.DetectedPackages = append(em.DetectedPackages, model.PackageIntegralDayBed)
	}
	if _, ok := normalize.HasAnyTerm(corpus, surgicalPackageTerms); ok {
		em.DetectedPackages = append(em.DetectedPackages, model.PackageSurgical)
	}
	sort.Slice(em.DetectedPackages, func(i, j int) bool {
		return em.DetectedPackages[i] < em.DetectedPackages[j]
	})
	return em
}
