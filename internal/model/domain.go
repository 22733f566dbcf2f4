package model

import (
	"fmt"
	"strings"
)

// CoverageDomain is the closed set of clinical service categories a
// contract rule can cover.
type CoverageDomain string

const (
	DomainHospitalization       CoverageDomain = "HOSPITALIZATION"
	DomainOperatingRoom         CoverageDomain = "OPERATING_ROOM"
	DomainProfessionalFees      CoverageDomain = "PROFESSIONAL_FEES"
	DomainClinicalMaterials     CoverageDomain = "CLINICAL_MATERIALS"
	DomainInHospitalMedications CoverageDomain = "IN_HOSPITAL_MEDICATIONS"
	DomainLabImaging            CoverageDomain = "LAB_IMAGING"
	DomainPhysicalTherapy       CoverageDomain = "PHYSICAL_THERAPY"
	DomainProsthesesOrthoses    CoverageDomain = "PROSTHESES_ORTHOSES"
	DomainConsultation          CoverageDomain = "CONSULTATION"
	DomainTransport             CoverageDomain = "TRANSPORT"
	DomainOther                 CoverageDomain = "OTHER"
)

// AllDomains lists the coverage domains in canonical order.
var AllDomains = []CoverageDomain{
	DomainHospitalization,
	DomainOperatingRoom,
	DomainProfessionalFees,
	DomainClinicalMaterials,
	DomainInHospitalMedications,
	DomainLabImaging,
	DomainPhysicalTherapy,
	DomainProsthesesOrthoses,
	DomainConsultation,
	DomainTransport,
	DomainOther,
}

// ParseDomain resolves a domain name. Hyphens, slashes and spaces are
// treated as underscores, so "LAB/IMAGING" and "in-hospital medications"
// are accepted.
func ParseDomain(s string) (CoverageDomain, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", "/", "_", " ", "_").Replace(key)
	for _, d := range AllDomains {
		if string(d) == key {
			return d, true
		}
	}
	return "", false
}

// UnmarshalText rejects names outside the closed set. Used by both JSON and YAML decoding.
func (d *CoverageDomain) UnmarshalText(text []byte) error {
	parsed, ok := ParseDomain(string(text))
	if !ok {
		return fmt.Errorf("unknown coverage domain %q", string(text))
	}
	*d = parsed
	return nil
}
