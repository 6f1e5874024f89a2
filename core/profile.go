package core

import "strings"

// CustomerTaxProfile holds every signal that is used to determine VAT for a customer.
// A nil field means the signal is absent. The engine never modifies a profile.
type CustomerTaxProfile struct {
	// Country is an explicit ISO-3166 alpha-2 code and always wins over the address.
	Country *string `json:"country,omitempty"      schema:"country"`
	// PostalCode is an explicit 5-digit postal code and wins over the address.
	PostalCode *string `json:"postal_code,omitempty"  schema:"postal_code"`
	// Address is free text, only used when both Country and PostalCode are absent.
	Address *string `json:"address,omitempty"      schema:"address"`
	TaxID   *string `json:"tax_id,omitempty"       schema:"tax_id"`
	// IsValidated is true only if TaxID passed an external validation check.
	IsValidated bool `json:"is_validated,omitempty" schema:"validated"`
}

// Basis is the legal basis a VAT rate was selected on.
type Basis string

const (
	BasisDomestic      Basis = "domestic"
	BasisEUStandard    Basis = "eu_standard"
	BasisReverseCharge Basis = "reverse_charge"
	BasisExport        Basis = "export"
)

// VATDecision is the outcome of a single determination.
type VATDecision struct {
	// Rate is a fraction in [0, 1], e.g. 0.19 for 19%.
	Rate          float64     `json:"rate"`
	Reason        string      `json:"reason"`
	ReverseCharge bool        `json:"reverse_charge"`
	Country       CountryCode `json:"country"`
	Basis         Basis       `json:"basis"`
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Value returns the trimmed string behind s, or "" if s is nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
