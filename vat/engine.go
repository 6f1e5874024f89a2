/*
Package vat determines the VAT rate for a customer and computes VAT amounts.

Determination is a pure function of a [core.CustomerTaxProfile] and the static tables in this
package. It never fails: missing or malformed signals fall back to address parsing and finally
to Germany.

	decision := vat.Calculate(core.CustomerTaxProfile{
		Country:     core.Ptr("FR"),
		TaxID:       core.Ptr("FR12345678901"),
		IsValidated: true,
	})
	// decision.Rate == 0, decision.ReverseCharge == true
*/
package vat

import (
	"fmt"

	"github.com/prior-it/vatengine/address"
	"github.com/prior-it/vatengine/core"
	"github.com/shopspring/decimal"
)

// signals are the jurisdiction inputs after explicit fields and fallbacks were resolved.
// An empty country means only the postal code (if any) is known.
type signals struct {
	country    core.CountryCode
	postalCode string
}

// Calculate determines the VAT rate, its justification and whether reverse charge applies.
// Rules are evaluated in order, the first match wins:
//  1. Germany: 19%
//  2. Spain: 21%
//  3. EU member with a validated tax id: 0%, reverse charge
//  4. EU member: standard rate of that member state
//  5. anything else: 0% export
//
// Without an explicit country, the postal code decides between Germany and Spain. Because the
// German range contains the Spanish one, a bare postal code is always classified as German.
func Calculate(profile core.CustomerTaxProfile) core.VATDecision {
	country := jurisdiction(detect(profile))

	switch {
	case country == core.CountryGermany:
		return domestic(country, RateGermany, "VAT")
	case country == core.CountrySpain:
		return domestic(country, RateSpain, "IVA")
	case country.IsEU() && core.Value(profile.TaxID) != "" && profile.IsValidated:
		return core.VATDecision{
			Rate:          0,
			Reason:        fmt.Sprintf("Reverse charge (%s): EU B2B supply to VAT ID %s, 0%%", country, displayTaxID(profile.TaxID)),
			ReverseCharge: true,
			Country:       country,
			Basis:         core.BasisReverseCharge,
		}
	case country.IsEU():
		rate, ok := StandardRate(country)
		if !ok {
			rate = fallbackRate
		}
		return core.VATDecision{
			Rate:    rate,
			Reason:  fmt.Sprintf("%s (%s): EU standard VAT %s%%", country.Name(), country, percent(rate)),
			Country: country,
			Basis:   core.BasisEUStandard,
		}
	default:
		return core.VATDecision{
			Rate:    0,
			Reason:  fmt.Sprintf("Export (%s): supply outside the EU, not taxable, 0%%", country),
			Country: country,
			Basis:   core.BasisExport,
		}
	}
}

// detect resolves the explicit fields of the profile. The address is only parsed when neither
// a country nor a postal code was given; the tax id prefix is the last resort.
func detect(profile core.CustomerTaxProfile) signals {
	var s signals
	if code, err := core.ParseCountryCode(core.Value(profile.Country)); err == nil {
		s.country = code
	}
	s.postalCode = core.Value(profile.PostalCode)
	if s.country != "" || s.postalCode != "" {
		return s
	}

	if addr := core.Value(profile.Address); addr != "" {
		s.country = address.ExtractCountry(&addr)
		s.postalCode = address.ExtractPostalCode(&addr)
		return s
	}

	if id, err := core.ParseTaxID(core.Value(profile.TaxID)); err == nil {
		s.country = id.Country()
	}
	return s
}

// jurisdiction picks the country the rules are evaluated for.
func jurisdiction(s signals) core.CountryCode {
	if s.country != "" {
		return s.country
	}
	if country, ok := address.ClassifyPostalCode(s.postalCode); ok {
		return country
	}
	return core.DefaultCountry
}

func domestic(country core.CountryCode, rate float64, tax string) core.VATDecision {
	return core.VATDecision{
		Rate:    rate,
		Reason:  fmt.Sprintf("%s (%s): domestic %s %s%%", country.Name(), country, tax, percent(rate)),
		Country: country,
		Basis:   core.BasisDomestic,
	}
}

func displayTaxID(value *string) string {
	if id, err := core.ParseTaxID(core.Value(value)); err == nil {
		return id.String()
	}
	return core.Value(value)
}

func percent(rate float64) string {
	return decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(100)).String()
}
