package vat

import "github.com/prior-it/vatengine/core"

const (
	RateGermany = 0.19
	RateSpain   = 0.21
	// fallbackRate is only used if an EU member were ever missing from Rates.
	fallbackRate = 0.19
)

// Rates holds the standard VAT rate of every EU member state as a fraction.
// It is a closed table: every code in core.EUMembers has an entry. It is never written after init.
var Rates = map[core.CountryCode]float64{
	"AT": 0.20,
	"BE": 0.21,
	"BG": 0.20,
	"HR": 0.25,
	"CY": 0.19,
	"CZ": 0.21,
	"DK": 0.25,
	"EE": 0.24,
	"FI": 0.255,
	"FR": 0.20,
	"DE": RateGermany,
	"GR": 0.24,
	"HU": 0.27,
	"IE": 0.23,
	"IT": 0.22,
	"LV": 0.21,
	"LT": 0.21,
	"LU": 0.17,
	"MT": 0.18,
	"NL": 0.21,
	"PL": 0.23,
	"PT": 0.23,
	"RO": 0.21,
	"SK": 0.23,
	"SI": 0.22,
	"ES": RateSpain,
	"SE": 0.25,
}

// StandardRate returns the standard rate for an EU member state.
func StandardRate(country core.CountryCode) (float64, bool) {
	rate, ok := Rates[country]
	return rate, ok
}
