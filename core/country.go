package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/biter777/countries"
)

var ErrInvalidCountryCode = errors.New("invalid country code")

// CountryCode is an upper-case ISO-3166 alpha-2 code, e.g. "DE".
type CountryCode string

const (
	CountryGermany CountryCode = "DE"
	CountrySpain   CountryCode = "ES"
	CountryAustria CountryCode = "AT"
	CountryFrance  CountryCode = "FR"
	CountryItaly   CountryCode = "IT"
	CountryGreece  CountryCode = "GR"
)

// DefaultCountry is used whenever no signal resolves a country.
const DefaultCountry = CountryGermany

// EUMembers is the closed set of EU member states. It is never written after init.
var EUMembers = map[CountryCode]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

// vatPrefixes maps EU VAT prefixes that differ from the ISO code.
var vatPrefixes = map[string]CountryCode{
	"EL": CountryGreece,
}

func (c CountryCode) String() string {
	return string(c)
}

// IsEU reports whether the country is one of the 27 EU member states.
func (c CountryCode) IsEU() bool {
	_, ok := EUMembers[c]
	return ok
}

// Name returns the English name of the country, or the code itself if it is unknown.
func (c CountryCode) Name() string {
	code := countries.ByName(string(c))
	if code == countries.Unknown {
		return string(c)
	}
	return code.String()
}

// ParseCountryCode parses a two-letter country code in any casing.
// The Greek VAT prefix "EL" is accepted and normalised to "GR".
func ParseCountryCode(value string) (CountryCode, error) {
	value = strings.ToUpper(strings.TrimSpace(value))
	if len(value) != 2 {
		return "", fmt.Errorf("%w: %q should contain exactly 2 letters", ErrInvalidCountryCode, value)
	}
	if code, ok := vatPrefixes[value]; ok {
		return code, nil
	}
	if !IsKnownCountry(value) {
		return "", fmt.Errorf("%w: %q is not an ISO-3166 country", ErrInvalidCountryCode, value)
	}
	return CountryCode(value), nil
}

// IsKnownCountry reports whether value is an upper-case ISO-3166 alpha-2 code.
func IsKnownCountry(value string) bool {
	if len(value) != 2 || value[0] < 'A' || value[0] > 'Z' || value[1] < 'A' || value[1] > 'Z' {
		return false
	}
	code := countries.ByName(value)
	return code != countries.Unknown && code.Alpha2() == value
}
