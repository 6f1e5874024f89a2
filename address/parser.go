/*
Package address extracts structured signals from unstructured, single-line postal addresses.

Every function in this package is total: absent or malformed input yields a sentinel value
rather than an error, so callers never need to guard against failures.

	addr := "Grabenstr. 13, 53424 Remagen"
	address.ExtractLocation(&addr)   // "Remagen"
	address.ExtractPostalCode(&addr) // "53424"
	address.ExtractCountry(&addr)    // "DE"
*/
package address

import (
	"regexp"
	"strings"

	"github.com/prior-it/vatengine/core"
)

// Unknown is returned by ExtractLocation when no city could be found.
const Unknown = "Unbekannt"

var (
	countryHint       = regexp.MustCompile(`\(([A-Z]{2})\)`)
	postalCode        = regexp.MustCompile(`\b\d{5}\b`)
	leadingPostalCode = regexp.MustCompile(`^\d{5}\b`)
)

// Parsed bundles everything that can be extracted from a single address.
type Parsed struct {
	City       string           `json:"city"`
	PostalCode string           `json:"postal_code"`
	Country    core.CountryCode `json:"country"`
}

// Parse runs all extractors against the address.
func Parse(address *string) Parsed {
	return Parsed{
		City:       ExtractLocation(address),
		PostalCode: ExtractPostalCode(address),
		Country:    ExtractCountry(address),
	}
}

// ExtractLocation returns the city name of the address.
// Country hints such as "(ES)" are ignored, the last comma-separated segment is used with a
// leading postal code stripped. If that is empty, the segment before it is tried instead.
func ExtractLocation(address *string) string {
	if address == nil {
		return Unknown
	}
	cleaned := countryHint.ReplaceAllLiteralString(*address, "")
	segments := strings.Split(cleaned, ",")

	for i := len(segments) - 1; i >= 0 && i >= len(segments)-2; i-- {
		if city := cityFromSegment(segments[i]); city != "" {
			return city
		}
	}
	return Unknown
}

func cityFromSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	segment = leadingPostalCode.ReplaceAllLiteralString(segment, "")
	return strings.TrimSpace(segment)
}

// ExtractPostalCode returns the first standalone 5-digit run, or "" if there is none.
func ExtractPostalCode(address *string) string {
	if address == nil {
		return ""
	}
	return postalCode.FindString(*address)
}

// ExtractCountry returns the country the address most likely belongs to.
// Signals are tried in order: an explicit "(XX)" hint, a known country name and finally the
// postal code range. Without any signal the address is considered German.
func ExtractCountry(address *string) core.CountryCode {
	if address == nil {
		return core.DefaultCountry
	}
	for _, match := range countryMatchers {
		if code, ok := match(*address); ok {
			return code
		}
	}
	return core.DefaultCountry
}
