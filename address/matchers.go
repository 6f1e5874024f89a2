package address

import (
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/prior-it/vatengine/core"
)

// A countryMatcher inspects the raw address and reports a country if it found a signal.
// Matchers are pure and are combined first-match-wins.
type countryMatcher func(address string) (core.CountryCode, bool)

var countryMatchers = []countryMatcher{
	matchCountryHint,
	matchCountryName,
	matchPostalRange,
}

// matchCountryHint returns the first parenthesised two-letter code, e.g. "Calle Mayor 1, Madrid (ES)".
// VAT prefixes are normalised ("(EL)" is Greece); codes that are not ISO countries, such as "(UK)",
// are returned as written and therefore never count as EU members.
func matchCountryHint(address string) (core.CountryCode, bool) {
	groups := countryHint.FindStringSubmatch(address)
	if groups == nil {
		return "", false
	}
	if code, err := core.ParseCountryCode(groups[1]); err == nil {
		return code, true
	}
	return core.CountryCode(groups[1]), true
}

type countryName struct {
	spelling string
	country  core.CountryCode
}

// Spellings are lower case and checked in order.
var countryNames = []countryName{
	{"españa", core.CountrySpain},
	{"espana", core.CountrySpain},
	{"spanien", core.CountrySpain},
	{"spain", core.CountrySpain},
	{"österreich", core.CountryAustria},
	{"oesterreich", core.CountryAustria},
	{"austria", core.CountryAustria},
	{"frankreich", core.CountryFrance},
	{"france", core.CountryFrance},
	{"francia", core.CountryFrance},
	{"italien", core.CountryItaly},
	{"italia", core.CountryItaly},
	{"italy", core.CountryItaly},
	{"deutschland", core.CountryGermany},
	{"germany", core.CountryGermany},
	{"alemania", core.CountryGermany},
}

// matchCountryName looks for a whole word of the spelling table, so street names such as
// "Frankreichstr." do not count.
func matchCountryName(address string) (core.CountryCode, bool) {
	words := strings.FieldsFunc(strings.ToLower(address), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, name := range countryNames {
		if slices.Contains(words, name.spelling) {
			return name.country, true
		}
	}
	return "", false
}

func matchPostalRange(address string) (core.CountryCode, bool) {
	code := postalCode.FindString(address)
	if code == "" {
		return "", false
	}
	return ClassifyPostalCode(code)
}

type postalRange struct {
	country  core.CountryCode
	from, to int
}

// The ranges overlap in 1000–52999. Germany is listed first and therefore wins, Spain is
// only reachable for codes that are outside the German range, which currently is none.
var postalRanges = []postalRange{
	{core.CountryGermany, 1000, 99999},
	{core.CountrySpain, 1000, 52999},
}

// ClassifyPostalCode maps an exact 5-digit postal code to a country by numeric range.
// Anything that is not exactly 5 ASCII digits, or falls outside every range, is unclassified.
func ClassifyPostalCode(code string) (core.CountryCode, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 5 {
		return "", false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	value, err := strconv.Atoi(code)
	if err != nil {
		return "", false
	}
	for _, pr := range postalRanges {
		if value >= pr.from && value <= pr.to {
			return pr.country, true
		}
	}
	return "", false
}
