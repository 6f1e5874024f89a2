package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidTaxID        = errors.New("invalid tax id")
	ErrTaxIDTooShort       = errors.New("tax id should contain a country prefix and at least 2 characters")
	ErrTaxIDInvalidCountry = errors.New("tax id does not start with a valid country prefix")
	ErrTaxIDFormat         = errors.New("tax id should contain 2 to 12 letters or digits after the prefix")
	ErrTaxIDChecksum       = errors.New("tax id checksum does not match")
)

type TaxID interface {
	// String returns the normalised representation, e.g. "FR12345678901"
	String() string
	// Country returns the country derived from the prefix. "EL" resolves to Greece.
	Country() CountryCode
}

type taxID struct {
	value   string
	country CountryCode
}

func (id taxID) String() string {
	return id.value
}

func (id taxID) Country() CountryCode {
	return id.country
}

var (
	taxIDSeparators = regexp.MustCompile(`[\s.\-/]`)
	taxIDBody       = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)
)

// ParseTaxID parses a VAT identifier of the form <2-letter country><2–12 alphanumerics>.
// Whitespace, dots, dashes and slashes are ignored and the result is upper-cased.
// This does NOT check whether the identifier is actually registered.
func ParseTaxID(value string) (TaxID, error) {
	cleaned := taxIDSeparators.ReplaceAllLiteralString(strings.ToUpper(value), "")
	if len(cleaned) < 4 {
		return nil, errors.Join(ErrInvalidTaxID, ErrTaxIDTooShort)
	}
	prefix, body := cleaned[:2], cleaned[2:]
	country, err := ParseCountryCode(prefix)
	if err != nil {
		return nil, errors.Join(
			ErrInvalidTaxID,
			ErrTaxIDInvalidCountry,
			fmt.Errorf("cannot parse tax id %q: %w", value, err),
		)
	}
	if !taxIDBody.MatchString(body) {
		return nil, errors.Join(ErrInvalidTaxID, ErrTaxIDFormat)
	}
	if country == "BE" {
		if err := checkBelgianChecksum(body); err != nil {
			return nil, errors.Join(ErrInvalidTaxID, fmt.Errorf("cannot parse tax id %q: %w", value, err))
		}
	}
	return taxID{value: cleaned, country: country}, nil
}

// Verifies a Belgian enterprise number against its mod-97 checksum.
// Older 9-digit numbers are padded with a leading 0.
func checkBelgianChecksum(body string) error {
	const vatNumberLength = 10
	const primeDivider = 97

	if len(body) == vatNumberLength-1 {
		body = "0" + body
	}
	if len(body) != vatNumberLength {
		return errors.New("a Belgian tax id should contain 10 digits")
	}

	firstPart, err := strconv.Atoi(body[0:8])
	if err != nil {
		return err
	}
	checksum, err := strconv.Atoi(body[8:10])
	if err != nil {
		return err
	}
	if primeDivider-(firstPart%primeDivider) != checksum {
		return ErrTaxIDChecksum
	}
	return nil
}
