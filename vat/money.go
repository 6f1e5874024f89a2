package vat

import (
	"math"
	"strings"

	"github.com/prior-it/vatengine/core"
	"github.com/shopspring/decimal"
)

// All amounts are rounded to cents, half-up, after multiplication.
// Inputs go through decimal so that e.g. 1.005 is treated as written and not as 1.00499999...
const centPlaces = 2

var one = decimal.NewFromInt(1)

// IsFinite reports whether v can be used as an amount or rate, i.e. it is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// toDecimal converts an amount or rate. NaN and infinities have no decimal form and count as 0.
func toDecimal(v float64) decimal.Decimal {
	if !IsFinite(v) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(amount float64) float64 {
	return toDecimal(amount).Round(centPlaces).InexactFloat64()
}

// CalculateAmount returns the VAT due on a net subtotal.
func CalculateAmount(subtotal, rate float64) float64 {
	return vatAmount(toDecimal(subtotal), toDecimal(rate)).InexactFloat64()
}

// CalculateTotal returns subtotal plus VAT.
func CalculateTotal(subtotal, rate float64) float64 {
	net := toDecimal(subtotal)
	tax := vatAmount(net, toDecimal(rate))
	return net.Add(tax).Round(centPlaces).InexactFloat64()
}

// CalculateNetFromGross strips the VAT out of a gross amount.
// Rounding is not invertible, so the result may differ from the original subtotal by one cent.
func CalculateNetFromGross(gross, rate float64) float64 {
	divisor := one.Add(toDecimal(rate))
	if divisor.IsZero() {
		return 0
	}
	return toDecimal(gross).Div(divisor).Round(centPlaces).InexactFloat64()
}

func vatAmount(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Round(centPlaces)
}

// Amounts is the monetary breakdown of a subtotal under a VAT decision.
type Amounts struct {
	Net           float64 `json:"net"`
	VAT           float64 `json:"vat"`
	Total         float64 `json:"total"`
	Rate          float64 `json:"rate"`
	ReverseCharge bool    `json:"reverse_charge"`
}

// Breakdown applies a decision to a net subtotal.
func Breakdown(subtotal float64, decision core.VATDecision) Amounts {
	return Amounts{
		Net:           Round2(subtotal),
		VAT:           CalculateAmount(subtotal, decision.Rate),
		Total:         CalculateTotal(subtotal, decision.Rate),
		Rate:          decision.Rate,
		ReverseCharge: decision.ReverseCharge,
	}
}

// FormatAmount renders an amount with two decimals. With german set, "." groups thousands and
// "," separates decimals ("1.234,56"); otherwise the plain form "1234.56" is used.
func FormatAmount(amount float64, german bool) string {
	plain := toDecimal(amount).StringFixed(centPlaces)
	if !german {
		return plain
	}

	sign := ""
	if strings.HasPrefix(plain, "-") {
		sign, plain = "-", plain[1:]
	}
	integer, fraction, _ := strings.Cut(plain, ".")

	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}
	return sign + grouped.String() + "," + fraction
}
