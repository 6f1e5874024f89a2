package vat_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/tests"
	"github.com/prior-it/vatengine/vat"
	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Run("ok: germany", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr("DE")})
		assert.Equal(t, 0.19, decision.Rate)
		assert.False(t, decision.ReverseCharge)
		assert.Equal(t, core.BasisDomestic, decision.Basis)
		assert.Contains(t, decision.Reason, "(DE)")
	})

	t.Run("ok: spain", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr("ES")})
		assert.Equal(t, 0.21, decision.Rate)
		assert.False(t, decision.ReverseCharge)
		assert.Contains(t, decision.Reason, "IVA")
	})

	t.Run("ok: EU reverse charge with validated tax id", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("FR"),
			TaxID:       core.Ptr("FR12345678901"),
			IsValidated: true,
		})
		assert.Equal(t, 0.0, decision.Rate)
		assert.True(t, decision.ReverseCharge)
		assert.Equal(t, core.BasisReverseCharge, decision.Basis)
		assert.Contains(t, decision.Reason, "FR12345678901")
	})

	t.Run("ok: reason embeds the normalised tax id", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("FR"),
			TaxID:       core.Ptr("fr 123 456 789 01"),
			IsValidated: true,
		})
		assert.Contains(t, decision.Reason, "FR12345678901")
	})

	t.Run("ok: EU standard rate without tax id", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr("FR"), TaxID: nil})
		assert.Equal(t, 0.20, decision.Rate)
		assert.False(t, decision.ReverseCharge)
		assert.Equal(t, core.BasisEUStandard, decision.Basis)
	})

	t.Run("ok: EU standard rate when the tax id is not validated", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country: core.Ptr("FR"),
			TaxID:   core.Ptr("FR12345678901"),
		})
		assert.Equal(t, 0.20, decision.Rate)
		assert.False(t, decision.ReverseCharge)
	})

	t.Run("ok: blank tax id never triggers reverse charge", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("IT"),
			TaxID:       core.Ptr("   "),
			IsValidated: true,
		})
		assert.Equal(t, 0.22, decision.Rate)
		assert.False(t, decision.ReverseCharge)
	})

	t.Run("ok: export is distinguishable from reverse charge", func(t *testing.T) {
		export := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr("US")})
		reverse := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("FR"),
			TaxID:       core.Ptr("FR12345678901"),
			IsValidated: true,
		})
		assert.Equal(t, 0.0, export.Rate)
		assert.False(t, export.ReverseCharge)
		assert.Equal(t, core.BasisExport, export.Basis)
		assert.NotEqual(t, reverse.Reason, export.Reason)
	})

	t.Run("ok: validated non-EU tax id is still an export", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("CH"),
			TaxID:       core.Ptr("CHE123456789"),
			IsValidated: true,
		})
		assert.False(t, decision.ReverseCharge)
		assert.Equal(t, core.BasisExport, decision.Basis)
	})

	t.Run("ok: domestic customers never get reverse charge", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country:     core.Ptr("DE"),
			TaxID:       core.Ptr("DE123456789"),
			IsValidated: true,
		})
		assert.Equal(t, 0.19, decision.Rate)
		assert.False(t, decision.ReverseCharge)
	})

	t.Run("ok: explicit country wins over the address", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country: core.Ptr("fr"),
			Address: core.Ptr("Brückenstr 19, 34212 Melsungen (DE)"),
		})
		assert.Equal(t, core.CountryFrance, decision.Country)
		assert.Equal(t, 0.20, decision.Rate)
	})

	t.Run("ok: explicit postal code wins over the address", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			PostalCode: core.Ptr("28013"),
			Address:    core.Ptr("Calle Mayor 1, 28013 Madrid (ES)"),
		})
		assert.Equal(t, core.CountryGermany, decision.Country)
		assert.Equal(t, 0.19, decision.Rate)
	})

	t.Run("ok: bare postal code in the overlapping band is german", func(t *testing.T) {
		for _, code := range []string{"10115", "28013", "52999"} {
			decision := vat.Calculate(core.CustomerTaxProfile{PostalCode: &code})
			assert.Equal(t, core.CountryGermany, decision.Country, code)
		}
	})

	t.Run("ok: unclassifiable postal code defaults to germany", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{PostalCode: core.Ptr("SW1A 1AA")})
		assert.Equal(t, core.CountryGermany, decision.Country)
	})

	t.Run("ok: address hints and names", func(t *testing.T) {
		spain := vat.Calculate(core.CustomerTaxProfile{Address: core.Ptr("Calle Mayor 1, 28013 Madrid (ES)")})
		assert.Equal(t, 0.21, spain.Rate)

		austria := vat.Calculate(core.CustomerTaxProfile{Address: core.Ptr("Stephansplatz 1, 1010 Wien, Austria")})
		assert.Equal(t, core.CountryAustria, austria.Country)
		assert.Equal(t, 0.20, austria.Rate)

		france := vat.Calculate(core.CustomerTaxProfile{
			Address:     core.Ptr("1 Rue de Rivoli, 75001 Paris, France"),
			TaxID:       core.Ptr("FR12345678901"),
			IsValidated: true,
		})
		assert.True(t, france.ReverseCharge)
	})

	t.Run("ok: address with postal code in the overlapping band and no hint", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := fmt.Sprintf("%05d", tests.Faker.IntRange(10000, 52999))
			addr := fmt.Sprintf("Hauptstraße %d, %s %s", tests.Faker.Number(1, 200), code, tests.Faker.LetterN(8))
			decision := vat.Calculate(core.CustomerTaxProfile{Address: &addr})
			assert.Equal(t, core.CountryGermany, decision.Country, addr)
		}
	})

	t.Run("ok: invalid explicit country is ignored", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{
			Country: core.Ptr("XX"),
			Address: core.Ptr("Via Roma 1, 00100 Roma (IT)"),
		})
		assert.Equal(t, core.CountryItaly, decision.Country)
	})

	t.Run("ok: tax id prefix is the last resort", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{TaxID: core.Ptr("ATU12345678")})
		assert.Equal(t, core.CountryAustria, decision.Country)
		assert.Equal(t, 0.20, decision.Rate)

		decision = vat.Calculate(core.CustomerTaxProfile{TaxID: core.Ptr("ATU12345678"), IsValidated: true})
		assert.True(t, decision.ReverseCharge)
	})

	t.Run("ok: greek VAT prefix", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr("EL")})
		assert.Equal(t, core.CountryGreece, decision.Country)
		assert.Equal(t, 0.24, decision.Rate)

		hinted := vat.Calculate(core.CustomerTaxProfile{Address: core.Ptr("Odos Ermou 1, 10563 Athina (EL)")})
		assert.Equal(t, core.CountryGreece, hinted.Country)
		assert.Equal(t, 0.24, hinted.Rate)
		assert.Equal(t, core.BasisEUStandard, hinted.Basis)
	})

	t.Run("ok: unknown address hint is an export", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{Address: core.Ptr("10 Downing St, SW1A 2AA London (UK)")})
		assert.Equal(t, core.CountryCode("UK"), decision.Country)
		assert.Equal(t, core.BasisExport, decision.Basis)
		assert.Zero(t, decision.Rate)
	})

	t.Run("ok: empty profile defaults to germany", func(t *testing.T) {
		decision := vat.Calculate(core.CustomerTaxProfile{})
		assert.Equal(t, core.CountryGermany, decision.Country)
		assert.Equal(t, 0.19, decision.Rate)
	})

	t.Run("ok: every EU member resolves to its table rate", func(t *testing.T) {
		for code := range core.EUMembers {
			expected, ok := vat.Rates[code]
			assert.True(t, ok, "%s is missing from the rate table", code)

			decision := vat.Calculate(core.CustomerTaxProfile{Country: core.Ptr(code.String())})
			assert.Equal(t, expected, decision.Rate, code)
			assert.False(t, decision.ReverseCharge, code)
			if code == core.CountryGermany || code == core.CountrySpain {
				assert.Equal(t, core.BasisDomestic, decision.Basis, code)
			} else {
				assert.Equal(t, core.BasisEUStandard, decision.Basis, code)
			}
		}
		assert.Len(t, vat.Rates, len(core.EUMembers))
	})

	t.Run("ok: rates are fractions", func(t *testing.T) {
		for code, rate := range vat.Rates {
			assert.True(t, rate > 0 && rate < 1, code)
		}
	})

	t.Run("ok: profile is not mutated and results are idempotent", func(t *testing.T) {
		profile := core.CustomerTaxProfile{
			Address:     core.Ptr(" Calle Mayor 1, 28013 Madrid (ES) "),
			TaxID:       core.Ptr("es b12345678"),
			IsValidated: true,
		}
		before := *profile.Address
		first := vat.Calculate(profile)
		second := vat.Calculate(profile)
		assert.Equal(t, first, second)
		assert.Equal(t, before, *profile.Address)
		assert.Equal(t, "es b12345678", *profile.TaxID)
		assert.Nil(t, profile.Country)
		assert.Nil(t, profile.PostalCode)
	})

	t.Run("ok: safe for concurrent use", func(t *testing.T) {
		profiles := []core.CustomerTaxProfile{
			{Country: core.Ptr("DE")},
			{Country: core.Ptr("NL"), TaxID: core.Ptr("NL123456789B01"), IsValidated: true},
			{Address: core.Ptr("Grabenstr. 13, 53424 Remagen")},
			{Country: core.Ptr("US")},
		}
		expected := make([]core.VATDecision, len(profiles))
		for i, p := range profiles {
			expected[i] = vat.Calculate(p)
		}

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i, p := range profiles {
					assert.Equal(t, expected[i], vat.Calculate(p))
				}
			}()
		}
		wg.Wait()
	})
}
