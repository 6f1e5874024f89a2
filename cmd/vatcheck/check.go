package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prior-it/vatengine/address"
	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/vat"
)

var (
	StyleAddress = lipgloss.NewStyle().Bold(true)
	StyleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("#525252")).Width(10)
	StyleRate    = lipgloss.NewStyle().Foreground(lipgloss.Color("#139DFF")).Bold(true)
	StyleReverse = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC8925")).Bold(true)
	StyleExport  = lipgloss.NewStyle().Foreground(lipgloss.Color("#c084fc")).Bold(true)
	StyleBlock   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), false, false, false, true).PaddingLeft(1)
)

type options struct {
	Country   string
	Postal    string
	TaxID     string
	Validated bool
	Amount    float64
	German    bool
}

// warnings lists inputs that are accepted but probably not what the user meant.
func (o options) warnings() []string {
	var warnings []string
	if o.Country != "" {
		if _, err := core.ParseCountryCode(o.Country); err != nil {
			warnings = append(warnings, fmt.Sprintf("country %q is ignored: %v", o.Country, err))
		}
	}
	if o.TaxID != "" {
		if _, err := core.ParseTaxID(o.TaxID); err != nil {
			warnings = append(warnings, fmt.Sprintf("tax id %q looks invalid: %v", o.TaxID, err))
		}
	}
	if o.Validated && o.TaxID == "" {
		warnings = append(warnings, "-validated has no effect without -tax-id")
	}
	return warnings
}

// validate rejects inputs that cannot be evaluated at all.
func (o options) validate() error {
	if !vat.IsFinite(o.Amount) {
		return fmt.Errorf("-amount must be a finite number, got %v", o.Amount)
	}
	return nil
}

func (o options) profile(addr string) core.CustomerTaxProfile {
	profile := core.CustomerTaxProfile{IsValidated: o.Validated}
	if addr != "" {
		profile.Address = &addr
	}
	if o.Country != "" {
		profile.Country = core.Ptr(o.Country)
	}
	if o.Postal != "" {
		profile.PostalCode = core.Ptr(o.Postal)
	}
	if o.TaxID != "" {
		profile.TaxID = core.Ptr(o.TaxID)
	}
	return profile
}

type result struct {
	Address  string
	Parsed   address.Parsed
	Decision core.VATDecision
	Amounts  *vat.Amounts
}

func evaluate(addresses []string, opts options) []result {
	results := make([]result, 0, len(addresses))
	for _, addr := range addresses {
		r := result{
			Address:  addr,
			Parsed:   address.Parse(&addr),
			Decision: vat.Calculate(opts.profile(addr)),
		}
		if opts.Amount != 0 {
			amounts := vat.Breakdown(opts.Amount, r.Decision)
			r.Amounts = &amounts
		}
		results = append(results, r)
	}
	return results
}

// readAddresses reads one address per line, skipping blank lines and # comments.
func readAddresses(r io.Reader) ([]string, error) {
	var addresses []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		addresses = append(addresses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read addresses: %w", err)
	}
	return addresses, nil
}

func render(w io.Writer, results []result, german bool) {
	for _, r := range results {
		lines := []string{}
		if r.Address != "" {
			lines = append(lines,
				StyleAddress.Render(r.Address),
				StyleLabel.Render("city")+r.Parsed.City,
				StyleLabel.Render("postal")+r.Parsed.PostalCode,
			)
		}
		lines = append(lines,
			StyleLabel.Render("country")+fmt.Sprintf("%s (%s)", r.Decision.Country.Name(), r.Decision.Country),
			StyleLabel.Render("rate")+rateStyle(r.Decision).Render(formatRate(r.Decision.Rate)),
			StyleLabel.Render("reason")+r.Decision.Reason,
		)
		if r.Amounts != nil {
			lines = append(lines,
				StyleLabel.Render("net")+vat.FormatAmount(r.Amounts.Net, german),
				StyleLabel.Render("vat")+vat.FormatAmount(r.Amounts.VAT, german),
				StyleLabel.Render("total")+vat.FormatAmount(r.Amounts.Total, german),
			)
		}
		fmt.Fprintln(w, StyleBlock.Render(strings.Join(lines, "\n")))
	}
}

func rateStyle(decision core.VATDecision) lipgloss.Style {
	switch decision.Basis {
	case core.BasisReverseCharge:
		return StyleReverse
	case core.BasisExport:
		return StyleExport
	default:
		return StyleRate
	}
}

func formatRate(rate float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", rate*100), "0"), ".") + "%"
}
