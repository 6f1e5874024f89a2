package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/prior-it/vatengine/address"
	"github.com/prior-it/vatengine/core"
	"github.com/prior-it/vatengine/vat"
)

// API is the state shared by all VAT routes.
type API struct {
	Metrics *Metrics
	// Customers is optional, customer routes respond with 404 without it.
	Customers core.CustomerService
	closers   []func(ctx context.Context)
}

func NewAPI(customers core.CustomerService, closers ...func(ctx context.Context)) *API {
	return &API{
		Metrics:   NewMetrics(),
		Customers: customers,
		closers:   closers,
	}
}

func (api *API) Close(ctx context.Context) {
	for _, closer := range api.closers {
		closer(ctx)
	}
}

// Routes attaches all VAT routes to the server.
func Routes(s *Server[*API]) {
	s.Get("/ping", Ping).
		Get("/vat", DetermineFromQuery).
		Post("/vat", DetermineFromBody).
		Get("/vat/amounts", Amounts).
		Get("/vat/net", NetFromGross).
		Get("/address", ParseAddress).
		Get("/customers/{id}/vat", CustomerVAT)
	s.Handle("/metrics", s.state.Metrics.Handler())
}

func Ping(c *Ctx, _ *API) error {
	return c.Text("pong")
}

func DetermineFromQuery(c *Ctx, api *API) error {
	var profile core.CustomerTaxProfile
	if err := c.DecodeQuery(&profile); err != nil {
		return err
	}
	return api.determine(c, profile)
}

func DetermineFromBody(c *Ctx, api *API) error {
	var profile core.CustomerTaxProfile
	if err := c.DecodeJSON(&profile); err != nil {
		return err
	}
	return api.determine(c, profile)
}

func (api *API) determine(c *Ctx, profile core.CustomerTaxProfile) error {
	decision := vat.Calculate(profile)
	api.Metrics.ObserveDecision(decision)
	c.LogString("vat_basis", string(decision.Basis))
	return c.JSON(decision)
}

// Amounts computes the VAT amounts of a subtotal, either for an explicit rate or for the
// decision of the given country.
func Amounts(c *Ctx, api *API) error {
	subtotal, err := c.QueryFloat("subtotal")
	if err != nil {
		return err
	}

	decision := core.VATDecision{}
	if c.GetQuery("rate") != "" {
		if decision.Rate, err = queryRate(c); err != nil {
			return err
		}
	} else {
		var profile core.CustomerTaxProfile
		if err := c.DecodeQuery(&profile); err != nil {
			return err
		}
		decision = vat.Calculate(profile)
		api.Metrics.ObserveDecision(decision)
	}

	return c.JSON(vat.Breakdown(subtotal, decision))
}

type netResponse struct {
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
	Rate  float64 `json:"rate"`
}

func NetFromGross(c *Ctx, _ *API) error {
	gross, err := c.QueryFloat("gross")
	if err != nil {
		return err
	}
	rate, err := queryRate(c)
	if err != nil {
		return err
	}
	return c.JSON(netResponse{
		Gross: gross,
		Net:   vat.CalculateNetFromGross(gross, rate),
		Rate:  rate,
	})
}

func ParseAddress(c *Ctx, api *API) error {
	raw := c.GetQuery("address")
	if raw == "" {
		return fmt.Errorf("missing query parameter %q: %w", "address", core.ErrInvalidInput)
	}
	parsed := address.Parse(&raw)
	api.Metrics.ObserveAddress(parsed.Country)
	return c.JSON(parsed)
}

type customerVATResponse struct {
	CustomerID core.CustomerID   `json:"customer_id"`
	Name       string            `json:"name"`
	Decision   core.VATDecision  `json:"decision"`
	Stored     *core.VATDecision `json:"stored,omitempty"`
}

// CustomerVAT determines the VAT of a stored customer next to the last persisted decision.
func CustomerVAT(c *Ctx, api *API) error {
	if api.Customers == nil {
		return fmt.Errorf("no customer store configured: %w", core.ErrNotFound)
	}
	id, err := core.ParseCustomerID(c.GetPath("id"))
	if err != nil {
		return errors.Join(core.ErrInvalidInput, err)
	}
	customer, err := api.Customers.GetCustomer(c.Context(), id)
	if err != nil {
		return fmt.Errorf("cannot get customer %v: %w", id, err)
	}
	decision := vat.Calculate(customer.TaxProfile(customer.TaxIDValidated))
	api.Metrics.ObserveDecision(decision)
	c.LogString("customer_id", id.String())

	return c.JSON(customerVATResponse{
		CustomerID: customer.ID,
		Name:       customer.Name,
		Decision:   decision,
		Stored:     customer.VAT,
	})
}

func queryRate(c *Ctx) (float64, error) {
	rate, err := c.QueryFloat("rate")
	if err != nil {
		return 0, err
	}
	if rate < 0 || rate > 1 {
		return 0, fmt.Errorf("rate %v is not a fraction between 0 and 1: %w", rate, core.ErrInvalidInput)
	}
	return rate, nil
}
