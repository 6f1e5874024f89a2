package server

import (
	"net/http"

	"github.com/prior-it/vatengine/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are registered on their own registry, never on the global default one.
type Metrics struct {
	registry       *prometheus.Registry
	Determinations *prometheus.CounterVec
	ParsedAddress  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Determinations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatengine_determinations_total",
			Help: "Total number of VAT determinations by legal basis",
		}, []string{"basis"}),
		ParsedAddress: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vatengine_addresses_parsed_total",
			Help: "Total number of parsed addresses by detected country",
		}, []string{"country"}),
	}
}

func (m *Metrics) ObserveDecision(decision core.VATDecision) {
	m.Determinations.WithLabelValues(string(decision.Basis)).Inc()
}

func (m *Metrics) ObserveAddress(country core.CountryCode) {
	m.ParsedAddress.WithLabelValues(country.String()).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
